package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

// pusher is the part of the redis client the dispatcher uses.
type pusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	Close() error
}

// RedisDispatcher pushes JSON jobs onto Redis lists consumed by an external
// mailer, one list for reminders and one for coach reports.
type RedisDispatcher struct {
	rdb         pusher
	reminderKey string
	reportKey   string
	log         logger.Logger
}

// NewRedisDispatcher connects to addr and verifies the connection.
func NewRedisDispatcher(ctx context.Context, addr, reminderKey, reportKey string, log logger.Logger) (*RedisDispatcher, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisDispatcher(rdb, reminderKey, reportKey, log), nil
}

func newRedisDispatcher(rdb pusher, reminderKey, reportKey string, log logger.Logger) *RedisDispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisDispatcher{rdb: rdb, reminderKey: reminderKey, reportKey: reportKey, log: log}
}

func (d *RedisDispatcher) SendReminder(ctx context.Context, r model.Reminder) error {
	return d.push(ctx, d.reminderKey, r.ID, r)
}

func (d *RedisDispatcher) SendCoachReport(ctx context.Context, r model.CoachReport) error {
	return d.push(ctx, d.reportKey, r.ID, r)
}

func (d *RedisDispatcher) push(ctx context.Context, key, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", id, err)
	}
	if err := d.rdb.LPush(ctx, key, raw).Err(); err != nil {
		return fmt.Errorf("%w: lpush %s: %v", ErrDispatch, key, err)
	}
	d.log.Debug(ctx, "job queued", logger.String("key", key), logger.String("id", id))
	return nil
}

func (d *RedisDispatcher) Close() error { return d.rdb.Close() }
