package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	goredis "github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bulldogs/rpetracker/internal/domain/model"
	"github.com/bulldogs/rpetracker/pkg/logger"
)

type pushed struct {
	key   string
	value []byte
}

type fakePusher struct {
	pushes []pushed
	err    error
	closed bool
}

func (f *fakePusher) LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd {
	cmd := goredis.NewIntCmd(ctx, "lpush", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	for _, v := range values {
		f.pushes = append(f.pushes, pushed{key: key, value: v.([]byte)})
	}
	cmd.SetVal(int64(len(f.pushes)))
	return cmd
}

func (f *fakePusher) Close() error {
	f.closed = true
	return nil
}

var today = civil.Date{Year: 2025, Month: time.June, Day: 1}

func TestRedisDispatcher(t *testing.T) {
	Convey("Given a redis dispatcher", t, func() {
		ctx := context.Background()
		rdb := &fakePusher{}
		d := newRedisDispatcher(rdb, "rpe:reminders", "rpe:coach-reports", nil)

		Convey("When sending a reminder", func() {
			err := d.SendReminder(ctx, model.Reminder{ID: "r1", Email: "a@school.edu", Day: today})

			Convey("Then a JSON job lands on the reminder list", func() {
				So(err, ShouldBeNil)
				So(rdb.pushes, ShouldHaveLength, 1)
				So(rdb.pushes[0].key, ShouldEqual, "rpe:reminders")
				var got model.Reminder
				So(json.Unmarshal(rdb.pushes[0].value, &got), ShouldBeNil)
				So(got.Email, ShouldEqual, "a@school.edu")
				So(got.Day, ShouldEqual, today)
			})
		})

		Convey("When sending a coach report", func() {
			report := model.CoachReport{
				ID:      "c1",
				Coach:   "coach@school.edu",
				Day:     today,
				Summary: model.TeamSummary{Athletes: 3, TeamAverage: model.Some(6)},
				Flagged: []model.WorkloadSample{{Email: "b@school.edu", State: model.VeryHigh}},
			}
			err := d.SendCoachReport(ctx, report)

			Convey("Then it lands on the report list", func() {
				So(err, ShouldBeNil)
				So(rdb.pushes[0].key, ShouldEqual, "rpe:coach-reports")
				So(string(rdb.pushes[0].value), ShouldContainSubstring, `"state":"very_high"`)
				So(string(rdb.pushes[0].value), ShouldContainSubstring, `"teamAverage":6`)
			})
		})

		Convey("When redis rejects the push", func() {
			rdb.err = errors.New("READONLY")
			err := d.SendReminder(ctx, model.Reminder{ID: "r1"})

			Convey("Then a dispatch error is returned", func() {
				So(errors.Is(err, ErrDispatch), ShouldBeTrue)
			})
		})

		Convey("When closed", func() {
			So(d.Close(), ShouldBeNil)
			So(rdb.closed, ShouldBeTrue)
		})
	})
}

func TestLogDispatcher(t *testing.T) {
	Convey("Given a log dispatcher", t, func() {
		core, logs := observer.New(zapcore.DebugLevel)
		logger.InitWith(zap.New(core))
		d := NewLogDispatcher(logger.Named("notify"))

		So(d.SendReminder(context.Background(), model.Reminder{ID: "r1", Email: "a@school.edu", Day: today}), ShouldBeNil)
		So(d.SendCoachReport(context.Background(), model.CoachReport{ID: "c1", Coach: "coach@school.edu", Day: today}), ShouldBeNil)
		So(d.Close(), ShouldBeNil)

		Convey("Then each job is logged with its recipient", func() {
			So(logs.Len(), ShouldEqual, 2)
			So(logs.All()[0].ContextMap()["email"], ShouldEqual, "a@school.edu")
			So(logs.All()[1].ContextMap()["coach"], ShouldEqual, "coach@school.edu")
		})
	})
}
