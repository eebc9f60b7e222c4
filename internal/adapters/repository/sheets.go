package repository

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/bulldogs/rpetracker/internal/domain/sheet"
	"github.com/bulldogs/rpetracker/pkg/logger"
	"github.com/bulldogs/rpetracker/pkg/metrics"
)

// SheetsSource reads the table from a Google Sheets value range. It is
// read-only; credentials are supplied by the caller through client options.
type SheetsSource struct {
	svc           *sheets.Service
	spreadsheetID string
	readRange     string
	log           logger.Logger
}

// NewSheetsSource creates a source for readRange of spreadsheetID.
func NewSheetsSource(ctx context.Context, spreadsheetID, readRange string, clientOpts []option.ClientOption, opts ...Option) (*SheetsSource, error) {
	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	o := newOptions(opts)
	return &SheetsSource{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		log:           o.log,
	}, nil
}

// CredentialsFile returns client options authenticating with a service
// account key file, limited to read-only spreadsheet access.
func CredentialsFile(path string) []option.ClientOption {
	return []option.ClientOption{
		option.WithCredentialsFile(path),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	}
}

// Fetch implements Source.
func (s *SheetsSource) Fetch(ctx context.Context) (*sheet.Table, error) {
	start := time.Now()
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.readRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		metrics.RecordStoreError("sheets_fetch")
		return nil, fmt.Errorf("get %s: %w", s.readRange, err)
	}

	records := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = fmt.Sprint(cell)
		}
		records[i] = rec
	}

	t, err := sheet.FromRecords(records)
	if err != nil {
		metrics.RecordStoreError("sheets_fetch")
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptTable, s.readRange, err)
	}
	metrics.RecordStoreFetchLatency(float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "fetched sheet",
		logger.String("range", s.readRange),
		logger.Int("rows", len(t.Rows)),
	)
	return t, nil
}
