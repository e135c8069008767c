package reporter

import (
	"context"
	"time"

	"github.com/KyleBrandon/w1-reporter/internal/database"
)

// NewStoreSink records every report in the history database.
func NewStoreSink(store ReportStore) Sink {
	return &storeSink{store: store}
}

func (s *storeSink) Name() string {
	return "database"
}

func (s *storeSink) Write(ctx context.Context, report Report) error {
	_, err := s.store.CreateReport(ctx, database.CreateReportParams{
		ID:          report.ID,
		CreatedAt:   report.CreatedAt.UnixMilli(),
		DeviceCount: int32(report.DeviceCount),
		ValidCount:  int32(report.ValidCount),
		Body:        report.Body,
		StatusCode:  int32(report.StatusCode),
		Delivered:   report.Delivered,
		Error:       report.Error,
	})

	return err
}

// NewPublisherSink mirrors the report body to a message broker.
func NewPublisherSink(name string, publisher Publisher) Sink {
	return &publisherSink{
		name:      name,
		publisher: publisher,
	}
}

func (s *publisherSink) Name() string {
	return s.name
}

func (s *publisherSink) Write(ctx context.Context, report Report) error {
	return s.publisher.Publish(ctx, []byte(report.Body))
}

// FromDatabase converts a stored report back into a Report.
func FromDatabase(r database.Report) Report {
	return Report{
		ID:          r.ID,
		CreatedAt:   time.UnixMilli(r.CreatedAt).UTC(),
		DeviceCount: int(r.DeviceCount),
		ValidCount:  int(r.ValidCount),
		Body:        r.Body,
		StatusCode:  int(r.StatusCode),
		Delivered:   r.Delivered,
		Error:       r.Error,
	}
}
