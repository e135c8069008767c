package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KyleBrandon/w1-reporter/internal/database"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
	"github.com/KyleBrandon/w1-reporter/internal/transport"
)

type (
	// Report is the outcome of one cycle.
	Report struct {
		ID          uuid.UUID `json:"id"`
		CreatedAt   time.Time `json:"created_at"`
		DeviceCount int       `json:"device_count"`
		ValidCount  int       `json:"valid_count"`
		Body        string    `json:"body"`
		StatusCode  int       `json:"status_code"`
		Delivered   bool      `json:"delivered"`
		Error       string    `json:"error,omitempty"`
	}

	Snapshot struct {
		Report   Report           `json:"report"`
		Readings []sensor.Reading `json:"readings"`
	}

	// Reader produces the readings for one cycle. sensor.Roster implements it.
	Reader interface {
		Read() []sensor.Reading
	}

	Poster interface {
		Post(ctx context.Context, body []byte) (transport.Response, error)
	}

	Indicator interface {
		On() error
		Off() error
	}

	// Sink receives every Report after the POST. A failing sink never fails
	// the cycle.
	Sink interface {
		Name() string
		Write(ctx context.Context, report Report) error
	}

	ReportStore interface {
		CreateReport(ctx context.Context, arg database.CreateReportParams) (database.Report, error)
	}

	Publisher interface {
		Publish(ctx context.Context, payload []byte) error
	}

	Reporter struct {
		sync.Mutex
		reader    Reader
		poster    Poster
		indicator Indicator
		sinks     []Sink
		latest    *Snapshot
		now       func() time.Time
	}

	storeSink struct {
		store ReportStore
	}

	publisherSink struct {
		name      string
		publisher Publisher
	}
)
