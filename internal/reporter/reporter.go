package reporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KyleBrandon/w1-reporter/internal/message"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
	"github.com/KyleBrandon/w1-reporter/internal/transport"
)

const sinkTimeout = 5 * time.Second

// New builds a Reporter. indicator may be nil.
func New(reader Reader, poster Poster, indicator Indicator, sinks ...Sink) *Reporter {
	return &Reporter{
		reader:    reader,
		poster:    poster,
		indicator: indicator,
		sinks:     sinks,
		now:       time.Now,
	}
}

// AddSink registers an additional sink. Sinks are called in order.
func (r *Reporter) AddSink(s Sink) {
	r.Lock()
	defer r.Unlock()

	r.sinks = append(r.sinks, s)
}

// Latest returns the snapshot of the last completed cycle.
func (r *Reporter) Latest() (Snapshot, bool) {
	r.Lock()
	defer r.Unlock()

	if r.latest == nil {
		return Snapshot{}, false
	}

	return *r.latest, true
}

// RunCycle reads every sensor, posts the encoded readings and records the
// outcome. Nothing in a cycle is fatal.
func (r *Reporter) RunCycle(ctx context.Context) Report {
	slog.Debug(">>RunCycle")
	defer slog.Debug("<<RunCycle")

	r.setIndicator(true)
	defer r.setIndicator(false)

	readings := r.reader.Read()
	body := message.Encode(readings)

	report := Report{
		ID:          uuid.New(),
		CreatedAt:   r.now().UTC(),
		DeviceCount: len(readings),
		ValidCount:  sensor.ValidCount(readings),
		Body:        string(body),
	}

	slog.Info("sending readings", "cycle", report.ID, "json", report.Body)

	resp, err := r.poster.Post(ctx, body)
	report.StatusCode = resp.StatusCode
	interrupted := ctx.Err() != nil
	switch {
	case interrupted:
		slog.Warn("cycle interrupted by shutdown", "cycle", report.ID, "error", ctx.Err())
		report.Error = fmt.Sprintf("interrupted: %v", ctx.Err())
	case errors.Is(err, transport.ErrConnect):
		slog.Error("connection failed, skipping this cycle", "cycle", report.ID, "error", err)
		report.Error = err.Error()
	case err != nil:
		slog.Error("failed to send readings", "cycle", report.ID, "error", err)
		report.Error = err.Error()
	case !resp.Delivered():
		slog.Warn("server did not accept readings", "cycle", report.ID, "status", resp.Status)
		report.Error = fmt.Sprintf("unexpected response %q", resp.Status)
	default:
		report.Delivered = true
		slog.Info("readings delivered", "cycle", report.ID, "status", resp.Status)
	}

	r.Lock()
	r.latest = &Snapshot{
		Report:   report,
		Readings: readings,
	}
	sinks := r.sinks
	r.Unlock()

	// an interrupted cycle is still recorded, within sinkTimeout
	sinkCtx := ctx
	if interrupted {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		defer cancel()
	}

	for _, s := range sinks {
		if err := s.Write(sinkCtx, report); err != nil {
			slog.Error("failed to write report", "sink", s.Name(), "cycle", report.ID, "error", err)
		}
	}

	return report
}

func (r *Reporter) setIndicator(on bool) {
	if r.indicator == nil {
		return
	}

	var err error
	if on {
		err = r.indicator.On()
	} else {
		err = r.indicator.Off()
	}
	if err != nil {
		slog.Warn("failed to set status indicator", "on", on, "error", err)
	}
}
