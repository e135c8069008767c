package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	MODE_DELAY    string = "delay"
	MODE_INTERVAL string = "interval"
	MODE_CRON     string = "cron"

	DefaultDelay        = 2000 * time.Millisecond
	DefaultPollInterval = 100 * time.Millisecond
)

const (
	StateIdle State = iota
	StateRunning
)

type (
	State int32

	Config struct {
		Mode            string `json:"mode" yaml:"mode"`
		DelayMs         int    `json:"delay_ms" yaml:"delay_ms"`
		IntervalSeconds int    `json:"interval_seconds" yaml:"interval_seconds"`
		PollMs          int    `json:"poll_ms" yaml:"poll_ms"`
		Cron            string `json:"cron" yaml:"cron"`
	}

	// Job is one cycle. It must return only once the cycle has completed.
	Job func(ctx context.Context)

	Scheduler struct {
		mode     string
		delay    time.Duration
		interval time.Duration
		poll     time.Duration
		schedule cron.Schedule
		spec     string

		state atomic.Int32
		runs  atomic.Int64
	}
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}

	return "idle"
}
