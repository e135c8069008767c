package status

import (
	"time"

	"github.com/KyleBrandon/w1-reporter/pkg/server/temperatures"
)

const (
	pollInterval      = 1 * time.Second
	heartbeatInterval = 30 * time.Second
)

type (
	Handler struct {
		source         temperatures.SnapshotSource
		names          map[string]string
		originPatterns []string
		pollInterval   time.Duration
	}
)
