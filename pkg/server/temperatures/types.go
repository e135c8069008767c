package temperatures

import (
	"github.com/KyleBrandon/w1-reporter/internal/reporter"
)

type (
	TemperatureReading struct {
		Index        int     `json:"index"`
		Address      string  `json:"address,omitempty"`
		Name         string  `json:"name,omitempty"`
		Valid        bool    `json:"valid"`
		TemperatureC float64 `json:"temperature_c"`
		TemperatureF float64 `json:"temperature_f"`
	}

	ReadingsResponse struct {
		CycleID     string               `json:"cycle_id"`
		ReadAt      string               `json:"read_at"`
		DeviceCount int                  `json:"device_count"`
		ValidCount  int                  `json:"valid_count"`
		Delivered   bool                 `json:"delivered"`
		StatusCode  int                  `json:"status_code"`
		Error       string               `json:"error,omitempty"`
		Readings    []TemperatureReading `json:"readings"`
	}

	SnapshotSource interface {
		Latest() (reporter.Snapshot, bool)
	}

	Handler struct {
		source SnapshotSource
		names  map[string]string
	}
)
