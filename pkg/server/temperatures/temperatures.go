package temperatures

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/KyleBrandon/w1-reporter/internal/reporter"
	"github.com/KyleBrandon/w1-reporter/internal/sensor"
	"github.com/KyleBrandon/w1-reporter/pkg/utils"
)

// NewHandler serves the latest cycle. names maps a compact device address to
// the configured device name.
func NewHandler(source SnapshotSource, names map[string]string) *Handler {
	return &Handler{
		source,
		names,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/readings", h.handlerReadingsGet)
}

func (h *Handler) handlerReadingsGet(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handlerReadingsGet")

	snap, ok := h.source.Latest()
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "No readings yet", nil)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, ConvertSnapshot(snap, h.names))
}

// ConvertSnapshot builds the API view of a snapshot.
func ConvertSnapshot(snap reporter.Snapshot, names map[string]string) ReadingsResponse {
	results := make([]TemperatureReading, 0, len(snap.Readings))
	for _, t := range snap.Readings {
		results = append(results, convertFromSensorReading(t, names))
	}

	return ReadingsResponse{
		CycleID:     snap.Report.ID.String(),
		ReadAt:      snap.Report.CreatedAt.Format(time.RFC3339),
		DeviceCount: snap.Report.DeviceCount,
		ValidCount:  snap.Report.ValidCount,
		Delivered:   snap.Report.Delivered,
		StatusCode:  snap.Report.StatusCode,
		Error:       snap.Report.Error,
		Readings:    results,
	}
}

func convertFromSensorReading(tr sensor.Reading, names map[string]string) TemperatureReading {
	reading := TemperatureReading{
		Index: tr.Index,
		Valid: tr.Valid,
	}

	if !tr.Valid {
		return reading
	}

	reading.Address = tr.Address.Compact()
	reading.Name = names[reading.Address]
	reading.TemperatureC = tr.TemperatureC
	reading.TemperatureF = (tr.TemperatureC * 9 / 5) + 32

	return reading
}
