package status

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/KyleBrandon/w1-reporter/pkg/server/temperatures"
)

func NewHandler(source temperatures.SnapshotSource, names map[string]string, originPatterns []string) *Handler {
	h := Handler{
		source,
		names,
		originPatterns,
		pollInterval,
	}

	return &h
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/readings/ws", h.handleReadingsWS)
}

func (h *Handler) handleReadingsWS(w http.ResponseWriter, r *http.Request) {
	slog.Debug(">>handleReadingsWS: new incoming connection")
	defer slog.Debug("<<handleReadingsWS")

	opts := &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	}
	c, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept error:", "error", err)
		return
	}

	defer c.Close(websocket.StatusInternalError, "Unexpected connection close")

	ctx := c.CloseRead(r.Context())

	h.streamReadings(ctx, c)
}

// streamReadings pushes every new cycle to the client. The current snapshot,
// if any, is sent immediately.
func (h *Handler) streamReadings(ctx context.Context, c *websocket.Conn) {
	slog.Debug(">>streamReadings")
	defer slog.Debug("<<streamReadings")

	ticker := time.NewTicker(h.pollInterval)
	heartbeatTicker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer heartbeatTicker.Stop()

	var lastSent uuid.UUID
	send := func() bool {
		snap, ok := h.source.Latest()
		if !ok || snap.Report.ID == lastSent {
			return true
		}

		err := wsjson.Write(ctx, c, temperatures.ConvertSnapshot(snap, h.names))
		if err != nil {
			slog.Error("streamReadings: error writing to client", "error", err)
			c.Close(websocket.StatusInternalError, "error writing readings")
			return false
		}
		lastSent = snap.Report.ID

		return true
	}

	if !send() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("streamReadings: client disconnected")
			c.Close(websocket.StatusNormalClosure, "Connection closed")
			return

		case <-ticker.C:
			if !send() {
				return
			}

		case <-heartbeatTicker.C:
			err := c.Ping(ctx)
			if err != nil {
				slog.Error("streamReadings: error sending ping", "error", err)
				c.Close(websocket.StatusInternalError, "error sending ping")
				return
			}
		}
	}
}
