package reports

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/KyleBrandon/w1-reporter/internal/reporter"
	"github.com/KyleBrandon/w1-reporter/pkg/utils"
)

// NewHandler serves the report history. store is nil when no database is
// configured.
func NewHandler(store ReportStore) *Handler {
	return &Handler{
		store: store,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/reports", h.handlerReportsGet)
}

func (h *Handler) handlerReportsGet(w http.ResponseWriter, r *http.Request) {
	slog.Debug("handlerReportsGet")

	if h.store == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "Report history is not enabled", errors.New("no database configured"))
		return
	}

	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLimit {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	rows, err := h.store.ListRecentReports(r.Context(), int32(limit))
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to query reports", err)
		return
	}

	results := make([]reporter.Report, 0, len(rows))
	for _, row := range rows {
		results = append(results, reporter.FromDatabase(row))
	}

	utils.RespondWithJSON(w, http.StatusOK, results)
}
