package health

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/KyleBrandon/w1-reporter/internal/auth"
	"github.com/KyleBrandon/w1-reporter/pkg/utils"
)

// NewHandler builds the health routes. A non-empty apiKey is required to
// change the log level.
func NewHandler(level *slog.LevelVar, apiKey string) *Handler {
	return &Handler{
		level:  level,
		apiKey: apiKey,
	}
}

func (handler *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/health", handler.handlerHealthGet)
	mux.HandleFunc("GET /v1/health/loglevel", handler.handlerLogLevelGet)
	mux.HandleFunc("PUT /v1/health/loglevel", auth.RequireApiKey(handler.apiKey, handler.handlerLogLevelPut))
}

func (handler *Handler) handlerHealthGet(writer http.ResponseWriter, req *http.Request) {
	slog.Debug("enter handlerGetHealth")
	response := struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	}

	utils.RespondWithJSON(writer, http.StatusOK, response)
}

func (handler *Handler) handlerLogLevelGet(writer http.ResponseWriter, req *http.Request) {
	utils.RespondWithJSON(writer, http.StatusOK, LogLevelResponse{Level: handler.level.Level().String()})
}

func (handler *Handler) handlerLogLevelPut(writer http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	var request LogLevelRequest
	if err := json.NewDecoder(req.Body).Decode(&request); err != nil {
		utils.RespondWithError(writer, http.StatusBadRequest, "Invalid body for log level", err)
		return
	}

	level, err := utils.ParseLogLevel(request.Level)
	if err != nil {
		utils.RespondWithError(writer, http.StatusBadRequest, "Invalid log level", err)
		return
	}

	handler.level.Set(level)
	slog.Info("log level changed", "level", level)

	utils.RespondWithJSON(writer, http.StatusOK, LogLevelResponse{Level: level.String()})
}
