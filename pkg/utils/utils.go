package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

func RespondWithJSON(writer http.ResponseWriter, code int, payload interface{}) {
	resultData, err := json.Marshal(payload)
	if err != nil {
		RespondWithError(writer, http.StatusInternalServerError, "Error marshalling result", err)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(code)
	writer.Write(resultData)
}

func RespondWithError(writer http.ResponseWriter, code int, message string, err error) {
	slog.Error(message, "http_status", code, "error", err)

	response := struct {
		Error string `json:"error"`
	}{
		Error: message,
	}

	RespondWithJSON(writer, code, response)
}

// ParseLogLevel accepts the slog level names in any case, plus "warning".
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
