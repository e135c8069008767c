package health

import (
	"log/slog"
)

type (
	Handler struct {
		level  *slog.LevelVar
		apiKey string
	}

	LogLevelRequest struct {
		Level string `json:"level"`
	}

	LogLevelResponse struct {
		Level string `json:"level"`
	}
)
