package reports

import (
	"context"

	"github.com/KyleBrandon/w1-reporter/internal/database"
)

const (
	defaultLimit = 20
	maxLimit     = 500
)

type (
	ReportStore interface {
		ListRecentReports(ctx context.Context, limit int32) ([]database.Report, error)
	}

	Handler struct {
		store ReportStore
	}
)
