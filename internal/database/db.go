package database

import (
	"context"
	"database/sql"
	"regexp"
)

const (
	DRIVER_POSTGRES string = "postgres"
	DRIVER_SQLITE   string = "sqlite"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX, driver string) *Queries {
	return &Queries{db: db, driver: driver}
}

type Queries struct {
	db     DBTX
	driver string
}

var placeholder = regexp.MustCompile(`\$\d+`)

// rebind converts $n placeholders for drivers that only accept ?.
func (q *Queries) rebind(query string) string {
	if q.driver != DRIVER_SQLITE {
		return query
	}

	return placeholder.ReplaceAllString(query, "?")
}
