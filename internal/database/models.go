package database

import (
	"github.com/google/uuid"
)

type Report struct {
	ID          uuid.UUID
	CreatedAt   int64
	DeviceCount int32
	ValidCount  int32
	Body        string
	StatusCode  int32
	Delivered   bool
	Error       string
}
