package storage

import (
	"context"
	"time"
)

// Store defines the journal interface.
type Store interface {
	// Validation results
	InsertValidationResult(ctx context.Context, r *ValidationRecord) error
	GetValidationResult(ctx context.Context, id int64) (*ValidationRecord, error)
	ListValidationResults(ctx context.Context, f ValidationFilter, p Pagination) (*PaginatedResult, error)
	DeleteValidationResult(ctx context.Context, id int64) error

	// Data retention
	PurgeOldData(ctx context.Context, before time.Time) (int64, error)

	// Lifecycle
	Close() error
}
