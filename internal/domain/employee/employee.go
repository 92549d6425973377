// Package employee is the local copy of the HR directory used to resolve requesters.
package employee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Employee struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Active     bool      `json:"active"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository defines employee directory persistence operations
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	Upsert(ctx context.Context, e *Employee) error
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	WithTx(tx pgx.Tx) Repository
}
