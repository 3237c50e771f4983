package records

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/client/models"
)

// Repository describes storage operations for encrypted records.
type Repository interface {
	// Upsert inserts rec or replaces the IV and ciphertext of the record with
	// the same name. rec.ID is kept from the existing row on update.
	Upsert(ctx context.Context, rec *models.Record) error

	// GetByName returns common.ErrorNotFound when no record has that name.
	GetByName(ctx context.Context, name string) (*models.Record, error)

	// List returns all records ordered by name.
	List(ctx context.Context) ([]models.Record, error)

	// DeleteByName returns common.ErrorNotFound when nothing was deleted.
	DeleteByName(ctx context.Context, name string) error
}
