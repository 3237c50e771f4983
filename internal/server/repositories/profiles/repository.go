// Package profiles stores per-user salt and canary records.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

// Repository persists profiles. Both write methods are write-once at the SQL
// level and report whether a row was written.
type Repository interface {
	// Get returns common.ErrorNotFound when the user has no profile.
	Get(ctx context.Context, userName string) (*models.Profile, error)
	// InsertSalt creates the profile; false means it already existed.
	InsertSalt(ctx context.Context, userName, salt string) (bool, error)
	// SetCanary fills an empty canary; false means no profile or a canary
	// already present.
	SetCanary(ctx context.Context, userName, iv, ciphertext string) (bool, error)
}
