package repositories

import (
	"context"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
)

// UserRepository interface for user reads. This service does not own user
// data; lookups go to the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
}
