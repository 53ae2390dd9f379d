package repositories

import (
	"context"

	"github.com/SAP-F-2025/enrollment-service/internal/models"
)

// UserRepository is the storage port of the user directory.
// Lookups that match nothing return ErrNotFound.
type UserRepository interface {
	// Insert stores a new user and assigns its ID. A taken email yields ErrDuplicateKey.
	Insert(ctx context.Context, user *models.User) error

	// FindOne returns the first user matching the filter
	FindOne(ctx context.Context, filter UserFilter) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindAll returns every matching user; a zero filter matches all users
	FindAll(ctx context.Context, filter UserFilter) ([]*models.User, error)

	// Save replaces the stored user with the same ID, inserting it if missing
	Save(ctx context.Context, user *models.User) error
}

// CourseRepository resolves course references for read-through expansion.
// Unknown ids are simply absent from the result map.
type CourseRepository interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*models.Course, error)
}
