package users

import (
	"context"

	"github.com/messagely/backend/internal/server/models"
)

// Repository is the query contract over the users entity. Implementations
// are stateless facades; every read reflects the store's committed state.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetDetail(ctx context.Context, username string) (*models.UserDetail, error)
	UpdateLoginTimestamp(ctx context.Context, username string) error
	List(ctx context.Context) ([]models.UserProfile, error)
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error)
}
