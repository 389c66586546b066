package messages

import (
	"context"

	"github.com/messagely/backend/internal/server/models"
)

// Repository is the query contract over the messages entity.
type Repository interface {
	Create(ctx context.Context, fromUsername, toUsername, body string) (*models.MessageSent, error)
	Get(ctx context.Context, id int64) (*models.MessageDetail, error)
	MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error)
}
