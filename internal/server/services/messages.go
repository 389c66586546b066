package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/messagely/backend/internal/common"
	"github.com/messagely/backend/internal/server/authz"
	"github.com/messagely/backend/internal/server/config"
	"github.com/messagely/backend/internal/server/models"
	"github.com/messagely/backend/internal/server/repositories/repomanager"
)

// MessageService provides message operations. Read access and read-marking
// are guarded by the authz predicates against the caller's username; the
// repository is never invoked past a denied guard.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Send creates a message from caller to toUsername. An unknown recipient
// yields common.ErrorNotFound via the store's FK constraint.
func (s *MessageService) Send(ctx context.Context, caller, toUsername, body string) (*models.MessageSent, error) {
	repo := s.repomanager.Messages(s.db)
	m, err := repo.Create(ctx, caller, toUsername, body)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns the message detail if caller is its sender or recipient;
// otherwise common.ErrorUnauthorized.
func (s *MessageService) Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error) {
	repo := s.repomanager.Messages(s.db)
	detail, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanView(caller, detail) {
		return nil, common.ErrorUnauthorized
	}
	return detail, nil
}

// MarkRead marks the message read on behalf of caller. Only the recipient
// may; marking an already-read message returns the stored receipt.
func (s *MessageService) MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error) {
	repo := s.repomanager.Messages(s.db)

	detail, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanMarkRead(caller, detail) {
		return nil, common.ErrorUnauthorized
	}

	receipt, err := repo.MarkRead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error marking message read: %w", err)
	}
	return receipt, nil
}
