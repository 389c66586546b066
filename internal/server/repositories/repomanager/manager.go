package repomanager

import (
	"context"
	"database/sql"

	"github.com/messagely/backend/internal/dbx"
	"github.com/messagely/backend/internal/server/repositories/messages"
	"github.com/messagely/backend/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX
// (either the pooled connection or a transaction) and owns schema setup.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Messages(db dbx.DBTX) messages.Repository
}
