// Package messages provides the PostgreSQL-backed repository for message
// rows and the unread→read transition.
package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/messagely/backend/internal/common"
	"github.com/messagely/backend/internal/dbx"
	"github.com/messagely/backend/internal/server/models"
)

// Postgres error code for foreign key violations.
const pgForeignKeyViolation = "23503"

// PostgresRepository implements message storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a message. sent_at is assigned by the store clock and
// read_at starts NULL. A dangling from/to username surfaces as
// common.ErrorNotFound via the FK constraint.
func (r *PostgresRepository) Create(ctx context.Context, fromUsername, toUsername, body string) (*models.MessageSent, error) {
	query :=
		`INSERT INTO messages (from_username, to_username, body, sent_at)
		 VALUES ($1, $2, $3, current_timestamp)
		 RETURNING id, sent_at
		 `

	m := &models.MessageSent{
		FromUsername: fromUsername,
		ToUsername:   toUsername,
		Body:         body,
	}
	err := r.db.QueryRowContext(ctx, query, fromUsername, toUsername, body).
		Scan(&m.ID, &m.SentAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

// Get returns one message with sender and recipient profiles joined at
// query time. A missing id yields common.ErrorNotFound.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.MessageDetail, error) {
	query :=
		`SELECT m.id, m.body, m.sent_at, m.read_at,
		        f.username, f.first_name, f.last_name, f.phone,
		        t.username, t.first_name, t.last_name, t.phone
		 FROM messages m
		 JOIN users f ON m.from_username = f.username
		 JOIN users t ON m.to_username = t.username
		 WHERE m.id = $1
		 `

	detail := &models.MessageDetail{}
	var readAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&detail.ID, &detail.Body, &detail.SentAt, &readAt,
		&detail.FromUser.Username, &detail.FromUser.FirstName, &detail.FromUser.LastName, &detail.FromUser.Phone,
		&detail.ToUser.Username, &detail.ToUser.FirstName, &detail.ToUser.LastName, &detail.ToUser.Phone)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if readAt.Valid {
		t := readAt.Time
		detail.ReadAt = &t
	}

	return detail, nil
}

// MarkRead transitions read_at from NULL to the store clock. The conditional
// update makes the transition happen at most once; re-marking an already-read
// message is a no-op that returns the stored read_at. A missing id yields
// common.ErrorNotFound.
func (r *PostgresRepository) MarkRead(ctx context.Context, id int64) (*models.ReadReceipt, error) {
	query :=
		`UPDATE messages SET read_at = current_timestamp
		 WHERE id = $1 AND read_at IS NULL
		 RETURNING read_at
		 `

	receipt := &models.ReadReceipt{ID: id}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&receipt.ReadAt)
	if err == nil {
		return receipt, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("db error: %w", err)
	}

	// Zero rows updated: either the message is already read or it does not
	// exist. Re-read to tell the two apart.
	var readAt sql.NullTime
	err = r.db.QueryRowContext(ctx, `SELECT read_at FROM messages WHERE id = $1`, id).Scan(&readAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !readAt.Valid {
		return nil, fmt.Errorf("db error: message %d unread after conditional update", id)
	}

	receipt.ReadAt = readAt.Time
	return receipt, nil
}
