// Package services contains server-side business logic. This file implements
// UserService: registration, authentication, login (with token minting and
// the last-login bump), and the user-centric queries.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/messagely/backend/internal/common"
	"github.com/messagely/backend/internal/dbx"
	"github.com/messagely/backend/internal/server/auth"
	"github.com/messagely/backend/internal/server/config"
	"github.com/messagely/backend/internal/server/models"
	"github.com/messagely/backend/internal/server/repositories/repomanager"
)

// UserService provides user-related operations:
// - Register: hash the password and create the user
// - Authenticate: verify credentials without leaking user existence
// - Login: verify credentials, bump last_login_at, mint a JWT
// - Get/List/MessagesFrom/MessagesTo: user queries
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
	}
}

// Register hashes the password and creates the user. The returned projection
// carries no password field. A taken username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password, firstName, lastName, phone string) (*models.UserProfile, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:  username,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
	}

	repo := s.repomanager.Users(s.db)
	created, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return created.Profile(), nil
}

// Authenticate reports whether username/password is a valid pair. A missing
// user returns (false, nil) so existence is not leaked through errors.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (bool, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error loading user: %w", err)
	}
	return s.checkPassword(user.Password, password), nil
}

// Login verifies credentials, bumps last_login_at, and mints an access
// token. The credential check and the timestamp update run in one
// transaction so they observe the same row. Bad credentials yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	var token string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error loading user: %w", err)
		}

		if !s.checkPassword(user.Password, password) {
			return common.ErrorUnauthorized
		}

		if err := repo.UpdateLoginTimestamp(ctx, username); err != nil {
			return fmt.Errorf("error updating login timestamp: %w", err)
		}

		t, err := auth.GenerateToken(username, s.jwtSecret, s.accessTokenValidityDuration)
		if err != nil {
			return common.ErrorInternal
		}
		token = t
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// UpdateLoginTimestamp sets the user's last_login_at to now.
func (s *UserService) UpdateLoginTimestamp(ctx context.Context, username string) error {
	return s.repomanager.Users(s.db).UpdateLoginTimestamp(ctx, username)
}

// Get returns the password-free detail projection for username.
func (s *UserService) Get(ctx context.Context, username string) (*models.UserDetail, error) {
	return s.repomanager.Users(s.db).GetDetail(ctx, username)
}

// List returns all user profiles ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.UserProfile, error) {
	return s.repomanager.Users(s.db).List(ctx)
}

// MessagesFrom returns the user's outbox.
func (s *UserService) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	return s.repomanager.Users(s.db).MessagesFrom(ctx, username)
}

// MessagesTo returns the user's inbox.
func (s *UserService) MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	return s.repomanager.Users(s.db).MessagesTo(ctx, username)
}

func (s *UserService) checkPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
