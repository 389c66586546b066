// Package httpapi exposes the messaging operations over JSON/HTTP and
// enforces the request-level authorization rules.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/messagely/backend/internal/server/models"
)

// UserProvider is the slice of UserService the handlers need.
type UserProvider interface {
	Register(ctx context.Context, username, password, firstName, lastName, phone string) (*models.UserProfile, error)
	Login(ctx context.Context, username, password string) (string, error)
	Get(ctx context.Context, username string) (*models.UserDetail, error)
	List(ctx context.Context) ([]models.UserProfile, error)
	MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error)
}

// MessageProvider is the slice of MessageService the handlers need.
type MessageProvider interface {
	Send(ctx context.Context, caller, toUsername, body string) (*models.MessageSent, error)
	Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error)
	MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error)
}

// UserHandler serves registration, login, and user queries.
type UserHandler struct {
	Users UserProvider
}

type registerRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeErrorMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	profile, err := h.Users.Register(r.Context(), req.Username, req.Password, req.FirstName, req.LastName, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": profile})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}

	token, err := h.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": profiles})
}

// sameUser guards the per-user routes: only {username} itself may read its
// detail, inbox, and outbox.
func sameUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	username := mux.Vars(r)["username"]
	caller, ok := CallerFromContext(r.Context())
	if !ok || caller != username {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return username, true
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	username, ok := sameUser(w, r)
	if !ok {
		return
	}

	detail, err := h.Users.Get(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": detail})
}

func (h *UserHandler) MessagesFrom(w http.ResponseWriter, r *http.Request) {
	username, ok := sameUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.Users.MessagesFrom(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *UserHandler) MessagesTo(w http.ResponseWriter, r *http.Request) {
	username, ok := sameUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.Users.MessagesTo(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// MessageHandler serves sending, reading, and read-marking of messages.
type MessageHandler struct {
	Messages MessageProvider
}

type sendRequest struct {
	ToUsername string `json:"to_username"`
	Body       string `json:"body"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ToUsername == "" || req.Body == "" {
		writeErrorMessage(w, http.StatusBadRequest, "to_username and body are required")
		return
	}

	sent, err := h.Messages.Send(r.Context(), caller, req.ToUsername, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": sent})
}

func messageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid message id")
		return 0, false
	}
	return id, true
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := messageID(w, r)
	if !ok {
		return
	}

	detail, err := h.Messages.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": detail})
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := messageID(w, r)
	if !ok {
		return
	}

	receipt, err := h.Messages.MarkRead(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": receipt})
}
