package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/messagely/backend/internal/common"
	"github.com/messagely/backend/internal/logging"
	"github.com/messagely/backend/internal/server/auth"
	"github.com/messagely/backend/internal/server/config"
	"github.com/messagely/backend/internal/server/models"
)

type fakeUsers struct {
	registerOut *models.UserProfile
	registerErr error

	loginOut string
	loginErr error

	getOut *models.UserDetail
	getErr error

	listOut []models.UserProfile
	fromOut []models.SentMessage
	toOut   []models.InboxMessage
}

func (f *fakeUsers) Register(ctx context.Context, username, password, firstName, lastName, phone string) (*models.UserProfile, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return f.registerOut, nil
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.loginOut, nil
}

func (f *fakeUsers) Get(ctx context.Context, username string) (*models.UserDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]models.UserProfile, error) {
	return f.listOut, nil
}

func (f *fakeUsers) MessagesFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	return f.fromOut, nil
}

func (f *fakeUsers) MessagesTo(ctx context.Context, username string) ([]models.InboxMessage, error) {
	return f.toOut, nil
}

type fakeMessages struct {
	sendOut *models.MessageSent
	sendErr error

	getOut *models.MessageDetail
	getErr error

	markOut *models.ReadReceipt
	markErr error
}

func (f *fakeMessages) Send(ctx context.Context, caller, toUsername, body string) (*models.MessageSent, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sendOut, nil
}

func (f *fakeMessages) Get(ctx context.Context, caller string, id int64) (*models.MessageDetail, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeMessages) MarkRead(ctx context.Context, caller string, id int64) (*models.ReadReceipt, error) {
	if f.markErr != nil {
		return nil, f.markErr
	}
	return f.markOut, nil
}

func testServer(t *testing.T, users UserProvider, messages MessageProvider) (*Server, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		EndpointAddr:                ":0",
		SecretKey:                   "test-secret",
		AccessTokenValidityDuration: time.Hour,
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	return NewServer(cfg, logger, users, messages), cfg
}

func bearerFor(t *testing.T, cfg *config.Config, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(username, []byte(cfg.SecretKey), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return "Bearer " + token
}

func doRequest(t *testing.T, s *Server, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// --- auth routes ---

func TestRegister_Created(t *testing.T) {
	users := &fakeUsers{registerOut: &models.UserProfile{Username: "alice", FirstName: "Alice"}}
	s, _ := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "pw", "first_name": "Alice", "last_name": "Ant", "phone": "555-0100",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	body := decodeBody(t, rr)
	user := body["user"].(map[string]any)
	if user["username"] != "alice" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, leaked := user["password"]; leaked {
		t.Fatal("password must not appear in the response")
	}
}

func TestRegister_Conflict(t *testing.T) {
	users := &fakeUsers{registerErr: common.ErrorAlreadyExists}
	s, _ := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "password": "pw",
	})

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	s, _ := testServer(t, &fakeUsers{}, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/auth/register", "", map[string]string{"username": "alice"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestLogin_ReturnsToken(t *testing.T) {
	users := &fakeUsers{loginOut: "token-xyz"}
	s, _ := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "pw",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if decodeBody(t, rr)["token"] != "token-xyz" {
		t.Fatal("expected token in response")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	users := &fakeUsers{loginErr: common.ErrorUnauthorized}
	s, _ := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"username": "alice", "password": "nope",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- protected routes ---

func TestProtectedRoutes_RequireToken(t *testing.T) {
	s, _ := testServer(t, &fakeUsers{}, &fakeMessages{})

	for _, path := range []string{"/users", "/users/alice", "/messages/1"} {
		rr := doRequest(t, s, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want %d", path, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestProtectedRoutes_RejectGarbageToken(t *testing.T) {
	s, _ := testServer(t, &fakeUsers{}, &fakeMessages{})

	rr := doRequest(t, s, http.MethodGet, "/users", "Bearer garbage", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestListUsers(t *testing.T) {
	users := &fakeUsers{listOut: []models.UserProfile{{Username: "alice"}, {Username: "bob"}}}
	s, cfg := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodGet, "/users", bearerFor(t, cfg, "alice"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := decodeBody(t, rr)["users"].([]any); len(got) != 2 {
		t.Fatalf("unexpected users: %v", got)
	}
}

func TestGetUser_SameUserOnly(t *testing.T) {
	users := &fakeUsers{getOut: &models.UserDetail{Username: "alice"}}
	s, cfg := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodGet, "/users/alice", bearerFor(t, cfg, "alice"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("own detail: status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = doRequest(t, s, http.MethodGet, "/users/alice", bearerFor(t, cfg, "bob"), nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("other's detail: status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestInboxOutbox_SameUserOnly(t *testing.T) {
	users := &fakeUsers{
		fromOut: []models.SentMessage{{ID: 1, ToUser: models.UserProfile{Username: "bob"}}},
		toOut:   []models.InboxMessage{{ID: 2, FromUser: models.UserProfile{Username: "bob"}}},
	}
	s, cfg := testServer(t, users, &fakeMessages{})

	rr := doRequest(t, s, http.MethodGet, "/users/alice/from", bearerFor(t, cfg, "alice"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("outbox: status = %d, want %d", rr.Code, http.StatusOK)
	}

	rr = doRequest(t, s, http.MethodGet, "/users/alice/to", bearerFor(t, cfg, "carol"), nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("foreign inbox: status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// --- messages ---

func TestSendMessage(t *testing.T) {
	messages := &fakeMessages{sendOut: &models.MessageSent{ID: 7, FromUsername: "alice", ToUsername: "bob", Body: "hi"}}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodPost, "/messages", bearerFor(t, cfg, "alice"), map[string]string{
		"to_username": "bob", "body": "hi",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	msg := decodeBody(t, rr)["message"].(map[string]any)
	if msg["from_username"] != "alice" || msg["to_username"] != "bob" {
		t.Fatalf("unexpected message: %v", msg)
	}
}

func TestSendMessage_UnknownRecipient(t *testing.T) {
	messages := &fakeMessages{sendErr: common.ErrorNotFound}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodPost, "/messages", bearerFor(t, cfg, "alice"), map[string]string{
		"to_username": "ghost", "body": "hi",
	})

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestSendMessage_MissingBody(t *testing.T) {
	s, cfg := testServer(t, &fakeUsers{}, &fakeMessages{})

	rr := doRequest(t, s, http.MethodPost, "/messages", bearerFor(t, cfg, "alice"), map[string]string{
		"to_username": "bob",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetMessage(t *testing.T) {
	messages := &fakeMessages{getOut: &models.MessageDetail{
		ID:       7,
		Body:     "hi",
		FromUser: models.UserProfile{Username: "alice"},
		ToUser:   models.UserProfile{Username: "bob"},
	}}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodGet, "/messages/7", bearerFor(t, cfg, "bob"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	msg := decodeBody(t, rr)["message"].(map[string]any)
	if msg["read_at"] != nil {
		t.Fatalf("expected null read_at, got %v", msg["read_at"])
	}
}

func TestGetMessage_ThirdParty(t *testing.T) {
	messages := &fakeMessages{getErr: common.ErrorUnauthorized}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodGet, "/messages/7", bearerFor(t, cfg, "carol"), nil)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestGetMessage_InvalidID(t *testing.T) {
	s, cfg := testServer(t, &fakeUsers{}, &fakeMessages{})

	rr := doRequest(t, s, http.MethodGet, "/messages/abc", bearerFor(t, cfg, "alice"), nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMarkRead(t *testing.T) {
	read := time.Now()
	messages := &fakeMessages{markOut: &models.ReadReceipt{ID: 7, ReadAt: read}}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodPost, "/messages/7/read", bearerFor(t, cfg, "bob"), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	msg := decodeBody(t, rr)["message"].(map[string]any)
	if msg["read_at"] == nil {
		t.Fatal("expected read_at in receipt")
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	messages := &fakeMessages{markErr: common.ErrorNotFound}
	s, cfg := testServer(t, &fakeUsers{}, messages)

	rr := doRequest(t, s, http.MethodPost, "/messages/99999/read", bearerFor(t, cfg, "bob"), nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}
