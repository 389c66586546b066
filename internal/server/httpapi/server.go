package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/messagely/backend/internal/logging"
	"github.com/messagely/backend/internal/server/config"
)

// Server wraps the HTTP server and its routing table.
type Server struct {
	addr   string
	logger logging.Logger
	srv    *http.Server
}

// NewServer builds the router and returns a runnable server. Registration
// and login are public; everything else sits behind the Bearer-token
// middleware.
func NewServer(cfg *config.Config, logger logging.Logger, users UserProvider, messages MessageProvider) *Server {
	uh := &UserHandler{Users: users}
	mh := &MessageHandler{Messages: messages}

	r := mux.NewRouter()
	r.Use(RequestLogging(logger))

	r.HandleFunc("/auth/register", uh.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", uh.Login).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(Authenticate([]byte(cfg.SecretKey)))
	api.HandleFunc("/users", uh.List).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}", uh.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}/from", uh.MessagesFrom).Methods(http.MethodGet)
	api.HandleFunc("/users/{username}/to", uh.MessagesTo).Methods(http.MethodGet)
	api.HandleFunc("/messages", mh.Send).Methods(http.MethodPost)
	api.HandleFunc("/messages/{id}", mh.Get).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}/read", mh.MarkRead).Methods(http.MethodPost)

	return &Server{
		addr:   cfg.EndpointAddr,
		logger: logger,
		srv: &http.Server{
			Addr:              cfg.EndpointAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info(ctx, "http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
