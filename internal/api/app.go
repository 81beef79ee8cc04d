package api

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/codecollab/codecollab/internal/config"
	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/server"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/teris-io/shortid"
)

type CollabApp struct {
	log             *log.Logger
	db              database.CollabRepository
	mux             *http.Server
	cs              *server.CollabServer
	runner          judge.Runner
	validate        *validator.Validate
	signingKey      []byte
	allowedOrigins  []string
	generateShortId func() (string, error)
}

func NewCollabApp(mux *http.ServeMux, logger *log.Logger, cs *server.CollabServer,
	db database.CollabRepository, runner judge.Runner, cfg *config.Config) *CollabApp {
	s := &CollabApp{
		log:             logger,
		db:              db,
		cs:              cs,
		runner:          runner,
		validate:        validator.New(),
		signingKey:      cfg.SigningKey,
		allowedOrigins:  cfg.AllowedOrigins,
		generateShortId: shortid.Generate,
	}

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.Handle("GET /api/auth/session", s.authMiddleware(s.session))
	mux.Handle("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.Handle("/api/account", s.authMiddleware(s.account))
	mux.Handle("POST /api/rooms", s.authMiddleware(s.createRoom))
	mux.Handle("POST /api/rooms/join", s.authMiddleware(s.joinRoom))
	mux.Handle("GET /api/rooms", s.authMiddleware(s.getRoom))
	mux.Handle("DELETE /api/rooms", s.authMiddleware(s.deleteRoom))
	mux.Handle("POST /api/code", s.authMiddleware(s.saveCode))
	mux.Handle("GET /api/code", s.authMiddleware(s.loadCode))
	mux.Handle("GET /api/code/saved", s.authMiddleware(s.getSavedCode))
	mux.Handle("POST /api/execute", s.authMiddleware(s.executeCode))
	mux.HandleFunc("GET /api/health", s.health)
	mux.Handle("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *CollabApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *CollabApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
