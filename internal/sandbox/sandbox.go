// Package sandbox serves a local fake of the bunq API. It implements the
// installation, device registration and session endpoints with real key and
// signature checks, and serves seeded accounts and payments behind them.
package sandbox

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alexbotov/bunqledger/internal/config"
	"github.com/alexbotov/bunqledger/pkg/bunq"
)

const (
	defaultPageSize = 10
	maxPageSize     = 200
)

// installation is a registered client public key
type installation struct {
	id        int64
	token     string
	publicKey *rsa.PublicKey
}

// device is an installation bound to the API key
type device struct {
	id           int64
	installation *installation
	description  string
}

// Server is the sandbox API
type Server struct {
	cfg       config.SandboxConfig
	log       *zap.Logger
	auth      *authenticator
	serverPEM string

	mu            sync.Mutex
	nextID        int64
	installations map[string]*installation
	devices       map[string]*device
	accounts      []*account
}

// Option customizes a Server
type Option func(*Server)

// WithClock replaces the clock used for session expiry
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.auth.now = now
	}
}

// New creates a sandbox seeded according to cfg
func New(cfg config.SandboxConfig, log *zap.Logger, opts ...Option) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.SessionTTL.Get() <= 0 {
		cfg.SessionTTL = config.Duration{Duration: time.Hour}
	}

	auth, err := newAuthenticator(cfg.APIKey, cfg.JWTSecret, cfg.SessionTTL.Get(), time.Now)
	if err != nil {
		return nil, err
	}

	serverKey, err := bunq.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate server key: %w", err)
	}
	serverPEM, err := bunq.EncodePublicKeyPEM(&serverKey.PublicKey)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:           cfg,
		log:           log,
		auth:          auth,
		serverPEM:     serverPEM,
		nextID:        1,
		installations: make(map[string]*installation),
		devices:       make(map[string]*device),
		accounts:      seed(cfg.UserID, cfg.DisplayName, cfg.Accounts, cfg.PaymentsPerAccount),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the sandbox's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.SetupRouter()
}

// ListenAndServe serves the sandbox on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("sandbox listening",
		zap.String("addr", addr),
		zap.Int64("user_id", s.cfg.UserID),
		zap.Int("accounts", len(s.accounts)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// id returns the next object id. Callers hold s.mu.
func (s *Server) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// findAccount returns the seeded account with the given id
func (s *Server) findAccount(id int64) (*account, bool) {
	for _, acc := range s.accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return nil, false
}
