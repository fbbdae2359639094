// Package ledger ties configuration, credential storage and the bunq client
// together into the operations offered by the command line.
package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// AccountPayments groups the payments of one account
type AccountPayments struct {
	Account  bunq.Account   `json:"account"`
	Payments []bunq.Payment `json:"payments"`
}

// Service runs handshakes and reads account data
type Service struct {
	client  *bunq.Client
	store   bunq.CredentialStore
	apiKey  string
	options []bunq.HandshakeOption
	log     *zap.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithAPIKey supplies the API key used when the store holds none
func WithAPIKey(key string) Option {
	return func(s *Service) {
		s.apiKey = key
	}
}

// WithHandshakeOptions passes options to every handshake
func WithHandshakeOptions(opts ...bunq.HandshakeOption) Option {
	return func(s *Service) {
		s.options = append(s.options, opts...)
	}
}

// WithLogger sets the service logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a service
func New(client *bunq.Client, store bunq.CredentialStore, opts ...Option) *Service {
	s := &Service{
		client: client,
		store:  store,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect establishes a session, seeding the store with the configured API
// key if it holds none
func (s *Service) Connect(ctx context.Context) (*bunq.ResourceClient, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil {
		creds = &bunq.Credentials{}
	}

	switch {
	case creds.APIKey == "" && s.apiKey == "":
		return nil, fmt.Errorf("%w: no API key stored or configured (set BUNQ_API_KEY)", bunq.ErrPersistence)
	case creds.APIKey == "":
		creds.APIKey = s.apiKey
		if err := s.store.Save(ctx, creds); err != nil {
			return nil, fmt.Errorf("failed to store api key: %w", err)
		}
	case s.apiKey != "" && creds.APIKey != s.apiKey:
		s.log.Warn("configured API key differs from the stored one; using the stored key")
	}

	session, err := bunq.NewHandshaker(s.client, s.store, s.options...).Establish(ctx)
	if err != nil {
		return nil, err
	}

	s.log.Info("session established",
		zap.Int64("user_id", session.UserID),
		zap.String("display_name", session.DisplayName))
	return bunq.NewResourceClient(s.client, session), nil
}

// Accounts connects and lists the user's accounts
func (s *Service) Accounts(ctx context.Context) ([]bunq.Account, error) {
	rc, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return rc.ListAccounts(ctx)
}

// Payments connects and lists payments of every account, or only of the
// account with id accountID when it is not nil. Accounts are read one
// after the other.
func (s *Service) Payments(ctx context.Context, accountID *int64) ([]AccountPayments, error) {
	rc, err := s.Connect(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := rc.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	var result []AccountPayments
	for _, acc := range accounts {
		if accountID != nil && acc.ID != *accountID {
			continue
		}
		payments, err := rc.ListPayments(ctx, acc)
		if err != nil {
			return nil, err
		}
		result = append(result, AccountPayments{Account: acc, Payments: payments})
	}

	if accountID != nil && len(result) == 0 {
		return nil, fmt.Errorf("account %d not found", *accountID)
	}
	return result, nil
}

// Reset forgets the installed device. The API key is kept so the next
// Connect installs a new device under it.
func (s *Service) Reset(ctx context.Context) error {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds == nil || creds.State == nil {
		return nil
	}

	creds.State = nil
	if err := s.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("failed to clear device state: %w", err)
	}
	s.log.Info("device state cleared")
	return nil
}
