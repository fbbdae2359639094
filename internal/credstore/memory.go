package credstore

import (
	"context"
	"sync"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// Memory keeps credentials in process memory
type Memory struct {
	mu    sync.Mutex
	creds *bunq.Credentials
	saves int
}

var _ Store = (*Memory)(nil)

// NewMemory creates a memory store seeded with initial, which may be nil
func NewMemory(initial *bunq.Credentials) *Memory {
	return &Memory{creds: copyCredentials(initial)}
}

// Load returns a copy of the stored credentials
func (m *Memory) Load(context.Context) (*bunq.Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCredentials(m.creds), nil
}

// Save replaces the stored credentials
func (m *Memory) Save(_ context.Context, creds *bunq.Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = copyCredentials(creds)
	m.saves++
	return nil
}

// Saves returns how many times Save was called
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *Memory) Close() error { return nil }
