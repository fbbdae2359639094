package bunq

import "context"

// CredentialStore persists the artifacts of installation and device
// registration between runs. It is the only component that touches local
// persistence.
type CredentialStore interface {
	// Load returns the stored credentials, or empty credentials and a nil
	// error when nothing has been stored yet.
	Load(ctx context.Context) (*Credentials, error)
	// Save durably replaces the stored credentials.
	Save(ctx context.Context, creds *Credentials) error
}
