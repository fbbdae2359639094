package credstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/alexbotov/bunqledger/internal/database"
	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// Postgres stores credentials as one row of the credentials table
type Postgres struct {
	db    *database.DB
	appID string
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates a store on an already migrated database
func NewPostgres(db *database.DB, appID string) *Postgres {
	return &Postgres{db: db, appID: appID}
}

// OpenPostgres connects to dsn and migrates the schema
func OpenPostgres(dsn, appID string) (*Postgres, error) {
	db, err := database.New("postgres", dsn)
	if err != nil {
		return nil, persistenceErr("connect", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, persistenceErr("migrate", err)
	}
	return NewPostgres(db, appID), nil
}

// Load reads the row of the store's app id
func (p *Postgres) Load(ctx context.Context) (*bunq.Credentials, error) {
	var (
		apiKey      string
		keypairPEM  sql.NullString
		deviceToken sql.NullString
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT api_key, keypair_pem, device_token
		FROM credentials WHERE app_id = $1
	`, p.appID).Scan(&apiKey, &keypairPEM, &deviceToken)
	if errors.Is(err, sql.ErrNoRows) {
		return &bunq.Credentials{}, nil
	}
	if err != nil {
		return nil, persistenceErr("load credentials", err)
	}

	creds := &bunq.Credentials{APIKey: apiKey}
	if keypairPEM.Valid || deviceToken.Valid {
		creds.State = &bunq.DeviceState{
			PrivateKeyPEM: keypairPEM.String,
			DeviceToken:   deviceToken.String,
		}
	}
	return creds, nil
}

// Save upserts the row of the store's app id
func (p *Postgres) Save(ctx context.Context, creds *bunq.Credentials) error {
	var keypairPEM, deviceToken sql.NullString
	if creds.State != nil {
		keypairPEM = sql.NullString{String: creds.State.PrivateKeyPEM, Valid: true}
		deviceToken = sql.NullString{String: creds.State.DeviceToken, Valid: true}
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO credentials (app_id, api_key, keypair_pem, device_token, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (app_id) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			keypair_pem = EXCLUDED.keypair_pem,
			device_token = EXCLUDED.device_token,
			updated_at = EXCLUDED.updated_at
	`, p.appID, creds.APIKey, keypairPEM, deviceToken, time.Now().UTC())
	if err != nil {
		return persistenceErr("save credentials", err)
	}
	return nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}
