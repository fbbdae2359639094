package credstore

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// KeyPrefix prefixes the hash holding an app's credentials
const KeyPrefix = "bunqledger:credentials:"

const (
	fieldAPIKey      = "api_key"
	fieldKeypairPEM  = "keypair_pem"
	fieldDeviceToken = "device_token"
)

// Redis stores credentials as fields of a hash
type Redis struct {
	client *redis.Client
	key    string
}

var _ Store = (*Redis)(nil)

// NewRedis creates a store on an existing client
func NewRedis(client *redis.Client, appID string) *Redis {
	return &Redis{client: client, key: KeyPrefix + appID}
}

// OpenRedis connects to redisURL and checks the connection
func OpenRedis(ctx context.Context, redisURL, appID string) (*Redis, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, persistenceErr("parse redis url", err)
	}

	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, persistenceErr("ping redis", err)
	}
	return NewRedis(client, appID), nil
}

// Load reads the hash. A missing hash yields empty credentials.
func (r *Redis) Load(ctx context.Context) (*bunq.Credentials, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, persistenceErr("load credentials", err)
	}

	creds := &bunq.Credentials{APIKey: fields[fieldAPIKey]}
	pem, hasPEM := fields[fieldKeypairPEM]
	token, hasToken := fields[fieldDeviceToken]
	if hasPEM || hasToken {
		creds.State = &bunq.DeviceState{PrivateKeyPEM: pem, DeviceToken: token}
	}
	return creds, nil
}

// Save replaces the hash in one transaction
func (r *Redis) Save(ctx context.Context, creds *bunq.Credentials) error {
	values := map[string]any{fieldAPIKey: creds.APIKey}
	if creds.State != nil {
		values[fieldKeypairPEM] = creds.State.PrivateKeyPEM
		values[fieldDeviceToken] = creds.State.DeviceToken
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, values)
		return nil
	})
	if err != nil {
		return persistenceErr("save credentials", err)
	}
	return nil
}

// Close closes the redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
