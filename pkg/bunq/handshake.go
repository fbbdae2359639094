package bunq

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Default device registration parameters
const (
	DefaultDeviceDescription = "bunqledger"
)

// DefaultPermittedIPs allows the API key to be used from any address
var DefaultPermittedIPs = []string{"*"}

// Handshaker drives installation, device registration and session creation
type Handshaker struct {
	client       *Client
	store        CredentialStore
	description  string
	permittedIPs []string
	log          *zap.Logger
}

// HandshakeOption customizes a Handshaker
type HandshakeOption func(*Handshaker)

// WithDeviceDescription sets the description registered with the device
func WithDeviceDescription(description string) HandshakeOption {
	return func(h *Handshaker) {
		if description != "" {
			h.description = description
		}
	}
}

// WithPermittedIPs restricts the addresses the device may call from
func WithPermittedIPs(ips []string) HandshakeOption {
	return func(h *Handshaker) {
		if len(ips) > 0 {
			h.permittedIPs = ips
		}
	}
}

// NewHandshaker creates a handshaker persisting state through store
func NewHandshaker(client *Client, store CredentialStore, opts ...HandshakeOption) *Handshaker {
	h := &Handshaker{
		client:       client,
		store:        store,
		description:  DefaultDeviceDescription,
		permittedIPs: DefaultPermittedIPs,
		log:          client.log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Establish runs the handshake. Installation and device registration only
// happen when no device state is stored; session creation happens every time.
func (h *Handshaker) Establish(ctx context.Context) (*Session, error) {
	creds, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	if creds == nil {
		creds = &Credentials{}
	}
	if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", ErrPersistence)
	}

	var key *rsa.PrivateKey
	if creds.Installed() {
		key, err = ParsePrivateKeyPEM(creds.State.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("stored private key: %w", err)
		}
		h.log.Debug("reusing installed device")
	} else {
		key, err = h.install(ctx, creds)
		if err != nil {
			return nil, err
		}
	}

	return h.CreateSession(ctx, creds.State.DeviceToken, creds.APIKey, key)
}

// install performs stages one and two and persists the result into creds
func (h *Handshaker) install(ctx context.Context, creds *Credentials) (*rsa.PrivateKey, error) {
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	token, err := h.Install(ctx, &key.PublicKey)
	if err != nil {
		return nil, err
	}

	deviceID, err := h.RegisterDevice(ctx, token, creds.APIKey)
	if err != nil {
		return nil, err
	}

	creds.State = &DeviceState{
		PrivateKeyPEM: EncodePrivateKeyPEM(key),
		DeviceToken:   token,
	}
	if err := h.store.Save(ctx, creds); err != nil {
		return nil, fmt.Errorf("save credentials: %w", err)
	}

	h.log.Info("device installed", zap.Int64("device_id", deviceID))
	return key, nil
}

// Install registers pub with the API and returns the installation token.
// The request is not signed.
func (h *Handshaker) Install(ctx context.Context, pub *rsa.PublicKey) (string, error) {
	pubPEM, err := EncodePublicKeyPEM(pub)
	if err != nil {
		return "", err
	}
	body, err := marshalBody(&installationRequest{ClientPublicKey: pubPEM})
	if err != nil {
		return "", err
	}

	raw, err := h.client.do(ctx, call{method: http.MethodPost, path: "/v1/installation", body: body})
	if err != nil {
		return "", fmt.Errorf("installation: %w", err)
	}

	res, err := Decode[installationResponse](raw, ModeFlattened)
	if err != nil {
		return "", fmt.Errorf("installation: %w", err)
	}
	if res.Value.Token == nil || res.Value.Token.Token == "" {
		return "", fmt.Errorf("installation: %w", decodeErr("no Token in response"))
	}
	return res.Value.Token.Token, nil
}

// RegisterDevice binds apiKey to the installation identified by token and
// returns the device id. The request is authenticated with the installation
// token only; it is not signed.
func (h *Handshaker) RegisterDevice(ctx context.Context, token, apiKey string) (int64, error) {
	body, err := marshalBody(&deviceServerRequest{
		Description:  h.description,
		Secret:       apiKey,
		PermittedIPs: h.permittedIPs,
	})
	if err != nil {
		return 0, err
	}

	raw, err := h.client.do(ctx, call{
		method:  http.MethodPost,
		path:    "/v1/device-server",
		body:    body,
		headers: map[string]string{HeaderAuthentication: token},
	})
	if err != nil {
		return 0, fmt.Errorf("device registration: %w", err)
	}

	res, err := Decode[deviceServerResponse](raw, ModeFlattened)
	if err != nil {
		return 0, fmt.Errorf("device registration: %w", err)
	}
	if res.Value.ID == nil {
		return 0, nil
	}
	return res.Value.ID.ID, nil
}

// CreateSession exchanges a signed request for a session token and the
// caller's identity.
func (h *Handshaker) CreateSession(ctx context.Context, deviceToken, apiKey string, key *rsa.PrivateKey) (*Session, error) {
	if deviceToken == "" {
		return nil, fmt.Errorf("session creation: %w: empty device token", ErrPersistence)
	}
	body, err := marshalBody(&sessionServerRequest{Secret: apiKey})
	if err != nil {
		return nil, err
	}
	sig, err := Sign(body, key)
	if err != nil {
		return nil, fmt.Errorf("session creation: %w", err)
	}

	raw, err := h.client.do(ctx, call{
		method: http.MethodPost,
		path:   "/v1/session-server",
		body:   body,
		headers: map[string]string{
			HeaderAuthentication: deviceToken,
			HeaderSignature:      sig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("session creation: %w", err)
	}

	res, err := Decode[sessionServerResponse](raw, ModeFlattened)
	if err != nil {
		return nil, fmt.Errorf("session creation: %w", err)
	}
	if res.Value.Token == nil || res.Value.Token.Token == "" {
		return nil, fmt.Errorf("session creation: %w", decodeErr("no Token in response"))
	}
	user := res.Value.user()
	if user == nil {
		return nil, fmt.Errorf("session creation: %w", decodeErr("no user in response"))
	}

	h.log.Debug("session created", zap.Int64("user_id", user.ID))
	return &Session{
		Token:       res.Value.Token.Token,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
	}, nil
}
