package bunq

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// API hosts
const (
	ProductionURL = "https://api.bunq.com"
	SandboxURL    = "https://public-api.sandbox.bunq.com"
)

// Request headers understood by the API
const (
	HeaderAuthentication = "X-Bunq-Client-Authentication"
	HeaderSignature      = "X-Bunq-Client-Signature"
	HeaderRequestID      = "X-Bunq-Client-Request-Id"
	HeaderGeolocation    = "X-Bunq-Geolocation"
	HeaderLanguage       = "X-Bunq-Language"
	HeaderRegion         = "X-Bunq-Region"
)

// AccountType names the wrapper an account was listed under
type AccountType string

const (
	AccountTypeBank    AccountType = "MonetaryAccountBank"
	AccountTypeSavings AccountType = "MonetaryAccountSavings"
	AccountTypeJoint   AccountType = "MonetaryAccountJoint"
)

// Amount is a monetary value as sent by the API ({"value": "-12.50", "currency": "EUR"})
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

func (a Amount) String() string {
	return a.Value.StringFixed(2) + " " + a.Currency
}

// CounterpartyLabel describes one side of a payment
type CounterpartyLabel struct {
	IBAN                 *string `json:"iban"`
	DisplayName          string  `json:"display_name"`
	MerchantCategoryCode *string `json:"merchant_category_code"`
}

// Account is a monetary account of the session's user
type Account struct {
	ID          int64       `json:"id"`
	Type        AccountType `json:"-"`
	Description string      `json:"description"`
	Currency    string      `json:"currency"`
	Status      string      `json:"status"`
	Balance     *Amount     `json:"balance"`
}

// accountWrapper is a list element of the monetary-account endpoint
type accountWrapper struct {
	Bank    *Account `json:"MonetaryAccountBank"`
	Savings *Account `json:"MonetaryAccountSavings"`
	Joint   *Account `json:"MonetaryAccountJoint"`
}

func (w accountWrapper) unwrap() (Account, bool) {
	switch {
	case w.Bank != nil:
		acc := *w.Bank
		acc.Type = AccountTypeBank
		return acc, true
	case w.Savings != nil:
		acc := *w.Savings
		acc.Type = AccountTypeSavings
		return acc, true
	case w.Joint != nil:
		acc := *w.Joint
		acc.Type = AccountTypeJoint
		return acc, true
	}
	return Account{}, false
}

// Payment is a single mutation on a monetary account
type Payment struct {
	ID                   int64             `json:"id"`
	MonetaryAccountID    int64             `json:"monetary_account_id"`
	Created              string            `json:"created"`
	Updated              string            `json:"updated"`
	Description          string            `json:"description"`
	Type                 string            `json:"type"`
	SubType              string            `json:"sub_type"`
	Amount               Amount            `json:"amount"`
	BalanceAfterMutation Amount            `json:"balance_after_mutation"`
	Alias                CounterpartyLabel `json:"alias"`
	CounterpartyAlias    CounterpartyLabel `json:"counterparty_alias"`
}

// paymentWrapper is a list element of the payment endpoint
type paymentWrapper struct {
	Payment *Payment `json:"Payment"`
}

// Credentials is the long-lived state kept by a CredentialStore
type Credentials struct {
	APIKey string       `toml:"api_key"`
	State  *DeviceState `toml:"state,omitempty"`
}

// DeviceState binds a private key to the device token issued for it.
// A token is only valid for the key it was issued under, so both are
// stored and cleared together.
type DeviceState struct {
	PrivateKeyPEM string `toml:"keypair_pem"`
	DeviceToken   string `toml:"device_token"`
}

// Installed reports whether c holds a complete device state
func (c *Credentials) Installed() bool {
	return c != nil && c.State != nil && c.State.PrivateKeyPEM != "" && c.State.DeviceToken != ""
}

// Session is the outcome of a handshake. It is never persisted.
type Session struct {
	Token       string
	UserID      int64
	DisplayName string
}

// installation endpoint

type installationRequest struct {
	ClientPublicKey string `json:"client_public_key"`
}

type idObject struct {
	ID int64 `json:"id"`
}

type tokenObject struct {
	ID      int64  `json:"id"`
	Created string `json:"created"`
	Updated string `json:"updated"`
	Token   string `json:"token"`
}

type serverPublicKey struct {
	ServerPublicKey string `json:"server_public_key"`
}

type installationResponse struct {
	ID              *idObject        `json:"Id"`
	Token           *tokenObject     `json:"Token"`
	ServerPublicKey *serverPublicKey `json:"ServerPublicKey"`
}

// device-server endpoint

type deviceServerRequest struct {
	Description  string   `json:"description"`
	Secret       string   `json:"secret"`
	PermittedIPs []string `json:"permitted_ips"`
}

type deviceServerResponse struct {
	ID *idObject `json:"Id"`
}

// session-server endpoint

type sessionServerRequest struct {
	Secret string `json:"secret"`
}

type sessionUser struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

type sessionServerResponse struct {
	ID          *idObject    `json:"Id"`
	Token       *tokenObject `json:"Token"`
	UserPerson  *sessionUser `json:"UserPerson"`
	UserCompany *sessionUser `json:"UserCompany"`
	UserAPIKey  *sessionUser `json:"UserApiKey"`
}

func (r sessionServerResponse) user() *sessionUser {
	switch {
	case r.UserPerson != nil:
		return r.UserPerson
	case r.UserCompany != nil:
		return r.UserCompany
	default:
		return r.UserAPIKey
	}
}

// RequestObserver receives one call per HTTP request issued by the client.
// status is 0 when the request failed before a response was received.
type RequestObserver interface {
	ObserveRequest(method, endpoint string, status int, elapsed time.Duration)
}

// ClientConfig holds the configuration for the bunq client
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// PageSize is sent as ?count= on the first page of list endpoints; 0 leaves it to the server
	PageSize int
	Logger   *zap.Logger
	Observer RequestObserver
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   ProductionURL,
		UserAgent: "bunqledger/1.0",
		Timeout:   30 * time.Second,
	}
}
