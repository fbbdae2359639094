package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/alexbotov/bunqledger/pkg/bunq"
)

const timeLayout = "2006-01-02 15:04:05.000000"

// maxBodySize bounds request bodies read by the handlers
const maxBodySize = 1 << 20

// Error descriptions as worded by the live API
const (
	msgInvalidBody       = "Invalid request body."
	msgInsufficientAuth  = "Insufficient authorisation."
	msgInvalidKey        = "Client public key is invalid."
	msgWrongAPIKey       = "User credentials are incorrect. Incorrect API key or IP address."
	msgInvalidSignature  = "The request signature is invalid."
	msgAccountNotFound   = "Monetary account not found."
	msgInvalidPagination = "Invalid pagination parameters."
)

// Response helpers

type errorEnvelope struct {
	Error []bunq.ErrorDescription `json:"Error"`
}

type envelope struct {
	Response   []any            `json:"Response"`
	Pagination *bunq.Pagination `json:"Pagination,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondObjects(w http.ResponseWriter, items []any, pagination *bunq.Pagination) {
	if items == nil {
		items = []any{}
	}
	respondJSON(w, http.StatusOK, envelope{Response: items, Pagination: pagination})
}

func respondError(w http.ResponseWriter, status int, description string) {
	respondJSON(w, status, errorEnvelope{Error: []bunq.ErrorDescription{{
		Description:           description,
		DescriptionTranslated: description,
	}}})
}

// single wraps v as a one-key object
func single(key string, v any) map[string]any {
	return map[string]any{key: v}
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

func (s *Server) stamp() string {
	return s.auth.now().UTC().Format(timeLayout)
}

// === Handshake ===

// Installation handles POST /v1/installation
func (s *Server) Installation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientPublicKey string `json:"client_public_key"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	pub, err := bunq.ParsePublicKeyPEM(req.ClientPublicKey)
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidKey)
		return
	}

	s.mu.Lock()
	inst := &installation{id: s.id(), token: uuid.New().String(), publicKey: pub}
	s.installations[inst.token] = inst
	tokenID := s.id()
	s.mu.Unlock()

	s.log.Info("installation created", zap.Int64("installation_id", inst.id))

	now := s.stamp()
	respondObjects(w, []any{
		single("Id", idObject{ID: inst.id}),
		single("Token", tokenObject{ID: tokenID, Created: now, Updated: now, Token: inst.token}),
		single("ServerPublicKey", map[string]string{"server_public_key": s.serverPEM}),
	}, nil)
}

// DeviceServer handles POST /v1/device-server
func (s *Server) DeviceServer(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(bunq.HeaderAuthentication)

	s.mu.Lock()
	inst, ok := s.installations[token]
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusUnauthorized, msgInsufficientAuth)
		return
	}

	var req struct {
		Description  string   `json:"description"`
		Secret       string   `json:"secret"`
		PermittedIPs []string `json:"permitted_ips"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req); err != nil || req.Description == "" {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.auth.checkAPIKey(req.Secret); err != nil {
		respondError(w, http.StatusBadRequest, msgWrongAPIKey)
		return
	}

	s.mu.Lock()
	dev := &device{id: s.id(), installation: inst, description: req.Description}
	s.devices[token] = dev
	s.mu.Unlock()

	s.log.Info("device registered",
		zap.Int64("device_id", dev.id),
		zap.String("description", dev.description),
		zap.Strings("permitted_ips", req.PermittedIPs))

	respondObjects(w, []any{single("Id", idObject{ID: dev.id})}, nil)
}

// SessionServer handles POST /v1/session-server
func (s *Server) SessionServer(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(bunq.HeaderAuthentication)

	s.mu.Lock()
	dev, ok := s.devices[token]
	s.mu.Unlock()
	if !ok {
		respondError(w, http.StatusUnauthorized, msgInsufficientAuth)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := bunq.Verify(body, r.Header.Get(bunq.HeaderSignature), dev.installation.publicKey); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidSignature)
		return
	}

	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := s.auth.checkAPIKey(req.Secret); err != nil {
		respondError(w, http.StatusBadRequest, msgWrongAPIKey)
		return
	}

	sessionToken, err := s.auth.issueSession(s.cfg.UserID, token)
	if err != nil {
		s.log.Error("failed to issue session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	s.mu.Lock()
	sessionID, tokenID := s.id(), s.id()
	s.mu.Unlock()

	s.log.Info("session created", zap.Int64("device_id", dev.id), zap.Int64("user_id", s.cfg.UserID))

	now := s.stamp()
	respondObjects(w, []any{
		single("Id", idObject{ID: sessionID}),
		single("Token", tokenObject{ID: tokenID, Created: now, Updated: now, Token: sessionToken}),
		single("UserPerson", map[string]any{"id": s.cfg.UserID, "display_name": s.cfg.DisplayName}),
	}, nil)
}

// === Resources ===

// ListAccounts handles GET /v1/user/{userID}/monetary-account
func (s *Server) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if claims, ok := r.Context().Value(claimsKey).(*sessionClaims); ok {
		s.log.Debug("listing accounts", zap.Int64("user_id", claims.UserID), zap.String("session_id", claims.ID))
	}

	items := make([]any, 0, len(s.accounts))
	for _, acc := range s.accounts {
		items = append(items, single(string(acc.Type), acc.Account))
	}
	respondObjects(w, items, &bunq.Pagination{})
}

// ListPayments handles GET /v1/user/{userID}/monetary-account/{accountID}/payment
func (s *Server) ListPayments(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(mux.Vars(r)["accountID"], 10, 64)
	if err != nil {
		respondError(w, http.StatusNotFound, msgAccountNotFound)
		return
	}
	acc, ok := s.findAccount(accountID)
	if !ok {
		respondError(w, http.StatusNotFound, msgAccountNotFound)
		return
	}

	q, err := parsePageQuery(r, s.cfg.PageSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidPagination)
		return
	}

	page, pagination := paginate(acc.payments, q, r.URL.Path)
	items := make([]any, 0, len(page))
	for _, p := range page {
		items = append(items, single("Payment", p))
	}
	respondObjects(w, items, pagination)
}

// pageQuery holds the cursor parameters of a list request
type pageQuery struct {
	count   int
	olderID int64
	newerID int64
}

func parsePageQuery(r *http.Request, defaultCount int) (pageQuery, error) {
	q := pageQuery{count: defaultCount}
	values := r.URL.Query()

	if v := values.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPageSize {
			return q, fmt.Errorf("invalid count %q", v)
		}
		q.count = n
	}
	for key, dst := range map[string]*int64{"older_id": &q.olderID, "newer_id": &q.newerID} {
		if v := values.Get(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return q, fmt.Errorf("invalid %s %q", key, v)
			}
			*dst = n
		}
	}
	if q.olderID != 0 && q.newerID != 0 {
		return q, errors.New("older_id and newer_id are exclusive")
	}
	return q, nil
}

// paginate selects a page of payments, which are ordered newest first, and
// builds the cursors around it
func paginate(payments []bunq.Payment, q pageQuery, path string) ([]bunq.Payment, *bunq.Pagination) {
	start, end := 0, len(payments)
	switch {
	case q.olderID != 0:
		start = len(payments)
		for i, p := range payments {
			if p.ID < q.olderID {
				start = i
				break
			}
		}
		end = min(start+q.count, len(payments))
	case q.newerID != 0:
		end = 0
		for i, p := range payments {
			if p.ID <= q.newerID {
				break
			}
			end = i + 1
		}
		start = max(0, end-q.count)
	default:
		end = min(q.count, len(payments))
	}

	page := payments[start:end]
	cursor := func(param string, id int64) *string {
		u := fmt.Sprintf("%s?count=%d&%s=%d", path, q.count, param, id)
		return &u
	}

	pagination := &bunq.Pagination{}
	if len(page) == 0 {
		return page, pagination
	}
	if end < len(payments) {
		pagination.OlderURL = cursor("older_id", page[len(page)-1].ID)
	}
	if start > 0 {
		pagination.NewerURL = cursor("newer_id", page[0].ID)
	} else {
		pagination.FutureURL = cursor("newer_id", page[0].ID)
	}
	return page, pagination
}

// === Health ===

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	installations, devices := len(s.installations), len(s.devices)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"installations": installations,
		"devices":       devices,
		"time":          s.auth.now().UTC().Format(time.RFC3339),
	})
}
