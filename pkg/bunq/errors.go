package bunq

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by this package wraps exactly one of them.
var (
	ErrTransport   = errors.New("transport error")
	ErrHTTPStatus  = errors.New("unexpected http status")
	ErrDecode      = errors.New("malformed response")
	ErrCrypto      = errors.New("crypto error")
	ErrPersistence = errors.New("persistence error")
)

// ErrorDescription is a single entry of the API error envelope
type ErrorDescription struct {
	Description           string `json:"error_description"`
	DescriptionTranslated string `json:"error_description_translated"`
}

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode   int
	Method       string
	Path         string
	Descriptions []ErrorDescription
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	if len(e.Descriptions) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Descriptions))
	for _, d := range e.Descriptions {
		parts = append(parts, d.Description)
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrHTTPStatus) hold for every *StatusError
func (e *StatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Unauthorized reports whether the server rejected the credentials of the request
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == 401
}

// errorEnvelope is the body bunq sends alongside error statuses
type errorEnvelope struct {
	Error []ErrorDescription `json:"Error"`
}

func decodeErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}

func cryptoErr(op string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCrypto, op)
	}
	return fmt.Errorf("%w: %s: %w", ErrCrypto, op, err)
}
