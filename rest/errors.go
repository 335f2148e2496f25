package rest

import (
	"fmt"

	"github.com/goccy/go-json"
)

// ErrorKind buckets request failures by what the caller should do about
// them: re-authenticate, fix the submitted record, retry later, or check
// connectivity.
type ErrorKind string

const (
	// KindAuth covers 401 and 403. The session is torn down and the
	// OnAuthExpired hook fires; the request is never retried automatically.
	KindAuth ErrorKind = "auth"
	// KindApplication covers 400 and 422: the server rejected the payload.
	// Field-level messages, when present, land in Fields.
	KindApplication ErrorKind = "application"
	// KindServer covers 5xx responses.
	KindServer ErrorKind = "server"
	// KindNetwork covers transport failures before any status line arrived.
	KindNetwork ErrorKind = "network"
)

// RequestError is the error every data-access operation returns on failure.
type RequestError struct {
	Status  int       // HTTP status, 0 for network failures.
	Kind    ErrorKind //
	Message string    // Human-readable summary from the server or transport.
	Fields  map[string]string
	cause   error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("request failed: %s", e.Message)
	}
	return fmt.Sprintf("request failed (%d %s): %s", e.Status, e.Kind, e.Message)
}

func (e *RequestError) Unwrap() error { return e.cause }

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsApplication reports whether err is a payload rejection.
func IsApplication(err error) bool { return kindOf(err) == KindApplication }

func kindOf(err error) ErrorKind {
	if re, ok := err.(*RequestError); ok {
		return re.Kind
	}
	return ""
}

// serverError is the wire shape of an error body. Both the flat form
// {"message": "..."} and the field form {"errors": {"path": "msg"}} occur.
type serverError struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

func newRequestError(status int, body []byte) *RequestError {
	var kind ErrorKind
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 400 || status == 422:
		kind = KindApplication
	case status >= 500:
		kind = KindServer
	default:
		kind = KindApplication
	}

	re := &RequestError{Status: status, Kind: kind}
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		re.Fields = se.Errors
		switch {
		case se.Message != "":
			re.Message = se.Message
		case se.Error != "":
			re.Message = se.Error
		}
	}
	if re.Message == "" {
		re.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return re
}

func networkError(err error) *RequestError {
	return &RequestError{Kind: KindNetwork, Message: err.Error(), cause: err}
}
