package linear

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ErrClientClosed is wrapped by the TransportError returned from a closed Client.
var ErrClientClosed = errors.New("linear client is closed")

// ConfigurationError reports a missing credential or an unreadable config file.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return "configuration error: " + e.Message
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError reports a network failure or a non-200 HTTP response.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("linear transport error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("linear transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is returned when the response carries a GraphQL errors array.
type APIError struct {
	Message string
	Errors  gqlerror.List
}

func newAPIError(list gqlerror.List) *APIError {
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		} else {
			msgs = append(msgs, e.Error())
		}
	}
	message := "Linear API error"
	if len(msgs) > 0 {
		message += ": " + strings.Join(msgs, "; ")
	}
	return &APIError{
		Message: message,
		Errors:  list,
	}
}

func (e *APIError) Error() string { return e.Message }

// NotFoundError is returned when a lookup by id returned null.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// MappingError reports a response value the mapping layer cannot interpret.
type MappingError struct {
	Field string
	Value string
	Err   error
}

func (e *MappingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot map %s value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot map %s value %q", e.Field, e.Value)
}

func (e *MappingError) Unwrap() error { return e.Err }

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
