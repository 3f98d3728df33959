// Package errs defines the error-kind taxonomy from the propagation-policy
// section of the specification, in the teacher's ProviderError idiom
// (see the retired internal/providers/live_api_provider.go's ProviderError).
package errs

import "fmt"

// Kind is one of the error kinds the propagation policy dispatches on.
type Kind string

const (
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindUpstreamMalformed   Kind = "UPSTREAM_MALFORMED"
	KindDBTransient         Kind = "DB_TRANSIENT"
	KindDBIntegrity         Kind = "DB_INTEGRITY"
	KindConfigInvalid       Kind = "CONFIG_INVALID"
	KindInvariantViolated   Kind = "INVARIANT_VIOLATED"
)

// CoreError is the typed error value every component returns so callers can
// dispatch on Kind rather than parsing strings.
type CoreError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// New constructs a CoreError of the given kind.
func New(kind Kind, message string) *CoreError {
	return &CoreError{Kind: kind, Message: message}
}

// Wrap constructs a CoreError of the given kind around an existing error.
func Wrap(kind Kind, message string, err error) *CoreError {
	return &CoreError{Kind: kind, Message: message, Err: err}
}

// Is reports whether err is a CoreError of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CoreError)
	return ok && ce.Kind == kind
}
