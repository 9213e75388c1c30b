package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")

	// * Communication errors.
	ErrBadRequest       = errors.New("error parsing request")
	ErrUnknownProvider  = errors.New("unknown payment provider")
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")

	// * Business errors.
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	ErrInvalidCurrency      = fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidRequest)
	ErrIdempotencyKeyLength = fmt.Errorf("%w: idempotency key longer than %d bytes", ErrInvalidRequest, MaxIdempotencyKeyLength)
	ErrIdempotencyKeyReused = fmt.Errorf("%w: idempotency key reused with different parameters", ErrInvalidRequest)
	ErrProvider             = errors.New("payment provider error")
	ErrStorage              = errors.New("order storage error")
)

// ProviderError carries the raw diagnostic returned by a provider.
type ProviderError struct {
	Provider   Provider
	Op         string
	StatusCode int
	Diagnostic string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Provider, e.Op)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func NewProviderError(provider Provider, op string, statusCode int, diagnostic string, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Op:         op,
		StatusCode: statusCode,
		Diagnostic: diagnostic,
		Err:        err,
	}
}
