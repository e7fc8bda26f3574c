package usecase

import (
	"errors"
	"fmt"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError covers transient infrastructure failures (store
// unreachable, timeouts). Handlers surface these as 5xx so the caller
// retries; nothing retries internally.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func storeUnavailable(op string, err error) *TechnicalError {
	return &TechnicalError{
		Code:    "STORE_UNAVAILABLE",
		Message: fmt.Sprintf("%s: %v", op, err),
	}
}

// AuthenticationError means the webhook signature did not match. The
// event is discarded without being persisted.
type AuthenticationError struct {
	Provider string
	Reason   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("webhook authentication failed for %s: %s", e.Provider, e.Reason)
}

func IsAuthenticationError(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}
