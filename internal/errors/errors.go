// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientHoldings  = errors.New("insufficient holdings")
	ErrAnalyticsUnavailable  = errors.New("analytics unavailable")
	ErrInvalidTrade          = errors.New("invalid trade")
	ErrAccountNotFound       = errors.New("account not found")
	ErrAccountExists         = errors.New("account already exists")
	ErrCapabilityUnavailable = errors.New("capability not available for trader")
	ErrConfigInvalid         = errors.New("invalid configuration")
	ErrDatabaseError         = errors.New("database error")
)

// TradeError represents a failure while applying a trade or a cash movement
// to an account.
type TradeError struct {
	AccountID string
	Asset     string
	Side      string
	Reason    string
	Err       error
}

func (e *TradeError) Error() string {
	if e.Asset == "" {
		return fmt.Sprintf("trade error [%s] %s: %s: %v", e.AccountID, e.Side, e.Reason, e.Err)
	}
	return fmt.Sprintf("trade error [%s] %s %s: %s: %v", e.AccountID, e.Side, e.Asset, e.Reason, e.Err)
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError creates a new TradeError.
func NewTradeError(accountID, asset, side, reason string, err error) *TradeError {
	return &TradeError{
		AccountID: accountID,
		Asset:     asset,
		Side:      side,
		Reason:    reason,
		Err:       err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError. err may be nil.
func NewValidationError(field string, value interface{}, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// AnalyticsError represents a failed call to an analytics collaborator.
type AnalyticsError struct {
	Provider string
	Asset    string
	Err      error
}

func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("analytics error [%s] %s: %v", e.Provider, e.Asset, e.Err)
}

// Unwrap exposes both ErrAnalyticsUnavailable and the underlying cause.
func (e *AnalyticsError) Unwrap() []error {
	return []error{ErrAnalyticsUnavailable, e.Err}
}

// NewAnalyticsError creates a new AnalyticsError.
func NewAnalyticsError(provider, asset string, err error) *AnalyticsError {
	return &AnalyticsError{
		Provider: provider,
		Asset:    asset,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
