package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorKind classifies domain errors for callers at the boundary
type ErrorKind string

const (
	KindValidation          ErrorKind = "VALIDATION"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInsufficientStock   ErrorKind = "INSUFFICIENT_STOCK"
	KindInsufficientFunds   ErrorKind = "INSUFFICIENT_FUNDS"
	KindCreditLimitExceeded ErrorKind = "CREDIT_LIMIT_EXCEEDED"
	KindConflict            ErrorKind = "CONFLICT"
	KindAuthorization       ErrorKind = "AUTHORIZATION"
	KindInternal            ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"kind"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped sentinels work with errors.Is
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new validation-kind domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    KindValidation,
	}
}

// NewValidationError creates an error for malformed or out-of-range input
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewNotFoundError creates an error for a missing referenced entity
func NewNotFoundError(entity string, id uuid.UUID) *DomainError {
	return &DomainError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
		Kind:    KindNotFound,
	}
}

// NewConflictError creates an error for an action that clashes with current state
func NewConflictError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindConflict}
}

// NewAuthorizationError creates an error for a privileged action without the required role
func NewAuthorizationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindAuthorization}
}

// NewInsufficientFundsError creates an error for a treasury expense larger than the balance
func NewInsufficientFundsError(balance, requested decimal.Decimal) *DomainError {
	return &DomainError{
		Code:    "INSUFFICIENT_FUNDS",
		Message: fmt.Sprintf("Insufficient treasury balance: available %s, requested %s", balance.StringFixed(2), requested.StringFixed(2)),
		Kind:    KindInsufficientFunds,
	}
}

// NewCreditLimitExceededError creates an error for a credit sale above the customer's limit
func NewCreditLimitExceededError(limit, balance, amount decimal.Decimal) *DomainError {
	return &DomainError{
		Code: "CREDIT_LIMIT_EXCEEDED",
		Message: fmt.Sprintf("Credit limit %s exceeded: current balance %s, new amount %s",
			limit.StringFixed(2), balance.StringFixed(2), amount.StringFixed(2)),
		Kind: KindCreditLimitExceeded,
	}
}

// Common domain errors
var (
	ErrNotFound            = &DomainError{Code: "NOT_FOUND", Message: "Resource not found", Kind: KindNotFound}
	ErrAlreadyExists       = &DomainError{Code: "ALREADY_EXISTS", Message: "Resource already exists", Kind: KindConflict}
	ErrInvalidInput        = &DomainError{Code: "INVALID_INPUT", Message: "Invalid input provided", Kind: KindValidation}
	ErrConcurrencyConflict = &DomainError{Code: "CONCURRENCY_CONFLICT", Message: "Resource was modified by another process", Kind: KindConflict}
	ErrUnauthorized        = &DomainError{Code: "UNAUTHORIZED", Message: "Not authorized to perform this action", Kind: KindAuthorization}
	ErrForbidden           = &DomainError{Code: "FORBIDDEN", Message: "Access to this resource is forbidden", Kind: KindAuthorization}
	ErrInvalidState        = &DomainError{Code: "INVALID_STATE", Message: "Operation not allowed in current state", Kind: KindConflict}
	ErrAlreadyReversed     = &DomainError{Code: "ALREADY_REVERSED", Message: "Record has already been reversed", Kind: KindConflict}
	ErrDuplicateRequest    = &DomainError{Code: "DUPLICATE_REQUEST", Message: "Request has already been processed", Kind: KindConflict}
	ErrLockNotAcquired     = &DomainError{Code: "LOCK_NOT_ACQUIRED", Message: "Resource is busy, try again", Kind: KindConflict}
	ErrInsufficientStock   = &DomainError{Code: "INSUFFICIENT_STOCK", Message: "Insufficient stock available", Kind: KindInsufficientStock}
	ErrInsufficientFunds   = &DomainError{Code: "INSUFFICIENT_FUNDS", Message: "Insufficient treasury balance", Kind: KindInsufficientFunds}
	ErrCreditLimitExceeded = &DomainError{Code: "CREDIT_LIMIT_EXCEEDED", Message: "Customer credit limit exceeded", Kind: KindCreditLimitExceeded}
)

// StockShortage describes one line that cannot be served from stock
type StockShortage struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Location    string          `json:"location,omitempty"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// InsufficientStockError carries every shortage found while validating a request
type InsufficientStockError struct {
	Shortages []StockShortage
}

// NewInsufficientStockError creates an InsufficientStockError
func NewInsufficientStockError(shortages ...StockShortage) *InsufficientStockError {
	return &InsufficientStockError{Shortages: shortages}
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		name := s.ProductName
		if name == "" {
			name = s.ProductID.String()
		}
		parts = append(parts, fmt.Sprintf("%s: requested %s, available %s", name, s.Requested.String(), s.Available.String()))
	}
	return "Insufficient stock (" + strings.Join(parts, "; ") + ")"
}

// Unwrap lets errors.Is(err, ErrInsufficientStock) match
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// KindOf classifies any error. Unknown errors are INTERNAL.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return KindInsufficientStock
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Kind == "" {
			return KindValidation
		}
		return domainErr.Kind
	}
	return KindInternal
}
