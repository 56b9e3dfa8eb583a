package contracts

import (
	"errors"
	"strings"
)

var (
	// ErrBridgeUnavailable means the capability namespace is absent or the host is unreachable.
	ErrBridgeUnavailable = errors.New("bridge unavailable")
	// ErrNotReady means the host is reachable but has not finished initializing.
	ErrNotReady = errors.New("bridge not ready")
	// ErrTransport means a single call failed to resolve.
	ErrTransport = errors.New("bridge transport failure")
)

const (
	ErrorCategoryAPI         = "api"
	ErrorCategoryUnavailable = "unavailable"
	ErrorCategoryNotReady    = "not_ready"
	ErrorCategoryTransport   = "transport"
)

func NewBridgeError(kind error, method string, err error) error {
	return &BridgeError{Kind: kind, Method: method, Err: err}
}

func normalizeErrorCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case ErrorCategoryUnavailable:
		return ErrorCategoryUnavailable
	case ErrorCategoryNotReady:
		return ErrorCategoryNotReady
	case ErrorCategoryTransport:
		return ErrorCategoryTransport
	default:
		return ErrorCategoryAPI
	}
}

func WrapCategorizedError(category string, err error) error {
	if err == nil {
		return nil
	}
	var existing *CategorizedError
	if errors.As(err, &existing) {
		return &CategorizedError{
			Category: normalizeErrorCategory(existing.Category),
			Err:      existing.Err,
		}
	}
	return &CategorizedError{
		Category: normalizeErrorCategory(category),
		Err:      err,
	}
}

// ErrorCategory classifies err. Bridge sentinels win over an explicit category.
func ErrorCategory(err error) string {
	switch {
	case errors.Is(err, ErrBridgeUnavailable):
		return ErrorCategoryUnavailable
	case errors.Is(err, ErrNotReady):
		return ErrorCategoryNotReady
	case errors.Is(err, ErrTransport):
		return ErrorCategoryTransport
	}
	var classified *CategorizedError
	if errors.As(err, &classified) {
		return normalizeErrorCategory(classified.Category)
	}
	return ErrorCategoryAPI
}
