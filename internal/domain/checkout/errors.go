package checkout

import (
	"errors"
	"fmt"
)

// Validation errors for checkout input.
var (
	ErrEmptySKU         = errors.New("checkout: sku must not be empty")
	ErrNonPositiveQty   = errors.New("checkout: qty must be positive")
	ErrNonPositivePrice = errors.New("checkout: unit price must be positive")
	ErrEmptyStoreID     = errors.New("checkout: store id must not be empty")
	ErrInvalidMode      = errors.New("checkout: unknown checkout mode")
	ErrNoLines          = errors.New("checkout: at least one line is required")
)

// ErrDuplicateRequest is returned when an idempotency key has already
// been consumed by an earlier checkout submission.
var ErrDuplicateRequest = errors.New("checkout: duplicate checkout request")

// FailureKind classifies where a remote call failed.
type FailureKind string

const (
	// KindTransport covers network, HTTP-layer and timeout failures.
	KindTransport FailureKind = "transport"
	// KindApplication covers well-formed responses carrying an error
	// payload from the remote side.
	KindApplication FailureKind = "application"
)

// RemoteCallError is the single normalized shape for every failure that
// originates from the remote system. Callers branch on Kind, never on
// transport internals.
type RemoteCallError struct {
	Kind   FailureKind
	Detail string
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call failed (%s): %s", e.Kind, e.Detail)
}

// AuthenticationError signals that the remote session could not be
// established: the authentication response carried an error payload or
// no identity.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Detail
}

// UnknownSkuError reports the first request SKU the remote catalog could
// not resolve. No partial order is built once one is found.
type UnknownSkuError struct {
	SKU string
}

func (e *UnknownSkuError) Error() string {
	return "Unknown SKU: " + e.SKU
}

// InvalidResponseError reports a remote return value that violates the
// expected type contract, such as a create call returning null or a
// non-positive id.
type InvalidResponseError struct {
	Value string
}

func (e *InvalidResponseError) Error() string {
	return "invalid remote response: " + e.Value
}

// ConfirmationError wraps any failure of the confirmation action. The
// draft order already exists remotely at this point, so the id is kept
// for operator reconciliation.
type ConfirmationError struct {
	OrderID int64
	Detail  string
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("order %d created but confirmation failed: %s", e.OrderID, e.Detail)
}

// ModeNotSupportedError is the deliberate rejection of a checkout mode
// outside the current phase. It is fixed policy, not a missing feature
// flag.
type ModeNotSupportedError struct {
	Mode Mode
}

func (e *ModeNotSupportedError) Error() string {
	return fmt.Sprintf("mode '%s' not supported", e.Mode)
}
