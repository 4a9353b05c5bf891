package checkout

import (
	"context"
	"time"
)

// ProductResolver resolves SKU codes against the remote product catalog.
type ProductResolver interface {
	// ResolveSKUs maps each resolvable SKU to its remote product id.
	// Empty input returns an empty map without a remote call. SKUs the
	// remote system does not know are simply absent from the result;
	// callers decide how to treat gaps. Results are never cached across
	// calls.
	ResolveSKUs(ctx context.Context, skus []string) (map[string]int64, error)
}

// OrderOrchestrator owns the two-call create+confirm sequence against
// the remote order model. The two calls share no transaction boundary:
// a confirm failure leaves the created draft behind on the remote side.
type OrderOrchestrator interface {
	// CreateDraft resolves all line SKUs, assembles one creation payload
	// and returns the validated positive remote order id. Fails with
	// UnknownSkuError before any mutation if a SKU cannot be resolved.
	CreateDraft(ctx context.Context, partnerID int64, lines []Line, pricelistID *int64, note string) (int64, error)

	// Confirm runs the confirmation action for a created draft. Any
	// failure is wrapped as ConfirmationError. Never retried here: the
	// remote action is not proven idempotent.
	Confirm(ctx context.Context, orderID int64) error
}

// IdempotencyStore guards against duplicate submission of the
// non-idempotent checkout mutation.
type IdempotencyStore interface {
	// MarkProcessed atomically claims a key with a TTL. Returns true if
	// the key was newly claimed, false if it was already used.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether a key has already been claimed.
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close releases store resources.
	Close() error
}
