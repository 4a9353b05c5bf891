package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

// Orchestrator drives the two-call create+confirm sequence against
// sale.order. The two remote calls share no transaction boundary: when
// create succeeds and confirm fails, the draft persists remotely and no
// compensating deletion is attempted (Odoo may refuse to delete orders
// referenced elsewhere).
//
// The orchestrator owns the shared client and serializes access to it,
// so a single instance is safe for concurrent requests.
type Orchestrator struct {
	mu       sync.Mutex
	client   *Client
	resolver checkout.ProductResolver
}

// NewOrchestrator wires the orchestrator with its gateway and resolver.
func NewOrchestrator(client *Client, resolver checkout.ProductResolver) *Orchestrator {
	return &Orchestrator{
		client:   client,
		resolver: resolver,
	}
}

// CreateDraft implements checkout.OrderOrchestrator. The first line
// whose SKU is missing from the resolved mapping aborts the call with
// UnknownSkuError before any remote mutation.
func (o *Orchestrator) CreateDraft(ctx context.Context, partnerID int64, lines []checkout.Line, pricelistID *int64, note string) (int64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	skus := make([]string, 0, len(lines))
	for _, line := range lines {
		skus = append(skus, line.SKU)
	}
	resolved, err := o.resolver.ResolveSKUs(ctx, skus)
	if err != nil {
		return 0, err
	}

	// One2many command tuples (0, 0, vals) create lines inline with the
	// order in a single call.
	orderLines := make([]any, 0, len(lines))
	for _, line := range lines {
		productID, ok := resolved[line.SKU]
		if !ok {
			return 0, &checkout.UnknownSkuError{SKU: line.SKU}
		}
		vals := map[string]any{
			"product_id":      productID,
			"product_uom_qty": line.Qty.InexactFloat64(),
		}
		if line.UnitPrice != nil {
			// Explicit price overrides the remote pricelist; absent it,
			// Odoo applies its own pricing.
			vals["price_unit"] = line.UnitPrice.InexactFloat64()
		}
		orderLines = append(orderLines, []any{0, 0, vals})
	}

	orderVals := map[string]any{
		"partner_id": partnerID,
		"order_line": orderLines,
	}
	if pricelistID != nil {
		orderVals["pricelist_id"] = *pricelistID
	}
	if note != "" {
		orderVals["note"] = note
	}

	raw, err := o.client.CallKw(ctx, "sale.order", "create", []any{orderVals}, nil)
	if err != nil {
		return 0, err
	}
	return parseRecordID(raw)
}

// Confirm implements checkout.OrderOrchestrator. Never retried: the
// draft already exists and action_confirm is not proven idempotent, so
// a blind retry risks duplicate side effects.
func (o *Orchestrator) Confirm(ctx context.Context, orderID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := o.client.CallKw(ctx, "sale.order", "action_confirm", []any{[]int64{orderID}}, nil)
	if err != nil {
		return &checkout.ConfirmationError{OrderID: orderID, Detail: err.Error()}
	}
	return nil
}

// parseRecordID validates that a create call returned a positive
// integer id. Anything else (null, false, non-numeric, fractional,
// non-positive) violates the type contract and must not propagate as an
// untyped identifier.
func parseRecordID(raw json.RawMessage) (int64, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, &checkout.InvalidResponseError{Value: string(raw)}
	}
	num, ok := value.(json.Number)
	if !ok {
		return 0, &checkout.InvalidResponseError{Value: string(raw)}
	}
	id, err := num.Int64()
	if err != nil || id <= 0 {
		return 0, &checkout.InvalidResponseError{Value: string(raw)}
	}
	return id, nil
}

var _ checkout.OrderOrchestrator = (*Orchestrator)(nil)
