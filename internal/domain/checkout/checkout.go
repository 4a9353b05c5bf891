// Package checkout contains the domain model for bridging scan-based
// checkout requests into the remote order-management system.
package checkout

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TargetSaleOrder is the remote model a sale-mode checkout creates.
const TargetSaleOrder = "sale.order"

// Mode selects which remote flow handles a checkout request.
type Mode string

const (
	// ModeSale creates a draft sale order and confirms it.
	ModeSale Mode = "sale"
	// ModePos would create a POS order via the remote POS UI endpoint.
	// Not supported in this phase; requests carrying it are rejected
	// before any remote call is made.
	ModePos Mode = "pos"
)

// IsValid reports whether the mode is a known flow variant.
func (m Mode) IsValid() bool {
	return m == ModeSale || m == ModePos
}

// Line is a single sellable item position in a checkout request.
// Immutable once constructed via NewLine.
type Line struct {
	// SKU is the stable textual code identifying the item,
	// matched against the remote product catalog.
	SKU string
	// Qty is the purchased quantity. Always positive.
	Qty decimal.Decimal
	// UnitPrice overrides the remote system's own pricing when set.
	UnitPrice *decimal.Decimal
}

// NewLine builds a validated checkout line.
func NewLine(sku string, qty decimal.Decimal, unitPrice *decimal.Decimal) (Line, error) {
	if strings.TrimSpace(sku) == "" {
		return Line{}, ErrEmptySKU
	}
	if !qty.IsPositive() {
		return Line{}, ErrNonPositiveQty
	}
	if unitPrice != nil && !unitPrice.IsPositive() {
		return Line{}, ErrNonPositivePrice
	}
	return Line{SKU: sku, Qty: qty, UnitPrice: unitPrice}, nil
}

// Request is one inbound checkout to be pushed to the remote system.
type Request struct {
	// StoreID identifies the originating store or tenant.
	StoreID string
	// OperatorID identifies the cashier or device operator. Optional.
	OperatorID string
	// Mode selects the remote flow. Only ModeSale is handled.
	Mode Mode
	// Lines are the purchased items. Never empty for a valid request.
	Lines []Line
	// Note is free-form text attached to the created order. Optional.
	Note string
	// PartnerID overrides the configured default customer. Optional.
	PartnerID *int64
}

// Validate checks the request shape. Mode policy is enforced separately
// by the dispatcher so that an unsupported mode produces its dedicated
// error rather than a generic validation failure.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.StoreID) == "" {
		return ErrEmptyStoreID
	}
	if !r.Mode.IsValid() {
		return ErrInvalidMode
	}
	if len(r.Lines) == 0 {
		return ErrNoLines
	}
	return nil
}

// SKUs returns the distinct SKU codes of the request lines,
// in first-seen order.
func (r *Request) SKUs() []string {
	seen := make(map[string]struct{}, len(r.Lines))
	out := make([]string, 0, len(r.Lines))
	for _, line := range r.Lines {
		if _, ok := seen[line.SKU]; ok {
			continue
		}
		seen[line.SKU] = struct{}{}
		out = append(out, line.SKU)
	}
	return out
}

// Result is the fixed outcome contract returned for every checkout,
// success or failure.
//
// Invariant: RecordID is non-nil iff OK is true; Message is non-nil
// whenever OK is false.
type Result struct {
	OK       bool    `json:"ok"`
	Target   string  `json:"target"`
	RecordID *int64  `json:"record_id"`
	Message  *string `json:"message"`
}

// SuccessResult builds the terminal success outcome.
func SuccessResult(target string, recordID int64) Result {
	return Result{OK: true, Target: target, RecordID: &recordID}
}

// FailureResult builds a terminal failure outcome carrying an
// operator-readable message.
func FailureResult(target, message string) Result {
	return Result{OK: false, Target: target, Message: &message}
}
