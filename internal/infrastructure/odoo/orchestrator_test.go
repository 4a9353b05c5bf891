package odoo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

func mustLine(t *testing.T, sku, qty string, price *string) checkout.Line {
	t.Helper()
	var unitPrice *decimal.Decimal
	if price != nil {
		p := decimal.RequireFromString(*price)
		unitPrice = &p
	}
	line, err := checkout.NewLine(sku, decimal.RequireFromString(qty), unitPrice)
	require.NoError(t, err)
	return line
}

func strPtr(s string) *string { return &s }

// odooStub replays canned answers per model.method and records every
// call_kw invocation for later assertions.
type odooStub struct {
	t       *testing.T
	results map[string]any
	errors  map[string]string
	calls   []map[string]any
}

func newOdooStub(t *testing.T) *odooStub {
	return &odooStub{
		t:       t,
		results: make(map[string]any),
		errors:  make(map[string]string),
	}
}

func (s *odooStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authenticatePath:
			writeResult(s.t, w, map[string]any{"uid": 2})
		case callKwPath:
			params := envelopeParams(s.t, decodeEnvelope(s.t, r))
			s.calls = append(s.calls, params)
			key := params["model"].(string) + "." + params["method"].(string)
			if msg, ok := s.errors[key]; ok {
				writeRPCError(s.t, w, 200, msg)
				return
			}
			result, ok := s.results[key]
			require.True(s.t, ok, "unexpected call %s", key)
			writeResult(s.t, w, result)
		}
	}
}

func (s *odooStub) callsTo(method string) []map[string]any {
	var out []map[string]any
	for _, c := range s.calls {
		if c["method"] == method {
			out = append(out, c)
		}
	}
	return out
}

func TestOrchestratorCreateDraft(t *testing.T) {
	t.Run("builds the order with inline line commands", func(t *testing.T) {
		stub := newOdooStub(t)
		stub.results["product.product.search_read"] = []any{
			map[string]any{"id": 11, "default_code": "AAA"},
			map[string]any{"id": 12, "default_code": "BBB"},
		}
		stub.results["sale.order.create"] = 42

		client := newTestClient(t, stub.handler())
		orchestrator := NewOrchestrator(client, NewResolver(client))

		lines := []checkout.Line{
			mustLine(t, "AAA", "2", nil),
			mustLine(t, "BBB", "1", strPtr("9.99")),
		}
		pricelistID := int64(3)
		orderID, err := orchestrator.CreateDraft(context.Background(), 5, lines, &pricelistID, "register 1")
		require.NoError(t, err)
		assert.Equal(t, int64(42), orderID)

		creates := stub.callsTo("create")
		require.Len(t, creates, 1)
		args := creates[0]["args"].([]any)
		require.Len(t, args, 1)
		vals := args[0].(map[string]any)
		assert.Equal(t, float64(5), vals["partner_id"])
		assert.Equal(t, float64(3), vals["pricelist_id"])
		assert.Equal(t, "register 1", vals["note"])

		orderLines := vals["order_line"].([]any)
		require.Len(t, orderLines, 2)

		first := orderLines[0].([]any)
		assert.Equal(t, float64(0), first[0])
		assert.Equal(t, float64(0), first[1])
		firstVals := first[2].(map[string]any)
		assert.Equal(t, float64(11), firstVals["product_id"])
		assert.Equal(t, float64(2), firstVals["product_uom_qty"])
		_, hasPrice := firstVals["price_unit"]
		assert.False(t, hasPrice, "no override means the remote system prices the line")

		secondVals := orderLines[1].([]any)[2].(map[string]any)
		assert.Equal(t, float64(12), secondVals["product_id"])
		assert.InDelta(t, 9.99, secondVals["price_unit"], 0.0001)
	})

	t.Run("omits pricelist and note when unset", func(t *testing.T) {
		stub := newOdooStub(t)
		stub.results["product.product.search_read"] = []any{
			map[string]any{"id": 11, "default_code": "AAA"},
		}
		stub.results["sale.order.create"] = 7

		client := newTestClient(t, stub.handler())
		orchestrator := NewOrchestrator(client, NewResolver(client))

		_, err := orchestrator.CreateDraft(context.Background(), 1, []checkout.Line{mustLine(t, "AAA", "1", nil)}, nil, "")
		require.NoError(t, err)

		vals := stub.callsTo("create")[0]["args"].([]any)[0].(map[string]any)
		_, hasPricelist := vals["pricelist_id"]
		assert.False(t, hasPricelist)
		_, hasNote := vals["note"]
		assert.False(t, hasNote)
	})

	t.Run("first unresolved sku aborts before any mutation", func(t *testing.T) {
		stub := newOdooStub(t)
		stub.results["product.product.search_read"] = []any{
			map[string]any{"id": 11, "default_code": "AAA"},
		}

		client := newTestClient(t, stub.handler())
		orchestrator := NewOrchestrator(client, NewResolver(client))

		lines := []checkout.Line{
			mustLine(t, "AAA", "1", nil),
			mustLine(t, "NOPE", "1", nil),
			mustLine(t, "ALSO-MISSING", "1", nil),
		}
		_, err := orchestrator.CreateDraft(context.Background(), 1, lines, nil, "")

		var unknownSku *checkout.UnknownSkuError
		require.ErrorAs(t, err, &unknownSku)
		assert.Equal(t, "NOPE", unknownSku.SKU)
		assert.Equal(t, "Unknown SKU: NOPE", err.Error())
		assert.Empty(t, stub.callsTo("create"), "no order must be created")
	})

	t.Run("create result outside the id contract is rejected", func(t *testing.T) {
		for name, result := range map[string]any{
			"null":       nil,
			"false":      false,
			"negative":   -5,
			"zero":       0,
			"fractional": 3.7,
			"string":     "42",
			"object":     map[string]any{"id": 42},
		} {
			t.Run(name, func(t *testing.T) {
				stub := newOdooStub(t)
				stub.results["product.product.search_read"] = []any{
					map[string]any{"id": 11, "default_code": "AAA"},
				}
				stub.results["sale.order.create"] = result

				client := newTestClient(t, stub.handler())
				orchestrator := NewOrchestrator(client, NewResolver(client))

				_, err := orchestrator.CreateDraft(context.Background(), 1, []checkout.Line{mustLine(t, "AAA", "1", nil)}, nil, "")
				var invalid *checkout.InvalidResponseError
				require.ErrorAs(t, err, &invalid)
			})
		}
	})
}

func TestOrchestratorConfirm(t *testing.T) {
	t.Run("confirms by id", func(t *testing.T) {
		stub := newOdooStub(t)
		stub.results["sale.order.action_confirm"] = true

		client := newTestClient(t, stub.handler())
		orchestrator := NewOrchestrator(client, NewResolver(client))

		require.NoError(t, orchestrator.Confirm(context.Background(), 42))

		confirms := stub.callsTo("action_confirm")
		require.Len(t, confirms, 1)
		args := confirms[0]["args"].([]any)
		assert.Equal(t, []any{float64(42)}, args[0])
	})

	t.Run("failure wraps the order id for reconciliation", func(t *testing.T) {
		stub := newOdooStub(t)
		stub.errors["sale.order.action_confirm"] = "Not enough stock"

		client := newTestClient(t, stub.handler())
		orchestrator := NewOrchestrator(client, NewResolver(client))

		err := orchestrator.Confirm(context.Background(), 7)
		var confirmErr *checkout.ConfirmationError
		require.ErrorAs(t, err, &confirmErr)
		assert.Equal(t, int64(7), confirmErr.OrderID)
		assert.Contains(t, confirmErr.Detail, "Not enough stock")
		assert.Contains(t, err.Error(), "order 7 created but confirmation failed:")

		confirms := stub.callsTo("action_confirm")
		assert.Len(t, confirms, 1, "confirmation is never retried")
	})
}

func TestParseRecordID(t *testing.T) {
	t.Run("accepts a positive integer", func(t *testing.T) {
		id, err := parseRecordID(json.RawMessage("42"))
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("rejects everything else", func(t *testing.T) {
		for _, raw := range []string{"null", "false", "0", "-1", "3.7", `"42"`, "[]", "{}"} {
			_, err := parseRecordID(json.RawMessage(raw))
			var invalid *checkout.InvalidResponseError
			assert.ErrorAs(t, err, &invalid, "raw=%s", raw)
		}
	})
}
