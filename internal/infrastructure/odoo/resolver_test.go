package odoo

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

func TestResolverResolveSKUs(t *testing.T) {
	t.Run("empty input makes no remote call", func(t *testing.T) {
		calls := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls++
		})
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, calls, "no HTTP traffic expected, not even authentication")
	})

	t.Run("one batched search_read for all distinct skus", func(t *testing.T) {
		var gotParams map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				gotParams = envelopeParams(t, decodeEnvelope(t, r))
				writeResult(t, w, []any{
					map[string]any{"id": 11, "default_code": "AAA"},
					map[string]any{"id": 12, "default_code": "BBB"},
				})
			}
		})
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), []string{"AAA", "BBB", "AAA"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"AAA": 11, "BBB": 12}, got)

		assert.Equal(t, "product.product", gotParams["model"])
		assert.Equal(t, "search_read", gotParams["method"])
		args, ok := gotParams["args"].([]any)
		require.True(t, ok)
		require.Len(t, args, 2)
		// Domain: [["default_code", "in", ["AAA", "BBB"]]], deduplicated.
		domain := args[0].([]any)
		require.Len(t, domain, 1)
		clause := domain[0].([]any)
		assert.Equal(t, "default_code", clause[0])
		assert.Equal(t, "in", clause[1])
		assert.Equal(t, []any{"AAA", "BBB"}, clause[2])
		assert.Equal(t, []any{"id", "default_code"}, args[1])
		kwargs := gotParams["kwargs"].(map[string]any)
		assert.Equal(t, float64(2), kwargs["limit"])
	})

	t.Run("unknown skus are absent, not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				writeResult(t, w, []any{
					map[string]any{"id": 11, "default_code": "AAA"},
				})
			}
		})
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), []string{"AAA", "NOPE"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"AAA": 11}, got)
		_, found := got["NOPE"]
		assert.False(t, found)
	})

	t.Run("false result means empty catalog match", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				writeResult(t, w, false)
			}
		})
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), []string{"AAA"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rows outside the asked set are dropped", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				writeResult(t, w, []any{
					map[string]any{"id": 11, "default_code": "AAA"},
					map[string]any{"id": 99, "default_code": "UNRELATED"},
				})
			}
		})
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), []string{"AAA"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"AAA": 11}, got)
	})

	t.Run("row with unusable id violates the response contract", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				writeResult(t, w, []any{
					map[string]any{"id": 0, "default_code": "AAA"},
				})
			}
		})
		resolver := NewResolver(client)

		_, err := resolver.ResolveSKUs(context.Background(), []string{"AAA"})
		var invalid *checkout.InvalidResponseError
		require.ErrorAs(t, err, &invalid)
	})

	t.Run("uses the configured sku field", func(t *testing.T) {
		var gotParams map[string]any
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case authenticatePath:
				writeResult(t, w, map[string]any{"uid": 2})
			case callKwPath:
				gotParams = envelopeParams(t, decodeEnvelope(t, r))
				writeResult(t, w, []any{
					map[string]any{"id": 11, "barcode": "4901234567894"},
				})
			}
		})
		client.Config().SKUField = "barcode"
		resolver := NewResolver(client)

		got, err := resolver.ResolveSKUs(context.Background(), []string{"4901234567894"})
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"4901234567894": 11}, got)

		args := gotParams["args"].([]any)
		clause := args[0].([]any)[0].([]any)
		assert.Equal(t, "barcode", clause[0])
	})
}
