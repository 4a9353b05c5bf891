package odoo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/KazuakiWatanabe/scancheckout-oss/internal/domain/checkout"
)

// Resolver resolves SKU codes to product.product ids with one batched
// search_read per call. Results always reflect the remote system's
// current truth; nothing is cached.
type Resolver struct {
	client *Client
	field  string
}

// NewResolver creates a resolver using the client's configured SKU field.
func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		field:  client.Config().SKUField,
	}
}

// ResolveSKUs implements checkout.ProductResolver. Unknown SKUs are
// absent from the returned map; that is not an error at this layer.
func (r *Resolver) ResolveSKUs(ctx context.Context, skus []string) (map[string]int64, error) {
	out := make(map[string]int64, len(skus))
	if len(skus) == 0 {
		// Short-circuit: no remote round-trip for an empty set.
		return out, nil
	}

	distinct := make([]string, 0, len(skus))
	wanted := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		if _, ok := wanted[sku]; ok {
			continue
		}
		wanted[sku] = struct{}{}
		distinct = append(distinct, sku)
	}

	args := []any{
		[]any{[]any{r.field, "in", distinct}},
		[]string{"id", r.field},
	}
	kwargs := map[string]any{"limit": len(distinct)}

	raw, err := r.client.CallKw(ctx, "product.product", "search_read", args, kwargs)
	if err != nil {
		return nil, err
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		// Odoo returns false for some empty results.
		return out, nil
	}

	for _, row := range rows {
		var key string
		if err := json.Unmarshal(row[r.field], &key); err != nil || key == "" {
			continue
		}
		// Guard against the remote returning rows outside the asked set.
		if _, ok := wanted[key]; !ok {
			continue
		}
		var id int64
		if err := json.Unmarshal(row["id"], &id); err != nil || id <= 0 {
			return nil, &checkout.InvalidResponseError{
				Value: fmt.Sprintf("product row for %q has no usable id", key),
			}
		}
		out[key] = id
	}
	return out, nil
}

var _ checkout.ProductResolver = (*Resolver)(nil)
