package sources_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/sources"
)

func TestOrderJSONMoney(t *testing.T) {
	order := sources.Order{
		ID:     "2000006543210987",
		Status: "paid",
		Total:  decimal.RequireFromString("119.9"),
		Items: []sources.Item{{
			ID:        "MLB3456789012",
			Title:     "Capa de Almofada",
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("59.95"),
		}, {
			ID:        "MLB3456789013",
			Title:     "Brinde",
			Quantity:  1,
			UnitPrice: decimal.Zero,
		}},
	}

	raw, err := json.Marshal(order)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "119.90", got["total"])
	require.Equal(t, "paid", got["status"])
	require.NotContains(t, got, "Total")

	items := got["items"].([]any)
	require.Len(t, items, 2)
	require.Equal(t, "59.95", items[0].(map[string]any)["unit_price"])
	require.Equal(t, float64(2), items[0].(map[string]any)["quantity"])
	require.Equal(t, "0.00", items[1].(map[string]any)["unit_price"])

	raw, err = json.Marshal(&order)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"total":"119.90"`)
}
