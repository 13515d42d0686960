package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caiocavalcantesp/sistema-bipagem-masterhotelaria/internal/apperr"
)

func TestResolveOrderKnownCodes(t *testing.T) {
	src := New()
	res, err := src.ResolveOrder(context.Background(), "MLB4045061874601")
	require.NoError(t, err)
	require.Equal(t, "Mercado Livre", res.Platform)
	require.Equal(t, "Capa de Almofada Impermeável 45x45 Acquablock Original", res.Product.Name)
	require.Equal(t, "KIT-4-CAPAS-ACQUA-01", res.Product.SKU)
	require.Equal(t, "119.90", res.Product.Price.StringFixed(2))
	require.Equal(t, "João da Silva", res.Order.DisplayBuyer())
	require.Equal(t, "2000006543210987", res.Order.ID)
	require.Equal(t, "45061874601", res.Order.Shipping.ID)

	res, err = src.ResolveOrder(context.Background(), "MLB4045061714627")
	require.NoError(t, err)
	require.Equal(t, "VEL-KIT-4-ALMO-02", res.Product.SKU)
	require.Equal(t, "89.90", res.Product.Price.StringFixed(2))
}

func TestResolveOrderUnknown(t *testing.T) {
	_, err := New().ResolveOrder(context.Background(), "MLB4000000000000")
	require.True(t, apperr.IsNotFound(err))

	// Only canonical codes are keys.
	_, err = New().ResolveOrder(context.Background(), "45061874601")
	require.True(t, apperr.IsNotFound(err))
}

func TestEveryRecordResolves(t *testing.T) {
	for code, r := range records {
		res, err := New().ResolveOrder(context.Background(), code)
		require.NoError(t, err, code)
		require.Equal(t, r.orderID, res.Order.ID, code)
	}
}
