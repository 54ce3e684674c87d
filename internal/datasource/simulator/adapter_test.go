package simulator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impact-engine/impact-engine/internal/retailsim"
	"github.com/impact-engine/impact-engine/pkg/errors"
	"github.com/impact-engine/impact-engine/pkg/types"
)

type stubGenerator struct {
	rows     []retailsim.Row
	err      error
	products []retailsim.Characteristics
}

func (s *stubGenerator) SimulateMetrics(products []retailsim.Characteristics) ([]retailsim.Row, error) {
	s.products = products
	return s.rows, s.err
}

// stubAdapter returns a connected adapter backed by the stub, and the stub
// plus the config captured at generator construction.
func stubAdapter(t *testing.T, rows []retailsim.Row) (*Adapter, *stubGenerator, *retailsim.Config) {
	t.Helper()
	stub := &stubGenerator{rows: rows}
	captured := &retailsim.Config{}
	adapter := NewWithGeneratorFactory(func(cfg retailsim.Config) (Generator, error) {
		*captured = cfg
		return stub, nil
	})
	require.NoError(t, adapter.Connect(types.ConnectionConfig{Mode: "rule", Seed: 7}))
	return adapter, stub, captured
}

func TestConnectValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.ConnectionConfig
		wantErr bool
	}{
		{"rule mode", types.ConnectionConfig{Mode: "rule", Seed: 42}, false},
		{"ml mode", types.ConnectionConfig{Mode: "ml", Seed: 0}, false},
		{"empty mode defaults to rule", types.ConnectionConfig{Seed: 1}, false},
		{"invalid mode", types.ConnectionConfig{Mode: "quantum", Seed: 42}, true},
		{"negative seed", types.ConnectionConfig{Mode: "rule", Seed: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Connect(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidArgument))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetrieveRequiresConnection(t *testing.T) {
	adapter := New()

	_, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-02")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConnectionFailed))
}

func TestRetrieveEmptyProducts(t *testing.T) {
	adapter := New()
	require.NoError(t, adapter.Connect(types.ConnectionConfig{}))

	_, err := adapter.RetrieveBusinessMetrics(nil, "2024-01-01", "2024-01-02")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidArgument))
}

func TestGeneratorUnavailable(t *testing.T) {
	adapter := NewWithGeneratorFactory(nil)
	require.NoError(t, adapter.Connect(types.ConnectionConfig{}))

	assert.False(t, adapter.ValidateConnection())

	_, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-02")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeGeneratorUnavailable))
}

func TestValidateConnection(t *testing.T) {
	adapter := New()
	assert.False(t, adapter.ValidateConnection(), "unconnected adapter must not validate")

	require.NoError(t, adapter.Connect(types.ConnectionConfig{}))
	assert.True(t, adapter.ValidateConnection())
}

func TestOutboundIdentifierPriority(t *testing.T) {
	price := 19.99
	tests := []struct {
		name    string
		product types.Product
		index   int
		want    string
	}{
		{"explicit product id wins", types.Product{ID: "P1", Attrs: map[string]string{"sku": "S1"}}, 0, "P1"},
		{"native id field", types.Product{Attrs: map[string]string{"asin": "B0042"}}, 0, "B0042"},
		{"sku column", types.Product{Attrs: map[string]string{"sku": "SKU-7", "color": "red"}}, 0, "SKU-7"},
		{"item_code column", types.Product{Attrs: map[string]string{"item_code": "IC-1"}}, 0, "IC-1"},
		{"id fragment beats sku fragment", types.Product{Attrs: map[string]string{"sku": "S1", "item_id": "I1"}}, 0, "I1"},
		{"index synthesis", types.Product{Name: "Mystery", Price: &price}, 3, "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveIdentifier(tt.product, tt.index))
		})
	}
}

func TestOutboundSkuOnlyTable(t *testing.T) {
	adapter, stub, _ := stubAdapter(t, nil)

	products := []types.Product{
		{Attrs: map[string]string{"sku": "SKU-A"}},
		{Attrs: map[string]string{"sku": "SKU-B"}},
	}
	_, err := adapter.RetrieveBusinessMetrics(products, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	require.Len(t, stub.products, 2)
	assert.Equal(t, "SKU-A", stub.products[0].ASIN, "identifier must come from sku, not the index")
	assert.Equal(t, "SKU-B", stub.products[1].ASIN)
}

func TestOutboundDefaults(t *testing.T) {
	adapter, stub, cfg := stubAdapter(t, nil)

	_, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P9"}}, "2024-02-01", "2024-02-29")
	require.NoError(t, err)

	require.Len(t, stub.products, 1)
	p := stub.products[0]
	assert.Equal(t, "Product P9", p.Name)
	assert.Equal(t, "Electronics", p.Category)
	assert.Equal(t, 100.0, p.Price)

	assert.Equal(t, "2024-02-01", cfg.DateStart)
	assert.Equal(t, "2024-02-29", cfg.DateEnd)
	assert.Equal(t, 0.7, cfg.SaleProbability)
	assert.Equal(t, 0.15, cfg.ImpressionToVisitRate)
	assert.Equal(t, 0.25, cfg.VisitToCartRate)
	assert.Equal(t, 0.80, cfg.CartToOrderRate)
	assert.Equal(t, 7, cfg.Seed)
	assert.Equal(t, "daily", cfg.Granularity)
}

func TestInboundEmptyResult(t *testing.T) {
	adapter, _, _ := stubAdapter(t, nil)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.Empty(t, table.Records)
	assert.Equal(t, types.CanonicalColumns(), table.Columns,
		"empty table must still carry the full canonical column set")
}

func TestInboundDerivedFields(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "ordered_units": 5, "revenue": 50.0, "price": 10.0},
		{"asin": "P1", "date": "2024-01-02", "ordered_units": 20, "revenue": 200.0, "price": 10.0},
		{"asin": "P1", "date": "2024-01-03", "ordered_units": 0, "revenue": 0.0, "price": 10.0},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-03")
	require.NoError(t, err)
	require.Len(t, table.Records, 3)

	// inventory_level = max(0, 1000 - 10*sales_volume)
	assert.Equal(t, 950, table.Records[0].InventoryLevel)
	assert.Equal(t, 800, table.Records[1].InventoryLevel)
	assert.Equal(t, 1000, table.Records[2].InventoryLevel)

	// customer_engagement = sales/max(sales), clipped to [0,1]
	assert.InDelta(t, 0.25, table.Records[0].CustomerEngagement, 1e-9)
	assert.Equal(t, 1.0, table.Records[1].CustomerEngagement)
	assert.Equal(t, 0.0, table.Records[2].CustomerEngagement)

	for _, rec := range table.Records {
		assert.Equal(t, SourceName, rec.MetricsSource)
		assert.False(t, rec.RetrievalTimestamp.IsZero())
	}
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), table.Records[1].Date)
}

func TestInboundLargeDrawdownClampsInventory(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "ordered_units": 150},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 0, table.Records[0].InventoryLevel)
}

func TestInboundLegacyQuantityField(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "quantity": 8},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, 8, table.Records[0].SalesVolume)
	assert.True(t, table.HasColumn(types.ColumnSalesVolume))
}

func TestInboundNumericCoercion(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "ordered_units": "12", "price": "not-a-number", "revenue": "34.5"},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	rec := table.Records[0]
	assert.Equal(t, 12, rec.SalesVolume, "numeric strings coerce")
	assert.Nil(t, rec.Price, "invalid numerics become the missing marker")
	require.NotNil(t, rec.Revenue)
	assert.Equal(t, 34.5, *rec.Revenue)

	// The price column itself was present in the raw result.
	assert.True(t, table.HasColumn(types.ColumnPrice))
}

func TestInboundSuppliedMetricsNotDerived(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "ordered_units": 5, "inventory_level": 77, "customer_engagement": 3.0},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, 77, table.Records[0].InventoryLevel, "supplied inventory is kept")
	assert.Equal(t, 1.0, table.Records[0].CustomerEngagement, "supplied engagement is clipped to [0,1]")
}

func TestInboundColumnProjection(t *testing.T) {
	rows := []retailsim.Row{
		{"asin": "P1", "date": "2024-01-01", "ordered_units": 5},
	}
	adapter, _, _ := stubAdapter(t, rows)

	table, err := adapter.RetrieveBusinessMetrics([]types.Product{{ID: "P1"}}, "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, []string{
		types.ColumnProductID,
		types.ColumnDate,
		types.ColumnSalesVolume,
		types.ColumnInventoryLevel,
		types.ColumnCustomerEngagement,
		types.ColumnMetricsSource,
		types.ColumnRetrievalTimestamp,
	}, table.Columns, "absent raw columns are dropped, canonical order kept")
}

func TestRetrieveEndToEnd(t *testing.T) {
	adapter := New()
	require.NoError(t, adapter.Connect(types.ConnectionConfig{Mode: "rule", Seed: 42}))

	products := []types.Product{{ID: "B001"}, {ID: "B002"}}
	table, err := adapter.RetrieveBusinessMetrics(products, "2024-01-01", "2024-01-03")
	require.NoError(t, err)

	// 2 products x 3 days.
	require.Len(t, table.Records, 6)
	for _, rec := range table.Records {
		assert.Contains(t, []string{"B001", "B002"}, rec.ProductID)
		assert.GreaterOrEqual(t, rec.SalesVolume, 0)
		assert.GreaterOrEqual(t, rec.CustomerEngagement, 0.0)
		assert.LessOrEqual(t, rec.CustomerEngagement, 1.0)
		assert.Equal(t, maxInt(0, 1000-10*rec.SalesVolume), rec.InventoryLevel)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
