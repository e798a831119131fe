package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	p, err := Get(Shipway)
	require.NoError(t, err)
	assert.Equal(t, "data_shipway", p.StatsTable)
	assert.Equal(t, "loyalty_score_shipway", p.ScoreColumn)
	assert.Equal(t, "churn_rate_shipway", p.MetricColumn)
	assert.Equal(t, "sync_till_shipway", p.SyncColumn)
	assert.False(t, p.MetricIsBadge)

	grand, err := Get(Grand)
	require.NoError(t, err)
	assert.True(t, grand.MetricIsBadge)
	assert.Equal(t, "grand_score", grand.ScoreColumn)
	assert.Equal(t, "grand_badge", grand.MetricColumn)

	_, err = Get("magento")
	assert.Error(t, err)
}

func TestClassifyShipway(t *testing.T) {
	p, _ := Get(Shipway)

	assert.Equal(t, MergeAdd, p.Classify("order_count"))
	assert.Equal(t, MergeAdd, p.Classify("returned_orders"))
	assert.Equal(t, MergeAdd, p.Classify("delayed_orders"))
	assert.Equal(t, MergeOverwrite, p.Classify("nps_score"))
	assert.Equal(t, MergeOverwrite, p.Classify("wallet_share"))
	assert.Equal(t, MergeOverwrite, p.Classify("average_resolution_tat"))
	assert.Equal(t, MergeDrop, p.Classify("unknown_metric"))
}

func TestClassifyUnicommerceNarrowerThanShipway(t *testing.T) {
	p, _ := Get(Unicommerce)

	assert.Equal(t, MergeAdd, p.Classify("order_count"))
	assert.Equal(t, MergeAdd, p.Classify("complaint_count"))
	// Shipway accepts these additively; Unicommerce does not accept them.
	assert.Equal(t, MergeDrop, p.Classify("delayed_orders"))
	assert.Equal(t, MergeDrop, p.Classify("returned_orders"))
	assert.Equal(t, MergeDrop, p.Classify("undelivered_orders"))
}

func TestClassifyConvertwayNeverAdds(t *testing.T) {
	p, _ := Get(Convertway)

	for _, col := range p.StatsColumns() {
		assert.Equal(t, MergeOverwrite, p.Classify(col), col)
	}
	assert.Empty(t, p.AdditiveFields)
}

func TestIntegrationsExcludeGrand(t *testing.T) {
	for _, p := range Integrations() {
		assert.NotEqual(t, Grand, p.Name)
		assert.NotEmpty(t, p.StatsTable)
	}
	assert.Len(t, Integrations(), 3)
	assert.Len(t, All(), 4)
}
