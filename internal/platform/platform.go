package platform

import "fmt"

// Platform names
const (
	Shipway     = "shipway"
	Convertway  = "convertway"
	Unicommerce = "unicommerce"
	Grand       = "grand"
)

// Platform describes one scoring integration: which columns of
// merchants_scores belong to it, which stats table it feeds, and how each
// submitted stats field merges into an existing period row.
type Platform struct {
	Name       string
	StatsTable string

	// merchants_scores columns
	ScoreColumn  string
	MetricColumn string
	SyncColumn   string

	// Grand carries a badge label instead of a churn rate.
	MetricIsBadge bool

	// Stats merge behavior. Fields outside both lists are dropped.
	AdditiveFields  []string
	OverwriteFields []string
}

var platforms = map[string]Platform{
	Shipway: {
		Name:         Shipway,
		StatsTable:   "data_shipway",
		ScoreColumn:  "loyalty_score_shipway",
		MetricColumn: "churn_rate_shipway",
		SyncColumn:   "sync_till_shipway",
		AdditiveFields: []string{
			"order_count", "billing_amount", "margin_amount", "services_amount",
			"delayed_orders", "undelivered_orders", "returned_orders", "complaint_count",
		},
		OverwriteFields: []string{
			"nps_score", "wallet_share", "average_resolution_tat",
		},
	},
	Unicommerce: {
		Name:         Unicommerce,
		StatsTable:   "data_unicommerce",
		ScoreColumn:  "loyalty_score_unicommerce",
		MetricColumn: "churn_rate_unicommerce",
		SyncColumn:   "sync_till_unicommerce",
		AdditiveFields: []string{
			"order_count", "billing_amount", "margin_amount", "services_amount",
			"complaint_count",
		},
		OverwriteFields: []string{
			"nps_score", "wallet_share", "average_resolution_tat",
		},
	},
	Convertway: {
		Name:         Convertway,
		StatsTable:   "data_convertway",
		ScoreColumn:  "loyalty_score_convertway",
		MetricColumn: "churn_rate_convertway",
		SyncColumn:   "sync_till_convertway",
		OverwriteFields: []string{
			"order_count", "billing_amount", "margin_amount", "services_amount",
			"complaint_count", "nps_score", "wallet_share", "average_resolution_tat",
		},
	},
	Grand: {
		Name:          Grand,
		ScoreColumn:   "grand_score",
		MetricColumn:  "grand_badge",
		SyncColumn:    "sync_till_grand",
		MetricIsBadge: true,
	},
}

// Get returns the platform definition for name.
func Get(name string) (Platform, error) {
	p, ok := platforms[name]
	if !ok {
		return Platform{}, fmt.Errorf("unknown platform: %s", name)
	}
	return p, nil
}

// Integrations returns the three partner platforms, excluding the grand
// aggregate (which has no stats table of its own).
func Integrations() []Platform {
	return []Platform{platforms[Shipway], platforms[Convertway], platforms[Unicommerce]}
}

// All returns every platform including the grand aggregate.
func All() []Platform {
	return []Platform{platforms[Shipway], platforms[Convertway], platforms[Unicommerce], platforms[Grand]}
}

// MergeKind classifies how a submitted stats field merges into an existing
// row for this platform.
type MergeKind int

const (
	MergeDrop MergeKind = iota
	MergeAdd
	MergeOverwrite
)

// Classify returns the merge behavior for a submitted field name.
func (p Platform) Classify(field string) MergeKind {
	for _, f := range p.AdditiveFields {
		if f == field {
			return MergeAdd
		}
	}
	for _, f := range p.OverwriteFields {
		if f == field {
			return MergeOverwrite
		}
	}
	return MergeDrop
}

// StatsColumns returns every accepted stats column for the platform,
// additive first, in declaration order.
func (p Platform) StatsColumns() []string {
	cols := make([]string, 0, len(p.AdditiveFields)+len(p.OverwriteFields))
	cols = append(cols, p.AdditiveFields...)
	cols = append(cols, p.OverwriteFields...)
	return cols
}
