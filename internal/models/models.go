package models

import (
	"database/sql"
	"time"
)

// User represents an internal dashboard user
type User struct {
	UserID   int64  `db:"user_id" json:"user_id"`
	Email    string `db:"email" json:"email"`
	Name     string `db:"name" json:"name"`
	Password string `db:"password" json:"-"`
}

// Merchant represents a merchant account
type Merchant struct {
	MerchantID    string `db:"merchant_id" json:"merchant_id"`
	Email         string `db:"email" json:"email"`
	Password      string `db:"password" json:"-"`
	IsShipway     bool   `db:"is_shipway" json:"is_shipway"`
	IsConvertway  bool   `db:"is_convertway" json:"is_convertway"`
	IsUnicommerce bool   `db:"is_unicommerce" json:"is_unicommerce"`
}

// ScoreRecord is the single merchants_scores row for a merchant, holding
// the per-platform scores plus the grand aggregate
type ScoreRecord struct {
	MerchantID string `db:"merchant_id" json:"merchant_id"`

	LoyaltyScoreShipway sql.NullFloat64 `db:"loyalty_score_shipway" json:"loyalty_score_shipway"`
	ChurnRateShipway    sql.NullFloat64 `db:"churn_rate_shipway" json:"churn_rate_shipway"`
	SyncTillShipway     sql.NullTime    `db:"sync_till_shipway" json:"-"`

	LoyaltyScoreConvertway sql.NullFloat64 `db:"loyalty_score_convertway" json:"loyalty_score_convertway"`
	ChurnRateConvertway    sql.NullFloat64 `db:"churn_rate_convertway" json:"churn_rate_convertway"`
	SyncTillConvertway     sql.NullTime    `db:"sync_till_convertway" json:"-"`

	LoyaltyScoreUnicommerce sql.NullFloat64 `db:"loyalty_score_unicommerce" json:"loyalty_score_unicommerce"`
	ChurnRateUnicommerce    sql.NullFloat64 `db:"churn_rate_unicommerce" json:"churn_rate_unicommerce"`
	SyncTillUnicommerce     sql.NullTime    `db:"sync_till_unicommerce" json:"-"`

	GrandScore    sql.NullFloat64 `db:"grand_score" json:"grand_score"`
	GrandBadge    sql.NullString  `db:"grand_badge" json:"grand_badge"`
	SyncTillGrand sql.NullTime    `db:"sync_till_grand" json:"-"`

	UpdatedOn sql.NullTime `db:"updated_on" json:"-"`
}

// PlatformScore picks out one platform's slice of a ScoreRecord. For the
// grand aggregate Badge is set instead of ChurnRate.
func (r *ScoreRecord) PlatformScore(name string) (score, churn sql.NullFloat64, badge sql.NullString, syncTill sql.NullTime) {
	switch name {
	case "shipway":
		return r.LoyaltyScoreShipway, r.ChurnRateShipway, sql.NullString{}, r.SyncTillShipway
	case "convertway":
		return r.LoyaltyScoreConvertway, r.ChurnRateConvertway, sql.NullString{}, r.SyncTillConvertway
	case "unicommerce":
		return r.LoyaltyScoreUnicommerce, r.ChurnRateUnicommerce, sql.NullString{}, r.SyncTillUnicommerce
	case "grand":
		return r.GrandScore, sql.NullFloat64{}, r.GrandBadge, r.SyncTillGrand
	}
	return
}

// ScoreHistoryEntry is one merchants_scores_history row for one platform
type ScoreHistoryEntry struct {
	MerchantID string          `db:"merchant_id" json:"merchant_id"`
	FromDate   time.Time       `db:"from_date" json:"from_date"`
	TillDate   time.Time       `db:"till_date" json:"till_date"`
	Score      sql.NullFloat64 `db:"score" json:"-"`
}

// StatsPeriod is one row of a data_{platform} table
type StatsPeriod struct {
	MerchantID string `db:"merchant_id" json:"merchant_id"`
	FromDate   string `db:"from_date" json:"from_date"`
	TillDate   string `db:"till_date" json:"till_date"`

	OrderCount        sql.NullFloat64 `db:"order_count" json:"order_count"`
	BillingAmount     sql.NullFloat64 `db:"billing_amount" json:"billing_amount"`
	MarginAmount      sql.NullFloat64 `db:"margin_amount" json:"margin_amount"`
	ServicesAmount    sql.NullFloat64 `db:"services_amount" json:"services_amount"`
	DelayedOrders     sql.NullFloat64 `db:"delayed_orders" json:"delayed_orders"`
	UndeliveredOrders sql.NullFloat64 `db:"undelivered_orders" json:"undelivered_orders"`
	ReturnedOrders    sql.NullFloat64 `db:"returned_orders" json:"returned_orders"`
	ComplaintCount    sql.NullFloat64 `db:"complaint_count" json:"complaint_count"`

	NpsScore             sql.NullFloat64 `db:"nps_score" json:"nps_score"`
	WalletShare          sql.NullFloat64 `db:"wallet_share" json:"wallet_share"`
	AverageResolutionTat sql.NullFloat64 `db:"average_resolution_tat" json:"average_resolution_tat"`
}

// LeaderboardRow is one ranked merchants_scores row. Score holds the
// platform's loyalty score; Churn or Badge holds the secondary metric.
type LeaderboardRow struct {
	MerchantID string          `db:"merchant_id" json:"merchant_id"`
	Score      sql.NullFloat64 `db:"score" json:"-"`
	Churn      sql.NullFloat64 `db:"churn" json:"-"`
	Badge      sql.NullString  `db:"badge" json:"-"`

	// Populated only for top-merchants queries.
	TotalOrders  float64 `db:"-" json:"-"`
	TotalBilling float64 `db:"-" json:"-"`
}

// StatsTotals aggregates a merchant's stats table across all periods
type StatsTotals struct {
	TotalOrders  sql.NullFloat64 `db:"total_orders"`
	TotalBilling sql.NullFloat64 `db:"total_billing"`
}

// Score sources
const (
	ScoreSourceStored = "stored"
	ScoreSourceRemote = "remote"
)
