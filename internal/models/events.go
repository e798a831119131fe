package models

import "time"

// Event types
const (
	EventTypeStatsUpdated   = "STATS_UPDATED"
	EventTypeScoreRefreshed = "SCORE_REFRESHED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StatsUpdatedEvent published after a stats submission is merged into a
// platform's period row
type StatsUpdatedEvent struct {
	BaseEvent
	Platform   string   `json:"platform"`
	MerchantID string   `json:"merchant_id"`
	FromDate   string   `json:"from_date"`
	TillDate   string   `json:"till_date"`
	Fields     []string `json:"fields"`
	Inserted   bool     `json:"inserted"`
}

// ScoreRefreshedEvent published after the resolver fetches and stores a
// fresh score from the remote scoring service
type ScoreRefreshedEvent struct {
	BaseEvent
	Platform   string  `json:"platform"`
	MerchantID string  `json:"merchant_id"`
	Score      float64 `json:"score"`
	SyncTill   string  `json:"sync_till"`
}
