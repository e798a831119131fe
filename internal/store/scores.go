package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/platform"
)

// GetScoreRecord retrieves the merchants_scores row for a merchant.
// Returns (nil, nil) when the merchant has no score row yet.
func (s *Store) GetScoreRecord(ctx context.Context, merchantID string) (*models.ScoreRecord, error) {
	var rec models.ScoreRecord
	err := s.db.GetContext(ctx, &rec,
		"SELECT * FROM merchants_scores WHERE merchant_id = $1", merchantID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpsertScore writes a freshly resolved score back into merchants_scores
// with a new sync horizon, in a single statement. metric is the platform's
// churn rate (float64) or the grand badge (string). Column names come from
// the platform table, never from request input.
func (s *Store) UpsertScore(ctx context.Context, p platform.Platform, merchantID string, score float64, metric interface{}, syncTill time.Time) error {
	query := fmt.Sprintf(`
		INSERT INTO merchants_scores (merchant_id, %[1]s, %[2]s, %[3]s, updated_on)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (merchant_id) DO UPDATE SET
			%[1]s = EXCLUDED.%[1]s,
			%[2]s = EXCLUDED.%[2]s,
			%[3]s = EXCLUDED.%[3]s,
			updated_on = NOW()`,
		p.ScoreColumn, p.MetricColumn, p.SyncColumn)

	_, err := s.db.ExecContext(ctx, query, merchantID, score, metric, syncTill)
	if err != nil {
		return fmt.Errorf("failed to upsert %s score: %w", p.Name, err)
	}
	return nil
}

// GetScoreHistory retrieves the per-period score snapshots for one
// merchant and platform, oldest first, skipping periods where the
// platform's score is null.
func (s *Store) GetScoreHistory(ctx context.Context, p platform.Platform, merchantID string) ([]models.ScoreHistoryEntry, error) {
	query := fmt.Sprintf(`
		SELECT merchant_id, from_date, till_date, %[1]s AS score
		FROM merchants_scores_history
		WHERE merchant_id = $1 AND %[1]s IS NOT NULL
		ORDER BY from_date ASC`, p.ScoreColumn)

	var entries []models.ScoreHistoryEntry
	err := s.db.SelectContext(ctx, &entries, query, merchantID)
	return entries, err
}

// RankedScores retrieves the top merchants by a platform's score, highest
// first, with the secondary metric as tiebreaker. Rows with a null score
// or metric are excluded.
func (s *Store) RankedScores(ctx context.Context, p platform.Platform, limit int) ([]models.LeaderboardRow, error) {
	var query string
	if p.MetricIsBadge {
		query = fmt.Sprintf(`
			SELECT merchant_id, %[1]s AS score, %[2]s AS badge
			FROM merchants_scores
			WHERE %[1]s IS NOT NULL
			ORDER BY %[1]s DESC
			LIMIT $1`, p.ScoreColumn, p.MetricColumn)
	} else {
		query = fmt.Sprintf(`
			SELECT merchant_id, %[1]s AS score, %[2]s AS churn
			FROM merchants_scores
			WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
			ORDER BY %[1]s DESC, %[2]s DESC
			LIMIT $1`, p.ScoreColumn, p.MetricColumn)
	}

	var rows []models.LeaderboardRow
	err := s.db.SelectContext(ctx, &rows, query, limit)
	return rows, err
}

// BandScores retrieves merchants whose score falls inside [minScore,
// maxScore] with churn above minChurn, highest churn first.
func (s *Store) BandScores(ctx context.Context, p platform.Platform, minScore, maxScore, minChurn float64, limit int) ([]models.LeaderboardRow, error) {
	query := fmt.Sprintf(`
		SELECT merchant_id, %[1]s AS score, %[2]s AS churn
		FROM merchants_scores
		WHERE %[1]s BETWEEN $1 AND $2 AND %[2]s > $3
		ORDER BY %[2]s DESC
		LIMIT $4`, p.ScoreColumn, p.MetricColumn)

	var rows []models.LeaderboardRow
	err := s.db.SelectContext(ctx, &rows, query, minScore, maxScore, minChurn, limit)
	return rows, err
}

// GetStatsTotals sums a merchant's orders and billing across every period
// in the platform's stats table.
func (s *Store) GetStatsTotals(ctx context.Context, p platform.Platform, merchantID string) (*models.StatsTotals, error) {
	query := fmt.Sprintf(`
		SELECT SUM(order_count) AS total_orders, SUM(billing_amount) AS total_billing
		FROM %s WHERE merchant_id = $1`, p.StatsTable)

	var totals models.StatsTotals
	if err := s.db.GetContext(ctx, &totals, query, merchantID); err != nil {
		return nil, err
	}
	return &totals, nil
}
