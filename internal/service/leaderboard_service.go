package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/platform"
	"loyalty-service/internal/util"

	"go.uber.org/zap"
)

// LeaderboardStore is the persistence surface for ranking queries.
type LeaderboardStore interface {
	RankedScores(ctx context.Context, p platform.Platform, limit int) ([]models.LeaderboardRow, error)
	BandScores(ctx context.Context, p platform.Platform, minScore, maxScore, minChurn float64, limit int) ([]models.LeaderboardRow, error)
	GetStatsTotals(ctx context.Context, p platform.Platform, merchantID string) (*models.StatsTotals, error)
}

// Cache is a byte-level read-through cache. Get returns (nil, nil) on a
// miss; errors degrade to the database, never fail the request.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// querySpec holds the fixed parameters of one ranking endpoint.
type querySpec struct {
	limit    int
	minScore float64
	maxScore float64
	minChurn float64
}

var (
	topGrandSpec     = querySpec{limit: 50}
	highChurnSpec    = querySpec{limit: 10}
	atRiskSpec       = querySpec{limit: 10, minScore: 20, maxScore: 40, minChurn: 40}
	topMerchantsSpec = querySpec{limit: 5}
)

// LeaderboardService serves the ranked and band-filtered score queries,
// caching each endpoint's result set in Redis for a short TTL.
type LeaderboardService struct {
	store    LeaderboardStore
	cache    Cache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewLeaderboardService creates a new leaderboard service. cache may be
// nil, in which case every read hits the database.
func NewLeaderboardService(store LeaderboardStore, cache Cache, cacheTTL time.Duration) *LeaderboardService {
	return &LeaderboardService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// TopGrand returns the top merchants by grand score with their badges.
func (s *LeaderboardService) TopGrand(ctx context.Context) ([]map[string]interface{}, error) {
	return s.cached(ctx, "leaderboard:top-grand", func(ctx context.Context) ([]map[string]interface{}, error) {
		p, _ := platform.Get(platform.Grand)
		rows, err := s.store.RankedScores(ctx, p, topGrandSpec.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query grand leaderboard: %w", err)
		}

		out := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			out = append(out, map[string]interface{}{
				"merchant_id": row.MerchantID,
				"grand_score": nullFloat(row.Score),
				"grand_badge": nullString(row.Badge),
			})
		}
		return out, nil
	})
}

// HighLoyaltyChurn returns the top merchants by a platform's loyalty
// score, churn rate as tiebreaker.
func (s *LeaderboardService) HighLoyaltyChurn(ctx context.Context, platformName string) ([]map[string]interface{}, error) {
	p, err := platform.Get(platformName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := fmt.Sprintf("leaderboard:high-loyalty-churn:%s", p.Name)
	return s.cached(ctx, key, func(ctx context.Context) ([]map[string]interface{}, error) {
		rows, err := s.store.RankedScores(ctx, p, highChurnSpec.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s leaderboard: %w", p.Name, err)
		}
		return scoreChurnRows(p, rows), nil
	})
}

// AverageLoyaltyHighChurn returns at-risk merchants: mid-band loyalty
// score with churn above the threshold, highest churn first.
func (s *LeaderboardService) AverageLoyaltyHighChurn(ctx context.Context, platformName string) ([]map[string]interface{}, error) {
	p, err := platform.Get(platformName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := fmt.Sprintf("leaderboard:average-loyalty-high-churn:%s", p.Name)
	return s.cached(ctx, key, func(ctx context.Context) ([]map[string]interface{}, error) {
		rows, err := s.store.BandScores(ctx, p,
			atRiskSpec.minScore, atRiskSpec.maxScore, atRiskSpec.minChurn, atRiskSpec.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s at-risk merchants: %w", p.Name, err)
		}
		return scoreChurnRows(p, rows), nil
	})
}

// TopMerchants returns the platform's top merchants by loyalty score, each
// enriched with lifetime order and billing totals from the stats table.
func (s *LeaderboardService) TopMerchants(ctx context.Context, platformName string) ([]map[string]interface{}, error) {
	p, err := platform.Get(platformName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := fmt.Sprintf("leaderboard:top-merchants:%s", p.Name)
	return s.cached(ctx, key, func(ctx context.Context) ([]map[string]interface{}, error) {
		rows, err := s.store.RankedScores(ctx, p, topMerchantsSpec.limit)
		if err != nil {
			return nil, fmt.Errorf("failed to query top %s merchants: %w", p.Name, err)
		}

		out := make([]map[string]interface{}, 0, len(rows))
		for _, row := range rows {
			totals, err := s.store.GetStatsTotals(ctx, p, row.MerchantID)
			if err != nil {
				return nil, fmt.Errorf("failed to sum stats for merchant %s: %w", row.MerchantID, err)
			}

			out = append(out, map[string]interface{}{
				"merchant_id":   row.MerchantID,
				p.ScoreColumn:   nullFloat(row.Score),
				"total_orders":  totals.TotalOrders.Float64,
				"total_billing": totals.TotalBilling.Float64,
			})
		}
		return out, nil
	})
}

// cached wraps a query with the read-through cache.
func (s *LeaderboardService) cached(ctx context.Context, key string, query func(context.Context) ([]map[string]interface{}, error)) ([]map[string]interface{}, error) {
	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("Leaderboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if data != nil {
			var rows []map[string]interface{}
			if err := json.Unmarshal(data, &rows); err == nil {
				util.LeaderboardCacheHits.Inc()
				return rows, nil
			}
		}
		util.LeaderboardCacheMisses.Inc()
	}

	rows, err := query(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(rows); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.logger.Warn("Leaderboard cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return rows, nil
}

func scoreChurnRows(p platform.Platform, rows []models.LeaderboardRow) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]interface{}{
			"merchant_id":  row.MerchantID,
			p.ScoreColumn:  nullFloat(row.Score),
			p.MetricColumn: nullFloat(row.Churn),
		})
	}
	return out
}

func nullFloat(v sql.NullFloat64) interface{} {
	if v.Valid {
		return v.Float64
	}
	return nil
}

func nullString(v sql.NullString) interface{} {
	if v.Valid {
		return v.String
	}
	return nil
}
