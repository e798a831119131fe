package service

import (
	"context"
	"fmt"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/platform"
	"loyalty-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScoreStore is the persistence surface the resolver needs.
type ScoreStore interface {
	GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error)
	GetScoreRecord(ctx context.Context, merchantID string) (*models.ScoreRecord, error)
	UpsertScore(ctx context.Context, p platform.Platform, merchantID string, score float64, metric interface{}, syncTill time.Time) error
	GetScoreHistory(ctx context.Context, p platform.Platform, merchantID string) ([]models.ScoreHistoryEntry, error)
}

// Scorer is the remote scoring collaborator.
type Scorer interface {
	PlatformScore(ctx context.Context, email, platformName string) (*RemoteScore, error)
	GrandScore(ctx context.Context, email string) (*RemoteScore, error)
}

// EventSink publishes domain events. Publishing is best-effort; failures
// are logged, never surfaced to the caller.
type EventSink interface {
	PublishScoreRefreshed(ctx context.Context, event *models.ScoreRefreshedEvent) error
	PublishStatsUpdated(ctx context.Context, event *models.StatsUpdatedEvent) error
}

// LoyaltyService resolves merchant loyalty scores, preferring a stored
// value whose sync horizon has not passed and falling back to the remote
// scoring service.
type LoyaltyService struct {
	store   ScoreStore
	scorer  Scorer
	events  EventSink
	syncTTL time.Duration
	logger  *zap.Logger

	// test seam
	now func() time.Time
}

// NewLoyaltyService creates a new loyalty service. syncTTL is the validity
// horizon written back after a remote recompute.
func NewLoyaltyService(store ScoreStore, scorer Scorer, events EventSink, syncTTL time.Duration) *LoyaltyService {
	return &LoyaltyService{
		store:   store,
		scorer:  scorer,
		events:  events,
		syncTTL: syncTTL,
		logger:  util.GetLogger(),
		now:     time.Now,
	}
}

// ResolvedScore is the outcome of a score resolution.
type ResolvedScore struct {
	MerchantID string
	Platform   platform.Platform
	Score      float64
	ChurnRate  float64
	Badge      string
	Source     string
}

// Resolve returns the loyalty score and secondary metric for a merchant on
// one platform (or the grand aggregate). A stored value is served as long
// as its sync horizon is at or after now; otherwise the remote scoring
// service is called exactly once and its result is written back with a new
// horizon so the staleness window is not re-hit on every request.
func (s *LoyaltyService) Resolve(ctx context.Context, email, platformName string) (*ResolvedScore, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.Resolve")
	defer span.End()

	p, err := platform.Get(platformName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	merchant, err := s.store.GetMerchantByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up merchant: %w", err)
	}
	if merchant == nil {
		return nil, fmt.Errorf("%w: no merchant for email", ErrNotFound)
	}

	record, err := s.store.GetScoreRecord(ctx, merchant.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read score record: %w", err)
	}

	now := s.now()
	if record != nil {
		score, churn, badge, syncTill := record.PlatformScore(p.Name)
		if score.Valid && syncTill.Valid && !syncTill.Time.Before(now) {
			util.ScoresResolvedTotal.WithLabelValues(p.Name, models.ScoreSourceStored).Inc()
			return &ResolvedScore{
				MerchantID: merchant.MerchantID,
				Platform:   p,
				Score:      score.Float64,
				ChurnRate:  churn.Float64,
				Badge:      badge.String,
				Source:     models.ScoreSourceStored,
			}, nil
		}
	}

	remote, err := s.refreshFromRemote(ctx, p, merchant, email)
	if err != nil {
		util.ScoreResolveFailures.WithLabelValues(p.Name).Inc()
		return nil, err
	}

	util.ScoresResolvedTotal.WithLabelValues(p.Name, models.ScoreSourceRemote).Inc()
	return remote, nil
}

func (s *LoyaltyService) refreshFromRemote(ctx context.Context, p platform.Platform, merchant *models.Merchant, email string) (*ResolvedScore, error) {
	var remote *RemoteScore
	var err error
	if p.Name == platform.Grand {
		remote, err = s.scorer.GrandScore(ctx, email)
	} else {
		remote, err = s.scorer.PlatformScore(ctx, email, p.Name)
	}
	if err != nil {
		return nil, err
	}

	syncTill := s.now().Add(s.syncTTL)

	var metric interface{}
	if p.MetricIsBadge {
		metric = remote.Badge
	} else {
		metric = remote.ChurnRate
	}

	// Write-back is best-effort: the caller already has a valid remote
	// score, so a storage hiccup only costs cache freshness.
	if err := s.store.UpsertScore(ctx, p, merchant.MerchantID, remote.Score, metric, syncTill); err != nil {
		s.logger.Error("Failed to write back remote score",
			zap.String("merchant_id", merchant.MerchantID),
			zap.String("platform", p.Name),
			zap.Error(err))
	} else {
		s.publishScoreRefreshed(ctx, p, merchant.MerchantID, remote.Score, syncTill)
	}

	return &ResolvedScore{
		MerchantID: merchant.MerchantID,
		Platform:   p,
		Score:      remote.Score,
		ChurnRate:  remote.ChurnRate,
		Badge:      remote.Badge,
		Source:     models.ScoreSourceRemote,
	}, nil
}

func (s *LoyaltyService) publishScoreRefreshed(ctx context.Context, p platform.Platform, merchantID string, score float64, syncTill time.Time) {
	if s.events == nil {
		return
	}

	event := &models.ScoreRefreshedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeScoreRefreshed,
			Timestamp: s.now(),
		},
		Platform:   p.Name,
		MerchantID: merchantID,
		Score:      score,
		SyncTill:   syncTill.Format(time.RFC3339),
	}

	if err := s.events.PublishScoreRefreshed(ctx, event); err != nil {
		s.logger.Error("Failed to publish ScoreRefreshed event", zap.Error(err))
	}
}

// HistoryEntry is one annotated score history row.
type HistoryEntry struct {
	MerchantID string    `json:"merchant_id"`
	FromDate   time.Time `json:"from_date"`
	TillDate   time.Time `json:"till_date"`
	Score      float64   `json:"-"`
	Month      string    `json:"month"`
	Year       int       `json:"year"`
}

// History returns a merchant's per-period score snapshots for one
// platform, oldest first, each annotated with the month name and year of
// its from_date.
func (s *LoyaltyService) History(ctx context.Context, email, platformName string) (string, []HistoryEntry, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.History")
	defer span.End()

	p, err := platform.Get(platformName)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	merchant, err := s.store.GetMerchantByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up merchant: %w", err)
	}
	if merchant == nil {
		return "", nil, fmt.Errorf("%w: no merchant for email", ErrNotFound)
	}

	rows, err := s.store.GetScoreHistory(ctx, p, merchant.MerchantID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read score history: %w", err)
	}
	if len(rows) == 0 {
		return "", nil, fmt.Errorf("%w: no score history for merchant", ErrNotFound)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			MerchantID: row.MerchantID,
			FromDate:   row.FromDate,
			TillDate:   row.TillDate,
			Score:      row.Score.Float64,
			Month:      row.FromDate.Month().String(),
			Year:       row.FromDate.Year(),
		})
	}

	return merchant.MerchantID, entries, nil
}
