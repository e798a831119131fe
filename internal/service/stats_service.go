package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/platform"
	"loyalty-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StatsStore is the persistence surface the upserter needs.
type StatsStore interface {
	UpsertStats(ctx context.Context, p platform.Platform, merchantID, fromDate, tillDate string, fields map[string]float64) (bool, error)
}

// StatsService merges periodic merchant performance submissions into
// per-period rows. All per-platform differences (which fields are accepted
// and whether they accumulate or overwrite) come from the platform table.
type StatsService struct {
	store  StatsStore
	events EventSink
	logger *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore, events EventSink) *StatsService {
	return &StatsService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// StatsSubmission is one raw stats payload. Fields holds everything in the
// body besides the three key fields, values still untyped.
type StatsSubmission struct {
	MerchantID string
	FromDate   string
	TillDate   string
	Fields     map[string]interface{}
}

// Upsert validates, cleans, and merges one submission. Returns true when a
// new period row was created rather than an existing one updated.
func (s *StatsService) Upsert(ctx context.Context, platformName string, sub *StatsSubmission) (bool, error) {
	ctx, span := util.StartSpan(ctx, "StatsService.Upsert")
	defer span.End()

	p, err := platform.Get(platformName)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if sub.MerchantID == "" || sub.FromDate == "" || sub.TillDate == "" {
		return false, fmt.Errorf("%w: merchant_id, from_date, and till_date are required", ErrValidation)
	}

	cleaned := CleanFields(sub.Fields)
	if len(cleaned) == 0 {
		return false, fmt.Errorf("%w: at least one additional field with a non-empty value is required", ErrValidation)
	}

	accepted := make(map[string]float64, len(cleaned))
	for name, value := range cleaned {
		if p.Classify(name) != platform.MergeDrop {
			accepted[name] = value
		}
	}
	if len(accepted) == 0 {
		return false, fmt.Errorf("%w: no valid fields to update", ErrValidation)
	}

	inserted, err := s.store.UpsertStats(ctx, p, sub.MerchantID, sub.FromDate, sub.TillDate, accepted)
	if err != nil {
		util.StatsUpsertsTotal.WithLabelValues(p.Name, "error").Inc()
		return false, err
	}

	result := "updated"
	if inserted {
		result = "inserted"
	}
	util.StatsUpsertsTotal.WithLabelValues(p.Name, result).Inc()

	s.logger.Info("Stats merged",
		zap.String("platform", p.Name),
		zap.String("merchant_id", sub.MerchantID),
		zap.String("from_date", sub.FromDate),
		zap.String("till_date", sub.TillDate),
		zap.Int("fields", len(accepted)),
		zap.Bool("inserted", inserted))

	s.publishStatsUpdated(ctx, p, sub, accepted, inserted)

	return inserted, nil
}

func (s *StatsService) publishStatsUpdated(ctx context.Context, p platform.Platform, sub *StatsSubmission, fields map[string]float64, inserted bool) {
	if s.events == nil {
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	event := &models.StatsUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStatsUpdated,
			Timestamp: time.Now(),
		},
		Platform:   p.Name,
		MerchantID: sub.MerchantID,
		FromDate:   sub.FromDate,
		TillDate:   sub.TillDate,
		Fields:     names,
		Inserted:   inserted,
	}

	if err := s.events.PublishStatsUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish StatsUpdated event", zap.Error(err))
	}
}

// CleanFields drops fields whose value is null or an empty string and
// coerces the rest to numbers. Values that cannot be read as a number are
// dropped rather than written.
func CleanFields(fields map[string]interface{}) map[string]float64 {
	cleaned := make(map[string]float64, len(fields))
	for name, value := range fields {
		switch v := value.(type) {
		case float64:
			cleaned[name] = v
		case int:
			cleaned[name] = float64(v)
		case int64:
			cleaned[name] = float64(v)
		case string:
			if v == "" {
				continue
			}
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				cleaned[name] = parsed
			}
		}
	}
	return cleaned
}
