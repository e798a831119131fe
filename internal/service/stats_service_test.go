package service

import (
	"context"
	"testing"

	"loyalty-service/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsCall struct {
	platform   platform.Platform
	merchantID string
	fields     map[string]float64
}

type fakeStatsStore struct {
	calls    []statsCall
	inserted bool
	err      error
}

func (f *fakeStatsStore) UpsertStats(ctx context.Context, p platform.Platform, merchantID, fromDate, tillDate string, fields map[string]float64) (bool, error) {
	f.calls = append(f.calls, statsCall{p, merchantID, fields})
	return f.inserted, f.err
}

func TestCleanFields(t *testing.T) {
	cleaned := CleanFields(map[string]interface{}{
		"order_count":    float64(10),
		"billing_amount": "1200.5",
		"nps_score":      nil,
		"wallet_share":   "",
		"notes":          "not a number",
	})

	assert.Equal(t, map[string]float64{
		"order_count":    10,
		"billing_amount": 1200.5,
	}, cleaned)
}

func TestUpsertRequiresKeys(t *testing.T) {
	svc := NewStatsService(&fakeStatsStore{}, nil)

	_, err := svc.Upsert(context.Background(), platform.Shipway, &StatsSubmission{
		MerchantID: "M1",
		FromDate:   "2025-05-01",
		Fields:     map[string]interface{}{"order_count": float64(1)},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpsertRequiresAtLeastOneField(t *testing.T) {
	svc := NewStatsService(&fakeStatsStore{}, nil)

	_, err := svc.Upsert(context.Background(), platform.Shipway, &StatsSubmission{
		MerchantID: "M1",
		FromDate:   "2025-05-01",
		TillDate:   "2025-05-31",
		Fields:     map[string]interface{}{"order_count": nil, "nps_score": ""},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpsertDropsUnknownFields(t *testing.T) {
	store := &fakeStatsStore{}
	svc := NewStatsService(store, nil)

	_, err := svc.Upsert(context.Background(), platform.Shipway, &StatsSubmission{
		MerchantID: "M1",
		FromDate:   "2025-05-01",
		TillDate:   "2025-05-31",
		Fields: map[string]interface{}{
			"order_count": float64(10),
			"warehouse":   float64(3),
		},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.Equal(t, map[string]float64{"order_count": 10}, store.calls[0].fields)
}

func TestUpsertAllFieldsUnknownIsValidationError(t *testing.T) {
	store := &fakeStatsStore{}
	svc := NewStatsService(store, nil)

	_, err := svc.Upsert(context.Background(), platform.Unicommerce, &StatsSubmission{
		MerchantID: "M1",
		FromDate:   "2025-05-01",
		TillDate:   "2025-05-31",
		// Shipway-only fields, not accepted by Unicommerce.
		Fields: map[string]interface{}{
			"delayed_orders":  float64(4),
			"returned_orders": float64(2),
		},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, store.calls)
}

func TestUpsertReportsInserted(t *testing.T) {
	store := &fakeStatsStore{inserted: true}
	svc := NewStatsService(store, nil)

	inserted, err := svc.Upsert(context.Background(), platform.Convertway, &StatsSubmission{
		MerchantID: "M1",
		FromDate:   "2025-05-01",
		TillDate:   "2025-05-31",
		Fields:     map[string]interface{}{"order_count": float64(10)},
	})
	require.NoError(t, err)
	assert.True(t, inserted)
}
