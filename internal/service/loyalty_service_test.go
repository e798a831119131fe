package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"loyalty-service/internal/models"
	"loyalty-service/internal/platform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upsertCall struct {
	platform   platform.Platform
	merchantID string
	score      float64
	metric     interface{}
	syncTill   time.Time
}

type fakeScoreStore struct {
	merchant  *models.Merchant
	record    *models.ScoreRecord
	history   []models.ScoreHistoryEntry
	upserts   []upsertCall
	upsertErr error
}

func (f *fakeScoreStore) GetMerchantByEmail(ctx context.Context, email string) (*models.Merchant, error) {
	return f.merchant, nil
}

func (f *fakeScoreStore) GetScoreRecord(ctx context.Context, merchantID string) (*models.ScoreRecord, error) {
	return f.record, nil
}

func (f *fakeScoreStore) UpsertScore(ctx context.Context, p platform.Platform, merchantID string, score float64, metric interface{}, syncTill time.Time) error {
	f.upserts = append(f.upserts, upsertCall{p, merchantID, score, metric, syncTill})
	return f.upsertErr
}

func (f *fakeScoreStore) GetScoreHistory(ctx context.Context, p platform.Platform, merchantID string) ([]models.ScoreHistoryEntry, error) {
	return f.history, nil
}

type fakeScorer struct {
	result *RemoteScore
	err    error
	calls  int
}

func (f *fakeScorer) PlatformScore(ctx context.Context, email, platformName string) (*RemoteScore, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeScorer) GrandScore(ctx context.Context, email string) (*RemoteScore, error) {
	f.calls++
	return f.result, f.err
}

func newTestService(store *fakeScoreStore, scorer *fakeScorer) *LoyaltyService {
	svc := NewLoyaltyService(store, scorer, nil, 24*time.Hour)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func testMerchant() *models.Merchant {
	return &models.Merchant{MerchantID: "M1", Email: "m1@shop.example"}
}

func TestResolveFreshRecordNeverCallsRemote(t *testing.T) {
	store := &fakeScoreStore{
		merchant: testMerchant(),
		record: &models.ScoreRecord{
			MerchantID:          "M1",
			LoyaltyScoreShipway: sql.NullFloat64{Float64: 72.5, Valid: true},
			ChurnRateShipway:    sql.NullFloat64{Float64: 12.1, Valid: true},
			SyncTillShipway:     sql.NullTime{Time: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		},
	}
	scorer := &fakeScorer{}
	svc := newTestService(store, scorer)

	resolved, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Shipway)
	require.NoError(t, err)

	assert.Equal(t, models.ScoreSourceStored, resolved.Source)
	assert.Equal(t, 72.5, resolved.Score)
	assert.Equal(t, 12.1, resolved.ChurnRate)
	assert.Equal(t, "M1", resolved.MerchantID)
	assert.Zero(t, scorer.calls)
	assert.Empty(t, store.upserts)
}

func TestResolveStaleRecordCallsRemoteOnce(t *testing.T) {
	store := &fakeScoreStore{
		merchant: testMerchant(),
		record: &models.ScoreRecord{
			MerchantID:          "M1",
			LoyaltyScoreShipway: sql.NullFloat64{Float64: 72.5, Valid: true},
			ChurnRateShipway:    sql.NullFloat64{Float64: 12.1, Valid: true},
			SyncTillShipway:     sql.NullTime{Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		},
	}
	scorer := &fakeScorer{result: &RemoteScore{Score: 65.0, ChurnRate: 22.4}}
	svc := newTestService(store, scorer)

	resolved, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Shipway)
	require.NoError(t, err)

	assert.Equal(t, models.ScoreSourceRemote, resolved.Source)
	assert.Equal(t, 65.0, resolved.Score)
	assert.Equal(t, 22.4, resolved.ChurnRate)
	assert.Equal(t, 1, scorer.calls)
}

func TestResolveMissingRecordCallsRemote(t *testing.T) {
	store := &fakeScoreStore{merchant: testMerchant()}
	scorer := &fakeScorer{result: &RemoteScore{Score: 30, ChurnRate: 45}}
	svc := newTestService(store, scorer)

	resolved, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Convertway)
	require.NoError(t, err)
	assert.Equal(t, models.ScoreSourceRemote, resolved.Source)
	assert.Equal(t, 1, scorer.calls)
}

func TestResolveWritesBackWithFutureHorizon(t *testing.T) {
	store := &fakeScoreStore{merchant: testMerchant()}
	scorer := &fakeScorer{result: &RemoteScore{Score: 65.0, ChurnRate: 22.4}}
	svc := newTestService(store, scorer)

	_, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Shipway)
	require.NoError(t, err)

	require.Len(t, store.upserts, 1)
	call := store.upserts[0]
	assert.Equal(t, "M1", call.merchantID)
	assert.Equal(t, 65.0, call.score)
	assert.Equal(t, 22.4, call.metric)
	assert.True(t, call.syncTill.After(svc.now()))
	assert.Equal(t, svc.now().Add(24*time.Hour), call.syncTill)
}

func TestResolveGrandWritesBadge(t *testing.T) {
	store := &fakeScoreStore{merchant: testMerchant()}
	scorer := &fakeScorer{result: &RemoteScore{Score: 55, Badge: "platinum"}}
	svc := newTestService(store, scorer)

	resolved, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Grand)
	require.NoError(t, err)

	assert.Equal(t, "platinum", resolved.Badge)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "platinum", store.upserts[0].metric)
}

func TestResolveWriteBackFailureStillReturnsRemote(t *testing.T) {
	store := &fakeScoreStore{
		merchant:  testMerchant(),
		upsertErr: errors.New("connection reset"),
	}
	scorer := &fakeScorer{result: &RemoteScore{Score: 40, ChurnRate: 30}}
	svc := newTestService(store, scorer)

	resolved, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Shipway)
	require.NoError(t, err)
	assert.Equal(t, models.ScoreSourceRemote, resolved.Source)
}

func TestResolveUpstreamError(t *testing.T) {
	store := &fakeScoreStore{merchant: testMerchant()}
	scorer := &fakeScorer{err: ErrUpstream}
	svc := newTestService(store, scorer)

	_, err := svc.Resolve(context.Background(), "m1@shop.example", platform.Shipway)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestResolveUnknownMerchant(t *testing.T) {
	store := &fakeScoreStore{}
	scorer := &fakeScorer{}
	svc := newTestService(store, scorer)

	_, err := svc.Resolve(context.Background(), "unknown@x.com", platform.Shipway)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, scorer.calls)
}

func TestResolveUnknownPlatform(t *testing.T) {
	svc := newTestService(&fakeScoreStore{merchant: testMerchant()}, &fakeScorer{})

	_, err := svc.Resolve(context.Background(), "m1@shop.example", "magento")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHistoryAnnotatesMonthAndYear(t *testing.T) {
	store := &fakeScoreStore{
		merchant: testMerchant(),
		history: []models.ScoreHistoryEntry{
			{
				MerchantID: "M1",
				FromDate:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
				TillDate:   time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
				Score:      sql.NullFloat64{Float64: 61, Valid: true},
			},
			{
				MerchantID: "M1",
				FromDate:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
				TillDate:   time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC),
				Score:      sql.NullFloat64{Float64: 64, Valid: true},
			},
		},
	}
	svc := newTestService(store, &fakeScorer{})

	merchantID, entries, err := svc.History(context.Background(), "m1@shop.example", platform.Shipway)
	require.NoError(t, err)

	assert.Equal(t, "M1", merchantID)
	require.Len(t, entries, 2)
	assert.Equal(t, "April", entries[0].Month)
	assert.Equal(t, 2025, entries[0].Year)
	assert.Equal(t, "May", entries[1].Month)
	assert.Equal(t, float64(64), entries[1].Score)
}

func TestHistoryEmptyIsNotFound(t *testing.T) {
	svc := newTestService(&fakeScoreStore{merchant: testMerchant()}, &fakeScorer{})

	_, _, err := svc.History(context.Background(), "m1@shop.example", platform.Shipway)
	assert.ErrorIs(t, err, ErrNotFound)
}
