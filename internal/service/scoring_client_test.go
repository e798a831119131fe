package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformScoreOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loyalty-score", r.URL.Path)
		assert.Equal(t, "m1@shop.example", r.URL.Query().Get("email"))
		assert.Equal(t, "shipway", r.URL.Query().Get("platform"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"m1@shop.example","merchant_id":"M1","platform":"shipway","loyalty_score":65.2,"merchant_churn_rate":22.4,"weighted_score":78.2}`))
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	score, err := client.PlatformScore(context.Background(), "m1@shop.example", "shipway")
	require.NoError(t, err)

	assert.Equal(t, 65.2, score.Score)
	assert.Equal(t, 22.4, score.ChurnRate)
}

func TestPlatformScoreMissingFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"merchant_churn_rate":22.4}`))
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	_, err := client.PlatformScore(context.Background(), "m1@shop.example", "shipway")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestPlatformScoreMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	_, err := client.PlatformScore(context.Background(), "m1@shop.example", "shipway")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestPlatformScoreNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	_, err := client.PlatformScore(context.Background(), "m1@shop.example", "shipway")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestPlatformScoreTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 20*time.Millisecond)
	_, err := client.PlatformScore(context.Background(), "m1@shop.example", "shipway")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGrandScoreOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/loyalty-score/multi-platform", r.URL.Path)
		w.Write([]byte(`{"email":"m1@shop.example","grand_loyalty_score":55.0,"grand_badge":"platinum"}`))
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	score, err := client.GrandScore(context.Background(), "m1@shop.example")
	require.NoError(t, err)

	assert.Equal(t, 55.0, score.Score)
	assert.Equal(t, "platinum", score.Badge)
}

func TestGrandScoreMissingBadge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"grand_loyalty_score":55.0}`))
	}))
	defer srv.Close()

	client := NewScoringClient(srv.URL, 2*time.Second)
	_, err := client.GrandScore(context.Background(), "m1@shop.example")
	assert.ErrorIs(t, err, ErrUpstream)
}
