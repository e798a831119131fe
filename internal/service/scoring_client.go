package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"loyalty-service/internal/util"

	"go.uber.org/zap"
)

// RemoteScore is the normalized result of a remote scoring call. Badge is
// set only for grand-score calls, ChurnRate only for platform calls.
type RemoteScore struct {
	Score     float64
	ChurnRate float64
	Badge     string
}

// ScoringClient calls the external ML scoring service over HTTP. The
// service recomputes a merchant's loyalty score and churn rate from their
// latest stats; responses are validated here at the boundary.
type ScoringClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewScoringClient creates a scoring client with an explicit timeout; a
// timeout on the remote call surfaces as an upstream error, never a hang.
func NewScoringClient(baseURL string, timeout time.Duration) *ScoringClient {
	return &ScoringClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

type platformScorePayload struct {
	LoyaltyScore      *float64 `json:"loyalty_score"`
	MerchantChurnRate *float64 `json:"merchant_churn_rate"`
}

type grandScorePayload struct {
	GrandLoyaltyScore *float64 `json:"grand_loyalty_score"`
	GrandBadge        *string  `json:"grand_badge"`
}

// PlatformScore fetches a merchant's loyalty score and churn rate for one
// integration platform.
func (c *ScoringClient) PlatformScore(ctx context.Context, email, platformName string) (*RemoteScore, error) {
	ctx, span := util.StartSpan(ctx, "ScoringClient.PlatformScore")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RemoteScoreLatency.Observe(time.Since(start).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/loyalty-score?email=%s&platform=%s",
		c.baseURL, url.QueryEscape(email), url.QueryEscape(platformName))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload platformScorePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed score payload: %v", ErrUpstream, err)
	}
	if payload.LoyaltyScore == nil || payload.MerchantChurnRate == nil {
		return nil, fmt.Errorf("%w: score payload missing loyalty_score or merchant_churn_rate", ErrUpstream)
	}

	return &RemoteScore{
		Score:     *payload.LoyaltyScore,
		ChurnRate: *payload.MerchantChurnRate,
	}, nil
}

// GrandScore fetches a merchant's aggregate score and badge across all
// platforms.
func (c *ScoringClient) GrandScore(ctx context.Context, email string) (*RemoteScore, error) {
	ctx, span := util.StartSpan(ctx, "ScoringClient.GrandScore")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RemoteScoreLatency.Observe(time.Since(start).Seconds())
	}()

	endpoint := fmt.Sprintf("%s/loyalty-score/multi-platform?email=%s",
		c.baseURL, url.QueryEscape(email))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload grandScorePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed grand score payload: %v", ErrUpstream, err)
	}
	if payload.GrandLoyaltyScore == nil || payload.GrandBadge == nil {
		return nil, fmt.Errorf("%w: grand payload missing grand_loyalty_score or grand_badge", ErrUpstream)
	}

	return &RemoteScore{
		Score: *payload.GrandLoyaltyScore,
		Badge: *payload.GrandBadge,
	}, nil
}

func (c *ScoringClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Remote scoring call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scoring service returned status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty payload from scoring service", ErrUpstream)
	}

	return body, nil
}
