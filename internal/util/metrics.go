package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoresResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_scores_resolved_total",
		Help: "Total number of score resolutions by platform and source",
	}, []string{"platform", "source"})

	ScoreResolveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loyalty_score_resolve_failures_total",
		Help: "Total number of failed score resolutions",
	}, []string{"platform"})

	RemoteScoreLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "remote_score_latency_seconds",
		Help:    "Latency of remote scoring service calls",
		Buckets: prometheus.DefBuckets,
	})

	StatsUpsertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stats_upserts_total",
		Help: "Total number of stats submissions by platform and result",
	}, []string{"platform", "result"})

	LeaderboardCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_cache_hits_total",
		Help: "Total number of leaderboard responses served from cache",
	})

	LeaderboardCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_cache_misses_total",
		Help: "Total number of leaderboard reads that fell through to the database",
	})

	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts by account type and outcome",
	}, []string{"type", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
