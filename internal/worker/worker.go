package worker

import (
	"context"
	"log"

	"loyalty-service/internal/broker"
	"loyalty-service/internal/models"
	"loyalty-service/internal/redisclient"
)

// CacheWorker invalidates cached leaderboards when stats submissions land,
// so ranked reads never serve totals older than one event round-trip.
type CacheWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *redisclient.Client
}

// NewCacheWorker creates a new cache invalidation worker
func NewCacheWorker(consumer *broker.Consumer, cache *redisclient.Client) *CacheWorker {
	w := &CacheWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		cache:        cache,
	}

	w.eventHandler.OnStatsUpdated(w.handleStatsUpdated)

	return w
}

func (w *CacheWorker) handleStatsUpdated(ctx context.Context, event *models.StatsUpdatedEvent) error {
	log.Printf("Invalidating leaderboard caches: platform=%s, merchant=%s",
		event.Platform, event.MerchantID)

	if err := w.cache.InvalidatePlatform(ctx, event.Platform); err != nil {
		// The cached entries expire on their own TTL anyway.
		log.Printf("Cache invalidation error: %v", err)
	}
	return nil
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache worker...")
	return w.consumer.Close()
}
