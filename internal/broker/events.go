package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"loyalty-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishStatsUpdated publishes a StatsUpdated event
func (ep *EventPublisher) PublishStatsUpdated(ctx context.Context, event *models.StatsUpdatedEvent) error {
	key := fmt.Sprintf("merchant-%s", event.MerchantID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishScoreRefreshed publishes a ScoreRefreshed event
func (ep *EventPublisher) PublishScoreRefreshed(ctx context.Context, event *models.ScoreRefreshedEvent) error {
	key := fmt.Sprintf("merchant-%s", event.MerchantID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming loyalty events to registered callbacks
type EventHandler struct {
	onStatsUpdated   func(context.Context, *models.StatsUpdatedEvent) error
	onScoreRefreshed func(context.Context, *models.ScoreRefreshedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStatsUpdated registers a handler for StatsUpdated events
func (eh *EventHandler) OnStatsUpdated(handler func(context.Context, *models.StatsUpdatedEvent) error) {
	eh.onStatsUpdated = handler
}

// OnScoreRefreshed registers a handler for ScoreRefreshed events
func (eh *EventHandler) OnScoreRefreshed(handler func(context.Context, *models.ScoreRefreshedEvent) error) {
	eh.onScoreRefreshed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeStatsUpdated:
		if eh.onStatsUpdated != nil {
			var event models.StatsUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StatsUpdated event: %w", err)
			}
			return eh.onStatsUpdated(ctx, &event)
		}

	case models.EventTypeScoreRefreshed:
		if eh.onScoreRefreshed != nil {
			var event models.ScoreRefreshedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal ScoreRefreshed event: %w", err)
			}
			return eh.onScoreRefreshed(ctx, &event)
		}
	}

	return nil
}
