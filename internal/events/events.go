package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelPrefix = "backoffice:events:"
	ChannelAll    = ChannelPrefix + "all"

	EventOrderCreated     = "order.created"
	EventOrderUpdated     = "order.updated"
	EventPaymentProcessed = "payment.processed"
	EventPaymentReverted  = "payment.reverted"
	EventOrderDeleted     = "order.deleted"
)

type OrderEvent struct {
	EventType      string    `json:"event_type"`
	OrderID        int64     `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	CustomerID     int64     `json:"customer_id"`
	Total          int64     `json:"total"`
	PaymentStatus  string    `json:"payment_status"`
	ShippingStatus string    `json:"shipping_status"`
	Message        string    `json:"message,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

type RedisPublisher struct {
	redis *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{redis: client}
}

// PublishOrderEvent sends the event to its type channel and to the catch-all channel.
func (p *RedisPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.redis.Publish(ctx, ChannelPrefix+event.EventType, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	if err := p.redis.Publish(ctx, ChannelAll, eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish to all channel: %w", err)
	}

	return nil
}

type nopPublisher struct{}

func (nopPublisher) PublishOrderEvent(context.Context, OrderEvent) error { return nil }

// Nop discards events. Used when Redis is disabled.
func Nop() Publisher { return nopPublisher{} }

// New picks the Redis publisher when a client is configured.
func New(client *redis.Client) Publisher {
	if client == nil {
		return Nop()
	}
	return NewRedisPublisher(client)
}
