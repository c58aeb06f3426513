// Package events publishes checkout notifications for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
)

const (
	EventTypeCheckoutRequested = "checkout_requested"
	DefaultTopic               = "chat-checkout"
)

type CheckoutItem struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitMinor int64  `json:"unit_minor"`
	LineMinor int64  `json:"line_minor"`
}

// CheckoutRequested is emitted when a session receives a payment link.
type CheckoutRequested struct {
	SessionID   string         `json:"session_id"`
	Items       []CheckoutItem `json:"items"`
	TotalMinor  int64          `json:"total_minor"`
	Total       string         `json:"total"`
	PaymentLink string         `json:"payment_link"`
	RequestedAt time.Time      `json:"requested_at"`
}

type Publisher interface {
	PublishCheckoutRequested(ctx context.Context, event CheckoutRequested) error
	Close() error
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker[struct{}]
	timeout time.Duration
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w)
}

func newKafkaPublisher(w messageWriter) *KafkaPublisher {
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "kafka-checkout",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return &KafkaPublisher{writer: w, breaker: cb, timeout: 5 * time.Second}
}

func (p *KafkaPublisher) PublishCheckoutRequested(ctx context.Context, event CheckoutRequested) error {
	msg, err := checkoutMessage(event)
	if err != nil {
		return err
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("publish checkout event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func checkoutMessage(event CheckoutRequested) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal checkout event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.SessionID), // session id for ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeCheckoutRequested)},
		},
	}, nil
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishCheckoutRequested(context.Context, CheckoutRequested) error { return nil }

func (NopPublisher) Close() error { return nil }
