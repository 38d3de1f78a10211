package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/finwatch/finwatch-backend/internal/models"
)

// Producer publishes ticker lifecycle events to Kafka. A nil *Producer
// is valid and disables publishing.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a Kafka producer for the given brokers and topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: topic}
}

// PublishTickerAdded publishes an event for a ticker newly referenced by
// a watchlist or portfolio.
func (p *Producer) PublishTickerAdded(ctx context.Context, ticker *models.Ticker) error {
	return p.publish(ctx, ticker.Symbol, models.TickerEvent{
		EventType: "TICKER_ADDED",
		Ticker:    ticker,
		Symbol:    ticker.Symbol,
		Timestamp: time.Now(),
	})
}

// PublishTickerRemoved publishes an event for a ticker dropped from a
// watchlist or portfolio.
func (p *Producer) PublishTickerRemoved(ctx context.Context, symbol string) error {
	return p.publish(ctx, symbol, models.TickerEvent{
		EventType: "TICKER_REMOVED",
		Symbol:    symbol,
		Timestamp: time.Now(),
	})
}

// PublishDataRefreshed publishes an event after a market data refresh
// persisted new rows for a symbol.
func (p *Producer) PublishDataRefreshed(ctx context.Context, symbol string) error {
	return p.publish(ctx, symbol, models.TickerEvent{
		EventType: "DATA_REFRESHED",
		Symbol:    symbol,
		Timestamp: time.Now(),
	})
}

func (p *Producer) publish(ctx context.Context, key string, event models.TickerEvent) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{Key: []byte(key), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
