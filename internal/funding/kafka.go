// Package funding turns payment-provider notifications into session balance updates.
package funding

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/metrics"
	"github.com/vadiminshakov/helios/internal/session"
)

const (
	DefaultTopic   = "funding_events"
	DefaultGroupID = "helios-funding"

	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// Recorder applies funding events.
type Recorder interface {
	RecordFunding(ev domain.FundingEvent) session.FundingResult
}

// message wire format shared by the webhook bridge and the HTTP endpoint.
// Stripe sends amounts in minor units, NOWPayments in major units.
type message struct {
	PaymentID   string          `json:"payment_id"`
	Provider    string          `json:"provider"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor *int64          `json:"amount_minor,omitempty"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// Decode parses a funding notification.
func Decode(payload []byte, now time.Time) (domain.FundingEvent, error) {
	var m message
	if err := json.Unmarshal(payload, &m); err != nil {
		return domain.FundingEvent{}, errors.Wrap(err, "decode funding event")
	}
	if m.PaymentID == "" {
		return domain.FundingEvent{}, errors.New("funding event has no payment_id")
	}

	amount := m.Amount
	if m.AmountMinor != nil {
		amount = decimal.New(*m.AmountMinor, -2)
	}
	received := m.ReceivedAt
	if received.IsZero() {
		received = now
	}

	return domain.FundingEvent{
		PaymentID:  m.PaymentID,
		Provider:   strings.ToLower(m.Provider),
		Amount:     amount,
		Currency:   strings.ToUpper(m.Currency),
		Status:     domain.FundingStatus(strings.ToLower(m.Status)),
		ReceivedAt: received,
	}, nil
}

// Apply records an event and counts the outcome.
func Apply(rec Recorder, ev domain.FundingEvent, source string) session.FundingResult {
	result := rec.RecordFunding(ev)
	metrics.FundingEventsTotal.WithLabelValues(source, string(result)).Inc()
	return result
}

// messageReader the subset of kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads funding events from a Kafka topic.
type KafkaConsumer struct {
	reader   messageReader
	recorder Recorder
	logger   *zap.Logger
}

// NewKafkaConsumer creates a consumer group reader on topic.
func NewKafkaConsumer(brokers []string, topic, groupID string, recorder Recorder, logger *zap.Logger) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	if groupID == "" {
		groupID = DefaultGroupID
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1e6,
		CommitInterval: 0,
		MaxAttempts:    10,
	})

	return newKafkaConsumer(reader, recorder, logger), nil
}

func newKafkaConsumer(reader messageReader, recorder Recorder, logger *zap.Logger) *KafkaConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaConsumer{
		reader:   reader,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "funding-consumer")),
	}
}

// Run consumes until ctx is done. Malformed messages are logged and committed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("failed to close kafka reader", zap.Error(err))
		}
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "fetch funding message")
		}

		c.handle(msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "commit funding message")
		}
	}
}

func (c *KafkaConsumer) handle(msg kafka.Message) {
	ev, err := Decode(msg.Value, time.Now())
	if err != nil {
		metrics.FundingEventsTotal.WithLabelValues(SourceKafka, metrics.FundingInvalid).Inc()
		c.logger.Warn("skipping malformed funding message",
			zap.Int64("offset", msg.Offset),
			zap.Error(err))
		return
	}

	result := Apply(c.recorder, ev, SourceKafka)
	c.logger.Info("funding message processed",
		zap.String("payment_id", ev.PaymentID),
		zap.String("result", string(result)),
		zap.Int64("offset", msg.Offset))
}
