package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	amqpInfra "github.com/stylebook/backend/internal/infrastructure/amqp"
	"github.com/stylebook/backend/internal/infrastructure/outbox"
)

// Broker abstracts the message publisher so the processor stays broker-agnostic.
type Broker interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// OutboundConfig controls how frequently the outbox is drained.
type OutboundConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboundProcessor delivers notification and payout facts, falling back to
// the persistent outbox when the broker is unreachable and draining it on a
// schedule. Delivery is at-least-once; consumers must tolerate duplicates.
type OutboundProcessor struct {
	store  *outbox.Store
	broker Broker
	logger *zap.Logger
	cron   *cron.Cron
	cfg    OutboundConfig
}

func NewOutboundProcessor(store *outbox.Store, broker Broker, logger *zap.Logger, cfg OutboundConfig) *OutboundProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboundProcessor{
		store:  store,
		broker: broker,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboundProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbound processor started")
}

// Stop gracefully stops the scheduler.
func (op *OutboundProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbound processor stopped")
}

// Drain publishes buffered messages synchronously.
func (op *OutboundProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil {
		return nil
	}

	messages, err := op.store.GetBatch(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, message := range messages {
		if err := op.deliver(ctx, message); err != nil {
			op.logger.Error("failed to deliver outbound message",
				zap.String("message_id", message.ID),
				zap.String("kind", message.Kind),
				zap.Error(err))

			message.Retries++
			if message.Retries >= op.cfg.MaxRetries {
				op.logger.Warn("dropping outbound message (max retries reached)", zap.String("message_id", message.ID))
				_ = op.store.Remove(message)
				continue
			}

			if err := op.store.Remove(message); err != nil {
				op.logger.Warn("failed to remove outbound message", zap.Error(err))
			}
			if err := op.store.Requeue(message); err != nil {
				op.logger.Error("failed to requeue outbound message", zap.Error(err))
			}
			continue
		}

		if err := op.store.Remove(message); err != nil {
			op.logger.Warn("failed to purge delivered message", zap.Error(err))
		}
	}
	return nil
}

// DispatchOrBuffer attempts immediate delivery and falls back to persisting
// the message for the drain loop.
func (op *OutboundProcessor) DispatchOrBuffer(ctx context.Context, message outbox.Message) error {
	if op == nil || op.store == nil {
		return fmt.Errorf("outbound processor not configured")
	}

	if err := op.deliver(ctx, message); err == nil {
		return nil
	} else {
		op.logger.Warn("immediate delivery failed, buffering", zap.String("kind", message.Kind), zap.Error(err))
	}
	return op.store.Enqueue(message)
}

// Size returns the number of pending messages.
func (op *OutboundProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (op *OutboundProcessor) deliver(ctx context.Context, message outbox.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if op.broker == nil {
		return fmt.Errorf("no broker configured")
	}

	switch message.Kind {
	case outbox.KindNotification:
		return op.broker.Publish(ctx, amqpInfra.QueueNotifications, message.Data)
	case outbox.KindPayout:
		return op.broker.Publish(ctx, amqpInfra.QueuePayouts, message.Data)
	default:
		return fmt.Errorf("unsupported message kind %s", message.Kind)
	}
}
