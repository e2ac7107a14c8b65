// internal/service/assignment/worker.go
package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vaultbank-service/internal/domain/support"
	xerrors "vaultbank-service/internal/pkg/errors"
	"vaultbank-service/internal/pkg/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	readCount     = 10
	readBlock     = time.Second
	reclaimIdle   = time.Minute
	reclaimEvery  = 30 * time.Second
	ticketIDField = "ticket_id"

	// MaxDeliveries caps how often one message is handed to Assign before
	// it is moved to the dead-letter stream.
	MaxDeliveries = 5
)

// Assigner is satisfied by *Service.
type Assigner interface {
	Assign(ctx context.Context, ticketID string) (*support.AssignmentResult, error)
}

// Worker assigns tickets published to a Redis stream, one at a time per
// instance.
type Worker struct {
	rdb          *redis.Client
	assigner     Assigner
	stream       string
	group        string
	consumerName string
	deadLetter   string
	minIdle      time.Duration
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewWorker(rdb *redis.Client, assigner Assigner, stream, group, instanceID string, m *metrics.Metrics, logger *zap.Logger) *Worker {
	return &Worker{
		rdb:          rdb,
		assigner:     assigner,
		stream:       stream,
		group:        group,
		consumerName: fmt.Sprintf("assigner-%s", instanceID),
		deadLetter:   stream + ":dead",
		minIdle:      reclaimIdle,
		metrics:      m,
		logger:       logger,
	}
}

// Enqueue publishes a ticket for asynchronous assignment.
func (w *Worker) Enqueue(ctx context.Context, ticketID string) (string, error) {
	id, err := w.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: w.stream,
		Values: map[string]interface{}{
			ticketIDField: ticketID,
			"queued_at":   time.Now().UnixMilli(),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue ticket: %w", err)
	}
	return id, nil
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.ensureGroup(ctx); err != nil {
		return err
	}

	w.logger.Info("assignment worker started",
		zap.String("stream", w.stream),
		zap.String("group", w.group),
		zap.String("consumer", w.consumerName),
	)

	go w.reclaimLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("assignment worker stopped")
			return nil
		default:
			if err := w.consumeOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("failed to read from stream", zap.Error(err))
				sleepCtx(ctx, readBlock)
			}
		}
	}
}

func (w *Worker) ensureGroup(ctx context.Context) error {
	err := w.rdb.XGroupCreateMkStream(ctx, w.stream, w.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

func (w *Worker) consumeOnce(ctx context.Context) error {
	streams, err := w.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    w.group,
		Consumer: w.consumerName,
		Streams:  []string{w.stream, ">"},
		Count:    readCount,
		Block:    readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			w.process(ctx, message)
		}
	}
	return nil
}

func (w *Worker) reclaimLoop(ctx context.Context) {
	ticker := time.NewTicker(reclaimEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.reclaimOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("failed to reclaim pending messages", zap.Error(err))
			}
		}
	}
}

// reclaimOnce takes over messages that another consumer read but never
// acknowledged. Messages delivered more than MaxDeliveries times are
// dead-lettered instead of retried.
func (w *Worker) reclaimOnce(ctx context.Context) error {
	messages, _, err := w.rdb.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   w.stream,
		Group:    w.group,
		Consumer: w.consumerName,
		MinIdle:  w.minIdle,
		Start:    "0-0",
		Count:    readCount,
	}).Result()
	if err != nil {
		return err
	}

	for _, message := range messages {
		w.metrics.StreamMessagesTotal.WithLabelValues("reclaimed").Inc()

		deliveries, err := w.deliveries(ctx, message.ID)
		if err != nil {
			w.logger.Warn("failed to read delivery count", zap.String("message_id", message.ID), zap.Error(err))
		} else if deliveries > MaxDeliveries {
			w.deadLetterMessage(ctx, message, deliveries)
			continue
		}
		w.process(ctx, message)
	}
	return nil
}

func (w *Worker) deliveries(ctx context.Context, messageID string) (int64, error) {
	pending, err := w.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: w.stream,
		Group:  w.group,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[0].RetryCount, nil
}

func (w *Worker) deadLetterMessage(ctx context.Context, message redis.XMessage, deliveries int64) {
	ticketID, _ := message.Values[ticketIDField].(string)
	err := w.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: w.deadLetter,
		Values: map[string]interface{}{
			ticketIDField: ticketID,
			"message_id":  message.ID,
			"deliveries":  deliveries,
		},
	}).Err()
	if err != nil {
		// Stays pending; the next reclaim tries again.
		w.logger.Error("failed to dead-letter message", zap.String("message_id", message.ID), zap.Error(err))
		return
	}

	w.logger.Error("assignment gave up after repeated failures",
		zap.String("ticket_id", ticketID),
		zap.String("message_id", message.ID),
		zap.Int64("deliveries", deliveries),
	)
	w.ack(ctx, message.ID)
	w.metrics.StreamMessagesTotal.WithLabelValues("dead_lettered").Inc()
}

func (w *Worker) process(ctx context.Context, message redis.XMessage) {
	ticketID, _ := message.Values[ticketIDField].(string)
	if ticketID == "" {
		w.logger.Error("stream message without ticket id", zap.String("message_id", message.ID))
		w.metrics.StreamMessagesTotal.WithLabelValues("malformed").Inc()
		w.ack(ctx, message.ID)
		return
	}

	result, err := w.assigner.Assign(ctx, ticketID)
	if err != nil && !terminal(err) {
		// Left pending for reclaimOnce.
		w.logger.Error("assignment failed, will retry",
			zap.String("ticket_id", ticketID),
			zap.String("message_id", message.ID),
			zap.Error(err),
		)
		w.metrics.StreamMessagesTotal.WithLabelValues("retry").Inc()
		return
	}

	status := "assigned"
	switch {
	case err != nil:
		status = "rejected"
		w.logger.Warn("ticket not assignable",
			zap.String("ticket_id", ticketID),
			zap.Error(err),
		)
	case !result.Assigned:
		status = "no_agents"
	}

	w.ack(ctx, message.ID)
	w.metrics.StreamMessagesTotal.WithLabelValues(status).Inc()
}

func (w *Worker) ack(ctx context.Context, messageID string) {
	if err := w.rdb.XAck(ctx, w.stream, w.group, messageID).Err(); err != nil {
		w.logger.Error("failed to acknowledge message", zap.String("message_id", messageID), zap.Error(err))
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// terminal errors will not change on retry.
func terminal(err error) bool {
	return errors.Is(err, xerrors.ErrInvalidInput) ||
		errors.Is(err, xerrors.ErrNotFound) ||
		errors.Is(err, xerrors.ErrConflict)
}
