package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AnassEREKYSY/MarketPulse/internal/refresh"
	wdomain "github.com/AnassEREKYSY/MarketPulse/internal/worker/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer starts a manual-ack consumer tagged with the worker id
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	deliveries, err := w.consumer.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started")

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the pool.
// Undecodable messages are rejected without requeue.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.logger.Info("Message dispatcher started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return errDeliveriesClosed
			}

			req, err := refresh.Decode(delivery.Body)
			if err != nil {
				w.logger.Error("Rejecting refresh message",
					slog.Any("error", fmt.Errorf("%w: %v", wdomain.ErrInvalidPayload, err)),
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message", slog.Any("error", nackErr))
				}
				continue
			}

			job := &wdomain.RefreshJob{Request: req, Delivery: delivery}

			select {
			case w.jobsChan <- job:
				w.logger.Debug("Refresh dispatched to worker pool",
					slog.String("request_id", req.ID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown", slog.Any("error", nackErr))
				}
				return nil
			}
		}
	}
}
