// Package refresh carries cache refresh requests from the API to the worker.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Broker publishes raw messages
type Broker interface {
	Publish(ctx context.Context, msg rabbitmq.Message) error
}

// Publisher encodes refresh requests onto the broker
type Publisher struct {
	broker Broker
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewPublisher creates a Publisher; a nil clock uses the real clock
func NewPublisher(broker Broker, clock clockwork.Clock, logger *slog.Logger) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{broker: broker, clock: clock, logger: logger}
}

// Request publishes a first-attempt refresh of q
func (p *Publisher) Request(ctx context.Context, q domain.Query) (domain.RefreshRequest, error) {
	req := domain.RefreshRequest{
		ID:          uuid.NewString(),
		Query:       q,
		RequestedAt: p.clock.Now().UTC(),
	}
	return req, p.Republish(ctx, req)
}

// Republish publishes req as is
func (p *Publisher) Republish(ctx context.Context, req domain.RefreshRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode refresh request: %w", err)
	}

	if err := p.broker.Publish(ctx, rabbitmq.Message{
		ID:          req.ID,
		Type:        domain.RefreshMessageType,
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRefreshUnavailable, err)
	}

	p.logger.Info("Refresh requested",
		slog.String("request_id", req.ID),
		slog.String("text", req.Query.Text),
		slog.String("location", req.Query.Location),
		slog.Int("attempt", req.Attempt),
	)
	return nil
}

// Decode parses a refresh message body. The id must be a UUID.
func Decode(body []byte) (domain.RefreshRequest, error) {
	var req domain.RefreshRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.RefreshRequest{}, fmt.Errorf("failed to parse refresh request: %w", err)
	}
	if _, err := uuid.Parse(req.ID); err != nil {
		return domain.RefreshRequest{}, fmt.Errorf("invalid refresh request id %q: %w", req.ID, err)
	}
	if req.Attempt < 0 {
		return domain.RefreshRequest{}, fmt.Errorf("invalid refresh attempt %d", req.Attempt)
	}
	return req, nil
}
