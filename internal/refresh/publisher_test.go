package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/AnassEREKYSY/MarketPulse/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroker struct {
	messages []rabbitmq.Message
	err      error
}

func (b *recordingBroker) Publish(_ context.Context, msg rabbitmq.Message) error {
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, msg)
	return nil
}

func newTestPublisher(broker Broker) *Publisher {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	return NewPublisher(broker, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestPublisher_Request(t *testing.T) {
	broker := &recordingBroker{}
	p := newTestPublisher(broker)

	q := domain.Query{Text: "golang", Location: "Paris", MinSalary: domain.Some(40000.0)}
	req, err := p.Request(context.Background(), q)
	require.NoError(t, err)

	_, err = uuid.Parse(req.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, req.Attempt)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), req.RequestedAt)

	require.Len(t, broker.messages, 1)
	msg := broker.messages[0]
	assert.Equal(t, req.ID, msg.ID)
	assert.Equal(t, domain.RefreshMessageType, msg.Type)

	decoded, err := Decode(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, req, decoded)
}

func TestPublisher_BrokerDown(t *testing.T) {
	p := newTestPublisher(&recordingBroker{err: errors.New("channel closed")})

	_, err := p.Request(context.Background(), domain.Query{Text: "go"})
	assert.ErrorIs(t, err, domain.ErrRefreshUnavailable)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "valid", body: `{"id":"6f1c2a52-3c1b-4d55-9a39-0d6f1f6a8f10","query":{"text":"go","page":0,"pageSize":0},"attempt":2}`},
		{name: "not json", body: `refresh please`, wantErr: true},
		{name: "bad id", body: `{"id":"42","query":{}}`, wantErr: true},
		{name: "negative attempt", body: `{"id":"6f1c2a52-3c1b-4d55-9a39-0d6f1f6a8f10","attempt":-1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Decode([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "go", req.Query.Text)
			assert.Equal(t, 2, req.Attempt)
		})
	}
}
