package producer_test

import (
	"context"
	"errors"
	"testing"

	"people-desk/internal/events"
	"people-desk/internal/messaging/kafka"
	kafkaMock "people-desk/internal/messaging/kafka/mock"
	"people-desk/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	failFor map[string]bool
	written []kafkago.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if w.failFor[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("success publishes and marks sent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		ev, err := kafka.NewOutboxEvent("rid-1", "approval_request", "agg-1",
			events.EventApprovalDecided, events.ApprovalLifecycleTopic, map[string]string{"status": "APPROVED"})
		assert.NoError(t, err)

		repo.EXPECT().ListPending(gomock.Any(), 50).Return([]kafka.OutboxEvent{ev}, nil)
		repo.EXPECT().MarkSent(gomock.Any(), ev.ID).Return(nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Len(t, writer.written, 1)
		msg := writer.written[0]
		assert.Equal(t, events.ApprovalLifecycleTopic, msg.Topic)
		assert.Equal(t, "agg-1", string(msg.Key))
		assert.Contains(t, msg.Headers, kafkago.Header{Key: "request_id", Value: []byte("rid-1")})
	})

	t.Run("negative publish failure marks failed and continues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{failFor: map[string]bool{"agg-bad": true}}

		bad, _ := kafka.NewOutboxEvent("", "approval_request", "agg-bad", events.EventApprovalSubmitted, events.ApprovalLifecycleTopic, map[string]string{})
		good, _ := kafka.NewOutboxEvent("", "approval_request", "agg-good", events.EventApprovalSubmitted, events.ApprovalLifecycleTopic, map[string]string{})

		repo.EXPECT().ListPending(gomock.Any(), 50).Return([]kafka.OutboxEvent{bad, good}, nil)
		repo.EXPECT().MarkFailed(gomock.Any(), bad.ID, "broker unavailable").Return(nil)
		repo.EXPECT().MarkSent(gomock.Any(), good.ID).Return(nil)

		sent, err := producer.ProcessPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
	})

	t.Run("negative list error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(gomock.Any(), 50).Return(nil, errors.New("db down"))

		sent, err := producer.ProcessPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())

		assert.Error(t, err)
		assert.Zero(t, sent)
	})
}
