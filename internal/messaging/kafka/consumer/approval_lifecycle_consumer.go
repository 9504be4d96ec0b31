package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"people-desk/internal/approval"
	"people-desk/internal/bootstrap"
	"people-desk/internal/events"
	"people-desk/internal/shared/contextutil"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// LifecycleHandler turns approval lifecycle events into audit entries and drops
// the monthly report cache of the affected month.
type LifecycleHandler struct {
	audit bootstrap.AuditLogger
	rdb   *redis.Client
	loc   *time.Location
}

func NewLifecycleHandler(audit bootstrap.AuditLogger, rdb *redis.Client, loc *time.Location) *LifecycleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &LifecycleHandler{audit: audit, rdb: rdb, loc: loc}
}

func ConsumeApprovalLifecycle(
	ctx context.Context,
	reader MessageReader,
	handler *LifecycleHandler,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.approval_lifecycle")
	log.Info("approval lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("approval lifecycle consumer stopped")
				return
			}
			log.Error("fetch approval lifecycle message failed", zap.Error(err))
			continue
		}

		if err := handler.Handle(ctx, msg); err != nil {
			// Undecodable payloads are committed so they do not block the partition.
			log.Error("handle approval lifecycle message failed",
				zap.String("key", string(msg.Key)),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit approval lifecycle message failed", zap.Error(err))
			continue
		}
	}
}

func (h *LifecycleHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	if rid := headerValue(msg, "request_id"); rid != "" {
		ctx = contextutil.WithRequestID(ctx, rid)
	}

	eventType := headerValue(msg, "event_type")
	if eventType == "" {
		var envelope struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(msg.Value, &envelope); err != nil {
			return fmt.Errorf("decode event type: %w", err)
		}
		eventType = envelope.EventType
	}

	switch eventType {
	case events.EventApprovalSubmitted:
		var event events.ApprovalSubmittedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		h.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "APPROVAL_SUBMITTED",
			Message: fmt.Sprintf("%s request submitted by %s", event.Kind, event.EmployeeName),
			Meta: map[string]any{
				"request_id":   event.RequestID,
				"reference_no": event.ReferenceNo,
				"employee_id":  event.EmployeeID,
			},
		})
		return nil

	case events.EventApprovalDecided:
		var event events.ApprovalDecidedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		ctx = contextutil.WithUserID(ctx, event.DecidedBy)
		h.audit.Log(ctx, bootstrap.AuditLog{
			Action:  "APPROVAL_DECIDED",
			Message: fmt.Sprintf("%s %s %s request of %s", event.Stage, event.Decision, event.Kind, event.EmployeeName),
			Meta: map[string]any{
				"request_id":   event.RequestID,
				"reference_no": event.ReferenceNo,
				"status":       event.Status,
				"decided_by":   event.DecidedBy,
			},
		})
		return h.invalidate(ctx, approval.Kind(event.Kind), event.CreatedAt)

	default:
		return fmt.Errorf("unknown event type %q", eventType)
	}
}

func (h *LifecycleHandler) invalidate(ctx context.Context, kind approval.Kind, createdAt time.Time) error {
	if h.rdb == nil || createdAt.IsZero() {
		return nil
	}
	key := approval.GetReportCacheKey(kind, createdAt.In(h.loc).Format("2006-01"))
	return h.rdb.Del(ctx, key).Err()
}

func headerValue(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
