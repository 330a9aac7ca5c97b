package notifier

//go:generate go run go.uber.org/mock/mockgen -source=./notifier.go -destination=../mocks/notifier_mock.go -package=mocks

import (
	"context"
	"tutorhub/config"
	"tutorhub/infras/kafka"
	"tutorhub/infras/otel"
	"tutorhub/shared/constant"

	"github.com/rs/zerolog/log"
)

const (
	otelScopeName = "notifier"
)

const (
	EventBookingCancelled        = "booking.cancelled"
	EventSessionScheduled        = "session.scheduled"
	EventProviderReconnectNeeded = "provider.reconnect_needed"
	EventSettlementCaptureFailed = "settlement.capture_failed"
)

// Notifier is fire-and-forget: delivery mechanics (push, email) live downstream of
// the event stream, and publish failures are swallowed after logging.
type Notifier interface {
	Notify(ctx context.Context, userID, eventType string, payload map[string]any)
}

type event struct {
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

type kafkaNotifier struct {
	cfg    *config.Config
	client kafka.Client
	otel   otel.Otel
}

func New(cfg *config.Config, client kafka.Client, ot otel.Otel) Notifier {
	return &kafkaNotifier{
		cfg:    cfg,
		client: client,
		otel:   ot,
	}
}

func (n *kafkaNotifier) Notify(ctx context.Context, userID, eventType string, payload map[string]any) {
	ctx, scope := n.otel.NewScope(ctx, constant.OtelExternalScopeName, otelScopeName+".Notify")
	defer scope.End()

	err := n.client.SendMessages(ctx, n.cfg.Kafka.Topics.Notifications, kafka.Message{
		Key: userID,
		Value: event{
			UserID:    userID,
			EventType: eventType,
			Payload:   payload,
		},
	})

	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("eventType", eventType).Msg("failed to publish notification event")
	}
}
