package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/totegamma/collabfund/internal/domain"
)

// Publisher is the subset of *nats.Conn the publisher needs.
type Publisher interface {
	PublishMsg(msg *nats.Msg) error
}

type NatsPublisher struct {
	nc Publisher
}

func NewNatsPublisher(nc Publisher) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// Subject is "interaction.<kind>.<outcome>", e.g. interaction.vote.added.
func Subject(event domain.InteractionEvent) string {
	return fmt.Sprintf("interaction.%s.%s", event.Kind, event.Outcome)
}

func (p *NatsPublisher) Publish(ctx context.Context, event domain.InteractionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: Subject(event),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.DebugContext(ctx, "publishing interaction event", slog.String("subject", msg.Subject), slog.String("module", "eventbroker"))

	return p.nc.PublishMsg(msg)
}
