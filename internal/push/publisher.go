package push

import (
	"encoding/json"
	"fmt"

	"github.com/ali-shihab/marketreplay/internal/model"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// ActionPublisher forwards replay order actions to the external book over
// NATS JetStream, one subject per symbol.
type ActionPublisher struct {
	js     nats.JetStreamContext
	logger *zap.Logger
}

func NewActionPublisher(js nats.JetStreamContext, logger *zap.Logger) *ActionPublisher {
	return &ActionPublisher{js: js, logger: logger}
}

// Submit publishes one action to replay.actions.{symbol}.
func (p *ActionPublisher) Submit(action model.OrderAction) error {
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal action: %w", err)
	}

	subject := fmt.Sprintf("replay.actions.%s", action.Symbol)
	if _, err := p.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish action: %w", err)
	}
	return nil
}
