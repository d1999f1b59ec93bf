// Package logpub implements the EventPublisher port by writing events to the
// structured log, for development and single-node setups.
package logpub

import (
	"context"
	"encoding/json"

	"github.com/Video2Frames/video-processor/internal/domain/event"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"go.uber.org/zap"
)

type Publisher struct {
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) Publish(_ context.Context, ev event.DomainEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return &port.PublishError{EventType: ev.EventType(), Err: err}
	}

	p.logger.Info("event published",
		zap.String("event_type", ev.EventType()),
		zap.String("event_id", ev.EventID().String()),
		zap.ByteString("payload", body),
	)
	return nil
}
