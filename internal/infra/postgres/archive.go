// Package postgres keeps an append-only archive of published domain events.
// The video aggregate itself is never persisted; only the events that left
// the process are recorded, for audit and replay.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Video2Frames/video-processor/internal/domain/event"
	"github.com/Video2Frames/video-processor/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type EventArchive struct {
	pool *pgxpool.Pool
}

func NewEventArchive(pool *pgxpool.Pool) *EventArchive {
	return &EventArchive{pool: pool}
}

func (a *EventArchive) Record(ctx context.Context, ev event.DomainEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.EventType(), err)
	}

	var videoID *uuid.UUID
	if statusEv, ok := ev.(event.VideoStatusEvent); ok {
		id := statusEv.Subject()
		videoID = &id
	}

	query := `
		INSERT INTO domain_events (id, event_type, video_id, occurred_at, version, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = a.pool.Exec(ctx, query,
		ev.EventID(), ev.EventType(), videoID, ev.EventOccurredAt(), ev.EventVersion(), payload,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.EventID(), err)
	}
	return nil
}

// ArchivingPublisher decorates an EventPublisher, recording every event that
// was successfully published. Archive failures are logged, not escalated:
// the archive is an audit trail, not the delivery channel.
type ArchivingPublisher struct {
	next    port.EventPublisher
	archive *EventArchive
	logger  *zap.Logger
}

func NewArchivingPublisher(next port.EventPublisher, archive *EventArchive, logger *zap.Logger) *ArchivingPublisher {
	return &ArchivingPublisher{next: next, archive: archive, logger: logger}
}

func (p *ArchivingPublisher) Publish(ctx context.Context, ev event.DomainEvent) error {
	if err := p.next.Publish(ctx, ev); err != nil {
		return err
	}

	if err := p.archive.Record(ctx, ev); err != nil {
		p.logger.Warn("archive published event",
			zap.String("event_type", ev.EventType()),
			zap.String("event_id", ev.EventID().String()),
			zap.Error(err),
		)
	}
	return nil
}
