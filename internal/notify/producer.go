package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/callumalpass/study-program/internal/storage"
)

// Producer publishes catalog events to the catalog exchange
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// PublishCatalog publishes a catalog event. A missing ID or timestamp is
// filled in.
func (p *Producer) PublishCatalog(ctx context.Context, event *CatalogPublished) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.PublishedAt.IsZero() {
		event.PublishedAt = time.Now().UTC()
	}

	if err := p.conn.PublishJSON(ctx, CatalogExchangeName, "", event); err != nil {
		return fmt.Errorf("failed to publish catalog event: %w", err)
	}

	slog.Info("published catalog event",
		"event_id", event.ID,
		"digest", event.Digest,
		"exercises", event.ExerciseCount,
	)

	return nil
}

// NewCatalogPublished builds the event announcing snap.
func NewCatalogPublished(snap *storage.Snapshot, sinks []string) *CatalogPublished {
	subjects := make([]string, len(snap.Subjects))
	for i, s := range snap.Subjects {
		subjects[i] = s.ID
	}
	return &CatalogPublished{
		ID:            uuid.New(),
		Digest:        snap.Digest,
		Subjects:      subjects,
		ExerciseCount: len(snap.Exercises),
		Warnings:      len(snap.Warnings),
		Sinks:         append([]string{}, sinks...),
		PublishedAt:   snap.CreatedAt,
	}
}
