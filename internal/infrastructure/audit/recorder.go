// Package audit persists every published domain event as an audit log entry.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenancy/backend/internal/domain/shared"
	"github.com/tenancy/backend/internal/infrastructure/persistence/models"
)

// Recorder is a wildcard event handler that writes one audit_log row per
// domain event. The event struct itself is the payload snapshot.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{db: db, logger: logger}
}

// EventTypes returns nil so the recorder subscribes to every event
func (r *Recorder) EventTypes() []string {
	return nil
}

// Handle serializes the event and inserts the audit row. A duplicate
// event_id means the event was already recorded and the insert is skipped.
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventType(), err)
	}

	entry := models.AuditLogModel{
		ID:             uuid.New(),
		EventID:        event.EventID(),
		EventType:      event.EventType(),
		AggregateType:  event.AggregateType(),
		AggregateID:    event.AggregateID(),
		OrganizationID: event.OrganizationID(),
		Payload:        payload,
		OccurredAt:     event.OccurredAt(),
		RecordedAt:     time.Now().UTC(),
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("record audit entry for %s: %w", event.EventType(), result.Error)
	}
	if result.RowsAffected == 0 {
		r.logger.Debug("audit entry already recorded",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*Recorder)(nil)

// Entry is one audit log record returned by queries.
type Entry struct {
	ID             uuid.UUID       `json:"id"`
	EventID        uuid.UUID       `json:"event_id"`
	EventType      string          `json:"event_type"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    uuid.UUID       `json:"aggregate_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
	RecordedAt     time.Time       `json:"recorded_at"`
}

// Query reads back audit entries for one aggregate, oldest first
type Query struct {
	db *gorm.DB
}

// NewQuery creates a new audit query reader
func NewQuery(db *gorm.DB) *Query {
	return &Query{db: db}
}

// ForAggregate returns the recorded events of one aggregate within an
// organization, in occurrence order
func (q *Query) ForAggregate(ctx context.Context, organizationID, aggregateID uuid.UUID) ([]Entry, error) {
	var rows []models.AuditLogModel
	err := q.db.WithContext(ctx).
		Where("organization_id = ? AND aggregate_id = ?", organizationID, aggregateID).
		Order("occurred_at ASC, recorded_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			ID:             row.ID,
			EventID:        row.EventID,
			EventType:      row.EventType,
			AggregateType:  row.AggregateType,
			AggregateID:    row.AggregateID,
			OrganizationID: row.OrganizationID,
			Payload:        json.RawMessage(row.Payload),
			OccurredAt:     row.OccurredAt,
			RecordedAt:     row.RecordedAt,
		}
	}
	return entries, nil
}
