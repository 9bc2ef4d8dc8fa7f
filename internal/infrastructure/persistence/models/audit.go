package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogModel is one recorded domain event. Rows are written once by the
// audit recorder and never updated; event_id is unique so redelivery of the
// same event is a no-op.
type AuditLogModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	EventType      string    `gorm:"type:varchar(100);not null;index"`
	AggregateType  string    `gorm:"type:varchar(50);not null"`
	AggregateID    uuid.UUID `gorm:"type:uuid;not null;index"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	Payload        []byte    `gorm:"type:jsonb;not null"`
	OccurredAt     time.Time `gorm:"not null;index"`
	RecordedAt     time.Time `gorm:"not null"`
}

// TableName specifies the table name
func (AuditLogModel) TableName() string {
	return "audit_log"
}
