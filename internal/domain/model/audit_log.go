package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records one operator action taken through the internal API
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    string         `gorm:"size:64;not null;index" json:"actor_id"`
	Action     string         `gorm:"size:100;not null;index:idx_audit_log_action" json:"action"`
	ResourceID string         `gorm:"size:100" json:"resource_id,omitempty"`
	Status     int            `gorm:"not null" json:"status"`
	RequestID  string         `gorm:"size:64" json:"request_id,omitempty"`
	IPAddress  string         `gorm:"size:45" json:"ip_address,omitempty"`
	Metadata   datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_log"
}

// AuditFilter narrows an audit log listing. Empty fields match everything.
type AuditFilter struct {
	ActorID string
	Action  string
}
