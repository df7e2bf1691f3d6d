package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records mission transitions and point awards.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID   string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	BrawlerID *int64         `gorm:"index:idx_audit_brawler" json:"brawler_id"`
	MissionID *int64         `gorm:"index:idx_audit_mission" json:"mission_id"`
	Action    string         `gorm:"size:64;not null" json:"action"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
