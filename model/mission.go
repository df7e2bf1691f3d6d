package model

import (
	"time"

	"gorm.io/gorm"
)

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	MissionOpen       MissionStatus = "Open"
	MissionInProgress MissionStatus = "InProgress"
	MissionCompleted  MissionStatus = "Completed"
	MissionFailed     MissionStatus = "Failed"
)

// ParseMissionStatus accepts the canonical status names only.
func ParseMissionStatus(s string) (MissionStatus, bool) {
	switch MissionStatus(s) {
	case MissionOpen, MissionInProgress, MissionCompleted, MissionFailed:
		return MissionStatus(s), true
	}
	return "", false
}

// Difficulty tiers. Anything unrecognised is treated as Normal.
const (
	DifficultyEasy   = "Easy"
	DifficultyNormal = "Normal"
	DifficultyHard   = "Hard"
)

// Mission is a unit of cooperative work owned by its chief.
type Mission struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"size:128;not null" json:"name"`
	Description *string        `gorm:"type:text" json:"description"`
	Status      MissionStatus  `gorm:"size:16;index:idx_mission_status;not null" json:"status"`
	ChiefID     int64          `gorm:"index:idx_mission_chief;not null" json:"chief_id"`
	MaxCrew     int            `gorm:"not null" json:"max_crew"`
	Difficulty  string         `gorm:"size:16;not null" json:"difficulty"`
	BasePoints  int            `gorm:"not null" json:"base_points"`
	DueDate     *time.Time     `json:"due_date"`
	CompletedAt *time.Time     `gorm:"index:idx_mission_completed" json:"completed_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// CrewMembership links a brawler to a mission they joined.
// The chief is never stored here.
type CrewMembership struct {
	MissionID int64     `gorm:"primaryKey;index:idx_crew_mission" json:"mission_id"`
	BrawlerID int64     `gorm:"primaryKey;index:idx_crew_brawler" json:"brawler_id"`
	JoinedAt  time.Time `gorm:"autoCreateTime;index:idx_crew_joined" json:"joined_at"`
}
