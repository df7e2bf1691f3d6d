package model

import "time"

// Brawler is a registered board member.
type Brawler struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string    `gorm:"size:64;not null" json:"-"`
	DisplayName  string    `gorm:"size:64;not null" json:"display_name"`
	AvatarURL    *string   `gorm:"type:text" json:"avatar_url"`
	TotalPoints  int       `gorm:"default:0;index:idx_brawler_points" json:"total_points"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
