package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kasuganosora/missionboard/model"
	"gorm.io/gorm"
)

// CrewStore implements board.CrewStore.
type CrewStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCrewStore creates a CrewStore.
func NewCrewStore(db *gorm.DB) *CrewStore {
	return &CrewStore{db: db, now: time.Now}
}

const joinSQL = `INSERT INTO crew_memberships (mission_id, brawler_id, joined_at)
SELECT m.id, ?, ? FROM missions m
WHERE m.id = ? AND m.status = ? AND m.deleted_at IS NULL
  AND (SELECT COUNT(*) FROM crew_memberships cm WHERE cm.mission_id = m.id) < m.max_crew
  AND NOT EXISTS (SELECT 1 FROM crew_memberships cx WHERE cx.mission_id = m.id AND cx.brawler_id = ?)`

func (s *CrewStore) Join(ctx context.Context, missionID, brawlerID int64) (bool, error) {
	res := s.db.WithContext(ctx).Exec(joinSQL,
		brawlerID, s.now().UTC(), missionID, string(model.MissionOpen), brawlerID)
	if res.Error != nil {
		return false, fmt.Errorf("store: join mission %d: %w", missionID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *CrewStore) Leave(ctx context.Context, missionID, brawlerID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("mission_id = ? AND brawler_id = ?", missionID, brawlerID).
		Where("EXISTS (SELECT 1 FROM missions m WHERE m.id = ? AND m.status = ? AND m.deleted_at IS NULL)",
			missionID, string(model.MissionOpen)).
		Delete(&model.CrewMembership{})
	if res.Error != nil {
		return false, fmt.Errorf("store: leave mission %d: %w", missionID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *CrewStore) IsMember(ctx context.Context, missionID, brawlerID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Where("mission_id = ? AND brawler_id = ?", missionID, brawlerID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("store: crew membership: %w", err)
	}
	return n > 0, nil
}
