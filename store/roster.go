package store

import (
	"context"
	"fmt"

	"github.com/kasuganosora/missionboard/model"
	"gorm.io/gorm"
)

// Roster implements board.CrewRoster.
type Roster struct {
	db  *gorm.DB
	cal Calendar
}

// NewRoster creates a Roster whose daily windows follow cal.
func NewRoster(db *gorm.DB, cal Calendar) *Roster {
	return &Roster{db: db, cal: cal}
}

func (r *Roster) CrewCounting(ctx context.Context, missionID int64) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Where("mission_id = ?", missionID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("store: count crew of %d: %w", missionID, err)
	}
	return int(n), nil
}

func (r *Roster) CrewIDs(ctx context.Context, missionID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Where("mission_id = ?", missionID).
		Order("joined_at").Order("brawler_id").
		Pluck("brawler_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("store: crew ids of %d: %w", missionID, err)
	}
	return ids, nil
}

func (r *Roster) CrewMembers(ctx context.Context, missionID int64) ([]model.Brawler, error) {
	var out []model.Brawler
	err := r.db.WithContext(ctx).
		Select("brawlers.*").
		Joins("JOIN crew_memberships cm ON cm.brawler_id = brawlers.id").
		Where("cm.mission_id = ?", missionID).
		Order("cm.joined_at").Order("brawlers.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store: crew members of %d: %w", missionID, err)
	}
	return out, nil
}

// DailyEarnedPoints sums base_points of missions completed today in which
// the brawler was chief or crew. It reports mission points, not the capped
// amount actually credited.
func (r *Roster) DailyEarnedPoints(ctx context.Context, brawlerID int64) (int, error) {
	start, end := r.cal.Today()
	var sum int64
	err := r.db.WithContext(ctx).Model(&model.Mission{}).
		Select("COALESCE(SUM(base_points), 0)").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", string(model.MissionCompleted), start, end).
		Where("chief_id = ? OR id IN (?)", brawlerID,
			r.db.Model(&model.CrewMembership{}).Select("mission_id").Where("brawler_id = ?", brawlerID)).
		Scan(&sum).Error
	if err != nil {
		return 0, fmt.Errorf("store: earned today by %d: %w", brawlerID, err)
	}
	return int(sum), nil
}

// DailyInteractionCount counts missions created and crews joined today.
// Removed missions still count.
func (r *Roster) DailyInteractionCount(ctx context.Context, brawlerID int64) (int, error) {
	start, end := r.cal.Today()
	var created, joined int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Mission{}).
		Where("chief_id = ? AND created_at >= ? AND created_at < ?", brawlerID, start, end).
		Count(&created).Error
	if err != nil {
		return 0, fmt.Errorf("store: created today by %d: %w", brawlerID, err)
	}
	err = r.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Where("brawler_id = ? AND joined_at >= ? AND joined_at < ?", brawlerID, start, end).
		Count(&joined).Error
	if err != nil {
		return 0, fmt.Errorf("store: joined today by %d: %w", brawlerID, err)
	}
	return int(created + joined), nil
}
