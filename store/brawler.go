package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/model"
	"gorm.io/gorm"
)

// BrawlerStore implements board.BrawlerDirectory and the account queries
// used by the brawler service.
type BrawlerStore struct {
	db *gorm.DB
}

// NewBrawlerStore creates a BrawlerStore.
func NewBrawlerStore(db *gorm.DB) *BrawlerStore {
	return &BrawlerStore{db: db}
}

// BrawlerStats are the mission counters shown on a profile.
type BrawlerStats struct {
	MissionJoinedCount  int `json:"mission_joined_count"`
	MissionSuccessCount int `json:"mission_success_count"`
}

func (s *BrawlerStore) FindByID(ctx context.Context, id int64) (*model.Brawler, error) {
	var b model.Brawler
	err := s.db.WithContext(ctx).First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, board.NotFound("Brawler %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get brawler %d: %w", id, err)
	}
	return &b, nil
}

// FindMany returns the brawlers with the given ids in no particular order.
// Unknown ids are skipped.
func (s *BrawlerStore) FindMany(ctx context.Context, ids []int64) ([]model.Brawler, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []model.Brawler
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("store: get brawlers: %w", err)
	}
	return out, nil
}

// FindByUsername returns board.ErrNotFound for unknown usernames.
func (s *BrawlerStore) FindByUsername(ctx context.Context, username string) (*model.Brawler, error) {
	var b model.Brawler
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, board.NotFound("Brawler %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get brawler %q: %w", username, err)
	}
	return &b, nil
}

func (s *BrawlerStore) Create(ctx context.Context, b *model.Brawler) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("store: create brawler: %w", err)
	}
	return nil
}

func (s *BrawlerStore) AddPoints(ctx context.Context, id int64, delta int) error {
	res := s.db.WithContext(ctx).Model(&model.Brawler{}).
		Where("id = ?", id).
		UpdateColumn("total_points", gorm.Expr("total_points + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("store: add %d points to %d: %w", delta, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return board.NotFound("Brawler %d not found", id)
	}
	return nil
}

func (s *BrawlerStore) UpdateDisplayName(ctx context.Context, id int64, name string) error {
	return s.updateColumn(ctx, id, "display_name", name)
}

func (s *BrawlerStore) UpdateAvatar(ctx context.Context, id int64, url string) error {
	return s.updateColumn(ctx, id, "avatar_url", url)
}

func (s *BrawlerStore) updateColumn(ctx context.Context, id int64, column string, value interface{}) error {
	res := s.db.WithContext(ctx).Model(&model.Brawler{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return fmt.Errorf("store: update brawler %d %s: %w", id, column, res.Error)
	}
	if res.RowsAffected == 0 {
		return board.NotFound("Brawler %d not found", id)
	}
	return nil
}

// Top returns the n brawlers with the most points, ties broken by id.
func (s *BrawlerStore) Top(ctx context.Context, n int) ([]model.Brawler, error) {
	var out []model.Brawler
	err := s.db.WithContext(ctx).
		Order("total_points DESC").Order("id ASC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("store: leaderboard: %w", err)
	}
	return out, nil
}

// Stats counts the crews a brawler joined and the completed missions they
// took part in as chief or crew.
func (s *BrawlerStore) Stats(ctx context.Context, id int64) (BrawlerStats, error) {
	var joined, success int64
	err := s.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Where("brawler_id = ?", id).
		Count(&joined).Error
	if err != nil {
		return BrawlerStats{}, fmt.Errorf("store: joined count of %d: %w", id, err)
	}
	err = s.db.WithContext(ctx).Model(&model.Mission{}).
		Where("status = ?", string(model.MissionCompleted)).
		Where("chief_id = ? OR id IN (?)", id,
			s.db.Model(&model.CrewMembership{}).Select("mission_id").Where("brawler_id = ?", id)).
		Count(&success).Error
	if err != nil {
		return BrawlerStats{}, fmt.Errorf("store: success count of %d: %w", id, err)
	}
	return BrawlerStats{MissionJoinedCount: int(joined), MissionSuccessCount: int(success)}, nil
}
