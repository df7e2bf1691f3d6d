package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/model"
	"gorm.io/gorm"
)

// MissionStore implements board.MissionStore.
type MissionStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMissionStore creates a MissionStore.
func NewMissionStore(db *gorm.DB) *MissionStore {
	return &MissionStore{db: db, now: time.Now}
}

func (s *MissionStore) Add(ctx context.Context, m *model.Mission) (int64, error) {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, fmt.Errorf("store: create mission: %w", err)
	}
	return m.ID, nil
}

func (s *MissionStore) Edit(ctx context.Context, id int64, expected model.MissionStatus, ch board.MissionChanges) (bool, error) {
	updates := map[string]interface{}{"updated_at": s.now().UTC()}
	if ch.Name != nil {
		updates["name"] = *ch.Name
	}
	if ch.Description != nil {
		updates["description"] = *ch.Description
	}
	if ch.MaxCrew != nil {
		updates["max_crew"] = *ch.MaxCrew
	}
	if ch.Difficulty != nil {
		updates["difficulty"] = *ch.Difficulty
	}
	if ch.BasePoints != nil {
		updates["base_points"] = *ch.BasePoints
	}
	if ch.DueDate != nil {
		updates["due_date"] = *ch.DueDate
	}
	if ch.Status != nil {
		updates["status"] = string(*ch.Status)
		if *ch.Status == model.MissionCompleted {
			if expected != model.MissionCompleted {
				updates["completed_at"] = s.now().UTC()
			}
		} else {
			updates["completed_at"] = nil
		}
	}

	res := s.db.WithContext(ctx).Model(&model.Mission{}).
		Where("id = ? AND status = ?", id, string(expected)).
		Where(crewCountSQL + " = 0").
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("store: edit mission %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *MissionStore) Remove(ctx context.Context, id, chiefID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND chief_id = ?", id, chiefID).
		Where(crewCountSQL + " = 0").
		Delete(&model.Mission{})
	if res.Error != nil {
		return false, fmt.Errorf("store: remove mission %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *MissionStore) GetOne(ctx context.Context, id int64) (*model.Mission, error) {
	var m model.Mission
	err := s.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, board.NotFound("Mission %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get mission %d: %w", id, err)
	}
	return &m, nil
}

func (s *MissionStore) GetAll(ctx context.Context, filter board.Filter) ([]board.MissionWithCrew, error) {
	offset := filter.Normalize()
	q := s.db.WithContext(ctx).Model(&model.Mission{})
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", containsPattern(filter.Name))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.ChiefID != 0 {
		q = q.Where("chief_id = ?", filter.ChiefID)
	}

	var missions []model.Mission
	err := q.Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&missions).Error
	if err != nil {
		return nil, fmt.Errorf("store: list missions: %w", err)
	}
	return s.withCrew(ctx, missions)
}

func (s *MissionStore) GetJoined(ctx context.Context, brawlerID int64) ([]board.MissionWithCrew, error) {
	var missions []model.Mission
	err := s.db.WithContext(ctx).
		Where("chief_id = ? OR id IN (?)", brawlerID,
			s.db.Model(&model.CrewMembership{}).Select("mission_id").Where("brawler_id = ?", brawlerID)).
		Order("created_at DESC").Order("id DESC").
		Find(&missions).Error
	if err != nil {
		return nil, fmt.Errorf("store: joined missions of %d: %w", brawlerID, err)
	}
	return s.withCrew(ctx, missions)
}

func (s *MissionStore) Transition(ctx context.Context, t board.Transition) (bool, error) {
	from := make([]string, 0, len(t.From))
	for _, st := range t.From {
		from = append(from, string(st))
	}
	updates := map[string]interface{}{"status": string(t.To)}
	if t.To == model.MissionCompleted {
		updates["completed_at"] = s.now().UTC()
	}

	q := s.db.WithContext(ctx).Model(&model.Mission{}).
		Where("id = ? AND chief_id = ? AND status IN ?", t.MissionID, t.ChiefID, from)
	if t.RequireCrew {
		q = q.Where(crewCountSQL + " > 0").Where(crewCountSQL + " < max_crew")
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("store: transition mission %d to %s: %w", t.MissionID, t.To, res.Error)
	}
	return res.RowsAffected == 1, nil
}

type crewCount struct {
	MissionID int64
	N         int
}

// withCrew attaches crew sizes with one grouped query.
func (s *MissionStore) withCrew(ctx context.Context, missions []model.Mission) ([]board.MissionWithCrew, error) {
	out := make([]board.MissionWithCrew, 0, len(missions))
	if len(missions) == 0 {
		return out, nil
	}
	ids := make([]int64, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}
	var counts []crewCount
	err := s.db.WithContext(ctx).Model(&model.CrewMembership{}).
		Select("mission_id, COUNT(*) AS n").
		Where("mission_id IN ?", ids).
		Group("mission_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("store: crew counts: %w", err)
	}
	byID := make(map[int64]int, len(counts))
	for _, c := range counts {
		byID[c.MissionID] = c.N
	}
	for _, m := range missions {
		out = append(out, board.MissionWithCrew{Mission: m, CrewCount: byID[m.ID]})
	}
	return out, nil
}
