package board

import (
	"context"
	"time"

	"github.com/kasuganosora/missionboard/model"
	"golang.org/x/sync/errgroup"
)

// MissionView is the read model of a mission.
type MissionView struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Description *string             `json:"description"`
	Status      model.MissionStatus `json:"status"`
	ChiefID     int64               `json:"chief_id"`
	CrewCount   int                 `json:"crew_count"`
	MaxCrew     int                 `json:"max_crew"`
	Difficulty  string              `json:"difficulty"`
	BasePoints  int                 `json:"base_points"`
	DueDate     *time.Time          `json:"due_date"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// NewMissionView merges a mission with its crew size.
func NewMissionView(m *model.Mission, crewCount int) MissionView {
	return MissionView{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		ChiefID:     m.ChiefID,
		CrewCount:   crewCount,
		MaxCrew:     m.MaxCrew,
		Difficulty:  m.Difficulty,
		BasePoints:  m.BasePoints,
		DueDate:     m.DueDate,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Viewing serves mission reads.
type Viewing struct {
	missions MissionStore
	roster   CrewRoster
}

// NewViewing creates a Viewing.
func NewViewing(missions MissionStore, roster CrewRoster) *Viewing {
	return &Viewing{missions: missions, roster: roster}
}

// Get returns one mission with its crew count.
func (v *Viewing) Get(ctx context.Context, missionID int64) (MissionView, error) {
	var (
		m    *model.Mission
		crew int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		m, err = v.missions.GetOne(egCtx, missionID)
		return err
	})
	eg.Go(func() error {
		var err error
		crew, err = v.roster.CrewCounting(egCtx, missionID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return MissionView{}, err
	}
	return NewMissionView(m, crew), nil
}

// List returns the missions matching filter.
func (v *Viewing) List(ctx context.Context, filter Filter) ([]MissionView, error) {
	rows, err := v.missions.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return toViews(rows), nil
}

// Joined lists the missions a brawler chiefs or crews.
func (v *Viewing) Joined(ctx context.Context, brawlerID int64) ([]MissionView, error) {
	rows, err := v.missions.GetJoined(ctx, brawlerID)
	if err != nil {
		return nil, err
	}
	return toViews(rows), nil
}

// Crew lists the brawlers who joined a mission.
func (v *Viewing) Crew(ctx context.Context, missionID int64) ([]model.Brawler, error) {
	if _, err := v.missions.GetOne(ctx, missionID); err != nil {
		return nil, err
	}
	return v.roster.CrewMembers(ctx, missionID)
}

func toViews(rows []MissionWithCrew) []MissionView {
	out := make([]MissionView, 0, len(rows))
	for i := range rows {
		out = append(out, NewMissionView(&rows[i].Mission, rows[i].CrewCount))
	}
	return out
}
