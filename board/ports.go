package board

import (
	"context"
	"time"

	"github.com/kasuganosora/missionboard/model"
)

// Filter narrows a mission listing. Zero values mean "no constraint".
type Filter struct {
	Name    string
	Status  model.MissionStatus
	ChiefID int64
	Page    int
	Limit   int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize clamps paging to sane bounds and returns the offset.
func (f *Filter) Normalize() (offset int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return (f.Page - 1) * f.Limit
}

// MissionWithCrew pairs a stored mission with its current crew size.
type MissionWithCrew struct {
	Mission   model.Mission
	CrewCount int
}

// Transition is a conditional status write. The store applies it only if
// the mission is still owned by ChiefID, its status is one of From and,
// when RequireCrew is set, 0 < crew_count < max_crew.
type Transition struct {
	MissionID   int64
	ChiefID     int64
	From        []model.MissionStatus
	To          model.MissionStatus
	RequireCrew bool
}

// MissionChanges holds the fields an edit overwrites; nil leaves a column
// untouched.
type MissionChanges struct {
	Name        *string
	Description *string
	Status      *model.MissionStatus
	MaxCrew     *int
	Difficulty  *string
	BasePoints  *int
	DueDate     *time.Time
}

// MissionStore persists missions.
type MissionStore interface {
	Add(ctx context.Context, m *model.Mission) (int64, error)
	// Edit applies changes only while the mission has no crew and its
	// status still equals expected. applied is false otherwise.
	Edit(ctx context.Context, id int64, expected model.MissionStatus, changes MissionChanges) (applied bool, err error)
	// Remove soft-deletes the mission if chiefID owns it and it has no crew.
	Remove(ctx context.Context, id, chiefID int64) (applied bool, err error)
	GetOne(ctx context.Context, id int64) (*model.Mission, error)
	GetAll(ctx context.Context, filter Filter) ([]MissionWithCrew, error)
	// GetJoined lists missions the brawler chiefs or crews.
	GetJoined(ctx context.Context, brawlerID int64) ([]MissionWithCrew, error)
	Transition(ctx context.Context, t Transition) (applied bool, err error)
}

// BrawlerDirectory reads brawlers and applies point deltas.
type BrawlerDirectory interface {
	FindByID(ctx context.Context, id int64) (*model.Brawler, error)
	// AddPoints is additive and not idempotent; unknown ids fail.
	AddPoints(ctx context.Context, id int64, delta int) error
}

// CrewRoster answers crew and per-day accounting queries.
type CrewRoster interface {
	CrewCounting(ctx context.Context, missionID int64) (int, error)
	// CrewIDs excludes the chief.
	CrewIDs(ctx context.Context, missionID int64) ([]int64, error)
	CrewMembers(ctx context.Context, missionID int64) ([]model.Brawler, error)
	// DailyEarnedPoints sums base points of missions completed today in
	// which the brawler took part, as chief or crew.
	DailyEarnedPoints(ctx context.Context, brawlerID int64) (int, error)
	// DailyInteractionCount counts missions created or joined today.
	DailyInteractionCount(ctx context.Context, brawlerID int64) (int, error)
}

// CrewStore mutates crew membership.
type CrewStore interface {
	// Join inserts the membership only while crew_count < max_crew and the
	// mission is Open.
	Join(ctx context.Context, missionID, brawlerID int64) (applied bool, err error)
	// Leave removes the membership only while the mission is Open.
	Leave(ctx context.Context, missionID, brawlerID int64) (applied bool, err error)
	IsMember(ctx context.Context, missionID, brawlerID int64) (bool, error)
}
