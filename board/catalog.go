package board

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

const msgCrewPresent = "Mission has been taken by brawler for now!"

// AddMission is the authoring input for a new mission.
type AddMission struct {
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	MaxCrew     int        `json:"max_crew"`
	Difficulty  string     `json:"difficulty"`
	DueDate     *time.Time `json:"due_date"`
}

// EditMission lists the fields a chief may overwrite; nil fields are kept.
type EditMission struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	MaxCrew     *int       `json:"max_crew"`
	Difficulty  *string    `json:"difficulty"`
	DueDate     *time.Time `json:"due_date"`
}

// Catalog validates and persists mission authoring.
type Catalog struct {
	missions MissionStore
	roster   CrewRoster
	ledger   *PointLedger
	rules    Rules
	sink     EventSink
	logger   *zap.Logger
}

// NewCatalog creates a Catalog.
func NewCatalog(missions MissionStore, roster CrewRoster, ledger *PointLedger, rules Rules, sink EventSink, logger *zap.Logger) *Catalog {
	if sink == nil {
		sink = NopSink
	}
	return &Catalog{
		missions: missions,
		roster:   roster,
		ledger:   ledger,
		rules:    rules.withDefaults(),
		sink:     sink,
		logger:   logger,
	}
}

func (c *Catalog) nameTooShort(name string) error {
	if utf8.RuneCountInString(name) < c.rules.MinNameLength {
		return newError(KindValidation, "Mission name must be at least %d characters long.", c.rules.MinNameLength)
	}
	return nil
}

// Add creates an Open mission owned by chiefID.
func (c *Catalog) Add(ctx context.Context, chiefID int64, in AddMission) (int64, error) {
	daily, err := c.roster.DailyInteractionCount(ctx, chiefID)
	if err != nil {
		return 0, err
	}
	if daily >= c.rules.DailyMissionLimit {
		return 0, newError(KindLimit,
			"Daily mission limit (%d) reached. You cannot create or join more missions today.", c.rules.DailyMissionLimit)
	}

	name := strings.TrimSpace(in.Name)
	if err := c.nameTooShort(name); err != nil {
		return 0, err
	}
	if in.MaxCrew < 1 {
		return 0, newError(KindValidation, "Mission max crew must be at least 1.")
	}

	m := &model.Mission{
		Name:        name,
		Description: trimmedOrNil(in.Description),
		Status:      model.MissionOpen,
		ChiefID:     chiefID,
		MaxCrew:     in.MaxCrew,
		Difficulty:  CanonicalDifficulty(in.Difficulty),
		BasePoints:  BasePoints(in.Difficulty),
		DueDate:     in.DueDate,
	}
	id, err := c.missions.Add(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("catalog: add mission: %w", err)
	}
	c.sink.MissionChanged(ctx, MissionEvent{Action: ActionCreate, MissionID: id, ActorID: chiefID, To: model.MissionOpen})
	return id, nil
}

// Edit overwrites the given fields of a mission that nobody has joined.
// Switching the status to Completed here awards points exactly as the
// Complete transition does, using the points the mission had before the
// edit.
func (c *Catalog) Edit(ctx context.Context, missionID, chiefID int64, in EditMission) (int64, error) {
	crew, err := c.roster.CrewCounting(ctx, missionID)
	if err != nil {
		return 0, err
	}
	if crew > 0 {
		return 0, newError(KindCapacity, msgCrewPresent)
	}

	var changes MissionChanges
	if name := trimmedOrNil(in.Name); name != nil {
		if err := c.nameTooShort(*name); err != nil {
			return 0, err
		}
		changes.Name = name
	}
	changes.Description = trimmedOrNil(in.Description)
	if in.Status != nil {
		st, ok := model.ParseMissionStatus(*in.Status)
		if !ok {
			return 0, newError(KindValidation, "Unknown mission status %q.", *in.Status)
		}
		changes.Status = &st
	}
	if in.MaxCrew != nil {
		if *in.MaxCrew < 1 {
			return 0, newError(KindValidation, "Mission max crew must be at least 1.")
		}
		changes.MaxCrew = in.MaxCrew
	}
	if in.Difficulty != nil {
		d := CanonicalDifficulty(*in.Difficulty)
		p := BasePoints(*in.Difficulty)
		changes.Difficulty = &d
		changes.BasePoints = &p
	}
	changes.DueDate = in.DueDate

	old, err := c.missions.GetOne(ctx, missionID)
	if err != nil {
		return 0, err
	}
	if old.ChiefID != chiefID {
		return 0, newError(KindAuthorization, "Only the Chief can edit the mission")
	}

	applied, err := c.missions.Edit(ctx, missionID, old.Status, changes)
	if err != nil {
		return 0, fmt.Errorf("catalog: edit mission %d: %w", missionID, err)
	}
	if !applied {
		return 0, newError(KindState, msgConcurrentChange)
	}

	ev := MissionEvent{Action: ActionEdit, MissionID: missionID, ActorID: chiefID, From: old.Status, To: old.Status}
	if changes.Status != nil {
		ev.To = *changes.Status
	}
	c.sink.MissionChanged(ctx, ev)

	if ev.To == model.MissionCompleted && old.Status != model.MissionCompleted {
		if _, err := c.ledger.Award(ctx, CompletionEvent{
			MissionID:     missionID,
			ChiefID:       old.ChiefID,
			MissionPoints: old.BasePoints,
		}); err != nil {
			return 0, err
		}
	}
	return missionID, nil
}

// Remove soft-deletes a mission that nobody has joined.
func (c *Catalog) Remove(ctx context.Context, missionID, chiefID int64) error {
	crew, err := c.roster.CrewCounting(ctx, missionID)
	if err != nil {
		return err
	}
	if crew > 0 {
		return newError(KindCapacity, msgCrewPresent)
	}
	m, err := c.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	if m.ChiefID != chiefID {
		return newError(KindAuthorization, "Only the Chief can remove the mission")
	}
	applied, err := c.missions.Remove(ctx, missionID, chiefID)
	if err != nil {
		return fmt.Errorf("catalog: remove mission %d: %w", missionID, err)
	}
	if !applied {
		return newError(KindState, msgConcurrentChange)
	}
	c.sink.MissionChanged(ctx, MissionEvent{Action: ActionRemove, MissionID: missionID, ActorID: chiefID, From: m.Status})
	return nil
}
