package board

import (
	"context"
	"fmt"

	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

// CrewOperation handles brawlers joining and leaving missions.
type CrewOperation struct {
	missions MissionStore
	roster   CrewRoster
	crew     CrewStore
	rules    Rules
	sink     EventSink
	logger   *zap.Logger
}

// NewCrewOperation creates a CrewOperation.
func NewCrewOperation(missions MissionStore, roster CrewRoster, crew CrewStore, rules Rules, sink EventSink, logger *zap.Logger) *CrewOperation {
	if sink == nil {
		sink = NopSink
	}
	return &CrewOperation{
		missions: missions,
		roster:   roster,
		crew:     crew,
		rules:    rules.withDefaults(),
		sink:     sink,
		logger:   logger,
	}
}

// Join adds brawlerID to the crew of an Open mission. Joining counts
// towards the same daily limit as creating missions.
func (op *CrewOperation) Join(ctx context.Context, missionID, brawlerID int64) error {
	m, err := op.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	if m.Status != model.MissionOpen {
		return newError(KindState, "Mission must be Open to join. Current: %s", m.Status)
	}
	if m.ChiefID == brawlerID {
		return newError(KindValidation, "The Chief cannot join their own mission as crew")
	}
	member, err := op.crew.IsMember(ctx, missionID, brawlerID)
	if err != nil {
		return err
	}
	if member {
		return newError(KindValidation, "You have already joined this mission")
	}
	daily, err := op.roster.DailyInteractionCount(ctx, brawlerID)
	if err != nil {
		return err
	}
	if daily >= op.rules.DailyMissionLimit {
		return newError(KindLimit,
			"Daily mission limit (%d) reached. You cannot create or join more missions today.", op.rules.DailyMissionLimit)
	}
	crew, err := op.roster.CrewCounting(ctx, missionID)
	if err != nil {
		return err
	}
	if crew >= m.MaxCrew {
		return newError(KindCapacity, "Mission crew limit reached or exceeded (Max: %d)", m.MaxCrew)
	}

	applied, err := op.crew.Join(ctx, missionID, brawlerID)
	if err != nil {
		return fmt.Errorf("crew: join mission %d: %w", missionID, err)
	}
	if !applied {
		return newError(KindCapacity, "Mission crew is full or no longer open")
	}
	op.sink.MissionChanged(ctx, MissionEvent{Action: ActionJoin, MissionID: missionID, ActorID: brawlerID, From: m.Status, To: m.Status})
	return nil
}

// Leave removes brawlerID from the crew of an Open mission.
func (op *CrewOperation) Leave(ctx context.Context, missionID, brawlerID int64) error {
	m, err := op.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	if m.Status != model.MissionOpen {
		return newError(KindState, "Mission must be Open to leave. Current: %s", m.Status)
	}
	applied, err := op.crew.Leave(ctx, missionID, brawlerID)
	if err != nil {
		return fmt.Errorf("crew: leave mission %d: %w", missionID, err)
	}
	if !applied {
		return NotFound("You are not a crew member of mission %d", missionID)
	}
	op.sink.MissionChanged(ctx, MissionEvent{Action: ActionLeave, MissionID: missionID, ActorID: brawlerID, From: m.Status, To: m.Status})
	return nil
}
