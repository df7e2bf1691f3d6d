package board

import (
	"context"
	"fmt"

	"github.com/kasuganosora/missionboard/model"
	"go.uber.org/zap"
)

const (
	msgInvalidCondition = "Invalid condition to change stages!"
	msgConcurrentChange = "Mission was changed by another request, please retry"
)

// Lifecycle drives missions through Open -> InProgress -> Completed|Failed.
// Only the chief may move a mission.
type Lifecycle struct {
	missions MissionStore
	roster   CrewRoster
	ledger   *PointLedger
	sink     EventSink
	logger   *zap.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(missions MissionStore, roster CrewRoster, ledger *PointLedger, sink EventSink, logger *zap.Logger) *Lifecycle {
	if sink == nil {
		sink = NopSink
	}
	return &Lifecycle{missions: missions, roster: roster, ledger: ledger, sink: sink, logger: logger}
}

// Start moves an Open or Failed mission into InProgress.
func (lc *Lifecycle) Start(ctx context.Context, missionID, requesterID int64) error {
	m, err := lc.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	crew, err := lc.roster.CrewCounting(ctx, missionID)
	if err != nil {
		return err
	}
	if err := checkStart(m, crew, requesterID); err != nil {
		return err
	}
	return lc.apply(ctx, m, requesterID, ActionStart, Transition{
		MissionID:   missionID,
		ChiefID:     requesterID,
		From:        []model.MissionStatus{model.MissionOpen, model.MissionFailed},
		To:          model.MissionInProgress,
		RequireCrew: true,
	})
}

// Complete moves an InProgress mission into Completed and awards points to
// the crew and the chief.
func (lc *Lifecycle) Complete(ctx context.Context, missionID, requesterID int64) error {
	m, err := lc.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	if err := checkInProgress(m, requesterID, "complete"); err != nil {
		return err
	}
	if err := lc.apply(ctx, m, requesterID, ActionComplete, Transition{
		MissionID: missionID,
		ChiefID:   requesterID,
		From:      []model.MissionStatus{model.MissionInProgress},
		To:        model.MissionCompleted,
	}); err != nil {
		return err
	}
	_, err = lc.ledger.Award(ctx, CompletionEvent{
		MissionID:     m.ID,
		ChiefID:       m.ChiefID,
		MissionPoints: m.BasePoints,
	})
	return err
}

// Fail moves an InProgress mission into Failed. A failed mission may be
// started again.
func (lc *Lifecycle) Fail(ctx context.Context, missionID, requesterID int64) error {
	m, err := lc.missions.GetOne(ctx, missionID)
	if err != nil {
		return err
	}
	if err := checkInProgress(m, requesterID, "fail"); err != nil {
		return err
	}
	return lc.apply(ctx, m, requesterID, ActionFail, Transition{
		MissionID: missionID,
		ChiefID:   requesterID,
		From:      []model.MissionStatus{model.MissionInProgress},
		To:        model.MissionFailed,
	})
}

func (lc *Lifecycle) apply(ctx context.Context, m *model.Mission, requesterID int64, action string, t Transition) error {
	applied, err := lc.missions.Transition(ctx, t)
	if err != nil {
		return fmt.Errorf("lifecycle: %s mission %d: %w", action, m.ID, err)
	}
	if !applied {
		lc.logger.Warn("mission transition lost a race",
			zap.Int64("mission_id", m.ID),
			zap.String("action", action),
			zap.String("observed_status", string(m.Status)))
		return newError(KindState, msgConcurrentChange)
	}
	lc.sink.MissionChanged(ctx, MissionEvent{
		Action:    action,
		MissionID: m.ID,
		ActorID:   requesterID,
		From:      m.Status,
		To:        t.To,
	})
	return nil
}

// checkStart reports the first failing precondition in fixed order:
// status, empty crew, full crew, requester.
func checkStart(m *model.Mission, crew int, requesterID int64) error {
	statusOK := m.Status == model.MissionOpen || m.Status == model.MissionFailed
	if statusOK && crew > 0 && crew < m.MaxCrew && m.ChiefID == requesterID {
		return nil
	}
	switch {
	case !statusOK:
		return newError(KindState, "Mission status must be Open or Failed to start. Current: %s", m.Status)
	case crew <= 0:
		return newError(KindCapacity, "Mission must have at least one crew member")
	case crew >= m.MaxCrew:
		return newError(KindCapacity, "Mission crew limit reached or exceeded (Max: %d)", m.MaxCrew)
	case m.ChiefID != requesterID:
		return newError(KindAuthorization, "Only the Chief can start the mission")
	}
	return newError(KindState, msgInvalidCondition)
}

func checkInProgress(m *model.Mission, requesterID int64, verb string) error {
	if m.Status == model.MissionInProgress && m.ChiefID == requesterID {
		return nil
	}
	switch {
	case m.Status != model.MissionInProgress:
		return newError(KindState, "Mission must be In Progress to %s. Current: %s", verb, m.Status)
	case m.ChiefID != requesterID:
		return newError(KindAuthorization, "Only the Chief can %s the mission", verb)
	}
	return newError(KindState, msgInvalidCondition)
}
