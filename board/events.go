package board

import (
	"context"

	"github.com/kasuganosora/missionboard/model"
)

// Mission actions reported to an EventSink.
const (
	ActionCreate   = "mission.create"
	ActionEdit     = "mission.edit"
	ActionRemove   = "mission.remove"
	ActionStart    = "mission.start"
	ActionComplete = "mission.complete"
	ActionFail     = "mission.fail"
	ActionJoin     = "crew.join"
	ActionLeave    = "crew.leave"
)

// MissionEvent describes a successful mission mutation.
type MissionEvent struct {
	Action    string              `json:"action"`
	MissionID int64               `json:"mission_id"`
	ActorID   int64               `json:"actor_id"`
	From      model.MissionStatus `json:"from,omitempty"`
	To        model.MissionStatus `json:"to,omitempty"`
}

// Award is the outcome of the point cap for one participant.
type Award struct {
	MissionID   int64 `json:"mission_id"`
	BrawlerID   int64 `json:"brawler_id"`
	EarnedToday int   `json:"earned_today"`
	Points      int   `json:"points"`
}

// EventSink observes board activity. Implementations must not block.
type EventSink interface {
	MissionChanged(ctx context.Context, ev MissionEvent)
	PointsAwarded(ctx context.Context, a Award)
}

type nopSink struct{}

func (nopSink) MissionChanged(context.Context, MissionEvent) {}
func (nopSink) PointsAwarded(context.Context, Award)         {}

// NopSink discards all events.
var NopSink EventSink = nopSink{}
