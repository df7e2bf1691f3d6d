package board

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CompletionEvent is raised once per transition into Completed, whichever
// operation caused it.
type CompletionEvent struct {
	MissionID     int64
	ChiefID       int64
	MissionPoints int
}

// PointLedger converts completions into capped point awards.
type PointLedger struct {
	brawlers BrawlerDirectory
	roster   CrewRoster
	cap      int
	sink     EventSink
	logger   *zap.Logger
}

// NewPointLedger creates a ledger enforcing the given daily cap.
func NewPointLedger(brawlers BrawlerDirectory, roster CrewRoster, dailyCap int, sink EventSink, logger *zap.Logger) *PointLedger {
	if sink == nil {
		sink = NopSink
	}
	if dailyCap <= 0 {
		dailyCap = DefaultRules().DailyPointCap
	}
	return &PointLedger{brawlers: brawlers, roster: roster, cap: dailyCap, sink: sink, logger: logger}
}

// AllowedPoints returns how many of missionPoints may still be credited to
// a brawler who has earnedToday points attributed to the current day.
// earnedToday already includes this mission, so it is subtracted back out
// before comparing against the cap.
func AllowedPoints(earnedToday, missionPoints, dailyCap int) int {
	prior := earnedToday - missionPoints
	if prior < 0 {
		prior = 0
	}
	allowed := dailyCap - prior
	if allowed < 0 {
		allowed = 0
	}
	if missionPoints < allowed {
		return missionPoints
	}
	return allowed
}

// Award credits every participant (crew then chief). It must be called
// after the Completed status is persisted.
//
// Participants are processed independently and are not rolled back: if
// crediting one brawler fails, those already credited keep their points
// and the error is returned.
func (l *PointLedger) Award(ctx context.Context, ev CompletionEvent) ([]Award, error) {
	ids, err := l.roster.CrewIDs(ctx, ev.MissionID)
	if err != nil {
		return nil, fmt.Errorf("ledger: crew of mission %d: %w", ev.MissionID, err)
	}
	ids = append(ids, ev.ChiefID)

	awards := make([]Award, 0, len(ids))
	for _, uid := range ids {
		earned, err := l.roster.DailyEarnedPoints(ctx, uid)
		if err != nil {
			return awards, fmt.Errorf("ledger: daily points of brawler %d: %w", uid, err)
		}
		a := Award{
			MissionID:   ev.MissionID,
			BrawlerID:   uid,
			EarnedToday: earned,
			Points:      AllowedPoints(earned, ev.MissionPoints, l.cap),
		}
		if a.Points > 0 {
			if err := l.brawlers.AddPoints(ctx, uid, a.Points); err != nil {
				l.logger.Error("point award failed",
					zap.Int64("mission_id", ev.MissionID),
					zap.Int64("brawler_id", uid),
					zap.Int("awarded_before_failure", len(awards)),
					zap.Error(err))
				return awards, fmt.Errorf("ledger: add %d points to brawler %d: %w", a.Points, uid, err)
			}
		}
		awards = append(awards, a)
		l.sink.PointsAwarded(ctx, a)
	}

	l.logger.Info("mission points awarded",
		zap.Int64("mission_id", ev.MissionID),
		zap.Int("mission_points", ev.MissionPoints),
		zap.Int("participants", len(awards)))
	return awards, nil
}
