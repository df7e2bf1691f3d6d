// Package events fans board activity out to the audit log, Prometheus
// counters, pub/sub subscribers and the leaderboard cache.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/kasuganosora/missionboard/audit"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/cache"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Channel is the pub/sub channel board events are published on.
const Channel = "board.events"

const (
	TypeMission = "mission"
	TypeAward   = "award"
)

const publishTimeout = 500 * time.Millisecond

// Envelope is the pub/sub payload.
type Envelope struct {
	Type    string              `json:"type"`
	Mission *board.MissionEvent `json:"mission,omitempty"`
	Award   *board.Award        `json:"award,omitempty"`
	At      time.Time           `json:"at"`
}

// Auditor receives audit entries without blocking.
type Auditor interface {
	Log(entry audit.Entry)
}

// LeaderboardInvalidator drops a cached ranking.
type LeaderboardInvalidator interface {
	InvalidateLeaderboard(ctx context.Context) error
}

// Sink implements board.EventSink. Every collaborator is optional.
type Sink struct {
	auditor     Auditor
	pubsub      cache.PubSub
	leaderboard LeaderboardInvalidator
	logger      *zap.Logger

	missionEvents *prometheus.CounterVec
	pointsTotal   prometheus.Counter
	cappedAwards  prometheus.Counter
}

var _ board.EventSink = (*Sink)(nil)

// Options are the Sink collaborators.
type Options struct {
	Auditor     Auditor
	PubSub      cache.PubSub
	Leaderboard LeaderboardInvalidator
	Registerer  prometheus.Registerer
}

// NewSink creates a Sink and registers its counters when opts.Registerer is set.
func NewSink(opts Options, logger *zap.Logger) *Sink {
	s := &Sink{
		auditor:     opts.Auditor,
		pubsub:      opts.PubSub,
		leaderboard: opts.Leaderboard,
		logger:      logger,
		missionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "missionboard",
			Name:      "mission_events_total",
			Help:      "Successful mission mutations by action",
		}, []string{"action"}),
		pointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "missionboard",
			Name:      "points_awarded_total",
			Help:      "Points credited to brawlers",
		}),
		cappedAwards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "missionboard",
			Name:      "awards_capped_total",
			Help:      "Award evaluations that credited nothing because of the daily cap",
		}),
	}
	if opts.Registerer != nil {
		opts.Registerer.MustRegister(s.missionEvents, s.pointsTotal, s.cappedAwards)
	}
	return s
}

// MissionChanged implements board.EventSink.
func (s *Sink) MissionChanged(ctx context.Context, ev board.MissionEvent) {
	s.missionEvents.WithLabelValues(ev.Action).Inc()
	if s.auditor != nil {
		actor, mission := ev.ActorID, ev.MissionID
		s.auditor.Log(audit.Entry{
			TraceID:   mw.TraceIDFrom(ctx),
			BrawlerID: &actor,
			MissionID: &mission,
			Action:    ev.Action,
			Detail:    ev,
		})
	}
	s.publish(ctx, Envelope{Type: TypeMission, Mission: &ev, At: time.Now().UTC()})
}

// PointsAwarded implements board.EventSink.
func (s *Sink) PointsAwarded(ctx context.Context, a board.Award) {
	if a.Points <= 0 {
		s.cappedAwards.Inc()
		return
	}
	s.pointsTotal.Add(float64(a.Points))
	if s.auditor != nil {
		brawler, mission := a.BrawlerID, a.MissionID
		s.auditor.Log(audit.Entry{
			TraceID:   mw.TraceIDFrom(ctx),
			BrawlerID: &brawler,
			MissionID: &mission,
			Action:    "points.award",
			Detail:    a,
		})
	}
	if s.leaderboard != nil {
		if err := s.leaderboard.InvalidateLeaderboard(ctx); err != nil {
			s.logger.Warn("leaderboard invalidate failed", zap.Int64("brawler_id", a.BrawlerID), zap.Error(err))
		}
	}
	s.publish(ctx, Envelope{Type: TypeAward, Award: &a, At: time.Now().UTC()})
}

func (s *Sink) publish(ctx context.Context, env Envelope) {
	if s.pubsub == nil {
		return
	}
	raw, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("event encode failed", zap.String("type", env.Type), zap.Error(err))
		return
	}
	// Detached from request cancellation.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.pubsub.Publish(pctx, Channel, string(raw)); err != nil {
		s.logger.Warn("event publish failed", zap.String("type", env.Type), zap.Error(err))
	}
}
