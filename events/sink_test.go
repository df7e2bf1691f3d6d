package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kasuganosora/missionboard/audit"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/model"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAuditor) Log(e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) InvalidateLeaderboard(context.Context) error {
	c.calls++
	return c.err
}

func TestSink_MissionChanged(t *testing.T) {
	_, ps := testutil.SetupTestCache(t)
	aud := &recordingAuditor{}
	reg := prometheus.NewRegistry()
	s := events.NewSink(events.Options{Auditor: aud, PubSub: ps, Registerer: reg}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub, err := ps.Subscribe(ctx, events.Channel)
	require.NoError(t, err)
	defer unsub()

	ev := board.MissionEvent{
		Action: board.ActionStart, MissionID: 5, ActorID: 2,
		From: model.MissionOpen, To: model.MissionInProgress,
	}
	s.MissionChanged(mw.WithTraceID(ctx, "trace-1"), ev)

	require.Len(t, aud.entries, 1)
	e := aud.entries[0]
	assert.Equal(t, "trace-1", e.TraceID)
	assert.Equal(t, board.ActionStart, e.Action)
	assert.Equal(t, int64(2), *e.BrawlerID)
	assert.Equal(t, int64(5), *e.MissionID)

	select {
	case msg := <-ch:
		var env events.Envelope
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
		assert.Equal(t, events.TypeMission, env.Type)
		require.NotNil(t, env.Mission)
		assert.Equal(t, ev, *env.Mission)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}

	n, err := promtest.GatherAndCount(reg, "missionboard_mission_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSink_PointsAwarded(t *testing.T) {
	aud := &recordingAuditor{}
	inv := &countingInvalidator{}
	s := events.NewSink(events.Options{Auditor: aud, Leaderboard: inv}, zap.NewNop())
	ctx := context.Background()

	s.PointsAwarded(ctx, board.Award{MissionID: 1, BrawlerID: 3, EarnedToday: 15, Points: 0})
	assert.Empty(t, aud.entries, "capped awards are not audited")
	assert.Zero(t, inv.calls)

	s.PointsAwarded(ctx, board.Award{MissionID: 1, BrawlerID: 3, EarnedToday: 5, Points: 5})
	require.Len(t, aud.entries, 1)
	assert.Equal(t, "points.award", aud.entries[0].Action)
	assert.Equal(t, 1, inv.calls)

	// A failing invalidation is logged, not propagated.
	inv.err = errors.New("cache down")
	s.PointsAwarded(ctx, board.Award{MissionID: 2, BrawlerID: 3, EarnedToday: 8, Points: 3})
	assert.Equal(t, 2, inv.calls)
}

func TestSink_NoCollaborators(t *testing.T) {
	s := events.NewSink(events.Options{}, zap.NewNop())
	assert.NotPanics(t, func() {
		s.MissionChanged(context.Background(), board.MissionEvent{Action: board.ActionCreate})
		s.PointsAwarded(context.Background(), board.Award{Points: 3})
	})
}
