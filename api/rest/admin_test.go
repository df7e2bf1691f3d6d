package rest_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/kasuganosora/missionboard/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmin_RequiresKey(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/scheduler", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/scheduler", nil, "X-Admin-Key", "wrong").Code)
}

func TestAdmin_SchedulerTasks(t *testing.T) {
	s := newTestServer(t)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.sched.AddCron("nightly", "0 0 * * *", func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))
	s.sched.AddTicker("sweep", time.Hour, func() {})

	w := s.do(http.MethodGet, "/api/admin/scheduler", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Tasks []scheduler.TaskInfo `json:"tasks"`
	}
	decode(t, w, &resp)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, "nightly", resp.Tasks[0].Name)
	assert.Equal(t, "cron", resp.Tasks[0].Kind)

	w = s.do(http.MethodPost, "/api/admin/scheduler/nightly/run", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	select {
	case <-ran:
	default:
		t.Fatal("task did not run")
	}

	w = s.do(http.MethodPost, "/api/admin/scheduler/missing/run", nil, "X-Admin-Key", testAdminKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_RebuildLeaderboard(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "one")
	s.signUp(t, "two")

	w := s.do(http.MethodPost, "/api/admin/leaderboard/rebuild", nil, "X-Admin-Key", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"refreshed":2}`, w.Body.String())
}
