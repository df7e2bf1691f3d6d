package integration

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/missionboard/api/rest"
	"github.com/kasuganosora/missionboard/api/sse"
	"github.com/kasuganosora/missionboard/audit"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/brawler"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/chat"
	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/scheduler"
	"github.com/kasuganosora/missionboard/store"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// AdminKey is the X-Admin-Key accepted by the test server.
const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with every board subsystem wired together.
type TestServer struct {
	DB       *gorm.DB
	Cache    cache.Cache
	PubSub   cache.PubSub
	Audit    *audit.Service
	Brawlers *brawler.Service
	Sched    *scheduler.Scheduler
	Server   *httptest.Server
	URL      string // http://127.0.0.1:<port>
	Sec      config.SecurityConfig
}

// NewTestServer creates a fully wired board server for integration testing.
// It mirrors the dependency wiring in main.go.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// ---- Infrastructure ----
	db := testutil.SetupTestDB(t)
	c, pubsub := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		BcryptCost:     bcrypt.MinCost,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{}, // allow all origins
	}

	auditSvc := audit.New(db, audit.Options{FlushInterval: 50 * time.Millisecond}, logger)
	reg := prometheus.NewRegistry()

	// ---- Board ----
	brawlerStore := store.NewBrawlerStore(db)
	brawlerSvc := brawler.NewService(brawlerStore, c, sec, 10, logger)
	sink := events.NewSink(events.Options{
		Auditor:     auditSvc,
		PubSub:      pubsub,
		Leaderboard: brawlerSvc,
		Registerer:  reg,
	}, logger)
	b := board.New(board.Deps{
		Missions: store.NewMissionStore(db),
		Brawlers: brawlerStore,
		Roster:   store.NewRoster(db, store.NewCalendar(time.UTC)),
		Crew:     store.NewCrewStore(db),
		Sink:     sink,
	}, board.DefaultRules(), logger)
	chatStore := chat.NewStore(c, pubsub, 50, 500, logger)

	sched := scheduler.New(time.UTC, logger)
	require.NoError(t, sched.AddCron("leaderboard-rebuild", "0 0 * * *", func(ctx context.Context) error {
		_, err := brawlerSvc.RebuildLeaderboard(ctx)
		return err
	}))

	// ---- HTTP ----
	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Recovery(logger))
	r.Use(mw.NewMetricsBuilder(reg).Build())
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers := &apirest.Handlers{
		Auth:    apirest.NewAuthHandler(brawlerSvc, logger),
		Brawler: apirest.NewBrawlerHandler(brawlerSvc, b.Viewing, logger),
		Mission: apirest.NewMissionHandler(b, logger),
		Chat:    apirest.NewChatHandler(chatStore, b.Viewing, brawlerStore, logger),
	}
	handlers.Mount(r.Group("/api/v1"), mw.Auth(sec, c))
	adminG := r.Group("/api/admin", mw.AdminAuth(AdminKey))
	apirest.NewAdminHandler(sched, brawlerSvc, logger).MountAdmin(adminG)
	r.GET("/events", sse.NewHandler(pubsub, c, sec, logger).ServeSSE)

	srv := httptest.NewServer(r)
	ts := &TestServer{
		DB:       db,
		Cache:    c,
		PubSub:   pubsub,
		Audit:    auditSvc,
		Brawlers: brawlerSvc,
		Sched:    sched,
		Server:   srv,
		URL:      srv.URL,
		Sec:      sec,
	}
	t.Cleanup(ts.Close)
	return ts
}

// Close shuts down the server and background workers. Safe to call twice.
func (ts *TestServer) Close() {
	ts.Server.Close()
	ts.Sched.Stop()
	ts.Audit.Stop(context.Background())
}

// --- HTTP helpers ---

// Do sends a JSON request and returns the raw response. token may be empty.
func (ts *TestServer) Do(t *testing.T, method, path, token string, body interface{}, headers ...string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// Get sends an authenticated GET request.
func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodGet, path, token, nil)
}

// PostJSON sends a POST request with a JSON body. token may be empty.
func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPost, path, token, body)
}

// Patch sends an authenticated PATCH request without a body.
func (ts *TestServer) Patch(t *testing.T, path, token string) *http.Response {
	t.Helper()
	return ts.Do(t, http.MethodPatch, path, token, nil)
}

// ReadJSON decodes the response body into v and closes it.
func ReadJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, v), "body: %s", data)
}

// RequireStatus asserts the response code, printing the body on mismatch,
// and closes the body.
func RequireStatus(t *testing.T, resp *http.Response, code int) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != code {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected status %d, got %d: %s", code, resp.StatusCode, data)
	}
}

// --- Board helpers ---

// Register signs up a brawler and returns its access token and id.
func (ts *TestServer) Register(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/v1/brawlers/register", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return passport(t, resp)
}

// Login authenticates and returns the access token and brawler id.
func (ts *TestServer) Login(t *testing.T, username, password string) (string, int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/v1/authentication/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return passport(t, resp)
}

func passport(t *testing.T, resp *http.Response) (string, int64) {
	t.Helper()
	var p brawler.Passport
	ReadJSON(t, resp, &p)
	require.NotEmpty(t, p.AccessToken)
	return p.AccessToken, p.User.ID
}

// CreateMission adds a mission as the token's brawler and returns its id.
func (ts *TestServer) CreateMission(t *testing.T, token, name, difficulty string, maxCrew int) int64 {
	t.Helper()
	resp := ts.PostJSON(t, "/api/v1/mission-management", map[string]interface{}{
		"name":       name,
		"difficulty": difficulty,
		"max_crew":   maxCrew,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		MissionID int64 `json:"mission_id"`
	}
	ReadJSON(t, resp, &body)
	return body.MissionID
}

// Mission fetches the view of a mission.
func (ts *TestServer) Mission(t *testing.T, id int64) board.MissionView {
	t.Helper()
	resp := ts.Get(t, fmt.Sprintf("/api/v1/view/%d", id), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v board.MissionView
	ReadJSON(t, resp, &v)
	return v
}

// UniqueID returns a short unique string suitable for usernames and mission names.
var testCounter uint64

func UniqueID(prefix string) string {
	n := atomic.AddUint64(&testCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%100000, n)
}

// --- SSE client ---

// SSEEvent is one parsed server-sent event.
type SSEEvent struct {
	Name string
	Data string
}

// SSEClient reads events from /events.
type SSEClient struct {
	t      *testing.T
	resp   *http.Response
	events chan SSEEvent
	cancel context.CancelFunc
}

// ConnectSSE opens the event stream for token and waits for the connected event.
func (ts *TestServer) ConnectSSE(t *testing.T, token string) *SSEClient {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/events?token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatalf("SSE connect failed: %v", err)
	}
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sc := &SSEClient{t: t, resp: resp, events: make(chan SSEEvent, 64), cancel: cancel}
	go sc.readLoop()
	t.Cleanup(sc.Close)
	sc.RecvEvent("connected", 5*time.Second)
	return sc
}

func (sc *SSEClient) readLoop() {
	defer close(sc.events)
	rd := bufio.NewReader(sc.resp.Body)
	var ev SSEEvent
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.Name != "" || ev.Data != "" {
				sc.events <- ev
			}
			ev = SSEEvent{}
		case strings.HasPrefix(line, "event:"):
			ev.Name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.Data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

// RecvEvent reads events until one named name arrives (within timeout).
func (sc *SSEClient) RecvEvent(name string, timeout time.Duration) SSEEvent {
	sc.t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-sc.events:
			if !ok {
				sc.t.Fatalf("SSE stream closed while waiting for %q", name)
			}
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			sc.t.Fatalf("timed out waiting for SSE event %q", name)
			return SSEEvent{}
		}
	}
}

// RecvEnvelope reads board events until one with the given mission action arrives.
func (sc *SSEClient) RecvEnvelope(action string, timeout time.Duration) events.Envelope {
	sc.t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ev := sc.RecvEvent("board", time.Until(deadline))
		var env events.Envelope
		require.NoError(sc.t, json.Unmarshal([]byte(ev.Data), &env))
		if env.Mission != nil && env.Mission.Action == action {
			return env
		}
	}
	sc.t.Fatalf("timed out waiting for board action %q", action)
	return events.Envelope{}
}

// Close ends the stream.
func (sc *SSEClient) Close() {
	sc.cancel()
	_ = sc.resp.Body.Close()
}
