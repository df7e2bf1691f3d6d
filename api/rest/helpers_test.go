package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/api/rest"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/brawler"
	"github.com/kasuganosora/missionboard/chat"
	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/scheduler"
	"github.com/kasuganosora/missionboard/store"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testAdminKey = "admin-secret"

type testServer struct {
	r        *gin.Engine
	db       *gorm.DB
	brawlers *brawler.Service
	sched    *scheduler.Scheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{
		JWTSecret:  "test-secret",
		JWTTTLH:    72 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}

	brawlerStore := store.NewBrawlerStore(db)
	svc := brawler.NewService(brawlerStore, c, sec, 10, logger)
	sink := events.NewSink(events.Options{PubSub: ps, Leaderboard: svc}, logger)
	b := board.New(board.Deps{
		Missions: store.NewMissionStore(db),
		Brawlers: brawlerStore,
		Roster:   store.NewRoster(db, store.NewCalendar(time.UTC)),
		Crew:     store.NewCrewStore(db),
		Sink:     sink,
	}, board.DefaultRules(), logger)
	chatStore := chat.NewStore(c, ps, 50, 200, logger)
	sched := scheduler.New(time.UTC, logger)
	t.Cleanup(sched.Stop)

	h := &rest.Handlers{
		Auth:    rest.NewAuthHandler(svc, logger),
		Brawler: rest.NewBrawlerHandler(svc, b.Viewing, logger),
		Mission: rest.NewMissionHandler(b, logger),
		Chat:    rest.NewChatHandler(chatStore, b.Viewing, brawlerStore, logger),
	}
	r := gin.New()
	r.Use(mw.TraceID())
	h.Mount(r.Group("/api/v1"), mw.Auth(sec, c))
	adminG := r.Group("/api/admin", mw.AdminAuth(testAdminKey))
	rest.NewAdminHandler(sched, svc, logger).MountAdmin(adminG)

	return &testServer{r: r, db: db, brawlers: svc, sched: sched}
}

// do sends a JSON request. headers are name/value pairs.
func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

// as sends a request authenticated with token.
func (s *testServer) as(token, method, path string, body interface{}) *httptest.ResponseRecorder {
	return s.do(method, path, body, "Authorization", "Bearer "+token)
}

type member struct {
	ID    int64
	Token string
}

// signUp registers a brawler and returns its id and bearer token.
func (s *testServer) signUp(t *testing.T, username string) member {
	t.Helper()
	p, err := s.brawlers.Register(context.Background(), brawler.Register{Username: username, Password: "pass1234"})
	require.NoError(t, err)
	return member{ID: p.User.ID, Token: p.AccessToken}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
