package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/missionboard/api/sse"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/config"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSec = config.SecurityConfig{
	JWTSecret:      "sse-secret",
	JWTTTLH:        time.Hour,
	AllowedOrigins: []string{"https://board.example"},
}

func newRouter(t *testing.T) (*gin.Engine, cache.Cache, cache.PubSub) {
	t.Helper()
	c, ps := testutil.SetupTestCache(t)
	r := gin.New()
	r.GET("/events", sse.NewHandler(ps, c, testSec, zap.NewNop()).ServeSSE)
	return r, c, ps
}

func session(t *testing.T, c cache.Cache, brawlerID int64) string {
	t.Helper()
	tok, err := mw.GenerateToken(brawlerID, testSec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), mw.SessionPrefix+tok, "1", time.Hour))
	return tok
}

func TestServeSSE_Rejections(t *testing.T) {
	r, c, _ := newRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/events?token="+session(t, c, 1), nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestServeSSE_StreamsBoardEvents(t *testing.T) {
	r, c, ps := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?token="+session(t, c, 7), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://board.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rd := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := rd.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				if name != "" {
					return name, data
				}
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
	}

	name, data := readEvent()
	assert.Equal(t, "connected", name)
	assert.JSONEq(t, `{"brawler_id":7}`, data)

	require.NoError(t, ps.Publish(ctx, "unrelated", "x"))
	require.NoError(t, ps.Publish(ctx, events.Channel, `{"type":"mission"}`))
	name, data = readEvent()
	assert.Equal(t, "board", name)
	assert.JSONEq(t, `{"type":"mission"}`, data)
}
