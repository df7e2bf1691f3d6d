package chat_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/chat"
	"github.com/kasuganosora/missionboard/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSendAndHistory(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	s := chat.NewStore(c, ps, 3, 20, zap.NewNop())
	ctx := context.Background()

	for _, txt := range []string{"one", "two", "three", "four"} {
		_, err := s.Send(ctx, 1, 7, "Thor", txt)
		require.NoError(t, err)
	}
	_, err := s.Send(ctx, 2, 7, "Thor", "elsewhere")
	require.NoError(t, err)

	hist, err := s.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, hist, 3, "history is bounded")
	assert.Equal(t, "two", hist[0].Content, "oldest retained first")
	assert.Equal(t, "four", hist[2].Content)
	assert.Equal(t, "Thor", hist[2].SenderName)
	assert.NotEmpty(t, hist[2].ID)

	other, err := s.History(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestHistory_Empty(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	s := chat.NewStore(c, nil, 10, 20, zap.NewNop())
	hist, err := s.History(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestSend_Validation(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	s := chat.NewStore(c, nil, 10, 5, zap.NewNop())
	ctx := context.Background()

	_, err := s.Send(ctx, 1, 1, "x", "   ")
	assert.ErrorIs(t, err, board.ErrValidation)
	_, err = s.Send(ctx, 1, 1, "x", strings.Repeat("a", 6))
	assert.ErrorIs(t, err, board.ErrValidation)

	m, err := s.Send(ctx, 1, 1, "x", " héllo ")
	require.NoError(t, err)
	assert.Equal(t, "héllo", m.Content, "length counts characters, not bytes")
}

func TestSend_Publishes(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	s := chat.NewStore(c, ps, 10, 100, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsub, err := ps.Subscribe(ctx, chat.Channel)
	require.NoError(t, err)
	defer unsub()

	sent, err := s.Send(ctx, 9, 3, "Nat", "on my way")
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var got chat.Message
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, int64(9), got.MissionID)
	case <-time.After(time.Second):
		t.Fatal("no chat message published")
	}
}

func TestClear(t *testing.T) {
	c, _ := testutil.SetupTestCache(t)
	s := chat.NewStore(c, nil, 10, 100, zap.NewNop())
	ctx := context.Background()
	_, err := s.Send(ctx, 1, 1, "x", "hi")
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, 1))
	hist, err := s.History(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, hist)
}
