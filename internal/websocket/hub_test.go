package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/study-hub/internal/logger"
	"github.com/thereayou/study-hub/internal/models"
)

func newTestClient(t *testing.T, h *Hub, studyID, userID uint) *Client {
	t.Helper()
	c := NewClient(h, nil, Handshake{StudyID: studyID, UserID: userID, Nickname: "user"})
	require.NoError(t, h.Join(c))
	return c
}

func receive(t *testing.T, c *Client) Outbound {
	t.Helper()
	select {
	case frame, ok := <-c.Send:
		require.True(t, ok, "send queue closed")
		var out Outbound
		require.NoError(t, json.Unmarshal(frame, &out))
		return out
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Outbound{}
	}
}

func TestBroadcastReachesEveryClientIncludingSender(t *testing.T) {
	h := NewHub(logger.Discard())
	c1 := newTestClient(t, h, 7, 1)
	c2 := newTestClient(t, h, 7, 2)

	n, err := h.Broadcast(7, EventChatMessage, map[string]any{"message": "hello", "userId": 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, c := range []*Client{c1, c2} {
		out := receive(t, c)
		assert.Equal(t, EventChatMessage, out.Event)
		assert.Equal(t, uint64(1), out.Seq)
		assert.JSONEq(t, `{"message":"hello","userId":1}`, string(out.Data))
		assert.Empty(t, c.Send)
	}
}

func TestBroadcastIsScopedToRoom(t *testing.T) {
	h := NewHub(logger.Discard())
	inRoom := newTestClient(t, h, 7, 1)
	elsewhere := newTestClient(t, h, 8, 2)

	_, err := h.Broadcast(7, EventChatMessage, "hi")
	require.NoError(t, err)

	receive(t, inRoom)
	assert.Empty(t, elsewhere.Send)
}

func TestBroadcastOrderFollowsSequence(t *testing.T) {
	h := NewHub(logger.Discard())
	c := newTestClient(t, h, 3, 1)

	for i := 0; i < 5; i++ {
		_, err := h.Broadcast(3, EventChatMessage, i)
		require.NoError(t, err)
	}

	for i := 0; i < 5; i++ {
		out := receive(t, c)
		assert.Equal(t, uint64(i+1), out.Seq)
		assert.Equal(t, strconv.Itoa(i), string(out.Data))
	}
}

func TestMultipleConnectionsOfOneUser(t *testing.T) {
	h := NewHub(logger.Discard())
	newTestClient(t, h, 7, 1)
	newTestClient(t, h, 7, 1)
	newTestClient(t, h, 7, 2)

	assert.Equal(t, 3, h.RoomSize(7))
	assert.ElementsMatch(t, []uint{1, 2}, h.RoomUsers(7))
}

func TestJoinRejectsIncompleteHandshake(t *testing.T) {
	h := NewHub(logger.Discard())

	noStudy := NewClient(h, nil, Handshake{UserID: 1})
	assert.ErrorIs(t, h.Join(noStudy), ErrHandshakeRejected)
	assert.Equal(t, StateRejected, noStudy.State())

	noUser := NewClient(h, nil, Handshake{StudyID: 7})
	assert.ErrorIs(t, h.Join(noUser), ErrHandshakeRejected)
	assert.Equal(t, StateRejected, noUser.State())

	assert.Zero(t, h.RoomSize(7))
}

func TestJoinTwiceFails(t *testing.T) {
	h := NewHub(logger.Discard())
	c := newTestClient(t, h, 7, 1)

	assert.Equal(t, StateJoined, c.State())
	assert.ErrorIs(t, h.Join(c), ErrClientNotConnecting)
	assert.Equal(t, 1, h.RoomSize(7))
}

func TestLeaveIsIdempotent(t *testing.T) {
	h := NewHub(logger.Discard())
	c := newTestClient(t, h, 7, 1)
	other := newTestClient(t, h, 7, 2)

	h.Leave(c)
	h.Leave(c)

	assert.Equal(t, StateDisconnected, c.State())
	_, ok := <-c.Send
	assert.False(t, ok)

	n, err := h.Broadcast(7, EventChatMessage, "after leave")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	receive(t, other)
}

func TestEvictRemovesOnlyThatUser(t *testing.T) {
	h := NewHub(logger.Discard())
	a1 := newTestClient(t, h, 7, 1)
	a2 := newTestClient(t, h, 7, 1)
	b := newTestClient(t, h, 7, 2)

	assert.Equal(t, 2, h.Evict(7, 1))
	assert.Equal(t, StateDisconnected, a1.State())
	assert.Equal(t, StateDisconnected, a2.State())
	assert.Equal(t, StateJoined, b.State())
	assert.Equal(t, 1, h.RoomSize(7))
}

func TestCloseRoom(t *testing.T) {
	h := NewHub(logger.Discard())
	c := newTestClient(t, h, 7, 1)

	assert.Equal(t, 1, h.CloseRoom(7))
	assert.Equal(t, StateDisconnected, c.State())
	assert.Zero(t, h.RoomSize(7))
}

func TestSendErrorReachesOnlyThatClient(t *testing.T) {
	h := NewHub(logger.Discard())
	alice := newTestClient(t, h, 7, 1)
	bob := newTestClient(t, h, 7, 2)

	alice.SendError("message must not be empty")

	out := receive(t, alice)
	assert.Equal(t, EventError, out.Event)
	assert.Zero(t, out.Seq)
	assert.JSONEq(t, `{"error":"message must not be empty"}`, string(out.Data))
	assert.Empty(t, bob.Send)

	h.Leave(alice)
	assert.NotPanics(t, func() { alice.SendError("late") })
	_, ok := <-alice.Send
	assert.False(t, ok)
}

func TestStoppedHubRejectsWork(t *testing.T) {
	h := NewHub(logger.Discard())
	c := newTestClient(t, h, 7, 1)

	h.Stop()

	assert.Equal(t, StateDisconnected, c.State())
	_, err := h.Broadcast(7, EventChatMessage, "x")
	assert.ErrorIs(t, err, ErrHubStopped)
	assert.ErrorIs(t, h.Join(NewClient(h, nil, Handshake{StudyID: 7, UserID: 2})), ErrHubStopped)
}

func TestJoinRacingStopLeavesNoClientBehind(t *testing.T) {
	h := NewHub(logger.Discard())

	clients := make([]*Client, 50)
	for i := range clients {
		clients[i] = NewClient(h, nil, Handshake{StudyID: 3, UserID: uint(i + 1)})
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			_ = h.Join(c)
		}(c)
	}
	h.Stop()
	wg.Wait()

	assert.Zero(t, h.RoomSize(3))
	for _, c := range clients {
		assert.NotEqual(t, StateJoined, c.State())
	}
}

func TestConcurrentJoinLeaveBroadcast(t *testing.T) {
	h := NewHub(logger.Discard())
	listener := newTestClient(t, h, 1, 99)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(uid uint) {
			defer wg.Done()
			c := NewClient(h, nil, Handshake{StudyID: 1, UserID: uid})
			if h.Join(c) == nil {
				h.Leave(c)
			}
		}(uint(i + 1))
		go func() {
			defer wg.Done()
			_, _ = h.Broadcast(1, EventChatMessage, "tick")
		}()
	}
	wg.Wait()

	var last uint64
	for len(listener.Send) > 0 {
		out := receive(t, listener)
		assert.Greater(t, out.Seq, last)
		last = out.Seq
	}
	assert.Equal(t, uint64(20), last)
	assert.Equal(t, 1, h.RoomSize(1))
}

func TestParseHandshake(t *testing.T) {
	ident := &models.Identity{UserID: 1, Nickname: "alice"}

	hs, err := ParseHandshake("7", ident)
	require.NoError(t, err)
	assert.Equal(t, Handshake{StudyID: 7, UserID: 1, Nickname: "alice"}, hs)

	_, err = ParseHandshake("", ident)
	assert.ErrorIs(t, err, ErrMissingStudy)

	_, err = ParseHandshake("abc", ident)
	assert.ErrorIs(t, err, ErrMissingStudy)

	_, err = ParseHandshake("7", nil)
	assert.ErrorIs(t, err, ErrMissingUser)
}

type echoHandler struct {
	hub *Hub
}

func (e *echoHandler) HandleMessage(c *Client, msg *Inbound) error {
	var text string
	if err := json.Unmarshal(msg.Data, &text); err != nil {
		return ErrInvalidMessage
	}
	_, err := e.hub.Broadcast(c.StudyID, EventChatMessage, map[string]any{"userId": c.UserID, "message": text})
	return err
}

func TestPumpsOverRealSocket(t *testing.T) {
	h := NewHub(logger.Discard())
	go h.Run()
	defer h.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(h, conn, Handshake{StudyID: 7, UserID: 1, Nickname: "alice"})
		if err := h.Join(c); err != nil {
			conn.Close()
			return
		}
		go c.WritePump()
		go c.ReadPump(&echoHandler{hub: h})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "chatMessage", "data": "hello"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out struct {
		Event string `json:"event"`
		Seq   uint64 `json:"seq"`
		Data  struct {
			UserID  uint   `json:"userId"`
			Message string `json:"message"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&out))

	assert.Equal(t, EventChatMessage, out.Event)
	assert.Equal(t, uint64(1), out.Seq)
	assert.Equal(t, uint(1), out.Data.UserID)
	assert.Equal(t, "hello", out.Data.Message)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errFrame Outbound
	require.NoError(t, conn.ReadJSON(&errFrame))
	assert.Equal(t, EventError, errFrame.Event)

	conn.Close()
	assert.Eventually(t, func() bool { return h.RoomSize(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}
