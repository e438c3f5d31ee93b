package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindwell-realtime/server"
)

const tokenSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *server.Hub) {
	t.Helper()
	logger := zerolog.Nop()
	hub := server.NewHub("general", logger)
	verifier := server.NewTokenVerifier(tokenSecret, logger)
	chatServer := server.NewChatServer(hub, verifier, "*", logger)

	s := httptest.NewServer(server.NewRouter(chatServer))
	t.Cleanup(s.Close)
	return s, hub
}

func dial(t *testing.T, s *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws" + query
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) server.Event {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var e server.Event
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func readCount(t *testing.T, ws *websocket.Conn) server.EventRoomCount {
	t.Helper()
	e := readEvent(t, ws)
	require.Equal(t, server.EventTypeRoomCount, e.Type)
	var p server.EventRoomCount
	require.NoError(t, json.Unmarshal(e.Payload, &p))
	return p
}

func send(t *testing.T, ws *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestGuestJoinChatDisconnect(t *testing.T) {
	s, _ := newTestServer(t)

	a := dial(t, s, "")
	welcome := readEvent(t, a)
	require.Equal(t, server.EventTypeWelcome, welcome.Type)
	var wp server.EventWelcome
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.Equal(t, "general", wp.Room)

	send(t, a, `{"type":"room.join","roomId":"general"}`)
	joined := readEvent(t, a)
	require.Equal(t, server.EventTypeRoomJoined, joined.Type)
	assert.Equal(t, 1, readCount(t, a).Count)

	b := dial(t, s, "")
	require.Equal(t, server.EventTypeWelcome, readEvent(t, b).Type)
	send(t, b, `{"type":"room.join","roomId":"general"}`)
	require.Equal(t, server.EventTypeRoomJoined, readEvent(t, b).Type)
	assert.Equal(t, 2, readCount(t, b).Count)
	assert.Equal(t, 2, readCount(t, a).Count)

	send(t, a, `{"type":"chat.message","content":"hi"}`)
	chat := readEvent(t, b)
	require.Equal(t, server.EventTypeChatMessage, chat.Type)
	var msg server.EventChatMessage
	require.NoError(t, json.Unmarshal(chat.Payload, &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "general", msg.RoomID)
	assert.Equal(t, server.SenderPeer, msg.Sender)
	assert.NotEmpty(t, msg.From)

	// A must not receive its own message: the next frame A sees is the
	// count broadcast after B disconnects.
	b.Close()
	assert.Equal(t, 1, readCount(t, a).Count)
}

func TestMalformedFrameGetsSingleError(t *testing.T) {
	s, _ := newTestServer(t)

	a := dial(t, s, "")
	readEvent(t, a) // welcome
	send(t, a, `{"type":"room.join"}`)
	readEvent(t, a) // joined (default room)
	readCount(t, a)

	b := dial(t, s, "")
	readEvent(t, b)
	send(t, b, `{"type":"room.join"}`)
	readEvent(t, b)
	readCount(t, b)
	readCount(t, a) // count=2 after B joins

	send(t, a, "this is not json")
	errEvent := readEvent(t, a)
	require.Equal(t, server.EventTypeError, errEvent.Type)

	// B saw nothing for A's garbage: the next frame B receives is the
	// chat message A sends afterwards.
	send(t, a, `{"type":"chat.message","content":"still here"}`)
	chat := readEvent(t, b)
	assert.Equal(t, server.EventTypeChatMessage, chat.Type)
}

func TestRoomLeaveCommand(t *testing.T) {
	s, hub := newTestServer(t)

	a := dial(t, s, "")
	readEvent(t, a)
	send(t, a, `{"type":"room.join","roomId":"calm"}`)
	readEvent(t, a)
	readCount(t, a)

	send(t, a, `{"type":"room.leave"}`)
	require.Eventually(t, func() bool {
		return hub.MemberCount("calm") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTipBroadcastReachesAllRooms(t *testing.T) {
	s, hub := newTestServer(t)
	notifier := server.NewNotifier(hub)

	a := dial(t, s, "")
	readEvent(t, a)
	send(t, a, `{"type":"room.join","roomId":"general"}`)
	readEvent(t, a)
	readCount(t, a)

	b := dial(t, s, "")
	readEvent(t, b)
	send(t, b, `{"type":"room.join","roomId":"sleep"}`)
	readEvent(t, b)
	readCount(t, b)

	notifier.TipDeleted("t1")

	for _, ws := range []*websocket.Conn{a, b} {
		e := readEvent(t, ws)
		require.Equal(t, server.EventTypeTipDeleted, e.Type)
		var ref server.TipRef
		require.NoError(t, json.Unmarshal(e.Payload, &ref))
		assert.Equal(t, "t1", ref.ID)
	}
}

func TestTokenIdentityFlowsIntoChat(t *testing.T) {
	s, _ := newTestServer(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(tokenSecret))
	require.NoError(t, err)

	a := dial(t, s, "?token="+token)
	readEvent(t, a)
	send(t, a, `{"type":"room.join","roomId":"general"}`)
	readEvent(t, a)
	readCount(t, a)

	b := dial(t, s, "")
	readEvent(t, b)
	send(t, b, `{"type":"room.join","roomId":"general"}`)
	readEvent(t, b)
	readCount(t, b)
	readCount(t, a)

	send(t, a, `{"type":"chat.message","content":"hello"}`)
	chat := readEvent(t, b)
	require.Equal(t, server.EventTypeChatMessage, chat.Type)
	var msg server.EventChatMessage
	require.NoError(t, json.Unmarshal(chat.Payload, &msg))
	assert.Equal(t, "user-42", msg.From)
}

func TestRoomsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	a := dial(t, s, "")
	readEvent(t, a)
	send(t, a, `{"type":"room.join","roomId":"general"}`)
	readEvent(t, a)
	readCount(t, a)

	resp, err := http.Get(s.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var counts map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&counts))
	assert.Equal(t, map[string]int{"general": 1}, counts)
}
