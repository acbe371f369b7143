package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
	"github.com/Asaphis/AsaphisCommerce/internal/domain"
	"github.com/Asaphis/AsaphisCommerce/internal/hub"
	"github.com/Asaphis/AsaphisCommerce/internal/presence"
	"github.com/Asaphis/AsaphisCommerce/internal/service"
	"github.com/Asaphis/AsaphisCommerce/internal/stream"
)

type recordingStore struct {
	mu    sync.Mutex
	err   error
	saved []*domain.ChatMessage
}

func (s *recordingStore) SaveMessage(ctx context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, msg)
	return nil
}

func (s *recordingStore) Ping(ctx context.Context) error { return nil }
func (s *recordingStore) Close() error                   { return nil }

func (s *recordingStore) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

type relayFixture struct {
	server *httptest.Server
	hub    *hub.Hub
	store  *recordingStore
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     16,
	}
	corsCfg := config.CORSConfig{AllowedOrigin: "*"}

	messageStore := &recordingStore{}
	wsHub := hub.NewHub(wsCfg)
	svc := service.NewRelayService(wsHub, messageStore, presence.NewNoopRegistry(), stream.NewNoopStream())

	mux := http.NewServeMux()
	NewWSHandler(wsHub, svc, wsCfg, corsCfg).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &relayFixture{server: server, hub: wsHub, store: messageStore}
}

func (f *relayFixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (f *relayFixture) waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func send(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
}

func readChatMessage(t *testing.T, conn *websocket.Conn) domain.ChatMessageOut {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out domain.ChatMessageOut
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func TestChatRoundTrip(t *testing.T) {
	f := newRelayFixture(t)

	conn1 := f.dial(t)
	conn2 := f.dial(t)
	f.waitFor(t, func() bool { return f.hub.ClientCount() == 2 }, "both clients registered")

	send(t, conn1, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	send(t, conn2, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	f.waitFor(t, func() bool { return f.hub.RoomMemberCount("r1") == 2 }, "both clients in r1")

	send(t, conn1, domain.ChatMessageIn{
		Type:     domain.MsgTypeChatMessage,
		RoomID:   "r1",
		SenderID: "u1",
		Text:     "hi",
	})

	got1 := readChatMessage(t, conn1)
	got2 := readChatMessage(t, conn2)

	assert.Equal(t, got1, got2)
	assert.Equal(t, "r1", got1.RoomID)
	assert.Equal(t, "u1", got1.SenderID)
	assert.Equal(t, "hi", got1.Text)
	assert.False(t, got1.At.IsZero())
}

func TestDisconnectedClientMissesLaterMessages(t *testing.T) {
	f := newRelayFixture(t)

	conn1 := f.dial(t)
	conn2 := f.dial(t)
	f.waitFor(t, func() bool { return f.hub.ClientCount() == 2 }, "both clients registered")

	send(t, conn1, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	send(t, conn2, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	f.waitFor(t, func() bool { return f.hub.RoomMemberCount("r1") == 2 }, "both clients in r1")

	send(t, conn1, domain.ChatMessageIn{Type: domain.MsgTypeChatMessage, RoomID: "r1", SenderID: "u1", Text: "hi"})
	readChatMessage(t, conn1)
	readChatMessage(t, conn2)

	require.NoError(t, conn2.Close())
	f.waitFor(t, func() bool { return f.hub.RoomMemberCount("r1") == 1 }, "c2 cleaned up")

	send(t, conn1, domain.ChatMessageIn{Type: domain.MsgTypeChatMessage, RoomID: "r1", SenderID: "u1", Text: "bye"})

	got := readChatMessage(t, conn1)
	assert.Equal(t, "bye", got.Text)

	f.store.mu.Lock()
	assert.Len(t, f.store.saved, 2)
	f.store.mu.Unlock()
}

func TestPersistenceFailureSuppressesBroadcast(t *testing.T) {
	f := newRelayFixture(t)
	f.store.setErr(errors.New("write rejected"))

	conn1 := f.dial(t)
	f.waitFor(t, func() bool { return f.hub.ClientCount() == 1 }, "client registered")

	send(t, conn1, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	f.waitFor(t, func() bool { return f.hub.RoomMemberCount("r1") == 1 }, "client in r1")

	send(t, conn1, domain.ChatMessageIn{Type: domain.MsgTypeChatMessage, RoomID: "r1", SenderID: "u1", Text: "lost"})

	// The sender gets neither an echo nor an error, and the connection
	// survives.
	conn1.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := conn1.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	assert.Equal(t, 1, f.hub.ClientCount())
}

func TestMalformedMessageGetsErrorReply(t *testing.T) {
	f := newRelayFixture(t)

	conn := f.dial(t)
	f.waitFor(t, func() bool { return f.hub.ClientCount() == 1 }, "client registered")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply domain.ErrorMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, domain.MsgTypeError, reply.Type)
	assert.Equal(t, domain.ErrCodeBadRequest, reply.Code)

	// Connection is still usable afterwards.
	send(t, conn, domain.JoinRoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: "r1"})
	f.waitFor(t, func() bool { return f.hub.RoomMemberCount("r1") == 1 }, "client joined after bad frame")
}

func TestUnknownMessageTypeGetsErrorReply(t *testing.T) {
	f := newRelayFixture(t)

	conn := f.dial(t)
	f.waitFor(t, func() bool { return f.hub.ClientCount() == 1 }, "client registered")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "typing_indicator"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply domain.ErrorMessage
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, domain.ErrCodeBadRequest, reply.Code)
}

func TestOriginChecker(t *testing.T) {
	allow := originChecker("https://shop.example.com")

	req := httptest.NewRequest(http.MethodGet, "/chat/ws", nil)
	assert.True(t, allow(req), "no origin header is allowed")

	req.Header.Set("Origin", "https://shop.example.com")
	assert.True(t, allow(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, allow(req))

	wildcard := originChecker("*")
	assert.True(t, wildcard(req))
}
