package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asaphis/AsaphisCommerce/internal/config"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     16,
	}
}

func newTestClient(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, h, nil, testWSConfig())
	h.Register(c)
	return c
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func assertNothingReceived(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		if ok {
			t.Fatalf("client %s unexpectedly received %s", c.ID, data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinRoomIdempotent(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")

	h.JoinRoom(c1, "r1")
	h.JoinRoom(c1, "r1")

	assert.Equal(t, 1, h.RoomMemberCount("r1"))

	require.NoError(t, h.BroadcastToRoom("r1", map[string]string{"text": "hi"}))

	receive(t, c1)
	assertNothingReceived(t, c1)
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	h := NewHub(testWSConfig())
	clients := []*Client{
		newTestClient(t, h, "c1"),
		newTestClient(t, h, "c2"),
		newTestClient(t, h, "c3"),
	}
	for _, c := range clients {
		h.JoinRoom(c, "r1")
	}

	require.NoError(t, h.BroadcastToRoom("r1", map[string]string{"text": "hello"}))

	first := receive(t, clients[0])
	for _, c := range clients[1:] {
		assert.Equal(t, first, receive(t, c), "all members get an identical payload")
	}
}

func TestBroadcastCrossRoomIsolation(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")
	c2 := newTestClient(t, h, "c2")

	h.JoinRoom(c1, "r1")
	h.JoinRoom(c2, "r2")

	require.NoError(t, h.BroadcastToRoom("r1", map[string]string{"text": "only r1"}))

	receive(t, c1)
	assertNothingReceived(t, c2)
}

func TestBroadcastToUnknownRoom(t *testing.T) {
	h := NewHub(testWSConfig())
	newTestClient(t, h, "c1")

	assert.NoError(t, h.BroadcastToRoom("nobody-here", map[string]string{"text": "void"}))
}

func TestUnregisterRemovesFromAllRooms(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")
	c2 := newTestClient(t, h, "c2")

	h.JoinRoom(c1, "r1")
	h.JoinRoom(c1, "r2")
	h.JoinRoom(c2, "r1")

	left := h.Unregister(c1)
	assert.ElementsMatch(t, []string{"r1", "r2"}, left)

	// r2 is empty now and garbage collected; r1 keeps c2.
	assert.Equal(t, 1, h.RoomCount())
	assert.Equal(t, 1, h.RoomMemberCount("r1"))
	assert.Equal(t, 0, h.RoomMemberCount("r2"))

	require.NoError(t, h.BroadcastToRoom("r1", map[string]string{"text": "still here"}))
	receive(t, c2)

	// c1's channel is closed; it receives nothing further.
	_, ok := <-c1.Send
	assert.False(t, ok)
}

func TestUnregisterIdempotent(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")
	h.JoinRoom(c1, "r1")

	first := h.Unregister(c1)
	assert.Equal(t, []string{"r1"}, first)

	second := h.Unregister(c1)
	assert.Nil(t, second)
	assert.Equal(t, 0, h.ClientCount())
}

func TestJoinRoomUnknownClientIgnored(t *testing.T) {
	h := NewHub(testWSConfig())
	stranger := NewClient("ghost", h, nil, testWSConfig())

	h.JoinRoom(stranger, "r1")

	assert.Equal(t, 0, h.RoomMemberCount("r1"))
}

func TestRoomsOf(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")

	assert.Empty(t, h.RoomsOf(c1))

	h.JoinRoom(c1, "r1")
	h.JoinRoom(c1, "r2")

	assert.ElementsMatch(t, []string{"r1", "r2"}, h.RoomsOf(c1))
}

func TestShutdownDisconnectsEverything(t *testing.T) {
	h := NewHub(testWSConfig())
	c1 := newTestClient(t, h, "c1")
	c2 := newTestClient(t, h, "c2")
	h.JoinRoom(c1, "r1")
	h.JoinRoom(c2, "r1")

	h.Shutdown()

	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomCount())

	_, ok := <-c1.Send
	assert.False(t, ok)
	_, ok = <-c2.Send
	assert.False(t, ok)
}
