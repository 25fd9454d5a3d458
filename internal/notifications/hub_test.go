package notifications

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, userID string) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, w, r)
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return hub.Subscribers(userID) > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event Event
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestHubDeliversOnlyToAddressedUser(t *testing.T) {
	hub, url := startHub(t, "user-1")
	conn := dial(t, hub, url, "user-1")

	hub.Broadcast("user-2", Event{Event: EventCreated, NotificationID: "not-mine"})
	hub.Broadcast("user-1", Event{Event: EventCreated, NotificationID: "n-1"})

	event := readEvent(t, conn)
	require.Equal(t, EventCreated, event.Event)
	require.Equal(t, "n-1", event.NotificationID)
}

func TestHubBroadcastManyReachesEveryConnection(t *testing.T) {
	hub, url := startHub(t, "user-1")
	first := dial(t, hub, url, "user-1")
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer second.Close()
	require.Eventually(t, func() bool { return hub.Subscribers("user-1") == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastMany([]string{"user-1", "ghost"}, Event{Event: EventReadAll, Count: 3})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		require.Equal(t, EventReadAll, event.Event)
		require.EqualValues(t, 3, event.Count)
	}
}

func TestHubAnswersPingControl(t *testing.T) {
	hub, url := startHub(t, "user-1")
	conn := dial(t, hub, url, "user-1")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "PING"}))

	require.Equal(t, EventPong, readEvent(t, conn).Event)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub, url := startHub(t, "user-1")
	conn := dial(t, hub, url, "user-1")

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers("user-1") == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NotPanics(t, func() { hub.Broadcast("user-1", Event{Event: EventDeleted}) })
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub, url := startHub(t, "user-1")

	header := http.Header{"Origin": []string{"https://attacker.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, hub.Subscribers("user-1"))

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://localhost:5173"}})
	require.NoError(t, err)
	_ = conn.Close()
}

func TestHubBroadcastWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	require.NotPanics(t, func() {
		hub.Broadcast("", Event{Event: EventCreated})
		hub.Broadcast("nobody", Event{Event: EventCreated})
	})
	require.Zero(t, hub.Subscribers("nobody"))
}

func TestHostWithoutPort(t *testing.T) {
	require.Equal(t, "example.com", hostWithoutPort("https://example.com:8443"))
	require.Equal(t, "127.0.0.1", hostWithoutPort("127.0.0.1:8080"))
	require.Equal(t, "", hostWithoutPort("  "))
	require.True(t, isLoopback("::1"))
	require.True(t, isLoopback("LOCALHOST"))
	require.False(t, isLoopback("10.0.0.1"))
}
