package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hubServer registers every accepted connection with hub under the claims
// named by the user and role query parameters.
func hubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn, Claims{UserID: r.URL.Query().Get("user"), Role: r.URL.Query().Get("role")})
		defer func() {
			hub.Remove(conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dialHub(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/?"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RoutesByUserAndRole(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	srv := hubServer(t, hub)

	farmer := dialHub(t, srv, "user=user-farmer&role=farmer")
	admin := dialHub(t, srv, "user=user-admin&role=admin")
	require.Eventually(t, func() bool { return hub.Connected() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.SendToUser("user-farmer", map[string]string{"title": "Report verified"})
	hub.SendToRole("admin", map[string]string{"title": "New flood report"})

	var got map[string]string
	require.NoError(t, farmer.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, farmer.ReadJSON(&got))
	assert.Equal(t, "Report verified", got["title"])

	require.NoError(t, admin.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, admin.ReadJSON(&got))
	assert.Equal(t, "New flood report", got["title"])

	require.NoError(t, farmer.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := farmer.ReadMessage()
	assert.Error(t, err, "farmer must not receive the admin broadcast")
}

func TestHub_NilIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.SendToUser("user-1", "event")
		hub.SendToRole("admin", "event")
	})
}

func TestHub_RemoveForgetsConnection(t *testing.T) {
	hub := NewHub()
	srv := hubServer(t, hub)
	conn := dialHub(t, srv, "user=user-1&role=farmer")
	require.Eventually(t, func() bool { return hub.Connected() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Connected() == 0 }, 2*time.Second, 10*time.Millisecond)
}
