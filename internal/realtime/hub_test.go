package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aquatrack/aquatrack/internal/metrics"
	"github.com/aquatrack/aquatrack/internal/model"
	"github.com/aquatrack/aquatrack/internal/reminder"
	"github.com/aquatrack/aquatrack/internal/testutil"
)

func newTestServer(t *testing.T, h *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != want {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", want, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	return ev
}

func TestHub_BroadcastReachesOnlyOwner(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	h := NewHub(testutil.DiscardLogger(), recorder, nil)
	srv := newTestServer(t, h)

	ada := dial(t, srv, "ada", nil)
	bob := dial(t, srv, "bob", nil)
	waitForClients(t, h, 2)

	if got := recorder.Snapshot().EventSubscribers; got != 2 {
		t.Errorf("EventSubscribers = %d, want 2", got)
	}

	h.OnHydration(model.HydrationState{UserID: "ada", DailyGoal: 2000, CurrentIntake: 500, Percentage: 25})

	ev := readEvent(t, ada)
	if ev.Type != EventHydration {
		t.Fatalf("event type = %q, want %q", ev.Type, EventHydration)
	}
	data, _ := json.Marshal(ev.Data)
	var state model.HydrationState
	_ = json.Unmarshal(data, &state)
	if state.CurrentIntake != 500 || state.Percentage != 25 {
		t.Errorf("unexpected payload: %+v", state)
	}

	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := bob.ReadMessage(); err == nil {
		t.Error("bob received ada's event")
	}
}

func TestHub_NotifySendsReminderEvent(t *testing.T) {
	t.Parallel()

	h := NewHub(testutil.DiscardLogger(), nil, nil)
	srv := newTestServer(t, h)
	conn := dial(t, srv, "ada", nil)
	waitForClients(t, h, 1)

	n := reminder.Notification{
		UserID:   "ada",
		Reminder: model.Reminder{ID: "r1", Time: "08:00", Message: "Drink up", Enabled: true},
		FiredAt:  time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC),
	}
	if err := h.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	ev := readEvent(t, conn)
	if ev.Type != EventReminder {
		t.Errorf("event type = %q, want %q", ev.Type, EventReminder)
	}
}

func TestHub_AuthListenerDisconnectsOnLogout(t *testing.T) {
	t.Parallel()

	h := NewHub(testutil.DiscardLogger(), nil, nil)
	srv := newTestServer(t, h)
	conn := dial(t, srv, "ada", nil)
	waitForClients(t, h, 1)

	listen := h.AuthListener()
	listen(model.AuthState{Loading: true})
	listen(model.AuthState{User: &model.User{ID: "ada"}, IsAuthenticated: true})
	if ev := readEvent(t, conn); ev.Type != EventAuth {
		t.Fatalf("event type = %q, want %q", ev.Type, EventAuth)
	}

	listen(model.AuthState{})
	if ev := readEvent(t, conn); ev.Type != EventAuth {
		t.Fatalf("event type = %q, want %q", ev.Type, EventAuth)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to close after logout")
	}
	waitForClients(t, h, 0)
}

func TestHub_AuthListenerDisconnectsPreviousUser(t *testing.T) {
	t.Parallel()

	h := NewHub(testutil.DiscardLogger(), nil, nil)
	srv := newTestServer(t, h)
	ada := dial(t, srv, "ada", nil)
	waitForClients(t, h, 1)

	listen := h.AuthListener()
	listen(model.AuthState{User: &model.User{ID: "ada"}, IsAuthenticated: true})
	if ev := readEvent(t, ada); ev.Type != EventAuth {
		t.Fatalf("event type = %q, want %q", ev.Type, EventAuth)
	}

	bob := dial(t, srv, "bob", nil)
	waitForClients(t, h, 2)

	listen(model.AuthState{User: &model.User{ID: "bob"}, IsAuthenticated: true})
	if ev := readEvent(t, bob); ev.Type != EventAuth {
		t.Fatalf("event type = %q, want %q", ev.Type, EventAuth)
	}

	_ = ada.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ada.ReadMessage(); err == nil {
		t.Fatal("expected ada's connection to close when bob signed in")
	}
	waitForClients(t, h, 1)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	h := NewHub(testutil.DiscardLogger(), nil, []string{"http://app.example.com"})
	srv := newTestServer(t, h)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=ada"

	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected foreign origin to be rejected")
	} else if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}

	allowed := http.Header{"Origin": []string{"http://app.example.com"}}
	dial(t, srv, "ada", allowed)
	waitForClients(t, h, 1)
}

func TestHub_IgnoresAnonymousHydration(t *testing.T) {
	t.Parallel()

	recorder := metrics.NewInMemory()
	h := NewHub(testutil.DiscardLogger(), recorder, nil)
	h.OnHydration(model.HydrationState{})

	if got := recorder.Snapshot().EventsBroadcast; got != 0 {
		t.Errorf("EventsBroadcast = %d, want 0", got)
	}
}

func TestHub_CloseDisconnectsEveryone(t *testing.T) {
	t.Parallel()

	h := NewHub(testutil.DiscardLogger(), nil, nil)
	srv := newTestServer(t, h)
	dial(t, srv, "ada", nil)
	dial(t, srv, "bob", nil)
	waitForClients(t, h, 2)

	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	waitForClients(t, h, 0)
}
