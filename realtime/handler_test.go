package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

type fakeLive struct {
	mu      sync.Mutex
	started []string
	stopped []string
	err     error
}

func (f *fakeLive) Start(_ context.Context, sessionKey, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, sessionKey+"/"+ownerID)
	return nil
}

func (f *fakeLive) Stop(sessionKey string) {
	f.mu.Lock()
	f.stopped = append(f.stopped, sessionKey)
	f.mu.Unlock()
}

func encodeFrame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	data, err := marshalEnvelope(event, payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDispatchJoinAndLeave(t *testing.T) {
	hub := newTestHub(t)
	h := NewHandler(context.Background(), hub, &fakeLive{})
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, encodeFrame(t, EventJoinChat, map[string]string{"chatId": "chat-1"}))
	if n := hub.RoomSize("chat-1"); n != 1 {
		t.Fatalf("room size after join = %d", n)
	}

	h.dispatch(c, encodeFrame(t, EventLeaveChat, map[string]string{"chatId": "chat-1"}))
	if n := hub.RoomSize("chat-1"); n != 0 {
		t.Fatalf("room size after leave = %d", n)
	}
}

func TestDispatchLiveStartUsesConnectionKey(t *testing.T) {
	hub := newTestHub(t)
	live := &fakeLive{}
	h := NewHandler(context.Background(), hub, live)
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, encodeFrame(t, EventLiveStart, map[string]string{"userId": "user-9"}))

	live.mu.Lock()
	defer live.mu.Unlock()
	if len(live.started) != 1 || live.started[0] != "conn-1/user-9" {
		t.Fatalf("unexpected start calls: %v", live.started)
	}
}

func TestDispatchLiveStartErrorGoesToClient(t *testing.T) {
	hub := newTestHub(t)
	live := &fakeLive{err: errors.New("no chats available")}
	h := NewHandler(context.Background(), hub, live)
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, encodeFrame(t, EventLiveStart, map[string]string{"userId": "user-9"}))

	env := recv(t, c)
	if env.Event != EventLiveError {
		t.Fatalf("event = %q", env.Event)
	}
	var p struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Message != "no chats available" {
		t.Fatalf("message = %q", p.Message)
	}
}

func TestDispatchLiveStartRequiresUser(t *testing.T) {
	hub := newTestHub(t)
	live := &fakeLive{}
	h := NewHandler(context.Background(), hub, live)
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, encodeFrame(t, EventLiveStart, map[string]string{}))

	env := recv(t, c)
	if env.Event != EventLiveError {
		t.Fatalf("event = %q", env.Event)
	}
	live.mu.Lock()
	defer live.mu.Unlock()
	if len(live.started) != 0 {
		t.Fatalf("session must not start without a user: %v", live.started)
	}
}

func TestConnectionCloseStopsLiveSession(t *testing.T) {
	hub := newTestHub(t)
	live := &fakeLive{}
	h := NewHandler(context.Background(), hub, live)
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, encodeFrame(t, EventLiveStart, map[string]string{"userId": "user-9"}))
	h.closed(c)

	live.mu.Lock()
	defer live.mu.Unlock()
	if len(live.stopped) != 1 || live.stopped[0] != "conn-1" {
		t.Fatalf("unexpected stop calls: %v", live.stopped)
	}
}

func TestDispatchIgnoresMalformedFrames(t *testing.T) {
	hub := newTestHub(t)
	h := NewHandler(context.Background(), hub, &fakeLive{})
	c := newTestClient(hub, "conn-1")
	registerAndWait(t, hub, c)

	h.dispatch(c, []byte("not json"))
	h.dispatch(c, encodeFrame(t, "unknown:event", nil))
	assertSilent(t, c)
}
