package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/auth"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/testutil"
)

// doJSON runs a request against the mux and decodes the JSON response into out
// when out is non-nil.
func doJSON(t *testing.T, mux http.Handler, method, path, token string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec.Code
}

func TestAPIEndToEnd(t *testing.T) {
	database := testutil.SetupTestDB(t)

	aliceID := uuid.New().String()
	bobID := uuid.New().String()
	verifier := &testutil.StaticVerifier{Tokens: map[string]auth.Identity{
		"alice-token": {ProviderID: aliceID, Email: aliceID + "@example.com", Name: "Alice"},
		"bob-token":   {ProviderID: bobID, Email: bobID + "@example.com", Name: "Bob"},
	}}
	mux := newMuxForDB(t, database, verifier)

	// Sign in: user plus the three starter chats.
	var login struct {
		User  db.User   `json:"user"`
		Chats []db.Chat `json:"chats"`
	}
	if code := doJSON(t, mux, http.MethodPost, "/api/auth/google", "", map[string]string{"token": "alice-token"}, &login); code != http.StatusOK {
		t.Fatalf("login status = %d", code)
	}
	if login.User.ID == "" || len(login.Chats) != 3 {
		t.Fatalf("unexpected login payload: user=%q chats=%d", login.User.ID, len(login.Chats))
	}

	// /api/auth/me resolves the same account.
	var me struct {
		User db.User `json:"user"`
	}
	if code := doJSON(t, mux, http.MethodGet, "/api/auth/me", "alice-token", nil, &me); code != http.StatusOK {
		t.Fatalf("me status = %d", code)
	}
	if me.User.ID != login.User.ID {
		t.Fatalf("me returned different user: %s vs %s", me.User.ID, login.User.ID)
	}

	// Create, rename, and search chats.
	var created db.Chat
	if code := doJSON(t, mux, http.MethodPost, "/api/chats", "alice-token", map[string]string{"firstName": "Ada", "lastName": "Lovelace"}, &created); code != http.StatusCreated {
		t.Fatalf("create chat status = %d", code)
	}
	var renamed db.Chat
	if code := doJSON(t, mux, http.MethodPut, "/api/chats/"+created.ID, "alice-token", map[string]string{"firstName": "Ada", "lastName": "Byron"}, &renamed); code != http.StatusOK {
		t.Fatalf("rename status = %d", code)
	}
	if renamed.LastName != "Byron" {
		t.Fatalf("rename not applied: %+v", renamed)
	}
	var found []db.Chat
	if code := doJSON(t, mux, http.MethodGet, "/api/chats?search=Byron", "alice-token", nil, &found); code != http.StatusOK {
		t.Fatalf("search status = %d", code)
	}
	if len(found) != 1 || found[0].ID != created.ID {
		t.Fatalf("search mismatch: %+v", found)
	}

	// Posting a message returns it and schedules the automated reply.
	var posted db.Message
	if code := doJSON(t, mux, http.MethodPost, "/api/messages", "alice-token", map[string]string{"text": "hello", "chatId": created.ID}, &posted); code != http.StatusCreated {
		t.Fatalf("post message status = %d", code)
	}
	if posted.Type != db.MessageTypeUser || posted.UserID == nil {
		t.Fatalf("unexpected user message: %+v", posted)
	}

	deadline := time.Now().Add(3 * time.Second)
	var msgs []db.Message
	for time.Now().Before(deadline) {
		msgs = nil
		if code := doJSON(t, mux, http.MethodGet, "/api/chats/"+created.ID+"/messages", "alice-token", nil, &msgs); code != http.StatusOK {
			t.Fatalf("list messages status = %d", code)
		}
		if len(msgs) >= 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected user message plus auto reply, got %d", len(msgs))
	}
	if msgs[1].Type != db.MessageTypeAuto || msgs[1].UserID != nil {
		t.Fatalf("unexpected reply: %+v", msgs[1])
	}

	// Another account cannot touch Alice's chat.
	if code := doJSON(t, mux, http.MethodGet, "/api/chats/"+created.ID+"/messages", "bob-token", nil, nil); code != http.StatusForbidden {
		t.Fatalf("cross-user read status = %d", code)
	}
	if code := doJSON(t, mux, http.MethodPost, "/api/messages", "bob-token", map[string]string{"text": "hi", "chatId": created.ID}, nil); code != http.StatusForbidden {
		t.Fatalf("cross-user post status = %d", code)
	}

	// Live message controls.
	var liveResp struct {
		Success  bool    `json:"success"`
		Interval float64 `json:"interval"`
	}
	if code := doJSON(t, mux, http.MethodPost, "/api/live-messages/start", "alice-token", nil, &liveResp); code != http.StatusOK {
		t.Fatalf("live start status = %d", code)
	}
	if !liveResp.Success || liveResp.Interval <= 0 {
		t.Fatalf("unexpected live start payload: %+v", liveResp)
	}
	if code := doJSON(t, mux, http.MethodPost, "/api/live-messages/stop", "alice-token", nil, nil); code != http.StatusOK {
		t.Fatalf("live stop status = %d", code)
	}

	// Deleting the chat ends the flow.
	if code := doJSON(t, mux, http.MethodDelete, "/api/chats/"+created.ID, "alice-token", nil, nil); code != http.StatusOK {
		t.Fatalf("delete status = %d", code)
	}
	if code := doJSON(t, mux, http.MethodGet, fmt.Sprintf("/api/chats/%s/messages", created.ID), "alice-token", nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted chat read status = %d", code)
	}
}

func TestReadyzReady(t *testing.T) {
	database := testutil.SetupTestDB(t)
	mux := newMuxForDB(t, database, &testutil.StaticVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d (%s)", rec.Code, rec.Body.String())
	}
}
