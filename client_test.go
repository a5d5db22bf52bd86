package revoltkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/revoltkit/model"
)

func TestUserCacheMissFallsBackToRESTAndCommits(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/users/u1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(model.User{ID: "u1", Username: "ana"})
	}))
	defer server.Close()

	client := New(Options{APIBaseURL: server.URL, Token: "t"})

	user, err := client.User(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "ana" {
		t.Errorf("unexpected user: %+v", user)
	}

	// Second lookup must be served from the cache.
	if _, err := client.User(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 REST hit, got %d", hits)
	}
}

func TestChannelCacheHitSkipsREST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cache hit must not reach the REST API")
	}))
	defer server.Close()

	client := New(Options{APIBaseURL: server.URL, Token: "t"})
	client.Cache().Put(model.KindChannel, model.Channel{ID: "c1", Name: "general"})

	ch, err := client.Channel(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.Name != "general" {
		t.Errorf("unexpected channel: %+v", ch)
	}
}

func TestSendMessageThroughREST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.Message{ID: "m1", Channel: "c1", Content: "hi"})
	}))
	defer server.Close()

	client := New(Options{APIBaseURL: server.URL, Token: "t"})

	msg, err := client.SendMessage(context.Background(), "c1", "hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID != "m1" {
		t.Errorf("unexpected message: %+v", msg)
	}
}

func TestTypingRequiresLiveSession(t *testing.T) {
	client := New(Options{Token: "t"})

	if err := client.BeginTyping("c1"); err == nil {
		t.Error("typing without a live session should fail")
	}
}
