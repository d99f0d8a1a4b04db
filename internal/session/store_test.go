package session

import (
	"testing"
	"time"
)

func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore(nil)
	defer s.Stop()

	sess := s.Create("user-1", "tok-abc", "refresh-xyz", time.Now().Add(time.Hour))
	if sess.ID == "" {
		t.Fatal("expected a non-empty session ID")
	}
	if sess.ID == sess.AccessToken {
		t.Error("session ID must be opaque, not the access token")
	}

	got, ok := s.Get(sess.ID)
	if !ok {
		t.Fatal("expected to find the created session")
	}
	if got.UserID != "user-1" || got.AccessToken != "tok-abc" {
		t.Errorf("got session %+v, want user-1/tok-abc", got)
	}

	if _, ok := s.Get("unknown"); ok {
		t.Error("expected lookup miss for unknown ID")
	}
	if _, ok := s.Get(""); ok {
		t.Error("expected lookup miss for empty ID")
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore(nil)
	defer s.Stop()

	sess := s.Create("user-1", "tok", "", time.Time{})
	s.Delete(sess.ID)
	if _, ok := s.Get(sess.ID); ok {
		t.Error("expected session to be gone after Delete")
	}

	// Deleting twice is fine.
	s.Delete(sess.ID)
}

func TestStoreExpire(t *testing.T) {
	s := NewStoreWithTimeout(time.Minute, nil)
	defer s.Stop()

	fresh := s.Create("fresh", "tok1", "", time.Time{})
	stale := s.Create("stale", "tok2", "", time.Time{})

	s.mu.Lock()
	s.sessions[stale.ID].lastAccess = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	if n := s.Expire(time.Now()); n != 1 {
		t.Errorf("Expire removed %d sessions, want 1", n)
	}
	if _, ok := s.Get(stale.ID); ok {
		t.Error("stale session should have been expired")
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Error("fresh session should have survived")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreExpireNotifiesHook(t *testing.T) {
	s := NewStoreWithTimeout(time.Minute, nil)
	defer s.Stop()

	var evicted []string
	s.OnExpire(func(id string) { evicted = append(evicted, id) })

	fresh := s.Create("fresh", "tok1", "", time.Time{})
	stale := s.Create("stale", "tok2", "", time.Time{})

	s.mu.Lock()
	s.sessions[stale.ID].lastAccess = time.Now().Add(-2 * time.Minute)
	s.mu.Unlock()

	s.Expire(time.Now())

	if len(evicted) != 1 || evicted[0] != stale.ID {
		t.Errorf("hook saw %v, want [%s]", evicted, stale.ID)
	}
	if _, ok := s.Get(fresh.ID); !ok {
		t.Error("fresh session should have survived")
	}

	// Explicit Delete does not fire the hook.
	s.Delete(fresh.ID)
	if len(evicted) != 1 {
		t.Errorf("hook saw %v after Delete, want only the expired ID", evicted)
	}
}

func TestSessionAuthenticated(t *testing.T) {
	var nilSession *Session
	if nilSession.Authenticated() {
		t.Error("nil session must not be authenticated")
	}
	if (&Session{}).Authenticated() {
		t.Error("session without token must not be authenticated")
	}
	if !(&Session{AccessToken: "tok"}).Authenticated() {
		t.Error("session with token should be authenticated")
	}
}
