package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Set And Get", func(t *testing.T) {
		s := NewMemoryStore()

		if err := s.Set(ctx, "k", "v", 0); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		val, ok, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !ok || val != "v" {
			t.Errorf("expected (v, true), got (%s, %v)", val, ok)
		}
	})

	t.Run("Get Missing Key", func(t *testing.T) {
		s := NewMemoryStore()

		_, ok, err := s.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if ok {
			t.Error("expected missing key to report not found")
		}
	})

	t.Run("Expiry", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }

		if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		if _, ok, _ := s.Get(ctx, "k"); !ok {
			t.Error("expected key to be present before expiry")
		}

		now = now.Add(time.Minute + time.Second)
		if _, ok, _ := s.Get(ctx, "k"); ok {
			t.Error("expected key to be evicted after expiry")
		}
	})

	t.Run("Set Replaces TTL", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }

		s.Set(ctx, "k", "v1", time.Minute)
		s.Set(ctx, "k", "v2", time.Hour)

		now = now.Add(2 * time.Minute)
		val, ok, _ := s.Get(ctx, "k")
		if !ok || val != "v2" {
			t.Errorf("expected (v2, true) after ttl replacement, got (%s, %v)", val, ok)
		}
	})

	t.Run("GetDel", func(t *testing.T) {
		s := NewMemoryStore()

		s.Set(ctx, "ticket", "pending", time.Minute)

		val, ok, err := s.GetDel(ctx, "ticket")
		if err != nil {
			t.Fatalf("getdel failed: %v", err)
		}
		if !ok || val != "pending" {
			t.Errorf("expected (pending, true), got (%s, %v)", val, ok)
		}

		// consumed exactly once
		if _, ok, _ := s.GetDel(ctx, "ticket"); ok {
			t.Error("expected second GetDel to report not found")
		}
	})

	t.Run("GetDel Expired Key", func(t *testing.T) {
		s := NewMemoryStore()
		now := time.Now()
		s.now = func() time.Time { return now }

		s.Set(ctx, "ticket", "pending", time.Minute)
		now = now.Add(2 * time.Minute)

		if _, ok, _ := s.GetDel(ctx, "ticket"); ok {
			t.Error("expected expired ticket to report not found")
		}
	})

	t.Run("Delete Is Idempotent", func(t *testing.T) {
		s := NewMemoryStore()

		s.Set(ctx, "k", "v", 0)
		if err := s.Delete(ctx, "k"); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if err := s.Delete(ctx, "k"); err != nil {
			t.Errorf("deleting absent key should be a no-op, got %v", err)
		}
	})
}

func TestKeyNamespaces(t *testing.T) {
	tc := []struct {
		name string
		got  string
		want string
	}{
		{"access token", AccessTokenKey("user1"), "token:access:user1"},
		{"refresh token", RefreshTokenKey("user1"), "token:refresh:user1"},
		{"oauth state", OAuthStateKey("abc"), "oauth:state:abc"},
		{"session", SessionKey("sid"), "session:sid"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}
