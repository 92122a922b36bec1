package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/speedwagon1299/MoodyGrooves/internal/auth"
	"github.com/speedwagon1299/MoodyGrooves/internal/cache"
	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/secrets"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
	internaltest "github.com/speedwagon1299/MoodyGrooves/internal/testing"
	"github.com/speedwagon1299/MoodyGrooves/internal/tokens"
	"golang.org/x/oauth2"
)

type fixedResolver struct {
	profile *models.Profile
}

func (f *fixedResolver) ProfileWithToken(context.Context, string) (*models.Profile, error) {
	return f.profile, nil
}

func newTestAuth(t *testing.T) (*auth.Orchestrator, cache.Store) {
	t.Helper()

	exchange := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"acc","token_type":"Bearer","expires_in":3600,"refresh_token":"ref"}`))
	}))
	t.Cleanup(exchange.Close)

	store := cache.NewMemoryStore()
	cipher, err := secrets.New("server-test-secret")
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	manager, err := tokens.NewManager(tokens.ManagerOpts{
		Store:        store,
		Cipher:       cipher,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     exchange.URL,
	})
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	orch, err := auth.NewOrchestrator(auth.Opts{
		Store:  store,
		Tokens: manager,
		OAuth: &oauth2.Config{
			ClientID:    "client-id",
			RedirectURL: "http://localhost:4000/auth/spotify/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.example.com/authorize",
				TokenURL: exchange.URL,
			},
		},
		Profiles: &fixedResolver{profile: &models.Profile{ID: "principal-1"}},
	})
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	return orch, store
}

func seedSession(t *testing.T, store cache.Store, sessionID, principal string) {
	t.Helper()

	payload, err := json.Marshal(models.Session{Principal: principal, CreatedAt: time.Now().UnixMilli()})
	if err != nil {
		t.Fatalf("failed to encode session: %v", err)
	}
	if err := store.Set(context.Background(), cache.SessionKey(sessionID), string(payload), time.Hour); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}
}

func TestAuthHandler(t *testing.T) {
	newHandler := func(t *testing.T) (*AuthHandler, cache.Store) {
		orch, store := newTestAuth(t)
		return NewAuthHandler(AuthHandlerOpts{
			Orchestrator: orch,
			CookieName:   "moody_session",
			FrontendURL:  "http://localhost:5173",
		}), store
	}

	// initiate runs the login redirect and extracts the state ticket
	initiate := func(t *testing.T, h *AuthHandler) string {
		t.Helper()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify", nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("login status = %d, want 302", rec.Code)
		}

		location, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("bad redirect location: %v", err)
		}
		state := location.Query().Get("state")
		if state == "" {
			t.Fatal("redirect carries no state")
		}
		return state
	}

	t.Run("callback sets cookie and redirects to frontend", func(t *testing.T) {
		h, _ := newHandler(t)
		state := initiate(t, h)

		rec := httptest.NewRecorder()
		target := fmt.Sprintf("/auth/spotify/callback?code=good-code&state=%s", state)
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

		if rec.Code != http.StatusFound {
			t.Fatalf("callback status = %d, want 302: %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Location"); got != "http://localhost:5173/search" {
			t.Errorf("redirect = %q, want frontend search page", got)
		}

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "moody_session" {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("no session cookie set")
		}
		if !cookie.HttpOnly {
			t.Error("session cookie must be http only")
		}

		// the new session resolves to the provider identity
		rec = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		req.AddCookie(cookie)
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("session status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"userId":"principal-1"`) {
			t.Errorf("session body = %s", rec.Body.String())
		}
	})

	t.Run("callback rejects missing parameters", func(t *testing.T) {
		h, _ := newHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/spotify/callback", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("callback rejects replayed state", func(t *testing.T) {
		h, _ := newHandler(t)
		state := initiate(t, h)
		target := fmt.Sprintf("/auth/spotify/callback?code=good-code&state=%s", state)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusFound {
			t.Fatalf("first callback status = %d, want 302", rec.Code)
		}

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("replayed callback status = %d, want 400", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "invalid_state") {
			t.Errorf("body = %s, want invalid_state", rec.Body.String())
		}
	})

	t.Run("session without cookie", func(t *testing.T) {
		h, _ := newHandler(t)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		h, store := newHandler(t)
		seedSession(t, store, "sess-1", "principal-1")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "moody_session", Value: "sess-1"})
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}

		if _, found, _ := store.Get(context.Background(), cache.SessionKey("sess-1")); found {
			t.Error("session survived logout")
		}

		// logging out again is harmless
		rec = httptest.NewRecorder()
		req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: "moody_session", Value: "sess-1"})
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("repeated logout status = %d, want 204", rec.Code)
		}
	})
}

func TestAPIHandler(t *testing.T) {
	newRouter := func(t *testing.T, music *internaltest.MockMusicService, classifier *internaltest.MockClassifier) (*BasicRouter, cache.Store) {
		orch, store := newTestAuth(t)
		engine := tasks.NewFilterEngine(music, classifier, nil)

		router := NewBasicRouter()
		router.HandlerWith(NewAPIHandler(music, engine, nil), SessionAuth(orch, "moody_session"))
		return router, store
	}

	withSession := func(req *http.Request) *http.Request {
		req.AddCookie(&http.Cookie{Name: "moody_session", Value: "sess-1"})
		return req
	}

	t.Run("rejects anonymous requests", func(t *testing.T) {
		router, _ := newRouter(t, &internaltest.MockMusicService{}, &internaltest.MockClassifier{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playlists", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "not_authenticated") {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("lists playlists for the session principal", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			PlaylistsFn: func(_ context.Context, principal string) ([]models.Playlist, error) {
				if principal != "principal-1" {
					t.Errorf("principal = %q, want principal-1", principal)
				}
				return []models.Playlist{{ID: "pl-1", Name: "Jams", TrackCount: 12}}, nil
			},
		}

		router, store := newRouter(t, music, &internaltest.MockClassifier{})
		seedSession(t, store, "sess-1", "principal-1")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/playlists", nil)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), `"Jams"`) {
			t.Errorf("body = %s", rec.Body.String())
		}
	})

	t.Run("filter returns matched subset", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return &models.SongSet{
					Songs: []string{"Alpha by A", "Beta by B"},
					IDs:   []string{"id-1", "id-2"},
				}, nil
			},
		}
		classifier := &internaltest.MockClassifier{Verdicts: []bool{true, false}}

		router, store := newRouter(t, music, classifier)
		seedSession(t, store, "sess-1", "principal-1")

		body := strings.NewReader(`{"descriptor":"mellow evening","hrefs":["https://api.example.com/v1/playlists/a/tracks"]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/api/filter", body)))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}

		var result tasks.FilterResult
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
		if len(result.MatchedSongs) != 1 || result.MatchedSongs[0] != "Alpha by A" {
			t.Errorf("matched songs = %v", result.MatchedSongs)
		}
	})

	t.Run("expired grant maps to reauth required", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return nil, fmt.Errorf("%w: no stored refresh token", shared.ErrNoRefreshToken)
			},
		}

		router, store := newRouter(t, music, &internaltest.MockClassifier{})
		seedSession(t, store, "sess-1", "principal-1")

		body := strings.NewReader(`{"descriptor":"mellow","hrefs":["https://api.example.com/v1/playlists/a/tracks"]}`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/api/filter", body)))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401: %s", rec.Code, rec.Body.String())
		}
		if !strings.Contains(rec.Body.String(), "reauth_required") {
			t.Errorf("body = %s, want reauth_required", rec.Body.String())
		}
	})

	t.Run("tracks requires hrefs", func(t *testing.T) {
		router, store := newRouter(t, &internaltest.MockMusicService{}, &internaltest.MockClassifier{})
		seedSession(t, store, "sess-1", "principal-1")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodPost, "/api/tracks", strings.NewReader(`{}`))))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
