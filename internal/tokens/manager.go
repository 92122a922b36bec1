// package tokens owns the access-token cache and refresh-on-demand lifecycle
// for every principal.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/cache"
	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/secrets"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"golang.org/x/sync/singleflight"
)

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// The two buffers are deliberately asymmetric: the write-side shrink makes
// the cache entry die before the real token, and the read-side guard absorbs
// in-flight request latency so a token is never handed out mid-expiry.
const (
	readGuard   = 60 * time.Second
	writeShrink = 30 * time.Second
)

// TokenResponse mirrors the upstream token endpoint's JSON body for both
// grant types. RefreshToken and Scope are optional on refresh: absence of a
// rotated refresh token means "keep existing", never "drop".
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Manager produces a valid upstream access token per principal, refreshing
// through the token endpoint only when the cached copy is missing or inside
// the read guard. Concurrent refreshes for the same principal are coalesced
// so a second caller awaits the first's in-flight refresh instead of issuing
// a duplicate upstream call.
type Manager struct {
	store        cache.Store
	cipher       *secrets.Cipher
	httpClient   *http.Client
	logger       *log.Logger
	clientID     string
	clientSecret string
	tokenURL     string
	group        singleflight.Group
	now          func() time.Time
}

// ManagerOpts contains the dependencies for creating a Manager.
type ManagerOpts struct {
	Store        cache.Store
	Cipher       *secrets.Cipher
	HTTPClient   *http.Client
	Logger       *log.Logger
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// NewManager creates a Manager. HTTPClient defaults to [http.DefaultClient]
// and TokenURL to the Spotify accounts endpoint.
func NewManager(opts ManagerOpts) (*Manager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: cache store is required", shared.ErrInvalidArgument)
	}
	if opts.Cipher == nil {
		return nil, fmt.Errorf("%w: secret cipher is required", shared.ErrInvalidArgument)
	}
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = defaultTokenURL
	}

	return &Manager{
		store:        opts.Store,
		cipher:       opts.Cipher,
		httpClient:   opts.HTTPClient,
		logger:       opts.Logger,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		tokenURL:     opts.TokenURL,
		now:          time.Now,
	}, nil
}

// AccessToken returns a usable access token for the principal, performing
// zero network calls on a cache hit. A missing refresh record fails with
// [shared.ErrNoRefreshToken]; a rejected refresh deletes the stored record
// and fails with [shared.ErrRefreshFailed]. Both signal that the caller must
// send the principal back through authorization.
func (m *Manager) AccessToken(ctx context.Context, principal string) (string, error) {
	if raw, ok, err := m.store.Get(ctx, cache.AccessTokenKey(principal)); err == nil && ok {
		var cached models.CachedAccessToken
		// parse failures fall through to the refresh path
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			if m.nowMillis() < cached.ExpiresAt-readGuard.Milliseconds() {
				return cached.Token, nil
			}
		}
	}

	token, err, _ := m.group.Do(principal, func() (any, error) {
		return m.refresh(ctx, principal)
	})
	if err != nil {
		return "", err
	}

	return token.(string), nil
}

// Invalidate drops the cached access token so the next AccessToken call is
// forced through a refresh. Used by the aggregator's single retry on an
// authorization failure.
func (m *Manager) Invalidate(ctx context.Context, principal string) error {
	return m.store.Delete(ctx, cache.AccessTokenKey(principal))
}

// StoreTokens persists the outcome of an authorization-code exchange: the
// refresh token encrypted into a fresh record and the access token cached
// with the shrunk TTL.
func (m *Manager) StoreTokens(ctx context.Context, principal string, tr TokenResponse) error {
	if tr.RefreshToken != "" {
		record := models.StoredRefreshRecord{Scopes: splitScopes(tr.Scope)}
		if err := m.writeRefreshRecord(ctx, principal, record, tr.RefreshToken); err != nil {
			return err
		}
	} else {
		m.logger.Warn("no refresh token returned on exchange", "principal", principal)
	}

	return m.cacheAccessToken(ctx, principal, tr.AccessToken, tr.ExpiresIn)
}

// Forget removes the cached access token and the stored refresh record.
// Deleting absent keys is a no-op, so Forget is idempotent.
func (m *Manager) Forget(ctx context.Context, principal string) error {
	if err := m.store.Delete(ctx, cache.AccessTokenKey(principal)); err != nil {
		return err
	}
	return m.store.Delete(ctx, cache.RefreshTokenKey(principal))
}

// refresh exchanges the stored refresh token for a new access token and
// reconciles rotation: a returned refresh token replaces the stored one
// (merging fields the response omits), absence keeps the existing record.
func (m *Manager) refresh(ctx context.Context, principal string) (string, error) {
	raw, ok, err := m.store.Get(ctx, cache.RefreshTokenKey(principal))
	if err != nil {
		return "", fmt.Errorf("failed to read refresh record: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: principal %s", shared.ErrNoRefreshToken, principal)
	}

	var record models.StoredRefreshRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", fmt.Errorf("failed to decode refresh record: %w", err)
	}

	refreshToken, err := m.cipher.Decrypt(record.EncryptedRefreshToken)
	if err != nil {
		return "", err
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// upstream rejected the refresh token: treat as revoked
		m.logger.Error("token refresh rejected", "principal", principal, "status", resp.StatusCode)
		if delErr := m.store.Delete(ctx, cache.RefreshTokenKey(principal)); delErr != nil {
			m.logger.Warn("failed to delete revoked refresh record", "err", delErr)
		}
		return "", fmt.Errorf("%w: status %d: %s", shared.ErrRefreshFailed, resp.StatusCode, string(body))
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: malformed token response: %v", shared.ErrRefreshFailed, err)
	}

	if err := m.cacheAccessToken(ctx, principal, tr.AccessToken, tr.ExpiresIn); err != nil {
		return "", err
	}

	if tr.RefreshToken != "" {
		if s := splitScopes(tr.Scope); s != nil {
			record.Scopes = s
		}
		if err := m.writeRefreshRecord(ctx, principal, record, tr.RefreshToken); err != nil {
			return "", err
		}
		m.logger.Debug("refresh token rotated", "principal", principal)
	}

	return tr.AccessToken, nil
}

func (m *Manager) cacheAccessToken(ctx context.Context, principal, token string, expiresIn int) error {
	ttl := time.Duration(expiresIn)*time.Second - writeShrink
	if token == "" || ttl <= 0 {
		return nil
	}

	cached := models.CachedAccessToken{
		Token:     token,
		ExpiresAt: m.nowMillis() + int64(expiresIn)*1000,
	}
	value, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("failed to encode access token: %w", err)
	}

	return m.store.Set(ctx, cache.AccessTokenKey(principal), string(value), ttl)
}

func (m *Manager) writeRefreshRecord(ctx context.Context, principal string, record models.StoredRefreshRecord, refreshToken string) error {
	encrypted, err := m.cipher.Encrypt(refreshToken)
	if err != nil {
		return err
	}
	record.EncryptedRefreshToken = encrypted

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode refresh record: %w", err)
	}

	return m.store.Set(ctx, cache.RefreshTokenKey(principal), string(value), 0)
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

func splitScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}
