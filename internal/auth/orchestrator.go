// package auth implements the OAuth login flow and session lifecycle:
// state tickets, the code-for-token exchange, and cookie-backed sessions
// resolving to a principal.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/speedwagon1299/MoodyGrooves/internal/cache"
	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tokens"
	"golang.org/x/oauth2"
)

const (
	// stateTTL bounds how long a login attempt may sit between redirect
	// and callback before its ticket expires.
	stateTTL = 5 * time.Minute

	sessionTTL = 7 * 24 * time.Hour
)

// ProfileResolver resolves the identity behind a freshly exchanged access
// token, before any tokens are stored under a principal.
type ProfileResolver interface {
	ProfileWithToken(ctx context.Context, accessToken string) (*models.Profile, error)
}

// Orchestrator drives login, session resolution and logout. State tickets
// are single-use: consumption is an atomic get-and-delete, so a replayed
// callback always fails validation.
type Orchestrator struct {
	store    cache.Store
	tokens   *tokens.Manager
	oauth    *oauth2.Config
	profiles ProfileResolver
	logger   *log.Logger
	now      func() time.Time
}

// Opts contains the dependencies for creating an Orchestrator.
type Opts struct {
	Store    cache.Store
	Tokens   *tokens.Manager
	OAuth    *oauth2.Config
	Profiles ProfileResolver
	Logger   *log.Logger
}

func NewOrchestrator(opts Opts) (*Orchestrator, error) {
	if opts.Store == nil || opts.Tokens == nil || opts.OAuth == nil || opts.Profiles == nil {
		return nil, fmt.Errorf("%w: store, tokens, oauth config and profile resolver are required", shared.ErrInvalidArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Orchestrator{
		store:    opts.Store,
		tokens:   opts.Tokens,
		oauth:    opts.OAuth,
		profiles: opts.Profiles,
		logger:   opts.Logger,
		now:      time.Now,
	}, nil
}

// InitiateLogin mints a state ticket and returns the provider authorization
// URL carrying it.
func (o *Orchestrator) InitiateLogin(ctx context.Context) (string, error) {
	ticket := uuid.NewString()

	if err := o.store.Set(ctx, cache.OAuthStateKey(ticket), "pending", stateTTL); err != nil {
		return "", fmt.Errorf("failed to persist state ticket: %w", err)
	}

	return o.oauth.AuthCodeURL(ticket), nil
}

// CompleteLogin validates the callback, exchanges the authorization code,
// resolves the principal from the provider profile, stores the token pair
// and opens a session. Returns the new session ID.
func (o *Orchestrator) CompleteLogin(ctx context.Context, code, state string) (string, error) {
	if code == "" || state == "" {
		return "", fmt.Errorf("%w: code and state are required", shared.ErrBadRequest)
	}

	_, found, err := o.store.GetDel(ctx, cache.OAuthStateKey(state))
	if err != nil {
		return "", fmt.Errorf("failed to consume state ticket: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: unknown or expired state ticket", shared.ErrInvalidState)
	}

	tok, err := o.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}

	// the principal comes from the provider, never from the client
	profile, err := o.profiles.ProfileWithToken(ctx, tok.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to resolve identity: %w", err)
	}

	expiresIn := int(time.Until(tok.Expiry).Seconds())
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	scope, _ := tok.Extra("scope").(string)

	if err := o.tokens.StoreTokens(ctx, profile.ID, tokens.TokenResponse{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    expiresIn,
		RefreshToken: tok.RefreshToken,
		Scope:        scope,
	}); err != nil {
		return "", fmt.Errorf("failed to store tokens: %w", err)
	}

	sessionID, err := o.openSession(ctx, profile.ID)
	if err != nil {
		return "", err
	}

	o.logger.Info("login complete", "principal", profile.ID)

	return sessionID, nil
}

func (o *Orchestrator) openSession(ctx context.Context, principal string) (string, error) {
	payload, err := json.Marshal(models.Session{
		Principal: principal,
		CreatedAt: o.now().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}

	id := uuid.NewString()
	if err := o.store.Set(ctx, cache.SessionKey(id), string(payload), sessionTTL); err != nil {
		return "", fmt.Errorf("failed to persist session: %w", err)
	}

	return id, nil
}

// SessionPrincipal resolves a session ID to its principal. An unknown or
// expired session returns [shared.ErrNotAuthenticated].
func (o *Orchestrator) SessionPrincipal(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: no session", shared.ErrNotAuthenticated)
	}

	raw, found, err := o.store.Get(ctx, cache.SessionKey(sessionID))
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if !found {
		return "", fmt.Errorf("%w: session expired", shared.ErrNotAuthenticated)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return "", fmt.Errorf("failed to decode session: %w", err)
	}

	return session.Principal, nil
}

// Logout discards the principal's token material and deletes the session.
// Safe to call with an unknown or already-expired session ID.
func (o *Orchestrator) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	principal, err := o.SessionPrincipal(ctx, sessionID)
	if err == nil {
		if err := o.tokens.Forget(ctx, principal); err != nil {
			return fmt.Errorf("failed to discard tokens: %w", err)
		}
	}

	if err := o.store.Delete(ctx, cache.SessionKey(sessionID)); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
