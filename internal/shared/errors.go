package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication and token lifecycle errors.
	// ErrNoRefreshToken and ErrRefreshFailed both mean the principal must be
	// sent back through authorization; use IsReauthRequired instead of
	// matching either one directly.
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token stored")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTokenExchange    = fmt.Errorf("token exchange failed")

	// OAuth callback errors, fatal to a single login attempt
	ErrBadRequest   = fmt.Errorf("malformed request")
	ErrInvalidState = fmt.Errorf("invalid or expired state")

	// ErrIntegrity means a stored secret failed authenticated decryption
	// (corrupted blob or wrong key). Never retried.
	ErrIntegrity = fmt.Errorf("integrity check failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// IsReauthRequired reports whether err means the principal has no usable
// credentials and must repeat the authorization flow. The presentation layer
// redirects to login for these instead of surfacing a generic failure.
func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrNoRefreshToken) || errors.Is(err, ErrRefreshFailed)
}
