package mailgate

import "errors"

var (
	// ErrUnauthorized is an exported constant or variable used by the authentication engine.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidCode is an exported constant or variable used by the authentication engine.
	ErrInvalidCode = errors.New("invalid verification code")
	// ErrLoginRateLimited is an exported constant or variable used by the authentication engine.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrInvalidIdentity is an exported constant or variable used by the authentication engine.
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrInvalidEmail is an exported constant or variable used by the authentication engine.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrWeakPassword is an exported constant or variable used by the authentication engine.
	ErrWeakPassword = errors.New("password policy violation")
	// ErrIdentityExists is an exported constant or variable used by the authentication engine.
	ErrIdentityExists = errors.New("identity already registered")
	// ErrSessionContextRequired is an exported constant or variable used by the authentication engine.
	ErrSessionContextRequired = errors.New("session context required")
	// ErrDeliveryFailed is an exported constant or variable used by the authentication engine.
	ErrDeliveryFailed = errors.New("verification code delivery failed")
	// ErrBreachCheckDisabled is an exported constant or variable used by the authentication engine.
	ErrBreachCheckDisabled = errors.New("breach check disabled")
	// ErrUpstreamUnavailable is an exported constant or variable used by the authentication engine.
	ErrUpstreamUnavailable = errors.New("breach range endpoint unavailable")
	// ErrBackendUnavailable is an exported constant or variable used by the authentication engine.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
