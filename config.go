package mailgate

import (
	"errors"
	"time"
)

// Config defines a public type used by mailgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Password     PasswordConfig
	OTP          OTPConfig
	RateLimit    RateLimitConfig
	Registration RegistrationConfig
	Session      SessionConfig
	Breach       BreachConfig
	Mail         MailConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by mailgate APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength           int
	MinCharacterClasses int
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig defines a public type used by mailgate APIs.
//
// OTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type OTPConfig struct {
	Digits       int
	ChallengeTTL time.Duration
}

// RateLimitConfig defines a public type used by mailgate APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	MaxAttempts          int
	Window               time.Duration
	EnableClientThrottle bool
}

// RegistrationConfig defines a public type used by mailgate APIs.
//
// RegistrationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RegistrationConfig struct {
	DuplicatePolicy DuplicatePolicy
}

// SessionConfig defines a public type used by mailgate APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
	SigningKey  []byte
	Issuer      string
}

// BreachConfig defines a public type used by mailgate APIs.
//
// BreachConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BreachConfig struct {
	Enabled       bool
	Endpoint      string
	Timeout       time.Duration
	UserAgent     string
	MaxConcurrent int64
	AddPadding    bool
}

// MailConfig defines a public type used by mailgate APIs.
//
// MailConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MailConfig struct {
	AppName string
	Timeout time.Duration
}

// AuditConfig defines a public type used by mailgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by mailgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return Config{
		Password: PasswordConfig{
			Memory:              64 * 1024,
			Time:                3,
			Parallelism:         2,
			SaltLength:          16,
			KeyLength:           32,
			MinLength:           10,
			MinCharacterClasses: 3,
		},
		OTP: OTPConfig{
			Digits:       6,
			ChallengeTTL: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:          5,
			Window:               15 * time.Minute,
			EnableClientThrottle: true,
		},
		Registration: RegistrationConfig{
			DuplicatePolicy: DuplicateOverwrite,
		},
		Session: SessionConfig{
			TTL:         12 * time.Hour,
			RedisPrefix: "mg",
			Issuer:      "mailgate",
		},
		Breach: BreachConfig{
			Enabled:       true,
			Endpoint:      "https://api.pwnedpasswords.com/range",
			Timeout:       5 * time.Second,
			UserAgent:     "mailgate",
			MaxConcurrent: 8,
			AddPadding:    true,
		},
		Mail: MailConfig{
			AppName: "mailgate",
			Timeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.Password.MinLength < 8 {
		return errors.New("password minimum length must be >= 8")
	}
	if cfg.Password.MinCharacterClasses < 1 || cfg.Password.MinCharacterClasses > 4 {
		return errors.New("password character classes must be between 1 and 4")
	}
	if cfg.OTP.Digits < 6 || cfg.OTP.Digits > 10 {
		return errors.New("otp digits must be between 6 and 10")
	}
	if cfg.OTP.ChallengeTTL <= 0 {
		return errors.New("otp challenge ttl must be positive")
	}
	if cfg.RateLimit.MaxAttempts <= 0 {
		return errors.New("rate limit max attempts must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if cfg.Session.TTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	if len(cfg.Session.SigningKey) < 32 {
		return errors.New("session signing key must be >= 32 bytes")
	}
	if cfg.Breach.Enabled {
		if cfg.Breach.Endpoint == "" {
			return errors.New("breach endpoint required when breach check enabled")
		}
		if cfg.Breach.Timeout <= 0 {
			return errors.New("breach timeout must be positive")
		}
	}
	if cfg.Mail.Timeout <= 0 {
		return errors.New("mail timeout must be positive")
	}
	return nil
}
