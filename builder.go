package mailgate

import (
	"errors"
	"net/http"

	"github.com/dvail-labs/mailgate/breach"
	internalaudit "github.com/dvail-labs/mailgate/internal/audit"
	"github.com/dvail-labs/mailgate/internal/rate"
	"github.com/dvail-labs/mailgate/internal/stores"
	"github.com/dvail-labs/mailgate/password"
	"github.com/dvail-labs/mailgate/session"
	"github.com/dvail-labs/mailgate/token"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by mailgate APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	sender       EmailSender
	breachClient *http.Client
	auditSink    AuditSink
	policy       password.Policy

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithEmailSender describes the withemailsender operation and its observable behavior.
//
// WithEmailSender may return an error when input validation, dependency calls, or security checks fail.
// WithEmailSender does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithEmailSender(sender EmailSender) *Builder {
	b.sender = sender
	return b
}

// WithBreachHTTPClient describes the withbreachhttpclient operation and its observable behavior.
//
// WithBreachHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithBreachHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithBreachHTTPClient(client *http.Client) *Builder {
	b.breachClient = client
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithPasswordPolicy describes the withpasswordpolicy operation and its observable behavior.
//
// WithPasswordPolicy may return an error when input validation, dependency calls, or security checks fail.
// WithPasswordPolicy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithPasswordPolicy(p password.Policy) *Builder {
	b.policy = p
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.sender == nil {
		return nil, errors.New("email sender required")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:       cloneConfig(cfg),
		credentials:  stores.NewCredentialStore(b.redis, cfg.Session.RedisPrefix+"c"),
		pending:      stores.NewPendingStore(b.redis, cfg.Session.RedisPrefix+"p"),
		sessionStore: session.NewStore(b.redis, cfg.Session.RedisPrefix+"s"),
		sender:       b.sender,
	}

	engine.rateLimiter = rate.New(b.redis, cfg.Session.RedisPrefix+"rl", rate.Config{
		MaxAttempts:          cfg.RateLimit.MaxAttempts,
		Window:               cfg.RateLimit.Window,
		EnableClientThrottle: cfg.RateLimit.EnableClientThrottle,
	})

	ph, err := password.NewHasher(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = ph

	engine.policy = b.policy
	if engine.policy == nil {
		engine.policy = password.NewPolicy(cfg.Password.MinLength, cfg.Password.MinCharacterClasses)
	}

	tm, err := token.NewManager(token.Config{
		SigningKey: cloneBytes(cfg.Session.SigningKey),
		TTL:        cfg.Session.TTL,
		Issuer:     cfg.Session.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tm

	if cfg.Breach.Enabled {
		bcfg := breach.Config{
			Endpoint:      cfg.Breach.Endpoint,
			Timeout:       cfg.Breach.Timeout,
			UserAgent:     cfg.Breach.UserAgent,
			MaxConcurrent: cfg.Breach.MaxConcurrent,
			AddPadding:    cfg.Breach.AddPadding,
		}
		if b.breachClient != nil {
			engine.breachCheck = breach.NewWithClient(bcfg, b.breachClient)
		} else {
			engine.breachCheck = breach.New(bcfg)
		}
	}

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics.Enabled)

	b.built = true

	return engine, nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.SigningKey = cloneBytes(cfg.Session.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
