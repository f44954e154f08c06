package authcore

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/statroom/authcore/mail"
	"github.com/statroom/authcore/oauth"
	"github.com/statroom/authcore/password"
	"github.com/statroom/authcore/token"
)

const mailTemplateVerify = "verify"

// Builder wires the engine's collaborators. There are no package-level
// singletons anywhere in this module; every client, secret, and store
// enters through here.
type Builder struct {
	config    Config
	redis     *redis.Client
	users     UserStore
	mailer    mail.Mailer
	ledger    RevocationLedger
	log       *slog.Logger
	providers map[string]oauth.Provider

	built bool
}

// New starts a builder with DefaultConfig.
func New() *Builder {
	return &Builder{
		config:    DefaultConfig(),
		providers: map[string]oauth.Provider{},
	}
}

// WithConfig replaces the configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the OTP store, the pending
// registration store, and (unless overridden) the revocation ledger.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the credential-store adapter. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithMailer sets the outbound mail collaborator. Defaults to a
// log-only mailer when unset.
func (b *Builder) WithMailer(m mail.Mailer) *Builder {
	b.mailer = m
	return b
}

// WithRevocationLedger overrides the default Redis-backed ledger.
func (b *Builder) WithRevocationLedger(ledger RevocationLedger) *Builder {
	b.ledger = ledger
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// WithProvider registers an OAuth provider under name, replacing any
// default built from the config.
func (b *Builder) WithProvider(name string, provider oauth.Provider) *Builder {
	b.providers[name] = provider
	return b
}

// Build validates the wiring and returns a ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}

	mailer := b.mailer
	if mailer == nil {
		log.Warn("no mailer configured, outbound mail will only be logged")
		mailer = &mail.Log{Logger: log}
	}

	access, err := token.NewCodec(cfg.Token.AccessSecret, cfg.Token.Issuer)
	if err != nil {
		return nil, err
	}
	refresh, err := token.NewCodec(cfg.Token.RefreshSecret, cfg.Token.Issuer)
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.DefaultCost)
	if err != nil {
		return nil, err
	}

	ledger := b.ledger
	if ledger == nil {
		ledger = NewRedisRevocationLedger(b.redis)
	}

	providers := make(map[string]oauth.Provider, len(b.providers)+2)
	providers["google"] = oauth.NewGoogle()
	if cfg.OAuth.GitHubClientID != "" {
		providers["github"] = oauth.NewGitHub(cfg.OAuth.GitHubClientID, cfg.OAuth.GitHubClientSecret)
	}
	for name, p := range b.providers {
		providers[name] = p
	}

	engine := &Engine{
		config:    cfg,
		log:       log,
		users:     b.users,
		mailer:    mailer,
		sessions:  newSessionIssuer(access, refresh, cfg.Token, cfg.Cookie),
		access:    access,
		refresh:   refresh,
		otps:      newOTPStore(b.redis),
		pending:   newPendingStore(b.redis),
		ledger:    ledger,
		hasher:    hasher,
		providers: providers,
		metrics:   NewMetrics(),
	}

	b.built = true
	return engine, nil
}
