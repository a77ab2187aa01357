package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sbordet/oort-chat-demo/internal/auth"
	"github.com/sbordet/oort-chat-demo/internal/chat"
	"github.com/sbordet/oort-chat-demo/internal/config"
	"github.com/sbordet/oort-chat-demo/internal/transport/ws"
)

// App wires the transport and the chat session together.
type App struct {
	Session   *chat.Session
	transport *ws.Client
	cfg       config.Config
	log       *zerolog.Logger
}

// New constructs the client with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	tr := ws.NewClient(ws.Options{
		URL:         cfg.ServerURL,
		DialTimeout: cfg.DialTimeout,
		MinBackoff:  cfg.MinBackoff,
		MaxBackoff:  cfg.MaxBackoff,
		Logger:      logger,
	})

	var creds chat.CredentialFunc
	if cfg.AuthSecret != "" {
		source := auth.NewTokenSource(auth.TokenConfig{
			Secret: []byte(cfg.AuthSecret),
			Issuer: cfg.AuthIssuer,
			TTL:    cfg.AuthTTL,
		})
		creds = source.Credential
	}

	sess := chat.NewSession(tr, creds, logger)
	tr.SetHandler(sess.HandleFrame)
	tr.SetReconnectFunc(sess.Resubscribe)

	return &App{
		Session:   sess,
		transport: tr,
		cfg:       cfg,
		log:       logger,
	}
}

// Run connects the transport and, when a user is configured, logs in. The
// context bounds the connection lifetime, including redials.
func (a *App) Run(ctx context.Context) error {
	if err := a.transport.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if a.cfg.User != "" {
		if err := a.Session.Login(a.cfg.User); err != nil {
			a.shutdown()
			return err
		}
	}
	return nil
}

// Close logs out and tears the transport down. Safe to call on any teardown
// path, whatever state the session is in.
func (a *App) Close() {
	a.shutdown()
}

func (a *App) shutdown() {
	a.Session.Logout()
	if err := a.transport.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close transport")
	}
}
