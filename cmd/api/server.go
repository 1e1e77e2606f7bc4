package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/uboh-app/uboh-server/internal/auth"
	"github.com/uboh-app/uboh-server/internal/config"
	"github.com/uboh-app/uboh-server/internal/data"
	"github.com/uboh-app/uboh-server/internal/middleware"
)

// The dispatcher depends on small interfaces so handlers can be exercised
// with fakes; the mongo-backed stores in internal/data satisfy them.

type messagesStore interface {
	Create(ctx context.Context, in data.MessageInput) (*data.Message, error)
}

type logsStore interface {
	Create(ctx context.Context, fields map[string]any) (string, error)
}

type adviceStore interface {
	AddBatch(ctx context.Context, candidates []map[string]any) ([]map[string]any, error)
	ListAll(ctx context.Context) ([]map[string]any, error)
	IncrementLikes(ctx context.Context, id string, delta float64) (float64, error)
}

type usersStore interface {
	Upsert(ctx context.Context, email, phone string) (data.UpsertResult, error)
}

type scoresStore interface {
	Create(ctx context.Context, in data.ScoreInput) (*data.Score, error)
}

type smsSender interface {
	Send(ctx context.Context, to, from, body string) (string, error)
}

type tokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

// Server owns the collaborator handles initialized once at process start
// and dispatches authenticated actions to them.
type Server struct {
	msgs    messagesStore
	logs    logsStore
	advice  adviceStore
	users   usersStore
	scores  scoresStore
	sms     smsSender
	auth    tokenVerifier
	limiter *middleware.LimiterStore
	cfg     *config.Config
	log     zerolog.Logger
}

// newServer returns a ready-to-use Server wired with stores, verifier and
// transports.
func newServer(cfg *config.Config, verifier tokenVerifier, limiter *middleware.LimiterStore, logger zerolog.Logger,
	msgs messagesStore, logs logsStore, advice adviceStore, users usersStore, scores scoresStore, sms smsSender) *Server {
	return &Server{
		msgs:    msgs,
		logs:    logs,
		advice:  advice,
		users:   users,
		scores:  scores,
		sms:     sms,
		auth:    verifier,
		limiter: limiter,
		cfg:     cfg,
		log:     logger,
	}
}
