package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/uboh-app/uboh-server/internal/auth"
	"github.com/uboh-app/uboh-server/internal/config"
	"github.com/uboh-app/uboh-server/internal/data"
	"github.com/uboh-app/uboh-server/internal/db"
	"github.com/uboh-app/uboh-server/internal/middleware"
	"github.com/uboh-app/uboh-server/internal/sms"
)

func main() {
	logger := zerolog.New(os.Stdout).With().
		Str("service", "uboh-api").
		Timestamp().
		Logger()

	cfg, err := config.New()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	// Collaborator handles are constructed once here and reused across
	// requests; each request only borrows them.
	dbClient, err := db.New(ctx, cfg.MongoURI)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer func() {
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.CreateIndexes(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to create indexes")
	}

	verifier, err := newVerifier(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid JWT configuration")
	}

	var smsClient *sms.Client
	if cfg.SMSConfigured() {
		smsClient = sms.New(cfg.SMSAccountSID, cfg.SMSAuthToken)
	} else {
		logger.Warn().Msg("SMS transport not configured; sendSMS will reject requests")
	}

	// Small burst so a caller can retry a couple of times quickly.
	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, 1*time.Minute)
	defer limiter.Stop()

	srv := newServer(cfg, verifier, limiter, logger,
		data.NewMessagesStore(dbClient.MessagesCollection()),
		data.NewLogsStore(dbClient.LogsCollection()),
		data.NewAdviceStore(dbClient.AdviceCollection()),
		data.NewUsersStore(dbClient.UsersCollection()),
		data.NewScoresStore(dbClient.ScoresCollection()),
		smsClient,
	)

	router := mux.NewRouter()
	router.HandleFunc("/uboh", srv.HandleUboh)
	router.HandleFunc("/health", srv.HandleHealth).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		var err error
		if cfg.TLSCert != "" && cfg.TLSKey != "" {
			err = httpServer.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
}

// newVerifier builds the token verifier from config. If a rotation key
// list is supplied we parse kid:secret pairs so token rotation is
// possible; otherwise fall back to the single secret.
func newVerifier(cfg *config.Config) (*auth.JWTManager, error) {
	if cfg.JWTKeys == "" {
		return auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour), nil
	}

	keyMap := map[string]string{}
	for _, p := range strings.Split(cfg.JWTKeys, ",") {
		if p == "" {
			continue
		}
		parts := strings.SplitN(p, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid UBOH_JWT_KEYS entry: %s", p)
		}
		keyMap[parts[0]] = parts[1]
	}
	return auth.NewJWTManagerFromKeys(keyMap, cfg.JWTActiveKid, 24*time.Hour), nil
}
