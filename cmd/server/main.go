// @title           Document Tree API
// @version         1.0
// @description     Folders and documents arranged in an ownership-scoped tree.
// @host            localhost:8080
// @schemes         http https
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"serwer-dokumentow/internal/api"
	"serwer-dokumentow/internal/auth"
	"serwer-dokumentow/internal/config"
	"serwer-dokumentow/internal/database"
	"serwer-dokumentow/internal/database/migrations"
	"serwer-dokumentow/internal/events"
	"serwer-dokumentow/internal/search"
	"serwer-dokumentow/internal/tree"
	"serwer-dokumentow/internal/websocket"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/text/language"

	"serwer-dokumentow/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("nie można wczytać konfiguracji", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("serwer zakończył działanie z błędem", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbpool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if err := dbpool.Ping(ctx); err != nil {
		return err
	}
	logger.Info("pomyślnie połączono z bazą danych")

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(cfg.DB.Source); err != nil {
			return err
		}
		logger.Info("migracje zastosowane")
	}

	wsHub := websocket.NewHub(logger)
	go wsHub.Run(ctx)

	collation, err := language.Parse(cfg.Collation.Locale)
	if err != nil {
		logger.Warn("nieznany język sortowania, używam angielskiego", "locale", cfg.Collation.Locale)
		collation = language.English
	}

	opts := []tree.Option{
		tree.WithLogger(logger),
		tree.WithCollation(collation),
	}

	var publisher tree.Publisher = wsHub

	var broker *events.Broker
	if cfg.Redis.URL != "" {
		broker, err = events.NewBroker(cfg.Redis.URL, cfg.Redis.Channel, wsHub, logger)
		if err != nil {
			return err
		}
		defer broker.Close()

		go func() {
			if err := broker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("broker zdarzeń zatrzymany", "error", err)
			}
		}()
		publisher = broker
		logger.Info("zdarzenia rozsyłane przez Redis", "channel", cfg.Redis.Channel, "instance", broker.InstanceID())
	}

	opts = append(opts, tree.WithPublisher(publisher))

	if cfg.Search.URL != "" {
		index := search.NewMeili(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index,
			search.WithLogger(logger),
			search.WithHealthInterval(cfg.Search.HealthInterval),
			search.WithSource(database.New(dbpool)),
		)
		defer index.Close()
		opts = append(opts, tree.WithSearchIndex(index))
		logger.Info("wyszukiwanie przez Meilisearch", "url", cfg.Search.URL, "index", cfg.Search.Index)
	}

	verifier, err := buildVerifier(ctx, cfg, logger)
	if err != nil {
		return err
	}

	store := database.NewStore(dbpool)
	svc, err := tree.New(store, opts...)
	if err != nil {
		return err
	}

	docs.SwaggerInfo.Host = cfg.Server.Host

	server := api.NewServer(cfg, svc, verifier, wsHub, logger)
	server.AddHealthCheck("postgres", dbpool)
	if broker != nil {
		server.AddHealthCheck("redis", broker)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("uruchamianie serwera", "addr", cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("zamykanie serwera")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildVerifier(ctx context.Context, cfg *config.Config, logger *slog.Logger) (auth.Verifier, error) {
	var chain auth.Chain
	if cfg.JWT.Secret != "" {
		chain = append(chain, auth.NewHMACVerifier(cfg.JWT.Secret))
	}
	if cfg.JWT.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.JWT.JWKSURL, logger)
		if err != nil {
			return nil, err
		}
		chain = append(chain, jwks)
	}
	return chain, nil
}
