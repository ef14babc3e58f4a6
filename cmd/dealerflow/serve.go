package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/dealerflow/dealerflow/internal/agentcore"
	"github.com/dealerflow/dealerflow/internal/config"
	"github.com/dealerflow/dealerflow/internal/db"
	dbsqlc "github.com/dealerflow/dealerflow/internal/db/sqlc"
	"github.com/dealerflow/dealerflow/internal/engine"
	"github.com/dealerflow/dealerflow/internal/handlers"
	"github.com/dealerflow/dealerflow/internal/logger"
	"github.com/dealerflow/dealerflow/internal/mail"
	"github.com/dealerflow/dealerflow/internal/metrics"
	"github.com/dealerflow/dealerflow/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			metrics.NewCounters,
			provideChatClient,
			provideCore,
			provideTransport,
			provideStore,
			provideEngine,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideConversationsHandler),
			provideServerHandler(provideAgentsHandler),
			provideServerHandler(provideSendHandler),
			provideServerHandler(provideMetricsHandler),
			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return config.Config{}, fmt.Errorf("jwt secret is required")
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *dbsqlc.Queries { return dbsqlc.New(conn) }

func provideChatClient(log *slog.Logger, cfg config.Config) agentcore.ChatClient {
	return agentcore.NewOpenAIClient(log, cfg.LLM)
}

func provideCore(log *slog.Logger, client agentcore.ChatClient, counters *metrics.Counters) *agentcore.Core {
	return agentcore.New(log, client, counters)
}

// The SMTP transport is selected when a host is configured; Mailgun is the
// default for hosted setups.
func provideTransport(log *slog.Logger, cfg config.Config) mail.Transport {
	if strings.TrimSpace(cfg.SMTP.Host) != "" {
		return mail.NewSMTPTransport(log, cfg.SMTP)
	}
	return mail.NewMailgunTransport(log, cfg.Mailgun)
}

func provideStore(log *slog.Logger, queries *dbsqlc.Queries) engine.Store {
	return engine.NewDBStore(log, queries)
}

func provideEngine(log *slog.Logger, store engine.Store, core *agentcore.Core, transport mail.Transport, counters *metrics.Counters, cfg config.Config) *engine.Engine {
	return engine.New(log, store, core, transport, counters, cfg.Sending)
}

func providePingHandler(log *slog.Logger) *handlers.PingHandler {
	return handlers.NewPingHandler(log)
}

func provideWebhookHandler(log *slog.Logger, eng *engine.Engine, cfg config.Config) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, eng, cfg.Mailgun)
}

func provideConversationsHandler(log *slog.Logger, eng *engine.Engine, store engine.Store) *handlers.ConversationsHandler {
	return handlers.NewConversationsHandler(log, eng, store)
}

func provideAgentsHandler(log *slog.Logger, queries *dbsqlc.Queries) *handlers.AgentsHandler {
	return handlers.NewAgentsHandler(log, queries)
}

func provideSendHandler(log *slog.Logger, eng *engine.Engine) *handlers.SendHandler {
	return handlers.NewSendHandler(log, eng)
}

func provideMetricsHandler(log *slog.Logger, counters *metrics.Counters) *handlers.MetricsHandler {
	return handlers.NewMetricsHandler(log, counters)
}

type serverParams struct {
	fx.In

	Log      *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(p serverParams) *server.Server {
	addr := p.Config.Server.Addr
	if value := os.Getenv("HTTP_ADDR"); value != "" {
		addr = value
	}
	return server.NewServer(p.Log, addr, p.Config.Auth.JWTSecret, p.Handlers...)
}

func runMigrations(cfg config.Config, log *slog.Logger) error {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return err
	}
	log.Info("schema up to date")
	return nil
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
