// Command function is a reference deployment of the dispatcher: session-backed
// login, profile and logout operations behind one Lambda handler. Set LOCAL=true
// to serve it over plain HTTP instead.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/lambdakit/core/config"
	"github.com/dmitrymomot/lambdakit/core/cookie"
	"github.com/dmitrymomot/lambdakit/core/function"
	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/router"
	"github.com/dmitrymomot/lambdakit/core/session"
	"github.com/dmitrymomot/lambdakit/core/validator"
)

type appConfig struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"lambdakit"`
	Environment  string `env:"APP_ENV" envDefault:"production"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	SessionStore string `env:"SESSION_STORE" envDefault:"memory"`
	Local        bool   `env:"LOCAL" envDefault:"false"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	opts := []logger.Option{logger.WithProduction(cfg.ServiceName)}
	if cfg.Environment == "development" {
		opts = []logger.Option{logger.WithDevelopment(cfg.ServiceName)}
	}
	log := logger.New(append(opts, logger.WithLevelString(cfg.LogLevel))...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("function stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var (
		routerCfg  router.Config
		sessionCfg session.Config
		cookieCfg  cookie.Config
	)
	if err := config.Load(&routerCfg); err != nil {
		return err
	}
	if err := config.Load(&sessionCfg); err != nil {
		return err
	}
	if err := config.Load(&cookieCfg); err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg.SessionStore, log)
	if err != nil {
		return err
	}
	defer be.close()

	sessions, err := session.NewFromConfig(be.store, sessionCfg,
		session.WithCookieManager(cookie.NewFromConfig(cookieCfg)),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}
	schemas, err := validator.LoadFS(schemaFS, "schemas")
	if err != nil {
		return err
	}

	a := &app{sessions: sessions, schemas: schemas, health: be.health, log: log}
	d, err := a.dispatcher(routerCfg)
	if err != nil {
		return err
	}

	log.Info("function initialized",
		slog.String("session_store", cfg.SessionStore),
		slog.Bool("local", cfg.Local),
	)

	if !cfg.Local {
		function.Start(d)
		return nil
	}

	var localCfg function.LocalConfig
	if err := config.Load(&localCfg); err != nil {
		return err
	}
	srv, err := function.NewLocalServer(localCfg, function.WithLocalLogger(log))
	if err != nil {
		return err
	}
	return srv.Run(ctx, d)
}
