package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/curriculab/curricula-backend/internal/adapter/postgres"
	auditrepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/audit"
	noderepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/node"
	typerepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/nodetype"
	"github.com/curriculab/curricula-backend/internal/config"
	"github.com/curriculab/curricula-backend/internal/service/tree"
	"github.com/curriculab/curricula-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects
// to the database, assembles the tree service behind the REST router
// and serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	nodeRepo := noderepo.New(pool)
	typeRepo := typerepo.New(pool)
	auditRepo := auditrepo.New(pool)

	validator := tree.NewValidator(cfg.Tree.MaxDepth)
	treeService := tree.NewService(logger, nodeRepo, typeRepo, auditRepo, txm, validator, cfg.Tree.MaxSubtreeFetch)

	treeHandler := rest.NewTreeHandler(treeService, logger)
	healthHandler := rest.NewHealthHandler(pool, BuildVersion())
	router := rest.NewRouter(logger, cfg.CORS, treeHandler, healthHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped cleanly")
	return nil
}
