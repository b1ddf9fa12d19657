// Command seed prepares a database for the curricula content-tree API.
// It applies goose migrations, upserts the built-in node types and can
// optionally create a small sample curriculum for local development.
//
// Flags:
//
//	--migrations  path to the goose migrations directory (default ./migrations)
//	--sample      also create a sample curriculum (Mathematics/Algebra/Geometry)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/curriculab/curricula-backend/internal/adapter/postgres"
	auditrepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/audit"
	noderepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/node"
	typerepo "github.com/curriculab/curricula-backend/internal/adapter/postgres/nodetype"
	"github.com/curriculab/curricula-backend/internal/app"
	"github.com/curriculab/curricula-backend/internal/config"
	"github.com/curriculab/curricula-backend/internal/domain"
	"github.com/curriculab/curricula-backend/internal/service/tree"
	"github.com/curriculab/curricula-backend/pkg/ctxutil"
)

// systemActorID attributes seed mutations in the audit log.
var systemActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func main() {
	migrationsFlag := flag.String("migrations", "./migrations", "path to goose migrations directory")
	sampleFlag := flag.Bool("sample", false, "create a sample curriculum")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := applyMigrations(ctx, cfg.Database.DSN, *migrationsFlag); err != nil {
		logger.Error("apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	typeRepo := typerepo.New(pool)

	typeIDs := make(map[string]uuid.UUID)
	if cfg.Tree.SeedBuiltinTypes {
		for _, nt := range builtinTypes() {
			seeded, err := typeRepo.Upsert(ctx, nt)
			if err != nil {
				logger.Error("upsert node type",
					slog.String("code", nt.Code),
					slog.String("error", err.Error()),
				)
				os.Exit(1)
			}
			typeIDs[seeded.Code] = seeded.ID
			logger.Info("node type ready", slog.String("code", seeded.Code))
		}
	}

	if *sampleFlag {
		txm := postgres.NewTxManager(pool)
		validator := tree.NewValidator(cfg.Tree.MaxDepth)
		svc := tree.NewService(logger, noderepo.New(pool), typeRepo, auditrepo.New(pool), txm, validator, cfg.Tree.MaxSubtreeFetch)

		if err := seedSample(ctx, svc, typeIDs); err != nil {
			logger.Error("seed sample curriculum", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("sample curriculum ready")
	}

	logger.Info("seed completed")
}

func applyMigrations(ctx context.Context, dsn, dir string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return err
	}

	_, err = provider.Up(ctx)
	return err
}

// builtinTypes returns the node types seeded on first run. Category is
// restricted to the root level, question groups are leaves.
func builtinTypes() []domain.NodeType {
	return []domain.NodeType{
		{
			ID:                uuid.New(),
			Code:              domain.NodeTypeCategory,
			Name:              "Category",
			MaxDepth:          domain.Bounded(0),
			IsSystemProtected: true,
		},
		{
			ID:                uuid.New(),
			Code:              domain.NodeTypeSubject,
			Name:              "Subject",
			MaxDepth:          domain.Bounded(3),
			IsSystemProtected: true,
		},
		{
			ID:                uuid.New(),
			Code:              domain.NodeTypeTopic,
			Name:              "Topic",
			MaxDepth:          domain.Bounded(8),
			IsSystemProtected: false,
		},
		{
			ID:                uuid.New(),
			Code:              domain.NodeTypeQuestionGroup,
			Name:              "Question Group",
			MaxChildren:       domain.Bounded(0),
			IsSystemProtected: false,
		},
	}
}

// seedSample creates a tiny curriculum. Re-running is safe: nodes whose
// code already exists are skipped.
func seedSample(ctx context.Context, svc *tree.Service, typeIDs map[string]uuid.UUID) error {
	categoryType, ok := typeIDs[domain.NodeTypeCategory]
	if !ok {
		return errors.New("category type not seeded, run without disabling built-in types")
	}
	subjectType, ok := typeIDs[domain.NodeTypeSubject]
	if !ok {
		return errors.New("subject type not seeded")
	}

	ctx = ctxutil.WithActorID(ctx, systemActorID)

	root, err := createOrGet(ctx, svc, tree.CreateNodeInput{
		TypeID: categoryType,
		Code:   "mathematics",
		Name:   "Mathematics",
	})
	if err != nil {
		return err
	}

	for _, subject := range []struct{ code, name string }{
		{"algebra", "Algebra"},
		{"geometry", "Geometry"},
	} {
		if _, err := createOrGet(ctx, svc, tree.CreateNodeInput{
			TypeID:   subjectType,
			ParentID: &root.ID,
			Code:     subject.code,
			Name:     subject.name,
		}); err != nil {
			return err
		}
	}

	return nil
}

func createOrGet(ctx context.Context, svc *tree.Service, input tree.CreateNodeInput) (*domain.Node, error) {
	node, err := svc.CreateNode(ctx, input)
	if errors.Is(err, domain.ErrDuplicateCode) {
		return svc.GetNodeByCode(ctx, input.Code)
	}
	return node, err
}
