package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/midzapp/midz/internal/adapters/postgres"
	"github.com/midzapp/midz/internal/core/ports"
	"github.com/midzapp/midz/internal/pkg/config"
	"github.com/midzapp/midz/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("midz-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	f, err := os.Open(manifestPath)
	if err != nil {
		log.Fatalf("open manifest: %v", err)
	}
	manifest, err := parseManifest(f)
	_ = f.Close()
	if err != nil {
		log.Fatal(err)
	}
	if err := manifest.Validate(); err != nil {
		log.Fatalf("invalid manifest %s:\n%v", manifestPath, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	start := time.Now()
	if err := importManifest(ctx, manifest, postgres.NewUserRepo(db), postgres.NewBoardRepo(db)); err != nil {
		slog.Error("import failed", "manifest", manifestPath, "error", err)
		os.Exit(1)
	}
	slog.Info("import complete", "source", manifest.Source, "elapsed", time.Since(start).String())
}

// importManifest writes users before boards, since boards reference their owner.
func importManifest(ctx context.Context, m *Manifest, users ports.UserWriter, boards ports.BoardWriter) error {
	du := m.DomainUsers()
	if err := users.UpsertUsers(ctx, du); err != nil {
		return err
	}
	slog.Info("users imported", "count", len(du))

	bl := m.DomainBoards()
	if len(bl) == 0 {
		return nil
	}
	if err := boards.UpsertBoards(ctx, bl); err != nil {
		return err
	}
	slog.Info("boards imported", "count", len(bl))
	return nil
}
