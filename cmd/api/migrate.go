package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/KarenSyu/travel/internal/config"
	"github.com/KarenSyu/travel/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back, or list the snapshot table migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			url, err := config.LoadDatabaseURL()
			if err != nil {
				return err
			}
			logger := newLogger(os.Getenv("LOG_LEVEL"))

			db, err := sql.Open("pgx", url)
			if err != nil {
				return fmt.Errorf("migrate: open database: %w", err)
			}
			defer db.Close()
			return migrate(cmd.Context(), db, action, logger)
		},
	}
}

// migrate runs one goose action against db using the embedded migrations.
func migrate(ctx context.Context, db *sql.DB, action string, log *slog.Logger) error {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: create goose provider: %w", err)
	}

	switch action {
	case "up":
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate: up: %w", err)
		}
		for _, r := range results {
			log.InfoContext(ctx, "migration applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
		}
		if len(results) == 0 {
			log.InfoContext(ctx, "migrations up to date")
		}
	case "down":
		r, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("migrate: down: %w", err)
		}
		log.InfoContext(ctx, "migration rolled back", "version", r.Source.Version)
	case "status":
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate: status: %w", err)
		}
		for _, s := range statuses {
			log.InfoContext(ctx, "migration", "version", s.Source.Version, "path", s.Source.Path,
				"state", string(s.State), "applied_at", s.AppliedAt)
		}
	default:
		return fmt.Errorf("migrate: unknown action %q", action)
	}
	return nil
}
