package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/kichiro01/ToPick-api/internal/auth"
	"github.com/kichiro01/ToPick-api/internal/config"
	"github.com/kichiro01/ToPick-api/internal/database"
	"github.com/kichiro01/ToPick-api/internal/logging"
	"github.com/kichiro01/ToPick-api/internal/repository/postgres"
	"github.com/kichiro01/ToPick-api/migrations"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var useEmbedded bool

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			source, label := migrationSource(cfg.MigrationsDir, useEmbedded)
			return withDatabase(cmd.Context(), cfg, func(ctx context.Context, deps dbDeps) error {
				if err := database.ApplyMigrations(ctx, deps.pool, source, deps.logger); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				deps.logger.Info("migrations applied", "source", label)
				return nil
			})
		},
	}
	root.Flags().BoolVar(&useEmbedded, "embedded", false, "use the migrations compiled into the binary instead of MIGRATIONS_DIR")

	root.AddCommand(newSeedThemesCmd(), newHashAdminTokenCmd())
	return root
}

func newSeedThemesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed-themes",
		Short: "Insert or update prepared themes from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			return withDatabase(cmd.Context(), cfg, func(ctx context.Context, deps dbDeps) error {
				n, err := database.SeedPreparedThemes(ctx, postgres.NewThemeRepository(deps.pool), f, deps.logger)
				if err != nil {
					return err
				}
				deps.logger.Info("prepared themes seeded", "file", file, "count", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed/themes.yaml", "path to the themes YAML file")
	return cmd
}

func newHashAdminTokenCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-admin-token <token>",
		Short: "Print the bcrypt hash to put into ADMIN_TOKEN_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAdminToken(args[0], cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func migrationSource(dir string, useEmbedded bool) (fs.FS, string) {
	if useEmbedded || dir == "" {
		return migrations.FS, "embedded"
	}
	return os.DirFS(dir), dir
}

type dbDeps struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func withDatabase(ctx context.Context, cfg config.Config, fn func(ctx context.Context, deps dbDeps) error) error {
	logger, closer, err := logging.New(cfg.LogLevel, "")
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	return fn(ctx, dbDeps{pool: pool, logger: logger})
}
