package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"serwer-dokumentow/internal/config"
	"serwer-dokumentow/internal/database"
	"serwer-dokumentow/internal/database/migrations"
	"serwer-dokumentow/internal/search"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the server configuration and opens a pool. The caller must
// close the pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DB.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}
	return cfg, pool, nil
}

var rootCmd = &cobra.Command{
	Use:          "treectl",
	Short:        "Administration of the document tree store",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if err := migrations.Up(cfg.DB.Source); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, _ := cmd.Flags().GetInt("steps")
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1, got %d", steps)
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		if err := migrations.Down(cfg.DB.Source, steps); err != nil {
			return fmt.Errorf("rolling back migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		current, latest, dirty, err := migrations.Status(cfg.DB.Source)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\nLatest:  %d\nDirty:   %t\n", current, latest, dirty)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Scan the tree for cycles and dangling references",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		var report database.IntegrityReport
		err = database.NewStore(pool).ExecTx(cmd.Context(), func(q *database.Queries) error {
			var err error
			report, err = q.CheckIntegrity(cmd.Context())
			return err
		})
		if err != nil {
			return fmt.Errorf("checking integrity: %w", err)
		}

		out := cmd.OutOrStdout()
		printIDs := func(label string, ids []string) {
			fmt.Fprintf(out, "%s: %d\n", label, len(ids))
			if len(ids) > 0 {
				fmt.Fprintf(out, "  %s\n", strings.Join(ids, ", "))
			}
		}
		printIDs("Folders in cycles", report.CyclicFolderIDs)
		printIDs("Folders with missing parent", report.DanglingFolderIDs)
		printIDs("Documents with missing parent", report.OrphanDocumentIDs)

		if !report.Clean() {
			return fmt.Errorf("tree integrity check failed")
		}
		fmt.Fprintln(out, "Tree is consistent")
		return nil
	},
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Push every document into the search index",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, pool, err := connect(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		if cfg.Search.URL == "" {
			return fmt.Errorf("search.url is not configured")
		}
		index := search.NewMeili(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index,
			search.WithSource(database.New(pool)),
		)
		defer index.Close()

		total, err := index.Resync(cmd.Context())
		if err != nil {
			return fmt.Errorf("reindexing after %d document(s): %w", total, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d document(s)\n", total)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateDownCmd.Flags().IntP("steps", "n", 1, "Number of migrations to roll back")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reindexCmd)
}
