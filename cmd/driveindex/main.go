package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"driveindex/internal/config"
	"driveindex/internal/embedder"
	"driveindex/internal/extractor"
	"driveindex/internal/mcp"
	"driveindex/internal/remote"
	"driveindex/internal/searcher"
	"driveindex/internal/storage"
	"driveindex/internal/syncer"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var configPath string

func main() {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "driveindex",
		Short:         "Incremental sync and search index for a remote drive",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "driveindex.yaml", "path to config file")

	root.AddCommand(serveCmd(), syncCmd(), verifyCmd(), repairCmd(), searchCmd(), versionCmd())
	return root
}

// newLogger writes to stderr; stdout is reserved for MCP protocol traffic
// and command output.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// app bundles the wired components for the one-shot CLI commands.
type app struct {
	cfg      *config.Config
	storage  storage.Storage
	engine   *syncer.Engine
	searcher *searcher.Searcher
}

func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	store, err := storage.NewSQLiteStorage(cfg.Index.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	client := remote.NewGraphClient(remote.StaticTokenSource(cfg.Token()))
	if cfg.Store.BaseURL != "" {
		client = client.WithBaseURL(cfg.Store.BaseURL)
	}

	var emb *embedder.Service
	if cfg.Embedder.Provider == "" {
		emb = embedder.NewServiceFromEnv(logger)
	} else {
		emb = embedder.NewService(func() (embedder.Embedder, error) {
			return embedder.New(embedder.Config{
				Provider:  cfg.Embedder.Provider,
				APIKey:    os.Getenv(cfg.Embedder.APIKeyEnv),
				CacheSize: cfg.Embedder.CacheSize,
			})
		}, logger)
	}

	return &app{
		cfg:      cfg,
		storage:  store,
		engine:   syncer.New(client, store, extractor.New(), emb, cfg, logger),
		searcher: searcher.New(store, emb, cfg, logger),
	}, nil
}

func (a *app) close() {
	_ = a.storage.Close()
}

// signalContext cancels on SIGINT/SIGTERM; an interrupted run leaves its
// progress rows in place for the next run to inspect.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger()
			logger.Info("driveindex MCP server starting",
				"version", version,
				"build_mode", storage.BuildMode,
				"driver", storage.DriverName,
				"vector_extension", storage.VectorExtensionAvailable)

			srv, err := mcp.NewServer(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()
			return srv.Serve(ctx)
		},
	}
}

func syncCmd() *cobra.Command {
	var full bool
	var storeID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the drive into the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if storeID != "" {
				cfg.Store.DriveID = storeID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := buildApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			run := a.engine.RunIncrementalSync
			if full {
				run = a.engine.RunFullSync
			}

			// The run error is returned after the engine has persisted
			// the error status, so scheduled invocations fail loudly.
			chunks, err := run(ctx, cfg.Store.DriveID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sync complete: %d chunks\n", chunks)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "run a full re-enumeration instead of the change feed")
	cmd.Flags().StringVar(&storeID, "store", "", "drive ID (defaults to configured drive)")
	return cmd
}

func verifyCmd() *cobra.Command {
	var storeID string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check agreement between the drive and the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if storeID != "" {
				cfg.Store.DriveID = storeID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := buildApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			report, err := a.engine.VerifyIntegrity(ctx, cfg.Store.DriveID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "remote files:  %d\n", report.RemoteFiles)
			fmt.Fprintf(out, "indexed files: %d\n", report.IndexedFiles)
			fmt.Fprintf(out, "missing:       %d\n", len(report.MissingInIndex))
			fmt.Fprintf(out, "orphaned:      %d\n", len(report.OrphanedInDB))
			fmt.Fprintf(out, "score:         %.1f%%\n", report.Score)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "drive ID (defaults to configured drive)")
	return cmd
}

func repairCmd() *cobra.Command {
	var storeID string

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Reindex missing files and remove orphaned index entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if storeID != "" {
				cfg.Store.DriveID = storeID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := buildApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			report, err := a.engine.VerifyIntegrity(ctx, cfg.Store.DriveID)
			if err != nil {
				return err
			}
			repaired, err := a.engine.RepairReport(ctx, report)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "repaired %d of %d discrepancies\n",
				repaired, len(report.MissingInIndex)+len(report.OrphanedInDB))
			return nil
		},
	}

	cmd.Flags().StringVar(&storeID, "store", "", "drive ID (defaults to configured drive)")
	return cmd
}

func searchCmd() *cobra.Command {
	var principal string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := buildApp(cfg, newLogger())
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := signalContext()
			defer cancel()

			query := args[0]
			for _, extra := range args[1:] {
				query += " " + extra
			}

			results, err := a.searcher.Search(ctx, query, principal)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%d. [%.3f] %s\n", i+1, r.Score, r.Filename)
				if r.CitationURL != "" {
					fmt.Fprintf(out, "   %s\n", r.CitationURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "", "user or group ID for permission filtering")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "driveindex %s\n", version)
			fmt.Fprintf(out, "Build Time: %s\n", buildTime)
			fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
			fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
			fmt.Fprintf(out, "Vector Extension: %v\n", storage.VectorExtensionAvailable)
		},
	}
}
