package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/config"
	"github.com/mgijax/wts/database"
	"github.com/mgijax/wts/graph"
	"github.com/mgijax/wts/service"
	"github.com/mgijax/wts/web"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "wts",
		Short: "Work tracking dependency service",
		Long: `wts keeps the transitive closure of "depends on" relationships between
tracking records current, and refuses edits that would create a cycle.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Int("type", 0, "Relationship type (defaults to DEPENDS_ON_TYPE)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newSyncCmd(),
		newRebuildCmd(),
		newTreeCmd(),
		newCheckCmd(),
	)

	err := rootCmd.Execute()
	config.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every command needs once bootstrapped.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *service.DependencyService
	close  func()
}

// bootstrap loads config, sets up logging and connects the stores. With
// memory set nothing is persisted.
func bootstrap(ctx context.Context, memory bool) (*app, error) {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info", "console")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg := config.Load(tempLogger)

	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}

	var (
		relationships service.RelationshipStore
		records       service.RecordStore
		closeStores   = func() {}
	)
	if memory {
		logger.Warn("Using in-memory stores, nothing will be persisted")
		relationships = graph.NewMemory()
		records = database.NewMemoryStore()
	} else {
		store, err := database.NewPostgresStore(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}
		relationships = graph.New(store.DB, logger)
		records = store
		closeStores = func() { store.Close() }
	}

	types := make([]closure.RelationshipType, len(cfg.RelationshipTypes))
	for i, t := range cfg.RelationshipTypes {
		types[i] = closure.RelationshipType(t)
	}

	svc, err := service.NewDependencyService(relationships, records, service.Options{
		BatchSize:          cfg.ClosureBatchSize,
		CacheSize:          cfg.ClosureCacheSize,
		RebuildConcurrency: cfg.RebuildConcurrency,
		RelationshipTypes:  types,
	}, logger)
	if err != nil {
		closeStores()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, svc: svc, close: closeStores}, nil
}

// relationshipType resolves the --type flag against the configured default.
func (a *app) relationshipType(cmd *cobra.Command) closure.RelationshipType {
	t, _ := cmd.Flags().GetInt("type")
	if t < 1 {
		t = a.cfg.DependsOnType
	}
	return closure.RelationshipType(t)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wts version %s\n", version)
		},
	}
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			memory, _ := cmd.Flags().GetBool("memory")

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := bootstrap(ctx, memory)
			if err != nil {
				return err
			}
			defer a.close()

			if a.cfg.ClosureAuditEnabled {
				go a.svc.StartAudit(ctx, a.cfg.ClosureAuditInterval)
			}

			server := web.NewServer(a.svc, a.logger, a.cfg)
			port := fmt.Sprintf(":%d", a.cfg.WebPort)
			return server.Start(ctx, port)
		},
	}
	cmd.Flags().Bool("memory", false, "Keep all data in process memory")
	return cmd
}
