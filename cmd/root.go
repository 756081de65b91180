// Package cmd implements the liquiditymap command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TFMV/liquiditymap/catalog"
	"github.com/TFMV/liquiditymap/config"
	"github.com/TFMV/liquiditymap/graph"
	"github.com/TFMV/liquiditymap/ingest"
	"github.com/TFMV/liquiditymap/logging"
	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

var version = "0.3.0"

var (
	configPath string
	envFiles   []string
	debugMode  bool
	logLevel   string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "liquiditymap",
	Short: "liquiditymap: a force-directed map of USD liquidity indicators",
	Long: Brand.Sprint("liquiditymap") + " lays out macro liquidity indicators as an interactive bubble map\n" +
		Subtle.Sprint("Render it to a file, serve it to a browser or explore it in the terminal"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath, envFiles...)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("debug") {
			loaded.Log.Debug = debugMode
		}
		if cmd.Flags().Changed("log-level") {
			loaded.Log.Level = logLevel
		}
		l, err := logging.New(loaded.Log.Level, loaded.Log.Debug)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.SetVersionTemplate("liquiditymap {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "Env files to load before reading LIQUIDITYMAP_* variables")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		renderCmd(),
		serveCmd(),
		tuiCmd(),
		validateCmd(),
		indicatorsCmd(),
		calendarCmd(),
		configCmd(),
	)
}

// Execute runs the root command. Cancelling ctx stops long-running commands.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		Bad.Fprintf(os.Stderr, "liquiditymap: %v\n", err)
	}
	return err
}

// dataSources resolves the catalog and relationship table named in the config,
// falling back to the built-in ones
func dataSources() (*catalog.Catalog, graph.Table, error) {
	cat := catalog.Default()
	if cfg.Data.Catalog != "" {
		c, err := ingest.LoadCatalogFile(cfg.Data.Catalog)
		if err != nil {
			return nil, graph.Table{}, err
		}
		cat = c
		logger.Debug("loaded catalog", zap.String("path", cfg.Data.Catalog), zap.Int("indicators", len(cat.All())))
	}

	table := graph.DefaultTable()
	if cfg.Data.Relationships != "" {
		t, err := ingest.LoadTableFile(cfg.Data.Relationships)
		if err != nil {
			return nil, graph.Table{}, err
		}
		table = t
		logger.Debug("loaded relationship table", zap.String("path", cfg.Data.Relationships), zap.String("version", table.Version))
	}
	return cat, table, nil
}

func buildGraph(cat *catalog.Catalog, table graph.Table, policyNodes bool) *models.Graph {
	opts := []graph.Option{graph.WithFed(cat.Fed)}
	if policyNodes {
		opts = append(opts, graph.WithPolicyNodes(graph.PolicyNodes()...))
	}
	g := graph.Build(cat.Onshore, cat.Offshore, table, opts...)
	graph.Validate(table, g.Nodes).Log(logger)
	return g
}

func layoutConfig() physics.Config {
	lc := physics.DefaultConfig()
	lc.Viewport = physics.Viewport{Width: cfg.Layout.Width, Height: cfg.Layout.Height}
	lc.Seed = cfg.Layout.Seed
	lc.Logger = logger
	return lc
}

func output(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
