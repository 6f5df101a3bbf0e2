package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/frederic-klein/nevra/internal/catalog"
	"github.com/frederic-klein/nevra/internal/config"
)

// app carries what the subcommands share.
type app struct {
	configFile string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "nevra",
		Short: "Resolve package identifiers into name, epoch, version, release and arch",
		Long: "nevra splits human-typed package identifiers such as four-of-fish-8:3.6.9-11.fc100.x86_64 " +
			"into their possible NEVRA readings, and narrows them down against package catalogs.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/nevra/config.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	flags.StringArray("repo", nil, "Catalog repo as name=url or path (repeatable, replaces configured repos)")
	flags.String("cache-dir", "", "Cache directory for remote catalogs")
	flags.Duration("cache-ttl", 0, "How long fetched catalogs are reused")
	flags.IntP("workers", "w", 0, "Parallel download workers")

	rootCmd.AddCommand(
		newTokensCmd(),
		newSplitCmd(),
		newPossibilitiesCmd(),
		newResolveCmd(a),
		newProvidesCmd(a),
		newWhatProvidesCmd(a),
		newBatchCmd(a),
		newCatalogCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "nevra",
		Level:  level,
	})
	a.logger = slog.New(handler)

	cfg, path, err := config.Load(config.LoadOptions{
		ConfigFile: a.configFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if path != "" {
		a.logger.Debug("config loaded", "path", path)
	}
	a.cfg = cfg
	return nil
}

// loadCatalog loads every configured repo into one catalog.
func (a *app) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if len(a.cfg.Repos) == 0 {
		return nil, fmt.Errorf("no repos configured: use --repo or the repos config key")
	}
	idx := catalog.NewIndex(a.cfg.CacheDir, a.cfg.CacheTTL, a.cfg.Workers, a.logger)
	cat, err := idx.Load(ctx, a.cfg.Repos)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	a.logger.Debug("catalog ready", "repos", len(a.cfg.Repos), "packages", cat.Len())
	return cat, nil
}
