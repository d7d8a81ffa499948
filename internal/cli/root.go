package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourname/snusquit/internal"
	"github.com/yourname/snusquit/internal/config"
	"github.com/yourname/snusquit/internal/storage"
)

// loadConfig is swapped out by tests.
var loadConfig = config.Load

var errNoStore = errors.New("no store configured: set DATABASE_URL, or STORAGE_BACKEND to postgres, sqlite or file")

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "snusquit",
		Short:        "SnusQuit habit-tracking backend",
		Long:         "snusquit serves the SnusQuit HTTP API and offers maintenance commands against its store.",
		SilenceUsage: true,
	}
	serve := newServeCmd()
	root.RunE = serve.RunE
	root.AddCommand(serve, newMigrateCmd(), newSeedTipsCmd(), newSummaryCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command works with.
type env struct {
	cfg    *config.Config
	logger *internal.ZapLogger
	store  storage.Store
}

// setup loads config, builds the logger, opens the store and brings its
// schema up to date. store is nil when none is configured.
func setup(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	defer cancel()
	store, err := storage.New(openCtx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	e := &env{cfg: cfg, logger: logger, store: store}
	if store != nil {
		if err := store.Migrate(openCtx); err != nil {
			e.close()
			return nil, err
		}
	}
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			e.logger.Errorf("failed to close store: %v", err)
		}
	}
	_ = e.logger.Sync()
}

// storeContext bounds one command's store work the way the HTTP middleware does.
func (e *env) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.cfg.StoreTimeout)
}
