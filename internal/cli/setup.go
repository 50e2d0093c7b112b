package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/aristath/tasktracker/internal/config"
	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/logging"
	"github.com/aristath/tasktracker/internal/manager"
	"github.com/aristath/tasktracker/internal/persistence"
)

// runtime bundles everything a command needs after bootstrap.
type runtime struct {
	cfg     *config.Config
	logger  *log.Logger
	bus     *events.Bus
	writer  *persistence.Writer
	manager *manager.Manager
}

// loadConfig merges defaults, the conventional config paths (or the
// --config file), and the persistent log flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return nil, fmt.Errorf("getting home directory: %w", herr)
		}
		cfg, err = config.Load(filepath.Join(home, ".tasktracker", "config.json"), configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}
	return cfg, nil
}

// bootstrap opens the configured store, loads the snapshot, and assembles
// the writer, bus, and manager. Logs go to logW. The returned cleanup
// closes the writer (flushing any pending save) and the bus; the writer
// deliberately runs on its own context so a cancelled ctx cannot abort
// the final flush.
func bootstrap(ctx context.Context, cfg *config.Config, logW io.Writer) (*runtime, func(), error) {
	logger := logging.New(logW, cfg.Log)

	store, err := persistence.Open(ctx, cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	snap, err := store.Load(ctx)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("loading snapshot: %w", err)
	}

	writer := persistence.NewWriter(context.Background(), store, logger, cfg.Save.RetryConfig())
	bus := events.NewBus()
	mgr := manager.New(snap, writer, bus, logger)

	logger.Debug("store loaded", "driver", cfg.Store.Driver, "path", cfg.Store.Path, "todos", len(snap.Todos))

	cleanup := func() {
		if err := writer.Close(); err != nil {
			logger.Error("closing store", "err", err)
		}
		bus.Close()
	}

	return &runtime{cfg: cfg, logger: logger, bus: bus, writer: writer, manager: mgr}, cleanup, nil
}
