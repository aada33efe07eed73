package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osada/npcmind/internal/config"
	"github.com/osada/npcmind/internal/logger"
	"github.com/osada/npcmind/pkg/manager"
	"github.com/osada/npcmind/pkg/types"
	"github.com/spf13/cobra"
)

var (
	resumeFlag  bool
	runDuration time.Duration
)

// runCmd drives the simulation loop
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the NPC simulation",
	Long: `Run starts the world clock and ticks every NPC until interrupted.

SIGINT and SIGTERM stop the loop and write a final snapshot when
persistence is enabled. SIGHUP reloads the configuration file and
re-applies the log level without restarting.`,
	RunE: runSimulation,
}

// runSimulation executes the main simulation loop
func runSimulation(cmd *cobra.Command, args []string) error {
	if err := initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	rootLog.Info("Starting npcmind", "version", Version)

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	mgr, err := manager.New(cfg, rootLog)
	if err != nil {
		return fmt.Errorf("failed to create world manager: %w", err)
	}

	if resumeFlag {
		path, err := mgr.LoadLatest()
		switch {
		case err == nil:
			rootLog.Info("Resumed from snapshot", "path", path)
		case types.GetErrorCode(err) == types.ErrCodeNotFound:
			rootLog.Info("No snapshot to resume from, starting fresh")
		default:
			mgr.Close()
			return fmt.Errorf("failed to resume: %w", err)
		}
	}

	if cfg.Roster.Path != "" {
		count, err := mgr.LoadRoster(cfg.Roster.Path)
		if err != nil {
			mgr.Close()
			return fmt.Errorf("failed to load roster: %w", err)
		}
		rootLog.Info("Roster loaded", "path", cfg.Roster.Path, "npcs", count)

		if cfg.Roster.Watch {
			if err := mgr.WatchRoster(cfg.Roster.Path); err != nil {
				rootLog.Warn("Roster watching unavailable", "error", err)
			} else {
				rootLog.Info("Watching roster for changes", "path", cfg.Roster.Path)
			}
		}
	} else {
		rootLog.Warn("No roster configured, world starts empty")
	}

	// SIGHUP reloads the config file; only the log level applies live,
	// the simulation sections take effect on the next start
	configPath := cfgFile
	if configPath == "" {
		if path, err := config.GetDefaultConfigPath(); err == nil {
			configPath = path
		}
	}
	reloader := config.NewReloader(configPath, cfg)
	reloader.AddCallback(func(ctx context.Context, newConfig *config.Config) error {
		level, err := logger.ParseLevel(newConfig.Logging.Level)
		if err != nil {
			return err
		}
		rootLog.SetLevel(level)
		rootLog.Info("Log level re-applied", "level", newConfig.Logging.Level)
		return nil
	})
	reloader.Start()
	defer reloader.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(cfg.Simulation.TickInterval)
	defer ticker.Stop()

	var autosaveC <-chan time.Time
	if cfg.Persistence.Enabled && cfg.Persistence.AutosaveInterval > 0 {
		autosave := time.NewTicker(cfg.Persistence.AutosaveInterval)
		defer autosave.Stop()
		autosaveC = autosave.C
		rootLog.Info("Autosave enabled", "interval", cfg.Persistence.AutosaveInterval.String())
	}

	var deadline <-chan time.Time
	if runDuration > 0 {
		timer := time.NewTimer(runDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	rootLog.Info("Simulation is running. Press Ctrl+C to stop.",
		"tick_interval", cfg.Simulation.TickInterval.String(),
		"time_scale", cfg.Simulation.TimeScale,
		"npcs", mgr.Count())

loop:
	for {
		select {
		case <-ticker.C:
			mgr.Tick()
		case <-autosaveC:
			if path, err := mgr.Save(); err != nil {
				rootLog.Warn("Autosave failed", "error", err)
			} else if path != "" {
				rootLog.Info("Autosave complete", "path", path, "stats", mgr.Stats().String())
			}
		case sig := <-sigCh:
			rootLog.Info("Received shutdown signal", "signal", sig.String())
			break loop
		case <-deadline:
			rootLog.Info("Run duration elapsed", "duration", runDuration.String())
			break loop
		}
	}

	if cfg.Persistence.Enabled {
		if path, err := mgr.Save(); err != nil {
			rootLog.Warn("Final snapshot failed", "error", err)
		} else if path != "" {
			rootLog.Info("Final snapshot saved", "path", path)
		}
	}

	stats := mgr.Stats()
	if err := mgr.Close(); err != nil {
		rootLog.Warn("Manager shutdown reported errors", "error", err)
	}
	rootLog.Info("Simulation stopped", "stats", stats.String())
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&resumeFlag, "resume", false,
		"Resume from the latest snapshot before loading the roster")
	runCmd.Flags().DurationVar(&runDuration, "duration", 0,
		"Stop after this wall-clock duration (default: run until interrupted)")

	rootCmd.AddCommand(runCmd)
}
