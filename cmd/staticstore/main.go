package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"staticstore/internal/config"
	"staticstore/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	slotFlag   int
	fps        int
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "staticstore",
	Short: "staticstore - persistent variable/switch slots for frame-driven hosts",
	Long: `staticstore keeps a slot file of saved variables and switches.

Every command runs a fresh activation: the slot file is loaded on the first
frame, saves are coalesced and written back by the polling I/O controller, and
the command exits once everything it saved has reached the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Project directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/staticstore.yaml)")
	rootCmd.PersistentFlags().IntVar(&slotFlag, "slot", -1, "Slot number (overrides config)")
	rootCmd.PersistentFlags().IntVar(&fps, "fps", 60, "Frame rate of the update loop")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Give up if the slot does not settle in time")

	setCmd.Flags().Int64Var(&ownerFlag, "owner", 0, "Owning instance id (0 = global)")
	getCmd.Flags().Int64Var(&ownerFlag, "owner", 0, "Owning instance id (0 = global)")
	exportCmd.Flags().StringVar(&exportDB, "db", "staticstore.db", "SQLite database to write")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Exit after the first change")
	simulateCmd.Flags().IntVar(&simFrames, "frames", 300, "Frames to simulate")
	simulateCmd.Flags().IntVar(&simBurst, "burst", 30, "Frames at the start that each save a variable")
	simulateCmd.Flags().IntVar(&simSavesPerFrame, "saves-per-frame", 3, "Save calls per burst frame")
	simulateCmd.Flags().IntVar(&simChunk, "chunk", 8, "Bytes made visible per frame by the simulated host write (0 = instant)")

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// loadConfig reads the config file, applies flag overrides and starts the
// categorized file logging.
func loadConfig() (*config.Config, error) {
	ws := resolveWorkspace()
	path := configPath
	if path == "" {
		path = filepath.Join(ws, "staticstore.yaml")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.ProjectRoot == "" || cfg.Storage.ProjectRoot == "." {
		cfg.Storage.ProjectRoot = ws
	}
	if slotFlag >= 0 {
		cfg.Storage.Slot = slotFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if err := logging.Initialize(ws, cfg.Logging.Options()); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	return cfg, nil
}
