package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iishyfishyy/medsearch/internal/config"
	"github.com/iishyfishyy/medsearch/internal/docstore"
	"github.com/iishyfishyy/medsearch/internal/history"
	"github.com/iishyfishyy/medsearch/internal/library"
	"github.com/iishyfishyy/medsearch/internal/ui"
)

var (
	// version is set by goreleaser at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// CLI flags
	debug      bool
	dbPath     string
	configPath string
)

// Output formats accepted by --output
const (
	outputTable = "table"
	outputText  = "text"
	outputJSON  = "json"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		ui.ShowError(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "medsearch",
		Short:         "Store and search medical text documents",
		Long:          "medsearch keeps plain-text medical documents in a local library and ranks them against free-text queries by TF-IDF cosine similarity",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.StringVar(&dbPath, "db", "", "Path to the SQLite document database (overrides config)")
	flags.StringVar(&configPath, "config", "", "Path to the config file (default ~/.medsearch/config.yaml)")

	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newReindexCmd())
	rootCmd.AddCommand(newConfigureCmd())

	return rootCmd
}

// session holds everything a command needs to reach the library
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   docstore.Store
	library *library.Manager
}

// openSession loads configuration and opens the configured store
func openSession() (*session, error) {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	manager := library.NewManager(store,
		library.WithLogger(logger),
		library.WithIndexOptions(cfg.Search.IndexOptions()),
	)

	return &session{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		library: manager,
	}, nil
}

// Close releases the store
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Warn("failed to close store", "error", err)
	}
}

func newLogger() *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// loadConfig reads the config file (or defaults), then applies environment
// and flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := loadConfigFile()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Driver = config.StorageSQLite
		cfg.Storage.Path = dbPath
	}

	for _, warning := range cfg.Validate() {
		ui.ShowWarning(warning)
	}

	return cfg, nil
}

func openStore(cfg *config.Config) (docstore.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return docstore.NewMemoryStore(), nil
	case config.StorageSQLite:
		store, err := docstore.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open document database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

// loadConfigFile reads the config file without applying overrides. It
// returns nil when no file exists yet.
func loadConfigFile() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}

	exists, err := config.Exists()
	if err != nil || !exists {
		return nil, err
	}
	return config.Load()
}

// saveConfigFile writes cfg where loadConfigFile reads it and returns the path
func saveConfigFile(cfg *config.Config) (string, error) {
	if configPath != "" {
		return configPath, config.SaveFile(cfg, configPath)
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return "", err
	}
	return path, config.Save(cfg)
}

// loadHistory opens the search history that lives next to the config file
func loadHistory() (*history.History, error) {
	if configPath == "" {
		return history.Load()
	}
	return history.LoadFile(filepath.Join(filepath.Dir(configPath), history.HistoryFileName))
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document id: %q", arg)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkOutput(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q", format)
}
