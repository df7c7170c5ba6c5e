package library

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the config file read when no path is given.
const ConfigPath = "library.yaml"

// Backend and loan id scheme names accepted in Config.
const (
	BackendCSV     = "csv"
	BackendSQLite  = "sqlite"
	LoanIDSequence = "sequence"
	LoanIDUUID     = "uuid"
)

// Config represents configuration loaded from YAML.
type Config struct {
	DataDir    string `yaml:"dataDir"`
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlitePath"`
	LoanDays   int    `yaml:"loanDays"`
	LoanIDs    string `yaml:"loanIDs"`
	Autosave   bool   `yaml:"autosave"`
	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
	// LogFile "-" means stderr; empty means library.log in DataDir.
	LogFile string `yaml:"logFile"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DataDir:   ".",
		Backend:   BackendCSV,
		LoanDays:  DefaultLoanDays,
		LoanIDs:   LoanIDSequence,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads config from path (defaults to library.yaml) on top of the
// defaults, then applies environment overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("LIBRARY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("LIBRARY_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("LIBRARY_SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("LIBRARY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LIBRARY_LOAN_IDS"); v != "" {
		cfg.LoanIDs = v
	}
	if v := os.Getenv("LIBRARY_LOAN_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("config: LIBRARY_LOAN_DAYS=%q is not a number: %w", v, ErrInvalidInput)
		}
		cfg.LoanDays = n
	}
	if v := os.Getenv("LIBRARY_AUTOSAVE"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: LIBRARY_AUTOSAVE=%q is not a boolean: %w", v, ErrInvalidInput)
		}
		cfg.Autosave = enabled
	}
	return cfg, cfg.Validate()
}

// Validate rejects unknown backends and id schemes and non-positive loan periods.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("config: unknown backend %q: %w", c.Backend, ErrInvalidInput)
	}
	switch c.LoanIDs {
	case LoanIDSequence, LoanIDUUID:
	default:
		return fmt.Errorf("config: unknown loan id scheme %q: %w", c.LoanIDs, ErrInvalidInput)
	}
	if c.LoanDays <= 0 {
		return fmt.Errorf("config: loan days must be positive, got %d: %w", c.LoanDays, ErrInvalidInput)
	}
	return nil
}

// DBPath is the SQLite file, library.db in DataDir unless set.
func (c Config) DBPath() string {
	if c.SQLitePath != "" {
		return c.SQLitePath
	}
	return filepath.Join(c.DataDir, "library.db")
}

// LogPath is the log destination; "-" means stderr.
func (c Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "library.log")
}

// OpenBackend builds the backend named kind (BackendCSV or BackendSQLite)
// using this config's paths.
func (c Config) OpenBackend(kind string, logger *slog.Logger) (Backend, error) {
	switch kind {
	case BackendCSV:
		return NewCSVBackend(c.DataDir, logger), nil
	case BackendSQLite:
		db, err := NewSQLiteBackend(c.DBPath(), logger)
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", kind, ErrInvalidInput)
	}
}

// StoreExists reports whether the backend named kind has been written
// before: the SQLite file, or at least one of the CSV files.
func (c Config) StoreExists(kind string) (bool, error) {
	var paths []string
	switch kind {
	case BackendCSV:
		for _, name := range []string{BooksFile, MembersFile, LoansFile} {
			paths = append(paths, filepath.Join(c.DataDir, name))
		}
	case BackendSQLite:
		paths = []string{c.DBPath()}
	default:
		return false, fmt.Errorf("unknown backend %q: %w", kind, ErrInvalidInput)
	}
	for _, p := range paths {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("%w: stat %s: %w", ErrStorage, p, err)
		}
	}
	return false, nil
}

// LendingOptions translates the lending settings.
func (c Config) LendingOptions() []LendingOption {
	opts := []LendingOption{WithLoanDays(c.LoanDays)}
	if c.LoanIDs == LoanIDUUID {
		opts = append(opts, WithIDGenerator(UUIDGenerator{}))
	}
	return opts
}
