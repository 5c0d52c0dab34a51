package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/registry"
	"github.com/gyaneshhere/ml-container-creator-sub003/pkg/telemetry"
)

// HostConfig is the host-side configuration of the CLI, loaded from a config
// file and MLCC_* environment variables. It configures where things live, not
// what gets validated; the registries own that.
type HostConfig struct {
	Registry struct {
		// OverrideDir holds registry YAML files layered over the embedded data.
		OverrideDir string `mapstructure:"override_dir"`
	} `mapstructure:"registry"`

	Database struct {
		// Path is the SQLite run-history database file.
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		Output string `mapstructure:"output"`
	} `mapstructure:"logging"`

	Validation struct {
		Enabled          bool     `mapstructure:"enabled"`
		KnownFlags       bool     `mapstructure:"known_flags"`
		CommunityReports bool     `mapstructure:"community_reports"`
		PolicyDirs       []string `mapstructure:"policy_dirs"`
	} `mapstructure:"validation"`
}

// loadHostConfig loads the host configuration. A missing config file is fine;
// defaults and environment variables still apply.
func loadHostConfig(path string) (*HostConfig, error) {
	v := viper.New()

	v.SetDefault("registry.override_dir", "")
	v.SetDefault("database.path", defaultDatabasePath())
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("validation.enabled", true)
	v.SetDefault("validation.known_flags", true)
	v.SetDefault("validation.community_reports", true)
	v.SetDefault("validation.policy_dirs", []string{})

	v.SetEnvPrefix("MLCC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mlcc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "mlcc"))
		}
	}

	// An explicitly named config file must exist; the default search may miss.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &HostConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// defaultDatabasePath puts the run history under the user's home directory.
func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mlcc-runs.db"
	}
	return filepath.Join(home, ".mlcc", "runs.db")
}

// appContext bundles the collaborators every subcommand needs.
type appContext struct {
	cfg    *HostConfig
	logger *telemetry.Logger
	loader *registry.Loader
	store  *registry.Store
	events *telemetry.Publisher
}

// newAppContext loads host config and registries and wires telemetry.
func newAppContext() (*appContext, error) {
	cfg, err := loadHostConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	loader := registry.NewLoader(logger.Zerolog())
	store, err := loader.Load(cfg.Registry.OverrideDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load registries: %w", err)
	}

	events := telemetry.NewPublisher(telemetry.EventsConfig{Enabled: true})
	events.Subscribe(telemetry.LogSubscriber(logger.NewComponentLogger("engine")))

	return &appContext{
		cfg:    cfg,
		logger: logger,
		loader: loader,
		store:  store,
		events: events,
	}, nil
}
