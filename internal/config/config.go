package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// CurrentVersion is the only configuration format version understood by Load.
const CurrentVersion = "1.0"

// Config is the walletboot configuration file.
type Config struct {
	Version   string          `yaml:"version"`
	App       AppConfig       `yaml:"app"       envPrefix:"APP_"`
	Manifest  ManifestConfig  `yaml:"manifest"  envPrefix:"MANIFEST_"`
	Migration MigrationConfig `yaml:"migration" envPrefix:"MIGRATION_"`
	Storage   StorageConfig   `yaml:"storage"   envPrefix:"STORAGE_"`
	Daemon    DaemonConfig    `yaml:"daemon"    envPrefix:"DAEMON_"`
	Logging   LoggingConfig   `yaml:"logging"   envPrefix:"LOG_"`
}

// AppConfig overrides the version information compiled into the binary.
// Zero values mean "use the build metadata".
type AppConfig struct {
	Version     string `yaml:"version,omitempty"      env:"VERSION"`
	BuildNumber int    `yaml:"build_number,omitempty" env:"BUILD_NUMBER"`
}

// ManifestConfig locates the remote version and migration manifests.
type ManifestConfig struct {
	BaseURL       string        `yaml:"base_url"       env:"BASE_URL"`
	VersionsPath  string        `yaml:"versions_path"  env:"VERSIONS_PATH"`
	MigrationPath string        `yaml:"migration_path" env:"MIGRATION_PATH"`
	Timeout       time.Duration `yaml:"timeout"        env:"TIMEOUT"`
	Retry         RetryConfig   `yaml:"retry"          envPrefix:"RETRY_"`
}

// RetryConfig configures backoff for manifest fetches.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode"        env:"MODE"`
	Initial    time.Duration    `yaml:"initial"     env:"INITIAL"`
	Max        time.Duration    `yaml:"max"         env:"MAX"`
	MaxRetries *int             `yaml:"max_retries" env:"MAX_RETRIES"`
}

// MigrationConfig controls the temporary seed migration alert.
type MigrationConfig struct {
	Enabled          *bool  `yaml:"enabled"           env:"ENABLED"`
	SubdomainPattern string `yaml:"subdomain_pattern" env:"SUBDOMAIN_PATTERN"`
}

// IsEnabled reports whether the migration gate should run. Unset means enabled.
func (m MigrationConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// StorageConfig locates the local stores.
type StorageConfig struct {
	Backend         StorageBackend `yaml:"backend"           env:"BACKEND"`
	SQLitePath      string         `yaml:"sqlite_path"       env:"SQLITE_PATH"`
	NATSURL         string         `yaml:"nats_url"          env:"NATS_URL"`
	NATSBucket      string         `yaml:"nats_bucket"       env:"NATS_BUCKET"`
	SecureStorePath string         `yaml:"secure_store_path" env:"SECURE_STORE_PATH"`
	KeychainDir     string         `yaml:"keychain_dir"      env:"KEYCHAIN_DIR"`
	JournalPath     string         `yaml:"journal_path"      env:"JOURNAL_PATH"`
}

// DaemonConfig configures periodic re-checks. A non-empty Schedule (five-field
// cron expression) takes precedence over Interval.
type DaemonConfig struct {
	Interval    time.Duration `yaml:"interval"           env:"INTERVAL"`
	Schedule    string        `yaml:"schedule,omitempty" env:"SCHEDULE"`
	MetricsAddr string        `yaml:"metrics_addr"       env:"METRICS_ADDR"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"  env:"LEVEL"`
	Format LogFormat `yaml:"format" env:"FORMAT"`
}

// Load reads configuration from configPath, applies .env files and
// WALLETBOOT_* environment overrides, then normalizes, defaults and
// validates the result. An empty path yields the defaults plus overrides.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(".env", ".env.local")

	cfg := &Config{Version: CurrentVersion}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.ConfigError("configuration file not found").
					WithContext("path", configPath).
					Build()
			}
			return nil, errors.ConfigError("failed to read configuration file").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.ConfigError("failed to parse configuration file").
				WithCause(err).
				WithContext("path", configPath).
				Build()
		}
		if cfg.Version == "" {
			cfg.Version = CurrentVersion
		}
		if cfg.Version != CurrentVersion {
			return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version %q (expected %s)", cfg.Version, CurrentVersion)).
				WithContext("path", configPath).
				Build()
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := normalize(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := &Config{
		Version: CurrentVersion,
		Manifest: ManifestConfig{
			BaseURL: "https://manifest.example.com",
		},
		Storage: StorageConfig{Backend: StorageSQLite},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
	applyDefaults(example)

	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.InternalError("failed to marshal example configuration").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return errors.ConfigError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}
