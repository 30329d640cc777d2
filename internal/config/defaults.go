package config

import (
	"path/filepath"
	"time"
)

const (
	DefaultVersionsPath     = "/versions"
	DefaultMigrationPath    = "/seed-migration"
	DefaultManifestTimeout  = 10 * time.Second
	DefaultDataDir          = "walletboot-data"
	DefaultNATSBucket       = "walletboot_persist"
	DefaultDaemonInterval   = 30 * time.Minute
	DefaultMetricsAddr      = ":9464"
	DefaultSubdomainPattern = `^(https://)?[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?\.iota\.org/?$`
)

func applyDefaults(cfg *Config) {
	m := &cfg.Manifest
	if m.VersionsPath == "" {
		m.VersionsPath = DefaultVersionsPath
	}
	if m.MigrationPath == "" {
		m.MigrationPath = DefaultMigrationPath
	}
	if m.Timeout <= 0 {
		m.Timeout = DefaultManifestTimeout
	}
	if m.Retry.Mode == "" {
		m.Retry.Mode = RetryBackoffLinear
	}
	if m.Retry.Initial <= 0 {
		m.Retry.Initial = 500 * time.Millisecond
	}
	if m.Retry.Max <= 0 {
		m.Retry.Max = 5 * time.Second
	}
	if m.Retry.MaxRetries == nil {
		one := 1
		m.Retry.MaxRetries = &one
	}

	if cfg.Migration.SubdomainPattern == "" {
		cfg.Migration.SubdomainPattern = DefaultSubdomainPattern
	}

	s := &cfg.Storage
	if s.Backend == "" {
		s.Backend = StorageSQLite
	}
	if s.SQLitePath == "" {
		s.SQLitePath = filepath.Join(DefaultDataDir, "asyncstorage.db")
	}
	if s.NATSBucket == "" {
		s.NATSBucket = DefaultNATSBucket
	}
	if s.SecureStorePath == "" {
		s.SecureStorePath = filepath.Join(DefaultDataDir, "secure.db")
	}
	if s.KeychainDir == "" {
		s.KeychainDir = filepath.Join(DefaultDataDir, "keychain")
	}
	if s.JournalPath == "" {
		s.JournalPath = filepath.Join(DefaultDataDir, "journal.db")
	}

	if cfg.Daemon.Interval <= 0 {
		cfg.Daemon.Interval = DefaultDaemonInterval
	}
	if cfg.Daemon.MetricsAddr == "" {
		cfg.Daemon.MetricsAddr = DefaultMetricsAddr
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
}
