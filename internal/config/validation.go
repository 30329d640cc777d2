package config

import (
	"net/url"
	"regexp"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// normalize case-folds enumerations, rejecting values that are not recognized.
func normalize(cfg *Config) error {
	backend, err := storageBackendNormalizer.NormalizeWithError(string(cfg.Storage.Backend))
	if err != nil {
		return errors.ConfigError("invalid storage configuration").WithCause(err).Build()
	}
	cfg.Storage.Backend = backend

	mode, err := retryBackoffNormalizer.NormalizeWithError(string(cfg.Manifest.Retry.Mode))
	if err != nil {
		return errors.ConfigError("invalid manifest retry configuration").WithCause(err).Build()
	}
	cfg.Manifest.Retry.Mode = mode

	level, err := logLevelNormalizer.NormalizeWithError(string(cfg.Logging.Level))
	if err != nil {
		return errors.ConfigError("invalid logging configuration").WithCause(err).Build()
	}
	cfg.Logging.Level = level

	format, err := logFormatNormalizer.NormalizeWithError(string(cfg.Logging.Format))
	if err != nil {
		return errors.ConfigError("invalid logging configuration").WithCause(err).Build()
	}
	cfg.Logging.Format = format
	return nil
}

// Validate checks a defaulted configuration for values that cannot work.
func Validate(cfg *Config) error {
	if cfg.App.BuildNumber < 0 {
		return errors.ConfigError("app.build_number cannot be negative").Build()
	}

	if cfg.Manifest.BaseURL != "" {
		u, err := url.Parse(cfg.Manifest.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.ConfigError("manifest.base_url must be an absolute http(s) URL").
				WithCause(err).
				WithContext("base_url", cfg.Manifest.BaseURL).
				Build()
		}
	}
	if r := cfg.Manifest.Retry; r.MaxRetries != nil && *r.MaxRetries < 0 {
		return errors.ConfigError("manifest.retry.max_retries cannot be negative").Build()
	}

	if _, err := regexp.Compile(cfg.Migration.SubdomainPattern); err != nil {
		return errors.ConfigError("migration.subdomain_pattern is not a valid regular expression").
			WithCause(err).
			Build()
	}

	switch cfg.Storage.Backend {
	case StorageNATS:
		if cfg.Storage.NATSURL == "" {
			return errors.ConfigError("storage.nats_url is required for the nats backend").Build()
		}
	case StorageSQLite:
		if cfg.Storage.SQLitePath == "" {
			return errors.ConfigError("storage.sqlite_path is required for the sqlite backend").Build()
		}
	}
	if cfg.Storage.SecureStorePath == "" || cfg.Storage.KeychainDir == "" {
		return errors.ConfigError("storage.secure_store_path and storage.keychain_dir are required").Build()
	}
	return nil
}
