package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	ferrors "git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WALLETBOOT_"

// loadEnvFiles loads each dotenv file that exists. Variables already present
// in the process environment are never overwritten.
func loadEnvFiles(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn("Failed to load env file", "path", p, "error", err)
			}
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}

// applyEnvOverrides copies WALLETBOOT_* variables over the file values.
// Unset variables leave the file values untouched.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return ferrors.ConfigError("failed to parse environment overrides").WithCause(err).Build()
	}
	return nil
}
