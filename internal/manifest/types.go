package manifest

import (
	"context"
	"slices"
)

// VersionManifest is the remote description of which mobile builds are supported.
type VersionManifest struct {
	Blacklist  []int `json:"mobileBlacklist"`
	Latest     int   `json:"latestMobile"`
	Deprecated bool  `json:"deprecated"`
}

// IsBlacklisted reports whether build must not keep running.
func (m VersionManifest) IsBlacklisted(build int) bool {
	return slices.Contains(m.Blacklist, build)
}

// MigrationStatus reports where the seed migration tool is served, if anywhere.
type MigrationStatus struct {
	Endpoint string `json:"up"`
}

// VersionSource fetches the version manifest.
type VersionSource interface {
	FetchVersions(ctx context.Context) (VersionManifest, error)
}

// MigrationSource fetches the migration tool status.
type MigrationSource interface {
	FetchMigrationStatus(ctx context.Context) (MigrationStatus, error)
}

// VersionSourceFunc adapts a function to VersionSource.
type VersionSourceFunc func(ctx context.Context) (VersionManifest, error)

func (f VersionSourceFunc) FetchVersions(ctx context.Context) (VersionManifest, error) {
	return f(ctx)
}

// MigrationSourceFunc adapts a function to MigrationSource.
type MigrationSourceFunc func(ctx context.Context) (MigrationStatus, error)

func (f MigrationSourceFunc) FetchMigrationStatus(ctx context.Context) (MigrationStatus, error) {
	return f(ctx)
}
