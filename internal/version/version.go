package version

import (
	"fmt"
	"strconv"
)

// Version contains the application version string.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/walletboot/internal/version.Version=2.4.1 -X git.home.luguber.info/inful/walletboot/internal/version.BuildNumber=71".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildNumber = "0"
	BuildTime   = "unknown"
	GitCommit   = "unknown"
)

// Build returns BuildNumber as an integer. Non-numeric values yield 0.
func Build() int {
	n, err := strconv.Atoi(BuildNumber)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// String formats the version for --version output.
func String() string {
	return fmt.Sprintf("%s (build %s, commit %s, built %s)", Version, BuildNumber, GitCommit, BuildTime)
}
