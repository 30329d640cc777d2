package manifest

import (
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

var (
	// ErrNotConfigured signals that no manifest base URL was configured.
	ErrNotConfigured = errors.ConfigError("manifest base URL not configured").WithSeverity(errors.SeverityWarning).Build()

	// ErrUnavailable signals a transport failure or a server-side error status.
	ErrUnavailable = errors.NetworkError("manifest endpoint unavailable").Build()

	// ErrRejected signals a client-side error status from the manifest endpoint.
	ErrRejected = errors.ManifestError("manifest request rejected").Build()

	// ErrMalformed signals a response body that is not the expected JSON document.
	ErrMalformed = errors.ManifestError("malformed manifest response").Build()
)
