package eventstore

import (
	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the journal database could not be opened.
	ErrDatabaseOpenFailed = errors.StorageError("could not open run journal database").Build()

	// ErrInitializeSchemaFailed indicates the journal schema could not be initialized.
	ErrInitializeSchemaFailed = errors.StorageError("failed to initialize run journal schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = errors.StorageError("failed to append event to run journal").Build()

	// ErrEventQueryFailed indicates querying or scanning events failed.
	ErrEventQueryFailed = errors.StorageError("failed to query events from run journal").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of an event payload failed.
	ErrMarshalPayloadFailed = errors.InternalError("failed to marshal event payload").Build()
)
