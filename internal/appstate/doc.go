// Package appstate models the wallet's application state container.
//
// A Store bundles two capabilities: reading a snapshot of the current State
// and dispatching an Action that transitions it. Startup routines receive a
// Store and never hold on to it between calls. Memory is the in-process
// implementation; it applies actions through Reduce and can be hydrated from,
// and flushed to, persisted state slices.
package appstate
