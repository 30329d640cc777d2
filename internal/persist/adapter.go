// Package persist reads and clears the app state persisted in the
// key-value store.
//
// Only keys containing Marker are considered. Each one maps to a logical
// slice name taken from the text after its last colon:
//
//	reduxPersist:wallet          -> wallet
//	reduxPersist:settings        -> settings
//	other:bar                    -> ignored
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/walletboot/internal/foundation/errors"
	"git.home.luguber.info/inful/walletboot/internal/kvstore"
	"git.home.luguber.info/inful/walletboot/internal/logfields"
	"git.home.luguber.info/inful/walletboot/internal/metrics"
)

var (
	// ErrLogicalKeyCollision is returned by Get when two relevant raw keys
	// map to the same logical key.
	ErrLogicalKeyCollision = errors.PersistError("persisted keys collide on logical key").Build()

	// ErrDecode is returned when a persisted value is not valid JSON.
	ErrDecode = errors.PersistError("persisted value is not valid JSON").Build()

	ErrRead   = errors.PersistError("read persisted state").Build()
	ErrWrite  = errors.PersistError("write persisted state").Build()
	ErrRemove = errors.PersistError("remove persisted state").Build()
)

// Adapter exposes persisted state on top of a kvstore.Store.
type Adapter struct {
	kv       kvstore.Store
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option customizes an Adapter.
type Option func(*Adapter)

func WithRecorder(r metrics.Recorder) Option {
	return func(a *Adapter) { a.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

func New(kv kvstore.Store, opts ...Option) *Adapter {
	a := &Adapter{kv: kv, recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetKeys returns every key in the store, relevant or not.
func (a *Adapter) GetKeys(ctx context.Context) ([]string, error) {
	keys, err := a.kv.AllKeys(ctx)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}
	return keys, nil
}

// RelevantKeys returns the keys containing Marker.
func (a *Adapter) RelevantKeys(ctx context.Context) ([]string, error) {
	keys, err := a.GetKeys(ctx)
	if err != nil {
		return nil, err
	}
	relevant := make([]string, 0, len(keys))
	for _, k := range keys {
		if IsRelevant(k) {
			relevant = append(relevant, k)
		}
	}
	a.recorder.SetPersistedKeys(len(relevant))
	return relevant, nil
}

// Get returns the decoded value of every relevant key, indexed by logical
// key. An empty store yields an empty map.
func (a *Adapter) Get(ctx context.Context) (map[string]any, error) {
	relevant, err := a.RelevantKeys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(relevant))
	if len(relevant) == 0 {
		return out, nil
	}

	owners := make(map[string]string, len(relevant))
	for _, raw := range relevant {
		logical := ParseKey(raw).Logical
		if prev, ok := owners[logical]; ok {
			pair := []string{prev, raw}
			sort.Strings(pair)
			return nil, ErrLogicalKeyCollision.
				Wrap(fmt.Errorf("%q and %q both map to %q", pair[0], pair[1], logical)).
				WithContext("logical", logical).
				WithContext("keys", pair)
		}
		owners[logical] = raw
	}

	values, err := a.kv.MultiGet(ctx, relevant)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}

	for logical, raw := range owners {
		text, ok := values[raw]
		if !ok {
			// Removed between AllKeys and MultiGet.
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, ErrDecode.Wrap(err).WithContext("key", raw)
		}
		out[logical] = v
	}

	a.logger.Debug("Loaded persisted state", logfields.Keys(len(out)))
	return out, nil
}

// Set encodes value as JSON and writes it under the raw key that already
// holds logical, or CanonicalKey(logical) when no key does.
func (a *Adapter) Set(ctx context.Context, logical string, value any) error {
	return a.SetAll(ctx, map[string]any{logical: value})
}

// SetAll writes several logical keys in one batch. Existing raw keys are
// reused so a write never adds a second key for the same logical key.
func (a *Adapter) SetAll(ctx context.Context, values map[string]any) error {
	for logical := range values {
		if logical == "" || ParseKey(logical).Namespace != "" {
			return errors.ValidationError("logical key must be non-empty and contain no colon").
				WithContext("logical", logical).
				Build()
		}
	}

	relevant, err := a.RelevantKeys(ctx)
	if err != nil {
		return ErrWrite.Wrap(err)
	}
	owners := ownerKeys(relevant)

	pairs := make(map[string]string, len(values))
	for logical, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return ErrWrite.Wrap(err).WithContext("logical", logical)
		}
		raw, ok := owners[logical]
		if !ok {
			raw = CanonicalKey(logical)
		}
		pairs[raw] = string(data)
	}
	if err := a.kv.MultiSet(ctx, pairs); err != nil {
		return ErrWrite.Wrap(err)
	}
	return nil
}

// ownerKeys maps each logical key to the relevant raw key holding it. When
// several raw keys already share a logical key the canonical one is used.
func ownerKeys(relevant []string) map[string]string {
	owners := make(map[string]string, len(relevant))
	for _, raw := range relevant {
		logical := ParseKey(raw).Logical
		if _, taken := owners[logical]; taken && raw != CanonicalKey(logical) {
			continue
		}
		owners[logical] = raw
	}
	return owners
}

// Clear removes exactly the relevant keys and reports removal failures.
func (a *Adapter) Clear(ctx context.Context) error {
	relevant, err := a.RelevantKeys(ctx)
	if err != nil {
		return err
	}
	if len(relevant) == 0 {
		return nil
	}
	if err := a.kv.MultiRemove(ctx, relevant); err != nil {
		return ErrRemove.Wrap(err).WithContext("keys", relevant)
	}
	a.recorder.SetPersistedKeys(0)
	a.logger.Info("Cleared persisted state", logfields.Keys(len(relevant)))
	return nil
}
