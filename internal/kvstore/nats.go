package kvstore

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"log/slog"
	"sort"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/walletboot/internal/logfields"
)

const natsInitTimeout = 10 * time.Second

// NATSStore implements Store on a JetStream key-value bucket, so several
// processes can share persisted state.
//
// NATS restricts key characters, so keys are stored base64url-encoded.
type NATSStore struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSStore connects to url and opens bucket, creating it if missing.
func NewNATSStore(ctx context.Context, url, bucket string) (*NATSStore, error) {
	conn, err := nats.Connect(url, nats.Name("walletboot"))
	if err != nil {
		return nil, ErrUnavailable.Wrap(err).WithContext("url", url)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, ErrUnavailable.Wrap(err).WithContext("url", url)
	}

	kv, err := openBucket(ctx, js, bucket)
	if err != nil {
		conn.Close()
		return nil, ErrUnavailable.Wrap(err).WithContext("bucket", bucket)
	}

	slog.Info("NATS key-value store ready", logfields.URL(url), logfields.Backend("nats"), slog.String("bucket", bucket))
	return &NATSStore{conn: conn, kv: kv}, nil
}

// NewNATSStoreFromBucket wraps an already opened bucket. Close does not
// touch the bucket's connection.
func NewNATSStoreFromBucket(kv jetstream.KeyValue) *NATSStore {
	return &NATSStore{kv: kv}
}

func openBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	ctx, cancel := context.WithTimeout(ctx, natsInitTimeout)
	defer cancel()

	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	if !stderrors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}

	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Persisted wallet app state",
		History:     1,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("Created NATS key-value bucket", slog.String("bucket", bucket))
	return kv, nil
}

func encodeKey(k string) string { return base64.RawURLEncoding.EncodeToString([]byte(k)) }

func decodeKey(k string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(k)
	return string(b), err
}

func (s *NATSStore) AllKeys(ctx context.Context) ([]string, error) {
	if s.kv == nil {
		return nil, ErrClosed
	}
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		if stderrors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, ErrUnavailable.Wrap(err)
	}
	defer func() { _ = lister.Stop() }()

	var keys []string
	for encoded := range lister.Keys() {
		k, err := decodeKey(encoded)
		if err != nil {
			slog.Warn("Skipping foreign key in NATS bucket", logfields.Key(encoded))
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *NATSStore) MultiGet(ctx context.Context, keys []string) (map[string]string, error) {
	if s.kv == nil {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		entry, err := s.kv.Get(ctx, encodeKey(k))
		if stderrors.Is(err, jetstream.ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, ErrUnavailable.Wrap(err).WithContext("key", k)
		}
		out[k] = string(entry.Value())
	}
	return out, nil
}

func (s *NATSStore) MultiSet(ctx context.Context, pairs map[string]string) error {
	if s.kv == nil {
		return ErrClosed
	}
	for _, k := range sortedKeys(pairs) {
		if _, err := s.kv.Put(ctx, encodeKey(k), []byte(pairs[k])); err != nil {
			return ErrUnavailable.Wrap(err).WithContext("key", k)
		}
	}
	return nil
}

func (s *NATSStore) MultiRemove(ctx context.Context, keys []string) error {
	if s.kv == nil {
		return ErrClosed
	}
	for _, k := range keys {
		if err := s.kv.Delete(ctx, encodeKey(k)); err != nil && !stderrors.Is(err, jetstream.ErrKeyNotFound) {
			return ErrUnavailable.Wrap(err).WithContext("key", k)
		}
	}
	return nil
}

func (s *NATSStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.kv = nil
	return nil
}
