package keychain

import (
	"bytes"
	"context"
	"sync"
)

// Memory is an in-process Keychain.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) HasEntry(_ context.Context, alias string) (bool, error) {
	if err := validateAlias(alias); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[alias]
	return ok, nil
}

func (m *Memory) Get(_ context.Context, alias string) ([]byte, error) {
	if err := validateAlias(alias); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[alias]
	if !ok {
		return nil, ErrEntryNotFound.WithContext("alias", alias)
	}
	return bytes.Clone(v), nil
}

func (m *Memory) Set(_ context.Context, alias string, value []byte) error {
	if err := validateAlias(alias); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[alias] = bytes.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, alias string) error {
	if err := validateAlias(alias); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, alias)
	return nil
}
