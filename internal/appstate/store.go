package appstate

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Store is the capability handed to startup routines.
type Store interface {
	Snapshot() State
	Dispatch(Action)
}

// Memory is a goroutine-safe Store that keeps the dispatch log.
type Memory struct {
	mu         sync.RWMutex
	state      State
	dispatched []Action
}

// NewMemory returns a store holding initial.
func NewMemory(initial State) *Memory {
	return &Memory{state: initial}
}

func (m *Memory) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Memory) Dispatch(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Reduce(m.state, a)
	m.dispatched = append(m.dispatched, a)
}

// Dispatched returns a copy of every action dispatched so far, oldest first.
func (m *Memory) Dispatched() []Action {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Action, len(m.dispatched))
	copy(out, m.dispatched)
	return out
}

// Hydrate replaces the slices present in persisted. Values are the decoded
// JSON documents produced by the persisted-state adapter; unknown slices
// are ignored.
func (m *Memory) Hydrate(persisted map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.state
	if raw, ok := persisted[SliceSettings]; ok {
		if err := remarshal(raw, &next.Settings); err != nil {
			return fmt.Errorf("hydrate %s: %w", SliceSettings, err)
		}
	}
	if raw, ok := persisted[SliceWallet]; ok {
		if err := remarshal(raw, &next.Wallet); err != nil {
			return fmt.Errorf("hydrate %s: %w", SliceWallet, err)
		}
	}
	m.state = next
	return nil
}

// ClearAlerts drops the alerts carried over from hydration. It is not a
// dispatched action and is not recorded.
func (m *Memory) ClearAlerts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ClearAlerts(m.state)
}

// Slices returns the state split into its persisted slices.
func (m *Memory) Slices() map[string]any {
	s := m.Snapshot()
	return map[string]any{
		SliceSettings: s.Settings,
		SliceWallet:   s.Wallet,
	}
}

func remarshal(in any, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
