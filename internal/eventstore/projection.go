package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunSummary is the read model of one startup run.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	AppVersion    string        `json:"app_version,omitempty"`
	BuildNumber   int           `json:"build_number,omitempty"`
	Actions       []string      `json:"actions,omitempty"`
	Reset         bool          `json:"reset"`
	ErrorCategory string        `json:"error_category,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// RunHistoryProjection folds journal events into run summaries, keeping
// at most maxSize finished runs.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	history []*RunSummary // finished runs, newest first
	maxSize int
}

// NewRunHistoryProjection creates a projection backed by store.
func NewRunHistoryProjection(store Store, maxSize int) *RunHistoryProjection {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxSize,
	}
}

// Rebuild reconstructs the projection from every event in the store.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.runs = make(map[string]*RunSummary)
	p.history = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	return nil
}

// Apply folds a single event into the projection.
func (p *RunHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *RunHistoryProjection) applyEventLocked(event Event) {
	runID := event.RunID()
	if runID == "" {
		return
	}

	summary, exists := p.runs[runID]
	if !exists {
		summary = &RunSummary{RunID: runID, Status: RunStatusRunning, StartedAt: event.Timestamp()}
		p.runs[runID] = summary
	}

	switch event.Type() {
	case TypeRunStarted:
		summary.StartedAt = event.Timestamp()
		var payload struct {
			Version     string `json:"version"`
			BuildNumber int    `json:"buildNumber"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.AppVersion = payload.Version
			summary.BuildNumber = payload.BuildNumber
		}

	case TypeActionDispatched:
		var payload struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Actions = append(summary.Actions, payload.Type)
		}

	case TypeRunCompleted:
		p.finishLocked(summary, event.Timestamp(), RunStatusCompleted)
		var payload struct {
			Reset bool `json:"reset"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Reset = payload.Reset
		}

	case TypeRunFailed:
		p.finishLocked(summary, event.Timestamp(), RunStatusFailed)
		var payload struct {
			Error    string `json:"error"`
			Category string `json:"category"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.ErrorMessage = payload.Error
			summary.ErrorCategory = payload.Category
		}
	}
}

func (p *RunHistoryProjection) finishLocked(summary *RunSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status

	for _, h := range p.history {
		if h.RunID == summary.RunID {
			return
		}
	}
	p.history = append([]*RunSummary{summary}, p.history...)
	if len(p.history) > p.maxSize {
		for _, dropped := range p.history[p.maxSize:] {
			delete(p.runs, dropped.RunID)
		}
		p.history = p.history[:p.maxSize]
	}
}

// GetHistory returns finished runs, newest first.
func (p *RunHistoryProjection) GetHistory() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]RunSummary, len(p.history))
	for i, h := range p.history {
		out[i] = *h
	}
	return out
}

// GetRun returns the summary of runID, finished or not.
func (p *RunHistoryProjection) GetRun(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	return *s, true
}
