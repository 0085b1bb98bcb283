package research

import (
	"sync"
	"time"
)

// Session records a job started by this process, with the last status
// observed through polling. All authoritative state lives upstream; this
// table exists only so a client can enumerate what it started.
type Session struct {
	ID          string     `json:"id"`
	Query       string     `json:"query"`
	Model       string     `json:"model"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SessionTable is an in-memory, mutex-guarded session registry.
// Safe for concurrent tool invocations.
type SessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
}

// NewSessionTable creates an empty table.
func NewSessionTable() *SessionTable {
	return &SessionTable{sessions: make(map[string]*Session)}
}

// Record registers a newly created job.
func (t *SessionTable) Record(id, query, model string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[id]; !exists {
		t.order = append(t.order, id)
	}
	t.sessions[id] = &Session{
		ID:        id,
		Query:     query,
		Model:     model,
		Status:    status,
		StartedAt: time.Now(),
	}
}

// Observe updates the last seen status for a job, if this process started
// it. Jobs started elsewhere are queryable but not tracked.
func (t *SessionTable) Observe(id string, status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[id]
	if !ok {
		return
	}
	session.Status = status
	if status.Terminal() && session.CompletedAt == nil {
		now := time.Now()
		session.CompletedAt = &now
	}
}

// List returns sessions in start order.
func (t *SessionTable) List() []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]Session, 0, len(t.order))
	for _, id := range t.order {
		result = append(result, *t.sessions[id])
	}
	return result
}
