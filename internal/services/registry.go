package services

import (
	"sync"
	"time"

	"github.com/hoornstra/missmeester/internal/models"
	"github.com/hoornstra/missmeester/internal/tactics"
)

// BatchStatus is the lifecycle state of one batch run.
type BatchStatus string

const (
	StatusPending   BatchStatus = "pending"
	StatusRunning   BatchStatus = "running"
	StatusCompleted BatchStatus = "completed"
	StatusFailed    BatchStatus = "failed"
)

// BatchState is the caller-visible view of one batch run. Done/Total carry
// fractional progress in completed games.
type BatchState struct {
	ID        string         `json:"id"`
	Status    BatchStatus    `json:"status"`
	Done      int            `json:"done"`
	Total     int            `json:"total"`
	Error     string         `json:"error,omitempty"`
	Report    *models.Report `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
}

// BatchRegistry tracks batch runs and holds the navigable index of the most
// recently completed one. Completing a run replaces the live index and its
// cursor entirely.
type BatchRegistry struct {
	mu      sync.RWMutex
	batches map[string]*BatchState
	index   *tactics.Index
}

func NewBatchRegistry() *BatchRegistry {
	return &BatchRegistry{batches: map[string]*BatchState{}}
}

// Create registers a new pending batch.
func (r *BatchRegistry) Create(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[id] = &BatchState{ID: id, Status: StatusPending, CreatedAt: time.Now()}
}

// Get returns a snapshot of one batch's state.
func (r *BatchRegistry) Get(id string) (BatchState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.batches[id]
	if !ok {
		return BatchState{}, false
	}
	return *st, true
}

// SetRunning marks a batch as started.
func (r *BatchRegistry) SetRunning(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.batches[id]; ok {
		st.Status = StatusRunning
	}
}

// SetProgress records completed games out of the batch total.
func (r *BatchRegistry) SetProgress(id string, done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.batches[id]; ok {
		st.Done = done
		st.Total = total
	}
}

// Complete stores the finished report and swaps in a fresh index over its
// tactics, discarding the previous index and cursor.
func (r *BatchRegistry) Complete(id string, report *models.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.batches[id]; ok {
		st.Status = StatusCompleted
		st.Report = report
		st.Done = report.GameCount
		st.Total = report.GameCount
	}
	r.index = tactics.NewIndex(report.Tactics)
}

// Fail records a fatal batch error.
func (r *BatchRegistry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.batches[id]; ok {
		st.Status = StatusFailed
		st.Error = err.Error()
	}
}

// Report returns the completed report for a batch, or nil.
func (r *BatchRegistry) Report(id string) *models.Report {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st, ok := r.batches[id]; ok {
		return st.Report
	}
	return nil
}

// Index returns the live index of the most recently completed batch, or nil
// when no batch has completed yet. The index carries its own locking for
// cursor movement; the registry only guards the swap.
func (r *BatchRegistry) Index() *tactics.Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}
