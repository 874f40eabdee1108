package apihttp

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"strata/internal/engine"
	"strata/internal/stats"
)

type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

// Run is one submitted simulation and its eventual outcome.
type Run struct {
	ID       string         `json:"id"`
	Strategy string         `json:"strategy"`
	DataFile string         `json:"data_file"`
	Params   map[string]any `json:"params,omitempty"`

	Status      RunStatus `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	Error       string    `json:"error,omitempty"`

	Result *engine.Result    `json:"result,omitempty"`
	Stats  *stats.Statistics `json:"stats,omitempty"`
}

// RunStore keeps submitted runs in memory, newest first. Runs are
// mutated only through Update so readers always see a consistent
// snapshot.
type RunStore struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	order []string
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// New registers a pending run and returns its snapshot.
func (s *RunStore) New(strategyName, dataFile string, params map[string]any) Run {
	run := &Run{
		ID:          uuid.NewString(),
		Strategy:    strategyName,
		DataFile:    dataFile,
		Params:      params,
		Status:      RunPending,
		SubmittedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	s.mu.Unlock()
	return *run
}

// Get returns a snapshot of the run, if it exists.
func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// Update applies fn to the stored run under the write lock.
func (s *RunStore) Update(id string, fn func(*Run)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return false
	}
	fn(run)
	return true
}

// List returns up to limit run snapshots, newest first. Results and
// stats are stripped to keep the listing light.
func (s *RunStore) List(limit int) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		run := *s.runs[s.order[i]]
		run.Result = nil
		run.Stats = nil
		out = append(out, run)
	}
	return out
}
