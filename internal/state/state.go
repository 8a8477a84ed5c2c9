package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
	StatusSkipped     = "skipped"
)

// OriginRun is the outcome of one origin in a run.
type OriginRun struct {
	Component string `json:"component"`
	Version   string `json:"version"`
	Source    string `json:"source"`
	Ref       string `json:"ref"`
	Worktree  string `json:"worktree,omitempty"`
	Status    string `json:"status"`
	Files     int    `json:"files"`
	Error     string `json:"error,omitempty"`
}

// WorktreeRecord is a managed worktree at the end of a run.
type WorktreeRecord struct {
	Path      string `json:"path"`
	Retention string `json:"retention"`
	Origins   int    `json:"origins"`
	Removed   bool   `json:"removed"`
}

// RunState is persisted as state.json in the cache directory.
type RunState struct {
	RunID      string           `json:"run_id"`
	Playbook   string           `json:"playbook"`
	Status     string           `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
	Origins    []OriginRun      `json:"origins"`
	Worktrees  []WorktreeRecord `json:"worktrees,omitempty"`
}

// NewRun starts a run with a fresh ID.
func NewRun(playbook string) *RunState {
	return &RunState{
		RunID:     uuid.NewString(),
		Playbook:  playbook,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
}

func statePath(cacheDir string) string {
	return filepath.Join(cacheDir, "state.json")
}

// Load reads the last run state. Returns nil, nil when there is none.
func Load(cacheDir string) (*RunState, error) {
	data, err := os.ReadFile(statePath(cacheDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var s RunState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes the state to the cache directory.
func (s *RunState) Save(cacheDir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(statePath(cacheDir), data, 0644)
}

// Record appends the outcome of an origin.
func (s *RunState) Record(o OriginRun) {
	s.Origins = append(s.Origins, o)
}

// Finish sets the final status.
func (s *RunState) Finish(status string) {
	s.Status = status
	s.FinishedAt = time.Now()
}

// Failed counts origins that failed.
func (s *RunState) Failed() int {
	n := 0
	for _, o := range s.Origins {
		if o.Status == StatusFailed {
			n++
		}
	}
	return n
}
