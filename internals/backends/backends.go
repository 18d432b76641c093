// Package backends holds the adapters the platform executes tasks against,
// plus the registry they are looked up in. The orchestrator only ever sees
// the Backend interface; which concrete adapters exist is decided by
// configuration at wiring time.
package backends

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cogniolab/hybrid/internals/task"
)

type ID string

func (id ID) String() string {
	return string(id)
}

const (
	// OpenAI is the fast-reasoning backend: conversation, analysis, planning.
	OpenAI ID = "openai"
	// Claude is the system-acting backend: operations, research, execution.
	Claude ID = "claude"
	// Hybrid is a routing target handled by the orchestrator itself. It is
	// never registered in a Store.
	Hybrid ID = "hybrid"
)

// ExecutableIDs lists the backends a task can be dispatched to directly.
var ExecutableIDs = []ID{OpenAI, Claude}

// Result is a backend's answer for one task. Metadata is backend-defined and
// opaque to the orchestrator: token usage, tool names, whatever the adapter
// considers worth reporting.
type Result struct {
	Backend  ID             `json:"platform"`
	TaskID   string         `json:"task_id"`
	Output   string         `json:"result"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Backend interface {
	ID() ID
	Execute(ctx context.Context, t *task.Task) (*Result, error)
}

var ErrUnknownBackend = errors.New("unknown backend")

// Store is the backend registry. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	backends map[ID]Backend
}

func NewStore() *Store {
	return &Store{backends: map[ID]Backend{}}
}

// Register adds a backend, replacing any previous one with the same ID.
func (s *Store) Register(backend Backend) error {
	if backend == nil {
		return errors.New("backends: cannot register nil backend")
	}
	if backend.ID() == Hybrid {
		return fmt.Errorf("backends: %q is a routing target, not a registrable backend", Hybrid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backends[backend.ID()] = backend
	return nil
}

func (s *Store) Get(id ID) (Backend, error) {
	if s == nil {
		return nil, ErrUnknownBackend
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	backend, ok := s.backends[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, id)
	}
	return backend, nil
}

// IDs returns the registered backend ids in ExecutableIDs order.
func (s *Store) IDs() []ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]ID, 0, len(s.backends))
	for _, id := range ExecutableIDs {
		if _, ok := s.backends[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
