package shell

import (
	"sync"

	"github.com/google/uuid"
)

// Registry hands out one Shell per session ID. Shells live in memory only.
type Registry struct {
	gen Generator

	mu     sync.Mutex
	shells map[uuid.UUID]*Shell
}

func NewRegistry(gen Generator) *Registry {
	return &Registry{gen: gen, shells: make(map[uuid.UUID]*Shell)}
}

// Get returns the shell for id, creating it on first use.
func (r *Registry) Get(id uuid.UUID) *Shell {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shells[id]
	if !ok {
		sh = New(r.gen)
		r.shells[id] = sh
	}
	return sh
}

// Lookup returns the shell for id without creating one.
func (r *Registry) Lookup(id uuid.UUID) (*Shell, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sh, ok := r.shells[id]
	return sh, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}
