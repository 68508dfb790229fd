package selection

import "sync"

// Observer is notified of every selection recorded by a Registry.
type Observer interface {
	SelectionRegistered(s Selection)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithObserver attaches an observer to the registry.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// Registry is the append-only record of defined selections, in definition
// order. Duplicate names are kept.
type Registry struct {
	mu         sync.RWMutex
	selections []Selection
	observers  []Observer
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		selections: make([]Selection, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register records s and returns it.
func (r *Registry) Register(s Selection) Selection {
	r.mu.Lock()
	r.selections = append(r.selections, s)
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.SelectionRegistered(s)
	}
	return s
}

// Define builds a selection with New and records it.
func (r *Registry) Define(name, label, predicate string) Selection {
	return r.Register(New(name, label, predicate))
}

// DefineAll records every selection in sels, in order, and returns sels.
func (r *Registry) DefineAll(sels ...Selection) []Selection {
	for _, s := range sels {
		r.Register(s)
	}
	return sels
}

// And composes a with b. A newly built composite is recorded; identity
// shortcuts return an operand as is and record nothing.
func (r *Registry) And(a, b Selection) Selection {
	if a.IsIdentity() || b.IsIdentity() {
		return a.And(b)
	}
	return r.Register(a.And(b))
}

// CombineAll is the recording counterpart of the package-level CombineAll.
func (r *Registry) CombineAll(a, b []Selection) []Selection {
	result := make([]Selection, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			result = append(result, r.And(x, y))
		}
	}
	return result
}

// List returns a copy of every recorded selection in definition order.
func (r *Registry) List() []Selection {
	return r.Snapshot()
}

// Snapshot copies the current contents. Later registrations do not affect the
// returned slice.
func (r *Registry) Snapshot() []Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Selection, len(r.selections))
	copy(out, r.selections)
	return out
}

// Len returns the number of recorded selections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.selections)
}

// Labels maps every recorded name to its resolved label. For duplicate names
// the last one recorded wins.
func (r *Registry) Labels() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	labels := make(map[string]string, len(r.selections))
	for _, s := range r.selections {
		labels[s.name] = s.Label()
	}
	return labels
}
