package supervisor

import (
	"context"
	"fmt"
	"sync"
)

// Registry holds the configured council members, keyed by unique name.
// It also tracks each supervisor's vote weight, clamped to [0, 2] per the
// data-model invariant.
type Registry struct {
	mu          sync.RWMutex
	supervisors map[string]Supervisor
	weights     map[string]float64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		supervisors: make(map[string]Supervisor),
		weights:     make(map[string]float64),
	}
}

// Register adds or replaces a supervisor. Default weight is 1.0.
func (r *Registry) Register(s Supervisor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.supervisors[s.Name()] = s
	if _, ok := r.weights[s.Name()]; !ok {
		r.weights[s.Name()] = 1.0
	}
}

// Unregister removes a supervisor and its weight entry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.supervisors, name)
	delete(r.weights, name)
}

// Get returns a supervisor by name.
func (r *Registry) Get(name string) (Supervisor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.supervisors[name]
	return s, ok
}

// Names returns all registered supervisor names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.supervisors))
	for n := range r.supervisors {
		names = append(names, n)
	}
	return names
}

// SetWeight clamps and stores the vote weight for a supervisor.
func (r *Registry) SetWeight(name string, weight float64) {
	if weight < 0 {
		weight = 0
	}
	if weight > 2 {
		weight = 2
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weights[name] = weight
}

// Weight returns the current weight for a supervisor (default 1.0 if unknown).
func (r *Registry) Weight(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if w, ok := r.weights[name]; ok {
		return w
	}
	return 1.0
}

// WeightSnapshot returns a copy of the full weight map, used by the
// orchestrator to freeze weights at debate start (weight edits after that
// point must not retroactively affect a running or completed debate).
func (r *Registry) WeightSnapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.weights))
	for k, v := range r.weights {
		out[k] = v
	}
	return out
}

// AvailableNames probes every registered supervisor's Available() in
// parallel and returns the names that responded true. Individual probe
// failures (panics aside) are simply excluded, never surfaced as errors —
// the same "ignore and move on" posture the debate orchestrator uses for
// per-round chat failures.
func (r *Registry) AvailableNames(ctx context.Context) []string {
	r.mu.RLock()
	snapshot := make(map[string]Supervisor, len(r.supervisors))
	for k, v := range r.supervisors {
		snapshot[k] = v
	}
	r.mu.RUnlock()

	type result struct {
		name string
		ok   bool
	}
	results := make(chan result, len(snapshot))
	var wg sync.WaitGroup
	for name, s := range snapshot {
		wg.Add(1)
		go func(name string, s Supervisor) {
			defer wg.Done()
			results <- result{name: name, ok: s.Available(ctx)}
		}(name, s)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var available []string
	for res := range results {
		if res.ok {
			available = append(available, res.name)
		}
	}
	return available
}

// ErrUnknownSupervisor builds the error describing a name that has no
// registered supervisor.
func ErrUnknownSupervisor(name string) error {
	return fmt.Errorf("supervisor registry: unknown supervisor %q", name)
}
