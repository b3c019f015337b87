package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the agents the service exposes, keyed by name. It replaces
// ambient global registries: constructed once at process start and passed
// into the service boundary.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]*Agent
	defaultName string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
	}
}

// Register adds an agent to the registry. The first registered agent
// becomes the default unless SetDefault is called.
func (r *Registry) Register(a *Agent) error {
	if a == nil {
		return fmt.Errorf("agent is nil")
	}
	name := a.Info().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent %s already registered", name)
	}
	r.agents[name] = a
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// SetDefault marks a registered agent as the default.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.agents[name]; !exists {
		return fmt.Errorf("agent %s not registered", name)
	}
	r.defaultName = name
	return nil
}

// Get returns the agent with the given name. An empty name returns the
// default agent.
func (r *Registry) Get(name string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.defaultName
	}
	a, exists := r.agents[name]
	if !exists {
		return nil, fmt.Errorf("agent %s not found", name)
	}
	return a, nil
}

// DefaultName returns the name of the default agent.
func (r *Registry) DefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// List returns the info of all registered agents, sorted by name.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]Info, 0, len(r.agents))
	for _, a := range r.agents {
		infos = append(infos, a.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
