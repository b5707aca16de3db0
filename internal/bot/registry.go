package bot

import "sync"

// Registry collects the modules that make up the bot. Modules add
// themselves from their package init, so registration order follows
// import order in main.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make([]Module, 0),
	}
}

// Register appends a module.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = append(r.modules, m)
}

// Modules returns a copy of the registered modules, safe to iterate
// while registration continues.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// The process-wide registry that module init() functions register into.
var globalRegistry = NewRegistry()

// Register adds a module to the process-wide registry. Called from
// module init() functions via blank imports in main.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns the process-wide registry's modules.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry replaces the process-wide registry with an empty
// one. Only tests should call this.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
