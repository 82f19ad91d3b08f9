package bot

import (
	"fmt"
	"sync"
)

// Registry holds registered modules in registration order.
type Registry struct {
	mu      sync.RWMutex
	modules []Module
	names   map[string]struct{}
}

// NewRegistry creates a new module registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]struct{}),
	}
}

// Register adds a module to the registry.
// It panics if m is nil or a module with the same name is already registered.
func (r *Registry) Register(m Module) {
	if m == nil {
		panic("bot: Register module is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.names[m.Name()]; dup {
		panic("bot: Register called twice for module " + m.Name())
	}
	r.names[m.Name()] = struct{}{}
	r.modules = append(r.modules, m)
}

// Modules returns a snapshot of all registered modules.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Module, len(r.modules))
	copy(result, r.modules)
	return result
}

// validateCommands checks that command names are unique across modules and
// that every command has a handler. Call after the modules are initialized.
func validateCommands(modules []Module) error {
	owners := make(map[string]string)

	for _, mod := range modules {
		handlers := mod.CommandHandlers()
		for _, cmd := range mod.Commands() {
			if owner, dup := owners[cmd.Name]; dup {
				return fmt.Errorf("command %q is provided by both %s and %s", cmd.Name, owner, mod.Name())
			}
			owners[cmd.Name] = mod.Name()

			if handlers[cmd.Name] == nil {
				return fmt.Errorf("command %q of module %s has no handler", cmd.Name, mod.Name())
			}
		}
	}

	return nil
}

// Global registry instance for module self-registration via init()
var globalRegistry = NewRegistry()

// Register adds a module to the global registry.
// This is typically called from module init() functions.
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry resets the global registry.
// This is intended for testing purposes only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
