package tool

import (
	"sync"

	"github.com/rs/zerolog"
)

// Registry manages registered tool definitions. Lookups are exact and
// case-sensitive. Registration is duplicate-safe: the first definition for a
// name wins and later ones are skipped with a warning.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]Definition
	order []string
	log   zerolog.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		defs: make(map[string]Definition),
		log:  log.With().Str("component", "tool-registry").Logger(),
	}
}

// Register adds a definition unless a tool with the same name exists.
func (r *Registry) Register(def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" || def.Invoke == nil {
		r.log.Warn().Str("tool_name", def.Name).Msg("skipping incomplete tool definition")
		return
	}
	if _, exists := r.defs[def.Name]; exists {
		r.log.Warn().Str("tool_name", def.Name).Msg("tool already registered, skipping")
		return
	}

	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
	r.log.Info().Str("tool_name", def.Name).Msg("tool registered")
}

// Find returns the definition for an exact name match.
func (r *Registry) Find(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// List returns all definitions in registration order.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Specs returns the wire representation of every registered tool, in
// registration order.
func (r *Registry) Specs() []Spec {
	defs := r.List()
	out := make([]Spec, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Spec())
	}
	return out
}
