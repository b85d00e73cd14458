package resolution

import (
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/events"
)

// Registry owns one resolution service per namespace. Services are created
// lazily on first use and live for the registry's lifetime. Not safe for
// concurrent use; the intake processor calls it from a single routing
// goroutine.
type Registry struct {
	log      ectologger.Logger
	cfg      Config
	emitter  *events.Emitter
	services map[string]*Service
}

// NewRegistry creates a new service registry
func NewRegistry(log ectologger.Logger, cfg Config, emitter *events.Emitter) *Registry {
	return &Registry{
		log:      log,
		cfg:      cfg,
		emitter:  emitter,
		services: make(map[string]*Service),
	}
}

// Namespace returns the service owning the namespace, creating it on first
// use.
func (r *Registry) Namespace(name string) *Service {
	if svc, ok := r.services[name]; ok {
		return svc
	}
	svc := NewService(r.log, name, r.cfg, r.emitter)
	r.services[name] = svc
	return svc
}

// Namespaces returns the known namespace names, sorted.
func (r *Registry) Namespaces() []string {
	names := make([]string, 0, len(r.services))
	for name := range r.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
