package connector

import (
	"fmt"
	"sync"

	"github.com/lodeworks/lodestone/core"
)

// Registry maps source kinds to their connectors. It backs configuration
// validation at source registration and connector lookup at sync time.
type Registry struct {
	mu         sync.RWMutex
	connectors map[core.SourceKind]Connector
}

// NewRegistry creates a registry with the given connectors.
func NewRegistry(connectors ...Connector) *Registry {
	r := &Registry{connectors: make(map[core.SourceKind]Connector, len(connectors))}
	for _, c := range connectors {
		r.connectors[c.Kind()] = c
	}
	return r
}

// Register adds or replaces the connector for a kind.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Kind()] = c
}

// Lookup returns the connector for a kind.
func (r *Registry) Lookup(kind core.SourceKind) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return c, nil
}

// ValidateConfig validates a configuration against the connector registered
// for its kind. A source whose configuration fails here is rejected before it
// ever reaches the scheduler.
func (r *Registry) ValidateConfig(cfg core.SourceConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: missing", core.ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c, err := r.Lookup(cfg.Kind())
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidConfiguration, err)
	}
	return c.ValidateConfig(cfg)
}
