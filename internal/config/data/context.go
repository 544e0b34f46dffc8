package data

import (
	"maps"
	"sync"
)

// ProfileContext carries the settings remembered for one API profile.
type ProfileContext struct {
	ProfileName string                `yaml:"profile"`
	ReadOnly    *bool                 `yaml:"readOnly,omitempty"`
	View        *View                 `yaml:"view,omitempty"`
	Queries     map[string]SavedQuery `yaml:"queries,omitempty"`
	mx          sync.RWMutex          `yaml:"-"`
}

// NewProfileContext creates a new ProfileContext with default settings.
func NewProfileContext(profile string) *ProfileContext {
	return &ProfileContext{
		ProfileName: profile,
		Queries:     make(map[string]SavedQuery),
	}
}

// Validate ensures the ProfileContext has valid settings.
func (c *ProfileContext) Validate() {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.View != nil {
		c.View.Validate()
	}
	if c.Queries == nil {
		c.Queries = make(map[string]SavedQuery)
	}
}

// GetView returns the current view, creating a default if nil.
func (c *ProfileContext) GetView() *View {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if c.View == nil {
		return NewView()
	}
	return c.View
}

// SetView sets the current view.
func (c *ProfileContext) SetView(v *View) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.View = v
}

// IsReadOnly returns whether this context is in read-only mode.
// Returns false if ReadOnly is nil.
func (c *ProfileContext) IsReadOnly() bool {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return c.ReadOnly != nil && *c.ReadOnly
}

// SetReadOnly sets the read-only mode for this context.
func (c *ProfileContext) SetReadOnly(ro bool) {
	c.mx.Lock()
	defer c.mx.Unlock()

	c.ReadOnly = &ro
}

// Query returns the query last used for a resource.
func (c *ProfileContext) Query(resource string) (SavedQuery, bool) {
	c.mx.RLock()
	defer c.mx.RUnlock()

	q, ok := c.Queries[resource]
	return q, ok
}

// SetQuery records the query used for a resource.
func (c *ProfileContext) SetQuery(resource string, q SavedQuery) {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.Queries == nil {
		c.Queries = make(map[string]SavedQuery)
	}
	if q.IsZero() {
		delete(c.Queries, resource)
		return
	}
	c.Queries[resource] = q
}

// AllQueries returns a copy of the saved queries.
func (c *ProfileContext) AllQueries() map[string]SavedQuery {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return maps.Clone(c.Queries)
}

// ContextName returns the sanitized profile name.
func (c *ProfileContext) ContextName() string {
	c.mx.RLock()
	defer c.mx.RUnlock()

	return SanitizeFileName(c.ProfileName)
}
