package dao

import (
	"fmt"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// BaseObject implements the Object interface with embedded fields.
type BaseObject struct {
	ID        string
	Name      string
	CreatedAt *time.Time
	Raw       any // Decoded API row
}

// GetID returns the row ID.
func (b *BaseObject) GetID() string {
	return b.ID
}

// GetName returns the row display name.
func (b *BaseObject) GetName() string {
	return b.Name
}

// GetCreatedAt returns the creation timestamp.
func (b *BaseObject) GetCreatedAt() *time.Time {
	return b.CreatedAt
}

// GetRaw returns the decoded API row.
func (b *BaseObject) GetRaw() any {
	return b.Raw
}

// Resource is the base struct that all specific DAOs embed.
// It provides factory access, resource identification, and caching.
type Resource struct {
	Factory
	rid   *ResourceID
	cache *ResourceCache
	mx    sync.RWMutex
}

// Init initializes the Resource with factory and resource ID.
func (r *Resource) Init(f Factory, rid *ResourceID) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.Factory = f
	r.rid = rid
}

// ResourceID returns the resource identifier.
func (r *Resource) ResourceID() *ResourceID {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.rid
}

func (r *Resource) getFactory() Factory {
	r.mx.RLock()
	defer r.mx.RUnlock()
	return r.Factory
}

func (r *Resource) getCache() *ResourceCache {
	r.mx.Lock()
	defer r.mx.Unlock()
	if r.cache == nil {
		r.cache = NewResourceCache(DefaultCacheTTL)
	}
	return r.cache
}

// SetCache sets the resource cache.
func (r *Resource) SetCache(cache *ResourceCache) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.cache = cache
}

func (r *Resource) cacheKey(q Query) string {
	rid := r.ResourceID()
	if rid == nil {
		return q.Key(&ResourceID{})
	}
	return q.Key(rid)
}

// Describe renders the raw row as YAML.
func (r *Resource) Describe(o Object) (string, error) {
	if o == nil {
		return "", fmt.Errorf("nothing to describe")
	}
	raw, err := yaml.Marshal(o.GetRaw())
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", o.GetID(), err)
	}

	return string(raw), nil
}

// ToJSON renders the raw row as indented JSON.
func (r *Resource) ToJSON(o Object) (string, error) {
	if o == nil {
		return "", fmt.Errorf("nothing to describe")
	}
	raw, err := gojson.MarshalIndent(o.GetRaw(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("json %s: %w", o.GetID(), err)
	}

	return string(raw), nil
}
