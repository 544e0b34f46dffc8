package dao

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// AccessorFunc builds a fresh, uninitialized accessor.
type AccessorFunc func() Accessor

type registry struct {
	mx    sync.RWMutex
	rids  map[string]ResourceID
	ctors map[string]AccessorFunc
}

var accessors = registry{
	rids:  make(map[string]ResourceID),
	ctors: make(map[string]AccessorFunc),
}

// RegisterAccessor makes a resource listable. Registering a resource twice
// replaces its constructor.
func RegisterAccessor(rid ResourceID, fn AccessorFunc) {
	accessors.mx.Lock()
	defer accessors.mx.Unlock()

	accessors.rids[rid.String()] = rid
	accessors.ctors[rid.String()] = fn
}

// AccessorFor returns an accessor for rid, bound to f.
func AccessorFor(f Factory, rid *ResourceID) (Accessor, error) {
	accessors.mx.RLock()
	fn, ok := accessors.ctors[rid.String()]
	accessors.mx.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no accessor for: %s", rid)
	}
	acc := fn()
	acc.Init(f, rid)

	return acc, nil
}

// ListAccessors returns the registered resources ordered by group/resource.
func ListAccessors() []*ResourceID {
	accessors.mx.RLock()
	defer accessors.mx.RUnlock()

	rids := make([]*ResourceID, 0, len(accessors.rids))
	for _, rid := range accessors.rids {
		rids = append(rids, &rid)
	}
	slices.SortFunc(rids, func(a, b *ResourceID) int {
		return strings.Compare(a.String(), b.String())
	})

	return rids
}
