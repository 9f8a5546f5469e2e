package model

import (
	"fmt"
	"math"
	"sync"
)

// Registry interns node and edge types. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	nodeTypes map[string]*NodeType
	edgeTypes map[string]*EdgeType
	nodeList  []*NodeType
	edgeList  []*EdgeType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodeTypes: make(map[string]*NodeType),
		edgeTypes: make(map[string]*EdgeType),
	}
}

// NodeType returns the interned node type with the given name, registering it
// on first use.
func (r *Registry) NodeType(name string) (*NodeType, error) {
	r.mu.RLock()
	t, ok := r.nodeTypes[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.nodeTypes[name]; ok {
		return t, nil
	}
	if len(r.nodeList) >= math.MaxUint16 {
		return nil, fmt.Errorf("%w: node type %q", ErrRegistryFull, name)
	}
	t = &NodeType{name: name, ordinal: uint16(len(r.nodeList))}
	r.nodeTypes[name] = t
	r.nodeList = append(r.nodeList, t)
	return t, nil
}

// LookupNodeType returns a registered node type without registering it.
func (r *Registry) LookupNodeType(name string) (*NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.nodeTypes[name]
	return t, ok
}

// EdgeType returns the interned edge type with the given name, registering it
// on first use. Re-registering a name with different attributes returns
// ErrTypeConflict.
func (r *Registry) EdgeType(name string, weighted bool, order SortOrder) (*EdgeType, error) {
	if order > SortDescendingWeight {
		return nil, fmt.Errorf("edge type %q: unknown sort order %d", name, order)
	}
	if !weighted && order != SortInsertion {
		return nil, fmt.Errorf("%w: edge type %q sorts by weight but is unweighted", ErrTypeConflict, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.edgeTypes[name]; ok {
		if t.weighted != weighted || t.order != order {
			return nil, fmt.Errorf("%w: edge type %q already registered as weighted=%t order=%s",
				ErrTypeConflict, name, t.weighted, t.order)
		}
		return t, nil
	}
	if len(r.edgeList) >= math.MaxUint16 {
		return nil, fmt.Errorf("%w: edge type %q", ErrRegistryFull, name)
	}
	t := &EdgeType{name: name, ordinal: uint16(len(r.edgeList)), weighted: weighted, order: order}
	r.edgeTypes[name] = t
	r.edgeList = append(r.edgeList, t)
	return t, nil
}

// LookupEdgeType returns a registered edge type.
func (r *Registry) LookupEdgeType(name string) (*EdgeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.edgeTypes[name]
	return t, ok
}

// NodeTypes returns the registered node types in registration order.
func (r *Registry) NodeTypes() []*NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*NodeType(nil), r.nodeList...)
}

// EdgeTypes returns the registered edge types in registration order.
func (r *Registry) EdgeTypes() []*EdgeType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*EdgeType(nil), r.edgeList...)
}

// NodeTypeByOrdinal returns the node type registered at position ord.
func (r *Registry) NodeTypeByOrdinal(ord uint16) (*NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(ord) >= len(r.nodeList) {
		return nil, false
	}
	return r.nodeList[ord], true
}
