// Package properties implements the key/value side-table joined onto nodes
// and edges on read.
package properties

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"strconv"
	"strings"

	"github.com/hupe1980/pgraph/model"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("properties: store closed")

// Properties is an arbitrary key/value bag.
type Properties map[string]any

// Clone returns a shallow copy. A nil receiver clones to nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Kind distinguishes node keys from edge keys.
type Kind uint8

const (
	// KindNode keys node properties.
	KindNode Kind = 'n'
	// KindEdge keys edge properties.
	KindEdge Kind = 'e'
)

// Key addresses one property bag. For nodes ID is the node key, for edges
// it is the decimal edge index.
type Key struct {
	Kind Kind
	Type string
	ID   string
}

// NodeKey returns the key for a node.
func NodeKey(id model.NodeID) Key {
	return Key{Kind: KindNode, Type: typeName(id.Type), ID: id.Key}
}

// EdgeKey returns the key for an edge.
func EdgeKey(id model.EdgeID) Key {
	var name string
	if id.Type != nil {
		name = id.Type.Name()
	}
	return Key{Kind: KindEdge, Type: name, ID: strconv.FormatInt(int64(id.Index), 10)}
}

func typeName(t *model.NodeType) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

// EdgeIndex parses the edge index of an edge key.
func (k Key) EdgeIndex() (int32, error) {
	if k.Kind != KindEdge {
		return -1, fmt.Errorf("properties: %s is not an edge key", k)
	}
	v, err := strconv.ParseInt(k.ID, 10, 32)
	if err != nil {
		return -1, fmt.Errorf("properties: bad edge key %s: %w", k, err)
	}
	return int32(v), nil
}

const sep = '\x00'

// Encode returns the byte form used as a storage key: kind, type, NUL, id.
func (k Key) Encode() []byte {
	out := make([]byte, 0, 2+len(k.Type)+len(k.ID))
	out = append(out, byte(k.Kind))
	out = append(out, k.Type...)
	out = append(out, sep)
	return append(out, k.ID...)
}

// DecodeKey parses the output of Key.Encode.
func DecodeKey(b []byte) (Key, error) {
	if len(b) < 2 {
		return Key{}, fmt.Errorf("properties: short key %q", b)
	}
	kind := Kind(b[0])
	if kind != KindNode && kind != KindEdge {
		return Key{}, fmt.Errorf("properties: bad key kind %q", b[0])
	}
	typ, id, ok := strings.Cut(string(b[1:]), string(sep))
	if !ok {
		return Key{}, fmt.Errorf("properties: malformed key %q", b)
	}
	return Key{Kind: kind, Type: typ, ID: id}, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%c:%s:%s", k.Kind, k.Type, k.ID)
}

// Entry is one stored bag.
type Entry struct {
	Key        Key
	Properties Properties
}

// Store persists property bags. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the bag for key, or nil when none is stored.
	Get(ctx context.Context, key Key) (Properties, error)
	// Save replaces the bag for key. Saving an empty bag removes it.
	Save(ctx context.Context, key Key, props Properties) error
	// Remove deletes the bag for key and returns what was stored.
	Remove(ctx context.Context, key Key) (Properties, error)
	// All iterates every stored bag.
	All(ctx context.Context) iter.Seq2[Entry, error]
	// Close releases resources.
	Close() error
}
