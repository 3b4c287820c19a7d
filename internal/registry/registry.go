// Package registry implements the OPC UA TypeRegistry: a bidirectional
// mapping between Encodable concrete types and their binary-encoding NodeId.
// Each Registry is an explicit value built with New and filled by its owner
// (internal/ua.RegisterAll) before use; there is no package-level instance.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rcarmo/go-opcua/internal/codec"
)

// Registry is a bidirectional type<->NodeId table. The zero value is not
// usable; construct one with New.
type Registry struct {
	mu       sync.RWMutex
	byID     map[nodeKey]entry
	byGoType map[reflect.Type]codec.NodeId
}

type entry struct {
	id      codec.NodeId
	factory func() codec.Encodable
}

// nodeKey flattens a codec.NodeId into a comparable map key. NodeId itself
// can't be a map key (it carries a []byte field); IDType+Namespace+a string
// form of the identifier together pin it down.
type nodeKey struct {
	idType    codec.IdType
	namespace uint16
	ident     string
}

func keyFor(id codec.NodeId) nodeKey {
	switch id.IdType {
	case codec.IdTypeNumeric:
		return nodeKey{id.IdType, id.Namespace, fmt.Sprintf("%d", id.Numeric)}
	case codec.IdTypeString:
		return nodeKey{id.IdType, id.Namespace, id.Str}
	case codec.IdTypeGuid:
		return nodeKey{id.IdType, id.Namespace, id.Guid.String()}
	case codec.IdTypeByteString:
		return nodeKey{id.IdType, id.Namespace, string(id.ByteString)}
	default:
		return nodeKey{id.IdType, id.Namespace, ""}
	}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		byID:     make(map[nodeKey]entry),
		byGoType: make(map[reflect.Type]codec.NodeId),
	}
}

// Register binds id to factory, a constructor returning a fresh zero-value
// instance of the concrete Encodable type (typically `func() codec.Encodable
// { return &MyType{} }`). Calling Register twice for the same Go type or the
// same id on one Registry is a programmer error and panics.
func (r *Registry) Register(id codec.NodeId, factory func() codec.Encodable) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sample := factory()
	t := reflect.TypeOf(sample)
	k := keyFor(id)

	if _, exists := r.byID[k]; exists {
		panic(fmt.Sprintf("registry: duplicate registration for NodeId %s", id))
	}
	if _, exists := r.byGoType[t]; exists {
		panic(fmt.Sprintf("registry: duplicate registration for type %s", t))
	}

	r.byID[k] = entry{id: id, factory: factory}
	r.byGoType[t] = id
}

// TypeForID implements codec.TypeRegistry.
func (r *Registry) TypeForID(id codec.NodeId) (func() codec.Encodable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[keyFor(id)]
	if !ok {
		return nil, false
	}
	return e.factory, true
}

// IDForType implements codec.TypeRegistry.
func (r *Registry) IDForType(v codec.Encodable) (codec.NodeId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byGoType[reflect.TypeOf(v)]
	return id, ok
}

var _ codec.TypeRegistry = (*Registry)(nil)
