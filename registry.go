// Package sparsecs implements a sparse-archetype Entity-Component-System
// storage core: columnar per-component buffers, the signature→archetype
// index, capacity management, and swap-remove slot reclamation, plus the
// structure-event scheduler that makes structural mutations safe to issue
// from inside iteration.
package sparsecs

import (
	"fmt"
	"reflect"
	"unsafe"
)

// ComponentID is a dense, process-global, monotonically assigned id, one
// per distinct component type, stable for the process lifetime. Ids are
// never reused.
type ComponentID uint32

const (
	bitsPerWord       = 64
	maskWords         = 4
	maxComponentTypes = maskWords * bitsPerWord
)

// componentDescriptor is the type registry's entry for one component type:
// enough to move and zero-initialize values through type-erased byte
// buffers without reflection on the hot path.
type componentDescriptor struct {
	typ  reflect.Type
	size uintptr
	// write copies a boxed value of the descriptor's type into dst. Used
	// only off the hot path, to apply a deferred SetComponent payload
	// during queue playback where the concrete type isn't known statically.
	write func(dst unsafe.Pointer, v any)
}

var (
	nextComponentID ComponentID
	typeToID        = make(map[reflect.Type]ComponentID, maxComponentTypes)
	descriptors     [maxComponentTypes]componentDescriptor
)

// ResetComponentRegistry clears the global component registry. It exists
// for tests that need a clean slate between cases; production code never
// calls it, since component ids are meant to be stable for the process
// lifetime.
func ResetComponentRegistry() {
	nextComponentID = 0
	typeToID = make(map[reflect.Type]ComponentID, maxComponentTypes)
	descriptors = [maxComponentTypes]componentDescriptor{}
}

// RegisterComponent assigns a dense id to component type T on first
// mention and returns it. Subsequent calls for the same T return the same
// id. It panics once the process-wide limit of component types is
// exhausted.
func RegisterComponent[T any]() ComponentID {
	var zero T
	typ := reflect.TypeOf(zero)
	if id, ok := typeToID[typ]; ok {
		return id
	}
	if int(nextComponentID) >= maxComponentTypes {
		panic(fmt.Sprintf("sparsecs: cannot register component %s: maximum number of component types (%d) reached", typ, maxComponentTypes))
	}
	id := nextComponentID
	typeToID[typ] = id
	descriptors[id] = componentDescriptor{
		typ:  typ,
		size: unsafe.Sizeof(zero),
		write: func(dst unsafe.Pointer, v any) {
			*(*T)(dst) = v.(T)
		},
	}
	nextComponentID++
	return id
}

// GetID returns the ComponentID for T, registering it if this is the first
// mention. It never panics on an unregistered type — it registers it.
func GetID[T any]() ComponentID {
	return RegisterComponent[T]()
}

// TryGetID returns the ComponentID for T and true if T has already been
// registered, without registering it.
func TryGetID[T any]() (ComponentID, bool) {
	var zero T
	id, ok := typeToID[reflect.TypeOf(zero)]
	return id, ok
}

func componentSize(id ComponentID) uintptr {
	return descriptors[id].size
}
