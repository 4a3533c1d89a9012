package sparsecs

import "unsafe"

// perTypeWorldData holds everything scoped to one (world, component type)
// pair, lazily created on first registration/use: callback lists, an
// optional opaque world-scoped datum, and the deferred-playback queues for
// that component type. Kept in a sparse array indexed by ComponentID on
// worldData, per the design note in spec.md §9 (avoid a hash map here).
type perTypeWorldData struct {
	setCallbacks    []setCallbackEntry
	removeCallbacks []removeCallbackEntry
	nextToken       uint64

	hasSetCallback    bool
	hasRemoveCallback bool

	datum    any
	hasDatum bool

	// setQueue holds deferred SetComponent payloads in FIFO order; the
	// event record in the main queue stays fixed-size because the value
	// itself lives here instead.
	setQueue []any
}

type setCallbackEntry struct {
	token uint64
	fn    func(e Entity, oldVal, newVal unsafe.Pointer)
}

type removeCallbackEntry struct {
	token uint64
	fn    func(e Entity, removedVal unsafe.Pointer)
}

// SetCallbackHandle identifies one registered set-callback for later
// removal via UnregisterOnSet.
type SetCallbackHandle struct {
	id    ComponentID
	token uint64
}

// RemoveCallbackHandle identifies one registered remove-callback for later
// removal via UnregisterOnRemove.
type RemoveCallbackHandle struct {
	id    ComponentID
	token uint64
}

func (w *worldData) perType(id ComponentID) *perTypeWorldData {
	if w.typeData[id] == nil {
		w.typeData[id] = &perTypeWorldData{}
	}
	return w.typeData[id]
}

// OnSet registers cb to run after every structural operation that sets
// component T on an entity — both the in-place update and the add-on-first-
// set path (where old is T's zero value). Callbacks fire after the
// mutation has already landed in storage (spec.md §4.8/§4.9), in
// registration order.
func OnSet[T any](w WorldHandle, cb func(e Entity, old T, new *T)) (SetCallbackHandle, bool) {
	wd, ok := worldRegistryGlobal.resolve(w)
	if !ok {
		return SetCallbackHandle{}, false
	}
	id := RegisterComponent[T]()
	data := wd.perType(id)
	data.nextToken++
	token := data.nextToken
	data.setCallbacks = append(data.setCallbacks, setCallbackEntry{
		token: token,
		fn: func(e Entity, oldPtr, newPtr unsafe.Pointer) {
			cb(e, *(*T)(oldPtr), (*T)(newPtr))
		},
	})
	data.hasSetCallback = true
	return SetCallbackHandle{id: id, token: token}, true
}

// OnSetRef is the "ref-only" registration variant of OnSet: the callback
// only receives a pointer to the new value, not the old one. It's adapted
// into the full signature internally.
func OnSetRef[T any](w WorldHandle, cb func(e Entity, new *T)) (SetCallbackHandle, bool) {
	return OnSet[T](w, func(e Entity, _ T, new *T) { cb(e, new) })
}

// UnregisterOnSet removes a callback previously registered with OnSet or
// OnSetRef.
func UnregisterOnSet(w WorldHandle, h SetCallbackHandle) {
	wd, ok := worldRegistryGlobal.resolve(w)
	if !ok {
		return
	}
	data := wd.typeData[h.id]
	if data == nil {
		return
	}
	for i, entry := range data.setCallbacks {
		if entry.token == h.token {
			data.setCallbacks = append(data.setCallbacks[:i], data.setCallbacks[i+1:]...)
			break
		}
	}
	data.hasSetCallback = len(data.setCallbacks) > 0
}

// OnRemove registers cb to run after component T has been removed from
// storage — either by an explicit RemoveComponent, by DestroyEntity, by
// DestroyArchetype, or by DestroyWorld. The entity is already invalid by
// the time the callback fires for destroy paths (spec.md §4.9).
func OnRemove[T any](w WorldHandle, cb func(e Entity, removed T)) (RemoveCallbackHandle, bool) {
	wd, ok := worldRegistryGlobal.resolve(w)
	if !ok {
		return RemoveCallbackHandle{}, false
	}
	id := RegisterComponent[T]()
	data := wd.perType(id)
	data.nextToken++
	token := data.nextToken
	data.removeCallbacks = append(data.removeCallbacks, removeCallbackEntry{
		token: token,
		fn: func(e Entity, removedPtr unsafe.Pointer) {
			cb(e, *(*T)(removedPtr))
		},
	})
	data.hasRemoveCallback = true
	return RemoveCallbackHandle{id: id, token: token}, true
}

// UnregisterOnRemove removes a callback previously registered with OnRemove.
func UnregisterOnRemove(w WorldHandle, h RemoveCallbackHandle) {
	wd, ok := worldRegistryGlobal.resolve(w)
	if !ok {
		return
	}
	data := wd.typeData[h.id]
	if data == nil {
		return
	}
	for i, entry := range data.removeCallbacks {
		if entry.token == h.token {
			data.removeCallbacks = append(data.removeCallbacks[:i], data.removeCallbacks[i+1:]...)
			break
		}
	}
	data.hasRemoveCallback = len(data.removeCallbacks) > 0
}

// SetData stores val as the world-scoped opaque datum associated with
// component type T. There is at most one such datum per (world, T) pair;
// a second call overwrites the first.
func SetData[T any](w WorldHandle, val T) bool {
	wd, ok := worldRegistryGlobal.resolve(w)
	if !ok {
		return false
	}
	id := RegisterComponent[T]()
	data := wd.perType(id)
	data.datum = val
	data.hasDatum = true
	return true
}

// GetData retrieves the world-scoped opaque datum for component type T.
// It fails (ok=false) if the world is invalid or no datum of type T has
// been set — callers must check world validity first per spec.md §7.
func GetData[T any](w WorldHandle) (val T, ok bool) {
	wd, valid := worldRegistryGlobal.resolve(w)
	if !valid {
		return val, false
	}
	id, registered := TryGetID[T]()
	if !registered {
		return val, false
	}
	data := wd.typeData[id]
	if data == nil || !data.hasDatum {
		return val, false
	}
	return data.datum.(T), true
}
