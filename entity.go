package sparsecs

import (
	"fmt"
	"unsafe"
)

// IsValid reports whether e still refers to a live entity: its slot's
// stored version matches e.Version and the slot has an archetype back-
// reference.
func (e Entity) IsValid() bool {
	_, ok := entityTableGlobal.resolve(e)
	return ok
}

// Destroy removes e and every one of its components, routed through its
// world's structure-event handler. A no-op if e is already invalid.
func (e Entity) Destroy() {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return
	}
	rec.archetype.world.handler.destroyEntity(e)
}

// Transfer moves e into target, preserving every component value but
// firing no set/remove callbacks. Reports false if e is invalid, target
// is invalid, or target is e's current world. When the world is in
// deferred mode, the transfer is queued, reports true, and those target
// checks run at drain time.
func (e Entity) Transfer(target WorldHandle) bool {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return false
	}
	return rec.archetype.world.handler.transferEntity(e, target)
}

// HasComponent reports whether e currently carries a component of type T.
func HasComponent[T any](e Entity) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return false
	}
	return rec.archetype.signature.Contains(id)
}

// GetComponent returns a copy of e's component of type T. ok is false if e
// is invalid or does not carry T.
func GetComponent[T any](e Entity) (val T, ok bool) {
	id, registered := TryGetID[T]()
	if !registered {
		return val, false
	}
	rec, live := entityTableGlobal.resolve(e)
	if !live {
		return val, false
	}
	arch := rec.archetype
	if !arch.signature.Contains(id) {
		return val, false
	}
	return *(*T)(arch.bufferFor(id).ptrAt(rec.index)), true
}

// SetComponent writes val as e's component of type T, adding the
// component (and moving e to the archetype that results) if e did not
// already carry one. Returns false if e is invalid. When the world is in
// deferred mode, the write is queued and applied on drain instead.
func SetComponent[T any](e Entity, val T) bool {
	id := RegisterComponent[T]()
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return false
	}
	wd := rec.archetype.world
	if wd.handler.deferred() {
		data := wd.perType(id)
		data.setQueue = append(data.setQueue, val)
		wd.handler.queue = append(wd.handler.queue, structureEvent{kind: evSetComponent, entity: e, componentID: id})
		return true
	}
	setComponentImmediate(wd, e, id, val)
	return true
}

func setComponentImmediate[T any](wd *worldData, e Entity, id ComponentID, val T) {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return
	}
	arch := rec.archetype
	if arch.signature.Contains(id) {
		buf := arch.bufferFor(id)
		ptr := buf.ptrAt(rec.index)
		old := *(*T)(ptr)
		*(*T)(ptr) = val
		fireSetCallbacks(wd, id, e, unsafe.Pointer(&old), ptr)
		return
	}
	newSig := arch.signature.withID(id)
	newArch := wd.getOrCreateArchetype(newSig)
	newIdx := transferRow(arch, rec.index, newArch)
	buf := newArch.bufferFor(id)
	if buf == nil {
		panic(fmt.Sprintf("sparsecs: missing component %d in matching archetype after add-component move", id))
	}
	ptr := buf.ptrAt(newIdx)
	var old T
	*(*T)(ptr) = val
	fireSetCallbacks(wd, id, e, unsafe.Pointer(&old), ptr)
}

// RemoveComponent removes e's component of type T, if present, moving e
// to the resulting archetype. Returns false if e is invalid or does not
// currently carry T. When the world is in deferred mode, the removal is
// queued and reports true; whether e carries T is checked at drain time.
func RemoveComponent[T any](e Entity) bool {
	id, ok := TryGetID[T]()
	if !ok {
		return false
	}
	rec, live := entityTableGlobal.resolve(e)
	if !live {
		return false
	}
	wd := rec.archetype.world
	return wd.handler.removeComponent(e, id)
}
