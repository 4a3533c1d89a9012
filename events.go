package sparsecs

import (
	"fmt"
	"unsafe"
)

type eventKind uint8

const (
	evCreateEntity eventKind = iota
	evDestroyEntity
	evSetComponent
	evRemoveComponent
	evTransferEntity
	evDestroyArchetype
	evDestroyWorld
	evResizeBackingArrays
)

// structureEvent is the handler's fixed-size queue record. It is a tagged
// union over every structural operation; SetComponent's actual payload
// lives in the target component type's side queue (perTypeWorldData.setQueue)
// so this struct never grows with the size of user component types.
type structureEvent struct {
	kind        eventKind
	entity      Entity
	componentID ComponentID
	archetype   *Archetype
	targetWorld WorldHandle
}

type stagingEntry struct {
	id     ComponentID
	offset int
}

// structureEventHandler is the single entry point every structural mutation
// on a world routes through. While deferDepth is positive, mutations are
// queued instead of applied; dropping back to zero drains the queue in
// enqueue order, including events appended by callbacks fired during the
// drain itself.
type structureEventHandler struct {
	world      *worldData
	deferDepth int
	queue      []structureEvent

	// Reused across destroyEntityImmediate calls to avoid allocating a
	// staging list per destroy. Not reentrant: a remove callback that
	// triggers another immediate (non-deferred) destroy on this same world
	// would clobber the in-flight staging data, which is why spec.md §5
	// requires callbacks not to re-enter a world's structural operations
	// except in deferred mode.
	scratchEntries []stagingEntry
	scratchBytes   []byte
}

func newStructureEventHandler(w *worldData) *structureEventHandler {
	return &structureEventHandler{world: w}
}

func (h *structureEventHandler) deferred() bool {
	return h.deferDepth > 0
}

// BeginDefer raises the defer depth by one. Nested begin/end pairs compose.
func (h *structureEventHandler) BeginDefer() {
	h.deferDepth++
}

// EndDefer lowers the defer depth by one, draining the queue once it
// reaches zero. Calling EndDefer with depth already at zero is a no-op,
// keeping the counter non-negative.
func (h *structureEventHandler) EndDefer() {
	if h.deferDepth == 0 {
		return
	}
	h.deferDepth--
	if h.deferDepth == 0 {
		h.drain()
	}
}

// drain executes queued events in FIFO order. The defer depth is held
// above zero while events run, so structural calls made by a callback
// fired during drain are appended to the end of the same queue and run
// before drain returns, since each iteration re-reads h.queue from the
// field rather than a cached local. A callback that opens and closes its
// own nested defer scope only returns the depth to that held level, so
// its events are run by this same loop, keeping overall ordering FIFO.
func (h *structureEventHandler) drain() {
	h.deferDepth++
	for len(h.queue) > 0 {
		ev := h.queue[0]
		h.queue = h.queue[1:]
		switch ev.kind {
		case evCreateEntity:
			h.commitOrCancelCreate(ev)
		case evDestroyEntity:
			h.destroyEntityImmediate(ev.entity)
		case evSetComponent:
			applyDeferredSet(h.world, ev.entity, ev.componentID)
		case evRemoveComponent:
			h.removeComponentImmediate(ev.entity, ev.componentID)
		case evTransferEntity:
			h.transferEntityImmediate(ev.entity, ev.targetWorld)
		case evDestroyArchetype:
			h.destroyArchetypeImmediate(ev.archetype)
		case evDestroyWorld:
			h.destroyWorldImmediate()
		case evResizeBackingArrays:
			ev.archetype.ResizeBackingArrays()
		}
	}
	if h.deferDepth > 0 {
		h.deferDepth--
	}
	h.queue = nil
}

// createEntity allocates a slot in the empty-signature archetype. If
// deferred, the handle's version is bumped immediately so it reads as
// invalid until the create is committed at drain time (see commitOrCancelCreate).
func (h *structureEventHandler) createEntity() Entity {
	wd := h.world
	emptyArch := wd.getOrCreateArchetype(Signature{})
	if h.deferred() {
		index, _ := entityTableGlobal.allocate()
		version := entityTableGlobal.bumpVersion(index)
		reserved := Entity{ID: index, Version: version}
		h.queue = append(h.queue, structureEvent{kind: evCreateEntity, entity: reserved, archetype: emptyArch})
		return reserved
	}
	index, version := entityTableGlobal.allocate()
	slot := emptyArch.appendEntity(Entity{ID: index, Version: version})
	entityTableGlobal.place(index, emptyArch, slot)
	wd.entityCount++
	return Entity{ID: index, Version: version}
}

// commitOrCancelCreate plays back a deferred CreateEntity. If the intended
// archetype was destroyed before this event drained, the reserved slot is
// simply returned to the free list instead (spec §9's resolved open
// question: the create becomes a no-op, and any DestroyEntity enqueued
// against this same handle will itself have already no-opped on resolve,
// since the handle never became observably live).
func (h *structureEventHandler) commitOrCancelCreate(ev structureEvent) {
	if ev.archetype.destroyed {
		entityTableGlobal.release(ev.entity.ID)
		return
	}
	slot := ev.archetype.appendEntity(ev.entity)
	entityTableGlobal.place(ev.entity.ID, ev.archetype, slot)
	h.world.entityCount++
}

func (h *structureEventHandler) destroyEntity(e Entity) {
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evDestroyEntity, entity: e})
		return
	}
	h.destroyEntityImmediate(e)
}

// destroyEntityImmediate snapshots the component values any remove
// callback needs before the row disappears, performs the swap-remove, and
// only then fires callbacks — by which point is_valid(e) is already false.
func (h *structureEventHandler) destroyEntityImmediate(e Entity) {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return
	}
	wd := h.world
	arch := rec.archetype
	idx := rec.index

	h.scratchEntries = h.scratchEntries[:0]
	h.scratchBytes = h.scratchBytes[:0]
	for _, id := range arch.ids {
		data := wd.typeData[id]
		if data == nil || !data.hasRemoveCallback {
			continue
		}
		buf := arch.bufferFor(id)
		size := int(buf.elemSize)
		off := len(h.scratchBytes)
		if size > 0 {
			h.scratchBytes = append(h.scratchBytes, make([]byte, size)...)
			copy(h.scratchBytes[off:off+size], unsafe.Slice((*byte)(buf.ptrAt(idx)), size))
		}
		h.scratchEntries = append(h.scratchEntries, stagingEntry{id: id, offset: off})
	}

	moved, movedIdx, movedOK := arch.removeAt(idx)
	entityTableGlobal.release(e.ID)
	if movedOK {
		entityTableGlobal.records[moved.ID].index = movedIdx
	}
	wd.entityCount--

	for _, ent := range h.scratchEntries {
		ptr := unsafe.Pointer(&zeroSizeMarker)
		if len(h.scratchBytes) > 0 {
			ptr = unsafe.Pointer(&h.scratchBytes[ent.offset])
		}
		fireRemoveCallbacks(wd, ent.id, e, ptr)
	}
}

func (h *structureEventHandler) removeComponent(e Entity, id ComponentID) bool {
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evRemoveComponent, entity: e, componentID: id})
		return true
	}
	return h.removeComponentImmediate(e, id)
}

func (h *structureEventHandler) removeComponentImmediate(e Entity, id ComponentID) bool {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return false
	}
	wd := h.world
	arch := rec.archetype
	if !arch.signature.Contains(id) {
		return false
	}
	buf := arch.bufferFor(id)
	size := int(buf.elemSize)
	removedPtr := unsafe.Pointer(&zeroSizeMarker)
	var removedBytes []byte
	if size > 0 {
		removedBytes = make([]byte, size)
		copy(removedBytes, unsafe.Slice((*byte)(buf.ptrAt(rec.index)), size))
		removedPtr = unsafe.Pointer(&removedBytes[0])
	}

	newSig := arch.signature.withoutID(id)
	newArch := wd.getOrCreateArchetype(newSig)
	transferRow(arch, rec.index, newArch)

	fireRemoveCallbacks(wd, id, e, removedPtr)
	return true
}

func (h *structureEventHandler) transferEntity(e Entity, target WorldHandle) bool {
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evTransferEntity, entity: e, targetWorld: target})
		return true
	}
	return h.transferEntityImmediate(e, target)
}

func (h *structureEventHandler) transferEntityImmediate(e Entity, target WorldHandle) bool {
	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return false
	}
	srcArch := rec.archetype
	srcWorld := srcArch.world
	if target == srcWorld.handle {
		return false
	}
	dstWorld, ok := worldRegistryGlobal.resolve(target)
	if !ok {
		return false
	}
	dstArch := dstWorld.getOrCreateArchetype(srcArch.signature)
	transferRow(srcArch, rec.index, dstArch)
	srcWorld.entityCount--
	dstWorld.entityCount++
	return true
}

func (h *structureEventHandler) destroyArchetype(a *Archetype) {
	if a.destroyed {
		return
	}
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evDestroyArchetype, archetype: a})
		return
	}
	h.destroyArchetypeImmediate(a)
}

// destroyArchetypeImmediate invalidates every contained entity before any
// remove callback runs (spec §4.9): entities are released from the table
// first, then callbacks fire per component type, in slot order within a
// type. Ordering across types is unspecified and left to ids order here.
func (h *structureEventHandler) destroyArchetypeImmediate(a *Archetype) {
	if a.destroyed {
		return
	}
	wd := a.world
	wd.entityCount -= a.entityCount
	a.destroyed = true
	entities := append([]Entity(nil), a.entities[:a.entityCount]...)
	wd.destroyArchetypeSlot(a)

	for _, e := range entities {
		entityTableGlobal.release(e.ID)
	}

	for _, id := range a.ids {
		data := wd.typeData[id]
		if data == nil || !data.hasRemoveCallback {
			continue
		}
		buf := a.bufferFor(id)
		for i, e := range entities {
			fireRemoveCallbacks(wd, id, e, buf.ptrAt(i))
		}
	}
}

func (h *structureEventHandler) destroyWorld() {
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evDestroyWorld})
		return
	}
	h.destroyWorldImmediate()
}

// destroyWorldImmediate invalidates the world handle itself, then every
// contained entity across every archetype, before any remove callback
// runs — matching destroyArchetypeImmediate's two-pass structure but
// spanning the whole world in one shot.
func (h *structureEventHandler) destroyWorldImmediate() {
	wd := h.world
	slot := &worldRegistryGlobal.slots[wd.handle.Index]
	slot.version++
	slot.world = nil
	worldRegistryGlobal.free = append(worldRegistryGlobal.free, wd.handle.Index)
	// Only clear the name->handle entry if it still points at this world:
	// GetOrCreateWorld lets a newer world with the same name overwrite an
	// older one's entry, and that newer world must not be un-indexed by an
	// older handle's destroy.
	if worldRegistryGlobal.byName[wd.name] == wd.handle {
		delete(worldRegistryGlobal.byName, wd.name)
	}

	type liveArch struct {
		a        *Archetype
		entities []Entity
	}
	var live []liveArch
	for i := range wd.archSlots {
		a := wd.archSlots[i].archetype
		if a == nil {
			continue
		}
		entities := append([]Entity(nil), a.entities[:a.entityCount]...)
		live = append(live, liveArch{a: a, entities: entities})
		a.destroyed = true
		wd.destroyArchetypeSlot(a)
	}

	for _, la := range live {
		for _, e := range la.entities {
			entityTableGlobal.release(e.ID)
		}
	}

	for _, la := range live {
		for _, id := range la.a.ids {
			data := wd.typeData[id]
			if data == nil || !data.hasRemoveCallback {
				continue
			}
			buf := la.a.bufferFor(id)
			for i, e := range la.entities {
				fireRemoveCallbacks(wd, id, e, buf.ptrAt(i))
			}
		}
	}
}

func (h *structureEventHandler) resizeBackingArrays(a *Archetype) {
	if h.deferred() {
		h.queue = append(h.queue, structureEvent{kind: evResizeBackingArrays, archetype: a})
		return
	}
	a.ResizeBackingArrays()
}

func fireSetCallbacks(wd *worldData, id ComponentID, e Entity, oldPtr, newPtr unsafe.Pointer) {
	data := wd.typeData[id]
	if data == nil || !data.hasSetCallback {
		return
	}
	for _, cb := range data.setCallbacks {
		cb.fn(e, oldPtr, newPtr)
	}
}

func fireRemoveCallbacks(wd *worldData, id ComponentID, e Entity, removedPtr unsafe.Pointer) {
	data := wd.typeData[id]
	if data == nil || !data.hasRemoveCallback {
		return
	}
	for _, cb := range data.removeCallbacks {
		cb.fn(e, removedPtr)
	}
}

// applyDeferredSet plays back one queued SetComponent: it pops the boxed
// value off the component type's side queue and applies it exactly as the
// immediate path would, using the type descriptor instead of static
// generics since the concrete type isn't known here.
func applyDeferredSet(wd *worldData, e Entity, id ComponentID) {
	data := wd.typeData[id]
	if data == nil || len(data.setQueue) == 0 {
		return
	}
	boxedVal := data.setQueue[0]
	data.setQueue = data.setQueue[1:]

	rec, ok := entityTableGlobal.resolve(e)
	if !ok {
		return
	}
	arch := rec.archetype
	size := int(componentSize(id))

	if arch.signature.Contains(id) {
		buf := arch.bufferFor(id)
		ptr := buf.ptrAt(rec.index)
		oldPtr := snapshotBytes(ptr, size)
		descriptors[id].write(ptr, boxedVal)
		fireSetCallbacks(wd, id, e, oldPtr, ptr)
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
	oldPtr := zeroBytes(size)
	descriptors[id].write(ptr, boxedVal)
	fireSetCallbacks(wd, id, e, oldPtr, ptr)
}

var zeroSizeMarker byte

func snapshotBytes(ptr unsafe.Pointer, size int) unsafe.Pointer {
	if size == 0 {
		return unsafe.Pointer(&zeroSizeMarker)
	}
	buf := make([]byte, size)
	copy(buf, unsafe.Slice((*byte)(ptr), size))
	return unsafe.Pointer(&buf[0])
}

func zeroBytes(size int) unsafe.Pointer {
	if size == 0 {
		return unsafe.Pointer(&zeroSizeMarker)
	}
	return unsafe.Pointer(&make([]byte, size)[0])
}
