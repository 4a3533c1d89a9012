package sparsecs

// CreateEntity allocates a new entity with no components in w, placing it
// in the empty-signature archetype. ok is false if w is invalid.
func (h WorldHandle) CreateEntity() (Entity, bool) {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return Entity{}, false
	}
	return wd.handler.createEntity(), true
}

// CreateEntities allocates n componentless entities in one call, returning
// nil if w is invalid.
func (h WorldHandle) CreateEntities(n int) []Entity {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok || n <= 0 {
		return nil
	}
	out := make([]Entity, n)
	for i := range out {
		out[i] = wd.handler.createEntity()
	}
	return out
}

// EntityCount returns the number of live entities in w, or 0 if w is
// invalid.
func (h WorldHandle) EntityCount() int {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return 0
	}
	return wd.entityCount
}

// TryGetArchetype returns the archetype matching sig, if one has ever been
// created in w and not since destroyed.
func (h WorldHandle) TryGetArchetype(sig Signature) (ArchetypeHandle, bool) {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return ArchetypeHandle{}, false
	}
	idx, ok := wd.sigToArchSlot[sig.mask]
	if !ok {
		return ArchetypeHandle{}, false
	}
	a := wd.archSlots[idx].archetype
	if a == nil {
		return ArchetypeHandle{}, false
	}
	return archetypeHandleOf(a), true
}

// Archetypes returns a handle to every archetype currently live in w.
func (h WorldHandle) Archetypes() []ArchetypeHandle {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return nil
	}
	out := make([]ArchetypeHandle, 0, len(wd.archSlots))
	for i := range wd.archSlots {
		if a := wd.archSlots[i].archetype; a != nil {
			out = append(out, archetypeHandleOf(a))
		}
	}
	return out
}

// ResizeBackingArrays shrinks every archetype's backing arrays to the
// smallest power of two that fits its current entity count.
func (h WorldHandle) ResizeBackingArrays() {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return
	}
	for i := range wd.archSlots {
		if a := wd.archSlots[i].archetype; a != nil {
			wd.handler.resizeBackingArrays(a)
		}
	}
}

// DestroyEmptyArchetypes requests destruction of every archetype in w
// that currently holds zero entities.
func (h WorldHandle) DestroyEmptyArchetypes() {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return
	}
	for i := range wd.archSlots {
		if a := wd.archSlots[i].archetype; a != nil && a.entityCount == 0 {
			wd.handler.destroyArchetype(a)
		}
	}
}

// Destroy invalidates w and every entity it contains, firing remove
// callbacks after every entity has already been invalidated.
func (h WorldHandle) Destroy() {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return
	}
	wd.handler.destroyWorld()
}

// BeginDefer raises w's defer depth by one; structural operations queue
// instead of applying until a matching EndDefer brings the depth back to
// zero. Typically called before iterating w's archetypes.
func (h WorldHandle) BeginDefer() {
	if wd, ok := worldRegistryGlobal.resolve(h); ok {
		wd.handler.BeginDefer()
	}
}

// EndDefer lowers w's defer depth by one, draining the queued structural
// operations in FIFO order once it reaches zero.
func (h WorldHandle) EndDefer() {
	if wd, ok := worldRegistryGlobal.resolve(h); ok {
		wd.handler.EndDefer()
	}
}

// Events returns w's event bus, which publishes ArchetypeCreated and
// ArchetypeDestroyed as its structure changes. Returns nil if w is
// invalid.
func (h WorldHandle) Events() *EventBus {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return nil
	}
	return wd.events
}

// StructureUpdateCount returns the number of archetype creations plus
// destructions that have occurred in w, for external query layers to use
// as a cache-invalidation signal.
func (h WorldHandle) StructureUpdateCount() uint64 {
	wd, ok := worldRegistryGlobal.resolve(h)
	if !ok {
		return 0
	}
	return wd.archetypeStructureUpdateCount
}
