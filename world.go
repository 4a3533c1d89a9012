package sparsecs

// archetypeSlot is one entry in a world's archetype slot array: the live
// archetype (nil if the slot is free) plus a version bumped each time the
// slot is reused, backing ArchetypeHandle validity checks.
type archetypeSlot struct {
	archetype *Archetype
	version   uint32
}

const archetypeSlotsInitialSize = 16

// worldData is the internal storage behind a WorldHandle: the archetype
// slot array and signature index, per-type world data, and the
// structure-event handler that routes every mutating call.
type worldData struct {
	handle WorldHandle
	name   string

	archSlots            []archetypeSlot
	freeArchSlots        []int
	archTerminatingIndex int
	sigToArchSlot        map[bitmask256]int

	typeData [maxComponentTypes]*perTypeWorldData

	entityCount                   int
	archetypeStructureUpdateCount uint64

	handler *structureEventHandler
	events  *EventBus
}

func newWorldData(handle WorldHandle, name string, initialEntityCapacity int) *worldData {
	w := &worldData{
		handle:        handle,
		name:          name,
		archSlots:     make([]archetypeSlot, 0, archetypeSlotsInitialSize),
		sigToArchSlot: make(map[bitmask256]int),
		events:        &EventBus{},
	}
	w.handler = newStructureEventHandler(w)
	_ = initialEntityCapacity // entity storage itself is process-global; see entitytable.go
	// Pre-create the empty archetype so CreateEntity always has somewhere
	// to place a fresh, componentless entity.
	w.getOrCreateArchetype(Signature{})
	return w
}

// getOrCreateArchetype resolves sig to its archetype, creating a new one
// (reusing a free slot if available) if this is the first mention of that
// exact signature in this world.
func (w *worldData) getOrCreateArchetype(sig Signature) *Archetype {
	if idx, ok := w.sigToArchSlot[sig.mask]; ok {
		return w.archSlots[idx].archetype
	}
	var idx int
	if n := len(w.freeArchSlots); n > 0 {
		idx = w.freeArchSlots[n-1]
		w.freeArchSlots = w.freeArchSlots[:n-1]
	} else {
		idx = w.archTerminatingIndex
		if idx >= len(w.archSlots) {
			w.growArchSlots(idx + 1)
		}
		w.archTerminatingIndex++
	}
	slot := &w.archSlots[idx]
	a := newArchetype(w, sig, idx, slot.version)
	slot.archetype = a
	w.sigToArchSlot[sig.mask] = idx
	w.archetypeStructureUpdateCount++
	Publish(w.events, ArchetypeCreated{World: w.handle, Signature: sig})
	return a
}

func (w *worldData) growArchSlots(minLen int) {
	newLen := cap(w.archSlots) * 2
	if newLen < minLen {
		newLen = minLen
	}
	if newLen < archetypeSlotsInitialSize {
		newLen = archetypeSlotsInitialSize
	}
	grown := make([]archetypeSlot, newLen)
	copy(grown, w.archSlots)
	w.archSlots = grown[:len(w.archSlots)]
	for len(w.archSlots) < minLen {
		w.archSlots = append(w.archSlots, archetypeSlot{})
	}
}

// destroyArchetypeSlot removes a's signature from the index, frees its
// slot for reuse (bumping the slot version so outstanding ArchetypeHandles
// become invalid), and records the structural change. It does not touch
// entities — callers (structureEventHandler.destroyArchetype) are
// responsible for invalidating them first.
func (w *worldData) destroyArchetypeSlot(a *Archetype) {
	delete(w.sigToArchSlot, a.signature.mask)
	slot := &w.archSlots[a.index]
	slot.version++
	slot.archetype = nil
	w.freeArchSlots = append(w.freeArchSlots, a.index)
	w.archetypeStructureUpdateCount++
	Publish(w.events, ArchetypeDestroyed{World: w.handle, Signature: a.signature})
}

// resolveArchetypeHandle returns the archetype behind h, or ok=false if the
// world or the archetype slot is no longer valid.
func resolveArchetypeHandle(h ArchetypeHandle) (*Archetype, bool) {
	wd, ok := worldRegistryGlobal.resolve(h.World)
	if !ok {
		return nil, false
	}
	if int(h.Index) >= len(wd.archSlots) {
		return nil, false
	}
	slot := &wd.archSlots[h.Index]
	if slot.version != h.Version || slot.archetype == nil {
		return nil, false
	}
	return slot.archetype, true
}

func archetypeHandleOf(a *Archetype) ArchetypeHandle {
	return ArchetypeHandle{
		World:   a.world.handle,
		Index:   uint32(a.index),
		Version: a.world.archSlots[a.index].version,
	}
}
