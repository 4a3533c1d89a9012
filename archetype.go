package sparsecs

// Archetype is the container for every entity sharing one Signature. It
// stores entities and components as struct-of-arrays: one componentBuffer
// per component type in the signature, plus a parallel entities column.
//
// Invariants (enforced after every public operation): for every slot
// s in [0, entityCount), entities[s] is a live handle whose entity record
// points back to this archetype at slot s; entityCount <= capacity; every
// component buffer shares the same logical length as entityCount.
type Archetype struct {
	world     *worldData
	signature Signature
	index     int
	version   uint32
	destroyed bool

	entities []Entity
	ids      []ComponentID
	buffers  []*componentBuffer
	colIndex [maxComponentTypes]int16 // local column index, -1 means absent

	entityCount int
	capacity    int
}

func newArchetype(w *worldData, sig Signature, index int, version uint32) *Archetype {
	a := &Archetype{
		world:     w,
		signature: sig,
		index:     index,
		version:   version,
	}
	for i := range a.colIndex {
		a.colIndex[i] = -1
	}
	ids := sig.IDs()
	a.ids = ids
	a.buffers = make([]*componentBuffer, len(ids))
	for i, id := range ids {
		a.buffers[i] = newComponentBuffer(componentSize(id))
		a.colIndex[id] = int16(i)
	}
	return a
}

// getSlot returns the local column index for id, or -1 if this archetype's
// signature does not contain it.
func (a *Archetype) getSlot(id ComponentID) int {
	return int(a.colIndex[id])
}

func (a *Archetype) bufferFor(id ComponentID) *componentBuffer {
	slot := a.getSlot(id)
	if slot < 0 {
		return nil
	}
	return a.buffers[slot]
}

// EntityCount returns the number of live entities currently stored.
func (a *Archetype) EntityCount() int {
	return a.entityCount
}

// Signature returns the archetype's canonical component signature.
func (a *Archetype) Signature() Signature {
	return a.signature
}

// ensureCapacity grows every column (and the entities array) uniformly so
// they can hold at least n entities.
func (a *Archetype) ensureCapacity(n int) {
	if n <= a.capacity {
		return
	}
	newCap := nextPow2(n)
	newEntities := make([]Entity, len(a.entities), newCap)
	copy(newEntities, a.entities)
	a.entities = newEntities
	for _, buf := range a.buffers {
		buf.ensureCapacity(newCap)
	}
	a.capacity = newCap
}

// ResizeBackingArrays sets capacity to the smallest power of two >=
// entityCount (minimum 8), rewriting every column. Used to reclaim memory
// after a burst of removals.
func (a *Archetype) ResizeBackingArrays() {
	newCap := nextPow2(a.entityCount)
	newEntities := make([]Entity, a.entityCount, newCap)
	copy(newEntities, a.entities[:a.entityCount])
	a.entities = newEntities
	for _, buf := range a.buffers {
		newData := make([]byte, 0)
		if buf.elemSize != 0 {
			newData = make([]byte, newCap*int(buf.elemSize))
			copy(newData, buf.data[:a.entityCount*int(buf.elemSize)])
		}
		buf.data = newData
	}
	a.capacity = newCap
}

// Destroy requests the owning world destroy this archetype, routed through
// the world's structure-event handler so the request honors defer depth.
func (a *Archetype) Destroy() {
	a.world.handler.destroyArchetype(a)
}

// appendEntity grows every column by one slot, storing e in the entities
// column, and returns the new slot index. Component columns are left
// zero-valued at the new slot; callers fill them in.
func (a *Archetype) appendEntity(e Entity) int {
	idx := a.entityCount
	a.ensureCapacity(idx + 1)
	a.entities = a.entities[:idx+1]
	a.entities[idx] = e
	for _, buf := range a.buffers {
		buf.appendZero()
	}
	a.entityCount++
	return idx
}

// removeAt swap-removes the entity at index from every column. If an
// entity other than the removed one occupied the last slot, it reports
// that entity and its new index so the caller can fix up its metadata.
func (a *Archetype) removeAt(index int) (moved Entity, movedIdx int, ok bool) {
	last := a.entityCount - 1
	for _, buf := range a.buffers {
		buf.swapRemove(index, last)
	}
	return a.swapRemoveEntitiesColumn(index)
}

// swapRemoveEntitiesColumn removes the entity at index from the entities
// column alone, reporting the entity that took its place (if any) so the
// caller can fix up that entity's stored slot index. Component buffers are
// the caller's responsibility — removeAt swap-removes every buffer itself,
// while transferRow drives each buffer individually via componentBuffer's
// own moveTo/swapRemove so it can distinguish columns shared with the
// destination archetype from ones left behind.
func (a *Archetype) swapRemoveEntitiesColumn(index int) (moved Entity, movedIdx int, ok bool) {
	last := a.entityCount - 1
	if index != last {
		moved = a.entities[last]
		movedIdx = index
		ok = true
	}
	a.entities[index] = a.entities[last]
	a.entities = a.entities[:last]
	a.entityCount--
	return
}

// transferRow moves the entity at idx in src into dst, which must already
// exist. Every component column present in both is moved across via
// componentBuffer.moveTo (copy into dst, then swap-remove from src);
// columns present only in src are swap-removed and dropped; columns
// present only in dst are zero-valued (appendEntity's default). The entity
// table is updated for both the moved entity and, if the entities-column
// swap-remove reports a displaced row, the entity that took its place in
// src.
func transferRow(src *Archetype, idx int, dst *Archetype) int {
	e := src.entities[idx]
	dstIdx := dst.appendEntity(e)
	last := src.entityCount - 1
	for _, id := range src.ids {
		srcBuf := src.buffers[src.getSlot(id)]
		if slot := dst.getSlot(id); slot >= 0 {
			srcBuf.moveTo(idx, last, dst.buffers[slot], dstIdx)
		} else {
			srcBuf.swapRemove(idx, last)
		}
	}
	moved, movedIdx, ok := src.swapRemoveEntitiesColumn(idx)
	entityTableGlobal.place(e.ID, dst, dstIdx)
	if ok {
		entityTableGlobal.records[moved.ID].index = movedIdx
	}
	return dstIdx
}
