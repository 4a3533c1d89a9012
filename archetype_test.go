package sparsecs

import "testing"

type archTestPos struct{ X, Y float32 }
type archTestVel struct{ VX, VY float32 }

func freshArchetypeTestWorld(t *testing.T) (*worldData, ComponentID, ComponentID) {
	t.Helper()
	ResetComponentRegistry()
	ResetEntityTable()
	ResetWorldRegistry()
	posID := RegisterComponent[archTestPos]()
	velID := RegisterComponent[archTestVel]()
	h := CreateWorld("test", 0)
	wd, _ := worldRegistryGlobal.resolve(h)
	return wd, posID, velID
}

func TestArchetypeAppendAndRemove(t *testing.T) {
	wd, posID, _ := freshArchetypeTestWorld(t)
	a := wd.getOrCreateArchetype(NewSignature(posID))
	e1 := Entity{ID: 1, Version: 1}
	e2 := Entity{ID: 2, Version: 1}
	idx1 := a.appendEntity(e1)
	idx2 := a.appendEntity(e2)
	if idx1 != 0 || idx2 != 1 {
		t.Fatalf("expected slots 0 and 1, got %d and %d", idx1, idx2)
	}
	if a.EntityCount() != 2 {
		t.Fatalf("expected entity count 2, got %d", a.EntityCount())
	}
	moved, movedIdx, ok := a.removeAt(0)
	if !ok || moved != e2 || movedIdx != 0 {
		t.Fatalf("expected e2 to move into slot 0, got moved=%+v movedIdx=%d ok=%v", moved, movedIdx, ok)
	}
	if a.EntityCount() != 1 {
		t.Fatalf("expected entity count 1 after removeAt, got %d", a.EntityCount())
	}
}

func TestArchetypeGetSlotAbsent(t *testing.T) {
	wd, posID, velID := freshArchetypeTestWorld(t)
	a := wd.getOrCreateArchetype(NewSignature(posID))
	if a.getSlot(velID) != -1 {
		t.Fatalf("expected absent component to report slot -1, got %d", a.getSlot(velID))
	}
	if a.bufferFor(velID) != nil {
		t.Fatal("expected bufferFor to return nil for an absent component")
	}
}

func TestArchetypeResizeBackingArrays(t *testing.T) {
	wd, posID, _ := freshArchetypeTestWorld(t)
	a := wd.getOrCreateArchetype(NewSignature(posID))
	for i := 0; i < 3; i++ {
		idx := a.appendEntity(Entity{ID: uint32(i + 1), Version: 1})
		buf := a.bufferFor(posID)
		*(*archTestPos)(buf.ptrAt(idx)) = archTestPos{X: float32(i), Y: float32(i)}
	}
	a.ensureCapacity(64)
	a.ResizeBackingArrays()
	if a.capacity != nextPow2(a.entityCount) {
		t.Fatalf("expected capacity %d, got %d", nextPow2(a.entityCount), a.capacity)
	}
	buf := a.bufferFor(posID)
	for i := 0; i < a.entityCount; i++ {
		p := *(*archTestPos)(buf.ptrAt(i))
		if p.X != float32(i) {
			t.Errorf("slot %d: expected X=%d after resize, got %v", i, i, p)
		}
	}
}

func TestTransferRowCopiesSharedColumns(t *testing.T) {
	wd, posID, velID := freshArchetypeTestWorld(t)
	src := wd.getOrCreateArchetype(NewSignature(posID, velID))
	dst := wd.getOrCreateArchetype(NewSignature(posID))

	index, version := entityTableGlobal.allocate()
	e := Entity{ID: index, Version: version}
	idx := src.appendEntity(e)
	*(*archTestPos)(src.bufferFor(posID).ptrAt(idx)) = archTestPos{X: 1, Y: 2}
	*(*archTestVel)(src.bufferFor(velID).ptrAt(idx)) = archTestVel{VX: 3, VY: 4}
	entityTableGlobal.place(e.ID, src, idx)

	newIdx := transferRow(src, idx, dst)
	p := *(*archTestPos)(dst.bufferFor(posID).ptrAt(newIdx))
	if p.X != 1 || p.Y != 2 {
		t.Fatalf("expected Pos preserved across transfer, got %+v", p)
	}
	if src.EntityCount() != 0 {
		t.Fatalf("expected source archetype emptied, got count %d", src.EntityCount())
	}
	rec, ok := entityTableGlobal.resolve(e)
	if !ok || rec.archetype != dst || rec.index != newIdx {
		t.Fatalf("expected entity table updated to point at dst/%d, got archetype=%p index=%d", newIdx, rec.archetype, rec.index)
	}
}
