package sparsecs_test

import (
	"testing"

	"github.com/sparsecs/sparsecs"
)

func TestEntityZeroValueIsInvalid(t *testing.T) {
	resetAll()
	var e sparsecs.Entity
	if e.IsValid() {
		t.Fatal("expected the zero Entity to be invalid")
	}
}

func TestEntityHasAndGetComponent(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("entity-has-get", 0)
	e, _ := w.CreateEntity()
	if sparsecs.HasComponent[Pos](e) {
		t.Fatal("expected fresh entity not to carry Pos")
	}
	if _, ok := sparsecs.GetComponent[Pos](e); ok {
		t.Fatal("expected GetComponent to fail on an absent component")
	}
	sparsecs.SetComponent(e, Pos{X: 5, Y: 6})
	if !sparsecs.HasComponent[Pos](e) {
		t.Fatal("expected entity to carry Pos after SetComponent")
	}
	got, ok := sparsecs.GetComponent[Pos](e)
	if !ok || got != (Pos{X: 5, Y: 6}) {
		t.Fatalf("expected Pos{5,6}, got %+v ok=%v", got, ok)
	}
}

func TestEntityRemoveComponentAbsentIsNoOp(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("remove-absent", 0)
	e, _ := w.CreateEntity()
	if sparsecs.RemoveComponent[Pos](e) {
		t.Fatal("expected RemoveComponent on an absent component to report false")
	}
	if !e.IsValid() {
		t.Fatal("expected the entity to remain valid")
	}
}

func TestEntitySetCallbackObservesOldAndNew(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("set-callback", 0)
	var gotOld, gotNew Pos
	sparsecs.OnSet[Pos](w, func(e sparsecs.Entity, old Pos, newVal *Pos) {
		gotOld = old
		gotNew = *newVal
	})
	e, _ := w.CreateEntity()
	sparsecs.SetComponent(e, Pos{X: 1, Y: 1})
	if gotOld != (Pos{}) {
		t.Fatalf("expected default old value on add, got %+v", gotOld)
	}
	if gotNew != (Pos{X: 1, Y: 1}) {
		t.Fatalf("expected new value Pos{1,1}, got %+v", gotNew)
	}

	sparsecs.SetComponent(e, Pos{X: 2, Y: 2})
	if gotOld != (Pos{X: 1, Y: 1}) {
		t.Fatalf("expected old value Pos{1,1} on update, got %+v", gotOld)
	}
	if gotNew != (Pos{X: 2, Y: 2}) {
		t.Fatalf("expected new value Pos{2,2}, got %+v", gotNew)
	}
}

func TestEntityCallbackAfterMutationInvariant(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("callback-after-mutation", 0)
	var sawNewInsideCallback bool
	sparsecs.OnSet[Pos](w, func(e sparsecs.Entity, old Pos, newVal *Pos) {
		got, ok := sparsecs.GetComponent[Pos](e)
		sawNewInsideCallback = ok && got == *newVal
	})
	e, _ := w.CreateEntity()
	sparsecs.SetComponent(e, Pos{X: 9, Y: 9})
	if !sawNewInsideCallback {
		t.Fatal("expected get(type) inside a set callback to observe the new value")
	}

	var hadComponentInsideCallback bool
	sparsecs.OnRemove[Pos](w, func(e sparsecs.Entity, removed Pos) {
		hadComponentInsideCallback = sparsecs.HasComponent[Pos](e)
	})
	sparsecs.RemoveComponent[Pos](e)
	if hadComponentInsideCallback {
		t.Fatal("expected has(type) inside a remove callback to report false")
	}
}

func TestEntityTransferRejectsSameWorld(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("transfer-same", 0)
	e, _ := w.CreateEntity()
	if e.Transfer(w) {
		t.Fatal("expected transfer to the same world to report false")
	}
}

func TestEntityDestroyIsIdempotent(t *testing.T) {
	resetAll()
	w := sparsecs.CreateWorld("destroy-twice", 0)
	e, _ := w.CreateEntity()
	e.Destroy()
	e.Destroy() // no-op: e is already invalid, must not panic or double-free
	if e.IsValid() {
		t.Fatal("expected entity to remain invalid")
	}
}
