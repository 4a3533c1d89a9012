package sparsecs

import "testing"

func TestSignatureCanonicity(t *testing.T) {
	a := NewSignature(1, 2, 3)
	b := NewSignature(3, 1, 2)
	if !a.Equals(b) {
		t.Fatalf("expected signature({1,2,3}) == signature({3,1,2})")
	}
	if a.Hash() != b.Hash() {
		t.Fatalf("expected matching hashes, got %d and %d", a.Hash(), b.Hash())
	}
}

func TestSignatureAddRemoveIdempotent(t *testing.T) {
	var s Signature
	s.Add(5)
	s.Add(5)
	if s.Count() != 1 {
		t.Fatalf("expected count 1 after duplicate add, got %d", s.Count())
	}
	s.Remove(5)
	s.Remove(5)
	if s.Count() != 0 {
		t.Fatalf("expected count 0 after duplicate remove, got %d", s.Count())
	}
}

func TestSignatureIDsAscending(t *testing.T) {
	s := NewSignature(200, 3, 64, 1)
	ids := s.IDs()
	want := []ComponentID{1, 3, 64, 200}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, id, want[i])
		}
	}
}

func TestSignatureContains(t *testing.T) {
	s := NewSignature(7)
	if !s.Contains(7) {
		t.Fatal("expected signature to contain 7")
	}
	if s.Contains(8) {
		t.Fatal("expected signature not to contain 8")
	}
}

func TestSignatureWithIDWithoutID(t *testing.T) {
	s := NewSignature(1, 2)
	added := s.withID(3)
	if !added.Contains(1) || !added.Contains(2) || !added.Contains(3) {
		t.Fatalf("withID did not add id: %+v", added)
	}
	if s.Contains(3) {
		t.Fatal("withID mutated receiver")
	}
	removed := added.withoutID(2)
	if removed.Contains(2) {
		t.Fatal("withoutID did not remove id")
	}
	if !added.Contains(2) {
		t.Fatal("withoutID mutated receiver")
	}
}

func TestSignatureCrossComponentCount(t *testing.T) {
	ResetComponentRegistry()
	type a struct{}
	type b struct{}
	type c struct{}
	idA := RegisterComponent[a]()
	idB := RegisterComponent[b]()
	idC := RegisterComponent[c]()
	s := NewSignature(idA, idB, idC)
	if s.Count() != 3 {
		t.Fatalf("expected count 3, got %d", s.Count())
	}
}
