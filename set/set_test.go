package set

import (
	"sort"
	"testing"
)

func sorted(s *Set[int]) []int {
	values := s.Values()
	sort.Ints(values)
	return values
}

func TestAddRemoveContains(t *testing.T) {
	s := New(1, 2, 2, 3)
	if s.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", s.Count())
	}
	if !s.ContainsAll(1, 2, 3) {
		t.Errorf("ContainsAll(1, 2, 3) = false, want true")
	}

	s.Remove(2, 42)
	if s.Contains(2) {
		t.Errorf("Contains(2) after Remove = true")
	}
	if s.ContainsAll(1, 2) {
		t.Errorf("ContainsAll(1, 2) = true after removing 2")
	}

	s.Remove(1, 3)
	if !s.Empty() {
		t.Errorf("Empty() = false, got %v", sorted(s))
	}
}

func TestZeroValue(t *testing.T) {
	var s Set[string]
	if !s.Empty() || s.Contains("x") {
		t.Fatalf("zero value should be empty")
	}
	s.Add("x")
	if !s.Contains("x") {
		t.Errorf("Contains(x) = false after Add")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := New(1, 2)
	b := a.Clone()
	b.Add(3)
	a.Remove(1)

	if got := sorted(a); len(got) != 1 || got[0] != 2 {
		t.Errorf("original = %v, want [2]", got)
	}
	if got := sorted(b); len(got) != 3 {
		t.Errorf("clone = %v, want [1 2 3]", got)
	}
}

func TestAlgebra(t *testing.T) {
	tests := []struct {
		name string
		a, b *Set[int]
	}{
		{name: "disjoint", a: New(1, 2), b: New(3, 4)},
		{name: "overlapping", a: New(1, 2, 3), b: New(3, 4)},
		{name: "identical", a: New(5, 6), b: New(5, 6)},
		{name: "one_empty", a: New[int](), b: New(7)},
		{name: "both_empty", a: New[int](), b: New[int]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.a.Union(tt.b).Equals(tt.b.Union(tt.a)) {
				t.Errorf("union is not commutative")
			}
			if !tt.a.Intersection(tt.a).Equals(tt.a) {
				t.Errorf("a ∩ a != a")
			}
			if !tt.a.Difference(tt.a).Empty() {
				t.Errorf("a - a is not empty")
			}
			if !tt.a.Subset(tt.a.Union(tt.b)) {
				t.Errorf("a is not a subset of a ∪ b")
			}
			if !tt.a.Union(tt.b).Superset(tt.b) {
				t.Errorf("a ∪ b is not a superset of b")
			}
		})
	}
}

func TestBinaryOpsDoNotMutate(t *testing.T) {
	a := New(1, 2, 3)
	b := New(3, 4)

	union := a.Union(b)
	inter := a.Intersection(b)
	diff := a.Difference(b)

	if got := sorted(union); len(got) != 4 {
		t.Errorf("union = %v", got)
	}
	if got := sorted(inter); len(got) != 1 || got[0] != 3 {
		t.Errorf("intersection = %v, want [3]", got)
	}
	if got := sorted(diff); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("difference = %v, want [1 2]", got)
	}
	if a.Count() != 3 || b.Count() != 2 {
		t.Errorf("operands mutated: a=%v b=%v", sorted(a), sorted(b))
	}
}

func TestEquals(t *testing.T) {
	if !New(1, 2).Equals(New(2, 1)) {
		t.Errorf("{1,2} should equal {2,1}")
	}
	if New(1, 2).Equals(New(1)) {
		t.Errorf("{1,2} should not equal {1}")
	}
	if New(1).Equals(New(1, 2)) {
		t.Errorf("{1} should not equal {1,2}")
	}
}
