// Package set provides an unordered collection of unique values with the
// usual set algebra. Binary operations never mutate their receiver or
// argument; they always return a new Set.
package set

// Set is an unordered collection of unique values.
// The zero value is an empty set ready to use.
type Set[T comparable] struct {
	elements map[T]struct{}
}

// New returns a set holding the given items.
func New[T comparable](items ...T) *Set[T] {
	s := &Set[T]{elements: make(map[T]struct{}, len(items))}
	s.Add(items...)
	return s
}

// Add inserts items, ignoring those already present.
func (s *Set[T]) Add(items ...T) {
	if s.elements == nil {
		s.elements = make(map[T]struct{}, len(items))
	}
	for _, item := range items {
		s.elements[item] = struct{}{}
	}
}

// Remove deletes items. Absent items are ignored.
func (s *Set[T]) Remove(items ...T) {
	for _, item := range items {
		delete(s.elements, item)
	}
}

// Contains reports whether v is in the set.
func (s *Set[T]) Contains(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.elements[v]
	return ok
}

// ContainsAll reports whether every one of vs is in the set.
func (s *Set[T]) ContainsAll(vs ...T) bool {
	for _, v := range vs {
		if !s.Contains(v) {
			return false
		}
	}
	return true
}

// Values returns the members in no particular order.
func (s *Set[T]) Values() []T {
	if s == nil {
		return nil
	}
	values := make([]T, 0, len(s.elements))
	for v := range s.elements {
		values = append(values, v)
	}
	return values
}

// Count returns the number of members.
func (s *Set[T]) Count() int {
	if s == nil {
		return 0
	}
	return len(s.elements)
}

// Empty reports whether the set has no members.
func (s *Set[T]) Empty() bool {
	return s.Count() == 0
}

// Clone returns an independent copy.
func (s *Set[T]) Clone() *Set[T] {
	clone := &Set[T]{elements: make(map[T]struct{}, s.Count())}
	if s != nil {
		for v := range s.elements {
			clone.elements[v] = struct{}{}
		}
	}
	return clone
}

// Union returns the members found in either set.
func (s *Set[T]) Union(other *Set[T]) *Set[T] {
	result := other.Clone()
	if s != nil {
		for v := range s.elements {
			result.elements[v] = struct{}{}
		}
	}
	return result
}

// Intersection returns the members found in both sets.
func (s *Set[T]) Intersection(other *Set[T]) *Set[T] {
	result := New[T]()
	if s == nil {
		return result
	}
	for v := range s.elements {
		if other.Contains(v) {
			result.elements[v] = struct{}{}
		}
	}
	return result
}

// Difference returns the members of s that are not in other.
func (s *Set[T]) Difference(other *Set[T]) *Set[T] {
	result := New[T]()
	if s == nil {
		return result
	}
	for v := range s.elements {
		if !other.Contains(v) {
			result.elements[v] = struct{}{}
		}
	}
	return result
}

// Subset reports whether every member of s is also in other.
func (s *Set[T]) Subset(other *Set[T]) bool {
	if s == nil {
		return true
	}
	for v := range s.elements {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Superset reports whether s contains every member of other.
func (s *Set[T]) Superset(other *Set[T]) bool {
	return other.Subset(s)
}

// Equals reports whether both sets hold exactly the same members.
func (s *Set[T]) Equals(other *Set[T]) bool {
	return s.Subset(other) && other.Subset(s)
}
