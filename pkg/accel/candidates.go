package accel

import "iter"

// candidate is one link of a CandidateList
type candidate struct {
	id   int
	next *candidate
}

// CandidateList is a prepend-only list of sphere handles sharing one cell.
// Handles index the scene's sphere arena; the same handle may appear in
// several cells. The zero value is an empty list.
type CandidateList struct {
	head *candidate
	size int
}

// Prepend adds a handle to the front of the list in O(1)
func (l *CandidateList) Prepend(id int) {
	l.head = &candidate{id: id, next: l.head}
	l.size++
}

// Len returns the number of handles in the list
func (l CandidateList) Len() int {
	return l.size
}

// Empty reports whether the list holds no handles
func (l CandidateList) Empty() bool {
	return l.head == nil
}

// All iterates handles from the most recently prepended to the oldest
func (l CandidateList) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		for c := l.head; c != nil; c = c.next {
			if !yield(c.id) {
				return
			}
		}
	}
}

// Contains reports whether the handle is in the list
func (l CandidateList) Contains(id int) bool {
	for got := range l.All() {
		if got == id {
			return true
		}
	}
	return false
}

// IDs returns the handles as a slice, newest first
func (l CandidateList) IDs() []int {
	ids := make([]int, 0, l.size)
	for id := range l.All() {
		ids = append(ids, id)
	}
	return ids
}
