package provider

import (
	"fmt"
	"slices"
)

// DuplicateTagError is returned when two records in one set share a tag.
type DuplicateTagError struct {
	Tag Tag
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("provider %q returned more than once", e.Tag)
}

// Set is an ordered collection of records keyed uniquely by tag. The zero
// value is an empty set.
type Set struct {
	records []Record
	index   map[Tag]int
}

// NewSet builds a set from records in order. Nil records are rejected.
func NewSet(records ...Record) (Set, error) {
	s := Set{
		records: make([]Record, 0, len(records)),
		index:   make(map[Tag]int, len(records)),
	}
	for i, r := range records {
		if r == nil {
			return Set{}, fmt.Errorf("provider at position %d is nil", i)
		}
		if _, dup := s.index[r.Tag()]; dup {
			return Set{}, &DuplicateTagError{Tag: r.Tag()}
		}
		s.index[r.Tag()] = len(s.records)
		s.records = append(s.records, r.clone())
	}
	return s, nil
}

// Get returns a copy of the record with the given tag.
func (s Set) Get(tag Tag) (Record, bool) {
	i, ok := s.index[tag]
	if !ok {
		return nil, false
	}
	return s.records[i].clone(), true
}

// Has reports whether a record with tag is present.
func (s Set) Has(tag Tag) bool {
	_, ok := s.index[tag]
	return ok
}

// HasAll reports whether every tag in required is present. An empty
// requirement is always satisfied.
func (s Set) HasAll(required []Tag) bool {
	for _, t := range required {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Tags returns the tags in insertion order.
func (s Set) Tags() []Tag {
	tags := make([]Tag, len(s.records))
	for i, r := range s.records {
		tags[i] = r.Tag()
	}
	return tags
}

// Records returns copies of all records in insertion order.
func (s Set) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// Len returns the number of records.
func (s Set) Len() int {
	return len(s.records)
}

// Get returns the record of concrete type T held by s.
func Get[T Record](s Set) (T, bool) {
	var zero T
	r, ok := s.Get(zero.Tag())
	if !ok {
		return zero, false
	}
	typed, ok := r.(T)
	return typed, ok
}

// SortedTags returns tags sorted lexically, for stable error messages.
func SortedTags(tags []Tag) []Tag {
	out := slices.Clone(tags)
	slices.Sort(out)
	return out
}
