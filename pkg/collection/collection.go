// Package collection provides an array-like query facade over a lazily
// fetched record list. Every query refetches the records, so results never
// go stale between calls; records are wrapped by the owning manager before
// they get here.
package collection

import (
	"math/rand"
	"sort"
)

// Manager answers array-style queries over records produced by fetch. When
// no record matches, queries return the value produced by empty instead of
// a zero value, so callers can keep chaining without nil checks.
type Manager[T any] struct {
	fetch func() ([]T, error)
	empty func() T

	// Length is refreshed as a side effect of every query. Informational
	// only; it is not synchronized with the query result it accompanies.
	Length int
}

// New creates a Manager over fetch, with empty producing the fallback
// record for non-matching queries.
func New[T any](fetch func() ([]T, error), empty func() T) *Manager[T] {
	return &Manager[T]{
		fetch: fetch,
		empty: empty,
	}
}

// All returns the current records.
func (m *Manager[T]) All() ([]T, error) {
	records, err := m.fetch()
	if err != nil {
		return nil, err
	}
	m.Length = len(records)
	return records, nil
}

// Find returns the first record matching the predicate, or the empty
// record when none matches.
func (m *Manager[T]) Find(match func(T) bool) (T, error) {
	records, err := m.All()
	if err != nil {
		return m.empty(), err
	}
	for _, record := range records {
		if match(record) {
			return record, nil
		}
	}
	return m.empty(), nil
}

// Filter returns every record matching the predicate.
func (m *Manager[T]) Filter(match func(T) bool) ([]T, error) {
	records, err := m.All()
	if err != nil {
		return nil, err
	}
	matched := make([]T, 0, len(records))
	for _, record := range records {
		if match(record) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// At returns the record at the index, counting negative indexes from the
// end, or the empty record when the index is out of bounds.
func (m *Manager[T]) At(index int) (T, error) {
	records, err := m.All()
	if err != nil {
		return m.empty(), err
	}
	if index < 0 {
		index += len(records)
	}
	if index < 0 || index >= len(records) {
		return m.empty(), nil
	}
	return records[index], nil
}

// First returns the first record, or the empty record for an empty
// collection.
func (m *Manager[T]) First() (T, error) {
	return m.At(0)
}

// Last returns the last record, or the empty record for an empty
// collection.
func (m *Manager[T]) Last() (T, error) {
	return m.At(-1)
}

// Random returns a uniformly random record, or the empty record for an
// empty collection.
func (m *Manager[T]) Random() (T, error) {
	records, err := m.All()
	if err != nil {
		return m.empty(), err
	}
	if len(records) == 0 {
		return m.empty(), nil
	}
	return records[rand.Intn(len(records))], nil
}

// Sort returns the records ordered by less.
func (m *Manager[T]) Sort(less func(a, b T) bool) ([]T, error) {
	records, err := m.All()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
	return records, nil
}

// Count returns the number of records matching the predicate.
func (m *Manager[T]) Count(match func(T) bool) (int, error) {
	matched, err := m.Filter(match)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// Some reports whether any record matches the predicate.
func (m *Manager[T]) Some(match func(T) bool) (bool, error) {
	n, err := m.Count(match)
	return n > 0, err
}

// Map transforms every record in the collection.
func Map[T, U any](m *Manager[T], transform func(T) U) ([]U, error) {
	records, err := m.All()
	if err != nil {
		return nil, err
	}
	out := make([]U, len(records))
	for i, record := range records {
		out[i] = transform(record)
	}
	return out, nil
}

// Reduce folds the records into a single value.
func Reduce[T, U any](m *Manager[T], initial U, fold func(U, T) U) (U, error) {
	records, err := m.All()
	if err != nil {
		return initial, err
	}
	acc := initial
	for _, record := range records {
		acc = fold(acc, record)
	}
	return acc, nil
}
