package store

import (
	"cmp"
	"slices"
)

// Store is a typed side table keyed by entity id. Values are held by
// pointer so callers may update them in place.
type Store[K cmp.Ordered, T any] struct {
	data map[K]*T
}

func New[K cmp.Ordered, T any]() *Store[K, T] {
	return &Store[K, T]{
		data: make(map[K]*T, 256),
	}
}

func (s *Store[K, T]) Set(id K, v *T) {
	s.data[id] = v
}

func (s *Store[K, T]) Get(id K) (*T, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *Store[K, T]) Remove(id K) {
	delete(s.data, id)
}

func (s *Store[K, T]) Has(id K) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[K, T]) Len() int {
	return len(s.data)
}

func (s *Store[K, T]) Clear() {
	clear(s.data)
}

// Keys returns every id in ascending order.
func (s *Store[K, T]) Keys() []K {
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Each visits entries in ascending id order so callers get a stable
// iteration sequence.
func (s *Store[K, T]) Each(fn func(K, *T)) {
	for _, k := range s.Keys() {
		fn(k, s.data[k])
	}
}
