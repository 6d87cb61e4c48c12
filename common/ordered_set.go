package common

// OrderedSet is a deduplicating FIFO queue. Pushing a key that is already
// pending is a no-op, so a key appears at most once no matter how many times it
// is enqueued between drains. Not safe for concurrent use; owners guard it with
// their own mutex.
type OrderedSet[K comparable, V any] struct {
	order []K
	items map[K]V
}

// NewOrderedSet creates an empty OrderedSet.
//
// Returns:
//   - *OrderedSet[K, V]: the new set
func NewOrderedSet[K comparable, V any]() *OrderedSet[K, V] {
	return &OrderedSet[K, V]{items: make(map[K]V)}
}

// Push enqueues v under key k if k is not already pending.
//
// Parameters:
//   - k: the identity key
//   - v: the value to enqueue
//
// Returns:
//   - bool: true if the key was newly added
func (s *OrderedSet[K, V]) Push(k K, v V) bool {
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = v
	s.order = append(s.order, k)
	return true
}

// Contains reports whether k is pending.
func (s *OrderedSet[K, V]) Contains(k K) bool {
	_, ok := s.items[k]
	return ok
}

// Remove drops k from the set if present.
//
// Returns:
//   - bool: true if the key was pending
func (s *OrderedSet[K, V]) Remove(k K) bool {
	if _, ok := s.items[k]; !ok {
		return false
	}
	delete(s.items, k)
	for i, key := range s.order {
		if key == k {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of pending keys.
func (s *OrderedSet[K, V]) Len() int {
	return len(s.order)
}

// Drain removes and returns every pending value in insertion order.
//
// Returns:
//   - []V: the pending values, oldest first
func (s *OrderedSet[K, V]) Drain() []V {
	out := make([]V, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	s.order = s.order[:0]
	clear(s.items)
	return out
}

// Values returns the pending values in insertion order without removing them.
func (s *OrderedSet[K, V]) Values() []V {
	out := make([]V, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}
