package hmap

import "github.com/cs-au-dk/ide-solver/utils"

// A simple implementation of a mutable hash map.
// Useful when we cannot use Go's maps directly (the key type is not
// `comparable`, or is only comparable via a client-supplied Hasher), and we
// want to avoid the overhead of using immutable maps on a hot path.

// Uses linked lists to resolve hash collisions.

type node[K, V any] struct {
	key   K
	value V
	next  *node[K, V]
}

type Map[K, V any] struct {
	hasher utils.Hasher[K]
	mp     map[uint32]*node[K, V]
	size   int
}

// Order of V and K are swapped since K can be inferred by the argument.
func NewMap[V, K any](hasher utils.Hasher[K]) *Map[K, V] {
	return &Map[K, V]{
		hasher: hasher,
		mp:     make(map[uint32]*node[K, V]),
	}
}

func (m *Map[K, V]) Set(key K, value V) {
	h := m.hasher.Hash(key)
	if snode, found := m.mp[h]; !found {
		m.mp[h] = &node[K, V]{key, value, nil}
		m.size++
	} else {
		for {
			if m.hasher.Equal(key, snode.key) {
				snode.value = value
				return
			}

			if next := snode.next; next == nil {
				// Hash collision :(
				snode.next = &node[K, V]{key, value, nil}
				m.size++
				return
			} else {
				snode = next
			}
		}
	}
}

func (m *Map[K, V]) GetOk(key K) (res V, ok bool) {
	for node := m.mp[m.hasher.Hash(key)]; node != nil; node = node.next {
		if m.hasher.Equal(key, node.key) {
			return node.value, true
		}
	}

	return
}

func (m *Map[K, V]) Get(key K) V {
	v, _ := m.GetOk(key)
	return v
}

// Delete removes the mapping for key, if any.
func (m *Map[K, V]) Delete(key K) {
	h := m.hasher.Hash(key)
	var prev *node[K, V]
	for n := m.mp[h]; n != nil; n = n.next {
		if m.hasher.Equal(key, n.key) {
			if prev == nil {
				if n.next == nil {
					delete(m.mp, h)
				} else {
					m.mp[h] = n.next
				}
			} else {
				prev.next = n.next
			}
			m.size--
			return
		}
		prev = n
	}
}

func (m *Map[K, V]) Len() int {
	return m.size
}

// ForEach calls f once for every key-value pair currently in the map.
// f must not mutate the map.
func (m *Map[K, V]) ForEach(f func(K, V)) {
	for _, n := range m.mp {
		for ; n != nil; n = n.next {
			f(n.key, n.value)
		}
	}
}
