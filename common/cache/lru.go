// Package cache provides a concurrency safe generic LRU cache
package cache

import (
	"container/list"
	"sync"
)

// LRU evicts the least recently used entry once more than Cap entries are held
type LRU[K comparable, V any] struct {
	m     sync.Mutex
	cap   int
	l     *list.List
	items map[K]*list.Element
}

type item[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU returns a cache holding at most capacity entries, a capacity below
// one holds a single entry
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[K, V]{
		cap:   capacity,
		l:     list.New(),
		items: make(map[K]*list.Element),
	}
}

// Add adds or replaces a value
func (l *LRU[K, V]) Add(key K, value V) {
	l.m.Lock()
	defer l.m.Unlock()
	if e, ok := l.items[key]; ok {
		l.l.MoveToFront(e)
		e.Value.(*item[K, V]).value = value
		return
	}
	l.items[key] = l.l.PushFront(&item[K, V]{key: key, value: value})
	if l.l.Len() > l.cap {
		l.removeElement(l.l.Back())
	}
}

// Get returns the value of key and marks it as recently used
func (l *LRU[K, V]) Get(key K) (V, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	if e, ok := l.items[key]; ok {
		l.l.MoveToFront(e)
		return e.Value.(*item[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Contains checks if key is held without updating its use
func (l *LRU[K, V]) Contains(key K) bool {
	l.m.Lock()
	defer l.m.Unlock()
	_, ok := l.items[key]
	return ok
}

// Remove removes key, returning whether it was held
func (l *LRU[K, V]) Remove(key K) bool {
	l.m.Lock()
	defer l.m.Unlock()
	if e, ok := l.items[key]; ok {
		l.removeElement(e)
		return true
	}
	return false
}

// Clear removes every entry
func (l *LRU[K, V]) Clear() {
	l.m.Lock()
	defer l.m.Unlock()
	clear(l.items)
	l.l.Init()
}

// Len returns the amount of entries held
func (l *LRU[K, V]) Len() int {
	l.m.Lock()
	defer l.m.Unlock()
	return l.l.Len()
}

// oldest returns the least recently used key
func (l *LRU[K, V]) oldest() (K, bool) {
	l.m.Lock()
	defer l.m.Unlock()
	if e := l.l.Back(); e != nil {
		return e.Value.(*item[K, V]).key, true
	}
	var zero K
	return zero, false
}

func (l *LRU[K, V]) removeElement(e *list.Element) {
	l.l.Remove(e)
	delete(l.items, e.Value.(*item[K, V]).key)
}
