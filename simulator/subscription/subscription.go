// Package subscription provides listener registries whose members are removed
// through explicit handles
package subscription

import "sync"

// Registry holds listeners in subscription order
type Registry[T any] struct {
	m         sync.Mutex
	nextID    uint64
	listeners []listener[T]
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// Handle removes a listener from the registry it was returned by
type Handle struct {
	once   sync.Once
	remove func()
}

// Subscribe registers fn and returns the handle used to drop it
func (r *Registry[T]) Subscribe(fn func(T)) *Handle {
	r.m.Lock()
	defer r.m.Unlock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, listener[T]{id: id, fn: fn})
	return &Handle{remove: func() { r.remove(id) }}
}

// Unsubscribe drops the listener. Calling it more than once is a no-op
func (h *Handle) Unsubscribe() {
	if h == nil || h.remove == nil {
		return
	}
	h.once.Do(h.remove)
}

func (r *Registry[T]) remove(id uint64) {
	r.m.Lock()
	defer r.m.Unlock()
	for i := range r.listeners {
		if r.listeners[i].id == id {
			r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
			return
		}
	}
}

// Len returns the amount of live listeners
func (r *Registry[T]) Len() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.listeners)
}

// Publish delivers v to every live listener in subscription order. Listeners
// dropped while publishing are skipped
func (r *Registry[T]) Publish(v T) {
	r.m.Lock()
	snapshot := make([]listener[T], len(r.listeners))
	copy(snapshot, r.listeners)
	r.m.Unlock()
	for i := range snapshot {
		if !r.live(snapshot[i].id) {
			continue
		}
		snapshot[i].fn(v)
	}
}

func (r *Registry[T]) live(id uint64) bool {
	r.m.Lock()
	defer r.m.Unlock()
	for i := range r.listeners {
		if r.listeners[i].id == id {
			return true
		}
	}
	return false
}
