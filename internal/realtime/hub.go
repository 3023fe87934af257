// Package realtime bridges store writes into push-based snapshot delivery.
// Subscribers register on a path and receive the full collection at that
// path on every change, never a delta; consumers recompute whatever they
// derive from each snapshot, which keeps them correct when independent
// streams arrive out of order.
package realtime

import (
	"fmt"
	"sync"

	"gastos/internal/logger"
)

// Loader reads the current full snapshot at a path.
type Loader interface {
	Load(path Path) (any, error)
}

// Disposer cancels a subscription. Calling it more than once, or after the
// hub has no record of the subscription, is safe.
type Disposer func()

// Hub is a concurrency-safe subscription registry keyed by path. Deliveries
// on one path are serialized in publish order; paths are independent of each
// other.
type Hub struct {
	mu     sync.RWMutex
	loader Loader
	subs   map[string]map[uint64]func(any)
	nextID uint64

	lockMu    sync.Mutex
	pathLocks map[string]*sync.Mutex
}

// NewHub creates a Hub that reads snapshots through the given loader.
func NewHub(loader Loader) *Hub {
	return &Hub{
		loader:    loader,
		subs:      make(map[string]map[uint64]func(any)),
		pathLocks: make(map[string]*sync.Mutex),
	}
}

// Subscribe registers fn on rawPath and synchronously delivers the current
// snapshot before returning. Every subsequent Invalidate on the path
// delivers a fresh snapshot until the returned disposer is called.
func (h *Hub) Subscribe(rawPath string, fn func(any)) (Disposer, error) {
	path, err := ParsePath(rawPath)
	if err != nil {
		return nil, err
	}

	lock := h.pathLock(rawPath)
	lock.Lock()
	defer lock.Unlock()

	snapshot, err := h.loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot for %s: %w", rawPath, err)
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[rawPath] == nil {
		h.subs[rawPath] = make(map[uint64]func(any))
	}
	h.subs[rawPath][id] = fn
	h.mu.Unlock()

	h.invoke(rawPath, id, fn, snapshot)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		if listeners := h.subs[rawPath]; listeners != nil {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.subs, rawPath)
			}
		}
	}, nil
}

// Invalidate reloads the snapshot at rawPath and fans it out to every
// subscriber. Load or handler failures are logged; one failing listener
// never blocks the others.
func (h *Hub) Invalidate(rawPath string) {
	path, err := ParsePath(rawPath)
	if err != nil {
		logger.Get().Errorw("invalidate on unrecognized path", "path", rawPath, "error", err)
		return
	}

	lock := h.pathLock(rawPath)
	lock.Lock()
	defer lock.Unlock()

	h.mu.RLock()
	if len(h.subs[rawPath]) == 0 {
		h.mu.RUnlock()
		return
	}
	type listener struct {
		id uint64
		fn func(any)
	}
	listeners := make([]listener, 0, len(h.subs[rawPath]))
	for id, fn := range h.subs[rawPath] {
		listeners = append(listeners, listener{id, fn})
	}
	h.mu.RUnlock()

	snapshot, err := h.loader.Load(path)
	if err != nil {
		logger.Get().Errorw("snapshot load failed", "path", rawPath, "error", err)
		return
	}

	for _, l := range listeners {
		h.invoke(rawPath, l.id, l.fn, snapshot)
	}
}

// invoke calls one listener, recovering panics so a broken consumer cannot
// take down the delivery loop.
func (h *Hub) invoke(rawPath string, id uint64, fn func(any), snapshot any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Errorw("subscriber panic", "path", rawPath, "subscriber", id, "panic", r)
		}
	}()
	fn(snapshot)
}

func (h *Hub) pathLock(rawPath string) *sync.Mutex {
	h.lockMu.Lock()
	defer h.lockMu.Unlock()

	lock, ok := h.pathLocks[rawPath]
	if !ok {
		lock = &sync.Mutex{}
		h.pathLocks[rawPath] = lock
	}
	return lock
}
