package realtime

import (
	"sync"

	"gastos/internal/models"
)

// SessionState is the process-wide auth state for one user. It has exactly
// two defined shapes: authenticated with a user, or unauthenticated.
type SessionState struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
}

// SessionBroadcaster tracks auth-state transitions per user and pushes them
// to subscribers. Deliveries for one user are serialized in transition
// order; users are independent of each other. Consumers react to
// transitions; on unauthenticated they are expected to return to the entry
// point.
type SessionBroadcaster struct {
	mu     sync.RWMutex
	states map[string]SessionState
	subs   map[string]map[uint64]func(SessionState)
	nextID uint64

	lockMu    sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewSessionBroadcaster creates an empty broadcaster.
func NewSessionBroadcaster() *SessionBroadcaster {
	return &SessionBroadcaster{
		states:    make(map[string]SessionState),
		subs:      make(map[string]map[uint64]func(SessionState)),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// Subscribe registers fn for the user's auth-state transitions and
// synchronously delivers the current state. The disposer is idempotent.
func (b *SessionBroadcaster) Subscribe(userID string, fn func(SessionState)) Disposer {
	lock := b.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[uint64]func(SessionState))
	}
	b.subs[userID][id] = fn
	current := b.states[userID]
	b.mu.Unlock()

	fn(current)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if listeners := b.subs[userID]; listeners != nil {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(b.subs, userID)
			}
		}
	}
}

// SignIn transitions the user to authenticated.
func (b *SessionBroadcaster) SignIn(user *models.User) {
	b.broadcast(user.ID, SessionState{Authenticated: true, User: user})
}

// SignOut transitions the user to unauthenticated. Password changes and
// explicit logouts both end here.
func (b *SessionBroadcaster) SignOut(userID string) {
	b.broadcast(userID, SessionState{})
}

func (b *SessionBroadcaster) broadcast(userID string, state SessionState) {
	lock := b.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	b.mu.Lock()
	b.states[userID] = state
	listeners := make([]func(SessionState), 0, len(b.subs[userID]))
	for _, fn := range b.subs[userID] {
		listeners = append(listeners, fn)
	}
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func (b *SessionBroadcaster) userLock(userID string) *sync.Mutex {
	b.lockMu.Lock()
	defer b.lockMu.Unlock()

	lock, ok := b.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.userLocks[userID] = lock
	}
	return lock
}
