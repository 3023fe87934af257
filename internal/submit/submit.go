// Package submit guards write commands against duplicate submission. A form
// instance sends the same submission key with each attempt; while one write
// with that key is in flight, further attempts join it and share its result
// instead of issuing a second write.
package submit

import "golang.org/x/sync/singleflight"

// Guard deduplicates concurrent submissions by key.
type Guard struct {
	group singleflight.Group
}

// NewGuard creates an empty Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Do executes fn for the given key, unless a call with the same key is
// already in flight, in which case it waits for that call and returns its
// result. shared reports whether the result was taken from another caller's
// execution. An empty key means the caller opted out of deduplication and fn
// runs unconditionally.
func (g *Guard) Do(key string, fn func() (any, error)) (result any, shared bool, err error) {
	if key == "" {
		result, err = fn()
		return result, false, err
	}

	result, err, shared = g.group.Do(key, fn)
	return result, shared, err
}
