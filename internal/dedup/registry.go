// Package dedup remembers which pairs were already signaled.
package dedup

import "time"

// Registry is a set of pair ids. With a zero TTL it only grows; with a positive TTL
// entries older than the TTL are dropped when touched or swept.
type Registry struct {
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func New(ttl time.Duration, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		ttl:  ttl,
		now:  now,
		seen: make(map[string]time.Time),
	}
}

func (r *Registry) Has(id string) bool {
	addedAt, ok := r.seen[id]
	if !ok {
		return false
	}
	if r.expired(addedAt) {
		delete(r.seen, id)
		return false
	}
	return true
}

func (r *Registry) Add(id string) {
	r.sweep()
	r.seen[id] = r.now()
}

func (r *Registry) Len() int {
	return len(r.seen)
}

func (r *Registry) expired(addedAt time.Time) bool {
	return r.ttl > 0 && r.now().Sub(addedAt) >= r.ttl
}

func (r *Registry) sweep() {
	if r.ttl <= 0 {
		return
	}
	for id, addedAt := range r.seen {
		if r.expired(addedAt) {
			delete(r.seen, id)
		}
	}
}
