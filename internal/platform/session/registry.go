// Package session keeps the view state of mounted pages between requests.
// Every page gets a scope context that is cancelled when the page is
// unmounted, so requests still in flight for it are abandoned.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type slot[P any] struct {
	page     P
	cancel   context.CancelFunc
	lastSeen time.Time
}

type Registry[P any] struct {
	name  string
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	pages map[string]*slot[P]
}

// New creates a registry whose pages expire after ttl without access.
func New[P any](name string, ttl time.Duration) *Registry[P] {
	return &Registry[P]{
		name:  name,
		ttl:   ttl,
		now:   time.Now,
		pages: make(map[string]*slot[P]),
	}
}

func (r *Registry[P]) Name() string { return r.name }

// Mount builds a page bound to a fresh scope and returns its token.
func (r *Registry[P]) Mount(build func(scope context.Context) P) (string, P) {
	scope, cancel := context.WithCancel(context.Background())
	page := build(scope)
	token := uuid.NewString()

	r.mu.Lock()
	r.pages[token] = &slot[P]{page: page, cancel: cancel, lastSeen: r.now()}
	r.mu.Unlock()
	return token, page
}

// Get returns the page for token and marks it as used. Expired pages are
// unmounted on the way.
func (r *Registry[P]) Get(token string) (P, bool) {
	var zero P
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pages[token]
	if !ok {
		return zero, false
	}
	now := r.now()
	if now.Sub(s.lastSeen) > r.ttl {
		s.cancel()
		delete(r.pages, token)
		return zero, false
	}
	s.lastSeen = now
	return s.page, true
}

// Unmount ends the page's scope and forgets it.
func (r *Registry[P]) Unmount(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.pages[token]
	if !ok {
		return false
	}
	s.cancel()
	delete(r.pages, token)
	return true
}

// Sweep unmounts every expired page and returns how many went.
func (r *Registry[P]) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for token, s := range r.pages {
		if now.Sub(s.lastSeen) > r.ttl {
			s.cancel()
			delete(r.pages, token)
			n++
		}
	}
	return n
}

func (r *Registry[P]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Close unmounts everything
func (r *Registry[P]) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, s := range r.pages {
		s.cancel()
		delete(r.pages, token)
	}
}
