package scope

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"plantkeeper/internal/logging"
	"plantkeeper/internal/store"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// GuestTokenKey is where the guest token lives in secure storage.
const GuestTokenKey = "guest_token"

// randomUUID is swapped in tests to exercise the fallback token format.
var randomUUID = uuid.NewRandom

// Listener observes namespace transitions.
type Listener func(old, new Namespace)

// Resolver owns the active identity for the process. It never fails: storage
// errors only cost durability of the guest token.
type Resolver struct {
	secure store.KV
	group  singleflight.Group

	mu         sync.RWMutex
	session    *Identity
	guestToken string
	listeners  map[int]Listener
	nextID     int
}

// NewResolver creates a resolver persisting the guest token in secure.
func NewResolver(secure store.KV) *Resolver {
	return &Resolver{
		secure:    secure,
		listeners: make(map[int]Listener),
	}
}

// Resolve returns the session identity when signed in, otherwise the guest
// identity, loading or generating (and persisting) the guest token on first use.
// Concurrent callers converge on a single token.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	r.mu.RLock()
	if r.session != nil {
		id := *r.session
		r.mu.RUnlock()
		return id
	}
	if r.guestToken != "" {
		id := Identity{GuestToken: r.guestToken}
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	v, _, _ := r.group.Do("guest", func() (interface{}, error) {
		return r.loadOrCreateGuest(ctx), nil
	})
	token := v.(string)

	r.mu.Lock()
	old := r.namespaceLocked()
	if r.guestToken == "" {
		r.guestToken = token
	}
	id := Identity{GuestToken: r.guestToken}
	if r.session != nil {
		id = *r.session
	}
	updated := r.namespaceLocked()
	r.mu.Unlock()

	r.notify(old, updated)
	return id
}

func (r *Resolver) loadOrCreateGuest(ctx context.Context) string {
	if r.secure != nil {
		v, ok, err := r.secure.Get(ctx, GuestTokenKey)
		if err != nil {
			// A token may still be stored; never overwrite it on a failed read.
			logging.ScopeWarn("reading guest token failed, using a temporary token for this session: %v", err)
			return newGuestToken()
		}
		if ok && strings.TrimSpace(v) != "" {
			logging.Get(logging.CategoryScope).Debug("restored persisted guest token")
			return strings.TrimSpace(v)
		}
	}

	token := newGuestToken()
	if r.secure != nil {
		if err := r.secure.Set(ctx, GuestTokenKey, token); err != nil {
			logging.ScopeWarn("persisting guest token failed, using it for this session only: %v", err)
		}
	}
	logging.Scope("generated new guest token")
	return token
}

func newGuestToken() string {
	if u, err := randomUUID(); err == nil {
		return u.String()
	}
	return fmt.Sprintf("guest_%d_%s", time.Now().UnixMilli(), strconv.FormatUint(rand.Uint64(), 36))
}

// Namespace returns the current namespace without generating anything.
func (r *Resolver) Namespace() Namespace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namespaceLocked()
}

func (r *Resolver) namespaceLocked() Namespace {
	if r.session != nil {
		return r.session.Namespace()
	}
	return Identity{GuestToken: r.guestToken}.Namespace()
}

// SetSession signs in. A nil or tokenless session signs out.
func (r *Resolver) SetSession(s *Session) {
	if s == nil || strings.TrimSpace(s.AccessToken) == "" {
		r.ClearSession()
		return
	}
	id := s.identity()

	r.mu.Lock()
	old := r.namespaceLocked()
	r.session = &id
	updated := r.namespaceLocked()
	r.mu.Unlock()

	r.notify(old, updated)
}

// ClearSession signs out, falling back to the guest identity.
func (r *Resolver) ClearSession() {
	r.mu.Lock()
	old := r.namespaceLocked()
	r.session = nil
	updated := r.namespaceLocked()
	r.mu.Unlock()

	r.notify(old, updated)
}

// Subscribe registers fn for namespace transitions and returns an unsubscribe func.
func (r *Resolver) Subscribe(fn Listener) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

func (r *Resolver) notify(old, updated Namespace) {
	if old == updated {
		return
	}
	logging.Scope("namespace changed %s -> %s", old, updated)

	r.mu.RLock()
	fns := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(old, updated)
	}
}
