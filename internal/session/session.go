// Package session hands out the correlation token sent with every vote.
//
// A token is created once per session-scoped store and reused until the
// store is cleared. It identifies a browsing (or terminal) session for soft
// vote counting only; it is not a credential.
package session

import (
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// Key is the single store key holding the identifier.
	Key = "sessionId"
	// Prefix starts every generated identifier.
	Prefix = "ss"
)

// Store is session-scoped key/value storage.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Generate builds `ss-<unix-millis>-<base36>` where the fragment is 128
// bits from a random (v4) UUID.
func Generate(now time.Time) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("session: random fragment: %w", err)
	}
	fragment := new(big.Int).SetBytes(id[:]).Text(36)
	return Prefix + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + fragment, nil
}

// Provider resolves the identifier for the current session.
type Provider struct {
	store    Store
	clock    func() time.Time
	generate func(time.Time) (string, error)

	mu sync.Mutex
}

// Option customizes a Provider.
type Option func(*Provider)

// WithClock allows tests to control the timestamp component.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithGenerator replaces the identifier generator.
func WithGenerator(gen func(time.Time) (string, error)) Option {
	return func(p *Provider) {
		if gen != nil {
			p.generate = gen
		}
	}
}

// NewProvider returns a provider backed by store.
func NewProvider(store Store, opts ...Option) *Provider {
	if store == nil {
		store = NewMemoryStore()
	}
	p := &Provider{
		store:    store,
		clock:    time.Now,
		generate: Generate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// SessionID returns the stored identifier, creating and persisting one on
// first use.
func (p *Provider) SessionID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok, err := p.store.Get(Key); err != nil {
		return "", fmt.Errorf("session: read: %w", err)
	} else if ok && id != "" {
		return id, nil
	}
	id, err := p.generate(p.clock())
	if err != nil {
		return "", err
	}
	if err := p.store.Set(Key, id); err != nil {
		return "", fmt.Errorf("session: persist: %w", err)
	}
	return id, nil
}

// Reset clears the store; the next SessionID call mints a new identifier.
func (p *Provider) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.store.Delete(Key); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Static is a fixed identifier, used when the session lives elsewhere (a
// browser cookie).
type Static string

// SessionID returns s.
func (s Static) SessionID() (string, error) {
	if s == "" {
		return "", fmt.Errorf("session: empty identifier")
	}
	return string(s), nil
}
