package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryConfig configures a Memory store.
type MemoryConfig struct {
	// DefaultTTL applies when Set receives a zero ttl. Zero keeps entries forever.
	DefaultTTL time.Duration
	// CleanupInterval is the janitor period. Zero disables the janitor;
	// expired entries are then dropped lazily on access.
	CleanupInterval time.Duration
	// MaxEntries bounds the store; the least recently used entry is evicted
	// when it is full. Zero means unbounded.
	MaxEntries int
}

type item[V any] struct {
	expires time.Time
	value   V
	key     string
}

func (it *item[V]) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// Memory is an in-process Cache. Recently used entries sit at the front of the list.
type Memory[V any] struct {
	items  map[string]*list.Element
	lru    *list.List
	now    func() time.Time
	done   chan struct{}
	cfg    MemoryConfig
	mu     sync.Mutex
	closed bool
}

// NewMemory creates a Memory store and starts its janitor.
func NewMemory[V any](cfg MemoryConfig) *Memory[V] {
	m := &Memory[V]{
		items: make(map[string]*list.Element),
		lru:   list.New(),
		now:   time.Now,
		done:  make(chan struct{}),
		cfg:   cfg,
	}
	if cfg.CleanupInterval > 0 {
		go m.janitor(cfg.CleanupInterval)
	}
	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	el, ok := m.lookup(key)
	if !ok {
		return zero, ErrNotFound
	}
	m.lru.MoveToFront(el)
	return el.Value.(*item[V]).value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.DefaultTTL
	}
	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}

	if el, ok := m.items[key]; ok {
		it := el.Value.(*item[V])
		it.value, it.expires = value, expires
		m.lru.MoveToFront(el)
		return nil
	}

	if m.cfg.MaxEntries > 0 && len(m.items) >= m.cfg.MaxEntries {
		if back := m.lru.Back(); back != nil {
			m.remove(back)
		}
	}
	m.items[key] = m.lru.PushFront(&item[V]{key: key, value: value, expires: expires})
	return nil
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)
	return ok, nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.items)
	m.lru.Init()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. It is safe to call more than once.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// lookup returns the live element for key, dropping it if it has expired.
// Caller must hold the mutex.
func (m *Memory[V]) lookup(key string) (*list.Element, bool) {
	el, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if el.Value.(*item[V]).expired(m.now()) {
		m.remove(el)
		return nil, false
	}
	return el, true
}

// Caller must hold the mutex.
func (m *Memory[V]) remove(el *list.Element) {
	m.lru.Remove(el)
	delete(m.items, el.Value.(*item[V]).key)
}

func (m *Memory[V]) janitor(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-t.C:
			m.purge()
		}
	}
}

func (m *Memory[V]) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for el := m.lru.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*item[V]).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}

var _ Cache[any] = (*Memory[any])(nil)
