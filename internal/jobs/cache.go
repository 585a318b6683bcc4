package jobs

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultResponseTTL = time.Hour

	maxIDAttempts = 16
)

var ErrNotFound = errors.New("job not found")

type Clock interface {
	Now() time.Time
}

type IDGenerator func() string

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Cache keeps job futures by id until their retention window elapses. Records
// are ordered by creation, newest first.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	ttl        time.Duration
	maxEntries int
	clock      Clock
	newID      IDGenerator
}

type record struct {
	id        string
	createdAt time.Time
	expiresAt time.Time
	future    *Future
}

type CacheOption func(*Cache)

func WithClock(clock Clock) CacheOption {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithIDGenerator(newID IDGenerator) CacheOption {
	return func(c *Cache) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// WithMaxEntries bounds the number of records. Zero means unbounded.
func WithMaxEntries(maxEntries int) CacheOption {
	return func(c *Cache) {
		if maxEntries > 0 {
			c.maxEntries = maxEntries
		}
	}
}

func NewCache(ttl time.Duration, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultResponseTTL
	}

	c := &Cache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		clock:   systemClock{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Put registers future under a fresh id and returns the id.
func (c *Cache) Put(future *Future) (string, error) {
	if future == nil {
		return "", errors.New("future is nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var id string
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			return "", fmt.Errorf("generate unique job id: %d collisions", maxIDAttempts)
		}

		id = c.newID()
		if id == "" {
			continue
		}
		if _, exists := c.entries[id]; !exists {
			break
		}
	}

	now := c.clock.Now()
	elem := c.order.PushFront(&record{
		id:        id,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
		future:    future,
	})
	c.entries[id] = elem

	c.evictExpiredLocked(now)
	c.enforceSizeLimitLocked()

	return id, nil
}

// Get returns the future stored under id whether or not it has resolved.
// Expired records are removed and reported as absent.
func (c *Cache) Get(id string) (*Future, bool) {
	if id == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[id]
	if !ok {
		return nil, false
	}

	rec, ok := elem.Value.(*record)
	if !ok {
		return nil, false
	}

	if c.expired(rec, c.clock.Now()) {
		c.removeElement(elem)

		return nil, false
	}

	return rec.future, true
}

// Sweep removes every expired record and reports how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictExpiredLocked(c.clock.Now())
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *Cache) expired(rec *record, now time.Time) bool {
	return !now.Before(rec.expiresAt)
}

func (c *Cache) evictExpiredLocked(now time.Time) int {
	removed := 0

	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()

		rec, ok := elem.Value.(*record)
		if ok && c.expired(rec, now) {
			c.removeElement(elem)
			removed++
		}

		elem = prev
	}

	return removed
}

func (c *Cache) enforceSizeLimitLocked() {
	if c.maxEntries <= 0 {
		return
	}

	for len(c.entries) > c.maxEntries {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.removeElement(elem)
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	rec, ok := elem.Value.(*record)
	if !ok {
		c.order.Remove(elem)
		return
	}

	delete(c.entries, rec.id)
	c.order.Remove(elem)
}
