package cache

import (
	"container/list"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrKeyExists = errors.New("key already exists in cache")

// Cache is a weight budgeted LRU cache. Inserting past the budget evicts the
// least recently used entries.
type Cache[V any] interface {
	GetWeight() int
	GetBudget() int
	Insert(key string, value V, weight int) error
	Retrieve(key string) (V, bool)
	Clear()
}

type entry[V any] struct {
	key      string
	value    V
	weight   int
	expireAt time.Time
}

type cache[V any] struct {
	log *logrus.Entry

	mu     sync.Mutex
	order  *list.List
	lookup map[string]*list.Element
	weight int
	budget int
	ttl    time.Duration
	now    func() time.Time
}

// NewCache returns a cache holding up to budget total weight. Entries older
// than ttl are treated as absent. A zero ttl never expires entries.
func NewCache[V any](budget int, ttl time.Duration) Cache[V] {
	return &cache[V]{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		order:  list.New(),
		lookup: make(map[string]*list.Element),
		budget: budget,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *cache[V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache[V]) GetBudget() int {
	return c.budget
}

// Insert adds a new item to the cache. Live keys are never overwritten, and
// ErrKeyExists is returned instead.
func (c *cache[V]) Insert(key string, value V, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, found := c.lookup[key]; found {
		if !c.isExpired(element.Value.(*entry[V])) {
			return ErrKeyExists
		}
		c.remove(element)
	}

	e := &entry[V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	if c.ttl > 0 {
		e.expireAt = c.now().Add(c.ttl)
	}

	c.lookup[key] = c.order.PushFront(e)
	c.weight += weight

	for c.weight > c.budget && c.order.Len() > 0 {
		evicted := c.order.Back()
		c.remove(evicted)

		c.log.WithFields(logrus.Fields{
			"key":          evicted.Value.(*entry[V]).key,
			"spare_weight": c.budget - c.weight,
		}).Debug("cache eviction")
	}

	return nil
}

// Retrieve fetches an item by key and marks it as the most recently used.
func (c *cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	element, found := c.lookup[key]
	if !found {
		return zero, false
	}

	e := element.Value.(*entry[V])
	if c.isExpired(e) {
		c.remove(element)
		return zero, false
	}

	c.order.MoveToFront(element)
	return e.value, true
}

func (c *cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.lookup = make(map[string]*list.Element)
	c.weight = 0
}

func (c *cache[V]) isExpired(e *entry[V]) bool {
	return !e.expireAt.IsZero() && !c.now().Before(e.expireAt)
}

func (c *cache[V]) remove(element *list.Element) {
	e := c.order.Remove(element).(*entry[V])
	delete(c.lookup, e.key)
	c.weight -= e.weight
}
