// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

// Package cache provides a small fetch-through LRU used to memoize
// signature verifications on the admission path.
package cache

import (
	"container/list"
	"sync"
)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRUCache is a bounded fetch-through cache. Get returns the cached value
// for a key, otherwise fetches it with fetchFunc and caches the result.
// Fetch errors are never cached.
type LRUCache[K comparable, V any] struct {
	lock     sync.Mutex
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

func NewLRUCache[K comparable, V any](size int) *LRUCache[K, V] {
	if size < 1 {
		size = 1
	}
	return &LRUCache[K, V]{
		capacity: size,
		order:    list.New(),
		items:    make(map[K]*list.Element, size),
	}
}

// Get checks if the cached value exists for a given key, otherwise fetches
// the value using fetchFunc. If [invalidate] is true, the value is cleared
// from the cache prior to fetching.
func (c *LRUCache[K, V]) Get(key K, fetchFunc func(K) (V, error), invalidate bool) (V, error) {
	c.lock.Lock()
	if invalidate {
		c.remove(key)
	} else if element, found := c.items[key]; found {
		c.order.MoveToFront(element)
		value := element.Value.(*entry[K, V]).value
		c.lock.Unlock()
		return value, nil
	}
	c.lock.Unlock()

	newValue, err := fetchFunc(key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.lock.Lock()
	c.add(key, newValue)
	c.lock.Unlock()

	return newValue, nil
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.order.Len()
}

func (c *LRUCache[K, V]) add(key K, value V) {
	if element, found := c.items[key]; found {
		element.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(element)
		return
	}
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[K, V]).key)
	}
}

func (c *LRUCache[K, V]) remove(key K) {
	if element, found := c.items[key]; found {
		c.order.Remove(element)
		delete(c.items, key)
	}
}
