package datastore

import (
	"container/list"
	"sync"
)

// secretHashCache is a bounded, concurrent-safe least-recently-used
// cache from a raw key path to the hash of the secret wrapper last
// written there, used by isUnchangedSecret to detect redundant
// rewrites. It is deliberately narrower than a general-purpose cache:
// the only caller ever stores a key-path/[32]byte pair, so there is no
// value of recreating a generic Get/Add-on-interface{} structure (and
// the notify-on-eviction, Peek and Iterator machinery that comes with
// one) when nothing here needs it. An evicted or missing entry only
// costs one redundant decrypt, never an incorrect result, which is
// why a bound is safe here at all.
type secretHashCache struct {
	max int

	mu sync.Mutex
	ll *list.List
	m  map[string]*list.Element
}

type secretHashEntry struct {
	key  string
	hash [32]byte
}

func newSecretHashCache(max int) *secretHashCache {
	return &secretHashCache{
		max: max,
		ll:  list.New(),
		m:   make(map[string]*list.Element),
	}
}

// get reports the cached hash for key, if present, and promotes it to
// most-recently-used.
func (c *secretHashCache) get(key string) ([32]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, ok := c.m[key]
	if !ok {
		return [32]byte{}, false
	}
	c.ll.MoveToFront(ele)
	return ele.Value.(*secretHashEntry).hash, true
}

// add records hash for key, evicting the least-recently-used entry if
// the cache is now over its bound.
func (c *secretHashCache) add(key string, hash [32]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ele, ok := c.m[key]; ok {
		c.ll.MoveToFront(ele)
		ele.Value.(*secretHashEntry).hash = hash
		return
	}

	ele := c.ll.PushFront(&secretHashEntry{key: key, hash: hash})
	c.m[key] = ele

	if c.ll.Len() > c.max {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.m, oldest.Value.(*secretHashEntry).key)
	}
}
