// config.go: pool configuration store
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package bufpool

import (
	"fmt"
	"sync"
)

// ConfigStore is a typed key/value map holding pool parameters. The core
// pool only ever reads and writes the six recognized keys (size,
// min_buffers, max_buffers, prefix, postfix, align); a subclass may store
// additional keys in the same instance without the core ever seeing them.
//
// A ConfigStore passed to Pool.Configure transfers ownership to the pool
// on success. On failure the caller keeps responsibility for it. Pool
// always returns a fresh Copy from GetConfig.
type ConfigStore struct {
	mu sync.Mutex

	size       uint
	minBuffers uint
	maxBuffers uint
	prefix     uint
	postfix    uint
	align      uint

	extra map[string]any
}

// NewConfigStore returns a ConfigStore with the documented defaults
// (size=0, min=0, max=0, prefix=0, postfix=0, align=1).
func NewConfigStore() *ConfigStore {
	return &ConfigStore{align: 1}
}

// Set writes all six recognized keys at once, matching
// gst_buffer_pool_config_set's signature and argument order.
func (c *ConfigStore) Set(size, minBuffers, maxBuffers, prefix, postfix, align uint) error {
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return fmt.Errorf("bufpool: align %d is not a power of two", align)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.size = size
	c.minBuffers = minBuffers
	c.maxBuffers = maxBuffers
	c.prefix = prefix
	c.postfix = postfix
	c.align = align
	return nil
}

// Get reads all six recognized keys.
func (c *ConfigStore) Get() (size, minBuffers, maxBuffers, prefix, postfix, align uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size, c.minBuffers, c.maxBuffers, c.prefix, c.postfix, c.align
}

// SetExtra stores a subclass-defined key, for subclasses that extend
// ConfigStore with parameters the core never reads (e.g. sharedmem's
// mapping flags).
func (c *ConfigStore) SetExtra(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.extra == nil {
		c.extra = make(map[string]any)
	}
	c.extra[key] = value
}

// GetExtra retrieves a subclass-defined key set via SetExtra.
func (c *ConfigStore) GetExtra(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.extra[key]
	return v, ok
}

// Copy returns a deep copy of the store, the way GetConfig must always
// hand back a copy independent of the pool's live configuration (spec.md
// §9's open question: bracket the copy with a real lock, never leave it
// unlocked).
func (c *ConfigStore) Copy() *ConfigStore {
	c.mu.Lock()
	defer c.mu.Unlock()

	cp := &ConfigStore{
		size:       c.size,
		minBuffers: c.minBuffers,
		maxBuffers: c.maxBuffers,
		prefix:     c.prefix,
		postfix:    c.postfix,
		align:      c.align,
	}
	if c.extra != nil {
		cp.extra = make(map[string]any, len(c.extra))
		for k, v := range c.extra {
			cp.extra[k] = v
		}
	}
	return cp
}

// Free releases the store's storage. ConfigStore holds no resources
// beyond Go-managed memory; Free exists so callers that received
// ownership on a failed Configure have an explicit, symmetric release
// call, matching gst_structure_free's role in the original.
func (c *ConfigStore) Free() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.extra = nil
}

// validate checks the invariants SetConfig must enforce before handing
// the store to a subclass (align power-of-two is checked eagerly in Set;
// this re-validates a store built without Set, e.g. via struct literal
// helpers in subclasses).
func (c *ConfigStore) validate() error {
	_, minBuffers, maxBuffers, _, _, align := c.Get()
	if align == 0 || align&(align-1) != 0 {
		return fmt.Errorf("bufpool: align %d is not a power of two", align)
	}
	if maxBuffers != 0 && minBuffers > maxBuffers {
		return fmt.Errorf("bufpool: min_buffers %d exceeds max_buffers %d", minBuffers, maxBuffers)
	}
	return nil
}
