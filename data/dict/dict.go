// Copyright (c) 2019, AT&T Intellectual Property. All rights reserved.
//
// Copyright (c) 2015-2016 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package dict implements the process-wide interned string pool.
// Every distinct byte string maps to a single reference
// counted Handle; two handles compare equal iff they were interned from the
// same bytes, and that comparison is a pointer comparison rather than a
// string comparison. The core leans on this on the hot paths that compare
// schema node names, module names, canonical leaf values and attribute
// names during parse, print and diff.
package dict

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// shardCount is a small power of two; the sharded lock lets interning
// proceed concurrently across unrelated strings instead of serializing on
// one global mutex, mirroring the sharding idiom schema/tree.go already
// uses for its per-module lookup tables.
const shardCount = 16

// Handle is an opaque interned string reference. Its identity, not its
// contents, is what the core compares; Handle.Bytes() exists only for
// callers that must eventually produce output bytes.
type Handle struct {
	entry *entry
}

type entry struct {
	mu       sync.Mutex
	bytes    []byte
	refcount int
	owner    *Dictionary
}

// Bytes returns the interned byte string. The returned slice must not be
// mutated.
func (h Handle) Bytes() []byte {
	if h.entry == nil {
		return nil
	}
	return h.entry.bytes
}

// String returns the interned string.
func (h Handle) String() string {
	if h.entry == nil {
		return ""
	}
	return string(h.entry.bytes)
}

// Equal reports pointer identity: two handles from the same Dictionary
// instance compare equal iff they were interned from equal byte strings.
func (h Handle) Equal(o Handle) bool {
	return h.entry == o.entry
}

// IsZero reports whether h is the zero Handle (never interned).
func (h Handle) IsZero() bool {
	return h.entry == nil
}

// Release drops this handle's reference without needing the owning
// Dictionary in hand; holders embedded in long-lived structures (data
// node values) release through here when the structure is freed.
func (h Handle) Release() {
	if h.entry == nil {
		return
	}
	h.entry.owner.Release(h)
}

type shard struct {
	mu    sync.Mutex
	table map[string]*entry
}

// Dictionary is a process-wide interned string pool. The zero value is not
// usable; construct with New. A single *Dictionary is normally shared by
// every DataNode tree in a process; the pool is the only cross-tree
// shared resource.
type Dictionary struct {
	shards [shardCount]*shard
}

// New constructs an empty Dictionary.
func New() *Dictionary {
	d := &Dictionary{}
	for i := range d.shards {
		d.shards[i] = &shard{table: make(map[string]*entry)}
	}
	return d
}

func (d *Dictionary) shardFor(key uint64) *shard {
	return d.shards[key%shardCount]
}

// Insert interns s, incrementing its reference count, and returns a Handle.
// Interning the same bytes twice (even across goroutines) returns Handles
// that compare Equal.
func (d *Dictionary) Insert(s string) Handle {
	key := xxhash.Sum64String(s)
	sh := d.shardFor(key)

	sh.mu.Lock()
	e, ok := sh.table[s]
	if !ok {
		e = &entry{bytes: []byte(s), owner: d}
		sh.table[s] = e
	}
	sh.mu.Unlock()

	e.mu.Lock()
	e.refcount++
	e.mu.Unlock()

	return Handle{entry: e}
}

// InsertBytes is Insert for a byte slice; the bytes are copied if the
// string is newly interned.
func (d *Dictionary) InsertBytes(b []byte) Handle {
	return d.Insert(string(b))
}

// Release decrements h's reference count, removing it from the pool once
// it reaches zero. Releasing a zero Handle is a no-op.
func (d *Dictionary) Release(h Handle) {
	if h.entry == nil {
		return
	}
	e := h.entry

	e.mu.Lock()
	e.refcount--
	remove := e.refcount <= 0
	s := string(e.bytes)
	e.mu.Unlock()

	if !remove {
		return
	}

	key := xxhash.Sum64String(s)
	sh := d.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	// Another Insert may have raced in after refcount hit zero; only
	// delete the entry we actually own.
	if cur, ok := sh.table[s]; ok && cur == e {
		e.mu.Lock()
		stillZero := e.refcount <= 0
		e.mu.Unlock()
		if stillZero {
			delete(sh.table, s)
		}
	}
}

// RefCount reports h's current reference count, for tests.
func (d *Dictionary) RefCount(h Handle) int {
	if h.entry == nil {
		return 0
	}
	h.entry.mu.Lock()
	defer h.entry.mu.Unlock()
	return h.entry.refcount
}

// Len reports the number of distinct strings currently interned, for
// tests and diagnostics.
func (d *Dictionary) Len() int {
	n := 0
	for _, sh := range d.shards {
		sh.mu.Lock()
		n += len(sh.table)
		sh.mu.Unlock()
	}
	return n
}

// global is the default process-wide instance used by callers that don't
// thread an explicit *Dictionary through (e.g. the cmd/ydt CLI).
var global = New()

// Global returns the default process-wide Dictionary.
func Global() *Dictionary { return global }
