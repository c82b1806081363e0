// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain implements the longest-chain block store: a
// content-addressed map of block -> (parent, height) tracking the
// current tip, with fork-choice encapsulated behind one method rather
// than scattered across callers.
package chain

import (
	"sync"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/shellerr"
	"github.com/shellacc/shellnode/internal/types"
)

// Entry is a stored block together with its height in the chain it
// belongs to. Height of genesis is 0; height of any other block is its
// parent's height + 1.
type Entry struct {
	Block  types.Block
	Height uint64
}

// Chain is the block store. All blocks ever seen are retained; only the
// current longest chain is "active" via Tip.
type Chain struct {
	mu sync.RWMutex

	entries map[hash.Hash]Entry
	tip     hash.Hash

	// insertSeq records each block's insertion order. Fork-choice ties
	// resolve to the first inserted because Insert only moves the tip on
	// a strictly greater height; this map is not consulted for that.
	insertSeq map[hash.Hash]uint64
	seqCounter uint64
}

// genesisDifficulty is carried on the synthetic genesis entry so
// DifficultyOfTip has a value to report before any real block is mined;
// real chains override it via NewWithDifficulty.
var genesisDifficulty hash.Hash

// New constructs a Chain containing only the synthetic genesis block:
// ID = SHA-256(fixed constant), height 0.
func New() *Chain {
	return NewWithDifficulty(genesisDifficulty)
}

// NewWithDifficulty constructs a Chain whose genesis block declares the
// given difficulty target, so the miner and gossip validator have a
// starting target to extend.
func NewWithDifficulty(difficulty hash.Hash) *Chain {
	genesisHeader := types.Header{
		Parent:     hash.Hash{},
		Nonce:      0,
		Difficulty: difficulty,
		Timestamp:  0,
		MerkleRoot: hash.Hash{},
	}
	// The genesis ID itself is the fixed constant's digest, not the
	// header's own ID; we still store a header so DifficultyOfTip and
	// Get behave uniformly for genesis like any other entry.
	genesisID := hash.Sum256(types.GenesisConstant)

	c := &Chain{
		entries:   make(map[hash.Hash]Entry),
		insertSeq: make(map[hash.Hash]uint64),
	}
	c.entries[genesisID] = Entry{
		Block:  types.Block{Header: genesisHeader},
		Height: 0,
	}
	c.insertSeq[genesisID] = 0
	c.seqCounter = 1
	c.tip = genesisID
	return c
}

// GenesisID returns the deterministic synthetic genesis block ID.
func GenesisID() hash.Hash {
	return hash.Sum256(types.GenesisConstant)
}

// Insert adds block to the store. The block's parent must already be
// present; otherwise Insert returns a MissingParent error and the caller
// is expected to route the block into the orphan buffer instead of
// treating this as a failure.
func (c *Chain) Insert(block types.Block) (hash.Hash, uint64, error) {
	id := block.ID()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; exists {
		// A later duplicate arrival of an already-validated block is a
		// no-op.
		return id, c.entries[id].Height, nil
	}

	parentEntry, ok := c.entries[block.Header.Parent]
	if !ok {
		return hash.Hash{}, 0, shellerr.Newf(shellerr.MissingParent,
			"chain: parent %s of block %s is not known", block.Header.Parent, id)
	}

	height := parentEntry.Height + 1
	c.entries[id] = Entry{Block: block, Height: height}
	c.insertSeq[id] = c.seqCounter
	c.seqCounter++

	if height > c.entries[c.tip].Height {
		log.Debugf("chain: new tip %s at height %d", id, height)
		c.tip = id
	}
	// Ties are kept at the current tip (first-seen wins); no action
	// needed since c.tip is only reassigned on strict height increase.

	return id, height, nil
}

// Tip returns the current tip's block ID.
func (c *Chain) Tip() hash.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// TipHeight returns the current tip's height.
func (c *Chain) TipHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[c.tip].Height
}

// DifficultyOfTip returns the difficulty target declared by the tip's
// header.
func (c *Chain) DifficultyOfTip() hash.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[c.tip].Block.Header.Difficulty
}

// Contains reports whether id is a known block (on any branch).
func (c *Chain) Contains(id hash.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[id]
	return ok
}

// Get returns the stored entry for id.
func (c *Chain) Get(id hash.Hash) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return Entry{}, shellerr.Newf(shellerr.UnknownBlock, "chain: unknown block %s", id)
	}
	return e, nil
}

// LongestChain walks parent pointers from the tip back to genesis and
// returns the list bottom-up (genesis first).
func (c *Chain) LongestChain() []hash.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var chain []hash.Hash
	cur := c.tip
	for {
		chain = append(chain, cur)
		e := c.entries[cur]
		if e.Height == 0 {
			break
		}
		cur = e.Block.Header.Parent
	}
	// reverse to genesis-first order
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
