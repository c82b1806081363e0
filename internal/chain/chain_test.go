// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

func childOf(parent hash.Hash, salt byte) types.Block {
	h := types.Header{
		Parent:     parent,
		Nonce:      uint32(salt),
		Difficulty: hash.Hash{},
		Timestamp:  int64(salt),
		MerkleRoot: hash.Hash{},
	}
	return types.Block{Header: h}
}

func TestGenesisIDIsSHA256OfZeroByte(t *testing.T) {
	require.Equal(t, hash.Sum256([]byte{0x00}), GenesisID())
}

func TestInsertOneBlockBecomesTip(t *testing.T) {
	c := New()
	genesis := c.Tip()
	require.Equal(t, GenesisID(), genesis)

	block := childOf(genesis, 1)
	id, height, err := c.Insert(block)
	require.NoError(t, err)
	require.Equal(t, uint64(1), height)

	require.Equal(t, id, c.Tip())
	longest := c.LongestChain()
	require.Len(t, longest, 2)
	require.Equal(t, genesis, longest[0])
	require.Equal(t, id, longest[1])
}

func TestInsertUnknownParentIsMissingParentError(t *testing.T) {
	c := New()
	var bogusParent hash.Hash
	bogusParent[0] = 0xff
	block := childOf(bogusParent, 1)

	_, _, err := c.Insert(block)
	require.Error(t, err)
}

func TestChainHeightInvariant(t *testing.T) {
	c := New()
	cur := c.Tip()
	for i := byte(1); i <= 10; i++ {
		block := childOf(cur, i)
		id, height, err := c.Insert(block)
		require.NoError(t, err)

		parentEntry, err := c.Get(block.Header.Parent)
		require.NoError(t, err)
		require.Equal(t, parentEntry.Height+1, height)
		cur = id
	}
}

func TestTipMonotonicityUnderForks(t *testing.T) {
	c := New()
	genesis := c.Tip()

	a := childOf(genesis, 1)
	idA, _, err := c.Insert(a)
	require.NoError(t, err)
	require.Equal(t, idA, c.Tip())

	// A sibling fork at the same height must not become tip (first-seen
	// wins on ties).
	b := childOf(genesis, 2)
	idB, _, err := c.Insert(b)
	require.NoError(t, err)
	require.Equal(t, idA, c.Tip(), "first-seen block at a given height must remain tip")

	entryB, err := c.Get(idB)
	require.NoError(t, err)
	require.LessOrEqual(t, entryB.Height, c.TipHeight())

	// Extending the sibling past the tip's height must win.
	c2 := childOf(idB, 3)
	idC2, heightC2, err := c.Insert(c2)
	require.NoError(t, err)
	require.Equal(t, idC2, c.Tip())
	require.Equal(t, heightC2, c.TipHeight())
}
