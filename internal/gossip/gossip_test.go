// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package gossip

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/merkle"
	"github.com/shellacc/shellnode/internal/orphan"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/types"
	"github.com/shellacc/shellnode/internal/wire"
)

func newHarness(t *testing.T, archival bool) (*Worker, *chain.Chain, *mempool.Mempool, *state.Manager) {
	t.Helper()
	var zeroDifficulty hash.Hash
	for i := range zeroDifficulty {
		zeroDifficulty[i] = 0xff
	}
	c := chain.NewWithDifficulty(zeroDifficulty)
	orphans := orphan.New()
	mp := mempool.New()
	var local hash.Address
	mgr, err := state.NewManager(archival, local)
	require.NoError(t, err)
	w := New(c, orphans, mgr, mp)
	return w, c, mp, mgr
}

func mineChild(t *testing.T, c *chain.Chain, parent hash.Hash, stxs []types.SignedTransaction) types.Block {
	t.Helper()
	leaves := make([]hash.Hashable, len(stxs))
	for i, stx := range stxs {
		leaves[i] = stx
	}
	root := merkle.New(leaves).Root()
	header := types.Header{
		Parent:     parent,
		Difficulty: c.DifficultyOfTip(),
		MerkleRoot: root,
	}
	return types.Block{Header: header, Content: stxs}
}

func TestHandlePingRepliesPong(t *testing.T) {
	w, _, _, _ := newHarness(t, true)
	var got wire.Message
	w.Handle(wire.Ping{Nonce: "n1"}, func(m wire.Message) { got = m }, func(wire.Message) {})
	require.Equal(t, wire.Pong{Nonce: "n1"}, got)
}

func TestHandleBlocksAcceptsValidBlockAndBroadcasts(t *testing.T) {
	w, c, _, _ := newHarness(t, true)
	tip := c.Tip()

	block := mineChild(t, c, tip, nil)

	var broadcasted []wire.Message
	w.Handle(wire.Blocks{Blocks: []types.Block{block}}, func(wire.Message) {}, func(m wire.Message) {
		broadcasted = append(broadcasted, m)
	})

	require.Equal(t, uint64(1), c.TipHeight())
	require.NotEmpty(t, broadcasted)
	// An archival node first broadcasts the block's NewStateWitness; the
	// NewBlockHashes announcement follows once the whole batch is handled.
	nbh, ok := broadcasted[len(broadcasted)-1].(wire.NewBlockHashes)
	require.True(t, ok)
	require.Contains(t, nbh.Hashes, block.ID())
}

func TestHandleBlocksWithUnknownParentBecomesOrphan(t *testing.T) {
	w, c, _, _ := newHarness(t, true)

	var fakeParent hash.Hash
	fakeParent[0] = 0x42
	child := mineChild(t, c, fakeParent, nil)

	var broadcasted []wire.Message
	w.Handle(wire.Blocks{Blocks: []types.Block{child}}, func(wire.Message) {}, func(m wire.Message) {
		broadcasted = append(broadcasted, m)
	})

	require.Equal(t, uint64(0), c.TipHeight())
	require.True(t, w.orphans.Contains(fakeParent))
	require.Empty(t, broadcasted)
}

func TestOrphanDrainsOnParentArrival(t *testing.T) {
	w, c, _, _ := newHarness(t, true)
	tip := c.Tip()

	parent := mineChild(t, c, tip, nil)
	child := mineChild(t, c, parent.ID(), nil)

	// child arrives first: becomes an orphan.
	w.Handle(wire.Blocks{Blocks: []types.Block{child}}, func(wire.Message) {}, func(wire.Message) {})
	require.Equal(t, uint64(0), c.TipHeight())

	// parent arrives: both parent and the drained child should land in chain.
	w.Handle(wire.Blocks{Blocks: []types.Block{parent}}, func(wire.Message) {}, func(wire.Message) {})
	require.Equal(t, uint64(2), c.TipHeight())
	require.False(t, w.orphans.Contains(parent.ID()))
}

func TestHandleTransactionsAdmitsAndBroadcasts(t *testing.T) {
	w, _, mp, _ := newHarness(t, true)

	kp, err := hash.GenerateKeyPair()
	require.NoError(t, err)
	var bob hash.Address
	bob[0] = 0x02
	tx := types.NewTransaction(nil, []types.Output{{Recipient: bob, Value: 5}})
	stx := types.Sign(kp, tx)

	var broadcasted []wire.Message
	w.Handle(wire.Transactions{Transactions: []types.SignedTransaction{stx}}, func(wire.Message) {}, func(m wire.Message) {
		broadcasted = append(broadcasted, m)
	})

	require.True(t, mp.Has(stx.ID()))
	require.Len(t, broadcasted, 1)
	nth, ok := broadcasted[0].(wire.NewTransactionHashes)
	require.True(t, ok)
	require.Contains(t, nth.Hashes, stx.ID())
}

func TestHandleTransactionsDropsInvalidSignature(t *testing.T) {
	w, _, mp, _ := newHarness(t, true)

	kpA, err := hash.GenerateKeyPair()
	require.NoError(t, err)
	kpB, err := hash.GenerateKeyPair()
	require.NoError(t, err)

	var bob hash.Address
	tx := types.NewTransaction(nil, []types.Output{{Recipient: bob, Value: 5}})
	stx := types.Sign(kpA, tx)
	stx.PublicKey = kpB.Public

	w.Handle(wire.Transactions{Transactions: []types.SignedTransaction{stx}}, func(wire.Message) {}, func(wire.Message) {})
	require.False(t, mp.Has(stx.ID()))
}

func TestHandleGetBlocksRepliesWithKnownBlocks(t *testing.T) {
	w, c, _, _ := newHarness(t, true)
	var reply []wire.Message
	w.Handle(wire.GetBlocks{Hashes: []hash.Hash{c.Tip()}}, func(m wire.Message) { reply = append(reply, m) }, func(wire.Message) {})
	require.Len(t, reply, 1)
	blocks, ok := reply[0].(wire.Blocks)
	require.True(t, ok)
	require.Len(t, blocks.Blocks, 1)
}

func TestHandleNewStateWitnessMergesForNonArchival(t *testing.T) {
	w, _, _, mgr := newHarness(t, false)
	require.False(t, mgr.Store.IsArchival())

	var blockID hash.Hash
	blockID[0] = 0x11
	msg := wire.NewStateWitness{
		Proofs: []wire.AccumulatorAt{{BlockID: blockID, A: mgr.Accumulator.A()}},
	}

	var rebroadcast []wire.Message
	w.Handle(msg, func(wire.Message) {}, func(m wire.Message) { rebroadcast = append(rebroadcast, m) })

	_, known := mgr.Store.AccumulatorAt(blockID)
	require.True(t, known)
	require.Len(t, rebroadcast, 1, "must re-gossip once after merging new proofs")
}

func TestHandleNewStateWitnessIgnoredByArchival(t *testing.T) {
	w, _, _, mgr := newHarness(t, true)

	var blockID hash.Hash
	blockID[0] = 0x11
	msg := wire.NewStateWitness{
		Proofs: []wire.AccumulatorAt{{BlockID: blockID, A: mgr.Accumulator.A()}},
	}

	var rebroadcast []wire.Message
	w.Handle(msg, func(wire.Message) {}, func(m wire.Message) { rebroadcast = append(rebroadcast, m) })

	_, known := mgr.Store.AccumulatorAt(blockID)
	require.False(t, known, "archival nodes derive A themselves and ignore inbound witness gossip")
	require.Empty(t, rebroadcast)
}
