// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package miner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/types"
)

// maxDifficulty is a target every block ID satisfies, so tests are not at
// the mercy of PoW's randomness.
func maxDifficulty() hash.Hash {
	var d hash.Hash
	for i := range d {
		d[i] = 0xff
	}
	return d
}

func TestTickMinesBlockFromMempool(t *testing.T) {
	c := chain.NewWithDifficulty(maxDifficulty())
	mp := mempool.New()

	var alice hash.Address
	alice[0] = 0x01
	mgr, err := state.NewManager(true, alice)
	require.NoError(t, err)

	kp, err := hash.GenerateKeyPair()
	require.NoError(t, err)
	tx := types.NewTransaction(nil, []types.Output{{Recipient: alice, Value: 10}})
	stx := types.Sign(kp, tx)
	mp.Insert(stx)

	var broadcasted []hash.Hash
	m, _ := New(c, mp, mgr, func(longestChain []hash.Hash) {
		broadcasted = longestChain
	})

	m.tick()

	require.Equal(t, uint64(1), c.TipHeight())
	require.Equal(t, 0, mp.Len(), "confirmed transaction must leave the mempool")
	require.NotEmpty(t, broadcasted)

	entry, err := c.Get(c.Tip())
	require.NoError(t, err)
	require.Len(t, entry.Block.Content, 1)
	require.Equal(t, stx.ID(), entry.Block.Content[0].ID())
}

func TestTickSkipsInvalidSignature(t *testing.T) {
	c := chain.NewWithDifficulty(maxDifficulty())
	mp := mempool.New()

	var alice hash.Address
	mgr, err := state.NewManager(true, alice)
	require.NoError(t, err)

	kpA, err := hash.GenerateKeyPair()
	require.NoError(t, err)
	kpB, err := hash.GenerateKeyPair()
	require.NoError(t, err)

	tx := types.NewTransaction(nil, []types.Output{{Recipient: alice, Value: 10}})
	stx := types.Sign(kpA, tx)
	stx.PublicKey = kpB.Public // forges the declared signer
	mp.Insert(stx)

	m, _ := New(c, mp, mgr, nil)
	m.tick()

	require.Equal(t, uint64(0), c.TipHeight(), "a block of only invalid transactions must not be mined")
	require.Equal(t, 1, mp.Len(), "invalid transaction is dropped from the block but left for re-evaluation")
}

func TestTickNoOpOnEmptyMempool(t *testing.T) {
	c := chain.NewWithDifficulty(maxDifficulty())
	mp := mempool.New()
	var alice hash.Address
	mgr, err := state.NewManager(true, alice)
	require.NoError(t, err)

	m, _ := New(c, mp, mgr, nil)
	m.tick()

	require.Equal(t, uint64(0), c.TipHeight())
}

func TestHandleStartExitDoesNotPanic(t *testing.T) {
	c := chain.NewWithDifficulty(maxDifficulty())
	mp := mempool.New()
	var alice hash.Address
	mgr, err := state.NewManager(true, alice)
	require.NoError(t, err)

	m, h := New(c, mp, mgr, nil)
	done := make(chan struct{})
	go func() {
		m.Run()
		close(done)
	}()

	h.Start(0)
	h.Exit()
	<-done
}
