// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package accumulator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/shellacc/shellnode/internal/hash"
)

func newTestOutpoint(t *testing.T, seed byte) Outpoint {
	t.Helper()
	var h hash.Hash
	h[0] = seed
	return Outpoint{TxID: h, Index: 0}
}

func TestWitnessRoundTripForEveryLiveOutpoint(t *testing.T) {
	ac, err := New()
	require.NoError(t, err)

	var addr hash.Address
	addr[0] = 0x01

	ops := make([]Outpoint, 0, 5)
	for i := byte(0); i < 5; i++ {
		op := newTestOutpoint(t, i+1)
		_, err := ac.HashToPrime(op, 100, addr)
		require.NoError(t, err)
		ops = append(ops, op)
	}
	a := ac.Accumulate()

	for _, op := range ops {
		w, ok := ac.Witness(op)
		require.True(t, ok)
		prime, ok := ac.Prime(op)
		require.True(t, ok)
		require.True(t, Verify(w, prime, a, ac.N()), "witness must satisfy w^p == A (mod N)")
	}
}

func TestApplyBlockKeepsPrimesDisjoint(t *testing.T) {
	ac, err := New()
	require.NoError(t, err)

	var alice, bob hash.Address
	alice[0], bob[0] = 0xaa, 0xbb

	var txID1 hash.Hash
	txID1[0] = 0x01
	result, err := ac.ApplyBlock([]ConfirmedTx{
		{
			TxID:    txID1,
			Outputs: []Output{{Value: 100, Recipient: alice}},
		},
	})
	require.NoError(t, err)
	require.True(t, ac.LivePrimesDisjoint())

	spentOutpoint := Outpoint{TxID: txID1, Index: 0}
	require.Contains(t, result.NewProofs, spentOutpoint)

	var txID2 hash.Hash
	txID2[0] = 0x02
	_, err = ac.ApplyBlock([]ConfirmedTx{
		{
			TxID:    txID2,
			Inputs:  []Input{{Outpoint: spentOutpoint}},
			Outputs: []Output{{Value: 60, Recipient: bob}, {Value: 40, Recipient: alice}},
		},
	})
	require.NoError(t, err)
	require.True(t, ac.LivePrimesDisjoint())

	_, stillLive := ac.Witness(spentOutpoint)
	require.False(t, stillLive, "spent outpoint must no longer be live")
}

func TestAccumulatorRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ac, err := New()
		require.NoError(t, err)

		n := rapid.IntRange(0, 8).Draw(rt, "n")
		var ops []Outpoint
		for i := 0; i < n; i++ {
			var h hash.Hash
			h[0] = byte(i + 1)
			op := Outpoint{TxID: h, Index: uint32(i)}
			var addr hash.Address
			addr[0] = byte(i)
			_, err := ac.HashToPrime(op, float64(i), addr)
			require.NoError(rt, err)
			ops = append(ops, op)
		}
		a := ac.Accumulate()

		for _, op := range ops {
			w, ok := ac.Witness(op)
			require.True(rt, ok)
			p, ok := ac.Prime(op)
			require.True(rt, ok)
			require.True(rt, Verify(w, p, a, ac.N()))
		}
		require.True(rt, ac.LivePrimesDisjoint())
	})
}
