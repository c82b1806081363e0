// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

func signedTx(t *testing.T, value float64) types.SignedTransaction {
	t.Helper()
	kp, err := hash.GenerateKeyPair()
	require.NoError(t, err)
	tx := types.NewTransaction(nil, []types.Output{{Recipient: kp.Address(), Value: value}})
	return types.Sign(kp, tx)
}

func TestInsertAndRemoveConfirmed(t *testing.T) {
	mp := New()
	t1 := signedTx(t, 1)
	t2 := signedTx(t, 2)

	mp.Insert(t1)
	mp.Insert(t2)
	require.Equal(t, 2, mp.Len())
	require.True(t, mp.Has(t1.ID()))

	mp.RemoveConfirmed([]hash.Hash{t1.ID()})
	require.False(t, mp.Has(t1.ID()))
	require.True(t, mp.Has(t2.ID()))
	require.Equal(t, 1, mp.Len())
}

func TestDoubleSpendRemovalViaRemove(t *testing.T) {
	mp := New()
	t1 := signedTx(t, 1)
	mp.Insert(t1)
	require.True(t, mp.Has(t1.ID()))

	mp.Remove(t1.ID())
	require.False(t, mp.Has(t1.ID()))
}

func TestIterateIsInsertionOrder(t *testing.T) {
	mp := New()
	var ids []hash.Hash
	for i := 0; i < 5; i++ {
		stx := signedTx(t, float64(i))
		ids = append(ids, stx.ID())
		mp.Insert(stx)
	}

	var seen []hash.Hash
	mp.Iterate(func(stx types.SignedTransaction) {
		seen = append(seen, stx.ID())
	})
	require.Equal(t, ids, seen)
}
