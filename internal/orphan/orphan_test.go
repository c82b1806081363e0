// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package orphan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

func TestInsertDrainContains(t *testing.T) {
	buf := New()

	var parent hash.Hash
	parent[0] = 0xaa
	block := types.Block{Header: types.Header{Parent: parent}}

	require.False(t, buf.Contains(parent))
	buf.Insert(parent, block)
	require.True(t, buf.Contains(parent))

	drained := buf.Drain(parent)
	require.Len(t, drained, 1)
	require.False(t, buf.Contains(parent))
}

func TestOrphanReplayScenario(t *testing.T) {
	// Block C (parent = B) arrives before B: C must land in the orphan
	// buffer keyed by B.
	var bID hash.Hash
	bID[0] = 0xbb

	c := types.Block{Header: types.Header{Parent: bID, Nonce: 1}}

	buf := New()
	buf.Insert(bID, c)
	require.True(t, buf.Contains(bID))

	replayed := buf.Drain(bID)
	require.Len(t, replayed, 1)
	require.Equal(t, c.Header, replayed[0].Header)
	require.False(t, buf.Contains(bID))
}
