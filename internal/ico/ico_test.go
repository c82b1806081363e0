// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ico

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/hash"
)

func TestAppendThenReadAllRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ICO.txt")

	var a, b hash.Address
	a[0] = 0x01
	b[0] = 0x02

	require.NoError(t, Append(path, a))
	require.NoError(t, Append(path, b))

	addrs, err := ReadAll(path)
	require.NoError(t, err)
	require.Equal(t, []hash.Address{a, b}, addrs)
}

func TestReadAllOnMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.txt")
	addrs, err := ReadAll(path)
	require.NoError(t, err)
	require.Empty(t, addrs)
}

func TestArchivalAddressIsFirstInFileOrder(t *testing.T) {
	var a, b hash.Address
	a[0] = 0x07
	b[0] = 0x08
	archival, ok := ArchivalAddress([]hash.Address{a, b})
	require.True(t, ok)
	require.Equal(t, a, archival)

	_, ok = ArchivalAddress(nil)
	require.False(t, ok)
}
