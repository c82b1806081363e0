// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashOrderingTotal(t *testing.T) {
	a := Sum256([]byte("a"))
	b := Sum256([]byte("b"))
	require.NotEqual(t, a, b)

	lt := a.Less(b)
	gt := b.Less(a)
	require.True(t, lt != gt, "exactly one of a<b or b<a must hold for distinct digests")

	// self-comparison is never strictly less.
	require.False(t, a.Less(a))
}

func TestHashOrderingIsBigEndianLexicographic(t *testing.T) {
	var a, b Hash
	a[0] = 0x01
	b[0] = 0x02
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestAddressFromPublicKeyIsLast20BytesOfSHA256(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	addr := kp.Address()
	expected := Sum256(kp.Public)
	require.Equal(t, expected[Size-AddrSize:], addr[:])
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)
	other, err := GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("transfer 100 units")
	sig := kp.Sign(msg)

	require.True(t, Verify(kp.Public, msg, sig))
	require.False(t, Verify(other.Public, msg, sig))
	require.False(t, Verify(kp.Public, []byte("transfer 200 units"), sig))
}
