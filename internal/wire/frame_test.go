// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellacc/shellnode/internal/shellerr"
)

func TestWriteReadMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, Ping{Nonce: "hi"}))
	require.NoError(t, WriteMessage(&buf, Pong{Nonce: "there"}))

	first, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, Ping{Nonce: "hi"}, first)

	second, err := ReadMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, Pong{Nonce: "there"}, second)
}

func TestReadMessageOnEmptyStreamIsTransportError(t *testing.T) {
	_, err := ReadMessage(&bytes.Buffer{})
	require.Error(t, err)
	require.True(t, shellerr.Is(err, shellerr.TransportError))
}

func TestReadMessageRejectsOversizedFrame(t *testing.T) {
	var buf bytes.Buffer
	var lenPrefix [4]byte
	lenPrefix[0] = 0xff // absurdly large length
	buf.Write(lenPrefix[:])
	_, err := ReadMessage(&buf)
	require.Error(t, err)
}
