// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"

	"github.com/shellacc/shellnode/internal/shellerr"
)

// maxFrameLen bounds a single framed message read from a peer connection,
// the transport-level counterpart to maxVectorLen's protection against a
// hostile length field.
const maxFrameLen = 32 << 20

// WriteMessage frames msg onto w as a 4-byte big-endian length prefix
// followed by its encoded bytes -- the per-peer I/O framing the
// transport layer provides around every message this package encodes.
func WriteMessage(w io.Writer, msg Message) error {
	encoded := Encode(msg)
	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(encoded)))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return shellerr.Newf(shellerr.TransportError, "wire: %v", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return shellerr.Newf(shellerr.TransportError, "wire: %v", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed frame from r and decodes it.
func ReadMessage(r io.Reader) (Message, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return nil, shellerr.Newf(shellerr.TransportError, "wire: %v", err)
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > maxFrameLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: frame length %d exceeds maximum", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, shellerr.Newf(shellerr.TransportError, "wire: %v", err)
	}
	return Decode(buf)
}
