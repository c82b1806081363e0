// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package hash implements the fixed-size digest and address types shared
// across the core, along with the Ed25519 signing capability transactions
// rely on.
//
// Signing goes through golang.org/x/crypto/ed25519 rather than hand-rolling
// anything: the Ed25519 primitive itself is an external collaborator the
// core only consumes an interface from.
package hash

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// Size is the length in bytes of a Hash.
const Size = 32

// AddrSize is the length in bytes of an Address.
const AddrSize = 20

// Hash is a 32-byte digest. The zero value is the conventional "empty"
// digest used as the Merkle root of an empty leaf set.
type Hash [Size]byte

// Address is the low-order 20 bytes of the SHA-256 digest of an Ed25519
// public key.
type Address [AddrSize]byte

// Hashable is implemented by anything that can be summarized as a leaf of
// the Merkle tree in package merkle.
type Hashable interface {
	Hash() Hash
}

// Sum256 returns the SHA-256 digest of data as a Hash.
func Sum256(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// Bytes returns a copy of h as a byte slice.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// String renders h as lowercase hex.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero digest.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Less implements the total order on digests required by §3/§8: unsigned
// big-endian comparison of the byte representation.
func (h Hash) Less(other Hash) bool {
	return bytes.Compare(h[:], other[:]) < 0
}

// Compare returns -1, 0, or 1 following the same unsigned big-endian order
// as Less.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// HashFromBytes copies b (which must be exactly Size bytes) into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("hash: invalid length %d, want %d", len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// Bytes returns a copy of a as a byte slice.
func (a Address) Bytes() []byte {
	out := make([]byte, AddrSize)
	copy(out, a[:])
	return out
}

// String renders a as lowercase hex.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromPublicKey derives the 20-byte address of an Ed25519 public
// key: the low-order 20 bytes of SHA-256(pub).
func AddressFromPublicKey(pub ed25519.PublicKey) Address {
	digest := sha256.Sum256(pub)
	var addr Address
	copy(addr[:], digest[Size-AddrSize:])
	return addr
}

// AddressFromBytes copies b (which must be exactly AddrSize bytes) into an
// Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddrSize {
		return a, fmt.Errorf("hash: invalid address length %d, want %d", len(b), AddrSize)
	}
	copy(a[:], b)
	return a, nil
}

// KeyPair is an Ed25519 signing identity: the core's sign/verify
// capability, kept deliberately minimal since the primitive library itself
// is an external collaborator.
type KeyPair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// GenerateKeyPair creates a fresh Ed25519 identity using a CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// Address returns the address derived from this key pair's public key.
func (k *KeyPair) Address() Address {
	return AddressFromPublicKey(k.Public)
}

// Sign signs msg and returns the raw 64-byte Ed25519 signature.
func (k *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(k.Private, msg)
}

// Verify reports whether sig is a valid Ed25519 signature of msg under pub.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
