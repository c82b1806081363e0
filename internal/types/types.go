// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package types defines the data model: outpoints, inputs (with
// accumulator membership witnesses), outputs, transactions, signed
// transactions, block headers, and blocks. Canonical serialization is
// big-endian, fixed-width integers, length-prefixed vectors, the same
// wire-encoding convention package wire uses for its own messages.
package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"golang.org/x/crypto/ed25519"

	"github.com/shellacc/shellnode/internal/accumulator"
	"github.com/shellacc/shellnode/internal/hash"
)

// Outpoint identifies a transaction output: (producing tx id, output
// index).
type Outpoint struct {
	TxID  hash.Hash
	Index uint32
}

// AccumulatorOutpoint converts to the accumulator package's Outpoint type.
func (o Outpoint) AccumulatorOutpoint() accumulator.Outpoint {
	return accumulator.Outpoint{TxID: o.TxID, Index: o.Index}
}

// Witness proves an outpoint's membership in the accumulator: a prime and
// the residue satisfying witness^prime == A (mod N).
type Witness struct {
	Prime  *big.Int
	Residue *big.Int
}

// Input spends an outpoint, carrying the membership witness that proves it
// is (or was, at time of construction) live in the accumulator.
type Input struct {
	Outpoint Outpoint
	Witness  Witness
}

// Output pays value to recipient at the given dense index within its
// transaction's output list.
type Output struct {
	Recipient hash.Address
	Value     float64
	Index     uint32
}

// Transaction is an ordered list of inputs and outputs. Output indices
// must be the dense sequence 0..k-1, enforced by NewTransaction.
type Transaction struct {
	Inputs  []Input
	Outputs []Output
}

// NewTransaction builds a Transaction, assigning dense output indices in
// declared order.
func NewTransaction(inputs []Input, outputs []Output) Transaction {
	for i := range outputs {
		outputs[i].Index = uint32(i)
	}
	return Transaction{Inputs: inputs, Outputs: outputs}
}

// Serialize writes the canonical big-endian, length-prefixed encoding of
// tx used for both hashing and signing.
func (tx Transaction) Serialize() []byte {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.Outpoint.TxID[:])
		writeUint32(&buf, in.Outpoint.Index)
		writeBigInt(&buf, in.Witness.Prime)
		writeBigInt(&buf, in.Witness.Residue)
	}
	writeUint32(&buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf.Write(out.Recipient[:])
		writeFloat64(&buf, out.Value)
		writeUint32(&buf, out.Index)
	}
	return buf.Bytes()
}

// ID is SHA-256 of tx's canonical serialization.
func (tx Transaction) ID() hash.Hash {
	return hash.Sum256(tx.Serialize())
}

// Hash implements hash.Hashable so transactions can be Merkle-tree leaves.
func (tx Transaction) Hash() hash.Hash {
	return tx.ID()
}

// SignedTransaction pairs a Transaction with an Ed25519 signature over its
// canonical serialization and the signer's public key.
type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
	PublicKey   ed25519.PublicKey
}

// ID is the underlying transaction's ID.
func (stx SignedTransaction) ID() hash.Hash {
	return stx.Transaction.ID()
}

// Hash implements hash.Hashable.
func (stx SignedTransaction) Hash() hash.Hash {
	return stx.ID()
}

// Sign produces a SignedTransaction by signing tx's serialization with kp.
func Sign(kp *hash.KeyPair, tx Transaction) SignedTransaction {
	msg := tx.Serialize()
	return SignedTransaction{
		Transaction: tx,
		Signature:   kp.Sign(msg),
		PublicKey:   kp.Public,
	}
}

// VerifySignature reports whether stx's signature verifies under its
// declared public key -- an invariant every signed transaction admitted
// to the mempool or a block must hold.
func (stx SignedTransaction) VerifySignature() bool {
	return hash.Verify(stx.PublicKey, stx.Transaction.Serialize(), stx.Signature)
}

// Header is a block header: parent id, nonce, difficulty target,
// millisecond timestamp, and Merkle root over the block's signed
// transactions.
type Header struct {
	Parent     hash.Hash
	Nonce      uint32
	Difficulty hash.Hash
	Timestamp  int64
	MerkleRoot hash.Hash
}

// Serialize writes the canonical encoding of h.
func (h Header) Serialize() []byte {
	var buf bytes.Buffer
	buf.Write(h.Parent[:])
	writeUint32(&buf, h.Nonce)
	buf.Write(h.Difficulty[:])
	writeUint64(&buf, uint64(h.Timestamp))
	buf.Write(h.MerkleRoot[:])
	return buf.Bytes()
}

// ID is SHA-256 of the header's serialized form, the block's ID.
func (h Header) ID() hash.Hash {
	return hash.Sum256(h.Serialize())
}

// Block is a header plus its content (ordered list of signed
// transactions).
type Block struct {
	Header  Header
	Content []SignedTransaction
}

// ID is the block's header ID.
func (b Block) ID() hash.Hash {
	return b.Header.ID()
}

// MeetsDifficulty reports whether b's ID, compared as an unsigned 256-bit
// big-endian integer, is <= its header's declared difficulty target.
func (b Block) MeetsDifficulty() bool {
	return MeetsTarget(b.ID(), b.Header.Difficulty)
}

// MeetsTarget reports whether id <= target as unsigned 256-bit integers.
func MeetsTarget(id, target hash.Hash) bool {
	return new(big.Int).SetBytes(id[:]).Cmp(new(big.Int).SetBytes(target[:])) <= 0
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	writeUint64(buf, math.Float64bits(v))
}

func writeBigInt(buf *bytes.Buffer, v *big.Int) {
	if v == nil {
		writeUint32(buf, 0)
		return
	}
	b := v.Bytes()
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

// GenesisConstant is the fixed constant hashed to derive the synthetic
// genesis block's ID.
var GenesisConstant = []byte{0x00}

// String implements fmt.Stringer for debug logging of outpoints.
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}
