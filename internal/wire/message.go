// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the peer-to-peer message protocol: a tagged
// union of Ping/Pong, block and transaction announce/request/reply
// triples, and state-witness gossip, all sharing the canonical big-endian,
// length-prefixed encoding types.Transaction and types.Block already use.
// A Command byte identifies the payload, and a Message interface every
// payload implements dispatches on it, built around this protocol's own
// command set rather than a network magic and version handshake, since
// this protocol has neither.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/shellerr"
	"github.com/shellacc/shellnode/internal/types"
)

// Command identifies a message's payload type on the wire.
type Command uint8

const (
	CmdPing Command = iota + 1
	CmdPong
	CmdNewBlockHashes
	CmdGetBlocks
	CmdBlocks
	CmdNewTransactionHashes
	CmdGetTransactions
	CmdTransactions
	CmdNewStateWitness
)

func (c Command) String() string {
	switch c {
	case CmdPing:
		return "Ping"
	case CmdPong:
		return "Pong"
	case CmdNewBlockHashes:
		return "NewBlockHashes"
	case CmdGetBlocks:
		return "GetBlocks"
	case CmdBlocks:
		return "Blocks"
	case CmdNewTransactionHashes:
		return "NewTransactionHashes"
	case CmdGetTransactions:
		return "GetTransactions"
	case CmdTransactions:
		return "Transactions"
	case CmdNewStateWitness:
		return "NewStateWitness"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// Message is anything that can be framed onto the wire as one command plus
// its encoded payload.
type Message interface {
	Command() Command
	encodePayload(buf *bytes.Buffer)
}

// Ping carries an opaque nonce string a peer must echo back in Pong.
type Ping struct{ Nonce string }

// Pong echoes a Ping's nonce.
type Pong struct{ Nonce string }

// NewBlockHashes announces block IDs the sender considers part of its
// longest chain.
type NewBlockHashes struct{ Hashes []hash.Hash }

// GetBlocks requests the full bodies of the listed block IDs.
type GetBlocks struct{ Hashes []hash.Hash }

// Blocks carries full block bodies in response to GetBlocks.
type Blocks struct{ Blocks []types.Block }

// NewTransactionHashes announces transaction IDs newly admitted to the
// sender's mempool.
type NewTransactionHashes struct{ Hashes []hash.Hash }

// GetTransactions requests the full bodies of the listed transaction IDs.
type GetTransactions struct{ Hashes []hash.Hash }

// Transactions carries full signed transaction bodies.
type Transactions struct{ Transactions []types.SignedTransaction }

// StateEntry is one (tx, outIdx, value, recipient, prime, witness) tuple
// inside a NewStateWitness message.
type StateEntry struct {
	TxID      hash.Hash
	OutIndex  uint32
	Value     float64
	Recipient hash.Address
	Prime     *big.Int
	Witness   *big.Int
}

// AccumulatorAt is one (blockId, A) pair inside a NewStateWitness message.
type AccumulatorAt struct {
	BlockID hash.Hash
	A       *big.Int
}

// NewStateWitness carries a batch of state entries and accumulator values
// observed at specific blocks, the only message that crosses the
// archival/non-archival boundary with witness material.
type NewStateWitness struct {
	States []StateEntry
	Proofs []AccumulatorAt
}

func (Ping) Command() Command                 { return CmdPing }
func (Pong) Command() Command                 { return CmdPong }
func (NewBlockHashes) Command() Command       { return CmdNewBlockHashes }
func (GetBlocks) Command() Command            { return CmdGetBlocks }
func (Blocks) Command() Command               { return CmdBlocks }
func (NewTransactionHashes) Command() Command { return CmdNewTransactionHashes }
func (GetTransactions) Command() Command      { return CmdGetTransactions }
func (Transactions) Command() Command         { return CmdTransactions }
func (NewStateWitness) Command() Command      { return CmdNewStateWitness }

// Encode writes msg's full wire framing: one command byte followed by its
// length-prefixed payload.
func Encode(msg Message) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(msg.Command()))
	msg.encodePayload(&buf)
	return buf.Bytes()
}

// Decode parses one framed message from data. It returns a *shellerr.Error
// of kind DecodeError on any malformed input.
func Decode(data []byte) (Message, error) {
	if len(data) < 1 {
		return nil, shellerr.New(shellerr.DecodeError, "wire: empty message")
	}
	r := bytes.NewReader(data[1:])
	switch Command(data[0]) {
	case CmdPing:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return Ping{Nonce: s}, nil
	case CmdPong:
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		return Pong{Nonce: s}, nil
	case CmdNewBlockHashes:
		hs, err := readHashes(r)
		if err != nil {
			return nil, err
		}
		return NewBlockHashes{Hashes: hs}, nil
	case CmdGetBlocks:
		hs, err := readHashes(r)
		if err != nil {
			return nil, err
		}
		return GetBlocks{Hashes: hs}, nil
	case CmdBlocks:
		bs, err := readBlocks(r)
		if err != nil {
			return nil, err
		}
		return Blocks{Blocks: bs}, nil
	case CmdNewTransactionHashes:
		hs, err := readHashes(r)
		if err != nil {
			return nil, err
		}
		return NewTransactionHashes{Hashes: hs}, nil
	case CmdGetTransactions:
		hs, err := readHashes(r)
		if err != nil {
			return nil, err
		}
		return GetTransactions{Hashes: hs}, nil
	case CmdTransactions:
		txs, err := readSignedTransactions(r)
		if err != nil {
			return nil, err
		}
		return Transactions{Transactions: txs}, nil
	case CmdNewStateWitness:
		return readNewStateWitness(r)
	default:
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: unknown command %d", data[0])
	}
}

func (m Ping) encodePayload(buf *bytes.Buffer) { writeString(buf, m.Nonce) }
func (m Pong) encodePayload(buf *bytes.Buffer) { writeString(buf, m.Nonce) }

func (m NewBlockHashes) encodePayload(buf *bytes.Buffer) { writeHashes(buf, m.Hashes) }
func (m GetBlocks) encodePayload(buf *bytes.Buffer)      { writeHashes(buf, m.Hashes) }

func (m Blocks) encodePayload(buf *bytes.Buffer) {
	writeUint32(buf, uint32(len(m.Blocks)))
	for _, b := range m.Blocks {
		writeBlock(buf, b)
	}
}

func (m NewTransactionHashes) encodePayload(buf *bytes.Buffer) { writeHashes(buf, m.Hashes) }
func (m GetTransactions) encodePayload(buf *bytes.Buffer)      { writeHashes(buf, m.Hashes) }

func (m Transactions) encodePayload(buf *bytes.Buffer) {
	writeUint32(buf, uint32(len(m.Transactions)))
	for _, stx := range m.Transactions {
		writeSignedTransaction(buf, stx)
	}
}

func (m NewStateWitness) encodePayload(buf *bytes.Buffer) {
	writeUint32(buf, uint32(len(m.States)))
	for _, e := range m.States {
		buf.Write(e.TxID[:])
		writeUint32(buf, e.OutIndex)
		writeFloat64(buf, e.Value)
		buf.Write(e.Recipient[:])
		writeBigInt(buf, e.Prime)
		writeBigInt(buf, e.Witness)
	}
	writeUint32(buf, uint32(len(m.Proofs)))
	for _, p := range m.Proofs {
		buf.Write(p.BlockID[:])
		writeBigInt(buf, p.A)
	}
}

func readNewStateWitness(r *bytes.Reader) (Message, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: state count %d exceeds maximum", n)
	}
	states := make([]StateEntry, 0, n)
	for i := uint32(0); i < n; i++ {
		var e StateEntry
		if err := readHashInto(r, &e.TxID); err != nil {
			return nil, err
		}
		idx, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		e.OutIndex = idx
		val, err := readFloat64(r)
		if err != nil {
			return nil, err
		}
		e.Value = val
		if err := readAddressInto(r, &e.Recipient); err != nil {
			return nil, err
		}
		prime, err := readBigInt(r)
		if err != nil {
			return nil, err
		}
		e.Prime = prime
		witness, err := readBigInt(r)
		if err != nil {
			return nil, err
		}
		e.Witness = witness
		states = append(states, e)
	}

	pn, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if pn > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: proof count %d exceeds maximum", pn)
	}
	proofs := make([]AccumulatorAt, 0, pn)
	for i := uint32(0); i < pn; i++ {
		var p AccumulatorAt
		if err := readHashInto(r, &p.BlockID); err != nil {
			return nil, err
		}
		a, err := readBigInt(r)
		if err != nil {
			return nil, err
		}
		p.A = a
		proofs = append(proofs, p)
	}
	return NewStateWitness{States: states, Proofs: proofs}, nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeFloat64(buf *bytes.Buffer, v float64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], fbits(v))
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeHashes(buf *bytes.Buffer, hs []hash.Hash) {
	writeUint32(buf, uint32(len(hs)))
	for _, h := range hs {
		buf.Write(h[:])
	}
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

func writeBlock(buf *bytes.Buffer, b types.Block) {
	h := b.Header
	buf.Write(h.Parent[:])
	writeUint32(buf, h.Nonce)
	buf.Write(h.Difficulty[:])
	writeUint64(buf, uint64(h.Timestamp))
	buf.Write(h.MerkleRoot[:])
	writeUint32(buf, uint32(len(b.Content)))
	for _, stx := range b.Content {
		writeSignedTransaction(buf, stx)
	}
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeSignedTransaction(buf *bytes.Buffer, stx types.SignedTransaction) {
	tx := stx.Transaction
	writeUint32(buf, uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		buf.Write(in.Outpoint.TxID[:])
		writeUint32(buf, in.Outpoint.Index)
		writeBigInt(buf, in.Witness.Prime)
		writeBigInt(buf, in.Witness.Residue)
	}
	writeUint32(buf, uint32(len(tx.Outputs)))
	for _, out := range tx.Outputs {
		buf.Write(out.Recipient[:])
		writeFloat64(buf, out.Value)
		writeUint32(buf, out.Index)
	}
	writeUint32(buf, uint32(len(stx.Signature)))
	buf.Write(stx.Signature)
	writeUint32(buf, uint32(len(stx.PublicKey)))
	buf.Write(stx.PublicKey)
}
