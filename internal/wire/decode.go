// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/shellerr"
	"github.com/shellacc/shellnode/internal/types"
)

// maxVectorLen bounds any length-prefixed vector this package will
// allocate for while decoding, so a malformed length field cannot be used
// to force an unbounded allocation before the data is even read.
const maxVectorLen = 1 << 20

func fbits(v float64) uint64 { return math.Float64bits(v) }

func readUint32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return binary.BigEndian.Uint32(tmp[:]), nil
}

func readUint64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return binary.BigEndian.Uint64(tmp[:]), nil
}

func readFloat64(r *bytes.Reader) (float64, error) {
	bits, err := readUint64(r)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n > maxVectorLen {
		return "", shellerr.Newf(shellerr.DecodeError, "wire: string length %d exceeds maximum", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return string(buf), nil
}

func readHashInto(r *bytes.Reader, h *hash.Hash) error {
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return nil
}

func readAddressInto(r *bytes.Reader, a *hash.Address) error {
	if _, err := io.ReadFull(r, a[:]); err != nil {
		return shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return nil
}

func readHashes(r *bytes.Reader) ([]hash.Hash, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: hash vector length %d exceeds maximum", n)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]hash.Hash, n)
	for i := range out {
		if err := readHashInto(r, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readBigInt(r *bytes.Reader) (*big.Int, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if n > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: bigint length %d exceeds maximum", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}
	return new(big.Int).SetBytes(buf), nil
}

func readSignedTransaction(r *bytes.Reader) (types.SignedTransaction, error) {
	var tx types.Transaction

	inCount, err := readUint32(r)
	if err != nil {
		return types.SignedTransaction{}, err
	}
	if inCount > maxVectorLen {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: input count %d exceeds maximum", inCount)
	}
	tx.Inputs = make([]types.Input, inCount)
	for i := range tx.Inputs {
		if err := readHashInto(r, &tx.Inputs[i].Outpoint.TxID); err != nil {
			return types.SignedTransaction{}, err
		}
		idx, err := readUint32(r)
		if err != nil {
			return types.SignedTransaction{}, err
		}
		tx.Inputs[i].Outpoint.Index = idx
		prime, err := readBigInt(r)
		if err != nil {
			return types.SignedTransaction{}, err
		}
		tx.Inputs[i].Witness.Prime = prime
		residue, err := readBigInt(r)
		if err != nil {
			return types.SignedTransaction{}, err
		}
		tx.Inputs[i].Witness.Residue = residue
	}

	outCount, err := readUint32(r)
	if err != nil {
		return types.SignedTransaction{}, err
	}
	if outCount > maxVectorLen {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: output count %d exceeds maximum", outCount)
	}
	tx.Outputs = make([]types.Output, outCount)
	for i := range tx.Outputs {
		if err := readAddressInto(r, &tx.Outputs[i].Recipient); err != nil {
			return types.SignedTransaction{}, err
		}
		val, err := readFloat64(r)
		if err != nil {
			return types.SignedTransaction{}, err
		}
		tx.Outputs[i].Value = val
		idx, err := readUint32(r)
		if err != nil {
			return types.SignedTransaction{}, err
		}
		tx.Outputs[i].Index = idx
	}

	sigLen, err := readUint32(r)
	if err != nil {
		return types.SignedTransaction{}, err
	}
	if sigLen > maxVectorLen {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: signature length %d exceeds maximum", sigLen)
	}
	sig := make([]byte, sigLen)
	if _, err := io.ReadFull(r, sig); err != nil {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}

	pkLen, err := readUint32(r)
	if err != nil {
		return types.SignedTransaction{}, err
	}
	if pkLen > maxVectorLen {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: public key length %d exceeds maximum", pkLen)
	}
	pk := make([]byte, pkLen)
	if _, err := io.ReadFull(r, pk); err != nil {
		return types.SignedTransaction{}, shellerr.Newf(shellerr.DecodeError, "wire: %v", err)
	}

	return types.SignedTransaction{Transaction: tx, Signature: sig, PublicKey: pk}, nil
}

func readSignedTransactions(r *bytes.Reader) ([]types.SignedTransaction, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: transaction count %d exceeds maximum", n)
	}
	out := make([]types.SignedTransaction, n)
	for i := range out {
		stx, err := readSignedTransaction(r)
		if err != nil {
			return nil, err
		}
		out[i] = stx
	}
	return out, nil
}

func readBlock(r *bytes.Reader) (types.Block, error) {
	var h types.Header
	if err := readHashInto(r, &h.Parent); err != nil {
		return types.Block{}, err
	}
	nonce, err := readUint32(r)
	if err != nil {
		return types.Block{}, err
	}
	h.Nonce = nonce
	if err := readHashInto(r, &h.Difficulty); err != nil {
		return types.Block{}, err
	}
	ts, err := readUint64(r)
	if err != nil {
		return types.Block{}, err
	}
	h.Timestamp = int64(ts)
	if err := readHashInto(r, &h.MerkleRoot); err != nil {
		return types.Block{}, err
	}

	txs, err := readSignedTransactions(r)
	if err != nil {
		return types.Block{}, err
	}
	return types.Block{Header: h, Content: txs}, nil
}

func readBlocks(r *bytes.Reader) ([]types.Block, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > maxVectorLen {
		return nil, shellerr.Newf(shellerr.DecodeError, "wire: block count %d exceeds maximum", n)
	}
	out := make([]types.Block, n)
	for i := range out {
		b, err := readBlock(r)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}
