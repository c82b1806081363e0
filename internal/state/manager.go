// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package state

import (
	"math/big"

	"github.com/shellacc/shellnode/internal/accumulator"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

// Manager wires a Store to the Accumulator that backs it, layering a
// higher-level operation set over the raw store.
type Manager struct {
	Store       *Store
	Accumulator *accumulator.Accumulator
}

// NewManager builds a Manager over a fresh accumulator and a Store with
// the given archival/local settings.
func NewManager(archival bool, local hash.Address) (*Manager, error) {
	acc, err := accumulator.New()
	if err != nil {
		return nil, err
	}
	return &Manager{
		Store:       New(archival, local, acc.N()),
		Accumulator: acc,
	}, nil
}

// NewManagerWithModulus builds a Manager whose Store verifies witnesses
// against a modulus supplied by the caller rather than a freshly generated
// one; NewStateWitness messages do not carry N. Accumulator is left nil:
// only the node that actually accumulates calls Manager.ApplyBlock, and
// that responsibility is restricted to archival nodes.
func NewManagerWithModulus(archival bool, local hash.Address, n *big.Int) *Manager {
	return &Manager{Store: New(archival, local, n)}
}

// NewManagerWithParams builds a Manager whose Accumulator is seeded from
// network-wide parameters (see package chainparams) instead of a freshly
// generated modulus, so that every node -- archival or not -- verifies
// witnesses against the same N. Unlike NewManagerWithModulus, the
// Accumulator is live and usable by ApplyBlock: this is the constructor
// an archival node uses.
func NewManagerWithParams(archival bool, local hash.Address, n, g *big.Int) *Manager {
	acc := accumulator.NewWithParams(n, g)
	return &Manager{
		Store:       New(archival, local, acc.N()),
		Accumulator: acc,
	}
}

// ApplyBlock applies a block's confirmed transactions to the accumulator,
// then merges the resulting witnesses into the Store (respecting the
// archival/local-address restriction) and records the new A.
func (m *Manager) ApplyBlock(blockID hash.Hash, txs []types.SignedTransaction) (*accumulator.ApplyResult, error) {
	confirmed := make([]accumulator.ConfirmedTx, 0, len(txs))
	for _, stx := range txs {
		tx := stx.Transaction
		inputs := make([]accumulator.Input, len(tx.Inputs))
		for i, in := range tx.Inputs {
			inputs[i] = accumulator.Input{Outpoint: in.Outpoint.AccumulatorOutpoint()}
		}
		outputs := make([]accumulator.Output, len(tx.Outputs))
		for i, out := range tx.Outputs {
			outputs[i] = accumulator.Output{Value: out.Value, Recipient: out.Recipient}
		}
		confirmed = append(confirmed, accumulator.ConfirmedTx{
			TxID:    stx.ID(),
			Inputs:  inputs,
			Outputs: outputs,
		})
	}

	result, err := m.Accumulator.ApplyBlock(confirmed)
	if err != nil {
		return nil, err
	}

	for _, tx := range txs {
		for _, in := range tx.Transaction.Inputs {
			m.Store.DeleteState(in.Outpoint)
		}
	}

	// Every live outpoint's witness changes whenever the accumulator's
	// exponent changes, so refresh the whole kept set, not just this
	// block's new outputs -- a witness computed against a stale A would
	// fail NotDoubleSpent on the very next block.
	for accOp, witness := range result.NewProofs {
		op := types.Outpoint{TxID: accOp.TxID, Index: accOp.Index}
		if existing, ok := m.Store.Get(op); ok {
			m.Store.AddState(op, existing.Value, existing.Recipient, existing.Prime, witness)
			continue
		}
	}
	for _, tx := range txs {
		for idx, out := range tx.Transaction.Outputs {
			op := types.Outpoint{TxID: tx.ID(), Index: uint32(idx)}
			accOp := op.AccumulatorOutpoint()
			witness, ok := result.NewProofs[accOp]
			if !ok {
				continue
			}
			prime, _ := m.Accumulator.Prime(accOp)
			m.Store.AddState(op, out.Value, out.Recipient, prime, witness)
		}
	}

	m.Store.RecordAccumulator(blockID, result.A)
	log.Debugf("state: applied block %s, %d confirmed transactions", blockID, len(txs))
	return result, nil
}
