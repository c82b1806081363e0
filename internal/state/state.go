// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package state implements the state / state-witness store: archival
// nodes hold the full outpoint map, non-archival nodes hold only entries
// addressed to the local key plus every accumulator value they have
// observed. manager.go wraps this file's Store with the higher-level
// operations a caller needs.
package state

import (
	"math/big"
	"sync"

	"github.com/shellacc/shellnode/internal/accumulator"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

// Record is one live outpoint's witness bookkeeping.
type Record struct {
	Value     float64
	Recipient hash.Address
	Prime     *big.Int
	Witness   *big.Int
}

// Store is the state / state-witness store. Archival=false restricts
// AddState to entries addressed to Local.
type Store struct {
	mu sync.RWMutex

	archival bool
	local    hash.Address

	states map[types.Outpoint]Record
	aAt    map[hash.Hash]*big.Int // block ID -> A at that block
	n      *big.Int               // accumulator modulus, needed for not_double_spent checks
}

// New returns an empty Store. When archival is false, AddState silently
// ignores any outpoint not addressed to local.
func New(archival bool, local hash.Address, modulus *big.Int) *Store {
	return &Store{
		archival: archival,
		local:    local,
		states:   make(map[types.Outpoint]Record),
		aAt:      make(map[hash.Hash]*big.Int),
		n:        new(big.Int).Set(modulus),
	}
}

// IsArchival reports whether this store holds the full outpoint map.
func (s *Store) IsArchival() bool {
	return s.archival
}

// AddState records a witness for outpoint. Non-archival nodes only keep
// entries addressed to their own address; archival nodes keep everything.
func (s *Store) AddState(op types.Outpoint, value float64, recipient hash.Address, prime, witness *big.Int) {
	if !s.archival && recipient != s.local {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[op] = Record{Value: value, Recipient: recipient, Prime: prime, Witness: witness}
}

// DeleteState removes a spent outpoint's record, if present.
func (s *Store) DeleteState(op types.Outpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, op)
}

// RecordAccumulator records the accumulator value observed at blockID.
// Both archival and non-archival nodes always do this.
func (s *Store) RecordAccumulator(blockID hash.Hash, a *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aAt[blockID] = new(big.Int).Set(a)
}

// AccumulatorAt returns the recorded A for blockID, if known locally.
func (s *Store) AccumulatorAt(blockID hash.Hash) (*big.Int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.aAt[blockID]
	return a, ok
}

// NotDoubleSpent checks, for each input's witness (prime, residue),
// whether witness^prime == A (mod N) against the A recorded for atBlock,
// accepting iff every input passes. If A for atBlock is not known
// locally, the second return value is false and the caller must defer
// the decision.
func (s *Store) NotDoubleSpent(inputs []types.Input, atBlock hash.Hash) (ok bool, known bool) {
	if len(inputs) == 0 {
		// Nothing to check a witness against; a transaction that spends
		// no outpoints cannot double-spend one.
		return true, true
	}
	a, known := s.AccumulatorAt(atBlock)
	if !known {
		return false, false
	}
	for _, in := range inputs {
		if in.Witness.Prime == nil || in.Witness.Residue == nil {
			return false, true
		}
		if !accumulator.Verify(in.Witness.Residue, in.Witness.Prime, a, s.n) {
			return false, true
		}
	}
	return true, true
}

// AllStates returns every locally-held record, for outbound gossip.
func (s *Store) AllStates() map[types.Outpoint]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.Outpoint]Record, len(s.states))
	for op, rec := range s.states {
		out[op] = rec
	}
	return out
}

// NewProofs returns the accumulator value this node recorded for blockID,
// keyed by blockID, for inclusion in the announcement a caller sends out
// right after accepting that block. Returns an empty map if blockID's A is
// not recorded (callers always record it before calling this).
func (s *Store) NewProofs(blockID hash.Hash) map[hash.Hash]*big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[hash.Hash]*big.Int, 1)
	if a, ok := s.aAt[blockID]; ok {
		out[blockID] = new(big.Int).Set(a)
	}
	return out
}

// Get returns the locally-held record for op, if any.
func (s *Store) Get(op types.Outpoint) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.states[op]
	return r, ok
}
