// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package accumulator implements an RSA-style universal accumulator: a
// short value A = g^X mod N summarizing the live UTXO set, with
// per-output witnesses w = g^(X/p) mod N.
//
// Package-per-concern, with a Config-less constructor and an internal map
// protected by its own mutex, as package mempool also does. Grounded on
// the Rust original's src/accumulator.rs, whose hand-rolled
// Fermat/trial-division primality test and inconsistent modular reduction
// we replace here: every accumulator computation reduces mod N, and
// primality uses math/big's Miller-Rabin-backed ProbablyPrime instead of
// a hand-rolled tester.
package accumulator

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/shellerr"
)

// primeBits is the bit width of accumulator primes. This is test-grade,
// not a production security parameter -- small enough that witnesses are
// cheap to compute and verify, which is the point of a demo accumulator.
const primeBits = 16

// modulusFactorBits is the bit width of each of the two factors of N.
const modulusFactorBits = 64

// maxPrimeAllocAttempts bounds hash_to_prime's retry loop before it gives
// up with AccumulatorExhausted.
const maxPrimeAllocAttempts = 4096

// Outpoint identifies a transaction output: (producing tx id, output
// index). Defined locally to avoid an import cycle with package types;
// package types' Outpoint is bit-for-bit identical and convertible.
type Outpoint struct {
	TxID  hash.Hash
	Index uint32
}

// entry is the per-live-outpoint bookkeeping the accumulator keeps: its
// value, recipient, and allocated prime.
type entry struct {
	Value     float64
	Recipient hash.Address
	Prime     *big.Int
}

// Accumulator is the RSA-style accumulator over the live outpoint set. It
// is a single-writer resource: callers serialize access with their own
// lock, but Accumulator also protects itself so that read-only callers
// (Witness, A) never race a concurrent apply.
type Accumulator struct {
	mu sync.RWMutex

	n *big.Int // modulus N = p*q
	g *big.Int // generator

	live    map[Outpoint]*entry
	allocated map[string]struct{} // prime.String() -> present, enforces injectivity

	a *big.Int // current accumulator value A = g^X mod N
}

// New runs Setup: fresh primes p, q, modulus N = p*q, and a small
// generator g. Setup is redone whenever accumulator state is rebuilt from
// scratch.
func New() (*Accumulator, error) {
	p, err := randPrime(modulusFactorBits)
	if err != nil {
		return nil, err
	}
	q, err := randPrime(modulusFactorBits)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).Mul(p, q)

	g, err := randPrime(primeBits)
	if err != nil {
		return nil, err
	}
	g.Mod(g, n)
	if g.Sign() == 0 {
		g.SetInt64(2)
	}

	return &Accumulator{
		n:         n,
		g:         g,
		live:      make(map[Outpoint]*entry),
		allocated: make(map[string]struct{}),
		a:         new(big.Int).Set(g), // X = 1 initially (empty product)
	}, nil
}

func randPrime(bits int) (*big.Int, error) {
	return rand.Prime(rand.Reader, bits)
}

// NewWithParams builds an Accumulator over a network-wide modulus N and
// generator g supplied by the caller instead of running Setup locally.
// Verifying a witness only ever needs N and g, never the factors of N, so
// every node in a deployment can share the same (N, g) pair -- carried as
// a chainparams constant, the same way genesis difficulty is -- without
// any node learning the factorization. See DESIGN.md's accumulator-
// modulus-sharing resolution.
func NewWithParams(n, g *big.Int) *Accumulator {
	return &Accumulator{
		n:         new(big.Int).Set(n),
		g:         new(big.Int).Set(g),
		live:      make(map[Outpoint]*entry),
		allocated: make(map[string]struct{}),
		a:         new(big.Int).Set(g),
	}
}

// A returns the current accumulator value, reduced mod N.
func (ac *Accumulator) A() *big.Int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return new(big.Int).Set(ac.a)
}

// N returns the modulus.
func (ac *Accumulator) N() *big.Int {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	return new(big.Int).Set(ac.n)
}

// HashToPrime allocates a fresh prime for outpoint op, distinct from every
// currently-allocated prime, and records (value, recipient, prime). It
// retries up to maxPrimeAllocAttempts times before returning
// AccumulatorExhausted.
func (ac *Accumulator) HashToPrime(op Outpoint, value float64, recipient hash.Address) (*big.Int, error) {
	ac.mu.Lock()
	defer ac.mu.Unlock()

	for attempt := 0; attempt < maxPrimeAllocAttempts; attempt++ {
		candidate, err := randPrime(primeBits)
		if err != nil {
			return nil, err
		}
		key := candidate.String()
		if _, taken := ac.allocated[key]; taken {
			continue
		}
		ac.allocated[key] = struct{}{}
		ac.live[op] = &entry{Value: value, Recipient: recipient, Prime: candidate}
		return new(big.Int).Set(candidate), nil
	}
	return nil, shellerr.Newf(shellerr.AccumulatorExhausted,
		"accumulator: could not allocate a distinct %d-bit prime within %d attempts",
		primeBits, maxPrimeAllocAttempts)
}

// recomputeLocked recomputes A = g^X mod N where X is the product of every
// live prime. Caller must hold ac.mu.
func (ac *Accumulator) recomputeLocked() {
	x := big.NewInt(1)
	for _, e := range ac.live {
		x.Mul(x, e.Prime)
	}
	ac.a = new(big.Int).Exp(ac.g, x, ac.n)
}

// Accumulate recomputes and returns A = g^X mod N over all live outpoints.
func (ac *Accumulator) Accumulate() *big.Int {
	ac.mu.Lock()
	defer ac.mu.Unlock()
	ac.recomputeLocked()
	return new(big.Int).Set(ac.a)
}

// Witness returns g^(X / p) mod N for the live outpoint op, i.e. the
// product of every other live prime exponentiated into g. Returns false if
// op is not currently live.
func (ac *Accumulator) Witness(op Outpoint) (*big.Int, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()

	if _, ok := ac.live[op]; !ok {
		return nil, false
	}

	x := big.NewInt(1)
	for other, e := range ac.live {
		if other == op {
			continue
		}
		x.Mul(x, e.Prime)
	}
	return new(big.Int).Exp(ac.g, x, ac.n), true
}

// Verify reports whether witness^prime == A (mod N), the membership check
// a caller runs against any outpoint's witness.
func Verify(witness, prime, a, n *big.Int) bool {
	check := new(big.Int).Exp(witness, prime, n)
	return check.Cmp(new(big.Int).Mod(a, n)) == 0
}

// remove deletes a live outpoint and frees its prime, without
// recomputing A (callers batch removals and additions inside ApplyBlock
// before a single recompute).
func (ac *Accumulator) remove(op Outpoint) {
	e, ok := ac.live[op]
	if !ok {
		return
	}
	delete(ac.allocated, e.Prime.String())
	delete(ac.live, op)
}

// Input is the minimal shape ApplyBlock needs from a confirmed
// transaction's input: the outpoint it spends.
type Input struct {
	Outpoint Outpoint
}

// Output is the minimal shape ApplyBlock needs from a confirmed
// transaction's output: its value and recipient. TxID/Index are supplied
// by the caller as the Outpoint key since a transaction's own ID is only
// known once fully serialized.
type Output struct {
	Value     float64
	Recipient hash.Address
}

// ConfirmedTx is one transaction confirmed by a block, reduced to the
// shape ApplyBlock needs.
type ConfirmedTx struct {
	TxID    hash.Hash
	Inputs  []Input
	Outputs []Output
}

// ApplyResult reports the new A and the witness ApplyBlock re-derived for
// every live outpoint (not only the outputs the block created), so callers
// can feed the state-witness store.
type ApplyResult struct {
	A         *big.Int
	NewProofs map[Outpoint]*big.Int // outpoint -> witness
}

// ApplyBlock applies a confirmed block's transactions to the live set:
// first it removes every spent input's outpoint across all transactions
// and frees its prime, then, in transaction and output order, allocates a
// fresh prime for each output and inserts its tuple. Afterward it
// recomputes A and re-derives witnesses for every live outpoint.
func (ac *Accumulator) ApplyBlock(txs []ConfirmedTx) (*ApplyResult, error) {
	ac.mu.Lock()

	for _, tx := range txs {
		for _, in := range tx.Inputs {
			ac.remove(in.Outpoint)
		}
	}

	type pending struct {
		op        Outpoint
		value     float64
		recipient hash.Address
	}
	var toAllocate []pending
	for _, tx := range txs {
		for idx, out := range tx.Outputs {
			toAllocate = append(toAllocate, pending{
				op:        Outpoint{TxID: tx.TxID, Index: uint32(idx)},
				value:     out.Value,
				recipient: out.Recipient,
			})
		}
	}
	ac.mu.Unlock()

	for _, p := range toAllocate {
		if _, err := ac.HashToPrime(p.op, p.value, p.recipient); err != nil {
			return nil, err
		}
	}

	ac.mu.Lock()
	ac.recomputeLocked()
	a := new(big.Int).Set(ac.a)
	proofs := make(map[Outpoint]*big.Int, len(ac.live))
	for op := range ac.live {
		x := big.NewInt(1)
		for other, e := range ac.live {
			if other == op {
				continue
			}
			x.Mul(x, e.Prime)
		}
		proofs[op] = new(big.Int).Exp(ac.g, x, ac.n)
	}
	ac.mu.Unlock()

	return &ApplyResult{A: a, NewProofs: proofs}, nil
}

// Prime returns the allocated prime for a live outpoint, if any.
func (ac *Accumulator) Prime(op Outpoint) (*big.Int, bool) {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	e, ok := ac.live[op]
	if !ok {
		return nil, false
	}
	return new(big.Int).Set(e.Prime), true
}

// LivePrimesDisjoint reports whether every live outpoint has a distinct
// prime; this is an invariant checked by tests, not enforced at runtime
// beyond HashToPrime's own bookkeeping.
func (ac *Accumulator) LivePrimesDisjoint() bool {
	ac.mu.RLock()
	defer ac.mu.RUnlock()
	seen := make(map[string]struct{}, len(ac.live))
	for _, e := range ac.live {
		key := e.Prime.String()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
