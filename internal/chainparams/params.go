// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainparams holds the handful of values every node in a
// deployment must agree on before the wire protocol means anything: the
// genesis difficulty target, and the accumulator modulus N and
// generator g.
//
// These are carried as a Params struct rather than a per-process computed
// value. The NewStateWitness wire message never carries N, so a
// non-archival node cannot learn it from gossip; treating (N, g) as a
// fixed constant resolves that gap the same way chain.NewWithDifficulty
// already treats genesis difficulty as a shared constant rather than
// something each node invents for itself. Verifying a witness only needs
// N and g, never the factorization, so sharing them publicly here costs
// nothing: the RSA "trustless setup" assumption is about no single party
// retaining knowledge of the factors, not about N being secret.
package chainparams

import (
	"math/big"

	"github.com/shellacc/shellnode/internal/hash"
)

// Params is the set of genesis-level constants a shellnoded process loads
// before it can interoperate with any peer.
type Params struct {
	// Difficulty is the initial PoW target every node's genesis entry
	// declares.
	Difficulty hash.Hash

	// AccumulatorN and AccumulatorG are the RSA accumulator's modulus and
	// generator, shared network-wide.
	AccumulatorN *big.Int
	AccumulatorG *big.Int
}

// testNetDifficulty is a deliberately easy target (leading zero byte)
// so a single-process test network mines blocks quickly.
var testNetDifficulty = hash.Hash{
	0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

// testNetModulusHex and testNetGeneratorHex fix a 256-bit modulus and a
// 64-bit generator below it. Like
// testNetDifficulty, this is test-grade, not a production security
// parameter -- a real deployment would derive these from an MPC
// ceremony instead of a literal constant.
const (
	testNetModulusHex   = "c2b1e1f4a7d3c5e9b8f6a4d2c1e3f5a7b9d8c6e4f2a1b3c5d7e9f1a3b5c7d9eb"
	testNetGeneratorHex = "5f3759df7b4a2c6e"
)

// TestNet returns the fixed parameters this module's development network
// uses. A production deployment would instead load Params from a
// ceremony-produced file; TestNet exists so cmd/shellnoded has a usable
// default without one.
func TestNet() *Params {
	n, ok := new(big.Int).SetString(testNetModulusHex, 16)
	if !ok {
		panic("chainparams: invalid testNetModulusHex constant")
	}
	g, ok := new(big.Int).SetString(testNetGeneratorHex, 16)
	if !ok {
		panic("chainparams: invalid testNetGeneratorHex constant")
	}
	return &Params{
		Difficulty:   testNetDifficulty,
		AccumulatorN: n,
		AccumulatorG: g,
	}
}
