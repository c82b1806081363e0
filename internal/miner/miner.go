// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package miner implements the block-assembly state machine:
// {Paused, Running(lambda), ShuttingDown}, driven by Start/Exit control
// messages on a single-producer channel, reading mempool transactions
// and assembling proof-of-work blocks.
package miner

import (
	"math/rand"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/merkle"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/types"
)

// log is a logger that is initialized with no output filters. This means
// the package will not perform any logging by default until the caller
// requests it.
var log btclog.Logger

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

func init() {
	DisableLog()
}

// DisableLog disables all library log output. Logging output is disabled
// by default until either UseLogger or SetLogWriter are called.
func DisableLog() {
	log = btclog.Disabled
}

// MaxTxPerBlock bounds how many mempool transactions the miner collects
// into a single candidate block.
const MaxTxPerBlock = 5

// fairnessDelay is the fixed 1ms delay added on top of lambda
// microseconds between mining attempts.
const fairnessDelay = time.Millisecond

// controlSignal is the miner's single-producer control message.
type controlSignal struct {
	start    bool
	lambdaUs uint64
	exit     bool
}

// operatingState mirrors the Rust original's OperatingState enum.
type operatingState int

const (
	statePaused operatingState = iota
	stateRunning
	stateShuttingDown
)

// BroadcastFunc is called with the longest chain after a block is mined,
// so the gossip worker can announce NewBlockHashes without the miner
// importing the gossip package directly.
type BroadcastFunc func(longestChain []hash.Hash)

// Handle lets other components control a running miner.
type Handle struct {
	control chan controlSignal
}

// Start tells the miner to begin (or continue) mining with the given
// inter-block delay in microseconds.
func (h *Handle) Start(lambdaUs uint64) {
	h.control <- controlSignal{start: true, lambdaUs: lambdaUs}
}

// Exit tells the miner to shut down at the next tick.
func (h *Handle) Exit() {
	h.control <- controlSignal{exit: true}
}

// Miner is the mining context: the state machine reading the chain,
// mempool, and state manager it was built with.
type Miner struct {
	chain     *chain.Chain
	mempool   *mempool.Mempool
	manager   *state.Manager
	broadcast BroadcastFunc

	control chan controlSignal
	state   operatingState
	lambda  uint64
}

// New builds a paused Miner and the Handle used to control it.
func New(c *chain.Chain, mp *mempool.Mempool, mgr *state.Manager, broadcast BroadcastFunc) (*Miner, *Handle) {
	ch := make(chan controlSignal, 8)
	m := &Miner{
		chain:     c,
		mempool:   mp,
		manager:   mgr,
		broadcast: broadcast,
		control:   ch,
		state:     statePaused,
	}
	return m, &Handle{control: ch}
}

// Run executes the miner's main loop until it receives Exit. Intended to
// be run in its own goroutine, mirroring the Rust original spawning a
// dedicated "miner" OS thread.
func (m *Miner) Run() {
	log.Info("Miner initialized into paused mode")
	for {
		switch m.state {
		case statePaused:
			sig := <-m.control
			m.handleControl(sig)
			continue
		case stateShuttingDown:
			log.Info("Miner shutting down")
			return
		default:
			select {
			case sig := <-m.control:
				m.handleControl(sig)
			default:
			}
			if m.state == stateShuttingDown {
				continue
			}
		}

		m.tick()

		if m.lambda != 0 {
			time.Sleep(time.Duration(m.lambda) * time.Microsecond)
		}
		time.Sleep(fairnessDelay)
	}
}

func (m *Miner) handleControl(sig controlSignal) {
	switch {
	case sig.exit:
		m.state = stateShuttingDown
	case sig.start:
		log.Infof("Miner starting in continuous mode with lambda %d", sig.lambdaUs)
		m.state = stateRunning
		m.lambda = sig.lambdaUs
	}
}

// tick implements one attempt at collecting mempool transactions into a
// candidate block and mining it.
func (m *Miner) tick() {
	if m.mempool.Len() == 0 {
		return
	}

	tip := m.chain.Tip()
	difficulty := m.chain.DifficultyOfTip()

	var collected []types.SignedTransaction
	m.mempool.Iterate(func(stx types.SignedTransaction) {
		if len(collected) >= MaxTxPerBlock {
			return
		}
		if !stx.VerifySignature() {
			log.Debugf("miner: dropping tx %s with invalid signature", stx.ID())
			return
		}
		ok, known := m.manager.Store.NotDoubleSpent(stx.Transaction.Inputs, tip)
		if !known {
			log.Debugf("miner: deferring tx %s, A at tip unknown", stx.ID())
			return
		}
		if !ok {
			log.Debugf("miner: dropping double-spending tx %s", stx.ID())
			return
		}
		collected = append(collected, stx)
	})

	if len(collected) == 0 {
		return
	}

	leaves := make([]hash.Hashable, len(collected))
	for i, stx := range collected {
		leaves[i] = stx
	}
	root := merkle.New(leaves).Root()

	header := types.Header{
		Parent:     tip,
		Nonce:      rand.Uint32(),
		Difficulty: difficulty,
		Timestamp:  time.Now().UnixMilli(),
		MerkleRoot: root,
	}
	block := types.Block{Header: header, Content: collected}

	if !block.MeetsDifficulty() {
		return
	}

	id, height, err := m.chain.Insert(block)
	if err != nil {
		log.Debugf("miner: failed to insert mined block: %v", err)
		return
	}

	ids := make([]hash.Hash, len(collected))
	for i, stx := range collected {
		ids[i] = stx.ID()
	}
	m.mempool.RemoveConfirmed(ids)

	if _, err := m.manager.ApplyBlock(id, collected); err != nil {
		log.Errorf("miner: failed to apply mined block %s to state: %v", id, err)
	}

	log.Infof("mined block %s at height %d with %d transactions", id, height, len(collected))

	if m.broadcast != nil {
		m.broadcast(m.chain.LongestChain())
	}
}
