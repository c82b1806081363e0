// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txgen implements the transaction generator: a single
// control-channel-driven loop, mirroring internal/miner's
// Paused/Running/ShuttingDown state machine, that bootstraps participant
// balances from the ICO file on the archival node and thereafter submits
// split-and-send transactions from whichever address this node represents.
// Grounded on the same Rust original's Context/Handle shape as the miner:
// main.rs wires up a transaction_ctx alongside the miner_ctx with the same
// start()/control-channel pattern, though the kept transaction.rs in this
// pack is an earlier stub that predates that wiring and doesn't itself
// contain the generator logic main.rs calls into.
package txgen

import (
	"math/rand"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/ico"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/types"
	"github.com/shellacc/shellnode/internal/wire"
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

// bootstrapValue is the fixed seed value credited to every participant
// address during archival bootstrap.
const bootstrapValue = 100

// controlSignal mirrors internal/miner's control message shape.
type controlSignal struct {
	start    bool
	lambdaUs uint64
	exit     bool
}

type operatingState int

const (
	statePaused operatingState = iota
	stateRunning
	stateShuttingDown
)

// BroadcastFunc fire-and-forgets a wire message to every connected peer.
type BroadcastFunc func(msg wire.Message)

// Handle lets other components control a running Generator.
type Handle struct {
	control chan controlSignal
}

// Start tells the generator to begin submitting transactions on the given
// tick interval, expressed in microseconds.
func (h *Handle) Start(lambdaUs uint64) {
	h.control <- controlSignal{start: true, lambdaUs: lambdaUs}
}

// Exit tells the generator to shut down at the next tick.
func (h *Handle) Exit() {
	h.control <- controlSignal{exit: true}
}

// Generator is the transaction-generator context.
type Generator struct {
	keyPair  *hash.KeyPair
	address  hash.Address
	archival bool
	icoPath  string

	chain     *chain.Chain
	mempool   *mempool.Mempool
	manager   *state.Manager
	broadcast BroadcastFunc

	control chan controlSignal
	state   operatingState
	lambda  uint64

	bootstrapped bool
	peers        []hash.Address
}

// New builds a paused Generator and the Handle used to control it.
func New(kp *hash.KeyPair, archival bool, icoPath string, c *chain.Chain, mp *mempool.Mempool, mgr *state.Manager, broadcast BroadcastFunc) (*Generator, *Handle) {
	ch := make(chan controlSignal, 8)
	g := &Generator{
		keyPair:   kp,
		address:   kp.Address(),
		archival:  archival,
		icoPath:   icoPath,
		chain:     c,
		mempool:   mp,
		manager:   mgr,
		broadcast: broadcast,
		control:   ch,
		state:     statePaused,
	}
	return g, &Handle{control: ch}
}

// Run executes the generator's main loop until it receives Exit.
func (g *Generator) Run() {
	log.Info("Transaction generator initialized into paused mode")
	for {
		switch g.state {
		case statePaused:
			sig := <-g.control
			g.handleControl(sig)
			continue
		case stateShuttingDown:
			log.Info("Transaction generator shutting down")
			return
		default:
			select {
			case sig := <-g.control:
				g.handleControl(sig)
			default:
			}
			if g.state == stateShuttingDown {
				continue
			}
		}

		g.tick()

		if g.lambda != 0 {
			time.Sleep(time.Duration(g.lambda) * time.Microsecond)
		}
	}
}

func (g *Generator) handleControl(sig controlSignal) {
	switch {
	case sig.exit:
		g.state = stateShuttingDown
	case sig.start:
		log.Infof("Transaction generator starting with lambda %d", sig.lambdaUs)
		g.state = stateRunning
		g.lambda = sig.lambdaUs
	}
}

func (g *Generator) tick() {
	if !g.bootstrapped {
		g.bootstrap()
		return
	}
	if g.archival {
		// The archival node only seeds the ledger; it does not submit
		// ordinary transactions of its own.
		return
	}
	g.submitOne()
}

// bootstrap runs on the generator's first tick: it reads the ICO file to
// learn every participant address, then on the archival node seeds the
// ledger with one output per participant.
func (g *Generator) bootstrap() {
	addrs, err := ico.ReadAll(g.icoPath)
	if err != nil {
		log.Errorf("txgen: failed to read ICO file: %v", err)
		return
	}
	g.peers = addrs

	if g.archival {
		txs := make([]types.SignedTransaction, 0, len(addrs))
		for _, addr := range addrs {
			tx := types.NewTransaction(nil, []types.Output{{Recipient: addr, Value: bootstrapValue}})
			txs = append(txs, types.SignedTransaction{Transaction: tx})
		}
		tip := g.chain.Tip()
		if len(txs) > 0 {
			if _, err := g.manager.ApplyBlock(tip, txs); err != nil {
				log.Errorf("txgen: failed to apply ICO bootstrap: %v", err)
				g.bootstrapped = true
				return
			}
		}
		if g.broadcast != nil {
			g.broadcast(g.stateWitnessForTip(tip))
		}
		log.Infof("txgen: bootstrapped %d participant balances from ICO file", len(addrs))
	}

	g.bootstrapped = true
}

func (g *Generator) stateWitnessForTip(tip hash.Hash) wire.NewStateWitness {
	states := g.manager.Store.AllStates()
	entries := make([]wire.StateEntry, 0, len(states))
	for op, rec := range states {
		entries = append(entries, wire.StateEntry{
			TxID:      op.TxID,
			OutIndex:  op.Index,
			Value:     rec.Value,
			Recipient: rec.Recipient,
			Prime:     rec.Prime,
			Witness:   rec.Witness,
		})
	}
	proofs := g.manager.Store.NewProofs(tip)
	wireProofs := make([]wire.AccumulatorAt, 0, len(proofs))
	for id, value := range proofs {
		wireProofs = append(wireProofs, wire.AccumulatorAt{BlockID: id, A: value})
	}
	return wire.NewStateWitness{
		States: entries,
		Proofs: wireProofs,
	}
}

// submitOne runs one steady-state tick: scan owned outputs, split one
// into send+change, and submit if it passes every admission check.
func (g *Generator) submitOne() {
	owned := g.manager.Store.AllStates()
	if len(owned) == 0 {
		return
	}

	dest, ok := g.chooseDestination()
	if !ok {
		return
	}

	for op, rec := range owned {
		if rec.Value <= 0 || rec.Prime == nil || rec.Witness == nil {
			continue
		}

		send := rec.Value / 2
		change := rec.Value - send

		input := types.Input{
			Outpoint: op,
			Witness:  types.Witness{Prime: rec.Prime, Residue: rec.Witness},
		}
		outputs := []types.Output{
			{Recipient: dest, Value: send},
			{Recipient: g.address, Value: change},
		}
		tx := types.NewTransaction([]types.Input{input}, outputs)
		stx := types.Sign(g.keyPair, tx)
		id := stx.ID()

		if g.mempool.Has(id) {
			continue
		}
		if !stx.VerifySignature() {
			continue
		}
		tip := g.chain.Tip()
		okSpend, known := g.manager.Store.NotDoubleSpent(tx.Inputs, tip)
		if !known || !okSpend {
			continue
		}

		g.mempool.Insert(stx)
		if g.broadcast != nil {
			g.broadcast(wire.Transactions{Transactions: []types.SignedTransaction{stx}})
		}
		log.Debugf("txgen: submitted transaction %s spending %s", id, op)
		return
	}
}

// chooseDestination picks a peer address other than this generator's own.
func (g *Generator) chooseDestination() (hash.Address, bool) {
	var candidates []hash.Address
	for _, p := range g.peers {
		if p != g.address {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return hash.Address{}, false
	}
	return candidates[rand.Intn(len(candidates))], true
}
