// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package gossip implements the protocol state machine: a Worker that
// handles inbound wire.Message values per peer, validates and applies
// blocks and transactions, and drains the orphan buffer after every
// accepted block. The Worker reacts to messages pulled off a queue
// rather than owning the transport itself, translating the Rust
// original's src/network/worker.rs message-handling match arms into Go's
// interface-based dispatch.
package gossip

import (
	"github.com/btcsuite/btclog"
	"github.com/decred/dcrd/lru"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/orphan"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/types"
	"github.com/shellacc/shellnode/internal/wire"
)

// announcedStateCacheSize bounds how many recent blocks' full state-witness
// announcements this worker remembers having already broadcast. Archival
// nodes re-announce the whole state set on every accepted block; this
// cache collapses duplicate announcements for a block this worker has
// already broadcast rather than re-sending the same set every time it is
// asked to (e.g. by a late-arriving orphan replay).
const announcedStateCacheSize = 4096

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

// ReplyFunc sends msg back to whichever peer sent the message currently
// being handled.
type ReplyFunc func(msg wire.Message)

// BroadcastFunc fire-and-forgets msg to every connected peer, without
// waiting for delivery.
type BroadcastFunc func(msg wire.Message)

// Worker is the protocol state machine: one Worker instance is shared by
// a fixed-size pool of goroutines, since all of its state lives behind
// the locks the chain/mempool/orphan/state packages already own.
type Worker struct {
	chain    *chain.Chain
	orphans  *orphan.Buffer
	manager  *state.Manager
	mempool  *mempool.Mempool
	archival bool

	announced *lru.Cache
}

// New builds a Worker over the given shared components.
func New(c *chain.Chain, orphans *orphan.Buffer, mgr *state.Manager, mp *mempool.Mempool) *Worker {
	return &Worker{
		chain:     c,
		orphans:   orphans,
		manager:   mgr,
		mempool:   mp,
		archival:  mgr.Store.IsArchival(),
		announced: lru.NewCache(announcedStateCacheSize),
	}
}

// Handle dispatches one inbound message by type. Lock acquisition inside
// Handle always follows chain -> orphan_buffer -> state(_witness) ->
// mempool -> accumulator, and no lock is held across a reply or
// broadcast send.
func (w *Worker) Handle(msg wire.Message, reply ReplyFunc, broadcast BroadcastFunc) {
	switch m := msg.(type) {
	case wire.Ping:
		reply(wire.Pong{Nonce: m.Nonce})

	case wire.Pong:
		log.Debugf("gossip: received pong(%s)", m.Nonce)

	case wire.NewBlockHashes:
		w.handleNewBlockHashes(m, reply)

	case wire.GetBlocks:
		w.handleGetBlocks(m, reply)

	case wire.Blocks:
		w.handleBlocks(m, broadcast)

	case wire.NewTransactionHashes:
		w.handleNewTransactionHashes(m, reply)

	case wire.GetTransactions:
		w.handleGetTransactions(m, reply)

	case wire.Transactions:
		w.handleTransactions(m, broadcast)

	case wire.NewStateWitness:
		w.handleNewStateWitness(m, broadcast)

	default:
		log.Warnf("gossip: unhandled message type %T", msg)
	}
}

func (w *Worker) handleNewBlockHashes(m wire.NewBlockHashes, reply ReplyFunc) {
	var missing []hash.Hash
	for _, h := range m.Hashes {
		if !w.chain.Contains(h) && !w.orphans.Contains(h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		reply(wire.GetBlocks{Hashes: missing})
	}
}

func (w *Worker) handleGetBlocks(m wire.GetBlocks, reply ReplyFunc) {
	var out []types.Block
	for _, h := range m.Hashes {
		entry, err := w.chain.Get(h)
		if err != nil {
			continue
		}
		out = append(out, entry.Block)
	}
	if len(out) > 0 {
		reply(wire.Blocks{Blocks: out})
	}
}

func (w *Worker) handleBlocks(m wire.Blocks, broadcast BroadcastFunc) {
	var accepted []hash.Hash
	for _, block := range m.Blocks {
		w.validateAndInsert(block, &accepted, broadcast)
	}
	if len(accepted) > 0 {
		broadcast(wire.NewBlockHashes{Hashes: w.chain.LongestChain()})
	}
}

// validateAndInsert runs the per-block validation pipeline and, on
// acceptance, drains and recursively validates any orphans that were
// waiting on this block.
func (w *Worker) validateAndInsert(block types.Block, accepted *[]hash.Hash, broadcast BroadcastFunc) {
	id := block.ID()
	if w.chain.Contains(id) {
		return
	}

	parentKnown := w.chain.Contains(block.Header.Parent)
	if !parentKnown {
		w.orphans.Insert(block.Header.Parent, block)
		log.Debugf("gossip: block %s buffered as orphan awaiting parent %s", id, block.Header.Parent)
		return
	}

	parentEntry, err := w.chain.Get(block.Header.Parent)
	if err != nil {
		return
	}
	tipDifficulty := parentEntry.Block.Header.Difficulty

	if !types.MeetsTarget(id, tipDifficulty) || block.Header.Difficulty != tipDifficulty {
		log.Debugf("gossip: dropping block %s failing PoW or difficulty check", id)
		return
	}

	for _, stx := range block.Content {
		if !stx.VerifySignature() {
			log.Debugf("gossip: dropping block %s containing invalid signature", id)
			return
		}
		ok, known := w.manager.Store.NotDoubleSpent(stx.Transaction.Inputs, block.Header.Parent)
		if !known || !ok {
			log.Debugf("gossip: dropping block %s failing not_double_spent against parent", id)
			return
		}
	}

	_, _, err = w.chain.Insert(block)
	if err != nil {
		log.Debugf("gossip: failed to insert validated block %s: %v", id, err)
		return
	}

	ids := make([]hash.Hash, len(block.Content))
	for i, stx := range block.Content {
		ids[i] = stx.ID()
	}
	w.mempool.RemoveConfirmed(ids)

	if w.archival {
		_, err := w.manager.ApplyBlock(id, block.Content)
		if err != nil {
			log.Errorf("gossip: failed to apply accepted block %s to state: %v", id, err)
		} else if !w.announced.Contains(id) {
			w.announced.Add(id)
			broadcast(w.stateWitnessFor(id))
		}
	}

	*accepted = append(*accepted, id)
	log.Infof("gossip: accepted block %s at height %d", id, parentEntry.Height+1)

	for _, child := range w.orphans.Drain(id) {
		w.validateAndInsert(child, accepted, broadcast)
	}
}

func (w *Worker) stateWitnessFor(blockID hash.Hash) wire.NewStateWitness {
	states := w.manager.Store.AllStates()
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
	proofs := w.manager.Store.NewProofs(blockID)
	wireProofs := make([]wire.AccumulatorAt, 0, len(proofs))
	for id, value := range proofs {
		wireProofs = append(wireProofs, wire.AccumulatorAt{BlockID: id, A: value})
	}
	return wire.NewStateWitness{
		States: entries,
		Proofs: wireProofs,
	}
}

func (w *Worker) handleNewTransactionHashes(m wire.NewTransactionHashes, reply ReplyFunc) {
	var missing []hash.Hash
	for _, h := range m.Hashes {
		if !w.mempool.Has(h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		reply(wire.GetTransactions{Hashes: missing})
	}
}

func (w *Worker) handleGetTransactions(m wire.GetTransactions, reply ReplyFunc) {
	var out []types.SignedTransaction
	for _, h := range m.Hashes {
		if stx, ok := w.mempool.Get(h); ok {
			out = append(out, stx)
		}
	}
	if len(out) > 0 {
		reply(wire.Transactions{Transactions: out})
	}
}

func (w *Worker) handleTransactions(m wire.Transactions, broadcast BroadcastFunc) {
	var newIDs []hash.Hash
	tip := w.chain.Tip()
	for _, stx := range m.Transactions {
		id := stx.ID()
		if w.mempool.Has(id) {
			continue
		}
		if !stx.VerifySignature() {
			log.Debugf("gossip: dropping transaction %s with invalid signature", id)
			continue
		}
		ok, known := w.manager.Store.NotDoubleSpent(stx.Transaction.Inputs, tip)
		if !known || !ok {
			log.Debugf("gossip: dropping double-spending or unverifiable transaction %s", id)
			continue
		}
		w.mempool.Insert(stx)
		newIDs = append(newIDs, id)
	}
	if len(newIDs) > 0 {
		broadcast(wire.NewTransactionHashes{Hashes: newIDs})
	}
}

func (w *Worker) handleNewStateWitness(m wire.NewStateWitness, broadcast BroadcastFunc) {
	if w.archival {
		return
	}

	changed := false
	for _, p := range m.Proofs {
		if _, known := w.manager.Store.AccumulatorAt(p.BlockID); !known {
			w.manager.Store.RecordAccumulator(p.BlockID, p.A)
			changed = true
		}
	}
	for _, e := range m.States {
		op := types.Outpoint{TxID: e.TxID, Index: e.OutIndex}
		w.manager.Store.AddState(op, e.Value, e.Recipient, e.Prime, e.Witness)
	}
	if changed || len(m.States) > 0 {
		broadcast(m)
	}
}
