// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command shellnoded is the composition root: it loads configuration,
// wires the chain/mempool/orphan/state core to a gossip worker pool, a
// miner, and a transaction generator, listens for peers on --p2p, dials
// --connect peers, and runs until SIGINT/SIGTERM.
//
// Load config, start logging, build the core, block on an interrupt
// channel, shut down. The read-only HTTP status API is out of scope for
// this daemon; it owns just the raw TCP peer transport the core's gossip
// worker consumes.
package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/chainparams"
	"github.com/shellacc/shellnode/internal/gossip"
	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/ico"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/miner"
	"github.com/shellacc/shellnode/internal/orphan"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/txgen"
	"github.com/shellacc/shellnode/internal/wire"
)

// defaultMiningLambdaUs is the microsecond delay between mining attempts
// this daemon starts its miner with -- a conservative default left to the
// operator to tune rather than a fixed protocol constant.
const defaultMiningLambdaUs = 200_000

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fatalf("shellnoded: %v", err)
	}

	initLogRotator("logs/shellnoded.log")
	initLoggers(cfg.logLevel())

	kp, err := hash.GenerateKeyPair()
	if err != nil {
		fatalf("shellnoded: failed to generate identity: %v", err)
	}
	local := kp.Address()

	if err := ico.Append(ico.DefaultFileName, local); err != nil {
		fatalf("shellnoded: failed to record address in %s: %v", ico.DefaultFileName, err)
	}
	existing, err := ico.ReadAll(ico.DefaultFileName)
	if err != nil {
		fatalf("shellnoded: failed to read %s: %v", ico.DefaultFileName, err)
	}
	archivalAddr, _ := ico.ArchivalAddress(existing)
	archival := archivalAddr == local

	params := chainparams.TestNet()

	c := chain.NewWithDifficulty(params.Difficulty)
	mp := mempool.New()
	orphans := orphan.New()
	mgr := state.NewManagerWithParams(archival, local, params.AccumulatorN, params.AccumulatorG)

	peers := newPeerSet()

	worker := gossip.New(c, orphans, mgr, mp)

	minr, minerHandle := miner.New(c, mp, mgr, func(longestChain []hash.Hash) {
		peers.broadcast(wire.NewBlockHashes{Hashes: longestChain})
	})
	gen, genHandle := txgen.New(kp, archival, ico.DefaultFileName, c, mp, mgr, peers.broadcast)

	listener, err := net.Listen("tcp", cfg.P2PAddr)
	if err != nil {
		fatalf("shellnoded: failed to listen on %s: %v", cfg.P2PAddr, err)
	}
	log.Infof("shellnoded: listening for peers on %s, archival=%v", cfg.P2PAddr, archival)

	inbound := make(chan inboundMsg, cfg.P2PWorkers*4)
	for i := 0; i < cfg.P2PWorkers; i++ {
		go gossipWorker(worker, inbound, peers)
	}

	go acceptLoop(listener, peers, inbound)
	for _, addr := range cfg.Connect {
		go dialPeer(addr, peers, inbound)
	}

	go minr.Run()
	go gen.Run()
	minerHandle.Start(defaultMiningLambdaUs)
	genHandle.Start(defaultMiningLambdaUs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shellnoded: shutting down")
	minerHandle.Exit()
	genHandle.Exit()
	listener.Close()
}

// inboundMsg pairs a decoded message with the peer it arrived from, so a
// gossip worker can reply directly to the sender as well as broadcast.
type inboundMsg struct {
	msg  wire.Message
	from *peer
}

func acceptLoop(listener net.Listener, peers *peerSet, inbound chan<- inboundMsg) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Debugf("shellnoded: accept loop ending: %v", err)
			return
		}
		p := newPeer(conn)
		peers.add(p)
		go p.writeLoop()
		go func() {
			p.readLoop(func(msg wire.Message, from *peer) {
				inbound <- inboundMsg{msg: msg, from: from}
			})
			peers.remove(p)
		}()
	}
}

func dialPeer(addr string, peers *peerSet, inbound chan<- inboundMsg) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		log.Warnf("shellnoded: failed to connect to %s: %v", addr, err)
		return
	}
	p := newPeer(conn)
	peers.add(p)
	go p.writeLoop()
	p.readLoop(func(msg wire.Message, from *peer) {
		inbound <- inboundMsg{msg: msg, from: from}
	})
	peers.remove(p)
}

// gossipWorker is one of cfg.P2PWorkers goroutines draining the shared
// inbound queue: a fixed pool of workers processing gossip messages in
// parallel.
func gossipWorker(w *gossip.Worker, inbound <-chan inboundMsg, peers *peerSet) {
	for m := range inbound {
		w.Handle(m.msg, m.from.reply, peers.broadcast)
	}
}
