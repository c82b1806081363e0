// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/shellacc/shellnode/internal/chain"
	"github.com/shellacc/shellnode/internal/gossip"
	"github.com/shellacc/shellnode/internal/mempool"
	"github.com/shellacc/shellnode/internal/miner"
	"github.com/shellacc/shellnode/internal/orphan"
	"github.com/shellacc/shellnode/internal/state"
	"github.com/shellacc/shellnode/internal/txgen"
)

// logRotator writes logs to stdout and a size-rotated file in the current
// working directory, using jrick/logrotate for the rotation.
var logRotator *rotator.Rotator

// log is this daemon's own subsystem logger, for connection-level events
// that don't belong to any of the core packages (accept/dial, shutdown).
var log btclog.Logger = btclog.Disabled

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return logRotator.Write(p)
}

// initLogRotator opens (creating if necessary) the rotating log file at
// logFile.
func initLogRotator(logFile string) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		fatalf("shellnoded: failed to create log directory: %v", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fatalf("shellnoded: failed to create log rotator: %v", err)
	}
	logRotator = r
}

// subsystemLoggers is every package-level logger this daemon wires up,
// each named with an all-caps short subsystem tag.
type subsystemLoggers struct {
	chain   btclog.Logger
	mempool btclog.Logger
	orphan  btclog.Logger
	state   btclog.Logger
	miner   btclog.Logger
	gossip  btclog.Logger
	txgen   btclog.Logger
}

func initLoggers(level string) subsystemLoggers {
	backend := btclog.NewBackend(logWriter{})
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		lvl = btclog.LevelInfo
	}

	newLogger := func(tag string) btclog.Logger {
		l := backend.Logger(tag)
		l.SetLevel(lvl)
		return l
	}

	loggers := subsystemLoggers{
		chain:   newLogger("CHAIN"),
		mempool: newLogger("MPOL"),
		orphan:  newLogger("ORPH"),
		state:   newLogger("STAT"),
		miner:   newLogger("MINR"),
		gossip:  newLogger("GSIP"),
		txgen:   newLogger("TXGN"),
	}
	log = newLogger("SHND")

	chain.UseLogger(loggers.chain)
	mempool.UseLogger(loggers.mempool)
	orphan.UseLogger(loggers.orphan)
	state.UseLogger(loggers.state)
	miner.UseLogger(loggers.miner)
	gossip.UseLogger(loggers.gossip)
	txgen.UseLogger(loggers.txgen)

	return loggers
}

func (l subsystemLoggers) String() string {
	return fmt.Sprintf("chain=%s mempool=%s orphan=%s state=%s miner=%s gossip=%s txgen=%s",
		l.chain.Level(), l.mempool.Level(), l.orphan.Level(), l.state.Level(), l.miner.Level(), l.gossip.Level(), l.txgen.Level())
}
