// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/shellacc/shellnode/internal/shellerr"
)

const (
	defaultP2PAddr = "127.0.0.1:6000"
	defaultAPIAddr = "127.0.0.1:7000"
	defaultWorkers = 4
)

// config holds this daemon's CLI surface.
type config struct {
	P2PAddr    string   `short:"p" long:"p2p" description:"address to listen for peer connections on" default:"127.0.0.1:6000"`
	APIAddr    string   `long:"api" description:"address reserved for the read-only API; validated but not served by this daemon" default:"127.0.0.1:7000"`
	Connect    []string `short:"c" long:"connect" description:"address of a peer to connect to at startup; may be given multiple times"`
	P2PWorkers int      `long:"p2p-workers" description:"number of gossip worker goroutines" default:"4"`
	Verbose    []bool   `short:"v" long:"verbose" description:"increase logging verbosity; may be repeated"`
}

// loadConfig parses the command line. An address that fails to parse is
// an AddressParseError, fatal with exit code 1.
func loadConfig() (*config, error) {
	cfg := config{
		P2PAddr:    defaultP2PAddr,
		APIAddr:    defaultAPIAddr,
		P2PWorkers: defaultWorkers,
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, shellerr.Newf(shellerr.AddressParseError, "shellnoded: %v", err)
	}

	if err := validateAddr(cfg.P2PAddr); err != nil {
		return nil, err
	}
	if err := validateAddr(cfg.APIAddr); err != nil {
		return nil, err
	}
	for _, peer := range cfg.Connect {
		if err := validateAddr(peer); err != nil {
			return nil, err
		}
	}
	if cfg.P2PWorkers <= 0 {
		return nil, shellerr.Newf(shellerr.AddressParseError, "shellnoded: --p2p-workers must be positive, got %d", cfg.P2PWorkers)
	}

	return &cfg, nil
}

func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	if err != nil {
		return shellerr.Newf(shellerr.AddressParseError, "shellnoded: invalid address %q: %v", addr, err)
	}
	return nil
}

// logLevel maps the repeated -v flag to a btclog level name: one -v means
// debug, two or more means trace.
func (c *config) logLevel() string {
	switch len(c.Verbose) {
	case 0:
		return "info"
	case 1:
		return "debug"
	default:
		return "trace"
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
