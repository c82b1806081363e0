// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"net"
	"sync"

	"github.com/shellacc/shellnode/internal/wire"
)

// peer is one connected network endpoint: a dedicated send queue drained by
// its own write goroutine, paired with a separate read goroutine per
// connection.
type peer struct {
	conn   net.Conn
	addr   string
	send   chan wire.Message
	done   chan struct{}
	closer sync.Once
}

// sendQueueDepth bounds how many outbound messages queue for a slow peer
// before broadcast starts dropping rather than blocking the caller.
const sendQueueDepth = 64

func newPeer(conn net.Conn) *peer {
	return &peer{
		conn: conn,
		addr: conn.RemoteAddr().String(),
		send: make(chan wire.Message, sendQueueDepth),
		done: make(chan struct{}),
	}
}

// close ends the peer's I/O loops and the underlying connection exactly
// once, however many of read, write, or the peer set discover the failure.
func (p *peer) close() {
	p.closer.Do(func() {
		close(p.done)
		p.conn.Close()
	})
}

// reply implements gossip.ReplyFunc for this peer: queue msg on its send
// channel, dropping rather than blocking if the peer is backed up or gone.
func (p *peer) reply(msg wire.Message) {
	select {
	case p.send <- msg:
	case <-p.done:
	default:
		log.Warnf("shellnoded: dropping reply to %s, send queue full", p.addr)
	}
}

// writeLoop drains p.send onto the connection until the peer closes.
func (p *peer) writeLoop() {
	for {
		select {
		case <-p.done:
			return
		case msg := <-p.send:
			if err := wire.WriteMessage(p.conn, msg); err != nil {
				log.Debugf("shellnoded: write to %s failed: %v", p.addr, err)
				p.close()
				return
			}
		}
	}
}

// readLoop decodes framed messages from the connection and hands each to
// dispatch until a transport error ends the peer; a transport error
// terminates only this peer's loops, not the rest of the daemon.
func (p *peer) readLoop(dispatch func(msg wire.Message, from *peer)) {
	for {
		msg, err := wire.ReadMessage(p.conn)
		if err != nil {
			log.Debugf("shellnoded: read from %s failed: %v", p.addr, err)
			p.close()
			return
		}
		dispatch(msg, p)
	}
}

// peerSet is the set of currently connected peers, guarded by its own
// lock like every other shared mutable resource in this daemon.
type peerSet struct {
	mu    sync.RWMutex
	peers map[*peer]struct{}
}

func newPeerSet() *peerSet {
	return &peerSet{peers: make(map[*peer]struct{})}
}

func (s *peerSet) add(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p] = struct{}{}
}

func (s *peerSet) remove(p *peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, p)
}

// broadcast fire-and-forgets msg to every connected peer (bounded per-peer
// here so one stalled peer cannot grow memory without limit).
func (s *peerSet) broadcast(msg wire.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for p := range s.peers {
		p.reply(msg)
	}
}
