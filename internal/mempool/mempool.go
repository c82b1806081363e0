// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the hash-indexed pool of signed transactions
// not yet confirmed. Mempool performs no validation itself -- the gossip
// worker and miner gate admission -- stripped to just the {insert,
// remove_confirmed} surface this project needs, since fee policy,
// orphan-transaction tracking, and RBF are out of scope here.
package mempool

import (
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/shellacc/shellnode/internal/hash"
	"github.com/shellacc/shellnode/internal/types"
)

// Mempool is a hash-indexed mapping of signed transactions not yet
// confirmed.
type Mempool struct {
	mu      sync.RWMutex
	entries map[hash.Hash]types.SignedTransaction
	added   map[hash.Hash]time.Time
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{
		entries: make(map[hash.Hash]types.SignedTransaction),
		added:   make(map[hash.Hash]time.Time),
	}
}

// Insert admits stx, keyed by its transaction ID. Re-inserting an already
// present transaction is a no-op.
func (m *Mempool) Insert(stx types.SignedTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := stx.ID()
	if _, ok := m.entries[id]; ok {
		return
	}
	m.entries[id] = stx
	m.added[id] = time.Now()
	log.Debugf("mempool: admitted transaction %s, pool size %d", id, len(m.entries))
	log.Tracef("mempool: admitted tx detail: %s", spew.Sdump(stx))
}

// Has reports whether id is currently in the pool.
func (m *Mempool) Has(id hash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok
}

// Get returns the pooled transaction for id, if present.
func (m *Mempool) Get(id hash.Hash) (types.SignedTransaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stx, ok := m.entries[id]
	return stx, ok
}

// RemoveConfirmed drops every entry whose ID appears in ids, the action
// taken when a block confirms those transactions.
func (m *Mempool) RemoveConfirmed(ids []hash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
		delete(m.added, id)
	}
}

// Remove drops a single entry, used when re-evaluation finds it now
// double-spending.
func (m *Mempool) Remove(id hash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	delete(m.added, id)
}

// Len returns the number of pooled transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// IDs returns every pooled transaction ID in an unspecified order.
func (m *Mempool) IDs() []hash.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]hash.Hash, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids
}

// Iterate calls fn for every pooled transaction, in the stable order they
// were added -- the order the miner reads up to K transactions in.
func (m *Mempool) Iterate(fn func(types.SignedTransaction)) {
	m.mu.RLock()
	type ordered struct {
		id  hash.Hash
		at  time.Time
		stx types.SignedTransaction
	}
	all := make([]ordered, 0, len(m.entries))
	for id, stx := range m.entries {
		all = append(all, ordered{id: id, at: m.added[id], stx: stx})
	}
	m.mu.RUnlock()

	// stable insertion-order sort (simple, pool sizes are small in this
	// test-grade node).
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].at.Before(all[j-1].at); j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}
	for _, o := range all {
		fn(o.stx)
	}
}
