// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package merkle builds binary Merkle trees over arbitrary hashable leaves
// and verifies inclusion proofs against a root: linear-array storage of a
// binary tree, odd levels padded by duplicating the last node, generalized
// from transactions specifically to any hash.Hashable leaf.
package merkle

import (
	"github.com/shellacc/shellnode/internal/hash"
)

// Tree is a binary Merkle tree stored as a linear array: leaves occupy
// the first len(leaves) (rounded up to the next power of two) slots,
// interior nodes follow, and the root is the final element.
type Tree struct {
	nodes  []hash.Hash
	numLvs int // number of leaves actually supplied (may be < len(nodes) base level)
}

// zeroRoot is the conventional root of an empty leaf set.
var zeroRoot hash.Hash

// New builds a Merkle tree over leaves in order. An empty slice yields a
// tree whose Root is the zero digest.
func New(leaves []hash.Hashable) *Tree {
	if len(leaves) == 0 {
		return &Tree{nodes: nil, numLvs: 0}
	}

	leafHashes := make([]hash.Hash, len(leaves))
	for i, l := range leaves {
		leafHashes[i] = l.Hash()
	}
	return newFromLeafHashes(leafHashes)
}

func newFromLeafHashes(leafHashes []hash.Hash) *Tree {
	n := len(leafHashes)
	nextPoT := nextPowerOfTwo(n)
	arraySize := nextPoT*2 - 1
	nodes := make([]hash.Hash, arraySize)

	// valid marks every slot the construction below has filled, padding
	// slots included.
	valid := make([]bool, arraySize)
	for i, h := range leafHashes {
		nodes[i] = h
		valid[i] = true
	}
	// Pad remaining leaf slots by duplicating the last real leaf.
	for i := n; i < nextPoT; i++ {
		nodes[i] = leafHashes[n-1]
		valid[i] = true
	}

	offset := nextPoT
	levelSize := nextPoT
	base := 0
	count := n // real (non-padding) nodes at the current level
	for levelSize > 1 {
		// Every level re-pads its tail with its own last real node, so an
		// odd count pairs that node with a copy of itself.
		for i := count; i < levelSize; i++ {
			nodes[base+i] = nodes[base+count-1]
		}
		for i := 0; i < levelSize; i += 2 {
			left := nodes[base+i]
			right := nodes[base+i+1]
			nodes[offset] = hashBranches(left, right)
			valid[offset] = true
			offset++
		}
		base += levelSize
		levelSize /= 2
		count = (count + 1) / 2
	}

	return &Tree{nodes: nodes, numLvs: n}
}

func hashBranches(left, right hash.Hash) hash.Hash {
	buf := make([]byte, 0, hash.Size*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return hash.Sum256(buf)
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	if n&(n-1) == 0 {
		return n
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Root returns the tree's root digest. Empty trees return the zero digest.
func (t *Tree) Root() hash.Hash {
	if len(t.nodes) == 0 {
		return zeroRoot
	}
	return t.nodes[len(t.nodes)-1]
}

// Proof returns the sibling hashes from leaf i up to (but excluding) the
// root, ordered leaf-adjacent first and root-adjacent last. i must be in
// [0, numLeaves).
func (t *Tree) Proof(i int) []hash.Hash {
	if t.numLvs == 0 || i < 0 || i >= t.numLvs {
		return nil
	}

	nextPoT := nextPowerOfTwo(t.numLvs)
	var proof []hash.Hash

	idx := i
	levelSize := nextPoT
	base := 0
	for levelSize > 1 {
		var siblingIdx int
		if idx%2 == 0 {
			siblingIdx = idx + 1
		} else {
			siblingIdx = idx - 1
		}
		proof = append(proof, t.nodes[base+siblingIdx])
		base += levelSize
		idx /= 2
		levelSize /= 2
	}
	return proof
}

// Verify reconstructs the root bottom-up from leafHash, proof, and index,
// placing each sibling left when the running index is even and right when
// it is odd, and reports whether the result equals root.
func Verify(root hash.Hash, leafHash hash.Hash, proof []hash.Hash, index int, n int) bool {
	if n == 0 {
		return root == zeroRoot
	}

	current := leafHash
	idx := index
	for _, sibling := range proof {
		if idx%2 == 0 {
			current = hashBranches(current, sibling)
		} else {
			current = hashBranches(sibling, current)
		}
		idx /= 2
	}
	return current == root
}
