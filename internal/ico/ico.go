// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ico implements the append-only ICO.txt bootstrap file: every
// node appends its 20-byte address to the file on startup, and every node
// reads the full file back at transaction generator bootstrap to learn
// the complete participant set. It carries nothing but raw addresses, no
// timestamp or service-flag bookkeeping.
package ico

import (
	"os"

	"github.com/shellacc/shellnode/internal/hash"
)

// DefaultFileName is the bootstrap file's conventional name, always
// resolved relative to the node's working directory.
const DefaultFileName = "ICO.txt"

// Append adds addr to the file at path, creating it if necessary. Multiple
// nodes sharing a working directory append independently; order of
// arrival in the file is the order addresses were appended, not sorted.
func Append(path string, addr hash.Address) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(addr[:])
	return err
}

// ReadAll reads every address recorded in the file at path, in file order.
// A missing file is treated as empty rather than an error, since the first
// node to start has nothing to read yet.
func ReadAll(path string) ([]hash.Address, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data)%hash.AddrSize != 0 {
		data = data[:len(data)-(len(data)%hash.AddrSize)]
	}
	addrs := make([]hash.Address, 0, len(data)/hash.AddrSize)
	for i := 0; i < len(data); i += hash.AddrSize {
		var a hash.Address
		copy(a[:], data[i:i+hash.AddrSize])
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// ArchivalAddress returns the conventional archival node: the first
// address recorded in the file, by convention the archival node.
func ArchivalAddress(addrs []hash.Address) (hash.Address, bool) {
	if len(addrs) == 0 {
		return hash.Address{}, false
	}
	return addrs[0], true
}
