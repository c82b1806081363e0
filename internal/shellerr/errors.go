// Copyright (c) 2025 The Shell developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package shellerr defines the error kinds shared by the chain, mempool,
// accumulator, state, and gossip packages.
package shellerr

import "fmt"

// Kind identifies a class of error the core consensus and state engine can
// produce. Handlers branch on Kind rather than on error string contents.
type Kind int

const (
	// InvalidSignature means a signed transaction's Ed25519 signature did
	// not verify against its declared public key.
	InvalidSignature Kind = iota

	// DoubleSpend means a transaction's inputs are no longer consistent
	// with the accumulator value at the block being validated against.
	DoubleSpend

	// MissingParent means a block's parent has not been seen locally.
	// Handlers route this into the orphan buffer rather than treating it
	// as a failure.
	MissingParent

	// BadPoW means a block's ID exceeds its claimed difficulty target.
	BadPoW

	// DifficultyMismatch means a block's declared difficulty does not
	// match the difficulty of the chain it extends.
	DifficultyMismatch

	// UnknownBlock means a requested block ID is not present in the
	// block store.
	UnknownBlock

	// UnknownOutpoint means a witness or state lookup referenced an
	// outpoint this node has no record of.
	UnknownOutpoint

	// AccumulatorExhausted means hash_to_prime could not allocate a
	// fresh prime within its retry budget. Callers should treat this as
	// a misconfiguration, not a recoverable condition.
	AccumulatorExhausted

	// DecodeError means a wire message failed to parse.
	DecodeError

	// TransportError means the underlying connection to a peer failed.
	TransportError

	// AddressParseError means a command-line address flag failed to
	// parse; this is fatal at startup.
	AddressParseError
)

func (k Kind) String() string {
	switch k {
	case InvalidSignature:
		return "InvalidSignature"
	case DoubleSpend:
		return "DoubleSpend"
	case MissingParent:
		return "MissingParent"
	case BadPoW:
		return "BadPoW"
	case DifficultyMismatch:
		return "DifficultyMismatch"
	case UnknownBlock:
		return "UnknownBlock"
	case UnknownOutpoint:
		return "UnknownOutpoint"
	case AccumulatorExhausted:
		return "AccumulatorExhausted"
	case DecodeError:
		return "DecodeError"
	case TransportError:
		return "TransportError"
	case AddressParseError:
		return "AddressParseError"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with a human-readable description: callers that need
// to branch switch on Kind, and callers that only log use Error().
type Error struct {
	Kind        Kind
	Description string
}

func (e Error) Error() string {
	return e.Description
}

// New builds an *Error for the given kind.
func New(kind Kind, desc string) *Error {
	return &Error{Kind: kind, Description: desc}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Description: fmt.Sprintf(format, args...)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}
