// Package document provides the mergeable document state a room's file is
// built on. Merging is treated as a capability: callers apply opaque update
// deltas and ask for a full-state encoding, and any two replicas that applied
// the same multiset of updates encode to the same bytes.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
)

// Document is the merge capability behind a File.
type Document interface {
	// ApplyUpdate merges one delta. It accepts deltas in any causal order and
	// never rejects one.
	ApplyUpdate(update []byte)

	// EncodeStateAsUpdate returns a delta that rebuilds the current state when
	// applied to an empty document with MergeState.
	EncodeStateAsUpdate() []byte

	// MergeState merges a full-state encoding produced by EncodeStateAsUpdate.
	MergeState(state []byte) error
}

// Factory builds an empty document for a new file.
type Factory func() Document

// UpdateSet is a Document whose state is the set of distinct updates it has
// seen. Set union is commutative, associative and idempotent, so replicas
// converge regardless of delivery order or duplication. Not safe for
// concurrent use; the owning room serializes access.
type UpdateSet struct {
	updates map[[sha256.Size]byte][]byte
}

// NewUpdateSet returns an empty UpdateSet.
func NewUpdateSet() Document {
	return &UpdateSet{updates: make(map[[sha256.Size]byte][]byte)}
}

func (s *UpdateSet) ApplyUpdate(update []byte) {
	key := sha256.Sum256(update)
	if _, ok := s.updates[key]; ok {
		return
	}
	stored := make([]byte, len(update))
	copy(stored, update)
	s.updates[key] = stored
}

func (s *UpdateSet) EncodeStateAsUpdate() []byte {
	ordered := make([][]byte, 0, len(s.updates))
	for _, u := range s.updates {
		ordered = append(ordered, u)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return bytes.Compare(ordered[i], ordered[j]) < 0
	})
	return frame(ordered)
}

func (s *UpdateSet) MergeState(state []byte) error {
	updates, err := split(state)
	if err != nil {
		return err
	}
	for _, u := range updates {
		s.ApplyUpdate(u)
	}
	return nil
}

// Len reports how many distinct updates have been merged.
func (s *UpdateSet) Len() int {
	return len(s.updates)
}

// frame concatenates updates, each prefixed with its 4-byte big-endian length.
func frame(updates [][]byte) []byte {
	total := 0
	for _, u := range updates {
		total += 4 + len(u)
	}

	out := make([]byte, 0, total)
	var prefix [4]byte
	for _, u := range updates {
		binary.BigEndian.PutUint32(prefix[:], uint32(len(u)))
		out = append(out, prefix[:]...)
		out = append(out, u...)
	}
	return out
}

func split(state []byte) ([][]byte, error) {
	var updates [][]byte
	offset := 0

	for offset < len(state) {
		if offset+4 > len(state) {
			return nil, fmt.Errorf("truncated length prefix at offset %d", offset)
		}
		length := int(binary.BigEndian.Uint32(state[offset:]))
		offset += 4

		if offset+length > len(state) {
			return nil, fmt.Errorf("update at offset %d overruns state (%d > %d)", offset, offset+length, len(state))
		}
		updates = append(updates, state[offset:offset+length])
		offset += length
	}

	return updates, nil
}
