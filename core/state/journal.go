// Copyright 2026 The Foundry Authors
// This file is part of Foundry.
//
// Foundry is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Foundry is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Foundry. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
)

// journalEntryKind is the discriminator for journal entry types.
type journalEntryKind uint8

const (
	kindStorageWrite journalEntryKind = iota
	kindBalanceWrite
	kindNonceWrite
	kindCodeWrite
)

// journalEntry is a discriminated union of all journal entry types.
// This avoids interface boxing allocations that would occur with []interface{}.
type journalEntry struct {
	kind journalEntryKind

	// persistent routes the undo to the registry-wide persisted store
	// instead of the fork's own overlay.
	persistent bool

	account libcommon.Address

	// For storage writes
	key libcommon.Hash

	// prevValue doubles as the previous balance for balance writes.
	prevValue uint256.Int
	// hadPrev distinguishes "previous override" from "no override existed";
	// reverting the latter must restore fall-through to the remote source.
	hadPrev bool

	// For nonce writes
	prevNonce uint64

	// For code writes
	prevCode []byte
}

// revision is an opened checkpoint: the marker handed to the caller plus the
// journal length at the time it was opened.
type revision struct {
	id           int
	journalIndex int
}

// journal records every explicit state modification applied to one fork so
// batches of them can be unwound on checkpoint revert. Each fork owns exactly
// one journal; it is never shared and parking a fork leaves it untouched.
type journal struct {
	entries   []journalEntry
	revisions []revision
	nextID    int
}

func newJournal() *journal {
	return &journal{}
}

func (j *journal) appendStorageWrite(persistent bool, account libcommon.Address, key libcommon.Hash, prev uint256.Int, hadPrev bool) {
	j.entries = append(j.entries, journalEntry{
		kind:       kindStorageWrite,
		persistent: persistent,
		account:    account,
		key:        key,
		prevValue:  prev,
		hadPrev:    hadPrev,
	})
}

func (j *journal) appendBalanceWrite(persistent bool, account libcommon.Address, prev uint256.Int, hadPrev bool) {
	j.entries = append(j.entries, journalEntry{
		kind:       kindBalanceWrite,
		persistent: persistent,
		account:    account,
		prevValue:  prev,
		hadPrev:    hadPrev,
	})
}

func (j *journal) appendNonceWrite(persistent bool, account libcommon.Address, prev uint64, hadPrev bool) {
	j.entries = append(j.entries, journalEntry{
		kind:       kindNonceWrite,
		persistent: persistent,
		account:    account,
		prevNonce:  prev,
		hadPrev:    hadPrev,
	})
}

func (j *journal) appendCodeWrite(persistent bool, account libcommon.Address, prev []byte, hadPrev bool) {
	j.entries = append(j.entries, journalEntry{
		kind:       kindCodeWrite,
		persistent: persistent,
		account:    account,
		prevCode:   prev,
		hadPrev:    hadPrev,
	})
}

// checkpoint opens a new checkpoint and returns its marker. Markers increase
// monotonically per journal and are only rewound by revertTo.
func (j *journal) checkpoint() int {
	id := j.nextID
	j.nextID++
	j.revisions = append(j.revisions, revision{id: id, journalIndex: len(j.entries)})
	return id
}

// commit discards the most recently opened checkpoint without undoing its
// writes. The writes become part of the enclosing checkpoint, if any.
func (j *journal) commit() error {
	if len(j.revisions) == 0 {
		return fmt.Errorf("commit with no open checkpoint: %w", ErrJournalUnderflow)
	}
	j.revisions = j.revisions[:len(j.revisions)-1]
	return nil
}

// revertTo unwinds every entry recorded since the checkpoint identified by
// marker was opened, in reverse order, and restores the marker counter to
// the value it had when that checkpoint was opened.
func (j *journal) revertTo(f *Fork, marker int) error {
	idx := sort.Search(len(j.revisions), func(i int) bool {
		return j.revisions[i].id >= marker
	})
	if idx == len(j.revisions) || j.revisions[idx].id != marker {
		return fmt.Errorf("revert to unknown checkpoint %d: %w", marker, ErrJournalUnderflow)
	}
	snapshot := j.revisions[idx].journalIndex

	for i := len(j.entries) - 1; i >= snapshot; i-- {
		revertEntry(&j.entries[i], f)
	}
	j.entries = j.entries[:snapshot]
	j.revisions = j.revisions[:idx]
	j.nextID = marker
	return nil
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

// depth returns the number of checkpoints currently open.
func (j *journal) depth() int {
	return len(j.revisions)
}

// revertEntry reverts a single journal entry against the fork's overlay or,
// for persistent accounts, against the shared persisted store. For the shared
// store the journalled prior value wins unconditionally: a revert discards any
// write another fork issued to the same field after the checkpoint was opened.
// The single-mutator model makes such interleavings explicit harness choices.
func revertEntry(e *journalEntry, f *Fork) {
	switch e.kind {
	case kindStorageWrite:
		if e.persistent {
			f.persist.revertStorage(e.account, e.key, e.prevValue, e.hadPrev)
			return
		}
		if e.hadPrev {
			f.overlay.SetStorage(e.account, e.key, e.prevValue)
		} else {
			f.overlay.unsetStorage(e.account, e.key)
		}

	case kindBalanceWrite:
		if e.persistent {
			f.persist.revertBalance(e.account, e.prevValue, e.hadPrev)
			return
		}
		if e.hadPrev {
			f.overlay.SetBalance(e.account, e.prevValue)
		} else {
			f.overlay.unsetBalance(e.account)
		}

	case kindNonceWrite:
		if e.persistent {
			f.persist.revertNonce(e.account, e.prevNonce, e.hadPrev)
			return
		}
		if e.hadPrev {
			f.overlay.SetNonce(e.account, e.prevNonce)
		} else {
			f.overlay.unsetNonce(e.account)
		}

	case kindCodeWrite:
		if e.persistent {
			f.persist.revertCode(e.account, e.prevCode, e.hadPrev)
			return
		}
		if e.hadPrev {
			f.overlay.SetCode(e.account, e.prevCode)
		} else {
			f.overlay.unsetCode(e.account)
		}

	default:
		panic(fmt.Sprintf("unknown journal entry kind: %d", e.kind))
	}
}
