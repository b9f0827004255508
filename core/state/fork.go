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
	"context"

	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
)

// ForkID uniquely identifies a fork within its registry. Handles are assigned
// monotonically at creation and never reused.
type ForkID uint64

// Fork is one isolated simulated-chain state: a copy-on-write overlay and a
// checkpoint journal rooted at a remote snapshot height. A fork is owned
// exclusively by its registry and mutated only while active, except for an
// explicit registry-level roll. Switching away parks the overlay and journal
// untouched; reselecting resumes them verbatim.
type Fork struct {
	handle  ForkID
	alias   string
	height  uint64
	overlay *Overlay
	journal *journal

	// src is nil for local forks, which have no remote snapshot behind the
	// overlay and default to zero values.
	src RemoteSource

	// persist is the registry-wide persisted store, shared by every fork.
	persist *persistentStore
}

func newFork(handle ForkID, alias string, height uint64, src RemoteSource, persist *persistentStore) *Fork {
	return &Fork{
		handle:  handle,
		alias:   alias,
		height:  height,
		overlay: NewOverlay(),
		journal: newJournal(),
		src:     src,
		persist: persist,
	}
}

func (f *Fork) Handle() ForkID { return f.handle }
func (f *Fork) Alias() string  { return f.alias }
func (f *Fork) Height() uint64 { return f.height }

// GetState returns the value of (addr, key). Lookup order: shared persisted
// store for persistent accounts, then the fork's overlay, then the remote
// source at the fork's pinned height, then zero.
func (f *Fork) GetState(ctx context.Context, addr libcommon.Address, key libcommon.Hash) (uint256.Int, error) {
	if f.persist.Has(addr) {
		if v, ok := f.persist.StorageValue(addr, key); ok {
			return v, nil
		}
		if f.src == nil {
			return uint256.Int{}, nil
		}
		v, err := f.src.StorageAt(ctx, addr, key, f.height)
		if err != nil {
			return uint256.Int{}, err
		}
		// Freeze the first resolution so every fork sees the same value.
		f.persist.cacheStorage(addr, key, v)
		return v, nil
	}
	if v, ok := f.overlay.StorageValue(addr, key); ok {
		return v, nil
	}
	if f.src == nil {
		return uint256.Int{}, nil
	}
	v, err := f.src.StorageAt(ctx, addr, key, f.height)
	if err != nil {
		return uint256.Int{}, err
	}
	f.overlay.cacheStorage(addr, key, v)
	return v, nil
}

// SetState writes (addr, key) = value. Persistent accounts are written to the
// shared store so all forks observe the change; everything else goes to the
// fork's overlay. The write is journalled for checkpoint revert.
func (f *Fork) SetState(addr libcommon.Address, key libcommon.Hash, value uint256.Int) {
	if f.persist.Has(addr) {
		prev, hadPrev := f.persist.SetStorage(addr, key, value)
		f.journal.appendStorageWrite(true, addr, key, prev, hadPrev)
		return
	}
	prev, hadPrev := f.overlay.SetStorage(addr, key, value)
	f.journal.appendStorageWrite(false, addr, key, prev, hadPrev)
}

// GetBalance returns the account balance, with the same lookup order as
// GetState.
func (f *Fork) GetBalance(ctx context.Context, addr libcommon.Address) (uint256.Int, error) {
	if f.persist.Has(addr) {
		if b, ok := f.persist.Balance(addr); ok {
			return b, nil
		}
		if f.src == nil {
			return uint256.Int{}, nil
		}
		b, err := f.src.BalanceAt(ctx, addr, f.height)
		if err != nil {
			return uint256.Int{}, err
		}
		f.persist.cacheBalance(addr, b)
		return b, nil
	}
	if b, ok := f.overlay.Balance(addr); ok {
		return b, nil
	}
	if f.src == nil {
		return uint256.Int{}, nil
	}
	b, err := f.src.BalanceAt(ctx, addr, f.height)
	if err != nil {
		return uint256.Int{}, err
	}
	f.overlay.cacheBalance(addr, b)
	return b, nil
}

// SetBalance overrides the account balance, journalled.
func (f *Fork) SetBalance(addr libcommon.Address, balance uint256.Int) {
	if f.persist.Has(addr) {
		prev, hadPrev := f.persist.SetBalance(addr, balance)
		f.journal.appendBalanceWrite(true, addr, prev, hadPrev)
		return
	}
	prev, hadPrev := f.overlay.SetBalance(addr, balance)
	f.journal.appendBalanceWrite(false, addr, prev, hadPrev)
}

// GetNonce returns the account nonce, with the same lookup order as GetState.
func (f *Fork) GetNonce(ctx context.Context, addr libcommon.Address) (uint64, error) {
	if f.persist.Has(addr) {
		if n, ok := f.persist.Nonce(addr); ok {
			return n, nil
		}
		if f.src == nil {
			return 0, nil
		}
		n, err := f.src.NonceAt(ctx, addr, f.height)
		if err != nil {
			return 0, err
		}
		f.persist.cacheNonce(addr, n)
		return n, nil
	}
	if n, ok := f.overlay.Nonce(addr); ok {
		return n, nil
	}
	if f.src == nil {
		return 0, nil
	}
	n, err := f.src.NonceAt(ctx, addr, f.height)
	if err != nil {
		return 0, err
	}
	f.overlay.cacheNonce(addr, n)
	return n, nil
}

// SetNonce overrides the account nonce, journalled.
func (f *Fork) SetNonce(addr libcommon.Address, nonce uint64) {
	if f.persist.Has(addr) {
		prev, hadPrev := f.persist.SetNonce(addr, nonce)
		f.journal.appendNonceWrite(true, addr, prev, hadPrev)
		return
	}
	prev, hadPrev := f.overlay.SetNonce(addr, nonce)
	f.journal.appendNonceWrite(false, addr, prev, hadPrev)
}

// GetCode returns the account code, with the same lookup order as GetState.
func (f *Fork) GetCode(ctx context.Context, addr libcommon.Address) ([]byte, error) {
	if f.persist.Has(addr) {
		if c, ok := f.persist.Code(addr); ok {
			return c, nil
		}
		if f.src == nil {
			return nil, nil
		}
		c, err := f.src.CodeAt(ctx, addr, f.height)
		if err != nil {
			return nil, err
		}
		f.persist.cacheCode(addr, c)
		return c, nil
	}
	if c, ok := f.overlay.Code(addr); ok {
		return c, nil
	}
	if f.src == nil {
		return nil, nil
	}
	c, err := f.src.CodeAt(ctx, addr, f.height)
	if err != nil {
		return nil, err
	}
	f.overlay.cacheCode(addr, c)
	return c, nil
}

// SetCode overrides the account code, journalled.
func (f *Fork) SetCode(addr libcommon.Address, code []byte) {
	if f.persist.Has(addr) {
		prev, hadPrev := f.persist.SetCode(addr, code)
		f.journal.appendCodeWrite(true, addr, prev, hadPrev)
		return
	}
	prev, hadPrev := f.overlay.SetCode(addr, code)
	f.journal.appendCodeWrite(false, addr, prev, hadPrev)
}

// Checkpoint opens a checkpoint on this fork's journal and returns its
// marker. Markers are strictly per-fork: work on other forks never advances
// them.
func (f *Fork) Checkpoint() int {
	return f.journal.checkpoint()
}

// Commit discards the most recent checkpoint, keeping its writes.
func (f *Fork) Commit() error {
	return f.journal.commit()
}

// RevertTo unwinds every checkpoint opened since marker, inclusive, undoing
// their writes in reverse order and restoring the marker counter.
func (f *Fork) RevertTo(marker int) error {
	return f.journal.revertTo(f, marker)
}

// CheckpointDepth returns the number of checkpoints currently open.
func (f *Fork) CheckpointDepth() int {
	return f.journal.depth()
}

// rollTo moves the fork to a new height. Values cached from remote reads at
// the old height are dropped so subsequent reads re-resolve; explicit writes
// survive. The caller validates the height first so a failure never mutates.
func (f *Fork) rollTo(height uint64) {
	f.height = height
	f.overlay.InvalidateFetched()
}
