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
	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
)

// Storage maps slot keys to their values within one account.
type Storage map[libcommon.Hash]uint256.Int

// Copy returns an independent copy of the storage map.
func (s Storage) Copy() Storage {
	cp := make(Storage, len(s))
	for k, v := range s {
		cp[k] = v
	}
	return cp
}

// overlayAccount holds the fields of one account that are present in an
// overlay (or in the shared persisted store). A nil field means "not held
// here"; reads fall through to the next layer.
type overlayAccount struct {
	balance *uint256.Int
	nonce   *uint64
	code    []byte
	codeSet bool
	storage Storage
}

func newOverlayAccount() *overlayAccount {
	return &overlayAccount{storage: make(Storage)}
}

// copyFrom merges every field src holds into the account, overwriting what
// is already there.
func (a *overlayAccount) copyFrom(src *overlayAccount) {
	if src.balance != nil {
		b := *src.balance
		a.balance = &b
	}
	if src.nonce != nil {
		n := *src.nonce
		a.nonce = &n
	}
	if src.codeSet {
		a.code = append([]byte(nil), src.code...)
		a.codeSet = true
	}
	for k, v := range src.storage {
		a.storage[k] = v
	}
}

// Overlay is one fork's copy-on-write layer over the remote state source.
// It keeps explicit writes apart from values merely cached by read-through:
// rolling a fork to another height discards the cache but keeps the writes.
type Overlay struct {
	written map[libcommon.Address]*overlayAccount
	fetched map[libcommon.Address]*overlayAccount
}

// NewOverlay creates an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{
		written: make(map[libcommon.Address]*overlayAccount),
		fetched: make(map[libcommon.Address]*overlayAccount),
	}
}

func (o *Overlay) writtenAccount(addr libcommon.Address) *overlayAccount {
	acc, ok := o.written[addr]
	if !ok {
		acc = newOverlayAccount()
		o.written[addr] = acc
	}
	return acc
}

func (o *Overlay) fetchedAccount(addr libcommon.Address) *overlayAccount {
	acc, ok := o.fetched[addr]
	if !ok {
		acc = newOverlayAccount()
		o.fetched[addr] = acc
	}
	return acc
}

// StorageValue returns the overlay's value for (addr, key), preferring
// explicit writes over cached remote reads.
func (o *Overlay) StorageValue(addr libcommon.Address, key libcommon.Hash) (uint256.Int, bool) {
	if acc, ok := o.written[addr]; ok {
		if v, ok := acc.storage[key]; ok {
			return v, true
		}
	}
	if acc, ok := o.fetched[addr]; ok {
		if v, ok := acc.storage[key]; ok {
			return v, true
		}
	}
	return uint256.Int{}, false
}

// SetStorage records an explicit write and reports the previous explicit
// value, if any, for journalling.
func (o *Overlay) SetStorage(addr libcommon.Address, key libcommon.Hash, value uint256.Int) (prev uint256.Int, hadPrev bool) {
	acc := o.writtenAccount(addr)
	prev, hadPrev = acc.storage[key]
	acc.storage[key] = value
	return prev, hadPrev
}

// unsetStorage removes an explicit override, used by checkpoint reverts to
// restore "no override" so reads fall back to the remote source again.
func (o *Overlay) unsetStorage(addr libcommon.Address, key libcommon.Hash) {
	if acc, ok := o.written[addr]; ok {
		delete(acc.storage, key)
	}
}

func (o *Overlay) cacheStorage(addr libcommon.Address, key libcommon.Hash, value uint256.Int) {
	o.fetchedAccount(addr).storage[key] = value
}

// Balance returns the overlay's balance override or cached remote balance.
func (o *Overlay) Balance(addr libcommon.Address) (uint256.Int, bool) {
	if acc, ok := o.written[addr]; ok && acc.balance != nil {
		return *acc.balance, true
	}
	if acc, ok := o.fetched[addr]; ok && acc.balance != nil {
		return *acc.balance, true
	}
	return uint256.Int{}, false
}

// SetBalance records an explicit balance override and reports the previous
// explicit value, if any.
func (o *Overlay) SetBalance(addr libcommon.Address, balance uint256.Int) (prev uint256.Int, hadPrev bool) {
	acc := o.writtenAccount(addr)
	if acc.balance != nil {
		prev, hadPrev = *acc.balance, true
	}
	b := balance
	acc.balance = &b
	return prev, hadPrev
}

func (o *Overlay) unsetBalance(addr libcommon.Address) {
	if acc, ok := o.written[addr]; ok {
		acc.balance = nil
	}
}

func (o *Overlay) cacheBalance(addr libcommon.Address, balance uint256.Int) {
	b := balance
	o.fetchedAccount(addr).balance = &b
}

// Nonce returns the overlay's nonce override or cached remote nonce.
func (o *Overlay) Nonce(addr libcommon.Address) (uint64, bool) {
	if acc, ok := o.written[addr]; ok && acc.nonce != nil {
		return *acc.nonce, true
	}
	if acc, ok := o.fetched[addr]; ok && acc.nonce != nil {
		return *acc.nonce, true
	}
	return 0, false
}

// SetNonce records an explicit nonce override and reports the previous
// explicit value, if any.
func (o *Overlay) SetNonce(addr libcommon.Address, nonce uint64) (prev uint64, hadPrev bool) {
	acc := o.writtenAccount(addr)
	if acc.nonce != nil {
		prev, hadPrev = *acc.nonce, true
	}
	n := nonce
	acc.nonce = &n
	return prev, hadPrev
}

func (o *Overlay) unsetNonce(addr libcommon.Address) {
	if acc, ok := o.written[addr]; ok {
		acc.nonce = nil
	}
}

func (o *Overlay) cacheNonce(addr libcommon.Address, nonce uint64) {
	n := nonce
	o.fetchedAccount(addr).nonce = &n
}

// Code returns the overlay's code override or cached remote code.
func (o *Overlay) Code(addr libcommon.Address) ([]byte, bool) {
	if acc, ok := o.written[addr]; ok && acc.codeSet {
		return acc.code, true
	}
	if acc, ok := o.fetched[addr]; ok && acc.codeSet {
		return acc.code, true
	}
	return nil, false
}

// SetCode records an explicit code override and reports the previous
// explicit value, if any.
func (o *Overlay) SetCode(addr libcommon.Address, code []byte) (prev []byte, hadPrev bool) {
	acc := o.writtenAccount(addr)
	prev, hadPrev = acc.code, acc.codeSet
	acc.code = append([]byte(nil), code...)
	acc.codeSet = true
	return prev, hadPrev
}

func (o *Overlay) unsetCode(addr libcommon.Address) {
	if acc, ok := o.written[addr]; ok {
		acc.code = nil
		acc.codeSet = false
	}
}

func (o *Overlay) cacheCode(addr libcommon.Address, code []byte) {
	acc := o.fetchedAccount(addr)
	acc.code = append([]byte(nil), code...)
	acc.codeSet = true
}

// InvalidateFetched drops every value that was resolved by remote reads,
// keeping explicit writes. Called when a fork is rolled to another height so
// subsequent reads re-resolve at the new height.
func (o *Overlay) InvalidateFetched() {
	o.fetched = make(map[libcommon.Address]*overlayAccount)
}

// knownContent collects everything the overlay holds for addr, explicit
// writes taking priority over cached reads. Used when an account is marked
// persistent and its current content has to be snapshotted.
func (o *Overlay) knownContent(addr libcommon.Address) *overlayAccount {
	out := newOverlayAccount()
	if acc, ok := o.fetched[addr]; ok {
		out.copyFrom(acc)
	}
	if acc, ok := o.written[addr]; ok {
		out.copyFrom(acc)
	}
	return out
}

// adoptContent installs content for addr as explicit writes, replacing
// whatever the overlay held. Used when a persistent account is revoked and
// its shared content is materialized into each fork.
func (o *Overlay) adoptContent(addr libcommon.Address, content *overlayAccount) {
	acc := newOverlayAccount()
	acc.copyFrom(content)
	o.written[addr] = acc
	delete(o.fetched, addr)
}
