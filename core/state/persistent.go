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

// persistentStore holds the accounts that escape fork isolation. There is a
// single instance per registry, consulted before any per-fork overlay, so
// every fork observes identical content for a listed address without keeping
// N copies in sync. Only one fork is ever active, so no locking is needed.
//
// Checkpoint reverts apply here too: the revert* methods restore the
// journalled prior value even when another fork wrote the same field after
// the checkpoint was opened, so that later write is discarded for all forks.
type persistentStore struct {
	members  map[libcommon.Address]struct{}
	accounts map[libcommon.Address]*overlayAccount
}

func newPersistentStore() *persistentStore {
	return &persistentStore{
		members:  make(map[libcommon.Address]struct{}),
		accounts: make(map[libcommon.Address]*overlayAccount),
	}
}

// Has reports whether addr is currently persistent.
func (p *persistentStore) Has(addr libcommon.Address) bool {
	_, ok := p.members[addr]
	return ok
}

// add marks addr persistent and seeds the shared account with content, the
// snapshot of the active fork's view at marking time.
func (p *persistentStore) add(addr libcommon.Address, content *overlayAccount) {
	p.members[addr] = struct{}{}
	acc := newOverlayAccount()
	acc.copyFrom(content)
	p.accounts[addr] = acc
}

// remove unmarks addr and returns the shared content it held, so the caller
// can materialize it into each fork before isolation resumes.
func (p *persistentStore) remove(addr libcommon.Address) *overlayAccount {
	delete(p.members, addr)
	acc := p.accounts[addr]
	delete(p.accounts, addr)
	if acc == nil {
		acc = newOverlayAccount()
	}
	return acc
}

func (p *persistentStore) account(addr libcommon.Address) *overlayAccount {
	acc, ok := p.accounts[addr]
	if !ok {
		acc = newOverlayAccount()
		p.accounts[addr] = acc
	}
	return acc
}

// StorageValue returns the shared value for (addr, key), if one has been
// written or resolved since the address was marked persistent.
func (p *persistentStore) StorageValue(addr libcommon.Address, key libcommon.Hash) (uint256.Int, bool) {
	if acc, ok := p.accounts[addr]; ok {
		if v, ok := acc.storage[key]; ok {
			return v, true
		}
	}
	return uint256.Int{}, false
}

func (p *persistentStore) SetStorage(addr libcommon.Address, key libcommon.Hash, value uint256.Int) (prev uint256.Int, hadPrev bool) {
	acc := p.account(addr)
	prev, hadPrev = acc.storage[key]
	acc.storage[key] = value
	return prev, hadPrev
}

func (p *persistentStore) revertStorage(addr libcommon.Address, key libcommon.Hash, prev uint256.Int, hadPrev bool) {
	if hadPrev {
		p.account(addr).storage[key] = prev
		return
	}
	if acc, ok := p.accounts[addr]; ok {
		delete(acc.storage, key)
	}
}

func (p *persistentStore) Balance(addr libcommon.Address) (uint256.Int, bool) {
	if acc, ok := p.accounts[addr]; ok && acc.balance != nil {
		return *acc.balance, true
	}
	return uint256.Int{}, false
}

func (p *persistentStore) SetBalance(addr libcommon.Address, balance uint256.Int) (prev uint256.Int, hadPrev bool) {
	acc := p.account(addr)
	if acc.balance != nil {
		prev, hadPrev = *acc.balance, true
	}
	b := balance
	acc.balance = &b
	return prev, hadPrev
}

func (p *persistentStore) revertBalance(addr libcommon.Address, prev uint256.Int, hadPrev bool) {
	acc := p.account(addr)
	if hadPrev {
		b := prev
		acc.balance = &b
		return
	}
	acc.balance = nil
}

func (p *persistentStore) Nonce(addr libcommon.Address) (uint64, bool) {
	if acc, ok := p.accounts[addr]; ok && acc.nonce != nil {
		return *acc.nonce, true
	}
	return 0, false
}

func (p *persistentStore) SetNonce(addr libcommon.Address, nonce uint64) (prev uint64, hadPrev bool) {
	acc := p.account(addr)
	if acc.nonce != nil {
		prev, hadPrev = *acc.nonce, true
	}
	n := nonce
	acc.nonce = &n
	return prev, hadPrev
}

func (p *persistentStore) revertNonce(addr libcommon.Address, prev uint64, hadPrev bool) {
	acc := p.account(addr)
	if hadPrev {
		n := prev
		acc.nonce = &n
		return
	}
	acc.nonce = nil
}

func (p *persistentStore) Code(addr libcommon.Address) ([]byte, bool) {
	if acc, ok := p.accounts[addr]; ok && acc.codeSet {
		return acc.code, true
	}
	return nil, false
}

func (p *persistentStore) SetCode(addr libcommon.Address, code []byte) (prev []byte, hadPrev bool) {
	acc := p.account(addr)
	prev, hadPrev = acc.code, acc.codeSet
	acc.code = append([]byte(nil), code...)
	acc.codeSet = true
	return prev, hadPrev
}

func (p *persistentStore) revertCode(addr libcommon.Address, prev []byte, hadPrev bool) {
	acc := p.account(addr)
	if hadPrev {
		acc.code = prev
		acc.codeSet = true
		return
	}
	acc.code = nil
	acc.codeSet = false
}

// cacheStorage freezes a remotely resolved value into the shared account.
// The first resolution after marking wins; every fork sees it afterwards.
func (p *persistentStore) cacheStorage(addr libcommon.Address, key libcommon.Hash, value uint256.Int) {
	acc := p.account(addr)
	if _, ok := acc.storage[key]; !ok {
		acc.storage[key] = value
	}
}

func (p *persistentStore) cacheBalance(addr libcommon.Address, balance uint256.Int) {
	acc := p.account(addr)
	if acc.balance == nil {
		b := balance
		acc.balance = &b
	}
}

func (p *persistentStore) cacheNonce(addr libcommon.Address, nonce uint64) {
	acc := p.account(addr)
	if acc.nonce == nil {
		n := nonce
		acc.nonce = &n
	}
}

func (p *persistentStore) cacheCode(addr libcommon.Address, code []byte) {
	acc := p.account(addr)
	if !acc.codeSet {
		acc.code = append([]byte(nil), code...)
		acc.codeSet = true
	}
}
