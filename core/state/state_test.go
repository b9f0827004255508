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
	"fmt"

	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/ledgerwatch/log/v3"
)

// fakeSource is an in-memory RemoteSource with values keyed by height, so
// tests can observe height-sensitive reads and count fetches.
type fakeSource struct {
	latest   uint64
	storage  map[string]uint256.Int
	balances map[string]uint256.Int
	nonces   map[string]uint64
	codes    map[string][]byte

	fetches int
	err     error
}

func newFakeSource(latest uint64) *fakeSource {
	return &fakeSource{
		latest:   latest,
		storage:  make(map[string]uint256.Int),
		balances: make(map[string]uint256.Int),
		nonces:   make(map[string]uint64),
		codes:    make(map[string][]byte),
	}
}

func storageKeyAt(addr libcommon.Address, key libcommon.Hash, height uint64) string {
	return fmt.Sprintf("%d/%x/%x", height, addr, key)
}

func accountKeyAt(addr libcommon.Address, height uint64) string {
	return fmt.Sprintf("%d/%x", height, addr)
}

func (s *fakeSource) setStorage(addr libcommon.Address, key libcommon.Hash, height uint64, v uint64) {
	s.storage[storageKeyAt(addr, key, height)] = *uint256.NewInt(v)
}

func (s *fakeSource) setBalance(addr libcommon.Address, height uint64, v uint64) {
	s.balances[accountKeyAt(addr, height)] = *uint256.NewInt(v)
}

func (s *fakeSource) StorageAt(ctx context.Context, addr libcommon.Address, key libcommon.Hash, height uint64) (uint256.Int, error) {
	s.fetches++
	if s.err != nil {
		return uint256.Int{}, s.err
	}
	return s.storage[storageKeyAt(addr, key, height)], nil
}

func (s *fakeSource) BalanceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint256.Int, error) {
	s.fetches++
	if s.err != nil {
		return uint256.Int{}, s.err
	}
	return s.balances[accountKeyAt(addr, height)], nil
}

func (s *fakeSource) NonceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint64, error) {
	s.fetches++
	if s.err != nil {
		return 0, s.err
	}
	return s.nonces[accountKeyAt(addr, height)], nil
}

func (s *fakeSource) CodeAt(ctx context.Context, addr libcommon.Address, height uint64) ([]byte, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.codes[accountKeyAt(addr, height)], nil
}

func (s *fakeSource) LatestHeight(ctx context.Context) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.latest, nil
}

func (s *fakeSource) HeightExists(ctx context.Context, height uint64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return height <= s.latest, nil
}

// fakeResolver maps aliases to fake sources.
type fakeResolver struct {
	sources map[string]*fakeSource
}

func (r *fakeResolver) Source(alias string) (RemoteSource, error) {
	src, ok := r.sources[alias]
	if !ok {
		return nil, fmt.Errorf("no endpoint configured for alias %q: %w", alias, ErrRemoteUnavailable)
	}
	return src, nil
}

func testRegistry(sources map[string]*fakeSource) *Registry {
	logger := log.New()
	logger.SetHandler(log.DiscardHandler())
	return NewRegistry(&fakeResolver{sources: sources}, logger)
}

func val(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}
