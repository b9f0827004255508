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

// Package cheat exposes the harness-facing state manipulation commands:
// direct storage writes, fork creation/selection/rolling, cross-fork
// persistence, impersonation, and checkpointed execution for revert
// assertions. Commands operate on the registry's active fork.
package cheat

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/ledgerwatch/log/v3"

	"github.com/cryptohub-digital/foundry/core/state"
)

// Precompile addresses are a protocol-level convention: the reserved range
// carries built-in functionality and no independent storage, so direct
// storage writes against it are rejected.
const (
	FirstPrecompile = 0x01
	LastPrecompile  = 0x09
)

const storeOnPrecompileMsg = "cannot use store cheatcode on precompile address"

// ErrStoreOnPrecompile rejects a direct storage write against a reserved
// precompile address.
type ErrStoreOnPrecompile struct {
	Addr libcommon.Address
}

func (e ErrStoreOnPrecompile) Error() string {
	return fmt.Sprintf("%s %s", storeOnPrecompileMsg, e.Addr.Hex())
}

var (
	// ErrAlreadyImpersonating is returned by StartImpersonation when a
	// previous impersonation has not been stopped.
	ErrAlreadyImpersonating = errors.New("cannot overwrite an active impersonation")

	// ErrNotImpersonating is returned by StopImpersonation when nothing is
	// being impersonated.
	ErrNotImpersonating = errors.New("no active impersonation to stop")
)

// Cheater binds the cheat commands to a fork registry.
type Cheater struct {
	reg    *state.Registry
	logger log.Logger

	impersonated *libcommon.Address
}

// New creates a Cheater over the given registry.
func New(reg *state.Registry, logger log.Logger) *Cheater {
	return &Cheater{reg: reg, logger: logger}
}

// Registry returns the underlying fork registry, for collaborators that need
// direct fork access.
func (c *Cheater) Registry() *state.Registry { return c.reg }

// isPrecompile reports whether addr falls in the reserved range
// [FirstPrecompile, LastPrecompile].
func isPrecompile(addr libcommon.Address) bool {
	for _, b := range addr[:len(addr)-1] {
		if b != 0 {
			return false
		}
	}
	last := addr[len(addr)-1]
	return last >= FirstPrecompile && last <= LastPrecompile
}

// Store writes value at (addr, slot) on the active fork, bypassing account
// existence checks: storage may be created for an address with no prior
// account record. Writes to precompile addresses are always rejected,
// regardless of prior state.
func (c *Cheater) Store(addr libcommon.Address, slot libcommon.Hash, value uint256.Int) error {
	if isPrecompile(addr) {
		return ErrStoreOnPrecompile{Addr: addr}
	}
	f, err := c.reg.ActiveFork()
	if err != nil {
		return err
	}
	f.SetState(addr, slot, value)
	return nil
}

// Load reads the value at (addr, slot) on the active fork.
func (c *Cheater) Load(ctx context.Context, addr libcommon.Address, slot libcommon.Hash) (uint256.Int, error) {
	f, err := c.reg.ActiveFork()
	if err != nil {
		return uint256.Int{}, err
	}
	return f.GetState(ctx, addr, slot)
}

// CreateFork creates a fork pinned at height without selecting it.
func (c *Cheater) CreateFork(ctx context.Context, alias string, height uint64) (state.ForkID, error) {
	return c.reg.CreateFork(ctx, alias, height)
}

// CreateForkAtHead creates a fork pinned at the endpoint's current head.
func (c *Cheater) CreateForkAtHead(ctx context.Context, alias string) (state.ForkID, error) {
	return c.reg.CreateForkAtHead(ctx, alias)
}

// CreateSelectFork creates a fork and makes it active.
func (c *Cheater) CreateSelectFork(ctx context.Context, alias string, height uint64) (state.ForkID, error) {
	return c.reg.CreateSelectFork(ctx, alias, height)
}

// SelectFork makes the given fork active.
func (c *Cheater) SelectFork(handle state.ForkID) error {
	return c.reg.SelectFork(handle)
}

// ActiveFork returns the handle of the active fork.
func (c *Cheater) ActiveFork() (state.ForkID, error) {
	f, err := c.reg.ActiveFork()
	if err != nil {
		return 0, err
	}
	return f.Handle(), nil
}

// RollFork moves the active fork to a new height.
func (c *Cheater) RollFork(ctx context.Context, height uint64) error {
	return c.reg.RollFork(ctx, height)
}

// RollForkTo moves a specific fork to a new height.
func (c *Cheater) RollForkTo(ctx context.Context, handle state.ForkID, height uint64) error {
	return c.reg.RollForkTo(ctx, handle, height)
}

// MakePersistent shares addr's account content across all forks.
func (c *Cheater) MakePersistent(ctx context.Context, addr libcommon.Address) error {
	return c.reg.MakePersistent(ctx, addr)
}

// RevokePersistent returns addr to per-fork isolation.
func (c *Cheater) RevokePersistent(addr libcommon.Address) {
	c.reg.RevokePersistent(addr)
}

// IsPersistent reports whether addr is shared across forks.
func (c *Cheater) IsPersistent(addr libcommon.Address) bool {
	return c.reg.IsPersistent(addr)
}
