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

package cheat

import (
	"context"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
)

// StartImpersonation makes addr the sender for subsequent calls executed by
// the harness. A second start without a stop is rejected; impersonations do
// not nest.
func (c *Cheater) StartImpersonation(addr libcommon.Address) error {
	if c.impersonated != nil {
		return ErrAlreadyImpersonating
	}
	a := addr
	c.impersonated = &a
	c.logger.Debug("impersonation started", "address", addr)
	return nil
}

// StopImpersonation ends the current impersonation.
func (c *Cheater) StopImpersonation() error {
	if c.impersonated == nil {
		return ErrNotImpersonating
	}
	c.logger.Debug("impersonation stopped", "address", *c.impersonated)
	c.impersonated = nil
	return nil
}

// Impersonated returns the impersonated sender, if any.
func (c *Cheater) Impersonated() (libcommon.Address, bool) {
	if c.impersonated == nil {
		return libcommon.Address{}, false
	}
	return *c.impersonated, true
}

// SenderForCall resolves the effective sender for a call about to be executed
// and bumps its nonce through the active fork's overlay, so sender bookkeeping
// follows fork switches and is undone by checkpoint reverts like any other
// write. defaultSender is used when nothing is impersonated.
func (c *Cheater) SenderForCall(ctx context.Context, defaultSender libcommon.Address) (libcommon.Address, error) {
	sender := defaultSender
	if c.impersonated != nil {
		sender = *c.impersonated
	}
	f, err := c.reg.ActiveFork()
	if err != nil {
		return libcommon.Address{}, err
	}
	nonce, err := f.GetNonce(ctx, sender)
	if err != nil {
		return libcommon.Address{}, err
	}
	f.SetNonce(sender, nonce+1)
	return sender, nil
}
