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

package remotedb

import (
	"context"

	"github.com/holiman/uint256"
	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"golang.org/x/sync/errgroup"
)

// Account is the remotely observed top-level content of one account.
type Account struct {
	Balance uint256.Int
	Nonce   uint64
	Code    []byte
}

// AccountAt primes all top-level fields of an account in one shot, fetching
// them concurrently against the same pinned height.
func (c *Client) AccountAt(ctx context.Context, addr libcommon.Address, height uint64) (Account, error) {
	var acc Account
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := c.BalanceAt(gctx, addr, height)
		if err != nil {
			return err
		}
		acc.Balance = b
		return nil
	})
	g.Go(func() error {
		n, err := c.NonceAt(gctx, addr, height)
		if err != nil {
			return err
		}
		acc.Nonce = n
		return nil
	})
	g.Go(func() error {
		code, err := c.CodeAt(gctx, addr, height)
		if err != nil {
			return err
		}
		acc.Code = code
		return nil
	})
	if err := g.Wait(); err != nil {
		return Account{}, err
	}
	return acc, nil
}
