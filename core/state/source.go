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

// RemoteSource reads account state from a remote chain snapshot. Results are
// deterministic for a fixed (address, height) key: historical data never
// changes, and the head height is frozen per fork at the value observed when
// the fork was pinned. Implementations report fetch failures by wrapping
// ErrRemoteUnavailable.
type RemoteSource interface {
	BalanceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint256.Int, error)
	NonceAt(ctx context.Context, addr libcommon.Address, height uint64) (uint64, error)
	CodeAt(ctx context.Context, addr libcommon.Address, height uint64) ([]byte, error)
	StorageAt(ctx context.Context, addr libcommon.Address, key libcommon.Hash, height uint64) (uint256.Int, error)

	// LatestHeight returns the endpoint's current head height, used to pin
	// forks created without an explicit height.
	LatestHeight(ctx context.Context) (uint64, error)

	// HeightExists reports whether the endpoint can serve the given height.
	HeightExists(ctx context.Context, height uint64) (bool, error)
}

// SourceResolver maps an endpoint alias to its remote source. The registry
// resolves aliases at fork creation; implementations may pool clients.
type SourceResolver interface {
	Source(alias string) (RemoteSource, error)
}
