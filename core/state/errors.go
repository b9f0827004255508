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
	"errors"
	"fmt"
)

var (
	// ErrNoActiveFork is returned by commands that require an active fork
	// before any fork has been created and selected.
	ErrNoActiveFork = errors.New("no fork is currently active")

	// ErrRemoteUnavailable wraps failures of the remote state source after
	// bounded retry. It is terminal for the command that triggered the fetch.
	ErrRemoteUnavailable = errors.New("remote state source unavailable")

	// ErrJournalUnderflow indicates a commit or revert against a checkpoint
	// that was never opened, or was already unwound. Caller bug.
	ErrJournalUnderflow = errors.New("checkpoint journal underflow")
)

// ErrUnknownFork is returned when a fork handle was never issued by the
// registry.
type ErrUnknownFork struct {
	Handle ForkID
}

func (e ErrUnknownFork) Error() string {
	return fmt.Sprintf("unknown fork handle %d", e.Handle)
}

// ErrInvalidHeight is returned when a block height cannot be resolved
// against a fork's endpoint.
type ErrInvalidHeight struct {
	Alias  string
	Height uint64
}

func (e ErrInvalidHeight) Error() string {
	return fmt.Sprintf("block height %d cannot be resolved against endpoint %q", e.Height, e.Alias)
}
