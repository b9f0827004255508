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
	"fmt"
	"strings"
)

// WithCheckpoint runs fn under a fresh checkpoint on the active fork. On nil
// error the checkpoint is committed, keeping fn's writes. On error every
// write fn issued is undone, in reverse order, before the error is returned:
// the fork's overlay and journal end up exactly as before the call.
func (c *Cheater) WithCheckpoint(ctx context.Context, fn func(ctx context.Context) error) error {
	f, err := c.reg.ActiveFork()
	if err != nil {
		return err
	}
	marker := f.Checkpoint()
	if err := fn(ctx); err != nil {
		if revertErr := f.RevertTo(marker); revertErr != nil {
			// The marker was just issued; failing to revert to it means the
			// journal was corrupted by fn. Not recoverable.
			panic(revertErr)
		}
		return err
	}
	return f.Commit()
}

// ExpectRevert runs fn expecting it to fail with an error containing match.
// The active fork's state is rolled back either way: a call that was expected
// to revert leaves no writes behind even when it unexpectedly succeeds. It
// returns an error when fn succeeds or fails with a non-matching message.
func (c *Cheater) ExpectRevert(ctx context.Context, match string, fn func(ctx context.Context) error) error {
	f, err := c.reg.ActiveFork()
	if err != nil {
		return err
	}
	marker := f.Checkpoint()
	callErr := fn(ctx)
	if revertErr := f.RevertTo(marker); revertErr != nil {
		// The marker was just issued; failing to revert to it means the
		// journal was corrupted by fn. Not recoverable.
		panic(revertErr)
	}
	if callErr == nil {
		return fmt.Errorf("call was expected to revert with %q but succeeded", match)
	}
	if match != "" && !strings.Contains(callErr.Error(), match) {
		return fmt.Errorf("call reverted with %q, expected %q", callErr.Error(), match)
	}
	return nil
}
