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
	"errors"
	"testing"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/stretchr/testify/require"
)

func localFork(t *testing.T) *Fork {
	t.Helper()
	return newFork(0, "", 0, nil, newPersistentStore())
}

func TestCheckpointCommitKeepsWrites(t *testing.T) {
	ctx := context.Background()
	f := localFork(t)
	addr := libcommon.HexToAddress("0xaa")
	slot := libcommon.HexToHash("0x01")

	f.Checkpoint()
	f.SetState(addr, slot, val(7))
	require.NoError(t, f.Commit())

	got, err := f.GetState(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, val(7), got)
}

func TestCommitUnderflow(t *testing.T) {
	f := localFork(t)
	err := f.Commit()
	require.ErrorIs(t, err, ErrJournalUnderflow)
}

func TestRevertToUnknownMarker(t *testing.T) {
	f := localFork(t)
	require.ErrorIs(t, f.RevertTo(42), ErrJournalUnderflow)

	m := f.Checkpoint()
	require.NoError(t, f.RevertTo(m))
	// The marker was consumed by the revert.
	require.ErrorIs(t, f.RevertTo(m), ErrJournalUnderflow)
}

func TestRevertRestoresCounter(t *testing.T) {
	f := localFork(t)

	m0 := f.Checkpoint()
	m1 := f.Checkpoint()
	m2 := f.Checkpoint()
	require.Equal(t, 0, m0)
	require.Equal(t, 1, m1)
	require.Equal(t, 2, m2)

	require.NoError(t, f.RevertTo(m1))
	// The counter resumes from the reverted marker's value.
	require.Equal(t, 1, f.Checkpoint())
}

func TestRevertUndoesBatchesInReverseOrder(t *testing.T) {
	ctx := context.Background()
	f := localFork(t)
	addr := libcommon.HexToAddress("0xaa")
	slot := libcommon.HexToHash("0x01")

	f.SetState(addr, slot, val(1))

	m0 := f.Checkpoint()
	f.SetState(addr, slot, val(2))
	f.SetBalance(addr, val(100))

	f.Checkpoint()
	f.SetState(addr, slot, val(3))
	f.SetCode(addr, []byte{0x60, 0x00})

	f.Checkpoint()
	f.SetState(addr, slot, val(4))
	f.SetNonce(addr, 9)

	require.NoError(t, f.RevertTo(m0))

	got, err := f.GetState(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, val(1), got)

	bal, err := f.GetBalance(ctx, addr)
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	code, err := f.GetCode(ctx, addr)
	require.NoError(t, err)
	require.Empty(t, code)

	nonce, err := f.GetNonce(ctx, addr)
	require.NoError(t, err)
	require.Zero(t, nonce)
}

func TestRevertRestoresNoOverride(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource(100)
	addr := libcommon.HexToAddress("0xaa")
	slot := libcommon.HexToHash("0x01")
	src.setStorage(addr, slot, 50, 11)

	f := newFork(0, "test", 50, src, newPersistentStore())

	m := f.Checkpoint()
	f.SetState(addr, slot, val(99))
	require.NoError(t, f.RevertTo(m))

	// With the override gone, the read falls through to the remote again.
	got, err := f.GetState(ctx, addr, slot)
	require.NoError(t, err)
	require.Equal(t, val(11), got)
}

func TestPartialRevertKeepsEarlierBatches(t *testing.T) {
	ctx := context.Background()
	f := localFork(t)
	addr := libcommon.HexToAddress("0xaa")
	s1 := libcommon.HexToHash("0x01")
	s2 := libcommon.HexToHash("0x02")

	f.Checkpoint()
	f.SetState(addr, s1, val(1))

	m1 := f.Checkpoint()
	f.SetState(addr, s2, val(2))

	require.NoError(t, f.RevertTo(m1))

	got, err := f.GetState(ctx, addr, s1)
	require.NoError(t, err)
	require.Equal(t, val(1), got)

	got, err = f.GetState(ctx, addr, s2)
	require.NoError(t, err)
	require.True(t, got.IsZero())
	require.Equal(t, 1, f.CheckpointDepth())
}

func TestJournalUnderflowIsCallerBug(t *testing.T) {
	j := newJournal()
	err := j.commit()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrJournalUnderflow))
}
