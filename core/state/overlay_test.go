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
	"testing"

	libcommon "github.com/ledgerwatch/erigon-lib/common"
	"github.com/stretchr/testify/require"
)

func TestOverlayWrittenShadowsFetched(t *testing.T) {
	o := NewOverlay()
	addr := libcommon.HexToAddress("0xaa")
	slot := libcommon.HexToHash("0x01")

	o.cacheStorage(addr, slot, val(1))
	got, ok := o.StorageValue(addr, slot)
	require.True(t, ok)
	require.Equal(t, val(1), got)

	o.SetStorage(addr, slot, val(2))
	got, ok = o.StorageValue(addr, slot)
	require.True(t, ok)
	require.Equal(t, val(2), got)
}

func TestOverlayInvalidateFetchedKeepsWrites(t *testing.T) {
	o := NewOverlay()
	addr := libcommon.HexToAddress("0xaa")
	written := libcommon.HexToHash("0x01")
	cached := libcommon.HexToHash("0x02")

	o.SetStorage(addr, written, val(1))
	o.cacheStorage(addr, cached, val(2))
	o.cacheBalance(addr, val(3))
	o.SetNonce(addr, 4)

	o.InvalidateFetched()

	got, ok := o.StorageValue(addr, written)
	require.True(t, ok)
	require.Equal(t, val(1), got)

	_, ok = o.StorageValue(addr, cached)
	require.False(t, ok)

	_, ok = o.Balance(addr)
	require.False(t, ok)

	nonce, ok := o.Nonce(addr)
	require.True(t, ok)
	require.Equal(t, uint64(4), nonce)
}

func TestOverlayUnsetRestoresAbsence(t *testing.T) {
	o := NewOverlay()
	addr := libcommon.HexToAddress("0xaa")
	slot := libcommon.HexToHash("0x01")

	_, hadPrev := o.SetStorage(addr, slot, val(1))
	require.False(t, hadPrev)

	prev, hadPrev := o.SetStorage(addr, slot, val(2))
	require.True(t, hadPrev)
	require.Equal(t, val(1), prev)

	o.unsetStorage(addr, slot)
	_, ok := o.StorageValue(addr, slot)
	require.False(t, ok)
}

func TestOverlayKnownContentPrefersWrites(t *testing.T) {
	o := NewOverlay()
	addr := libcommon.HexToAddress("0xaa")
	s1 := libcommon.HexToHash("0x01")
	s2 := libcommon.HexToHash("0x02")

	o.cacheStorage(addr, s1, val(1))
	o.cacheStorage(addr, s2, val(2))
	o.SetStorage(addr, s1, val(10))
	o.cacheBalance(addr, val(5))

	content := o.knownContent(addr)
	require.Equal(t, val(10), content.storage[s1])
	require.Equal(t, val(2), content.storage[s2])
	require.NotNil(t, content.balance)
	require.Equal(t, val(5), *content.balance)
}

func TestOverlayCodeOverride(t *testing.T) {
	o := NewOverlay()
	addr := libcommon.HexToAddress("0xaa")

	_, ok := o.Code(addr)
	require.False(t, ok)

	o.SetCode(addr, []byte{0x60})
	code, ok := o.Code(addr)
	require.True(t, ok)
	require.Equal(t, []byte{0x60}, code)

	// Explicitly empty code is still an override.
	o.SetCode(addr, nil)
	code, ok = o.Code(addr)
	require.True(t, ok)
	require.Empty(t, code)
}
