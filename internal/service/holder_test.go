package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetpool/api/internal/model"
)

func TestResolveNoMovements(t *testing.T) {
	ledger := newMemLedger()
	resolver := NewHolderResolver(ledger)

	state, err := resolver.Resolve(context.Background(), "V1")
	require.NoError(t, err)
	assert.False(t, state.CheckedOut)
	assert.Nil(t, state.HeldBy)
}

func TestResolveRoundTrip(t *testing.T) {
	ledger := newMemLedger()
	resolver := NewHolderResolver(ledger)
	ctx := context.Background()

	_, err := ledger.Append(ctx, "V1", model.OpPickup, 7, "", nil, nil)
	require.NoError(t, err)

	state, err := resolver.Resolve(ctx, "V1")
	require.NoError(t, err)
	assert.True(t, state.CheckedOut)
	require.NotNil(t, state.HeldBy)
	assert.Equal(t, 7, *state.HeldBy)

	_, err = ledger.Append(ctx, "V1", model.OpReturn, 7, "", nil, nil)
	require.NoError(t, err)

	state, err = resolver.Resolve(ctx, "V1")
	require.NoError(t, err)
	assert.False(t, state.CheckedOut)
}

func TestLatestOfTiebreak(t *testing.T) {
	ts := time.Now()
	movements := []model.Movement{
		{ID: 1, Op: model.OpPickup, EmpID: 7, Timestamp: ts},
		{ID: 2, Op: model.OpReturn, EmpID: 7, Timestamp: ts}, // same instant, later insert wins
	}
	latest := LatestOf(movements)
	require.NotNil(t, latest)
	assert.Equal(t, int64(2), latest.ID)

	state := HolderFromLatest(latest)
	assert.False(t, state.CheckedOut)
}

func TestHolderMap(t *testing.T) {
	now := time.Now()
	open := []model.Movement{
		{ID: 1, VehicleCode: "V1", Op: model.OpPickup, EmpID: 7, Timestamp: now},
		{ID: 2, VehicleCode: "V2", Op: model.OpPickup, EmpID: 8, Timestamp: now},
	}
	holders := HolderMap(open)

	assert.True(t, holders["V1"].HeldByEmp(7))
	assert.True(t, holders["V2"].HeldByEmp(8))
	assert.False(t, holders["V3"].CheckedOut)
}

func TestLedgerNoDoublePickup(t *testing.T) {
	ledger := newMemLedger()
	ctx := context.Background()

	_, err := ledger.Append(ctx, "V1", model.OpPickup, 7, "", nil, nil)
	require.NoError(t, err)

	_, err = ledger.Append(ctx, "V1", model.OpPickup, 8, "", nil, nil)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestLedgerReturnWithoutPickup(t *testing.T) {
	ledger := newMemLedger()
	_, err := ledger.Append(context.Background(), "V1", model.OpReturn, 7, "", nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidState)
}
