package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John840001/decentroz/internal/directory"
	"github.com/John840001/decentroz/internal/entity"
	"github.com/John840001/decentroz/internal/storage/memory"
)

const (
	aliceAddr = "0x00000000000000000000000000000000000000a1"
	bobAddr   = "0x00000000000000000000000000000000000000b2"
)

func TestRegisterOnce(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())

	require.NoError(t, svc.Register(ctx, aliceAddr, "Alice", "painter", true, false))

	err := svc.Register(ctx, aliceAddr, "Alice again", "", false, true)
	assert.ErrorIs(t, err, entity.ErrAlreadyRegistered)

	// The failed attempt must not touch the stored profile.
	record, registered, err := svc.Details(ctx, aliceAddr)
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, "Alice", record.Name)
	assert.True(t, record.IsBuyer)
	assert.False(t, record.IsSeller)
}

func TestRegisterCaseInsensitiveAddress(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())

	require.NoError(t, svc.Register(ctx, "0x00000000000000000000000000000000000000AA", "Alice", "", true, false))

	err := svc.Register(ctx, "0x00000000000000000000000000000000000000aa", "Imposter", "", true, false)
	assert.ErrorIs(t, err, entity.ErrAlreadyRegistered)
}

func TestUpdateDetails(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())
	require.NoError(t, svc.Register(ctx, aliceAddr, "Alice", "painter", true, false))

	require.NoError(t, svc.UpdateDetails(ctx, aliceAddr, "Alicia", "sculptor"))

	record, _, err := svc.Details(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", record.Name)
	assert.Equal(t, "sculptor", record.Description)
	// Role flags are untouched by a details update.
	assert.True(t, record.IsBuyer)
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())
	require.NoError(t, svc.Register(ctx, aliceAddr, "Alice", "", true, false))

	require.NoError(t, svc.UpdateRole(ctx, aliceAddr, false, true))

	record, _, err := svc.Details(ctx, aliceAddr)
	require.NoError(t, err)
	assert.False(t, record.IsBuyer)
	assert.True(t, record.IsSeller)
}

func TestUpdatesRequireRegistration(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())

	assert.ErrorIs(t, svc.UpdateDetails(ctx, bobAddr, "Bob", ""), entity.ErrNotRegistered)
	assert.ErrorIs(t, svc.UpdateRole(ctx, bobAddr, true, true), entity.ErrNotRegistered)
	assert.ErrorIs(t, svc.IncrementAssets(ctx, bobAddr), entity.ErrNotRegistered)
}

func TestIncrementAssets(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())
	require.NoError(t, svc.Register(ctx, aliceAddr, "Alice", "", false, true))

	require.NoError(t, svc.IncrementAssets(ctx, aliceAddr))
	require.NoError(t, svc.IncrementAssets(ctx, aliceAddr))

	record, _, err := svc.Details(ctx, aliceAddr)
	require.NoError(t, err)
	assert.Equal(t, int64(2), record.TotalAssetsCreated)
}

func TestDetailsUnregistered(t *testing.T) {
	ctx := context.Background()
	svc := directory.NewService(memory.New())

	record, registered, err := svc.Details(ctx, bobAddr)
	require.NoError(t, err)
	assert.False(t, registered)
	assert.Equal(t, bobAddr, record.Address)
	assert.Empty(t, record.Name)
}
