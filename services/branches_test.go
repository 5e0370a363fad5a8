package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchServiceCRUD(t *testing.T) {
	branches := NewBranchService(setupStoreTestDB(t))
	ctx := context.Background()

	phone := " 4244-1234 "
	first, err := branches.Add(ctx, BranchInput{Name: " Adrogué ", Address: "Av. Espora 100", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Adrogué", first.Name)
	assert.Equal(t, "4244-1234", first.Phone)

	second, err := branches.Add(ctx, BranchInput{Name: "Lomas"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.ID)
	assert.Equal(t, "", second.Phone)

	_, err = branches.Add(ctx, BranchInput{Name: "  "})
	assert.ErrorIs(t, err, ErrEmptyName)

	// A nil phone keeps the stored one
	updated, err := branches.Update(ctx, 1, BranchInput{Name: "Adrogué Centro", Address: "Av. Espora 200"})
	require.NoError(t, err)
	assert.Equal(t, "4244-1234", updated.Phone)
	assert.Equal(t, "Av. Espora 200", updated.Address)

	empty := ""
	updated, err = branches.Update(ctx, 1, BranchInput{Name: "Adrogué Centro", Phone: &empty})
	require.NoError(t, err)
	assert.Equal(t, "", updated.Phone)

	_, err = branches.Update(ctx, 9, BranchInput{Name: "x"})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	require.NoError(t, branches.Delete(ctx, 1))
	assert.ErrorIs(t, branches.Delete(ctx, 1), ErrBranchNotFound)
	_, err = branches.Get(1)
	assert.ErrorIs(t, err, ErrBranchNotFound)

	// Ids keep growing from the highest remaining id
	third, err := branches.Add(ctx, BranchInput{Name: "Brown"})
	require.NoError(t, err)
	assert.Equal(t, 3, third.ID)

	list := branches.List()
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].ID)
	assert.Equal(t, 3, list[1].ID)
}

func TestBranchServiceSeed(t *testing.T) {
	branches := NewBranchService(setupStoreTestDB(t))
	ctx := context.Background()

	created, err := branches.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultBranches), created)
	assert.Len(t, branches.List(), 10)

	created, err = branches.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Len(t, branches.List(), 10)
}
