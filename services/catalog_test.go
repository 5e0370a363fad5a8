package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogServiceDuplicateCodeScenario(t *testing.T) {
	catalog := NewCatalogService(setupStoreTestDB(t))
	ctx := context.Background()

	p1, err := catalog.Create(ctx, ProductInput{Description: "Remera"})
	require.NoError(t, err)
	p2, err := catalog.Create(ctx, ProductInput{Description: "Pantalón"})
	require.NoError(t, err)

	_, err = catalog.AddCode(ctx, p1.ID, "123")
	require.NoError(t, err)
	_, err = catalog.AddCode(ctx, p2.ID, "123")
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.Equal(t, "duplicate_code", Reason(err))

	got1, _ := catalog.Get(p1.ID)
	got2, _ := catalog.Get(p2.ID)
	assert.Contains(t, got1.Codes, "123")
	assert.NotContains(t, got2.Codes, "123")

	owner, err := catalog.LookupByCode(" 123 ")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, owner.ID)
}

func TestCatalogServiceLookupAndSearch(t *testing.T) {
	catalog := NewCatalogService(setupStoreTestDB(t))
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := catalog.Create(ctx, ProductInput{Description: fmt.Sprintf("Producto %d", i), Code: fmt.Sprintf("P%03d", i)})
		require.NoError(t, err)
	}

	assert.Len(t, catalog.Search("", 0), DefaultSearchLimit)
	assert.Len(t, catalog.Search("", 1000), 60)
	assert.Len(t, catalog.Search("producto 1", 5), 5)
	assert.Len(t, catalog.Search("P005", 0), 1)

	_, err := catalog.LookupByCode("")
	assert.ErrorIs(t, err, ErrEmptyCode)
	_, err = catalog.LookupByCode("nope")
	assert.ErrorIs(t, err, ErrUnknownCode)

	p, err := catalog.Resolve(ResolveQuery{Description: "PRODUCTO 7"})
	require.NoError(t, err)
	assert.Equal(t, "Producto 7", p.Description)
}

func TestCatalogServiceMutations(t *testing.T) {
	catalog := NewCatalogService(setupStoreTestDB(t))
	ctx := context.Background()

	p, err := catalog.Create(ctx, ProductInput{Description: "Remera", Code: "A"})
	require.NoError(t, err)

	renamed, err := catalog.Rename(ctx, p.ID, "Remera Lisa")
	require.NoError(t, err)
	assert.Equal(t, "Remera Lisa", renamed.Description)

	codes, err := catalog.RemoveCode(ctx, p.ID, "A")
	require.NoError(t, err)
	assert.Empty(t, codes)

	require.NoError(t, catalog.Delete(ctx, p.ID))
	_, err = catalog.Get(p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, catalog.Delete(ctx, p.ID), ErrNotFound)
}
