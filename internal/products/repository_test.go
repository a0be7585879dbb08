package product

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/fruitshop-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryCRUD(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	apple := mustCreateProduct(t, repo, "Apple", "Crisp and red", "1.25")
	require.NotZero(t, apple.ID)

	got, err := repo.FindByID(ctx, apple.ID)
	require.NoError(t, err)
	assert.Equal(t, "Apple", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1.25")))

	got.Name = "Green Apple"
	got.Price = decimal.RequireFromString("1.40")
	require.NoError(t, repo.Update(ctx, got))

	reloaded, err := repo.FindByID(ctx, apple.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", reloaded.Name)
	assert.True(t, reloaded.Price.Equal(decimal.RequireFromString("1.4")))

	require.NoError(t, repo.Delete(ctx, apple.ID))
	_, err = repo.FindByID(ctx, apple.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	err = repo.Delete(ctx, apple.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositorySearchMatchesNameOrDescription(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "Mango", "Sweet tropical fruit", "2.00")
	mustCreateProduct(t, repo, "Lemon", "Sour and bright", "0.50")
	mustCreateProduct(t, repo, "Papaya", "Another TROPICAL pick", "3.00")

	rows, err := repo.List(ctx, "tropical", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Papaya", rows[0].Name, "newest first")
	assert.Equal(t, "Mango", rows[1].Name)

	rows, err = repo.List(ctx, "LEM", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	total, err := repo.Count(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestRepositorySearchFoldsNonASCII(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "äpfel", "Süße Früchte", "1.10")
	mustCreateProduct(t, repo, "Pear", "Plain", "0.90")

	rows, err := repo.List(ctx, "ÄPFEL", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "äpfel", rows[0].Name)

	total, err := repo.Count(ctx, "FRÜCHTE")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRepositorySearchEscapesWildcards(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	mustCreateProduct(t, repo, "Kiwi", "100% natural", "1.00")
	mustCreateProduct(t, repo, "Plum", "1000 natural", "1.00")

	rows, err := repo.List(ctx, "100%", 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Kiwi", rows[0].Name)

	total, err := repo.Count(ctx, "_")
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestRepositoryListPages(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		mustCreateProduct(t, repo, name, "", "1.00")
	}

	rows, err := repo.List(ctx, "", 2, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C", rows[0].Name)
	assert.Equal(t, "B", rows[1].Name)
}

func TestRepositoryFindByIDsSkipsMissing(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	a := mustCreateProduct(t, repo, "A", "", "1.00")
	b := mustCreateProduct(t, repo, "B", "", "2.00")

	rows, err := repo.FindByIDs(ctx, []uint{a.ID, b.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.FindByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
