package ingredient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/infrastructure/storage/memory"
)

func newIngredientService() (*ingredient.Service, *memory.IngredientRepository) {
	repo := memory.NewIngredientRepository()
	return ingredient.NewService(repo, memory.NewTxManager()), repo
}

func TestIngredientCreateAndGet(t *testing.T) {
	svc, _ := newIngredientService()
	ctx := context.Background()

	flour := ingredient.New("Flour", "g")
	require.NoError(t, svc.Create(ctx, flour))

	stored, err := svc.GetByID(ctx, flour.ID)
	require.NoError(t, err)
	require.Equal(t, "Flour", stored.Name)
	require.Equal(t, "g", stored.Unit)
	require.True(t, stored.IsActive)
}

func TestIngredientCreate_Validation(t *testing.T) {
	svc, _ := newIngredientService()
	ctx := context.Background()

	require.Error(t, svc.Create(ctx, ingredient.New("", "g")), "name required")
	require.Error(t, svc.Create(ctx, ingredient.New("Flour", "")), "unit required")
}

func TestIngredientDeactivate(t *testing.T) {
	svc, _ := newIngredientService()
	ctx := context.Background()

	flour := ingredient.New("Flour", "g")
	require.NoError(t, svc.Create(ctx, flour))
	require.NoError(t, svc.Deactivate(ctx, flour.ID))

	// Deactivated ingredients drop out of the default listing but stay
	// addressable: lots and ledger history keep pointing at them.
	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Empty(t, active)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.False(t, all[0].IsActive)

	stored, err := svc.GetByID(ctx, flour.ID)
	require.NoError(t, err)
	require.False(t, stored.IsActive)
}

func TestIngredientRecordPrice(t *testing.T) {
	svc, repo := newIngredientService()
	ctx := context.Background()

	flour := ingredient.New("Flour", "g")
	require.NoError(t, svc.Create(ctx, flour))

	require.NoError(t, svc.RecordPrice(ctx, flour.ID, types.MustMoney("0.002")))
	require.NoError(t, svc.RecordPrice(ctx, flour.ID, types.MustMoney("0.003")))

	price, found, err := repo.LatestPrice(ctx, flour.ID)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, price.Equal(types.MustMoney("0.003")), "latest observation wins, got %s", price)

	err = svc.RecordPrice(ctx, id.New(), types.MustMoney("1"))
	require.True(t, apperror.IsNotFound(err))
}
