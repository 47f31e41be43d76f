package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
)

func TestRecipeValidate(t *testing.T) {
	ctx := context.Background()
	ingredientID := id.New()

	r := New("Dough", types.NewQuantityFromFloat64(1000), "g")
	r.AddIngredient(ingredientID, types.NewQuantityFromFloat64(600), KindWeight)
	require.NoError(t, r.Validate(ctx))

	t.Run("empty name", func(t *testing.T) {
		bad := New("", types.NewQuantityFromFloat64(1000), "g")
		require.Error(t, bad.Validate(ctx))
	})

	t.Run("non-positive yield", func(t *testing.T) {
		bad := New("Dough", 0, "g")
		bad.AddIngredient(ingredientID, types.NewQuantityFromFloat64(100), KindWeight)
		require.Error(t, bad.Validate(ctx))
	})

	t.Run("direct self-reference", func(t *testing.T) {
		bad := New("Ouroboros", types.NewQuantityFromFloat64(1), "un")
		bad.AddSubRecipe(bad.ID, types.NewQuantityFromFloat64(1), KindWeight)
		err := bad.Validate(ctx)
		require.True(t, apperror.IsCyclicRecipe(err), "got %v", err)
	})
}

func TestItemValidate(t *testing.T) {
	ctx := context.Background()
	ingredientID := id.New()
	subRecipeID := id.New()
	one := types.NewQuantityFromFloat64(1)

	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name: "ingredient item",
			item: Item{IngredientID: &ingredientID, Qty: one, Kind: KindWeight},
		},
		{
			name: "sub-recipe item",
			item: Item{SubRecipeID: &subRecipeID, Qty: one, Kind: KindCount},
		},
		{
			name:    "neither target",
			item:    Item{Qty: one, Kind: KindWeight},
			wantErr: true,
		},
		{
			name:    "both targets",
			item:    Item{IngredientID: &ingredientID, SubRecipeID: &subRecipeID, Qty: one, Kind: KindWeight},
			wantErr: true,
		},
		{
			name:    "non-positive quantity",
			item:    Item{IngredientID: &ingredientID, Qty: 0, Kind: KindWeight},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			item:    Item{IngredientID: &ingredientID, Qty: one, Kind: "volume"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate(ctx)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestItemValidate_NilUUIDCountsAsUnset(t *testing.T) {
	nilID := id.Nil()
	item := Item{IngredientID: &nilID, Qty: types.NewQuantityFromFloat64(1), Kind: KindWeight}
	require.Error(t, item.Validate(context.Background()))
}
