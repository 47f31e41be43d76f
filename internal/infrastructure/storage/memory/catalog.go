package memory

import (
	"context"
	"sort"
	"sync"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/client"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
)

// IngredientRepository provides in-memory ingredient storage.
type IngredientRepository struct {
	mu     sync.RWMutex
	items  map[id.ID]*ingredient.Ingredient
	prices []ingredient.Price
}

// NewIngredientRepository creates a new in-memory ingredient repository.
func NewIngredientRepository() *IngredientRepository {
	return &IngredientRepository{items: make(map[id.ID]*ingredient.Ingredient)}
}

var _ ingredient.Repository = (*IngredientRepository)(nil)

func (r *IngredientRepository) Create(_ context.Context, ing *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *ing
	r.items[ing.ID] = &clone
	return nil
}

func (r *IngredientRepository) Update(_ context.Context, ing *ingredient.Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[ing.ID]; !ok {
		return apperror.NewNotFound("ingredient", ing.ID.String())
	}
	clone := *ing
	r.items[ing.ID] = &clone
	return nil
}

func (r *IngredientRepository) GetByID(_ context.Context, ingredientID id.ID) (*ingredient.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ing, ok := r.items[ingredientID]
	if !ok {
		return nil, apperror.NewNotFound("ingredient", ingredientID.String())
	}
	clone := *ing
	return &clone, nil
}

func (r *IngredientRepository) List(_ context.Context, includeInactive bool) ([]ingredient.Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]ingredient.Ingredient, 0, len(r.items))
	for _, ing := range r.items {
		if !includeInactive && !ing.IsActive {
			continue
		}
		list = append(list, *ing)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func (r *IngredientRepository) RecordPrice(_ context.Context, price *ingredient.Price) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices = append(r.prices, *price)
	return nil
}

func (r *IngredientRepository) LatestPrice(_ context.Context, ingredientID id.ID) (types.Money, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := false
	var latest ingredient.Price
	for _, p := range r.prices {
		if p.IngredientID != ingredientID {
			continue
		}
		if !found || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
			found = true
		}
	}
	if !found {
		return types.ZeroMoney(), false, nil
	}
	return latest.Price, true, nil
}

// RecipeRepository provides in-memory recipe storage.
type RecipeRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*recipe.Recipe
}

// NewRecipeRepository creates a new in-memory recipe repository.
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{items: make(map[id.ID]*recipe.Recipe)}
}

var _ recipe.Repository = (*RecipeRepository)(nil)

func (r *RecipeRepository) Create(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r *RecipeRepository) Update(_ context.Context, rec *recipe.Recipe) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rec.ID]; !ok {
		return apperror.NewNotFound("recipe", rec.ID.String())
	}
	r.items[rec.ID] = cloneRecipe(rec)
	return nil
}

func (r *RecipeRepository) GetByID(_ context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.items[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID.String())
	}
	return cloneRecipe(rec), nil
}

func (r *RecipeRepository) List(_ context.Context, includeInactive bool) ([]recipe.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]recipe.Recipe, 0, len(r.items))
	for _, rec := range r.items {
		if !includeInactive && !rec.IsActive {
			continue
		}
		list = append(list, *cloneRecipe(rec))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

func cloneRecipe(rec *recipe.Recipe) *recipe.Recipe {
	clone := *rec
	clone.Items = make([]recipe.Item, len(rec.Items))
	copy(clone.Items, rec.Items)
	return &clone
}

// ProductRepository provides in-memory product storage.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*product.Product
}

// NewProductRepository creates a new in-memory product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[id.ID]*product.Product)}
}

var _ product.Repository = (*ProductRepository)(nil)

func (r *ProductRepository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.items[p.ID] = &clone
	return nil
}

func (r *ProductRepository) Update(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return apperror.NewNotFound("product", p.ID.String())
	}
	clone := *p
	r.items[p.ID] = &clone
	return nil
}

func (r *ProductRepository) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	clone := *p
	return &clone, nil
}

func (r *ProductRepository) List(_ context.Context, includeInactive bool) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if !includeInactive && !p.IsActive {
			continue
		}
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// ClientRepository provides in-memory client storage.
type ClientRepository struct {
	mu    sync.RWMutex
	items map[id.ID]*client.Client
}

// NewClientRepository creates a new in-memory client repository.
func NewClientRepository() *ClientRepository {
	return &ClientRepository{items: make(map[id.ID]*client.Client)}
}

var _ client.Repository = (*ClientRepository)(nil)

func (r *ClientRepository) Create(_ context.Context, c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.items[c.ID] = &clone
	return nil
}

func (r *ClientRepository) Update(_ context.Context, c *client.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID]; !ok {
		return apperror.NewNotFound("client", c.ID.String())
	}
	clone := *c
	r.items[c.ID] = &clone
	return nil
}

func (r *ClientRepository) GetByID(_ context.Context, clientID id.ID) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.items[clientID]
	if !ok {
		return nil, apperror.NewNotFound("client", clientID.String())
	}
	clone := *c
	return &clone, nil
}

func (r *ClientRepository) List(_ context.Context, includeInactive bool) ([]client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]client.Client, 0, len(r.items))
	for _, c := range r.items {
		if !includeInactive && !c.IsActive {
			continue
		}
		list = append(list, *c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}
