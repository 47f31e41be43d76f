// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/types"
	"fornada/internal/domain/auth"
	"fornada/internal/domain/catalogs/client"
	"fornada/internal/domain/catalogs/ingredient"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/catalogs/recipe"
	"fornada/internal/domain/settings"
	"fornada/internal/domain/stock"
	"fornada/internal/infrastructure/storage/postgres"
	"fornada/internal/infrastructure/storage/postgres/auth_repo"
	"fornada/internal/infrastructure/storage/postgres/catalog_repo"
	"fornada/internal/infrastructure/storage/postgres/stock_repo"
	"fornada/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	userRepo := auth_repo.NewUserRepo(txManager)
	roleRepo := auth_repo.NewRoleRepo(txManager)

	if err := seedRoles(ctx, roleRepo, log); err != nil {
		log.Fatalw("failed to seed roles", "error", err)
	}

	if err := seedAdminUser(ctx, userRepo, roleRepo, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if err := seedConfig(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed configuration", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

// seedRoles creates the built-in roles. Existing roles are left untouched.
func seedRoles(ctx context.Context, roleRepo *auth_repo.RoleRepo, log *logger.Logger) error {
	roles := []struct {
		code        string
		name        string
		description string
		permissions []string
	}{
		{
			"admin", "Administrator", "Full access to everything",
			auth.AllPermissions,
		},
		{
			"manager", "Manager", "Catalogs, orders, stock and reports",
			[]string{
				auth.PermManageIngredients,
				auth.PermManageRecipes,
				auth.PermManageProducts,
				auth.PermManageClients,
				auth.PermManageOrders,
				auth.PermManageStock,
				auth.PermViewReports,
			},
		},
		{
			"staff", "Staff", "Orders and stock operations",
			[]string{
				auth.PermManageOrders,
				auth.PermManageStock,
				auth.PermViewReports,
			},
		},
	}

	for _, r := range roles {
		if _, err := roleRepo.GetByCode(ctx, r.code); err == nil {
			continue
		} else if !apperror.IsNotFound(err) {
			return err
		}

		role := auth.NewRole(r.code, r.name, r.permissions)
		role.Description = r.description
		role.IsSystem = true
		if err := roleRepo.Create(ctx, role); err != nil {
			return fmt.Errorf("create role %s: %w", r.code, err)
		}
		log.Infow("role created", "code", r.code)
	}
	return nil
}

// seedAdminUser creates the initial admin account if it does not exist.
func seedAdminUser(ctx context.Context, userRepo *auth_repo.UserRepo, roleRepo *auth_repo.RoleRepo, log *logger.Logger) error {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		password = "Admin123!"
	}

	exists, err := userRepo.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "username", username)
		return nil
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := auth.NewUser(username, string(passwordHash))
	user.DisplayName = "System Admin"
	user.IsAdmin = true
	if err := userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("insert admin user: %w", err)
	}

	adminRole, err := roleRepo.GetByCode(ctx, "admin")
	if err != nil {
		log.Warnw("admin role not found, skipping role assignment", "error", err)
	} else if err := userRepo.AssignRole(ctx, user.ID, adminRole.ID, id.Nil()); err != nil {
		log.Warnw("failed to assign admin role", "error", err)
	}

	log.Infow("admin user created", "username", username, "user_id", user.ID)
	return nil
}

// seedConfig stores the default margin and stage pipeline once.
func seedConfig(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	repo := postgres.NewSettingsRepo(txManager)

	if _, err := repo.Get(ctx); err == nil {
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}

	if err := repo.Save(ctx, settings.DefaultConfig()); err != nil {
		return err
	}
	log.Info("default configuration stored")
	return nil
}

// seedDemoData fills the catalogs and stock with a small bakery dataset.
func seedDemoData(ctx context.Context, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) error {
	log.Info("seeding demo data...")

	ingredientRepo := catalog_repo.NewIngredientRepo(txManager)
	recipeRepo := catalog_repo.NewRecipeRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	clientRepo := catalog_repo.NewClientRepo(txManager)
	stockRepo := stock_repo.NewStockRepo(txManager)

	ingredientService := ingredient.NewService(ingredientRepo, txManager)
	recipeService := recipe.NewService(recipeRepo, txManager)
	productService := product.NewService(productRepo, txManager)
	clientService := client.NewService(clientRepo, txManager)
	stockService := stock.NewService(ingredientRepo, stockRepo, txManager)

	// 1. Ingredients with purchase prices
	ingredientSeeds := []struct {
		name  string
		unit  string
		price float64
	}{
		{"Flour", "g", 0.002},
		{"Sugar", "g", 0.003},
		{"Butter", "g", 0.012},
		{"Egg", "un", 0.45},
		{"Milk", "ml", 0.0015},
	}

	ingredientIDs := make(map[string]id.ID)
	for _, seed := range ingredientSeeds {
		ing := ingredient.New(seed.name, seed.unit)
		if err := ingredientService.Create(ctx, ing); err != nil {
			log.Warnw("failed to seed ingredient", "name", seed.name, "error", err)
			continue
		}
		if err := ingredientService.RecordPrice(ctx, ing.ID, types.NewMoney(seed.price)); err != nil {
			log.Warnw("failed to record price", "name", seed.name, "error", err)
		}
		ingredientIDs[seed.name] = ing.ID
	}

	// 2. Recipes: a base dough and a composed product recipe
	dough := recipe.New("Shortcrust Dough", types.NewQuantityFromFloat64(1000), "g")
	dough.AddIngredient(ingredientIDs["Flour"], types.NewQuantityFromFloat64(600), recipe.KindWeight)
	dough.AddIngredient(ingredientIDs["Butter"], types.NewQuantityFromFloat64(300), recipe.KindWeight)
	dough.AddIngredient(ingredientIDs["Sugar"], types.NewQuantityFromFloat64(100), recipe.KindWeight)
	if err := recipeService.Create(ctx, dough); err != nil {
		return fmt.Errorf("seed dough recipe: %w", err)
	}

	tart := recipe.New("Berry Tart", types.NewQuantityFromFloat64(8), "un")
	tart.AddSubRecipe(dough.ID, types.NewQuantityFromFloat64(500), recipe.KindWeight)
	tart.AddIngredient(ingredientIDs["Egg"], types.NewQuantityFromFloat64(2), recipe.KindCount)
	tart.AddIngredient(ingredientIDs["Milk"], types.NewQuantityFromFloat64(150), recipe.KindWeight)
	if err := recipeService.Create(ctx, tart); err != nil {
		return fmt.Errorf("seed tart recipe: %w", err)
	}

	// 3. Products: one recipe-backed, one manually priced
	tartProduct := product.New("Berry Tart")
	tartProduct.RecipeID = &tart.ID
	if err := productService.Create(ctx, tartProduct); err != nil {
		return fmt.Errorf("seed tart product: %w", err)
	}

	boxPrice := types.NewMoney(4.50)
	box := product.New("Gift Box")
	box.ManualPrice = &boxPrice
	if err := productService.Create(ctx, box); err != nil {
		return fmt.Errorf("seed box product: %w", err)
	}

	// 4. Client
	cafe := client.New("Cafe Aurora")
	cafe.Phone = "+351 210 000 000"
	cafe.Address = "Rua das Flores 12, Lisboa"
	if err := clientService.Create(ctx, cafe); err != nil {
		return fmt.Errorf("seed client: %w", err)
	}

	// 5. Stock lots, with staggered expiry so FIFO has something to order
	nearExpiry := time.Now().AddDate(0, 0, 7)
	farExpiry := time.Now().AddDate(0, 1, 0)

	lotSeeds := []struct {
		ingredient string
		qty        float64
		cost       float64
		bestBefore *time.Time
	}{
		{"Flour", 5000, 0.002, &farExpiry},
		{"Flour", 2000, 0.0025, &nearExpiry},
		{"Sugar", 3000, 0.003, nil},
		{"Butter", 1500, 0.012, &nearExpiry},
		{"Egg", 60, 0.45, &nearExpiry},
		{"Milk", 4000, 0.0015, &nearExpiry},
	}

	for _, seed := range lotSeeds {
		ingredientID, ok := ingredientIDs[seed.ingredient]
		if !ok {
			continue
		}
		ing, err := ingredientService.GetByID(ctx, ingredientID)
		if err != nil {
			continue
		}
		_, err = stockService.CreateLot(ctx, ingredientID,
			types.NewQuantityFromFloat64(seed.qty), ing.Unit,
			types.NewMoney(seed.cost), seed.bestBefore, "initial stock")
		if err != nil {
			log.Warnw("failed to seed lot", "ingredient", seed.ingredient, "error", err)
		}
	}

	postgres.LogPoolStats(ctx, pool.Pool)
	log.Info("demo data seeded successfully")
	return nil
}
