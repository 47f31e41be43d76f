package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/core/tx"
	"fornada/internal/core/types"
	"fornada/internal/domain/catalogs/product"
	"fornada/internal/domain/planning"
	"fornada/internal/domain/settings"
	"fornada/internal/domain/stock"
	"fornada/pkg/logger"
	"fornada/pkg/numerator"
)

const numberPrefix = "ORD"

// Planner estimates costs and draws stock for order lines.
// *planning.Service satisfies this.
type Planner interface {
	EstimateProductUnitCost(ctx context.Context, productID id.ID) (types.Money, error)
	RequiredIngredients(ctx context.Context, lines []planning.OrderLine) (map[id.ID]types.Quantity, error)
	Shortages(ctx context.Context, lines []planning.OrderLine) ([]planning.Shortage, error)
	ConsumeForOrder(ctx context.Context, orderID id.ID, lines []planning.OrderLine, commit func(ctx context.Context) error) (map[id.ID]stock.ConsumeResult, error)
}

// ProductSource supplies manual price lookups.
type ProductSource interface {
	GetByID(ctx context.Context, productID id.ID) (*product.Product, error)
}

// ConfigSource supplies margin and stage configuration.
// *settings.Service satisfies this.
type ConfigSource interface {
	Get(ctx context.Context) (*settings.Config, error)
}

// Numberer hands out order numbers. *numerator.Service satisfies this.
type Numberer interface {
	GetNextNumber(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error)
}

// Service provides business operations for orders.
type Service struct {
	repo      Repository
	products  ProductSource
	planner   Planner
	config    ConfigSource
	numberer  Numberer
	txManager tx.Manager
}

// NewService creates a new order service.
func NewService(
	repo Repository,
	products ProductSource,
	planner Planner,
	config ConfigSource,
	numberer Numberer,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		products:  products,
		planner:   planner,
		config:    config,
		numberer:  numberer,
		txManager: txManager,
	}
}

// Create prices the order lines and stores the order.
//
// Per line: the sale price is the product's manual price when set,
// otherwise estimated cost marked up by the configured margin. The
// estimated cost itself is frozen on the line as a snapshot.
func (s *Service) Create(ctx context.Context, order *Order) error {
	if err := order.Validate(ctx); err != nil {
		return err
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if order.Status == "" {
		order.Status = cfg.Stages[0]
	} else if cfg.StageIndex(order.Status) < 0 {
		return apperror.NewValidation("unknown stage").
			WithDetail("field", "status").
			WithDetail("stage", order.Status)
	}

	markup := decimal.NewFromInt(1).Add(cfg.MarginDefault)
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		cost, err := s.planner.EstimateProductUnitCost(ctx, item.ProductID)
		if err != nil {
			return err
		}
		item.UnitCostSnapshot = cost

		if !item.UnitPrice.IsZero() {
			continue
		}
		p, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("load product: %w", err)
		}
		if p.ManualPrice != nil {
			item.UnitPrice = *p.ManualPrice
		} else {
			item.UnitPrice = cost.Mul(markup)
		}
	}
	order.RecalculateTotal()

	// Numbering runs outside the transaction; strict strategy keeps
	// numbers gapless.
	if order.Number == "" {
		number, err := s.numberer.GetNextNumber(ctx, numerator.DefaultConfig(numberPrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		order.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "order created", "id", order.ID, "number", order.Number, "total", order.Total)
	return nil
}

// GetByID retrieves an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	order.Items = items
	return order, nil
}

// List retrieves orders matching the filter, without items.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

// Update rewrites the order head and items. Orders that already drew
// stock are frozen.
func (s *Service) Update(ctx context.Context, order *Order) error {
	stored, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return err
	}
	if stored.Consumed() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "order already consumed stock and cannot be modified").
			WithDetail("orderId", order.ID)
	}
	if err := order.Validate(ctx); err != nil {
		return err
	}
	order.RecalculateTotal()
	order.Touch()

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, order); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return s.repo.SaveItems(ctx, order.ID, order.Items)
	})
}

// MoveStage advances the order to the given stage. Entering the
// configured consume stage draws FIFO stock for the whole order exactly
// once; repeated moves through that stage are no-ops for stock. The
// per-ingredient consumption results (including shortfalls) are
// returned to the caller.
func (s *Service) MoveStage(ctx context.Context, orderID id.ID, stage string) (map[id.ID]stock.ConsumeResult, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StageIndex(stage) < 0 {
		return nil, apperror.NewValidation("unknown stage").
			WithDetail("field", "stage").
			WithDetail("stage", stage)
	}

	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	order.Status = stage
	order.Touch()

	var results map[id.ID]stock.ConsumeResult
	if stage == cfg.ConsumeStage && !order.Consumed() {
		now := time.Now()
		order.ConsumedAt = &now
		// The head carrying the consumed-at mark is written inside the
		// consumption transaction: the draws and the mark commit or roll
		// back together, so a retried move can never draw stock twice.
		results, err = s.planner.ConsumeForOrder(ctx, orderID, s.lines(order), func(ctx context.Context) error {
			if err := s.repo.Update(ctx, order); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else if err := s.repo.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	logger.Info(ctx, "order stage moved", "id", orderID, "stage", stage, "consumed", results != nil)
	return results, nil
}

// MarkPaid sets the payment flag.
func (s *Service) MarkPaid(ctx context.Context, orderID id.ID, paid bool) error {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	order.Paid = paid
	order.Touch()
	return s.repo.Update(ctx, order)
}

// Shortages reports which ingredients would fall short if this order
// consumed stock now.
func (s *Service) Shortages(ctx context.Context, orderID id.ID) ([]planning.Shortage, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.planner.Shortages(ctx, s.lines(order))
}

// RequiredIngredients aggregates base ingredient demand for the order.
func (s *Service) RequiredIngredients(ctx context.Context, orderID id.ID) (map[id.ID]types.Quantity, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.planner.RequiredIngredients(ctx, s.lines(order))
}

func (s *Service) lines(order *Order) []planning.OrderLine {
	lines := make([]planning.OrderLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, planning.OrderLine{ProductID: item.ProductID, Qty: item.Qty})
	}
	return lines
}
