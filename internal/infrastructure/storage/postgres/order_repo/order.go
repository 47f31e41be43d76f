// Package order_repo provides the PostgreSQL implementation of the
// order repository.
package order_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/orders"
	"fornada/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "doc_orders"
	orderItemsTable = "doc_order_items"
)

var (
	orderColumns = []string{
		"id", "number", "client_id", "status", "paid", "delivery_date",
		"total", "notes", "consumed_at", "version", "created_at",
	}
	itemColumns = []string{
		"id", "order_id", "product_id", "qty", "unit_price", "unit_cost_snapshot",
	}
)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ orders.Repository = (*OrderRepo)(nil)

func (r *OrderRepo) Create(ctx context.Context, order *orders.Order) error {
	q := r.builder.Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			order.ID, order.Number, order.ClientID, order.Status, order.Paid,
			order.DeliveryDate, order.Total, order.Notes, order.ConsumedAt,
			order.Version, order.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepo) Update(ctx context.Context, order *orders.Order) error {
	q := r.builder.Update(ordersTable).
		Set("client_id", order.ClientID).
		Set("status", order.Status).
		Set("paid", order.Paid).
		Set("delivery_date", order.DeliveryDate).
		Set("total", order.Total).
		Set("notes", order.Notes).
		Set("consumed_at", order.ConsumedAt).
		Set("version", order.Version).
		Where(squirrel.Eq{"id": order.ID}).
		Where(squirrel.Lt{"version": order.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("order", order.ID.String())
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var order orders.Order
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &order, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID.String())
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepo) List(ctx context.Context, filter orders.ListFilter) ([]orders.Order, error) {
	q := r.builder.Select(orderColumns...).From(ordersTable)

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Paid != nil {
		q = q.Where(squirrel.Eq{"paid": *filter.Paid})
	}

	q = q.OrderBy("number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []orders.Order
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return list, nil
}

// SaveItems rewrites the table part. Inside a transaction the delete
// and the per-item inserts go to the server in one round-trip.
func (r *OrderRepo) SaveItems(ctx context.Context, orderID id.ID, items []orders.Item) error {
	delSQL, delArgs, err := r.builder.Delete(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if r.txManager.GetTx(ctx) != nil {
		queries := make([]postgres.BatchQuery, 0, len(items)+1)
		queries = append(queries, postgres.BatchQuery{SQL: delSQL, Args: delArgs})
		for _, item := range items {
			insSQL, insArgs, err := r.builder.Insert(orderItemsTable).
				Columns(itemColumns...).
				Values(item.ID, orderID, item.ProductID, item.Qty, item.UnitPrice, item.UnitCostSnapshot).
				ToSql()
			if err != nil {
				return fmt.Errorf("build insert: %w", err)
			}
			queries = append(queries, postgres.BatchQuery{SQL: insSQL, Args: insArgs})
		}
		executor := postgres.NewBatchExecutor(r.txManager)
		if err := executor.ExecuteBatch(ctx, queries); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.builder.Insert(orderItemsTable).Columns(itemColumns...)
	for _, item := range items {
		q = q.Values(item.ID, orderID, item.ProductID, item.Qty, item.UnitPrice, item.UnitCostSnapshot)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetItems(ctx context.Context, orderID id.ID) ([]orders.Item, error) {
	q := r.builder.Select(itemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	items := make([]orders.Item, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}
