package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/catalogs/client"
	"fornada/internal/infrastructure/storage/postgres"
)

const clientsTable = "cat_clients"

// ClientRepo implements client.Repository.
type ClientRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txManager *postgres.TxManager) *ClientRepo {
	return &ClientRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ client.Repository = (*ClientRepo)(nil)

func (r *ClientRepo) Create(ctx context.Context, c *client.Client) error {
	q := r.builder.Insert(clientsTable).
		Columns("id", "name", "phone", "address", "notes", "is_active", "version", "created_at").
		Values(c.ID, c.Name, c.Phone, c.Address, c.Notes, c.IsActive, c.Version, c.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *ClientRepo) Update(ctx context.Context, c *client.Client) error {
	q := r.builder.Update(clientsTable).
		Set("name", c.Name).
		Set("phone", c.Phone).
		Set("address", c.Address).
		Set("notes", c.Notes).
		Set("is_active", c.IsActive).
		Set("version", c.Version+1).
		Where(squirrel.Eq{"id": c.ID, "version": c.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
		return apperror.NewConcurrentModification("client", c.ID.String())
	}
	c.SetVersion(c.Version + 1)
	return nil
}

func (r *ClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	q := r.builder.Select("id", "name", "phone", "address", "notes", "is_active", "version", "created_at").
		From(clientsTable).
		Where(squirrel.Eq{"id": clientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c client.Client
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("client", clientID.String())
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (r *ClientRepo) List(ctx context.Context, includeInactive bool) ([]client.Client, error) {
	q := r.builder.Select("id", "name", "phone", "address", "notes", "is_active", "version", "created_at").
		From(clientsTable)
	if !includeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	q = q.OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var list []client.Client
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &list, sql, args...); err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	return list, nil
}
