package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/auth"
	"fornada/internal/infrastructure/storage/postgres"
)

const rolesTable = "sys_roles"

var roleColumns = []string{
	"id", "code", "name", "description", "is_system", "permissions",
	"created_at", "updated_at",
}

// RoleRepo implements auth.RoleRepository.
type RoleRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewRoleRepo creates a new role repository.
func NewRoleRepo(txManager *postgres.TxManager) *RoleRepo {
	return &RoleRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ auth.RoleRepository = (*RoleRepo)(nil)

func (r *RoleRepo) Create(ctx context.Context, role *auth.Role) error {
	q := r.builder.Insert(rolesTable).
		Columns(roleColumns...).
		Values(
			role.ID, role.Code, role.Name, role.Description, role.IsSystem,
			role.Permissions, role.CreatedAt, role.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

func (r *RoleRepo) GetByID(ctx context.Context, roleID id.ID) (*auth.Role, error) {
	return r.getBy(ctx, squirrel.Eq{"id": roleID}, roleID.String())
}

func (r *RoleRepo) GetByCode(ctx context.Context, code string) (*auth.Role, error) {
	return r.getBy(ctx, squirrel.Eq{"code": code}, code)
}

func (r *RoleRepo) getBy(ctx context.Context, cond squirrel.Eq, key string) (*auth.Role, error) {
	q := r.builder.Select(roleColumns...).From(rolesTable).Where(cond)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var role auth.Role
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &role, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("role", key)
		}
		return nil, fmt.Errorf("get role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepo) Update(ctx context.Context, role *auth.Role) error {
	role.UpdatedAt = time.Now()
	q := r.builder.Update(rolesTable).
		Set("name", role.Name).
		Set("description", role.Description).
		Set("permissions", role.Permissions).
		Set("updated_at", role.UpdatedAt).
		Where(squirrel.Eq{"id": role.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return nil
}

func (r *RoleRepo) Delete(ctx context.Context, roleID id.ID) error {
	q := r.builder.Delete(rolesTable).
		Where(squirrel.Eq{"id": roleID, "is_system": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewForbidden("system roles cannot be deleted")
	}
	return nil
}

func (r *RoleRepo) List(ctx context.Context) ([]auth.Role, error) {
	q := r.builder.Select(roleColumns...).From(rolesTable).OrderBy("code")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var roles []auth.Role
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &roles, sql, args...); err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	return roles, nil
}
