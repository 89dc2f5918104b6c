package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists role grants.
type Repository interface {
	Get(ctx context.Context, userID int64, appCode string) (Role, bool, error)
	Upsert(ctx context.Context, userID int64, appCode string, role Role) error
	ListForUser(ctx context.Context, userID int64) ([]Grant, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID int64, appCode string) (Role, bool, error) {
	var role Role
	err := r.db.QueryRow(ctx,
		`SELECT role FROM app_role_grants WHERE user_id=$1 AND app_code=$2`,
		userID, appCode).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoleNone, false, nil
	}
	if err != nil {
		return RoleNone, false, err
	}
	return role, true, nil
}

func (r *repository) Upsert(ctx context.Context, userID int64, appCode string, role Role) error {
	_, err := r.db.Exec(ctx, `INSERT INTO app_role_grants (user_id, app_code, role)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, app_code) DO UPDATE SET role=EXCLUDED.role, granted_at=NOW()`,
		userID, appCode, role)
	return err
}

func (r *repository) ListForUser(ctx context.Context, userID int64) ([]Grant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, app_code, role, granted_at
FROM app_role_grants WHERE user_id=$1 ORDER BY app_code`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []Grant
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.UserID, &g.AppCode, &g.Role, &g.GrantedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
