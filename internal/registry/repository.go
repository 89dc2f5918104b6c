package registry

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the app registry.
type Repository interface {
	List(ctx context.Context, enabledOnly bool) ([]App, error)
	InsertIfAbsent(ctx context.Context, app App) error
	SetEnabled(ctx context.Context, code string, enabled bool) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a pgx-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, enabledOnly bool) ([]App, error) {
	query := `SELECT code, name, enabled, sort_order, created_at, updated_at FROM platform_apps ORDER BY sort_order, code`
	if enabledOnly {
		query = `SELECT code, name, enabled, sort_order, created_at, updated_at FROM platform_apps WHERE enabled ORDER BY sort_order, code`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var apps []App
	for rows.Next() {
		var a App
		if err := rows.Scan(&a.Code, &a.Name, &a.Enabled, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

// InsertIfAbsent seeds one app without overwriting operator edits.
func (r *repository) InsertIfAbsent(ctx context.Context, app App) error {
	_, err := r.db.Exec(ctx, `INSERT INTO platform_apps (code, name, enabled, sort_order)
VALUES ($1, $2, $3, $4)
ON CONFLICT (code) DO NOTHING`, app.Code, app.Name, app.Enabled, app.SortOrder)
	return err
}

func (r *repository) SetEnabled(ctx context.Context, code string, enabled bool) error {
	_, err := r.db.Exec(ctx, `UPDATE platform_apps SET enabled=$2, updated_at=NOW() WHERE code=$1`, code, enabled)
	return err
}
