package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
)

type MenuRepo struct {
	db *DB
}

func NewMenuRepo(db *DB) *MenuRepo {
	return &MenuRepo{db: db}
}

func (r *MenuRepo) GetMenuItem(ctx context.Context, id string) (models.MenuItem, error) {
	var item models.MenuItem
	err := withRetry(ctx, func() error {
		err := r.db.Pool.QueryRow(ctx,
			`SELECT id, name, price, available FROM menu_items WHERE id = $1`, id,
		).Scan(&item.ID, &item.Name, &item.Price, &item.Available)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("menu item %s: %w", id, core.ErrNotFound)
		}
		return err
	})
	return item, err
}

var _ core.MenuStore = (*MenuRepo)(nil)
