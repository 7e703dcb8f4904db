package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
)

type TableRepo struct {
	db *DB
}

func NewTableRepo(db *DB) *TableRepo {
	return &TableRepo{db: db}
}

func (r *TableRepo) GetTable(ctx context.Context, id string) (models.Table, error) {
	var table models.Table
	err := withRetry(ctx, func() error {
		err := r.db.Pool.QueryRow(ctx,
			`SELECT id, number, capacity, status FROM tables WHERE id = $1`, id,
		).Scan(&table.ID, &table.Number, &table.Capacity, &table.Status)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("table %s: %w", id, core.ErrNotFound)
		}
		return err
	})
	return table, err
}

func (r *TableRepo) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	err := withRetry(ctx, func() error {
		rows, err := r.db.Pool.Query(ctx, `SELECT id, number, capacity, status FROM tables ORDER BY number`)
		if err != nil {
			return err
		}
		defer rows.Close()

		tables = tables[:0]
		for rows.Next() {
			var t models.Table
			if err := rows.Scan(&t.ID, &t.Number, &t.Capacity, &t.Status); err != nil {
				return err
			}
			tables = append(tables, t)
		}
		return rows.Err()
	})
	return tables, err
}

func (r *TableRepo) UpdateTableStatus(ctx context.Context, id string, status models.TableStatus) error {
	return withRetry(ctx, func() error {
		cmdTag, err := r.db.Pool.Exec(ctx, `UPDATE tables SET status = $1 WHERE id = $2`, status, id)
		if err != nil {
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("table %s: %w", id, core.ErrNotFound)
		}
		return nil
	})
}

var _ core.TableStore = (*TableRepo)(nil)
