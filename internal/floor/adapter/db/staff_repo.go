package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/models"
)

// StaffRepo reads staff accounts and writes their derived metrics snapshot.
// The snapshot lives in a jsonb column: it is recomputed wholesale, never
// queried field-by-field.
type StaffRepo struct {
	db *DB
}

func NewStaffRepo(db *DB) *StaffRepo {
	return &StaffRepo{db: db}
}

func (r *StaffRepo) GetStaff(ctx context.Context, id string) (models.Staff, error) {
	return r.get(ctx, `SELECT id, role, name, email, password_hash, metrics, joined_at, last_active
		FROM staff WHERE id = $1`, id)
}

func (r *StaffRepo) GetStaffByEmail(ctx context.Context, email string) (models.Staff, error) {
	return r.get(ctx, `SELECT id, role, name, email, password_hash, metrics, joined_at, last_active
		FROM staff WHERE email = $1`, email)
}

func (r *StaffRepo) get(ctx context.Context, query string, arg any) (models.Staff, error) {
	var staff models.Staff
	err := withRetry(ctx, func() error {
		var metricsRaw []byte
		err := r.db.Pool.QueryRow(ctx, query, arg).Scan(
			&staff.ID, &staff.Role, &staff.Name, &staff.Email,
			&staff.PasswordHash, &metricsRaw, &staff.JoinedAt, &staff.LastActive,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("staff %v: %w", arg, core.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if len(metricsRaw) > 0 {
			var m models.StaffMetrics
			if err := json.Unmarshal(metricsRaw, &m); err != nil {
				return fmt.Errorf("failed to decode metrics snapshot: %w", err)
			}
			staff.Metrics = &m
		}
		return nil
	})
	return staff, err
}

func (r *StaffRepo) PutStaffMetrics(ctx context.Context, staffID string, m models.StaffMetrics) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return withRetry(ctx, func() error {
		cmdTag, err := r.db.Pool.Exec(ctx,
			`UPDATE staff SET metrics = $1, last_active = now() WHERE id = $2`, raw, staffID)
		if err != nil {
			return err
		}
		if cmdTag.RowsAffected() == 0 {
			return fmt.Errorf("staff %s: %w", staffID, core.ErrNotFound)
		}
		return nil
	})
}

var _ core.StaffStore = (*StaffRepo)(nil)
