package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KVRepo — плоское хранилище клиентского состояния в таблице client_state.
// Одна строка на ключ, запись перезаписывает значение целиком.
type KVRepo struct {
	db *sql.DB
}

func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db}
}

func (r *KVRepo) Read(ctx context.Context, key string) (string, bool, error) {
	query := `SELECT value FROM client_state WHERE key = $1`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres: failed to read state %s: %w", key, err)
	}
	return value, true, nil
}

func (r *KVRepo) Write(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres: failed to write state %s: %w", key, err)
	}
	return nil
}

func (r *KVRepo) Remove(ctx context.Context, key string) error {
	query := `DELETE FROM client_state WHERE key = $1`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("postgres: failed to remove state %s: %w", key, err)
	}
	return nil
}
