package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/topup-wallet-engine/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stateRowID — единственная строка состояния; несколько процессов делят её через FOR UPDATE.
const stateRowID = 1

// PostgresStateStore — документ состояния в строке jsonb. Циклы чтения и записи
// сериализуются блокировкой строки, поэтому один кошелёк могут делить несколько процессов.
type PostgresStateStore struct {
	Pool  *pgxpool.Pool
	Owner string
}

func NewPostgresStateStore(pool *pgxpool.Pool, owner string) *PostgresStateStore {
	return &PostgresStateStore{Pool: pool, Owner: owner}
}

func (r *PostgresStateStore) View(ctx context.Context, fn func(domain.State) error) error {
	var raw []byte
	err := r.Pool.QueryRow(ctx, `SELECT payload FROM wallet_state WHERE id = $1`, stateRowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return fn(domain.NewState(r.Owner))
	}
	if err != nil {
		return err
	}
	st, err := r.decode(raw)
	if err != nil {
		return err
	}
	return fn(st)
}

func (r *PostgresStateStore) Update(ctx context.Context, fn func(*domain.State) error) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// строка создаётся заранее, чтобы FOR UPDATE всегда было что блокировать
	seed, err := json.Marshal(domain.NewState(r.Owner))
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO wallet_state(id, payload) VALUES($1, $2)
        ON CONFLICT (id) DO NOTHING`, stateRowID, seed); err != nil {
		return err
	}

	var raw []byte
	if err := tx.QueryRow(ctx, `SELECT payload FROM wallet_state WHERE id = $1 FOR UPDATE`, stateRowID).Scan(&raw); err != nil {
		return err
	}
	st, err := r.decode(raw)
	if err != nil {
		return err
	}
	if err := fn(&st); err != nil {
		return err
	}
	out, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallet_state SET payload = $2, updated_at = now() WHERE id = $1`, stateRowID, out); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PostgresStateStore) decode(raw []byte) (domain.State, error) {
	var st domain.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return domain.State{}, fmt.Errorf("decode state row: %w", err)
	}
	st.Normalize(r.Owner)
	return st, nil
}

var _ domain.StateStore = (*PostgresStateStore)(nil)

// EnsureSchema — создать необходимые таблицы, если отсутствуют.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS wallet_state (
  id integer PRIMARY KEY,
  payload jsonb NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
);`)
	return err
}

// ImportState — заполнить строку из JSON-файла состояния, если строки ещё нет.
// Вызывается один раз при переходе с STATE_BACKEND=json на postgres.
func ImportState(ctx context.Context, pool *pgxpool.Pool, st domain.State) (bool, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return false, err
	}
	tag, err := pool.Exec(ctx, `INSERT INTO wallet_state(id, payload) VALUES($1, $2)
        ON CONFLICT (id) DO NOTHING`, stateRowID, raw)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
