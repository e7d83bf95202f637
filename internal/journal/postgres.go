package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS trade_journal (
	id            TEXT PRIMARY KEY,
	event         TEXT NOT NULL,
	position_id   TEXT NOT NULL,
	pair_id       TEXT NOT NULL,
	symbol        TEXT NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	spent         DOUBLE PRECISION NOT NULL,
	multiple      DOUBLE PRECISION NOT NULL,
	ath_multiple  DOUBLE PRECISION NOT NULL,
	sold_pct      DOUBLE PRECISION NOT NULL,
	remaining_pct DOUBLE PRECISION NOT NULL,
	expected_out  DOUBLE PRECISION NOT NULL,
	at            TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO trade_journal (
	id, event, position_id, pair_id, symbol, reason, spent, multiple,
	ath_multiple, sold_pct, remaining_pct, expected_out, at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("Не удалось разобрать DSN журнала: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("Не удалось подключиться к PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("PostgreSQL недоступен: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("Не удалось создать таблицу журнала: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (j *Postgres) Record(ctx context.Context, e Entry) error {
	_, err := j.pool.Exec(ctx, insertSQL,
		e.ID, string(e.Event), e.PositionID, e.PairID, e.Symbol, e.Reason, e.Spent, e.Multiple,
		e.ATHMultiple, e.SoldPct, e.RemainingPct, e.ExpectedOut, e.At,
	)
	if err != nil {
		return fmt.Errorf("Не удалось записать событие %s в журнал: %w", e.Event, err)
	}
	return nil
}

func (j *Postgres) Close() error {
	j.pool.Close()
	return nil
}
