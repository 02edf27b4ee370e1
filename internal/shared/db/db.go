package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// schema das tabelas usadas pelo store; idempotente (CREATE ... IF NOT EXISTS)
var schema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
		player_id     VARCHAR(100) PRIMARY KEY,
		balance_cents BIGINT       NOT NULL DEFAULT 0,
		version       BIGINT       NOT NULL DEFAULT 1,
		updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_ledger (
		id             BIGSERIAL    PRIMARY KEY,
		player_id      VARCHAR(100) NOT NULL REFERENCES wallets(player_id),
		reason         VARCHAR(40)  NOT NULL,
		delta_cents    BIGINT       NOT NULL,
		balance_before BIGINT       NOT NULL,
		balance_after  BIGINT       NOT NULL,
		round_id       VARCHAR(64),
		external_ref   VARCHAR(100),
		created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_ledger_player ON wallet_ledger(player_id, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_ledger_round ON wallet_ledger(round_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_wallet_ledger_ref ON wallet_ledger(player_id, external_ref) WHERE external_ref IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS rounds (
		id           VARCHAR(64)  PRIMARY KEY,
		table_id     VARCHAR(64)  NOT NULL,
		variant      VARCHAR(32)  NOT NULL,
		shoe_number  INT          NOT NULL,
		round_number INT          NOT NULL,
		outcome      VARCHAR(32)  NOT NULL,
		payload      JSONB        NOT NULL,
		created_at   TIMESTAMPTZ  NOT NULL,
		UNIQUE (table_id, shoe_number, round_number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rounds_table ON rounds(table_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS round_settlements (
		round_id   VARCHAR(64) PRIMARY KEY,
		table_id   VARCHAR(64) NOT NULL,
		reason     VARCHAR(40) NOT NULL,
		settled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS wagers (
		round_id     VARCHAR(64)  NOT NULL,
		player_id    VARCHAR(100) NOT NULL,
		bet_type     VARCHAR(32)  NOT NULL,
		amount_cents BIGINT       NOT NULL,
		return_cents BIGINT       NOT NULL DEFAULT 0,
		status       VARCHAR(16)  NOT NULL,
		settled_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
		PRIMARY KEY (round_id, player_id, bet_type)
	)`,
	`CREATE TABLE IF NOT EXISTS betting_limits (
		player_id VARCHAR(100) NOT NULL,
		variant   VARCHAR(32)  NOT NULL,
		bet_type  VARCHAR(32)  NOT NULL,
		min_cents BIGINT       NOT NULL,
		max_cents BIGINT       NOT NULL,
		PRIMARY KEY (player_id, variant, bet_type)
	)`,
}

// Migrate cria as tabelas se não existirem. Idempotente.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
