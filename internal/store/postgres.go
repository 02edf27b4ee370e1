package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/radieske/live-tables-platform/internal/game"
)

// Postgres implementa o Store sobre database/sql + lib/pq.
// Saldos são travados com SELECT ... FOR UPDATE sempre na ordem de player_id.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) AppendRound(ctx context.Context, r game.Round) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	// reenvio da mesma rodada é ignorado
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO rounds(id, table_id, variant, shoe_number, round_number, outcome, payload, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT DO NOTHING`,
		r.ID, r.TableID, string(r.Variant), r.ShoeNumber, r.RoundNumber, string(r.Outcome), payload, r.CreatedAt)
	if err != nil {
		return persistErr("append round", err)
	}
	return nil
}

func (p *Postgres) RecentRounds(ctx context.Context, q RoundQuery) ([]game.Round, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	var (
		rows *sql.Rows
		err  error
	)
	if q.Shoe > 0 {
		rows, err = p.db.QueryContext(ctx, `
			SELECT payload FROM rounds
			WHERE table_id=$1 AND shoe_number=$2
			ORDER BY created_at DESC, round_number DESC
			LIMIT $3`, q.TableID, q.Shoe, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `
			SELECT payload FROM rounds
			WHERE table_id=$1
			ORDER BY created_at DESC, round_number DESC
			LIMIT $2`, q.TableID, limit)
	}
	if err != nil {
		return nil, persistErr("recent rounds", err)
	}
	defer rows.Close()

	var out []game.Round
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, persistErr("scan round", err)
		}
		var r game.Round
		if err := json.Unmarshal(payload, &r); err != nil {
			return nil, fmt.Errorf("decode round: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("recent rounds", err)
	}
	// mais antiga primeiro
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (p *Postgres) Balance(ctx context.Context, playerID string) (int64, error) {
	var bal int64
	err := p.db.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE player_id=$1`, playerID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, persistErr("balance", err)
	}
	return bal, nil
}

// lockWallet garante a linha da carteira e a trava para a transação
func lockWallet(ctx context.Context, tx *sql.Tx, playerID string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wallets(player_id, balance_cents, version) VALUES($1,0,1) ON CONFLICT DO NOTHING`,
		playerID); err != nil {
		return 0, err
	}
	var bal int64
	err := tx.QueryRowContext(ctx, `SELECT balance_cents FROM wallets WHERE player_id=$1 FOR UPDATE`, playerID).Scan(&bal)
	return bal, err
}

// applyDelta grava saldo e ledger; precisa da linha travada
func applyDelta(ctx context.Context, tx *sql.Tx, e Entry) (Entry, error) {
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents=$1, version=version+1, updated_at=NOW() WHERE player_id=$2`,
		e.After, e.PlayerID); err != nil {
		return Entry{}, err
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO wallet_ledger(player_id, reason, delta_cents, balance_before, balance_after, round_id, external_ref)
		VALUES($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''))
		RETURNING id, created_at`,
		e.PlayerID, e.Reason, e.Delta, e.Before, e.After, e.RoundID, e.ExternalRef).Scan(&e.ID, &e.CreatedAt)
	return e, err
}

func (p *Postgres) MutateBalanceAndAudit(ctx context.Context, m Mutation) (Entry, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, persistErr("begin", err)
	}
	defer tx.Rollback()

	before, err := lockWallet(ctx, tx, m.PlayerID)
	if err != nil {
		return Entry{}, persistErr("lock wallet", err)
	}

	// Idempotência por (player_id, external_ref)
	if m.ExternalRef != "" {
		e, err := scanEntry(tx.QueryRowContext(ctx, `
			SELECT `+entryColumns+` FROM wallet_ledger
			WHERE player_id=$1 AND external_ref=$2`, m.PlayerID, m.ExternalRef))
		if err == nil {
			return e, nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			return Entry{}, persistErr("lookup external ref", err)
		}
	}

	if before+m.Delta < 0 {
		return Entry{}, ErrInsufficientFunds
	}

	e, err := applyDelta(ctx, tx, Entry{
		PlayerID:    m.PlayerID,
		Reason:      m.Reason,
		Delta:       m.Delta,
		Before:      before,
		After:       before + m.Delta,
		RoundID:     m.RoundID,
		ExternalRef: m.ExternalRef,
	})
	if err != nil {
		return Entry{}, persistErr("apply delta", err)
	}
	if err = tx.Commit(); err != nil {
		return Entry{}, persistErr("commit", err)
	}
	return e, nil
}

// SettleRound grava apostas, saldos e ledger da rodada numa única transação.
// A linha em round_settlements é a trava de "exatamente uma vez".
func (p *Postgres) SettleRound(ctx context.Context, s RoundSettlement) ([]Entry, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistErr("begin", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO round_settlements(round_id, table_id, reason) VALUES($1,$2,$3) ON CONFLICT DO NOTHING`,
		s.RoundID, s.TableID, s.Reason)
	if err != nil {
		return nil, persistErr("claim settlement", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, persistErr("claim settlement", err)
	} else if n == 0 {
		return nil, ErrAlreadySettled
	}

	players := append([]PlayerSettlement(nil), s.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })

	entries := make([]Entry, 0, len(players))
	for _, ps := range players {
		before, err := lockWallet(ctx, tx, ps.PlayerID)
		if err != nil {
			return nil, persistErr("lock wallet", err)
		}
		for _, w := range ps.Wagers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO wagers(round_id, player_id, bet_type, amount_cents, return_cents, status)
				VALUES($1,$2,$3,$4,$5,$6)`,
				s.RoundID, ps.PlayerID, string(w.BetType), w.Amount, w.Return, string(w.Status)); err != nil {
				return nil, persistErr("insert wager", err)
			}
		}
		e, err := applyDelta(ctx, tx, Entry{
			PlayerID: ps.PlayerID,
			Reason:   s.Reason,
			Delta:    ps.Delta,
			Before:   before,
			After:    before + ps.Delta,
			RoundID:  s.RoundID,
		})
		if err != nil {
			return nil, persistErr("apply delta", err)
		}
		entries = append(entries, e)
	}

	if err = tx.Commit(); err != nil {
		return nil, persistErr("commit", err)
	}
	return entries, nil
}

func (p *Postgres) BettingLimits(ctx context.Context, playerID string, v game.Variant) (game.Limits, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT bet_type, min_cents, max_cents FROM betting_limits WHERE player_id=$1 AND variant=$2`,
		playerID, string(v))
	if err != nil {
		return nil, persistErr("betting limits", err)
	}
	defer rows.Close()

	out := game.Limits{}
	for rows.Next() {
		var bt string
		var r game.Range
		if err := rows.Scan(&bt, &r.Min, &r.Max); err != nil {
			return nil, persistErr("scan limits", err)
		}
		out[game.BetType(bt)] = r
	}
	return out, rows.Err()
}

const entryColumns = `id, player_id, reason, delta_cents, balance_before, balance_after,
	COALESCE(round_id,''), COALESCE(external_ref,''), created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.PlayerID, &e.Reason, &e.Delta, &e.Before, &e.After, &e.RoundID, &e.ExternalRef, &e.CreatedAt)
	return e, err
}

func (p *Postgres) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistErr("ledger", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, persistErr("scan ledger", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (p *Postgres) LedgerEntries(ctx context.Context, playerID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return p.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM wallet_ledger WHERE player_id=$1 ORDER BY id DESC LIMIT $2`,
		playerID, limit)
}

func (p *Postgres) RoundLedger(ctx context.Context, roundID string) ([]Entry, error) {
	return p.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM wallet_ledger WHERE round_id=$1 ORDER BY id`, roundID)
}
