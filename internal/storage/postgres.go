package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/ledger"
)

// PostgresStore keeps the snapshot in PostgreSQL using the same relational
// shape as the SQLite store. Balances are recomputed on load.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects, pings and ensures the schema exists.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const schema = `
        CREATE TABLE IF NOT EXISTS wallets (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            name TEXT NOT NULL,
            currency TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );
        CREATE TABLE IF NOT EXISTS transactions (
            id TEXT PRIMARY KEY,
            wallet_id TEXT NOT NULL REFERENCES wallets (id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            type TEXT NOT NULL,
            amount TEXT NOT NULL,
            name TEXT NOT NULL,
            date TIMESTAMPTZ NOT NULL,
            note TEXT NOT NULL DEFAULT ''
        );
        CREATE TABLE IF NOT EXISTS meta (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL
        );
        CREATE INDEX IF NOT EXISTS idx_transactions_wallet ON transactions (wallet_id, position);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Load rebuilds the snapshot from the stored rows.
func (s *PostgresStore) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, currency, created_at FROM wallets ORDER BY position`)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("query wallets: %w", err)
	}
	defer rows.Close()

	var snap ledger.Snapshot
	index := map[string]int{}
	for rows.Next() {
		var w ledger.Wallet
		var createdAt time.Time
		if err := rows.Scan(&w.ID, &w.Name, &w.Currency, &createdAt); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("scan wallet: %w", err)
		}
		w.CreatedAt = createdAt.UTC()
		w.Balance = decimal.Zero
		index[w.ID] = len(snap.Wallets)
		snap.Wallets = append(snap.Wallets, w)
	}
	if err := rows.Err(); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("iterate wallets: %w", err)
	}
	if len(snap.Wallets) == 0 {
		return ledger.Snapshot{}, false, nil
	}

	txRows, err := s.pool.Query(ctx, `SELECT wallet_id, id, type, amount, name, date, note
        FROM transactions ORDER BY wallet_id, position`)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("query transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var walletID, txType, amount string
		var date time.Time
		var tx ledger.Transaction
		if err := txRows.Scan(&walletID, &tx.ID, &txType, &amount, &tx.Name, &date, &tx.Note); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = ledger.TransactionType(txType)
		tx.Date = date.UTC()
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("parse transaction amount: %w", err)
		}
		i, ok := index[walletID]
		if !ok {
			return ledger.Snapshot{}, false, fmt.Errorf("transaction %s references unknown wallet %s", tx.ID, walletID)
		}
		snap.Wallets[i].Transactions = append(snap.Wallets[i].Transactions, tx)
		snap.Wallets[i].Balance = snap.Wallets[i].Balance.Add(tx.Amount)
	}
	if err := txRows.Err(); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("iterate transactions: %w", err)
	}

	var active string
	err = s.pool.QueryRow(ctx, `SELECT value FROM meta WHERE key = $1`, activeWalletMetaKey).Scan(&active)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return ledger.Snapshot{}, false, fmt.Errorf("query active wallet: %w", err)
	}
	snap.ActiveWalletID = active

	return snap, true, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM wallets`); err != nil {
		return fmt.Errorf("clear wallets: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM meta WHERE key = $1`, activeWalletMetaKey); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}

	for wi, w := range snap.Wallets {
		if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, position, name, currency, created_at)
            VALUES ($1, $2, $3, $4, $5)`, w.ID, wi, w.Name, w.Currency, w.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("insert wallet %s: %w", w.ID, err)
		}
		for ti, entry := range w.Transactions {
			if _, err := tx.Exec(ctx, `INSERT INTO transactions (id, wallet_id, position, type, amount, name, date, note)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				entry.ID, w.ID, ti, string(entry.Type), entry.Amount.String(), entry.Name,
				entry.Date.UTC(), entry.Note); err != nil {
				return fmt.Errorf("insert transaction %s: %w", entry.ID, err)
			}
		}
	}

	if snap.ActiveWalletID != "" {
		if _, err := tx.Exec(ctx, `INSERT INTO meta (key, value) VALUES ($1, $2)`,
			activeWalletMetaKey, snap.ActiveWalletID); err != nil {
			return fmt.Errorf("save active wallet: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
