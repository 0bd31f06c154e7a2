package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/walletbook/walletbook/internal/ledger"
)

const activeWalletMetaKey = "active_wallet_id"

// SQLiteStore keeps the snapshot in a local SQLite database: wallets and
// transactions in relational form plus a meta table for the active wallet id.
// Balances are not stored; Load recomputes them from the transaction rows, so
// the balance invariant holds by construction.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database file and applies migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Load rebuilds the snapshot from the wallet and transaction rows. An empty
// wallets table means no snapshot has been saved yet.
func (s *SQLiteStore) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, currency, created_at FROM wallets ORDER BY position`)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("query wallets: %w", err)
	}
	defer rows.Close()

	var snap ledger.Snapshot
	index := map[string]int{}
	for rows.Next() {
		var w ledger.Wallet
		var createdAt string
		if err := rows.Scan(&w.ID, &w.Name, &w.Currency, &createdAt); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("scan wallet: %w", err)
		}
		if w.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("parse wallet created_at: %w", err)
		}
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

	txRows, err := s.db.QueryContext(ctx, `SELECT wallet_id, id, type, amount, name, date, note
        FROM transactions ORDER BY wallet_id, position`)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("query transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var walletID, txType, amount, date string
		var tx ledger.Transaction
		if err := txRows.Scan(&walletID, &tx.ID, &txType, &amount, &tx.Name, &date, &tx.Note); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = ledger.TransactionType(txType)
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("parse transaction amount: %w", err)
		}
		if tx.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("parse transaction date: %w", err)
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
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, activeWalletMetaKey).Scan(&active)
	if err != nil && err != sql.ErrNoRows {
		return ledger.Snapshot{}, false, fmt.Errorf("query active wallet: %w", err)
	}
	snap.ActiveWalletID = active

	return snap, true, nil
}

// Save replaces the stored snapshot inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap ledger.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM wallets`); err != nil {
		return fmt.Errorf("clear wallets: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, activeWalletMetaKey); err != nil {
		return fmt.Errorf("clear meta: %w", err)
	}

	for wi, w := range snap.Wallets {
		if _, err := tx.ExecContext(ctx, `INSERT INTO wallets (id, position, name, currency, created_at)
            VALUES (?, ?, ?, ?, ?)`, w.ID, wi, w.Name, w.Currency, w.CreatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert wallet %s: %w", w.ID, err)
		}
		for ti, entry := range w.Transactions {
			if _, err := tx.ExecContext(ctx, `INSERT INTO transactions (id, wallet_id, position, type, amount, name, date, note)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				entry.ID, w.ID, ti, string(entry.Type), entry.Amount.String(), entry.Name,
				entry.Date.UTC().Format(time.RFC3339Nano), entry.Note); err != nil {
				return fmt.Errorf("insert transaction %s: %w", entry.ID, err)
			}
		}
	}

	if snap.ActiveWalletID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`,
			activeWalletMetaKey, snap.ActiveWalletID); err != nil {
			return fmt.Errorf("save active wallet: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
