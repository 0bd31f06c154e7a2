package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies ledger entries.
type TransactionType string

const (
	TypeIncome     TransactionType = "income"
	TypeExpense    TransactionType = "expense"
	TypeAdjustment TransactionType = "adjustment"
)

// Valid reports whether the type is one of the known kinds.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeAdjustment:
		return true
	default:
		return false
	}
}

// Transaction is a single signed entry against a wallet. Entries are
// immutable once created; the only lifecycle operation is removal.
// Income entries store a positive amount, expense entries a negative one,
// adjustments keep whatever sign the user entered.
type Transaction struct {
	ID     string          `json:"id"`
	Type   TransactionType `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Name   string          `json:"name"`
	Date   time.Time       `json:"date"`
	Note   string          `json:"note,omitempty"`
}

// Wallet is a named account holding a running balance and its history.
// Balance always equals the sum of the transaction amounts.
type Wallet struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Currency     string          `json:"currency"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SumTransactions recomputes the balance from the transaction list.
func (w Wallet) SumTransactions() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range w.Transactions {
		total = total.Add(tx.Amount)
	}
	return total
}

// clone returns a deep copy so callers cannot mutate store state.
func (w Wallet) clone() Wallet {
	out := w
	out.Transactions = make([]Transaction, len(w.Transactions))
	copy(out.Transactions, w.Transactions)
	return out
}

// Snapshot is the version-0 serialized form of the store: every wallet
// carries its full transaction list, there is no separate transaction table.
type Snapshot struct {
	Wallets        []Wallet `json:"wallets"`
	ActiveWalletID string   `json:"active_wallet_id,omitempty"`
}
