package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultWalletName labels the wallet created by Bootstrap.
	DefaultWalletName = "Main wallet"
	// DefaultCurrency labels amounts for display; the store never converts.
	DefaultCurrency = "VND"

	seedTransactionName = "Initial balance"
	seedTransactionNote = "Wallet created"
	transferNote        = "Transfer between wallets"
	adjustmentEntryName = "Balance adjustment"
)

// Saver persists a snapshot after each successful mutation. Persistence is
// best effort: a failed save is logged and the in-memory state stands.
type Saver interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Store owns the wallet collection and the active-wallet selection. It is the
// single mutation path for the ledger and keeps every wallet's balance equal
// to the sum of its transactions. The store assumes one logical caller at a
// time; it performs no locking of its own.
type Store struct {
	wallets        []*Wallet
	activeWalletID string

	saver    Saver
	logger   *slog.Logger
	onChange func()
}

// NewStore builds an empty store. Both saver and logger may be nil.
func NewStore(saver Saver, logger *slog.Logger) *Store {
	return &Store{saver: saver, logger: logger}
}

// OnChange registers the single state-changed hook. It fires after the
// persistence step of every successful mutation; the presentation layer is
// expected to re-query and re-render from it.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

// Bootstrap guarantees the store never stays empty: when no wallets exist it
// creates one default wallet with a zero balance, and in any case it makes
// sure the active id points at a wallet that is actually present.
func (s *Store) Bootstrap(ctx context.Context) Wallet {
	if len(s.wallets) == 0 {
		return s.CreateWallet(ctx, DefaultWalletName, decimal.Zero)
	}
	if _, ok := s.findWallet(s.activeWalletID); !ok {
		s.activeWalletID = s.wallets[0].ID
		s.finishMutation(ctx)
	}
	return s.mustActive().clone()
}

// CreateWallet adds a wallet seeded with one adjustment transaction equal to
// the initial balance (zero included) and makes it the active wallet. The
// operation has no failure path.
func (s *Store) CreateWallet(ctx context.Context, name string, initialBalance decimal.Decimal) Wallet {
	now := time.Now().UTC()
	w := &Wallet{
		ID:       uuid.NewString(),
		Name:     name,
		Currency: DefaultCurrency,
		Balance:  initialBalance,
		Transactions: []Transaction{{
			ID:     uuid.NewString(),
			Type:   TypeAdjustment,
			Amount: initialBalance,
			Name:   seedTransactionName,
			Date:   now,
			Note:   seedTransactionNote,
		}},
		CreatedAt: now,
	}
	s.wallets = append(s.wallets, w)
	s.activeWalletID = w.ID
	s.finishMutation(ctx)
	return w.clone()
}

// RenameWallet changes the display name. An empty or unchanged name after
// trimming is treated as a user cancel: nothing happens and no error is
// returned.
func (s *Store) RenameWallet(ctx context.Context, walletID, newName string) error {
	w, ok := s.findWallet(walletID)
	if !ok {
		return fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == w.Name {
		return nil
	}
	w.Name = newName
	s.finishMutation(ctx)
	return nil
}

// AddTransactionInput carries the fields for a user-entered income or
// expense. Amount is the magnitude the user typed, always positive; the store
// derives the stored sign from the type. An empty WalletID targets the active
// wallet. A zero Date defaults to now.
type AddTransactionInput struct {
	WalletID string
	Type     TransactionType
	Amount   decimal.Decimal
	Name     string
	Date     time.Time
	Note     string
}

// AddTransaction records an income or expense entry and moves the balance by
// the stored signed amount.
func (s *Store) AddTransaction(ctx context.Context, input AddTransactionInput) (Transaction, error) {
	if input.Type != TypeIncome && input.Type != TypeExpense {
		return Transaction{}, fmt.Errorf("%w: transaction type must be income or expense, got %q", ErrValidation, input.Type)
	}
	if !input.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
	}

	walletID := input.WalletID
	if walletID == "" {
		if s.activeWalletID == "" {
			return Transaction{}, fmt.Errorf("%w: no active wallet", ErrValidation)
		}
		walletID = s.activeWalletID
	}
	w, ok := s.findWallet(walletID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}

	amount := input.Amount
	if input.Type == TypeExpense {
		amount = amount.Neg()
	}
	date := input.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	tx := Transaction{
		ID:     uuid.NewString(),
		Type:   input.Type,
		Amount: amount,
		Name:   input.Name,
		Date:   date,
		Note:   input.Note,
	}
	w.Transactions = append(w.Transactions, tx)
	w.Balance = w.Balance.Add(amount)
	s.finishMutation(ctx)
	return tx, nil
}

// AdjustBalance records a manual correction. The sign is kept as given; a
// zero adjustment is meaningless and rejected.
func (s *Store) AdjustBalance(ctx context.Context, walletID string, amount decimal.Decimal, note string) (Transaction, error) {
	if amount.IsZero() {
		return Transaction{}, fmt.Errorf("%w: adjustment amount cannot be zero", ErrValidation)
	}
	w, ok := s.findWallet(walletID)
	if !ok {
		return Transaction{}, fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}

	tx := Transaction{
		ID:     uuid.NewString(),
		Type:   TypeAdjustment,
		Amount: amount,
		Name:   adjustmentEntryName,
		Date:   time.Now().UTC(),
		Note:   note,
	}
	w.Transactions = append(w.Transactions, tx)
	w.Balance = w.Balance.Add(amount)
	s.finishMutation(ctx)
	return tx, nil
}

// TransferResult describes the two legs created by a transfer.
type TransferResult struct {
	Out         Transaction
	In          Transaction
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Transfer atomically moves funds between two wallets: an expense leg on the
// source and an income leg on the destination, both sharing one timestamp and
// note. Every check runs before the first mutation, so a failed transfer
// leaves both wallets untouched.
func (s *Store) Transfer(ctx context.Context, fromWalletID, toWalletID string, amount decimal.Decimal) (TransferResult, error) {
	if fromWalletID == toWalletID {
		return TransferResult{}, fmt.Errorf("%w: cannot transfer to the same wallet", ErrValidation)
	}
	if !amount.IsPositive() {
		return TransferResult{}, fmt.Errorf("%w: transfer amount must be greater than zero", ErrValidation)
	}
	from, ok := s.findWallet(fromWalletID)
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: wallet %s", ErrNotFound, fromWalletID)
	}
	to, ok := s.findWallet(toWalletID)
	if !ok {
		return TransferResult{}, fmt.Errorf("%w: wallet %s", ErrNotFound, toWalletID)
	}
	if from.Balance.LessThan(amount) {
		return TransferResult{}, fmt.Errorf("%w: balance %s is less than %s", ErrInsufficientFunds, from.Balance, amount)
	}

	now := time.Now().UTC()
	out := Transaction{
		ID:     uuid.NewString(),
		Type:   TypeExpense,
		Amount: amount.Neg(),
		Name:   fmt.Sprintf("Transfer to %s", to.Name),
		Date:   now,
		Note:   transferNote,
	}
	in := Transaction{
		ID:     uuid.NewString(),
		Type:   TypeIncome,
		Amount: amount,
		Name:   fmt.Sprintf("Transfer from %s", from.Name),
		Date:   now,
		Note:   transferNote,
	}

	from.Transactions = append(from.Transactions, out)
	to.Transactions = append(to.Transactions, in)
	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	s.finishMutation(ctx)

	return TransferResult{Out: out, In: in, FromBalance: from.Balance, ToBalance: to.Balance}, nil
}

// DeleteWallet removes a wallet and its whole history. The last remaining
// wallet cannot be deleted. When the active wallet goes away, the first
// wallet in store order takes over.
func (s *Store) DeleteWallet(ctx context.Context, walletID string) error {
	if _, ok := s.findWallet(walletID); !ok {
		return fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}
	if len(s.wallets) == 1 {
		return ErrLastWallet
	}

	kept := s.wallets[:0]
	for _, w := range s.wallets {
		if w.ID != walletID {
			kept = append(kept, w)
		}
	}
	s.wallets = kept
	if s.activeWalletID == walletID {
		s.activeWalletID = s.wallets[0].ID
	}
	s.finishMutation(ctx)
	return nil
}

// DeleteTransaction removes one entry and subtracts its stored amount from
// the balance, restoring exactly the balance from before the entry was added.
func (s *Store) DeleteTransaction(ctx context.Context, walletID, transactionID string) error {
	w, ok := s.findWallet(walletID)
	if !ok {
		return fmt.Errorf("%w: wallet %s", ErrNotFound, walletID)
	}
	idx := -1
	for i, tx := range w.Transactions {
		if tx.ID == transactionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: transaction %s", ErrNotFound, transactionID)
	}

	w.Balance = w.Balance.Sub(w.Transactions[idx].Amount)
	w.Transactions = append(w.Transactions[:idx], w.Transactions[idx+1:]...)
	s.finishMutation(ctx)
	return nil
}

// SetActiveWallet selects the wallet used for display and new entries.
// Unknown ids are ignored.
func (s *Store) SetActiveWallet(ctx context.Context, walletID string) {
	if _, ok := s.findWallet(walletID); !ok {
		return
	}
	s.activeWalletID = walletID
	s.finishMutation(ctx)
}

// Wallets returns a copy of every wallet in store order.
func (s *Store) Wallets() []Wallet {
	out := make([]Wallet, 0, len(s.wallets))
	for _, w := range s.wallets {
		out = append(out, w.clone())
	}
	return out
}

// Wallet returns a copy of the wallet with the given id.
func (s *Store) Wallet(walletID string) (Wallet, bool) {
	w, ok := s.findWallet(walletID)
	if !ok {
		return Wallet{}, false
	}
	return w.clone(), true
}

// ActiveWallet returns a copy of the currently selected wallet.
func (s *Store) ActiveWallet() (Wallet, bool) {
	return s.Wallet(s.activeWalletID)
}

// ActiveWalletID returns the current selection, empty only before Bootstrap.
func (s *Store) ActiveWalletID() string {
	return s.activeWalletID
}

// Snapshot captures the full store state for persistence.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Wallets: s.Wallets(), ActiveWalletID: s.activeWalletID}
}

// Restore replaces the store state with a loaded snapshot. Balances are
// recomputed from the transaction lists so the balance invariant holds even
// for a snapshot edited outside the application; a stale active id falls back
// to the first wallet. Restore does not persist.
func (s *Store) Restore(snap Snapshot) {
	s.wallets = make([]*Wallet, 0, len(snap.Wallets))
	for _, w := range snap.Wallets {
		restored := w.clone()
		restored.Balance = restored.SumTransactions()
		if restored.Currency == "" {
			restored.Currency = DefaultCurrency
		}
		s.wallets = append(s.wallets, &restored)
	}
	s.activeWalletID = snap.ActiveWalletID
	if _, ok := s.findWallet(s.activeWalletID); !ok {
		s.activeWalletID = ""
		if len(s.wallets) > 0 {
			s.activeWalletID = s.wallets[0].ID
		}
	}
}

func (s *Store) findWallet(walletID string) (*Wallet, bool) {
	if walletID == "" {
		return nil, false
	}
	for _, w := range s.wallets {
		if w.ID == walletID {
			return w, true
		}
	}
	return nil, false
}

func (s *Store) mustActive() *Wallet {
	w, _ := s.findWallet(s.activeWalletID)
	return w
}

// finishMutation runs the persist-then-notify tail shared by every mutation.
func (s *Store) finishMutation(ctx context.Context) {
	if s.saver != nil {
		if err := s.saver.Save(ctx, s.Snapshot()); err != nil && s.logger != nil {
			s.logger.Warn("snapshot save failed, in-memory state kept", "error", err)
		}
	}
	if s.onChange != nil {
		s.onChange()
	}
}
