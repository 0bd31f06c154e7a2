package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type recordingSaver struct {
	saves int
	last  Snapshot
	err   error
}

func (r *recordingSaver) Save(_ context.Context, snap Snapshot) error {
	r.saves++
	r.last = snap
	return r.err
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertInvariant(t *testing.T, s *Store) {
	t.Helper()
	for _, w := range s.Wallets() {
		if !w.Balance.Equal(w.SumTransactions()) {
			t.Fatalf("wallet %s balance %s != transaction sum %s", w.Name, w.Balance, w.SumTransactions())
		}
	}
}

func TestBootstrapCreatesDefaultWallet(t *testing.T) {
	saver := &recordingSaver{}
	s := NewStore(saver, nil)

	w := s.Bootstrap(context.Background())

	if w.Name != DefaultWalletName {
		t.Fatalf("expected default name %q, got %q", DefaultWalletName, w.Name)
	}
	if !w.Balance.IsZero() {
		t.Fatalf("expected zero balance, got %s", w.Balance)
	}
	if len(w.Transactions) != 1 {
		t.Fatalf("expected one seed transaction, got %d", len(w.Transactions))
	}
	seed := w.Transactions[0]
	if seed.Type != TypeAdjustment || !seed.Amount.IsZero() {
		t.Fatalf("unexpected seed transaction: %+v", seed)
	}
	if s.ActiveWalletID() != w.ID {
		t.Fatalf("expected bootstrap wallet to be active")
	}
	if saver.saves != 1 {
		t.Fatalf("expected one persist, got %d", saver.saves)
	}
	assertInvariant(t, s)
}

func TestBootstrapKeepsExistingWallets(t *testing.T) {
	s := NewStore(nil, nil)
	created := s.CreateWallet(context.Background(), "Savings", dec(100))

	w := s.Bootstrap(context.Background())

	if w.ID != created.ID {
		t.Fatalf("bootstrap replaced an existing wallet")
	}
	if len(s.Wallets()) != 1 {
		t.Fatalf("expected one wallet, got %d", len(s.Wallets()))
	}
}

func TestCreateWalletSeedsInitialBalance(t *testing.T) {
	s := NewStore(nil, nil)

	w := s.CreateWallet(context.Background(), "Savings", dec(100_000))

	if !w.Balance.Equal(dec(100_000)) {
		t.Fatalf("expected balance 100000, got %s", w.Balance)
	}
	if len(w.Transactions) != 1 {
		t.Fatalf("expected one transaction, got %d", len(w.Transactions))
	}
	seed := w.Transactions[0]
	if seed.Type != TypeAdjustment || !seed.Amount.Equal(dec(100_000)) {
		t.Fatalf("unexpected seed transaction: %+v", seed)
	}
	if s.ActiveWalletID() != w.ID {
		t.Fatalf("expected new wallet to become active")
	}
	assertInvariant(t, s)
}

func TestRenameWallet(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	s := NewStore(saver, nil)
	w := s.CreateWallet(ctx, "Savings", dec(0))
	persisted := saver.saves

	if err := s.RenameWallet(ctx, w.ID, "  Holiday fund  "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ := s.Wallet(w.ID)
	if got.Name != "Holiday fund" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if saver.saves != persisted+1 {
		t.Fatalf("expected rename to persist")
	}

	// Empty and unchanged names are user cancels, not errors, and must not persist.
	if err := s.RenameWallet(ctx, w.ID, "   "); err != nil {
		t.Fatalf("empty rename should be a no-op, got %v", err)
	}
	if err := s.RenameWallet(ctx, w.ID, "Holiday fund"); err != nil {
		t.Fatalf("unchanged rename should be a no-op, got %v", err)
	}
	if saver.saves != persisted+1 {
		t.Fatalf("no-op renames must not persist, saves=%d", saver.saves)
	}

	if err := s.RenameWallet(ctx, "missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddTransactionStoresSignedAmount(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	w := s.CreateWallet(ctx, "Savings", dec(0))

	income, err := s.AddTransaction(ctx, AddTransactionInput{WalletID: w.ID, Type: TypeIncome, Amount: dec(50_000), Name: "Salary"})
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	if !income.Amount.Equal(dec(50_000)) {
		t.Fatalf("income amount should stay positive, got %s", income.Amount)
	}

	expense, err := s.AddTransaction(ctx, AddTransactionInput{WalletID: w.ID, Type: TypeExpense, Amount: dec(20_000), Name: "Groceries"})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if !expense.Amount.Equal(dec(-20_000)) {
		t.Fatalf("expense amount should be negated, got %s", expense.Amount)
	}

	got, _ := s.Wallet(w.ID)
	if !got.Balance.Equal(dec(30_000)) {
		t.Fatalf("expected balance 30000, got %s", got.Balance)
	}
	if expense.Date.IsZero() {
		t.Fatalf("zero input date should default to now")
	}
	assertInvariant(t, s)
}

func TestAddTransactionValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	w := s.CreateWallet(ctx, "Savings", dec(0))

	cases := []struct {
		name  string
		input AddTransactionInput
		want  error
	}{
		{"zero amount", AddTransactionInput{WalletID: w.ID, Type: TypeIncome, Amount: dec(0)}, ErrValidation},
		{"negative amount", AddTransactionInput{WalletID: w.ID, Type: TypeExpense, Amount: dec(-5)}, ErrValidation},
		{"adjustment type", AddTransactionInput{WalletID: w.ID, Type: TypeAdjustment, Amount: dec(5)}, ErrValidation},
		{"unknown wallet", AddTransactionInput{WalletID: "missing", Type: TypeIncome, Amount: dec(5)}, ErrNotFound},
	}
	for _, tc := range cases {
		if _, err := s.AddTransaction(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	got, _ := s.Wallet(w.ID)
	if len(got.Transactions) != 1 {
		t.Fatalf("failed adds must not mutate the wallet, got %d transactions", len(got.Transactions))
	}
}

func TestAddTransactionTargetsActiveWallet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	if _, err := s.AddTransaction(ctx, AddTransactionInput{Type: TypeIncome, Amount: dec(5)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation without an active wallet, got %v", err)
	}

	w := s.CreateWallet(ctx, "Savings", dec(0))
	if _, err := s.AddTransaction(ctx, AddTransactionInput{Type: TypeIncome, Amount: dec(5), Name: "Tip"}); err != nil {
		t.Fatalf("add to active wallet: %v", err)
	}
	got, _ := s.Wallet(w.ID)
	if !got.Balance.Equal(dec(5)) {
		t.Fatalf("expected the active wallet to receive the entry, balance=%s", got.Balance)
	}
}

func TestAdjustBalance(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	w := s.CreateWallet(ctx, "Savings", dec(10))

	tx, err := s.AdjustBalance(ctx, w.ID, dec(-3), "count correction")
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if tx.Type != TypeAdjustment || !tx.Amount.Equal(dec(-3)) {
		t.Fatalf("adjustment must keep its sign: %+v", tx)
	}
	got, _ := s.Wallet(w.ID)
	if !got.Balance.Equal(dec(7)) {
		t.Fatalf("expected balance 7, got %s", got.Balance)
	}

	if _, err := s.AdjustBalance(ctx, w.ID, dec(0), ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero adjustment should fail validation, got %v", err)
	}
	if _, err := s.AdjustBalance(ctx, "missing", dec(1), ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	assertInvariant(t, s)
}

func TestTransferMovesFundsAtomically(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	a := s.CreateWallet(ctx, "A", dec(100_000))
	b := s.CreateWallet(ctx, "B", dec(5_000))

	res, err := s.Transfer(ctx, a.ID, b.ID, dec(40_000))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if !res.FromBalance.Equal(dec(60_000)) || !res.ToBalance.Equal(dec(45_000)) {
		t.Fatalf("unexpected balances: from=%s to=%s", res.FromBalance, res.ToBalance)
	}
	if res.Out.Type != TypeExpense || !res.Out.Amount.Equal(dec(-40_000)) {
		t.Fatalf("unexpected out leg: %+v", res.Out)
	}
	if res.In.Type != TypeIncome || !res.In.Amount.Equal(dec(40_000)) {
		t.Fatalf("unexpected in leg: %+v", res.In)
	}
	if !res.Out.Date.Equal(res.In.Date) {
		t.Fatalf("transfer legs must share one timestamp")
	}
	if res.Out.Name != "Transfer to B" || res.In.Name != "Transfer from A" {
		t.Fatalf("legs must reference the peer wallet: out=%q in=%q", res.Out.Name, res.In.Name)
	}

	gotA, _ := s.Wallet(a.ID)
	gotB, _ := s.Wallet(b.ID)
	if len(gotA.Transactions) != 2 || len(gotB.Transactions) != 2 {
		t.Fatalf("each wallet should gain exactly one leg")
	}
	assertInvariant(t, s)
}

func TestTransferRejectionsLeaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	a := s.CreateWallet(ctx, "A", dec(1_000))
	b := s.CreateWallet(ctx, "B", dec(0))

	cases := []struct {
		name   string
		from   string
		to     string
		amount decimal.Decimal
		want   error
	}{
		{"same wallet", a.ID, a.ID, dec(10), ErrValidation},
		{"zero amount", a.ID, b.ID, dec(0), ErrValidation},
		{"negative amount", a.ID, b.ID, dec(-10), ErrValidation},
		{"unknown source", "missing", b.ID, dec(10), ErrNotFound},
		{"unknown destination", a.ID, "missing", dec(10), ErrNotFound},
		{"insufficient funds", a.ID, b.ID, dec(2_000), ErrInsufficientFunds},
	}
	for _, tc := range cases {
		if _, err := s.Transfer(ctx, tc.from, tc.to, tc.amount); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	gotA, _ := s.Wallet(a.ID)
	gotB, _ := s.Wallet(b.ID)
	if !gotA.Balance.Equal(dec(1_000)) || !gotB.Balance.IsZero() {
		t.Fatalf("rejected transfers must not move funds: a=%s b=%s", gotA.Balance, gotB.Balance)
	}
	if len(gotA.Transactions) != 1 || len(gotB.Transactions) != 1 {
		t.Fatalf("rejected transfers must not add legs")
	}
}

func TestDeleteWallet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	a := s.CreateWallet(ctx, "A", dec(0))
	b := s.CreateWallet(ctx, "B", dec(0))
	c := s.CreateWallet(ctx, "C", dec(0))

	// c is active; deleting it falls back to the first wallet in store order.
	if err := s.DeleteWallet(ctx, c.ID); err != nil {
		t.Fatalf("delete active wallet: %v", err)
	}
	if s.ActiveWalletID() != a.ID {
		t.Fatalf("expected first remaining wallet %s active, got %s", a.ID, s.ActiveWalletID())
	}

	// Deleting an inactive wallet keeps the selection.
	if err := s.DeleteWallet(ctx, b.ID); err != nil {
		t.Fatalf("delete wallet: %v", err)
	}
	if s.ActiveWalletID() != a.ID {
		t.Fatalf("selection should not move when another wallet is deleted")
	}

	if err := s.DeleteWallet(ctx, a.ID); !errors.Is(err, ErrLastWallet) {
		t.Fatalf("expected ErrLastWallet, got %v", err)
	}
	if err := s.DeleteWallet(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTransactionRestoresBalance(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	w := s.CreateWallet(ctx, "Savings", dec(10_000))

	tx, err := s.AddTransaction(ctx, AddTransactionInput{WalletID: w.ID, Type: TypeExpense, Amount: dec(2_500), Name: "Dinner"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	// A later entry must not affect what deleting the earlier one restores.
	if _, err := s.AddTransaction(ctx, AddTransactionInput{WalletID: w.ID, Type: TypeIncome, Amount: dec(1_000), Name: "Refund"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.DeleteTransaction(ctx, w.ID, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	got, _ := s.Wallet(w.ID)
	if !got.Balance.Equal(dec(11_000)) {
		t.Fatalf("expected balance 11000, got %s", got.Balance)
	}
	for _, remaining := range got.Transactions {
		if remaining.ID == tx.ID {
			t.Fatalf("deleted transaction still present")
		}
	}
	assertInvariant(t, s)

	if err := s.DeleteTransaction(ctx, w.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a deleted id, got %v", err)
	}
}

func TestSetActiveWallet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	a := s.CreateWallet(ctx, "A", dec(0))
	s.CreateWallet(ctx, "B", dec(0))

	s.SetActiveWallet(ctx, a.ID)
	if s.ActiveWalletID() != a.ID {
		t.Fatalf("expected wallet A active")
	}

	s.SetActiveWallet(ctx, "missing")
	if s.ActiveWalletID() != a.ID {
		t.Fatalf("unknown id must be a no-op")
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)
	a := s.CreateWallet(ctx, "A", dec(100))
	b := s.CreateWallet(ctx, "B", dec(50))
	if _, err := s.Transfer(ctx, b.ID, a.ID, dec(25)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	s.SetActiveWallet(ctx, a.ID)

	restored := NewStore(nil, nil)
	restored.Restore(s.Snapshot())

	if restored.ActiveWalletID() != a.ID {
		t.Fatalf("active id lost in round trip")
	}
	want := s.Wallets()
	got := restored.Wallets()
	if len(got) != len(want) {
		t.Fatalf("expected %d wallets, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name {
			t.Fatalf("wallet %d differs after round trip", i)
		}
		if !got[i].Balance.Equal(want[i].Balance) {
			t.Fatalf("wallet %s balance differs: %s vs %s", want[i].Name, got[i].Balance, want[i].Balance)
		}
		if len(got[i].Transactions) != len(want[i].Transactions) {
			t.Fatalf("wallet %s transaction count differs", want[i].Name)
		}
	}
	assertInvariant(t, restored)
}

func TestRestoreRepairsInconsistentSnapshot(t *testing.T) {
	snap := Snapshot{
		Wallets: []Wallet{{
			ID:      "w1",
			Name:    "Tampered",
			Balance: dec(999),
			Transactions: []Transaction{
				{ID: "t1", Type: TypeAdjustment, Amount: dec(10)},
				{ID: "t2", Type: TypeIncome, Amount: dec(5)},
			},
		}},
		ActiveWalletID: "gone",
	}

	s := NewStore(nil, nil)
	s.Restore(snap)

	w, ok := s.Wallet("w1")
	if !ok {
		t.Fatalf("wallet missing after restore")
	}
	if !w.Balance.Equal(dec(15)) {
		t.Fatalf("expected recomputed balance 15, got %s", w.Balance)
	}
	if s.ActiveWalletID() != "w1" {
		t.Fatalf("stale active id should fall back to the first wallet")
	}
}

func TestMutationsFireChangeHook(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil, nil)

	fired := 0
	s.OnChange(func() { fired++ })

	w := s.CreateWallet(ctx, "A", dec(10))
	if _, err := s.AdjustBalance(ctx, w.ID, dec(5), ""); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if fired != 2 {
		t.Fatalf("expected 2 notifications, got %d", fired)
	}

	// Failed mutations stay silent.
	if _, err := s.AdjustBalance(ctx, w.ID, dec(0), ""); err == nil {
		t.Fatalf("expected validation failure")
	}
	if fired != 2 {
		t.Fatalf("failed mutation must not notify, got %d", fired)
	}
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{err: errors.New("disk full")}
	s := NewStore(saver, nil)

	w := s.CreateWallet(ctx, "A", dec(10))

	got, ok := s.Wallet(w.ID)
	if !ok || !got.Balance.Equal(dec(10)) {
		t.Fatalf("mutation must stand even when persistence fails")
	}
}
