// Package stats provides read-only queries over ledger state. Every function
// is pure: no persistence, no mutation, identical results until the store
// changes underneath the caller.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/walletbook/walletbook/internal/ledger"
)

// DayKeyLayout is the calendar-date granularity used by every date filter.
const DayKeyLayout = "2006-01-02"

// DayKey normalizes a timestamp to a date-only key. All grouping and
// filtering compares these keys, never full timestamps.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

// DailySummary is the income/expense breakdown for one calendar day.
// Balance is the wallet's live running total, not a balance as of that day.
type DailySummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ChartTotals carries the all-time income/expense split behind the
// transaction doughnut chart.
type ChartTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// TotalBalance sums the balances of every wallet.
func TotalBalance(wallets []ledger.Wallet) decimal.Decimal {
	total := decimal.Zero
	for _, w := range wallets {
		total = total.Add(w.Balance)
	}
	return total
}

// DailyStatistics aggregates one wallet's entries for the given calendar day.
// Positive stored amounts count as income, negative ones as expense (by
// absolute value); zero amounts count as neither.
func DailyStatistics(w ledger.Wallet, day time.Time) DailySummary {
	key := DayKey(day)
	summary := DailySummary{Income: decimal.Zero, Expense: decimal.Zero, Balance: w.Balance}
	for _, tx := range w.Transactions {
		if DayKey(tx.Date) != key {
			continue
		}
		switch {
		case tx.Amount.IsPositive():
			summary.Income = summary.Income.Add(tx.Amount)
		case tx.Amount.IsNegative():
			summary.Expense = summary.Expense.Add(tx.Amount.Abs())
		}
	}
	return summary
}

// TransactionsOnDate returns the wallet's entries for one calendar day,
// most recent first. The sort is stable, so entries sharing a timestamp keep
// their insertion order.
func TransactionsOnDate(w ledger.Wallet, day time.Time) []ledger.Transaction {
	key := DayKey(day)
	out := make([]ledger.Transaction, 0)
	for _, tx := range w.Transactions {
		if DayKey(tx.Date) == key {
			out = append(out, tx)
		}
	}
	sortByDateDesc(out)
	return out
}

// SortedTransactions returns the wallet's whole history, most recent first.
func SortedTransactions(w ledger.Wallet) []ledger.Transaction {
	out := make([]ledger.Transaction, len(w.Transactions))
	copy(out, w.Transactions)
	sortByDateDesc(out)
	return out
}

// ChartTotalsFor splits the wallet's whole history into income and expense
// totals, both as absolute values. Sign decides the bucket; the adjustment
// type lands on whichever side its sign points to, matching the chart in the
// original interface.
func ChartTotalsFor(w ledger.Wallet) ChartTotals {
	totals := ChartTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range w.Transactions {
		switch {
		case tx.Type == ledger.TypeIncome || tx.Amount.IsPositive():
			totals.Income = totals.Income.Add(tx.Amount.Abs())
		case tx.Type == ledger.TypeExpense || tx.Amount.IsNegative():
			totals.Expense = totals.Expense.Add(tx.Amount.Abs())
		}
	}
	return totals
}

func sortByDateDesc(txs []ledger.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}
