package ledger

import "errors"

var (
	// ErrValidation covers rejected input: non-positive transaction amounts,
	// zero adjustments, transfers onto the same wallet, missing active wallet.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a referenced wallet or transaction id is absent.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds occurs when a transfer exceeds the source balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrLastWallet rejects deleting the sole remaining wallet.
	ErrLastWallet = errors.New("cannot delete the last wallet")
)
