package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager executes a function inside a database transaction.
// Settings writes use it so the stored levels and the recomputed marker
// commit together; the marker must reflect the latest saved settings
// before the save returns success.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
