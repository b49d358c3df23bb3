package shared

import "context"

// TransactionManager runs a function inside one storage transaction. The
// transactional handle travels in the context so repositories called within
// fn join the same transaction. Used where two aggregates must commit
// together, such as a code redemption and its wallet credit.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
