package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque executor handle. Concrete values are infra-defined
// (pgx.Tx, *pgxpool.Conn, *pgxpool.Pool or nil); repositories pick the right
// execution path from it.
type Tx interface{}

// NoTX selects the plain pool path in repositories.
var NoTX Tx

// TransactionManager executes fn inside a database transaction, passing the
// transaction handle through tx. An error from fn rolls the transaction back.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// Session is the unit of work for a single inbound update: a dedicated
// connection acquired when processing starts and released when it ends. It is
// never shared between concurrently processed updates.
type Session interface {
	// Tx returns the executor handle to pass into repository calls.
	Tx() Tx
	Release()
}

// SessionFactory opens per-update sessions.
type SessionFactory interface {
	Acquire(ctx context.Context) (Session, error)
}
