package repository

import (
	"context"
)

// Tx is an opaque transaction handle. Repositories accept it alongside the
// context so use-case interfaces stay free of storage types; the concrete
// type (e.g. pgx.Tx) is infra-defined, and nil means "no transaction".
type Tx interface{}

// NoTX is passed by callers that run outside a transaction.
var NoTX Tx

// TransactionManager runs fn inside a storage transaction and hands the
// transaction handle to the repositories called within.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
