package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, letting Queries run
// against either a pooled connection or an open transaction — the same
// shape sqlc generates and that apps/privacy-service/internal/repository/db
// relies on.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgx.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries is the generated-style data access struct. New(pool) is used for
// single-statement calls; New(tx) is used inside a transaction.
type Queries struct {
	db DBTX
}

// New constructs a Queries bound to the given executor.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}
