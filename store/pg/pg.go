package pg

import (
	"context"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"

	"LumeChat/logger"
	"LumeChat/store"
	"LumeChat/tools/errs"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx, so every query
// method works both standalone and inside WithPairLock's transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PG struct {
	pool *pgxpool.Pool
	q    querier
}

var _ store.Store = (*PG)(nil)

func New(ctx context.Context, databaseURL string) (*PG, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "pgxpool.New")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, pkgerrors.Wrap(err, "pg ping")
	}
	return &PG{pool: pool, q: pool}, nil
}

func (p *PG) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// pairLockKey derives an order-independent advisory-lock key from the two
// user ids, so resolve(A,B) and resolve(B,A) contend on the same lock.
func pairLockKey(userA, userB string) int64 {
	lo, hi := userA, userB
	if hi < lo {
		lo, hi = hi, lo
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(lo))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(hi))
	return int64(h.Sum64())
}

// WithPairLock runs fn inside one transaction holding
// pg_advisory_xact_lock(key); the lock releases with the commit/rollback.
func (p *PG) WithPairLock(ctx context.Context, userA, userB string, fn func(ctx context.Context, tx store.Store) error) error {
	if p.pool == nil {
		return errs.ErrTransientStorage.WithDetail("pair lock requires a pool connection")
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return wrapErr(err, "begin pair-lock tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	key := pairLockKey(userA, userB)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
		return wrapErr(err, "acquire pair lock")
	}

	if err := fn(ctx, &PG{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr(err, "commit pair-lock tx")
	}
	return nil
}

// wrapErr converts a pgx error into the coded taxonomy. Unique violations are
// conflicts, missing rows and broken references are not-found, everything
// else is transient and safe to retry from the top of the operation.
func wrapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound.WithDetail(op)
	}
	var pgErr *pgconn.PgError
	if pkgerrors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return errs.ErrConflict.WithDetail(op)
		case "23503": // foreign_key_violation
			return errs.ErrNotFound.WithDetail(op)
		}
	}
	logger.Errorf("[store/pg] %s: %v", op, err)
	return errs.ErrTransientStorage.WithDetail(op)
}
