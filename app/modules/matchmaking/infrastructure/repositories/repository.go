package matchmakingdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new matchmaking repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

const (
	pgUniqueViolation       = "23505"
	pgForeignKeyViolation   = "23503"
	pgInsufficientPrivilege = "42501"

	// activePairIndex is the partial unique index over active pairings.
	activePairIndex = "uq_pairings_active_pair"
)

// mapError converts driver errors into repository sentinels and wraps the rest.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if sentinel := sentinelFor(pgErr.Field('C'), pgErr.Field('n')); sentinel != nil {
			return fmt.Errorf("failed to %s: %w", op, sentinel)
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// sentinelFor maps a SQLSTATE code and constraint name to a sentinel, or nil.
// Only the active-pair index means "already paired"; other unique violations pass through.
func sentinelFor(code, constraint string) error {
	switch code {
	case pgUniqueViolation:
		if constraint == activePairIndex {
			return ErrActivePairingExists
		}
	case pgForeignKeyViolation:
		return ErrForeignKey
	case pgInsufficientPrivilege:
		return ErrPermissionDenied
	}
	return nil
}

// checkAffected returns ErrNoRowsAffected when the statement matched nothing.
func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
