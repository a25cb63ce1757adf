package matchmakingdb

import "errors"

// Sentinel errors for the repository layer.
// These represent storage-level conditions callers handle specially
// (not business-domain errors).
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoRowsAffected indicates an UPDATE matched no rows, usually because a
	// guarded status transition lost a race.
	ErrNoRowsAffected = errors.New("no rows affected")

	// ErrActivePairingExists indicates the active-pair unique index rejected an insert.
	ErrActivePairingExists = errors.New("active pairing already exists for competitors")

	// ErrPermissionDenied indicates the database refused the write for the current role.
	ErrPermissionDenied = errors.New("permission denied by storage")

	// ErrForeignKey indicates a referenced row does not exist.
	ErrForeignKey = errors.New("referenced record does not exist")
)
