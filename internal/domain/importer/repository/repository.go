// Package repository provides database operations for the import flow:
// the saved-mapping library, committed transactions, and the account and
// owner lookups used to populate mapping dropdowns.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/normalize"
)

// ErrMappingNameConflict is returned when a saved mapping with the same
// name already exists under a different id.
var ErrMappingNameConflict = errors.New("a mapping with this name already exists")

// DB is the subset of pgxpool.Pool the repository needs. pgxmock's pool
// satisfies it too.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ImportRepository defines the persistence operations behind the import flow.
type ImportRepository interface {
	// GetColumnMappings returns the saved mapping library. Blobs that no
	// longer decode are skipped, not fatal.
	GetColumnMappings(ctx context.Context) ([]mapping.SavedMapping, error)
	// SaveColumnMapping inserts a mapping or, when the id already exists,
	// replaces its payload. A name collision with a different mapping
	// fails with ErrMappingNameConflict.
	SaveColumnMapping(ctx context.Context, saved mapping.SavedMapping) error
	DeleteColumnMapping(ctx context.Context, id uuid.UUID) error

	// ImportTransactions persists normalized records atomically.
	ImportTransactions(ctx context.Context, txs []normalize.Transaction) (int, error)

	GetAccounts(ctx context.Context) ([]string, error)
	GetOwners(ctx context.Context) ([]string, error)
}
