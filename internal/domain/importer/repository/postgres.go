package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/normalize"
)

const pgUniqueViolation = "23505"

// PostgresImportRepository implements ImportRepository using PostgreSQL.
type PostgresImportRepository struct {
	db     DB
	logger *slog.Logger
}

// NewPostgresImportRepository creates a new PostgreSQL import repository.
func NewPostgresImportRepository(db DB, logger *slog.Logger) *PostgresImportRepository {
	return &PostgresImportRepository{db: db, logger: logger}
}

// GetColumnMappings loads the saved mapping library. Rows whose payload no
// longer decodes are logged and skipped so one corrupt blob cannot take
// down the whole import flow.
func (r *PostgresImportRepository) GetColumnMappings(ctx context.Context) ([]mapping.SavedMapping, error) {
	query := `
		SELECT id, name, mapping_json
		FROM column_mappings
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list column mappings: %w", err)
	}
	defer rows.Close()

	var out []mapping.SavedMapping
	for rows.Next() {
		var (
			id   uuid.UUID
			name string
			blob []byte
		)
		if err := rows.Scan(&id, &name, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan column mapping: %w", err)
		}

		saved, err := mapping.DecodeSaved(id, name, blob)
		if err != nil {
			r.logger.Warn("skipping undecodable column mapping", "id", id, "name", name, "error", err)
			continue
		}
		out = append(out, saved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read column mappings: %w", err)
	}
	return out, nil
}

// SaveColumnMapping inserts or replaces a saved mapping by id.
func (r *PostgresImportRepository) SaveColumnMapping(ctx context.Context, saved mapping.SavedMapping) error {
	blob, err := mapping.EncodeSaved(saved)
	if err != nil {
		return fmt.Errorf("failed to encode column mapping: %w", err)
	}

	query := `
		INSERT INTO column_mappings (id, name, mapping_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			mapping_json = EXCLUDED.mapping_json,
			updated_at = now()`

	if _, err := r.db.Exec(ctx, query, saved.ID, saved.Name, blob); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrMappingNameConflict
		}
		return fmt.Errorf("failed to save column mapping: %w", err)
	}
	return nil
}

// DeleteColumnMapping removes a saved mapping.
func (r *PostgresImportRepository) DeleteColumnMapping(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM column_mappings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete column mapping: %w", err)
	}
	return nil
}

// ImportTransactions inserts the normalized records in a single
// transaction; either every row lands or none do.
func (r *PostgresImportRepository) ImportTransactions(ctx context.Context, txs []normalize.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	dbTx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	query := `
		INSERT INTO transactions (id, date, description, amount_cents, category, account, owner, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, tx := range txs {
		if _, err := dbTx.Exec(ctx, query,
			uuid.New(),
			tx.Date,
			tx.Description,
			tx.AmountCents,
			tx.Category,
			tx.Account,
			tx.Owner,
			tx.Currency,
		); err != nil {
			return 0, fmt.Errorf("failed to insert transaction: %w", err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(txs), nil
}

// GetAccounts lists known account names.
func (r *PostgresImportRepository) GetAccounts(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `SELECT name FROM accounts ORDER BY name`)
}

// GetOwners lists known owner names.
func (r *PostgresImportRepository) GetOwners(ctx context.Context) ([]string, error) {
	return r.listNames(ctx, `SELECT name FROM owners ORDER BY name`)
}

func (r *PostgresImportRepository) listNames(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read names: %w", err)
	}
	return names, nil
}
