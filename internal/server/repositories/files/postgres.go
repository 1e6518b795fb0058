package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dropcrate/dropcrate/internal/common"
	"github.com/dropcrate/dropcrate/internal/dbx"
	"github.com/dropcrate/dropcrate/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `file_id, owner_id, storage_key, original_file_name, tag, file_size, upload_timestamp`

func scanFile(row interface{ Scan(dest ...any) error }) (*models.File, error) {
	var f models.File
	if err := row.Scan(&f.FileID, &f.OwnerID, &f.StorageKey, &f.OriginalFileName, &f.Tag, &f.FileSize, &f.UploadTimestamp); err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateOrGet registers a file record, keyed by storage_key so that a client
// retrying registration after a network blip gets the existing record back
// instead of minting a duplicate for the same object. The conflict branch
// refreshes client-supplied fields but never file_id or owner_id; a conflict
// on a key owned by someone else affects no row and is reported as
// ErrNotFoundOrForbidden.
func (r *PostgresRepository) CreateOrGet(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (file_id, owner_id, storage_key, original_file_name, tag, file_size, upload_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (storage_key)
		DO UPDATE SET
			original_file_name = EXCLUDED.original_file_name,
			tag = EXCLUDED.tag,
			file_size = EXCLUDED.file_size
			WHERE files.owner_id = EXCLUDED.owner_id
		RETURNING ` + fileColumns + `;
	`
	row := r.db.QueryRowContext(ctx, query,
		file.FileID, file.OwnerID, file.StorageKey, file.OriginalFileName, file.Tag, file.FileSize, file.UploadTimestamp)
	result, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// ListByOwner returns all records owned by ownerID via the owner_id index.
// Order is unspecified.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1`
	return r.selectFiles(ctx, query, ownerID)
}

// SearchByOwner returns the owner's records whose tag or original file name
// contains query, case-insensitively. The caller is expected to pass a
// non-empty, lowercased query. position() is used instead of LIKE so that
// user input needs no wildcard escaping.
func (r *PostgresRepository) SearchByOwner(ctx context.Context, ownerID string, query string) ([]*models.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_id = $1
		AND (position($2 in lower(tag)) > 0 OR position($2 in lower(original_file_name)) > 0)`
	return r.selectFiles(ctx, q, ownerID, query)
}

func (r *PostgresRepository) selectFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns the record for fileID regardless of owner. Callers own the
// ownership decision; see the service layer.
func (r *PostgresRepository) GetByID(ctx context.Context, fileID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id = $1`
	result, err := scanFile(r.db.QueryRowContext(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return result, nil
}

// UpdateTag sets the tag in a single conditional statement: the row must
// match both file_id and owner_id, which closes the window between checking
// ownership and mutating. Zero rows means absent or foreign.
func (r *PostgresRepository) UpdateTag(ctx context.Context, fileID, ownerID, tag string) (*models.File, error) {
	query := `UPDATE files SET tag = $1 WHERE file_id = $2 AND owner_id = $3 RETURNING ` + fileColumns
	result, err := scanFile(r.db.QueryRowContext(ctx, query, tag, fileID, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	return result, nil
}

// Delete removes the record, conditional on ownership like UpdateTag.
func (r *PostgresRepository) Delete(ctx context.Context, fileID, ownerID string) error {
	query := `DELETE FROM files WHERE file_id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, fileID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrNotFoundOrForbidden
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
