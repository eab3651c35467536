package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/paper-track-api/internal/models"
	"github.com/noah-isme/paper-track-api/pkg/storage"
)

// ByteStore is the narrow contract the version store needs from the payload
// storage backend.
type ByteStore interface {
	Write(key string, data []byte) error
	Delete(key string) error
}

// DocumentRepository is the append-only version store for paper documents.
// It owns the transaction that keeps version metadata and payload bytes
// consistent: a failed byte write rolls the metadata back, a failed commit
// removes the just-written bytes.
type DocumentRepository struct {
	db    *sqlx.DB
	store ByteStore
}

// NewDocumentRepository creates a new document repository.
func NewDocumentRepository(db *sqlx.DB, store ByteStore) *DocumentRepository {
	return &DocumentRepository{db: db, store: store}
}

const versionColumns = `id, paper_id, name, category, variant, mime_type, uploader_id, fingerprint, created_at, retired_at`

// CreateVersion inserts a new version and persists its payload. When
// supersede is set, the currently active version(s) of the same
// (paper, name, variant) cell are retired in the same transaction, so no
// reader ever observes two active versions, or none.
func (r *DocumentRepository) CreateVersion(ctx context.Context, version *models.DocumentVersion, payload []byte, supersede bool) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create version: %w", err)
	}

	if supersede {
		const retire = `UPDATE document_versions SET retired_at = $1
            WHERE paper_id = $2 AND name = $3 AND variant = $4 AND retired_at IS NULL`
		if _, err := tx.ExecContext(ctx, retire, version.CreatedAt, version.PaperID, version.Name, version.Variant); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("retire active version: %w", err)
		}
	}

	const insert = `INSERT INTO document_versions (id, paper_id, name, category, variant, mime_type, uploader_id, fingerprint, created_at)
        VALUES (:id, :paper_id, :name, :category, :variant, :mime_type, :uploader_id, :fingerprint, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, version); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert version: %w", err)
	}

	key := storage.KeyFor(version.ID, version.MimeType)
	if err := r.store.Write(key, payload); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("write version payload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = r.store.Delete(key)
		return fmt.Errorf("commit version: %w", err)
	}
	return nil
}

// SupersedeGenerated replaces the generated variant of a slot and retires
// any signed variant alongside it, holding a row lock on the paper so
// concurrent regenerations of the same paper serialize.
func (r *DocumentRepository) SupersedeGenerated(ctx context.Context, version *models.DocumentVersion, payload []byte) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede generated: %w", err)
	}

	var paperID string
	if err := tx.GetContext(ctx, &paperID, `SELECT id FROM papers WHERE id = $1 FOR UPDATE`, version.PaperID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("lock paper: %w", err)
	}

	const retire = `UPDATE document_versions SET retired_at = $1
        WHERE paper_id = $2 AND name = $3 AND variant IN ($4, $5) AND retired_at IS NULL`
	if _, err := tx.ExecContext(ctx, retire, version.CreatedAt, version.PaperID, version.Name, models.VariantGenerated, models.VariantSigned); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("retire generated versions: %w", err)
	}

	const insert = `INSERT INTO document_versions (id, paper_id, name, category, variant, mime_type, uploader_id, fingerprint, created_at)
        VALUES (:id, :paper_id, :name, :category, :variant, :mime_type, :uploader_id, :fingerprint, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insert, version); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert generated version: %w", err)
	}

	key := storage.KeyFor(version.ID, version.MimeType)
	if err := r.store.Write(key, payload); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("write generated payload: %w", err)
	}

	if err := tx.Commit(); err != nil {
		_ = r.store.Delete(key)
		return fmt.Errorf("commit generated version: %w", err)
	}
	return nil
}

// Retire marks the version retired. Bytes stay on disk for the audit trail.
func (r *DocumentRepository) Retire(ctx context.Context, versionID string, at time.Time) error {
	const query = `UPDATE document_versions SET retired_at = $2 WHERE id = $1 AND retired_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, versionID, at)
	if err != nil {
		return fmt.Errorf("retire version: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retire version result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns a version regardless of retirement state.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.DocumentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions WHERE id = $1 LIMIT 1`
	var version models.DocumentVersion
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find version by id: %w", err)
	}
	return &version, nil
}

// GetActive returns the non-retired version(s) for a slot, optionally
// narrowed to a single variant.
func (r *DocumentRepository) GetActive(ctx context.Context, paperID, name string, variant *models.DocumentVariant) ([]models.DocumentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions
        WHERE paper_id = $1 AND name = $2 AND retired_at IS NULL`
	args := []interface{}{paperID, name}
	if variant != nil {
		query += ` AND variant = $3`
		args = append(args, *variant)
	}
	query += ` ORDER BY created_at DESC`

	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, args...); err != nil {
		return nil, fmt.Errorf("get active versions: %w", err)
	}
	return versions, nil
}

// GetHistory returns every version of a slot, retired included, newest first.
func (r *DocumentRepository) GetHistory(ctx context.Context, paperID, name string) ([]models.DocumentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions
        WHERE paper_id = $1 AND name = $2 ORDER BY created_at DESC`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, paperID, name); err != nil {
		return nil, fmt.Errorf("get version history: %w", err)
	}
	return versions, nil
}

// ListActiveByPaper returns all active versions of a paper across slots.
func (r *DocumentRepository) ListActiveByPaper(ctx context.Context, paperID string) ([]models.DocumentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM document_versions
        WHERE paper_id = $1 AND retired_at IS NULL ORDER BY name, variant`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, paperID); err != nil {
		return nil, fmt.Errorf("list active versions: %w", err)
	}
	return versions, nil
}
