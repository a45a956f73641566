package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vidyalaya/fees-api/internal/models"
)

// structureDocID keys the single fee structure row. The school carries exactly
// one structure document, so the table always holds at most one row.
const structureDocID = "default"

// FeeStructureRepository persists the school-wide fee structure document as a
// JSONB blob with a separate version column.
type FeeStructureRepository struct {
	db *sqlx.DB
}

// NewFeeStructureRepository constructs the repository.
func NewFeeStructureRepository(db *sqlx.DB) *FeeStructureRepository {
	return &FeeStructureRepository{db: db}
}

type feeStructureRow struct {
	Document []byte `db:"document"`
	Version  int64  `db:"version"`
}

// Get fetches the fee structure document. Returns sql.ErrNoRows when the
// school has not configured fees yet; callers substitute the default.
func (r *FeeStructureRepository) Get(ctx context.Context) (*models.FeeStructure, error) {
	const query = `SELECT document, version FROM fee_structures WHERE id = $1`
	var row feeStructureRow
	if err := r.db.GetContext(ctx, &row, query, structureDocID); err != nil {
		return nil, err
	}
	var structure models.FeeStructure
	if err := json.Unmarshal(row.Document, &structure); err != nil {
		return nil, fmt.Errorf("unmarshal fee structure: %w", err)
	}
	structure.Version = row.Version
	return &structure, nil
}

// Replace upserts the whole fee structure document in one statement and
// returns the new version. When expectedVersion is non-zero and the stored
// version differs, no row is updated and sql.ErrNoRows is returned; callers
// translate that into a conflict. A zero expectedVersion keeps the
// last-writer-wins behaviour.
func (r *FeeStructureRepository) Replace(ctx context.Context, structure *models.FeeStructure, expectedVersion int64, updatedBy string) (int64, error) {
	doc := *structure
	doc.Version = 0
	payload, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal fee structure: %w", err)
	}

	const query = `INSERT INTO fee_structures (id, document, version, updated_by, updated_at)
        VALUES ($1, $2, 1, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET document = EXCLUDED.document,
            version = fee_structures.version + 1,
            updated_by = EXCLUDED.updated_by,
            updated_at = EXCLUDED.updated_at
        WHERE $5::bigint = 0 OR fee_structures.version = $5
        RETURNING version`

	var version int64
	if err := r.db.GetContext(ctx, &version, query, structureDocID, payload, updatedBy, time.Now().UTC(), expectedVersion); err != nil {
		return 0, err
	}
	return version, nil
}
