package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chartmerge/chartmerge/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const recordCols = `id, account_id, patient_id, record_type, resource_kind, resource,
	source_format, source_file_id, effective_date, effective_date_end,
	status, category, code_system, code_value, code_display, display_text,
	confidence_score, ai_extracted, is_duplicate, deleted_at, created_at, updated_at`

func scanRecord(row pgx.Row) (*HealthRecord, error) {
	var rec HealthRecord
	err := row.Scan(&rec.ID, &rec.AccountID, &rec.PatientID, &rec.RecordType, &rec.ResourceKind, &rec.Resource,
		&rec.SourceFormat, &rec.SourceFileID, &rec.EffectiveDate, &rec.EffectiveDateEnd,
		&rec.Status, &rec.Category, &rec.CodeSystem, &rec.CodeValue, &rec.CodeDisplay, &rec.DisplayText,
		&rec.ConfidenceScore, &rec.AIExtracted, &rec.IsDuplicate, &rec.DeletedAt, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

const insertRecordSQL = `
	INSERT INTO health_record (id, account_id, patient_id, record_type, resource_kind, resource,
		source_format, source_file_id, effective_date, effective_date_end,
		status, category, code_system, code_value, code_display, display_text,
		confidence_score, ai_extracted)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

// InsertBatch inserts all records in one transaction, or joins a context
// transaction without committing it.
func (r *repoPG) InsertBatch(ctx context.Context, recs []*HealthRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	if tx := db.TxFromContext(ctx); tx != nil {
		return r.insertAll(ctx, tx, recs)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := r.insertAll(ctx, tx, recs)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit insert batch: %w", err)
	}
	return n, nil
}

func (r *repoPG) insertAll(ctx context.Context, tx pgx.Tx, recs []*HealthRecord) (int, error) {
	b := &pgx.Batch{}
	for _, rec := range recs {
		b.Queue(insertRecordSQL,
			rec.ID, rec.AccountID, rec.PatientID, rec.RecordType, rec.ResourceKind, rec.Resource,
			rec.SourceFormat, rec.SourceFileID, rec.EffectiveDate, rec.EffectiveDateEnd,
			rec.Status, rec.Category, rec.CodeSystem, rec.CodeValue, rec.CodeDisplay, rec.DisplayText,
			rec.ConfidenceScore, rec.AIExtracted)
	}

	br := tx.SendBatch(ctx, b)
	defer br.Close()
	for range recs {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}
	}
	return len(recs), nil
}

func (r *repoPG) GetByID(ctx context.Context, accountID, id uuid.UUID) (*HealthRecord, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM health_record
		 WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL`, id, accountID))
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *repoPG) List(ctx context.Context, accountID uuid.UUID, f ListFilter, limit, offset int) ([]*HealthRecord, int, error) {
	where := `WHERE account_id = $1 AND deleted_at IS NULL AND is_duplicate = FALSE`
	args := []interface{}{accountID}

	if f.RecordType != "" {
		args = append(args, f.RecordType)
		where += fmt.Sprintf(` AND record_type = $%d`, len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(` AND (display_text ILIKE $%d OR code_display ILIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM health_record `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM health_record `+where+
			fmt.Sprintf(` ORDER BY effective_date DESC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*HealthRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Search(ctx context.Context, accountID uuid.UUID, query string, limit int) ([]*HealthRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM health_record
		 WHERE account_id = $1 AND deleted_at IS NULL
		   AND (display_text ILIKE $2 OR code_display ILIKE $2)
		 ORDER BY effective_date DESC NULLS LAST LIMIT $3`,
		accountID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HealthRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *repoPG) ListActiveByPatient(ctx context.Context, accountID, patientID uuid.UUID) ([]*HealthRecord, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM health_record
		 WHERE account_id = $1 AND patient_id = $2
		   AND deleted_at IS NULL AND is_duplicate = FALSE
		 ORDER BY effective_date ASC NULLS LAST, created_at ASC`,
		accountID, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*HealthRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (r *repoPG) SoftDelete(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE health_record SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND account_id = $2 AND deleted_at IS NULL`, id, accountID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) CandidateExists(ctx context.Context, recordAID, recordBID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dedup_candidate WHERE record_a_id = $1 AND record_b_id = $2)`,
		recordAID, recordBID).Scan(&exists)
	return exists, err
}

// CreateCandidates persists all candidates in one transaction. A zero-length
// input performs no write at all.
func (r *repoPG) CreateCandidates(ctx context.Context, cands []*DedupCandidate) (int, error) {
	if len(cands) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin create candidates: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, cand := range cands {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dedup_candidate (id, record_a_id, record_b_id, similarity_score, match_reasons)
			 VALUES ($1,$2,$3,$4,$5)`,
			cand.ID, cand.RecordAID, cand.RecordBID, cand.SimilarityScore, cand.MatchReasons); err != nil {
			return 0, fmt.Errorf("insert candidate: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit candidates: %w", err)
	}
	return len(cands), nil
}

func (r *repoPG) ListCandidates(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*DedupCandidate, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM dedup_candidate dc
		 JOIN health_record a ON a.id = dc.record_a_id
		 WHERE a.account_id = $1`, accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT dc.id, dc.record_a_id, dc.record_b_id, dc.similarity_score, dc.match_reasons, dc.created_at
		 FROM dedup_candidate dc
		 JOIN health_record a ON a.id = dc.record_a_id
		 WHERE a.account_id = $1
		 ORDER BY dc.similarity_score DESC, dc.created_at DESC
		 LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*DedupCandidate
	for rows.Next() {
		var cand DedupCandidate
		if err := rows.Scan(&cand.ID, &cand.RecordAID, &cand.RecordBID,
			&cand.SimilarityScore, &cand.MatchReasons, &cand.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &cand)
	}
	return items, total, rows.Err()
}
