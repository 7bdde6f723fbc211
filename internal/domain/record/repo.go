package record

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist or is not visible to
// the requesting account.
var ErrNotFound = errors.New("record not found")

// ListFilter narrows record listings.
type ListFilter struct {
	RecordType string
	Search     string // matches display_text and code_display
}

// Repository is the abstract record store. InsertBatch and CreateCandidates
// each run in a single transaction (or join one carried by the context), so
// callers control commit frequency by choosing batch boundaries.
type Repository interface {
	InsertBatch(ctx context.Context, recs []*HealthRecord) (int, error)
	GetByID(ctx context.Context, accountID, id uuid.UUID) (*HealthRecord, error)
	List(ctx context.Context, accountID uuid.UUID, f ListFilter, limit, offset int) ([]*HealthRecord, int, error)
	Search(ctx context.Context, accountID uuid.UUID, query string, limit int) ([]*HealthRecord, error)
	ListActiveByPatient(ctx context.Context, accountID, patientID uuid.UUID) ([]*HealthRecord, error)
	SoftDelete(ctx context.Context, accountID, id uuid.UUID) error

	CandidateExists(ctx context.Context, recordAID, recordBID uuid.UUID) (bool, error)
	CreateCandidates(ctx context.Context, cands []*DedupCandidate) (int, error)
	ListCandidates(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*DedupCandidate, int, error)
}
