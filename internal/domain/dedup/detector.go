package dedup

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chartmerge/chartmerge/internal/domain/record"
	"github.com/chartmerge/chartmerge/pkg/pagination"
)

// Store is the record persistence the detector needs.
type Store interface {
	ListActiveByPatient(ctx context.Context, accountID, patientID uuid.UUID) ([]*record.HealthRecord, error)
	CandidateExists(ctx context.Context, recordAID, recordBID uuid.UUID) (bool, error)
	CreateCandidates(ctx context.Context, cands []*record.DedupCandidate) (int, error)
	ListCandidates(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*record.DedupCandidate, int, error)
}

type Service struct {
	store Store
	log   zerolog.Logger
}

func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// Detect scans a patient's active records for likely duplicates and stores
// new candidates. It returns the number of candidates created. Rerunning it
// over unchanged records creates nothing.
func (s *Service) Detect(ctx context.Context, accountID, patientID uuid.UUID) (int, error) {
	records, err := s.store.ListActiveByPatient(ctx, accountID, patientID)
	if err != nil {
		return 0, err
	}
	if len(records) < 2 {
		return 0, nil
	}

	byType := map[string][]*record.HealthRecord{}
	var typeOrder []string
	for _, r := range records {
		if _, ok := byType[r.RecordType]; !ok {
			typeOrder = append(typeOrder, r.RecordType)
		}
		byType[r.RecordType] = append(byType[r.RecordType], r)
	}

	var cands []*record.DedupCandidate
	for _, rtype := range typeOrder {
		recs := byType[rtype]
		for i, a := range recs {
			for _, b := range recs[i+1:] {
				score, reasons := Compare(a, b)
				if score < CandidateThreshold {
					continue
				}
				exists, err := s.store.CandidateExists(ctx, a.ID, b.ID)
				if err != nil {
					return 0, err
				}
				if exists {
					continue
				}
				cands = append(cands, &record.DedupCandidate{
					ID:              uuid.New(),
					RecordAID:       a.ID,
					RecordBID:       b.ID,
					SimilarityScore: score,
					MatchReasons:    reasons,
				})
			}
		}
	}

	if len(cands) == 0 {
		return 0, nil
	}
	n, err := s.store.CreateCandidates(ctx, cands)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("candidates", n).Str("patient_id", patientID.String()).
		Msg("dedup candidates found")
	return n, nil
}

// ListCandidates returns the stored candidates for an account, newest and
// highest-scoring first.
func (s *Service) ListCandidates(ctx context.Context, accountID uuid.UUID, p pagination.Params) (*pagination.Response, error) {
	items, total, err := s.store.ListCandidates(ctx, accountID, p.Limit(), p.Offset())
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*record.DedupCandidate{}
	}
	return pagination.NewResponse(items, total, p), nil
}
