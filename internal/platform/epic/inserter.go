package epic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chartmerge/chartmerge/internal/domain/record"
)

// Inserter validates mapped records and writes them in batches.
type Inserter struct {
	repo record.Repository
	log  zerolog.Logger
}

func NewInserter(repo record.Repository, log zerolog.Logger) *Inserter {
	return &Inserter{repo: repo, log: log}
}

// Insert assigns IDs and persists a batch. Every record must carry an
// account, a patient and the canonical display fields.
func (ins *Inserter) Insert(ctx context.Context, recs []*record.HealthRecord) (int, error) {
	for _, rec := range recs {
		if rec.AccountID == uuid.Nil {
			return 0, fmt.Errorf("record missing account id")
		}
		if rec.PatientID == uuid.Nil {
			return 0, fmt.Errorf("record missing patient id")
		}
		if rec.RecordType == "" {
			return 0, fmt.Errorf("record missing record type")
		}
		if rec.DisplayText == "" {
			return 0, fmt.Errorf("record missing display text")
		}
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}

	n, err := ins.repo.InsertBatch(ctx, recs)
	if err != nil {
		return 0, err
	}
	ins.log.Debug().Int("count", n).Msg("inserted record batch")
	return n, nil
}
