package epic

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chartmerge/chartmerge/internal/domain/record"
)

type captureRepo struct {
	records []*record.HealthRecord
	batches int
}

func (r *captureRepo) InsertBatch(ctx context.Context, recs []*record.HealthRecord) (int, error) {
	r.records = append(r.records, recs...)
	r.batches++
	return len(recs), nil
}

func (r *captureRepo) GetByID(context.Context, uuid.UUID, uuid.UUID) (*record.HealthRecord, error) {
	return nil, record.ErrNotFound
}

func (r *captureRepo) List(context.Context, uuid.UUID, record.ListFilter, int, int) ([]*record.HealthRecord, int, error) {
	return nil, 0, nil
}

func (r *captureRepo) Search(context.Context, uuid.UUID, string, int) ([]*record.HealthRecord, error) {
	return nil, nil
}

func (r *captureRepo) ListActiveByPatient(context.Context, uuid.UUID, uuid.UUID) ([]*record.HealthRecord, error) {
	return nil, nil
}

func (r *captureRepo) SoftDelete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (r *captureRepo) CandidateExists(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return false, nil
}

func (r *captureRepo) CreateCandidates(context.Context, []*record.DedupCandidate) (int, error) {
	return 0, nil
}

func (r *captureRepo) ListCandidates(context.Context, uuid.UUID, int, int) ([]*record.DedupCandidate, int, error) {
	return nil, 0, nil
}

func newTestParser(repo record.Repository) *Parser {
	return NewParser(NewInserter(repo, zerolog.Nop()), zerolog.Nop())
}

func writeProblemFile(t *testing.T, dir, name string, rows int) {
	t.Helper()
	var b strings.Builder
	b.WriteString("DESCRIPTION\tNOTED_DATE\tPROBLEM_STATUS_C_NAME\n")
	for i := 0; i < rows; i++ {
		b.WriteString("Problem " + strconv.Itoa(i) + "\t1/2/2020\tActive\n")
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testOpts() Options {
	return Options{AccountID: uuid.New(), PatientID: uuid.New()}
}

func TestParseExportBatching(t *testing.T) {
	dir := t.TempDir()
	writeProblemFile(t, dir, "MEDICAL_HX.tsv", 0)
	writeProblemFile(t, dir, "PROBLEM_LIST.tsv", 10)
	writeProblemFile(t, dir, "PROBLEM_LIST_ALL.tsv", 5)
	// MEDICAL_HX has a DESCRIPTION header but its mapper needs
	// DX_ID_DX_NAME, so those rows map to nil; here it is simply empty.

	repo := &captureRepo{}
	opts := testOpts()
	opts.BatchSize = 4
	var progressCalls int
	opts.Progress = func(done, total, inserted int) {
		progressCalls++
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
	}

	stats, err := newTestParser(repo).ParseExport(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	if stats.TotalFiles != 3 || stats.FilesProcessed != 3 {
		t.Errorf("files = %d/%d, want 3/3", stats.FilesProcessed, stats.TotalFiles)
	}
	if stats.RecordsInserted != 15 {
		t.Errorf("records inserted = %d, want 15", stats.RecordsInserted)
	}
	if len(stats.Errors) != 0 {
		t.Errorf("errors = %v", stats.Errors)
	}
	// 10 rows at batch size 4 flush as 4+4+2, then 5 rows as 4+1.
	if repo.batches != 5 {
		t.Errorf("insert batches = %d, want 5", repo.batches)
	}
	if progressCalls != 3 {
		t.Errorf("progress calls = %d, want 3", progressCalls)
	}

	rec := repo.records[0]
	if rec.RecordType != record.TypeCondition || rec.SourceFormat != record.SourceEpicEHI {
		t.Errorf("record type/source = %s/%s", rec.RecordType, rec.SourceFormat)
	}
	if rec.DisplayText == "" || rec.ID == uuid.Nil {
		t.Error("record missing display text or id")
	}
	if rec.EffectiveDate == nil {
		t.Error("record missing effective date")
	}
}

func TestParseExportMalformedRow(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("DESCRIPTION\tNOTED_DATE\tPROBLEM_STATUS_C_NAME\n")
	for i := 0; i < 20; i++ {
		if i == 7 {
			// wrong field count
			b.WriteString("Broken row\tonly two fields\n")
			continue
		}
		b.WriteString("Problem " + strconv.Itoa(i) + "\t1/2/2020\tActive\n")
	}
	if err := os.WriteFile(filepath.Join(dir, "PROBLEM_LIST.tsv"), []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	repo := &captureRepo{}
	stats, err := newTestParser(repo).ParseExport(context.Background(), dir, testOpts())
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	if stats.RecordsInserted != 19 {
		t.Errorf("records inserted = %d, want 19", stats.RecordsInserted)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("files processed = %d, want 1", stats.FilesProcessed)
	}
	if len(stats.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", stats.Errors)
	}
	e := stats.Errors[0]
	if e.File != "PROBLEM_LIST" || e.Row == nil || *e.Row != 7 {
		t.Errorf("error = %+v, want row 7 in PROBLEM_LIST", e)
	}
}

func TestParseExportUnmappedTable(t *testing.T) {
	dir := t.TempDir()
	writeProblemFile(t, dir, "UNKNOWN_TABLE.tsv", 3)
	writeProblemFile(t, dir, "PROBLEM_LIST.tsv", 2)

	repo := &captureRepo{}
	var progressCalls int
	opts := testOpts()
	opts.Progress = func(done, total, inserted int) { progressCalls++ }

	stats, err := newTestParser(repo).ParseExport(context.Background(), dir, opts)
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	if stats.RecordsSkipped != 1 {
		t.Errorf("records skipped = %d, want 1", stats.RecordsSkipped)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("files processed = %d, want 1", stats.FilesProcessed)
	}
	if stats.TotalFiles != 2 {
		t.Errorf("total files = %d, want 2", stats.TotalFiles)
	}
	if progressCalls != 1 {
		t.Errorf("progress calls = %d, want 1 (skipped files report no progress)", progressCalls)
	}
}

func TestParseExportUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	// A directory with a .tsv name is discovered but cannot be opened as a
	// file, producing a file-level error.
	if err := os.Mkdir(filepath.Join(dir, "MEDICAL_HX.tsv"), 0o755); err != nil {
		t.Fatal(err)
	}

	repo := &captureRepo{}
	stats, err := newTestParser(repo).ParseExport(context.Background(), dir, testOpts())
	if err != nil {
		t.Fatalf("ParseExport: %v", err)
	}

	if stats.FilesProcessed != 1 {
		t.Errorf("files processed = %d, want 1 (failures still count)", stats.FilesProcessed)
	}
	if len(stats.Errors) != 1 || stats.Errors[0].Row != nil {
		t.Errorf("errors = %+v, want one file-level error", stats.Errors)
	}
}

func TestParseExportMissingDir(t *testing.T) {
	_, err := newTestParser(&captureRepo{}).ParseExport(context.Background(), "/nonexistent/export", testOpts())
	if err == nil {
		t.Fatal("expected error for missing export dir")
	}
}

func TestParseExportCanceled(t *testing.T) {
	dir := t.TempDir()
	writeProblemFile(t, dir, "PROBLEM_LIST.tsv", 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestParser(&captureRepo{}).ParseExport(ctx, dir, testOpts())
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
