package epic

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chartmerge/chartmerge/internal/domain/record"
	"github.com/chartmerge/chartmerge/internal/platform/fhir"
)

const DefaultBatchSize = 100

// RowError describes a failure while processing an export. Row is nil for
// file-level failures and 0-based for row-level ones.
type RowError struct {
	File  string `json:"file"`
	Row   *int   `json:"row,omitempty"`
	Error string `json:"error"`
}

// Stats summarizes one export run.
type Stats struct {
	TotalFiles      int        `json:"total_files"`
	FilesProcessed  int        `json:"files_processed"`
	RecordsInserted int        `json:"records_inserted"`
	RecordsSkipped  int        `json:"records_skipped"`
	Errors          []RowError `json:"errors"`
}

// Progress is invoked after each mapped file with the number of files
// reached so far, the total file count, and the running insert count.
type Progress func(filesDone, filesTotal, recordsInserted int)

// Options configures one export run.
type Options struct {
	AccountID    uuid.UUID
	PatientID    uuid.UUID
	SourceFileID *uuid.UUID
	BatchSize    int
	Progress     Progress
}

// Parser walks an Epic EHI Tables export directory and ingests every table
// a mapper is registered for.
type Parser struct {
	ins *Inserter
	log zerolog.Logger
}

func NewParser(ins *Inserter, log zerolog.Logger) *Parser {
	return &Parser{ins: ins, log: log}
}

// ParseExport processes all *.tsv files under exportDir in name order.
// Files without a registered mapper are counted as skipped. File and row
// failures are recorded in the stats and processing continues.
func (p *Parser) ParseExport(ctx context.Context, exportDir string, opts Options) (*Stats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	entries, err := os.ReadDir(exportDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tsv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	stats := &Stats{TotalFiles: len(files), Errors: []RowError{}}

	for idx, name := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		tableName := strings.ToUpper(strings.TrimSuffix(name, ".tsv"))
		mapper, ok := Lookup(tableName)
		if !ok {
			stats.RecordsSkipped++
			continue
		}

		p.log.Info().Str("table", tableName).Int("file", idx+1).Int("total", stats.TotalFiles).
			Msg("processing epic table")

		rows := p.processFile(ctx, filepath.Join(exportDir, name), tableName, mapper, opts, stats)
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.FilesProcessed++
		p.log.Info().Str("table", tableName).Int("rows", rows).Msg("processed epic table")

		if opts.Progress != nil {
			opts.Progress(idx+1, stats.TotalFiles, stats.RecordsInserted)
		}
	}

	p.log.Info().Int("files", stats.FilesProcessed).Int("records", stats.RecordsInserted).
		Int("errors", len(stats.Errors)).Msg("epic export processing complete")
	return stats, nil
}

func (p *Parser) processFile(ctx context.Context, path, tableName string, mapper Mapper, opts Options, stats *Stats) int {
	f, err := os.Open(path)
	if err != nil {
		stats.Errors = append(stats.Errors, RowError{File: tableName, Error: err.Error()})
		p.log.Error().Str("table", tableName).Err(err).Msg("error processing table")
		return 0
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if err != io.EOF {
			stats.Errors = append(stats.Errors, RowError{File: tableName, Error: err.Error()})
			p.log.Error().Str("table", tableName).Err(err).Msg("error processing table")
		}
		return 0
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var batch []*record.HealthRecord
	rowCount := 0

	flush := func() bool {
		n, err := p.ins.Insert(ctx, batch)
		if err != nil {
			rowIdx := rowCount - 1
			stats.Errors = append(stats.Errors, RowError{File: tableName, Row: &rowIdx, Error: err.Error()})
			batch = batch[:0]
			return false
		}
		stats.RecordsInserted += n
		batch = batch[:0]
		return true
	}

	for rowIdx := 0; ; rowIdx++ {
		if ctx.Err() != nil {
			return rowCount
		}

		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				i := rowIdx
				stats.Errors = append(stats.Errors, RowError{File: tableName, Row: &i, Error: err.Error()})
				continue
			}
			stats.Errors = append(stats.Errors, RowError{File: tableName, Error: err.Error()})
			p.log.Error().Str("table", tableName).Err(err).Msg("error processing table")
			return rowCount
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(cells) {
				row[col] = cells[i]
			}
		}

		res := mapper.ToResource(row)
		if res == nil {
			continue
		}

		batch = append(batch, p.buildRecord(res, opts))
		rowCount++

		if len(batch) >= opts.BatchSize {
			flush()
		}
	}

	if len(batch) > 0 {
		flush()
	}
	return rowCount
}

func (p *Parser) buildRecord(res fhir.Resource, opts Options) *record.HealthRecord {
	kind := "Unknown"
	if s, ok := res["resourceType"].(string); ok && s != "" {
		kind = s
	}

	system, code, display := fhir.Coding(res)

	return &record.HealthRecord{
		AccountID:        opts.AccountID,
		PatientID:        opts.PatientID,
		RecordType:       record.TypeForResource(kind),
		ResourceKind:     kind,
		Resource:         res,
		SourceFormat:     record.SourceEpicEHI,
		SourceFileID:     opts.SourceFileID,
		EffectiveDate:    fhir.EffectiveDate(res),
		EffectiveDateEnd: fhir.EffectiveDateEnd(res),
		Status:           fhir.Status(res),
		Category:         fhir.Categories(res),
		CodeSystem:       system,
		CodeValue:        code,
		CodeDisplay:      display,
		DisplayText:      fhir.DisplayText(res),
	}
}
