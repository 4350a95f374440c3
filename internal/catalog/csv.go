package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"log/slog"

	"github.com/m3rciful/promobot/core/logger"
)

var csvHeader = []string{"code", "doc_url", "affiliate_url"}

// maxImportProblems bounds how many row problems a report keeps verbatim.
const maxImportProblems = 10

// ImportReport summarizes one CSV import run.
type ImportReport struct {
	Imported int
	Skipped  int
	Problems []string
}

func (r *ImportReport) problem(msg string) {
	r.Skipped++
	if len(r.Problems) < maxImportProblems {
		r.Problems = append(r.Problems, msg)
	}
}

// ImportCSV reads rows of "code,doc_url,affiliate_url" (header required) and
// saves each valid row; the affiliate column may be empty. Bad rows are
// skipped and reported, not fatal; only a malformed header or a store failure
// aborts the run.
func (s *Service) ImportCSV(ctx context.Context, actorID int64, r io.Reader) (ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return ImportReport{}, fmt.Errorf("read csv header: %w", err)
	}
	if !headerMatches(header) {
		return ImportReport{}, fmt.Errorf("csv header must be %q", strings.Join(csvHeader, ","))
	}

	var rep ImportReport
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			rep.problem(err.Error())
			continue
		}
		e, err := buildEntry(record[0], record[1], record[2], false)
		if err != nil {
			rep.problem(fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		e.AddedBy = actorID
		if _, err := s.store.Upsert(ctx, e); err != nil {
			logger.Error(ctx, component, "catalog.import",
				slog.String("code", e.Code),
				slog.String("err", err.Error()),
			)
			return rep, fmt.Errorf("save entry %s: %w", e.Code, err)
		}
		rep.Imported++
	}

	logger.Info(ctx, component, "catalog.import",
		slog.Int("imported", rep.Imported),
		slog.Int("skipped", rep.Skipped),
	)
	return rep, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), csvHeader[i]) {
			return false
		}
	}
	return true
}
