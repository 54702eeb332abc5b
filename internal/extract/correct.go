package extract

import (
	"path/filepath"
	"regexp"

	"github.com/lankadata/csepipe/internal/dates"
	"github.com/lankadata/csepipe/internal/model"
)

var (
	quarterYearRe = regexp.MustCompile(`(Q[1-4])-(\d{4})`)
	fileDateRe    = regexp.MustCompile(`(\d{4})[-_](\d{2})[-_](\d{2})`)
)

// CorrectFromFilename overwrites the record's quarter and year from patterns
// in the source filename. Some filings misstate the quarter in the document
// body; the filename carries the date the pipeline itself inferred, which is
// the more reliable label. Idempotent, and records with a non-matching
// filename pass through unchanged.
func CorrectFromFilename(filename string, r model.QuarterlyReport) model.QuarterlyReport {
	base := filepath.Base(filename)

	if m := quarterYearRe.FindStringSubmatch(base); m != nil {
		r.Quarter = m[1]
		r.Year = m[2]
		return r
	}

	if m := fileDateRe.FindStringSubmatch(base); m != nil {
		year, month, day := m[1], m[2], m[3]
		if q, ok := dates.QuarterForEnd(month, day); ok {
			r.Quarter = q
		}
		// A mid-quarter date still fixes the year; the quarter keeps
		// whatever the extraction produced.
		r.Year = year
	}

	return r
}
