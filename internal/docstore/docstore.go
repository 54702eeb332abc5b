// Package docstore owns the on-disk document layout: finalized single-page
// PDFs under {raw}/pdfs and canonical quarterly JSON records under
// {processed}/jsons. Each JSON document is the sole source of truth for its
// company-quarter; re-extraction overwrites the file, never merges it.
package docstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lankadata/csepipe/internal/model"
)

// Store reads and writes pipeline documents on the local filesystem.
type Store struct {
	pdfDir  string
	jsonDir string
}

// New creates a store rooted at the given raw and processed directories,
// creating the pdfs/ and jsons/ subdirectories if needed.
func New(rawDir, processedDir string) (*Store, error) {
	s := &Store{
		pdfDir:  filepath.Join(rawDir, "pdfs"),
		jsonDir: filepath.Join(processedDir, "jsons"),
	}
	for _, dir := range []string{s.pdfDir, s.jsonDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "docstore: create %s", dir)
		}
	}
	return s, nil
}

// FinalizedPDFPath returns the canonical path for a finalized single-page
// PDF. Writing to the same company code and date overwrites; re-running
// acquisition never duplicates.
func (s *Store) FinalizedPDFPath(code, dateStr string) string {
	return filepath.Join(s.pdfDir, code+"_"+dateStr+".pdf")
}

// TempPDFPath returns a scratch path for a full download before slicing.
// Temp files never survive a report: they are deleted on success and on
// every failure path.
func (s *Store) TempPDFPath(name string) string {
	return filepath.Join(s.pdfDir, "temp_full_"+name)
}

// ListPDFs returns every finalized PDF path, sorted by name. Temp files are
// excluded.
func (s *Store) ListPDFs() ([]string, error) {
	entries, err := os.ReadDir(s.pdfDir)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: read %s", s.pdfDir)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pdf") || strings.HasPrefix(name, "temp_full_") {
			continue
		}
		paths = append(paths, filepath.Join(s.pdfDir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// JSONPathFor returns the canonical record path for a finalized PDF name.
func (s *Store) JSONPathFor(pdfName string) string {
	return filepath.Join(s.jsonDir, strings.TrimSuffix(filepath.Base(pdfName), ".pdf")+".json")
}

// ListAllDocuments returns every canonical JSON path, sorted by name.
func (s *Store) ListAllDocuments() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.jsonDir, "*.json"))
	if err != nil {
		return nil, eris.Wrap(err, "docstore: glob jsons")
	}
	sort.Strings(paths)
	return paths, nil
}

// ListDocuments returns canonical JSON paths for one symbol.
func (s *Store) ListDocuments(symbol string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.jsonDir, symbol+"_*.json"))
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: glob jsons for %s", symbol)
	}
	sort.Strings(paths)
	return paths, nil
}

// WriteReport validates and persists a canonical record.
func (s *Store) WriteReport(path string, r *model.QuarterlyReport) error {
	if err := r.Validate(); err != nil {
		return eris.Wrapf(err, "docstore: reject %s", path)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "docstore: marshal %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "docstore: write %s", path)
	}
	return nil
}

// ReadReport loads a canonical record.
func (s *Store) ReadReport(path string) (*model.QuarterlyReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: read %s", path)
	}
	var r model.QuarterlyReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrapf(err, "docstore: unmarshal %s", path)
	}
	return &r, nil
}

// Companies derives the company list by scanning every canonical record and
// keeping the maximum (year, quarter) per symbol.
func (s *Store) Companies() ([]model.Company, error) {
	paths, err := s.ListAllDocuments()
	if err != nil {
		return nil, err
	}

	latest := make(map[string]model.Company)
	for _, path := range paths {
		symbol := symbolFromPath(path)
		if symbol == "" {
			continue
		}
		r, err := s.ReadReport(path)
		if err != nil {
			return nil, err
		}
		cur, ok := latest[symbol]
		if !ok || newer(r.Year, r.Quarter, cur.LatestYear, cur.LatestQuarter) {
			latest[symbol] = model.Company{
				Symbol:        symbol,
				LatestQuarter: r.Quarter,
				LatestYear:    r.Year,
			}
		}
	}

	companies := make([]model.Company, 0, len(latest))
	for _, c := range latest {
		companies = append(companies, c)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i].Symbol < companies[j].Symbol })
	return companies, nil
}

// Reports returns every record for a symbol, optionally filtered by year,
// sorted ascending by (year, quarter).
func (s *Store) Reports(symbol, year string) ([]model.QuarterlyReport, error) {
	paths, err := s.ListDocuments(symbol)
	if err != nil {
		return nil, err
	}

	var reports []model.QuarterlyReport
	for _, path := range paths {
		r, err := s.ReadReport(path)
		if err != nil {
			return nil, err
		}
		if year != "" && r.Year != year {
			continue
		}
		reports = append(reports, *r)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Year != reports[j].Year {
			return reports[i].Year < reports[j].Year
		}
		return model.QuarterOrdinal(reports[i].Quarter) < model.QuarterOrdinal(reports[j].Quarter)
	})
	return reports, nil
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	idx := strings.Index(base, "_")
	if idx <= 0 {
		return ""
	}
	return base[:idx]
}

func newer(year, quarter, curYear, curQuarter string) bool {
	if year != curYear {
		return year > curYear
	}
	return model.QuarterOrdinal(quarter) > model.QuarterOrdinal(curQuarter)
}
