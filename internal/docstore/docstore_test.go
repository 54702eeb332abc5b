package docstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankadata/csepipe/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
	require.NoError(t, err)
	return s
}

func writeTestReport(t *testing.T, s *Store, name, quarter, year string) {
	t.Helper()
	rev := 1000.0
	r := &model.QuarterlyReport{
		Quarter:          quarter,
		Year:             year,
		FinancialMetrics: model.FinancialMetrics{Revenue: &rev},
	}
	require.NoError(t, s.WriteReport(s.JSONPathFor(name), r))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	writeTestReport(t, s, "DIPD_2024_03_31.pdf", "Q1", "2024")

	r, err := s.ReadReport(s.JSONPathFor("DIPD_2024_03_31.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "Q1", r.Quarter)
	assert.Equal(t, "2024", r.Year)
	require.NotNil(t, r.FinancialMetrics.Revenue)
	assert.Equal(t, 1000.0, *r.FinancialMetrics.Revenue)
	assert.Nil(t, r.FinancialMetrics.NetIncome)
}

func TestWriteReport_RejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	r := &model.QuarterlyReport{Quarter: "Q7", Year: "2024"}
	assert.Error(t, s.WriteReport(s.JSONPathFor("DIPD_2024_03_31.pdf"), r))
}

func TestListDocuments_FiltersBySymbol(t *testing.T) {
	s := newTestStore(t)
	writeTestReport(t, s, "DIPD_2024_03_31.pdf", "Q1", "2024")
	writeTestReport(t, s, "DIPD_2023_12_31.pdf", "Q4", "2023")
	writeTestReport(t, s, "REXP_2024_03_31.pdf", "Q1", "2024")

	all, err := s.ListAllDocuments()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	dipd, err := s.ListDocuments("DIPD")
	require.NoError(t, err)
	assert.Len(t, dipd, 2)
}

func TestListPDFs_ExcludesTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.FinalizedPDFPath("DIPD", "2024_03_31"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(s.TempPDFPath("DIPD_x.pdf"), []byte("x"), 0o644))

	pdfs, err := s.ListPDFs()
	require.NoError(t, err)
	require.Len(t, pdfs, 1)
	assert.Equal(t, "DIPD_2024_03_31.pdf", filepath.Base(pdfs[0]))
}

func TestCompanies_DerivesLatestQuarter(t *testing.T) {
	s := newTestStore(t)
	writeTestReport(t, s, "DIPD_2023_12_31.pdf", "Q4", "2023")
	writeTestReport(t, s, "DIPD_2024_03_31.pdf", "Q1", "2024")
	writeTestReport(t, s, "DIPD_2024_06_30.pdf", "Q2", "2024")
	writeTestReport(t, s, "REXP_2024_03_31.pdf", "Q1", "2024")

	companies, err := s.Companies()
	require.NoError(t, err)
	require.Len(t, companies, 2)

	assert.Equal(t, model.Company{Symbol: "DIPD", LatestQuarter: "Q2", LatestYear: "2024"}, companies[0])
	assert.Equal(t, model.Company{Symbol: "REXP", LatestQuarter: "Q1", LatestYear: "2024"}, companies[1])
}

func TestReports_SortedAscending(t *testing.T) {
	s := newTestStore(t)
	writeTestReport(t, s, "DIPD_2024_03_31.pdf", "Q1", "2024")
	writeTestReport(t, s, "DIPD_2023_09_30.pdf", "Q3", "2023")
	writeTestReport(t, s, "DIPD_2023_12_31.pdf", "Q4", "2023")

	reports, err := s.Reports("DIPD", "")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, "Q3", reports[0].Quarter)
	assert.Equal(t, "Q4", reports[1].Quarter)
	assert.Equal(t, "Q1", reports[2].Quarter)
}

func TestReports_YearFilter(t *testing.T) {
	s := newTestStore(t)
	writeTestReport(t, s, "DIPD_2024_03_31.pdf", "Q1", "2024")
	writeTestReport(t, s, "DIPD_2023_12_31.pdf", "Q4", "2023")

	reports, err := s.Reports("DIPD", "2024")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024", reports[0].Year)
}

func TestFinalizedPDFPath_OverwriteNotDuplicate(t *testing.T) {
	s := newTestStore(t)
	p1 := s.FinalizedPDFPath("DIPD", "2024_03_31")
	p2 := s.FinalizedPDFPath("DIPD", "2024_03_31")
	assert.Equal(t, p1, p2)
}
