package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lankadata/csepipe/internal/docstore"
	"github.com/lankadata/csepipe/internal/model"
)

func f(v float64) *float64 { return &v }

func newTestServer(t *testing.T) (*httptest.Server, *docstore.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := docstore.New(filepath.Join(dir, "raw"), filepath.Join(dir, "processed"))
	require.NoError(t, err)

	srv := httptest.NewServer(New(store).Router())
	t.Cleanup(srv.Close)
	return srv, store
}

func writeReport(t *testing.T, store *docstore.Store, name string, r *model.QuarterlyReport) {
	t.Helper()
	require.NoError(t, store.WriteReport(store.JSONPathFor(name), r))
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", nil))
}

func TestCompanies(t *testing.T) {
	srv, store := newTestServer(t)
	writeReport(t, store, "DIPD_2024_03_31.pdf", &model.QuarterlyReport{Quarter: "Q1", Year: "2024"})
	writeReport(t, store, "REXP_2023_12_31.pdf", &model.QuarterlyReport{Quarter: "Q4", Year: "2023"})

	var got struct {
		Companies []model.Company `json:"companies"`
	}
	status := getJSON(t, srv.URL+"/api/companies", &got)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got.Companies, 2)
	assert.Equal(t, "DIPD", got.Companies[0].Symbol)
	assert.Equal(t, "2024", got.Companies[0].LatestYear)
}

func TestCompanies_EmptyStore(t *testing.T) {
	srv, _ := newTestServer(t)

	var got struct {
		Companies []model.Company `json:"companies"`
	}
	status := getJSON(t, srv.URL+"/api/companies", &got)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, got.Companies)
}

func TestFinancials_DerivesOperatingIncome(t *testing.T) {
	srv, store := newTestServer(t)
	writeReport(t, store, "DIPD_2024_03_31.pdf", &model.QuarterlyReport{
		Quarter: "Q1", Year: "2024",
		FinancialMetrics: model.FinancialMetrics{
			GrossProfit:            f(100),
			OtherIncome:            f(10),
			DistributionCosts:      f(-20),
			AdministrativeExpenses: f(-15),
		},
	})

	var got []model.QuarterlyReport
	status := getJSON(t, srv.URL+"/api/companies/DIPD/financials", &got)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].FinancialMetrics.OperatingIncome)
	assert.Equal(t, 75.0, *got[0].FinancialMetrics.OperatingIncome)
}

func TestFinancials_YearFilterAndOrder(t *testing.T) {
	srv, store := newTestServer(t)
	writeReport(t, store, "DIPD_2023_09_30.pdf", &model.QuarterlyReport{Quarter: "Q3", Year: "2023"})
	writeReport(t, store, "DIPD_2023_12_31.pdf", &model.QuarterlyReport{Quarter: "Q4", Year: "2023"})
	writeReport(t, store, "DIPD_2024_03_31.pdf", &model.QuarterlyReport{Quarter: "Q1", Year: "2024"})

	var got []model.QuarterlyReport
	status := getJSON(t, srv.URL+"/api/companies/DIPD/financials?year=2023", &got)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, got, 2)
	assert.Equal(t, "Q3", got[0].Quarter)
	assert.Equal(t, "Q4", got[1].Quarter)
}

func TestFinancials_UnknownCompany(t *testing.T) {
	srv, _ := newTestServer(t)
	status := getJSON(t, srv.URL+"/api/companies/NOPE/financials", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
