package model

import (
	"math"

	"github.com/rotisserie/eris"
)

// Quarter labels as they appear in canonical records.
const (
	Q1 = "Q1"
	Q2 = "Q2"
	Q3 = "Q3"
	Q4 = "Q4"
)

// ReportReference is a single row discovered on the quarterly reports table:
// the date text as shown on the site and the PDF link target. It is consumed
// immediately by acquisition and never persisted.
type ReportReference struct {
	ReportedDate string `json:"reported_date_text"`
	PDFURL       string `json:"pdf_url"`
}

// FinancialMetrics holds the extracted income statement figures for one
// quarter. Every field is optional: nil means the value was not explicitly
// stated in the source document. Monetary values are absolute currency units
// (the source reports in thousands; extraction rescales by 1000). Negative
// values carry a minus sign, never parentheses.
type FinancialMetrics struct {
	Revenue                     *float64 `json:"revenue"`
	CostOfGoodsSold             *float64 `json:"cost_of_goods_sold"`
	GrossProfit                 *float64 `json:"gross_profit"`
	OtherIncome                 *float64 `json:"other_income"`
	DistributionCosts           *float64 `json:"distribution_costs"`
	AdministrativeExpenses      *float64 `json:"administrative_expenses"`
	OperatingIncome             *float64 `json:"operating_income"`
	FinanceCosts                *float64 `json:"finance_costs"`
	FinanceIncome               *float64 `json:"finance_income"`
	ShareOfProfitEquityInvestee *float64 `json:"share_of_profit_equity_investee"`
	ProfitBeforeTax             *float64 `json:"profit_before_tax"`
	TaxExpense                  *float64 `json:"tax_expense"`
	NetIncome                   *float64 `json:"net_income"`
	EPSBasic                    *float64 `json:"eps_basic"`
	EPSDiluted                  *float64 `json:"eps_diluted"`
	DividendPerShare            *float64 `json:"dividend_per_share"`
}

// QuarterlyReport is the canonical per-company-quarter record. One JSON
// document per (symbol, quarter, year); re-extraction overwrites, never
// merges.
type QuarterlyReport struct {
	Quarter          string           `json:"quarter"`
	Year             string           `json:"year"`
	FinancialMetrics FinancialMetrics `json:"financial_metrics"`
}

// Company is derived from the canonical records for a symbol; it is never
// persisted separately.
type Company struct {
	Symbol        string `json:"symbol"`
	LatestQuarter string `json:"latest_quarter"`
	LatestYear    string `json:"latest_year"`
}

var quarterOrdinal = map[string]int{Q1: 1, Q2: 2, Q3: 3, Q4: 4}

// QuarterOrdinal returns 1-4 for a valid quarter label, 0 otherwise.
func QuarterOrdinal(q string) int {
	return quarterOrdinal[q]
}

// Validate checks a record at the pipeline boundary before persistence.
// Quarter and year may be empty (filename correction can still fill them),
// but when present they must be well-formed, and every metric must be finite.
func (r *QuarterlyReport) Validate() error {
	if r.Quarter != "" && quarterOrdinal[r.Quarter] == 0 {
		return eris.Errorf("model: invalid quarter %q", r.Quarter)
	}
	if r.Year != "" && len(r.Year) != 4 {
		return eris.Errorf("model: invalid year %q", r.Year)
	}
	for name, v := range r.FinancialMetrics.fields() {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return eris.Errorf("model: non-finite value for %s", name)
		}
	}
	return nil
}

// DeriveOperatingIncome computes operating income from gross profit, other
// income, distribution costs and administrative expenses when all required
// inputs are present. The cost fields are taken by absolute value: the
// extraction contract does not pin down their sign, so the formula is
// defensive against both conventions. Returns false when the inputs are
// incomplete.
func (m *FinancialMetrics) DeriveOperatingIncome() (float64, bool) {
	if m.GrossProfit == nil || m.DistributionCosts == nil || m.AdministrativeExpenses == nil {
		return 0, false
	}
	other := 0.0
	if m.OtherIncome != nil {
		other = *m.OtherIncome
	}
	return *m.GrossProfit + other - math.Abs(*m.DistributionCosts) - math.Abs(*m.AdministrativeExpenses), true
}

func (m *FinancialMetrics) fields() map[string]*float64 {
	return map[string]*float64{
		"revenue":                         m.Revenue,
		"cost_of_goods_sold":              m.CostOfGoodsSold,
		"gross_profit":                    m.GrossProfit,
		"other_income":                    m.OtherIncome,
		"distribution_costs":              m.DistributionCosts,
		"administrative_expenses":         m.AdministrativeExpenses,
		"operating_income":                m.OperatingIncome,
		"finance_costs":                   m.FinanceCosts,
		"finance_income":                  m.FinanceIncome,
		"share_of_profit_equity_investee": m.ShareOfProfitEquityInvestee,
		"profit_before_tax":               m.ProfitBeforeTax,
		"tax_expense":                     m.TaxExpense,
		"net_income":                      m.NetIncome,
		"eps_basic":                       m.EPSBasic,
		"eps_diluted":                     m.EPSDiluted,
		"dividend_per_share":              m.DividendPerShare,
	}
}
