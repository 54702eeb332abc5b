package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lankadata/csepipe/internal/model"
)

func TestCorrectFromFilename_QuarterEnd(t *testing.T) {
	cases := []struct {
		filename    string
		wantQuarter string
		wantYear    string
	}{
		{"DIPD_2024_03_31.pdf", "Q1", "2024"},
		{"DIPD_2024_06_30.pdf", "Q2", "2024"},
		{"REXP_2023_09_30.pdf", "Q3", "2023"},
		{"REXP_2023_12_31.pdf", "Q4", "2023"},
		{"data/raw/pdfs/DIPD_2024_03_31.pdf", "Q1", "2024"},
		{"REXP-Q2-2023.pdf", "Q2", "2023"},
	}

	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			got := CorrectFromFilename(tc.filename, model.QuarterlyReport{Quarter: "Q9x", Year: "0000"})
			assert.Equal(t, tc.wantQuarter, got.Quarter)
			assert.Equal(t, tc.wantYear, got.Year)
		})
	}
}

func TestCorrectFromFilename_NonQuarterEndKeepsQuarter(t *testing.T) {
	// A mid-quarter date fixes the year but leaves the extracted quarter.
	got := CorrectFromFilename("DIPD_2024_05_15.pdf", model.QuarterlyReport{Quarter: "Q1", Year: "2023"})
	assert.Equal(t, "Q1", got.Quarter)
	assert.Equal(t, "2024", got.Year)
}

func TestCorrectFromFilename_NoPatternPassthrough(t *testing.T) {
	in := model.QuarterlyReport{Quarter: "Q2", Year: "2022"}
	got := CorrectFromFilename("notes.pdf", in)
	assert.Equal(t, in, got)
}

func TestCorrectFromFilename_Idempotent(t *testing.T) {
	in := model.QuarterlyReport{Quarter: "Q4", Year: "1999"}

	once := CorrectFromFilename("DIPD_2024_03_31.pdf", in)
	twice := CorrectFromFilename("DIPD_2024_03_31.pdf", once)
	assert.Equal(t, once, twice)

	once = CorrectFromFilename("DIPD_2024_05_15.pdf", in)
	twice = CorrectFromFilename("DIPD_2024_05_15.pdf", once)
	assert.Equal(t, once, twice)
}
