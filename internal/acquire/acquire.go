// Package acquire orchestrates report acquisition for one company: download
// each discovered PDF, infer its reporting date, slice out the company's
// group statement page, and finalize it in the raw store. Failures are
// isolated per report; a bad download or a short PDF never aborts the rest
// of the batch.
package acquire

import (
	"context"
	"os"
	"path"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lankadata/csepipe/internal/dates"
	"github.com/lankadata/csepipe/internal/docstore"
	"github.com/lankadata/csepipe/internal/ledger"
	"github.com/lankadata/csepipe/internal/model"
	"github.com/lankadata/csepipe/internal/pdfdoc"
)

// Company identifies one tracked listing. The statement page is a fixed,
// per-company calibration: filings follow a stable template, and adding a
// company means recalibrating its page.
type Company struct {
	Code   string `yaml:"code" mapstructure:"code"`     // filename prefix (DIPD)
	Symbol string `yaml:"symbol" mapstructure:"symbol"` // exchange symbol (DIPD.N0000)
	Page   int    `yaml:"page" mapstructure:"page"`     // 1-based page of the group statement
}

// DefaultCompanies is the tracked set.
func DefaultCompanies() []Company {
	return []Company{
		{Code: "DIPD", Symbol: "DIPD.N0000", Page: 3}, // Dipped Products PLC
		{Code: "REXP", Symbol: "REXP.N0000", Page: 4}, // Richard Pieris Exports PLC
	}
}

// datePagesToScan bounds date inference to the front matter; the quarter-end
// date appears on the cover or statement header, and later pages add noise.
const datePagesToScan = 3

// downloader fetches a URL to a local file.
type downloader interface {
	DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error)
}

// recorder appends item outcomes to the run ledger.
type recorder interface {
	RecordItem(ctx context.Context, runID string, item ledger.Item) error
}

// Orchestrator runs acquisition for discovered report references.
type Orchestrator struct {
	fetcher downloader
	store   *docstore.Store

	// seams for tests
	sliceFn func(src, dst string, page int) error
	textFn  func(path string, maxPages int) (string, error)
	now     func() time.Time
}

// New creates an Orchestrator.
func New(fetcher downloader, store *docstore.Store) *Orchestrator {
	return &Orchestrator{
		fetcher: fetcher,
		store:   store,
		sliceFn: pdfdoc.Slice,
		textFn:  pdfdoc.Text,
		now:     time.Now,
	}
}

// Result tallies one company's acquisition outcomes.
type Result struct {
	Succeeded int
	Failed    int
}

// AcquireReports processes every reference for one company, recording each
// outcome. It never returns an error: the isolation boundary is one report,
// and the caller gets the tally.
func (o *Orchestrator) AcquireReports(ctx context.Context, runID string, company Company, refs []model.ReportReference, rec recorder) Result {
	log := zap.L().With(zap.String("company", company.Code))

	var res Result
	for _, ref := range refs {
		finalPath, err := o.processReport(ctx, company, ref)

		item := ledger.Item{
			Company:   company.Code,
			Stage:     "acquire",
			Reference: ref.PDFURL,
			Status:    ledger.StatusOK,
		}
		if err != nil {
			item.Status = ledger.StatusFailed
			item.Error = err.Error()
			res.Failed++
			log.Error("report acquisition failed",
				zap.String("url", ref.PDFURL),
				zap.Error(err))
		} else {
			res.Succeeded++
			log.Info("report finalized", zap.String("path", finalPath))
		}
		if rec != nil {
			if recErr := rec.RecordItem(ctx, runID, item); recErr != nil {
				log.Warn("failed to record run item", zap.Error(recErr))
			}
		}
	}
	return res
}

// processReport handles one reference end to end. The temp download is
// removed on every path out of this function.
func (o *Orchestrator) processReport(ctx context.Context, company Company, ref model.ReportReference) (string, error) {
	tempPath := o.store.TempPDFPath(company.Code + "_" + path.Base(ref.PDFURL))
	if _, err := o.fetcher.DownloadToFile(ctx, ref.PDFURL, tempPath); err != nil {
		_ = os.Remove(tempPath)
		return "", eris.Wrapf(err, "acquire: download %s", ref.PDFURL)
	}
	defer os.Remove(tempPath) //nolint:errcheck

	dateStr := o.inferDate(tempPath, ref)

	finalPath := o.store.FinalizedPDFPath(company.Code, dateStr)
	if err := o.sliceFn(tempPath, finalPath, company.Page); err != nil {
		return "", eris.Wrapf(err, "acquire: slice %s", ref.PDFURL)
	}
	return finalPath, nil
}

// inferDate finds the quarter-end date inside the document, falling back to
// the processing timestamp. The fallback mislabels the document, so it is
// logged loudly enough to audit.
func (o *Orchestrator) inferDate(pdfPath string, ref model.ReportReference) string {
	text, err := o.textFn(pdfPath, datePagesToScan)
	if err == nil {
		if dateStr, inferErr := dates.InferFromText(text); inferErr == nil {
			return dateStr
		}
	}

	fallback := o.now().Format("2006_01_02")
	zap.L().Warn("could not infer report date, using current date",
		zap.String("pdf", pdfPath),
		zap.String("reported_date_text", ref.ReportedDate),
		zap.String("fallback", fallback))
	return fallback
}
