// Package discover drives a browser session through the exchange's company
// profile UI to find quarterly report PDFs. The navigation path is fixed:
// consent prompt (best-effort) → Financials tab → Quarterly Reports tab →
// paginated result table. Each page of rows yields (date text, pdf url)
// pairs; pagination stops gracefully on the first error, keeping whatever
// was collected.
package discover

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lankadata/csepipe/internal/model"
)

// ErrNavigation marks an unrecoverable browser failure. It aborts discovery
// for the current company only; the multi-company run continues.
var ErrNavigation = eris.New("discover: navigation failed")

const (
	tabFinancials = "Financials"
	tabQuarterly  = "Quarterly Reports"
)

// RawRow is one table row as scraped: the first cell's text and the PDF link
// target.
type RawRow struct {
	DateText string `json:"date_text"`
	Href     string `json:"href"`
}

// pager abstracts the paginated result table so the collection walk is
// testable without a browser.
type pager interface {
	Rows(ctx context.Context) ([]RawRow, error)
	Next(ctx context.Context) (bool, error)
}

// Config controls discovery behavior.
type Config struct {
	BaseURL       string
	LookbackYears int
	PageDelay     time.Duration // enforced before each paginated navigation
}

// Discoverer walks the quarterly reports table for one company.
type Discoverer struct {
	session *Session
	cfg     Config
	limiter *rate.Limiter
	now     func() time.Time
}

// New creates a Discoverer bound to an open session.
func New(session *Session, cfg Config) *Discoverer {
	if cfg.LookbackYears <= 0 {
		cfg.LookbackYears = 5
	}
	if cfg.PageDelay <= 0 {
		cfg.PageDelay = 2 * time.Second
	}
	limiter := rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	// Spend the initial burst token: the first post-click wait must still
	// cover a full render delay.
	limiter.Allow()
	return &Discoverer{
		session: session,
		cfg:     cfg,
		limiter: limiter,
		now:     time.Now,
	}
}

// Discover navigates to the company profile and returns every in-window
// report reference, oldest pagination page first.
func (d *Discoverer) Discover(ctx context.Context, symbol string) ([]model.ReportReference, error) {
	log := zap.L().With(zap.String("symbol", symbol))

	url := d.cfg.BaseURL + "?symbol=" + symbol
	if err := d.session.Navigate(url); err != nil {
		return nil, eris.Wrap(ErrNavigation, err.Error())
	}

	d.session.AcceptConsent()

	if err := d.session.ActivateTab(tabFinancials); err != nil {
		return nil, eris.Wrap(ErrNavigation, err.Error())
	}
	if err := d.session.ActivateTab(tabQuarterly); err != nil {
		return nil, eris.Wrap(ErrNavigation, err.Error())
	}

	cutoff := d.now().AddDate(-d.cfg.LookbackYears, 0, 0)
	refs := d.collect(ctx, d.session, cutoff)

	if len(refs) == 0 {
		log.Warn("no quarterly report links found",
			zap.Int("lookback_years", d.cfg.LookbackYears))
	} else {
		log.Info("quarterly reports discovered", zap.Int("count", len(refs)))
	}
	return refs, nil
}

// collect walks pages until the table runs out of "next" controls or a page
// transition fails. Pagination errors are not fatal: discovery returns what
// it has.
func (d *Discoverer) collect(ctx context.Context, p pager, cutoff time.Time) []model.ReportReference {
	var refs []model.ReportReference
	seen := make(map[string]bool)

	for {
		rows, err := p.Rows(ctx)
		if err != nil {
			zap.L().Warn("row collection failed, stopping pagination", zap.Error(err))
			return refs
		}
		refs = appendInWindow(refs, seen, rows, cutoff)

		more, err := p.Next(ctx)
		if err != nil {
			zap.L().Warn("page transition failed, stopping pagination", zap.Error(err))
			return refs
		}
		if !more {
			return refs
		}

		// The click only starts the transition; the new panel needs a full
		// delay to render before it is queried again. This also paces
		// requests to the remote server.
		if err := d.limiter.Wait(ctx); err != nil {
			return refs
		}
	}
}

// appendInWindow filters raw rows into report references. Rows with an
// unparseable date or a non-PDF link are skipped without aborting the scan;
// duplicates across overlapping pagination pages are dropped by
// (date text, url).
func appendInWindow(refs []model.ReportReference, seen map[string]bool, rows []RawRow, cutoff time.Time) []model.ReportReference {
	for _, row := range rows {
		if !strings.HasSuffix(strings.ToLower(row.Href), ".pdf") {
			continue
		}
		reported, err := dateparse.ParseAny(row.DateText)
		if err != nil {
			zap.L().Debug("skipping row with unparseable date",
				zap.String("date_text", row.DateText))
			continue
		}
		if reported.Before(cutoff) {
			continue
		}
		key := row.DateText + "|" + row.Href
		if seen[key] {
			continue
		}
		seen[key] = true
		refs = append(refs, model.ReportReference{
			ReportedDate: row.DateText,
			PDFURL:       row.Href,
		})
	}
	return refs
}
