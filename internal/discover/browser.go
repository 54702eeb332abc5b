package discover

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Session owns one headless browser for the duration of one company's
// discovery. The exchange UI is stateful (active tab, pagination cursor), so
// a session is never shared across companies; Close must always run, even on
// an unrecoverable navigation error, or the browser process leaks.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	waitTimeout time.Duration
}

// NewSession launches a browser. The returned session must be Closed by the
// caller.
func NewSession(parent context.Context, headless bool, waitTimeout time.Duration) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Force the browser to start now so a broken environment fails here,
	// not on the first navigation.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, eris.Wrap(err, "discover: start browser")
	}

	if waitTimeout <= 0 {
		waitTimeout = 10 * time.Second
	}

	return &Session{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		waitTimeout: waitTimeout,
	}, nil
}

// Close tears down the browser process.
func (s *Session) Close() {
	s.cancelCtx()
	s.cancelAlloc()
}

// run executes chromedp actions with the session's bounded wait. A hung
// element wait fails fast instead of blocking the batch.
func (s *Session) run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(s.ctx, s.waitTimeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads the given URL.
func (s *Session) Navigate(url string) error {
	if err := s.run(chromedp.Navigate(url), chromedp.WaitReady("body")); err != nil {
		return eris.Wrapf(err, "discover: navigate %s", url)
	}
	return nil
}

// AcceptConsent clicks the cookie consent prompt if one appears. Absence of
// the prompt is not an error.
func (s *Session) AcceptConsent() {
	err := s.run(
		chromedp.WaitVisible(`//p[contains(@class, 'fc-button-label') and text()='Consent']`, chromedp.BySearch),
		chromedp.Click(`//p[contains(@class, 'fc-button-label') and text()='Consent']`, chromedp.BySearch),
	)
	if err != nil {
		zap.L().Debug("consent prompt not found", zap.Error(err))
		return
	}
	zap.L().Info("consent accepted")
}

// ActivateTab clicks the tab matching label unless it is already active.
// The transition is idempotent: re-running discovery against a page whose
// tab is already open must not fail.
func (s *Session) ActivateTab(label string) error {
	var active bool
	checkJS := `(() => {
		const links = document.querySelectorAll('a.active, button.active, .tab.active');
		for (const el of links) {
			if (el.textContent.includes(` + "`" + label + "`" + `)) return true;
		}
		return false;
	})()`
	if err := s.run(chromedp.Evaluate(checkJS, &active)); err != nil {
		return eris.Wrapf(err, "discover: check tab %s", label)
	}
	if active {
		zap.L().Debug("tab already active", zap.String("tab", label))
		return nil
	}

	sel := `//a[contains(text(), '` + label + `')] | //button[contains(text(), '` + label + `')] | //div[contains(@class, 'tab') and contains(text(), '` + label + `')]`
	err := s.run(
		chromedp.ScrollIntoView(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch),
	)
	if err != nil {
		return eris.Wrapf(err, "discover: activate tab %s", label)
	}
	return nil
}

// Rows collects (date text, link) pairs from the active tab pane's table.
// Rows missing either cell are dropped in the page, not here.
func (s *Session) Rows(ctx context.Context) ([]RawRow, error) {
	rowsJS := `(() => {
		const pane = document.querySelector('div.tab-pane.active') || document;
		return Array.from(pane.querySelectorAll('tr')).map(tr => {
			const td = tr.querySelector('td');
			const a = tr.querySelector('a[href$=".pdf"]');
			return {
				date_text: td ? td.innerText.trim() : '',
				href: a ? a.href : '',
			};
		}).filter(r => r.date_text !== '' && r.href !== '');
	})()`

	var rows []RawRow
	if err := s.run(chromedp.Evaluate(rowsJS, &rows)); err != nil {
		return nil, eris.Wrap(err, "discover: collect rows")
	}
	return rows, nil
}

// Next clicks the pagination "next" control. Returns false when no such
// control exists, which ends the walk.
func (s *Session) Next(ctx context.Context) (bool, error) {
	nextJS := `(() => {
		const candidates = document.querySelectorAll('button, a');
		for (const el of candidates) {
			if (el.classList.contains('next') || el.textContent.trim() === 'Next') {
				el.click();
				return true;
			}
		}
		return false;
	})()`

	var clicked bool
	if err := s.run(chromedp.Evaluate(nextJS, &clicked)); err != nil {
		return false, eris.Wrap(err, "discover: click next")
	}
	return clicked, nil
}
