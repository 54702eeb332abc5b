package discover

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePager struct {
	pages   [][]RawRow
	current int
	nextErr error
}

func (f *fakePager) Rows(ctx context.Context) ([]RawRow, error) {
	if f.current >= len(f.pages) {
		return nil, nil
	}
	return f.pages[f.current], nil
}

func (f *fakePager) Next(ctx context.Context) (bool, error) {
	if f.nextErr != nil {
		return false, f.nextErr
	}
	f.current++
	return f.current < len(f.pages), nil
}

func testDiscoverer() *Discoverer {
	return New(nil, Config{
		LookbackYears: 5,
		PageDelay:     time.Millisecond,
	})
}

func TestCollect_Pagination(t *testing.T) {
	// Three pages, each with two in-window rows, one out-of-window row and
	// one unparseable row. Expect exactly the six in-window references.
	p := &fakePager{pages: [][]RawRow{
		{
			{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/report1.pdf"},
			{DateText: "30 Jun 2024", Href: "https://cdn.cse.lk/report2.pdf"},
			{DateText: "31 Mar 2001", Href: "https://cdn.cse.lk/old1.pdf"},
			{DateText: "not a date", Href: "https://cdn.cse.lk/bad1.pdf"},
		},
		{
			{DateText: "30 Sep 2023", Href: "https://cdn.cse.lk/report3.pdf"},
			{DateText: "31 Dec 2023", Href: "https://cdn.cse.lk/report4.pdf"},
			{DateText: "15 Jan 2000", Href: "https://cdn.cse.lk/old2.pdf"},
			{DateText: "??", Href: "https://cdn.cse.lk/bad2.pdf"},
		},
		{
			{DateText: "31 Mar 2023", Href: "https://cdn.cse.lk/report5.pdf"},
			{DateText: "30 Jun 2023", Href: "https://cdn.cse.lk/report6.pdf"},
			{DateText: "01 Feb 1999", Href: "https://cdn.cse.lk/old3.pdf"},
			{DateText: "pending", Href: "https://cdn.cse.lk/bad3.pdf"},
		},
	}}

	d := testDiscoverer()
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	refs := d.collect(context.Background(), p, cutoff)
	require.Len(t, refs, 6)
	assert.Equal(t, "https://cdn.cse.lk/report1.pdf", refs[0].PDFURL)
	assert.Equal(t, "https://cdn.cse.lk/report6.pdf", refs[5].PDFURL)
}

func TestCollect_NextErrorStopsGracefully(t *testing.T) {
	p := &fakePager{
		pages: [][]RawRow{
			{{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/report1.pdf"}},
		},
		nextErr: eris.New("stale element"),
	}

	d := testDiscoverer()
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	refs := d.collect(context.Background(), p, cutoff)
	assert.Len(t, refs, 1)
}

// renderDelayedPager keeps serving the previous page's rows until the
// render delay after the last click has elapsed, like a real pagination
// panel that repaints asynchronously.
type renderDelayedPager struct {
	pages       [][]RawRow
	visible     int
	clicked     int
	renderAt    time.Time
	renderDelay time.Duration
}

func (p *renderDelayedPager) Rows(ctx context.Context) ([]RawRow, error) {
	if !time.Now().Before(p.renderAt) {
		p.visible = p.clicked
	}
	return p.pages[p.visible], nil
}

func (p *renderDelayedPager) Next(ctx context.Context) (bool, error) {
	if p.clicked+1 >= len(p.pages) {
		return false, nil
	}
	p.clicked++
	p.renderAt = time.Now().Add(p.renderDelay)
	return true, nil
}

func TestCollect_WaitsForPageToRender(t *testing.T) {
	// The second page renders 20ms after the click. The walk must give it
	// the full inter-page delay before re-querying, or it reads the stale
	// first page and drops the second page's rows entirely.
	p := &renderDelayedPager{
		pages: [][]RawRow{
			{{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/p1.pdf"}},
			{{DateText: "30 Jun 2024", Href: "https://cdn.cse.lk/p2.pdf"}},
		},
		renderDelay: 20 * time.Millisecond,
	}

	d := New(nil, Config{LookbackYears: 5, PageDelay: 80 * time.Millisecond})
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	refs := d.collect(context.Background(), p, cutoff)
	require.Len(t, refs, 2)
	assert.Equal(t, "https://cdn.cse.lk/p1.pdf", refs[0].PDFURL)
	assert.Equal(t, "https://cdn.cse.lk/p2.pdf", refs[1].PDFURL)
}

func TestCollect_DeduplicatesAcrossPages(t *testing.T) {
	// Overlapping pagination must not produce duplicate references.
	dup := RawRow{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/report1.pdf"}
	p := &fakePager{pages: [][]RawRow{
		{dup, {DateText: "30 Jun 2024", Href: "https://cdn.cse.lk/report2.pdf"}},
		{dup},
	}}

	d := testDiscoverer()
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	refs := d.collect(context.Background(), p, cutoff)
	assert.Len(t, refs, 2)
}

func TestAppendInWindow_SkipsNonPDFLinks(t *testing.T) {
	rows := []RawRow{
		{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/report.pdf"},
		{DateText: "31 Mar 2024", Href: "https://cdn.cse.lk/report.html"},
	}
	cutoff := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	refs := appendInWindow(nil, map[string]bool{}, rows, cutoff)
	require.Len(t, refs, 1)
	assert.Equal(t, "https://cdn.cse.lk/report.pdf", refs[0].PDFURL)
}
