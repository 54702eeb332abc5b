// Package pdfdoc wraps the PDF operations the pipeline needs: slicing one
// page out of a multi-page filing and extracting plain text for date
// inference and LLM extraction.
package pdfdoc

import (
	"bytes"
	"os"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rotisserie/eris"
)

// ErrPageNotFound is returned when the source PDF has fewer pages than the
// requested page. The caller must discard the partial download; no finalized
// document is produced.
var ErrPageNotFound = eris.New("pdfdoc: page not found")

// Slice writes a new PDF at dst containing only the given page (1-based) of
// src. CSE filings have a fixed layout per company, so the group income
// statement sits at a known page.
func Slice(src, dst string, page int) error {
	count, err := api.PageCountFile(src)
	if err != nil {
		return eris.Wrapf(err, "pdfdoc: page count %s", src)
	}
	if count < page {
		return eris.Wrapf(ErrPageNotFound, "pdfdoc: %s has %d pages, need page %d", src, count, page)
	}

	if err := api.TrimFile(src, dst, []string{strconv.Itoa(page)}, nil); err != nil {
		// A half-written output must not leak into the store.
		_ = os.Remove(dst)
		return eris.Wrapf(err, "pdfdoc: trim %s to page %d", src, page)
	}
	return nil
}

// Text extracts plain text from up to maxPages pages of the PDF at path.
// maxPages <= 0 extracts every page.
func Text(path string, maxPages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "pdfdoc: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	pages := r.NumPage()
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	return buf.String(), nil
}
