package pdfdoc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePDF writes a minimal but well-formed PDF with n empty pages.
func writePDF(t *testing.T, path string, n int) {
	t.Helper()

	var body strings.Builder
	offsets := make([]int, 0, n+3)

	addObj := func(s string) {
		offsets = append(offsets, body.Len())
		body.WriteString(s)
	}

	body.WriteString("%PDF-1.4\n")

	kids := make([]string, n)
	for i := range n {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), n))
	for i := range n {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>\nendobj\n", i+3))
	}

	xrefOffset := body.Len()
	fmt.Fprintf(&body, "xref\n0 %d\n", len(offsets)+1)
	body.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&body, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&body, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	require.NoError(t, os.WriteFile(path, []byte(body.String()), 0o644))
}

func TestSlice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "full.pdf")
	dst := filepath.Join(dir, "page.pdf")
	writePDF(t, src, 5)

	require.NoError(t, Slice(src, dst, 3))

	count, err := api.PageCountFile(dst)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSlice_PageNotFound(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "short.pdf")
	dst := filepath.Join(dir, "page.pdf")
	writePDF(t, src, 2)

	err := Slice(src, dst, 4)
	require.ErrorIs(t, err, ErrPageNotFound)

	// No partial output may leak.
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSlice_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := Slice(filepath.Join(dir, "nope.pdf"), filepath.Join(dir, "out.pdf"), 1)
	assert.Error(t, err)
}
