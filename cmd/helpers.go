package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/lankadata/csepipe/internal/docstore"
	"github.com/lankadata/csepipe/internal/ledger"
)

// initStore opens the document store from config.
func initStore() (*docstore.Store, error) {
	store, err := docstore.New(cfg.Store.RawDir, cfg.Store.ProcessedDir)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	return store, nil
}

// initLedger opens and migrates the run ledger from config.
func initLedger(ctx context.Context) (*ledger.Ledger, error) {
	dir := filepath.Dir(cfg.Store.LedgerPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "create ledger dir %s", dir)
		}
	}
	l, err := ledger.Open(cfg.Store.LedgerPath)
	if err != nil {
		return nil, err
	}
	if err := l.Migrate(ctx); err != nil {
		l.Close() //nolint:errcheck
		return nil, err
	}
	return l, nil
}

// companyFromPDF reads the company code off a finalized PDF filename
// (DIPD_2024_03_31.pdf -> DIPD).
func companyFromPDF(pdfPath string) string {
	base := filepath.Base(pdfPath)
	if idx := strings.Index(base, "_"); idx > 0 {
		return base[:idx]
	}
	return base
}
