package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lankadata/csepipe/internal/docstore"
	"github.com/lankadata/csepipe/internal/extract"
	"github.com/lankadata/csepipe/internal/ledger"
	"github.com/lankadata/csepipe/pkg/anthropic"
)

var (
	extractFile        string
	extractForce       bool
	extractConcurrency int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract financial metrics from finalized PDFs",
	Long:  "Sends each finalized single-page PDF to Claude, parses the structured metrics, corrects quarter and year from the filename, and writes the canonical JSON record.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic key not configured (set CSEPIPE_ANTHROPIC_KEY)")
		}

		store, err := initStore()
		if err != nil {
			return err
		}

		led, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer led.Close() //nolint:errcheck

		runID, err := led.StartRun(ctx, "extract")
		if err != nil {
			return err
		}

		ext := extract.New(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)

		pdfs, err := selectPDFs(store)
		if err != nil {
			return err
		}
		if len(pdfs) == 0 {
			fmt.Fprintln(os.Stderr, "Nothing to extract.")
			return led.CompleteRun(ctx, runID)
		}

		var (
			mu        sync.Mutex
			succeeded int
			failed    int
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(extractConcurrency)
		for _, pdfPath := range pdfs {
			g.Go(func() error {
				item := extractOne(gctx, ext, store, pdfPath)
				mu.Lock()
				if item.Status == ledger.StatusOK {
					succeeded++
				} else {
					failed++
				}
				mu.Unlock()
				if err := led.RecordItem(gctx, runID, item); err != nil {
					zap.L().Warn("failed to record run item", zap.Error(err))
				}
				// Per-document isolation: a failed extraction never cancels
				// the batch.
				return nil
			})
		}
		_ = g.Wait()

		if err := led.CompleteRun(ctx, runID); err != nil {
			zap.L().Warn("failed to mark run complete", zap.Error(err))
		}

		fmt.Fprintf(os.Stdout, "Run %s: %d documents extracted, %d failed\n", runID, succeeded, failed)
		return nil
	},
}

// extractOne processes one finalized PDF into its canonical record and
// reports the outcome as a ledger item.
func extractOne(ctx context.Context, ext *extract.Extractor, store *docstore.Store, pdfPath string) ledger.Item {
	item := ledger.Item{
		Company:   companyFromPDF(pdfPath),
		Stage:     "extract",
		Reference: pdfPath,
		Status:    ledger.StatusOK,
	}

	report, raw, err := ext.ExtractFile(ctx, pdfPath)
	if err != nil {
		item.Status = ledger.StatusFailed
		item.Error = err.Error()
		// Unparseable model output is kept verbatim for offline recovery.
		if eris.Is(err, extract.ErrInvalidExtraction) {
			item.RawPayload = raw
		}
		zap.L().Error("extraction failed", zap.String("pdf", pdfPath), zap.Error(err))
		return item
	}

	jsonPath := store.JSONPathFor(pdfPath)
	if err := store.WriteReport(jsonPath, report); err != nil {
		item.Status = ledger.StatusFailed
		item.Error = err.Error()
		zap.L().Error("failed to persist record", zap.String("path", jsonPath), zap.Error(err))
		return item
	}

	zap.L().Info("record written",
		zap.String("path", jsonPath),
		zap.String("quarter", report.Quarter),
		zap.String("year", report.Year))
	return item
}

// selectPDFs resolves the extraction work list: a single file when --file is
// given, otherwise every finalized PDF without a canonical record (or all of
// them with --force).
func selectPDFs(store *docstore.Store) ([]string, error) {
	if extractFile != "" {
		if _, err := os.Stat(extractFile); err != nil {
			return nil, eris.Wrapf(err, "extract: stat %s", extractFile)
		}
		return []string{extractFile}, nil
	}

	pdfs, err := store.ListPDFs()
	if err != nil {
		return nil, err
	}
	if extractForce {
		return pdfs, nil
	}

	var pending []string
	for _, p := range pdfs {
		if _, err := os.Stat(store.JSONPathFor(p)); os.IsNotExist(err) {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

func init() {
	extractCmd.Flags().StringVar(&extractFile, "file", "", "extract a single PDF instead of scanning the store")
	extractCmd.Flags().BoolVar(&extractForce, "force", false, "re-extract documents that already have a canonical record")
	extractCmd.Flags().IntVar(&extractConcurrency, "concurrency", 1, "number of documents extracted in parallel")
	rootCmd.AddCommand(extractCmd)
}
