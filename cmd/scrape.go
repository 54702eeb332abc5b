package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lankadata/csepipe/internal/acquire"
	"github.com/lankadata/csepipe/internal/discover"
	"github.com/lankadata/csepipe/internal/fetcher"
	"github.com/lankadata/csepipe/internal/ledger"
	"github.com/lankadata/csepipe/internal/model"
)

var (
	scrapeCompany    string
	scrapeLookback   int
	scrapeNoHeadless bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Discover and download quarterly report PDFs",
	Long:  "Walks each tracked company's profile on the exchange, downloads every in-window quarterly report PDF, infers its reporting date, and finalizes the single statement page in the raw store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := initStore()
		if err != nil {
			return err
		}

		led, err := initLedger(ctx)
		if err != nil {
			return err
		}
		defer led.Close() //nolint:errcheck

		runID, err := led.StartRun(ctx, "scrape")
		if err != nil {
			return err
		}

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Scrape.UserAgent,
			MaxRetries: cfg.Scrape.DownloadRetries,
		})
		orch := acquire.New(f, store)

		lookback := scrapeLookback
		if lookback == 0 {
			lookback = cfg.Scrape.LookbackYears
		}
		discoverCfg := discover.Config{
			BaseURL:       cfg.Scrape.BaseURL,
			LookbackYears: lookback,
			PageDelay:     time.Duration(cfg.Scrape.PageDelaySecs) * time.Second,
		}

		var totalOK, totalFailed int
		for _, company := range selectCompanies(cfg.Companies, scrapeCompany) {
			res := scrapeOne(ctx, runID, company, discoverCfg, orch, led)
			totalOK += res.Succeeded
			totalFailed += res.Failed
		}

		if err := led.CompleteRun(ctx, runID); err != nil {
			zap.L().Warn("failed to mark run complete", zap.Error(err))
		}

		fmt.Fprintf(os.Stdout, "Run %s: %d reports finalized, %d failed\n", runID, totalOK, totalFailed)
		return nil
	},
}

// scrapeOne runs discovery and acquisition for one company in its own
// browser session. A broken session fails the company, not the run.
func scrapeOne(ctx context.Context, runID string, company acquire.Company, dcfg discover.Config, orch *acquire.Orchestrator, led *ledger.Ledger) acquire.Result {
	log := zap.L().With(zap.String("company", company.Code))
	log.Info("scraping company", zap.String("symbol", company.Symbol))

	refs, err := discoverCompany(ctx, company, dcfg)
	if err != nil {
		log.Error("discovery failed", zap.Error(err))
		item := ledger.Item{
			Company:   company.Code,
			Stage:     "discover",
			Reference: company.Symbol,
			Status:    ledger.StatusFailed,
			Error:     err.Error(),
		}
		if recErr := led.RecordItem(ctx, runID, item); recErr != nil {
			log.Warn("failed to record run item", zap.Error(recErr))
		}
		return acquire.Result{Failed: 1}
	}
	if len(refs) == 0 {
		return acquire.Result{}
	}

	return orch.AcquireReports(ctx, runID, company, refs, led)
}

// discoverCompany scopes the browser session so it is torn down before the
// downloads start.
func discoverCompany(ctx context.Context, company acquire.Company, dcfg discover.Config) ([]model.ReportReference, error) {
	headless := cfg.Scrape.Headless && !scrapeNoHeadless
	session, err := discover.NewSession(ctx, headless, time.Duration(cfg.Scrape.WaitTimeoutSecs)*time.Second)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return discover.New(session, dcfg).Discover(ctx, company.Symbol)
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeCompany, "company", "", "scrape a single company by code (e.g. DIPD)")
	scrapeCmd.Flags().IntVar(&scrapeLookback, "lookback-years", 0, "lookback window in years (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeNoHeadless, "no-headless", false, "show the browser window")
	rootCmd.AddCommand(scrapeCmd)
}

// selectCompanies filters the tracked set by code when one is requested.
func selectCompanies(companies []acquire.Company, code string) []acquire.Company {
	if code == "" {
		return companies
	}
	for _, c := range companies {
		if strings.EqualFold(c.Code, code) {
			return []acquire.Company{c}
		}
	}
	zap.L().Warn("unknown company code", zap.String("code", code))
	return nil
}
