package report

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	cbz "github.com/Archaeopteryx/BugsByCycleWeekSeverity/connectors/bugzilla"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/connectors/cache"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/connectors/config"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/connectors/csvout"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/connectors/productdates"
	bz "github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/bugzilla"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/report"
)

const (
	phaseNightly = "nightly"
	phaseBeta    = "beta"

	// Date windows are sliced into 30-day sub-windows to bound individual
	// query result sizes. Slicing must not affect the aggregate output.
	subWindowDays = 30

	tsLayout = "2006-01-02T15:04:05Z"
)

// betaStatusValues are the tracking-flag states a bug must have reached for
// the target version to count during the beta phase.
const betaStatusValues = "affected, fix-optional, fixed, wontfix, verified, disabled"

// pathFlag is a flag that may appear bare (version-derived default path) or
// with an explicit path value.
type pathFlag struct {
	set  bool
	path string
}

func (p *pathFlag) String() string { return p.path }

func (p *pathFlag) Set(v string) error {
	p.set = true
	if v != "true" {
		p.path = v
	}
	return nil
}

func (p *pathFlag) IsBoolFlag() bool { return true }

func (p *pathFlag) resolve(dataDir string, version int) string {
	if p.path != "" {
		return p.path
	}
	return cache.DefaultPath(dataDir, version)
}

// Run executes the report subcommand: expects one positional product
// version plus the optional bzdata flags.
func Run(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var load, save pathFlag
	fs.Var(&load, "bzdata-load", "Load the Bugzilla data from a local JSON file instead of fetching. Bare flag uses bugzilla_data_<version>.json in the data folder.")
	fs.Var(&save, "bzdata-save", "Save the fetched Bugzilla data to a local JSON file. Bare flag uses bugzilla_data_<version>.json in the data folder.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	// flag stops at the first positional, but the bzdata flags are allowed
	// after the version argument too, so the remainder is parsed again.
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("report: exactly one product version argument expected")
	}
	if err := fs.Parse(rest[1:]); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return fmt.Errorf("report: exactly one product version argument expected")
	}
	version, err := strconv.Atoi(rest[0])
	if err != nil {
		return fmt.Errorf("report: product version must be an integer: %w", err)
	}

	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	fields := bz.StatusFieldsForVersion(version)

	ctx := context.Background()
	slog.Info("report.start", "version", version, "load", load.set, "save", save.set)

	dates, err := productdates.New(nil, cfg.ProductDetails.URL).ProductDates(ctx, version)
	if err != nil {
		slog.Error("report.dates.error", "version", version, "error", err)
		return err
	}
	slog.Info("report.dates",
		"nightlyStart", dates.NightlyStart.Format(tsLayout),
		"betaStart", dates.BetaStart.Format(tsLayout),
		"release", dates.Release.Format(tsLayout),
		"successorRelease", dates.SuccessorRelease.Format(tsLayout))

	agg := report.NewAggregator(dates.NightlyStart, dates.BetaStart, dates.Release, dates.SuccessorRelease, fields)

	var saveDoc *cache.Document
	if save.set {
		saveDoc = cache.NewDocument()
	}

	if load.set {
		path := load.resolve(cfg.DataDir, version)
		doc, err := cache.Load(path)
		if err != nil {
			return err
		}
		for _, ph := range doc.Phases() {
			for _, b := range doc.Bugs(ph) {
				b := b
				// A combined load+save run rewrites the cache at the end, so
				// every replayed record must be carried over or it is lost.
				if saveDoc != nil {
					saveDoc.Add(ph, b)
				}
				if err := agg.Add(&b); err != nil {
					return fmt.Errorf("bug %d: %w", b.ID, err)
				}
			}
		}
		slog.Info("report.bzdata.loaded", "path", path)
	} else {
		client := newTrackerClient(ctx, cfg)
		if err := fetchAll(ctx, client, cfg, fields, dates, agg, saveDoc); err != nil {
			return err
		}
	}

	outPath := csvout.DefaultPath(cfg.DataDir, version)
	if err := csvout.WriteReport(outPath, version, agg.Snapshot()); err != nil {
		slog.Error("report.csv.write.error", "error", err)
		return err
	}
	slog.Info("report.done", "output", outPath)

	if saveDoc != nil {
		path := save.resolve(cfg.DataDir, version)
		if err := saveDoc.Save(path); err != nil {
			return err
		}
		slog.Info("report.bzdata.saved", "path", path)
	}
	return nil
}

func newTrackerClient(ctx context.Context, cfg *config.Config) *cbz.Client {
	if cfg.Bugzilla.OAuth.ClientID != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.Bugzilla.OAuth.ClientID,
			ClientSecret: cfg.Bugzilla.OAuth.ClientSecret,
			TokenURL:     cfg.Bugzilla.OAuth.TokenURL,
		}
		return cbz.NewWithClientCredentials(ctx, cfg.Bugzilla.URL, creds, cfg.FetchTimeout())
	}
	return cbz.New(&http.Client{Timeout: cfg.FetchTimeout()}, cfg.Bugzilla.URL, cfg.Bugzilla.APIKey)
}

type phase struct {
	name       string
	start, end time.Time
	extra      []cbz.Condition
}

type subQuery struct {
	phase      string
	start, end time.Time
	extra      []cbz.Condition
}

// fetchAll issues one search per 30-day sub-window of each phase, all
// concurrently, and funnels every record through the shared aggregator.
// Any sub-window failure aborts the report; partial reports are not a
// supported mode.
func fetchAll(ctx context.Context, client *cbz.Client, cfg *config.Config, fields bz.StatusFields, dates productdates.ReleaseDates, agg *report.Aggregator, saveDoc *cache.Document) error {
	includeFields := []string{
		"id",
		"summary",
		"product",
		"component",
		"creation_time",
		"severity",
		"assigned_to",
		fields.Target,
		fields.Successor,
		"history",
	}

	phases := []phase{
		{name: phaseNightly, start: dates.NightlyStart, end: dates.BetaStart},
		{name: phaseBeta, start: dates.BetaStart, end: dates.Release, extra: []cbz.Condition{
			{Field: fields.Target, Operator: "anyexact", Value: betaStatusValues},
		}},
	}

	var queries []subQuery
	for _, ph := range phases {
		for qs := ph.start; qs.Before(ph.end); qs = qs.AddDate(0, 0, subWindowDays) {
			qe := qs.AddDate(0, 0, subWindowDays)
			if qe.After(ph.end) {
				qe = ph.end
			}
			queries = append(queries, subQuery{phase: ph.name, start: qs, end: qe, extra: ph.extra})
		}
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(queries))
	for _, q := range queries {
		wg.Add(1)
		go func(q subQuery) {
			defer wg.Done()
			slog.Info("phase.bugs.fetch.start", "phase", q.phase, "from", q.start.Format(tsLayout), "to", q.end.Format(tsLayout))
			params := cbz.SearchParams{
				Fields:   includeFields,
				Products: cfg.Products,
				Conditions: append([]cbz.Condition{
					{Field: "creation_ts", Operator: "greaterthaneq", Value: q.start.UTC().Format(tsLayout)},
					{Field: "creation_ts", Operator: "lessthan", Value: q.end.UTC().Format(tsLayout)},
					{Field: "bug_severity", Operator: "notequals", Value: "enhancement"},
					{Field: "keywords", Operator: "notsubstring", Value: "meta"},
				}, q.extra...),
			}
			bugs, err := client.SearchBugs(ctx, params)
			if err != nil {
				slog.Error("phase.bugs.fetch.error", "phase", q.phase, "error", err)
				errCh <- err
				return
			}
			slog.Info("phase.bugs.fetch.done", "phase", q.phase, "count", len(bugs))
			for i := range bugs {
				if saveDoc != nil {
					saveDoc.Add(q.phase, bugs[i])
				}
				if err := agg.Add(&bugs[i]); err != nil {
					errCh <- fmt.Errorf("bug %d: %w", bugs[i].ID, err)
					return
				}
			}
		}(q)
	}
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}
