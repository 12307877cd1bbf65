package productdates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const (
	majorsDoc = `{
		"120.0": "2023-11-21",
		"121.0": "2023-12-19",
		"122.0": "2024-01-23"
	}`
	devsDoc = `{
		"120.0b1": "2023-10-02",
		"120.0b2": "2023-10-03",
		"121.0b2": "2023-10-31",
		"121.0b1": "2023-10-30",
		"122.0b1": "2023-12-20"
	}`
)

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/firefox_history_major_releases.json":
			fmt.Fprint(w, majorsDoc)
		case "/firefox_history_development_releases.json":
			fmt.Fprint(w, devsDoc)
		default:
			http.NotFound(w, r)
		}
	}))
}

func utcDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProductDates(t *testing.T) {
	srv := newFixtureServer(t)
	defer srv.Close()

	dates, err := New(nil, srv.URL).ProductDates(context.Background(), 121)
	if err != nil {
		t.Fatalf("ProductDates: %v", err)
	}
	// 121 entered nightly when 120 reached beta.
	if !dates.NightlyStart.Equal(utcDay(2023, 10, 2)) {
		t.Errorf("NightlyStart = %v", dates.NightlyStart)
	}
	// Earliest 121.0b* build, despite map order.
	if !dates.BetaStart.Equal(utcDay(2023, 10, 30)) {
		t.Errorf("BetaStart = %v", dates.BetaStart)
	}
	if !dates.Release.Equal(utcDay(2023, 12, 19)) {
		t.Errorf("Release = %v", dates.Release)
	}
	if !dates.SuccessorRelease.Equal(utcDay(2024, 1, 23)) {
		t.Errorf("SuccessorRelease = %v", dates.SuccessorRelease)
	}
}

func TestProductDates_UnreleasedFallsBackToNow(t *testing.T) {
	srv := newFixtureServer(t)
	defer srv.Close()

	before := time.Now().UTC()
	dates, err := New(nil, srv.URL).ProductDates(context.Background(), 122)
	if err != nil {
		t.Fatalf("ProductDates: %v", err)
	}
	// 123 has no release date yet; successor falls back to now.
	if dates.SuccessorRelease.Before(before) {
		t.Errorf("SuccessorRelease = %v, expected now or later", dates.SuccessorRelease)
	}
	if !dates.Release.Equal(utcDay(2024, 1, 23)) {
		t.Errorf("Release = %v", dates.Release)
	}
}

func TestProductDates_MissingNightlyAncestry(t *testing.T) {
	srv := newFixtureServer(t)
	defer srv.Close()

	// No 119.0b* entries exist, so the nightly start of 120 is unknown.
	if _, err := New(nil, srv.URL).ProductDates(context.Background(), 120); err == nil {
		t.Fatal("expected error for missing beta history of the predecessor")
	}
}

func TestProductDates_BadDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"121.0": "21/11/2023"}`)
	}))
	defer srv.Close()

	if _, err := New(nil, srv.URL).ProductDates(context.Background(), 121); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
