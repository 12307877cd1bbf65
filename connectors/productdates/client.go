// Package productdates looks up the release calendar of a product version
// from the product-details JSON service.
package productdates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Client queries the product-details service.
type Client struct {
	c       *http.Client
	baseURL string
}

func New(c *http.Client, baseURL string) *Client {
	if c == nil {
		c = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{c: c, baseURL: baseURL}
}

// ReleaseDates are the four calendar points bounding a version's cycle.
type ReleaseDates struct {
	// NightlyStart is the day the version entered the nightly channel,
	// which is the day its predecessor reached beta.
	NightlyStart time.Time
	// BetaStart is the day of the first beta build, or now if none yet.
	BetaStart time.Time
	// Release is the release day, or now if not released yet.
	Release time.Time
	// SuccessorRelease is the release day of version+1, or now.
	SuccessorRelease time.Time
}

// ProductDates derives the release calendar for a major version from the
// major and development release histories.
func (c *Client) ProductDates(ctx context.Context, version int) (ReleaseDates, error) {
	majors, err := c.history(ctx, "firefox_history_major_releases.json")
	if err != nil {
		return ReleaseDates{}, err
	}
	devs, err := c.history(ctx, "firefox_history_development_releases.json")
	if err != nil {
		return ReleaseDates{}, err
	}

	now := time.Now().UTC()

	nightlyStart, ok := firstBeta(devs, version-1)
	if !ok {
		return ReleaseDates{}, fmt.Errorf("productdates: no beta dates for version %d, cannot derive nightly start of %d", version-1, version)
	}
	betaStart, ok := firstBeta(devs, version)
	if !ok {
		betaStart = now
	}
	release, ok := majors[fmt.Sprintf("%d.0", version)]
	if !ok {
		release = now
	}
	successor, ok := majors[fmt.Sprintf("%d.0", version+1)]
	if !ok {
		successor = now
	}

	return ReleaseDates{
		NightlyStart:     nightlyStart,
		BetaStart:        betaStart,
		Release:          release,
		SuccessorRelease: successor,
	}, nil
}

// firstBeta returns the earliest "N.0bK" date of a version.
func firstBeta(devs map[string]time.Time, version int) (time.Time, bool) {
	prefix := fmt.Sprintf("%d.0b", version)
	var earliest time.Time
	found := false
	for name, date := range devs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if !found || date.Before(earliest) {
			earliest = date
			found = true
		}
	}
	return earliest, found
}

// history fetches one release-history document: a flat map from version
// string to release day.
func (c *Client) history(ctx context.Context, doc string) (map[string]time.Time, error) {
	rawURL := strings.TrimRight(c.baseURL, "/") + "/" + doc
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("productdates: GET %s returned %d: %s", rawURL, resp.StatusCode, string(b))
	}
	var raw map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("productdates: decoding %s: %w", doc, err)
	}
	res := make(map[string]time.Time, len(raw))
	for name, day := range raw {
		t, err := time.ParseInLocation(dateLayout, day, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("productdates: %s: bad date %q for %s: %w", doc, day, name, err)
		}
		res[name] = t
	}
	return res, nil
}
