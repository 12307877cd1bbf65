package report

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/bugzilla"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/severity"
)

// FlaggedBug is one row of the flagged-bug sections of the report.
type FlaggedBug struct {
	ID              int
	Product         string
	StatusTarget    string
	StatusSuccessor string
	Component       string
	Assignee        string
	Summary         string
}

// Aggregator accumulates the weekly open-bug counts and the flagged-bug
// lists over all fetched bug records. Sub-window fetches run concurrently
// and all feed the same Aggregator, so mutation is serialized with a mutex;
// which sub-window a bug arrived from must not affect the result.
type Aggregator struct {
	release   time.Time
	successor time.Time
	fields    bugzilla.StatusFields

	mu                 sync.Mutex
	firstBeta          string
	weeks              []string
	opened             map[severity.Group]map[string]int
	loweredThenRaised  []FlaggedBug
	raisedAfterRelease []FlaggedBug
}

// NewAggregator prepares an Aggregator for one report run. nightlyStart and
// release bound the weekly table; release and successor bound the severity
// reconstruction; betaStart only provides the first-beta label.
func NewAggregator(nightlyStart, betaStart, release, successor time.Time, fields bugzilla.StatusFields) *Aggregator {
	weeks := Weeks(nightlyStart, release)
	opened := make(map[severity.Group]map[string]int, len(severity.Groups()))
	for _, g := range severity.Groups() {
		opened[g] = lo.SliceToMap(weeks, func(w string) (string, int) { return w, 0 })
	}
	return &Aggregator{
		release:   release,
		successor: successor,
		fields:    fields,
		firstBeta: WeekKey(betaStart),
		weeks:     weeks,
		opened:    opened,
	}
}

// Add processes one bug record: reconstructs its release severities,
// classifies it, counts it under its creation week, and records it in the
// flagged lists when a flag applies. A malformed severity value anywhere in
// the record aborts with an error.
func (a *Aggregator) Add(bug *bugzilla.Bug) error {
	current, err := severity.Parse(bug.Severity)
	if err != nil {
		return err
	}
	changes, err := severity.ChangesFromHistory(bug.History)
	if err != nil {
		return err
	}
	cls := severity.Classify(severity.Reconstruct(current, changes, a.release, a.successor))

	row := FlaggedBug{
		ID:              bug.ID,
		Product:         bug.Product,
		StatusTarget:    bug.StatusFlag(a.fields.Target),
		StatusSuccessor: bug.StatusFlag(a.fields.Successor),
		Component:       bug.Component,
		Assignee:        bug.AssigneeEmail(),
		Summary:         bug.Summary,
	}

	week := WeekKey(bug.CreationTime)

	a.mu.Lock()
	defer a.mu.Unlock()
	if cls.LoweredThenRaised {
		a.loweredThenRaised = append(a.loweredThenRaised, row)
	}
	if cls.RaisedAfterRelease {
		a.raisedAfterRelease = append(a.raisedAfterRelease, row)
	}
	a.opened[cls.HighestGroup][week]++
	return nil
}

// Report is an immutable snapshot of an Aggregator for rendering.
type Report struct {
	FirstBeta          string
	Weeks              []string
	Opened             map[severity.Group]map[string]int
	LoweredThenRaised  []FlaggedBug
	RaisedAfterRelease []FlaggedBug
}

// Snapshot copies the accumulated state with deterministic ordering: weeks
// ascending, flagged bugs by bug ID.
func (a *Aggregator) Snapshot() Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	opened := make(map[severity.Group]map[string]int, len(a.opened))
	for g, byWeek := range a.opened {
		cp := make(map[string]int, len(byWeek))
		for w, n := range byWeek {
			cp[w] = n
		}
		opened[g] = cp
	}

	lowered := byID(a.loweredThenRaised)
	raised := byID(a.raisedAfterRelease)

	weeks := append([]string(nil), a.weeks...)
	sort.Strings(weeks)

	return Report{
		FirstBeta:          a.firstBeta,
		Weeks:              weeks,
		Opened:             opened,
		LoweredThenRaised:  lowered,
		RaisedAfterRelease: raised,
	}
}

func byID(rows []FlaggedBug) []FlaggedBug {
	cp := append([]FlaggedBug(nil), rows...)
	sort.Slice(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })
	return cp
}

// Counts returns the weekly numbers of one severity group in week order.
func (r Report) Counts(g severity.Group) []int {
	return lo.Map(r.Weeks, func(w string, _ int) int { return r.Opened[g][w] })
}
