package severity

import (
	"sort"
	"time"

	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/bugzilla"
)

// Change is one severity transition extracted from a bug's history.
type Change struct {
	When time.Time
	Old  Severity
	New  Severity
}

// ChangesFromHistory extracts the severity transitions from a bug's history
// and returns them sorted by time ascending. The tracker usually delivers
// history in order already, but that is not documented, so order is enforced
// here instead of assumed.
func ChangesFromHistory(history []bugzilla.HistoryEntry) ([]Change, error) {
	var out []Change
	for _, entry := range history {
		for _, c := range entry.Changes {
			if c.FieldName != "severity" {
				continue
			}
			old, err := Parse(c.Removed)
			if err != nil {
				return nil, err
			}
			next, err := Parse(c.Added)
			if err != nil {
				return nil, err
			}
			out = append(out, Change{When: entry.When, Old: old, New: next})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out, nil
}

// ReleaseSeverities are the three severity values derived for a bug relative
// to a release: the highest severity seen strictly before the release, the
// severity in effect at the release instant, and the highest severity seen
// between the release and the successor release.
type ReleaseSeverities struct {
	Before    Severity
	AtRelease Severity
	After     Severity
}

// Reconstruct walks the severity transitions of a bug and derives its
// ReleaseSeverities. current is the severity the bug carries today; release
// and successor bound the post-release observation window.
//
// A change stamped exactly at the release instant counts as pre-release.
// Changes past the successor cutoff are not observed: if the whole history
// lies past the cutoff, the old value of the first such change stands in as
// the severity the bug had all along.
func Reconstruct(current Severity, changes []Change, release, successor time.Time) ReleaseSeverities {
	preRelease := true

	var before, at, after Severity
	haveBefore, haveAt, haveAfter := false, false, false

	lastProcessed := current
	haveLast := false

	for _, ch := range changes {
		if ch.When.After(successor) {
			if !haveLast {
				// Severity the bug had when it entered the window.
				lastProcessed = ch.Old
				haveLast = true
			}
			break
		}

		if preRelease && ch.When.After(release) {
			// First change past the release: its old value is the severity
			// the release shipped with.
			preRelease = false
			at, haveAt = ch.Old, true
			if !haveBefore || ch.Old > before {
				before = ch.Old
			}
			haveBefore = true
			after, haveAfter = ch.New, true
		}

		if preRelease {
			if !haveBefore {
				// Severity the bug got created with.
				before, haveBefore = ch.Old, true
			}
			if ch.New > before {
				before = ch.New
			}
		} else {
			if !haveAfter {
				after, haveAfter = ch.New, true
			} else if ch.New > after {
				after = ch.New
			}
		}
	}

	if preRelease {
		// Never crossed the release boundary: the last known value carries
		// through the release and the whole post-release window.
		if !haveBefore {
			before = lastProcessed
		}
		if !haveAt {
			at = lastProcessed
			after = lastProcessed
		}
	}

	return ReleaseSeverities{Before: before, AtRelease: at, After: after}
}

// Classification is the per-bug verdict derived from its ReleaseSeverities.
type Classification struct {
	Severities ReleaseSeverities

	// LoweredThenRaised marks bugs whose severity group was lowered before
	// the release and raised again afterwards.
	LoweredThenRaised bool
	// RaisedAfterRelease marks bugs whose severity group after the release
	// exceeds the group it shipped with. LoweredThenRaised implies it.
	RaisedAfterRelease bool

	// HighestGroup is the worst severity group the bug is known to have
	// reached on either side of the release; weekly counts bucket under it.
	HighestGroup Group
}

func Classify(s ReleaseSeverities) Classification {
	groupBefore := s.Before.Group()
	groupAt := s.AtRelease.Group()
	groupAfter := s.After.Group()

	highest := groupBefore
	if groupAfter > highest {
		highest = groupAfter
	}

	return Classification{
		Severities:         s,
		LoweredThenRaised:  groupBefore > groupAt && groupAfter > groupAt,
		RaisedAfterRelease: groupAfter > groupAt,
		HighestGroup:       highest,
	}
}
