package severity

import (
	"fmt"
)

// Severity is a bug severity on the fixed Bugzilla scale, ordered from
// lowest to highest.
type Severity int

const (
	Enhancement Severity = iota
	Trivial
	Minor
	Normal
	Major
	Critical
	Blocker
)

var names = [...]string{
	"enhancement",
	"trivial",
	"minor",
	"normal",
	"major",
	"critical",
	"blocker",
}

// Parse maps a tracker severity string to its Severity. A value outside the
// fixed enumeration is a data integrity problem upstream and is reported as
// an error rather than skipped.
func Parse(s string) (Severity, error) {
	for i, n := range names {
		if n == s {
			return Severity(i), nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(names) {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return names[s]
}

// Group is a coarser, ordered bucketing of severities. Classification
// decisions compare groups, not raw severities.
type Group int

const (
	GroupEnhancement Group = iota
	GroupMinorTrivial
	GroupNormal
	GroupBlockerCriticalMajor
)

var groupNames = [...]string{
	"enhancement",
	"minor+trivial",
	"normal",
	"blocker+critical+major",
}

func (g Group) String() string {
	if g < 0 || int(g) >= len(groupNames) {
		return fmt.Sprintf("group(%d)", int(g))
	}
	return groupNames[g]
}

func (s Severity) Group() Group {
	switch s {
	case Enhancement:
		return GroupEnhancement
	case Trivial, Minor:
		return GroupMinorTrivial
	case Normal:
		return GroupNormal
	default:
		return GroupBlockerCriticalMajor
	}
}

// Groups lists all severity groups in ascending order.
func Groups() []Group {
	return []Group{GroupEnhancement, GroupMinorTrivial, GroupNormal, GroupBlockerCriticalMajor}
}
