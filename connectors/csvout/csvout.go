package csvout

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/samber/lo"

	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/report"
	"github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/severity"
)

// reportGroups are the severity-group rows of the weekly table, ordered
// high to low. Enhancements are counted but not reported.
var reportGroups = []severity.Group{
	severity.GroupBlockerCriticalMajor,
	severity.GroupNormal,
	severity.GroupMinorTrivial,
}

// DefaultPath is the version-derived report location under the data
// directory.
func DefaultPath(dataDir string, version int) string {
	return filepath.Join(dataDir, fmt.Sprintf("bugs_count_%d.csv", version))
}

// WriteReport renders the report to a CSV file: the first-beta week, the
// weekly open-bug table, and the two flagged-bug sections, separated by two
// blank rows each.
func WriteReport(path string, version int, r report.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"First beta", r.FirstBeta}); err != nil {
		return err
	}

	if err := sectionBreak(w); err != nil {
		return err
	}
	if err := w.Write([]string{"Opened bugs by week"}); err != nil {
		return err
	}
	if err := w.Write(append([]string{"Severity"}, r.Weeks...)); err != nil {
		return err
	}
	for _, g := range reportGroups {
		row := append([]string{g.String()}, lo.Map(r.Counts(g), func(n int, _ int) string { return strconv.Itoa(n) })...)
		if err := w.Write(row); err != nil {
			return err
		}
	}

	if err := flaggedSection(w, "Bugs with severity significantly lowered before release and increased afterwards", version, r.LoweredThenRaised); err != nil {
		return err
	}
	if err := flaggedSection(w, "Bugs with severity significantly increased after release", version, r.RaisedAfterRelease); err != nil {
		return err
	}
	return w.Error()
}

func flaggedSection(w *csv.Writer, title string, version int, rows []report.FlaggedBug) error {
	if err := sectionBreak(w); err != nil {
		return err
	}
	if err := w.Write([]string{title}); err != nil {
		return err
	}
	head := []string{
		"Bug ID",
		"Product",
		fmt.Sprintf("Status Version %d", version),
		fmt.Sprintf("Status Version %d", version+1),
		"Component",
		"Assignee",
		"Summary",
	}
	if err := w.Write(head); err != nil {
		return err
	}
	for _, b := range rows {
		row := []string{
			strconv.Itoa(b.ID),
			b.Product,
			b.StatusTarget,
			b.StatusSuccessor,
			b.Component,
			b.Assignee,
			b.Summary,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// sectionBreak writes the two empty rows between report sections.
func sectionBreak(w *csv.Writer) error {
	for i := 0; i < 2; i++ {
		if err := w.Write([]string{""}); err != nil {
			return err
		}
	}
	return nil
}
