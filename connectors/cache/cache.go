// Package cache persists fetched bug records so a report can be re-run
// without hitting the tracker. The file layout mirrors how bugs were
// fetched: "opened" -> phase name -> list of raw records.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	bz "github.com/Archaeopteryx/BugsByCycleWeekSeverity/domain/bugzilla"
)

// Document is the on-disk cache structure.
type Document struct {
	mu     sync.Mutex
	Opened map[string]*PhaseRecords `json:"opened"`
}

type PhaseRecords struct {
	Data []bz.Bug `json:"data"`
}

func NewDocument() *Document {
	return &Document{Opened: map[string]*PhaseRecords{}}
}

// DefaultPath is the version-derived cache location under the data
// directory.
func DefaultPath(dataDir string, version int) string {
	return filepath.Join(dataDir, fmt.Sprintf("bugzilla_data_%d.json", version))
}

// Add records one fetched bug under its phase. Safe for concurrent use;
// fetches for different date sub-windows run in parallel.
func (d *Document) Add(phase string, bug bz.Bug) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.Opened[phase]
	if rec == nil {
		rec = &PhaseRecords{}
		d.Opened[phase] = rec
	}
	rec.Data = append(rec.Data, bug)
}

// Phases returns the phase names present in the document.
func (d *Document) Phases() []string {
	res := make([]string, 0, len(d.Opened))
	for name := range d.Opened {
		res = append(res, name)
	}
	return res
}

// Bugs returns the records of one phase.
func (d *Document) Bugs(phase string) []bz.Bug {
	if rec := d.Opened[phase]; rec != nil {
		return rec.Data
	}
	return nil
}

// Load reads a cache document. A missing or malformed file is an error:
// loading is an explicit user request and silently falling back to a live
// fetch would surprise.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading bugzilla data: %w", err)
	}
	var d Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("loading bugzilla data from %s: %w", path, err)
	}
	if d.Opened == nil {
		d.Opened = map[string]*PhaseRecords{}
	}
	return &d, nil
}

// Save writes the document, creating the parent directory when needed.
func (d *Document) Save(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("saving bugzilla data to %s: %w", path, err)
	}
	return nil
}
