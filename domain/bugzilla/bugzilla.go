package bugzilla

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// statusFlagPrefix is the naming scheme Bugzilla uses for the per-version
// tracking flags ("cf_status_firefox102" etc.). Records carry one such field
// per version the bug is tracked against, so they are captured generically.
const statusFlagPrefix = "cf_status_firefox"

// Bug represents a Bugzilla bug record (only the fields used by the report)
type Bug struct {
	ID               int            `json:"id"`
	Summary          string         `json:"summary"`
	Product          string         `json:"product"`
	Component        string         `json:"component"`
	CreationTime     time.Time      `json:"creation_time"`
	Severity         string         `json:"severity"`
	AssignedTo       string         `json:"assigned_to"`
	AssignedToDetail *UserDetail    `json:"assigned_to_detail,omitempty"`
	History          []HistoryEntry `json:"history,omitempty"`

	// StatusFlags holds the cf_status_firefox* fields keyed by field name.
	// They are flattened into the record on the wire, see UnmarshalJSON.
	StatusFlags map[string]string `json:"-"`
}

type UserDetail struct {
	Email    string `json:"email"`
	RealName string `json:"real_name,omitempty"`
}

// HistoryEntry is one entry of a bug's field-change history
type HistoryEntry struct {
	When    time.Time `json:"when"`
	Who     string    `json:"who,omitempty"`
	Changes []Change  `json:"changes"`
}

type Change struct {
	FieldName string `json:"field_name"`
	Removed   string `json:"removed"`
	Added     string `json:"added"`
}

// StatusFields holds the two resolved tracking-flag field names for a report
// run. Resolving them once up front keeps dynamic field names out of the
// processing path.
type StatusFields struct {
	Version   int
	Target    string
	Successor string
}

func StatusFieldsForVersion(version int) StatusFields {
	return StatusFields{
		Version:   version,
		Target:    fmt.Sprintf("%s%d", statusFlagPrefix, version),
		Successor: fmt.Sprintf("%s%d", statusFlagPrefix, version+1),
	}
}

// AssigneeEmail returns the assignee email, falling back to the plain
// assigned_to value when the detail object is absent.
func (b *Bug) AssigneeEmail() string {
	if b.AssignedToDetail != nil && b.AssignedToDetail.Email != "" {
		return b.AssignedToDetail.Email
	}
	return b.AssignedTo
}

// StatusFlag returns the value of a tracking flag field, or "" when the
// tracker did not include it.
func (b *Bug) StatusFlag(field string) string {
	return b.StatusFlags[field]
}

func (b *Bug) UnmarshalJSON(data []byte) error {
	type alias Bug
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if !strings.HasPrefix(k, statusFlagPrefix) {
			continue
		}
		var val string
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("bug %d: field %s: %w", a.ID, k, err)
		}
		if a.StatusFlags == nil {
			a.StatusFlags = map[string]string{}
		}
		a.StatusFlags[k] = val
	}
	*b = Bug(a)
	return nil
}

func (b Bug) MarshalJSON() ([]byte, error) {
	type alias Bug
	data, err := json.Marshal(alias(b))
	if err != nil {
		return nil, err
	}
	if len(b.StatusFlags) == 0 {
		return data, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for k, v := range b.StatusFlags {
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw[k] = enc
	}
	return json.Marshal(raw)
}
