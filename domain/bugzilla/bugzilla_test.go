package bugzilla

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusFieldsForVersion(t *testing.T) {
	f := StatusFieldsForVersion(121)
	if f.Target != "cf_status_firefox121" {
		t.Errorf("Target = %q", f.Target)
	}
	if f.Successor != "cf_status_firefox122" {
		t.Errorf("Successor = %q", f.Successor)
	}
}

func TestBugUnmarshal_CapturesStatusFlags(t *testing.T) {
	raw := `{
		"id": 1234,
		"summary": "crash on startup",
		"product": "Firefox",
		"component": "General",
		"creation_time": "2024-01-16T08:30:00Z",
		"severity": "critical",
		"assigned_to": "dev@example.org",
		"assigned_to_detail": {"email": "dev@example.org"},
		"cf_status_firefox121": "affected",
		"cf_status_firefox122": "fixed",
		"cf_other_field": "ignored",
		"history": [
			{
				"when": "2024-02-01T10:00:00Z",
				"who": "triager@example.org",
				"changes": [
					{"field_name": "severity", "removed": "critical", "added": "normal"}
				]
			}
		]
	}`
	var b Bug
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if b.ID != 1234 || b.Severity != "critical" {
		t.Errorf("bug = %+v", b)
	}
	if got := b.StatusFlag("cf_status_firefox121"); got != "affected" {
		t.Errorf("target flag = %q, want %q", got, "affected")
	}
	if got := b.StatusFlag("cf_status_firefox122"); got != "fixed" {
		t.Errorf("successor flag = %q, want %q", got, "fixed")
	}
	if _, ok := b.StatusFlags["cf_other_field"]; ok {
		t.Error("non-status cf field must not be captured")
	}
	if !b.CreationTime.Equal(time.Date(2024, 1, 16, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("creation time = %v", b.CreationTime)
	}
	if len(b.History) != 1 || len(b.History[0].Changes) != 1 {
		t.Fatalf("history = %+v", b.History)
	}
	if b.History[0].Changes[0].Removed != "critical" {
		t.Errorf("change = %+v", b.History[0].Changes[0])
	}
}

func TestBugMarshal_RoundTrip(t *testing.T) {
	orig := Bug{
		ID:           7,
		Summary:      "leak",
		Product:      "Core",
		Component:    "DOM",
		CreationTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Severity:     "major",
		AssignedTo:   "nobody@mozilla.org",
		StatusFlags: map[string]string{
			"cf_status_firefox121": "wontfix",
			"cf_status_firefox122": "verified",
		},
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Bug
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != orig.ID || got.Severity != orig.Severity {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if len(got.StatusFlags) != 2 || got.StatusFlags["cf_status_firefox121"] != "wontfix" {
		t.Errorf("round trip lost status flags: %+v", got.StatusFlags)
	}
}

func TestAssigneeEmail_Fallback(t *testing.T) {
	b := Bug{AssignedTo: "plain@example.org"}
	if got := b.AssigneeEmail(); got != "plain@example.org" {
		t.Errorf("AssigneeEmail = %q", got)
	}
	b.AssignedToDetail = &UserDetail{Email: "detail@example.org"}
	if got := b.AssigneeEmail(); got != "detail@example.org" {
		t.Errorf("AssigneeEmail = %q", got)
	}
}
