package erp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// =============================================================================
// Issue enums
// =============================================================================

// IssueCategory classifies the cause of a project issue.
type IssueCategory string

// Issue categories.
const (
	IssueTechnical   IssueCategory = "technical"
	IssueResource    IssueCategory = "resource"
	IssueScope       IssueCategory = "scope"
	IssueSchedule    IssueCategory = "schedule"
	IssueQuality     IssueCategory = "quality"
	IssueStakeholder IssueCategory = "stakeholder"
	IssueRisk        IssueCategory = "risk"
	IssueOther       IssueCategory = "other"
)

// IssueCategories lists every issue category.
func IssueCategories() []IssueCategory {
	return []IssueCategory{
		IssueTechnical, IssueResource, IssueScope, IssueSchedule,
		IssueQuality, IssueStakeholder, IssueRisk, IssueOther,
	}
}

// Severity is the impact of an issue, most severe first.
type Severity string

// Severities.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists every severity, most severe first.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

// Priority is the urgency of an issue, most urgent first.
type Priority string

// Priorities.
const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority, most urgent first.
func Priorities() []Priority {
	return []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}
}

// IssueStatus is the workflow state of an issue.
type IssueStatus string

// Issue statuses.
const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in-progress"
	IssueOnHold     IssueStatus = "on-hold"
	IssueResolved   IssueStatus = "resolved"
	IssueClosed     IssueStatus = "closed"
	IssueEscalated  IssueStatus = "escalated"
)

// IssueStatuses lists every issue status.
func IssueStatuses() []IssueStatus {
	return []IssueStatus{IssueOpen, IssueInProgress, IssueOnHold, IssueResolved, IssueClosed, IssueEscalated}
}

// Done reports whether the issue needs no further work.
func (s IssueStatus) Done() bool {
	return s == IssueResolved || s == IssueClosed
}

// =============================================================================
// Tags
// =============================================================================

// Tags is a list of labels. In CSV files tags are separated by semicolons
// or commas within one cell.
type Tags []string

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tags) UnmarshalText(b []byte) error {
	*t = nil
	for _, tag := range strings.FieldsFunc(string(b), func(r rune) bool { return r == ';' || r == ',' }) {
		if tag = strings.TrimSpace(tag); tag != "" {
			*t = append(*t, tag)
		}
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Tags) MarshalText() ([]byte, error) {
	return []byte(strings.Join(t, ";")), nil
}

// UnmarshalJSON accepts both a list of strings and a single delimited string.
func (t *Tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("tags must be a list or a string: %w", err)
	}
	return t.UnmarshalText([]byte(s))
}

// MarshalJSON encodes the tags as a list.
func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(t))
}

// =============================================================================
// Issue
// =============================================================================

// Issue is a problem raised against a project.
type Issue struct {
	ID           string        `csv:"id" yaml:"id" json:"id"`
	IssueNumber  string        `csv:"issue_number" yaml:"issue_number" json:"issue_number"`
	Title        string        `csv:"title" yaml:"title" json:"title"`
	Description  string        `csv:"description" yaml:"description" json:"description"`
	ProjectCode  string        `csv:"project_code" yaml:"project_code" json:"project_code"`
	ProjectName  string        `csv:"project_name" yaml:"project_name" json:"project_name"`
	Category     IssueCategory `csv:"category" yaml:"category" json:"category"`
	Severity     Severity      `csv:"severity" yaml:"severity" json:"severity"`
	Priority     Priority      `csv:"priority" yaml:"priority" json:"priority"`
	Status       IssueStatus   `csv:"status" yaml:"status" json:"status"`
	ReportedBy   string        `csv:"reported_by" yaml:"reported_by" json:"reported_by"`
	ReportedDate string        `csv:"reported_date" yaml:"reported_date" json:"reported_date"`
	AssignedTo   string        `csv:"assigned_to" yaml:"assigned_to" json:"assigned_to"`
	TargetDate   string        `csv:"target_date" yaml:"target_date" json:"target_date"`
	ResolvedDate string        `csv:"resolved_date,omitempty" yaml:"resolved_date" json:"resolved_date,omitempty"`
	Impact       string        `csv:"impact" yaml:"impact" json:"impact"`
	Resolution   string        `csv:"resolution,omitempty" yaml:"resolution" json:"resolution,omitempty"`
	DaysOpen     int           `csv:"days_open" yaml:"days_open" json:"days_open"`
	Tags         Tags          `csv:"tags" yaml:"tags" json:"tags"`
}

// Validate checks required fields and enum values.
func (i Issue) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if i.IssueNumber == "" {
		errs = append(errs, errors.New("issue_number is required"))
	}
	check := func(field, v string, ok bool) {
		if v != "" && !ok {
			errs = append(errs, fmt.Errorf("invalid %s %q", field, v))
		}
	}
	_, ok := parseEnum(string(i.Category), IssueCategories())
	check("category", string(i.Category), ok)
	_, ok = parseEnum(string(i.Severity), Severities())
	check("severity", string(i.Severity), ok)
	_, ok = parseEnum(string(i.Priority), Priorities())
	check("priority", string(i.Priority), ok)
	_, ok = parseEnum(string(i.Status), IssueStatuses())
	check("status", string(i.Status), ok)
	if i.DaysOpen < 0 {
		errs = append(errs, fmt.Errorf("days_open must not be negative, got %d", i.DaysOpen))
	}
	return errors.Join(errs...)
}

// IssueSchema describes the fields of an issue.
var IssueSchema = view.MustSchema(
	view.Text("issue_number", "Issue", func(i Issue) string { return i.IssueNumber }).Search(),
	view.Text("title", "Title", func(i Issue) string { return i.Title }).Search(),
	view.Text("project_name", "Project", func(i Issue) string { return i.ProjectName }).Filter(),
	view.Text("project_code", "Project Code", func(i Issue) string { return i.ProjectCode }).Filter(),
	view.Enum("category", "Category", func(i Issue) IssueCategory { return i.Category }, IssueCategories()...).Filter(),
	view.Enum("severity", "Severity", func(i Issue) Severity { return i.Severity }, Severities()...).Filter(),
	view.Enum("priority", "Priority", func(i Issue) Priority { return i.Priority }, Priorities()...).Filter(),
	view.Enum("status", "Status", func(i Issue) IssueStatus { return i.Status }, IssueStatuses()...).Filter(),
	view.Text("reported_by", "Reported By", func(i Issue) string { return i.ReportedBy }),
	view.Date("reported_date", "Reported", func(i Issue) string { return i.ReportedDate }),
	view.Text("assigned_to", "Assigned To", func(i Issue) string { return i.AssignedTo }).Filter(),
	view.Date("target_date", "Target", func(i Issue) string { return i.TargetDate }),
	view.Date("resolved_date", "Resolved", func(i Issue) string { return i.ResolvedDate }),
	view.Number("days_open", "Days Open", func(i Issue) float64 { return float64(i.DaysOpen) }),
	view.Text("description", "Description", func(i Issue) string { return i.Description }).Search().NoSort(),
	view.Text("tags", "Tags", func(i Issue) string { return strings.Join(i.Tags, ", ") }).Search().NoSort(),
	view.Text("impact", "Impact", func(i Issue) string { return i.Impact }).NoSort(),
	view.Text("resolution", "Resolution", func(i Issue) string { return i.Resolution }).NoSort(),
	view.Text("id", "ID", func(i Issue) string { return i.ID }),
)

// openStatuses are the statuses of issues that still need work.
var openStatuses = []string{
	string(IssueOpen), string(IssueInProgress), string(IssueOnHold), string(IssueEscalated),
}

var issues = &Definition[Issue]{
	Name:        "issues",
	Title:       "Project Issues",
	Description: "Issues raised during project execution",
	Schema:      IssueSchema,
	DateField:   "reported_date",
	DefaultSort: core.SortSpec{Field: "reported_date", Direction: core.DirDesc},
	Stats: []core.StatSpec{
		{Name: "total_issues", Label: "Total Issues", Kind: core.StatCount, Scope: core.ScopeAll},
		{Name: "open", Label: "Open", Kind: core.StatCount, Scope: core.ScopeAll, Where: map[string][]string{"status": {string(IssueOpen)}}},
		{Name: "critical", Label: "Critical", Kind: core.StatCount, Scope: core.ScopeAll, Where: map[string][]string{"severity": {string(SeverityCritical)}}},
		{Name: "escalated", Label: "Escalated", Kind: core.StatCount, Scope: core.ScopeAll, Where: map[string][]string{"status": {string(IssueEscalated)}}},
		{Name: "resolved", Label: "Resolved", Kind: core.StatCount, Scope: core.ScopeAll, Where: map[string][]string{"status": {string(IssueResolved), string(IssueClosed)}}},
		{Name: "avg_resolution_days", Label: "Avg Resolution", Kind: core.StatAverage, Field: "days_open", Scope: core.ScopeAll, Present: []string{"resolved_date"}, Precision: intp(0), Format: core.FormatDays},
		{Name: "past_target", Label: "Past Target", Kind: core.StatOverdue, Field: "target_date", Scope: core.ScopeAll, Where: map[string][]string{"status": openStatuses}},
		{Name: "by_severity", Label: "By Severity", Kind: core.StatGroupCount, By: "severity"},
	},
	SLA: &SLASpec[Issue]{
		KeyField:      "issue_number",
		DeadlineField: "target_date",
		Include:       func(i Issue) bool { return !i.Status.Done() },
	},
}
