package erp

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// =============================================================================
// BudgetCategory
// =============================================================================

// BudgetCategory is the cost category of a budget line.
type BudgetCategory string

// Budget categories.
const (
	CategoryLabor         BudgetCategory = "labor"
	CategoryMaterials     BudgetCategory = "materials"
	CategoryEquipment     BudgetCategory = "equipment"
	CategorySubcontractor BudgetCategory = "subcontractor"
	CategoryOverhead      BudgetCategory = "overhead"
	CategoryContingency   BudgetCategory = "contingency"
)

// BudgetCategories lists every budget category.
func BudgetCategories() []BudgetCategory {
	return []BudgetCategory{
		CategoryLabor, CategoryMaterials, CategoryEquipment,
		CategorySubcontractor, CategoryOverhead, CategoryContingency,
	}
}

// ParseBudgetCategory converts a string to a BudgetCategory.
func ParseBudgetCategory(s string) (BudgetCategory, bool) {
	return parseEnum(s, BudgetCategories())
}

// =============================================================================
// BudgetStatus
// =============================================================================

// BudgetStatus tracks spending against a budget line.
type BudgetStatus string

// Budget statuses.
const (
	BudgetOnBudget    BudgetStatus = "on-budget"
	BudgetOverBudget  BudgetStatus = "over-budget"
	BudgetUnderBudget BudgetStatus = "under-budget"
	BudgetAtRisk      BudgetStatus = "at-risk"
)

// BudgetStatuses lists every budget status.
func BudgetStatuses() []BudgetStatus {
	return []BudgetStatus{BudgetOnBudget, BudgetOverBudget, BudgetUnderBudget, BudgetAtRisk}
}

// ParseBudgetStatus converts a string to a BudgetStatus.
func ParseBudgetStatus(s string) (BudgetStatus, bool) {
	return parseEnum(s, BudgetStatuses())
}

// =============================================================================
// BudgetItem
// =============================================================================

// BudgetItem is one line of a project budget.
type BudgetItem struct {
	ID                 string         `csv:"id" yaml:"id" json:"id"`
	ProjectCode        string         `csv:"project_code" yaml:"project_code" json:"project_code"`
	ProjectName        string         `csv:"project_name" yaml:"project_name" json:"project_name"`
	Category           BudgetCategory `csv:"category" yaml:"category" json:"category"`
	Phase              string         `csv:"phase" yaml:"phase" json:"phase"`
	WorkPackage        string         `csv:"work_package" yaml:"work_package" json:"work_package"`
	BudgetAmount       float64        `csv:"budget_amount" yaml:"budget_amount" json:"budget_amount"`
	CommittedAmount    float64        `csv:"committed_amount" yaml:"committed_amount" json:"committed_amount"`
	ActualSpent        float64        `csv:"actual_spent" yaml:"actual_spent" json:"actual_spent"`
	ForecastToComplete float64        `csv:"forecast_to_complete" yaml:"forecast_to_complete" json:"forecast_to_complete"`
	Variance           float64        `csv:"variance" yaml:"variance" json:"variance"`
	VariancePercent    float64        `csv:"variance_percent" yaml:"variance_percent" json:"variance_percent"`
	Status             BudgetStatus   `csv:"status" yaml:"status" json:"status"`
	StartDate          string         `csv:"start_date" yaml:"start_date" json:"start_date"`
	EndDate            string         `csv:"end_date" yaml:"end_date" json:"end_date"`
	ApprovedBy         string         `csv:"approved_by" yaml:"approved_by" json:"approved_by"`
	ApprovedDate       string         `csv:"approved_date" yaml:"approved_date" json:"approved_date"`
	LastUpdated        string         `csv:"last_updated" yaml:"last_updated" json:"last_updated"`
	Notes              string         `csv:"notes,omitempty" yaml:"notes" json:"notes,omitempty"`
}

// EstimateAtCompletion is the spend so far plus the forecast to complete.
func (b BudgetItem) EstimateAtCompletion() float64 {
	return b.ActualSpent + b.ForecastToComplete
}

// Utilization is the committed share of the budget in percent.
func (b BudgetItem) Utilization() float64 {
	return view.Percentage(b.CommittedAmount, b.BudgetAmount)
}

// Validate checks required fields and enum values.
func (b BudgetItem) Validate() error {
	var errs []error
	if b.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if b.Category != "" {
		if _, ok := ParseBudgetCategory(string(b.Category)); !ok {
			errs = append(errs, fmt.Errorf("invalid category %q", b.Category))
		}
	}
	if b.Status != "" {
		if _, ok := ParseBudgetStatus(string(b.Status)); !ok {
			errs = append(errs, fmt.Errorf("invalid status %q", b.Status))
		}
	}
	if b.BudgetAmount < 0 {
		errs = append(errs, fmt.Errorf("budget_amount must not be negative, got %v", b.BudgetAmount))
	}
	return errors.Join(errs...)
}

// BudgetSchema describes the fields of a budget line.
var BudgetSchema = view.MustSchema(
	view.Text("id", "ID", func(b BudgetItem) string { return b.ID }).Search(),
	view.Text("project_code", "Project Code", func(b BudgetItem) string { return b.ProjectCode }).Filter(),
	view.Text("project_name", "Project", func(b BudgetItem) string { return b.ProjectName }).Search().Filter(),
	view.Enum("category", "Category", func(b BudgetItem) BudgetCategory { return b.Category }, BudgetCategories()...).Filter(),
	view.Text("phase", "Phase", func(b BudgetItem) string { return b.Phase }).Search(),
	view.Text("work_package", "Work Package", func(b BudgetItem) string { return b.WorkPackage }).Search(),
	view.Number("budget_amount", "Budget", func(b BudgetItem) float64 { return b.BudgetAmount }),
	view.Number("committed_amount", "Committed", func(b BudgetItem) float64 { return b.CommittedAmount }),
	view.Number("actual_spent", "Spent", func(b BudgetItem) float64 { return b.ActualSpent }),
	view.Number("forecast_to_complete", "Forecast", func(b BudgetItem) float64 { return b.ForecastToComplete }),
	view.Number("estimate_at_completion", "EAC", BudgetItem.EstimateAtCompletion),
	view.Number("utilization", "Utilization %", func(b BudgetItem) float64 { return view.Round(b.Utilization(), 1) }),
	view.Number("variance", "Variance", func(b BudgetItem) float64 { return b.Variance }),
	view.Number("variance_percent", "Variance %", func(b BudgetItem) float64 { return b.VariancePercent }),
	view.Enum("status", "Status", func(b BudgetItem) BudgetStatus { return b.Status }, BudgetStatuses()...).Filter(),
	view.Date("start_date", "Start", func(b BudgetItem) string { return b.StartDate }),
	view.Date("end_date", "End", func(b BudgetItem) string { return b.EndDate }),
	view.Text("approved_by", "Approved By", func(b BudgetItem) string { return b.ApprovedBy }).Filter(),
	view.Date("approved_date", "Approved", func(b BudgetItem) string { return b.ApprovedDate }),
	view.Date("last_updated", "Last Updated", func(b BudgetItem) string { return b.LastUpdated }),
	view.Text("notes", "Notes", func(b BudgetItem) string { return b.Notes }).NoSort(),
)

func budgetStatusCount(name, label string, status BudgetStatus) core.StatSpec {
	return core.StatSpec{
		Name: name, Label: label, Kind: core.StatCount, Scope: core.ScopeAll,
		Where: map[string][]string{"status": {string(status)}},
	}
}

var budget = &Definition[BudgetItem]{
	Name:        "budget",
	Title:       "Project Budgets",
	Description: "Budget lines per project, phase and work package",
	Schema:      BudgetSchema,
	DateField:   "start_date",
	DefaultSort: core.SortSpec{Field: "id", Direction: core.DirAsc},
	Stats: []core.StatSpec{
		{Name: "total_budget", Label: "Total Budget", Kind: core.StatSum, Field: "budget_amount", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "total_committed", Label: "Committed", Kind: core.StatSum, Field: "committed_amount", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "total_spent", Label: "Actual Spent", Kind: core.StatSum, Field: "actual_spent", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "total_forecast", Label: "Forecast to Complete", Kind: core.StatSum, Field: "forecast_to_complete", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "estimate_at_completion", Label: "Estimate at Completion", Kind: core.StatSum, Field: "estimate_at_completion", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "available", Label: "Available", Kind: core.StatDelta, Field: "budget_amount", Baseline: "committed_amount", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "utilization", Label: "Utilization", Kind: core.StatPercentage, Field: "committed_amount", Baseline: "budget_amount", Scope: core.ScopeAll},
		{Name: "total_variance", Label: "Total Variance", Kind: core.StatSum, Field: "variance", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "variance_percent", Label: "Variance %", Kind: core.StatPercentage, Field: "variance", Baseline: "budget_amount", Scope: core.ScopeAll},
		budgetStatusCount("on_budget", "On Budget", BudgetOnBudget),
		budgetStatusCount("over_budget", "Over Budget", BudgetOverBudget),
		budgetStatusCount("at_risk", "At Risk", BudgetAtRisk),
		{Name: "by_status", Label: "By Status", Kind: core.StatGroupCount, By: "status"},
		{Name: "by_category", Label: "Budget by Category", Kind: core.StatGroupSum, By: "category", Field: "budget_amount", Format: core.FormatCurrency},
	},
}
