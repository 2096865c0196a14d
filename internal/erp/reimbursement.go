package erp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// =============================================================================
// ClaimType
// =============================================================================

// ClaimType is the expense category of a reimbursement claim.
type ClaimType string

// Claim types.
const (
	ClaimMedical    ClaimType = "Medical"
	ClaimEducation  ClaimType = "Education"
	ClaimConveyance ClaimType = "Conveyance"
	ClaimRelocation ClaimType = "Relocation"
	ClaimUniform    ClaimType = "Uniform"
	ClaimMobile     ClaimType = "Mobile"
	ClaimInternet   ClaimType = "Internet"
	ClaimOther      ClaimType = "Other"
)

// ClaimTypes lists every claim type in display order.
func ClaimTypes() []ClaimType {
	return []ClaimType{
		ClaimMedical, ClaimEducation, ClaimConveyance, ClaimRelocation,
		ClaimUniform, ClaimMobile, ClaimInternet, ClaimOther,
	}
}

// ParseClaimType converts a string to a ClaimType, ignoring case.
func ParseClaimType(s string) (ClaimType, bool) {
	return parseEnum(s, ClaimTypes())
}

// =============================================================================
// PaymentMode
// =============================================================================

// PaymentMode is how a reimbursement was paid out.
type PaymentMode string

// Payment modes.
const (
	PaymentBankTransfer PaymentMode = "bank_transfer"
	PaymentCheque       PaymentMode = "cheque"
	PaymentCash         PaymentMode = "cash"
)

// PaymentModes lists every payment mode.
func PaymentModes() []PaymentMode {
	return []PaymentMode{PaymentBankTransfer, PaymentCheque, PaymentCash}
}

// ParsePaymentMode converts a string to a PaymentMode. Display labels such
// as "Bank Transfer" are accepted.
func ParsePaymentMode(s string) (PaymentMode, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	return parseEnum(s, PaymentModes())
}

// Label returns the display label of the payment mode.
func (m PaymentMode) Label() string {
	switch m {
	case PaymentBankTransfer:
		return "Bank Transfer"
	case PaymentCheque:
		return "Cheque"
	case PaymentCash:
		return "Cash"
	default:
		return string(m)
	}
}

// =============================================================================
// Reimbursement
// =============================================================================

// Reimbursement is a paid employee expense claim.
type Reimbursement struct {
	ID                   string      `csv:"id" yaml:"id" json:"id"`
	EmployeeCode         string      `csv:"employee_code" yaml:"employee_code" json:"employee_code"`
	EmployeeName         string      `csv:"employee_name" yaml:"employee_name" json:"employee_name"`
	Department           string      `csv:"department" yaml:"department" json:"department"`
	Designation          string      `csv:"designation" yaml:"designation" json:"designation"`
	ClaimNumber          string      `csv:"claim_number" yaml:"claim_number" json:"claim_number"`
	ClaimType            ClaimType   `csv:"claim_type" yaml:"claim_type" json:"claim_type"`
	Amount               float64     `csv:"amount" yaml:"amount" json:"amount"`
	SubmittedDate        string      `csv:"submitted_date" yaml:"submitted_date" json:"submitted_date"`
	ApprovedDate         string      `csv:"approved_date" yaml:"approved_date" json:"approved_date"`
	PaidDate             string      `csv:"paid_date" yaml:"paid_date" json:"paid_date"`
	PaymentMode          PaymentMode `csv:"payment_mode" yaml:"payment_mode" json:"payment_mode"`
	TransactionReference string      `csv:"transaction_reference" yaml:"transaction_reference" json:"transaction_reference"`
	Description          string      `csv:"description" yaml:"description" json:"description"`
	FiscalYear           string      `csv:"fiscal_year" yaml:"fiscal_year" json:"fiscal_year"`
	Quarter              string      `csv:"quarter" yaml:"quarter" json:"quarter"`
}

// Validate checks required fields and enum values. Dates are not checked:
// unparseable dates are kept and treated as missing.
func (r Reimbursement) Validate() error {
	var errs []error
	if r.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if r.ClaimNumber == "" {
		errs = append(errs, errors.New("claim_number is required"))
	}
	if r.ClaimType != "" {
		if _, ok := ParseClaimType(string(r.ClaimType)); !ok {
			errs = append(errs, fmt.Errorf("invalid claim_type %q", r.ClaimType))
		}
	}
	if r.PaymentMode != "" {
		if _, ok := ParsePaymentMode(string(r.PaymentMode)); !ok {
			errs = append(errs, fmt.Errorf("invalid payment_mode %q", r.PaymentMode))
		}
	}
	if r.Amount < 0 {
		errs = append(errs, fmt.Errorf("amount must not be negative, got %v", r.Amount))
	}
	return errors.Join(errs...)
}

// ReimbursementSchema describes the fields of a reimbursement.
var ReimbursementSchema = view.MustSchema(
	view.Text("claim_number", "Claim No.", func(r Reimbursement) string { return r.ClaimNumber }).Search(),
	view.Text("employee_name", "Employee", func(r Reimbursement) string { return r.EmployeeName }).Search(),
	view.Text("employee_code", "Employee Code", func(r Reimbursement) string { return r.EmployeeCode }).Search(),
	view.Text("department", "Department", func(r Reimbursement) string { return r.Department }).Filter(),
	view.Text("designation", "Designation", func(r Reimbursement) string { return r.Designation }),
	view.Enum("claim_type", "Type", func(r Reimbursement) ClaimType { return r.ClaimType }, ClaimTypes()...).Filter(),
	view.Number("amount", "Amount", func(r Reimbursement) float64 { return r.Amount }),
	view.Date("submitted_date", "Submitted Date", func(r Reimbursement) string { return r.SubmittedDate }),
	view.Date("approved_date", "Approved Date", func(r Reimbursement) string { return r.ApprovedDate }),
	view.Date("paid_date", "Paid Date", func(r Reimbursement) string { return r.PaidDate }).Filter(),
	view.Enum("payment_mode", "Payment Mode", func(r Reimbursement) PaymentMode { return r.PaymentMode }, PaymentModes()...).Filter(),
	view.Text("transaction_reference", "Transaction Ref", func(r Reimbursement) string { return r.TransactionReference }),
	view.Text("fiscal_year", "Fiscal Year", func(r Reimbursement) string { return r.FiscalYear }).Filter(),
	view.Text("quarter", "Quarter", func(r Reimbursement) string { return r.Quarter }).Filter(),
	view.Text("description", "Description", func(r Reimbursement) string { return r.Description }).NoSort(),
	view.Text("id", "ID", func(r Reimbursement) string { return r.ID }),
)

var reimbursements = &Definition[Reimbursement]{
	Name:        "reimbursements",
	Title:       "Paid Reimbursements",
	Description: "Employee expense claims that have been paid out",
	Schema:      ReimbursementSchema,
	DateField:   "paid_date",
	DefaultSort: core.SortSpec{Field: "paid_date", Direction: core.DirDesc},
	Stats: []core.StatSpec{
		{Name: "total_claims", Label: "Total Claims", Kind: core.StatCount, Scope: core.ScopeAll},
		{Name: "total_amount", Label: "Total Amount", Kind: core.StatSum, Field: "amount", Scope: core.ScopeAll, Format: core.FormatCurrency},
		{Name: "average_claim", Label: "Average Claim", Kind: core.StatAverage, Field: "amount", Scope: core.ScopeAll, Precision: intp(0), Format: core.FormatCurrency},
		{Name: "paid_this_month", Label: "Paid This Month", Kind: core.StatCount, Scope: core.ScopeAll, Period: core.PeriodThisMonth, PeriodField: "paid_date"},
		{Name: "paid_this_month_amount", Label: "Paid This Month (Amount)", Kind: core.StatSum, Field: "amount", Scope: core.ScopeAll, Period: core.PeriodThisMonth, PeriodField: "paid_date", Format: core.FormatCurrency},
		{Name: "bank_transfers", Label: "Bank Transfers", Kind: core.StatCount, Scope: core.ScopeAll, Where: map[string][]string{"payment_mode": {string(PaymentBankTransfer)}}},
		{Name: "by_type", Label: "By Claim Type", Kind: core.StatGroupSum, By: "claim_type", Field: "amount", Format: core.FormatCurrency},
	},
}
