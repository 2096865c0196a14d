package erp

import (
	"errors"
	"fmt"
	"slices"

	"github.com/leapstack-labs/leapview/pkg/core"
	"github.com/leapstack-labs/leapview/pkg/view"
)

// =============================================================================
// Invoice enums
// =============================================================================

// InvoiceType distinguishes sales, purchase and adjustment invoices.
type InvoiceType string

// Invoice types.
const (
	InvoiceSales      InvoiceType = "SALES"
	InvoicePurchase   InvoiceType = "PURCHASE"
	InvoiceCreditNote InvoiceType = "CREDIT_NOTE"
	InvoiceDebitNote  InvoiceType = "DEBIT_NOTE"
)

// InvoiceTypes lists every invoice type.
func InvoiceTypes() []InvoiceType {
	return []InvoiceType{InvoiceSales, InvoicePurchase, InvoiceCreditNote, InvoiceDebitNote}
}

// InvoiceStatus is the workflow state of an invoice.
type InvoiceStatus string

// Invoice statuses.
const (
	InvoiceDraft           InvoiceStatus = "DRAFT"
	InvoicePendingApproval InvoiceStatus = "PENDING_APPROVAL"
	InvoiceApproved        InvoiceStatus = "APPROVED"
	InvoicePosted          InvoiceStatus = "POSTED"
	InvoicePartiallyPaid   InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid            InvoiceStatus = "PAID"
	InvoiceOverdue         InvoiceStatus = "OVERDUE"
	InvoiceCancelled       InvoiceStatus = "CANCELLED"
	InvoiceVoid            InvoiceStatus = "VOID"
)

// InvoiceStatuses lists every invoice status in workflow order.
func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{
		InvoiceDraft, InvoicePendingApproval, InvoiceApproved, InvoicePosted,
		InvoicePartiallyPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled, InvoiceVoid,
	}
}

// Receivable reports whether an invoice in this status still awaits payment.
func (s InvoiceStatus) Receivable() bool {
	return s == InvoicePosted || s == InvoicePartiallyPaid || s == InvoiceOverdue
}

// PaymentTerms is the agreed payment deadline of an invoice.
type PaymentTerms string

// Payment terms.
const (
	TermsNet15        PaymentTerms = "NET_15"
	TermsNet30        PaymentTerms = "NET_30"
	TermsNet45        PaymentTerms = "NET_45"
	TermsNet60        PaymentTerms = "NET_60"
	TermsNet90        PaymentTerms = "NET_90"
	TermsDueOnReceipt PaymentTerms = "DUE_ON_RECEIPT"
	TermsCustom       PaymentTerms = "CUSTOM"
)

// PaymentTermsList lists every payment term.
func PaymentTermsList() []PaymentTerms {
	return []PaymentTerms{TermsNet15, TermsNet30, TermsNet45, TermsNet60, TermsNet90, TermsDueOnReceipt, TermsCustom}
}

// Days returns the number of days until payment is due, and false for
// custom terms.
func (p PaymentTerms) Days() (int, bool) {
	switch p {
	case TermsNet15:
		return 15, true
	case TermsNet30:
		return 30, true
	case TermsNet45:
		return 45, true
	case TermsNet60:
		return 60, true
	case TermsNet90:
		return 90, true
	case TermsDueOnReceipt:
		return 0, true
	default:
		return 0, false
	}
}

// =============================================================================
// Invoice
// =============================================================================

// Invoice is a sales or purchase invoice header.
type Invoice struct {
	ID            string        `csv:"id" yaml:"id" json:"id"`
	InvoiceNumber string        `csv:"invoice_number" yaml:"invoice_number" json:"invoice_number"`
	Type          InvoiceType   `csv:"type" yaml:"type" json:"type"`
	Status        InvoiceStatus `csv:"status" yaml:"status" json:"status"`
	CustomerID    string        `csv:"customer_id,omitempty" yaml:"customer_id" json:"customer_id,omitempty"`
	CustomerName  string        `csv:"customer_name" yaml:"customer_name" json:"customer_name"`
	VendorName    string        `csv:"vendor_name,omitempty" yaml:"vendor_name" json:"vendor_name,omitempty"`
	InvoiceDate   string        `csv:"invoice_date" yaml:"invoice_date" json:"invoice_date"`
	DueDate       string        `csv:"due_date" yaml:"due_date" json:"due_date"`
	PaymentTerms  PaymentTerms  `csv:"payment_terms" yaml:"payment_terms" json:"payment_terms"`
	Currency      string        `csv:"currency" yaml:"currency" json:"currency"`
	Subtotal      float64       `csv:"subtotal" yaml:"subtotal" json:"subtotal"`
	TotalDiscount float64       `csv:"total_discount" yaml:"total_discount" json:"total_discount"`
	TotalTax      float64       `csv:"total_tax" yaml:"total_tax" json:"total_tax"`
	TotalAmount   float64       `csv:"total_amount" yaml:"total_amount" json:"total_amount"`
	AmountPaid    float64       `csv:"amount_paid" yaml:"amount_paid" json:"amount_paid"`
	AmountDue     float64       `csv:"amount_due" yaml:"amount_due" json:"amount_due"`
	Reference     string        `csv:"reference,omitempty" yaml:"reference" json:"reference,omitempty"`
	PONumber      string        `csv:"po_number,omitempty" yaml:"po_number" json:"po_number,omitempty"`
}

// Receivable reports whether the invoice is an outstanding sales invoice.
func (i Invoice) Receivable() bool {
	return i.Type == InvoiceSales && i.AmountDue > 0 && i.Status.Receivable()
}

// Validate checks required fields, enum values and amounts.
func (i Invoice) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if i.InvoiceNumber == "" {
		errs = append(errs, errors.New("invoice_number is required"))
	}
	if i.Type != "" && !slices.Contains(InvoiceTypes(), i.Type) {
		errs = append(errs, fmt.Errorf("invalid type %q", i.Type))
	}
	if i.Status != "" && !slices.Contains(InvoiceStatuses(), i.Status) {
		errs = append(errs, fmt.Errorf("invalid status %q", i.Status))
	}
	if i.PaymentTerms != "" && !slices.Contains(PaymentTermsList(), i.PaymentTerms) {
		errs = append(errs, fmt.Errorf("invalid payment_terms %q", i.PaymentTerms))
	}
	if i.AmountPaid > i.TotalAmount && i.TotalAmount >= 0 {
		errs = append(errs, fmt.Errorf("amount_paid %v exceeds total_amount %v", i.AmountPaid, i.TotalAmount))
	}
	return errors.Join(errs...)
}

// InvoiceSchema describes the fields of an invoice.
var InvoiceSchema = view.MustSchema(
	view.Text("invoice_number", "Invoice", func(i Invoice) string { return i.InvoiceNumber }).Search(),
	view.Enum("type", "Type", func(i Invoice) InvoiceType { return i.Type }, InvoiceTypes()...).Filter(),
	view.Enum("status", "Status", func(i Invoice) InvoiceStatus { return i.Status }, InvoiceStatuses()...).Filter(),
	view.Text("customer_name", "Customer", func(i Invoice) string { return i.CustomerName }).Search().Filter(),
	view.Text("vendor_name", "Vendor", func(i Invoice) string { return i.VendorName }).Search().Filter(),
	view.Date("invoice_date", "Invoice Date", func(i Invoice) string { return i.InvoiceDate }),
	view.Date("due_date", "Due Date", func(i Invoice) string { return i.DueDate }),
	view.Enum("payment_terms", "Terms", func(i Invoice) PaymentTerms { return i.PaymentTerms }, PaymentTermsList()...).Filter(),
	view.Text("currency", "Currency", func(i Invoice) string { return i.Currency }).Filter(),
	view.Number("subtotal", "Subtotal", func(i Invoice) float64 { return i.Subtotal }),
	view.Number("total_discount", "Discount", func(i Invoice) float64 { return i.TotalDiscount }),
	view.Number("total_tax", "Tax", func(i Invoice) float64 { return i.TotalTax }),
	view.Number("total_amount", "Total", func(i Invoice) float64 { return i.TotalAmount }),
	view.Number("amount_paid", "Paid", func(i Invoice) float64 { return i.AmountPaid }),
	view.Number("amount_due", "Due", func(i Invoice) float64 { return i.AmountDue }),
	view.Text("reference", "Reference", func(i Invoice) string { return i.Reference }).Search(),
	view.Text("po_number", "PO Number", func(i Invoice) string { return i.PONumber }).Search(),
	view.Text("customer_id", "Customer ID", func(i Invoice) string { return i.CustomerID }).Filter(),
	view.Text("id", "ID", func(i Invoice) string { return i.ID }),
)

var sales = map[string][]string{"type": {string(InvoiceSales)}}

var invoices = &Definition[Invoice]{
	Name:        "invoices",
	Title:       "Invoices",
	Description: "Sales and purchase invoices with payment status",
	Schema:      InvoiceSchema,
	DateField:   "invoice_date",
	DefaultSort: core.SortSpec{Field: "invoice_date", Direction: core.DirDesc},
	Stats: []core.StatSpec{
		{Name: "total_invoices", Scope: core.ScopeAll, Label: "Sales Invoices", Kind: core.StatCount, Where: sales},
		{Name: "total_amount", Scope: core.ScopeAll, Label: "Total Amount", Kind: core.StatSum, Field: "total_amount", Where: sales, Format: core.FormatCurrency},
		{Name: "paid_amount", Scope: core.ScopeAll, Label: "Paid", Kind: core.StatSum, Field: "amount_paid", Where: sales, Format: core.FormatCurrency},
		{
			Name: "pending_amount", Scope: core.ScopeAll, Label: "Pending", Kind: core.StatSum, Field: "amount_due", Format: core.FormatCurrency,
			Where: map[string][]string{"type": {string(InvoiceSales)}, "status": {string(InvoicePosted), string(InvoicePartiallyPaid)}},
		},
		{
			Name: "overdue_amount", Scope: core.ScopeAll, Label: "Overdue", Kind: core.StatSum, Field: "amount_due", Format: core.FormatCurrency,
			Where: map[string][]string{"type": {string(InvoiceSales)}, "status": {string(InvoiceOverdue)}},
		},
		{Name: "collection_rate", Scope: core.ScopeAll, Label: "Collected", Kind: core.StatPercentage, Field: "amount_paid", Baseline: "total_amount", Where: sales},
		{Name: "by_status", Label: "By Status", Kind: core.StatGroupCount, By: "status"},
		{Name: "by_type", Label: "By Type", Kind: core.StatGroupCount, By: "type"},
	},
	Aging: &AgingSpec[Invoice]{
		AgingSpec: view.AgingSpec{DueField: "due_date", AmountField: "amount_due", GroupField: "customer_name"},
		Include:   Invoice.Receivable,
	},
}
