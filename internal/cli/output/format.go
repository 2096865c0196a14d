package output

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/leapview/pkg/core"
)

// Formatting defaults.
var (
	DefaultLocale   = language.English
	DefaultCurrency = currency.INR
)

// Formatter renders numbers and statistics for a locale.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter creates a formatter for a language and currency.
func NewFormatter(tag language.Tag, unit currency.Unit) *Formatter {
	return &Formatter{tag: tag, unit: unit, printer: message.NewPrinter(tag)}
}

// ParseFormatter creates a formatter from a BCP 47 locale and an ISO 4217
// currency code. Empty values select the defaults.
func ParseFormatter(locale, code string) (*Formatter, error) {
	tag := DefaultLocale
	if locale != "" {
		t, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
		}
		tag = t
	}
	unit := DefaultCurrency
	if code != "" {
		u, err := currency.ParseISO(code)
		if err != nil {
			return nil, fmt.Errorf("invalid currency %q: %w", code, err)
		}
		unit = u
	}
	return NewFormatter(tag, unit), nil
}

// Language returns the formatter's language.
func (f *Formatter) Language() language.Tag {
	return f.tag
}

// Number formats v with grouping. A negative precision keeps whole numbers
// whole and shows two decimals otherwise.
func (f *Formatter) Number(v float64, precision int) string {
	if precision < 0 {
		if v == math.Trunc(v) {
			precision = 0
		} else {
			precision = 2
		}
	}
	return f.printer.Sprintf("%."+strconv.Itoa(precision)+"f", v)
}

// Currency formats v as an amount in the formatter's currency.
func (f *Formatter) Currency(v float64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(v)))
}

// Format renders v in a statistic display format.
func (f *Formatter) Format(v float64, format string) string {
	switch format {
	case core.FormatCount:
		return f.Number(math.Round(v), 0)
	case core.FormatCurrency:
		return f.Currency(v)
	case core.FormatPercent:
		return f.Number(v, 1) + "%"
	case core.FormatDays:
		if v == 1 {
			return "1 day"
		}
		return f.Number(v, -1) + " days"
	default:
		return f.Number(v, -1)
	}
}

// Stat renders the value of a statistic. Deltas include the change against
// their baseline.
func (f *Formatter) Stat(s core.Statistic) string {
	out := f.Format(s.Value, s.Format)
	if s.Kind == core.StatDelta {
		out += fmt.Sprintf(" (%s, %s%%)", f.signed(s.Delta, s.Format), f.signedNumber(s.DeltaPercent))
	}
	return out
}

// Change renders the difference between two snapshot values.
func (f *Formatter) Change(c core.StatChange) string {
	if c.Change != core.ChangeChanged {
		return c.Change
	}
	return fmt.Sprintf("%s (%s%%)", f.signed(c.Delta, c.Format), f.signedNumber(c.DeltaPercent))
}

// Value renders a cell value. Numbers are grouped, other kinds use their
// canonical display form.
func (f *Formatter) Value(v core.Value) string {
	if v.Valid && v.Kind == core.KindNumber {
		return f.Number(v.Num, -1)
	}
	return v.Display()
}

func (f *Formatter) signed(v float64, format string) string {
	if v > 0 {
		return "+" + f.Format(v, format)
	}
	return f.Format(v, format)
}

func (f *Formatter) signedNumber(v float64) string {
	if v > 0 {
		return "+" + f.Number(v, 1)
	}
	return f.Number(v, 1)
}
