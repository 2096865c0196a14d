package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// =============================================================================
// Kind
// =============================================================================

// Kind identifies the type of a record field.
type Kind int

// Field kinds.
const (
	// KindText is free-form text (names, descriptions, reference numbers).
	KindText Kind = iota
	// KindNumber is a numeric or currency amount.
	KindNumber
	// KindDate is a calendar date, possibly stored in a display format.
	KindDate
	// KindEnum is a closed set of string values (status, category, severity).
	KindEnum
	// KindBool is a yes/no flag.
	KindBool
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindEnum:
		return "enum"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind value.
// Returns the kind and true if valid, or KindText and false if invalid.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(s) {
	case "text", "string":
		return KindText, true
	case "number", "numeric", "currency":
		return KindNumber, true
	case "date":
		return KindDate, true
	case "enum":
		return KindEnum, true
	case "bool", "boolean":
		return KindBool, true
	default:
		return KindText, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("invalid field kind %q", string(b))
	}
	*k = kind
	return nil
}

// =============================================================================
// Value
// =============================================================================

// Value is a single scalar field value extracted from a record.
// A Value with Valid == false is missing: an absent optional field or a date
// string that could not be parsed.
type Value struct {
	Kind  Kind
	Str   string
	Num   float64
	Time  time.Time
	Bool  bool
	Valid bool
}

// Text returns a text value. Text values are always valid; the empty string
// is a legitimate value.
func Text(s string) Value {
	return Value{Kind: KindText, Str: s, Valid: true}
}

// Enum returns an enum value. An empty enum is treated as missing.
func Enum(s string) Value {
	return Value{Kind: KindEnum, Str: s, Valid: s != ""}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f, Valid: true}
}

// OptionalNumber returns a numeric value, or a missing one when f is nil.
func OptionalNumber(f *float64) Value {
	if f == nil {
		return Null(KindNumber)
	}
	return Number(*f)
}

// Date returns a date value.
func Date(t time.Time) Value {
	return Value{Kind: KindDate, Time: t, Valid: !t.IsZero()}
}

// DateString parses s as a date in loc and returns it as a date value.
// Unparseable or empty strings produce a missing value rather than an error,
// keeping the original text for display.
func DateString(s string, loc *time.Location) Value {
	t, ok := ParseDate(s, loc)
	if !ok {
		return Value{Kind: KindDate, Str: s}
	}
	return Value{Kind: KindDate, Str: s, Time: t, Valid: true}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{Kind: KindBool, Bool: b, Valid: true}
}

// Null returns a missing value of the given kind.
func Null(kind Kind) Value {
	return Value{Kind: kind}
}

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool {
	return !v.Valid
}

// Display renders the value for tables and exports.
// Missing dates keep their original text so bad input stays visible.
func (v Value) Display() string {
	if !v.Valid {
		if v.Kind == KindDate {
			return v.Str
		}
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format(DateLayout)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// MarshalJSON encodes the value as its natural JSON scalar, or null when missing.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Display())
	}
}

// =============================================================================
// Dates
// =============================================================================

// DateLayout is the canonical date layout used for display and storage.
const DateLayout = "2006-01-02"

// isoLayouts are tried before falling back to format detection.
var isoLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate parses a date string in ISO or any common display format
// ("15 Aug 2024", "Aug 25, 2024", "08/25/2024"). A nil loc means UTC.
// It reports ok=false instead of returning an error.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
