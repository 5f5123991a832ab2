package report

import (
	"strconv"
	"strings"
	"time"
)

// Fields is one turn's parameter map for a report, keyed by field name.
// Values are strings throughout; typing happens in BuildParams.
type Fields map[string]string

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Defaults returns a field map holding every schema default.
func Defaults(id ID) Fields {
	schema, ok := Definition(id)
	if !ok {
		return Fields{}
	}
	out := make(Fields, len(schema.Fields))
	for _, spec := range schema.Fields {
		out[spec.Name] = spec.Default
	}
	return out
}

// acceptedDateLayouts are the shapes extraction and users produce. Output is
// always normalized to dateLayout.
const dateLayout = "2006-01-02"

var acceptedDateLayouts = []string{dateLayout, "02/01/2006", "02-01-2006"}

// NormalizeDate parses a date in any accepted layout and returns it as
// YYYY-MM-DD. Unparseable input returns Unspecified.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == Unspecified {
		return Unspecified
	}
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return Unspecified
}

// Validate coerces a raw field map into a valid one for the given report:
// missing fields gain their defaults, enum violations and malformed values
// fall back to defaults, dates are normalized to YYYY-MM-DD, and fields the
// schema does not declare are dropped. Running it twice is a no-op.
func Validate(id ID, raw Fields) Fields {
	schema, ok := Definition(id)
	if !ok {
		return Fields{}
	}

	out := make(Fields, len(schema.Fields))
	for _, spec := range schema.Fields {
		v, present := raw[spec.Name]
		v = strings.TrimSpace(v)
		if !present || v == "" {
			out[spec.Name] = spec.Default
			continue
		}
		out[spec.Name] = validateField(spec, v)
	}
	return out
}

func validateField(spec FieldSpec, v string) string {
	switch {
	case spec.IsDate:
		return NormalizeDate(v)
	case spec.Numeric:
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return spec.Default
		}
		return strconv.Itoa(n)
	case spec.Enum != nil:
		if canonical, ok := canonicalEnum(spec, v); ok {
			return canonical
		}
		return spec.Default
	default:
		return v
	}
}

// canonicalEnum resolves v against the enum, case-insensitively, then against
// the alias glossary.
func canonicalEnum(spec FieldSpec, v string) (string, bool) {
	lv := lower(v)
	for _, e := range spec.Enum {
		if lower(e) == lv {
			return e, true
		}
	}
	for canonical, aliases := range spec.Aliases {
		for _, a := range aliases {
			if lower(a) == lv {
				return canonical, true
			}
		}
	}
	return "", false
}

// Merge folds the current turn's extraction into the prior turn's parameters.
// Per field, precedence is:
//
//	removal-detected  -> schema default
//	current == default -> prior value carries forward
//	otherwise          -> current value wins
//
// A nil prior map means a fresh session and current values stand as-is. Both
// inputs are assumed validated; the output is validated again by construction
// since every value comes from a validated map or a schema default.
func Merge(id ID, prior, current Fields, removed []string) Fields {
	schema, ok := Definition(id)
	if !ok {
		return Fields{}
	}

	rm := make(map[string]struct{}, len(removed))
	for _, name := range removed {
		rm[name] = struct{}{}
	}

	out := make(Fields, len(schema.Fields))
	for _, spec := range schema.Fields {
		if _, gone := rm[spec.Name]; gone {
			out[spec.Name] = spec.Default
			continue
		}
		cur, ok := current[spec.Name]
		if !ok {
			cur = spec.Default
		}
		if cur == spec.Default && prior != nil {
			if pv, ok := prior[spec.Name]; ok {
				out[spec.Name] = pv
				continue
			}
		}
		out[spec.Name] = cur
	}
	return out
}

// Complete reports whether the fields satisfy the report's mandatory inputs
// and, when a date range is required but incomplete, which status applies.
func Complete(id ID, f Fields) (bool, Status) {
	schema, ok := Definition(id)
	if !ok {
		return false, StatusNoReport
	}
	if !schema.HasDateRange() {
		return true, StatusSuccess
	}
	from := f[FieldFromDate]
	to := f[FieldToDate]
	switch {
	case from == Unspecified && to == Unspecified:
		return false, StatusNoDateRange
	case from == Unspecified:
		return false, StatusFromDateRequired
	case to == Unspecified:
		return false, StatusNoDateRange
	}
	return true, StatusSuccess
}

// Params is the typed call record handed to the backend once a request is
// confirmed and complete.
type Params struct {
	Report        ID     `json:"report"`
	FromDate      string `json:"from_date,omitempty"`
	ToDate        string `json:"to_date,omitempty"`
	Product       string `json:"product,omitempty"`
	ProductDetail string `json:"product_detail,omitempty"`
	Level         string `json:"level,omitempty"`
	User          string `json:"user,omitempty"`
	Top           int    `json:"top,omitempty"`
}

// BuildParams converts a validated field map into the typed call record.
func BuildParams(id ID, f Fields) Params {
	p := Params{Report: id}
	schema, ok := Definition(id)
	if !ok {
		return p
	}
	for _, spec := range schema.Fields {
		v := f[spec.Name]
		switch spec.Name {
		case FieldFromDate:
			p.FromDate = v
		case FieldToDate:
			p.ToDate = v
		case FieldProduct:
			p.Product = v
		case FieldProductDetail:
			p.ProductDetail = v
		case FieldLevel:
			p.Level = v
		case FieldUser:
			p.User = v
		case FieldTop:
			if n, err := strconv.Atoi(v); err == nil {
				p.Top = n
			}
		}
	}
	return p
}
