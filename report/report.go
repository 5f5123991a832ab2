// Package report holds the closed catalogue of backend reports the assistant
// can trigger: identifiers, per-field schemas with defaults, enums and alias
// glossaries, parameter validation and the cross-turn merge rule.
package report

// ID identifies one backend report endpoint. The zero value means the report
// could not be resolved from the user's message.
type ID string

const (
	WinlostDetail  ID = "/winlost_detail"
	Turnover       ID = "/turnover"
	Outstanding    ID = "/outstanding"
	TopOutstanding ID = "/topoutstanding"
)

// Sentinel values meaning "not yet specified".
const (
	All         = "All" // categorical fields
	Unspecified = "N/A" // free-text and date fields
	DefaultTop  = "10"  // numeric default for top-outstanding
)

// Field names shared across report schemas.
const (
	FieldFromDate      = "from_date"
	FieldToDate        = "to_date"
	FieldProduct       = "product"
	FieldProductDetail = "product_detail"
	FieldLevel         = "level"
	FieldUser          = "user"
	FieldTop           = "top"
)

// ParseID maps a selector answer to a report ID. "N/A" and unknown values
// resolve to the zero ID.
func ParseID(s string) ID {
	switch ID(s) {
	case WinlostDetail, Turnover, Outstanding, TopOutstanding:
		return ID(s)
	}
	return ""
}

// FieldSpec describes one parameter of a report schema.
type FieldSpec struct {
	Name    string
	Default string
	// Enum lists the valid values for categorical fields; nil means free
	// text. The default is always a member.
	Enum []string
	// Aliases maps a canonical enum value to the abbreviation strings users
	// write for it. Feeds both the extraction prompts and the hybrid index.
	Aliases map[string][]string
	Numeric bool
	IsDate  bool
}

// Schema is the full definition of one report.
type Schema struct {
	ID          ID
	Display     string
	Description string
	// Abbreviations are the strings users write to name this report.
	Abbreviations []string
	Fields        []FieldSpec
}

// Field returns the spec for a named field.
func (s Schema) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldNames returns the schema's field names in declaration order.
func (s Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// HasDateRange reports whether this schema carries from_date/to_date.
func (s Schema) HasDateRange() bool {
	_, ok := s.Field(FieldFromDate)
	return ok
}

var (
	productField = FieldSpec{
		Name:    FieldProduct,
		Default: All,
		Enum:    []string{All, "Sportsbook", "Casino", "Number Game", "Virtual Sports", "RNG Slot", "Lottery"},
		Aliases: map[string][]string{
			"Sportsbook":     {"sb", "sbook", "sport", "sports"},
			"Casino":         {"cs", "live casino"},
			"Number Game":    {"ng", "number", "numbers"},
			"Virtual Sports": {"vs", "virtual"},
			"RNG Slot":       {"slot", "slots", "rng"},
			"Lottery":        {"lotto", "keno"},
		},
	}

	productDetailField = FieldSpec{
		Name:    FieldProductDetail,
		Default: All,
		Enum:    []string{All, "Sportsbook", "SABA Basketball", "SABA Soccer", "Virtual Soccer", "Live Dealer"},
		Aliases: map[string][]string{
			"Sportsbook":      {"sbook detail", "sb detail"},
			"SABA Basketball": {"saba bb", "basketball", "bball"},
			"SABA Soccer":     {"saba soccer", "soccer", "football"},
			"Virtual Soccer":  {"v soccer", "virtual football"},
			"Live Dealer":     {"dealer", "live table"},
		},
	}

	levelField = FieldSpec{
		Name:    FieldLevel,
		Default: All,
		Enum:    []string{All, "Super Agent", "Master Agent", "Agent", "Direct Member"},
		Aliases: map[string][]string{
			"Super Agent":   {"sa", "super"},
			"Master Agent":  {"ma", "master"},
			"Agent":         {"ag"},
			"Direct Member": {"dm", "member", "direct"},
		},
	}

	userField = FieldSpec{Name: FieldUser, Default: Unspecified}

	fromDateField = FieldSpec{Name: FieldFromDate, Default: Unspecified, IsDate: true}
	toDateField   = FieldSpec{Name: FieldToDate, Default: Unspecified, IsDate: true}

	topField = FieldSpec{Name: FieldTop, Default: DefaultTop, Numeric: true}
)

var definitions = []Schema{
	{
		ID:            WinlostDetail,
		Display:       "Win Loss Report",
		Description:   "win/loss figures per product, product detail, agent level and user over a date range",
		Abbreviations: []string{"wl", "w/l", "winloss", "win loss", "win lost", "winlost detail"},
		Fields:        []FieldSpec{fromDateField, toDateField, productField, productDetailField, levelField, userField},
	},
	{
		ID:            Turnover,
		Display:       "Turnover Report",
		Description:   "betting turnover per product, product detail, agent level and user over a date range",
		Abbreviations: []string{"to", "t/o", "turn over", "revenue"},
		Fields:        []FieldSpec{fromDateField, toDateField, productField, productDetailField, levelField, userField},
	},
	{
		ID:            Outstanding,
		Display:       "Outstanding Report",
		Description:   "current outstanding balance per product and user",
		Abbreviations: []string{"os", "out standing", "outstanding balance"},
		Fields:        []FieldSpec{productField, userField},
	},
	{
		ID:            TopOutstanding,
		Display:       "Top Outstanding Report",
		Description:   "the N largest outstanding balances per product",
		Abbreviations: []string{"top os", "top outstanding", "top n outstanding"},
		Fields:        []FieldSpec{productField, topField},
	},
}

// Definition returns the schema for a report ID.
func Definition(id ID) (Schema, bool) {
	for _, s := range definitions {
		if s.ID == id {
			return s, true
		}
	}
	return Schema{}, false
}

// Definitions returns every report schema in a stable order.
func Definitions() []Schema {
	out := make([]Schema, len(definitions))
	copy(out, definitions)
	return out
}

// DisplayName returns the human-readable report name, or a fallback prompt
// when the report is unresolved.
func DisplayName(id ID) string {
	if s, ok := Definition(id); ok {
		return s.Display
	}
	return "Could not find the Function/Report, please give me a valid Function/Report"
}

// KnownAliases returns the lower-cased alias and canonical strings of every
// categorical field across all schemas. The extractor uses it to reject
// usernames that are actually echoed column values.
func KnownAliases() map[string]struct{} {
	out := make(map[string]struct{})
	add := func(s string) {
		out[lower(s)] = struct{}{}
	}
	for _, schema := range definitions {
		for _, f := range schema.Fields {
			for _, v := range f.Enum {
				add(v)
			}
			for canonical, aliases := range f.Aliases {
				add(canonical)
				for _, a := range aliases {
					add(a)
				}
			}
		}
	}
	return out
}

func lower(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
