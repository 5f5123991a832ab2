package abbrev

import (
	"sort"

	"github.com/sweetpotato0/reportflow/report"
)

// ReportEntries builds the searchable aliases for report names: the display
// name, the endpoint's own words and every glossary abbreviation.
func ReportEntries() []Entry {
	var out []Entry
	for _, s := range report.Definitions() {
		key := string(s.ID)
		out = append(out, Entry{Key: key, Text: s.Display})
		for _, a := range s.Abbreviations {
			out = append(out, Entry{Key: key, Text: a})
		}
	}
	return out
}

// FieldEntries builds the aliases for one report's categorical values, used
// when a follow-up turn refines a single parameter.
func FieldEntries(id report.ID) []Entry {
	schema, ok := report.Definition(id)
	if !ok {
		return nil
	}
	var out []Entry
	for _, f := range schema.Fields {
		out = append(out, fieldAliasEntries(f)...)
	}
	return out
}

// fieldAliasEntries builds the searchable aliases for one categorical field:
// each non-default enum value plus its abbreviation glossary.
func fieldAliasEntries(f report.FieldSpec) []Entry {
	var out []Entry
	for _, v := range f.Enum {
		if v == f.Default {
			continue
		}
		out = append(out, Entry{Key: v, Text: v})
	}
	// map iteration order would vary between builds
	canonicals := make([]string, 0, len(f.Aliases))
	for c := range f.Aliases {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)
	for _, canonical := range canonicals {
		for _, a := range f.Aliases[canonical] {
			out = append(out, Entry{Key: canonical, Text: a})
		}
	}
	return out
}
