package abbrev

import (
	"context"
	"fmt"

	"github.com/sweetpotato0/reportflow/report"
)

// Entities resolves free-text values for categorical fields onto their
// canonical vocabulary, one hybrid index per report field. It is the
// field-level counterpart of the report-name index.
type Entities struct {
	indexes map[report.ID]map[string]*Index
}

// NewEntities builds and indexes every categorical field of every report.
// The options apply to each field index alike.
func NewEntities(ctx context.Context, opts ...Option) (*Entities, error) {
	e := &Entities{indexes: make(map[report.ID]map[string]*Index)}
	for _, s := range report.Definitions() {
		fields := make(map[string]*Index)
		for _, f := range s.Fields {
			if f.Enum == nil {
				continue
			}
			idx := New(opts...)
			if err := idx.Build(ctx, fieldAliasEntries(f)); err != nil {
				return nil, fmt.Errorf("abbrev: index %s %s: %w", s.ID, f.Name, err)
			}
			fields[f.Name] = idx
		}
		e.indexes[s.ID] = fields
	}
	return e, nil
}

// Resolve maps a free-text value onto the field's canonical vocabulary. The
// second return is false when the field has no index or nothing matches.
func (e *Entities) Resolve(ctx context.Context, id report.ID, field, value string) (string, bool) {
	if e == nil {
		return "", false
	}
	idx, ok := e.indexes[id][field]
	if !ok {
		return "", false
	}
	matches, err := idx.Search(ctx, value, 1)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0].Key, true
}
