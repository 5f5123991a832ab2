package extract

import (
	"context"
	"testing"
	"time"

	"github.com/sweetpotato0/reportflow/abbrev"
	"github.com/sweetpotato0/reportflow/llm"
	"github.com/sweetpotato0/reportflow/pool"
	"github.com/sweetpotato0/reportflow/report"
)

// scriptClient answers by schema name so per-field calls can be scripted
// independently.
type scriptClient struct {
	responses map[string]string
}

func (s *scriptClient) Complete(ctx context.Context, req *llm.Request) (string, error) {
	if resp, ok := s.responses[req.SchemaName]; ok {
		return resp, nil
	}
	switch req.SchemaName {
	case "date_range":
		return `{"relative": "N/A", "from_date": "N/A", "to_date": "N/A"}`, nil
	case "user_extract":
		return `{"user": "N/A"}`, nil
	case "top_extract":
		return `{"top": "N/A"}`, nil
	default:
		return `{"` + schemaField(req.SchemaName) + `": "All"}`, nil
	}
}

func schemaField(name string) string {
	if len(name) > len("_extract") {
		return name[:len(name)-len("_extract")]
	}
	return name
}

// fixedNow is a Wednesday.
var fixedNow = time.Date(2026, 8, 26, 15, 4, 0, 0, time.UTC)

func newExtractor(responses map[string]string) *Extractor {
	return New(&scriptClient{responses: responses}, pool.New(4), WithClock(func() time.Time { return fixedNow }))
}

func TestExtractExplicitDates(t *testing.T) {
	e := newExtractor(map[string]string{
		"date_range":      `{"relative": "N/A", "from_date": "01/08/2026", "to_date": "07/08/2026"}`,
		"product_extract": `{"product": "Casino"}`,
	})

	got, err := e.Extract(context.Background(), report.Turnover, nil, "casino turnover 01/08 to 07/08")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldFromDate] != "2026-08-01" || got[report.FieldToDate] != "2026-08-07" {
		t.Fatalf("dates: got %q..%q", got[report.FieldFromDate], got[report.FieldToDate])
	}
	if got[report.FieldProduct] != "Casino" {
		t.Fatalf("product: got %q", got[report.FieldProduct])
	}
	if got[report.FieldUser] != report.Unspecified {
		t.Fatalf("user should default, got %q", got[report.FieldUser])
	}
}

func TestExtractRelativeDates(t *testing.T) {
	cases := map[string][2]string{
		"today":      {"2026-08-26", "2026-08-26"},
		"yesterday":  {"2026-08-25", "2026-08-25"},
		"this_week":  {"2026-08-24", "2026-08-26"},
		"last_week":  {"2026-08-17", "2026-08-23"},
		"this_month": {"2026-08-01", "2026-08-26"},
		"last_month": {"2026-07-01", "2026-07-31"},
		"this_year":  {"2026-01-01", "2026-08-26"},
		"last_year":  {"2025-01-01", "2025-12-31"},
	}
	for keyword, want := range cases {
		e := newExtractor(map[string]string{
			"date_range": `{"relative": "` + keyword + `", "from_date": "N/A", "to_date": "N/A"}`,
		})
		got, err := e.Extract(context.Background(), report.WinlostDetail, nil, "wl "+keyword)
		if err != nil {
			t.Fatalf("%s: Extract error: %v", keyword, err)
		}
		if got[report.FieldFromDate] != want[0] || got[report.FieldToDate] != want[1] {
			t.Fatalf("%s: expected %s..%s, got %s..%s",
				keyword, want[0], want[1], got[report.FieldFromDate], got[report.FieldToDate])
		}
	}
}

func TestExtractEnumResolvesThroughEntities(t *testing.T) {
	entities, err := abbrev.NewEntities(context.Background())
	if err != nil {
		t.Fatalf("NewEntities error: %v", err)
	}

	responses := map[string]string{
		"product_extract": `{"product": "virtual games"}`,
	}
	e := New(&scriptClient{responses: responses}, pool.New(4),
		WithClock(func() time.Time { return fixedNow }),
		WithEntities(entities))

	got, err := e.Extract(context.Background(), report.Outstanding, nil, "os on virtual games")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldProduct] != "Virtual Sports" {
		t.Fatalf("stray answer should resolve through the entity index, got %q", got[report.FieldProduct])
	}

	// without the index the stray answer collapses to the default
	plain := newExtractor(responses)
	got, err = plain.Extract(context.Background(), report.Outstanding, nil, "os on virtual games")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldProduct] != report.All {
		t.Fatalf("expected default without the index, got %q", got[report.FieldProduct])
	}
}

func TestExtractUserSanitized(t *testing.T) {
	e := newExtractor(map[string]string{
		"user_extract": `{"user": "player01"}`,
	})
	got, err := e.Extract(context.Background(), report.Outstanding, nil, "outstanding for player01")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldUser] != "player01" {
		t.Fatalf("user: got %q", got[report.FieldUser])
	}
}

func TestSanitizeUser(t *testing.T) {
	cases := map[string]string{
		"player01":     "player01",
		"AG8821":       "AG8821",
		"":             report.Unspecified,
		"N/A":          report.Unspecified,
		"two words":    report.Unspecified,
		"Sportsbook":   report.Unspecified,
		"sb":           report.Unspecified,
		"Master Agent": report.Unspecified,
	}
	for in, want := range cases {
		if got := SanitizeUser(in); got != want {
			t.Fatalf("SanitizeUser(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestExtractTopLexicalWins(t *testing.T) {
	e := newExtractor(map[string]string{
		"top_extract": `{"top": "99"}`,
	})
	got, err := e.Extract(context.Background(), report.TopOutstanding, nil, "top 5 outstanding")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldTop] != "5" {
		t.Fatalf("literal number should win, got %q", got[report.FieldTop])
	}
}

func TestExtractTopDefaultsWithoutNumber(t *testing.T) {
	e := newExtractor(nil)
	got, err := e.Extract(context.Background(), report.TopOutstanding, nil, "top outstanding please")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if got[report.FieldTop] != report.DefaultTop {
		t.Fatalf("expected default top, got %q", got[report.FieldTop])
	}
}

func TestExtractUnknownReport(t *testing.T) {
	e := newExtractor(nil)
	if _, err := e.Extract(context.Background(), "", nil, "anything"); err == nil {
		t.Fatal("expected error for unknown report")
	}
}

func TestResolveRelativeUnknown(t *testing.T) {
	from, to := resolveRelative("fortnight", fixedNow)
	if from != report.Unspecified || to != report.Unspecified {
		t.Fatalf("unknown keyword should be unspecified, got %s..%s", from, to)
	}
}
