package report

import "testing"

func TestParseID(t *testing.T) {
	if got := ParseID("/turnover"); got != Turnover {
		t.Fatalf("expected %v, got %v", Turnover, got)
	}
	if got := ParseID("N/A"); got != "" {
		t.Fatalf("expected empty ID for N/A, got %v", got)
	}
	if got := ParseID("/made_up"); got != "" {
		t.Fatalf("expected empty ID for unknown value, got %v", got)
	}
}

func TestDefinitionFields(t *testing.T) {
	schema, ok := Definition(WinlostDetail)
	if !ok {
		t.Fatal("winlost schema missing")
	}
	want := []string{FieldFromDate, FieldToDate, FieldProduct, FieldProductDetail, FieldLevel, FieldUser}
	got := schema.FieldNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if !schema.HasDateRange() {
		t.Fatal("winlost should require a date range")
	}

	schema, _ = Definition(TopOutstanding)
	if schema.HasDateRange() {
		t.Fatal("top outstanding should not require a date range")
	}
	top, ok := schema.Field(FieldTop)
	if !ok || top.Default != DefaultTop {
		t.Fatalf("expected top default %s, got %+v", DefaultTop, top)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(Turnover); got != "Turnover Report" {
		t.Fatalf("unexpected display name %q", got)
	}
	if got := DisplayName(""); got == "" || got == "Turnover Report" {
		t.Fatalf("expected fallback prompt for unresolved report, got %q", got)
	}
}

func TestKnownAliasesIncludesEnumAndAlias(t *testing.T) {
	known := KnownAliases()
	for _, s := range []string{"sportsbook", "sb", "saba basketball", "super agent", "dm", "all"} {
		if _, ok := known[s]; !ok {
			t.Fatalf("expected %q in known aliases", s)
		}
	}
	if _, ok := known["someplayer99"]; ok {
		t.Fatal("arbitrary username should not appear in alias set")
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"25/12/2025": "2025-12-25",
		"2025-12-25": "2025-12-25",
		"05-01-2026": "2026-01-05",
		"N/A":        Unspecified,
		"":           Unspecified,
		"yesterday":  Unspecified,
		"32/13/2025": Unspecified,
	}
	for in, want := range cases {
		if got := NormalizeDate(in); got != want {
			t.Fatalf("NormalizeDate(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestValidateCoercesAndDefaults(t *testing.T) {
	raw := Fields{
		FieldFromDate: "01/08/2026",
		FieldToDate:   "not a date",
		FieldProduct:  "sb",
		FieldLevel:    "Emperor",
		FieldUser:     "player01",
		"bogus":       "dropped",
	}
	got := Validate(WinlostDetail, raw)

	if got[FieldFromDate] != "2026-08-01" {
		t.Fatalf("from_date: got %q", got[FieldFromDate])
	}
	if got[FieldToDate] != Unspecified {
		t.Fatalf("to_date: expected %q, got %q", Unspecified, got[FieldToDate])
	}
	if got[FieldProduct] != "Sportsbook" {
		t.Fatalf("product alias: got %q", got[FieldProduct])
	}
	if got[FieldLevel] != All {
		t.Fatalf("invalid enum should default, got %q", got[FieldLevel])
	}
	if got[FieldProductDetail] != All {
		t.Fatalf("missing field should default, got %q", got[FieldProductDetail])
	}
	if got[FieldUser] != "player01" {
		t.Fatalf("user: got %q", got[FieldUser])
	}
	if _, ok := got["bogus"]; ok {
		t.Fatal("undeclared field should be dropped")
	}
}

func TestValidateIdempotent(t *testing.T) {
	raw := Fields{FieldProduct: "cs", FieldFromDate: "25/12/2025"}
	once := Validate(Turnover, raw)
	twice := Validate(Turnover, once)
	for k, v := range once {
		if twice[k] != v {
			t.Fatalf("field %s changed on second pass: %q vs %q", k, v, twice[k])
		}
	}
}

func TestValidateTop(t *testing.T) {
	got := Validate(TopOutstanding, Fields{FieldTop: "5"})
	if got[FieldTop] != "5" {
		t.Fatalf("top: got %q", got[FieldTop])
	}
	got = Validate(TopOutstanding, Fields{FieldTop: "-3"})
	if got[FieldTop] != DefaultTop {
		t.Fatalf("negative top should default, got %q", got[FieldTop])
	}
	got = Validate(TopOutstanding, Fields{FieldTop: "many"})
	if got[FieldTop] != DefaultTop {
		t.Fatalf("non-numeric top should default, got %q", got[FieldTop])
	}
}

func TestMergeCarriesForwardDefaults(t *testing.T) {
	prior := Fields{
		FieldFromDate: "2026-08-01", FieldToDate: "2026-08-07",
		FieldProduct: "Sportsbook", FieldProductDetail: All,
		FieldLevel: All, FieldUser: Unspecified,
	}
	current := Fields{
		FieldFromDate: Unspecified, FieldToDate: Unspecified,
		FieldProduct: All, FieldProductDetail: All,
		FieldLevel: "Agent", FieldUser: Unspecified,
	}
	got := Merge(WinlostDetail, prior, current, nil)

	if got[FieldProduct] != "Sportsbook" {
		t.Fatalf("prior product should carry forward, got %q", got[FieldProduct])
	}
	if got[FieldFromDate] != "2026-08-01" || got[FieldToDate] != "2026-08-07" {
		t.Fatalf("prior dates should carry forward, got %q..%q", got[FieldFromDate], got[FieldToDate])
	}
	if got[FieldLevel] != "Agent" {
		t.Fatalf("explicit new value should win, got %q", got[FieldLevel])
	}
}

func TestMergeRemovalWins(t *testing.T) {
	prior := Fields{FieldProduct: "Casino", FieldUser: "player01"}
	current := Fields{FieldProduct: "Casino", FieldUser: "player02"}
	got := Merge(Outstanding, prior, current, []string{FieldUser})

	if got[FieldUser] != Unspecified {
		t.Fatalf("removed field should reset to default, got %q", got[FieldUser])
	}
	if got[FieldProduct] != "Casino" {
		t.Fatalf("untouched field should survive, got %q", got[FieldProduct])
	}
}

func TestMergeFreshSession(t *testing.T) {
	current := Fields{FieldProduct: All, FieldUser: Unspecified}
	got := Merge(Outstanding, nil, current, nil)
	if got[FieldProduct] != All || got[FieldUser] != Unspecified {
		t.Fatalf("fresh session should keep current values, got %v", got)
	}
}

func TestComplete(t *testing.T) {
	f := Defaults(Turnover)
	ok, status := Complete(Turnover, f)
	if ok || status != StatusNoDateRange {
		t.Fatalf("missing both dates: expected %v, got ok=%v status=%v", StatusNoDateRange, ok, status)
	}

	f[FieldToDate] = "2026-08-07"
	ok, status = Complete(Turnover, f)
	if ok || status != StatusFromDateRequired {
		t.Fatalf("to without from: expected %v, got ok=%v status=%v", StatusFromDateRequired, ok, status)
	}

	f[FieldFromDate] = "2026-08-01"
	ok, status = Complete(Turnover, f)
	if !ok || status != StatusSuccess {
		t.Fatalf("full range: expected success, got ok=%v status=%v", ok, status)
	}

	ok, status = Complete(Outstanding, Defaults(Outstanding))
	if !ok || status != StatusSuccess {
		t.Fatalf("no-date report should be complete, got ok=%v status=%v", ok, status)
	}
}

func TestBuildParams(t *testing.T) {
	f := Fields{
		FieldFromDate: "2026-08-01", FieldToDate: "2026-08-07",
		FieldProduct: "Casino", FieldProductDetail: All,
		FieldLevel: "Agent", FieldUser: "player01",
	}
	p := BuildParams(WinlostDetail, f)
	if p.Report != WinlostDetail || p.FromDate != "2026-08-01" || p.User != "player01" {
		t.Fatalf("unexpected params: %+v", p)
	}

	p = BuildParams(TopOutstanding, Fields{FieldProduct: All, FieldTop: "25"})
	if p.Top != 25 {
		t.Fatalf("expected top 25, got %d", p.Top)
	}
}

func TestStatusLabels(t *testing.T) {
	if StatusConfirmed.String() != "confirmed" {
		t.Fatalf("unexpected label %q", StatusConfirmed.String())
	}
	if !StatusSuccess.Actionable() || !StatusConfirmed.Actionable() {
		t.Fatal("success and confirmed should be actionable")
	}
	if StatusNoDateRange.Actionable() {
		t.Fatal("no_date_range should not be actionable")
	}
}
