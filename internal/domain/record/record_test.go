package record

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, s string) Record {
	t.Helper()
	var r Record
	if err := json.Unmarshal([]byte(s), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return r
}

func TestUnmarshal_Kinds(t *testing.T) {
	r := decode(t, `{"name":"HDFC Top 100","aum":1234.50,"units":100,"active":true,
		"tags":["a", "b"],"rating":null}`)

	if s, ok := r.String("name"); !ok || s != "HDFC Top 100" {
		t.Errorf("name: got %q, %v", s, ok)
	}
	if n, ok := r.Number("aum"); !ok || n != 1234.5 {
		t.Errorf("aum: got %v, %v", n, ok)
	}
	if txt, _ := r.Text("aum"); txt != "1234.50" {
		t.Errorf("aum literal should be preserved, got %q", txt)
	}
	if txt, _ := r.Text("units"); txt != "100" {
		t.Errorf("units: got %q", txt)
	}
	if v, _ := r.Get("active"); v.Kind() != KindBool || !v.Truthy() {
		t.Errorf("active: got %+v", v)
	}
	if txt, _ := r.Text("tags"); txt != `["a","b"]` {
		t.Errorf("tags should be compact raw JSON, got %q", txt)
	}
	if r.Has("rating") {
		t.Error("null field must be absent")
	}
}

func TestMarshal_RoundTripPreservesLiterals(t *testing.T) {
	in := `{"aum":100.0,"name":"X","nested":{"a":1}}`
	r := decode(t, in)
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Errorf("got %s, want %s", out, in)
	}
}

func TestString_TypeMismatch(t *testing.T) {
	r := Record{"aum": Number(5)}
	if _, ok := r.String("aum"); ok {
		t.Error("numeric field must not read as string")
	}
	if _, ok := r.Number("missing"); ok {
		t.Error("missing field must not read as number")
	}
}

func TestFallbackChains(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		get  func(Record) (string, bool)
		want string
		ok   bool
	}{
		{"fund_type direct", Record{"fund_type": String("Equity")}, Record.FundType, "Equity", true},
		{"fund_type fallback", Record{"instrument_type": String("ETF")}, Record.FundType, "ETF", true},
		{"fund_type empty falls through", Record{"fund_type": String(""), "instrument_type": String("ETF")},
			Record.FundType, "ETF", true},
		{"sector from industry", Record{"industry": String("Banks")}, Record.Sector, "Banks", true},
		{"industry from sector", Record{"sector": String("Tech")}, Record.Industry, "Tech", true},
		{"amc company", Record{"company_name": String("HDFC AMC")}, Record.AMC, "HDFC AMC", true},
		{"amc issuer", Record{"issuer_name": String("SBI")}, Record.AMC, "SBI", true},
		{"subcategory camel", Record{"subCategory": String("Large Cap")}, Record.Subcategory, "Large Cap", true},
		{"nothing", Record{}, Record.Sector, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.get(tc.rec)
			if got != tc.want || ok != tc.ok {
				t.Errorf("got (%q, %v), want (%q, %v)", got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestSource_Default(t *testing.T) {
	if s := (Record{}).Source(); s != "unknown" {
		t.Errorf("got %q", s)
	}
	if s := (Record{"source": String("stocks")}).Source(); s != "stocks" {
		t.Errorf("got %q", s)
	}
}

func TestCloneMerge_DoesNotTouchOriginal(t *testing.T) {
	orig := Record{"name": String("A"), "category": String("Equity")}
	cp := orig.Clone()
	cp.Merge(Record{"category": String("Debt"), "fund_name": String("A")})

	if s, _ := orig.String("category"); s != "Equity" {
		t.Errorf("original mutated: %q", s)
	}
	if s, _ := cp.String("category"); s != "Debt" {
		t.Errorf("merge should overwrite, got %q", s)
	}
	if !cp.Has("fund_name") {
		t.Error("merge should add new fields")
	}
}

func TestValue_Equal(t *testing.T) {
	a, _ := NumberLiteral("100")
	b, _ := NumberLiteral("100.0")
	if !a.Equal(b) {
		t.Error("numbers with different literals but equal payload should be equal")
	}
	if String("100").Equal(a) {
		t.Error("different kinds must not be equal")
	}
}

func TestUnmarshal_NullVersusEmptyObject(t *testing.T) {
	var rows []Record
	if err := json.Unmarshal([]byte(`[null, {}, {"name": null}]`), &rows); err != nil {
		t.Fatal(err)
	}
	if rows[0] != nil {
		t.Errorf("null decoded to %v, want nil", rows[0])
	}
	for _, i := range []int{1, 2} {
		if rows[i] == nil || len(rows[i]) != 0 {
			t.Errorf("row %d = %#v, want empty non-nil record", i, rows[i])
		}
	}
}
