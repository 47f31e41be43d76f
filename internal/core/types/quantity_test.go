package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{NewQuantityFromFloat64(0), "0.0000"},
		{NewQuantityFromFloat64(1.5), "1.5000"},
		{NewQuantityFromFloat64(-2.25), "-2.2500"},
		{NewQuantityFromInt64Scaled(1), "0.0001"},
		{NewQuantityFromFloat64(1000), "1000.0000"},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String() = %s, want %s", got, tt.want)
		}
	}
}

func TestQuantityUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Quantity
	}{
		{`12.5`, NewQuantityFromFloat64(12.5)},
		{`"12.5"`, NewQuantityFromFloat64(12.5)},
		{`-3`, NewQuantityFromFloat64(-3)},
		{`0.00015`, NewQuantityFromInt64Scaled(1)}, // extra digits truncate
		{`null`, 0},
		{`"1e3"`, NewQuantityFromFloat64(1000)},
	}
	for _, tt := range tests {
		var q Quantity
		if err := json.Unmarshal([]byte(tt.in), &q); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if q != tt.want {
			t.Errorf("Unmarshal(%s) = %d, want %d", tt.in, q, tt.want)
		}
	}

	var q Quantity
	if err := json.Unmarshal([]byte(`""`), &q); err == nil {
		t.Error("expected error for empty string")
	}
}

func TestQuantityJSONRoundTrip(t *testing.T) {
	in := NewQuantityFromFloat64(37.5)
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Encoded as a plain JSON number, not a string.
	if string(data) != "37.5000" {
		t.Errorf("Marshal = %s, want 37.5000", data)
	}
	var out Quantity
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("round trip changed value: %d -> %d", in, out)
	}
}

func TestQuantityDecimal(t *testing.T) {
	q := NewQuantityFromFloat64(37.5)
	if !q.Decimal().Equal(decimal.RequireFromString("37.5")) {
		t.Errorf("Decimal() = %s", q.Decimal())
	}

	// Decimal -> Quantity rounds to 4 places.
	d := decimal.RequireFromString("0.00015")
	if got := NewQuantityFromDecimal(d); got != NewQuantityFromInt64Scaled(2) {
		t.Errorf("NewQuantityFromDecimal(0.00015) = %d, want 2 (rounded)", got)
	}
}

func TestQuantityArithmeticIsExact(t *testing.T) {
	// 0.1 + 0.2 == 0.3 holds in fixed point; no epsilon needed.
	a := NewQuantityFromFloat64(0.1)
	b := NewQuantityFromFloat64(0.2)
	if a+b != NewQuantityFromFloat64(0.3) {
		t.Error("0.1 + 0.2 != 0.3")
	}

	var total Quantity
	step := NewQuantityFromFloat64(0.001)
	for i := 0; i < 1000; i++ {
		total += step
	}
	if total != NewQuantityFromFloat64(1) {
		t.Errorf("1000 * 0.001 = %s, want 1.0000", total)
	}
}

func TestQuantityMinAbsNeg(t *testing.T) {
	a := NewQuantityFromFloat64(5)
	b := NewQuantityFromFloat64(3)
	if a.Min(b) != b {
		t.Error("Min picked the larger value")
	}
	if b.Min(a) != b {
		t.Error("Min is not symmetric")
	}
	if a.Neg() != NewQuantityFromFloat64(-5) {
		t.Error("Neg")
	}
	if a.Neg().Abs() != a {
		t.Error("Abs")
	}
}
