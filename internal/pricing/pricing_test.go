package pricing

import "testing"

func mustItem(t *testing.T, kind ItemKind, qty int, price Money) LineItem {
	t.Helper()
	it, err := NewLineItem(kind, qty, price)
	if err != nil {
		t.Fatalf("new line item: %v", err)
	}
	return it
}

func TestNewLineItemRejectsInvalid(t *testing.T) {
	if _, err := NewLineItem(KindProduct, 0, 1000); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := NewLineItem(KindService, -2, 1000); err != ErrInvalidQuantity {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
	if _, err := NewLineItem(KindProduct, 1, -1); err != ErrInvalidPrice {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestLineTotal(t *testing.T) {
	it := mustItem(t, KindService, 3, 150_000)
	if got := it.Total(); got != 450_000 {
		t.Fatalf("expected 450000, got %d", got)
	}
}

func TestSubtotalAdditivity(t *testing.T) {
	// One line with qty n must price the same as n lines with qty 1.
	bundled := []LineItem{mustItem(t, KindProduct, 4, 80_000)}
	var split []LineItem
	for i := 0; i < 4; i++ {
		split = append(split, mustItem(t, KindProduct, 1, 80_000))
	}
	none := Discount{Mode: DiscountNone}
	if a, b := ComputeTotals(bundled, none, 0).Subtotal, ComputeTotals(split, none, 0).Subtotal; a != b {
		t.Fatalf("subtotal mismatch: bundled %d, split %d", a, b)
	}
}

func TestResolveDiscountNoneIgnoresValue(t *testing.T) {
	for _, value := range []Money{0, 50, 1_000_000} {
		if got := ResolveDiscount(200_000, Discount{Mode: DiscountNone, Value: value}); got != 0 {
			t.Fatalf("none mode with value %d: expected 0, got %d", value, got)
		}
	}
}

func TestResolveDiscountPercentBounded(t *testing.T) {
	cases := []struct {
		subtotal Money
		value    Money
		want     Money
	}{
		{380_000, 10, 38_000},
		{100_000, 0, 0},
		{100_000, 100, 100_000},
		{0, 50, 0},
	}
	for _, tc := range cases {
		got := ResolveDiscount(tc.subtotal, Discount{Mode: DiscountPercent, Value: tc.value})
		if got != tc.want {
			t.Fatalf("percent %d of %d: expected %d, got %d", tc.value, tc.subtotal, tc.want, got)
		}
		if got < 0 || got > tc.subtotal {
			t.Fatalf("percent discount %d escaped [0, %d]", got, tc.subtotal)
		}
	}
}

func TestResolveDiscountFixedCapped(t *testing.T) {
	cases := []struct {
		subtotal Money
		value    Money
		want     Money
	}{
		{100_000, 30_000, 30_000},
		{100_000, 100_000, 100_000},
		{100_000, 500_000, 100_000},
		{0, 10_000, 0},
	}
	for _, tc := range cases {
		got := ResolveDiscount(tc.subtotal, Discount{Mode: DiscountFixed, Value: tc.value})
		if got != tc.want {
			t.Fatalf("fixed %d on %d: expected %d, got %d", tc.value, tc.subtotal, tc.want, got)
		}
	}
}

func TestDiscountValidate(t *testing.T) {
	valid := []Discount{
		{Mode: DiscountNone, Value: -5},
		{Mode: DiscountPercent, Value: 0},
		{Mode: DiscountPercent, Value: 100},
		{Mode: DiscountFixed, Value: 0},
		{Mode: DiscountFixed, Value: 9_999_999},
	}
	for _, d := range valid {
		if err := d.Validate(); err != nil {
			t.Fatalf("expected %+v valid, got %v", d, err)
		}
	}
	invalid := []Discount{
		{Mode: DiscountPercent, Value: 101},
		{Mode: DiscountPercent, Value: -1},
		{Mode: DiscountFixed, Value: -1},
		{Mode: "voucher", Value: 10},
	}
	for _, d := range invalid {
		if err := d.Validate(); err != ErrInvalidDiscount {
			t.Fatalf("expected %+v rejected, got %v", d, err)
		}
	}
}

func TestComputeTotalsPercentWithShipping(t *testing.T) {
	items := []LineItem{
		mustItem(t, KindService, 2, 150_000),
		mustItem(t, KindProduct, 1, 80_000),
	}
	got := ComputeTotals(items, Discount{Mode: DiscountPercent, Value: 10}, 20_000)
	want := Summary{Subtotal: 380_000, Discount: 38_000, Shipping: 20_000, Total: 362_000}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestComputeTotalsFixedOverSubtotal(t *testing.T) {
	items := []LineItem{mustItem(t, KindProduct, 1, 100_000)}
	got := ComputeTotals(items, Discount{Mode: DiscountFixed, Value: 500_000}, 0)
	if got.Discount != 100_000 {
		t.Fatalf("expected discount capped at 100000, got %d", got.Discount)
	}
	if got.Total != 0 {
		t.Fatalf("expected total 0, got %d", got.Total)
	}
}

func TestComputeTotalsEmptyOrder(t *testing.T) {
	got := ComputeTotals(nil, Discount{Mode: DiscountNone}, 15_000)
	if got.Subtotal != 0 || got.Total != 15_000 {
		t.Fatalf("expected subtotal 0 and total 15000, got %+v", got)
	}
}

func TestComputeTotalsNeverNegative(t *testing.T) {
	items := []LineItem{mustItem(t, KindService, 1, 50_000)}
	for _, d := range []Discount{
		{Mode: DiscountFixed, Value: 999_999},
		{Mode: DiscountPercent, Value: 100},
	} {
		if got := ComputeTotals(items, d, 0); got.Total < 0 {
			t.Fatalf("total went negative: %+v", got)
		}
	}
}

func TestComputeTotalsDeterministic(t *testing.T) {
	items := []LineItem{mustItem(t, KindProduct, 2, 75_000)}
	d := Discount{Mode: DiscountPercent, Value: 25}
	first := ComputeTotals(items, d, 10_000)
	second := ComputeTotals(items, d, 10_000)
	if first != second {
		t.Fatalf("recomputation diverged: %+v vs %+v", first, second)
	}
}

func TestValidateShipping(t *testing.T) {
	if err := ValidateShipping(0); err != nil {
		t.Fatalf("zero fee should be valid: %v", err)
	}
	if err := ValidateShipping(-1); err != ErrInvalidShipping {
		t.Fatalf("expected ErrInvalidShipping, got %v", err)
	}
}
