package inventory

import "testing"

func TestValidateDeltaAdd(t *testing.T) {
	cases := []struct {
		delta int
		want  error
	}{
		{0, ErrDeltaNotPositive},
		{-5, ErrDeltaNotPositive},
		{1, nil},
		{250, nil},
	}
	for _, tc := range cases {
		if got := ValidateDelta(ModeAdd, tc.delta); got != tc.want {
			t.Fatalf("add delta %d: expected %v, got %v", tc.delta, tc.want, got)
		}
	}
}

func TestValidateDeltaAdjust(t *testing.T) {
	cases := []struct {
		delta int
		want  error
	}{
		{0, ErrDeltaZero},
		{-5, nil},
		{5, nil},
	}
	for _, tc := range cases {
		if got := ValidateDelta(ModeAdjust, tc.delta); got != tc.want {
			t.Fatalf("adjust delta %d: expected %v, got %v", tc.delta, tc.want, got)
		}
	}
}

func TestValidateDeltaMessagesDiffer(t *testing.T) {
	// Handlers surface these verbatim as inline form errors.
	if ErrDeltaNotPositive.Error() == ErrDeltaZero.Error() {
		t.Fatal("rejection reasons must be mode-specific")
	}
}

func TestProjectStockAdd(t *testing.T) {
	if got := ProjectStock(ModeAdd, 5, 20); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}

func TestProjectStockAdjust(t *testing.T) {
	cases := []struct {
		current int
		delta   int
		want    int
	}{
		{10, 5, 15},
		{10, -4, 6},
		{5, -20, 0}, // clamped, never -15
		{0, -1, 0},
	}
	for _, tc := range cases {
		if got := ProjectStock(ModeAdjust, tc.current, tc.delta); got != tc.want {
			t.Fatalf("adjust %d by %d: expected %d, got %d", tc.current, tc.delta, tc.want, got)
		}
	}
}

func TestProjectStockAdjustFloor(t *testing.T) {
	for current := 0; current <= 8; current++ {
		for delta := -10; delta <= 10; delta++ {
			if delta == 0 {
				continue
			}
			if got := ProjectStock(ModeAdjust, current, delta); got < 0 {
				t.Fatalf("adjust %d by %d projected below zero: %d", current, delta, got)
			}
		}
	}
}
