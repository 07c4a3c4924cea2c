package mathx

import "testing"

func TestRoundDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{1000, 400, 3},
		{1000, 6000, 0},
		{100000, 6000, 17},
		{5, 2, 3},
		{7, 0, 0},
	}
	for _, tc := range cases {
		if got := RoundDiv(tc.a, tc.b); got != tc.want {
			t.Errorf("RoundDiv(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestClampTickRange(t *testing.T) {
	const top = uint64(^uint32(0))
	cases := []struct{ v, want uint64 }{
		{0, 1},
		{1, 1},
		{500, 500},
		{top + 7, top},
	}
	for _, tc := range cases {
		if got := Clamp(tc.v, 1, top); got != tc.want {
			t.Errorf("Clamp(%d, 1, max) = %d, want %d", tc.v, got, tc.want)
		}
	}
	if got := Clamp(20, 10, 1); got != 10 {
		t.Errorf("swapped bounds: got %d, want 10", got)
	}
}

func TestBetweenPinRange(t *testing.T) {
	for _, pin := range []int{0, 15, 28} {
		if !Between(pin, 0, 28) {
			t.Errorf("pin %d rejected", pin)
		}
	}
	for _, pin := range []int{-1, 29} {
		if Between(pin, 28, 0) {
			t.Errorf("pin %d accepted", pin)
		}
	}
}

func TestMaxFloor(t *testing.T) {
	if Max(uint32(0), 1) != 1 || Max(uint32(9), 1) != 9 {
		t.Fatal("max floor")
	}
}
