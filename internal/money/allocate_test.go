package money

import "testing"

func sumShares(shares []Amount) Amount {
	var s Amount
	for _, v := range shares {
		s += v
	}
	return s
}

func TestAllocateProportional(t *testing.T) {
	// Two lines with pre-discount gross 30.00 and 70.00, discount 10.00:
	// exact proportional split.
	shares := Allocate(1000, []Amount{3000, 7000})
	if shares[0] != 300 || shares[1] != 700 {
		t.Errorf("Allocate(1000, [3000 7000]) = %v, want [300 700]", shares)
	}
}

func TestAllocateRemainderToLastLine(t *testing.T) {
	// Discount 11.00 over 30/70: 3.30 rounds to 3.00-ish shares in whole
	// currency units; the remainder must land on the last weighted line.
	shares := Allocate(11, []Amount{30, 70})
	if shares[0] != 3 || shares[1] != 8 {
		t.Errorf("Allocate(11, [30 70]) = %v, want [3 8]", shares)
	}
	if sumShares(shares) != 11 {
		t.Errorf("shares sum = %d, want 11", sumShares(shares))
	}
}

func TestAllocateZeroWeightLines(t *testing.T) {
	shares := Allocate(100, []Amount{0, 0, 5})
	if sumShares(shares) != 100 {
		t.Fatalf("shares sum = %d, want 100", sumShares(shares))
	}
	if shares[0] != 0 || shares[1] != 0 || shares[2] != 100 {
		t.Errorf("Allocate(100, [0 0 5]) = %v, want [0 0 100]", shares)
	}
}

func TestAllocateAllZeroWeights(t *testing.T) {
	shares := Allocate(100, []Amount{0, 0, 0})
	if shares[0] != 100 || shares[1] != 0 || shares[2] != 0 {
		t.Errorf("Allocate(100, [0 0 0]) = %v, want full total on first line", shares)
	}
}

func TestAllocateEmptyWeights(t *testing.T) {
	if shares := Allocate(100, nil); shares != nil {
		t.Errorf("Allocate(100, nil) = %v, want nil", shares)
	}
}

func TestAllocateConservation(t *testing.T) {
	cases := []struct {
		total   Amount
		weights []Amount
	}{
		{999, []Amount{1, 1, 1}},
		{1000, []Amount{333, 333, 334}},
		{1, []Amount{100, 100, 100}},
		{-500, []Amount{30, 70}},
		{12345, []Amount{1, 2, 3, 4, 5, 6, 7}},
	}

	for _, c := range cases {
		shares := Allocate(c.total, c.weights)
		if got := sumShares(shares); got != c.total {
			t.Errorf("Allocate(%d, %v): shares sum %d, want %d", c.total, c.weights, got, c.total)
		}
	}
}

func TestAllocateDeterministic(t *testing.T) {
	a := Allocate(997, []Amount{10, 20, 30})
	b := Allocate(997, []Amount{10, 20, 30})
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("allocation not deterministic: %v vs %v", a, b)
		}
	}
}
