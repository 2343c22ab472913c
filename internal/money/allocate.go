package money

// Allocate distributes total across the given weights proportionally.
// Each share is total*weight/sum(weights) rounded half away from zero to
// the minor unit; the rounding remainder is added to the last
// nonzero-weight share so the shares always sum to total exactly.
//
// If every weight is zero (an order of free items) the entire total goes
// to the first share. An empty weight list yields nil.
func Allocate(total Amount, weights []Amount) []Amount {
	if len(weights) == 0 {
		return nil
	}

	shares := make([]Amount, len(weights))

	var sum int64
	for _, w := range weights {
		sum += int64(w)
	}
	if sum == 0 {
		shares[0] = total
		return shares
	}

	last := 0
	var allocated int64
	for i, w := range weights {
		if w != 0 {
			last = i
		}
		shares[i] = roundDiv(int64(total)*int64(w), sum)
		allocated += int64(shares[i])
	}

	// Force exact conservation: the division remainder lands on the last
	// weighted line.
	shares[last] += total - Amount(allocated)
	return shares
}

// roundDiv divides num by den rounding half away from zero.
func roundDiv(num, den int64) Amount {
	q := num / den
	r := num % den
	if r == 0 {
		return Amount(q)
	}
	if 2*abs(r) >= abs(den) {
		if (num < 0) != (den < 0) {
			q--
		} else {
			q++
		}
	}
	return Amount(q)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
