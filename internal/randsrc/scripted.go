package randsrc

// Scripted replays fixed sequences of draws. When a sequence runs out the
// last value is repeated; an empty sequence yields zero.
type Scripted struct {
	Floats []float64
	Norms  []float64
	Ints   []int

	fi, ni, ii int
}

// Float64 implements Source.
func (s *Scripted) Float64() float64 {
	return next(s.Floats, &s.fi)
}

// NormFloat64 implements Source.
func (s *Scripted) NormFloat64() float64 {
	return next(s.Norms, &s.ni)
}

// Intn implements Source. Scripted values are reduced modulo n.
func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := next(s.Ints, &s.ii)
	if v < 0 {
		v = -v
	}
	return v % n
}

func next[T any](vals []T, idx *int) T {
	var zero T
	if len(vals) == 0 {
		return zero
	}
	if *idx >= len(vals) {
		return vals[len(vals)-1]
	}
	v := vals[*idx]
	*idx++
	return v
}
