package randsrc

import "testing"

func TestSeededSourceIsReproducible(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("draw %d: expected %v, got %v", i, x, y)
		}
		if x, y := a.NormFloat64(), b.NormFloat64(); x != y {
			t.Fatalf("norm draw %d: expected %v, got %v", i, x, y)
		}
	}
}

func TestUniformRange(t *testing.T) {
	src := New(7)
	for i := 0; i < 1000; i++ {
		v := Uniform(src, -10, 10)
		if v < -10 || v >= 10 {
			t.Fatalf("expected value in [-10,10), got %v", v)
		}
	}
}

func TestScriptedRepeatsLastValue(t *testing.T) {
	s := &Scripted{Floats: []float64{0.1, 0.9}, Ints: []int{5}}
	if v := s.Float64(); v != 0.1 {
		t.Errorf("expected 0.1, got %v", v)
	}
	if v := s.Float64(); v != 0.9 {
		t.Errorf("expected 0.9, got %v", v)
	}
	if v := s.Float64(); v != 0.9 {
		t.Errorf("expected repeated 0.9, got %v", v)
	}
	if v := s.NormFloat64(); v != 0 {
		t.Errorf("expected 0 from empty sequence, got %v", v)
	}
	if v := s.Intn(3); v != 2 {
		t.Errorf("expected 5 mod 3 = 2, got %d", v)
	}
}

func TestChance(t *testing.T) {
	s := &Scripted{Floats: []float64{0.05}}
	if !Chance(s, 0.1) {
		t.Error("expected 0.05 < 0.1 to fire")
	}
	if Chance(s, 0.05) {
		t.Error("expected 0.05 < 0.05 not to fire")
	}
	if Chance(s, 0) {
		t.Error("expected zero probability never to fire")
	}
}
