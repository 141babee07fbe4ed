package field

import (
	"math"
	"testing"
)

func TestInitialize_FixedLength(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{name: "explicit size", size: 256, expected: 256},
		{name: "default on zero", size: 0, expected: DefaultSize},
		{name: "default on negative", size: -5, expected: DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Initialize(tt.size, 42)
			if len(f) != tt.expected {
				t.Errorf("Expected length %d, got %d", tt.expected, len(f))
			}
		})
	}
}

func TestInitialize_Deterministic(t *testing.T) {
	a := Initialize(128, 7)
	b := Initialize(128, 7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same seed produced different fields at index %d: %v != %v", i, a[i], b[i])
		}
	}

	c := Initialize(128, 8)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different seeds produced identical fields")
	}
}

func TestInitialize_AmplitudeScale(t *testing.T) {
	f := Initialize(4096, 1)
	var sum float64
	for _, x := range f {
		sum += x * x
	}
	// Variance of N(0, 0.1) samples is 0.01; the mean square should be
	// close to that for a large field.
	meanSquare := sum / float64(len(f))
	if meanSquare > 0.02 || meanSquare < 0.005 {
		t.Errorf("Mean square amplitude %v outside expected scale", meanSquare)
	}
}

func TestEvolve_Deterministic(t *testing.T) {
	f := Field{1.0, -2.0, 0.5}
	f.Evolve(0.8, 0.5)

	damping := 1 - 0.5*0.01
	drive := 0.8 * 0.05
	expected := []float64{1.0*damping + drive, -2.0*damping + drive, 0.5*damping + drive}

	for i := range f {
		if math.Abs(f[i]-expected[i]) > 1e-12 {
			t.Errorf("Element %d: expected %v, got %v", i, expected[i], f[i])
		}
	}
}

func TestEvolve_LengthInvariant(t *testing.T) {
	f := Initialize(64, 3)
	for i := 0; i < 100; i++ {
		f.Evolve(1.0, 0.9)
	}
	if len(f) != 64 {
		t.Errorf("Field length changed after evolution: %d", len(f))
	}
}

func TestEvolve_ZeroStimulusDamps(t *testing.T) {
	f := Field{1.0, 1.0, 1.0, 1.0}
	before := Stability(f)
	for i := 0; i < 50; i++ {
		f.Evolve(0, 0.9)
	}
	after := Stability(f)
	if after >= before {
		t.Errorf("Expected stability to decay under damping with no stimulus: before=%v after=%v", before, after)
	}
}

func TestClone_Independent(t *testing.T) {
	f := Field{1, 2, 3}
	c := f.Clone()
	c[0] = 99
	if f[0] != 1 {
		t.Error("Mutating the clone changed the original field")
	}
}
