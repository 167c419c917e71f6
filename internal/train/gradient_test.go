package train

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
)

func randomTrainingSet(t *testing.T, rnd *rand.Rand, rows, inputs, outputs int) *TrainingSet {
	t.Helper()
	var in = ml.NewMatrix(rows, inputs)
	var out = ml.NewMatrix(rows, outputs)
	in.Randomize(rnd, -1, 1)
	out.Randomize(rnd, 0, 1)
	var set, err = NewTrainingSet(in, out)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func TestGradientAgreement(t *testing.T) {
	tests := []struct {
		name         string
		architecture []int
		rows         int
	}{
		{"2-3-1", []int{2, 3, 1}, 4},
		{"2-1", []int{2, 1}, 3},
		{"3-4-2", []int{3, 4, 2}, 5},
		{"2-4-4-1", []int{2, 4, 4, 1}, 4},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rnd = rand.New(rand.NewSource(int64(i + 1)))
			var set = randomTrainingSet(t, rnd, tt.rows, tt.architecture[0], tt.architecture[len(tt.architecture)-1])

			var n1 = newRandomNetwork(t, tt.architecture, int64(100+i))
			var n2 = newRandomNetwork(t, tt.architecture, int64(100+i))
			var fdGrad = NewGradient(n1)
			var bpGrad = NewGradient(n2)

			if err := FiniteDiff(n1, fdGrad, 1e-3, set); err != nil {
				t.Fatal(err)
			}
			if err := Backprop(n2, bpGrad, set); err != nil {
				t.Fatal(err)
			}

			var want = fdGrad.Parameters()
			var got = bpGrad.Parameters()
			for p := range want {
				if math.Abs(want[p]-got[p]) >= 1e-2 {
					t.Errorf("parameter %v: finite difference %v backprop %v", p, want[p], got[p])
				}
			}
			if !floats.Equal(n1.Parameters(), n2.Parameters()) {
				t.Error("finite difference did not restore parameters")
			}
		})
	}
}

// Central differences give a much tighter reference than the forward difference above.
func TestBackpropCentralDifference(t *testing.T) {
	var rnd = rand.New(rand.NewSource(5))
	var set = randomTrainingSet(t, rnd, 6, 3, 2)
	var n = newRandomNetwork(t, []int{3, 5, 4, 2}, 9)
	var probe = n.Clone()

	var g = NewGradient(n)
	if err := Backprop(n, g, set); err != nil {
		t.Fatal(err)
	}

	var want = fd.Gradient(nil, func(x []float64) float64 {
		if err := probe.SetParameters(x); err != nil {
			t.Fatal(err)
		}
		var c, err = Cost(probe, set)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}, n.Parameters(), &fd.Settings{Formula: fd.Central, Step: 1e-6})

	if !floats.EqualApprox(want, g.Parameters(), 1e-6) {
		t.Errorf("backprop %v\ncentral %v", g.Parameters(), want)
	}
}

func TestGradientResetsAccumulator(t *testing.T) {
	var set = XOR()
	var n = newRandomNetwork(t, []int{2, 3, 1}, 2)
	var g = NewGradient(n)
	if err := Backprop(n, g, set); err != nil {
		t.Fatal(err)
	}
	var first = g.Parameters()
	if err := Backprop(n, g, set); err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(first, g.Parameters()) {
		t.Error("second backprop accumulated into the previous gradient")
	}
	if err := FiniteDiff(n, g, 1e-3, set); err != nil {
		t.Fatal(err)
	}
	if err := FiniteDiff(n, g, 1e-3, set); err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(first, g.Parameters(), 1e-2) {
		t.Error("finite difference gradient drifted")
	}
}

func TestGradientMismatchedShapes(t *testing.T) {
	var set = XOR()
	var n = newRandomNetwork(t, []int{2, 3, 1}, 2)
	var other = newRandomNetwork(t, []int{2, 4, 1}, 2)
	if err := Backprop(n, other, set); !errors.Is(err, ml.ErrDimensionMismatch) {
		t.Errorf("backprop: got %v", err)
	}
	if err := FiniteDiff(n, other, 1e-3, set); !errors.Is(err, ml.ErrDimensionMismatch) {
		t.Errorf("finite difference: got %v", err)
	}
	if err := Learn(n, other, 0.1); !errors.Is(err, ml.ErrDimensionMismatch) {
		t.Errorf("learn: got %v", err)
	}

	var wide = newRandomNetwork(t, []int{3, 1}, 1)
	if err := Backprop(wide, NewGradient(wide), set); !errors.Is(err, ml.ErrConfiguration) {
		t.Errorf("wrong input width: got %v", err)
	}
}

func TestBackpropDoesNotAllocate(t *testing.T) {
	var set = XOR()
	var n = newRandomNetwork(t, []int{2, 4, 4, 1}, 1)
	var g = NewGradient(n)
	var allocs = testing.AllocsPerRun(20, func() {
		if err := Backprop(n, g, set); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("backprop allocates %v times", allocs)
	}
}
