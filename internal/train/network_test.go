package train

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

func newRandomNetwork(t *testing.T, architecture []int, seed int64) *Network {
	t.Helper()
	var n, err = NewNetwork(architecture)
	if err != nil {
		t.Fatal(err)
	}
	n.Randomize(rand.New(rand.NewSource(seed)), -1, 1)
	return n
}

func TestNewNetworkShapes(t *testing.T) {
	var n, err = NewNetwork([]int{3, 5, 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(n.Activations) != 3 || len(n.Weights) != 2 || len(n.Biases) != 2 {
		t.Fatal("wrong layer counts")
	}
	var shapes = []struct {
		m          ml.Matrix
		rows, cols int
	}{
		{n.Activations[0], 1, 3},
		{n.Activations[1], 1, 5},
		{n.Activations[2], 1, 2},
		{n.Weights[0], 3, 5},
		{n.Weights[1], 5, 2},
		{n.Biases[0], 1, 5},
		{n.Biases[1], 1, 2},
	}
	for i, s := range shapes {
		if s.m.Rows != s.rows || s.m.Cols != s.cols {
			t.Errorf("matrix %v: %vx%v want %vx%v", i, s.m.Rows, s.m.Cols, s.rows, s.cols)
		}
	}
	if n.ParameterCount() != 3*5+5+5*2+2 {
		t.Error("parameter count", n.ParameterCount())
	}
}

func TestNewNetworkInvalidArchitecture(t *testing.T) {
	tests := []struct {
		name         string
		architecture []int
	}{
		{"empty", nil},
		{"single layer", []int{3}},
		{"zero width", []int{2, 0, 1}},
		{"negative width", []int{2, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var _, err = NewNetwork(tt.architecture)
			if !errors.Is(err, ml.ErrDimensionMismatch) {
				t.Errorf("got %v", err)
			}
		})
	}
}

func TestRandomizeLeavesActivations(t *testing.T) {
	var n = newRandomNetwork(t, []int{2, 3, 1}, 1)
	for _, a := range n.Activations {
		for _, x := range a.Data {
			if x != 0 {
				t.Fatal("activation changed by randomize")
			}
		}
	}
	for _, x := range n.Parameters() {
		if x < -1 || x > 1 {
			t.Fatal("parameter out of range", x)
		}
	}
}

func TestRandomizeSameSource(t *testing.T) {
	var a = newRandomNetwork(t, []int{2, 4, 4, 1}, 7)
	var b = newRandomNetwork(t, []int{2, 4, 4, 1}, 7)
	if !floats.Equal(a.Parameters(), b.Parameters()) {
		t.Error("networks differ")
	}
}

func TestForwardOutputWidth(t *testing.T) {
	var architectures = [][]int{
		{1, 1},
		{2, 1},
		{2, 3, 1},
		{3, 7, 7, 4},
		{5, 2, 9, 1, 3},
	}
	for i, architecture := range architectures {
		var n = newRandomNetwork(t, architecture, int64(i))
		var input = make([]float64, architecture[0])
		for j := range input {
			input[j] = float64(j) / float64(len(input))
		}
		var output, err = n.Predict(input)
		if err != nil {
			t.Fatal(err)
		}
		if len(output) != architecture[len(architecture)-1] {
			t.Errorf("%v: output width %v", architecture, len(output))
		}
		for _, x := range output {
			if x <= 0 || x >= 1 {
				t.Errorf("%v: sigmoid output %v", architecture, x)
			}
		}
	}
}

func TestForwardDeterminism(t *testing.T) {
	var a = newRandomNetwork(t, []int{3, 6, 2}, 3)
	var b, err = NewNetwork([]int{3, 6, 2})
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetParameters(a.Parameters()); err != nil {
		t.Fatal(err)
	}
	var input = []float64{0.3, -0.2, 0.9}
	outA, err := a.Predict(input)
	if err != nil {
		t.Fatal(err)
	}
	outB, err := b.Predict(input)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(outA, outB) {
		t.Error(outA, outB)
	}
	again, _ := a.Predict(input)
	if !floats.Equal(outA, again) {
		t.Error("second forward differs", outA, again)
	}
}

func TestForwardKnownValue(t *testing.T) {
	var n, err = NewNetwork([]int{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	n.Weights[0].Set(0, 0, 2)
	n.Weights[0].Set(1, 0, -1)
	n.Biases[0].Set(0, 0, 0.5)
	output, err := n.Predict([]float64{1, 3})
	if err != nil {
		t.Fatal(err)
	}
	var want = ml.Sigmoid(2 - 3 + 0.5)
	if output[0] != want {
		t.Errorf("got %v want %v", output[0], want)
	}
}

func TestPredictWrongInput(t *testing.T) {
	var n = newRandomNetwork(t, []int{2, 1}, 1)
	var _, err = n.Predict([]float64{1, 2, 3})
	if !errors.Is(err, ml.ErrDimensionMismatch) {
		t.Errorf("got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	var n = newRandomNetwork(t, []int{2, 4, 4, 1}, 11)
	var buf bytes.Buffer
	if err := n.Save(&buf); err != nil {
		t.Fatal(err)
	}
	var loaded, err = LoadNetwork(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if !loaded.SameArchitecture(n) {
		t.Fatal(loaded.Architecture)
	}
	if !floats.Equal(loaded.Parameters(), n.Parameters()) {
		t.Error("parameters differ")
	}

	_, err = LoadNetwork(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	if err == nil {
		t.Error("truncated file loaded")
	}
	var corrupted = append([]byte(nil), buf.Bytes()...)
	corrupted[0] = 'X'
	_, err = LoadNetwork(bytes.NewReader(corrupted))
	if !errors.Is(err, ml.ErrConfiguration) {
		t.Errorf("bad magic: got %v", err)
	}
}

func networkHeader(architecture ...uint32) []byte {
	var buf = []byte{78, 86, 1, 0}
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(architecture)))
	for _, width := range architecture {
		buf = binary.LittleEndian.AppendUint32(buf, width)
	}
	return buf
}

func TestLoadNetworkCorruptHeader(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
	}{
		{"huge layers", networkHeader(1<<20, 1<<20)},
		{"too many parameters", networkHeader(1<<12, 1<<12, 1<<12)},
		{"width over limit", networkHeader(2, 1<<20+1)},
		{"single layer", networkHeader(4)},
		{"zero width", networkHeader(2, 0)},
		{"layer count over limit", networkHeader(make([]uint32, 1<<16+1)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var _, err = LoadNetwork(bytes.NewReader(tt.header))
			if err == nil {
				t.Fatal("corrupt header loaded")
			}
			if !errors.Is(err, ml.ErrConfiguration) && !errors.Is(err, ml.ErrDimensionMismatch) {
				t.Errorf("got %v", err)
			}
		})
	}

	// a header within limits but without weights fails on read
	var _, err = LoadNetwork(bytes.NewReader(networkHeader(2, 3, 1)))
	if err == nil {
		t.Error("network without weights loaded")
	}
}

func TestForwardDoesNotAllocate(t *testing.T) {
	var n = newRandomNetwork(t, []int{2, 4, 4, 1}, 1)
	if err := n.SetInput([]float64{1, 0}); err != nil {
		t.Fatal(err)
	}
	var allocs = testing.AllocsPerRun(100, func() {
		if err := n.Forward(); err != nil {
			t.Fatal(err)
		}
	})
	if allocs != 0 {
		t.Errorf("forward allocates %v times", allocs)
	}
}
