package imageset

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/pkg/errors"
)

func TestFromImage(t *testing.T) {
	var img = image.NewGray(image.Rect(0, 0, 4, 2))
	img.SetGray(3, 1, color.Gray{Y: 255})
	img.SetGray(1, 0, color.Gray{Y: 51})

	var set, err = FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 8 {
		t.Fatal("rows", set.Len())
	}
	tests := []struct {
		row    int
		input  []float64
		output float64
	}{
		{0, []float64{0, 0}, 0},
		{1, []float64{0.25, 0}, 0.2},
		{7, []float64{0.75, 0.5}, 1},
	}
	for _, tt := range tests {
		var input, output = set.Sample(tt.row)
		if input[0] != tt.input[0] || input[1] != tt.input[1] || output[0] != tt.output {
			t.Errorf("row %v: %v -> %v", tt.row, input, output)
		}
	}
}

func TestFromImageOffsetBounds(t *testing.T) {
	var img = image.NewGray(image.Rect(10, 20, 12, 21))
	img.SetGray(11, 20, color.Gray{Y: 255})
	var set, err = FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	var _, output = set.Sample(1)
	if output[0] != 1 {
		t.Error(output)
	}
}

func TestFromImageEmpty(t *testing.T) {
	var _, err = FromImage(image.NewGray(image.Rect(0, 0, 0, 3)))
	if !errors.Is(err, ml.ErrConfiguration) {
		t.Errorf("got %v", err)
	}
}

func TestDecodePNG(t *testing.T) {
	var img = image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	var set, err = Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	var _, output = set.Sample(4)
	if output[0] != 1 {
		t.Error(output)
	}
	if err := set.Check([]int{Inputs, 3, Outputs}); err != nil {
		t.Error(err)
	}
}

func TestRenderPNG(t *testing.T) {
	var n, err = train.NewNetwork([]int{2, 3, 1})
	if err != nil {
		t.Fatal(err)
	}
	n.Randomize(rand.New(rand.NewSource(1)), -1, 1)

	var buf bytes.Buffer
	if err := WritePNG(&buf, n, 8); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Dx() != 8 || decoded.Bounds().Dy() != 8 {
		t.Fatal(decoded.Bounds())
	}
	output, err := n.Predict([]float64{3.0 / 8, 5.0 / 8})
	if err != nil {
		t.Fatal(err)
	}
	var gray = color.GrayModel.Convert(decoded.At(3, 5)).(color.Gray)
	if gray.Y != toByte(output[0]) {
		t.Errorf("pixel %v want %v", gray.Y, toByte(output[0]))
	}
}

func TestRenderValidation(t *testing.T) {
	var n, err = train.NewNetwork([]int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Render(n, 4); !errors.Is(err, ml.ErrConfiguration) {
		t.Errorf("wrong inputs: got %v", err)
	}
	n, err = train.NewNetwork([]int{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Render(n, 0); !errors.Is(err, ml.ErrConfiguration) {
		t.Errorf("zero size: got %v", err)
	}
}
