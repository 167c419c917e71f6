// Package imageset turns images into training sets and trained networks back into images.
package imageset

import (
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/pkg/errors"
)

// Architecture input and output widths of a network trained on an image.
const (
	Inputs  = 2
	Outputs = 1
)

// FromImage maps every pixel (col, row) to inputs (col/W, row/H) and output gray/255.
func FromImage(img image.Image) (*train.TrainingSet, error) {
	var bounds = img.Bounds()
	var width, height = bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.Wrap(ml.ErrConfiguration, "empty image")
	}
	var rows = width * height
	var inputs = ml.NewMatrix(rows, Inputs)
	var outputs = ml.NewMatrix(rows, Outputs)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			var i = row*width + col
			var gray = color.GrayModel.Convert(img.At(bounds.Min.X+col, bounds.Min.Y+row)).(color.Gray)
			inputs.Set(i, 0, float64(col)/float64(width))
			inputs.Set(i, 1, float64(row)/float64(height))
			outputs.Set(i, 0, float64(gray.Y)/255)
		}
	}
	return train.NewTrainingSet(inputs, outputs)
}

// Decode reads a png, jpeg or gif image and converts it with FromImage.
func Decode(r io.Reader) (*train.TrainingSet, error) {
	var img, _, err = image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	return FromImage(img)
}

func Load(path string) (*train.TrainingSet, error) {
	var file, err = os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	set, err := Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "load %v", path)
	}
	return set, nil
}

// Render samples the first network output over a size x size grid with inputs (col/size, row/size).
func Render(n *train.Network, size int) (*image.Gray, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ml.ErrConfiguration, "render size %v", size)
	}
	if n.Architecture[0] != Inputs {
		return nil, errors.Wrapf(ml.ErrConfiguration,
			"render needs %v inputs, network has %v", Inputs, n.Architecture[0])
	}
	var img = image.NewGray(image.Rect(0, 0, size, size))
	var input = make([]float64, Inputs)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			input[0] = float64(col) / float64(size)
			input[1] = float64(row) / float64(size)
			var output, err = n.Predict(input)
			if err != nil {
				return nil, err
			}
			img.SetGray(col, row, color.Gray{Y: toByte(output[0])})
		}
	}
	return img, nil
}

func WritePNG(w io.Writer, n *train.Network, size int) error {
	var img, err = Render(n, size)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func SavePNG(path string, n *train.Network, size int) error {
	var file, err = os.Create(path)
	if err != nil {
		return err
	}
	err = WritePNG(file, n, size)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return err
}

func toByte(x float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, x)) * 255))
}
