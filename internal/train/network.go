package train

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
)

// Network is a fully connected sigmoid network.
// Activations[0] holds the current input and Activations[Count()-1] the current output.
// Weights[l] is Architecture[l]xArchitecture[l+1], Biases[l] is 1xArchitecture[l+1].
//
// A Network with the same architecture is also used as a gradient: Weights and Biases
// accumulate partial derivatives and Activations hold the per layer error signals.
type Network struct {
	Architecture []int
	Activations  []ml.Matrix
	Weights      []ml.Matrix
	Biases       []ml.Matrix
	activationFn ml.IActivationFn
	cost         ml.IModelCost
}

func NewNetwork(architecture []int) (*Network, error) {
	if len(architecture) < 2 {
		return nil, errors.Wrapf(ml.ErrDimensionMismatch,
			"architecture needs at least 2 layers, got %v", len(architecture))
	}
	for i, width := range architecture {
		if width <= 0 {
			return nil, errors.Wrapf(ml.ErrDimensionMismatch,
				"layer %v has width %v", i, width)
		}
	}
	var count = len(architecture)
	var n = &Network{
		Architecture: append([]int(nil), architecture...),
		Activations:  make([]ml.Matrix, count),
		Weights:      make([]ml.Matrix, count-1),
		Biases:       make([]ml.Matrix, count-1),
		activationFn: &ml.SigmoidActivation{},
		cost:         &ml.MSECost{},
	}
	for l, width := range architecture {
		n.Activations[l] = ml.NewMatrix(1, width)
		if l+1 < count {
			n.Weights[l] = ml.NewMatrix(width, architecture[l+1])
			n.Biases[l] = ml.NewMatrix(1, architecture[l+1])
		}
	}
	return n, nil
}

// NewGradient allocates a zeroed gradient shaped like n.
func NewGradient(n *Network) *Network {
	var g, err = NewNetwork(n.Architecture)
	if err != nil {
		panic(err)
	}
	return g
}

func (n *Network) Count() int {
	return len(n.Architecture)
}

func (n *Network) Output() ml.Matrix {
	return n.Activations[len(n.Activations)-1]
}

func (n *Network) SetInput(values []float64) error {
	var input = n.Activations[0]
	if len(values) != input.Cols {
		return errors.Wrapf(ml.ErrDimensionMismatch,
			"input has %v values, network expects %v", len(values), input.Cols)
	}
	copy(input.Data, values)
	return nil
}

// Randomize draws every weight and bias uniformly from [low, high]. Activations are untouched.
func (n *Network) Randomize(rnd *rand.Rand, low, high float64) {
	for l := range n.Weights {
		n.Weights[l].Randomize(rnd, low, high)
		n.Biases[l].Randomize(rnd, low, high)
	}
}

// Reset zeroes weights, biases and activations.
func (n *Network) Reset() {
	for l := range n.Activations {
		n.Activations[l].Reset()
	}
	for l := range n.Weights {
		n.Weights[l].Reset()
		n.Biases[l].Reset()
	}
}

// Forward propagates Activations[0] through the network.
func (n *Network) Forward() error {
	for l := range n.Weights {
		var err = n.forwardLayer(l)
		if err != nil {
			return err
		}
	}
	return nil
}

// Predict runs a forward pass for input and returns a copy of the output row.
func (n *Network) Predict(input []float64) ([]float64, error) {
	var err = n.SetInput(input)
	if err != nil {
		return nil, err
	}
	err = n.Forward()
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), n.Output().Data...), nil
}

func (n *Network) Clone() *Network {
	var result = &Network{
		Architecture: append([]int(nil), n.Architecture...),
		Activations:  make([]ml.Matrix, len(n.Activations)),
		Weights:      make([]ml.Matrix, len(n.Weights)),
		Biases:       make([]ml.Matrix, len(n.Biases)),
		activationFn: n.activationFn,
		cost:         n.cost,
	}
	for l := range n.Activations {
		result.Activations[l] = n.Activations[l].Clone()
	}
	for l := range n.Weights {
		result.Weights[l] = n.Weights[l].Clone()
		result.Biases[l] = n.Biases[l].Clone()
	}
	return result
}

func (n *Network) ParameterCount() int {
	var result int
	for l := range n.Weights {
		result += len(n.Weights[l].Data) + len(n.Biases[l].Data)
	}
	return result
}

// Parameters returns the weights and biases flattened in layer order,
// weights of layer l followed by biases of layer l.
func (n *Network) Parameters() []float64 {
	var result = make([]float64, 0, n.ParameterCount())
	for l := range n.Weights {
		result = append(result, n.Weights[l].Data...)
		result = append(result, n.Biases[l].Data...)
	}
	return result
}

// SetParameters is the inverse of Parameters.
func (n *Network) SetParameters(params []float64) error {
	if len(params) != n.ParameterCount() {
		return errors.Wrapf(ml.ErrDimensionMismatch,
			"got %v parameters, network has %v", len(params), n.ParameterCount())
	}
	for l := range n.Weights {
		params = params[copy(n.Weights[l].Data, params):]
		params = params[copy(n.Biases[l].Data, params):]
	}
	return nil
}

func (n *Network) SameArchitecture(other *Network) bool {
	if len(n.Architecture) != len(other.Architecture) {
		return false
	}
	for i := range n.Architecture {
		if n.Architecture[i] != other.Architecture[i] {
			return false
		}
	}
	return true
}

func checkGradient(n, g *Network) error {
	if !n.SameArchitecture(g) {
		return errors.Wrapf(ml.ErrDimensionMismatch,
			"gradient architecture %v, network %v", g.Architecture, n.Architecture)
	}
	return nil
}

// Binary format of a saved network:
// - All the data is stored in little-endian layout
// - All the matrices are written in row-major
// - The magic number/version consists of 4 bytes:
//   - 78 (which is the ASCII code for N), uint8
//   - 86 (which is the ASCII code for V), uint8
//   - 1 The major part of the current version number, uint8
//   - 0 The minor part of the current version number, uint8
//
// - 4 bytes (uint32) to denote the number of layers
// - 4 bytes (uint32) for the width of each layer
// - All weights for a layer (float64 bits), followed by all the biases of the same layer
// - Other layers follow just like the above point
func (n *Network) Save(w io.Writer) error {
	var buf = []byte{78, 86, 1, 0}
	var _, err = w.Write(buf)
	if err != nil {
		return err
	}

	buf = make([]byte, 4+4*len(n.Architecture))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(n.Architecture)))
	for i, width := range n.Architecture {
		binary.LittleEndian.PutUint32(buf[4+4*i:], uint32(width))
	}
	_, err = w.Write(buf)
	if err != nil {
		return err
	}

	for l := range n.Weights {
		err = writeSlice(w, n.Weights[l].Data)
		if err != nil {
			return err
		}
		err = writeSlice(w, n.Biases[l].Data)
		if err != nil {
			return err
		}
	}
	return nil
}

const (
	maxLoadWidth      = 1 << 20
	maxLoadParameters = 1 << 24
)

// LoadNetwork reads a network written by Save.
func LoadNetwork(r io.Reader) (*Network, error) {
	var buf = make([]byte, 4)
	var _, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	if buf[0] != 78 || buf[1] != 86 {
		return nil, errors.Wrap(ml.ErrConfiguration, "magic word does not match")
	}
	if buf[2] != 1 || buf[3] != 0 {
		return nil, errors.Wrapf(ml.ErrConfiguration, "network format %v.%v is not supported", buf[2], buf[3])
	}

	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "read layer count")
	}
	var count = binary.LittleEndian.Uint32(buf)
	if count < 2 || count > 1<<16 {
		return nil, errors.Wrapf(ml.ErrConfiguration, "bad layer count %v", count)
	}

	buf = make([]byte, 4*count)
	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, errors.Wrap(err, "read architecture")
	}
	var architecture = make([]int, count)
	for i := range architecture {
		architecture[i] = int(binary.LittleEndian.Uint32(buf[4*i:]))
		if architecture[i] > maxLoadWidth {
			return nil, errors.Wrapf(ml.ErrConfiguration, "layer %v has width %v", i, architecture[i])
		}
	}

	// Widths are capped, so each product fits in int64.
	var parameters int64
	for i := 0; i+1 < len(architecture); i++ {
		parameters += int64(architecture[i])*int64(architecture[i+1]) + int64(architecture[i+1])
		if parameters > maxLoadParameters {
			return nil, errors.Wrapf(ml.ErrConfiguration,
				"%v layer network exceeds %v parameters", count, maxLoadParameters)
		}
	}

	n, err := NewNetwork(architecture)
	if err != nil {
		return nil, err
	}
	for l := range n.Weights {
		err = readSlice(r, n.Weights[l].Data)
		if err != nil {
			return nil, errors.Wrapf(err, "read weights %v", l)
		}
		err = readSlice(r, n.Biases[l].Data)
		if err != nil {
			return nil, errors.Wrapf(err, "read biases %v", l)
		}
	}
	return n, nil
}

func writeSlice(w io.Writer, data []float64) error {
	var buf = make([]byte, 8*len(data))
	for j := range data {
		binary.LittleEndian.PutUint64(buf[8*j:], math.Float64bits(data[j]))
	}
	var _, err = w.Write(buf)
	return err
}

func readSlice(r io.Reader, data []float64) error {
	var buf = make([]byte, 8*len(data))
	var _, err = io.ReadFull(r, buf)
	if err != nil {
		return err
	}
	for j := range data {
		data[j] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*j:]))
	}
	return nil
}
