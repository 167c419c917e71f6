package train

import (
	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
)

// TrainingSet pairs row i of Inputs with row i of Outputs.
type TrainingSet struct {
	Inputs  ml.Matrix
	Outputs ml.Matrix
}

func NewTrainingSet(inputs, outputs ml.Matrix) (*TrainingSet, error) {
	if inputs.Rows != outputs.Rows {
		return nil, errors.Wrapf(ml.ErrConfiguration,
			"training set has %v input rows and %v output rows", inputs.Rows, outputs.Rows)
	}
	return &TrainingSet{
		Inputs:  inputs,
		Outputs: outputs,
	}, nil
}

func TrainingSetFromRows(inputs, outputs [][]float64) (*TrainingSet, error) {
	var in, err = ml.FromRows(inputs)
	if err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	out, err := ml.FromRows(outputs)
	if err != nil {
		return nil, errors.Wrap(err, "outputs")
	}
	return NewTrainingSet(in, out)
}

// XOR is the classic two input exclusive-or set.
func XOR() *TrainingSet {
	var set, err = TrainingSetFromRows(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[][]float64{{0}, {1}, {1}, {0}},
	)
	if err != nil {
		panic(err)
	}
	return set
}

func (s *TrainingSet) Len() int {
	return s.Inputs.Rows
}

func (s *TrainingSet) Sample(i int) (input, output []float64) {
	return s.Inputs.Row(i), s.Outputs.Row(i)
}

// Check verifies the set fits a network with the given architecture.
func (s *TrainingSet) Check(architecture []int) error {
	if s.Inputs.Rows != s.Outputs.Rows {
		return errors.Wrapf(ml.ErrConfiguration,
			"training set has %v input rows and %v output rows", s.Inputs.Rows, s.Outputs.Rows)
	}
	if len(architecture) < 2 {
		return errors.Wrapf(ml.ErrDimensionMismatch,
			"architecture needs at least 2 layers, got %v", len(architecture))
	}
	if s.Inputs.Cols != architecture[0] {
		return errors.Wrapf(ml.ErrConfiguration,
			"training inputs have %v columns, network input layer has %v", s.Inputs.Cols, architecture[0])
	}
	if last := architecture[len(architecture)-1]; s.Outputs.Cols != last {
		return errors.Wrapf(ml.ErrConfiguration,
			"training outputs have %v columns, network output layer has %v", s.Outputs.Cols, last)
	}
	return nil
}

func (s *TrainingSet) Clone() *TrainingSet {
	return &TrainingSet{
		Inputs:  s.Inputs.Clone(),
		Outputs: s.Outputs.Clone(),
	}
}
