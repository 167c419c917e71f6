package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/session"
	"github.com/ChizhovVadim/nnviz/internal/train"
)

// maxPredictionRows limits how many training rows the predictions view prints.
const maxPredictionRows = 16

func formatEpoch(p session.Progress) string {
	if p.MaxEpochs == 0 {
		return fmt.Sprint(p.Epoch)
	}
	return fmt.Sprintf("%v/%v", p.Epoch, p.MaxEpochs)
}

func FormatStatus(p session.Progress) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "Epoch: %v\n", formatEpoch(p))
	fmt.Fprintf(sb, "Cost: %.6f\n", p.Cost)
	fmt.Fprintf(sb, "Learning Rate: %v\n", p.LearningRate)
	fmt.Fprintf(sb, "Training time: %v\n", p.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(sb, "State: %v", p.State)
	if p.Err != nil {
		fmt.Fprintf(sb, "\nError: %v", p.Err)
	}
	return sb.String()
}

// FormatFrame is the one-line form of FormatStatus printed on every frame.
func FormatFrame(p session.Progress) string {
	return fmt.Sprintf("epoch %v cost %.6f lr %v time %v %v",
		formatEpoch(p), p.Cost, p.LearningRate, p.Elapsed.Round(time.Millisecond), p.State)
}

// FormatGraph prints sigmoid(weight) for every edge and sigmoid(bias) for every node past the input layer.
func FormatGraph(n *train.Network) string {
	var sb = &strings.Builder{}
	fmt.Fprintf(sb, "architecture %v", session.FormatArchitecture(n.Architecture))
	for l := range n.Weights {
		var w = n.Weights[l]
		fmt.Fprintf(sb, "\nlayer %v -> %v", l, l+1)
		for i := 0; i < w.Rows; i++ {
			sb.WriteString("\n ")
			for j := 0; j < w.Cols; j++ {
				fmt.Fprintf(sb, " %.2f", ml.Sigmoid(w.Get(i, j)))
			}
		}
		sb.WriteString("\n nodes")
		for _, b := range n.Biases[l].Data {
			fmt.Fprintf(sb, " %.2f", ml.Sigmoid(b))
		}
	}
	return sb.String()
}

// FormatPredictions runs the network over the leading rows of set.
func FormatPredictions(n *train.Network, set *train.TrainingSet) (string, error) {
	var sb = &strings.Builder{}
	var rows = set.Len()
	if rows > maxPredictionRows {
		rows = maxPredictionRows
	}
	for i := 0; i < rows; i++ {
		var input, target = set.Sample(i)
		var output, err = n.Predict(input)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(sb, "%v -> %v (want %v)", formatFloats(input), formatFloats(output), formatFloats(target))
	}
	if set.Len() > rows {
		fmt.Fprintf(sb, "\n... %v more rows", set.Len()-rows)
	}
	return sb.String(), nil
}

func formatFloats(values []float64) string {
	var fields = make([]string, len(values))
	for i, x := range values {
		fields[i] = fmt.Sprintf("%.4f", x)
	}
	return "[" + strings.Join(fields, " ") + "]"
}
