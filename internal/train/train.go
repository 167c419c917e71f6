package train

import (
	"log"
	"time"
)

// Cost is the squared error summed over output columns and averaged over rows.
// Weights and biases are not modified, activations are overwritten.
func Cost(n *Network, set *TrainingSet) (float64, error) {
	var err = set.Check(n.Architecture)
	if err != nil {
		return 0, err
	}
	return cost(n, set)
}

func cost(n *Network, set *TrainingSet) (float64, error) {
	var rows = set.Len()
	if rows == 0 {
		return 0, nil
	}
	var total float64
	for i := 0; i < rows; i++ {
		var input, target = set.Sample(i)
		copy(n.Activations[0].Data, input)
		var err = n.Forward()
		if err != nil {
			return 0, err
		}
		for j, predicted := range n.Output().Data {
			total += n.cost.Cost(predicted, target[j])
		}
	}
	return total / float64(rows), nil
}

// Learn performs one gradient descent step: param -= rate * gradient.
func Learn(n, g *Network, rate float64) error {
	var err = checkGradient(n, g)
	if err != nil {
		return err
	}
	for l := range n.Weights {
		err = n.Weights[l].AddScaled(-rate, g.Weights[l])
		if err != nil {
			return err
		}
		err = n.Biases[l].AddScaled(-rate, g.Biases[l])
		if err != nil {
			return err
		}
	}
	return nil
}

// Epoch computes a fresh gradient into g and applies it to n.
func Epoch(n, g *Network, set *TrainingSet, gradient GradientFunc, rate float64) error {
	var err = gradient(n, g, set)
	if err != nil {
		return err
	}
	return Learn(n, g, rate)
}

// Train runs epochs of backprop and gradient descent and returns the final cost.
func Train(
	n *Network,
	set *TrainingSet,
	epochs int,
	rate float64,
	logEvery int,
	logger *log.Logger,
) (float64, error) {
	logger.Println("Train started")
	defer logger.Println("Train finished")

	var err = set.Check(n.Architecture)
	if err != nil {
		return 0, err
	}
	var g = NewGradient(n)
	var start = time.Now()
	for epoch := 1; epoch <= epochs; epoch++ {
		err = Epoch(n, g, set, Backprop, rate)
		if err != nil {
			return 0, err
		}
		if logEvery > 0 && epoch%logEvery == 0 {
			c, err := cost(n, set)
			if err != nil {
				return 0, err
			}
			logger.Printf("epoch=%v cost=%f elapsed=%v", epoch, c, time.Since(start).Round(time.Millisecond))
		}
	}
	return cost(n, set)
}
