package train

// GradientFunc fills g with the gradient of Cost(n, set) with respect to the parameters of n.
type GradientFunc func(n, g *Network, set *TrainingSet) error

// FiniteDiffFunc adapts FiniteDiff to GradientFunc.
func FiniteDiffFunc(eps float64) GradientFunc {
	return func(n, g *Network, set *TrainingSet) error {
		return FiniteDiff(n, g, eps, set)
	}
}

// FiniteDiff approximates the gradient with forward differences (cost(p+eps)-cost(p))/eps,
// one parameter at a time. Every parameter is restored before the next one is perturbed.
func FiniteDiff(n, g *Network, eps float64, set *TrainingSet) error {
	var err = checkGradient(n, g)
	if err != nil {
		return err
	}
	err = set.Check(n.Architecture)
	if err != nil {
		return err
	}
	g.Reset()

	baseCost, err := cost(n, set)
	if err != nil {
		return err
	}

	var perturb = func(params, grads []float64) error {
		for i := range params {
			var saved = params[i]
			params[i] += eps
			var c, err = cost(n, set)
			params[i] = saved
			if err != nil {
				return err
			}
			grads[i] = (c - baseCost) / eps
		}
		return nil
	}

	for l := range n.Weights {
		err = perturb(n.Weights[l].Data, g.Weights[l].Data)
		if err != nil {
			return err
		}
		err = perturb(n.Biases[l].Data, g.Biases[l].Data)
		if err != nil {
			return err
		}
	}
	return nil
}

// Backprop computes the exact gradient of the mean cost with one forward and one backward
// pass per training row.
func Backprop(n, g *Network, set *TrainingSet) error {
	var err = checkGradient(n, g)
	if err != nil {
		return err
	}
	err = set.Check(n.Architecture)
	if err != nil {
		return err
	}
	g.Reset()

	var rows = set.Len()
	if rows == 0 {
		return nil
	}
	for i := 0; i < rows; i++ {
		var input, target = set.Sample(i)
		copy(n.Activations[0].Data, input)
		err = n.Forward()
		if err != nil {
			return err
		}
		n.outputError(g, target)
		for l := len(n.Weights) - 1; l >= 0; l-- {
			err = n.backwardLayer(g, l)
			if err != nil {
				return err
			}
		}
	}

	var scale = 1 / float64(rows)
	for l := range g.Weights {
		g.Weights[l].Scale(scale)
		g.Biases[l].Scale(scale)
	}
	return nil
}
