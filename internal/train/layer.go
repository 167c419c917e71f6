package train

import "github.com/ChizhovVadim/nnviz/internal/ml"

// forwardLayer computes Activations[l+1] = sigma(Activations[l]*Weights[l] + Biases[l]).
func (n *Network) forwardLayer(l int) error {
	var next = &n.Activations[l+1]
	var err = ml.Mul(next, n.Activations[l], n.Weights[l])
	if err != nil {
		return err
	}
	err = next.AddRow(n.Biases[l])
	if err != nil {
		return err
	}
	for i, x := range next.Data {
		next.Data[i] = n.activationFn.Sigma(x)
	}
	return nil
}

// outputError stores dCost/dz of the output layer for one sample in g.
func (n *Network) outputError(g *Network, target []float64) {
	var output = n.Output()
	var e = g.Output()
	for j, a := range output.Data {
		e.Data[j] = n.cost.CostPrime(a, target[j]) * n.activationFn.PrimeFromOutput(a)
	}
}

// backwardLayer accumulates the gradient of Weights[l] and Biases[l] from the error signal
// of layer l+1 and, for hidden layers, propagates the error signal to layer l.
func (n *Network) backwardLayer(g *Network, l int) error {
	var e = g.Activations[l+1]
	var err = g.Weights[l].AddOuter(n.Activations[l], e)
	if err != nil {
		return err
	}
	err = g.Biases[l].AddScaled(1, e)
	if err != nil {
		return err
	}
	if l == 0 {
		return nil
	}
	var prev = &g.Activations[l]
	err = ml.MulTransB(prev, e, n.Weights[l])
	if err != nil {
		return err
	}
	for i, a := range n.Activations[l].Data {
		prev.Data[i] *= n.activationFn.PrimeFromOutput(a)
	}
	return nil
}
