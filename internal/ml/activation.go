package ml

type IActivationFn interface {
	Sigma(x float64) float64
	// PrimeFromOutput is the derivative expressed through the activation a = Sigma(x).
	PrimeFromOutput(a float64) float64
}

type SigmoidActivation struct{}

func (*SigmoidActivation) Sigma(x float64) float64 {
	return Sigmoid(x)
}

func (*SigmoidActivation) PrimeFromOutput(a float64) float64 {
	return a * (1 - a)
}
