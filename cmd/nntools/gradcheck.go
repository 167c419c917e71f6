package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/ChizhovVadim/nnviz/internal/train"
	"gonum.org/v1/gonum/diff/fd"
)

// gradcheckHandler compares backprop with the forward finite difference and a central difference reference.
func gradcheckHandler() error {
	architecture, err := architectureArg([]int{2, 4, 4, 1})
	if err != nil {
		return err
	}
	seed, err := cliArgs.GetInt("seed", 1)
	if err != nil {
		return err
	}
	eps, err := cliArgs.GetFloat("eps", 1e-3)
	if err != nil {
		return err
	}
	set, err := trainingSetArg()
	if err != nil {
		return err
	}

	logger.Println("gradcheck started",
		"architecture", architecture,
		"rows", set.Len(),
		"eps", eps)
	defer logger.Println("gradcheck finished")

	n, err := train.NewNetwork(architecture)
	if err != nil {
		return err
	}
	n.Randomize(rand.New(rand.NewSource(int64(seed))), -1, 1)

	var bp = train.NewGradient(n)
	if err := train.Backprop(n, bp, set); err != nil {
		return err
	}
	var fdGrad = train.NewGradient(n)
	if err := train.FiniteDiff(n, fdGrad, eps, set); err != nil {
		return err
	}

	var probe = n.Clone()
	var costErr error
	var central = fd.Gradient(nil, func(x []float64) float64 {
		if err := probe.SetParameters(x); err != nil {
			costErr = err
			return 0
		}
		var c, err = train.Cost(probe, set)
		if err != nil {
			costErr = err
		}
		return c
	}, n.Parameters(), &fd.Settings{Formula: fd.Central, Step: 1e-6})
	if costErr != nil {
		return costErr
	}

	var bpParams = bp.Parameters()
	var fdParams = fdGrad.Parameters()
	var maxForward, maxCentral float64
	for i := range bpParams {
		maxForward = math.Max(maxForward, math.Abs(bpParams[i]-fdParams[i]))
		maxCentral = math.Max(maxCentral, math.Abs(bpParams[i]-central[i]))
	}
	fmt.Println("Parameters", len(bpParams))
	fmt.Println("Max |backprop - forward difference|", maxForward)
	fmt.Println("Max |backprop - central difference|", maxCentral)
	if maxForward >= 1e-2 {
		return fmt.Errorf("gradients disagree: %v", maxForward)
	}
	return nil
}
