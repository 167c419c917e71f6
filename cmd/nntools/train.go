package main

import (
	"math/rand"
	"os"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/train"
)

func trainHandler() error {
	architecture, err := architectureArg([]int{2, 4, 4, 1})
	if err != nil {
		return err
	}
	epochs, err := cliArgs.GetInt("epochs", 100_000)
	if err != nil {
		return err
	}
	rate, err := cliArgs.GetFloat("lr", 1.0)
	if err != nil {
		return err
	}
	seed, err := cliArgs.GetInt("seed", 0)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = int(time.Now().UnixNano())
	}
	var output = mapPath(cliArgs.GetString("out", "nnviz.nn"))

	set, err := trainingSetArg()
	if err != nil {
		return err
	}
	if err := set.Check(architecture); err != nil {
		return err
	}
	n, err := train.NewNetwork(architecture)
	if err != nil {
		return err
	}
	n.Randomize(rand.New(rand.NewSource(int64(seed))), -1, 1)

	if _, err := train.Train(n, set, epochs, rate, epochs/10, logger); err != nil {
		return err
	}

	file, err := os.Create(output)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := n.Save(file); err != nil {
		return err
	}
	logger.Println("saved", output)
	return file.Close()
}
