package main

import (
	"fmt"
	"os"

	"github.com/ChizhovVadim/nnviz/internal/imageset"
	"github.com/ChizhovVadim/nnviz/internal/train"
)

func renderHandler() error {
	var netPath = mapPath(cliArgs.GetString("net", "nnviz.nn"))
	var output = mapPath(cliArgs.GetString("out", "nnviz.png"))
	size, err := cliArgs.GetInt("size", 256)
	if err != nil {
		return err
	}

	file, err := os.Open(netPath)
	if err != nil {
		return err
	}
	defer file.Close()
	n, err := train.LoadNetwork(file)
	if err != nil {
		return err
	}
	if err := imageset.SavePNG(output, n, size); err != nil {
		return err
	}
	fmt.Println("Rendered", netPath, "to", output)
	return nil
}
