package main

import (
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ChizhovVadim/nnviz/internal/imageset"
	"github.com/ChizhovVadim/nnviz/internal/session"
	"github.com/ChizhovVadim/nnviz/internal/train"
)

var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

var cliArgs = NewCommandArgs(os.Args)

func main() {
	var handler = NewCommandHandler()
	handler.Add("gradcheck", gradcheckHandler)
	handler.Add("train", trainHandler)
	handler.Add("render", renderHandler)
	var err = handler.Execute(cliArgs.CommandName())
	if err != nil {
		logger.Fatal(err)
	}
}

func architectureArg(defaultVal []int) ([]int, error) {
	var s = cliArgs.GetString("arch", "")
	if s == "" {
		return defaultVal, nil
	}
	return session.ParseArchitecture(s)
}

// trainingSetArg loads -image when given, XOR otherwise.
func trainingSetArg() (*train.TrainingSet, error) {
	var path = cliArgs.GetString("image", "")
	if path == "" {
		return train.XOR(), nil
	}
	return imageset.Load(mapPath(path))
}

func mapPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		curUser, err := user.Current()
		if err != nil {
			return path
		}
		return filepath.Join(curUser.HomeDir, strings.TrimPrefix(path, "~/"))
	}
	return path
}
