package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/console"
	"github.com/ChizhovVadim/nnviz/internal/imageset"
	"github.com/ChizhovVadim/nnviz/internal/session"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	session       session.Config
	architecture  string
	imagePath     string
	frameInterval time.Duration
}

func main() {
	var logger = log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile)

	var config = Config{session: session.DefaultConfig()}
	flag.StringVar(&config.architecture, "arch", session.FormatArchitecture(config.session.Architecture), "Layer widths")
	flag.Float64Var(&config.session.LearningRate, "lr", config.session.LearningRate, "Learning rate")
	flag.IntVar(&config.session.MaxEpochs, "epochs", config.session.MaxEpochs, "Epoch cap, 0 trains until stopped")
	flag.IntVar(&config.session.CostEvery, "costevery", config.session.CostEvery, "Epochs between cost evaluations")
	flag.IntVar(&config.session.LogEvery, "logevery", config.session.LogEvery, "Epochs between progress log lines")
	flag.Int64Var(&config.session.Seed, "seed", 0, "Random seed, 0 seeds from the clock")
	flag.StringVar(&config.session.Gradient, "gradient", config.session.Gradient, "backprop or finite-diff")
	flag.Float64Var(&config.session.Eps, "eps", config.session.Eps, "Finite difference step")
	flag.StringVar(&config.imagePath, "image", "", "Train on a grayscale image instead of XOR")
	flag.DurationVar(&config.frameInterval, "frame", time.Second, "Progress print interval, 0 disables")
	flag.Parse()

	var err = run(config, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal(err)
	}
}

func run(config Config, logger *log.Logger) error {
	var err error
	config.session.Architecture, err = session.ParseArchitecture(config.architecture)
	if err != nil {
		return err
	}

	var set = train.XOR()
	if config.imagePath != "" {
		set, err = imageset.Load(config.imagePath)
		if err != nil {
			return err
		}
		logger.Println("Loaded image", config.imagePath, "rows", set.Len())
	}

	logger.Printf("CPU %v cores=%v threads=%v avx2=%v fma3=%v GOMAXPROCS=%v",
		cpuid.CPU.BrandName,
		cpuid.CPU.PhysicalCores,
		cpuid.CPU.LogicalCores,
		cpuid.CPU.Supports(cpuid.AVX2),
		cpuid.CPU.Supports(cpuid.FMA3),
		runtime.GOMAXPROCS(0))
	controller, err := session.NewController(config.session, set, logger)
	if err != nil {
		return err
	}
	logger.Printf("%+v", controller.Config())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g, gctx = errgroup.WithContext(ctx)
	var consoleDone = make(chan struct{})
	g.Go(func() error {
		defer close(consoleDone)
		return console.New(controller, os.Stdin, os.Stdout, config.frameInterval).Run(gctx, logger)
	})
	g.Go(func() error {
		select {
		case <-consoleDone:
		case <-gctx.Done():
		}
		return controller.Close()
	})
	return g.Wait()
}
