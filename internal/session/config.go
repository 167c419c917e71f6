package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/pkg/errors"
)

const (
	GradientBackprop   = "backprop"
	GradientFiniteDiff = "finite-diff"
)

// Config captures the knobs of a training session.
type Config struct {
	Architecture []int
	LearningRate float64
	MaxEpochs    int // 0 trains until stopped
	CostEvery    int
	LogEvery     int
	InitLow      float64
	InitHigh     float64
	Seed         int64 // 0 seeds from the clock
	Gradient     string
	Eps          float64
}

func DefaultConfig() Config {
	return Config{
		Architecture: []int{2, 4, 4, 1},
		LearningRate: 1.0,
		MaxEpochs:    100_000,
		CostEvery:    1,
		LogEvery:     10_000,
		InitLow:      -1,
		InitHigh:     1,
		Gradient:     GradientBackprop,
		Eps:          1e-3,
	}
}

// Validate verifies the config is runnable and fills zero defaults.
func (c *Config) Validate() error {
	if len(c.Architecture) < 2 {
		return errors.Wrapf(ml.ErrDimensionMismatch,
			"architecture needs at least 2 layers, got %v", c.Architecture)
	}
	for i, width := range c.Architecture {
		if width <= 0 {
			return errors.Wrapf(ml.ErrDimensionMismatch, "layer %v has width %v", i, width)
		}
	}
	if !(c.LearningRate > 0) {
		return errors.Wrapf(ml.ErrConfiguration, "learning rate must be > 0 (got %v)", c.LearningRate)
	}
	if c.MaxEpochs < 0 {
		return errors.Wrapf(ml.ErrConfiguration, "max epochs must be >= 0 (got %v)", c.MaxEpochs)
	}
	if c.InitLow > c.InitHigh {
		return errors.Wrapf(ml.ErrConfiguration, "init range [%v, %v] is empty", c.InitLow, c.InitHigh)
	}
	switch c.Gradient {
	case "":
		c.Gradient = GradientBackprop
	case GradientBackprop:
	case GradientFiniteDiff:
		if !(c.Eps > 0) {
			return errors.Wrapf(ml.ErrConfiguration, "eps must be > 0 (got %v)", c.Eps)
		}
	default:
		return errors.Wrapf(ml.ErrConfiguration, "unknown gradient %q", c.Gradient)
	}
	if c.CostEvery <= 0 {
		c.CostEvery = 1
	}
	if c.LogEvery < 0 {
		c.LogEvery = 0
	}
	return nil
}

func (c *Config) gradientFunc() train.GradientFunc {
	if c.Gradient == GradientFiniteDiff {
		return train.FiniteDiffFunc(c.Eps)
	}
	return train.Backprop
}

// ParseArchitecture parses layer widths such as "2,4,4,1".
func ParseArchitecture(s string) ([]int, error) {
	var fields = strings.Split(s, ",")
	var result = make([]int, 0, len(fields))
	for _, field := range fields {
		var width, err = strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, errors.Wrapf(ml.ErrConfiguration, "architecture %q: %v", s, err)
		}
		if width <= 0 {
			return nil, errors.Wrapf(ml.ErrDimensionMismatch, "architecture %q: width %v", s, width)
		}
		result = append(result, width)
	}
	if len(result) < 2 {
		return nil, errors.Wrapf(ml.ErrDimensionMismatch, "architecture %q needs at least 2 layers", s)
	}
	return result, nil
}

func FormatArchitecture(architecture []int) string {
	var fields = make([]string, len(architecture))
	for i, width := range architecture {
		fields[i] = fmt.Sprint(width)
	}
	return strings.Join(fields, ",")
}
