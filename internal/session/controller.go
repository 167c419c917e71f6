package session

import (
	"context"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/pkg/errors"
)

// Controller owns the current training session. Starting a new session stops the
// previous one and waits for its worker to exit before any new state is created.
type Controller struct {
	cfg      Config
	set      *train.TrainingSet
	logger   *log.Logger
	rnd      *rand.Rand
	gradient train.GradientFunc

	mu      sync.Mutex
	current *Session
}

func NewController(cfg Config, set *train.TrainingSet, logger *log.Logger) (*Controller, error) {
	var err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, errors.Wrap(ml.ErrConfiguration, "training set is nil")
	}
	err = set.Check(cfg.Architecture)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var seed = cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	cfg.Architecture = append([]int(nil), cfg.Architecture...)
	return &Controller{
		cfg:      cfg,
		set:      set.Clone(),
		logger:   logger,
		rnd:      rand.New(rand.NewSource(seed)),
		gradient: cfg.gradientFunc(),
	}, nil
}

func (c *Controller) Config() Config {
	var cfg = c.cfg
	cfg.Architecture = append([]int(nil), c.cfg.Architecture...)
	return cfg
}

// Start begins a fresh session with a newly randomized network.
func (c *Controller) Start(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		var err = c.stopLocked()
		if err != nil {
			c.logger.Printf("previous session ended with error: %v", err)
		}
	}

	net, err := train.NewNetwork(c.cfg.Architecture)
	if err != nil {
		return nil, err
	}
	net.Randomize(c.rnd, c.cfg.InitLow, c.cfg.InitHigh)
	s, err := newSession(ctx, c.cfg, c.set, net, c.gradient, c.logger)
	if err != nil {
		return nil, err
	}
	c.current = s
	return s, nil
}

// Reset stops the current session and starts a new one.
func (c *Controller) Reset(ctx context.Context) (*Session, error) {
	c.logger.Println("reset")
	return c.Start(ctx)
}

// Current returns the running session or nil before the first Start.
func (c *Controller) Current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Close stops the current session and waits for its worker.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	var err = c.current.Stop()
	if err != nil && !errors.Is(err, ml.ErrConcurrency) {
		return err
	}
	return c.current.Wait()
}
