package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Progress is a snapshot published by the training worker once per epoch.
// TrainingSet is shared by all snapshots of a controller and must not be modified.
type Progress struct {
	SessionID    uuid.UUID
	State        State
	Epoch        int
	MaxEpochs    int
	Cost         float64
	LearningRate float64
	Elapsed      time.Duration
	Paused       bool
	TrainingSet  *train.TrainingSet
	Err          error
}

// Session is one training run: a Network, its worker goroutine and its signal queue.
type Session struct {
	id       uuid.UUID
	cfg      Config
	set      *train.TrainingSet
	gradient train.GradientFunc
	logger   *log.Logger
	signals  *signalQueue
	group    *errgroup.Group
	done     chan struct{}

	netMu sync.Mutex
	net   *train.Network
	grad  *train.Network

	progressMu sync.RWMutex
	progress   Progress
}

func newSession(
	ctx context.Context,
	cfg Config,
	set *train.TrainingSet,
	net *train.Network,
	gradient train.GradientFunc,
	logger *log.Logger,
) (*Session, error) {
	initialCost, err := train.Cost(net, set)
	if err != nil {
		return nil, err
	}
	var s = &Session{
		id:       uuid.New(),
		cfg:      cfg,
		set:      set,
		gradient: gradient,
		logger:   logger,
		signals:  newSignalQueue(),
		done:     make(chan struct{}),
		net:      net,
		grad:     train.NewGradient(net),
	}
	s.progress = Progress{
		SessionID:    s.id,
		State:        Idle,
		MaxEpochs:    cfg.MaxEpochs,
		Cost:         initialCost,
		LearningRate: cfg.LearningRate,
		TrainingSet:  set,
	}

	g, ctx := errgroup.WithContext(ctx)
	s.group = g
	g.Go(func() error {
		defer close(s.done)
		return s.run(ctx)
	})
	return s, nil
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// Send queues a signal for the worker. It fails with ErrConcurrency once the worker has exited.
func (s *Session) Send(signal Signal) error {
	return s.signals.Send(signal)
}

func (s *Session) Pause() error  { return s.Send(Pause) }
func (s *Session) Resume() error { return s.Send(Resume) }
func (s *Session) Stop() error   { return s.Send(Stop) }

func (s *Session) Snapshot() Progress {
	s.progressMu.RLock()
	defer s.progressMu.RUnlock()
	return s.progress
}

// Predict runs the current network on input.
func (s *Session) Predict(input []float64) ([]float64, error) {
	s.netMu.Lock()
	defer s.netMu.Unlock()
	return s.net.Predict(input)
}

// View gives fn read access to the network. fn must not keep references to it.
func (s *Session) View(fn func(n *train.Network)) {
	s.netMu.Lock()
	defer s.netMu.Unlock()
	fn(s.net)
}

func (s *Session) CloneNetwork() *train.Network {
	s.netMu.Lock()
	defer s.netMu.Unlock()
	return s.net.Clone()
}

// Done is closed when the worker has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the worker has exited and returns its error.
func (s *Session) Wait() error {
	return s.group.Wait()
}

func (s *Session) run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ml.ErrConcurrency, "training worker panic: %v", r)
		}
		s.signals.Close()
		s.update(func(p *Progress) {
			p.State = Stopped
			p.Paused = false
			p.Err = err
		})
		if err != nil {
			s.logger.Printf("session %v failed: %v", s.id, err)
		} else {
			s.logger.Printf("session %v stopped", s.id)
		}
	}()

	s.logger.Printf("session %v started architecture=%v lr=%v gradient=%v",
		s.id, s.cfg.Architecture, s.cfg.LearningRate, s.cfg.Gradient)
	s.update(func(p *Progress) { p.State = Running })

	var start = time.Now()
	var paused time.Duration
	for epoch := 1; s.cfg.MaxEpochs == 0 || epoch <= s.cfg.MaxEpochs; epoch++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cost, costUpdated, err := s.step(epoch)
		if err != nil {
			return err
		}
		var elapsed = time.Since(start) - paused
		s.update(func(p *Progress) {
			p.Epoch = epoch
			p.Elapsed = elapsed
			if costUpdated {
				p.Cost = cost
			}
		})
		if s.cfg.LogEvery > 0 && epoch%s.cfg.LogEvery == 0 {
			var p = s.Snapshot()
			s.logger.Printf("epoch=%v cost=%f elapsed=%v", p.Epoch, p.Cost, p.Elapsed.Round(time.Millisecond))
		}

		stop, pausedFor, err := s.handleSignals(ctx)
		paused += pausedFor
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	s.logger.Printf("session %v reached %v epochs", s.id, s.cfg.MaxEpochs)
	return nil
}

// step runs one epoch under the network lock.
func (s *Session) step(epoch int) (cost float64, costUpdated bool, err error) {
	s.netMu.Lock()
	defer s.netMu.Unlock()
	err = train.Epoch(s.net, s.grad, s.set, s.gradient, s.cfg.LearningRate)
	if err != nil {
		return 0, false, err
	}
	if epoch%s.cfg.CostEvery != 0 {
		return 0, false, nil
	}
	cost, err = train.Cost(s.net, s.set)
	if err != nil {
		return 0, false, err
	}
	return cost, true, nil
}

// handleSignals drains pending signals without blocking unless a Pause is among them.
func (s *Session) handleSignals(ctx context.Context) (stop bool, paused time.Duration, err error) {
	for {
		var signal, ok = s.signals.TryRecv()
		if !ok {
			return false, paused, nil
		}
		switch signal {
		case Stop:
			return true, paused, nil
		case Pause:
			var pauseStart = time.Now()
			s.update(func(p *Progress) {
				p.State = Paused
				p.Paused = true
			})
			s.logger.Printf("session %v paused", s.id)
			stop, err = s.waitResume(ctx)
			paused += time.Since(pauseStart)
			if err != nil || stop {
				return stop, paused, err
			}
			s.update(func(p *Progress) {
				p.State = Running
				p.Paused = false
			})
			s.logger.Printf("session %v resumed", s.id)
		}
	}
}

func (s *Session) waitResume(ctx context.Context) (stop bool, err error) {
	for {
		var signal, recvErr = s.signals.Recv(ctx)
		if recvErr != nil {
			return true, recvErr
		}
		switch signal {
		case Resume:
			return false, nil
		case Stop:
			return true, nil
		}
	}
}

func (s *Session) update(fn func(p *Progress)) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	fn(&s.progress)
}
