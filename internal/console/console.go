// Package console drives a training controller from text commands and prints its progress.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/imageset"
	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/ChizhovVadim/nnviz/internal/session"
	"github.com/ChizhovVadim/nnviz/internal/train"
	"github.com/pkg/errors"
)

const defaultRenderSize = 64

var errQuit = errors.New("quit")

type Console struct {
	controller    *session.Controller
	in            io.Reader
	out           io.Writer
	frameInterval time.Duration
	lastFrame     session.Progress
}

// New creates a console reading commands from in and writing to out.
// A frameInterval of zero disables periodic progress lines.
func New(controller *session.Controller, in io.Reader, out io.Writer, frameInterval time.Duration) *Console {
	return &Console{
		controller:    controller,
		in:            in,
		out:           out,
		frameInterval: frameInterval,
	}
}

// Run starts the first session and serves commands until quit or ctx is done.
// After the end of input it keeps printing frames until the current session stops.
func (c *Console) Run(ctx context.Context, logger *log.Logger) error {
	if c.controller.Current() == nil {
		var _, err = c.controller.Start(ctx)
		if err != nil {
			return err
		}
	}

	var commands = make(chan string)
	var done = make(chan struct{})
	defer close(done)
	go func() {
		defer close(commands)
		readCommands(c.in, commands, done)
	}()

	var frames <-chan time.Time
	if c.frameInterval > 0 {
		var ticker = time.NewTicker(c.frameInterval)
		defer ticker.Stop()
		frames = ticker.C
	}

	// finished is armed once input ends, training then runs until the session stops on its own.
	var finished <-chan struct{}
	var input <-chan string = commands
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-frames:
			c.frame()
		case <-finished:
			c.frame()
			return nil
		case commandLine, ok := <-input:
			if !ok {
				input = nil
				finished = c.controller.Current().Done()
				continue
			}
			var err = c.handle(ctx, commandLine)
			if err == errQuit {
				return nil
			}
			if err != nil {
				logger.Println(err)
			}
		}
	}
}

func readCommands(in io.Reader, commands chan<- string, done <-chan struct{}) {
	var scanner = bufio.NewScanner(in)
	for scanner.Scan() {
		var commandLine = strings.TrimSpace(scanner.Text())
		if commandLine == "" {
			continue
		}
		select {
		case commands <- commandLine:
		case <-done:
			return
		}
	}
}

// frame takes one snapshot and prints it when training has moved since the last frame.
func (c *Console) frame() {
	var s = c.controller.Current()
	if s == nil {
		return
	}
	var p = s.Snapshot()
	if p.SessionID == c.lastFrame.SessionID && p.Epoch == c.lastFrame.Epoch && p.State == c.lastFrame.State {
		return
	}
	c.lastFrame = p
	fmt.Fprintln(c.out, FormatFrame(p))
}

func (c *Console) handle(ctx context.Context, commandLine string) error {
	var fields = strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil
	}
	var commandName = fields[0]
	fields = fields[1:]

	var h func(ctx context.Context, s *session.Session, fields []string) error

	switch commandName {
	case "quit":
		return errQuit
	case "reset":
		return c.resetCommand(ctx)
	case "pause":
		h = signalCommand(session.Pause)
	case "resume":
		h = signalCommand(session.Resume)
	case "stop":
		h = signalCommand(session.Stop)
	case "status":
		h = c.statusCommand
	case "predict":
		h = c.predictCommand
	case "graph":
		h = c.graphCommand
	case "save":
		h = c.saveCommand
	case "render":
		h = c.renderCommand
	}

	if h == nil {
		return errors.Errorf("command not found: %v", commandName)
	}
	var s = c.controller.Current()
	if s == nil {
		return errors.Wrap(ml.ErrConcurrency, "no training session")
	}
	return h(ctx, s, fields)
}

func signalCommand(signal session.Signal) func(ctx context.Context, s *session.Session, fields []string) error {
	return func(ctx context.Context, s *session.Session, fields []string) error {
		return s.Send(signal)
	}
}

func (c *Console) resetCommand(ctx context.Context) error {
	var s, err = c.controller.Reset(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "session %v\n", s.ID())
	return nil
}

func (c *Console) statusCommand(ctx context.Context, s *session.Session, fields []string) error {
	fmt.Fprintln(c.out, FormatStatus(s.Snapshot()))
	return nil
}

// predict without arguments echoes the training set, otherwise evaluates the given input.
func (c *Console) predictCommand(ctx context.Context, s *session.Session, fields []string) error {
	if len(fields) == 0 {
		var p = s.Snapshot()
		var text, err = FormatPredictions(s.CloneNetwork(), p.TrainingSet)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, text)
		return nil
	}
	var input = make([]float64, len(fields))
	for i, field := range fields {
		var x, err = strconv.ParseFloat(field, 64)
		if err != nil {
			return errors.Wrapf(ml.ErrConfiguration, "predict: %v", err)
		}
		input[i] = x
	}
	var output, err = s.Predict(input)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, formatFloats(output))
	return nil
}

func (c *Console) graphCommand(ctx context.Context, s *session.Session, fields []string) error {
	var text string
	s.View(func(n *train.Network) {
		text = FormatGraph(n)
	})
	fmt.Fprintln(c.out, text)
	return nil
}

func (c *Console) saveCommand(ctx context.Context, s *session.Session, fields []string) error {
	if len(fields) != 1 {
		return errors.Wrap(ml.ErrConfiguration, "usage: save <path>")
	}
	var file, err = os.Create(fields[0])
	if err != nil {
		return err
	}
	err = s.CloneNetwork().Save(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved %v\n", fields[0])
	return nil
}

func (c *Console) renderCommand(ctx context.Context, s *session.Session, fields []string) error {
	if len(fields) < 1 || len(fields) > 2 {
		return errors.Wrap(ml.ErrConfiguration, "usage: render <path> [size]")
	}
	var size = defaultRenderSize
	if len(fields) == 2 {
		var err error
		size, err = strconv.Atoi(fields[1])
		if err != nil {
			return errors.Wrapf(ml.ErrConfiguration, "render size: %v", err)
		}
	}
	var err = imageset.SavePNG(fields[0], s.CloneNetwork(), size)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "rendered %v\n", fields[0])
	return nil
}
