// Command pong runs the paddle simulation headless.
//
// Profiling:
// go build ./cmd/pong
// ./pong -ticks 10000 -profile cpu
// go tool pprof -http=":8000" ./pong cpu.pprof
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/oriumgames/decs"
	"github.com/oriumgames/decs/internal/pong"
	"github.com/pkg/profile"
	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain returns the exit code, so deferred cleanup such as flushing the
// profile runs before the process exits.
func realMain(args []string) int {
	fs := flag.NewFlagSet("pong", flag.ContinueOnError)
	configPath := fs.String("config", "", "dispatcher config file (YAML)")
	settingsPath := fs.String("settings", "", "game settings file (YAML), reloaded on change")
	ticks := fs.Uint64("ticks", 200, "number of ticks to run, 0 runs until interrupted")
	profileMode := fs.String("profile", "", "write a profile to the working directory: cpu or mem")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		return 2
	}

	if err := run(*configPath, *settingsPath, *ticks); err != nil {
		slog.Error("pong: exit", "error", err)
		return 1
	}
	return 0
}

func run(configPath, settingsPath string, ticks uint64) error {
	cfg := decs.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = decs.LoadConfig(configPath); err != nil {
			return err
		}
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	settings := pong.DefaultSettings()
	if settingsPath != "" {
		var err error
		if settings, err = pong.LoadSettings(settingsPath); err != nil {
			return err
		}
	}

	w := decs.NewWorld()
	input := pong.NewScriptedInput(demoFrames(int(min(ticks, 600)))...)

	d, err := decs.NewDispatcherBuilder(cfg.Options(logger)...).
		Bundle(w, pong.Bundle{Input: input, Settings: settings, Logger: logger}).
		Build()
	if err != nil {
		return err
	}
	if err := d.Setup(w); err != nil {
		return err
	}
	defer d.Close(w)

	runner := decs.NewRunner(w, d,
		decs.WithTickRate(cfg.TickRate),
		decs.WithMaxTicks(ticks),
		decs.WithRunnerLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if settingsPath != "" {
		watcher, err := pong.NewWatcher(settingsPath, logger)
		if err != nil {
			return err
		}
		runner.BeforeTick(watcher.Apply)
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	// Input advances after the tick that consumed it.
	first := true
	runner.BeforeTick(func(*decs.World) error {
		if !first {
			input.Advance()
		}
		first = false
		return nil
	})

	g.Go(func() error {
		defer cancel()
		return runner.Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log := decs.Fetch[pong.MoveLog](w)
	frame := decs.Fetch[pong.Frame](w)
	logger.Info("pong: done",
		"ticks", runner.Ticks(),
		"moves", log.Total,
		"left_y", log.Last[pong.SideLeft],
		"right_y", log.Last[pong.SideRight],
		"left_clip", frame.Paddles[pong.SideLeft],
		"right_clip", frame.Paddles[pong.SideRight])
	return nil
}

// demoFrames scripts both paddles oscillating in opposite directions.
func demoFrames(n int) []map[string]float32 {
	frames := make([]map[string]float32, n)
	for i := range frames {
		v := float32(1)
		if (i/30)%2 == 1 {
			v = -1
		}
		frames[i] = map[string]float32{
			pong.SideLeft.Axis():  v,
			pong.SideRight.Axis(): -v,
		}
	}
	return frames
}
