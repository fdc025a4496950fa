// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command g3ddemo spins the g3d cube through a scripted window.
//
// The window is headless: it replays a fixed number of redraws with
// optional periodic resizes, then closes. Hardware backends need a surface
// they can present to; with -backend=auto the first backend that opens is
// used.
//
// Usage:
//
//	g3ddemo -backend=sim -frames=600 -resize-every=100
//	g3ddemo -config=g3d.toml -v
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/g3d"
	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/config"
	"github.com/gogpu/g3d/frame"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/window"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("g3ddemo: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("g3ddemo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		name        = fs.String("backend", "auto", "device backend: sim, noop, vulkan, metal, dx12, gl or auto")
		cfgPath     = fs.String("config", "", "TOML or YAML configuration file")
		frames      = fs.Int("frames", 0, "number of redraws before the window closes")
		width       = fs.Int("width", 0, "window width in pixels")
		height      = fs.Int("height", 0, "window height in pixels")
		resizeEvery = fs.Int("resize-every", 0, "resize the window after every n redraws")
		shader      = fs.String("shader", "", "WGSL shader file, reloaded when it changes")
		dump        = fs.String("dump-config", "", "print the effective configuration as toml or yaml and exit")
		verbose     = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = *name
		case "frames":
			cfg.Window.Frames = *frames
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "resize-every":
			cfg.Window.ResizeEvery = *resizeEvery
		case "shader":
			cfg.Shader.Path, cfg.Shader.Watch = *shader, true
		}
	})
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	if *dump != "" {
		format, err := config.FormatOf("." + *dump)
		if err != nil {
			return err
		}
		return cfg.Encode(stdout, format)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	g3d.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer g3d.SetLogger(nil)

	backend.RegisterHAL()

	w := cfg.Window
	win := window.NewScripted(w.Width, w.Height, window.Script(w.Width, w.Height, w.Frames, w.ResizeEvery, w.ResizeStep)...)
	dev, err := open(cfg.Backend, backend.Target{Size: win.Extent})
	if err != nil {
		return err
	}
	defer dev.Destroy()

	e, err := g3d.New(dev, win, opts...)
	if err != nil {
		return err
	}
	start := time.Now()
	runErr := e.Run(ctx, win.Events(ctx))
	elapsed := time.Since(start)
	if err := errors.Join(runErr, e.Close()); err != nil {
		return err
	}

	printStats(stdout, dev.Name(), e.Stats(), elapsed)
	return nil
}

// open opens the named backend. Auto tries every available backend,
// best first.
func open(name string, t backend.Target) (gpucore.Device, error) {
	if name != backend.Auto {
		return backend.Open(name, t)
	}
	var errs []error
	for _, n := range backend.Available() {
		dev, err := backend.Open(n, t)
		if err == nil {
			return dev, nil
		}
		g3d.Logger().Warn("backend unavailable", "backend", n, "err", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{backend.ErrBackendNotAvailable}, errs...)...)
}

func printStats(w io.Writer, device string, s frame.Stats, elapsed time.Duration) {
	p := message.NewPrinter(language.English)
	fps := 0.0
	if elapsed > 0 {
		fps = float64(s.Presented) / elapsed.Seconds()
	}
	p.Fprintf(w, "device %s: %d frames presented in %v (%.1f fps)\n", device, s.Presented, elapsed.Round(time.Millisecond), fps)
	p.Fprintf(w, "  cycles %d, submissions %d, skipped %d, stale %d, suboptimal %d\n",
		s.Cycles, s.Submissions, s.Skipped, s.Stale, s.Suboptimal)
	p.Fprintf(w, "  swapchain rebuilds %d, pipeline rebuilds %d, re-records %d\n",
		s.Rebuilds, s.PipelineRebuilds, s.Records)
	p.Fprintf(w, "  slot waits %d, stalls %d, max in flight %d\n", s.SlotWaits, s.Stalls, s.MaxInFlight)
}
