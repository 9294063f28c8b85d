package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"particlesphere/config"
	"particlesphere/logger"
	"particlesphere/metrics"
	"particlesphere/rendering"
	"particlesphere/server"
	"particlesphere/simulation"
)

func init() {
	// GLFW and raylib must run on the main thread
	runtime.LockOSThread()
}

func main() {
	// Parse command line flags
	var (
		configPath = flag.String("config", "settings.json", "Settings file, reloaded on change")
		backend    = flag.String("backend", "", "Display backend (gl, raylib, terminal, headless)")
		width      = flag.Int("width", 0, "Window width")
		height     = flag.Int("height", 0, "Window height")
		logLevel   = flag.String("log-level", "", "Log level (debug, info, warn, error)")
		addr       = flag.String("addr", "", "Control server address, empty uses the settings")
		noServer   = flag.Bool("no-server", false, "Disable the control server")
		watch      = flag.Bool("watch", true, "Reload the settings file when it changes")
	)
	flag.Parse()

	settings, loadErr := config.Load(*configPath, nil)

	// Command line overrides the file
	if *backend != "" {
		settings.Window.Backend = *backend
	}
	if *width > 0 {
		settings.Window.Width = *width
	}
	if *height > 0 {
		settings.Window.Height = *height
	}
	if *logLevel != "" {
		settings.Log.Level = *logLevel
	}
	if *addr != "" {
		settings.Server.Address = *addr
	}
	if *noServer {
		settings.Server.Enabled = false
	}

	settings, notes := settings.Normalize()

	// Log lines would tear the terminal display
	if settings.Window.Backend == config.BackendTerminal && *logLevel == "" {
		settings.Log.Level = "warn"
	}

	zlog, err := logger.New(logger.Config{
		Level:       settings.Log.Level,
		Development: settings.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()
	zap.ReplaceGlobals(zlog)

	if loadErr != nil {
		zlog.Warn("Using default settings", zap.Error(loadErr))
	}
	for _, n := range notes {
		zlog.Warn("Adjusted setting", zap.String("detail", n))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *watch, settings, zlog); err != nil {
		zlog.Fatal("Particle sphere exited with error", zap.Error(err))
	}
}

func run(ctx context.Context, configPath string, watch bool, settings config.Settings, zlog *zap.Logger) error {
	recorder := metrics.NewRecorder(nil)

	params, notes := settings.Sphere.Params(simulation.DefaultParams())
	for _, n := range notes {
		zlog.Warn("Adjusted sphere setting", zap.String("detail", n))
	}
	pipeline := simulation.NewPipeline(params, simulation.Options{
		Logger:   zlog.Named("pipeline"),
		Observer: recorder,
	})
	controller := server.NewController(settings.Sphere, pipeline, recorder, zlog.Named("controller"))

	// Drag speed is read by the render thread
	var dragSpeed atomic.Uint32
	dragSpeed.Store(math.Float32bits(controller.Settings().RotationDragSpeed))
	controller.OnChange(func(s config.SphereSettings) {
		dragSpeed.Store(math.Float32bits(s.RotationDragSpeed))
	})

	g, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	if watch {
		watcher, err := config.NewWatcher(configPath, zlog.Named("settings"), func(s config.Settings) {
			controller.Apply("file", s.Sphere)
		})
		if err != nil {
			zlog.Warn("Settings watcher unavailable", zap.Error(err))
		} else if err := watcher.Start(gctx); err != nil {
			zlog.Warn("Settings watcher unavailable", zap.Error(err))
			_ = watcher.Stop()
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	var latest atomic.Pointer[server.Stats]
	latest.Store(&server.Stats{Type: server.TypeStats})
	stats := func() server.Stats { return *latest.Load() }

	var threaded *simulation.ThreadedPipeline
	if settings.Window.Backend == config.BackendHeadless {
		threaded = simulation.NewThreadedPipeline(pipeline, simulation.NewClock(), settings.Window.TickRate, zlog.Named("ticker"))
		stats = func() server.Stats {
			var s server.Stats
			threaded.View(func(f *simulation.Frame) {
				s = server.StatsFromFrame(f, threaded.FrameTime())
			})
			return s
		}
	}

	if settings.Server.Enabled {
		interval := time.Duration(settings.Server.StatsIntervalMs) * time.Millisecond
		srv := server.New(controller, recorder, stats, interval, zlog.Named("server"))
		g.Go(func() error {
			return srv.Run(gctx, settings.Server.Address)
		})
	}

	var loopErr error
	if threaded != nil {
		threaded.Start()
		zlog.Info("Running headless", zap.Float64("tickRate", settings.Window.TickRate))
		<-gctx.Done()
		threaded.Stop()
	} else {
		loopErr = runWindow(gctx, settings.Window, pipeline, &dragSpeed, &latest, zlog)
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return loopErr
}

// runWindow drives the pipeline once per displayed frame until the window
// closes or ctx is cancelled
func runWindow(ctx context.Context, ws config.WindowSettings, pipeline *simulation.Pipeline, dragSpeed *atomic.Uint32, latest *atomic.Pointer[server.Stats], zlog *zap.Logger) error {
	camera := rendering.NewCamera(float32(ws.Width) / float32(ws.Height))

	display, err := openDisplay(ws, camera, pipeline.Input(), zlog)
	if err != nil {
		return fmt.Errorf("failed to open %s display: %w", ws.Backend, err)
	}
	defer display.Terminate()

	zlog.Info("Controls: drag to orbit, scroll to zoom, hover to attract, Esc to exit")

	clock := simulation.NewClock()
	frameCount := 0
	lastFPSTime := time.Now()

	// Main loop
	for !display.ShouldClose() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		display.PollEvents()
		camera.SetDragSpeed(math.Float32frombits(dragSpeed.Load()))

		start := time.Now()
		frame := pipeline.Tick(clock.Elapsed())
		s := server.StatsFromFrame(frame, time.Since(start))
		latest.Store(&s)

		display.Present(frame)

		// FPS counter
		frameCount++
		if now := time.Now(); now.Sub(lastFPSTime) >= time.Second {
			fps := float64(frameCount) / now.Sub(lastFPSTime).Seconds()
			display.SetTitle(fmt.Sprintf("%s | %.1f FPS | %d particles", ws.Title, fps, frame.Len()))
			frameCount = 0
			lastFPSTime = now
		}
	}

	zlog.Info("Window closed")
	return nil
}
