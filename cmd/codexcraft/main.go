// Command codexcraft flies a camera over streamed terrain without a window.
// Every tick runs the same consumer loop a renderer would: update the chunk
// window, gather draw commands, draw them into headless meshes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/time/rate"

	"github.com/MasterKyle08/CodexCraft/internal/config"
	"github.com/MasterKyle08/CodexCraft/internal/debug"
	"github.com/MasterKyle08/CodexCraft/internal/render"
	"github.com/MasterKyle08/CodexCraft/internal/streamer"
	"github.com/MasterKyle08/CodexCraft/internal/terrain"
	"github.com/MasterKyle08/CodexCraft/internal/world"
)

func main() {
	var (
		cfgPath   string
		frames    int
		flySpeed  float64
		debugAddr string
		verbose   bool
	)
	flag.StringVar(&cfgPath, "config", "codexcraft.yaml", "path to the configuration file (created with defaults when missing)")
	flag.IntVar(&frames, "frames", 0, "stop after this many frames (0 runs until interrupted)")
	flag.Float64Var(&flySpeed, "fly-speed", -1, "camera speed in blocks per second (overrides app.fly_speed)")
	flag.StringVar(&debugAddr, "debug-addr", "", "listen address for the debug HTTP server (overrides debug.addr)")
	flag.BoolVar(&verbose, "verbose", false, "log dropped uploads")
	flag.Parse()

	if wrote, err := writeConfigFromEnv(cfgPath); err != nil {
		log.Fatalf("sync config from environment: %v", err)
	} else if wrote {
		log.Printf("configuration written from environment to %s", cfgPath)
	}

	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		if err := config.WriteDefault(cfgPath); err != nil {
			log.Fatalf("write default config: %v", err)
		}
		log.Printf("wrote default configuration to %s", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if flySpeed >= 0 {
		cfg.App.FlySpeed = flySpeed
	}
	if debugAddr != "" {
		cfg.Debug.Addr = debugAddr
	}
	for _, w := range cfg.Warnings() {
		log.Printf("warning: %s", w)
	}

	ctx, reload, cancel := watchSignals()
	defer cancel()

	if err := run(ctx, cfg, frames, verbose, reload); err != nil {
		log.Fatalf("codexcraft exited with error: %v", err)
	}
}

// run drives the consumer loop until ctx is done or maxFrames frames have
// been drawn. Each receive on reload remeshes every loaded chunk.
func run(ctx context.Context, cfg *config.Config, maxFrames int, verbose bool, reload <-chan struct{}) error {
	registry, err := world.RegistryFromConfig(cfg.Blocks)
	if err != nil {
		return fmt.Errorf("build block registry: %w", err)
	}
	generator, err := terrain.NewGenerator(cfg.Noise, registry)
	if err != nil {
		return fmt.Errorf("build terrain generator: %w", err)
	}

	var meshStats render.HeadlessStats
	s := streamer.New(streamer.Options{
		Streaming:         cfg.Streaming,
		LOD:               cfg.LOD,
		Registry:          registry,
		Atlas:             world.AtlasFromConfig(cfg.Atlas),
		Generator:         generator,
		MeshFactory:       render.HeadlessFactory(&meshStats),
		GenerationWorkers: cfg.Jobs.GenerationWorkers,
		MeshingWorkers:    cfg.Jobs.MeshingWorkers,
		Verbose:           verbose,
	})
	defer s.Close()

	debugDone := make(chan struct{})
	debugCtx, stopDebug := context.WithCancel(ctx)
	defer func() {
		stopDebug()
		<-debugDone
	}()
	go func() {
		defer close(debugDone)
		if cfg.Debug.Addr == "" {
			return
		}
		srv := debug.New(cfg.Debug.Addr, s, cfg.Debug.StreamInterval.Duration())
		if err := srv.Run(debugCtx); err != nil {
			log.Printf("debug server: %v", err)
		}
	}()

	start := mgl32.Vec3{8, float32(cfg.Noise.BaseHeight) + 48, 8}
	cam := render.NewCamera(start, float32(cfg.App.FOV), cfg.App.Width, cfg.App.Height)
	cam.SetRotation(-20, 0)
	var frustum render.Frustum

	tick := cfg.App.TickRate.Duration()
	if tick <= 0 {
		tick = 16 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	statsLog := rate.NewLimiter(rate.Every(time.Second), 1)
	last := time.Now()
	frames := 0
	for maxFrames <= 0 || frames < maxFrames {
		select {
		case <-ctx.Done():
			log.Printf("stopping after %d frames", frames)
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			cam.Move(float32(cfg.App.FlySpeed)*dt, 0, 0)
		}

		select {
		case <-reload:
			log.Printf("reload requested, remeshing %d chunks", s.Stats().TotalChunks)
			s.Reload()
		default:
		}

		s.Update(cam.Position())
		frustum.Update(cam.ViewProjection())
		opaque, translucent := s.GatherDrawCommands(cam, &frustum)
		for _, cmd := range opaque {
			cmd.Draw()
		}
		for _, cmd := range translucent {
			cmd.Draw()
		}
		frames++

		if statsLog.Allow() {
			st := s.Stats()
			log.Printf("frame %d at %v: chunks=%d generating=%d meshPending=%d uploaded=%d inFlight=%d draws=%d/%d liveMeshes=%d",
				frames, world.FromWorld(cam.Position()), st.TotalChunks, st.Generating, st.MeshPending, st.Uploaded,
				st.MeshingInFlight, len(opaque), len(translucent), meshStats.Live.Load())
		}
	}
	log.Printf("frame budget of %d reached", maxFrames)
	return nil
}

const shutdownGrace = 10 * time.Second

// watchSignals returns a context cancelled by SIGINT or SIGTERM and a
// channel that receives once per SIGHUP. A stalled shutdown exits the
// process after shutdownGrace.
func watchSignals() (context.Context, <-chan struct{}, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	reload := make(chan struct{}, 1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigs)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigs:
				if sig == syscall.SIGHUP {
					select {
					case reload <- struct{}{}:
					default:
					}
					continue
				}
				log.Printf("received %v, shutting down", sig)
				cancel()
				time.AfterFunc(shutdownGrace, func() {
					log.Printf("shutdown exceeded %v, exiting", shutdownGrace)
					os.Exit(1)
				})
				return
			}
		}
	}()

	return ctx, reload, cancel
}
