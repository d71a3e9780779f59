// Command sparsh is the hand-pointer daemon. It boots the plugin
// supervisor, serves the vision ingress and the page bridge, and turns
// webcam hand tracking into W3C pointer cascades on the connected page.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/ayusman/sparsh/internal/bus"
	"github.com/ayusman/sparsh/internal/config"
	"github.com/ayusman/sparsh/internal/filter"
	"github.com/ayusman/sparsh/internal/gesture"
	"github.com/ayusman/sparsh/internal/host"
	"github.com/ayusman/sparsh/internal/kernel"
	"github.com/ayusman/sparsh/internal/plugins/fabric"
	"github.com/ayusman/sparsh/internal/plugins/intent"
	"github.com/ayusman/sparsh/internal/plugins/replay"
	"github.com/ayusman/sparsh/internal/plugins/sensor"
	"github.com/ayusman/sparsh/internal/plugins/smoothing"
	"github.com/ayusman/sparsh/internal/plugins/stillness"
	"github.com/ayusman/sparsh/internal/plugins/trace"
	"github.com/ayusman/sparsh/internal/pointer"
	"github.com/ayusman/sparsh/internal/server"
	"github.com/ayusman/sparsh/internal/store"
	"github.com/ayusman/sparsh/internal/track"
	"github.com/ayusman/sparsh/internal/tray"
)

// gatedSink wraps the production sink with the tray's delivery toggle.
type gatedSink struct {
	sink    pointer.Sink
	enabled atomic.Bool
}

func newGatedSink(sink pointer.Sink) *gatedSink {
	g := &gatedSink{sink: sink}
	g.enabled.Store(true)
	return g
}

func (g *gatedSink) Dispatch(rec pointer.DispatchRecord) error {
	if !g.enabled.Load() {
		return nil
	}
	return g.sink.Dispatch(rec)
}

func main() {
	fmt.Println("Sparsh - Hand Pointer Daemon")

	configPath := flag.String("config", "", "config file (TOML); defaults apply when missing")
	withTray := flag.Bool("tray", false, "show the system tray")
	replaySession := flag.String("replay", "", "replay a recorded session instead of the live ingress")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	defer loader.Close()

	// Supervisor owns the bus and the PAL; everything else hangs off it.
	sup := kernel.NewSupervisor()

	model := host.NewModel(sup.Bus())
	model.Seed(sup.PAL())

	st, err := openStore(cfg, *replaySession != "" || cfg.Storage.Trace)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	if st != nil {
		defer st.Close()
	}

	// Build the plugin set.
	intentPlugin := intent.New(gestureConfig(cfg))
	smoothingPlugin := smoothing.New(filterConfig(cfg))
	stillnessPlugin := stillness.New(stillnessConfig(cfg))

	var sensorPlugin *sensor.Sensor
	srvConfig := server.Config{Host: model, Store: st}
	if *replaySession == "" {
		sensorPlugin = sensor.New()
		srvConfig.OnFrames = sensorPlugin.Ingest
	}
	srv := server.New(srvConfig)
	defer srv.Close()

	sink := newGatedSink(srv.Bridge())
	fabricPlugin := fabric.New(fabricConfig(cfg), sink)

	var names []string
	mustRegister := func(err error, name string) {
		if err != nil {
			log.Fatalf("Failed to register %s: %v", name, err)
		}
		names = append(names, name)
	}

	if sensorPlugin != nil {
		mustRegister(sup.Register(sensorPlugin), sensorPlugin.Name())
	}
	mustRegister(sup.Register(intentPlugin), intentPlugin.Name())
	mustRegister(sup.Register(smoothingPlugin), smoothingPlugin.Name())
	mustRegister(sup.Register(fabricPlugin), fabricPlugin.Name())
	mustRegister(sup.Register(stillnessPlugin), stillnessPlugin.Name())
	if cfg.Storage.Trace && st != nil {
		tracePlugin := trace.New(st, names)
		mustRegister(sup.Register(tracePlugin), tracePlugin.Name())
	}
	if *replaySession != "" {
		replayPlugin := replay.New(st, *replaySession)
		mustRegister(sup.Register(replayPlugin), replayPlugin.Name())
	}

	// Tuning changes apply on the tick domain, between messages.
	loader.OnChange(func(c *config.Config) {
		srv.Dispatch(func() {
			intentPlugin.SetConfig(gestureConfig(c))
			smoothingPlugin.SetConfig(filterConfig(c))
			fabricPlugin.SetConfig(fabricConfig(c))
			stillnessPlugin.SetConfig(stillnessConfig(c))
			log.Printf("config reloaded")
		})
	})
	if *configPath != "" {
		if err := loader.Watch(); err != nil {
			log.Printf("Config watch disabled: %v", err)
		}
	}

	// The error surface must exist before any plugin starts: a boot
	// failure has to reach the page, not just the log.
	go func() {
		log.Printf("Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(cfg.Server.Addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := sup.InitAll(); err != nil {
		srv.Bridge().SendStatus("error", err.Error())
		log.Fatalf("Boot failed: %v", err)
	}
	if err := sup.StartAll(); err != nil {
		srv.Bridge().SendStatus("error", err.Error())
		log.Fatalf("Boot failed: %v", err)
	}
	log.Printf("Booted: %d plugins", len(names))

	if *withTray {
		runTray(sup, srv, sink)
	} else {
		waitForSignal()
	}

	if err := sup.DestroyAll(); err != nil {
		log.Printf("Shutdown: %v", err)
	}
}

// runTray blocks on the tray event loop (required on macOS: the tray
// must own the main thread).
func runTray(sup *kernel.Supervisor, srv *server.Server, sink *gatedSink) {
	t := tray.New()
	t.OnToggle(func(enabled bool) {
		sink.enabled.Store(enabled)
		log.Printf("Delivery %v", enabled)
	})
	t.OnQuit(func() {})

	sup.Bus().Subscribe(bus.GestureIntent, func(payload any) {
		if in, ok := payload.(track.Intent); ok && in.Kind == track.IntentPinchStart {
			t.SetLastIntent(string(in.Kind))
		}
	})

	t.Run()
}

func waitForSignal() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("Shutting down")
}

func openStore(cfg *config.Config, needed bool) (*store.Store, error) {
	if !needed {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o755); err != nil {
		return nil, err
	}
	return store.New(cfg.Storage.Path)
}

func gestureConfig(c *config.Config) gesture.Config {
	return gesture.Config{
		ConfHigh:      c.Gesture.ConfHigh,
		ConfLow:       c.Gesture.ConfLow,
		CommitFrames:  c.Gesture.CommitFrames,
		ReleaseFrames: c.Gesture.ReleaseFrames,
	}
}

func filterConfig(c *config.Config) filter.Config {
	return filter.Config{
		MinCutoff:    c.Filter.MinCutoff,
		Beta:         c.Filter.Beta,
		DCutoff:      c.Filter.DCutoff,
		Rate:         c.Filter.Rate,
		PredictTicks: c.Filter.PredictTicks,
	}
}

func fabricConfig(c *config.Config) pointer.Config {
	return pointer.Config{
		SnapRadius:     c.Fabric.SnapRadius,
		SpeedThreshold: c.Fabric.SpeedThreshold,
	}
}

func stillnessConfig(c *config.Config) stillness.Config {
	return stillness.Config{
		SpeedThreshold: c.Stillness.SpeedThreshold,
		Ticks:          c.Stillness.Ticks,
	}
}
