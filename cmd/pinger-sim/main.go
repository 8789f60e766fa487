package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/pinger-simulator/core"
	"github.com/signalsfoundry/pinger-simulator/internal/api"
	"github.com/signalsfoundry/pinger-simulator/internal/config"
	"github.com/signalsfoundry/pinger-simulator/internal/logging"
	"github.com/signalsfoundry/pinger-simulator/internal/observability"
	"github.com/signalsfoundry/pinger-simulator/internal/udp"
	"github.com/signalsfoundry/pinger-simulator/internal/wire"
	"github.com/signalsfoundry/pinger-simulator/model"
	"github.com/signalsfoundry/pinger-simulator/timectrl"
)

func main() {
	configPath := flag.String("config", "configs/pinger-sim.yaml", "Path to the YAML process configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logging is configured from the file we just failed to read,
		// so fall back to defaults for this one message.
		log := logging.New(logging.Config{})
		log.Error(context.Background(), "failed to load config",
			logging.String("path", *configPath), logging.Error(err))
		os.Exit(1)
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	collector, err := observability.NewPingerCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Error(err))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Error(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	scenario := loadScenario(log, cfg.Scenario)

	epoch := time.Now().UTC()
	motion := core.NewMotionModel(scenario.Vehicle, epoch)

	publish, closePublisher := buildPublisher(ctx, cfg, log)
	defer closePublisher()

	engine := core.NewSimulationEngine(scenario.Vehicle.ID, motion, publish, collector)
	for _, def := range scenario.Pingers {
		pinger, err := core.NewPinger(def)
		if err != nil {
			log.Error(ctx, "invalid pinger definition", logging.String("pinger", def.ID), logging.Error(err))
			os.Exit(1)
		}
		engine.AddPinger(pinger)
	}
	collector.SetScenarioPingers(len(scenario.Pingers))

	log.Info(ctx, "scenario loaded",
		logging.String("path", cfg.Scenario),
		logging.String("vehicle", scenario.Vehicle.ID),
		logging.Int("pingers", len(scenario.Pingers)),
	)

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.UDP.Listen != "" {
		startPositionListener(stopCtx, cfg.UDP.Listen, engine, collector, log)
	}

	mode := timectrl.RealTime
	if cfg.Sim.Accelerated {
		mode = timectrl.Accelerated
	}
	tc := timectrl.NewTimeController(epoch, cfg.Sim.Tick, mode)
	tc.AddListener(func(simTime time.Time) {
		engine.Step(stopCtx, simTime)
	})

	apiSrv := serveAPI(cfg.API.Listen, api.NewServer(engine, tc, collector, log), log)
	metricsSrv := serveMetrics(cfg.API.MetricsListen, collector, log)

	log.Info(ctx, "starting simulation",
		logging.Duration("tick", cfg.Sim.Tick),
		logging.Duration("duration", cfg.Sim.Duration),
		logging.Int("mode", int(mode)),
	)
	done := tc.Start(stopCtx, cfg.Sim.Duration)

	select {
	case <-stopCtx.Done():
		log.Info(ctx, "interrupt received; shutting down")
	case <-done:
		log.Info(ctx, "simulation complete")
		stop()
	}
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}

func loadScenario(log logging.Logger, path string) *core.Scenario {
	f, err := os.Open(path)
	if err != nil {
		log.Error(context.Background(), "failed to open scenario", logging.String("path", path), logging.Error(err))
		os.Exit(1)
	}
	defer f.Close()

	scenario, err := core.LoadScenario(f)
	if err != nil {
		log.Error(context.Background(), "failed to load scenario", logging.String("path", path), logging.Error(err))
		os.Exit(1)
	}
	return scenario
}

// buildPublisher assembles the observation sink: wire-encode each
// observation, send it over UDP when a destination is configured, and
// mirror it to the debug log.
func buildPublisher(ctx context.Context, cfg config.Config, log logging.Logger) (core.Publisher, func()) {
	var broadcaster *udp.Broadcaster
	if cfg.UDP.Dest != "" {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			log.Error(ctx, "failed to open observation broadcaster",
				logging.String("dest", cfg.UDP.Dest), logging.Error(err))
			os.Exit(1)
		}
		broadcaster = b
		log.Info(ctx, "publishing observations over UDP", logging.String("dest", cfg.UDP.Dest))
	}

	publish := func(obs model.Observation) {
		log.Debug(ctx, "observation",
			logging.String("pinger", obs.PingerID),
			logging.Float("range_m", obs.Range),
			logging.Float("bearing_rad", obs.Bearing),
			logging.Float("elevation_rad", obs.Elevation),
		)

		if broadcaster == nil {
			return
		}
		frame, err := wire.EncodeObservation(obs)
		if err != nil {
			log.Warn(ctx, "failed to encode observation", logging.String("pinger", obs.PingerID), logging.Error(err))
			return
		}
		if err := broadcaster.Send(frame); err != nil {
			log.Warn(ctx, "failed to send observation", logging.String("pinger", obs.PingerID), logging.Error(err))
		}
	}

	closer := func() {
		if broadcaster != nil {
			_ = broadcaster.Close()
		}
	}
	return publish, closer
}

func startPositionListener(ctx context.Context, listenAddr string, engine *core.SimulationEngine, collector *observability.PingerCollector, log logging.Logger) {
	listener, err := udp.NewListener(listenAddr, func(ps wire.PositionSet) {
		pinger, ok := engine.Pinger(ps.PingerID)
		if !ok {
			log.Warn(ctx, "position update for unknown pinger", logging.String("pinger", ps.PingerID))
			return
		}
		pinger.SetPosition(core.Vec3{X: ps.X, Y: ps.Y, Z: ps.Z})
		collector.PositionUpdated(ps.PingerID, "udp")
	}, log)
	if err != nil {
		log.Error(ctx, "failed to open position listener", logging.String("listen", listenAddr), logging.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "listening for position updates over UDP", logging.String("listen", listenAddr))
	go func() {
		if err := listener.Run(ctx); err != nil {
			log.Error(ctx, "position listener exited", logging.Error(err))
		}
	}()
}

func serveAPI(addr string, server *api.Server, log logging.Logger) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(context.Background(), "api server exited", logging.Error(err))
		}
	}()

	log.Info(context.Background(), "serving control API", logging.String("addr", addr))
	return srv
}

func serveMetrics(addr string, collector *observability.PingerCollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Error(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
