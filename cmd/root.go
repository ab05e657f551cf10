package cmd

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sherreria/DualModeEeeSimulator/internal/observability"
	"github.com/sherreria/DualModeEeeSimulator/sim"
)

var (
	// CLI flags
	configPath    string  // YAML configuration file
	lengthSeconds float64 // Simulation length (in seconds)
	seed          int64   // Seed for traffic and frame size generation
	verbose       bool    // Print one line per dispatched event
	logLevel      string  // Log verbosity level
	metricsPath   string  // Prometheus textfile output
	otelTracePath string  // OpenTelemetry span output
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "dual-eee-sim",
	Short: "Discrete-event simulator for dual-mode Energy Efficient Ethernet links",
}

// runCmd executes the simulation using the configuration file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dual-mode EEE link simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		ctx := context.Background()
		tracer, shutdown, err := observability.InitTracing(ctx, otelTracePath)
		if err != nil {
			logrus.Fatalf("Failed to initialise tracing: %v", err)
		}
		defer observability.ShutdownWithTimeout(ctx, shutdown)

		_, loadSpan := tracer.Start(ctx, "load-config")
		fc, err := LoadFileConfig(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load configuration: %v", err)
		}
		// Flags override the file only when set explicitly.
		applyFlagOverrides(cmd, &fc)
		cfg, err := fc.Build()
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		loadSpan.SetAttributes(
			attribute.String("eee.mode", string(cfg.Coalescing.Mode)),
			attribute.String("traffic.distribution", fc.Traffic.Distribution),
			attribute.Int64("simulation.seed", cfg.Seed),
		)
		loadSpan.End()

		logrus.Infof("Starting simulation: mode=%s, capacity=%g b/s, traffic=%s %g b/s, length=%gs, seed=%d",
			cfg.Coalescing.Mode, cfg.Link.Capacity, fc.Traffic.Distribution, fc.Traffic.Rate, fc.Simulation.Length, cfg.Seed)

		startTime := time.Now()
		_, runSpan := tracer.Start(ctx, "simulate")
		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Failed to create simulator: %v", err)
		}
		stats := s.Run()
		runSpan.SetAttributes(
			attribute.Int("simulation.events", s.EventsProcessed()),
			attribute.Int64("frames.sent", stats.FramesSent),
		)
		runSpan.End()
		logrus.Infof("Simulation wall time: %s", time.Since(startTime))

		_, reportSpan := tracer.Start(ctx, "report")
		stats.Print(os.Stdout)
		if metricsPath != "" {
			if err := writeMetrics(stats, metricsPath); err != nil {
				logrus.Fatalf("Failed to export metrics: %v", err)
			}
			logrus.Infof("Metrics written to %s", metricsPath)
		}
		reportSpan.End()

		logrus.Info("Simulation complete.")
	},
}

// applyFlagOverrides copies the explicitly set flags into the file configuration.
func applyFlagOverrides(cmd *cobra.Command, fc *FileConfig) {
	if cmd.Flags().Changed("length") {
		fc.Simulation.Length = lengthSeconds
	}
	if cmd.Flags().Changed("seed") {
		fc.Simulation.Seed = seed
	}
	if cmd.Flags().Changed("verbose") {
		fc.Simulation.Verbose = verbose
	}
}

func writeMetrics(stats *sim.Statistics, path string) error {
	reg := prometheus.NewRegistry()
	collector, err := observability.NewRunCollector(reg)
	if err != nil {
		return err
	}
	collector.Observe(stats)
	return collector.WriteTextfile(path)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "f", "", "YAML configuration file (defaults are used when empty)")
	runCmd.Flags().Float64VarP(&lengthSeconds, "length", "l", 10, "Simulation length (in seconds)")
	runCmd.Flags().Int64VarP(&seed, "seed", "s", 123456789, "Seed for traffic and frame size generation")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one line per simulation event")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&metricsPath, "metrics-path", "", "Write final statistics as a Prometheus textfile to this path")
	runCmd.Flags().StringVar(&otelTracePath, "otel-trace-path", "", "Write OpenTelemetry spans of the run phases to this path")

	rootCmd.AddCommand(runCmd)
}
