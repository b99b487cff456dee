package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/procfs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tusharlock10/sentinel-adbg/antitamper"
	"github.com/tusharlock10/sentinel-adbg/internal/config"
	"github.com/tusharlock10/sentinel-adbg/internal/report"
)

// version is set at build time via -ldflags "-X main.version=<version>"
var version string

var errDetected = errors.New("tracing activity detected")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:          "adbg",
		Short:        "adbg detects debuggers and tracers attached to a process",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfg.Verbose {
				antitamper.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log which check fired")
	addProbeFlags(flags, cfg)

	rootCmd.AddCommand(newCheckCmd(cfg), newListCmd(), newWatchCmd(cfg))
	return rootCmd
}

func addProbeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.ProcMount, "proc", procfs.DefaultMountPoint, "procfs mount point")
	flags.StringVar(&cfg.TrapSignal, "trap-signal", "TRAP", "Signal raised by the signal probe")
	flags.DurationVar(&cfg.SignalWait, "signal-wait", antitamper.DefaultSignalWait, "How long to wait for the trap signal to be delivered")
	flags.StringVar(&cfg.Format, "format", config.FormatTable, "Report format: table, json or yaml")
	flags.DurationVar(&cfg.MinInterval, "min-interval", antitamper.DefaultMinInterval, "Minimum delay between watch checks")
	flags.DurationVar(&cfg.MaxInterval, "max-interval", antitamper.DefaultMaxInterval, "Maximum delay between watch checks")
}

func newCheckCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [probe...]",
		Short: "Run the probes once and print a report",
		Long: "Run the probes once and print a report. Without arguments every probe runs, " +
			"stopping at the first detection unless --exhaustive is given. " +
			"Exits non-zero when tracing activity is detected.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Probes = args
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			rep := report.New(registry.Run(cfg.Exhaustive))
			if err := rep.Write(cmd.OutOrStdout(), cfg.Format); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if rep.Detected {
				return errDetected
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.Exhaustive, "exhaustive", false, "Run every probe instead of stopping at the first detection")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available probes in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range antitamper.New().Names() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, antitamper.Description(name)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newWatchCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [probe...]",
		Short: "Re-run the probes at random intervals until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Probes = args
			registry, err := buildRegistry(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := setupSignalHandler()
			defer cancel()

			m := antitamper.NewMonitor(registry)
			m.MinInterval = cfg.MinInterval
			m.MaxInterval = cfg.MaxInterval
			m.OnDetect = func(results []antitamper.Result) {
				rep := report.New(results)
				if err := rep.Write(cmd.OutOrStdout(), cfg.Format); err != nil {
					log.Printf("Failed to write report: %v", err)
				}
				if cfg.ExitOnDetect {
					cancel()
				}
			}

			log.Printf("Watching %v every %s-%s", registry.Names(), cfg.MinInterval, cfg.MaxInterval)
			m.Start(ctx)

			if m.IsCompromised() {
				log.Printf("Tracing activity first detected at %s", m.DetectedAt().Format(time.RFC3339))
				return errDetected
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.ExitOnDetect, "exit-on-detect", false, "Stop watching after the first detection")
	return cmd
}

// buildRegistry validates cfg and returns the registry it selects.
func buildRegistry(cfg *config.Config) (*antitamper.Registry, error) {
	all := antitamper.New()
	if err := cfg.Validate(all.Names()); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	sig, err := cfg.Signal()
	if err != nil {
		return nil, err
	}

	registry := antitamper.New(
		antitamper.WithProcMount(cfg.ProcMount),
		antitamper.WithTrapSignal(sig),
		antitamper.WithSignalWait(cfg.SignalWait),
	)
	if len(cfg.Probes) == 0 {
		return registry, nil
	}
	return registry.Subset(cfg.Probes...)
}

// setupSignalHandler installs SIGINT/SIGTERM handlers and returns a context that
// is cancelled when a signal is received.
func setupSignalHandler() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
