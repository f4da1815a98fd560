package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/luki/hasensors/internal/config"
	"github.com/luki/hasensors/internal/hass"
	"github.com/luki/hasensors/internal/logging"
	"github.com/luki/hasensors/internal/monitor"
	"github.com/luki/hasensors/internal/poller"
	"github.com/luki/hasensors/internal/sensor"
	"github.com/luki/hasensors/internal/store"
	"github.com/luki/hasensors/internal/viewer"
)

var (
	configPath = "config.yaml"
	token      = ""
	verbosity  = 0
	logFormat  = logging.FormatColoured
	logFile    = ""
	dataDir    = ""
	record     = false
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hasensors",
		Short:         "Terminal dashboard for Home Assistant sensors",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&token, "token", token, "Long-lived access token (overrides the file and "+config.TokenEnv+")")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logFormat, "Log format (coloured, plain, json)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", logFile, "Log file (the dashboard logs to <data-dir>/hasensors.log by default)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", dataDir, "Directory for recordings (default ~/.hasensors-data)")
	rootCmd.PersistentFlags().BoolVar(&record, "record", record, "Record every poll to daily CSV files")

	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll Home Assistant and print the sensor table on every update",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.OutOrStdout())
		},
	}
}

func onceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Fetch once, print the sensor table and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.OutOrStdout())
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Browse recorded sensor values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(os.Stderr, false); err != nil {
				return err
			}
			return viewer.Run(dataDir)
		},
	}
}

// setupLogging installs the global logger writing to out.
func setupLogging(out io.Writer, debug bool) error {
	format := logFormat
	if f, ok := out.(*os.File); ok && f != os.Stderr && format == logging.FormatColoured {
		format = logging.FormatPlain
	}
	return logging.Init(logging.Options{
		Format:    format,
		Verbosity: verbosity,
		Debug:     debug,
		Output:    out,
	})
}

// loadConfig reads the configuration file and applies the token overrides.
// Precedence is --token, then HASS_TOKEN, then the file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if token != "" {
		cfg.Token = token
	}
	return cfg, nil
}

func openRecorder() (*store.DiskStore, error) {
	if !record {
		return nil, nil
	}
	return store.New(dataDir)
}

func runDashboard() error {
	path := logFile
	if path == "" {
		dir := dataDir
		if dir == "" {
			dir = store.DataDir()
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return eris.Wrapf(err, "cannot create %s", dir)
		}
		path = filepath.Join(dir, "hasensors.log")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return eris.Wrapf(err, "cannot open log file %s", path)
	}
	defer f.Close()

	if err := setupLogging(f, false); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(f, cfg.DebugLogging); err != nil {
		return err
	}

	opts := monitor.Options{Config: cfg, Reload: loadConfig}
	ds, err := openRecorder()
	if err != nil {
		return err
	}
	if ds != nil {
		opts.Recorder = ds
	}

	log.Info().Str("config", configPath).Str("log", path).Msg("starting dashboard")
	p := tea.NewProgram(monitor.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return eris.Wrap(err, "dashboard failed")
	}
	return nil
}

func runOnce(out io.Writer) error {
	if err := setupLogging(os.Stderr, false); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(os.Stderr, cfg.DebugLogging); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entities, err := hass.NewClient(cfg.Endpoint()).FetchEntities(ctx)
	var snap *hass.Snapshot
	if err == nil {
		snap = hass.NewSnapshot(entities, time.Now())
	}
	v := sensor.Render(snap, err, cfg.Values, cfg.Settings())
	fmt.Fprintln(out, monitor.Plain(v, cfg.DisplaySymbol))
	return err
}

func runWatch(out io.Writer) error {
	if err := setupLogging(os.Stderr, false); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(os.Stderr, cfg.DebugLogging); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ds, err := openRecorder()
	if err != nil {
		return err
	}
	if ds != nil {
		defer ds.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The display part of the config can be reloaded with SIGHUP; the
	// endpoint is fixed for the lifetime of the process.
	var current atomic.Pointer[config.Config]
	current.Store(cfg)

	p := poller.New(hass.NewClient(cfg.Endpoint()), cfg.Interval(), func(r poller.Result) {
		c := current.Load()
		var snap *hass.Snapshot
		if r.Err == nil {
			snap = hass.NewSnapshot(r.Entities, r.At)
		}
		v := sensor.Render(snap, r.Err, c.Values, c.Settings())
		fmt.Fprintf(out, "%s  %s\n%s\n\n", c.Title, r.At.Format("2006-01-02 15:04:05"), monitor.Plain(v, c.DisplaySymbol))

		if ds != nil && v.State == sensor.StateRows {
			if err := ds.Write(v.Rows, r.At); err != nil {
				log.Warn().Err(err).Msg("recording rows failed")
			}
		}
	})

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				next, err := loadConfig()
				if err != nil {
					log.Error().Err(err).Msg("reloading configuration failed")
					continue
				}
				if prev := current.Load(); next.Endpoint().URL() != prev.Endpoint().URL() || next.Token != prev.Token {
					log.Warn().Msg("endpoint changes need a restart, keeping the current connection")
				}
				current.Store(next)
				p.SetInterval(next.Interval())
				log.Info().Dur("interval", next.Interval()).Msg("configuration reloaded")
			}
		}
	}()

	log.Info().Str("url", cfg.Endpoint().URL()).Dur("interval", cfg.Interval()).Msg("watching")
	p.Run(ctx)
	return nil
}
