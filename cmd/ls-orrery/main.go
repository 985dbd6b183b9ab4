// Command ls-orrery is a Keplerian solar system orrery for the terminal,
// with a headless position table and an HTTP/WebSocket frame service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/litescript/ls-orrery/internal/anim"
	"github.com/litescript/ls-orrery/internal/bodies"
	"github.com/litescript/ls-orrery/internal/config"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/orbit"
	"github.com/litescript/ls-orrery/internal/server"
	"github.com/litescript/ls-orrery/internal/state"
	"github.com/litescript/ls-orrery/internal/ui"
	"github.com/litescript/ls-orrery/internal/version"
)

var (
	cfgFile string
	v       *viper.Viper
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ls-orrery",
		Short:         "Keplerian solar system orrery",
		Long:          "ls-orrery computes planet positions from J2000 orbital elements and animates them in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v = config.New(cfgFile)
			return config.BindFlags(v, cmd.Flags())
		},
		RunE: runTUI,
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./orrery.yaml or $HOME/.ls-orrery/orrery.yaml)")
	pf.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-file", d.LogFile, "Write logs to this file")
	pf.String("at", d.At, "Instant to compute positions for (RFC 3339, default now)")
	pf.Float64("speed", d.SpeedFactor, "Animation speed factor")

	root.Flags().Int("fps", d.FPS, "Animation frames per second")

	root.AddCommand(
		positionsCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

func loadConfig() (config.Config, error) {
	return config.Load(v)
}

// newLogger builds the process logger. Output goes to the log file when one
// is configured, else to fallback.
func newLogger(cfg config.Config, fallback io.Writer) (*logging.Logger, func(), error) {
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))
	if cfg.LogFile == "" {
		logger.SetOutput(fallback)
		return logger, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	return logger, func() { _ = f.Close() }, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs only go to a file.
	logger, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	driver, err := anim.NewDriver(orbit.ComputeAllPositions(cfg.Now()), anim.Config{SpeedFactor: cfg.SpeedFactor})
	if err != nil {
		return err
	}
	loop := anim.NewLoop(driver, logger.Named("anim"))

	model := ui.New(ui.Options{
		Loop:          loop,
		Cache:         orbit.NewCache(orbit.DefaultCacheTTL, cfg.Now),
		Logger:        logger.Named("ui"),
		FrameInterval: cfg.FrameInterval(),
		SpeedFactor:   cfg.SpeedFactor,
		Now:           cfg.Now,
	})

	ctx, cancel := signalContext()
	defer cancel()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	if m, ok := final.(ui.Model); ok {
		logger.Info("TUI exited after %d frames (%d failed)", m.Frames(), m.Failures())
	}
	return nil
}

func positionsCmd() *cobra.Command {
	var (
		jsonOut bool
		watch   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "positions [body...]",
		Short: "Print heliocentric planet positions",
		Long:  "Print the heliocentric ecliptic position of every planet, or of the named ones, at --at (default now).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ids, err := parseBodies(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := nameColorizer(out)
			once := func(at time.Time) error {
				export := orbit.ExportSnapshot(selectPositions(orbit.ComputeAllPositions(at), ids), at)
				if jsonOut {
					return export.WriteJSON(out)
				}
				orbit.WriteSummaryTable(out, export, colorize)
				return nil
			}

			if watch <= 0 {
				return once(cfg.Now())
			}

			ctx, cancel := signalContext()
			defer cancel()
			ticker := time.NewTicker(watch)
			defer ticker.Stop()
			for {
				if err := once(time.Now().UTC()); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if !jsonOut {
						fmt.Fprintln(out)
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Write JSON instead of a table")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Repeat at interval using the current time (e.g. 10s)")
	return cmd
}

// parseBodies resolves body names. The Sun is rejected since it has no
// orbital elements.
func parseBodies(args []string) ([]bodies.ID, error) {
	var ids []bodies.ID
	for _, a := range args {
		for _, name := range strings.Split(a, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			id, err := bodies.Parse(name)
			if err != nil {
				return nil, err
			}
			if !id.IsPlanet() {
				return nil, fmt.Errorf("%w: %q has no orbit", bodies.ErrUnknownBody, name)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func selectPositions(all map[bodies.ID]orbit.HeliocentricPosition, ids []bodies.ID) map[bodies.ID]orbit.HeliocentricPosition {
	if len(ids) == 0 {
		return all
	}
	out := make(map[bodies.ID]orbit.HeliocentricPosition, len(ids))
	for _, id := range ids {
		out[id] = all[id]
	}
	return out
}

// nameColorizer colours body names only when writing to a terminal.
func nameColorizer(w io.Writer) func(bodies.ID, string) string {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(id bodies.ID, name string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(bodies.MustLookup(id).Color)).Render(name)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve positions, orbits and animation frames over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg, os.Stderr)
			if err != nil {
				return err
			}
			defer closeLog()
			return runServe(cfg, logger)
		},
	}
	d := config.Default()
	cmd.Flags().String("listen", d.Listen, "HTTP listen address")
	cmd.Flags().StringSlice("cors-origins", d.CORSOrigins, "Allowed CORS origins")
	cmd.Flags().Float64("stream-rate", d.StreamRate, "Max frames per second per stream client")
	cmd.Flags().Int("fps", d.FPS, "Animation frames per second")
	return cmd
}

func runServe(cfg config.Config, logger *logging.Logger) error {
	ctx, cancel := signalContext()
	defer cancel()

	if !logger.Enabled(logging.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	at := cfg.Now()
	positions := orbit.ComputeAllPositions(at)

	stateCfg := state.DefaultConfig()
	stateCfg.FrameInterval = cfg.FrameInterval()
	stateMgr := state.NewManager(stateCfg)
	stateMgr.SetPositions(at, positions)

	driver, err := anim.NewDriver(positions, anim.Config{SpeedFactor: cfg.SpeedFactor})
	if err != nil {
		return err
	}
	loop := anim.NewLoop(driver, logger.Named("anim"),
		anim.WithSink(stateMgr.PublishFrame),
		anim.WithFailureHook(stateMgr.RecordFailure),
		anim.WithResetHook(stateMgr.SetPositions),
		anim.WithMetrics(anim.NewMetrics(registry)),
	)

	srv := server.New(server.Options{
		Logger:      logger.Named("http"),
		State:       stateMgr,
		Registry:    registry,
		CORSOrigins: cfg.CORSOrigins,
		StreamRate:  cfg.StreamRate,
		Now:         cfg.Now,
	})

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx, stateMgr.FrameInterval())
	}()
	go reseedOnHangup(ctx, loop, logger)

	logger.Info("%s listening on %s", version.String(), cfg.Listen)
	err = srv.Run(ctx, cfg.Listen)
	cancel()
	if lerr := <-loopErr; lerr != nil && !errors.Is(lerr, context.Canceled) {
		logger.Error("frame loop: %v", lerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reseedOnHangup recomputes positions for the current time on SIGHUP and
// restarts the animation from them. The loop's reset hook records them once
// applied.
func reseedOnHangup(ctx context.Context, loop *anim.Loop, logger *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			at := time.Now().UTC()
			loop.Reseed(at, orbit.ComputeAllPositions(at))
			logger.Info("SIGHUP: reseeding positions at %s", at.Format(time.RFC3339))
		}
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
