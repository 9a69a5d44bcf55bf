// Package main is the entry point for the Forgebench workbench host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openfab/forgebench/internal/extension"
	"github.com/openfab/forgebench/internal/host"
	"github.com/openfab/forgebench/internal/settings"
	"github.com/openfab/forgebench/internal/surface/term"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	settingsPath string
	pluginPaths  []string
	logLevel     string
	logPath      string
	headless     bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	logger, err := buildLogger(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		return 1
	}
	defer logger.Sync()

	store, err := settings.Open(opts.settingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	hostOpts := []host.Option{
		host.WithLogger(logger),
		host.WithSettings(store),
	}
	if len(opts.pluginPaths) > 0 {
		hostOpts = append(hostOpts, host.WithPluginPaths(opts.pluginPaths...))
	}

	h, err := host.New(hostOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to assemble host: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Close(ctx); err != nil {
			logger.Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	enabled, err := h.DiscoverAndInstall(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: plugin discovery failed: %v\n", err)
		return 1
	}
	logger.Info("plugins started", zap.Int("enabled", enabled))

	if opts.headless {
		return 0
	}

	frontend, err := term.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open terminal: %v\n", err)
		return 1
	}
	defer frontend.Close()

	// Handle signals for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		frontend.Close()
	}()

	loop(h, frontend)
	return 0
}

// loop redraws the workbench and dispatches terminal events until quit.
func loop(h *host.Host, frontend *term.Frontend) {
	for {
		frontend.Clear()
		frontend.DrawToolbar(0, h.Controls(extension.SurfaceToolbar))
		frontend.DrawPanels(0, 2, h.Panels(extension.SurfaceSidebar))
		frontend.Show()

		switch ev := frontend.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return
			}
		case *tcell.EventMouse:
			if ev.Buttons()&tcell.Button1 != 0 {
				x, y := ev.Position()
				frontend.ActivateAt(x, y)
			}
		case *tcell.EventResize:
			frontend.Show()
		case nil:
			// Screen finalized by the signal handler.
			return
		}
	}
}

func buildLogger(opts options) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.Set(opts.logLevel); err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	// The terminal owns stderr while the frontend runs.
	cfg.OutputPaths = []string{opts.logPath}
	cfg.ErrorOutputPaths = []string{opts.logPath}
	return cfg.Build()
}

func defaultSettingsPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "forgebench", "settings.json")
	}
	return "settings.json"
}

func parseFlags() options {
	var opts options
	var plugins string
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.settingsPath, "settings", defaultSettingsPath(), "Path to settings file")
	flag.StringVar(&opts.settingsPath, "s", defaultSettingsPath(), "Path to settings file (shorthand)")
	flag.StringVar(&plugins, "plugins", "", "Colon-separated plugin search paths")
	flag.StringVar(&plugins, "p", "", "Colon-separated plugin search paths (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.logPath, "log-file", "forgebench.log", "Log file path")
	flag.BoolVar(&opts.headless, "headless", false, "Start plugins, then exit without the terminal UI")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Forgebench - plugin-extensible CAD/CAM workbench\n\n")
		fmt.Fprintf(os.Stderr, "Usage: forgebench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  forgebench                        Start with default plugin paths\n")
		fmt.Fprintf(os.Stderr, "  forgebench -p ./plugins           Load plugins from ./plugins\n")
		fmt.Fprintf(os.Stderr, "  forgebench -headless -p ./plugins Validate plugins and exit\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Forgebench %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	// Without explicit paths the loader falls back to its defaults.
	if plugins != "" {
		opts.pluginPaths = strings.Split(plugins, ":")
	} else if len(flag.Args()) > 0 {
		opts.pluginPaths = flag.Args()
	}

	return opts
}
