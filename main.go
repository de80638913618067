package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"sysmonitor/internal/config"
	"sysmonitor/internal/logging"
	"sysmonitor/internal/middleware"
	"sysmonitor/internal/services"
	"sysmonitor/internal/ui"
)

var version = "dev"

const defaultLogFile = "sysmonitor.log"

type options struct {
	configPath string
	headless   bool
	serve      bool
	tokenName  string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("sysmonitor", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	fs.BoolVar(&opts.headless, "headless", false, "run without the terminal window")
	fs.BoolVar(&opts.serve, "serve", false, "enable the HTTP and WebSocket server")
	fs.StringVar(&opts.tokenName, "token", "", "print a stream access token for the named client and exit")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	err := fs.Parse(args)
	return opts, err
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}
	if opts.version {
		fmt.Fprintln(stdout, "sysmonitor", version)
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "sysmonitor: %v\n", err)
		return 1
	}
	if opts.serve {
		cfg.Server.Enabled = true
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "sysmonitor: %v\n", err)
			return 1
		}
	}

	if opts.tokenName != "" {
		return printToken(cfg, opts.tokenName, stdout, stderr)
	}

	logOpts := logging.Options{Level: cfg.Log.Level, Console: stderr}
	if !opts.headless {
		// The terminal window owns stdout and stderr while it runs
		logOpts.File = cfg.Log.File
		if logOpts.File == "" {
			logOpts.File = filepath.Join(os.TempDir(), defaultLogFile)
		}
	}
	log, closer, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "sysmonitor: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := monitor(ctx, cfg, !opts.headless, log); err != nil {
		log.Error().Err(err).Msg("sysmonitor stopped")
		if !opts.headless {
			fmt.Fprintf(stderr, "sysmonitor: %v\n", err)
		}
		return 1
	}
	log.Info().Msg("sysmonitor stopped")
	return 0
}

// monitor runs the sampler and every enabled consumer until ctx is
// cancelled or the window is closed.
func monitor(ctx context.Context, cfg config.Config, window bool, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := services.NewSnapshotStore()
	sources := services.DefaultSources(cfg.Sampler.GPUIndex, cfg.Sampler.SensorNamespace)
	defer func() {
		if err := sources.Close(); err != nil {
			log.Warn().Err(err).Msg("closing sources")
		}
	}()

	var srv *server
	if cfg.Server.Enabled {
		var err error
		srv, err = newServer(cfg.Server, store, log)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	sampler := services.NewSampler(sources, store, cfg.Sampler.Interval, logging.Component(log, "sampler"))
	g.Go(func() error { return sampler.Run(gctx) })

	if srv != nil {
		srv.start(gctx, g)
	}

	if cfg.MQTT.Enabled {
		publisher := services.NewMQTTPublisher(cfg.MQTT, store, logging.Component(log, "mqtt"))
		g.Go(func() error { return publisher.Run(gctx) })
	}

	if window {
		g.Go(func() error {
			// Closing the window stops everything else
			defer cancel()
			model := ui.NewModel(store, cfg.Display.RefreshInterval, ui.ThemeByName(cfg.Display.Theme))
			_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}

	log.Info().
		Dur("interval", cfg.Sampler.Interval).
		Bool("window", window).
		Bool("server", cfg.Server.Enabled).
		Bool("mqtt", cfg.MQTT.Enabled).
		Msg("sysmonitor started")

	return g.Wait()
}

func printToken(cfg config.Config, clientName string, stdout, stderr io.Writer) int {
	if !middleware.NewInputValidator().ValidateClientName(clientName) {
		fmt.Fprintf(stderr, "sysmonitor: invalid client name %q (letters, digits, '-', '_' and '.' only)\n", clientName)
		return 1
	}

	log, _, _ := logging.New(logging.Options{Level: "warn", Console: stderr})
	auth, err := services.NewAuthService(cfg.Server.Secret, cfg.Server.TokenExpiry, log)
	if err != nil {
		fmt.Fprintf(stderr, "sysmonitor: %v\n", err)
		return 1
	}
	token, err := auth.GenerateToken(clientName)
	if err != nil {
		fmt.Fprintf(stderr, "sysmonitor: generate token: %v\n", err)
		return 1
	}
	middleware.NewSecurityLogger(log).LogTokenGenerated("cli", clientName)

	scheme := "ws"
	if cfg.Server.TLSCert != "" {
		scheme = "wss"
	}
	fmt.Fprintln(stdout, token)
	fmt.Fprintf(stderr, "expires %s\nconnect with %s://%s/ws?token=<token>\n",
		auth.TokenExpiry().Format("2006-01-02"), scheme, cfg.Server.Listen)
	return 0
}
