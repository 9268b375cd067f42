package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/httpmon"
	"github.com/fwojciec/httpmon/etree"
	"github.com/fwojciec/httpmon/fs"
	monhttp "github.com/fwojciec/httpmon/http"
	"github.com/fwojciec/httpmon/monitor"
	monslog "github.com/fwojciec/httpmon/slog"
	"github.com/fwojciec/httpmon/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Level controls the log verbosity. The debug element of the
	// configuration document toggles it on every reconfiguration.
	Level *slog.LevelVar

	// SQLite database holding the poll history, when enabled.
	DB *sqlite.DB

	// Engine is set while the run command executes.
	Engine *monitor.Engine
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Level: new(slog.LevelVar)}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	if m.Engine != nil {
		errs = append(errs, m.Engine.Close())
	}
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("httpmon"),
		kong.Description("Watch HTTP resources and push every change to WebDAV, files and live subscribers"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// A missing configuration argument is not an error: show usage.
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	run := strings.HasPrefix(kongCtx.Command(), "run")
	if run && cli.Run.Config == "" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if cli.Debug {
		m.Level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: m.Level}))
	deps.Logger = logger

	defer m.Close()

	if cli.DB != "" {
		m.DB = sqlite.NewDB(cli.DB)
		if err := m.DB.Open(); err != nil {
			return fmt.Errorf("failed to open poll history at %q: %w", cli.DB, err)
		}
		deps.Polls = sqlite.NewPollService(m.DB)
	}

	deps.Fetcher = monslog.NewLoggingFetcher(monhttp.NewClient(), logger)

	if run {
		recorders := httpmon.PollRecorders{monslog.NewPollLogger(logger)}
		if deps.Polls != nil {
			recorders = append(recorders, deps.Polls)
		}

		dav := monhttp.NewDAV()
		putter := httpmon.SchemePutter{
			"http":    dav,
			"https":   dav,
			fs.Scheme: fs.NewPutter(""),
		}

		m.Engine = &monitor.Engine{
			Fetcher:   deps.Fetcher,
			Putter:    monslog.NewLoggingPutter(putter, logger),
			Parser:    etree.NewParser(),
			NewFanout: NewFanoutFactory(logger),
			Recorder:  recorders,
			Logger:    logger,
			OnConfigure: func(s httpmon.Settings) {
				if s.Debug || cli.Debug {
					m.Level.Set(slog.LevelDebug)
				} else {
					m.Level.Set(slog.LevelInfo)
				}
			},
		}
		deps.Engine = m.Engine
	}

	return kongCtx.Run(deps)
}
