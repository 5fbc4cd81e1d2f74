package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"go.uber.org/automaxprocs/maxprocs"

	"qcomposer/internal/codegen"
	"qcomposer/internal/config"
	"qcomposer/internal/logging"
	"qcomposer/internal/server"
	"qcomposer/internal/session"
	"qcomposer/internal/sim"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	qubitsFlag = &cli.IntFlag{
		Name:  "qubits",
		Usage: "Number of wires in a new circuit",
	}
	dialectFlag = &cli.StringFlag{
		Name:  "dialect",
		Usage: "Code panel dialect (openqasm, qiskit, quil)",
	}
	userFlag = &cli.StringFlag{
		Name:  "user",
		Usage: "Signed-in user; running simulations requires one",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log-file",
		Usage: "Write logs to a rotating file",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
	}
	shotsFlag = &cli.IntFlag{
		Name:  "shots",
		Usage: "Number of simulation shots",
	}
	addrFlag = &cli.StringFlag{
		Name:  "addr",
		Usage: "HTTP listen address",
	}
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "qcomposer",
		Usage: "drag-and-drop quantum circuit composer",
		Flags: []cli.Flag{
			configFileFlag,
			qubitsFlag,
			dialectFlag,
			userFlag,
			logFileFlag,
			logLevelFlag,
		},
		Action: edit,
		Commands: []*cli.Command{
			{
				Name:   "edit",
				Usage:  "Open the circuit editor (default)",
				Action: edit,
			},
			{
				Name:      "run",
				Usage:     "Simulate an OpenQASM 2.0 file and print the histogram",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{shotsFlag},
				Action:    runFile,
			},
			{
				Name:   "serve",
				Usage:  "Serve the simulation API over HTTP",
				Flags:  []cli.Flag{addrFlag},
				Action: serve,
			},
			{
				Name:   "dialects",
				Usage:  "List the supported code dialects",
				Action: listDialects,
			},
			{
				Name:   "dumpconfig",
				Usage:  "Print the effective configuration as TOML",
				Action: dumpConfig,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies the config file and then command line flags on top of
// the defaults.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if file := ctx.String(configFileFlag.Name); file != "" {
		var err error
		if cfg, err = config.Load(file); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(qubitsFlag.Name) {
		cfg.Qubits = ctx.Int(qubitsFlag.Name)
	}
	if ctx.IsSet(dialectFlag.Name) {
		cfg.Dialect = ctx.String(dialectFlag.Name)
	}
	if ctx.IsSet(userFlag.Name) {
		cfg.User = ctx.String(userFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.Log.File = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(logLevelFlag.Name) {
		cfg.Log.Level = ctx.String(logLevelFlag.Name)
	}
	return cfg, cfg.Validate()
}

// newEditorLogger builds the editor's logger. The editor owns the terminal,
// so it only logs to a file.
func newEditorLogger(cfg config.Config) (*slog.Logger, func() error) {
	return newLogger(cfg, false)
}

// newCommandLogger builds the logger for run and serve, which fall back to
// stderr when no log file is configured.
func newCommandLogger(cfg config.Config) (*slog.Logger, func() error) {
	return newLogger(cfg, true)
}

func newLogger(cfg config.Config, stderr bool) (*slog.Logger, func() error) {
	level, _ := config.ParseLevel(cfg.Log.Level)
	return logging.New(logging.Options{
		File:       cfg.Log.File,
		Stderr:     stderr,
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
}

func newSimulator(cfg config.Config, log *slog.Logger) sim.Simulator {
	if cfg.Sim.Mode == config.SimRemote {
		return sim.NewRemote(cfg.Sim.URL)
	}
	return &sim.Local{MaxQubits: cfg.Sim.MaxQubits, Log: log}
}

func edit(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	dialect, err := codegen.Parse(cfg.Dialect)
	if err != nil {
		return err
	}
	log, closeLog := newEditorLogger(cfg)
	defer closeLog()

	m := newModel(modelOptions{
		Qubits:  cfg.Qubits,
		Dialect: dialect,
		Users:   session.NewStatic(cfg.User),
		Sim:     newSimulator(cfg, log),
		Shots:   cfg.Sim.Shots,
		Log:     log,
	})
	log.Info("Editor started", "qubits", cfg.Qubits, "dialect", dialect, "sim", cfg.Sim.Mode)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func runFile(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("usage: %s run FILE", ctx.App.Name)
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	code, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	log, closeLog := newCommandLogger(cfg)
	defer closeLog()

	shots := cfg.Sim.Shots
	if ctx.IsSet(shotsFlag.Name) {
		shots = ctx.Int(shotsFlag.Name)
	}
	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := newSimulator(cfg, log).Run(sigctx, string(code), shots)
	if err != nil {
		return err
	}
	printHistogram(os.Stdout, res)
	return nil
}

func serve(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log, closeLog := newCommandLogger(cfg)
	defer closeLog()

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		log.Warn("Failed to set GOMAXPROCS", "err", err)
	} else {
		defer undo()
	}

	addr := cfg.Server.Addr
	if ctx.IsSet(addrFlag.Name) {
		addr = ctx.String(addrFlag.Name)
	}
	srv := server.New(&sim.Local{MaxQubits: cfg.Sim.MaxQubits, Log: log}, server.Options{
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxConcurrent: cfg.Server.MaxConcurrent,
		MaxShots:      cfg.Server.MaxShots,
	}, log)

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(sigctx, addr)
}

func listDialects(ctx *cli.Context) error {
	printDialects(os.Stdout)
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := cfg.Marshal()
	if err != nil {
		return err
	}
	return writeConfig(os.Stdout, ctx.String(configFileFlag.Name), out)
}

func writeConfig(w io.Writer, source string, out []byte) error {
	if source != "" {
		if _, err := fmt.Fprintf(w, "# Loaded from %s\n\n", source); err != nil {
			return err
		}
	}
	_, err := w.Write(out)
	return err
}
