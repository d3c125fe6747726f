package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-salesboard/pkg/config"
)

// Globals are flags shared by every subcommand.
type Globals struct {
	Config    string `short:"c" type:"path" help:"Path to a salesboard YAML config file." env:"SALESBOARD_CONFIG"`
	LogLevel  string `help:"Override the configured log level (debug, info, warn, error)."`
	LogFormat string `enum:",json,text" default:"" help:"Override the configured log format (json or text)."`

	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

type cli struct {
	Globals

	Serve    serveCmd    `cmd:"" help:"Run the sales dashboard HTTP server."`
	Table    tableCmd    `cmd:"" help:"Filter, sort and paginate a JSON row file in the terminal."`
	Scaffold scaffoldCmd `cmd:"" help:"Scaffold a widget definition, provider stub, and manifest entry."`
	Chat     chatCmd     `cmd:"" help:"Ask the sales assistant a question."`
}

func main() {
	var app cli
	app.stdout = os.Stdout
	app.stderr = os.Stderr
	ctx := kong.Parse(&app,
		kong.Name("salesdash"),
		kong.Description("Sales dashboard server and tools."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
	)
	err := ctx.Run(&app.Globals)
	ctx.FatalIfErrorf(err)
}

func (g *Globals) out() io.Writer {
	if g.stdout == nil {
		return os.Stdout
	}
	return g.stdout
}

func (g *Globals) errOut() io.Writer {
	if g.stderr == nil {
		return os.Stderr
	}
	return g.stderr
}

// loadConfig reads the config file (or defaults) and applies the global
// logging overrides.
func (g *Globals) loadConfig() (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return cfg, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	return cfg, cfg.Validate()
}

func (g *Globals) logger(cfg config.Config) *slog.Logger {
	return newLogger(g.errOut(), cfg.Log.SlogLevel(), cfg.Log.Format)
}

// newLogger builds the process logger. Unknown levels fall back to info.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}
