package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dshills/blockedit/internal/app"
	"github.com/dshills/blockedit/internal/server"
)

// appFlags are the options shared by commands that open the application.
type appFlags struct {
	opts    app.Options
	envFile string
}

func (f *appFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.opts.ConfigPath, "config", "blockedit.toml", "Path to configuration file")
	fs.StringVar(&f.opts.ConfigPath, "c", "blockedit.toml", "Path to configuration file (shorthand)")
	fs.StringVar(&f.envFile, "env", ".env", "Path to .env file")
	fs.StringVar(&f.opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.opts.Debug, "debug", false, "Enable development logging")
}

// open loads the .env file, when present, and starts the application.
func (f *appFlags) open(ctx context.Context, stderr io.Writer) (*app.Application, bool) {
	if _, err := os.Stat(f.envFile); err == nil {
		if err := godotenv.Load(f.envFile); err != nil {
			fmt.Fprintf(stderr, "Warning: loading %s: %v\n", f.envFile, err)
		}
	}
	a, err := app.New(ctx, f.opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize: %v\n", err)
		return nil, false
	}
	return a, true
}

func serve(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var af appFlags
	af.register(fs)
	addr := fs.String("addr", "", "Listen address (default from configuration)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, ok := af.open(ctx, stderr)
	if !ok {
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(stderr, "Error: shutdown: %v\n", err)
		}
	}()

	listen := a.Config().Server.Addr
	if *addr != "" {
		listen = *addr
	}
	if err := server.New(a).ListenAndServe(ctx, listen); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func list(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var af appFlags
	af.register(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	a, ok := af.open(ctx, stderr)
	if !ok {
		return 1
	}
	defer a.Shutdown(ctx)

	ids, err := a.Store().ListDocuments(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, id := range ids {
		fmt.Fprintln(stdout, id)
	}
	return 0
}
