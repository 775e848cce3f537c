// Command formcrud-devserver serves a schema-described collection over REST
// for local development.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-formcrud"
	"github.com/goliatone/go-formcrud/internal/config"
	"github.com/goliatone/go-formcrud/internal/devserver"
	"github.com/goliatone/go-formcrud/internal/logging"
)

type CLI struct {
	Config   string        `short:"c" env:"FORMCRUD_CONFIG" help:"Configuration file (YAML or TOML)."`
	Schema   string        `short:"s" type:"path" help:"Schema file (JSON or YAML). Defaults to the built-in user schema."`
	Addr     string        `help:"Listen address."`
	DSN      string        `help:"SQLite data source name."`
	Seed     string        `type:"path" help:"json-server style seed document, loaded into an empty collection."`
	Latency  time.Duration `help:"Delay every API response (e.g. 300ms)."`
	LogLevel string        `name:"log-level" help:"Log level (debug, info, warn, error)."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "formcrud-devserver: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("formcrud-devserver"),
		kong.Description("Development REST backend for formcrud collections."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}
	if _, err := parser.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	applyFlags(&cfg, cli)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}

	schema, err := formcrud.LoadSchema(cfg.Schema)
	if err != nil {
		return err
	}

	storage, err := devserver.OpenStorage(ctx, cfg.Server.DSN)
	if err != nil {
		return err
	}
	defer storage.Close()

	srv, err := devserver.New(schema, storage,
		devserver.WithLogger(logger),
		devserver.WithLatency(cfg.Server.Latency),
	)
	if err != nil {
		return err
	}

	if cfg.Server.Seed != "" {
		items, err := devserver.ReadSeedFile(cfg.Server.Seed, schema.Resource)
		if err != nil {
			return err
		}
		if _, err := srv.Seed(ctx, items); err != nil {
			return err
		}
	}

	return srv.Run(ctx, cfg.Server.Addr)
}

func applyFlags(cfg *config.Config, cli CLI) {
	if cli.Schema != "" {
		cfg.Schema = cli.Schema
	}
	if cli.Addr != "" {
		cfg.Server.Addr = cli.Addr
	}
	if cli.DSN != "" {
		cfg.Server.DSN = cli.DSN
	}
	if cli.Seed != "" {
		cfg.Server.Seed = cli.Seed
	}
	if cli.Latency > 0 {
		cfg.Server.Latency = cli.Latency
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
}
