// Command formcrud-cli manages a schema-described REST collection from the
// terminal and provides schema tooling (lint, OpenAPI import, HTML render).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud"
	"github.com/goliatone/go-formcrud/internal/config"
	"github.com/goliatone/go-formcrud/internal/logging"
	"github.com/goliatone/go-formcrud/pkg/model"
)

// CLI is the kong command tree. Global flags override the config file and
// the FORMCRUD_* environment.
type CLI struct {
	Config   string `short:"c" env:"FORMCRUD_CONFIG" help:"Configuration file (YAML or TOML)."`
	Schema   string `short:"s" type:"path" help:"Schema file (JSON or YAML). Defaults to the built-in user schema."`
	APIURL   string `name:"api-url" help:"API root; the schema resource is appended."`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)."`

	Manage        ManageCmd `cmd:"" default:"1" help:"Manage records interactively."`
	List          ListCmd   `cmd:"" help:"Print the collection."`
	Render        RenderCmd `cmd:"" help:"Render the form or the collection as HTML."`
	Lint          LintCmd   `cmd:"" help:"Check schema documents."`
	ImportOpenAPI ImportCmd `cmd:"" name:"import-openapi" help:"Convert an OpenAPI component schema into a field schema."`
}

// runtime is bound into every command's Run method.
type runtime struct {
	ctx    context.Context
	cfg    config.Config
	logger *log.Logger
	stdout io.Writer
	stderr io.Writer
}

func (rt *runtime) schema() (model.Schema, error) {
	return formcrud.LoadSchema(rt.cfg.Schema)
}

func (rt *runtime) app(opts formcrud.Config) (*formcrud.App, error) {
	schema, err := rt.schema()
	if err != nil {
		return nil, err
	}
	opts.BaseURL = rt.cfg.API.BaseURL
	opts.Schema = schema
	opts.Timeout = rt.cfg.API.Timeout
	opts.Logger = rt.logger
	return formcrud.New(opts)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Exit); err != nil {
		fmt.Fprintf(os.Stderr, "formcrud: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, exit func(int)) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("formcrud-cli"),
		kong.Description("Schema-driven CRUD for REST collections."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(exit),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.Schema != "" {
		cfg.Schema = cli.Schema
	}
	if cli.APIURL != "" {
		cfg.API.BaseURL = cli.APIURL
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, stderr)
	if err != nil {
		return err
	}

	return kctx.Run(&runtime{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	})
}
