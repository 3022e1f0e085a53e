package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"explorer.pub/explorer"
	"explorer.pub/explorer/result"
	"explorer.pub/explorer/wire"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

// Version of the explorer CLI being run
const Version = "v0.1.0"

func newApp(ctx context.Context) (app *cli.App) {
	app = cli.NewApp()
	app.Name = "explorer"
	app.Usage = "compile and run code using a Compiler Explorer instance"
	app.Version = Version
	app.Before = func(*cli.Context) error {
		configureLogging()
		return nil
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Usage: "path to a YAML configuration file",
		},
		cli.StringFlag{
			Name:  "url",
			Usage: "base url of the Compiler Explorer instance",
		},
		cli.StringFlag{
			Name:  "lang",
			Usage: "language to list compilers for",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "request format, one of: json, text, form",
		},
		cli.BoolFlag{
			Name:  "json",
			Usage: "print results as JSON",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "compilers",
			Usage:  "list the available compilers",
			Flags:  []cli.Flag{cli.StringFlag{Name: "lang", Usage: "language to list compilers for"}},
			Action: listCompilers(ctx),
		},
		{
			Name:           "compile",
			Usage:          "compile a source file and print the assembly",
			ArgsUsage:      "FILE|-",
			// Compiler arguments start with "-", FILE must come last
			SkipArgReorder: true,
			Flags: append(compilerFlags(),
				cli.StringSliceFlag{Name: "filter", Usage: "output filter to enable (e.g. intel, labels, directives)"},
				cli.BoolFlag{Name: "skip-asm", Usage: "do not generate assembly"},
				cli.StringFlag{Name: "format", Usage: "request format, one of: json, text, form"},
			),
			Action: compile(ctx),
		},
		{
			Name:           "execute",
			Usage:          "compile and run a source file",
			ArgsUsage:      "FILE|-",
			SkipArgReorder: true,
			Flags: append(compilerFlags(),
				cli.StringSliceFlag{Name: "exec-arg", Usage: "argument passed to the program"},
				cli.StringFlag{Name: "stdin", Usage: "text passed to the program on stdin"},
			),
			Action: execute(ctx),
		},
	}
	return
}

func compilerFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "compiler", Usage: "id of the compiler to use"},
		cli.StringFlag{Name: "type", Value: explorer.DefaultCompilerType, Usage: "type of the compiler to use, with --version"},
		cli.StringFlag{Name: "version", Usage: "version of the compiler to use, with --type"},
		cli.StringSliceFlag{Name: "arg", Usage: "argument passed to the compiler"},
	}
}

// resolveConfig layers the config file and command line flags over the environment.
func resolveConfig(c *cli.Context) (*Config, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if path := c.GlobalString("config"); path != "" {
		if cfg, err = ParseConfig(path, *cfg); err != nil {
			return nil, err
		}
	}

	if c.GlobalIsSet("url") {
		cfg.URL = c.GlobalString("url")
	}
	if c.GlobalIsSet("lang") {
		cfg.Language = c.GlobalString("lang")
	}
	if c.GlobalIsSet("format") {
		cfg.Format = c.GlobalString("format")
	}
	if c.IsSet("lang") {
		cfg.Language = c.String("lang")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	return cfg, nil
}

func newAPI(c *cli.Context) (*explorer.API, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}
	return cfg.NewAPI()
}

func listCompilers(ctx context.Context) cli.ActionFunc {
	return func(c *cli.Context) error {
		api, err := newAPI(c)
		if err != nil {
			return err
		}
		list, err := api.Compilers.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list compilers: %w", err)
		}
		return newPrinter(c).Compilers(list)
	}
}

func compile(ctx context.Context) cli.ActionFunc {
	return func(c *cli.Context) error {
		var filters wire.Filters
		for _, name := range c.StringSlice("filter") {
			if !filters.Set(name) {
				return fmt.Errorf("unknown filter %q", name)
			}
		}

		api, err := newAPI(c)
		if err != nil {
			return err
		}
		compiler, source, err := prepare(ctx, c, api)
		if err != nil {
			return err
		}

		res, err := compiler.Compile(ctx, source, explorer.CompileRequest{
			Arguments: c.StringSlice("arg"),
			Options:   wire.CompilerOptions{SkipAsm: c.Bool("skip-asm")},
			Filters:   filters,
		})
		if err != nil {
			return fmt.Errorf("failed to compile %q with %s: %w", c.Args().First(), compiler.ID(), err)
		}
		if err := newPrinter(c).Result(res); err != nil {
			return err
		}
		return exitCode(resultCode(res))
	}
}

func execute(ctx context.Context) cli.ActionFunc {
	return func(c *cli.Context) error {
		api, err := newAPI(c)
		if err != nil {
			return err
		}
		compiler, source, err := prepare(ctx, c, api)
		if err != nil {
			return err
		}
		if !compiler.SupportsExecution() {
			return fmt.Errorf("compiler %s does not support execution", compiler.ID())
		}

		req := explorer.ExecuteRequest{Arguments: c.StringSlice("arg")}
		if args, stdin := c.StringSlice("exec-arg"), c.String("stdin"); len(args) > 0 || stdin != "" {
			req.ExecuteParameters = &wire.ExecuteParameters{Args: args, Stdin: stdin}
		}
		res, err := compiler.Execute(ctx, source, req)
		if err != nil {
			return fmt.Errorf("failed to execute %q with %s: %w", c.Args().First(), compiler.ID(), err)
		}
		if err := newPrinter(c).Result(res); err != nil {
			return err
		}
		return exitCode(resultCode(res))
	}
}

// prepare reads the source file while the compiler is resolved.
func prepare(ctx context.Context, c *cli.Context, api *explorer.API) (*explorer.Compiler, string, error) {
	var (
		compiler *explorer.Compiler
		source   string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := readSource(c.Args().First(), os.Stdin)
		if err != nil {
			return err
		}
		source = string(data)
		return nil
	})
	g.Go(func() error {
		found, err := findCompiler(gctx, api, c.String("compiler"), c.String("type"), c.String("version"))
		if err != nil {
			return err
		}
		compiler = found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return compiler, source, nil
}

func findCompiler(ctx context.Context, api *explorer.API, id, compilerType, version string) (*explorer.Compiler, error) {
	switch {
	case id != "":
		return api.Compilers.FindByID(ctx, id)
	case version != "":
		return api.Compilers.Find(ctx, compilerType, version)
	default:
		return nil, fmt.Errorf("must provide --compiler, or --type and --version")
	}
}

// readSource reads path, or stdin when path is empty or "-".
func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read source from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file %q: %w", path, err)
	}
	return data, nil
}

// resultCode is the code of the phase that ended the request: the build when it failed,
// otherwise the compiler or program.
func resultCode(res *result.CompilationResult) int {
	if res.BuildResult != nil && !res.BuildResult.Succeeded() {
		return res.BuildResult.Code
	}
	return res.Code
}

// exitCode propagates a non-zero result code as the process exit status.
func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return cli.NewExitError("", code)
}
