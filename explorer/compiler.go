package explorer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"explorer.pub/explorer/result"
	"explorer.pub/explorer/textdecode"
	"explorer.pub/explorer/wire"
)

// DefaultCompilerType is reported for compilers whose descriptor has no compilerType.
const DefaultCompilerType = "gcc"

// CompileRequest holds the optional parts of a compile request.
// The zero value compiles with no arguments, options, filters or libraries.
type CompileRequest struct {
	Arguments         []string
	Options           wire.CompilerOptions
	Filters           wire.Filters
	Libraries         []wire.Library
	ExecuteParameters *wire.ExecuteParameters
}

// ExecuteRequest holds the optional parts of an execute request.
type ExecuteRequest struct {
	Arguments         []string
	Libraries         []wire.Library
	ExecuteParameters *wire.ExecuteParameters
}

// Compiler submits source code to one of the service's compilers.
// A Compiler is immutable and safe for concurrent use.
type Compiler struct {
	details      result.CompilerDescriptor
	compilerType string
	version      string

	client *client
}

func newCompiler(c *client, details result.CompilerDescriptor) *Compiler {
	compiler := &Compiler{
		details:      details,
		compilerType: details.CompilerType,
		version:      details.Semver,
		client:       c,
	}
	if compiler.compilerType == "" {
		compiler.compilerType = DefaultCompilerType
	}
	// Versions are not guaranteed unique, fall back to the id which is
	if compiler.version == "" {
		compiler.version = details.ID
	}
	return compiler
}

// ID of the compiler, unique within the service.
func (c *Compiler) ID() string { return c.details.ID }

// Name of the compiler, for display.
func (c *Compiler) Name() string { return c.details.Name }

// Group the service lists the compiler under.
func (c *Compiler) Group() string { return c.details.Group }

// Type of the compiler (e.g. gcc, clang), DefaultCompilerType if the service did not report one.
func (c *Compiler) Type() string { return c.compilerType }

// Version of the compiler, the compiler id if the service did not report a semantic version.
func (c *Compiler) Version() string { return c.version }

// Language the compiler accepts, falling back to the API default language.
func (c *Compiler) Language() string {
	if c.details.Lang != "" {
		return c.details.Lang
	}
	return c.client.options.DefaultLanguage
}

// Descriptor returns a copy of the metadata the service published for this compiler.
func (c *Compiler) Descriptor() result.CompilerDescriptor { return c.details }

// SupportsExecution reports whether compiled programs can be executed by the service.
func (c *Compiler) SupportsExecution() bool { return c.details.SupportsExecute }

// Compile the provided source code.
//
// Errors from the transport are returned unmodified. For the JSON format, a response body that
// cannot be parsed returns a *MalformedResponseError. Text responses always decode.
func (c *Compiler) Compile(ctx context.Context, source string, req CompileRequest) (*result.CompilationResult, error) {
	var (
		start  = time.Now()
		format = c.client.options.Format
	)

	wreq := wire.Request{
		Source:            source,
		CompilerID:        c.details.ID,
		Language:          c.Language(),
		UserArguments:     req.Arguments,
		CompilerOptions:   req.Options,
		Filters:           req.Filters,
		Libraries:         req.Libraries,
		ExecuteParameters: req.ExecuteParameters,
	}
	w := wire.Encode(format, wreq)

	key, cached, ok := c.client.cache.lookup(format, w)
	if ok {
		return cached, nil
	}

	body, err := c.client.transport.Do(ctx, w)
	if err != nil {
		return nil, err
	}

	res, err := decode(format, body, wreq)
	if err != nil {
		slog.WarnContext(ctx, "failed to decode compile response", "compiler_id", c.details.ID, "format", format.String(), "error", err)
		return nil, err
	}
	c.client.cache.add(key, res)

	slog.DebugContext(ctx, "compiled source",
		"compiler_id", c.details.ID,
		"format", format.String(),
		"code", res.Code,
		"did_execute", res.DidExecute,
		"duration", time.Since(start),
	)
	return res, nil
}

// Execute compiles and runs the provided source code, without producing assembly.
func (c *Compiler) Execute(ctx context.Context, source string, req ExecuteRequest) (*result.CompilationResult, error) {
	return c.Compile(ctx, source, CompileRequest{
		Arguments: req.Arguments,
		Options: wire.CompilerOptions{
			SkipAsm:         true,
			ExecutorRequest: true,
		},
		Filters:           wire.Filters{Execute: true},
		Libraries:         req.Libraries,
		ExecuteParameters: req.ExecuteParameters,
	})
}

func decode(format wire.Format, body []byte, req wire.Request) (*result.CompilationResult, error) {
	if format.ReturnsText() {
		return textdecode.Decode(string(body), textdecode.Context{
			SkipAsm:         req.CompilerOptions.SkipAsm,
			ExecutorRequest: req.CompilerOptions.ExecutorRequest,
			ExecuteFilter:   req.Filters.Execute,
		}), nil
	}

	var res result.CompilationResult
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, &MalformedResponseError{Body: body, Err: err}
	}
	return &res, nil
}
