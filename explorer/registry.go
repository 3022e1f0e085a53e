package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"explorer.pub/explorer/result"
	"explorer.pub/explorer/wire"
	"golang.org/x/sync/singleflight"
)

// Compilers lists the compilers the service exposes for the API's default language.
//
// The list is fetched once, on first use. Concurrent callers share the same fetch, and its
// outcome (including a failure) is kept for the lifetime of the Compilers.
type Compilers struct {
	client *client
	group  singleflight.Group

	mu     sync.Mutex
	loaded bool
	list   []*Compiler
	err    error
}

func newCompilers(c *client) *Compilers {
	return &Compilers{client: c}
}

// List every compiler, in the order the service returned them.
//
// If ctx is done before the list is loaded, List returns ctx.Err() but the load continues for
// other callers.
func (c *Compilers) List(ctx context.Context) ([]*Compiler, error) {
	if list, ok, err := c.memoized(); ok {
		return list, err
	}

	ch := c.group.DoChan("list", func() (any, error) {
		if list, ok, err := c.memoized(); ok {
			return list, err
		}

		// The load outlives the caller that triggered it
		list, err := c.load(context.WithoutCancel(ctx))

		c.mu.Lock()
		c.loaded, c.list, c.err = true, list, err
		c.mu.Unlock()
		return slices.Clone(list), err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]*Compiler)), nil
	}
}

// Find the first compiler with the provided type and version.
//
// Compilers without a semantic version use their id as version, so they only match when the
// id is provided as version.
func (c *Compilers) Find(ctx context.Context, compilerType, version string) (*Compiler, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, compiler := range list {
		if compiler.Type() == compilerType && compiler.Version() == version {
			return compiler, nil
		}
	}
	return nil, fmt.Errorf("%w: type %q version %q", ErrCompilerNotFound, compilerType, version)
}

// FindByID returns the compiler with the provided id.
func (c *Compilers) FindByID(ctx context.Context, id string) (*Compiler, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, compiler := range list {
		if compiler.ID() == id {
			return compiler, nil
		}
	}
	return nil, fmt.Errorf("%w: id %q", ErrCompilerNotFound, id)
}

// memoized returns the outcome of the load, ok is false until the load has completed.
func (c *Compilers) memoized() (list []*Compiler, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return nil, false, nil
	}
	if c.err != nil {
		return nil, true, c.err
	}
	return slices.Clone(c.list), true, nil
}

func (c *Compilers) load(ctx context.Context) ([]*Compiler, error) {
	language := c.client.options.DefaultLanguage
	slog.DebugContext(ctx, "loading compiler list", "language", language)

	body, err := c.client.transport.Do(ctx, wire.CompilersRequest(language))
	if err != nil {
		slog.ErrorContext(ctx, "failed to load compiler list", "language", language, "error", err)
		return nil, err
	}

	var details []result.CompilerDescriptor
	if err := json.Unmarshal(body, &details); err != nil {
		slog.ErrorContext(ctx, "failed to parse compiler list", "language", language, "error", err)
		return nil, &MalformedResponseError{Body: body, Err: err}
	}

	list := make([]*Compiler, 0, len(details))
	for _, d := range details {
		list = append(list, newCompiler(c.client, d))
	}

	slog.InfoContext(ctx, "loaded compiler list", "language", language, "compilers", len(list))
	return list, nil
}
