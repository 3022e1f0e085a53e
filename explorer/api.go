// Package explorer is a client for the Compiler Explorer API.
//
// An API lists the compilers available for a language and hands out a Compiler for each of
// them. Compilers submit source code using one of three wire formats (see wire.Format) and
// return the outcome as a result.CompilationResult regardless of the format used.
package explorer

import (
	"net/http"
	"time"

	"explorer.pub/explorer/transport"
	"explorer.pub/explorer/wire"
)

// Options identify the service and how to talk to it.
type Options struct {
	// URL of the service, e.g. https://godbolt.org
	URL string

	// DefaultLanguage selects which compilers are listed, and is sent with form requests for
	// compilers that do not report a language.
	DefaultLanguage string

	// Format used by every Compiler created for this API.
	Format wire.Format
}

// An Option to configure an API.
type Option func(*settings)

type settings struct {
	transport   transport.Transport
	httpOptions []transport.Option
	cacheSize   int
}

// WithTransport sends every request through the provided transport instead of HTTP.
func WithTransport(t transport.Transport) Option {
	return Option(func(s *settings) {
		s.transport = t
	})
}

// WithHTTPClient sends requests using the provided http client.
func WithHTTPClient(client *http.Client) Option {
	return Option(func(s *settings) {
		s.httpOptions = append(s.httpOptions, transport.WithHTTPClient(client))
	})
}

// WithTimeout bounds every HTTP request, including reading the response body.
// It applies to a copy of any client provided with WithHTTPClient, whatever the option order.
func WithTimeout(timeout time.Duration) Option {
	return Option(func(s *settings) {
		s.httpOptions = append(s.httpOptions, transport.WithTimeout(timeout))
	})
}

// WithResultCache keeps up to size decoded results, answering identical requests without
// contacting the service. A size of zero disables the cache.
func WithResultCache(size int) Option {
	return Option(func(s *settings) {
		s.cacheSize = size
	})
}

// client is shared by the registry and every Compiler it creates.
type client struct {
	options   Options
	transport transport.Transport
	cache     *resultCache
}

// API is the entrypoint to the service.
type API struct {
	Compilers *Compilers

	client *client
}

// New configures a new API. It does not contact the service.
func New(options Options, opts ...Option) (*API, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	tr := s.transport
	if tr == nil {
		httpTransport, err := transport.NewHTTP(options.URL, s.httpOptions...)
		if err != nil {
			return nil, err
		}
		tr = httpTransport
	}

	cache, err := newResultCache(s.cacheSize)
	if err != nil {
		return nil, err
	}

	c := &client{
		options:   options,
		transport: tr,
		cache:     cache,
	}
	return &API{
		Compilers: newCompilers(c),
		client:    c,
	}, nil
}

// Options the API was configured with.
func (api *API) Options() Options {
	return api.client.options
}
