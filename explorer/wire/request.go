// Package wire encodes logical compile requests into the three request formats accepted by the
// compile endpoints.
package wire

import (
	"net/http"
)

// CompilerOptions toggles compiler-side behaviour.
type CompilerOptions struct {
	SkipAsm         bool `json:"skipAsm"`
	ExecutorRequest bool `json:"executorRequest"`
}

// Enabled returns the names of the options set to true.
func (o CompilerOptions) Enabled() []string {
	var names []string
	if o.SkipAsm {
		names = append(names, "skipAsm")
	}
	if o.ExecutorRequest {
		names = append(names, "executorRequest")
	}
	return names
}

// ExecuteOnly is true when the request asks for execution output without assembly.
func (o CompilerOptions) ExecuteOnly() bool {
	return o.SkipAsm && o.ExecutorRequest
}

// Filters control how the service post-processes compiler output.
type Filters struct {
	Binary      bool `json:"binary"`
	CommentOnly bool `json:"commentOnly"`
	Demangle    bool `json:"demangle"`
	Directives  bool `json:"directives"`
	Execute     bool `json:"execute"`
	Intel       bool `json:"intel"`
	Labels      bool `json:"labels"`
	LibraryCode bool `json:"libraryCode"`
	Trim        bool `json:"trim"`
}

// Enabled returns the names of the filters set to true, in declaration order.
func (f Filters) Enabled() []string {
	flags := []struct {
		name string
		set  bool
	}{
		{"binary", f.Binary},
		{"commentOnly", f.CommentOnly},
		{"demangle", f.Demangle},
		{"directives", f.Directives},
		{"execute", f.Execute},
		{"intel", f.Intel},
		{"labels", f.Labels},
		{"libraryCode", f.LibraryCode},
		{"trim", f.Trim},
	}
	var names []string
	for _, flag := range flags {
		if flag.set {
			names = append(names, flag.name)
		}
	}
	return names
}

// Set enables the filter with the provided name, returning false if the name is unknown.
func (f *Filters) Set(name string) bool {
	switch name {
	case "binary":
		f.Binary = true
	case "commentOnly":
		f.CommentOnly = true
	case "demangle":
		f.Demangle = true
	case "directives":
		f.Directives = true
	case "execute":
		f.Execute = true
	case "intel":
		f.Intel = true
	case "labels":
		f.Labels = true
	case "libraryCode":
		f.LibraryCode = true
	case "trim":
		f.Trim = true
	default:
		return false
	}
	return true
}

// Library selects a library (and version) to make available to the compiler.
type Library struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// ExecuteParameters are passed to the compiled program when it is executed.
type ExecuteParameters struct {
	Args  []string `json:"args"`
	Stdin string   `json:"stdin"`
}

// Request is a logical compile request, independent of the wire format.
type Request struct {
	Source            string
	CompilerID        string
	Language          string
	UserArguments     []string
	CompilerOptions   CompilerOptions
	Filters           Filters
	Libraries         []Library
	ExecuteParameters *ExecuteParameters
}

// Wire is an encoded HTTP request, relative to the service base URL.
type Wire struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// Endpoint names the logical API endpoint, used to label metrics.
	Endpoint string
}
