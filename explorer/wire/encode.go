package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

// Endpoint names used to label encoded requests.
const (
	EndpointCompile   = "compile"
	EndpointNoScript  = "noscript_compile"
	EndpointCompilers = "compilers"
)

// Content types sent and accepted by the service.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Encode the request using the provided format.
func Encode(format Format, req Request) *Wire {
	switch format {
	case FormatText:
		return encodeText(req)
	case FormatForm:
		return encodeForm(req)
	default:
		return encodeJSON(req)
	}
}

// CompilersRequest returns the request listing every compiler available for a language.
func CompilersRequest(language string) *Wire {
	return &Wire{
		Method:   http.MethodGet,
		Path:     "/api/compilers/" + escapeSegment(language),
		Header:   http.Header{"Accept": []string{ContentTypeJSON}},
		Endpoint: EndpointCompilers,
	}
}

// QuoteArguments wraps each argument in double quotes and joins them with a space.
// Embedded quotes are not escaped.
func QuoteArguments(args []string) string {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		quoted = append(quoted, `"`+arg+`"`)
	}
	return strings.Join(quoted, " ")
}

type jsonRequest struct {
	Source   string      `json:"source"`
	Compiler string      `json:"compiler"`
	Options  jsonOptions `json:"options"`
}

type jsonOptions struct {
	UserArguments     string             `json:"userArguments"`
	CompilerOptions   CompilerOptions    `json:"compilerOptions"`
	Filters           Filters            `json:"filters"`
	Libraries         []Library          `json:"libraries,omitempty"`
	ExecuteParameters *ExecuteParameters `json:"executeParameters,omitempty"`
}

func encodeJSON(req Request) *Wire {
	body := jsonRequest{
		Source:   req.Source,
		Compiler: req.CompilerID,
		Options: jsonOptions{
			UserArguments:     QuoteArguments(req.UserArguments),
			CompilerOptions:   req.CompilerOptions,
			Filters:           req.Filters,
			Libraries:         req.Libraries,
			ExecuteParameters: req.ExecuteParameters,
		},
	}

	// Source code is full of '<', '>' and '&', keep them readable
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Plain structs of strings, bools and slices always encode
	_ = enc.Encode(body)

	return &Wire{
		Method: http.MethodPost,
		Path:   compilePath(req.CompilerID),
		Header: http.Header{
			"Accept":       []string{ContentTypeJSON},
			"Content-Type": []string{ContentTypeJSON},
		},
		Body:     bytes.TrimSuffix(buf.Bytes(), []byte("\n")),
		Endpoint: EndpointCompile,
	}
}

func encodeText(req Request) *Wire {
	var filters string
	for _, name := range req.Filters.Enabled() {
		filters += "," + name
	}
	filters = strings.TrimPrefix(filters, ",")

	query := "filters=" + filters
	if req.CompilerOptions.SkipAsm {
		query += "&skipAsm=true"
	}
	if req.CompilerOptions.ExecutorRequest {
		query += "&executorRequest=true"
	}

	return &Wire{
		Method: http.MethodPost,
		Path:   compilePath(req.CompilerID) + "?" + query,
		Header: http.Header{
			"Accept":       []string{ContentTypeText},
			"Content-Type": []string{ContentTypeText},
		},
		Body:     []byte(req.Source),
		Endpoint: EndpointCompile,
	}
}

func encodeForm(req Request) *Wire {
	// url.Values sorts keys on Encode, the service expects compiler, lang and source first
	var body strings.Builder
	body.WriteString("compiler=" + url.QueryEscape(req.CompilerID))
	body.WriteString("&lang=" + url.QueryEscape(req.Language))
	body.WriteString("&source=" + url.QueryEscape(req.Source))
	for _, name := range req.Filters.Enabled() {
		body.WriteString("&" + name + "=true")
	}
	for _, name := range req.CompilerOptions.Enabled() {
		body.WriteString("&" + name + "=true")
	}

	return &Wire{
		Method: http.MethodPost,
		Path:   "/api/noscript/compile",
		Header: http.Header{
			"Accept":       []string{ContentTypeText},
			"Content-Type": []string{ContentTypeForm},
		},
		Body:     []byte(body.String()),
		Endpoint: EndpointNoScript,
	}
}

func compilePath(compilerID string) string {
	return "/api/compiler/" + escapeSegment(compilerID) + "/compile"
}

// escapeSegment escapes a path segment the way browsers' encodeURIComponent does, so "c++"
// is sent as "c%2B%2B".
func escapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
