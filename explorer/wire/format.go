package wire

import (
	"sort"
	"strings"
)

// Format selects the encoding used to talk to the compile endpoint.
type Format int

// FormatJSON sends a JSON body and parses a JSON response.
// FormatText sends the raw source with filters in the query string and decodes a plain-text response.
// FormatForm sends a URL-encoded form and decodes a plain-text response.
const (
	FormatJSON Format = iota
	FormatText
	FormatForm
)

var (
	formatName = map[Format]string{
		FormatJSON: "json",
		FormatText: "text",
		FormatForm: "form",
	}
	formatValue = map[string]Format{
		"json": FormatJSON,
		"text": FormatText,
		"form": FormatForm,
	}
)

// String returns the lowercase name of the format.
func (f Format) String() string {
	if name, ok := formatName[f]; ok {
		return name
	}
	return formatName[FormatJSON]
}

// Values provides the list of valid format names.
func (Format) Values() []string {
	values := make([]string, 0, len(formatName))
	for _, name := range formatName {
		values = append(values, name)
	}
	sort.Strings(values)
	return values
}

// ReturnsText reports whether responses for this format must be decoded from plain text.
func (f Format) ReturnsText() bool {
	return f == FormatText || f == FormatForm
}

// ParseFormat returns the format with the provided name (case-insensitive).
// Unknown or empty names select FormatJSON.
func ParseFormat(name string) Format {
	if f, ok := formatValue[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f
	}
	return FormatJSON
}

// IsFormat reports whether name is a known format name.
func IsFormat(name string) bool {
	_, ok := formatValue[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
