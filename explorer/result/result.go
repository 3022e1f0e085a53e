// Package result provides the records shared by every wire format to describe the outcome of a
// compilation or execution request.
package result

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ResultLineTag correlates an output line with a location in the submitted source.
type ResultLineTag struct {
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
	Text   string `json:"text"`
}

// ResultLine is one line of stdout or stderr.
type ResultLine struct {
	Text string         `json:"text"`
	Tag  *ResultLineTag `json:"tag,omitempty"`
}

// AsmSource locates the source line an assembly line was generated from.
// File and Line are nil when unknown.
type AsmSource struct {
	File *string `json:"file"`
	Line *int    `json:"line"`
}

// AsmLine is one line of disassembly, or of unclassified output when no region header was seen.
type AsmLine struct {
	Text   string    `json:"text"`
	Source AsmSource `json:"source"`
	Labels Labels    `json:"labels"`
}

// Labels is the set of symbol names referenced by an AsmLine.
type Labels []string

// UnmarshalJSON accepts both a list of names and the list of label objects
// ({"name": ..., "range": ...}) returned by the service.
func (l *Labels) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("labels must be a list: %w", err)
	}

	labels := make(Labels, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			labels = append(labels, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("invalid label %s: %w", item, err)
		}
		labels = append(labels, obj.Name)
	}
	*l = labels
	return nil
}

// BaseResult holds the exit code and output of a single phase.
type BaseResult struct {
	Code    int          `json:"code"`
	Stdout  []ResultLine `json:"stdout"`
	Stderr  []ResultLine `json:"stderr"`
	AsmSize *int         `json:"asmSize,omitempty"`
	Asm     []AsmLine    `json:"asm,omitempty"`
}

// CompilationResult is the outcome of a compile or execute request.
//
// When the response contained both a build and an execution phase, the embedded BaseResult
// describes the execution and BuildResult describes the build.
type CompilationResult struct {
	BaseResult
	DidExecute  bool        `json:"didExecute"`
	BuildResult *BaseResult `json:"buildResult,omitempty"`
}

// NewBaseResult returns a BaseResult with empty (non-nil) output sequences.
// Asm is only allocated when withAsm is true.
func NewBaseResult(withAsm bool) *BaseResult {
	r := &BaseResult{
		Stdout: []ResultLine{},
		Stderr: []ResultLine{},
	}
	if withAsm {
		r.Asm = []AsmLine{}
	}
	return r
}

// Succeeded reports whether the phase exited with code 0.
func (r *BaseResult) Succeeded() bool {
	return r != nil && r.Code == 0
}

// Clone returns a deep copy of the result, sharing no slices or pointers with r.
func (r *CompilationResult) Clone() *CompilationResult {
	if r == nil {
		return nil
	}
	clone := &CompilationResult{
		BaseResult: *r.BaseResult.Clone(),
		DidExecute: r.DidExecute,
	}
	if r.BuildResult != nil {
		clone.BuildResult = r.BuildResult.Clone()
	}
	return clone
}

// Clone returns a deep copy of the phase.
func (r *BaseResult) Clone() *BaseResult {
	if r == nil {
		return nil
	}
	return &BaseResult{
		Code:    r.Code,
		Stdout:  cloneLines(r.Stdout),
		Stderr:  cloneLines(r.Stderr),
		AsmSize: clonePtr(r.AsmSize),
		Asm:     cloneAsm(r.Asm),
	}
}

func cloneLines(lines []ResultLine) []ResultLine {
	if lines == nil {
		return nil
	}
	clone := make([]ResultLine, len(lines))
	for i, line := range lines {
		clone[i] = ResultLine{Text: line.Text, Tag: clonePtr(line.Tag)}
	}
	return clone
}

func cloneAsm(lines []AsmLine) []AsmLine {
	if lines == nil {
		return nil
	}
	clone := make([]AsmLine, len(lines))
	for i, line := range lines {
		clone[i] = AsmLine{
			Text: line.Text,
			Source: AsmSource{
				File: clonePtr(line.Source.File),
				Line: clonePtr(line.Source.Line),
			},
			Labels: slices.Clone(line.Labels),
		}
	}
	return clone
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
