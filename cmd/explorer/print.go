package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"explorer.pub/explorer"
	"explorer.pub/explorer/result"
	"github.com/fatih/color"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

// printer renders command output to stdout, and diagnostics to stderr.
type printer struct {
	out    io.Writer
	errOut io.Writer
	json   bool

	header  *color.Color
	success *color.Color
	failure *color.Color
	stderr  *color.Color
}

// newPrinter writes to the app's writers, using colors only when stdout is a terminal.
func newPrinter(c *cli.Context) *printer {
	out, errOut := c.App.Writer, c.App.ErrWriter
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}

	var colored bool
	if f, ok := out.(*os.File); ok {
		colored = term.IsTerminal(int(f.Fd()))
	}
	return newPrinterTo(out, errOut, c.GlobalBool("json"), colored)
}

func newPrinterTo(out, errOut io.Writer, jsonOutput, colored bool) *printer {
	p := &printer{
		out:     out,
		errOut:  errOut,
		json:    jsonOutput,
		header:  color.New(color.Bold, color.FgCyan),
		success: color.New(color.FgGreen),
		failure: color.New(color.Bold, color.FgRed),
		stderr:  color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.header, p.success, p.failure, p.stderr} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) encodeJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Compilers prints one row per compiler.
func (p *printer) Compilers(list []*explorer.Compiler) error {
	if p.json {
		descriptors := make([]result.CompilerDescriptor, 0, len(list))
		for _, compiler := range list {
			descriptors = append(descriptors, compiler.Descriptor())
		}
		return p.encodeJSON(descriptors)
	}

	w := tabwriter.NewWriter(p.out, 8, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tVERSION\tEXECUTE\tNAME")
	for _, compiler := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			compiler.ID(),
			compiler.Type(),
			compiler.Version(),
			compiler.SupportsExecution(),
			compiler.Name(),
		)
	}
	return w.Flush()
}

// Result prints the assembly and output of every phase in res.
func (p *printer) Result(res *result.CompilationResult) error {
	if p.json {
		return p.encodeJSON(res)
	}

	if res.BuildResult != nil {
		p.phase("build", res.BuildResult)
		// Nothing ran after the build
		if !res.DidExecute && isEmpty(&res.BaseResult) {
			return nil
		}
	}
	label := "compiler"
	if res.DidExecute {
		label = "program"
	}
	p.phase(label, &res.BaseResult)
	return nil
}

func (p *printer) phase(label string, r *result.BaseResult) {
	for _, line := range r.Asm {
		fmt.Fprintln(p.out, line.Text)
	}
	for _, line := range r.Stdout {
		fmt.Fprintln(p.out, line.Text)
	}
	for _, line := range r.Stderr {
		p.stderr.Fprintln(p.errOut, line.Text)
	}

	status := p.success
	if !r.Succeeded() {
		status = p.failure
	}
	p.header.Fprintf(p.errOut, "# %s ", label)
	status.Fprintf(p.errOut, "exited with code %d\n", r.Code)
}

func isEmpty(r *result.BaseResult) bool {
	return r.Code == 0 && len(r.Asm) == 0 && len(r.Stdout) == 0 && len(r.Stderr) == 0
}
