// Package textdecode rebuilds a CompilationResult from the plain-text responses returned by the
// text and form compile endpoints.
//
// The service writes a single stream of lines. Sentinel lines report the compiler and program
// exit codes, region headers switch between stdout and stderr, and everything seen before the
// first header is disassembly. When the request asked for execution the stream carries two
// phases: everything routed before the execution exit line belongs to the build, the rest to
// the execution.
//
// The build record is allocated for every request that asked for execution (executorRequest
// or the execute filter), before any line is read. It is therefore present even when the
// response carries no compiler exit line, and for execute-only requests.
package textdecode

import (
	"regexp"
	"strconv"
	"strings"

	"explorer.pub/explorer/result"
)

var (
	executionExitPattern = regexp.MustCompile(`^# Execution result with exit code (-?\d+)`)
	compilerExitPattern  = regexp.MustCompile(`^# Compiler exited with result code (-?\d+)`)
	stdoutHeaderPattern  = regexp.MustCompile(`^(?:# )?Standard out:\s*$`)
	stderrHeaderPattern  = regexp.MustCompile(`^(?:# )?Standard error:\s*$`)
)

// Context describes the request a response is being decoded for.
type Context struct {
	SkipAsm         bool
	ExecutorRequest bool
	ExecuteFilter   bool
}

// ExecuteOnly is true when the request asked for execution output without assembly.
func (ctx Context) ExecuteOnly() bool {
	return ctx.SkipAsm && ctx.ExecutorRequest
}

// HasExecutionPhase is true when the response may carry a separate build phase.
func (ctx Context) HasExecutionPhase() bool {
	return ctx.ExecutorRequest || ctx.ExecuteFilter
}

type region int

const (
	regionOther region = iota
	regionStdout
	regionStderr
)

// state is threaded through the scan, one line at a time.
type state struct {
	out   *result.BaseResult
	build *result.BaseResult

	region            region
	executionExitSeen bool
	compilerExitSeen  bool
}

// Decode the raw response body. Decode never fails: lines it does not recognize are kept as
// output of the region they appear in.
func Decode(raw string, ctx Context) *result.CompilationResult {
	st := newState(ctx)
	for _, line := range Lines(raw) {
		st = st.step(line)
	}
	return st.finish()
}

func newState(ctx Context) state {
	st := state{
		out: result.NewBaseResult(!ctx.ExecuteOnly()),
	}
	if ctx.HasExecutionPhase() {
		st.build = result.NewBaseResult(true)
	}
	return st
}

func (st state) step(line string) state {
	if !st.executionExitSeen {
		if code, ok := matchCode(executionExitPattern, line); ok {
			st.out.Code = code
			st.executionExitSeen = true
			return st
		}
	}

	if !st.compilerExitSeen {
		if code, ok := matchCode(compilerExitPattern, line); ok {
			if st.build != nil {
				st.build.Code = code
			} else {
				st.out.Code = code
			}
			st.compilerExitSeen = true
			return st
		}
	}

	if st.region != regionStdout && stdoutHeaderPattern.MatchString(line) {
		st.region = regionStdout
		return st
	}
	if st.region != regionStderr && stderrHeaderPattern.MatchString(line) {
		st.region = regionStderr
		return st
	}

	switch st.region {
	case regionStdout:
		target := st.phase()
		target.Stdout = append(target.Stdout, result.ResultLine{Text: line})
	case regionStderr:
		target := st.phase()
		target.Stderr = append(target.Stderr, result.ResultLine{Text: line})
	default:
		target := st.out
		if st.build != nil {
			target = st.build
		}
		target.Asm = append(target.Asm, result.AsmLine{Text: line, Labels: result.Labels{}})
	}
	return st
}

// phase returns the record stdout and stderr content is currently routed to.
func (st state) phase() *result.BaseResult {
	if st.build != nil && !st.executionExitSeen {
		return st.build
	}
	return st.out
}

func (st state) finish() *result.CompilationResult {
	return &result.CompilationResult{
		BaseResult:  *st.out,
		BuildResult: st.build,
		DidExecute:  st.executionExitSeen && (st.build == nil || st.build.Code == 0),
	}
}

// matchCode returns the exit code captured by pattern. Lines whose capture is not a valid int
// do not match.
func matchCode(pattern *regexp.Regexp, line string) (int, bool) {
	m := pattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

// Lines splits raw into lines. A single trailing line separator terminates the last line
// rather than opening an empty one, so "hello\n" is the single line "hello" as the service
// prints it. Any further empty lines are kept. A carriage return before the separator is
// dropped.
func Lines(raw string) []string {
	if raw == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
