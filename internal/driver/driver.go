// Package driver runs the full jlc pipeline (lex, parse, resolve,
// type-check, then code generation or liveness analysis) end to end,
// exactly the shape of the original implementation's
// compiler/stups_compiler.py: each stage is invoked in order, reports
// through the same status/diagnostic surface, and a later stage never
// runs once an earlier one has recorded an error.
package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"

	"jlc/internal/ast"
	"jlc/internal/codegen"
	"jlc/internal/errors"
	"jlc/internal/lexer"
	"jlc/internal/liveness"
	"jlc/internal/parser"
	"jlc/internal/symtab"
	"jlc/internal/types"
)

// Exit codes, one per pipeline stage; a later stage never runs once an
// earlier one has reported, per spec.md §7.
const (
	ExitOK            = 0
	ExitSyntaxError   = 1
	ExitNameError     = 2
	ExitTypeError     = 3
	ExitArgumentError = 64
	ExitInternalError = 70
)

// Options configures one run of the pipeline.
type Options struct {
	InputFile  string
	OutputFile string
	Liveness   bool
	Debug      bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// Outcome is everything the CLI's -debug banner wants after the run,
// alongside the exit code every other caller actually needs.
type Outcome struct {
	Code     int
	Table    *symtab.Table
	Program  *ast.Program
	Liveness []*liveness.Result
	Emitted  string
}

// Run executes the pipeline described by opts, printing Status lines
// and diagnostics as it goes, and returns the exit code plus whatever
// intermediate state a -debug banner wants to dump.
func Run(opts Options) Outcome {
	out := &Outcome{}

	status(opts.Stdout, "reading file")
	source, err := os.ReadFile(opts.InputFile)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "could not read %s: %v\n", opts.InputFile, err)
		out.Code = ExitArgumentError
		return *out
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				out.Code = reportPanic(opts.Stderr, r, opts.Debug)
			}
		}()

		status(opts.Stdout, "parsing...")
		sc := lexer.NewScanner(string(source))
		tokens := sc.ScanTokens()
		if len(sc.Errors()) > 0 {
			reportErrors(opts.Stderr, sc.Errors())
			out.Code = ExitSyntaxError
			return
		}

		p := parser.New(tokens)
		out.Program = p.Parse()
		if len(p.Errors) > 0 {
			reportErrors(opts.Stderr, p.Errors)
			out.Code = ExitSyntaxError
			return
		}
		status(opts.Stdout, "parsing successful.")

		nameDiags := errors.NewCollector(errors.PhaseName)
		out.Table = symtab.Build(out.Program, nameDiags)
		if nameDiags.HasErrors() {
			reportDiagnostics(opts.Stderr, nameDiags)
			out.Code = ExitNameError
			return
		}

		status(opts.Stdout, "typechecking...")
		typeDiags := errors.NewCollector(errors.PhaseType)
		types.Check(out.Program, out.Table, typeDiags)
		if typeDiags.HasErrors() {
			reportDiagnostics(opts.Stderr, typeDiags)
			out.Code = ExitTypeError
			return
		}
		status(opts.Stdout, "typechecking successful.")

		if opts.Liveness {
			out.Liveness = liveness.Analyze(out.Program, out.Table)
			out.Code = writeOutput(opts.OutputFile, FormatLiveness(out.Liveness), opts.Debug, opts.Stderr)
			return
		}

		className := strings.TrimSuffix(filepath.Base(opts.OutputFile), filepath.Ext(opts.OutputFile))
		gen := codegen.New(out.Table, className, opts.Debug)
		out.Emitted = gen.Generate(out.Program)
		out.Code = writeOutput(opts.OutputFile, out.Emitted, opts.Debug, opts.Stderr)
	}()

	return *out
}

// reportPanic recovers a panicked *errors.InternalError (or any other
// unexpected panic) and prints only its message unless -debug is set,
// mirroring the original driver's exception hook that swallows
// tracebacks from the user by default.
func reportPanic(stderr io.Writer, r any, debug bool) int {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("%v", r)
	}
	fmt.Fprintf(stderr, "internal error: %s\n", err.Error())
	if debug {
		if st := errors.StackTrace(err); st != "" {
			fmt.Fprintln(stderr, st)
		}
	}
	return ExitInternalError
}

func status(stdout io.Writer, msg string) {
	fmt.Fprintf(stdout, "Status: %s\n", msg)
}

func reportErrors(stderr io.Writer, errs []error) {
	color := isTerminal(stderr)
	for _, e := range errs {
		printLine(stderr, e.Error(), color)
	}
}

func reportDiagnostics(stderr io.Writer, c *errors.Collector) {
	color := isTerminal(stderr)
	for _, d := range c.Diagnostics {
		printLine(stderr, d.String(), color)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func printLine(stderr io.Writer, msg string, color bool) {
	if color {
		fmt.Fprintf(stderr, "\x1b[31m%s\x1b[0m\n", msg)
		return
	}
	fmt.Fprintln(stderr, msg)
}

// writeOutput writes content to path atomically: a uuid-suffixed temp
// file in the same directory, renamed into place, so a reader never
// observes a half-written output file.
func writeOutput(path, content string, debug bool, stderr io.Writer) int {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		fmt.Fprintf(stderr, "could not write output: %v\n", err)
		return ExitInternalError
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		fmt.Fprintf(stderr, "could not finalize output: %v\n", err)
		return ExitInternalError
	}
	if debug {
		sum := blake2b.Sum256([]byte(content))
		fmt.Fprintf(stderr, "fingerprint: %x\n", sum)
	}
	return ExitOK
}

// FormatLiveness renders every function's control-flow and register
// interference graphs as readable, indented text - the liveness
// counterpart to codegen's Jasmin text, since there's no standard wire
// format for this mode.
func FormatLiveness(results []*liveness.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "function %s\n", r.FunctionName)
		live := r.CFG.LiveSets()
		for _, n := range r.CFG.Nodes {
			fmt.Fprintf(&b, "  node %d: live-in=%s\n", n.ID, setString(live[n.ID]))
		}
		fmt.Fprintf(&b, "  Registers: %d\n", r.RIG.MinRegisters)
		for _, name := range r.RIG.Nodes {
			fmt.Fprintf(&b, "  register[%s] = %d\n", name, r.RIG.Colors[name])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// setString renders a live-variable set deterministically: map
// iteration order is random, and this text feeds both -debug output
// and the liveness output file, so it is sorted before joining.
func setString(set map[string]struct{}) string {
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	slices.Sort(names)
	return "{" + strings.Join(names, ", ") + "}"
}
