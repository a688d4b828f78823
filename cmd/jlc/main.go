// cmd/jlc/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kr/pretty"
	"github.com/kr/text"
	"github.com/ncruces/go-strftime"

	"jlc/internal/driver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("jlc", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	compileFile := fs.String("compile", "", "compile a .jl source file to Jasmin assembly")
	livenessFile := fs.String("liveness", "", "run liveness analysis on a .jl source file")
	outputFile := fs.String("output", "", "output file path (defaults to the input path with its extension swapped to .j)")
	debug := fs.Bool("debug", false, "print an internal debug banner and keep stack traces on fatal errors")
	if err := fs.Parse(args); err != nil {
		return driver.ExitArgumentError
	}

	if (*compileFile == "") == (*livenessFile == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -compile or -liveness must be given")
		return driver.ExitArgumentError
	}
	inputFile := *compileFile
	wantsLiveness := *livenessFile != ""
	if wantsLiveness {
		inputFile = *livenessFile
	}

	out := *outputFile
	if out == "" {
		ext := filepath.Ext(inputFile)
		out = strings.TrimSuffix(inputFile, ext) + ".j"
	}
	if !strings.HasSuffix(inputFile, ".jl") {
		fmt.Fprintln(os.Stderr, "Warning: Input File is not of type '.jl'.")
	}
	if !strings.HasSuffix(out, ".j") {
		fmt.Fprintln(os.Stderr, "Warning: Output File is not of type '.j'.")
	}
	if info, statErr := os.Stat(out); statErr == nil {
		if info.IsDir() {
			fmt.Fprintf(os.Stderr, "output path is a directory: %s\n", out)
			return driver.ExitArgumentError
		}
		fmt.Fprintf(os.Stderr, "Warning: Specified output file already exists: %s\n", out)
	}

	start := time.Now()
	outcome := driver.Run(driver.Options{
		InputFile:  inputFile,
		OutputFile: out,
		Liveness:   wantsLiveness,
		Debug:      *debug,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	})
	if *debug {
		printDebugBanner(time.Since(start), outcome)
	}
	return outcome.Code
}

// printDebugBanner prints a one-shot summary to stderr after the
// pipeline has finished: how long compilation took, when it ran, and
// a pretty-printed dump of the symbol table and (if requested) the
// liveness graphs.
func printDebugBanner(elapsed time.Duration, outcome driver.Outcome) {
	stamp := strftime.Format("%Y-%m-%d %H:%M:%S", time.Now())
	fmt.Fprintf(os.Stderr, "\n--- debug: compiled in %s at %s ---\n",
		humanize.RelTime(time.Now().Add(-elapsed), time.Now(), "", ""), stamp)
	if outcome.Table != nil {
		fmt.Fprintf(os.Stderr, "%s\n", pretty.Sprint(outcome.Table))
	}
	if len(outcome.Liveness) > 0 {
		indented := text.Indent(driver.FormatLiveness(outcome.Liveness), "  ")
		fmt.Fprintf(os.Stderr, "%s\n", indented)
	}
}
