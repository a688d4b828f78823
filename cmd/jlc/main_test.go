package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"jlc": func() int { return run(os.Args[1:]) },
	}))
}

// TestScripts drives the end-to-end scenarios (S1-S6) as testscript
// archives: each exercises the jlc binary against a .jl fixture and
// asserts on exit code, stdout Status lines, and emitted output.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
