package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runFixture(t *testing.T, src string, liveness bool) (Outcome, string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jl")
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	ext := ".j"
	if liveness {
		ext = ".txt"
	}
	out := filepath.Join(dir, "out"+ext)
	var stdout, stderr bytes.Buffer
	outcome := Run(Options{
		InputFile:  in,
		OutputFile: out,
		Liveness:   liveness,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	emitted := ""
	if data, err := os.ReadFile(out); err == nil {
		emitted = string(data)
	}
	if outcome.Code == ExitOK && emitted == "" {
		t.Fatalf("expected output to be written, stderr: %s", stderr.String())
	}
	return outcome, stdout.String(), stderr.String()
}

func TestRunCompileSuccess(t *testing.T) {
	outcome, stdout, _ := runFixture(t, `
function main()
	println(1)
end
`, false)
	if outcome.Code != ExitOK {
		t.Fatalf("expected exit 0, got %d", outcome.Code)
	}
	if !strings.Contains(stdout, "Status: typechecking successful.") {
		t.Fatalf("expected status lines in stdout, got:\n%s", stdout)
	}
}

func TestRunSyntaxError(t *testing.T) {
	outcome, _, stderr := runFixture(t, `function main() println(1 end`, false)
	if outcome.Code != ExitSyntaxError {
		t.Fatalf("expected exit %d, got %d (stderr: %s)", ExitSyntaxError, outcome.Code, stderr)
	}
}

func TestRunTypeError(t *testing.T) {
	outcome, _, stderr := runFixture(t, `
function main()
	s :: String = 1
end
`, false)
	if outcome.Code != ExitTypeError {
		t.Fatalf("expected exit %d, got %d", ExitTypeError, outcome.Code)
	}
	if !strings.Contains(stderr, "wrong value type for variable") {
		t.Fatalf("expected type diagnostic, got:\n%s", stderr)
	}
}

func TestRunLivenessMode(t *testing.T) {
	outcome, _, _ := runFixture(t, `
function main()
	a :: Integer = 1
	b :: Integer = 2
	println(a + b)
end
`, true)
	if outcome.Code != ExitOK {
		t.Fatalf("expected exit 0, got %d", outcome.Code)
	}
	if len(outcome.Liveness) == 0 {
		t.Fatal("expected liveness results to be populated")
	}
}
