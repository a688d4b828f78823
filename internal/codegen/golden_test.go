package codegen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"jlc/internal/errors"
	"jlc/internal/lexer"
	"jlc/internal/parser"
	"jlc/internal/symtab"
	"jlc/internal/types"
)

// goldenCompile runs the full front end over src and returns the
// Jasmin text, failing the test on any diagnostic.
func goldenCompile(t *testing.T, src string) string {
	t.Helper()
	sc := lexer.NewScanner(src)
	tokens := sc.ScanTokens()
	if len(sc.Errors()) > 0 {
		t.Fatalf("unexpected lex errors: %v", sc.Errors())
	}
	p := parser.New(tokens)
	prog := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors)
	}
	nameDiags := errors.NewCollector(errors.PhaseName)
	table := symtab.Build(prog, nameDiags)
	if nameDiags.HasErrors() {
		t.Fatalf("unexpected name errors: %v", nameDiags.Diagnostics)
	}
	typeDiags := errors.NewCollector(errors.PhaseType)
	types.Check(prog, table, typeDiags)
	if typeDiags.HasErrors() {
		t.Fatalf("unexpected type errors: %v", typeDiags.Diagnostics)
	}
	gen := New(table, "Golden", false)
	return gen.Generate(prog)
}

// TestGoldenFixtures walks every testdata/*.txtar archive: each holds
// an `in.jl` source file and a `want.opcodes` list of bare mnemonics
// that must appear, in order (not necessarily contiguously), in the
// emitted assembly.
func TestGoldenFixtures(t *testing.T) {
	matches, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatal("no golden fixtures found")
	}
	for _, path := range matches {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			archive := txtar.Parse(data)
			var src, want string
			for _, f := range archive.Files {
				switch f.Name {
				case "in.jl":
					src = string(f.Data)
				case "want.opcodes":
					want = string(f.Data)
				}
			}
			if src == "" || want == "" {
				t.Fatalf("%s: missing in.jl or want.opcodes section", path)
			}
			out := goldenCompile(t, src)
			searchFrom := 0
			for _, op := range strings.Fields(want) {
				idx := strings.Index(out[searchFrom:], op)
				if idx < 0 {
					t.Fatalf("%s: expected opcode %q not found (in order) in:\n%s", path, op, out)
				}
				searchFrom += idx + len(op)
			}
		})
	}
}
