package symtab

import (
	"testing"

	"jlc/internal/errors"
	"jlc/internal/lexer"
	"jlc/internal/parser"
)

func buildFrom(t *testing.T, src string) (*Table, *errors.Collector) {
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
	diags := errors.NewCollector(errors.PhaseName)
	table := Build(prog, diags)
	return table, diags
}

func TestBuildRegistersFunctionsAndParams(t *testing.T) {
	table, diags := buildFrom(t, `
function add(a::Integer, b::Integer)::Integer
	return a + b
end

function main()
	x :: Integer = add(1, 2)
end
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics)
	}
	fs, ok := table.Function("add")
	if !ok {
		t.Fatal("expected function 'add' in table")
	}
	if len(fs.ParamTypes) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fs.ParamTypes))
	}
	if _, ok := fs.Lookup("a"); !ok {
		t.Fatal("expected 'a' to resolve as a local")
	}
	main, ok := table.Function("main")
	if !ok {
		t.Fatal("expected 'main' in table")
	}
	if _, ok := main.Lookup("x"); !ok {
		t.Fatal("expected 'x' to resolve in main")
	}
}

func TestBuildRejectsDuplicateParameter(t *testing.T) {
	_, diags := buildFrom(t, `
function f(a::Integer, a::Integer)
end

function main()
end
`)
	if !diags.HasErrors() {
		t.Fatal("expected a duplicate-parameter diagnostic")
	}
}

func TestBuildRejectsDuplicateFunction(t *testing.T) {
	_, diags := buildFrom(t, `
function f()
end

function f()
end

function main()
end
`)
	if !diags.HasErrors() {
		t.Fatal("expected a duplicate-function diagnostic")
	}
}

func TestBuildRejectsUndeclaredVariable(t *testing.T) {
	_, diags := buildFrom(t, `
function main()
	println(x)
end
`)
	if !diags.HasErrors() {
		t.Fatal("expected an undeclared-variable diagnostic")
	}
}

func TestBuildRejectsCallToUndeclaredFunction(t *testing.T) {
	_, diags := buildFrom(t, `
function main()
	x :: Integer = mystery()
end
`)
	if !diags.HasErrors() {
		t.Fatal("expected an undeclared-function diagnostic")
	}
}

func TestMainReservesPlaceholderSlot(t *testing.T) {
	table, diags := buildFrom(t, `
function main()
	x :: Integer = 1
end
`)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Diagnostics)
	}
	main, _ := table.Function("main")
	local, ok := main.Lookup("x")
	if !ok {
		t.Fatal("expected 'x' to resolve")
	}
	if local.Index != 1 {
		t.Fatalf("expected x at slot 1 (after main's placeholder), got %d", local.Index)
	}
}
