package liveness

import (
	"testing"

	"jlc/internal/errors"
	"jlc/internal/lexer"
	"jlc/internal/parser"
	"jlc/internal/symtab"
)

func analyze(t *testing.T, src string) []*Result {
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
	table := symtab.Build(prog, diags)
	if diags.HasErrors() {
		t.Fatalf("unexpected name errors: %v", diags.Diagnostics)
	}
	return Analyze(prog, table)
}

func findResult(t *testing.T, results []*Result, name string) *Result {
	t.Helper()
	for _, r := range results {
		if r.FunctionName == name {
			return r
		}
	}
	t.Fatalf("no liveness result for function %q", name)
	return nil
}

func TestIndependentVariablesDoNotInterfere(t *testing.T) {
	results := analyze(t, `
function main()
	x :: Integer = 1
	y :: Integer = 0
	println(x)
	y = 2
	println(y)
end
`)
	main := findResult(t, results, "main")
	for _, n := range main.RIG.Neighbors("x") {
		if n == "y" {
			t.Fatal("x and y are never simultaneously live and should not interfere")
		}
	}
}

func TestOverlappingLifetimesInterfere(t *testing.T) {
	results := analyze(t, `
function main()
	x :: Integer = 1
	y :: Integer = 2
	z :: Integer = x + y
	println(z)
end
`)
	main := findResult(t, results, "main")
	found := false
	for _, n := range main.RIG.Neighbors("x") {
		if n == "y" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected x and y to interfere: both live entering 'x + y'")
	}
}

func TestChromaticNumberAtLeastOneWithLocals(t *testing.T) {
	results := analyze(t, `
function main()
	x :: Integer = 1
	println(x)
end
`)
	main := findResult(t, results, "main")
	if main.RIG.MinRegisters < 1 {
		t.Fatalf("expected at least 1 register, got %d", main.RIG.MinRegisters)
	}
}

func TestWhileLoopBackEdgeKeepsVariableLive(t *testing.T) {
	results := analyze(t, `
function main()
	x :: Integer = 0
	while x < 10
		x = x + 1
	end
	println(x)
end
`)
	main := findResult(t, results, "main")
	if main.RIG.MinRegisters < 1 {
		t.Fatalf("expected a register for the loop counter, got %d", main.RIG.MinRegisters)
	}
}

func TestIfMergeOnlyFromFallthroughBranches(t *testing.T) {
	results := analyze(t, `
function main()
	x :: Integer = 1
	if x > 0
		return
	else
		x = 2
	end
	println(x)
end
`)
	main := findResult(t, results, "main")
	if main.RIG == nil {
		t.Fatal("expected a RIG even when one branch returns")
	}
}
