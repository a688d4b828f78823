package symtab

import (
	"jlc/internal/ast"
	"jlc/internal/errors"
)

// mainLocalPlaceholder is the slot main reserves for the implicit
// `String[] args` the JVM passes every entry point, even though the
// source language never names it (SPEC_FULL.md §4.1).
const mainLocalPlaceholder = 1

// Build walks a parsed program and produces its symbol table,
// recording one PhaseName diagnostic per duplicate function,
// duplicate parameter, duplicate local, or reference to an
// undeclared name. Grounded in the original implementation's
// SymbolTableGenListener: one pass registers every function header
// and its parameters, a second pass registers each function's
// declaration prologue and then walks its body checking every name
// reference resolves.
func Build(prog *ast.Program, diags *errors.Collector) *Table {
	table := New()

	registerHeader := func(fn *ast.Function) {
		name := fn.Name
		if fn.IsMain {
			name = "main"
		}
		fs, ok := table.AddFunction(name, fn.ReturnType)
		if !ok {
			diags.Errorf(fn.Pos.Line, fn.Pos.Column, "duplicate function name: '%s'", name)
			return
		}
		if fn.IsMain {
			fs.ReserveSlot() // mainLocalPlaceholder
		}
		for _, param := range fn.Params {
			if !fs.AddParameter(param.Name, param.Type) {
				diags.Errorf(param.Pos.Line, param.Pos.Column,
					"duplicate variable name: '%s' in scope '%s'", param.Name, name)
			}
		}
	}

	if prog.Main != nil {
		registerHeader(prog.Main)
	}
	for _, fn := range prog.Functions {
		registerHeader(fn)
	}

	resolveBody := func(fn *ast.Function) {
		name := fn.Name
		if fn.IsMain {
			name = "main"
		}
		fs, ok := table.Function(name)
		if !ok {
			return // duplicate header already reported
		}
		for _, decl := range fn.Decls {
			checkExpr(decl.Expr, fs, table, diags)
			if !fs.AddLocal(decl.Name, decl.Type) {
				diags.Errorf(decl.At.Line, decl.At.Column, "duplicate variable name: '%s'", decl.Name)
			}
		}
		for _, instr := range fn.Body {
			checkInstr(instr, fs, table, diags)
		}
	}

	if prog.Main != nil {
		resolveBody(prog.Main)
	}
	for _, fn := range prog.Functions {
		resolveBody(fn)
	}

	return table
}

func checkInstr(instr ast.Instruction, fs *FunctionSymbol, table *Table, diags *errors.Collector) {
	switch n := instr.(type) {
	case *ast.Declaration:
		checkExpr(n.Expr, fs, table, diags)
	case *ast.Assignment:
		checkExpr(n.Expr, fs, table, diags)
		if _, ok := fs.Lookup(n.Name); !ok {
			diags.Errorf(n.At.Line, n.At.Column, "undeclared variable: '%s'", n.Name)
		}
	case *ast.Block:
		for _, i := range n.Instrs {
			checkInstr(i, fs, table, diags)
		}
	case *ast.IfStmt:
		checkExpr(n.Cond, fs, table, diags)
		for _, i := range n.Then {
			checkInstr(i, fs, table, diags)
		}
		for _, i := range n.Else {
			checkInstr(i, fs, table, diags)
		}
	case *ast.WhileStmt:
		checkExpr(n.Cond, fs, table, diags)
		for _, i := range n.Body {
			checkInstr(i, fs, table, diags)
		}
	case *ast.PrintStmt:
		if n.Expr != nil {
			checkExpr(n.Expr, fs, table, diags)
		}
	case *ast.CallStmt:
		checkExpr(n.Call, fs, table, diags)
	case *ast.ReturnStmt:
		if n.Expr != nil {
			checkExpr(n.Expr, fs, table, diags)
		}
	}
}

func checkExpr(expr ast.Expr, fs *FunctionSymbol, table *Table, diags *errors.Collector) {
	switch n := expr.(type) {
	case *ast.UnaryExpr:
		checkExpr(n.Operand, fs, table, diags)
	case *ast.BinaryExpr:
		checkExpr(n.Left, fs, table, diags)
		checkExpr(n.Right, fs, table, diags)
	case *ast.ParenExpr:
		checkExpr(n.Inner, fs, table, diags)
	case *ast.CallExpr:
		if _, ok := table.Function(n.Name); !ok {
			diags.Errorf(n.At.Line, n.At.Column, "call to undeclared function: '%s'", n.Name)
		}
		for _, arg := range n.Args {
			checkExpr(arg, fs, table, diags)
		}
	case *ast.IdentExpr:
		if _, ok := fs.Lookup(n.Name); !ok {
			diags.Errorf(n.At.Line, n.At.Column, "undeclared variable: '%s'", n.Name)
		}
	}
}
