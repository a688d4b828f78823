// Package types implements the type checker: a post-order AST walk
// that pushes and pops an explicit type stack, mirroring the
// original implementation's TypeChecker/TypeStack pair
// (type_checker.py) but restructured as a Go visitor over
// internal/ast instead of an ANTLR listener, with widening and
// argument-matching rules per SPEC_FULL.md §4.2.
package types

import (
	"jlc/internal/ast"
	"jlc/internal/errors"
	"jlc/internal/symtab"
)

// stack is the type checker's explicit operand-type stack. Popping
// past empty indicates a violated invariant in an already-accepted
// program (the AST walk pushes exactly what it pops elsewhere) and is
// reported as an InternalError rather than a user diagnostic.
type stack struct {
	types []ast.Type
}

func (s *stack) push(t ast.Type) { s.types = append(s.types, t) }

func (s *stack) pop() ast.Type {
	if len(s.types) == 0 {
		panic(errors.NewInternalError("type stack underflow"))
	}
	t := s.types[len(s.types)-1]
	s.types = s.types[:len(s.types)-1]
	return t
}

// Checker type-checks a program against its symbol table, recording
// PhaseType diagnostics.
type Checker struct {
	table   *symtab.Table
	diags   *errors.Collector
	stack   stack
	current *symtab.FunctionSymbol
}

// Check runs the type checker over every function in prog. A
// corrupted type stack panics with *errors.InternalError; Check does
// not recover it, leaving that to the driver's top-level recover
// (SPEC_FULL.md §7), which prints it consistently with every other
// internal error.
func Check(prog *ast.Program, table *symtab.Table, diags *errors.Collector) {
	c := &Checker{table: table, diags: diags}
	if prog.Main != nil {
		c.checkFunction(prog.Main, "main")
	}
	for _, fn := range prog.Functions {
		c.checkFunction(fn, fn.Name)
	}
}

func (c *Checker) checkFunction(fn *ast.Function, scopeName string) {
	fs, ok := c.table.Function(scopeName)
	if !ok {
		return // name-resolution already reported this function
	}
	c.current = fs
	for _, decl := range fn.Decls {
		c.checkDeclaration(decl)
	}
	for _, instr := range fn.Body {
		c.checkInstr(instr)
	}
	if fs.ReturnType != nil && !fs.HasReturn {
		c.diags.Errorf(fn.Pos.Line, fn.Pos.Column,
			"missing return statement in function: '%s', expected: '%s'", fs.Name, *fs.ReturnType)
	}
}

func (c *Checker) checkDeclaration(decl *ast.Declaration) {
	c.checkExpr(decl.Expr)
	assigned := c.stack.pop()
	if !assignable(decl.Type, assigned) {
		c.diags.Errorf(decl.At.Line, decl.At.Column,
			"wrong value type for variable: '%s', expected: '%s', got: '%s'", decl.Name, decl.Type, assigned)
	}
}

func (c *Checker) checkInstr(instr ast.Instruction) {
	switch n := instr.(type) {
	case *ast.Declaration:
		c.checkDeclaration(n)
	case *ast.Assignment:
		c.checkExpr(n.Expr)
		assigned := c.stack.pop()
		local, ok := c.current.Lookup(n.Name)
		if !ok {
			c.diags.Errorf(n.At.Line, n.At.Column, "used variable without declaration: '%s'", n.Name)
			return
		}
		if !assignable(local.Type, assigned) {
			c.diags.Errorf(n.At.Line, n.At.Column,
				"wrong value type for variable: '%s', expected: '%s', got: '%s'", n.Name, local.Type, assigned)
		}
	case *ast.Block:
		for _, i := range n.Instrs {
			c.checkInstr(i)
		}
	case *ast.IfStmt:
		c.checkExpr(n.Cond)
		if cond := c.stack.pop(); cond != ast.Bool {
			c.diags.Errorf(n.At.Line, n.At.Column, "expression must evaluate to bool type.")
		}
		for _, i := range n.Then {
			c.checkInstr(i)
		}
		for _, i := range n.Else {
			c.checkInstr(i)
		}
	case *ast.WhileStmt:
		c.checkExpr(n.Cond)
		if cond := c.stack.pop(); cond != ast.Bool {
			c.diags.Errorf(n.At.Line, n.At.Column, "expression must evaluate to bool type.")
		}
		for _, i := range n.Body {
			c.checkInstr(i)
		}
	case *ast.PrintStmt:
		if n.Expr != nil {
			c.checkExpr(n.Expr)
			c.stack.pop()
		}
	case *ast.CallStmt:
		c.checkExpr(n.Call)
		c.stack.pop() // discard the call's value, if any
	case *ast.ReturnStmt:
		c.current.HasReturn = true
		var returned ast.Type
		hasReturned := false
		if n.Expr != nil {
			c.checkExpr(n.Expr)
			returned = c.stack.pop()
			hasReturned = true
		}
		expectVoid := c.current.ReturnType == nil
		switch {
		case expectVoid && hasReturned:
			c.diags.Errorf(n.At.Line, n.At.Column,
				"invalid return type of function: '%s', expected: 'Void', got: '%s'", c.current.Name, returned)
		case !expectVoid && !hasReturned:
			c.diags.Errorf(n.At.Line, n.At.Column,
				"invalid return type of function: '%s', expected: '%s', got: 'Void'", c.current.Name, *c.current.ReturnType)
		case !expectVoid && hasReturned && !assignable(*c.current.ReturnType, returned):
			c.diags.Errorf(n.At.Line, n.At.Column,
				"invalid return type of function: '%s', expected: '%s', got: '%s'", c.current.Name, *c.current.ReturnType, returned)
		}
	}
}

func (c *Checker) checkExpr(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.IntLit:
		c.stack.push(ast.Integer)
	case *ast.FloatLit:
		c.stack.push(ast.Float64)
	case *ast.BoolLit:
		c.stack.push(ast.Bool)
	case *ast.StringLit:
		c.stack.push(ast.String)
	case *ast.IdentExpr:
		local, ok := c.current.Lookup(n.Name)
		if !ok {
			c.diags.Errorf(n.At.Line, n.At.Column, "used variable without declaration: '%s'", n.Name)
			c.stack.push(ast.Integer) // keep the stack balanced past an already-reported error
			return
		}
		c.stack.push(local.Type)
	case *ast.ParenExpr:
		c.checkExpr(n.Inner)
	case *ast.UnaryExpr:
		c.checkExpr(n.Operand)
		operand := c.stack.pop()
		switch n.Op {
		case ast.OpPos, ast.OpNeg:
			if operand == ast.Integer || operand == ast.Float64 {
				c.stack.push(operand)
			} else {
				c.diags.Errorf(n.At.Line, n.At.Column, "unsupported operand type(s) for %s: '%s'.", n.Op, operand)
				c.stack.push(operand)
			}
		case ast.OpNot:
			if operand == ast.Bool {
				c.stack.push(ast.Bool)
			} else {
				c.diags.Errorf(n.At.Line, n.At.Column, "unsupported operand type(s) for %s: '%s'.", n.Op, operand)
				c.stack.push(ast.Bool)
			}
		}
	case *ast.BinaryExpr:
		c.checkExpr(n.Left)
		c.checkExpr(n.Right)
		right := c.stack.pop()
		left := c.stack.pop()
		c.stack.push(c.checkBinary(n, left, right))
	case *ast.CallExpr:
		fs, ok := c.table.Function(n.Name)
		if !ok {
			c.diags.Errorf(n.At.Line, n.At.Column, "unknown function called: '%s'", n.Name)
			c.evalArgsDiscard(n.Args)
			c.stack.push(ast.Integer)
			return
		}
		argTypes := make([]ast.Type, len(n.Args))
		for i, arg := range n.Args {
			c.checkExpr(arg)
			argTypes[i] = c.stack.pop()
		}
		switch {
		case len(argTypes) > len(fs.ParamTypes):
			c.diags.Errorf(n.At.Line, n.At.Column, "too many arguments provided at function call: '%s'", n.Name)
		case len(argTypes) < len(fs.ParamTypes):
			c.diags.Errorf(n.At.Line, n.At.Column, "too few arguments provided at function call: '%s'", n.Name)
		default:
			for i, want := range fs.ParamTypes {
				if argTypes[i] != want {
					c.diags.Errorf(n.Args[i].Position().Line, n.Args[i].Position().Column,
						"wrong argument type: '%s', expected: '%s'", argTypes[i], want)
				}
			}
		}
		if fs.ReturnType != nil {
			c.stack.push(*fs.ReturnType)
		} else {
			// Void used as a value: pushing 'Void' makes any declaration,
			// assignment, argument, operator, condition or return that
			// consumes it report a type error.
			c.stack.push(ast.Type("Void"))
		}
	}
}

func (c *Checker) evalArgsDiscard(args []ast.Expr) {
	for _, arg := range args {
		c.checkExpr(arg)
		c.stack.pop()
	}
}

func (c *Checker) checkBinary(n *ast.BinaryExpr, left, right ast.Type) ast.Type {
	isNumeric := func(t ast.Type) bool { return t == ast.Integer || t == ast.Float64 }
	switch n.Op {
	case ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpAdd, ast.OpSub:
		switch {
		case left == ast.Integer && right == ast.Integer:
			return ast.Integer
		case isNumeric(left) && isNumeric(right):
			return ast.Float64
		default:
			c.diags.Errorf(n.At.Line, n.At.Column,
				"unsupported operand type(s) for %s: '%s' and '%s'.", n.Op, left, right)
			return ast.Integer
		}
	case ast.OpEq, ast.OpNeq:
		if (isNumeric(left) && isNumeric(right)) || (left == ast.String && right == ast.String) || (left == ast.Bool && right == ast.Bool) {
			return ast.Bool
		}
		c.diags.Errorf(n.At.Line, n.At.Column,
			"unsupported operand type(s) for %s: '%s' and '%s'.", n.Op, left, right)
		return ast.Bool
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		if isNumeric(left) && isNumeric(right) {
			return ast.Bool
		}
		c.diags.Errorf(n.At.Line, n.At.Column,
			"unsupported operand type(s) for %s: '%s' and '%s'.", n.Op, left, right)
		return ast.Bool
	case ast.OpAnd, ast.OpOr:
		if left == ast.Bool && right == ast.Bool {
			return ast.Bool
		}
		c.diags.Errorf(n.At.Line, n.At.Column,
			"unsupported operand type(s) for %s: '%s' and '%s'.", n.Op, left, right)
		return ast.Bool
	default:
		panic(errors.NewInternalError("unhandled binary operator %q", n.Op))
	}
}

// assignable reports whether a value of type from may be stored into
// a location of type to: equal types always, or Integer widened to
// Float64 (SPEC_FULL.md §4.2 — declarations, assignments, and returns
// all share this rule; call arguments do not, see checkExpr).
func assignable(to, from ast.Type) bool {
	return to == from || (to == ast.Float64 && from == ast.Integer)
}
