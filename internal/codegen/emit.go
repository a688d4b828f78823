// Package codegen lowers a type-checked program to textual JVM
// assembly (Jasmin syntax), grounded in the original implementation's
// code_generator.py: a single pass that both emits instructions and
// recomputes each expression's type on the way up, since Jasmin
// selection (ldc vs ldc2_w, iadd vs dadd, ...) depends on it.
package codegen

import (
	"fmt"
	"strings"

	"jlc/internal/ast"
	"jlc/internal/errors"
	"jlc/internal/symtab"
)

// Generator emits one Jasmin source file for a whole program.
type Generator struct {
	table     *symtab.Table
	className string
	debug     bool

	code    strings.Builder
	stack   stackSize
	labelID int

	current *symtab.FunctionSymbol
}

func New(table *symtab.Table, className string, debug bool) *Generator {
	return &Generator{table: table, className: className, debug: debug}
}

// Generate lowers prog and returns the complete .j source text.
func (g *Generator) Generate(prog *ast.Program) string {
	g.code.WriteString(".bytecode 50.0\n")
	fmt.Fprintf(&g.code, ".class public %s\n", g.className)
	g.code.WriteString(".super java/lang/Object\n\n")
	g.code.WriteString(".method public <init>()V\n")
	g.code.WriteString("\taload_0\n")
	g.code.WriteString("\tinvokenonvirtual java/lang/Object/<init>()V\n")
	g.code.WriteString("\treturn\n")
	g.code.WriteString(".end method\n\n")

	for _, fn := range prog.Functions {
		g.emitFunction(fn, fn.Name)
	}
	if prog.Main != nil {
		g.emitFunction(prog.Main, "main")
	}
	return g.code.String()
}

func (g *Generator) nextLabel() string {
	id := g.labelID
	g.labelID++
	return fmt.Sprintf("%d", id)
}

func (g *Generator) emitFunction(fn *ast.Function, scopeName string) {
	fs, ok := g.table.Function(scopeName)
	if !ok {
		panic(errors.NewInternalError("codegen: function %q missing from symbol table", scopeName))
	}
	g.current = fs
	g.stack.reset()

	if fn.IsMain {
		g.code.WriteString(".method public static main([Ljava/lang/String;)V\n")
	} else {
		fmt.Fprintf(&g.code, ".method public static %s(", fn.Name)
		for _, p := range fn.Params {
			g.code.WriteString(descriptor(p.Type))
		}
		g.code.WriteString(")")
		g.code.WriteString(returnDescriptor(fn.ReturnType))
		g.code.WriteString("\n")
	}
	fmt.Fprintf(&g.code, "\t.limit locals %d\n", fs.SlotCount())
	g.code.WriteString("\t.limit stack -\n\n")

	hasReturn := false
	for _, instr := range fn.Body {
		g.emitInstr(instr)
		if _, ok := instr.(*ast.ReturnStmt); ok {
			hasReturn = true
		}
	}
	if !hasReturn {
		g.code.WriteString("\treturn\n")
	}

	out := g.code.String()
	idx := strings.LastIndex(out, ".limit stack -")
	g.code.Reset()
	g.code.WriteString(out[:idx])
	fmt.Fprintf(&g.code, ".limit stack %d", g.stack.max)
	g.code.WriteString(out[idx+len(".limit stack -"):])
	g.code.WriteString(".end method\n\n")
}

func descriptor(t ast.Type) string {
	switch t {
	case ast.Integer, ast.Bool:
		return "I"
	case ast.Float64:
		return "D"
	case ast.String:
		return "Ljava/lang/String;"
	default:
		panic(errors.NewInternalError("codegen: unhandled type %q in descriptor", t))
	}
}

func returnDescriptor(t *ast.Type) string {
	if t == nil {
		return "V"
	}
	return descriptor(*t)
}

func (g *Generator) debugInfo(pos ast.Pos, label string) {
	if !g.debug {
		return
	}
	fmt.Fprintf(&g.code, "\t; DEBUG: %d:%d; %s\n", pos.Line, pos.Column, label)
}

func (g *Generator) local(name string) *symtab.Local {
	l, ok := g.current.Lookup(name)
	if !ok {
		panic(errors.NewInternalError("codegen: reference to undeclared local %q", name))
	}
	return l
}

func (g *Generator) emitInstr(instr ast.Instruction) {
	switch n := instr.(type) {
	case *ast.Declaration:
		g.debugInfo(n.At, "declaration")
		et := g.emitExpr(n.Expr)
		g.emitStore(n.Name, n.Type, et)
	case *ast.Assignment:
		g.debugInfo(n.At, "assignement")
		et := g.emitExpr(n.Expr)
		local := g.local(n.Name)
		g.emitStore(n.Name, local.Type, et)
	case *ast.Block:
		for _, i := range n.Instrs {
			g.emitInstr(i)
		}
	case *ast.IfStmt:
		g.emitIf(n)
	case *ast.WhileStmt:
		g.emitWhile(n)
	case *ast.PrintStmt:
		g.emitPrint(n)
	case *ast.CallStmt:
		rt := g.emitCall(n.Call)
		if rt != nil {
			g.code.WriteString("\tpop")
			if *rt == ast.Float64 {
				g.code.WriteString("2")
			}
			g.code.WriteString("\n")
			g.stack.pop(slots(*rt))
		}
	case *ast.ReturnStmt:
		g.debugInfo(n.At, "return")
		var et ast.Type
		if n.Expr != nil {
			et = g.emitExpr(n.Expr)
			if g.current.ReturnType != nil && *g.current.ReturnType == ast.Float64 && et == ast.Integer {
				g.code.WriteString("\ti2d\n")
				g.stack.push(1)
				et = ast.Float64
			}
		}
		switch {
		case g.current.ReturnType == nil:
			g.code.WriteString("\treturn\n")
		case *g.current.ReturnType == ast.Float64:
			g.code.WriteString("\tdreturn\n")
			g.stack.pop(2)
		case *g.current.ReturnType == ast.String:
			g.code.WriteString("\tareturn\n")
			g.stack.pop(1)
		default:
			g.code.WriteString("\tireturn\n")
			g.stack.pop(1)
		}
	}
}

func (g *Generator) emitStore(name string, declared, exprType ast.Type) {
	local := g.local(name)
	switch declared {
	case ast.Integer, ast.Bool:
		fmt.Fprintf(&g.code, "\tistore %d\n\n", local.Index)
		g.stack.pop(1)
	case ast.Float64:
		if exprType == ast.Integer {
			g.code.WriteString("\ti2d\n")
			g.stack.push(1)
		}
		fmt.Fprintf(&g.code, "\tdstore %d\n\n", local.Index)
		g.stack.pop(2)
	case ast.String:
		fmt.Fprintf(&g.code, "\tastore %d\n\n", local.Index)
		g.stack.pop(1)
	}
}

func (g *Generator) emitPrint(n *ast.PrintStmt) {
	g.debugInfo(n.At, "println")
	g.code.WriteString("\tgetstatic java/lang/System/out Ljava/io/PrintStream;\n")
	g.stack.push(1)
	var argType ast.Type
	hasArg := n.Expr != nil
	if hasArg {
		argType = g.emitExpr(n.Expr)
		if argType == ast.Bool {
			lbl := g.nextLabel()
			fmt.Fprintf(&g.code, "\tifne label_%s_if\n", lbl)
			g.code.WriteString("\tldc \"false\"\n")
			fmt.Fprintf(&g.code, "\tgoto label_%s_end\nlabel_%s_if:\n", lbl, lbl)
			g.code.WriteString("\tldc \"true\"\n")
			fmt.Fprintf(&g.code, "label_%s_end:\n\n", lbl)
		}
	}
	g.code.WriteString("\tinvokevirtual java/io/PrintStream/println(")
	switch {
	case !hasArg:
		// no argument
	case argType == ast.Integer:
		g.code.WriteString("I")
		g.stack.pop(1)
	case argType == ast.Float64:
		g.code.WriteString("D")
		g.stack.pop(2)
	case argType == ast.Bool || argType == ast.String:
		g.code.WriteString("Ljava/lang/String;")
		g.stack.pop(1)
	}
	g.code.WriteString(")V\n\n")
	g.stack.pop(1)
}

func (g *Generator) emitIf(n *ast.IfStmt) {
	g.emitExpr(n.Cond)
	lbl := g.nextLabel()
	fmt.Fprintf(&g.code, "\tifne label_%s_if\n", lbl)
	g.stack.pop(1)
	for _, instr := range n.Else {
		g.emitInstr(instr)
	}
	fmt.Fprintf(&g.code, "\tgoto label_%s_end\nlabel_%s_if:\n", lbl, lbl)
	for _, instr := range n.Then {
		g.emitInstr(instr)
	}
	fmt.Fprintf(&g.code, "label_%s_end:\n\n", lbl)
}

func (g *Generator) emitWhile(n *ast.WhileStmt) {
	lbl := g.nextLabel()
	fmt.Fprintf(&g.code, "label_%s_while:\n", lbl)
	g.emitExpr(n.Cond)
	fmt.Fprintf(&g.code, "\tifeq label_%s_end\n", lbl)
	g.stack.pop(1)
	for _, instr := range n.Body {
		g.emitInstr(instr)
	}
	fmt.Fprintf(&g.code, "\tgoto label_%s_while\n", lbl)
	fmt.Fprintf(&g.code, "label_%s_end:\n", lbl)
}

// emitCall emits a static invocation and reports the callee's return
// type (nil for Void).
func (g *Generator) emitCall(call *ast.CallExpr) *ast.Type {
	g.debugInfo(call.At, "function_call")
	fs, ok := g.table.Function(call.Name)
	if !ok {
		panic(errors.NewInternalError("codegen: call to undeclared function %q", call.Name))
	}
	for _, arg := range call.Args {
		g.emitExpr(arg)
	}
	if call.Name == "main" {
		// main is always emitted as main([Ljava/lang/String;)V
		// (emitFunction), never the ()V a zero-parameter declaration
		// would otherwise produce, so a call to it needs a synthesized
		// String[] argument first, per the original code generator's
		// K_MAIN() branch.
		g.code.WriteString("\ticonst_0\n")
		g.stack.push(1)
		g.code.WriteString("\tanewarray java/lang/String\n")
		fmt.Fprintf(&g.code, "\tinvokestatic %s/main([Ljava/lang/String;)V\n\n", g.className)
		g.stack.pop(1)
		return nil
	}
	fmt.Fprintf(&g.code, "\tinvokestatic %s/%s(", g.className, call.Name)
	for _, pt := range fs.ParamTypes {
		g.code.WriteString(descriptor(pt))
		g.stack.pop(slots(pt))
	}
	g.code.WriteString(")")
	g.code.WriteString(returnDescriptor(fs.ReturnType))
	g.code.WriteString("\n\n")
	if fs.ReturnType != nil {
		g.stack.push(slots(*fs.ReturnType))
	}
	return fs.ReturnType
}

// emitExpr emits code for expr and returns its runtime type, needed
// by the caller to pick the right store/arithmetic/print opcode.
func (g *Generator) emitExpr(expr ast.Expr) ast.Type {
	switch n := expr.(type) {
	case *ast.IntLit:
		fmt.Fprintf(&g.code, "\tldc %d\n", n.Value)
		g.stack.push(1)
		return ast.Integer
	case *ast.FloatLit:
		fmt.Fprintf(&g.code, "\tldc2_w %v\n", n.Value)
		g.stack.push(2)
		return ast.Float64
	case *ast.BoolLit:
		if n.Value {
			g.code.WriteString("\ticonst_1\n")
		} else {
			g.code.WriteString("\ticonst_0\n")
		}
		g.stack.push(1)
		return ast.Bool
	case *ast.StringLit:
		fmt.Fprintf(&g.code, "\tldc %q\n", n.Value)
		g.stack.push(1)
		return ast.String
	case *ast.IdentExpr:
		local := g.local(n.Name)
		switch local.Type {
		case ast.Integer, ast.Bool:
			fmt.Fprintf(&g.code, "\tiload %d\n", local.Index)
			g.stack.push(1)
		case ast.Float64:
			fmt.Fprintf(&g.code, "\tdload %d\n", local.Index)
			g.stack.push(2)
		case ast.String:
			fmt.Fprintf(&g.code, "\taload %d\n", local.Index)
			g.stack.push(1)
		}
		return local.Type
	case *ast.ParenExpr:
		return g.emitExpr(n.Inner)
	case *ast.CallExpr:
		rt := g.emitCall(n)
		if rt == nil {
			panic(errors.NewInternalError("codegen: Void call %q used as a value", n.Name))
		}
		return *rt
	case *ast.UnaryExpr:
		return g.emitUnary(n)
	case *ast.BinaryExpr:
		return g.emitBinary(n)
	default:
		panic(errors.NewInternalError("codegen: unhandled expression node %T", expr))
	}
}

func (g *Generator) emitUnary(n *ast.UnaryExpr) ast.Type {
	et := g.emitExpr(n.Operand)
	switch n.Op {
	case ast.OpPos:
		return et
	case ast.OpNeg:
		if et == ast.Integer {
			g.code.WriteString("\tineg\n")
		} else {
			g.code.WriteString("\tdneg\n")
		}
		return et
	case ast.OpNot:
		g.code.WriteString("\ticonst_1\n\tixor\n")
		g.stack.push(1)
		g.stack.pop(1)
		return ast.Bool
	default:
		panic(errors.NewInternalError("codegen: unhandled unary operator %q", n.Op))
	}
}

func (g *Generator) emitBinary(n *ast.BinaryExpr) ast.Type {
	leftType := g.emitExpr(n.Left)
	rightType := g.emitExpr(n.Right)
	resultType := g.promote(leftType, rightType)

	switch n.Op {
	case ast.OpMul, ast.OpDiv, ast.OpMod, ast.OpAdd, ast.OpSub:
		op := map[ast.BinaryOp]string{ast.OpMul: "mul", ast.OpDiv: "div", ast.OpMod: "rem", ast.OpAdd: "add", ast.OpSub: "sub"}[n.Op]
		prefix := "i"
		if resultType == ast.Float64 {
			prefix = "d"
		}
		fmt.Fprintf(&g.code, "\t%s%s\n", prefix, op)
		g.stack.pop(slots(resultType))
		return resultType
	case ast.OpAnd:
		g.code.WriteString("\tiand\n")
		g.stack.pop(1)
		return ast.Bool
	case ast.OpOr:
		g.code.WriteString("\tior\n")
		g.stack.pop(1)
		return ast.Bool
	default:
		return g.emitComparison(n, resultType)
	}
}

// promote applies the Integer-below-Float64 stack-shuffle dance, or
// a plain i2d when the promotion need is already on top, and reports
// the type both operands now share.
func (g *Generator) promote(left, right ast.Type) ast.Type {
	switch {
	case left == ast.Integer && right == ast.Float64:
		g.code.WriteString("\tdup2_x1\n\tpop2\n\ti2d\n\tdup2_x2\n\tpop2\n")
		g.stack.push(3)
		g.stack.pop(2)
		return ast.Float64
	case left == ast.Float64 && right == ast.Integer:
		g.code.WriteString("\ti2d\n")
		g.stack.push(1)
		return ast.Float64
	case left == ast.Integer && right == ast.Integer:
		return ast.Integer
	case left == ast.Float64 && right == ast.Float64:
		return ast.Float64
	default:
		return left // Bool/String comparisons never promote
	}
}

func (g *Generator) emitComparison(n *ast.BinaryExpr, operandType ast.Type) ast.Type {
	lbl := g.nextLabel()
	switch operandType {
	case ast.Integer, ast.Bool:
		op := map[ast.BinaryOp]string{
			ast.OpEq: "if_icmpeq", ast.OpNeq: "if_icmpne",
			ast.OpLt: "if_icmplt", ast.OpGt: "if_icmpgt",
			ast.OpLe: "if_icmple", ast.OpGe: "if_icmpge",
		}[n.Op]
		fmt.Fprintf(&g.code, "\t%s label_%s_if\n", op, lbl)
		g.stack.pop(2)
	case ast.Float64:
		g.code.WriteString("\tdcmpg\n")
		op := map[ast.BinaryOp]string{
			ast.OpEq: "ifeq", ast.OpNeq: "ifne",
			ast.OpLt: "iflt", ast.OpGt: "ifgt",
			ast.OpLe: "ifle", ast.OpGe: "ifge",
		}[n.Op]
		fmt.Fprintf(&g.code, "\t%s label_%s_if\n", op, lbl)
		g.stack.pop(4)
	case ast.String:
		op := map[ast.BinaryOp]string{ast.OpEq: "if_acmpeq", ast.OpNeq: "if_acmpne"}[n.Op]
		fmt.Fprintf(&g.code, "\t%s label_%s_if\n", op, lbl)
		g.stack.pop(2)
	default:
		panic(errors.NewInternalError("codegen: unhandled comparison operand type %q", operandType))
	}
	g.code.WriteString("\ticonst_0\n")
	fmt.Fprintf(&g.code, "\tgoto label_%s_end\nlabel_%s_if:\n", lbl, lbl)
	g.code.WriteString("\ticonst_1\n")
	fmt.Fprintf(&g.code, "label_%s_end:\n", lbl)
	g.stack.push(1)
	return ast.Bool
}
