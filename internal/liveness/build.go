package liveness

import (
	"jlc/internal/ast"
	"jlc/internal/symtab"
)

// Result bundles one function's computed graphs.
type Result struct {
	FunctionName string
	CFG          *CFGraph
	RIG          *RIGraph
}

// Analyze builds the control-flow graph, computes live sets, and
// derives the register interference graph and its chromatic number
// for every function in prog.
func Analyze(prog *ast.Program, table *symtab.Table) []*Result {
	var results []*Result
	if prog.Main != nil {
		results = append(results, analyzeFunction(prog.Main, "main", table))
	}
	for _, fn := range prog.Functions {
		results = append(results, analyzeFunction(fn, fn.Name, table))
	}
	return results
}

func analyzeFunction(fn *ast.Function, scopeName string, table *symtab.Table) *Result {
	fs, _ := table.Function(scopeName)
	cfg := NewCFGraph()

	anchor := newCFNode()
	if !fn.IsMain {
		for _, p := range fn.Params {
			anchor.addDef(p.Name)
		}
	}
	anchorID := cfg.AddNode(anchor)

	b := &builder{cfg: cfg}
	for _, decl := range fn.Decls {
		anchorID = b.declaration(decl, anchorID)
	}
	b.instrList(fn.Body, anchorID)

	var names []string
	if fs != nil {
		for _, l := range fs.Locals() {
			names = append(names, l.Name)
		}
	}
	rig := NewRIGraph(names, cfg.InterferenceSets())

	return &Result{FunctionName: scopeName, CFG: cfg, RIG: rig}
}

// builder threads the "current anchor" node id through a function
// body, grounded in liveness_analysis.py's self.node_anchor_id: each
// instruction becomes one node, wired as a successor of whatever came
// before it, with if/while introducing the appropriate branch/merge/
// back-edge shape.
type builder struct {
	cfg *CFGraph
}

// instrList walks a straight-line sequence of instructions, returning
// the anchor id reached and whether control falls through the list.
// The walk stops at the first top-level return: fallsThrough is then
// false and the instructions after that return are not added.
func (b *builder) instrList(instrs []ast.Instruction, anchor int) (lastAnchor int, fallsThrough bool) {
	fallsThrough = true
	for _, instr := range instrs {
		anchor = b.instr(instr, anchor)
		if _, ok := instr.(*ast.ReturnStmt); ok {
			fallsThrough = false
			break
		}
	}
	return anchor, fallsThrough
}

func (b *builder) instr(instr ast.Instruction, anchor int) int {
	switch n := instr.(type) {
	case *ast.Declaration:
		return b.declaration(n, anchor)
	case *ast.Assignment:
		node := newCFNode()
		node.addDef(n.Name)
		for v := range usesOf(n.Expr) {
			node.addUse(v)
		}
		id := b.cfg.AddNode(node)
		b.cfg.AddEdge(anchor, id)
		return id
	case *ast.Block:
		last, _ := b.instrList(n.Instrs, anchor)
		return last
	case *ast.IfStmt:
		return b.ifStmt(n, anchor)
	case *ast.WhileStmt:
		return b.whileStmt(n, anchor)
	case *ast.PrintStmt:
		node := newCFNode()
		if n.Expr != nil {
			for v := range usesOf(n.Expr) {
				node.addUse(v)
			}
		}
		id := b.cfg.AddNode(node)
		b.cfg.AddEdge(anchor, id)
		return id
	case *ast.CallStmt:
		node := newCFNode()
		for v := range usesOf(n.Call) {
			node.addUse(v)
		}
		id := b.cfg.AddNode(node)
		b.cfg.AddEdge(anchor, id)
		return id
	case *ast.ReturnStmt:
		node := newCFNode()
		if n.Expr != nil {
			for v := range usesOf(n.Expr) {
				node.addUse(v)
			}
		}
		id := b.cfg.AddNode(node)
		b.cfg.AddEdge(anchor, id)
		return id
	default:
		return anchor
	}
}

func (b *builder) declaration(decl *ast.Declaration, anchor int) int {
	node := newCFNode()
	node.addDef(decl.Name)
	for v := range usesOf(decl.Expr) {
		node.addUse(v)
	}
	id := b.cfg.AddNode(node)
	b.cfg.AddEdge(anchor, id)
	return id
}

func (b *builder) ifStmt(n *ast.IfStmt, anchor int) int {
	condNode := newCFNode()
	for v := range usesOf(n.Cond) {
		condNode.addUse(v)
	}
	condID := b.cfg.AddNode(condNode)
	b.cfg.AddEdge(anchor, condID)

	thenEnd, thenFalls := b.instrList(n.Then, condID)
	elseEnd, elseFalls := b.instrList(n.Else, condID)

	merge := newCFNode()
	mergeID := b.cfg.AddNode(merge)
	if thenFalls {
		b.cfg.AddEdge(thenEnd, mergeID)
	}
	if elseFalls {
		b.cfg.AddEdge(elseEnd, mergeID)
	}
	return mergeID
}

func (b *builder) whileStmt(n *ast.WhileStmt, anchor int) int {
	condNode := newCFNode()
	for v := range usesOf(n.Cond) {
		condNode.addUse(v)
	}
	condID := b.cfg.AddNode(condNode)
	b.cfg.AddEdge(anchor, condID)

	bodyEnd, bodyFalls := b.instrList(n.Body, condID)
	if bodyFalls {
		b.cfg.AddEdge(bodyEnd, condID)
	}
	return condID
}

// usesOf collects every bare variable reference inside expr (call
// arguments included; the callee name itself is not a variable use).
func usesOf(expr ast.Expr) map[string]struct{} {
	out := make(map[string]struct{})
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch n := e.(type) {
		case *ast.IdentExpr:
			out[n.Name] = struct{}{}
		case *ast.UnaryExpr:
			walk(n.Operand)
		case *ast.BinaryExpr:
			walk(n.Left)
			walk(n.Right)
		case *ast.ParenExpr:
			walk(n.Inner)
		case *ast.CallExpr:
			for _, arg := range n.Args {
				walk(arg)
			}
		}
	}
	walk(expr)
	return out
}
