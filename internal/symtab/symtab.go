// Package symtab builds the symbol table consumed by type checking,
// code generation, and liveness analysis: one FunctionSymbol per
// declared function, holding its parameters and locals in declaration
// order.
//
// Grounded in the teacher's compiler/symtable.go (map + insertion-order
// index) and the original implementation's type_checker_helper.py
// SymbolTable/FunctionSymbol pair (functions keyed by name, locals
// keyed by name within a function, a has_return flag).
package symtab

import "jlc/internal/ast"

// Local is one declared name (parameter or local variable) together
// with the slot index it occupies in the eventual Jasmin local-variable
// array. Index is insertion order (SPEC_FULL.md §4.1) except that
// Float64 entries additionally reserve the following slot.
type Local struct {
	Name  string
	Type  ast.Type
	Index int
}

// FunctionSymbol is the scope for one function: its signature plus
// every local it declares, parameters included (parameters are locals
// that happen to be initialized by the caller).
type FunctionSymbol struct {
	Name       string
	ReturnType *ast.Type // nil => Void
	ParamTypes []ast.Type

	order  []string
	locals map[string]*Local

	HasReturn bool

	nextSlot int
}

func newFunctionSymbol(name string, ret *ast.Type) *FunctionSymbol {
	return &FunctionSymbol{
		Name:       name,
		ReturnType: ret,
		locals:     make(map[string]*Local),
	}
}

// AddParameter declares a parameter as a local. Reports false if the
// name is already in scope.
func (f *FunctionSymbol) AddParameter(name string, t ast.Type) bool {
	if !f.addLocal(name, t) {
		return false
	}
	f.ParamTypes = append(f.ParamTypes, t)
	return true
}

// AddLocal declares a local variable. Reports false if the name is
// already in scope (parameter or prior local).
func (f *FunctionSymbol) AddLocal(name string, t ast.Type) bool {
	return f.addLocal(name, t)
}

func (f *FunctionSymbol) addLocal(name string, t ast.Type) bool {
	if _, exists := f.locals[name]; exists {
		return false
	}
	idx := f.nextSlot
	f.locals[name] = &Local{Name: name, Type: t, Index: idx}
	f.order = append(f.order, name)
	if t == ast.Float64 {
		f.nextSlot += 2
	} else {
		f.nextSlot++
	}
	return true
}

// ReserveSlot bumps the slot counter without declaring a name, used
// for main's synthetic String[] parameter placeholder (SPEC_FULL.md
// §4.1).
func (f *FunctionSymbol) ReserveSlot() {
	f.nextSlot++
}

// Lookup returns the local or parameter named name, if any.
func (f *FunctionSymbol) Lookup(name string) (*Local, bool) {
	l, ok := f.locals[name]
	return l, ok
}

// Locals returns every local (parameters included) in declaration
// order.
func (f *FunctionSymbol) Locals() []*Local {
	out := make([]*Local, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.locals[name])
	}
	return out
}

// SlotCount is the number of local-variable-array entries this
// function needs (the Jasmin `.limit locals` value, before any
// caller-side adjustment).
func (f *FunctionSymbol) SlotCount() int { return f.nextSlot }

// Table holds every function's symbol scope, keyed by name, with
// functions retrievable in declaration order for deterministic
// debug dumps.
type Table struct {
	order     []string
	functions map[string]*FunctionSymbol
}

func New() *Table {
	return &Table{functions: make(map[string]*FunctionSymbol)}
}

// AddFunction declares a new function scope. Reports false if the
// name is already declared (including a second "main").
func (t *Table) AddFunction(name string, ret *ast.Type) (*FunctionSymbol, bool) {
	if _, exists := t.functions[name]; exists {
		return nil, false
	}
	fs := newFunctionSymbol(name, ret)
	t.functions[name] = fs
	t.order = append(t.order, name)
	return fs, true
}

// Function looks up a declared function by name.
func (t *Table) Function(name string) (*FunctionSymbol, bool) {
	fs, ok := t.functions[name]
	return fs, ok
}

// Functions returns every function scope in declaration order.
func (t *Table) Functions() []*FunctionSymbol {
	out := make([]*FunctionSymbol, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.functions[name])
	}
	return out
}
