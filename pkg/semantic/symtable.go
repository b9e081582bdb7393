// Package semantic implements the three-phase semantic analyzer:
// preprocessing of raw source text, symbol table construction, and type
// checking, plus a final pass of whole-program checks (spec.md §4.3).
package semantic

import (
	"fmt"
	"sort"
)

// Symbol is a resolved declaration bound to a type in a specific scope.
type Symbol struct {
	Name        string
	Type        string
	ReturnType  string
	Scope       string
	Line        int
	Initialized bool
	IsParameter bool
	IsArray     bool
	IsPointer   bool
	Params      []string
	IsVarArgs   bool
	Value       string
}

// key is the internal "<scope>:<name>" storage key (spec.md §3).
func key(scope, name string) string { return scope + ":" + name }

// SymbolTable stores every symbol known to the analyzer, including the
// builtin and preprocessor scopes that the public-facing display table
// omits.
type SymbolTable struct {
	symbols map[string]*Symbol
	// scopeOrder records the scope of each successful Define, in call
	// order. All and Display iterate the symbol map directly, so the
	// order they return symbols in is not defined.
	scopeOrder []string
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// Define registers a symbol in scope, unless that (scope, name) key is
// already taken — in which case it returns false and leaves the table
// unchanged so the caller can report a redeclaration.
func (t *SymbolTable) Define(scope string, sym Symbol) bool {
	k := key(scope, sym.Name)
	if _, exists := t.symbols[k]; exists {
		return false
	}
	sym.Scope = scope
	cp := sym
	t.symbols[k] = &cp
	t.scopeOrder = append(t.scopeOrder, scope)
	return true
}

// Lookup resolves name by searching currentScope, then scopeStack from
// innermost to outermost, then "builtin" — exactly the order spec.md
// §4.3 "Scope resolution" specifies. scopeStack is ordered innermost
// first.
func (t *SymbolTable) Lookup(currentScope string, scopeStack []string, name string) (*Symbol, bool) {
	if sym, ok := t.symbols[key(currentScope, name)]; ok {
		return sym, true
	}
	for _, scope := range scopeStack {
		if sym, ok := t.symbols[key(scope, name)]; ok {
			return sym, true
		}
	}
	if sym, ok := t.symbols[key("builtin", name)]; ok {
		return sym, true
	}
	return nil, false
}

// Get returns the raw stored symbol for (scope, name), without scope-
// chain resolution — used by phases that already know the exact scope a
// symbol was declared in.
func (t *SymbolTable) Get(scope, name string) (*Symbol, bool) {
	sym, ok := t.symbols[key(scope, name)]
	return sym, ok
}

// All returns every stored symbol, including builtin/preprocessor ones.
func (t *SymbolTable) All() []*Symbol {
	out := make([]*Symbol, 0, len(t.symbols))
	for _, sym := range t.symbols {
		out = append(out, sym)
	}
	return out
}

// DisplaySymbol is the public, UI-facing shape of a Symbol (spec.md §6
// entry point 3): builtin and preprocessor scopes are omitted, and
// globals are keyed by bare name rather than "<scope>.<name>".
type DisplaySymbol struct {
	Type        string
	Scope       string
	Line        int
	Initialized bool
	Params      []string `json:",omitempty"`
	IsArray     bool
	IsPointer   bool
	Value       string `json:",omitempty"`
}

// Display renders the table as the map the public Analyze entry point
// returns, dropping the builtin and preprocessor scopes.
func (t *SymbolTable) Display() map[string]DisplaySymbol {
	out := make(map[string]DisplaySymbol)
	for _, sym := range t.symbols {
		if sym.Scope == "builtin" || sym.Scope == "preprocessor" {
			continue
		}
		label := sym.Name
		if sym.Scope != "global" {
			label = fmt.Sprintf("%s.%s", sym.Scope, sym.Name)
		}
		out[label] = DisplaySymbol{
			Type:        displayType(sym),
			Scope:       sym.Scope,
			Line:        sym.Line,
			Initialized: sym.Initialized,
			Params:      sym.Params,
			IsArray:     sym.IsArray,
			IsPointer:   sym.IsPointer,
			Value:       sym.Value,
		}
	}
	return out
}

func displayType(sym *Symbol) string {
	if sym.ReturnType != "" {
		return sym.ReturnType
	}
	return sym.Type
}

// SortedNames returns every stored key in deterministic order, useful
// for tests and for rendering diagnostics reproducibly.
func (t *SymbolTable) SortedNames() []string {
	names := make([]string, 0, len(t.symbols))
	for k := range t.symbols {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
