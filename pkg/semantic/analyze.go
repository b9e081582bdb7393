package semantic

import (
	"fmt"

	"github.com/cc4stage/cc4/pkg/ast"
)

// Analyze is the public entry point (spec.md §6 entry point 3): AST and
// raw source text in, a display-friendly symbol table and diagnostics
// out. It never panics outward; an unexpected internal fault collapses
// to a single error diagnostic (spec.md §7).
func Analyze(program *ast.Program, source string) (symbolTable map[string]DisplaySymbol, errs []Diagnostic) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, errorDiag(CodeInternalFault, 0, fmt.Sprintf("semantic analysis failed: %v", r), ""))
			symbolTable = map[string]DisplaySymbol{}
		}
	}()

	table := NewSymbolTable()
	seedBuiltins(table)
	scanPreprocessorDirectives(table, source)

	p1 := &phase1Walker{table: table, source: source}
	p1.walkProgram(program)

	p2 := &typeChecker{table: table, source: source}
	p2.walkProgram(program)

	diags := append([]Diagnostic{}, p1.diags...)
	diags = append(diags, p2.diags...)
	diags = append(diags, finalChecks(table, p1)...)

	return table.Display(), dedupeDiagnostics(diags)
}

// dedupeDiagnostics collapses diagnostics Phase 1 and Phase 2 can both
// raise for the same fault — each phase re-walks the whole AST
// independently, and an identifier that fails to resolve is visited by
// both (spec.md §4.3 Phase 1's recordRead, Phase 2's inferType) —
// without reordering or dropping genuinely distinct diagnostics.
func dedupeDiagnostics(diags []Diagnostic) []Diagnostic {
	seen := make(map[Diagnostic]bool, len(diags))
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// scopeStack is the standard ancestor-chain bookkeeping shared by both
// traversal phases: "global" is always the base, and nested scopes are
// pushed/popped as the walk enters/leaves blocks, functions, and loops.
type scopeStack struct {
	chain   []string
	counter int
}

func newScopeStack() *scopeStack {
	return &scopeStack{chain: []string{"global"}}
}

func (s *scopeStack) current() string { return s.chain[len(s.chain)-1] }

// ancestors returns the chain excluding current, innermost first —
// exactly the order spec.md §4.3's "Scope resolution" searches.
func (s *scopeStack) ancestors() []string {
	out := make([]string, 0, len(s.chain)-1)
	for i := len(s.chain) - 2; i >= 0; i-- {
		out = append(out, s.chain[i])
	}
	return out
}

func (s *scopeStack) pushNamed(name string) { s.chain = append(s.chain, name) }

func (s *scopeStack) pushSynthetic() string {
	name := fmt.Sprintf("block%d", s.counter)
	s.counter++
	s.chain = append(s.chain, name)
	return name
}

func (s *scopeStack) pop() { s.chain = s.chain[:len(s.chain)-1] }
