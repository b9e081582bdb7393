package semantic

import (
	"fmt"

	"github.com/cc4stage/cc4/pkg/ast"
)

// readOccurrence is one read of an identifier, captured during Phase 1
// so Phase 3 can decide "used before initialization" from each read's
// own moment in the walk. initializedAtRead snapshots the symbol's
// initialized state right then, since the same *Symbol is later
// mutated in place by any assignment the walk reaches afterward —
// checking the symbol after the full walk finishes would judge every
// read by the variable's final state, not its state at that read.
type readOccurrence struct {
	name              string
	line              int
	initializedAtRead bool
}

// phase1Walker builds the symbol table (spec.md §4.3 Phase 1): it
// tracks the scope stack, registers declarations, marks symbols
// initialized on assignment, and records every identifier read.
type phase1Walker struct {
	table          *SymbolTable
	source         string
	scopes         *scopeStack
	diags          []Diagnostic
	reads          []readOccurrence
	usedNames      map[string]bool
	loopDepth      int
	hasDeclaration bool
}

func lineOf(source string, offset int) int {
	line := 1
	for i := 0; i < offset && i < len(source); i++ {
		if source[i] == '\n' {
			line++
		}
	}
	return line
}

func (w *phase1Walker) walkProgram(program *ast.Program) {
	w.scopes = newScopeStack()
	w.usedNames = make(map[string]bool)

	for _, item := range program.Body {
		switch item.(type) {
		case *ast.FunctionDeclaration, *ast.VariableDeclaration:
			w.hasDeclaration = true
		}
		w.walkTopLevel(item)
	}
}

func (w *phase1Walker) walkTopLevel(item ast.TopLevel) {
	switch n := item.(type) {
	case *ast.FunctionDeclaration:
		w.walkFunctionDeclaration(n)
	case *ast.VariableDeclaration:
		w.declareVariables(n)
	case *ast.Typedef:
		// Typedefs do not introduce a value-level symbol; the parser
		// already tracks them for disambiguation during parsing.
	case *ast.Include, *ast.PreprocessorDirective:
		// Handled lexically/by the Phase P regex scan; no symbol here.
	}
}

func typeNameFor(spec *ast.DeclarationSpecifiers) string {
	return spec.TypeName()
}

func declaratorType(spec *ast.DeclarationSpecifiers, d ast.VariableDeclarator) string {
	base := typeNameFor(spec)
	if d.IsArray {
		return base + "[]"
	}
	if d.IsPointer {
		return base + "*"
	}
	return base
}

func (w *phase1Walker) declareVariables(decl *ast.VariableDeclaration) {
	scope := w.scopes.current()
	for _, d := range decl.Declarations {
		sym := Symbol{
			Name:        d.ID,
			Type:        declaratorType(decl.TypeSpecifiers, d),
			Line:        lineOf(w.source, decl.Location.Start),
			Initialized: d.Initializer != nil,
			IsArray:     d.IsArray,
			IsPointer:   d.IsPointer,
		}
		if !w.table.Define(scope, sym) {
			w.diags = append(w.diags, errorDiag(CodeRedeclaredSymbol, sym.Line,
				fmt.Sprintf("Redeclaration of '%s' in this scope", d.ID), ""))
		}
		if d.Initializer != nil {
			w.walkExpr(d.Initializer)
		}
		if d.ArraySize != nil {
			w.walkExpr(d.ArraySize)
		}
	}
}

func (w *phase1Walker) walkFunctionDeclaration(fn *ast.FunctionDeclaration) {
	var params []string
	for _, p := range fn.Params {
		t := typeNameFor(p.ParamType)
		if p.IsPointer {
			t += "*"
		}
		if p.IsArray {
			t += "[]"
		}
		params = append(params, t)
	}

	sym := Symbol{
		Name:        fn.ID,
		Type:        "function",
		ReturnType:  fnReturnType(fn),
		Line:        lineOf(w.source, fn.Location.Start),
		Initialized: true,
		Params:      params,
		IsVarArgs:   fn.IsVarArgs,
	}
	if !w.table.Define(w.scopes.current(), sym) {
		w.diags = append(w.diags, errorDiag(CodeRedeclaredSymbol, sym.Line,
			fmt.Sprintf("Redeclaration of '%s' in this scope", fn.ID), ""))
	}

	if fn.Body == nil {
		return
	}

	w.scopes.pushNamed(fn.ID)
	for _, p := range fn.Params {
		t := typeNameFor(p.ParamType)
		if p.IsPointer {
			t += "*"
		}
		if p.IsArray {
			t += "[]"
		}
		w.table.Define(w.scopes.current(), Symbol{
			Name: p.Name, Type: t, Line: lineOf(w.source, p.Location.Start),
			Initialized: true, IsParameter: true, IsArray: p.IsArray, IsPointer: p.IsPointer,
		})
	}
	for _, stmt := range fn.Body.Body {
		w.walkStmt(stmt)
	}
	w.scopes.pop()
}

func fnReturnType(fn *ast.FunctionDeclaration) string {
	t := fn.ReturnType.TypeName()
	if fn.IsPointerReturn {
		t += "*"
	}
	return t
}

func (w *phase1Walker) walkStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.BlockStatement:
		w.scopes.pushSynthetic()
		for _, s := range n.Body {
			w.walkStmt(s)
		}
		w.scopes.pop()
	case *ast.IfStatement:
		w.walkExpr(n.Test)
		w.scopes.pushSynthetic()
		w.walkStmt(n.Consequent)
		w.scopes.pop()
		if n.Alternate != nil {
			w.scopes.pushSynthetic()
			w.walkStmt(n.Alternate)
			w.scopes.pop()
		}
	case *ast.WhileStatement:
		w.walkExpr(n.Test)
		w.loopDepth++
		w.scopes.pushSynthetic()
		w.walkStmt(n.Body)
		w.scopes.pop()
		w.loopDepth--
	case *ast.ForStatement:
		w.scopes.pushSynthetic()
		switch init := n.Init.(type) {
		case *ast.VariableDeclaration:
			w.declareVariables(init)
		case ast.Expr:
			w.walkExpr(init)
		}
		if n.Test != nil {
			w.walkExpr(n.Test)
		}
		w.loopDepth++
		w.walkStmt(n.Body)
		if n.Update != nil {
			w.walkExpr(n.Update)
		}
		w.loopDepth--
		w.scopes.pop()
	case *ast.ReturnStatement:
		if n.Argument != nil {
			w.walkExpr(n.Argument)
		}
	case *ast.ExpressionStatement:
		w.walkExpr(n.Expression)
	case *ast.VariableDeclaration:
		w.declareVariables(n)
	case *ast.BreakStatement:
		if w.loopDepth == 0 {
			w.diags = append(w.diags, errorDiag(CodeLoopControlOutsideLoop, lineOf(w.source, n.Location.Start), "'break' outside loop", ""))
		}
	case *ast.ContinueStatement:
		if w.loopDepth == 0 {
			w.diags = append(w.diags, errorDiag(CodeLoopControlOutsideLoop, lineOf(w.source, n.Location.Start), "'continue' outside loop", ""))
		}
	}
}

func (w *phase1Walker) walkExpr(expr ast.Expr) {
	switch n := expr.(type) {
	case *ast.Identifier:
		w.recordRead(n)
	case *ast.Literal:
	case *ast.BinaryExpression:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.UnaryExpression:
		w.walkExpr(n.Argument)
	case *ast.AssignmentExpression:
		w.walkExpr(n.Right)
		if lhs, ok := n.Left.(*ast.Identifier); ok {
			if sym, found := w.table.Lookup(w.scopes.current(), w.scopes.ancestors(), lhs.Name); found {
				sym.Initialized = true
			}
		} else {
			w.walkExpr(n.Left)
		}
	case *ast.CallExpression:
		// The callee identifier is resolved by Phase 2's inferCall, which
		// reports "Call to undefined function" on failure; recordRead
		// would otherwise report the same unresolved name a second time
		// under the undefined-identifier diagnostic.
		if callee, ok := n.Callee.(*ast.Identifier); ok {
			w.usedNames[callee.Name] = true
		} else {
			w.walkExpr(n.Callee)
		}
		for _, arg := range n.Arguments {
			w.walkExpr(arg)
		}
	}
}

func (w *phase1Walker) recordRead(id *ast.Identifier) {
	w.usedNames[id.Name] = true
	sym, found := w.table.Lookup(w.scopes.current(), w.scopes.ancestors(), id.Name)
	if !found {
		w.diags = append(w.diags, errorDiag(CodeUndefinedIdentifier, lineOf(w.source, id.Location.Start),
			fmt.Sprintf("Reference to undefined identifier '%s'", id.Name), ""))
		return
	}
	w.reads = append(w.reads, readOccurrence{
		name:              id.Name,
		line:              lineOf(w.source, id.Location.Start),
		initializedAtRead: sym.Initialized,
	})
}
