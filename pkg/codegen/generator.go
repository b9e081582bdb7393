package codegen

import (
	"fmt"

	"github.com/cc4stage/cc4/pkg/ast"
)

// Diagnostic is one codegen-stage error (spec.md §7's "Codegen"
// taxonomy: unsupported operator, break/continue outside loop).
type Diagnostic struct {
	Message string
	Line    int
}

// loopLabels is one entry of the loopStack (spec.md §4.4): the targets
// break and continue resolve to inside the loop currently being lowered.
type loopLabels struct {
	startLabel    string
	continueLabel string
	endLabel      string
}

// generator carries all per-invocation mutable state: every counter
// restarts at zero so re-running the pipeline on fresh input is
// deterministic (spec.md §5).
type generator struct {
	instrs         []Instruction
	tempVarCounter int
	labelCounter   int
	stringLiterals map[string]string
	stringCounter  int
	loopStack      []loopLabels
	diags          []Diagnostic
	nextLine       int
	symbolTable    map[string]SymbolInfo
}

func newGenerator(symbolTable map[string]SymbolInfo) *generator {
	return &generator{stringLiterals: make(map[string]string), nextLine: 1, symbolTable: symbolTable}
}

func (g *generator) freshTemp() string {
	t := fmt.Sprintf("t%d", g.tempVarCounter)
	g.tempVarCounter++
	return t
}

func (g *generator) freshLabel(prefix string) string {
	l := fmt.Sprintf("%s%d", prefix, g.labelCounter)
	g.labelCounter++
	return l
}

func (g *generator) emit(op Op, arg1, arg2, result string) {
	g.instrs = append(g.instrs, Instruction{Op: op, Arg1: arg1, Arg2: arg2, Result: result, Line: g.nextLine})
	g.nextLine++
}

func (g *generator) emitLabel(name string) {
	g.instrs = append(g.instrs, Instruction{Op: OpLabel, Label: name})
}

func (g *generator) internString(value string) string {
	label := fmt.Sprintf("str%d", g.stringCounter)
	g.stringCounter++
	g.stringLiterals[label] = value
	return label
}

// Result is the public shape of entry point 4, generate(ast,
// symbolTable) (spec.md §6).
type Result struct {
	IntermediateCode      string
	OptimizedCode         string
	AssemblyCode          string
	OptimizedAssemblyCode string
	MachineCode           string
	StringLiterals        map[string]string
	Statistics            Statistics
	Errors                []Diagnostic
}

// Statistics matches spec.md §4.4's required fields exactly.
type Statistics struct {
	InstructionCount          int
	OptimizedInstructionCount int
	TempVariables             int
	Labels                    int
	OptimizationPasses        int
	IncludedHeaders           []string
}

// Generate is the public entry point. It assumes the AST is
// semantically error-free, per spec.md §4.4's framing; it never panics
// outward — an unexpected internal fault collapses to a single
// diagnostic, per spec.md §7.
func Generate(program *ast.Program, symbolTable map[string]SymbolInfo) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{Errors: []Diagnostic{{Message: fmt.Sprintf("codegen failed: %v", r)}}}
		}
	}()

	g := newGenerator(symbolTable)
	var includedHeaders []string

	for _, item := range program.Body {
		switch n := item.(type) {
		case *ast.Include:
			includedHeaders = append(includedHeaders, n.Header)
		case *ast.FunctionDeclaration:
			g.lowerFunction(n)
		case *ast.VariableDeclaration:
			g.lowerGlobalDeclaration(n)
		}
	}

	raw := append([]Instruction{}, g.instrs...)
	optimized, passes := optimize(raw)

	rawAsm := emitAssembly(raw, g.stringLiterals)
	optimizedAsm := emitAssembly(optimized, g.stringLiterals)

	return Result{
		IntermediateCode:      RenderTAC(raw),
		OptimizedCode:         RenderTAC(optimized),
		AssemblyCode:          rawAsm,
		OptimizedAssemblyCode: optimizedAsm,
		MachineCode:           "", // spec.md §9: machine code emission is illustrative-only, never produced
		StringLiterals:        g.stringLiterals,
		Statistics: Statistics{
			InstructionCount:          countNonLabel(raw),
			OptimizedInstructionCount: countNonLabel(optimized),
			TempVariables:             g.tempVarCounter,
			Labels:                    g.labelCounter,
			OptimizationPasses:        passes,
			IncludedHeaders:           includedHeaders,
		},
		Errors: g.diags,
	}
}

func countNonLabel(instrs []Instruction) int {
	n := 0
	for _, i := range instrs {
		if i.Op != OpLabel {
			n++
		}
	}
	return n
}

// SymbolInfo is the subset of semantic.DisplaySymbol codegen consults
// (array/pointer shape matters for DECLARE sizing; codegen does not
// import package semantic, so the two packages stay independent and
// callers convert between them).
type SymbolInfo struct {
	Type      string
	IsArray   bool
	IsPointer bool
}

// declareShape reports the DECLARE-sizing hint for name, looked up by
// its bare name in the symbol table generate() was handed: "array" or
// "pointer" when the symbol table says so, otherwise "" for an ordinary
// scalar. Entries keyed "<scope>.<name>" are not matched.
func (g *generator) declareShape(name string) string {
	info, ok := g.symbolTable[name]
	if !ok {
		return ""
	}
	switch {
	case info.IsArray:
		return "array"
	case info.IsPointer:
		return "pointer"
	default:
		return ""
	}
}

func (g *generator) lowerGlobalDeclaration(decl *ast.VariableDeclaration) {
	for _, d := range decl.Declarations {
		g.emit(OpDeclare, d.ID, g.declareShape(d.ID), "")
		if d.Initializer != nil {
			v := g.lowerExpr(d.Initializer)
			g.emit(OpAssign, v, "", d.ID)
		}
	}
}

func (g *generator) lowerFunction(fn *ast.FunctionDeclaration) {
	g.emitLabel(fn.ID)
	g.emit(OpFunctionStart, fn.ID, "", "")
	for _, p := range fn.Params {
		g.emit(OpParamDecl, p.Name, "", "")
	}
	if fn.Body != nil {
		for _, stmt := range fn.Body.Body {
			g.lowerStmt(stmt)
		}
	}
	g.emit(OpFunctionEnd, fn.ID, "", "")
}

func (g *generator) lowerStmt(stmt ast.Stmt) {
	switch n := stmt.(type) {
	case *ast.BlockStatement:
		for _, s := range n.Body {
			g.lowerStmt(s)
		}
	case *ast.VariableDeclaration:
		g.lowerGlobalDeclaration(n)
	case *ast.ExpressionStatement:
		g.lowerExpr(n.Expression)
	case *ast.ReturnStatement:
		if n.Argument != nil {
			v := g.lowerExpr(n.Argument)
			g.emit(OpReturn, v, "", "")
		} else {
			g.emit(OpReturn, "", "", "")
		}
	case *ast.IfStatement:
		g.lowerIf(n)
	case *ast.WhileStatement:
		g.lowerWhile(n)
	case *ast.ForStatement:
		g.lowerFor(n)
	case *ast.BreakStatement:
		g.lowerBreak()
	case *ast.ContinueStatement:
		g.lowerContinue()
	}
}

// lowerIf implements spec.md §4.4's exact label discipline for both the
// one-armed and two-armed forms.
func (g *generator) lowerIf(n *ast.IfStatement) {
	cond := g.lowerExpr(n.Test)
	elseLabel := g.freshLabel("IF_ELSE")
	g.emit(OpIfFalse, cond, "", elseLabel)
	g.lowerStmt(n.Consequent)
	if n.Alternate == nil {
		g.emitLabel(elseLabel)
		return
	}
	endLabel := g.freshLabel("IF_END")
	g.emit(OpGoto, "", "", endLabel)
	g.emitLabel(elseLabel)
	g.lowerStmt(n.Alternate)
	g.emitLabel(endLabel)
}

func (g *generator) lowerWhile(n *ast.WhileStatement) {
	startLabel := g.freshLabel("WHILE_START")
	endLabel := g.freshLabel("WHILE_END")
	g.emitLabel(startLabel)
	cond := g.lowerExpr(n.Test)
	g.emit(OpIfFalse, cond, "", endLabel)
	g.loopStack = append(g.loopStack, loopLabels{startLabel: startLabel, continueLabel: startLabel, endLabel: endLabel})
	g.lowerStmt(n.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	g.emit(OpGoto, "", "", startLabel)
	g.emitLabel(endLabel)
}

func (g *generator) lowerFor(n *ast.ForStatement) {
	switch init := n.Init.(type) {
	case *ast.VariableDeclaration:
		g.lowerGlobalDeclaration(init)
	case ast.Expr:
		g.lowerExpr(init)
	}

	suffix := g.labelCounter
	startLabel := fmt.Sprintf("FOR_START%d", suffix)
	continueLabel := fmt.Sprintf("FOR_CONTINUE%d", suffix)
	endLabel := fmt.Sprintf("FOR_END%d", suffix)
	g.labelCounter++

	g.emitLabel(startLabel)
	if n.Test != nil {
		cond := g.lowerExpr(n.Test)
		g.emit(OpIfFalse, cond, "", endLabel)
	}
	g.loopStack = append(g.loopStack, loopLabels{startLabel: startLabel, continueLabel: continueLabel, endLabel: endLabel})
	g.lowerStmt(n.Body)
	g.loopStack = g.loopStack[:len(g.loopStack)-1]
	g.emitLabel(continueLabel)
	if n.Update != nil {
		g.lowerExpr(n.Update)
	}
	g.emit(OpGoto, "", "", startLabel)
	g.emitLabel(endLabel)
}

func (g *generator) lowerBreak() {
	if len(g.loopStack) == 0 {
		g.diags = append(g.diags, Diagnostic{Message: "'break' outside loop"})
		return
	}
	top := g.loopStack[len(g.loopStack)-1]
	g.emit(OpGoto, "", "", top.endLabel)
}

func (g *generator) lowerContinue() {
	if len(g.loopStack) == 0 {
		g.diags = append(g.diags, Diagnostic{Message: "'continue' outside loop"})
		return
	}
	top := g.loopStack[len(g.loopStack)-1]
	g.emit(OpGoto, "", "", top.continueLabel)
}

// lowerExpr lowers an expression and returns the name of the
// temp/identifier/literal holding its value.
func (g *generator) lowerExpr(expr ast.Expr) string {
	switch n := expr.(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.Literal:
		return g.lowerLiteral(n)
	case *ast.BinaryExpression:
		return g.lowerBinary(n)
	case *ast.UnaryExpression:
		return g.lowerUnary(n)
	case *ast.AssignmentExpression:
		return g.lowerAssignment(n)
	case *ast.CallExpression:
		return g.lowerCall(n)
	default:
		g.diags = append(g.diags, Diagnostic{Message: "unsupported operator"})
		return ""
	}
}

func (g *generator) lowerLiteral(n *ast.Literal) string {
	if n.ValueType == ast.LiteralString {
		return g.internString(n.Value)
	}
	return n.Value
}

func (g *generator) lowerBinary(n *ast.BinaryExpression) string {
	left := g.lowerExpr(n.Left)
	right := g.lowerExpr(n.Right)
	op, ok := binaryOps[n.Operator]
	if !ok {
		g.diags = append(g.diags, Diagnostic{Message: fmt.Sprintf("unsupported operator '%s'", n.Operator)})
		return left
	}
	t := g.freshTemp()
	g.emit(op, left, right, t)
	return t
}

func (g *generator) lowerUnary(n *ast.UnaryExpression) string {
	if (n.Operator == "++" || n.Operator == "--") && n.Prefix {
		return g.lowerPreIncDec(n)
	}
	if n.Operator == "++" || n.Operator == "--" {
		return g.lowerPostIncDec(n)
	}
	arg := g.lowerExpr(n.Argument)
	switch n.Operator {
	case "-":
		t := g.freshTemp()
		g.emit(OpNeg, arg, "", t)
		return t
	case "!":
		t := g.freshTemp()
		g.emit(OpNot, arg, "", t)
		return t
	case "&":
		t := g.freshTemp()
		g.emit(OpAddr, arg, "", t)
		return t
	case "*":
		t := g.freshTemp()
		g.emit(OpDeref, arg, "", t)
		return t
	default:
		g.diags = append(g.diags, Diagnostic{Message: fmt.Sprintf("unsupported operator '%s'", n.Operator)})
		return arg
	}
}

// lowerPreIncDec implements spec.md §4.4: "Pre-increment on x emits ADD
// x 1 x and returns x."
func (g *generator) lowerPreIncDec(n *ast.UnaryExpression) string {
	id, ok := n.Argument.(*ast.Identifier)
	if !ok {
		g.diags = append(g.diags, Diagnostic{Message: "unsupported operator"})
		return g.lowerExpr(n.Argument)
	}
	op := OpAdd
	if n.Operator == "--" {
		op = OpSub
	}
	g.emit(op, id.Name, "1", id.Name)
	return id.Name
}

// lowerPostIncDec implements spec.md §4.4: "post-increment saves to a
// temp first."
func (g *generator) lowerPostIncDec(n *ast.UnaryExpression) string {
	id, ok := n.Argument.(*ast.Identifier)
	if !ok {
		g.diags = append(g.diags, Diagnostic{Message: "unsupported operator"})
		return g.lowerExpr(n.Argument)
	}
	saved := g.freshTemp()
	g.emit(OpAssign, id.Name, "", saved)
	op := OpAdd
	if n.Operator == "--" {
		op = OpSub
	}
	g.emit(op, id.Name, "1", id.Name)
	return saved
}

func (g *generator) lowerAssignment(n *ast.AssignmentExpression) string {
	value := g.lowerExpr(n.Right)
	switch lhs := n.Left.(type) {
	case *ast.Identifier:
		g.emit(OpAssign, value, "", lhs.Name)
		return lhs.Name
	case *ast.UnaryExpression:
		if lhs.Operator == "*" {
			addr := g.lowerExpr(lhs.Argument)
			g.emit(OpAssign, value, "", "*"+addr)
			return value
		}
	}
	g.diags = append(g.diags, Diagnostic{Message: "unsupported operator"})
	return value
}

// lowerCall implements spec.md §4.4: "Calls emit PARAM per argument in
// source order then CALL funcName argCount tN."
func (g *generator) lowerCall(n *ast.CallExpression) string {
	callee, ok := n.Callee.(*ast.Identifier)
	name := ""
	if ok {
		name = callee.Name
	} else {
		name = g.lowerExpr(n.Callee)
	}
	for _, arg := range n.Arguments {
		v := g.lowerExpr(arg)
		g.emit(OpParam, v, "", "")
	}
	t := g.freshTemp()
	g.emit(OpCall, name, fmt.Sprintf("%d", len(n.Arguments)), t)
	return t
}
