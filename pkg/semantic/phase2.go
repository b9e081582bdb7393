package semantic

import (
	"fmt"

	"github.com/cc4stage/cc4/pkg/ast"
)

// typeChecker implements spec.md §4.3 Phase 2: it recomputes the same
// scope chain Phase 1 built (deterministically, so scope names line up)
// and infers each expression's type bottom-up, flagging assignment and
// call-argument incompatibilities as it goes.
type typeChecker struct {
	table  *SymbolTable
	source string
	scopes *scopeStack
	diags  []Diagnostic
}

func (c *typeChecker) walkProgram(program *ast.Program) {
	c.scopes = newScopeStack()
	for _, item := range program.Body {
		c.walkTopLevel(item)
	}
}

func (c *typeChecker) walkTopLevel(item ast.TopLevel) {
	switch n := item.(type) {
	case *ast.FunctionDeclaration:
		c.walkFunctionDeclaration(n)
	case *ast.VariableDeclaration:
		c.checkVariableDeclaration(n)
	}
}

func (c *typeChecker) checkVariableDeclaration(decl *ast.VariableDeclaration) {
	for _, d := range decl.Declarations {
		if d.Initializer == nil {
			continue
		}
		srcType := c.inferType(d.Initializer)
		targetType := declaratorType(decl.TypeSpecifiers, d)
		if srcType != "" && !compat(targetType, srcType) {
			c.diags = append(c.diags, errorDiag(CodeTypeMismatch, lineOf(c.source, d.Initializer.Loc().Start),
				fmt.Sprintf("Type mismatch: cannot assign '%s' to '%s'", srcType, targetType), ""))
		}
	}
}

func (c *typeChecker) walkFunctionDeclaration(fn *ast.FunctionDeclaration) {
	if fn.Body == nil {
		return
	}
	c.scopes.pushNamed(fn.ID)
	for _, stmt := range fn.Body.Body {
		c.walkStmt(stmt, fn)
	}
	c.scopes.pop()
}

func (c *typeChecker) walkStmt(stmt ast.Stmt, fn *ast.FunctionDeclaration) {
	switch n := stmt.(type) {
	case *ast.BlockStatement:
		c.scopes.pushSynthetic()
		for _, s := range n.Body {
			c.walkStmt(s, fn)
		}
		c.scopes.pop()
	case *ast.IfStatement:
		c.inferType(n.Test)
		c.scopes.pushSynthetic()
		c.walkStmt(n.Consequent, fn)
		c.scopes.pop()
		if n.Alternate != nil {
			c.scopes.pushSynthetic()
			c.walkStmt(n.Alternate, fn)
			c.scopes.pop()
		}
	case *ast.WhileStatement:
		c.inferType(n.Test)
		c.scopes.pushSynthetic()
		c.walkStmt(n.Body, fn)
		c.scopes.pop()
	case *ast.ForStatement:
		c.scopes.pushSynthetic()
		switch init := n.Init.(type) {
		case *ast.VariableDeclaration:
			c.checkVariableDeclaration(init)
		case ast.Expr:
			c.inferType(init)
		}
		if n.Test != nil {
			c.inferType(n.Test)
		}
		c.walkStmt(n.Body, fn)
		if n.Update != nil {
			c.inferType(n.Update)
		}
		c.scopes.pop()
	case *ast.ReturnStatement:
		if n.Argument != nil {
			srcType := c.inferType(n.Argument)
			targetType := fnReturnType(fn)
			if srcType != "" && targetType != "void" && !compat(targetType, srcType) {
				c.diags = append(c.diags, errorDiag(CodeTypeMismatch, lineOf(c.source, n.Argument.Loc().Start),
					fmt.Sprintf("Type mismatch: cannot return '%s' from function declared to return '%s'", srcType, targetType), ""))
			}
		}
	case *ast.ExpressionStatement:
		c.inferType(n.Expression)
	case *ast.VariableDeclaration:
		c.checkVariableDeclaration(n)
	}
}

// inferType computes an expression's type bottom-up, per spec.md §4.3
// Phase 2, emitting undefined-function / arity-mismatch / argument
// type-mismatch diagnostics as it resolves calls.
func (c *typeChecker) inferType(expr ast.Expr) string {
	switch n := expr.(type) {
	case *ast.Literal:
		switch n.ValueType {
		case ast.LiteralString:
			return "char*"
		case ast.LiteralChar:
			return "int"
		default:
			for i := 0; i < len(n.Value); i++ {
				if n.Value[i] == '.' {
					return "float"
				}
			}
			return "int"
		}
	case *ast.Identifier:
		sym, found := c.table.Lookup(c.scopes.current(), c.scopes.ancestors(), n.Name)
		if !found {
			c.diags = append(c.diags, errorDiag(CodeUndefinedIdentifier, lineOf(c.source, n.Location.Start),
				fmt.Sprintf("Reference to undefined identifier '%s'", n.Name), ""))
			return ""
		}
		if sym.ReturnType != "" {
			return sym.ReturnType
		}
		return sym.Type
	case *ast.BinaryExpression:
		return c.inferBinary(n)
	case *ast.UnaryExpression:
		return c.inferUnary(n)
	case *ast.AssignmentExpression:
		leftType := c.inferType(n.Left)
		rightType := c.inferType(n.Right)
		if leftType != "" && rightType != "" && !compat(leftType, rightType) {
			c.diags = append(c.diags, errorDiag(CodeTypeMismatch, lineOf(c.source, n.Right.Loc().Start),
				fmt.Sprintf("Type mismatch: cannot assign '%s' to '%s'", rightType, leftType), ""))
		}
		return leftType
	case *ast.CallExpression:
		return c.inferCall(n)
	}
	return ""
}

var comparisonOperators = map[string]bool{
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true, "&&": true, "||": true,
}

func (c *typeChecker) inferBinary(n *ast.BinaryExpression) string {
	leftType := c.inferType(n.Left)
	rightType := c.inferType(n.Right)
	if comparisonOperators[n.Operator] {
		return "int"
	}
	if isPointerType(leftType) && (n.Operator == "+" || n.Operator == "-") {
		return leftType
	}
	if isPointerType(rightType) && (n.Operator == "+" || n.Operator == "-") {
		return rightType
	}
	if leftType == "" {
		return rightType
	}
	if rightType == "" {
		return leftType
	}
	return promote(leftType, rightType)
}

func (c *typeChecker) inferUnary(n *ast.UnaryExpression) string {
	argType := c.inferType(n.Argument)
	switch n.Operator {
	case "&":
		return argType + "*"
	case "*":
		if isPointerType(argType) {
			return pointerBase(argType)
		}
		return argType
	case "!":
		return "int"
	default:
		return argType
	}
}

func (c *typeChecker) inferCall(call *ast.CallExpression) string {
	callee, ok := call.Callee.(*ast.Identifier)
	argTypes := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		argTypes[i] = c.inferType(arg)
	}
	if !ok {
		return ""
	}
	sym, found := c.table.Lookup(c.scopes.current(), c.scopes.ancestors(), callee.Name)
	if !found || sym.Type != "function" {
		c.diags = append(c.diags, errorDiag(CodeUndefinedFunction, lineOf(c.source, call.Location.Start),
			fmt.Sprintf("Call to undefined function '%s'", callee.Name), ""))
		return ""
	}

	if !sym.IsVarArgs && len(call.Arguments) != len(sym.Params) {
		c.diags = append(c.diags, errorDiag(CodeArityMismatch, lineOf(c.source, call.Location.Start),
			fmt.Sprintf("Function '%s' called with %d arguments, but expected %d", callee.Name, len(call.Arguments), len(sym.Params)), ""))
	} else {
		for i, paramType := range sym.Params {
			if i >= len(argTypes) {
				break
			}
			if argTypes[i] != "" && !compat(paramType, argTypes[i]) {
				c.diags = append(c.diags, errorDiag(CodeTypeMismatch, lineOf(c.source, call.Arguments[i].Loc().Start),
					fmt.Sprintf("Argument %d to '%s' has type '%s', expected '%s'", i+1, callee.Name, argTypes[i], paramType), ""))
			}
		}
	}
	return sym.ReturnType
}
