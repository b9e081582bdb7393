// Package parser implements a recursive-descent parser that turns a
// token stream into an AST. Errors never abort parsing: on a mismatch
// the parser records a SyntaxError and advances, following spec.md
// §4.2's recovery discipline (a top-level declaration is told apart from
// a function by whether '(' follows its name; one-token advance on error).
package parser

import (
	"fmt"

	"github.com/cc4stage/cc4/pkg/ast"
	"github.com/cc4stage/cc4/pkg/token"
)

// SyntaxError is one parser diagnostic.
type SyntaxError struct {
	Message  string
	Location ast.Location
}

// Parser holds all mutable state for one parse of a token stream.
type Parser struct {
	tokens   []token.Token
	pos      int
	typedefs map[string]bool
	errors   []SyntaxError
}

// Parse is the public entry point: tokens in, AST plus diagnostics out.
// It never panics outward — an unexpected internal fault collapses to a
// single SyntaxError, matching spec.md §7's internal-fault discipline.
func Parse(tokens []token.Token) (prog *ast.Program, errs []SyntaxError) {
	defer func() {
		if r := recover(); r != nil {
			errs = append(errs, SyntaxError{Message: fmt.Sprintf("parser failed: %v", r)})
			if prog == nil {
				prog = &ast.Program{}
			}
		}
	}()

	p := &Parser{tokens: filterTrivia(tokens), typedefs: make(map[string]bool)}
	return p.parseProgram(), p.errors
}

// filterTrivia drops comments from the stream the parser walks; the
// lexer keeps them as tokens (spec.md §4.1 leaves this implementer's
// choice, and the parser must "tolerate" them either way).
func filterTrivia(tokens []token.Token) []token.Token {
	out := make([]token.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != token.Comment {
			out = append(out, t)
		}
	}
	return out
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) token.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[idx]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) isEOF() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) addError(msg string) {
	t := p.cur()
	p.errors = append(p.errors, SyntaxError{Message: msg, Location: ast.Location{Start: t.Start, End: t.End}})
}

// expectValue consumes the current token if its value matches, else
// records a diagnostic and leaves the cursor in place so the caller's
// own recovery (typically advancing past the statement) takes effect.
func (p *Parser) expectValue(value string) (token.Token, bool) {
	if p.cur().Value == value {
		return p.advance(), true
	}
	p.addError(fmt.Sprintf("expected '%s' got '%s'", value, p.cur().Value))
	return token.Token{}, false
}

func (p *Parser) expectKind(kind token.Kind, what string) (token.Token, bool) {
	if p.cur().Kind == kind {
		return p.advance(), true
	}
	p.addError(fmt.Sprintf("expected %s got '%s'", what, p.cur().Value))
	return token.Token{}, false
}

// synchronize advances past the rest of the current statement/
// declaration, stopping just after a ';' or '}' so the top-level loop
// always progresses even on severe mismatches.
func (p *Parser) synchronize() {
	for !p.isEOF() {
		t := p.advance()
		if t.Value == ";" || t.Value == "}" {
			return
		}
	}
}

func isTypeToken(t token.Token) bool {
	return t.Kind == token.Type || t.Kind == token.Qualifier
}

func (p *Parser) isComplexTypeKeyword(t token.Token) bool {
	return t.Value == "struct" || t.Value == "union" || t.Value == "enum"
}

func (p *Parser) isDeclarationStart() bool {
	t := p.cur()
	if isTypeToken(t) || p.isComplexTypeKeyword(t) {
		return true
	}
	if t.Kind == token.Identifier && p.typedefs[t.Value] {
		return true
	}
	return false
}

// ---- top level ----

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	start := p.cur().Start
	for !p.isEOF() {
		if item := p.parseTopLevel(); item != nil {
			prog.Body = append(prog.Body, item)
		}
	}
	end := start
	if len(p.tokens) > 0 {
		end = p.tokens[len(p.tokens)-1].End
	}
	prog.Location = ast.Location{Start: start, End: end}
	return prog
}

func (p *Parser) parseTopLevel() ast.TopLevel {
	t := p.cur()

	switch {
	case t.Kind == token.Preprocessor:
		return p.parsePreprocessor()
	case t.Value == "typedef":
		return p.parseTypedef()
	case p.isDeclarationStart():
		return p.parseDeclarationOrFunction()
	default:
		p.addError(fmt.Sprintf("unexpected token at program level: '%s'", t.Value))
		p.synchronize()
		return nil
	}
}

func (p *Parser) parsePreprocessor() ast.TopLevel {
	t := p.advance()
	loc := ast.Location{Start: t.Start, End: t.End}
	text := t.Value

	if header, system, ok := parseIncludeDirective(text); ok {
		return &ast.Include{Location: loc, Header: header, System: system}
	}
	return &ast.PreprocessorDirective{Location: loc, Directive: text}
}

func (p *Parser) parseTypedef() ast.TopLevel {
	start := p.advance().Start // 'typedef'
	spec := p.parseDeclarationSpecifiers()
	name, ok := p.expectKind(token.Identifier, "identifier")
	end := name.End
	if ok {
		p.typedefs[name.Value] = true
	}
	if semi, ok := p.expectValue(";"); ok {
		end = semi.End
	} else {
		p.synchronize()
	}
	return &ast.Typedef{Location: ast.Location{Start: start, End: end}, TypeSpecifiers: spec, ID: name.Value}
}

// parseDeclarationOrFunction disambiguates function vs. variable
// declarations in one forward pass: parse specifiers + identifier, then
// check whether '(' follows. The position is not saved or restored.
func (p *Parser) parseDeclarationOrFunction() ast.TopLevel {
	start := p.cur().Start
	spec := p.parseDeclarationSpecifiers()

	isPointer := false
	for p.cur().Value == "*" {
		p.advance()
		isPointer = true
	}

	nameTok, ok := p.expectKind(token.Identifier, "identifier")
	if !ok {
		p.synchronize()
		return nil
	}

	if p.cur().Value == "(" {
		return p.parseFunctionDeclaration(start, spec, isPointer, nameTok.Value)
	}
	return p.parseVariableDeclaration(start, spec, isPointer, nameTok.Value)
}

func (p *Parser) parseDeclarationSpecifiers() *ast.DeclarationSpecifiers {
	start := p.cur().Start
	end := start
	var specs []ast.Specifier
	for {
		t := p.cur()
		switch {
		case t.Kind == token.Type:
			specs = append(specs, ast.Specifier{Kind: ast.SpecTypeSpecifier, Name: t.Value})
			end = t.End
			p.advance()
		case t.Kind == token.Qualifier:
			specs = append(specs, ast.Specifier{Kind: ast.SpecTypeQualifier, Name: t.Value})
			end = t.End
			p.advance()
		case p.isComplexTypeKeyword(t):
			tag := p.advance().Value
			name := ""
			if p.cur().Kind == token.Identifier {
				nameTok := p.advance()
				name = nameTok.Value
				end = nameTok.End
			} else {
				end = t.End
			}
			specs = append(specs, ast.Specifier{Kind: ast.SpecComplexType, Tag: tag, Name: name})
		case t.Kind == token.Identifier && p.typedefs[t.Value]:
			specs = append(specs, ast.Specifier{Kind: ast.SpecTypeSpecifier, Name: t.Value})
			end = t.End
			p.advance()
		default:
			goto done
		}
	}
done:
	if len(specs) == 0 {
		p.addError(fmt.Sprintf("expected type specifier got '%s'", p.cur().Value))
	}
	return &ast.DeclarationSpecifiers{Location: ast.Location{Start: start, End: end}, Specifiers: specs}
}

func (p *Parser) parseFunctionDeclaration(start int, spec *ast.DeclarationSpecifiers, isPointer bool, name string) ast.TopLevel {
	p.advance() // '('
	var params []ast.Parameter
	isVarArgs := false
	if p.cur().Value != ")" {
		for {
			if p.cur().Value == "..." {
				p.advance()
				isVarArgs = true
				break
			}
			params = append(params, p.parseParameter())
			if p.cur().Value == "," {
				p.advance()
				continue
			}
			break
		}
	}
	end := p.cur().End
	if rp, ok := p.expectValue(")"); ok {
		end = rp.End
	}

	var body *ast.BlockStatement
	if p.cur().Value == "{" {
		body = p.parseBlockStatement()
		end = body.Location.End
	} else if semi, ok := p.expectValue(";"); ok {
		end = semi.End
	} else {
		p.synchronize()
	}

	return &ast.FunctionDeclaration{
		Location:        ast.Location{Start: start, End: end},
		ID:              name,
		ReturnType:      spec,
		IsPointerReturn: isPointer,
		Params:          params,
		Body:            body,
		IsVarArgs:       isVarArgs,
	}
}

func (p *Parser) parseParameter() ast.Parameter {
	start := p.cur().Start
	spec := p.parseDeclarationSpecifiers()
	isPointer := false
	for p.cur().Value == "*" {
		p.advance()
		isPointer = true
	}
	name := ""
	end := spec.Location.End
	if p.cur().Kind == token.Identifier {
		nameTok := p.advance()
		name = nameTok.Value
		end = nameTok.End
	}
	isArray := false
	if p.cur().Value == "[" {
		p.advance()
		isArray = true
		if p.cur().Value != "]" {
			p.parseExpression()
		}
		if rb, ok := p.expectValue("]"); ok {
			end = rb.End
		}
	}
	return ast.Parameter{
		Location:  ast.Location{Start: start, End: end},
		Name:      name,
		ParamType: spec,
		IsPointer: isPointer,
		IsArray:   isArray,
	}
}

func (p *Parser) parseVariableDeclaration(start int, spec *ast.DeclarationSpecifiers, firstIsPointer bool, firstName string) *ast.VariableDeclaration {
	var decls []ast.VariableDeclarator
	decls = append(decls, p.parseDeclaratorTail(firstIsPointer, firstName))

	for p.cur().Value == "," {
		p.advance()
		isPointer := false
		for p.cur().Value == "*" {
			p.advance()
			isPointer = true
		}
		nameTok, ok := p.expectKind(token.Identifier, "identifier")
		if !ok {
			break
		}
		decls = append(decls, p.parseDeclaratorTail(isPointer, nameTok.Value))
	}

	end := p.cur().End
	if semi, ok := p.expectValue(";"); ok {
		end = semi.End
	} else {
		p.synchronize()
	}

	return &ast.VariableDeclaration{
		Location:       ast.Location{Start: start, End: end},
		TypeSpecifiers: spec,
		Declarations:   decls,
	}
}

func (p *Parser) parseDeclaratorTail(isPointer bool, name string) ast.VariableDeclarator {
	start := p.cur().Start
	isArray := false
	var size ast.Expr
	if p.cur().Value == "[" {
		isArray = true
		p.advance()
		if p.cur().Value != "]" {
			size = p.parseExpression()
		}
		p.expectValue("]")
	}
	var init ast.Expr
	if p.cur().Value == "=" {
		p.advance()
		init = p.parseAssignment()
	}
	end := start
	if init != nil {
		end = init.Loc().End
	} else if size != nil {
		end = size.Loc().End
	}
	return ast.VariableDeclarator{
		Location:    ast.Location{Start: start, End: end},
		ID:          name,
		IsPointer:   isPointer,
		IsArray:     isArray,
		ArraySize:   size,
		Initializer: init,
	}
}

// ---- statements ----

func (p *Parser) parseStatement() ast.Stmt {
	t := p.cur()
	switch {
	case t.Value == "{":
		return p.parseBlockStatement()
	case t.Value == "if":
		return p.parseIfStatement()
	case t.Value == "while":
		return p.parseWhileStatement()
	case t.Value == "for":
		return p.parseForStatement()
	case t.Value == "return":
		return p.parseReturnStatement()
	case t.Value == "break":
		p.advance()
		end := t.End
		if semi, ok := p.expectValue(";"); ok {
			end = semi.End
		}
		return &ast.BreakStatement{Location: ast.Location{Start: t.Start, End: end}}
	case t.Value == "continue":
		p.advance()
		end := t.End
		if semi, ok := p.expectValue(";"); ok {
			end = semi.End
		}
		return &ast.ContinueStatement{Location: ast.Location{Start: t.Start, End: end}}
	case p.isDeclarationStart():
		return p.parseDeclarationStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	start := p.cur().Start
	p.expectValue("{")
	block := &ast.BlockStatement{}
	for p.cur().Value != "}" && !p.isEOF() {
		if stmt := p.parseStatement(); stmt != nil {
			block.Body = append(block.Body, stmt)
		}
	}
	end := p.cur().End
	if rb, ok := p.expectValue("}"); ok {
		end = rb.End
	}
	block.Location = ast.Location{Start: start, End: end}
	return block
}

func (p *Parser) parseIfStatement() ast.Stmt {
	start := p.advance().Start // 'if'
	p.expectValue("(")
	test := p.parseExpression()
	p.expectValue(")")
	consequent := p.parseStatement()
	end := consequent.Loc().End

	var alternate ast.Stmt
	if p.cur().Value == "else" {
		p.advance()
		alternate = p.parseStatement()
		end = alternate.Loc().End
	}
	return &ast.IfStatement{Location: ast.Location{Start: start, End: end}, Test: test, Consequent: consequent, Alternate: alternate}
}

func (p *Parser) parseWhileStatement() ast.Stmt {
	start := p.advance().Start // 'while'
	p.expectValue("(")
	test := p.parseExpression()
	p.expectValue(")")
	body := p.parseStatement()
	return &ast.WhileStatement{Location: ast.Location{Start: start, End: body.Loc().End}, Test: test, Body: body}
}

func (p *Parser) parseForStatement() ast.Stmt {
	start := p.advance().Start // 'for'
	p.expectValue("(")

	var init ast.Node
	if p.cur().Value != ";" {
		if p.isDeclarationStart() {
			init = p.parseDeclarationStatement()
		} else {
			init = p.parseExpression()
			p.expectValue(";")
		}
	} else {
		p.advance()
	}

	var test ast.Expr
	if p.cur().Value != ";" {
		test = p.parseExpression()
	}
	p.expectValue(";")

	var update ast.Expr
	if p.cur().Value != ")" {
		update = p.parseExpression()
	}
	p.expectValue(")")

	body := p.parseStatement()
	return &ast.ForStatement{Location: ast.Location{Start: start, End: body.Loc().End}, Init: init, Test: test, Update: update, Body: body}
}

func (p *Parser) parseReturnStatement() ast.Stmt {
	start := p.advance().Start // 'return'
	var arg ast.Expr
	if p.cur().Value != ";" {
		arg = p.parseExpression()
	}
	end := p.cur().End
	if semi, ok := p.expectValue(";"); ok {
		end = semi.End
	} else {
		p.synchronize()
	}
	return &ast.ReturnStatement{Location: ast.Location{Start: start, End: end}, Argument: arg}
}

// parseDeclarationStatement parses a VariableDeclaration appearing as a
// statement (block body or for-init); it does not accept function
// declarations, which are a program-level-only construct.
func (p *Parser) parseDeclarationStatement() *ast.VariableDeclaration {
	start := p.cur().Start
	spec := p.parseDeclarationSpecifiers()
	isPointer := false
	for p.cur().Value == "*" {
		p.advance()
		isPointer = true
	}
	nameTok, ok := p.expectKind(token.Identifier, "identifier")
	if !ok {
		p.synchronize()
		return &ast.VariableDeclaration{Location: ast.Location{Start: start, End: start}, TypeSpecifiers: spec}
	}
	return p.parseVariableDeclaration(start, spec, isPointer, nameTok.Value)
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	start := p.cur().Start
	expr := p.parseExpression()
	end := p.cur().End
	if semi, ok := p.expectValue(";"); ok {
		end = semi.End
	} else {
		p.synchronize()
	}
	if expr == nil {
		return nil
	}
	return &ast.ExpressionStatement{Location: ast.Location{Start: start, End: end}, Expression: expr}
}

// ---- expressions ----
// Precedence, lowest to highest (spec.md §4.2):
//   assignment (right-assoc, lowest) > || > && > ==,!= > <,>,<=,>= > +,- > *,/,%

func (p *Parser) parseExpression() ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() ast.Expr {
	left := p.parseLogicalOr()
	if p.cur().Value == "=" {
		p.advance()
		right := p.parseAssignment() // right-associative
		return &ast.AssignmentExpression{
			Location: ast.Location{Start: left.Loc().Start, End: right.Loc().End},
			Operator: "=",
			Left:     left,
			Right:    right,
		}
	}
	return left
}

func (p *Parser) parseLogicalOr() ast.Expr {
	left := p.parseLogicalAnd()
	for p.cur().Value == "||" {
		op := p.advance().Value
		right := p.parseLogicalAnd()
		left = binary(left, op, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expr {
	left := p.parseEquality()
	for p.cur().Value == "&&" {
		op := p.advance().Value
		right := p.parseEquality()
		left = binary(left, op, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expr {
	left := p.parseRelational()
	for p.cur().Value == "==" || p.cur().Value == "!=" {
		op := p.advance().Value
		right := p.parseRelational()
		left = binary(left, op, right)
	}
	return left
}

func (p *Parser) parseRelational() ast.Expr {
	left := p.parseAdditive()
	for p.cur().Value == "<" || p.cur().Value == ">" || p.cur().Value == "<=" || p.cur().Value == ">=" {
		op := p.advance().Value
		right := p.parseAdditive()
		left = binary(left, op, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	for p.cur().Value == "+" || p.cur().Value == "-" {
		op := p.advance().Value
		right := p.parseMultiplicative()
		left = binary(left, op, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expr {
	left := p.parseUnary()
	for p.cur().Value == "*" || p.cur().Value == "/" || p.cur().Value == "%" {
		op := p.advance().Value
		right := p.parseUnary()
		left = binary(left, op, right)
	}
	return left
}

func binary(left ast.Expr, op string, right ast.Expr) ast.Expr {
	return &ast.BinaryExpression{
		Location: ast.Location{Start: left.Loc().Start, End: right.Loc().End},
		Operator: op,
		Left:     left,
		Right:    right,
	}
}

var prefixOperators = map[string]bool{
	"!": true, "-": true, "~": true, "++": true, "--": true, "&": true, "*": true,
}

func (p *Parser) parseUnary() ast.Expr {
	t := p.cur()
	if prefixOperators[t.Value] {
		p.advance()
		arg := p.parseUnary()
		end := t.End
		if arg != nil {
			end = arg.Loc().End
		}
		return &ast.UnaryExpression{Location: ast.Location{Start: t.Start, End: end}, Operator: t.Value, Argument: arg, Prefix: true}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	expr := p.parsePrimary()
	for {
		switch p.cur().Value {
		case "++", "--":
			op := p.advance()
			expr = &ast.UnaryExpression{Location: ast.Location{Start: expr.Loc().Start, End: op.End}, Operator: op.Value, Argument: expr, Prefix: false}
		case "(":
			expr = p.parseCall(expr)
		default:
			return expr
		}
	}
}

func (p *Parser) parseCall(callee ast.Expr) ast.Expr {
	p.advance() // '('
	var args []ast.Expr
	if p.cur().Value != ")" {
		for {
			args = append(args, p.parseExpression())
			if p.cur().Value == "," {
				p.advance()
				continue
			}
			break
		}
	}
	end := p.cur().End
	if rp, ok := p.expectValue(")"); ok {
		end = rp.End
	}
	return &ast.CallExpression{Location: ast.Location{Start: callee.Loc().Start, End: end}, Callee: callee, Arguments: args}
}

func (p *Parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch {
	case t.Kind == token.Number:
		p.advance()
		return &ast.Literal{Location: ast.Location{Start: t.Start, End: t.End}, Value: t.Value, ValueType: ast.LiteralNumber}
	case t.Kind == token.String:
		p.advance()
		return &ast.Literal{Location: ast.Location{Start: t.Start, End: t.End}, Value: t.Value, ValueType: ast.LiteralString}
	case t.Kind == token.Char:
		p.advance()
		return &ast.Literal{Location: ast.Location{Start: t.Start, End: t.End}, Value: t.Value, ValueType: ast.LiteralChar}
	case t.Kind == token.Identifier:
		p.advance()
		return &ast.Identifier{Location: ast.Location{Start: t.Start, End: t.End}, Name: t.Value}
	case t.Value == "(":
		p.advance()
		inner := p.parseExpression()
		end := p.cur().End
		if rp, ok := p.expectValue(")"); ok {
			end = rp.End
		}
		if inner != nil {
			inner = reLoc(inner, t.Start, end)
		}
		return inner
	default:
		p.addError(fmt.Sprintf("expected expression got '%s'", t.Value))
		p.advance()
		return &ast.Literal{Location: ast.Location{Start: t.Start, End: t.End}, Value: "0", ValueType: ast.LiteralNumber}
	}
}

// reLoc widens a parenthesized subexpression's location to include the
// parentheses, preserving the invariant that a node's span covers its
// source text.
func reLoc(e ast.Expr, start, end int) ast.Expr {
	switch v := e.(type) {
	case *ast.Identifier:
		v.Location = ast.Location{Start: start, End: end}
	case *ast.Literal:
		v.Location = ast.Location{Start: start, End: end}
	case *ast.BinaryExpression:
		v.Location = ast.Location{Start: start, End: end}
	case *ast.UnaryExpression:
		v.Location = ast.Location{Start: start, End: end}
	case *ast.AssignmentExpression:
		v.Location = ast.Location{Start: start, End: end}
	case *ast.CallExpression:
		v.Location = ast.Location{Start: start, End: end}
	}
	return e
}

// parseIncludeDirective extracts the header name from a lexically
// recognized "#include <...>" or "#include \"...\"" directive.
func parseIncludeDirective(text string) (header string, system bool, ok bool) {
	const prefix = "#include"
	if len(text) < len(prefix) || text[:len(prefix)] != prefix {
		return "", false, false
	}
	rest := text[len(prefix):]
	i := 0
	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}
	if i >= len(rest) {
		return "", false, false
	}
	rest = rest[i:]
	if len(rest) < 2 {
		return "", false, false
	}
	switch rest[0] {
	case '<':
		end := indexByte(rest, '>')
		if end < 0 {
			return "", false, false
		}
		return rest[1:end], true, true
	case '"':
		end := indexByte(rest[1:], '"')
		if end < 0 {
			return "", false, false
		}
		return rest[1 : 1+end], false, true
	}
	return "", false, false
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
