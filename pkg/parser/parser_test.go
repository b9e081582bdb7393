package parser

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/cc4stage/cc4/pkg/ast"
	"github.com/cc4stage/cc4/pkg/lexer"
)

// TestSpec is one fixture case from testdata/parse.yaml, grounded in the
// teacher's own pkg/parser/parser_test.go TestParseYAML fixture pattern.
type TestSpec struct {
	Name          string `yaml:"name"`
	Input         string `yaml:"input"`
	TopLevelCount int    `yaml:"topLevelCount"`
	FunctionName  string `yaml:"functionName"`
	BodyStmtCount int    `yaml:"bodyStmtCount"`
}

type TestFile struct {
	Tests []TestSpec `yaml:"tests"`
}

func TestParseYAML(t *testing.T) {
	data, err := os.ReadFile("testdata/parse.yaml")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var tf TestFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	for _, tc := range tf.Tests {
		t.Run(tc.Name, func(t *testing.T) {
			toks := lexer.Lex(tc.Input)
			prog, errs := Parse(toks)
			if len(errs) != 0 {
				t.Fatalf("unexpected syntax errors: %v", errs)
			}
			if len(prog.Body) != tc.TopLevelCount {
				t.Fatalf("top-level count = %d, want %d", len(prog.Body), tc.TopLevelCount)
			}

			var fn *ast.FunctionDeclaration
			for _, item := range prog.Body {
				if f, ok := item.(*ast.FunctionDeclaration); ok && f.ID == tc.FunctionName {
					fn = f
				}
			}
			if fn == nil {
				t.Fatalf("no function declaration named %q found", tc.FunctionName)
			}
			if fn.Body == nil {
				t.Fatalf("function %q has no body", tc.FunctionName)
			}
			if len(fn.Body.Body) != tc.BodyStmtCount {
				t.Fatalf("body statement count = %d, want %d", len(fn.Body.Body), tc.BodyStmtCount)
			}
		})
	}
}

func TestParseRecoversFromSyntaxError(t *testing.T) {
	// Missing semicolon: the parser must record an error and keep going
	// rather than stopping the whole program.
	toks := lexer.Lex("int main() { return 0 }")
	prog, errs := Parse(toks)
	if len(errs) == 0 {
		t.Fatalf("expected at least one syntax error")
	}
	if len(prog.Body) != 1 {
		t.Fatalf("parser should still return the partial program, got %d top-level items", len(prog.Body))
	}
}

func TestParseLocationsAreMonotonic(t *testing.T) {
	toks := lexer.Lex("int main() { return 1 + 2 * 3; }")
	prog, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected syntax errors: %v", errs)
	}
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	ret := fn.Body.Body[0].(*ast.ReturnStatement)
	if ret.Argument.Loc().Start > ret.Argument.Loc().End {
		t.Fatalf("return argument location is inverted: %+v", ret.Argument.Loc())
	}
	if ret.Location.Start > ret.Argument.Loc().Start || ret.Location.End < ret.Argument.Loc().End {
		t.Fatalf("return statement location %+v does not span its argument %+v", ret.Location, ret.Argument.Loc())
	}
}

func TestParseExpressionPrecedence(t *testing.T) {
	toks := lexer.Lex("int main() { return 1 + 2 * 3; }")
	prog, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected syntax errors: %v", errs)
	}
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	ret := fn.Body.Body[0].(*ast.ReturnStatement)
	bin, ok := ret.Argument.(*ast.BinaryExpression)
	if !ok {
		t.Fatalf("expected top-level binary expression, got %T", ret.Argument)
	}
	if bin.Operator != "+" {
		t.Fatalf("top operator = %q, want %q (multiplication must bind tighter)", bin.Operator, "+")
	}
	if _, ok := bin.Right.(*ast.BinaryExpression); !ok {
		t.Fatalf("right operand should be the multiplication subexpression, got %T", bin.Right)
	}
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	toks := lexer.Lex("int main() { x = y = 1; return 0; }")
	prog, errs := Parse(toks)
	if len(errs) != 0 {
		t.Fatalf("unexpected syntax errors: %v", errs)
	}
	fn := prog.Body[0].(*ast.FunctionDeclaration)
	stmt := fn.Body.Body[0].(*ast.ExpressionStatement)
	outer, ok := stmt.Expression.(*ast.AssignmentExpression)
	if !ok {
		t.Fatalf("expected assignment, got %T", stmt.Expression)
	}
	if _, ok := outer.Right.(*ast.AssignmentExpression); !ok {
		t.Fatalf("right-hand side should itself be an assignment, got %T", outer.Right)
	}
}
