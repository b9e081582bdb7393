package ast

import "testing"

func TestDeclarationSpecifiersTypeName(t *testing.T) {
	tests := []struct {
		name string
		spec DeclarationSpecifiers
		want string
	}{
		{
			name: "simple type",
			spec: DeclarationSpecifiers{Specifiers: []Specifier{
				{Kind: SpecTypeSpecifier, Name: "int"},
			}},
			want: "int",
		},
		{
			name: "qualified type",
			spec: DeclarationSpecifiers{Specifiers: []Specifier{
				{Kind: SpecTypeQualifier, Name: "const"},
				{Kind: SpecTypeSpecifier, Name: "int"},
			}},
			want: "const int",
		},
		{
			name: "complex type",
			spec: DeclarationSpecifiers{Specifiers: []Specifier{
				{Kind: SpecComplexType, Tag: "struct", Name: "Point"},
			}},
			want: "struct Point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.TypeName(); got != tt.want {
				t.Errorf("TypeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNodeLocImplementations(t *testing.T) {
	loc := Location{Start: 1, End: 2}
	var nodes = []Node{
		&Program{Location: loc},
		&Identifier{Location: loc},
		&Literal{Location: loc},
	}
	for _, n := range nodes {
		if n.Loc() != loc {
			t.Errorf("%T.Loc() = %v, want %v", n, n.Loc(), loc)
		}
	}
}
