package semantic

// builtinSignature describes one standard-library function seeded into
// the "builtin" scope during Phase P (spec.md §4.3).
type builtinSignature struct {
	name       string
	returnType string
	params     []string
	varArgs    bool
}

var builtinSignatures = []builtinSignature{
	{name: "printf", returnType: "int", params: []string{"char*"}, varArgs: true},
	{name: "scanf", returnType: "int", params: []string{"char*"}, varArgs: true},
	{name: "malloc", returnType: "void*", params: []string{"int"}},
	{name: "free", returnType: "void", params: []string{"void*"}},
	{name: "strcpy", returnType: "char*", params: []string{"char*", "char*"}},
	{name: "strlen", returnType: "int", params: []string{"char*"}},
	{name: "puts", returnType: "int", params: []string{"char*"}},
	{name: "putchar", returnType: "int", params: []string{"int"}},
	{name: "getchar", returnType: "int", params: []string{}},
	{name: "fopen", returnType: "void*", params: []string{"char*", "char*"}},
	{name: "fclose", returnType: "int", params: []string{"void*"}},
	{name: "exit", returnType: "void", params: []string{"int"}},
	{name: "memcpy", returnType: "void*", params: []string{"void*", "void*", "int"}},
	{name: "memset", returnType: "void*", params: []string{"void*", "int", "int"}},
}

// seedBuiltins registers the standard-library table into the "builtin"
// scope, per spec.md §4.3 Phase P.
func seedBuiltins(table *SymbolTable) {
	for _, b := range builtinSignatures {
		table.Define("builtin", Symbol{
			Name:        b.name,
			Type:        "function",
			ReturnType:  b.returnType,
			Params:      append([]string{}, b.params...),
			IsVarArgs:   b.varArgs,
			Initialized: true,
		})
	}
}
