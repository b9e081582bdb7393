package semantic

import "fmt"

// finalChecks implements spec.md §4.3 Phase 3: the whole-program checks
// that can only run after Phase 1 has finished visiting every
// declaration and every read — a missing main, a variable read before
// any assignment reached it, and a declared-but-never-read variable.
func finalChecks(table *SymbolTable, p1 *phase1Walker) []Diagnostic {
	var diags []Diagnostic

	if p1.hasDeclaration {
		if _, found := table.Get("global", "main"); !found {
			diags = append(diags, errorDiag(CodeMissingMain, 0, "Missing 'main' function", ""))
		}
	}

	for _, occ := range p1.reads {
		if !occ.initializedAtRead {
			diags = append(diags, errorDiag(CodeUsedBeforeInit, occ.line,
				fmt.Sprintf("Variable '%s' used before initialization", occ.name), ""))
		}
	}

	for _, sym := range table.All() {
		if sym.Scope == "builtin" || sym.Scope == "preprocessor" {
			continue
		}
		if sym.Type == "function" || sym.Type == "macro" || sym.Type == "header" || sym.IsParameter {
			continue
		}
		if !p1.usedNames[sym.Name] {
			diags = append(diags, warningDiag(CodeUnusedVariable, sym.Line,
				fmt.Sprintf("Unused variable '%s'", sym.Name), ""))
		}
	}

	return diags
}
