package semantic

import "regexp"

// spec.md §4.3 Phase P calls for a regex scan of the raw source for
// #include and #define directives, independent of (and in addition to)
// whatever the lexer itself recognized lexically. DESIGN.md's "Open
// Question resolutions" records this duplication; this repo keeps it
// here, centralized in one function, rather than splitting it further.
var (
	includeAngleRe = regexp.MustCompile(`#include\s*<([^>]+)>`)
	includeQuoteRe = regexp.MustCompile(`#include\s*"([^"]+)"`)
	defineRe       = regexp.MustCompile(`#define\s+(\w+)(?:\s+(.*))?`)
)

// scanPreprocessorDirectives seeds the "preprocessor" scope with one
// symbol per #include and the "global" scope with one symbol per
// #define, exactly as spec.md §4.3 Phase P describes.
func scanPreprocessorDirectives(table *SymbolTable, source string) {
	for _, m := range includeAngleRe.FindAllStringSubmatch(source, -1) {
		table.Define("preprocessor", Symbol{Name: m[1], Type: "header", Initialized: true})
	}
	for _, m := range includeQuoteRe.FindAllStringSubmatch(source, -1) {
		table.Define("preprocessor", Symbol{Name: m[1], Type: "header", Initialized: true})
	}
	for _, m := range defineRe.FindAllStringSubmatch(source, -1) {
		value := ""
		if len(m) > 2 {
			value = m[2]
		}
		table.Define("global", Symbol{Name: m[1], Type: "macro", Initialized: true, Value: value})
	}
}
