package semantic

// Severity distinguishes diagnostics that block code generation from
// ones that do not (spec.md §2, §7).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code is a closed, machine-checkable diagnostic kind. spec.md §6
// requires a `code` field on every semantic diagnostic but leaves its
// values implementer-defined; SPEC_FULL.md §4 fixes this set.
type Code string

const (
	CodeRedeclaredSymbol       Code = "redeclared-symbol"
	CodeUndefinedFunction      Code = "undefined-function"
	CodeUndefinedIdentifier    Code = "undefined-identifier"
	CodeArityMismatch          Code = "arity-mismatch"
	CodeTypeMismatch           Code = "type-mismatch"
	CodeLoopControlOutsideLoop Code = "loop-control-outside-loop"
	CodeMissingMain            Code = "missing-main"
	CodeUsedBeforeInit         Code = "used-before-init"
	CodeUnusedVariable         Code = "unused-variable"
	CodeInternalFault          Code = "internal-fault"
)

// Diagnostic is one semantic error or warning.
type Diagnostic struct {
	Message     string
	Line        int
	Code        Code
	Description string
	Severity    Severity
}

func errorDiag(code Code, line int, message, description string) Diagnostic {
	return Diagnostic{Message: message, Line: line, Code: code, Description: description, Severity: SeverityError}
}

func warningDiag(code Code, line int, message, description string) Diagnostic {
	return Diagnostic{Message: message, Line: line, Code: code, Description: description, Severity: SeverityWarning}
}
