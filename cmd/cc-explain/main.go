// Command cc-explain is a development/demo harness around the four
// pipeline stages (spec.md §6: "the core is a library; the UI layer is
// external"). It is modeled directly on the teacher's
// cmd/ralph-cc/main.go dump-flag design: one boolean flag per stage,
// CompCert-style single-dash flags normalized to double-dash for pflag.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cc4stage/cc4/pkg/ast"
	"github.com/cc4stage/cc4/pkg/codegen"
	"github.com/cc4stage/cc4/pkg/lexer"
	"github.com/cc4stage/cc4/pkg/parser"
	"github.com/cc4stage/cc4/pkg/semantic"
	"github.com/cc4stage/cc4/pkg/token"
)

var version = "0.1.0"

var (
	dTokens bool
	dAST    bool
	dSymtab bool
	dTAC    bool
	dOpt    bool
	dAsm    bool
	dStats  bool
)

// dumpFlagNames lists every stage flag that accepts CompCert-style
// single-dash input (e.g. -dtokens), mirroring the teacher's
// debugFlagNames/normalizeFlags pair.
var dumpFlagNames = []string{"dtokens", "dast", "dsymtab", "dtac", "dopt", "dasm", "dstats"}

func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, name := range dumpFlagNames {
			if arg == "-"+name {
				result[i] = "--" + name
				break
			}
		}
	}
	return result
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cc-explain [file]",
		Short:         "cc-explain runs the lex/parse/analyze/generate pipeline and dumps a stage",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return explain(args[0], out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	registerDumpFlags(rootCmd.Flags())
	return rootCmd
}

// registerDumpFlags binds each stage's dump flag directly against a
// *pflag.FlagSet, the type cobra.Command.Flags() returns.
func registerDumpFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&dTokens, "dtokens", false, "dump the token stream")
	flags.BoolVar(&dAST, "dast", false, "dump the parsed AST shape")
	flags.BoolVar(&dSymtab, "dsymtab", false, "dump the symbol table")
	flags.BoolVar(&dTAC, "dtac", false, "dump raw three-address code")
	flags.BoolVar(&dOpt, "dopt", false, "dump optimized three-address code")
	flags.BoolVar(&dAsm, "dasm", false, "dump x86-64 assembly")
	flags.BoolVar(&dStats, "dstats", false, "dump codegen statistics")
}

func explain(filename string, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "cc-explain: error reading %s: %v\n", filename, err)
		return err
	}
	source := string(content)

	tokens := lexer.Lex(source)
	if dTokens {
		dumpTokens(out, tokens)
	}

	program, syntaxErrs := parser.Parse(tokens)
	for _, e := range syntaxErrs {
		fmt.Fprintf(errOut, "%s: syntax error: %s\n", filename, e.Message)
	}
	if dAST {
		dumpAST(out, program)
	}

	symbolTable, diags := semantic.Analyze(program, source)
	for _, d := range diags {
		fmt.Fprintf(errOut, "%s:%d: %s: %s [%s]\n", filename, d.Line, d.Severity, d.Message, d.Code)
	}
	if dSymtab {
		dumpSymtab(out, symbolTable)
	}

	result := codegen.Generate(program, toCodegenSymbols(symbolTable))
	if dTAC {
		fmt.Fprintln(out, result.IntermediateCode)
	}
	if dOpt {
		fmt.Fprintln(out, result.OptimizedCode)
	}
	if dAsm {
		fmt.Fprintln(out, result.AssemblyCode)
	}
	if dStats {
		dumpStats(out, result.Statistics)
	}

	if !dTokens && !dAST && !dSymtab && !dTAC && !dOpt && !dAsm && !dStats {
		fmt.Fprintf(out, "cc-explain: %s: %d syntax errors, %d semantic diagnostics\n",
			filename, len(syntaxErrs), len(diags))
	}

	return nil
}

func toCodegenSymbols(table map[string]semantic.DisplaySymbol) map[string]codegen.SymbolInfo {
	out := make(map[string]codegen.SymbolInfo, len(table))
	for name, sym := range table {
		out[name] = codegen.SymbolInfo{Type: sym.Type, IsArray: sym.IsArray, IsPointer: sym.IsPointer}
	}
	return out
}

func dumpTokens(out io.Writer, tokens []token.Token) {
	for _, t := range tokens {
		fmt.Fprintf(out, "%s %q [%d:%d]\n", t.Kind, t.Value, t.Line, t.Column)
	}
}

func dumpAST(out io.Writer, program *ast.Program) {
	fmt.Fprintf(out, "Program with %d top-level declarations\n", len(program.Body))
	for _, item := range program.Body {
		fmt.Fprintf(out, "  %T\n", item)
	}
}

func dumpSymtab(out io.Writer, table map[string]semantic.DisplaySymbol) {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	for _, name := range sortedStrings(names) {
		sym := table[name]
		fmt.Fprintf(out, "%s: %s (scope=%s line=%d initialized=%t)\n", name, sym.Type, sym.Scope, sym.Line, sym.Initialized)
	}
}

func dumpStats(out io.Writer, stats codegen.Statistics) {
	fmt.Fprintf(out, "instructions: %d\n", stats.InstructionCount)
	fmt.Fprintf(out, "optimizedInstructions: %d\n", stats.OptimizedInstructionCount)
	fmt.Fprintf(out, "tempVariables: %d\n", stats.TempVariables)
	fmt.Fprintf(out, "labels: %d\n", stats.Labels)
	fmt.Fprintf(out, "optimizationPasses: %d\n", stats.OptimizationPasses)
	fmt.Fprintf(out, "includedHeaders: %s\n", strings.Join(stats.IncludedHeaders, ", "))
}

func sortedStrings(in []string) []string {
	out := append([]string{}, in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
