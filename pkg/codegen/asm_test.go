package codegen

import (
	"strings"
	"testing"
)

func TestEmitAssemblyIncludesStartStubWhenMainPresent(t *testing.T) {
	instrs := []Instruction{
		{Op: OpLabel, Label: "main"},
		{Op: OpFunctionStart},
		{Op: OpReturn, Arg1: "0"},
		{Op: OpFunctionEnd},
	}
	out := emitAssembly(instrs, nil)
	if !strings.Contains(out, "_start:") {
		t.Fatalf("expected a _start stub, got:\n%s", out)
	}
	if !strings.Contains(out, "call main") {
		t.Fatalf("expected _start to call main, got:\n%s", out)
	}
}

func TestEmitAssemblyOmitsStartStubWithoutMain(t *testing.T) {
	instrs := []Instruction{{Op: OpLabel, Label: "helper"}}
	out := emitAssembly(instrs, nil)
	if strings.Contains(out, "_start:") {
		t.Fatalf("did not expect a _start stub, got:\n%s", out)
	}
}

func TestEmitAssemblyDataSection(t *testing.T) {
	out := emitAssembly(nil, map[string]string{"str0": `"hi"`})
	if !strings.Contains(out, ".section .data") {
		t.Fatalf("expected a data section, got:\n%s", out)
	}
	if !strings.Contains(out, `str0: .string "hi"`) {
		t.Fatalf("expected str0 directive, got:\n%s", out)
	}
}

func TestEmitAssemblyArithmeticAndCompare(t *testing.T) {
	instrs := []Instruction{
		{Op: OpAdd, Arg1: "a", Arg2: "b", Result: "t0"},
		{Op: OpLt, Arg1: "a", Arg2: "b", Result: "t1"},
	}
	out := emitAssembly(instrs, nil)
	if !strings.Contains(out, "addq") {
		t.Fatalf("expected addq, got:\n%s", out)
	}
	if !strings.Contains(out, "setl") {
		t.Fatalf("expected setl, got:\n%s", out)
	}
}
