package codegen

import "testing"

func TestFoldConstants(t *testing.T) {
	in := []Instruction{{Op: OpAdd, Arg1: "2", Arg2: "3", Result: "t0"}}
	out, changed := foldConstants(in)
	if !changed {
		t.Fatal("expected foldConstants to report a change")
	}
	if out[0].Op != OpAssign || out[0].Arg1 != "5" {
		t.Fatalf("got %+v, want ASSIGN 5", out[0])
	}
}

func TestFoldConstantsLeavesNonNumericAlone(t *testing.T) {
	in := []Instruction{{Op: OpAdd, Arg1: "x", Arg2: "y", Result: "t0"}}
	out, changed := foldConstants(in)
	if changed {
		t.Fatal("did not expect a change for non-numeric operands")
	}
	if out[0] != in[0] {
		t.Fatalf("instruction mutated: got %+v", out[0])
	}
}

func TestApplyAlgebraicIdentities(t *testing.T) {
	tests := []struct {
		name string
		in   Instruction
		want Instruction
	}{
		{"add zero rhs", Instruction{Op: OpAdd, Arg1: "x", Arg2: "0", Result: "t0"}, Instruction{Op: OpAssign, Arg1: "x", Result: "t0"}},
		{"add zero lhs", Instruction{Op: OpAdd, Arg1: "0", Arg2: "x", Result: "t0"}, Instruction{Op: OpAssign, Arg1: "x", Result: "t0"}},
		{"mul one rhs", Instruction{Op: OpMul, Arg1: "x", Arg2: "1", Result: "t0"}, Instruction{Op: OpAssign, Arg1: "x", Result: "t0"}},
		{"mul zero rhs", Instruction{Op: OpMul, Arg1: "x", Arg2: "0", Result: "t0"}, Instruction{Op: OpAssign, Arg1: "0", Result: "t0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, changed := applyAlgebraicIdentities([]Instruction{tt.in})
			if !changed {
				t.Fatal("expected a change")
			}
			if out[0] != tt.want {
				t.Fatalf("got %+v, want %+v", out[0], tt.want)
			}
		})
	}
}

func TestEliminateDeadStores(t *testing.T) {
	in := []Instruction{
		{Op: OpAssign, Arg1: "1", Result: "x"},
		{Op: OpAssign, Arg1: "2", Result: "x"},
	}
	out, changed := eliminateDeadStores(in)
	if !changed {
		t.Fatal("expected a change")
	}
	if len(out) != 1 || out[0].Arg1 != "2" {
		t.Fatalf("got %+v, want only the second store to survive", out)
	}
}

func TestOptimizeStopsEarlyAtFixedPoint(t *testing.T) {
	in := []Instruction{{Op: OpAdd, Arg1: "x", Arg2: "0", Result: "t0"}}
	out, passes := optimize(in)
	if passes != 2 {
		t.Fatalf("expected one rewriting pass plus one pass confirming the fixed point, got %d", passes)
	}
	if out[0].Op != OpAssign {
		t.Fatalf("got %+v", out[0])
	}
}

func TestOptimizeCapsAtMaxPasses(t *testing.T) {
	var in []Instruction
	for i := 0; i < 10; i++ {
		in = append(in, Instruction{Op: OpAssign, Arg1: "1", Result: "x"})
	}
	_, passes := optimize(in)
	if passes > maxOptimizationPasses {
		t.Fatalf("passes = %d, want <= %d", passes, maxOptimizationPasses)
	}
}
