package codegen

import "strconv"

const maxOptimizationPasses = 5

// optimize runs the peephole optimizer to a fixed point, halting early
// when a pass makes no change, capped at maxOptimizationPasses
// (spec.md §4.4).
func optimize(instrs []Instruction) ([]Instruction, int) {
	current := append([]Instruction{}, instrs...)
	passes := 0
	for passes < maxOptimizationPasses {
		next, changed := optimizePass(current)
		passes++
		current = next
		if !changed {
			break
		}
	}
	return current, passes
}

func optimizePass(instrs []Instruction) ([]Instruction, bool) {
	out, changed1 := foldConstants(instrs)
	out, changed2 := applyAlgebraicIdentities(out)
	out, changed3 := eliminateDeadStores(out)
	return out, changed1 || changed2 || changed3
}

func asNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// foldConstants replaces ADD/SUB/MUL of two numeric literals with the
// folded ASSIGN, per spec.md §4.4.
func foldConstants(instrs []Instruction) ([]Instruction, bool) {
	changed := false
	out := make([]Instruction, len(instrs))
	for i, ins := range instrs {
		if ins.Op == OpAdd || ins.Op == OpSub || ins.Op == OpMul {
			a, aok := asNumber(ins.Arg1)
			b, bok := asNumber(ins.Arg2)
			if aok && bok {
				var folded float64
				switch ins.Op {
				case OpAdd:
					folded = a + b
				case OpSub:
					folded = a - b
				case OpMul:
					folded = a * b
				}
				out[i] = Instruction{Op: OpAssign, Arg1: formatNumber(folded), Result: ins.Result, Line: ins.Line}
				changed = true
				continue
			}
		}
		out[i] = ins
	}
	return out, changed
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// applyAlgebraicIdentities implements spec.md §4.4's three identities:
// ADD x 0 → ASSIGN x; MUL x 1 → ASSIGN x; MUL _ 0 → ASSIGN 0.
func applyAlgebraicIdentities(instrs []Instruction) ([]Instruction, bool) {
	changed := false
	out := make([]Instruction, len(instrs))
	for i, ins := range instrs {
		out[i] = ins
		switch ins.Op {
		case OpAdd:
			if isZero(ins.Arg2) {
				out[i] = Instruction{Op: OpAssign, Arg1: ins.Arg1, Result: ins.Result, Line: ins.Line}
				changed = true
			} else if isZero(ins.Arg1) {
				out[i] = Instruction{Op: OpAssign, Arg1: ins.Arg2, Result: ins.Result, Line: ins.Line}
				changed = true
			}
		case OpMul:
			if isOne(ins.Arg2) {
				out[i] = Instruction{Op: OpAssign, Arg1: ins.Arg1, Result: ins.Result, Line: ins.Line}
				changed = true
			} else if isOne(ins.Arg1) {
				out[i] = Instruction{Op: OpAssign, Arg1: ins.Arg2, Result: ins.Result, Line: ins.Line}
				changed = true
			} else if isZero(ins.Arg1) || isZero(ins.Arg2) {
				out[i] = Instruction{Op: OpAssign, Arg1: "0", Result: ins.Result, Line: ins.Line}
				changed = true
			}
		}
	}
	return out, changed
}

func isZero(s string) bool {
	v, ok := asNumber(s)
	return ok && v == 0
}

func isOne(s string) bool {
	v, ok := asNumber(s)
	return ok && v == 1
}

// eliminateDeadStores drops the earlier of two consecutive ASSIGN
// instructions that target the same result, per spec.md §4.4.
func eliminateDeadStores(instrs []Instruction) ([]Instruction, bool) {
	changed := false
	out := make([]Instruction, 0, len(instrs))
	for i := 0; i < len(instrs); i++ {
		ins := instrs[i]
		if ins.Op == OpAssign && i+1 < len(instrs) {
			next := instrs[i+1]
			if next.Op == OpAssign && next.Result == ins.Result && ins.Result != "" {
				changed = true
				continue
			}
		}
		out = append(out, ins)
	}
	return out, changed
}
