package semantic

import "strings"

// numericRank orders numeric types for binary-expression promotion,
// per spec.md §4.3 Phase 2: "double > float > long > int".
var numericRank = map[string]int{
	"int": 0, "short": 0, "char": 0, "unsigned": 0, "signed": 0,
	"long":   1,
	"float":  2,
	"double": 3,
}

func stripQualifiers(t string) string {
	fields := strings.Fields(t)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "const" || f == "volatile" {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func isPointerType(t string) bool {
	return strings.HasSuffix(strings.TrimSpace(t), "*")
}

func pointerBase(t string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "*"))
}

func isArrayType(t string) bool {
	return strings.HasSuffix(strings.TrimSpace(t), "[]")
}

func arrayBase(t string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), "[]"))
}

func baseNumericName(t string) string {
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return t
	}
	return fields[len(fields)-1]
}

func isNumeric(t string) bool {
	_, ok := numericRank[baseNumericName(stripQualifiers(t))]
	return ok
}

// promote returns the wider of two numeric types by numericRank.
func promote(a, b string) string {
	ra, raOK := numericRank[baseNumericName(stripQualifiers(a))]
	rb, rbOK := numericRank[baseNumericName(stripQualifiers(b))]
	if !raOK {
		return b
	}
	if !rbOK {
		return a
	}
	if ra >= rb {
		return a
	}
	return b
}

// compat implements spec.md §4.3's type-compatibility relation: equal
// after stripping const/volatile; any pair of numeric types; pointers
// where either is void* or the base types are compat; T[] decays to T*.
func compat(target, source string) bool {
	target = strings.TrimSpace(stripQualifiers(target))
	source = strings.TrimSpace(stripQualifiers(source))

	if target == source {
		return true
	}
	if isArrayType(target) {
		target = arrayBase(target) + "*"
	}
	if isArrayType(source) {
		source = arrayBase(source) + "*"
	}
	if target == source {
		return true
	}
	if isNumeric(target) && isNumeric(source) {
		return true
	}
	if isPointerType(target) && isPointerType(source) {
		tb, sb := pointerBase(target), pointerBase(source)
		if tb == "void" || sb == "void" {
			return true
		}
		return compat(tb, sb)
	}
	return false
}
