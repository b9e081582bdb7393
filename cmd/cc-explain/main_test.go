package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestDumpFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, name := range dumpFlagNames {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to exist", name)
		}
	}
}

func TestNormalizeFlagsAcceptsSingleDash(t *testing.T) {
	got := normalizeFlags([]string{"-dtokens", "-dast", "file.c"})
	want := []string{"--dtokens", "--dast", "file.c"}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("normalizeFlags()[%d] = %q, want %q", i, got[i], w)
		}
	}
}

func writeTempSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing temp source: %v", err)
	}
	return path
}

func TestExplainDefaultModeReportsSummary(t *testing.T) {
	resetDumpFlags(t)
	path := writeTempSource(t, "int main() { return 0; }")

	var out, errOut bytes.Buffer
	if err := explain(path, &out, &errOut); err != nil {
		t.Fatalf("explain returned error: %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected a summary line on stdout")
	}
}

func TestExplainDumpsTAC(t *testing.T) {
	resetDumpFlags(t)
	dTAC = true
	defer func() { dTAC = false }()
	path := writeTempSource(t, "int main() { return 0; }")

	var out, errOut bytes.Buffer
	if err := explain(path, &out, &errOut); err != nil {
		t.Fatalf("explain returned error: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("FUNCTION_START main")) {
		t.Errorf("expected TAC dump to contain FUNCTION_START main, got:\n%s", out.String())
	}
}

func TestExplainMissingFileReturnsError(t *testing.T) {
	resetDumpFlags(t)
	var out, errOut bytes.Buffer
	if err := explain(filepath.Join(t.TempDir(), "missing.c"), &out, &errOut); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func resetDumpFlags(t *testing.T) {
	t.Helper()
	dTokens, dAST, dSymtab, dTAC, dOpt, dAsm, dStats = false, false, false, false, false, false, false
}
