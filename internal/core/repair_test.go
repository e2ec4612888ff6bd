package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- Test 1: a unique suffix match is respelled absolute ---

func TestRepair(t *testing.T) {
	prog, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod util {",
			"    pub mod inner {",
			"        pub fn helper() {}",
			"    }",
			"}",
			"fn main() {",
			"    inner::helper();",
			"}",
		),
	})
	result, err := ix.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("unexpected skips: %+v", result.Skipped)
	}
	if len(result.Repaired) != 1 {
		t.Fatalf("got %d repairs, want 1", len(result.Repaired))
	}
	r := result.Repaired[0]
	if r.Old != "inner::helper" || r.New != "crate::util::inner::helper" {
		t.Errorf("repair = %+v", r)
	}

	out, err := ApplyEdits(prog, result.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if !strings.Contains(out["main.rs"], "crate::util::inner::helper();") {
		t.Errorf("rewritten source:\n%s", out["main.rs"])
	}
}

// --- Test 2: ambiguous and unmatched references are skipped ---

func TestRepair_Skips(t *testing.T) {
	_, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod a {",
			"    pub fn ambig() {}",
			"}",
			"mod b {",
			"    pub fn ambig() {}",
			"}",
			"fn main() {",
			"    c::ambig();",
			"    nothing::here();",
			"}",
		),
	})
	result, err := ix.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(result.Repaired) != 0 {
		t.Errorf("unexpected repairs: %+v", result.Repaired)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("got %d skips, want 2: %+v", len(result.Skipped), result.Skipped)
	}
	if result.Skipped[0].Raw != "c::ambig" || len(result.Skipped[0].Candidates) != 0 {
		t.Errorf("skip = %+v, want c::ambig with no candidates", result.Skipped[0])
	}
	if result.Skipped[1].Raw != "nothing::here" {
		t.Errorf("skip = %+v", result.Skipped[1])
	}
}

// --- Test 3: ambiguity across two modules ---

func TestRepair_Ambiguous(t *testing.T) {
	_, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod a {",
			"    pub mod x {",
			"        pub fn f() {}",
			"    }",
			"}",
			"mod b {",
			"    pub mod x {",
			"        pub fn f() {}",
			"    }",
			"}",
			"fn main() {",
			"    x::f();",
			"}",
		),
	})
	result, err := ix.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("got %d skips, want 1: %+v", len(result.Skipped), result.Skipped)
	}
	want := []string{"crate::a::x::f", "crate::b::x::f"}
	if diff := cmp.Diff(want, result.Skipped[0].Candidates); diff != "" {
		t.Errorf("candidates mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 4: invisible matches do not count ---

func TestRepair_Privacy(t *testing.T) {
	_, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod outer {",
			"    mod hidden {",
			"        pub fn f() {}",
			"    }",
			"}",
			"fn main() {",
			"    hidden::f();",
			"}",
		),
	})
	result, err := ix.Repair()
	if err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(result.Repaired) != 0 {
		t.Errorf("repaired a path the site cannot see: %+v", result.Repaired)
	}
	if len(result.Skipped) != 1 || len(result.Skipped[0].Candidates) != 0 {
		t.Errorf("skipped = %+v, want one skip with no visible candidates", result.Skipped)
	}
}
