package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- Test 1: verbose paths shrink through in-scope imports ---

func TestSimplify(t *testing.T) {
	prog, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"use crate::util;",
			"mod util {",
			"    pub mod inner {",
			"        pub fn helper() {}",
			"    }",
			"}",
			"fn main() {",
			"    crate::util::inner::helper();",
			"    util::inner::helper();",
			"}",
		),
	})
	result, err := Simplify(prog, ix, SimplifyOptions{})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	want := []SimplifiedRef{
		{File: "main.rs", Line: 8, Col: 5, Old: "crate::util::inner::helper", New: "util::inner::helper"},
	}
	if diff := cmp.Diff(want, result.Rewritten); diff != "" {
		t.Errorf("rewritten mismatch (-want +got):\n%s", diff)
	}

	out, err := ApplyEdits(prog, result.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if !strings.Contains(out["main.rs"], "    util::inner::helper();\n    util::inner::helper();\n") {
		t.Errorf("rewritten source:\n%s", out["main.rs"])
	}
}

// --- Test 2: absolute paths shrink to shorter super spellings ---

func TestSimplify_Super(t *testing.T) {
	prog, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod a {",
			"    pub fn target() {}",
			"    pub mod b {",
			"        pub fn caller() {",
			"            crate::a::target();",
			"        }",
			"    }",
			"}",
			"fn main() {}",
		),
	})
	result, err := Simplify(prog, ix, SimplifyOptions{})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(result.Rewritten) != 1 || result.Rewritten[0].New != "super::target" {
		t.Fatalf("rewritten = %+v, want super::target", result.Rewritten)
	}
}

// --- Test 3: file restriction ---

func TestSimplify_FileScope(t *testing.T) {
	prog, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod one;",
			"mod two;",
			"mod util {",
			"    pub fn helper() {}",
			"}",
			"fn main() {}",
		),
		"one.rs": "use crate::util;\npub fn f() {\n    crate::util::helper();\n}\n",
		"two.rs": "use crate::util;\npub fn g() {\n    crate::util::helper();\n}\n",
	})
	result, err := Simplify(prog, ix, SimplifyOptions{Files: []string{"one.rs"}})
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(result.Rewritten) != 1 || result.Rewritten[0].File != "one.rs" || result.Rewritten[0].New != "util::helper" {
		t.Errorf("rewritten = %+v, want one util::helper rewrite in one.rs", result.Rewritten)
	}

	if _, err := Simplify(prog, ix, SimplifyOptions{Files: []string{"missing.rs"}}); err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("err = %v, want file not found", err)
	}
}
