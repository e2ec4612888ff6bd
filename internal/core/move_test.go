package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustApplyMove(t *testing.T, files map[string]string, items []string, dest string) (map[string]string, *RewritePlan) {
	t.Helper()
	prog, ix := mustIndex(t, files)
	out, plan, err := ApplyMove(prog, ix, MoveOptions{Items: items, Dest: dest}, DefaultOptions())
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	return out, plan
}

func mustPlanMove(t *testing.T, files map[string]string, items []string, dest string, opts Options) *RewritePlan {
	t.Helper()
	prog, ix := mustIndex(t, files)
	plan, err := PlanMove(prog, ix, MoveOptions{Items: items, Dest: dest}, opts)
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	return plan
}

func src(lines ...string) string {
	return strings.Join(append(lines, ""), "\n")
}

// --- Test 1: absolute call paths are rebased in place ---

func TestMove_AbsoluteCalls(t *testing.T) {
	out, plan := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn existing() {}",
			"}",
			"fn main() {",
			"    crate::mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn existing() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    crate::mod2::foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Entries) != 1 || plan.Entries[0].Kind != PlanReplacePath {
		t.Errorf("entries = %+v, want one path replacement", plan.Entries)
	}
}

// --- Test 2: an import of the moved item is rewritten, calls through it stay ---

func TestMove_RewriteBindingImport(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1::foo;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn anchor() {}",
			"}",
			"fn main() {",
			"    foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod2::foo;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn anchor() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 3: enough call sites in one scope share a fresh import ---

func TestMove_UsageThresholdImport(t *testing.T) {
	out, plan := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    mod1::foo::func();",
			"}",
			"fn other() {",
			"    mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"use crate::mod2::foo;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    foo::func();",
			"}",
			"fn other() {",
			"    foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Imports) != 1 || plan.Imports[0].Path.String() != "crate::mod2::foo" {
		t.Errorf("imports = %+v, want one use of crate::mod2::foo", plan.Imports)
	}
}

// --- Test 4: a lone call site inlines the full path ---

func TestMove_SingleSiteInlines(t *testing.T) {
	out, plan := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    crate::mod2::foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Imports) != 0 {
		t.Errorf("unexpected imports: %+v", plan.Imports)
	}
}

// --- Test 5: a path longer than max_inline_segments gets an import anyway ---

func TestMove_MaxInlineSegments(t *testing.T) {
	plan := mustPlanMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod d1 {",
			"    pub mod d2 {",
			"        pub mod d3 {",
			"            pub mod d4 {",
			"                pub fn keep() {}",
			"            }",
			"        }",
			"    }",
			"}",
			"fn main() {",
			"    mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::d1::d2::d3::d4", DefaultOptions())

	if len(plan.Imports) != 1 || plan.Imports[0].Path.String() != "crate::d1::d2::d3::d4::foo" {
		t.Fatalf("imports = %+v, want one use of crate::d1::d2::d3::d4::foo", plan.Imports)
	}
	var rewritten bool
	for _, e := range plan.Entries {
		if e.Kind == PlanReplacePath && e.Text == "foo::func" {
			rewritten = true
		}
	}
	if !rewritten {
		t.Errorf("entries = %+v, want a foo::func rewrite", plan.Entries)
	}
}

// --- Test 6: fn-local group imports grow instead of going inline ---

func TestMove_FnLocalGroupExtension(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"    pub fn other() {}",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    use crate::{mod1};",
			"    mod1::foo::func();",
			"    mod1::other();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub fn other() {}",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    use crate::{mod1, mod2};",
			"    mod2::foo::func();",
			"    mod1::other();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 7: a glob import over the moved subtree follows it ---

func TestMove_GlobPrefixFollows(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1::foo::*;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod2::foo::*;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 8: a call whose leading name is the moved item keeps its text ---

func TestMove_GlobCallerGetsImport(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1::*;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod1::*;",
			"use crate::mod2::foo;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 9: a group import loses the moved name to its own line ---

func TestMove_GroupSplit(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1::{foo, other};",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"    pub fn other() {}",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    foo::func();",
			"    other();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod1::other;",
			"use crate::mod2::foo;",
			"mod mod1 {",
			"    pub fn other() {}",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn main() {",
			"    foo::func();",
			"    other();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 10: references written inside moved code are respelled ---

func TestMove_OutgoingSuper(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub fn helper() {}",
			"    pub mod foo {",
			"        pub fn func() {",
			"            super::helper();",
			"        }",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub fn helper() {}",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {",
			"            crate::mod1::helper();",
			"        }",
			"    }",
			"}",
			"fn main() {}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 11: name collision downgrades the import to inline paths ---

func TestMove_CollisionDowngrade(t *testing.T) {
	out, plan := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn foo() {}",
			"fn main() {",
			"    mod1::foo::func();",
			"}",
			"fn other() {",
			"    mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"fn foo() {}",
			"fn main() {",
			"    crate::mod2::foo::func();",
			"}",
			"fn other() {",
			"    crate::mod2::foo::func();",
			"}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Notes) != 2 {
		t.Fatalf("got %d notes, want 2: %v", len(plan.Notes), plan.Notes)
	}
	for _, n := range plan.Notes {
		if n.Kind != DiagDowngrade || !strings.Contains(n.Msg, "collides") {
			t.Errorf("note = %v, want a downgrade", n)
		}
	}
}

// --- Test 12: a reference with no valid spelling aborts the plan ---

func TestMove_Unreachable(t *testing.T) {
	prog, ix := mustIndex(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    fn secret() {}",
			"    pub mod foo {",
			"        pub fn func() {",
			"            super::secret();",
			"        }",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {}",
		),
	})
	_, err := PlanMove(prog, ix, MoveOptions{Items: []string{"crate::mod1::foo"}, Dest: "crate::mod2"}, DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "no valid spelling") {
		t.Fatalf("err = %v, want no valid spelling", err)
	}
}

// --- Test 13: file modules move on disk with their declarations ---

func TestMove_FileModule(t *testing.T) {
	out, _ := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"mod mod1;",
			"mod mod2;",
			"fn main() {",
			"    crate::mod1::foo::func();",
			"}",
		),
		"mod1.rs":     "pub mod foo;\npub fn run() {}\n",
		"mod1/foo.rs": "pub fn func() {}\n",
		"mod2.rs":     "pub fn keep() {}\n",
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"mod mod1;",
			"mod mod2;",
			"fn main() {",
			"    crate::mod2::foo::func();",
			"}",
		),
		"mod1.rs":     "pub fn run() {}\n",
		"mod2.rs":     "pub fn keep() {}\n\npub mod foo;\n",
		"mod2/foo.rs": "pub fn func() {}\n",
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 14: replanning an applied move changes nothing ---

func TestMove_Idempotent(t *testing.T) {
	files := map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    mod1::foo::func();",
			"}",
			"fn other() {",
			"    mod1::foo::func();",
			"}",
		),
	}
	first, _ := mustApplyMove(t, files, []string{"crate::mod1::foo"}, "crate::mod2")
	second, plan := mustApplyMove(t, first, []string{"crate::mod1::foo"}, "crate::mod2")

	if len(plan.Edits) != 0 {
		t.Errorf("second plan has %d edits, want 0", len(plan.Edits))
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second apply changed sources (-first +second):\n%s", diff)
	}
}

// --- Test 15: excluded files are left alone ---

func TestMove_ExcludePaths(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludePaths = []string{"main.rs"}
	plan := mustPlanMove(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    crate::mod1::foo::func();",
			"}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2", opts)

	if len(plan.Entries) != 0 || len(plan.Edits) != 0 {
		t.Errorf("excluded file still planned: entries=%d edits=%d", len(plan.Entries), len(plan.Edits))
	}
}

// --- Test 16: validation errors ---

func TestMove_Validation(t *testing.T) {
	base := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn foo() {}",
			"}",
			"mod mod3 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    crate::mod1::foo::func();",
			"}",
		),
	}
	cases := []struct {
		name    string
		items   []string
		dest    string
		wantErr string
	}{
		{"dest missing", []string{"crate::mod1::foo"}, "crate::nowhere", "destination module crate::nowhere not found"},
		{"item missing", []string{"crate::gone"}, "crate::mod3", "item crate::gone not found"},
		{"relative item", []string{"mod1::foo"}, "crate::mod3", "absolute path required"},
		{"crate root", []string{"crate"}, "crate::mod3", "cannot move the crate root"},
		{"own subtree", []string{"crate::mod1"}, "crate::mod1::foo", "into its own subtree"},
		{"dest name taken", []string{"crate::mod1::foo"}, "crate::mod2", "already declares foo"},
		{"no items", nil, "crate::mod3", "no items to move"},
		{"overlapping items", []string{"crate::mod1", "crate::mod1::foo"}, "crate::mod3", "two moved items"},
	}
	for _, c := range cases {
		prog, ix := mustIndex(t, base)
		_, err := PlanMove(prog, ix, MoveOptions{Items: c.items, Dest: c.dest}, DefaultOptions())
		if err == nil {
			t.Errorf("%s: expected error", c.name)
			continue
		}
		if !strings.Contains(err.Error(), c.wantErr) {
			t.Errorf("%s: error %q does not contain %q", c.name, err, c.wantErr)
		}
	}
}

// --- Test 17: plan changes are reported in position order ---

func TestMove_Changes(t *testing.T) {
	files := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    crate::mod1::foo::func();",
			"}",
		),
	}
	prog, ix := mustIndex(t, files)
	plan, err := PlanMove(prog, ix, MoveOptions{Items: []string{"crate::mod1::foo"}, Dest: "crate::mod2"}, DefaultOptions())
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	changes := plan.Changes(prog)
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1: %+v", len(changes), changes)
	}
	c := changes[0]
	if c.File != "main.rs" || c.Line != 10 || c.Old != "crate::mod1::foo::func" || c.New != "crate::mod2::foo::func" {
		t.Errorf("change = %+v", c)
	}
}

// --- Test 18: a super-written import of the moved item is rewritten too ---

func TestMove_RewriteSuperBindingImport(t *testing.T) {
	out, plan := mustApplyMove(t, map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn anchor() {}",
			"}",
			"mod caller {",
			"    use super::mod1::foo;",
			"    pub fn call() {",
			"        foo::func();",
			"    }",
			"}",
			"fn main() {}",
		),
	}, []string{"crate::mod1::foo"}, "crate::mod2")

	want := map[string]string{
		"main.rs": src(
			"mod mod1 {",
			"}",
			"mod mod2 {",
			"    pub fn anchor() {}",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"}",
			"mod caller {",
			"    use crate::mod2::foo;",
			"    pub fn call() {",
			"        foo::func();",
			"    }",
			"}",
			"fn main() {}",
		),
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Imports) != 0 {
		t.Errorf("imports = %+v, want none", plan.Imports)
	}
	kinds := []PlanKind{}
	for _, e := range plan.Entries {
		kinds = append(kinds, e.Kind)
	}
	if diff := cmp.Diff([]PlanKind{PlanRewriteUse, PlanUnchanged}, kinds); diff != "" {
		t.Errorf("entry kinds mismatch (-want +got):\n%s", diff)
	}
}

// --- Test 19: items sharing a destination module trip the threshold together ---

func TestMove_ThresholdGroupsByDestination(t *testing.T) {
	plan := mustPlanMove(t, map[string]string{
		"main.rs": src(
			"use crate::mod1;",
			"mod mod1 {",
			"    pub mod foo {",
			"        pub fn func() {}",
			"    }",
			"    pub mod bar {",
			"        pub fn gunc() {}",
			"    }",
			"}",
			"mod mod2 {",
			"    pub fn keep() {}",
			"}",
			"fn main() {",
			"    mod1::foo::func();",
			"    mod1::bar::gunc();",
			"}",
		),
	}, []string{"crate::mod1::foo", "crate::mod1::bar"}, "crate::mod2", DefaultOptions())

	var imports []string
	for _, imp := range plan.Imports {
		imports = append(imports, imp.Path.String())
	}
	if diff := cmp.Diff([]string{"crate::mod2::foo", "crate::mod2::bar"}, imports); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
	var texts []string
	for _, e := range plan.Entries {
		if e.Kind == PlanReplacePath {
			texts = append(texts, e.Text)
		}
	}
	if diff := cmp.Diff([]string{"foo::func", "bar::gunc"}, texts); diff != "" {
		t.Errorf("replacements mismatch (-want +got):\n%s", diff)
	}
}
