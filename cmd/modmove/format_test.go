package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ryotapoi/modmove/internal/core"
)

func TestParseFields(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"  ", nil},
		{"modules_total", []string{"modules_total"}},
		{"modules_total,fns_total", []string{"modules_total", "fns_total"}},
		{" refs_total , uses_total ", []string{"refs_total", "uses_total"}},
		{",,,", nil},
	}
	for _, tt := range tests {
		got := parseFields(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("parseFields(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseFields(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"json", false},
		{"text", false},
		{"yaml", true},
		{"", true},
	}
	for _, tt := range tests {
		err := validateFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func samplePlan(t *testing.T) (*core.Program, *core.RewritePlan) {
	t.Helper()
	prog, err := core.ParseProgram(map[string]string{
		"main.rs": strings.Join([]string{
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
			"",
		}, "\n"),
	})
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	ix, err := core.BuildIndex(prog)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	t.Cleanup(func() { ix.Close() })
	plan, err := core.PlanMove(prog, ix, core.MoveOptions{
		Items: []string{"crate::mod1::foo"},
		Dest:  "crate::mod2",
	}, core.DefaultOptions())
	if err != nil {
		t.Fatalf("PlanMove: %v", err)
	}
	return prog, plan
}

func TestPrintPlanText(t *testing.T) {
	prog, plan := samplePlan(t)
	var buf bytes.Buffer
	printPlanText(&buf, prog, plan)
	want := strings.Join([]string{
		"move crate::mod1::foo -> crate::mod2::foo",
		"changes: 1",
		"  main.rs:10: crate::mod1::foo::func -> crate::mod2::foo::func",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("plan text = %q, want %q", got, want)
	}
}

func TestPrintPlanJSON(t *testing.T) {
	prog, plan := samplePlan(t)
	var buf bytes.Buffer
	if err := printPlanJSON(&buf, prog, plan); err != nil {
		t.Fatalf("printPlanJSON: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if m["dest"] != "crate::mod2" {
		t.Errorf("dest = %v", m["dest"])
	}
	changes, ok := m["changes"].([]any)
	if !ok || len(changes) != 1 {
		t.Errorf("changes = %v", m["changes"])
	}
}

func TestPrintStatsText(t *testing.T) {
	r := &core.StatsResult{ModulesTotal: 3, FnsTotal: 5, UsesTotal: 2, RefsTotal: 7, UnresolvedTotal: 1}
	var buf bytes.Buffer
	printStatsText(&buf, r, nil)
	want := strings.Join([]string{
		"modules_total: 3",
		"fns_total: 5",
		"uses_total: 2",
		"refs_total: 7",
		"unresolved_total: 1",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("stats text = %q, want %q", got, want)
	}

	buf.Reset()
	printStatsText(&buf, r, []string{"fns_total"})
	if got := buf.String(); got != "fns_total: 5\n" {
		t.Errorf("filtered stats text = %q", got)
	}
}

func TestPrintStatsJSON(t *testing.T) {
	r := &core.StatsResult{ModulesTotal: 3}
	var buf bytes.Buffer
	if err := printStatsJSON(&buf, r, []string{"modules_total"}); err != nil {
		t.Fatalf("printStatsJSON: %v", err)
	}
	var m map[string]int
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(m) != 1 || m["modules_total"] != 3 {
		t.Errorf("json = %v", m)
	}
}

func TestPrintRefsText(t *testing.T) {
	r := &core.RefsResult{
		Target: "crate::util::helper",
		Refs: []core.RefInfo{
			{File: "main.rs", Line: 6, Col: 5, Kind: "expr", Raw: "helper", Module: "crate", Target: "crate::util::helper"},
		},
	}
	var buf bytes.Buffer
	printRefsText(&buf, r)
	want := strings.Join([]string{
		"target: crate::util::helper",
		"refs: 1",
		"  main.rs:6:5: [expr] helper (in crate)",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("refs text = %q, want %q", got, want)
	}
}

func TestPrintRepairText(t *testing.T) {
	r := &core.RepairResult{
		Repaired: []core.RepairedRef{
			{File: "main.rs", Line: 3, Col: 5, Old: "inner::f", New: "crate::a::inner::f"},
		},
		Skipped: []core.SkippedRef{
			{File: "main.rs", Line: 4, Col: 5, Raw: "x::f", Candidates: []string{"crate::a::x::f", "crate::b::x::f"}},
			{File: "main.rs", Line: 5, Col: 5, Raw: "gone::f"},
		},
	}
	var buf bytes.Buffer
	printRepairText(&buf, r)
	want := strings.Join([]string{
		"repaired: 1",
		"  main.rs:3:5: inner::f -> crate::a::inner::f",
		"skipped: 2",
		"  main.rs:4:5: x::f (ambiguous: crate::a::x::f, crate::b::x::f)",
		"  main.rs:5:5: gone::f (no match)",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("repair text = %q, want %q", got, want)
	}
}

func TestPrintDiagnoseText(t *testing.T) {
	r := &core.DiagnoseResult{
		DuplicateNames: []core.NameConflict{
			{Name: "helper", Paths: []string{"crate::a::helper", "crate::b::helper"}},
		},
	}
	var buf bytes.Buffer
	printDiagnoseText(&buf, r)
	want := strings.Join([]string{
		"unresolved: 0",
		"duplicate names: 1",
		"  helper: crate::a::helper, crate::b::helper",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("diagnose text = %q, want %q", got, want)
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	if !strings.HasPrefix(buf.String(), "modmove version ") {
		t.Errorf("version output = %q", buf.String())
	}
}
