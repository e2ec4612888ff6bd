package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ryotapoi/modmove/internal/core"
)

// parseFields splits a comma-separated field string into a slice.
// Returns nil for empty input.
func parseFields(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateFormat checks that format is "json" or "text".
func validateFormat(format string) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %q (must be json or text)", format)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Plan / apply output ---

func planMap(prog *core.Program, plan *core.RewritePlan) map[string]any {
	items := make([]map[string]string, 0, len(plan.Items))
	for _, it := range plan.Items {
		items = append(items, map[string]string{
			"from": it.OldPath.String(),
			"to":   it.NewPath.String(),
		})
	}
	m := map[string]any{
		"items":   items,
		"dest":    plan.Dest.String(),
		"changes": plan.Changes(prog),
	}
	if len(plan.Notes) > 0 {
		m["notes"] = diagStrings(plan.Notes)
	}
	if len(plan.Diags) > 0 {
		m["diagnostics"] = diagStrings(plan.Diags)
	}
	return m
}

func diagStrings(diags []core.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.String())
	}
	return out
}

func printPlanJSON(w io.Writer, prog *core.Program, plan *core.RewritePlan) error {
	return printJSON(w, planMap(prog, plan))
}

func printPlanText(w io.Writer, prog *core.Program, plan *core.RewritePlan) {
	for _, it := range plan.Items {
		fmt.Fprintf(w, "move %s -> %s\n", it.OldPath, it.NewPath)
	}
	changes := plan.Changes(prog)
	fmt.Fprintf(w, "changes: %d\n", len(changes))
	for _, c := range changes {
		switch {
		case c.Old == "":
			fmt.Fprintf(w, "  %s:%d: + %s\n", c.File, c.Line, c.New)
		case c.New == "":
			fmt.Fprintf(w, "  %s:%d: - %s\n", c.File, c.Line, c.Old)
		default:
			fmt.Fprintf(w, "  %s:%d: %s -> %s\n", c.File, c.Line, c.Old, c.New)
		}
	}
	for _, d := range plan.Notes {
		fmt.Fprintf(w, "note: %s\n", d)
	}
	for _, d := range plan.Diags {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

func printApplyJSON(w io.Writer, prog *core.Program, plan *core.RewritePlan, dryRun bool) error {
	m := planMap(prog, plan)
	m["applied"] = !dryRun
	return printJSON(w, m)
}

func printApplyText(w io.Writer, prog *core.Program, plan *core.RewritePlan, dryRun bool) {
	printPlanText(w, prog, plan)
	if dryRun {
		fmt.Fprintln(w, "dry run: no files written")
	}
}

// --- Refs output ---

func printRefsText(w io.Writer, r *core.RefsResult) {
	fmt.Fprintf(w, "target: %s\n", r.Target)
	fmt.Fprintf(w, "refs: %d\n", len(r.Refs))
	for _, ref := range r.Refs {
		fmt.Fprintf(w, "  %s:%d:%d: [%s] %s (in %s)\n", ref.File, ref.Line, ref.Col, ref.Kind, ref.Raw, ref.Module)
	}
}

// --- Stats output ---

var statsFieldOrder = []string{
	"modules_total",
	"fns_total",
	"uses_total",
	"refs_total",
	"unresolved_total",
}

func statsValue(r *core.StatsResult, field string) int {
	switch field {
	case "modules_total":
		return r.ModulesTotal
	case "fns_total":
		return r.FnsTotal
	case "uses_total":
		return r.UsesTotal
	case "refs_total":
		return r.RefsTotal
	case "unresolved_total":
		return r.UnresolvedTotal
	}
	return 0
}

func activeStatsFields(fields []string) []string {
	if len(fields) == 0 {
		return statsFieldOrder
	}
	var out []string
	for _, f := range statsFieldOrder {
		for _, want := range fields {
			if f == want {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func printStatsJSON(w io.Writer, r *core.StatsResult, fields []string) error {
	m := make(map[string]int)
	for _, f := range activeStatsFields(fields) {
		m[f] = statsValue(r, f)
	}
	return printJSON(w, m)
}

func printStatsText(w io.Writer, r *core.StatsResult, fields []string) {
	for _, f := range activeStatsFields(fields) {
		fmt.Fprintf(w, "%s: %d\n", f, statsValue(r, f))
	}
}

// --- Diagnose output ---

func printDiagnoseJSON(w io.Writer, r *core.DiagnoseResult) error {
	m := map[string]any{
		"unresolved": diagStrings(r.Unresolved),
	}
	dups := make([]map[string]any, 0, len(r.DuplicateNames))
	for _, d := range r.DuplicateNames {
		dups = append(dups, map[string]any{"name": d.Name, "paths": d.Paths})
	}
	m["duplicate_names"] = dups
	return printJSON(w, m)
}

func printDiagnoseText(w io.Writer, r *core.DiagnoseResult) {
	fmt.Fprintf(w, "unresolved: %d\n", len(r.Unresolved))
	for _, d := range r.Unresolved {
		fmt.Fprintf(w, "  %s\n", d)
	}
	fmt.Fprintf(w, "duplicate names: %d\n", len(r.DuplicateNames))
	for _, d := range r.DuplicateNames {
		fmt.Fprintf(w, "  %s: %s\n", d.Name, strings.Join(d.Paths, ", "))
	}
}

// --- Simplify / repair output ---

func printSimplifyText(w io.Writer, r *core.SimplifyResult) {
	fmt.Fprintf(w, "rewritten: %d\n", len(r.Rewritten))
	for _, s := range r.Rewritten {
		fmt.Fprintf(w, "  %s:%d:%d: %s -> %s\n", s.File, s.Line, s.Col, s.Old, s.New)
	}
}

func printRepairText(w io.Writer, r *core.RepairResult) {
	fmt.Fprintf(w, "repaired: %d\n", len(r.Repaired))
	for _, s := range r.Repaired {
		fmt.Fprintf(w, "  %s:%d:%d: %s -> %s\n", s.File, s.Line, s.Col, s.Old, s.New)
	}
	fmt.Fprintf(w, "skipped: %d\n", len(r.Skipped))
	for _, s := range r.Skipped {
		if len(s.Candidates) > 0 {
			fmt.Fprintf(w, "  %s:%d:%d: %s (ambiguous: %s)\n", s.File, s.Line, s.Col, s.Raw, strings.Join(s.Candidates, ", "))
			continue
		}
		fmt.Fprintf(w, "  %s:%d:%d: %s (no match)\n", s.File, s.Line, s.Col, s.Raw)
	}
}
