package core

import (
	"fmt"
	"sort"
)

// DiagKind classifies planner diagnostics.
type DiagKind int

const (
	// DiagUnresolved marks a reference that did not resolve before the move.
	// The site is excluded from the plan; the error pre-dates the move.
	DiagUnresolved DiagKind = iota
	// DiagDowngrade marks an import that was downgraded to an inline path
	// because it would have collided with another binding in its scope.
	DiagDowngrade
)

func (k DiagKind) String() string {
	switch k {
	case DiagUnresolved:
		return "unresolved"
	case DiagDowngrade:
		return "downgrade"
	default:
		return "unknown"
	}
}

// Diagnostic is a non-fatal finding attached to a plan.
type Diagnostic struct {
	Kind DiagKind
	File string
	Pos  int
	Msg  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s: %s", d.File, d.Pos, d.Kind, d.Msg)
}

// NameConflict is a set of declarations sharing one leaf name. Duplicate
// names are where import planning has to fall back to inline paths.
type NameConflict struct {
	Name  string
	Paths []string // canonical paths, sorted
}

// DiagnoseResult reports snapshot-wide health independent of any move.
type DiagnoseResult struct {
	Unresolved     []Diagnostic
	DuplicateNames []NameConflict // sorted by name
}

// Diagnose parses and indexes a source set and reports unresolved references
// and duplicate leaf names.
func Diagnose(files map[string]string) (*DiagnoseResult, error) {
	prog, err := ParseProgram(files)
	if err != nil {
		return nil, err
	}
	ix, err := BuildIndex(prog)
	if err != nil {
		return nil, err
	}
	defer ix.Close()

	result := &DiagnoseResult{Unresolved: ix.Diags}

	rows, err := ix.db.Query(`SELECT name, path FROM defs ORDER BY name, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make(map[string][]string)
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, err
		}
		groups[name] = append(groups[name], path)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var names []string
	for name, paths := range groups {
		if len(paths) > 1 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		result.DuplicateNames = append(result.DuplicateNames, NameConflict{
			Name:  name,
			Paths: groups[name],
		})
	}
	return result, nil
}
