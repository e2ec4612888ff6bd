package core

import (
	"sort"
	"strings"
)

// RepairedRef records one formerly broken reference and its new spelling.
type RepairedRef struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// SkippedRef records a broken reference repair could not fix.
type SkippedRef struct {
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Col        int      `json:"col"`
	Raw        string   `json:"raw"`
	Candidates []string `json:"candidates,omitempty"`
}

// RepairResult reports the outcome of the repair operation.
type RepairResult struct {
	Repaired []RepairedRef `json:"repaired"`
	Skipped  []SkippedRef  `json:"skipped"`
	Edits    []Edit        `json:"-"`
}

// Repair tries to fix references that do not resolve: when exactly one
// declaration in the crate matches the written suffix and is visible from
// the site, the reference is respelled to its absolute path. Ambiguous and
// unmatched references are reported and left alone.
func (ix *Index) Repair() (*RepairResult, error) {
	result := &RepairResult{}
	for _, ref := range ix.unresolvedRefs {
		n := ix.prog.NodeAt(ref.Node)
		line, col := lineCol(ix.prog.Files[n.File], n.Span.Start)

		cands, err := ix.suffixMatches(ref)
		if err != nil {
			return nil, err
		}
		if len(cands) != 1 {
			result.Skipped = append(result.Skipped, SkippedRef{
				File: n.File, Line: line, Col: col, Raw: ref.Raw, Candidates: cands,
			})
			continue
		}
		result.Repaired = append(result.Repaired, RepairedRef{
			File: n.File, Line: line, Col: col, Old: ref.Raw, New: cands[0],
		})
		result.Edits = append(result.Edits, Edit{Op: OpReplace, Node: ref.Node, Text: cands[0]})
	}
	return result, nil
}

// suffixMatches finds declarations whose canonical path ends with the
// written segments and which the site can actually see.
func (ix *Index) suffixMatches(ref *PathRef) ([]string, error) {
	name := ref.Path.Name()
	rows, err := ix.db.Query(`SELECT path FROM defs WHERE name = ? ORDER BY path`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suffix := strings.Join(ref.Path.Segments, pathSep)
	sc := Scope{Module: ref.Owner, Fn: ref.Fn}
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		if !strings.HasSuffix(p, pathSep+suffix) {
			continue
		}
		full, err := ParsePath(p)
		if err != nil {
			continue
		}
		if !ix.prog.Resolve(full, sc).Valid() {
			continue
		}
		out = append(out, full.String())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
