package core

import (
	"fmt"
	"strings"
)

// RefsOptions selects which references to report.
type RefsOptions struct {
	Target       string   // written absolute path of the declaration
	Kinds        []string // "expr", "use"; empty = all
	ExcludePaths []string // glob patterns of files to skip
}

// RefInfo is one reported reference.
type RefInfo struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Kind   string `json:"kind"`
	Raw    string `json:"raw"`
	Module string `json:"module"`
	Target string `json:"target"`
}

// RefsResult lists every reference resolving to the target declaration or
// anything beneath it.
type RefsResult struct {
	Target string    `json:"target"`
	Refs   []RefInfo `json:"refs"`
}

var validRefKinds = map[string]bool{
	"expr": true,
	"use":  true,
}

// Refs reports all references into the subtree rooted at the target.
func (ix *Index) Refs(opts RefsOptions) (*RefsResult, error) {
	for _, k := range opts.Kinds {
		if !validRefKinds[k] {
			return nil, fmt.Errorf("unknown ref kind: %s", k)
		}
	}
	p, err := ParsePath(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	if !p.Absolute {
		return nil, fmt.Errorf("target %s: absolute path required", opts.Target)
	}
	def := ix.prog.DefAt(p)
	if !def.Valid() {
		return nil, fmt.Errorf("target %s not found", opts.Target)
	}

	entries, err := ix.refsUnder(def.Path())
	if err != nil {
		return nil, err
	}

	result := &RefsResult{Target: def.Path().String()}
	for _, e := range entries {
		n := ix.prog.NodeAt(e.node())
		if excludedFile(n.File, opts.ExcludePaths) {
			continue
		}
		kind := "expr"
		if e.use != nil {
			kind = "use"
		}
		if len(opts.Kinds) > 0 && !kindIn(kind, opts.Kinds) {
			continue
		}
		line, col := lineCol(ix.prog.Files[n.File], n.Span.Start)
		result.Refs = append(result.Refs, RefInfo{
			File:   n.File,
			Line:   line,
			Col:    col,
			Kind:   kind,
			Raw:    ix.prog.NodeText(e.node()),
			Module: refModule(e),
			Target: e.def.Path().String(),
		})
	}
	return result, nil
}

func kindIn(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func refModule(e *refEntry) string {
	if e.pathRef != nil {
		return e.pathRef.Owner.Path().String()
	}
	return e.use.Owner.Path().String()
}

// lineCol converts a byte offset to 1-based line and column numbers.
func lineCol(src string, off int) (int, int) {
	line := 1 + strings.Count(src[:off], "\n")
	col := off - strings.LastIndex(src[:off], "\n")
	return line, col
}
