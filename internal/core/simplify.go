package core

import "fmt"

// SimplifyOptions controls the simplify operation.
type SimplifyOptions struct {
	Files        []string // restrict to these files; empty = whole crate
	ExcludePaths []string
}

// SimplifiedRef records one reference respelled to a shorter form.
type SimplifiedRef struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// SimplifyResult reports the outcome of the simplify operation.
type SimplifyResult struct {
	Rewritten []SimplifiedRef `json:"rewritten"`
	Edits     []Edit          `json:"-"`
}

// Simplify respells expression paths to their shortest form that still
// names the same declaration: through an in-scope import when one covers
// the target, otherwise a shorter super or absolute path. Use items are
// left alone.
func Simplify(prog *Program, ix *Index, opts SimplifyOptions) (*SimplifyResult, error) {
	fileScope := make(map[string]bool)
	for _, f := range opts.Files {
		np := NormalizePath(f)
		if _, ok := prog.Files[np]; !ok {
			return nil, fmt.Errorf("file not found: %s", np)
		}
		fileScope[np] = true
	}

	result := &SimplifyResult{}
	for _, e := range ix.sortedEntries() {
		if e.pathRef == nil {
			continue
		}
		ref := e.pathRef
		n := prog.NodeAt(ref.Node)
		if len(fileScope) > 0 && !fileScope[n.File] {
			continue
		}
		if excludedFile(n.File, opts.ExcludePaths) {
			continue
		}

		sc := Scope{Module: ref.Owner, Fn: ref.Fn}
		target := e.def.Path()
		isFn := e.def.Fn != nil
		for _, c := range candidatePaths(sc, sc.Module.Path(), target) {
			if c.Kind == CandExtend {
				continue
			}
			if c.Path.WrittenLen() >= ref.Path.WrittenLen() {
				break
			}
			got := prog.Resolve(c.Path, sc)
			if !got.Valid() || (got.Fn != nil) != isFn || !got.Path().Equal(target) {
				continue
			}
			line, col := lineCol(prog.Files[n.File], n.Span.Start)
			result.Rewritten = append(result.Rewritten, SimplifiedRef{
				File: n.File,
				Line: line,
				Col:  col,
				Old:  ref.Raw,
				New:  c.Path.String(),
			})
			result.Edits = append(result.Edits, Edit{Op: OpReplace, Node: ref.Node, Text: c.Path.String()})
			break
		}
	}
	return result, nil
}
