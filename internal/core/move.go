package core

import (
	"fmt"
	"sort"
	"strings"
)

// MoveOptions names the declarations to relocate and where they go. Paths
// are written absolute, e.g. crate::mod1::foo into crate::mod2.
type MoveOptions struct {
	Items []string
	Dest  string
}

// RewritePlan is the full outcome of planning one move: the per-site
// decisions, the import edits they require, and the concrete text edits.
type RewritePlan struct {
	Items   []*MovedItem
	Dest    ModulePath
	Entries []PlanEntry
	Imports []*ImportEdit
	Edits   []Edit

	// Diags are pre-existing resolution failures; the move proceeds
	// around them. Notes record strategy downgrades.
	Diags []Diagnostic
	Notes []Diagnostic
}

type planner struct {
	prog    *Program
	ix      *Index
	sim     *simTree
	items   []*MovedItem
	opts    Options
	imports *importPlanner
	uses    *pendingUses
	counts  map[string]int
	notes   []Diagnostic
}

// PlanMove computes every text edit needed so all references keep naming
// the declarations they named before the move. The snapshot is not
// modified; re-planning the same move on already-rewritten sources yields
// an empty edit set.
func PlanMove(prog *Program, ix *Index, mv MoveOptions, opts Options) (*RewritePlan, error) {
	dest, err := ParsePath(mv.Dest)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	if !dest.Absolute {
		return nil, fmt.Errorf("destination %s: absolute path required", mv.Dest)
	}
	if prog.ModuleAt(dest) == nil {
		return nil, fmt.Errorf("destination module %s not found", dest)
	}

	items, err := resolveMovedItems(prog, mv.Items, dest)
	if err != nil {
		return nil, err
	}

	sim, err := simulate(prog, dest, items)
	if err != nil {
		return nil, err
	}

	pl := &planner{
		prog:    prog,
		ix:      ix,
		sim:     sim,
		items:   items,
		opts:    opts,
		imports: newImportPlanner(prog, items),
		uses:    newPendingUses(),
		counts:  make(map[string]int),
	}

	sites, err := collectSites(ix, items, opts.ExcludePaths)
	if err != nil {
		return nil, err
	}
	classes := make([]Classification, len(sites))
	for i, site := range sites {
		classes[i] = classifySite(prog, site)
	}
	pl.tally(sites, classes)

	plan := &RewritePlan{Items: items, Dest: dest, Diags: ix.Diags}
	for i, site := range sites {
		var entry PlanEntry
		if site.Entry.use != nil {
			entry, err = pl.decideUse(site)
		} else {
			entry, err = pl.decide(site, classes[i])
		}
		if err != nil {
			return nil, err
		}
		plan.Entries = append(plan.Entries, entry)
	}

	pl.assemble(plan)
	plan.Notes = pl.notes
	return plan, nil
}

// resolveMovedItems checks each named item and computes its new path. An
// item already sitting under the destination plans as a no-op, which keeps
// replanning after an applied move harmless.
func resolveMovedItems(prog *Program, raws []string, dest ModulePath) ([]*MovedItem, error) {
	var items []*MovedItem
	for _, raw := range raws {
		p, err := ParsePath(raw)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", raw, err)
		}
		if !p.Absolute {
			return nil, fmt.Errorf("item %s: absolute path required", raw)
		}
		def := prog.DefAt(p)
		if !def.Valid() {
			moved := dest.Child(p.Name())
			if def = prog.DefAt(moved); def.Valid() {
				items = append(items, &MovedItem{Def: def, OldPath: moved, NewPath: moved})
				continue
			}
			return nil, fmt.Errorf("item %s not found", raw)
		}
		old := def.Path()
		if def.Mod != nil && def.Mod.Parent == nil {
			return nil, fmt.Errorf("cannot move the crate root")
		}
		if def.Mod != nil && dest.HasPrefix(old) {
			return nil, fmt.Errorf("cannot move %s into its own subtree", old)
		}
		newPath := dest.Child(old.Name())
		if !newPath.Equal(old) {
			destMod := prog.ModuleAt(dest)
			if c := destMod.Child(old.Name()); c != nil {
				return nil, fmt.Errorf("destination %s already declares %s", dest, old.Name())
			}
			if f := destMod.FnNamed(old.Name()); f != nil {
				return nil, fmt.Errorf("destination %s already declares %s", dest, old.Name())
			}
		}
		items = append(items, &MovedItem{Def: def, OldPath: old, NewPath: newPath})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no items to move")
	}
	return items, nil
}

// decideUse rewrites a use item whose bound path or glob prefix points into
// a moved subtree, or whose prefix breaks because the item itself moves.
func (pl *planner) decideUse(site *ReferenceSite) (PlanEntry, error) {
	entry := PlanEntry{Site: site, Class: Classification{Class: ClassUseDecl, Use: site.Entry.use}}
	u := site.Entry.use
	st := pl.uses.get(u)
	scope := ImportScope{Module: u.Owner, Fn: u.Fn}

	if site.Entry.useName == "" {
		// Glob prefix into a moved subtree follows the subtree. Coverage is
		// tested on the resolved module so super-written prefixes count too.
		if it := pl.covering(site.Target.Path()); it != nil {
			next := site.Target.Path().Rebase(it.OldPath, it.NewPath)
			if !pl.sim.resolvesTo(next, site.siteScope(), pl.targetNew(site), false) {
				return entry, pl.unreachable(site)
			}
			st.Prefix = next
			entry.Kind = PlanRewriteUse
		}
		return entry, nil
	}

	name := site.Entry.useName
	bound := u.BoundPath(name)
	newBound := bound
	if it := pl.covering(site.Target.Path()); it != nil {
		newBound = site.Target.Path().Rebase(it.OldPath, it.NewPath)
	} else if site.Outgoing {
		// The import moves with its scope; respell the bound path so
		// it keeps resolving from the new location.
		sc := site.siteScope()
		isFn := site.Target.Fn != nil
		if pl.sim.resolvesTo(bound, sc, pl.targetNew(site), isFn) {
			return entry, nil
		}
		newBound = site.Target.Path()
		if !pl.sim.resolvesTo(newBound, sc, pl.targetNew(site), isFn) {
			return entry, pl.unreachable(site)
		}
	} else {
		return entry, nil
	}
	if newBound.Equal(bound) {
		return entry, nil
	}
	if !pl.sim.resolvesTo(newBound, site.siteScope(), pl.targetNew(site), site.Target.Fn != nil) {
		return entry, pl.unreachable(site)
	}

	entry.Kind = PlanRewriteUse
	if len(st.Names) == 1 {
		st.Prefix = newBound.Parent()
		return entry, nil
	}
	// The name leaves its group: drop it and import the new path on its
	// own line.
	st.removeName(name)
	entry.Import = pl.imports.rebind(scope, newBound)
	return entry, nil
}

// assemble turns decisions into concrete edits: path replacements first,
// then rewritten use items, then inserted imports.
func (pl *planner) assemble(plan *RewritePlan) {
	for _, e := range plan.Entries {
		if e.Kind == PlanReplacePath && e.Site.Entry.pathRef != nil {
			plan.Edits = append(plan.Edits, Edit{Op: OpReplace, Node: e.Site.node(), Text: e.Text})
		}
	}

	for _, imp := range pl.imports.edits {
		plan.Imports = append(plan.Imports, imp)
		if imp.Kind == ImportExtend {
			pl.uses.get(imp.Use).addName(imp.Bind)
		}
	}

	for _, st := range pl.uses.touched() {
		text := st.render()
		if text == pl.prog.NodeText(st.u.Node) {
			continue
		}
		if text == "" {
			plan.Edits = append(plan.Edits, Edit{Op: OpDeleteLine, Node: st.u.Node})
			continue
		}
		plan.Edits = append(plan.Edits, Edit{Op: OpReplace, Node: st.u.Node, Text: text})
	}

	for _, imp := range pl.imports.edits {
		if imp.Kind != ImportInsert {
			continue
		}
		text := renderImport(imp.Path)
		if anchor, ok := insertAnchor(imp.Scope, imp.Path); ok {
			plan.Edits = append(plan.Edits, Edit{Op: OpInsertAfter, Node: anchor.Node, Text: text, Indent: anchor.Indent})
			continue
		}
		top := imp.Scope.top()
		file := imp.Scope.Module.File
		if imp.Scope.Fn != nil {
			file = pl.prog.NodeAt(imp.Scope.Fn.Decl).File
		}
		plan.Edits = append(plan.Edits, Edit{Op: OpInsertAt, File: file, Offset: top.Offset, Text: text, Indent: top.Indent})
	}
}

// ChangeInfo is one planned text change in reportable form.
type ChangeInfo struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
	Old  string `json:"old,omitempty"`
	New  string `json:"new,omitempty"`
}

// Changes summarizes the plan's edits for display, ordered by position.
func (p *RewritePlan) Changes(prog *Program) []ChangeInfo {
	var out []ChangeInfo
	for _, e := range p.Edits {
		var c ChangeInfo
		switch e.Op {
		case OpReplace:
			n := prog.NodeAt(e.Node)
			line, col := lineCol(prog.Files[n.File], n.Span.Start)
			c = ChangeInfo{File: n.File, Line: line, Col: col, Old: prog.NodeText(e.Node), New: e.Text}
		case OpDeleteLine:
			n := prog.NodeAt(e.Node)
			line, col := lineCol(prog.Files[n.File], n.Span.Start)
			c = ChangeInfo{File: n.File, Line: line, Col: col, Old: prog.NodeText(e.Node)}
		case OpInsertAfter:
			n := prog.NodeAt(e.Node)
			line, col := lineCol(prog.Files[n.File], n.Span.Start)
			c = ChangeInfo{File: n.File, Line: line + 1, Col: col, New: e.Text}
		case OpInsertAt:
			line, col := lineCol(prog.Files[e.File], e.Offset)
			c = ChangeInfo{File: e.File, Line: line, Col: col, New: e.Text}
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// ApplyMove runs the plan against the sources and physically relocates the
// moved declarations: inline blocks and fns are cut and pasted into the
// destination body, file modules move on disk along with their submodule
// files and their mod declarations.
func ApplyMove(prog *Program, ix *Index, mv MoveOptions, opts Options) (map[string]string, *RewritePlan, error) {
	plan, err := PlanMove(prog, ix, mv, opts)
	if err != nil {
		return nil, nil, err
	}
	files, adjust, err := applyEditsAdjust(prog, plan.Edits)
	if err != nil {
		return nil, plan, err
	}

	ops := make(map[string][]rawOp)
	renames := make(map[string]string)

	destMod := prog.ModuleAt(plan.Dest)
	for _, it := range plan.Items {
		if it.OldPath.Equal(it.NewPath) {
			continue
		}
		var declNode NodeID
		if it.Def.Fn != nil {
			declNode = it.Def.Fn.Decl
		} else {
			declNode = it.Def.Mod.Decl
		}
		n := prog.NodeAt(declNode)
		src := prog.Files[n.File]
		cutStart := lineStart(src, n.Span.Start)
		cutEnd := n.Span.End
		if cutEnd < len(src) && src[cutEnd] == '\n' {
			cutEnd++
		}

		fileModule := it.Def.Mod != nil && !it.Def.Mod.Inline
		if fileModule {
			// The declaration line moves to the destination; the file
			// itself is renamed along with any nested submodule files.
			declText := strings.TrimSpace(files[n.File][adjust(n.File, n.Span.Start):adjust(n.File, n.Span.End)])
			ops[n.File] = append(ops[n.File], rawOp{adjust(n.File, cutStart), adjust(n.File, cutEnd), ""})
			insertDecl(ops, files, prog, adjust, destMod, declText)

			oldFile := it.Def.Mod.File
			newFile := childDir(destMod) + it.OldPath.Name() + ".rs"
			renames[oldFile] = newFile
			oldDir := childDir(it.Def.Mod)
			newDir := strings.TrimSuffix(newFile, ".rs") + "/"
			for name := range prog.Files {
				if strings.HasPrefix(name, oldDir) {
					renames[name] = newDir + name[len(oldDir):]
				}
			}
			continue
		}

		body := files[n.File][adjust(n.File, n.Span.Start):adjust(n.File, n.Span.End)]
		ops[n.File] = append(ops[n.File], rawOp{adjust(n.File, cutStart), adjust(n.File, cutEnd), ""})
		insertDecl(ops, files, prog, adjust, destMod, strings.TrimRight(body, "\n"))
	}

	for file, fileOps := range ops {
		sort.Slice(fileOps, func(i, j int) bool { return fileOps[i].start > fileOps[j].start })
		src := files[file]
		for i := 1; i < len(fileOps); i++ {
			if fileOps[i].end > fileOps[i-1].start {
				return nil, plan, fmt.Errorf("%s: conflicting relocation edits", file)
			}
		}
		for _, op := range fileOps {
			src = src[:op.start] + op.text + src[op.end:]
		}
		files[file] = src
	}

	for old, next := range renames {
		files[next] = files[old]
		delete(files, old)
	}
	return files, plan, nil
}

type rawOp struct {
	start, end int
	text       string
}

// insertDecl queues text for insertion into the destination module body: at
// the end of a file module, before the closing brace of an inline one.
func insertDecl(ops map[string][]rawOp, files map[string]string, prog *Program, adjust func(string, int) int, dest *Module, text string) {
	if dest.Inline {
		src := prog.Files[dest.File]
		if ls := lineStart(src, dest.Body.End); ls > dest.Body.Start {
			pos := adjust(dest.File, ls)
			ops[dest.File] = append(ops[dest.File], rawOp{pos, pos, dest.Top.Indent + text + "\n"})
			return
		}
		// Both braces sit on the declaration line; break them apart.
		pos := adjust(dest.File, dest.Body.End)
		ops[dest.File] = append(ops[dest.File], rawOp{pos, pos, "\n" + dest.Top.Indent + text + "\n"})
		return
	}
	src := files[dest.File]
	if strings.TrimSpace(src) == "" {
		ops[dest.File] = append(ops[dest.File], rawOp{0, len(src), text + "\n"})
		return
	}
	ops[dest.File] = append(ops[dest.File], rawOp{len(src), len(src), "\n" + text + "\n"})
}

func lineStart(src string, off int) int {
	for off > 0 && src[off-1] != '\n' {
		off--
	}
	return off
}
