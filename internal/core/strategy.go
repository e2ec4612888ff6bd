package core

import "fmt"

// PlanKind is the rewrite shape chosen for a reference site.
type PlanKind int

const (
	// PlanUnchanged sites keep their written text. They may still pick up
	// a supporting import edit.
	PlanUnchanged PlanKind = iota
	// PlanReplacePath sites get their path text replaced in place.
	PlanReplacePath
	// PlanRewriteUse sites are use items whose own path is rewritten.
	PlanRewriteUse
)

func (k PlanKind) String() string {
	switch k {
	case PlanUnchanged:
		return "unchanged"
	case PlanReplacePath:
		return "replace"
	case PlanRewriteUse:
		return "rewrite-use"
	}
	return "unknown"
}

// PlanEntry is the decision for one reference site.
type PlanEntry struct {
	Site   *ReferenceSite
	Class  Classification
	Kind   PlanKind
	Text   string      // replacement text for PlanReplacePath
	Import *ImportEdit // import the rewritten (or kept) text depends on
}

// unreachableError aborts the whole plan: some reference cannot be spelled
// from its post-move position at all.
type unreachableError struct {
	File string
	Pos  int
	Raw  string
}

func (e *unreachableError) Error() string {
	return fmt.Sprintf("%s: %q has no valid spelling after the move", e.File, e.Raw)
}

func (pl *planner) unreachable(site *ReferenceSite) error {
	n := pl.prog.NodeAt(site.node())
	return &unreachableError{File: n.File, Pos: n.Span.Start, Raw: pl.prog.NodeText(site.node())}
}

// covering returns the moved item whose old subtree contains path, if any.
func (pl *planner) covering(path ModulePath) *MovedItem {
	for _, it := range pl.items {
		if it.covers(path) {
			return it
		}
	}
	return nil
}

// targetNew is the target's canonical path once the move has happened.
func (pl *planner) targetNew(site *ReferenceSite) ModulePath {
	tp := site.Target.Path()
	if it := pl.covering(tp); it != nil {
		return tp.Rebase(it.OldPath, it.NewPath)
	}
	return tp
}

// siteModNew is the canonical path of the site's enclosing module once the
// move has happened.
func (pl *planner) siteModNew(site *ReferenceSite) ModulePath {
	sc := site.siteScope()
	for _, it := range pl.items {
		if it.Def.Fn != nil && sc.Fn == it.Def.Fn {
			return it.NewPath.Parent()
		}
	}
	mp := sc.Module.Path()
	if it := pl.covering(mp); it != nil {
		return mp.Rebase(it.OldPath, it.NewPath)
	}
	return mp
}

// countKey groups usage counts by destination module, so items landing in
// the same module share one count per scope.
func (pl *planner) countKey(scope ImportScope, it *MovedItem) string {
	return scope.key() + "\x00" + it.NewPath.Parent().String()
}

// tally counts, per import scope, how many call sites reach into each
// destination module so the usage threshold can pick between an inline path
// and a shared import.
func (pl *planner) tally(sites []*ReferenceSite, classes []Classification) {
	for i, site := range sites {
		if site.Outgoing || site.Entry.pathRef == nil {
			continue
		}
		switch classes[i].Class {
		case ClassImportedName, ClassImportedGlob, ClassUnqualified:
			scope := importScopeFor(site.siteScope())
			pl.counts[pl.countKey(scope, site.Item)]++
		}
	}
}

// pathBelowItem spells target relative to the item's binding name, e.g.
// foo::func for a target func inside moved module foo.
func pathBelowItem(targetNew ModulePath, it *MovedItem) ModulePath {
	return ModulePath{Segments: append([]string{}, targetNew.Segments[len(it.NewPath.Segments)-1:]...)}
}

// validExpansion checks that prefix joined with the written segments names
// the wanted declaration in the post-move tree.
func (pl *planner) validExpansion(prefix ModulePath, written ModulePath, sc Scope, want ModulePath, wantFn bool) bool {
	full := prefix.Join(written.Segments)
	return pl.sim.resolvesTo(full, sc, want, wantFn)
}

func (pl *planner) downgradeNote(site *ReferenceSite, path ModulePath) {
	n := pl.prog.NodeAt(site.node())
	pl.notes = append(pl.notes, Diagnostic{
		Kind: DiagDowngrade,
		File: n.File,
		Pos:  n.Span.Start,
		Msg:  fmt.Sprintf("import of %s collides with an existing name; using the full path", path),
	})
}

// decide selects the rewrite for one path reference site.
func (pl *planner) decide(site *ReferenceSite, cls Classification) (PlanEntry, error) {
	entry := PlanEntry{Site: site, Class: cls}
	ref := site.Entry.pathRef
	sc := site.siteScope()
	targetNew := pl.targetNew(site)
	isFn := site.Target.Fn != nil

	// References bound through an import that is itself being rewritten
	// keep their binding name, so the call text stays valid as written.
	// Coverage is tested on the import's resolved target, not its written
	// path, so super-written imports count too.
	if cls.Use != nil && !site.Outgoing {
		bound := cls.Use.Prefix
		if cls.Class == ClassImportedName {
			bound = cls.Use.BoundPath(cls.Bound)
		}
		uSc := Scope{Module: cls.Use.Owner, Fn: cls.Use.Fn}
		if b := pl.prog.resolveBound(bound, uSc); b.Valid() && pl.covering(b.Path()) != nil {
			return entry, nil
		}
	}

	// Written text that still names the same declaration from the new
	// shape of the tree needs nothing.
	if pl.sim.resolvesTo(ref.Path, sc, targetNew, isFn) {
		return entry, nil
	}

	if site.Outgoing {
		return pl.decideOutgoing(entry, site, cls, sc, targetNew, isFn)
	}
	return pl.decideIncoming(entry, site, cls, sc, targetNew, isFn)
}

func (pl *planner) decideIncoming(entry PlanEntry, site *ReferenceSite, cls Classification, sc Scope, targetNew ModulePath, isFn bool) (PlanEntry, error) {
	ref := site.Entry.pathRef
	switch cls.Class {
	case ClassAbsolute:
		// Absolute call paths stay absolute.
		if !pl.sim.resolvesTo(targetNew, sc, targetNew, isFn) {
			return entry, pl.unreachable(site)
		}
		entry.Kind, entry.Text = PlanReplacePath, targetNew.String()
		return entry, nil

	case ClassRelativeSuper:
		for _, c := range candidatePaths(sc, pl.siteModNew(site), targetNew) {
			if c.Kind != CandAbsolute && c.Kind != CandSuper {
				continue
			}
			if pl.sim.resolvesTo(c.Path, sc, targetNew, isFn) {
				entry.Kind, entry.Text = PlanReplacePath, c.Path.String()
				return entry, nil
			}
		}
		return entry, pl.unreachable(site)

	case ClassImportedName:
		u := cls.Use
		// A fn-local import grows its group so all its call sites keep a
		// short qualifier.
		if u.Fn != nil && targetNew.HasPrefix(u.Prefix) && len(targetNew.Segments) > len(u.Prefix.Segments) {
			bind := targetNew.Segments[len(u.Prefix.Segments)]
			written := ModulePath{Segments: append([]string{}, targetNew.Segments[len(u.Prefix.Segments):]...)}
			if pl.validExpansion(u.Prefix, written, sc, targetNew, isFn) {
				scope := ImportScope{Module: u.Owner, Fn: u.Fn}
				if imp, ok := pl.imports.requestExtend(scope, u, bind, u.Prefix.Child(bind)); ok {
					entry.Kind, entry.Text, entry.Import = PlanReplacePath, written.String(), imp
					return entry, nil
				}
			}
		}
		return pl.thresholdEntry(entry, site, sc, targetNew, isFn)

	case ClassImportedGlob, ClassUnqualified:
		// When the written leading name is itself a moved declaration, an
		// explicit import of its new location keeps the text untouched.
		head := ModulePath{Segments: []string{ref.Path.Segments[0]}}
		if f := pl.prog.Resolve(head, sc); f.Valid() {
			if it := pl.covering(f.Path()); it != nil {
				newHead := f.Path().Rebase(it.OldPath, it.NewPath)
				rest := ModulePath{Segments: append([]string{}, ref.Path.Segments...)}
				if pl.validExpansion(newHead.Parent(), rest, sc, targetNew, isFn) {
					scope := importScopeFor(sc)
					if imp, ok := pl.imports.request(scope, newHead); ok {
						entry.Import = imp
						return entry, nil
					}
					pl.downgradeNote(site, newHead)
				}
				if !pl.sim.resolvesTo(targetNew, sc, targetNew, isFn) {
					return entry, pl.unreachable(site)
				}
				entry.Kind, entry.Text = PlanReplacePath, targetNew.String()
				return entry, nil
			}
		}
		return pl.thresholdEntry(entry, site, sc, targetNew, isFn)
	}
	return entry, pl.unreachable(site)
}

// thresholdEntry applies the usage threshold: enough sites in one scope
// share an import of the moved item, a lone site inlines the full path
// unless it would be unreasonably long.
func (pl *planner) thresholdEntry(entry PlanEntry, site *ReferenceSite, sc Scope, targetNew ModulePath, isFn bool) (PlanEntry, error) {
	it := site.Item
	scope := importScopeFor(sc)
	n := pl.counts[pl.countKey(scope, it)]
	if n >= pl.opts.UsageThreshold || targetNew.WrittenLen() > pl.opts.MaxInlineSegments {
		written := pathBelowItem(targetNew, it)
		if pl.validExpansion(it.NewPath.Parent(), written, sc, targetNew, isFn) {
			if imp, ok := pl.imports.request(scope, it.NewPath); ok {
				entry.Kind, entry.Text, entry.Import = PlanReplacePath, written.String(), imp
				return entry, nil
			}
			pl.downgradeNote(site, it.NewPath)
		}
	}
	if !pl.sim.resolvesTo(targetNew, sc, targetNew, isFn) {
		return entry, pl.unreachable(site)
	}
	entry.Kind, entry.Text = PlanReplacePath, targetNew.String()
	return entry, nil
}

// decideOutgoing revalidates a reference written inside moved code whose
// target stays behind.
func (pl *planner) decideOutgoing(entry PlanEntry, site *ReferenceSite, cls Classification, sc Scope, targetNew ModulePath, isFn bool) (PlanEntry, error) {
	ref := site.Entry.pathRef

	// A former sibling reference has no qualifier to patch; it needs an
	// import at the new location.
	if cls.Class == ClassUnqualified {
		head := ModulePath{Segments: []string{ref.Path.Segments[0]}}
		if f := pl.prog.Resolve(head, sc); f.Valid() {
			rest := ModulePath{Segments: append([]string{}, ref.Path.Segments...)}
			if pl.validExpansion(f.Path().Parent(), rest, sc, targetNew, isFn) {
				scope := importScopeFor(sc)
				if imp, ok := pl.imports.request(scope, f.Path()); ok {
					entry.Import = imp
					return entry, nil
				}
				pl.downgradeNote(site, f.Path())
			}
		}
	}

	for _, c := range candidatePaths(sc, pl.siteModNew(site), targetNew) {
		switch c.Kind {
		case CandAbsolute, CandSuper:
			if pl.sim.resolvesTo(c.Path, sc, targetNew, isFn) {
				entry.Kind, entry.Text = PlanReplacePath, c.Path.String()
				return entry, nil
			}
		case CandReuse:
			if pl.validExpansion(c.Use.Prefix, c.Path, sc, targetNew, isFn) {
				entry.Kind, entry.Text = PlanReplacePath, c.Path.String()
				return entry, nil
			}
		case CandExtend:
			if pl.validExpansion(c.Use.Prefix, c.Path, sc, targetNew, isFn) {
				scope := ImportScope{Module: c.Use.Owner, Fn: c.Use.Fn}
				if imp, ok := pl.imports.requestExtend(scope, c.Use, c.Bind, c.Use.Prefix.Child(c.Bind)); ok {
					entry.Kind, entry.Text, entry.Import = PlanReplacePath, c.Path.String(), imp
					return entry, nil
				}
			}
		}
	}
	return entry, pl.unreachable(site)
}
