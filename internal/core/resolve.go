package core

import (
	"sort"
)

// Scope is the context a path is resolved from: the owning module plus the
// enclosing fn for fn-local imports.
type Scope struct {
	Module *Module
	Fn     *Fn
}

// uses returns the in-scope import items, innermost first.
func (sc Scope) uses() []*UseItem {
	var out []*UseItem
	if sc.Fn != nil {
		for i := len(sc.Fn.Uses) - 1; i >= 0; i-- {
			out = append(out, sc.Fn.Uses[i])
		}
	}
	for i := len(sc.Module.Uses) - 1; i >= 0; i-- {
		out = append(out, sc.Module.Uses[i])
	}
	return out
}

// visibleFrom reports whether a declaration owned by owner with the given
// visibility can be named from module from. Private items are visible to the
// owning module and its descendants.
func visibleFrom(from, owner *Module, pub bool) bool {
	if pub || owner == nil {
		return true
	}
	return from.isAncestorOrSelf(owner)
}

// Resolve is the name-resolution oracle: it resolves a written path from a
// scope to a declaration, honoring imports (named and glob), sibling
// visibility, super arithmetic and privacy. The zero Def means "no
// resolution".
func (p *Program) Resolve(path ModulePath, sc Scope) Def {
	switch {
	case path.Absolute:
		return p.walkSegments(p.Root, path.Segments, sc.Module)
	case path.Supers > 0:
		base := sc.Module
		for i := 0; i < path.Supers; i++ {
			if base.Parent == nil {
				return Def{}
			}
			base = base.Parent
		}
		return p.walkSegments(base, path.Segments, sc.Module)
	default:
		return p.resolveRelative(path.Segments, sc)
	}
}

// resolveRelative resolves a path with no root or super anchor. The first
// segment is looked up through explicit imports, then the module's own
// declarations, then glob imports.
func (p *Program) resolveRelative(segs []string, sc Scope) Def {
	if len(segs) == 0 {
		return Def{Mod: sc.Module}
	}
	first := segs[0]
	rest := segs[1:]

	for _, u := range sc.uses() {
		if u.Binds(first) {
			base := p.resolveBound(u.BoundPath(first), Scope{Module: u.Owner, Fn: u.Fn})
			return p.walkFromDef(base, rest, sc.Module)
		}
	}

	if m := sc.Module.Child(first); m != nil {
		return p.walkFromDef(Def{Mod: m}, rest, sc.Module)
	}
	if f := sc.Module.FnNamed(first); f != nil {
		return p.walkFromDef(Def{Fn: f}, rest, sc.Module)
	}

	for _, u := range sc.uses() {
		if !u.Glob {
			continue
		}
		target := p.resolveBound(u.Prefix, Scope{Module: u.Owner, Fn: u.Fn})
		if target.Mod == nil {
			continue
		}
		if m := target.Mod.Child(first); m != nil && visibleFrom(sc.Module, target.Mod, m.Pub) {
			return p.walkFromDef(Def{Mod: m}, rest, sc.Module)
		}
		if f := target.Mod.FnNamed(first); f != nil && visibleFrom(sc.Module, target.Mod, f.Pub) {
			return p.walkFromDef(Def{Fn: f}, rest, sc.Module)
		}
	}
	return Def{}
}

// resolveBound resolves the path an import binds. Import paths are resolved
// from the module that owns the import and never through that module's own
// imports (no chained-import shorthand).
func (p *Program) resolveBound(path ModulePath, sc Scope) Def {
	if path.Absolute {
		return p.walkSegments(p.Root, path.Segments, sc.Module)
	}
	base := sc.Module
	for i := 0; i < path.Supers; i++ {
		if base.Parent == nil {
			return Def{}
		}
		base = base.Parent
	}
	return p.walkSegments(base, path.Segments, sc.Module)
}

func (p *Program) walkFromDef(base Def, segs []string, from *Module) Def {
	if !base.Valid() {
		return Def{}
	}
	if len(segs) == 0 {
		return base
	}
	if base.Mod == nil {
		return Def{} // cannot walk through a fn
	}
	return p.walkSegments(base.Mod, segs, from)
}

// walkSegments walks a segment chain down from base, checking visibility at
// every step. Only the final segment may name a fn.
func (p *Program) walkSegments(base *Module, segs []string, from *Module) Def {
	cur := base
	for i, seg := range segs {
		last := i == len(segs)-1
		if m := cur.Child(seg); m != nil {
			if !visibleFrom(from, cur, m.Pub) {
				return Def{}
			}
			if last {
				return Def{Mod: m}
			}
			cur = m
			continue
		}
		if last {
			if f := cur.FnNamed(seg); f != nil {
				if !visibleFrom(from, cur, f.Pub) {
					return Def{}
				}
				return Def{Fn: f}
			}
		}
		return Def{}
	}
	return Def{Mod: cur}
}

// CandidateKind classifies one way of naming the moved target from a site.
type CandidateKind int

const (
	// CandAbsolute is the root-anchored path to the new location.
	CandAbsolute CandidateKind = iota
	// CandSuper is a super-relative path from the site's post-move module.
	CandSuper
	// CandReuse is the written form through an existing import that remains
	// valid after the move; no import edit needed.
	CandReuse
	// CandExtend is the written form through an existing import after
	// extending its group with one more name.
	CandExtend
)

// Candidate is one valid spelling of the moved target from a reference site
// after the move.
type Candidate struct {
	Kind CandidateKind
	Path ModulePath // full written path for this spelling
	Use  *UseItem   // import reused or extended (CandReuse/CandExtend)
	Bind string     // name the extension binds (CandExtend)
}

// candidatePaths computes the valid ways to name newPath (the moved target's
// post-move canonical path) from a site whose post-move module path is
// siteMod. In-scope imports come from the site's original scope.
func candidatePaths(sc Scope, siteMod ModulePath, newPath ModulePath) []Candidate {
	var out []Candidate

	out = append(out, Candidate{Kind: CandAbsolute, Path: newPath})

	rel := RelativeFromModule(newPath, siteMod)
	if rel.Supers > 0 && rel.WrittenLen() < newPath.WrittenLen() {
		out = append(out, Candidate{Kind: CandSuper, Path: rel})
	}

	for _, u := range sc.uses() {
		if u.Glob || !u.Prefix.Absolute {
			continue
		}
		if !newPath.HasPrefix(u.Prefix) || len(newPath.Segments) <= len(u.Prefix.Segments) {
			continue
		}
		bind := newPath.Segments[len(u.Prefix.Segments)]
		written := ModulePath{Segments: append([]string{}, newPath.Segments[len(u.Prefix.Segments):]...)}
		kind := CandExtend
		if u.Binds(bind) {
			kind = CandReuse
		}
		out = append(out, Candidate{Kind: kind, Path: written, Use: u, Bind: bind})
	}

	// Shorter spellings first; on ties prefer reusing an import over an
	// absolute path, and absolute over super.
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := out[i].Path.WrittenLen(), out[j].Path.WrittenLen()
		if li != lj {
			return li < lj
		}
		return candidateRank(out[i].Kind) < candidateRank(out[j].Kind)
	})
	return out
}

func candidateRank(k CandidateKind) int {
	switch k {
	case CandReuse:
		return 0
	case CandExtend:
		return 1
	case CandAbsolute:
		return 2
	default:
		return 3
	}
}
