package core

import (
	"fmt"
	"sort"
)

// MovedItem is one declaration being relocated: its identity plus the old
// and new canonical paths.
type MovedItem struct {
	Def     Def
	OldPath ModulePath
	NewPath ModulePath
}

// covers reports whether path lies at or below the item's old location.
func (mi *MovedItem) covers(path ModulePath) bool {
	return path.HasPrefix(mi.OldPath)
}

// ReferenceSite is one textual reference the move affects. Incoming sites
// target a moved declaration; outgoing sites live inside moved code and
// target a declaration that stays behind.
type ReferenceSite struct {
	Entry    *refEntry
	Item     *MovedItem // the moved item covering the target (incoming) or
	// enclosing the site (outgoing)
	Target   Def
	Outgoing bool
}

func (s *ReferenceSite) node() NodeID { return s.Entry.node() }

// siteScope returns the resolution scope the reference was written in.
func (s *ReferenceSite) siteScope() Scope {
	if s.Entry.pathRef != nil {
		return Scope{Module: s.Entry.pathRef.Owner, Fn: s.Entry.pathRef.Fn}
	}
	return Scope{Module: s.Entry.use.Owner, Fn: s.Entry.use.Fn}
}

// insideMoved reports whether the entry's source position lies within any
// moved declaration.
func insideMoved(e *refEntry, items []*MovedItem) *MovedItem {
	sc := Scope{}
	if e.pathRef != nil {
		sc = Scope{Module: e.pathRef.Owner, Fn: e.pathRef.Fn}
	} else {
		sc = Scope{Module: e.use.Owner, Fn: e.use.Fn}
	}
	for _, it := range items {
		if it.Def.Mod != nil && sc.Module.isAncestorOrSelf(it.Def.Mod) {
			return it
		}
		if it.Def.Fn != nil && sc.Fn == it.Def.Fn {
			return it
		}
	}
	return nil
}

// collectSites enumerates every reference the move affects: all program-wide
// references into the moved subtrees, plus references inside moved code
// whose target stays behind. Pure read; unresolved references were already
// excluded at indexing time.
func collectSites(ix *Index, items []*MovedItem, excludes []string) ([]*ReferenceSite, error) {
	var sites []*ReferenceSite
	seen := make(map[int64]bool)

	// Incoming: references resolving into a moved subtree, wherever the
	// reference itself lives.
	for _, it := range items {
		entries, err := ix.refsUnder(it.OldPath)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if seen[e.id] {
				return nil, fmt.Errorf("reference indexed under two moved items: %s", e.def.Path())
			}
			seen[e.id] = true
			if excludedFile(ix.prog.NodeAt(e.node()).File, excludes) {
				continue
			}
			sites = append(sites, &ReferenceSite{Entry: e, Item: it, Target: e.def})
		}
	}

	// Outgoing: references written inside moved code whose target does not
	// move. Their written paths are re-validated against the new location.
	for _, e := range ix.sortedEntries() {
		if seen[e.id] {
			continue
		}
		it := insideMoved(e, items)
		if it == nil {
			continue
		}
		targetsMoved := false
		for _, other := range items {
			if other.covers(e.def.Path()) {
				targetsMoved = true
				break
			}
		}
		if targetsMoved {
			continue
		}
		if excludedFile(ix.prog.NodeAt(e.node()).File, excludes) {
			continue
		}
		sites = append(sites, &ReferenceSite{Entry: e, Item: it, Target: e.def, Outgoing: true})
	}

	sort.SliceStable(sites, func(i, j int) bool {
		ni, nj := ix.prog.NodeAt(sites[i].node()), ix.prog.NodeAt(sites[j].node())
		if ni.File != nj.File {
			return ni.File < nj.File
		}
		return ni.Span.Start < nj.Span.Start
	})
	return sites, nil
}

// excludedFile reports whether a file matches any exclusion glob.
func excludedFile(file string, patterns []string) bool {
	for _, p := range patterns {
		if globMatch(p, file) {
			return true
		}
	}
	return false
}
