package core

// PathClass labels how a written path reaches its first resolved segment.
type PathClass int

const (
	// ClassAbsolute paths start at the crate root.
	ClassAbsolute PathClass = iota
	// ClassRelativeSuper paths climb one or more parent modules first.
	ClassRelativeSuper
	// ClassImportedName paths lead with a name bound by an explicit use.
	ClassImportedName
	// ClassImportedGlob paths lead with a name visible through a glob use.
	ClassImportedGlob
	// ClassUnqualified paths lead with a sibling declared in the site's
	// own module (or the site's own scope chain).
	ClassUnqualified
	// ClassUseDecl marks sites that are use items themselves.
	ClassUseDecl
)

func (c PathClass) String() string {
	switch c {
	case ClassAbsolute:
		return "absolute"
	case ClassRelativeSuper:
		return "super"
	case ClassImportedName:
		return "imported"
	case ClassImportedGlob:
		return "glob"
	case ClassUnqualified:
		return "unqualified"
	case ClassUseDecl:
		return "use"
	}
	return "unknown"
}

// Classification records a site's path class plus the import that binds its
// leading segment, when one does.
type Classification struct {
	Class  PathClass
	Supers int
	Use    *UseItem // binding import for imported and glob sites
	Bound  string   // name the import binds the leading segment under
}

// classifySite labels one reference site. Use items classify as ClassUseDecl
// regardless of the shape of their own path; for path references the scope's
// explicit imports are consulted before glob imports, matching resolution
// order.
func classifySite(prog *Program, site *ReferenceSite) Classification {
	if site.Entry.use != nil {
		return Classification{Class: ClassUseDecl, Use: site.Entry.use}
	}
	ref := site.Entry.pathRef
	if ref.Path.Absolute {
		return Classification{Class: ClassAbsolute}
	}
	if ref.Path.Supers > 0 {
		return Classification{Class: ClassRelativeSuper, Supers: ref.Path.Supers}
	}
	head := ref.Path.Segments[0]
	sc := Scope{Module: ref.Owner, Fn: ref.Fn}
	for _, u := range sc.uses() {
		if u.Glob {
			continue
		}
		for _, name := range u.Names {
			if name == head {
				return Classification{Class: ClassImportedName, Use: u, Bound: name}
			}
		}
	}
	if sc.Module.Child(head) != nil || sc.Module.FnNamed(head) != nil {
		return Classification{Class: ClassUnqualified}
	}
	for _, u := range sc.uses() {
		if !u.Glob {
			continue
		}
		if globBinds(prog, u, head) {
			return Classification{Class: ClassImportedGlob, Use: u}
		}
	}
	return Classification{Class: ClassUnqualified}
}

// globBinds reports whether the glob import exposes a declaration named
// head at the reference site.
func globBinds(prog *Program, u *UseItem, head string) bool {
	def := prog.Resolve(u.Prefix, Scope{Module: u.Owner, Fn: u.Fn})
	if def.Mod == nil {
		return false
	}
	return def.Mod.Child(head) != nil || def.Mod.FnNamed(head) != nil
}
