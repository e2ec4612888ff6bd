package core

import "fmt"

// simTree is a shadow copy of the module tree with the moved declarations
// already reparented under the destination. Candidate spellings are checked
// against it so the plan never depends on the live snapshot changing.
type simTree struct {
	prog *Program // shadow program sharing files and arena
	mods map[*Module]*Module
	fns  map[*Fn]*Fn
}

// simulate builds the post-move tree. The live program is untouched.
func simulate(prog *Program, dest ModulePath, items []*MovedItem) (*simTree, error) {
	st := &simTree{
		mods: make(map[*Module]*Module),
		fns:  make(map[*Fn]*Fn),
	}
	root := st.cloneModule(prog.Root, nil)
	st.prog = &Program{Files: prog.Files, Root: root, nodes: prog.nodes}

	destMod := st.moduleAt(dest)
	if destMod == nil {
		return nil, fmt.Errorf("destination module %s not found", dest)
	}

	for _, it := range items {
		switch {
		case it.Def.Mod != nil:
			m := st.mods[it.Def.Mod]
			parent := m.Parent
			out := parent.Children[:0]
			for _, c := range parent.Children {
				if c != m {
					out = append(out, c)
				}
			}
			parent.Children = out
			m.Parent = destMod
			destMod.Children = append(destMod.Children, m)
		case it.Def.Fn != nil:
			f := st.fns[it.Def.Fn]
			owner := f.Owner
			out := owner.Fns[:0]
			for _, g := range owner.Fns {
				if g != f {
					out = append(out, g)
				}
			}
			owner.Fns = out
			f.Owner = destMod
			destMod.Fns = append(destMod.Fns, f)
		}
	}
	return st, nil
}

func (st *simTree) cloneModule(m *Module, parent *Module) *Module {
	c := &Module{
		Name:   m.Name,
		Pub:    m.Pub,
		Parent: parent,
		File:   m.File,
		Body:   m.Body,
		Decl:   m.Decl,
		Inline: m.Inline,
		Top:    m.Top,
		DefID:  m.DefID,
	}
	st.mods[m] = c
	for _, f := range m.Fns {
		c.Fns = append(c.Fns, st.cloneFn(f, c))
	}
	for _, u := range m.Uses {
		c.Uses = append(c.Uses, st.cloneUse(u, c, nil))
	}
	for _, ch := range m.Children {
		c.Children = append(c.Children, st.cloneModule(ch, c))
	}
	return c
}

func (st *simTree) cloneFn(f *Fn, owner *Module) *Fn {
	c := &Fn{
		Name:  f.Name,
		Pub:   f.Pub,
		Owner: owner,
		Decl:  f.Decl,
		Body:  f.Body,
		Top:   f.Top,
		DefID: f.DefID,
	}
	st.fns[f] = c
	for _, u := range f.Uses {
		c.Uses = append(c.Uses, st.cloneUse(u, owner, c))
	}
	return c
}

func (st *simTree) cloneUse(u *UseItem, owner *Module, fn *Fn) *UseItem {
	c := *u
	c.Owner = owner
	c.Fn = fn
	return &c
}

// moduleAt walks an absolute path down the shadow tree.
func (st *simTree) moduleAt(path ModulePath) *Module {
	cur := st.prog.Root
	for _, seg := range path.Segments {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// scopeFor maps a live scope onto the shadow tree.
func (st *simTree) scopeFor(sc Scope) Scope {
	out := Scope{Module: st.mods[sc.Module]}
	if sc.Fn != nil {
		out.Fn = st.fns[sc.Fn]
		// A moved fn resolves from its new owner.
		out.Module = out.Fn.Owner
	}
	return out
}

// resolvesTo reports whether written resolves, from the shadow scope, to
// the declaration with the given post-move canonical path and kind.
func (st *simTree) resolvesTo(written ModulePath, sc Scope, want ModulePath, wantFn bool) bool {
	def := st.prog.Resolve(written, st.scopeFor(sc))
	if !def.Valid() {
		return false
	}
	if wantFn != (def.Fn != nil) {
		return false
	}
	return def.Path().Equal(want)
}
