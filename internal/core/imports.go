package core

import (
	"fmt"
	"sort"
	"strings"
)

// ImportScope is the body a use item belongs to or may be added to: the
// enclosing fn when it already carries imports, otherwise the enclosing
// module.
type ImportScope struct {
	Module *Module
	Fn     *Fn
}

// importScopeFor picks the scope a new import for the given site should
// land in. A fn that already has its own imports keeps them local.
func importScopeFor(sc Scope) ImportScope {
	if sc.Fn != nil && len(sc.Fn.Uses) > 0 {
		return ImportScope{Module: sc.Module, Fn: sc.Fn}
	}
	return ImportScope{Module: sc.Module}
}

func (s ImportScope) key() string {
	k := s.Module.Path().String()
	if s.Fn != nil {
		k += "#" + s.Fn.Name
	}
	return k
}

func (s ImportScope) uses() []*UseItem {
	if s.Fn != nil {
		return s.Fn.Uses
	}
	return s.Module.Uses
}

func (s ImportScope) top() InsertPoint {
	if s.Fn != nil {
		return s.Fn.Top
	}
	return s.Module.Top
}

// ImportEditKind distinguishes adding a fresh use item from folding a name
// into an existing group.
type ImportEditKind int

const (
	ImportInsert ImportEditKind = iota
	ImportExtend
)

// ImportEdit is one planned change to a scope's imports.
type ImportEdit struct {
	Kind  ImportEditKind
	Scope ImportScope
	Path  ModulePath // full path the binding covers
	Bind  string     // name the binding introduces into the scope
	Use   *UseItem   // group being extended (ImportExtend only)
}

// importPlanner serializes import requests per scope: identical requests
// collapse into one edit, and a request whose binding name is already taken
// by a different path is refused so the caller falls back to an inline
// spelling.
type importPlanner struct {
	prog  *Program
	items []*MovedItem
	byKey map[string]*ImportEdit
	bound map[string]ModulePath // scope key + name -> path it will bind
	edits []*ImportEdit
}

func newImportPlanner(prog *Program, items []*MovedItem) *importPlanner {
	return &importPlanner{
		prog:  prog,
		items: items,
		byKey: make(map[string]*ImportEdit),
		bound: make(map[string]ModulePath),
	}
}

// postMovePath maps a pre-move canonical path to its post-move spelling.
func (ip *importPlanner) postMovePath(p ModulePath) ModulePath {
	for _, it := range ip.items {
		if p.HasPrefix(it.OldPath) {
			return p.Rebase(it.OldPath, it.NewPath)
		}
	}
	return p
}

// existingBinding returns the path a name will be bound to in the scope
// once the move has happened, through explicit imports or the module's own
// declarations. Declarations that move out of the scope no longer bind.
func (ip *importPlanner) existingBinding(scope ImportScope, name string) (ModulePath, bool) {
	for _, u := range scope.uses() {
		if u.Binds(name) {
			bound := u.BoundPath(name)
			if d := ip.prog.resolveBound(bound, Scope{Module: u.Owner, Fn: u.Fn}); d.Valid() {
				bound = d.Path()
			}
			return ip.postMovePath(bound), true
		}
	}
	if scope.Fn == nil {
		here := ip.postMovePath(scope.Module.Path())
		if c := scope.Module.Child(name); c != nil {
			p := ip.postMovePath(c.Path())
			if p.Parent().Equal(here) {
				return p, true
			}
		}
		if f := scope.Module.FnNamed(name); f != nil {
			p := ip.postMovePath(f.Path())
			if p.Parent().Equal(here) {
				return p, true
			}
		}
	}
	if p, ok := ip.bound[scope.key()+"\x00"+name]; ok {
		return p, true
	}
	return ModulePath{}, false
}

// request plans a use of path in scope, binding its final segment. The
// returned edit is nil when the binding already exists; ok is false when
// the name is taken by a different path.
func (ip *importPlanner) request(scope ImportScope, path ModulePath) (*ImportEdit, bool) {
	name := path.Name()
	if prev, ok := ip.existingBinding(scope, name); ok {
		if prev.Equal(path) {
			if e, dup := ip.byKey[scope.key()+"\x00"+path.String()]; dup {
				return e, true
			}
			return nil, true
		}
		return nil, false
	}

	edit := &ImportEdit{Kind: ImportInsert, Scope: scope, Path: path, Bind: name}
	// Fold into an existing group when one already imports from the same
	// parent.
	for _, u := range scope.uses() {
		if !u.Glob && u.Prefix.Equal(path.Parent()) {
			edit = &ImportEdit{Kind: ImportExtend, Scope: scope, Path: path, Bind: name, Use: u}
			break
		}
	}
	ip.record(scope, edit)
	return edit, true
}

// requestExtend plans folding bind into the given group so that the written
// path bind::rest keeps resolving. ok is false on a name collision.
func (ip *importPlanner) requestExtend(scope ImportScope, u *UseItem, bind string, path ModulePath) (*ImportEdit, bool) {
	if prev, ok := ip.existingBinding(scope, bind); ok {
		if prev.Equal(path) {
			if e, dup := ip.byKey[scope.key()+"\x00"+path.String()]; dup {
				return e, true
			}
			return nil, true
		}
		return nil, false
	}
	edit := &ImportEdit{Kind: ImportExtend, Scope: scope, Path: path, Bind: bind, Use: u}
	ip.record(scope, edit)
	return edit, true
}

// rebind plans a fresh use of path whose binding name is already held by
// the use item being rewritten away, so no collision check applies.
func (ip *importPlanner) rebind(scope ImportScope, path ModulePath) *ImportEdit {
	if e, dup := ip.byKey[scope.key()+"\x00"+path.String()]; dup {
		return e
	}
	edit := &ImportEdit{Kind: ImportInsert, Scope: scope, Path: path, Bind: path.Name()}
	ip.record(scope, edit)
	return edit
}

func (ip *importPlanner) record(scope ImportScope, edit *ImportEdit) {
	ip.byKey[scope.key()+"\x00"+edit.Path.String()] = edit
	ip.bound[scope.key()+"\x00"+edit.Bind] = edit.Path
	ip.edits = append(ip.edits, edit)
}

// pendingUses overlays textual changes onto existing use items so several
// edits to one item collapse into a single replacement.
type pendingUses struct {
	state map[*UseItem]*useState
}

type useState struct {
	u      *UseItem
	Prefix ModulePath
	Names  []string
	Glob   bool
}

func newPendingUses() *pendingUses {
	return &pendingUses{state: make(map[*UseItem]*useState)}
}

func (p *pendingUses) get(u *UseItem) *useState {
	if s, ok := p.state[u]; ok {
		return s
	}
	s := &useState{
		u:      u,
		Prefix: u.Prefix,
		Names:  append([]string{}, u.Names...),
		Glob:   u.Glob,
	}
	p.state[u] = s
	return s
}

func (p *pendingUses) touched() []*useState {
	out := make([]*useState, 0, len(p.state))
	for _, s := range p.state {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].u.Node < out[j].u.Node })
	return out
}

func (s *useState) addName(name string) {
	for _, n := range s.Names {
		if n == name {
			return
		}
	}
	s.Names = append(s.Names, name)
}

func (s *useState) removeName(name string) {
	out := s.Names[:0]
	for _, n := range s.Names {
		if n != name {
			out = append(out, n)
		}
	}
	s.Names = out
}

// render formats the pending state back to source text. An item whose last
// name was removed renders empty and its line is dropped.
func (s *useState) render() string {
	if !s.Glob && len(s.Names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("use ")
	b.WriteString(s.Prefix.String())
	b.WriteString(pathSep)
	switch {
	case s.Glob:
		b.WriteString("*")
	case len(s.Names) == 1:
		b.WriteString(s.Names[0])
	default:
		b.WriteString("{")
		b.WriteString(strings.Join(s.Names, ", "))
		b.WriteString("}")
	}
	b.WriteString(";")
	return b.String()
}

// renderImport formats a fresh use item for insertion.
func renderImport(path ModulePath) string {
	return fmt.Sprintf("use %s;", path.String())
}

// insertAnchor picks where a new use item goes: after the existing item in
// the scope sharing the longest path prefix with it, or at the scope's top
// when the scope has no imports yet.
func insertAnchor(scope ImportScope, path ModulePath) (*UseItem, bool) {
	var best *UseItem
	bestDepth := -1
	for _, u := range scope.uses() {
		d := commonDepth(u.Prefix.Segments, path.Segments)
		if d >= bestDepth {
			best = u
			bestDepth = d
		}
	}
	return best, best != nil
}
