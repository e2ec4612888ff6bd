package core

import (
	"sort"
	"strings"
)

// NodeID is a stable arena index for an AST node. Edits address nodes by ID,
// never by raw offset, so applying one edit cannot invalidate another.
type NodeID int

// NoNode marks the absence of a node (e.g. the crate root has no declaration).
const NoNode NodeID = -1

type NodeKind int

const (
	KindModule NodeKind = iota
	KindFn
	KindUse
	KindPath
)

// Span is a half-open byte range in a file.
type Span struct {
	Start int
	End   int
}

// Node is one arena entry: a kind plus its source location.
type Node struct {
	Kind NodeKind
	File string
	Span Span
}

// InsertPoint is the fallback position for a new import in a scope that has
// no import block yet: before the first item of the scope.
type InsertPoint struct {
	Offset int
	Indent string
}

// Module is one module in the tree. The root module has no parent and no
// declaration node.
type Module struct {
	Name     string
	Pub      bool
	Parent   *Module
	Children []*Module
	Fns      []*Fn
	Uses     []*UseItem

	File   string // file containing the module body
	Body   Span   // body content: inside the braces, or the whole file
	Decl   NodeID // `mod name;` or `mod name { ... }` in the parent's file
	Inline bool   // body is inline in the parent's file

	Top   InsertPoint
	DefID int64
}

// Path returns the module's canonical absolute path.
func (m *Module) Path() ModulePath {
	var segs []string
	for cur := m; cur.Parent != nil; cur = cur.Parent {
		segs = append(segs, cur.Name)
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return AbsPath(segs...)
}

// Depth is the module's nesting depth below the crate root.
func (m *Module) Depth() int {
	d := 0
	for cur := m; cur.Parent != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Child returns the direct child module with the given name, or nil.
func (m *Module) Child(name string) *Module {
	for _, c := range m.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FnNamed returns the fn declared directly in m with the given name, or nil.
func (m *Module) FnNamed(name string) *Fn {
	for _, f := range m.Fns {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// isAncestorOrSelf reports whether m is anc or nested anywhere below it.
func (m *Module) isAncestorOrSelf(anc *Module) bool {
	for cur := m; cur != nil; cur = cur.Parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// Fn is a function declaration. Fn bodies own local use items and all path
// references.
type Fn struct {
	Name  string
	Pub   bool
	Owner *Module
	Uses  []*UseItem
	Refs  []*PathRef

	Decl NodeID
	Body Span
	Top  InsertPoint

	DefID int64
}

func (f *Fn) Path() ModulePath {
	return f.Owner.Path().Child(f.Name)
}

// UseItem is a single import statement. It binds Names (or, for a glob, every
// public name) under Prefix. A brace group is simply len(Names) > 1.
type UseItem struct {
	Node   NodeID
	Owner  *Module
	Fn     *Fn // non-nil when fn-local
	Prefix ModulePath
	Names  []string
	Glob   bool
	Indent string
}

// Binds reports whether the item binds the given leading name.
func (u *UseItem) Binds(name string) bool {
	if u.Glob {
		return false
	}
	for _, n := range u.Names {
		if n == name {
			return true
		}
	}
	return false
}

// BoundPath returns the full path a bound name stands for.
func (u *UseItem) BoundPath(name string) ModulePath {
	return u.Prefix.Child(name)
}

// Render formats the item back to source text.
func (u *UseItem) Render() string {
	var b strings.Builder
	b.WriteString("use ")
	b.WriteString(u.Prefix.String())
	b.WriteString(pathSep)
	switch {
	case u.Glob:
		b.WriteString("*")
	case len(u.Names) == 1:
		b.WriteString(u.Names[0])
	default:
		b.WriteString("{")
		b.WriteString(strings.Join(u.Names, ", "))
		b.WriteString("}")
	}
	b.WriteString(";")
	return b.String()
}

// PathRef is a path expression at a use site (a call qualifier or a bare
// name). Raw is the path text exactly as written.
type PathRef struct {
	Node  NodeID
	Raw   string
	Path  ModulePath
	Owner *Module
	Fn    *Fn
}

// Def is a resolved declaration: exactly one of Mod or Fn is set.
type Def struct {
	Mod *Module
	Fn  *Fn
}

func (d Def) Valid() bool { return d.Mod != nil || d.Fn != nil }

func (d Def) Name() string {
	if d.Mod != nil {
		return d.Mod.Name
	}
	return d.Fn.Name
}

func (d Def) Pub() bool {
	if d.Mod != nil {
		return d.Mod.Pub
	}
	return d.Fn.Pub
}

// Owner returns the module the declaration lives in (nil for the root).
func (d Def) Owner() *Module {
	if d.Mod != nil {
		return d.Mod.Parent
	}
	return d.Fn.Owner
}

func (d Def) Path() ModulePath {
	if d.Mod != nil {
		return d.Mod.Path()
	}
	return d.Fn.Path()
}

func (d Def) ID() int64 {
	if d.Mod != nil {
		return d.Mod.DefID
	}
	return d.Fn.DefID
}

// Program is an immutable snapshot of the parsed source set. All planning for
// one move runs against a single snapshot.
type Program struct {
	Files map[string]string
	Root  *Module
	nodes []Node
}

func (p *Program) newNode(kind NodeKind, file string, start, end int) NodeID {
	p.nodes = append(p.nodes, Node{Kind: kind, File: file, Span: Span{Start: start, End: end}})
	return NodeID(len(p.nodes) - 1)
}

// NodeAt returns the arena entry for id.
func (p *Program) NodeAt(id NodeID) Node {
	return p.nodes[id]
}

// NodeText returns the source text covered by id's span.
func (p *Program) NodeText(id NodeID) string {
	n := p.nodes[id]
	return p.Files[n.File][n.Span.Start:n.Span.End]
}

// ModuleAt walks the tree to the module at an absolute path. Returns nil if
// any segment is missing.
func (p *Program) ModuleAt(path ModulePath) *Module {
	cur := p.Root
	for _, seg := range path.Segments {
		cur = cur.Child(seg)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// DefAt resolves an absolute path to a declaration without visibility
// checks. The final segment may name a module or a fn.
func (p *Program) DefAt(path ModulePath) Def {
	if len(path.Segments) == 0 {
		return Def{Mod: p.Root}
	}
	parent := p.ModuleAt(path.Parent())
	if parent == nil {
		return Def{}
	}
	name := path.Name()
	if m := parent.Child(name); m != nil {
		return Def{Mod: m}
	}
	if f := parent.FnNamed(name); f != nil {
		return Def{Fn: f}
	}
	return Def{}
}

// Modules returns every module in the tree, sorted by canonical path.
func (p *Program) Modules() []*Module {
	var out []*Module
	var walk func(*Module)
	walk = func(m *Module) {
		out = append(out, m)
		for _, c := range m.Children {
			walk(c)
		}
	}
	walk(p.Root)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path().String() < out[j].Path().String()
	})
	return out
}
