package core

import (
	"fmt"
	"sort"
)

// Index is the whole-program defs/refs index backed by an in-memory sqlite
// database. It serves the reverse-reference queries the planner runs; it is
// read-only once built and discarded with the snapshot.
type Index struct {
	prog    *Program
	db      dbHandle
	entries map[int64]*refEntry

	// Diags holds pre-existing resolution failures found while indexing.
	// They are reported, never retried, and the affected references are
	// excluded from planning.
	Diags []Diagnostic

	// unresolvedRefs keeps the failed expression paths so the repair
	// operation can try to respell them.
	unresolvedRefs []*PathRef
}

// refEntry ties an index row back to its AST entity. Exactly one of pathRef
// and use is set.
type refEntry struct {
	id      int64
	def     Def
	pathRef *PathRef
	use     *UseItem
	useName string // bound name for use refs; "" for a glob prefix
}

// node returns the arena node the entry is anchored at.
func (r *refEntry) node() NodeID {
	if r.pathRef != nil {
		return r.pathRef.Node
	}
	return r.use.Node
}

// BuildIndex resolves every declaration and reference in the snapshot and
// loads them into the index. References that do not resolve are recorded as
// diagnostics and skipped.
func BuildIndex(prog *Program) (*Index, error) {
	db, err := openMemDB()
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	ix := &Index{prog: prog, db: db, entries: make(map[int64]*refEntry)}

	mods := prog.Modules()

	// Pass 1: declarations.
	for _, m := range mods {
		id, err := insertDef(db, m.Path().String(), "module", m.Name, m.Pub)
		if err != nil {
			db.Close()
			return nil, err
		}
		m.DefID = id
		for _, f := range m.Fns {
			fid, err := insertDef(db, f.Path().String(), "fn", f.Name, f.Pub)
			if err != nil {
				db.Close()
				return nil, err
			}
			f.DefID = fid
		}
	}

	// Pass 2: references. Use items first, then fn bodies, in declaration
	// order within each module.
	for _, m := range mods {
		for _, u := range m.Uses {
			if err := ix.indexUse(u); err != nil {
				db.Close()
				return nil, err
			}
		}
		for _, f := range m.Fns {
			for _, u := range f.Uses {
				if err := ix.indexUse(u); err != nil {
					db.Close()
					return nil, err
				}
			}
			for _, r := range f.Refs {
				if err := ix.indexPathRef(r); err != nil {
					db.Close()
					return nil, err
				}
			}
		}
	}
	return ix, nil
}

// Close releases the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) indexPathRef(r *PathRef) error {
	def := ix.prog.Resolve(r.Path, Scope{Module: r.Owner, Fn: r.Fn})
	if !def.Valid() {
		ix.Diags = append(ix.Diags, Diagnostic{
			Kind: DiagUnresolved,
			File: r.Owner.File,
			Pos:  ix.prog.NodeAt(r.Node).Span.Start,
			Msg:  fmt.Sprintf("unresolved reference: %s", r.Raw),
		})
		ix.unresolvedRefs = append(ix.unresolvedRefs, r)
		return nil
	}
	node := ix.prog.NodeAt(r.Node)
	id, err := insertRef(ix.db, def.ID(), r.Node, node.File, node.Span.Start, "expr", r.Raw, r.Owner.Path().String())
	if err != nil {
		return err
	}
	ix.entries[id] = &refEntry{id: id, def: def, pathRef: r}
	return nil
}

func (ix *Index) indexUse(u *UseItem) error {
	node := ix.prog.NodeAt(u.Node)
	sc := Scope{Module: u.Owner, Fn: u.Fn}
	record := func(def Def, name string, raw string) error {
		if !def.Valid() {
			ix.Diags = append(ix.Diags, Diagnostic{
				Kind: DiagUnresolved,
				File: node.File,
				Pos:  node.Span.Start,
				Msg:  fmt.Sprintf("unresolved import: %s", raw),
			})
			return nil
		}
		id, err := insertRef(ix.db, def.ID(), u.Node, node.File, node.Span.Start, "use", raw, u.Owner.Path().String())
		if err != nil {
			return err
		}
		ix.entries[id] = &refEntry{id: id, def: def, use: u, useName: name}
		return nil
	}
	if u.Glob {
		return record(ix.prog.resolveBound(u.Prefix, sc), "", u.Prefix.String()+pathSep+"*")
	}
	for _, name := range u.Names {
		bound := u.BoundPath(name)
		if err := record(ix.prog.resolveBound(bound, sc), name, bound.String()); err != nil {
			return err
		}
	}
	return nil
}

// ReverseReferences returns every indexed reference resolving to the given
// declaration, ordered by source position.
func (ix *Index) ReverseReferences(def Def) ([]*refEntry, error) {
	rows, err := ix.db.Query(
		`SELECT id FROM refs WHERE def_id = ? ORDER BY file, offset`, def.ID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ix.collect(rows)
}

// refsUnder returns every reference whose target is the declaration at path
// or anything nested below it, ordered by source position.
func (ix *Index) refsUnder(path ModulePath) ([]*refEntry, error) {
	p := path.String()
	rows, err := ix.db.Query(
		`SELECT r.id FROM refs r JOIN defs d ON d.id = r.def_id
		 WHERE d.path = ? OR d.path LIKE ? ORDER BY r.file, r.offset`,
		p, p+pathSep+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ix.collect(rows)
}

// sortedEntries returns every indexed reference ordered by source position.
func (ix *Index) sortedEntries() []*refEntry {
	out := make([]*refEntry, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := ix.prog.NodeAt(out[i].node()), ix.prog.NodeAt(out[j].node())
		if ni.File != nj.File {
			return ni.File < nj.File
		}
		return ni.Span.Start < nj.Span.Start
	})
	return out
}

func (ix *Index) collect(rows sqlRows) ([]*refEntry, error) {
	var out []*refEntry
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if e, ok := ix.entries[id]; ok {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		ni, nj := ix.prog.NodeAt(out[i].node()), ix.prog.NodeAt(out[j].node())
		if ni.File != nj.File {
			return ni.File < nj.File
		}
		return ni.Span.Start < nj.Span.Start
	})
	return out, nil
}
