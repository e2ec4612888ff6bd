package core

import (
	"fmt"
	"path"
	"strings"
)

// ParseProgram parses a source set into a Program snapshot. Keys of files are
// slash-separated crate-relative paths; the crate root is main.rs or lib.rs.
func ParseProgram(files map[string]string) (*Program, error) {
	rootFile := ""
	for _, cand := range []string{"main.rs", "lib.rs"} {
		if _, ok := files[cand]; ok {
			rootFile = cand
			break
		}
	}
	if rootFile == "" {
		return nil, fmt.Errorf("crate root not found: need main.rs or lib.rs")
	}
	prog := &Program{Files: files}
	root := &Module{
		Name: rootMarker,
		File: rootFile,
		Body: Span{Start: 0, End: len(files[rootFile])},
		Decl: NoNode,
	}
	prog.Root = root
	if err := parseModuleBody(prog, root); err != nil {
		return nil, err
	}
	return prog, nil
}

// childDir returns the directory prefix for file submodules of m.
func childDir(m *Module) string {
	base := path.Base(m.File)
	if base == "main.rs" || base == "lib.rs" || base == "mod.rs" {
		d := path.Dir(m.File)
		if d == "." {
			return ""
		}
		return d + "/"
	}
	return strings.TrimSuffix(m.File, ".rs") + "/"
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) eof(end int) bool { return s.pos >= end }

// skipTrivia advances past whitespace and line comments.
func (s *scanner) skipTrivia(end int) {
	for s.pos < end {
		c := s.src[s.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			s.pos++
			continue
		}
		if c == '/' && s.pos+1 < end && s.src[s.pos+1] == '/' {
			for s.pos < end && s.src[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		return
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

// readIdent consumes an identifier, or returns "" without advancing.
func (s *scanner) readIdent(end int) string {
	if s.pos >= end || !isIdentStart(s.src[s.pos]) {
		return ""
	}
	start := s.pos
	for s.pos < end && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// matchBrace returns the offset of the '}' matching the '{' at open.
func matchBrace(src string, open, end int) (int, error) {
	depth := 0
	for i := open; i < end; i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '/':
			if i+1 < end && src[i+1] == '/' {
				for i < end && src[i] != '\n' {
					i++
				}
			}
		}
	}
	return 0, fmt.Errorf("unbalanced braces")
}

// indentAt returns the leading whitespace of the line containing pos, or ""
// if pos is not the first non-blank position of its line.
func indentAt(src string, pos int) string {
	lineStart := strings.LastIndexByte(src[:pos], '\n') + 1
	lead := src[lineStart:pos]
	if strings.TrimSpace(lead) != "" {
		return ""
	}
	return lead
}

// parseModuleBody parses m's body span in m.File, filling children, fns and
// uses and recursing into submodules.
func parseModuleBody(prog *Program, m *Module) error {
	src := prog.Files[m.File]
	s := &scanner{src: src, pos: m.Body.Start}
	end := m.Body.End

	s.skipTrivia(end)
	m.Top = InsertPoint{Offset: s.pos, Indent: indentAt(src, s.pos)}

	for {
		s.skipTrivia(end)
		if s.eof(end) {
			return nil
		}
		declStart := s.pos
		word := s.readIdent(end)
		if word == "" {
			return fmt.Errorf("%s: unexpected character %q at offset %d", m.File, src[s.pos], s.pos)
		}
		pub := false
		if word == "pub" {
			pub = true
			s.skipTrivia(end)
			word = s.readIdent(end)
		}
		switch word {
		case "mod":
			if err := parseModDecl(prog, m, s, end, declStart, pub); err != nil {
				return err
			}
		case "fn":
			if err := parseFnDecl(prog, m, s, end, declStart, pub); err != nil {
				return err
			}
		case "use":
			u, err := parseUse(prog, m, nil, s, end, declStart)
			if err != nil {
				return err
			}
			m.Uses = append(m.Uses, u)
		default:
			return fmt.Errorf("%s: unexpected item %q at offset %d", m.File, word, declStart)
		}
	}
}

func parseModDecl(prog *Program, m *Module, s *scanner, end, declStart int, pub bool) error {
	s.skipTrivia(end)
	name := s.readIdent(end)
	if name == "" {
		return fmt.Errorf("%s: mod without a name at offset %d", m.File, declStart)
	}
	s.skipTrivia(end)
	if s.eof(end) {
		return fmt.Errorf("%s: unterminated mod %s", m.File, name)
	}
	child := &Module{Name: name, Pub: pub, Parent: m}
	switch s.src[s.pos] {
	case ';':
		s.pos++
		child.Decl = prog.newNode(KindModule, m.File, declStart, s.pos)
		file, err := findModuleFile(prog, m, name)
		if err != nil {
			return err
		}
		child.File = file
		child.Body = Span{Start: 0, End: len(prog.Files[file])}
	case '{':
		close, err := matchBrace(s.src, s.pos, end)
		if err != nil {
			return fmt.Errorf("%s: mod %s: %w", m.File, name, err)
		}
		child.Decl = prog.newNode(KindModule, m.File, declStart, close+1)
		child.File = m.File
		child.Inline = true
		child.Body = Span{Start: s.pos + 1, End: close}
		s.pos = close + 1
	default:
		return fmt.Errorf("%s: mod %s: expected ';' or '{'", m.File, name)
	}
	m.Children = append(m.Children, child)
	return parseModuleBody(prog, child)
}

func findModuleFile(prog *Program, m *Module, name string) (string, error) {
	dir := childDir(m)
	for _, cand := range []string{dir + name + ".rs", dir + name + "/mod.rs"} {
		if _, ok := prog.Files[cand]; ok {
			return cand, nil
		}
	}
	return "", fmt.Errorf("%s: file for module %s not found under %q", m.File, name, dir)
}

func parseFnDecl(prog *Program, m *Module, s *scanner, end, declStart int, pub bool) error {
	s.skipTrivia(end)
	name := s.readIdent(end)
	if name == "" {
		return fmt.Errorf("%s: fn without a name at offset %d", m.File, declStart)
	}
	open := strings.IndexByte(s.src[s.pos:end], '{')
	if open < 0 {
		return fmt.Errorf("%s: fn %s: missing body", m.File, name)
	}
	open += s.pos
	close, err := matchBrace(s.src, open, end)
	if err != nil {
		return fmt.Errorf("%s: fn %s: %w", m.File, name, err)
	}
	fn := &Fn{
		Name:  name,
		Pub:   pub,
		Owner: m,
		Decl:  prog.newNode(KindFn, m.File, declStart, close+1),
		Body:  Span{Start: open + 1, End: close},
	}
	m.Fns = append(m.Fns, fn)
	s.pos = close + 1
	return parseFnBody(prog, fn)
}

// parseFnBody collects fn-local use items and path references. Anything that
// is not a use item or a called path is skipped.
func parseFnBody(prog *Program, fn *Fn) error {
	src := prog.Files[fn.Owner.File]
	s := &scanner{src: src, pos: fn.Body.Start}
	end := fn.Body.End

	s.skipTrivia(end)
	fn.Top = InsertPoint{Offset: s.pos, Indent: indentAt(src, s.pos)}

	for {
		s.skipTrivia(end)
		if s.eof(end) {
			return nil
		}
		if !isIdentStart(src[s.pos]) {
			s.pos++
			continue
		}
		start := s.pos
		word := s.readIdent(end)
		if word == "use" {
			u, err := parseUse(prog, fn.Owner, fn, s, end, start)
			if err != nil {
				return err
			}
			fn.Uses = append(fn.Uses, u)
			continue
		}
		// Read the rest of the path.
		for strings.HasPrefix(src[s.pos:end], pathSep) {
			s.pos += 2
			if s.readIdent(end) == "" {
				return fmt.Errorf("%s: dangling '::' at offset %d", fn.Owner.File, s.pos)
			}
		}
		pathEnd := s.pos
		s.skipTrivia(end)
		if s.eof(end) || src[s.pos] != '(' {
			continue
		}
		raw := src[start:pathEnd]
		parsed, err := ParsePath(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", fn.Owner.File, err)
		}
		fn.Refs = append(fn.Refs, &PathRef{
			Node:  prog.newNode(KindPath, fn.Owner.File, start, pathEnd),
			Raw:   raw,
			Path:  parsed,
			Owner: fn.Owner,
			Fn:    fn,
		})
	}
}

// parseUse parses from just after the "use" keyword through the ';'.
func parseUse(prog *Program, m *Module, fn *Fn, s *scanner, end, declStart int) (*UseItem, error) {
	semi := strings.IndexByte(s.src[s.pos:end], ';')
	if semi < 0 {
		return nil, fmt.Errorf("%s: unterminated use at offset %d", m.File, declStart)
	}
	semi += s.pos
	spec := strings.TrimSpace(s.src[s.pos:semi])
	s.pos = semi + 1

	u := &UseItem{
		Node:   prog.newNode(KindUse, m.File, declStart, semi+1),
		Owner:  m,
		Fn:     fn,
		Indent: indentAt(s.src, declStart),
	}
	switch {
	case strings.HasSuffix(spec, pathSep+"*"):
		prefix, err := ParsePath(strings.TrimSuffix(spec, pathSep+"*"))
		if err != nil {
			return nil, fmt.Errorf("%s: use %s: %w", m.File, spec, err)
		}
		u.Prefix = prefix
		u.Glob = true
	case strings.Contains(spec, "{"):
		brace := strings.Index(spec, "{")
		if !strings.HasSuffix(spec, "}") || !strings.HasSuffix(spec[:brace], pathSep) {
			return nil, fmt.Errorf("%s: malformed use group: %s", m.File, spec)
		}
		prefix, err := ParsePath(strings.TrimSuffix(spec[:brace], pathSep))
		if err != nil {
			return nil, fmt.Errorf("%s: use %s: %w", m.File, spec, err)
		}
		u.Prefix = prefix
		for _, name := range strings.Split(spec[brace+1:len(spec)-1], ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, fmt.Errorf("%s: empty name in use group: %s", m.File, spec)
			}
			u.Names = append(u.Names, name)
		}
	default:
		full, err := ParsePath(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: use %s: %w", m.File, spec, err)
		}
		if len(full.Segments) == 0 {
			return nil, fmt.Errorf("%s: use without a target: %s", m.File, spec)
		}
		u.Prefix = full.Parent()
		u.Names = []string{full.Name()}
	}
	return u, nil
}
