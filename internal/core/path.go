package core

import (
	"fmt"
	"strings"
)

const (
	rootMarker  = "crate"
	superMarker = "super"
	pathSep     = "::"
)

// ModulePath is a parsed source path. It is either absolute (anchored at the
// crate root) or relative with a super-depth; depth 0 relative means
// "current module".
type ModulePath struct {
	Absolute bool
	Supers   int
	Segments []string
}

// ParsePath parses a written path like "crate::a::b", "super::super::f" or
// "a::b". An empty string parses to a depth-0 relative path with no segments.
func ParsePath(raw string) (ModulePath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ModulePath{}, nil
	}
	parts := strings.Split(raw, pathSep)
	var p ModulePath
	i := 0
	if parts[0] == rootMarker {
		p.Absolute = true
		i = 1
	} else {
		for i < len(parts) && parts[i] == superMarker {
			p.Supers++
			i++
		}
	}
	for ; i < len(parts); i++ {
		seg := strings.TrimSpace(parts[i])
		if seg == "" {
			return ModulePath{}, fmt.Errorf("empty path segment in %q", raw)
		}
		if seg == rootMarker || seg == superMarker {
			return ModulePath{}, fmt.Errorf("misplaced %q in %q", seg, raw)
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

// AbsPath builds an absolute path from root-relative segments.
func AbsPath(segments ...string) ModulePath {
	return ModulePath{Absolute: true, Segments: segments}
}

func (p ModulePath) String() string {
	var parts []string
	if p.Absolute {
		parts = append(parts, rootMarker)
	}
	for i := 0; i < p.Supers; i++ {
		parts = append(parts, superMarker)
	}
	parts = append(parts, p.Segments...)
	return strings.Join(parts, pathSep)
}

// WrittenLen is the number of segments the path occupies as written,
// counting the root and super markers. Used for the shorter-path preference.
func (p ModulePath) WrittenLen() int {
	n := len(p.Segments) + p.Supers
	if p.Absolute {
		n++
	}
	return n
}

// Child returns p extended with one trailing segment.
func (p ModulePath) Child(name string) ModulePath {
	segs := make([]string, 0, len(p.Segments)+1)
	segs = append(segs, p.Segments...)
	segs = append(segs, name)
	return ModulePath{Absolute: p.Absolute, Supers: p.Supers, Segments: segs}
}

// Join returns p extended with the given trailing segments.
func (p ModulePath) Join(segments []string) ModulePath {
	segs := make([]string, 0, len(p.Segments)+len(segments))
	segs = append(segs, p.Segments...)
	segs = append(segs, segments...)
	return ModulePath{Absolute: p.Absolute, Supers: p.Supers, Segments: segs}
}

// Parent returns the path with the final segment removed.
// Calling Parent on an empty path is a bug; it panics.
func (p ModulePath) Parent() ModulePath {
	if len(p.Segments) == 0 {
		panic("Parent of empty path")
	}
	segs := make([]string, len(p.Segments)-1)
	copy(segs, p.Segments[:len(p.Segments)-1])
	return ModulePath{Absolute: p.Absolute, Supers: p.Supers, Segments: segs}
}

// Name returns the final segment, or "" for an empty path.
func (p ModulePath) Name() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Equal reports segment-wise equality.
func (p ModulePath) Equal(o ModulePath) bool {
	if p.Absolute != o.Absolute || p.Supers != o.Supers || len(p.Segments) != len(o.Segments) {
		return false
	}
	for i := range p.Segments {
		if p.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading sub-path of p. Both paths
// must be absolute.
func (p ModulePath) HasPrefix(prefix ModulePath) bool {
	if !p.Absolute || !prefix.Absolute {
		return false
	}
	if len(prefix.Segments) > len(p.Segments) {
		return false
	}
	for i, seg := range prefix.Segments {
		if p.Segments[i] != seg {
			return false
		}
	}
	return true
}

// Rebase replaces the oldPrefix of p with newPrefix. p must have oldPrefix.
func (p ModulePath) Rebase(oldPrefix, newPrefix ModulePath) ModulePath {
	return newPrefix.Join(p.Segments[len(oldPrefix.Segments):])
}

// commonDepth returns the length of the longest common prefix of two
// absolute segment chains.
func commonDepth(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

// RelativeFromModule expresses the absolute path target as a super-relative
// path evaluated from the module at absolute path site.
func RelativeFromModule(target, site ModulePath) ModulePath {
	common := commonDepth(target.Segments, site.Segments)
	return ModulePath{
		Supers:   len(site.Segments) - common,
		Segments: append([]string(nil), target.Segments[common:]...),
	}
}
