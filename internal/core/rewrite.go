package core

import (
	"fmt"
	"sort"
	"strings"
)

// EditOp is the kind of textual change an Edit performs.
type EditOp int

const (
	// OpReplace substitutes the node's span.
	OpReplace EditOp = iota
	// OpDeleteLine removes the node's whole line, indentation and newline
	// included.
	OpDeleteLine
	// OpInsertAfter adds a new line directly below the node's line.
	OpInsertAfter
	// OpInsertAt adds a new line at a raw file offset.
	OpInsertAt
)

// Edit is one planned change to a source file, anchored at an arena node or
// a raw offset. Node anchors survive any number of preceding edits because
// application is offset-ordered.
type Edit struct {
	Op     EditOp
	Node   NodeID
	File   string // OpInsertAt only
	Offset int    // OpInsertAt only
	Text   string
	Indent string // indentation for inserted lines
}

type textOp struct {
	start, end int
	text       string
}

// editSpan resolves an edit to its concrete file range and replacement.
func editSpan(prog *Program, e Edit) (string, textOp, error) {
	switch e.Op {
	case OpReplace:
		n := prog.NodeAt(e.Node)
		return n.File, textOp{n.Span.Start, n.Span.End, e.Text}, nil
	case OpDeleteLine:
		n := prog.NodeAt(e.Node)
		src := prog.Files[n.File]
		start := n.Span.Start
		for start > 0 && (src[start-1] == ' ' || src[start-1] == '\t') {
			start--
		}
		end := n.Span.End
		if end < len(src) && src[end] == '\n' {
			end++
		}
		return n.File, textOp{start, end, ""}, nil
	case OpInsertAfter:
		n := prog.NodeAt(e.Node)
		return n.File, textOp{n.Span.End, n.Span.End, "\n" + e.Indent + e.Text}, nil
	case OpInsertAt:
		return e.File, textOp{e.Offset, e.Offset, e.Text + "\n" + e.Indent}, nil
	}
	return "", textOp{}, fmt.Errorf("unknown edit op %d", e.Op)
}

// ApplyEdits produces the rewritten sources. Edits are applied per file in
// descending offset order so earlier spans stay valid; overlapping spans are
// a planning bug and rejected.
func ApplyEdits(prog *Program, edits []Edit) (map[string]string, error) {
	out, _, err := applyEditsAdjust(prog, edits)
	return out, err
}

// applyEditsAdjust additionally returns a function mapping pre-edit offsets
// to post-edit offsets, used when relocating declaration text after its
// interior has been rewritten.
func applyEditsAdjust(prog *Program, edits []Edit) (map[string]string, func(string, int) int, error) {
	byFile := make(map[string][]textOp)
	for _, e := range edits {
		file, op, err := editSpan(prog, e)
		if err != nil {
			return nil, nil, err
		}
		byFile[file] = append(byFile[file], op)
	}

	out := make(map[string]string, len(prog.Files))
	for name, src := range prog.Files {
		out[name] = src
	}

	for file, ops := range byFile {
		sort.SliceStable(ops, func(i, j int) bool { return ops[i].start < ops[j].start })
		for i := 1; i < len(ops); i++ {
			if ops[i].start < ops[i-1].end {
				return nil, nil, fmt.Errorf("%s: overlapping edits at offset %d", file, ops[i].start)
			}
		}
		src := out[file]
		var b strings.Builder
		last := 0
		for _, op := range ops {
			b.WriteString(src[last:op.start])
			b.WriteString(op.text)
			last = op.end
		}
		b.WriteString(src[last:])
		out[file] = b.String()
		byFile[file] = ops
	}

	adjust := func(file string, off int) int {
		d := 0
		for _, op := range byFile[file] {
			if op.start < off {
				d += len(op.text) - (op.end - op.start)
			}
		}
		return off + d
	}
	return out, adjust, nil
}
