package analysis

import (
	"fmt"
	"path/filepath"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// Hover is the result of a hover query.
type Hover struct {
	// Node is the node the hover describes.
	Node ast.Node
	// Title is a short label (the ident name or the node kind).
	Title string
	// Markdown is the hover body.
	Markdown string
}

// Definition is the result of a definition query.
type Definition struct {
	// Ident is the defining identifier.
	Ident *ast.Ident
	// Path is the file the definition lives in.
	Path string
	// Loc is the defining ident's location (1-based line/column).
	Loc ast.Loc
}

// FileIndex returns the 1-based index of path in the file table. Paths are
// compared cleaned, then by base name. Unknown paths map to file 1, which is
// the file src2json was asked to compile.
func FileIndex(files []string, path string) uint64 {
	if path == "" {
		return 1
	}
	clean := filepath.Clean(path)
	for i, f := range files {
		if filepath.Clean(f) == clean {
			return uint64(i + 1)
		}
	}
	base := filepath.Base(clean)
	for i, f := range files {
		if filepath.Base(f) == base {
			return uint64(i + 1)
		}
	}
	return 1
}

// hoverTier ranks node kinds for hover. Lower is preferred; 0 means the
// node is never a hover target.
func hoverTier(n ast.Node) int {
	switch n := n.(type) {
	case *ast.Ident, *ast.IntLiteral, *ast.BoolLiteral, *ast.StrLiteral,
		*ast.RegexLiteral, *ast.CharLiteral, *ast.SpecialLiteral:
		return 1
	case ast.Type:
		if n.IsExplicit() {
			return 1
		}
	case *ast.Assert, *ast.Match, *ast.If, *ast.SpecifyOrder:
		return 2
	}
	return 0
}

// nodeAt walks the program for the best node of the active file containing
// offset. Within the lowest tier the smallest span wins; equal spans keep
// the first node in traversal order. Nodes the program does not own are
// never candidates.
func nodeAt(tree *ast.AST, file, offset uint64, tier func(ast.Node) int) ast.Node {
	if tree == nil || tree.Program == nil {
		return nil
	}
	var (
		best     ast.Node
		bestTier int
		bestLen  uint64
	)
	ast.Inspect(tree.Program, func(n ast.Node) bool {
		if !ast.InFile(n, file) || !n.Loc().Contains(offset) {
			return true
		}
		t := tier(n)
		if t == 0 {
			return true
		}
		l := n.Loc().Len()
		if best == nil || t < bestTier || (t == bestTier && l < bestLen) {
			best, bestTier, bestLen = n, t, l
		}
		return true
	})
	return best
}

// HoverAt returns the hover for the node at offset in file, or nil.
//
// The returned error is non-nil only when resolving an ident overflowed;
// the hover is still returned and describes the ident as unknown.
func HoverAt(tree *ast.AST, file, offset uint64) (*Hover, error) {
	n := nodeAt(tree, file, offset, hoverTier)
	if n == nil {
		return nil, nil
	}

	switch n := n.(type) {
	case *ast.Ident:
		res, err := Resolve(n)
		if err != nil {
			res = Resolution{Origin: n, Kind: TerminalUnknown}
		}
		return &Hover{Node: n, Title: n.Ident, Markdown: DescribeIdent(res)}, err
	case *ast.IntLiteral:
		m := newMarkdown(n.Value, "int literal")
		describeLiteral(m, n)
		return &Hover{Node: n, Title: n.Value, Markdown: m.String()}, nil
	case *ast.BoolLiteral:
		v := fmt.Sprint(n.Value)
		return &Hover{Node: n, Title: v, Markdown: newMarkdown(v, "bool literal").String()}, nil
	case *ast.StrLiteral:
		m := newMarkdown(n.Value, "string literal")
		m.item("length", "%d", n.Length)
		return &Hover{Node: n, Title: n.Value, Markdown: m.String()}, nil
	case *ast.RegexLiteral:
		return &Hover{Node: n, Title: n.Value, Markdown: newMarkdown(n.Value, "regex literal").String()}, nil
	case *ast.CharLiteral:
		m := newMarkdown(n.Value, "char literal")
		m.item("code", "%#x", n.Code)
		return &Hover{Node: n, Title: n.Value, Markdown: m.String()}, nil
	case *ast.SpecialLiteral:
		k := string(n.Kind)
		return &Hover{Node: n, Title: k, Markdown: newMarkdown(k, "builtin object").String()}, nil
	case *ast.Assert:
		m := newMarkdown("assert", "assertion")
		m.item("io related", "%t", n.IsIoRelated)
		return &Hover{Node: n, Title: "assert", Markdown: m.String()}, nil
	case *ast.Match:
		m := newMarkdown("match", "match expression")
		describeStructUnion(m, n.StructUnionType)
		m.item("branches", "%d", len(n.Branch))
		if n.TrialMatch {
			m.item("trial match", "true")
		}
		return &Hover{Node: n, Title: "match", Markdown: m.String()}, nil
	case *ast.If:
		m := newMarkdown("if", "if expression")
		describeStructUnion(m, n.StructUnionType)
		return &Hover{Node: n, Title: "if", Markdown: m.String()}, nil
	case *ast.SpecifyOrder:
		m := newMarkdown("order", "order specifier")
		m.item("order type", "%s", n.OrderType)
		if n.OrderValue != nil {
			m.item("order value", "%d", *n.OrderValue)
		} else {
			m.item("order value", "dynamic")
		}
		return &Hover{Node: n, Title: "order", Markdown: m.String()}, nil
	case ast.Type:
		s := TypeString(n)
		m := newMarkdown(s, "type")
		m.item("size", "%s", BitSizeString(n.BitSize()))
		m.item("alignment", "%s", orUnknown(string(n.BitAlignment())))
		if it, ok := n.(*ast.IntType); ok {
			m.item("signed", "%t", it.IsSigned)
			m.item("endian", "%s", orUnknown(string(it.Endian)))
		}
		return &Hover{Node: n, Title: s, Markdown: m.String()}, nil
	}
	return nil, nil
}

func describeLiteral(m *markdown, e ast.Expr) {
	if t := e.ExprType(); t != nil {
		m.item("type", "%s", TypeString(t))
		m.item("size", "%s", BitSizeString(t.BitSize()))
	}
	if e.ConstantLevel() != "" {
		m.item("constant level", "%s", e.ConstantLevel())
	}
}

func describeStructUnion(m *markdown, su *ast.StructUnionType) {
	if su == nil {
		return
	}
	m.item("exhaustive", "%t", su.Exhaustive)
	m.item("alternatives", "%d", len(su.Structs))
	m.item("size", "%s", BitSizeString(su.BitSize()))
}

// DefinitionAt returns where the ident at offset in file is defined, or
// nil when there is no ident or its chain does not end at a definition.
func DefinitionAt(tree *ast.AST, file, offset uint64) (*Definition, error) {
	n := nodeAt(tree, file, offset, func(n ast.Node) int {
		if _, ok := n.(*ast.Ident); ok {
			return 1
		}
		return 0
	})
	ident, ok := n.(*ast.Ident)
	if !ok {
		return nil, nil
	}
	res, err := Resolve(ident)
	if err != nil {
		return nil, err
	}
	if !res.IsDefinition() {
		return nil, nil
	}
	loc := res.Terminal.Loc()
	return &Definition{Ident: res.Terminal, Path: tree.FilePath(loc.File), Loc: loc}, nil
}

// LSP renders the hover in editor shape.
func (h *Hover) LSP(lines *LineIndex) *HoverResult {
	if h == nil {
		return nil
	}
	r := locRange(h.Node.Loc(), lines)
	return &HoverResult{
		Contents: MarkupContent{Kind: "markdown", Value: h.Markdown},
		Range:    &r,
	}
}

// LSP renders the definition as a zero-width location at the defining
// ident's start.
func (d *Definition) LSP() *Location {
	if d == nil {
		return nil
	}
	p := startPosition(d.Loc)
	return &Location{URI: PathToURI(d.Path), Range: Range{Start: p, End: p}}
}
