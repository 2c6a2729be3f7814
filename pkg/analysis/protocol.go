package analysis

import (
	"net/url"
	"path/filepath"
	"sort"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// Position is a 0-based line/character pair.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a start/end position pair.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// MarkupContent is a hover body.
type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// HoverResult is the editor-facing hover payload.
type HoverResult struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// Location is the editor-facing definition payload.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Severity is the diagnostic severity.
type Severity int

const (
	SeverityError   Severity = 1
	SeverityWarning Severity = 2
)

// Diagnostic is one compiler error or warning mapped onto the active file.
type Diagnostic struct {
	Range    Range    `json:"range"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Source   string   `json:"source"`
}

// SymbolKind is the editor symbol kind.
type SymbolKind int

const (
	SymbolClass      SymbolKind = 5
	SymbolField      SymbolKind = 8
	SymbolEnum       SymbolKind = 10
	SymbolFunction   SymbolKind = 12
	SymbolVariable   SymbolKind = 13
	SymbolConstant   SymbolKind = 14
	SymbolEnumMember SymbolKind = 22
	SymbolStruct     SymbolKind = 23
)

// DocumentSymbol is one entry of the outline tree.
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Detail         string           `json:"detail,omitempty"`
	Kind           SymbolKind       `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// SemanticTokens is the delta-encoded highlighting payload.
type SemanticTokens struct {
	ResultID string   `json:"resultId,omitempty"`
	Data     []uint32 `json:"data"`
}

// LineIndex maps byte offsets of a source text to 0-based positions and
// back. Characters are counted in bytes.
type LineIndex struct {
	starts []uint64
	size   uint64
}

// NewLineIndex indexes the line starts of src.
func NewLineIndex(src []byte) *LineIndex {
	starts := []uint64{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, uint64(i+1))
		}
	}
	return &LineIndex{starts: starts, size: uint64(len(src))}
}

// Position converts a byte offset, clamped to the source length.
func (li *LineIndex) Position(offset uint64) Position {
	if offset > li.size {
		offset = li.size
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: uint32(line), Character: uint32(offset - li.starts[line])}
}

// Offset converts a position back to a byte offset. Positions past the end
// of a line clamp to the line's end.
func (li *LineIndex) Offset(p Position) uint64 {
	if int(p.Line) >= len(li.starts) {
		return li.size
	}
	start := li.starts[p.Line]
	end := li.size
	if int(p.Line)+1 < len(li.starts) {
		end = li.starts[p.Line+1] - 1
	}
	off := start + uint64(p.Character)
	if off > end {
		off = end
	}
	return off
}

// startPosition converts a 1-based Loc line/column to a 0-based position.
func startPosition(loc ast.Loc) Position {
	var p Position
	if loc.Line > 0 {
		p.Line = uint32(loc.Line - 1)
	}
	if loc.Col > 0 {
		p.Character = uint32(loc.Col - 1)
	}
	return p
}

// locRange converts a Loc to a Range. With a LineIndex the end is exact;
// without one the span is assumed to sit on its start line.
func locRange(loc ast.Loc, lines *LineIndex) Range {
	if lines != nil {
		return Range{Start: lines.Position(loc.Pos.Begin), End: lines.Position(loc.Pos.End)}
	}
	start := startPosition(loc)
	end := start
	end.Character += uint32(loc.Len())
	return Range{Start: start, End: end}
}

// PathToURI renders a file path as a file:// URI.
func PathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
