package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/ast"
	"github.com/gnana997/brgenlens/pkg/ast/asttest"
)

func TestHoverAt_Field(t *testing.T) {
	s, tree := decodeSample(t)

	h, err := HoverAt(tree, 1, asttest.OffsetX)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Same(t, tree.Nodes[s.XIdent], h.Node)
	assert.Equal(t, "x", h.Title)
	assert.Contains(t, h.Markdown, "### x\n\nfield")
	assert.Contains(t, h.Markdown, "- type: u8")
	assert.Contains(t, h.Markdown, "- size: 1 byte")
	assert.Contains(t, h.Markdown, "- offset(from begin): 0 byte")
	assert.Contains(t, h.Markdown, "- offset(from end): 2 byte")
	assert.Contains(t, h.Markdown, "- alignment: byte_aligned")
	assert.Contains(t, h.Markdown, "- follow: fixed")
	assert.NotContains(t, h.Markdown, "defined at")

	h, err = HoverAt(tree, 1, asttest.OffsetY)
	require.NoError(t, err)
	assert.Contains(t, h.Markdown, "- type: ub16")
	assert.Contains(t, h.Markdown, "- offset(from begin): 1 byte")
	assert.Contains(t, h.Markdown, "- follow: end")
}

func TestHoverAt_ReferenceChain(t *testing.T) {
	_, tree := decodeSample(t)

	h, err := HoverAt(tree, 1, asttest.OffsetRefA)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Equal(t, "a", h.Title)
	assert.Contains(t, h.Markdown, "variable")
	assert.Contains(t, h.Markdown, "- type: literal 1")
	assert.Contains(t, h.Markdown, "- constant level: immutable_variable")
	assert.Contains(t, h.Markdown, "defined at line 9, column 5")
}

func TestHoverAt_EnumMember(t *testing.T) {
	_, tree := decodeSample(t)

	h, err := HoverAt(tree, 1, asttest.OffsetRED)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "enum member")
	assert.Contains(t, h.Markdown, "- enum: Color")
	assert.Contains(t, h.Markdown, "- size: 1 byte")
	assert.Contains(t, h.Markdown, "- value: 1")

	h, err = HoverAt(tree, 1, asttest.OffsetGREEN)
	require.NoError(t, err)
	assert.Contains(t, h.Markdown, "- enum: Color")
	assert.NotContains(t, h.Markdown, "- value:")
}

func TestHoverAt_Definitions(t *testing.T) {
	_, tree := decodeSample(t)

	tests := []struct {
		name   string
		offset uint64
		want   []string
	}{
		{"format", asttest.OffsetPoint, []string{"### Point", "format", "- size: 3 byte", "- fixed header size: 3 byte", "- encode fn: default", "- traits: fixed_primitive"}},
		{"enum", asttest.OffsetColor, []string{"### Color", "- base type: u8", "- members: 2"}},
		{"function", asttest.OffsetF, []string{"### f", "function", "- traits: procedural, local_variable"}},
		{"explicit type", asttest.OffsetU8, []string{"### u8", "type", "- signed: false"}},
		{"literal", asttest.OffsetLit1, []string{"### 1", "int literal", "- size: 1 bit", "- constant level: constant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HoverAt(tree, 1, tt.offset)
			require.NoError(t, err)
			require.NotNil(t, h)
			for _, want := range tt.want {
				assert.Contains(t, h.Markdown, want)
			}
		})
	}
}

func TestHoverAt_NoTarget(t *testing.T) {
	_, tree := decodeSample(t)

	// "format" keyword: only the program, struct and format nodes contain it
	h, err := HoverAt(tree, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = HoverAt(nil, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestHoverAt_InclusiveEnd(t *testing.T) {
	s, tree := decodeSample(t)

	h, err := HoverAt(tree, 1, asttest.OffsetX+1)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Same(t, tree.Nodes[s.XIdent], h.Node)
}

func TestHoverAt_Deterministic(t *testing.T) {
	_, tree := decodeSample(t)

	for off := uint64(0); off <= uint64(len(asttest.SampleSource)); off++ {
		a, errA := HoverAt(tree, 1, off)
		b, errB := HoverAt(tree, 1, off)
		assert.Equal(t, errA, errB)
		assert.Equal(t, a, b, "offset %d", off)
	}
}

func TestHoverAt_TierAndSmallestSpan(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 30), nil)
	check := b.Node(ast.NodeAssert, asttest.Span(1, 0, 20), nil)
	wide := b.Node(ast.NodeIdent, asttest.Span(1, 5, 15), map[string]any{"ident": "wide"})
	narrow := b.Node(ast.NodeIdent, asttest.Span(1, 8, 10), map[string]any{"ident": "narrow"})
	twin := b.Node(ast.NodeIdent, asttest.Span(1, 8, 10), map[string]any{"ident": "twin"})
	b.Append(prog, "elements", check, wide, narrow, twin)
	tree := b.MustDecode(t)

	h, err := HoverAt(tree, 1, 9)
	require.NoError(t, err)
	assert.Same(t, tree.Nodes[narrow], h.Node, "smallest span, first in traversal order")
	assert.NotSame(t, tree.Nodes[twin], h.Node)

	h, err = HoverAt(tree, 1, 6)
	require.NoError(t, err)
	assert.Same(t, tree.Nodes[wide], h.Node, "ident beats the enclosing assert")

	h, err = HoverAt(tree, 1, 18)
	require.NoError(t, err)
	assert.Equal(t, "assert", h.Title)
}

func TestHoverAt_SkipsUnreachableNodes(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 30), nil)
	owned := b.Node(ast.NodeIdent, asttest.Span(1, 0, 10), map[string]any{"ident": "owned"})
	orphan := b.Node(ast.NodeIdent, asttest.Span(1, 2, 4), map[string]any{"ident": "orphan"})
	b.Node(ast.NodeIdent, asttest.Span(1, 20, 25), map[string]any{"ident": "alone"})
	b.Append(prog, "elements", owned)
	tree := b.MustDecode(t)

	h, err := HoverAt(tree, 1, 3)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Same(t, tree.Nodes[owned], h.Node)
	assert.NotSame(t, tree.Nodes[orphan], h.Node)

	h, err = HoverAt(tree, 1, 22)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestHoverAt_Overflow(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
	p := b.Node(ast.NodeIdent, asttest.Span(1, 0, 1), map[string]any{"ident": "p", "usage": ast.UsageReference})
	q := b.Node(ast.NodeIdent, asttest.Span(1, 2, 3), map[string]any{"ident": "q", "usage": ast.UsageReference})
	b.Set(p, "base", q).Set(q, "base", p)
	b.Append(prog, "elements", p, q)
	tree := b.MustDecode(t)

	h, err := HoverAt(tree, 1, 0)
	assert.ErrorIs(t, err, ErrResolutionOverflow)
	require.NotNil(t, h)
	assert.Contains(t, h.Markdown, "unknown identifier")

	def, err := DefinitionAt(tree, 1, 0)
	assert.ErrorIs(t, err, ErrResolutionOverflow)
	assert.Nil(t, def)
}

func TestDefinitionAt(t *testing.T) {
	s, tree := decodeSample(t)

	def, err := DefinitionAt(tree, 1, asttest.OffsetRefA)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Same(t, tree.Nodes[s.DefA], def.Ident)
	assert.Equal(t, samplePath, def.Path)
	assert.Equal(t, uint64(9), def.Loc.Line)
	assert.Equal(t, uint64(5), def.Loc.Col)

	loc := def.LSP()
	assert.Equal(t, "file:///ws/sample.bgn", loc.URI)
	assert.Equal(t, Position{Line: 8, Character: 4}, loc.Range.Start)
	assert.Equal(t, loc.Range.Start, loc.Range.End)

	def, err = DefinitionAt(tree, 1, 0)
	require.NoError(t, err)
	assert.Nil(t, def)
	assert.Nil(t, def.LSP())
}

func TestHover_LSP(t *testing.T) {
	_, tree := decodeSample(t)
	lines := NewLineIndex([]byte(asttest.SampleSource))

	h, err := HoverAt(tree, 1, asttest.OffsetY)
	require.NoError(t, err)
	out := h.LSP(lines)
	assert.Equal(t, "markdown", out.Contents.Kind)
	assert.Equal(t, h.Markdown, out.Contents.Value)
	require.NotNil(t, out.Range)
	assert.Equal(t, Range{Start: Position{2, 4}, End: Position{2, 5}}, *out.Range)

	var none *Hover
	assert.Nil(t, none.LSP(lines))
}

func TestHoverAt_MultiFile(t *testing.T) {
	s := asttest.NewSample("main.bgn")
	dep := s.AddFile("dep.bgn")
	depIdent := s.Node(ast.NodeIdent, asttest.Span(dep, asttest.OffsetX, asttest.OffsetX+3), map[string]any{
		"ident": "Dep", "usage": ast.UsageDefineFormat,
	})
	s.Append(s.Program, "elements", depIdent)
	tree := s.MustDecode(t)

	h, err := HoverAt(tree, 1, asttest.OffsetX)
	require.NoError(t, err)
	assert.Equal(t, "x", h.Title)

	h, err = HoverAt(tree, dep, asttest.OffsetX)
	require.NoError(t, err)
	assert.Same(t, tree.Nodes[depIdent], h.Node)
	assert.Equal(t, "dep.bgn", tree.FilePath(dep))
}

func TestDefinitionAt_MultiFile(t *testing.T) {
	s := asttest.NewSample("main.bgn")
	dep := s.AddFile("dep.bgn")
	// A reference in dep.bgn whose byte range overlaps `a` in main.bgn.
	depDef := s.Node(ast.NodeIdent, asttest.At(dep, 1, 1, 0, 3), map[string]any{
		"ident": "Dep", "usage": ast.UsageDefineFormat,
	})
	depRef := s.Node(ast.NodeIdent, asttest.At(dep, 2, 1, asttest.OffsetRefA, asttest.OffsetRefA+1), map[string]any{
		"ident": "Dep", "usage": ast.UsageReferenceType, "base": depDef,
	})
	s.Append(s.Program, "elements", depDef, depRef)
	tree := s.MustDecode(t)

	def, err := DefinitionAt(tree, 1, asttest.OffsetRefA)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Same(t, tree.Nodes[s.DefA], def.Ident, "main.bgn resolves its own ident")
	assert.Equal(t, "main.bgn", def.Path)

	def, err = DefinitionAt(tree, dep, asttest.OffsetRefA)
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Same(t, tree.Nodes[depDef], def.Ident)
	assert.Equal(t, "dep.bgn", def.Path)
	assert.Equal(t, uint64(1), def.Loc.Line)
}

func TestFileIndex(t *testing.T) {
	files := []string{"/ws/main.bgn", "/ws/lib/dep.bgn"}

	tests := []struct {
		path string
		want uint64
	}{
		{"/ws/main.bgn", 1},
		{"/ws/lib/../lib/dep.bgn", 2},
		{"dep.bgn", 2},
		{"other.bgn", 1},
		{"", 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FileIndex(files, tt.path))
		})
	}
}
