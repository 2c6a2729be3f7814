package ast_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/ast"
	"github.com/gnana997/brgenlens/pkg/ast/asttest"
)

func TestDecodeFile_Sample(t *testing.T) {
	s := asttest.NewSample("point.bgn")
	tree := s.MustDecode(t)

	require.NotNil(t, tree.Program)
	assert.Equal(t, s.Program, tree.Program.Index())
	assert.Equal(t, []string{"point.bgn"}, tree.Files)
	assert.Equal(t, "point.bgn", tree.FilePath(1))
	assert.Empty(t, tree.FilePath(0))
	assert.Empty(t, tree.FilePath(2))
	require.Len(t, tree.Program.Elements, 3)

	format, ok := tree.Nodes[s.Format].(*ast.Format)
	require.True(t, ok)
	assert.Equal(t, "Point", format.Ident.Ident)
	assert.Equal(t, ast.UsageDefineFormat, format.Ident.Usage)
	assert.Same(t, format, format.Ident.Base)
	require.NotNil(t, format.StructType())
	require.NotNil(t, format.StructType().BitSize())
	assert.Equal(t, uint64(24), *format.StructType().BitSize())
	assert.Equal(t, ast.TraitFixedPrimitive, format.BlockTraits())

	x, ok := tree.Nodes[s.FieldX].(*ast.Field)
	require.True(t, ok)
	assert.Same(t, format, x.Belong)
	assert.Same(t, tree.Nodes[s.FieldY], x.Next)
	require.NotNil(t, x.OffsetBit)
	assert.Equal(t, uint64(0), *x.OffsetBit)
	assert.Equal(t, ast.FollowFixed, x.Follow)

	u8, ok := x.FieldType.(*ast.IntType)
	require.True(t, ok)
	assert.True(t, u8.IsExplicit())
	assert.Equal(t, ast.EndianUnspec, u8.Endian)

	ref, ok := tree.Nodes[s.RefA].(*ast.Ident)
	require.True(t, ok)
	assert.Equal(t, ast.UsageReference, ref.Usage)
	assert.Same(t, tree.Nodes[s.DefA], ref.Base)
	assert.Nil(t, ref.ExprType())
}

func TestDecodeFile_NullAST(t *testing.T) {
	b := asttest.New("broken.bgn").
		WithoutAST().
		Diagnostic(asttest.At(1, 1, 1, 0, 3), "unexpected token", false)

	tree, srcErr, err := ast.DecodeFile(b.JSON())
	require.NoError(t, err)
	assert.Nil(t, tree)
	require.NotNil(t, srcErr)
	assert.True(t, srcErr.HasErrors())
	assert.Equal(t, "unexpected token", srcErr.Errs[0].Msg)
}

func TestDecodeFile_StringError(t *testing.T) {
	data := []byte(`{"ast": null, "file": ["a.bgn"], "error": "fatal: out of memory"}`)
	tree, srcErr, err := ast.DecodeFile(data)
	require.NoError(t, err)
	assert.Nil(t, tree)
	require.NotNil(t, srcErr)
	require.Len(t, srcErr.Errs, 1)
	assert.Equal(t, "fatal: out of memory", srcErr.Errs[0].Msg)
}

func TestDecodeFile_InvalidJSON(t *testing.T) {
	_, _, err := ast.DecodeFile([]byte(`{"ast":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ast.ErrMalformedAst))
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *asttest.Builder
		reason string
	}{
		{
			name: "no program",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeIdent, asttest.Span(1, 0, 1), map[string]any{"ident": "a"})
				return b
			},
			reason: "no program node",
		},
		{
			name: "duplicate program",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				return b
			},
			reason: "duplicate program",
		},
		{
			name: "unknown node type",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				b.Node("teleport", asttest.Span(1, 0, 1), nil)
				return b
			},
			reason: "unknown node_type",
		},
		{
			name: "index out of range",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), map[string]any{"elements": []int{7}})
				return b
			},
			reason: "out of range",
		},
		{
			name: "family mismatch",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				lit := b.Node(ast.NodeIntLiteral, asttest.Span(1, 5, 6), map[string]any{"value": "1"})
				b.Node(ast.NodeField, asttest.Span(1, 0, 6), map[string]any{"field_type": lit})
				return b
			},
			reason: "expected ast.Type",
		},
		{
			name: "variant mismatch",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				lit := b.Node(ast.NodeIntLiteral, asttest.Span(1, 5, 6), map[string]any{"value": "1"})
				b.Node(ast.NodeField, asttest.Span(1, 0, 6), map[string]any{"ident": lit})
				return b
			},
			reason: "expected *ast.Ident",
		},
		{
			name: "begin after end",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 9, 3), nil)
				return b
			},
			reason: "begin after end",
		},
		{
			name: "scope index out of range",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), map[string]any{"global_scope": 3})
				return b
			},
			reason: "scope index 3 out of range",
		},
		{
			name: "scope lists a non-ident",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				b.Scope(prog, prog)
				return b
			},
			reason: "as ident",
		},
		{
			name: "wrong scalar type",
			build: func() *asttest.Builder {
				b := asttest.New("a.bgn")
				b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
				b.Node(ast.NodeIdent, asttest.Span(1, 0, 1), map[string]any{"ident": 42})
				return b
			},
			reason: "cannot unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, _, err := ast.DecodeFile(tt.build().JSON())
			require.Error(t, err)
			assert.Nil(t, tree)
			assert.ErrorIs(t, err, ast.ErrMalformedAst)

			var malformed *ast.MalformedAstError
			require.ErrorAs(t, err, &malformed)
			assert.Contains(t, malformed.Error(), tt.reason)
		})
	}
}

func TestDecode_ForwardReference(t *testing.T) {
	// The field's belong points at a format that appears later in the
	// node array.
	b := asttest.New("a.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 20), nil)
	field := b.Node(ast.NodeField, asttest.Span(1, 10, 15), nil)
	format := b.Node(ast.NodeFormat, asttest.Span(1, 0, 20), nil)
	b.Set(field, "belong", format)
	b.Append(prog, "elements", format)

	tree := b.MustDecode(t)
	f := tree.Nodes[field].(*ast.Field)
	assert.Same(t, tree.Nodes[format], f.Belong)
}

func TestDecode_NilSerialized(t *testing.T) {
	_, err := ast.Decode(nil, nil)
	assert.ErrorIs(t, err, ast.ErrMalformedAst)
}

func TestDecode_ScopeConsistency(t *testing.T) {
	s := asttest.NewSample("point.bgn")
	tree := s.MustDecode(t)

	require.NotEmpty(t, tree.Scopes)
	for _, sc := range tree.Scopes {
		if sc.Next != nil {
			assert.Same(t, sc, sc.Next.Prev, "scope %d", sc.Index())
		}
		if sc.Prev != nil {
			assert.Same(t, sc, sc.Prev.Next, "scope %d", sc.Index())
		}
	}

	global := tree.Program.GlobalScope
	require.NotNil(t, global)
	var names []string
	global.Siblings(100, func(sc *ast.Scope) bool {
		for _, id := range sc.Ident {
			names = append(names, id.Ident)
		}
		return true
	})
	assert.Equal(t, []string{"Point", "Color", "f"}, names)
	require.NotNil(t, global.Branch)
	assert.True(t, global.Branch.BranchRoot)
	assert.Len(t, global.Branch.Ident, 2)
}

func TestDecode_InconsistentScopes(t *testing.T) {
	b := asttest.New("a.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
	a := b.Scope(prog)
	c := b.Scope(prog)
	d := b.Scope(prog)
	b.Chain(a, c)
	// d claims c as its predecessor but c.next is not d.
	b.Chain(d, c)

	_, _, err := ast.DecodeFile(b.JSON())
	require.Error(t, err)
	assert.ErrorIs(t, err, ast.ErrMalformedAst)
	assert.Contains(t, err.Error(), "prev/next links disagree")
}

func TestDecodeTokens(t *testing.T) {
	tf, err := ast.DecodeTokens(asttest.SampleTokens("point.bgn"))
	require.NoError(t, err)
	require.NotEmpty(t, tf.Tokens)
	assert.Equal(t, ast.TagKeyword, tf.Tokens[0].Tag)
	assert.Equal(t, "format", tf.Tokens[0].Token)
	assert.Nil(t, tf.Error)

	_, err = ast.DecodeTokens([]byte("nope"))
	assert.Error(t, err)
}

func TestBlockTraitNames(t *testing.T) {
	assert.Equal(t, "none", ast.BlockTrait(0).String())
	traits := ast.TraitFixedPrimitive | ast.TraitAssertion
	assert.Equal(t, []string{"fixed_primitive", "assertion"}, traits.Names())
	assert.Equal(t, "fixed_primitive, assertion", traits.String())
}

func TestIdentUsage(t *testing.T) {
	assert.True(t, ast.UsageDefineField.IsDefinition())
	assert.False(t, ast.UsageReference.IsDefinition())
	assert.True(t, ast.UsageReferenceMemberType.IsReference())
	assert.False(t, ast.UsageMaybeType.IsReference())
}

func TestLoc(t *testing.T) {
	loc := asttest.Span(1, 4, 8)
	assert.True(t, loc.Contains(4))
	assert.True(t, loc.Contains(8))
	assert.False(t, loc.Contains(9))
	assert.Equal(t, uint64(4), loc.Len())
}
