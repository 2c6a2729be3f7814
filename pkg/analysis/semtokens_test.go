package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/ast"
	"github.com/gnana997/brgenlens/pkg/ast/asttest"
)

type tok struct {
	line, col, length uint32
	typ               TokenType
}

func project(spans []Span) []tok {
	out := make([]tok, 0, len(spans))
	for _, s := range spans {
		out = append(out, tok{s.Line, s.Col, s.Length, s.Type})
	}
	return out
}

func sampleTokens(t *testing.T) []ast.Token {
	t.Helper()
	tf, err := ast.DecodeTokens(asttest.SampleTokens(samplePath))
	require.NoError(t, err)
	return tf.Tokens
}

func TestBuildSemanticTokens_Sample(t *testing.T) {
	_, tree := decodeSample(t)

	st, errs := BuildSemanticTokens(tree, sampleTokens(t), 1)
	require.Empty(t, errs)

	want := []tok{
		{0, 0, 6, TokenMacro}, {0, 7, 5, TokenClass}, {0, 12, 1, TokenOperator},
		{1, 4, 1, TokenEnumMember}, {1, 6, 1, TokenOperator}, {1, 7, 2, TokenClass},
		{2, 4, 1, TokenEnumMember}, {2, 6, 1, TokenOperator}, {2, 7, 4, TokenClass},
		{3, 0, 4, TokenMacro}, {3, 5, 5, TokenClass}, {3, 10, 1, TokenOperator},
		{4, 4, 1, TokenOperator}, {4, 5, 2, TokenClass},
		{5, 4, 3, TokenEnumMember}, {5, 8, 1, TokenOperator}, {5, 10, 1, TokenNumber},
		{6, 4, 5, TokenEnumMember},
		{7, 0, 2, TokenMacro}, {7, 3, 1, TokenFunction}, {7, 4, 1, TokenOperator},
		{7, 5, 1, TokenOperator}, {7, 6, 1, TokenOperator},
		{8, 4, 1, TokenVariable}, {8, 6, 2, TokenOperator}, {8, 9, 1, TokenNumber},
		{9, 4, 1, TokenVariable}, {9, 6, 2, TokenOperator}, {9, 9, 1, TokenVariable},
	}
	assert.Equal(t, want, project(DecodeSemanticTokens(st.Data)))
	assert.Equal(t, []uint32{0, 0, 6, 9, 0, 0, 7, 5, 7, 0, 0, 5, 1, 3, 0, 1, 4, 1, 6, 0}, st.Data[:20])
}

func TestBuildSemanticTokens_NonOverlapping(t *testing.T) {
	_, tree := decodeSample(t)

	st, _ := BuildSemanticTokens(tree, sampleTokens(t), 1)
	spans := DecodeSemanticTokens(st.Data)
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if prev.Line == cur.Line {
			assert.LessOrEqual(t, prev.Col+prev.Length, cur.Col, "span %d overlaps %d", i-1, i)
		} else {
			assert.Less(t, prev.Line, cur.Line)
		}
	}
}

func TestBuildSemanticTokens_LexerOnly(t *testing.T) {
	st, errs := BuildSemanticTokens(nil, sampleTokens(t), 1)
	assert.Empty(t, errs)

	spans := project(DecodeSemanticTokens(st.Data))
	require.Len(t, spans, 29)
	assert.Equal(t, tok{0, 7, 5, TokenVariable}, spans[1])
	assert.Equal(t, tok{7, 3, 1, TokenVariable}, spans[19])
}

func TestBuildSemanticTokens_Deterministic(t *testing.T) {
	_, tree := decodeSample(t)
	toks := sampleTokens(t)

	first, _ := BuildSemanticTokens(tree, toks, 1)
	for i := 0; i < 5; i++ {
		again, _ := BuildSemanticTokens(tree, toks, 1)
		assert.Equal(t, first.Data, again.Data)
	}
}

func TestBuildSemanticTokens_SkipsOtherFiles(t *testing.T) {
	b := asttest.New("main.bgn")
	dep := b.AddFile("dep.bgn")
	prog := b.Node(ast.NodeProgram, asttest.At(1, 1, 1, 0, 6), nil)
	ident := b.Node(ast.NodeIdent, asttest.At(dep, 1, 1, 0, 3), map[string]any{
		"ident": "Dep", "usage": ast.UsageDefineFormat,
	})
	b.Append(prog, "elements", ident)
	tree := b.MustDecode(t)

	toks := []ast.Token{
		{Tag: ast.TagIdent, Token: "Dep", Loc: asttest.At(dep, 1, 1, 0, 3)},
		{Tag: ast.TagKeyword, Token: "format", Loc: asttest.At(1, 1, 1, 0, 6)},
	}
	st, _ := BuildSemanticTokens(tree, toks, 1)
	assert.Equal(t, []tok{{0, 0, 6, TokenMacro}}, project(DecodeSemanticTokens(st.Data)))

	st, _ = BuildSemanticTokens(tree, toks, dep)
	assert.Equal(t, []tok{{0, 0, 3, TokenClass}}, project(DecodeSemanticTokens(st.Data)))
}

func TestASTSpans_InAssign(t *testing.T) {
	// for i in 10:
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 12), nil)
	left := b.Node(ast.NodeIdent, asttest.Span(1, 4, 5), map[string]any{"ident": "i", "usage": ast.UsageDefineVariable})
	right := b.Node(ast.NodeIntLiteral, asttest.Span(1, 9, 11), map[string]any{"value": "10"})
	in := b.Node(ast.NodeBinary, asttest.Span(1, 4, 11), map[string]any{"op": ast.BinaryInAssign, "left": left, "right": right})
	b.Append(prog, "elements", in)
	tree := b.MustDecode(t)

	toks := []ast.Token{
		{Tag: ast.TagKeyword, Token: "for", Loc: asttest.Span(1, 0, 3)},
		{Tag: ast.TagSpace, Token: " ", Loc: asttest.Span(1, 3, 4)},
		{Tag: ast.TagIdent, Token: "i", Loc: asttest.Span(1, 4, 5)},
		{Tag: ast.TagSpace, Token: " ", Loc: asttest.Span(1, 5, 6)},
		{Tag: ast.TagKeyword, Token: "in", Loc: asttest.Span(1, 6, 8)},
		{Tag: ast.TagSpace, Token: " ", Loc: asttest.Span(1, 8, 9)},
		{Tag: ast.TagIntLiteral, Token: "10", Loc: asttest.Span(1, 9, 11)},
		{Tag: ast.TagPunct, Token: ":", Loc: asttest.Span(1, 11, 12)},
	}
	st, errs := BuildSemanticTokens(tree, toks, 1)
	require.Empty(t, errs)
	assert.Equal(t, []tok{
		{0, 0, 3, TokenKeyword},
		{0, 4, 1, TokenVariable},
		{0, 6, 2, TokenMacro},
		{0, 9, 2, TokenNumber},
		{0, 11, 1, TokenOperator},
	}, project(DecodeSemanticTokens(st.Data)))
}

func TestASTSpans_SkipsUnreachableNodes(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 20), nil)
	owned := b.Node(ast.NodeIdent, asttest.Span(1, 0, 5), map[string]any{"ident": "Owned", "usage": ast.UsageDefineFormat})
	b.Node(ast.NodeIdent, asttest.Span(1, 10, 16), map[string]any{"ident": "Orphan", "usage": ast.UsageDefineFormat})
	b.Append(prog, "elements", owned)
	tree := b.MustDecode(t)

	spans, errs := ASTSpans(tree, nil, 1)
	require.Empty(t, errs)
	require.Len(t, spans, 1)
	assert.Equal(t, uint32(0), spans[0].Col)
	assert.Equal(t, uint32(5), spans[0].Length)

	toks := []ast.Token{
		{Tag: ast.TagIdent, Token: "Owned", Loc: asttest.Span(1, 0, 5)},
		{Tag: ast.TagIdent, Token: "Orphan", Loc: asttest.Span(1, 10, 16)},
	}
	st, _ := BuildSemanticTokens(tree, toks, 1)
	assert.Equal(t, []tok{
		{0, 0, 5, TokenClass},
		{0, 10, 6, TokenVariable},
	}, project(DecodeSemanticTokens(st.Data)))
}

func TestASTSpans_NoProgram(t *testing.T) {
	spans, errs := ASTSpans(&ast.AST{}, nil, 1)
	assert.Nil(t, spans)
	assert.Nil(t, errs)
}

func TestASTSpans_RegexSuppressesStrings(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 20), nil)
	re := b.Node(ast.NodeRegexLiteral, asttest.Span(1, 0, 10), map[string]any{"value": `"a+"`})
	b.Append(prog, "elements", re)
	tree := b.MustDecode(t)

	toks := []ast.Token{
		{Tag: ast.TagStrLiteral, Token: `"a+"`, Loc: asttest.Span(1, 2, 6)},
		{Tag: ast.TagStrLiteral, Token: `"b"`, Loc: asttest.Span(1, 12, 15)},
	}
	st, _ := BuildSemanticTokens(tree, toks, 1)
	assert.Equal(t, []tok{
		{0, 0, 10, TokenRegexp},
		{0, 12, 3, TokenString},
	}, project(DecodeSemanticTokens(st.Data)))
}

func TestASTSpans_OverflowKeepsLexerClass(t *testing.T) {
	b := asttest.New("t.bgn")
	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 10), nil)
	p := b.Node(ast.NodeIdent, asttest.Span(1, 0, 1), map[string]any{"ident": "p", "usage": ast.UsageReference})
	q := b.Node(ast.NodeIdent, asttest.Span(1, 2, 3), map[string]any{"ident": "q", "usage": ast.UsageReference})
	b.Set(p, "base", q).Set(q, "base", p)
	b.Append(prog, "elements", p, q)
	tree := b.MustDecode(t)

	toks := []ast.Token{
		{Tag: ast.TagIdent, Token: "p", Loc: asttest.Span(1, 0, 1)},
		{Tag: ast.TagIdent, Token: "q", Loc: asttest.Span(1, 2, 3)},
	}
	st, errs := BuildSemanticTokens(tree, toks, 1)
	assert.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrResolutionOverflow)
	}
	assert.Equal(t, []tok{{0, 0, 1, TokenVariable}, {0, 2, 1, TokenVariable}}, project(DecodeSemanticTokens(st.Data)))
}

func TestOutranks(t *testing.T) {
	lex := func(tt TokenType) Span { return Span{Type: tt, Source: SourceLexer} }
	fromAST := func(tt TokenType) Span { return Span{Type: tt, Source: SourceAST} }

	tests := []struct {
		name string
		a, b Span
		want bool
	}{
		{"lexer number loses to keyword", lex(TokenKeyword), lex(TokenNumber), true},
		{"lexer number never wins", lex(TokenNumber), lex(TokenComment), false},
		{"ast number is not demoted", fromAST(TokenNumber), lex(TokenComment), true},
		{"higher index wins", fromAST(TokenClass), lex(TokenVariable), true},
		{"lower index loses", lex(TokenVariable), fromAST(TokenClass), false},
		{"ast beats lexer on tie", fromAST(TokenMacro), lex(TokenMacro), true},
		{"lexer does not beat ast on tie", lex(TokenMacro), fromAST(TokenMacro), false},
		{"identical keeps first", lex(TokenOperator), lex(TokenOperator), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, outranks(tt.a, tt.b))
		})
	}
}

func TestMergeSpans_OrderIndependent(t *testing.T) {
	spans := []Span{
		{Line: 1, Col: 0, Length: 3, Type: TokenVariable, Source: SourceLexer},
		{Line: 0, Col: 4, Length: 2, Type: TokenNumber, Source: SourceLexer},
		{Line: 0, Col: 4, Length: 2, Type: TokenVariable, Source: SourceLexer},
		{Line: 1, Col: 0, Length: 3, Type: TokenEnumMember, Source: SourceAST},
	}
	reversed := []Span{spans[3], spans[2], spans[1], spans[0]}

	a := project(MergeSpans(spans))
	b := project(MergeSpans(reversed))
	assert.Equal(t, a, b)
	assert.Equal(t, []tok{{0, 4, 2, TokenVariable}, {1, 0, 3, TokenEnumMember}}, a)
}

func TestEncodeDecodeSpans(t *testing.T) {
	spans := []Span{
		{Line: 0, Col: 2, Length: 3, Type: TokenKeyword},
		{Line: 0, Col: 7, Length: 1, Type: TokenOperator},
		{Line: 3, Col: 1, Length: 4, Type: TokenClass},
	}
	data := EncodeSpans(spans)
	assert.Equal(t, []uint32{0, 2, 3, 1, 0, 0, 5, 1, 3, 0, 3, 1, 4, 7, 0}, data)
	assert.Equal(t, project(spans), project(DecodeSemanticTokens(data)))
	assert.Empty(t, EncodeSpans(nil))
}

func TestLegend(t *testing.T) {
	require.Len(t, Legend, 11)
	assert.Equal(t, "macro", TokenMacro.String())
	assert.Equal(t, "regexp", TokenRegexp.String())
	assert.Equal(t, "unknown", TokenType(42).String())
}
