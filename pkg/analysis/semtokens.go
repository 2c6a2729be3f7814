package analysis

import (
	"sort"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// TokenType is an index into Legend.
type TokenType uint32

const (
	TokenComment TokenType = iota
	TokenKeyword
	TokenNumber
	TokenOperator
	TokenString
	TokenVariable
	TokenEnumMember
	TokenClass
	TokenFunction
	TokenMacro
	TokenRegexp
)

// Legend is the semantic token type legend advertised to editors.
var Legend = []string{
	"comment", "keyword", "number", "operator", "string", "variable",
	"enumMember", "class", "function", "macro", "regexp",
}

func (t TokenType) String() string {
	if int(t) < len(Legend) {
		return Legend[t]
	}
	return "unknown"
}

// SpanSource tells which classifier produced a span.
type SpanSource int

const (
	SourceLexer SpanSource = iota
	SourceAST
)

// Span is one classified source range. Line and Col are 0-based.
type Span struct {
	Line   uint32
	Col    uint32
	Length uint32
	Type   TokenType
	Source SpanSource

	begin, end uint64
}

// macroKeywords are keywords highlighted as macros rather than keywords.
var macroKeywords = map[string]bool{
	"input": true, "output": true, "config": true, "fn": true,
	"format": true, "enum": true, "cast": true, "state": true,
}

func lexerType(tok ast.Token) (TokenType, bool) {
	switch tok.Tag {
	case ast.TagComment:
		return TokenComment, true
	case ast.TagKeyword:
		if macroKeywords[tok.Token] {
			return TokenMacro, true
		}
		return TokenKeyword, true
	case ast.TagBoolLiteral:
		return TokenKeyword, true
	case ast.TagIntLiteral, ast.TagCharLiteral:
		return TokenNumber, true
	case ast.TagPunct:
		return TokenOperator, true
	case ast.TagStrLiteral:
		return TokenString, true
	case ast.TagIdent:
		return TokenVariable, true
	case ast.TagRegexLiteral:
		return TokenRegexp, true
	}
	return 0, false
}

func spanOf(loc ast.Loc, t TokenType, src SpanSource) Span {
	p := startPosition(loc)
	return Span{
		Line:   p.Line,
		Col:    p.Character,
		Length: uint32(loc.Len()),
		Type:   t,
		Source: src,
		begin:  loc.Pos.Begin,
		end:    loc.Pos.End,
	}
}

// inActiveFile accepts tokens of file; tokens without a file index come
// from a single-file lexer run and always belong to it.
func inActiveFile(loc ast.Loc, file uint64) bool {
	return loc.File == 0 || loc.File == file
}

// LexerSpans classifies lexer tokens of the active file by tag alone.
// Whitespace, line, error and unknown tokens produce no span.
func LexerSpans(tokens []ast.Token, file uint64) []Span {
	spans := make([]Span, 0, len(tokens))
	for _, tok := range tokens {
		if !inActiveFile(tok.Loc, file) || tok.Loc.Len() == 0 {
			continue
		}
		t, ok := lexerType(tok)
		if !ok {
			continue
		}
		spans = append(spans, spanOf(tok.Loc, t, SourceLexer))
	}
	return spans
}

// identTokenType maps a terminal usage to its highlight class.
func identTokenType(u ast.IdentUsage) (TokenType, bool) {
	switch u {
	case ast.UsageDefineField, ast.UsageDefineConst, ast.UsageDefineEnumMember, ast.UsageDefineArg:
		return TokenEnumMember, true
	case ast.UsageDefineFormat, ast.UsageDefineEnum, ast.UsageDefineState,
		ast.UsageReferenceType, ast.UsageDefineCastFn, ast.UsageMaybeType:
		return TokenClass, true
	case ast.UsageDefineFn:
		return TokenFunction, true
	case ast.UsageReferenceBuiltinFn:
		return TokenMacro, true
	}
	return 0, false
}

// ASTSpans derives spans from the AST of the active file: idents by their
// resolved usage, explicit primitive types, the `in` of in-assignments and
// regex literals. Only nodes reachable from the program are classified.
// Overflowing idents keep their lexer classification and are reported
// through the returned errors.
func ASTSpans(tree *ast.AST, tokens []ast.Token, file uint64) ([]Span, []error) {
	if tree == nil || tree.Program == nil {
		return nil, nil
	}
	var (
		spans []Span
		errs  []error
	)
	ast.Inspect(tree.Program, func(n ast.Node) bool {
		if !ast.InFile(n, file) || n.Loc().Len() == 0 {
			return true
		}
		switch n := n.(type) {
		case *ast.Ident:
			res, err := Resolve(n)
			if err != nil {
				errs = append(errs, err)
				return true
			}
			if t, ok := identTokenType(res.Usage()); ok {
				spans = append(spans, spanOf(n.Loc(), t, SourceAST))
			}
		case *ast.IntType, *ast.VoidType, *ast.BoolType, *ast.FloatType:
			if n.(ast.Type).IsExplicit() {
				spans = append(spans, spanOf(n.Loc(), TokenClass, SourceAST))
			}
		case *ast.Binary:
			if n.Op != ast.BinaryInAssign || n.Left == nil || n.Right == nil {
				return true
			}
			if tok, ok := firstTokenBetween(tokens, file, n.Left.Loc().Pos.End, n.Right.Loc().Pos.Begin); ok {
				spans = append(spans, spanOf(tok.Loc, TokenMacro, SourceAST))
			}
		case *ast.RegexLiteral:
			spans = append(spans, spanOf(n.Loc(), TokenRegexp, SourceAST))
		}
		return true
	})
	return spans, errs
}

func firstTokenBetween(tokens []ast.Token, file, begin, end uint64) (ast.Token, bool) {
	for _, tok := range tokens {
		if !inActiveFile(tok.Loc, file) {
			continue
		}
		switch tok.Tag {
		case ast.TagSpace, ast.TagIndent, ast.TagLine, ast.TagComment:
			continue
		}
		if tok.Loc.Pos.Begin >= begin && tok.Loc.Pos.End <= end {
			return tok, true
		}
	}
	return ast.Token{}, false
}

// suppressContainedStrings drops lexer string spans fully covered by an
// AST regex span.
func suppressContainedStrings(lexer, fromAST []Span) []Span {
	var regexes []Span
	for _, s := range fromAST {
		if s.Type == TokenRegexp {
			regexes = append(regexes, s)
		}
	}
	if len(regexes) == 0 {
		return lexer
	}
	out := lexer[:0:0]
	for _, s := range lexer {
		covered := false
		if s.Type == TokenString {
			for _, r := range regexes {
				if r.begin <= s.begin && s.end <= r.end {
					covered = true
					break
				}
			}
		}
		if !covered {
			out = append(out, s)
		}
	}
	return out
}

// outranks is the total order deciding which of two spans starting at the
// same position survives:
//  1. a lexer number span loses to anything else;
//  2. otherwise the higher token type index wins;
//  3. on equal type an AST span beats a lexer span;
//  4. otherwise the earlier span is kept.
func outranks(a, b Span) bool {
	aNum := a.Source == SourceLexer && a.Type == TokenNumber
	bNum := b.Source == SourceLexer && b.Type == TokenNumber
	if aNum != bNum {
		return bNum
	}
	if a.Type != b.Type {
		return a.Type > b.Type
	}
	return a.Source == SourceAST && b.Source == SourceLexer
}

// MergeSpans sorts spans by start position and keeps exactly one span per
// start position.
func MergeSpans(spans []Span) []Span {
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Line != sorted[j].Line {
			return sorted[i].Line < sorted[j].Line
		}
		return sorted[i].Col < sorted[j].Col
	})

	out := make([]Span, 0, len(sorted))
	for _, s := range sorted {
		if n := len(out); n > 0 && out[n-1].Line == s.Line && out[n-1].Col == s.Col {
			if outranks(s, out[n-1]) {
				out[n-1] = s
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// EncodeSpans delta-encodes sorted spans into quintuples of
// (deltaLine, deltaCol, length, type, modifiers).
func EncodeSpans(spans []Span) []uint32 {
	data := make([]uint32, 0, len(spans)*5)
	var prevLine, prevCol uint32
	for _, s := range spans {
		deltaLine := s.Line - prevLine
		deltaCol := s.Col
		if deltaLine == 0 {
			deltaCol = s.Col - prevCol
		}
		data = append(data, deltaLine, deltaCol, s.Length, uint32(s.Type), 0)
		prevLine, prevCol = s.Line, s.Col
	}
	return data
}

// BuildSemanticTokens classifies the active file. With a nil tree the
// result is built from the lexer alone.
func BuildSemanticTokens(tree *ast.AST, tokens []ast.Token, file uint64) (*SemanticTokens, []error) {
	lexer := LexerSpans(tokens, file)
	fromAST, errs := ASTSpans(tree, tokens, file)
	lexer = suppressContainedStrings(lexer, fromAST)
	merged := MergeSpans(append(lexer, fromAST...))
	return &SemanticTokens{Data: EncodeSpans(merged)}, errs
}

// DecodeSemanticTokens expands delta-encoded data back into absolute spans.
func DecodeSemanticTokens(data []uint32) []Span {
	spans := make([]Span, 0, len(data)/5)
	var line, col uint32
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += data[i]
			col = data[i+1]
		} else {
			col += data[i+1]
		}
		spans = append(spans, Span{Line: line, Col: col, Length: data[i+2], Type: TokenType(data[i+3])})
	}
	return spans
}
