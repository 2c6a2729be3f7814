package asttest

import "github.com/gnana997/brgenlens/pkg/ast"

// SampleSource is the brgen source the Sample fixture describes.
const SampleSource = "format Point:\n" +
	"    x :u8\n" +
	"    y :ub16\n" +
	"enum Color:\n" +
	"    :u8\n" +
	"    RED = 1\n" +
	"    GREEN\n" +
	"fn f():\n" +
	"    a := 1\n" +
	"    b := a\n"

// Byte offsets of interesting spots in SampleSource.
const (
	OffsetPoint = 7
	OffsetX     = 18
	OffsetU8    = 21
	OffsetY     = 28
	OffsetColor = 41
	OffsetRED   = 60
	OffsetGREEN = 72
	OffsetF     = 81
	OffsetDefA  = 90
	OffsetLit1  = 95
	OffsetDefB  = 101
	OffsetRefA  = 106
)

// Sample is the compiler output for SampleSource, with the node indices
// tests usually need.
type Sample struct {
	*Builder
	Path string

	Program, Format, FieldX, FieldY, Enum, Red, Green, Func int

	PointIdent, XIdent, YIdent, ColorIdent, RedIdent, GreenIdent, FIdent int

	DefA, DefB, RefA, U8, UB16, EnumU8 int

	GlobalScope, FormatScope, EnumScope, FuncScope int
}

// NewSample builds the fixture for SampleSource as file 1 named path.
func NewSample(path string) *Sample {
	s := &Sample{Builder: New(path), Path: path}
	b := s.Builder

	s.Program = b.Node(ast.NodeProgram, At(1, 1, 1, 0, uint64(len(SampleSource))), nil)
	s.GlobalScope = b.Scope(s.Program)
	progStruct := b.Node(ast.NodeStructType, At(1, 1, 1, 0, uint64(len(SampleSource))), map[string]any{
		"base": s.Program, "bit_alignment": ast.BitAlignmentNotDecidable,
	})

	// format Point
	s.Format = b.Node(ast.NodeFormat, At(1, 1, 1, 0, 35), nil)
	s.PointIdent = b.Node(ast.NodeIdent, At(1, 1, 8, 7, 12), map[string]any{
		"ident": "Point", "usage": ast.UsageDefineFormat, "base": s.Format, "scope": s.GlobalScope,
	})
	block := b.Node(ast.NodeIndentBlock, At(1, 2, 5, 18, 35), nil)
	st := b.Node(ast.NodeStructType, At(1, 2, 5, 18, 35), map[string]any{
		"base": s.Format, "bit_size": 24, "bit_alignment": ast.BitAlignmentByteAligned,
		"fixed_header_size": 24, "fixed_tail_size": 0,
	})
	s.FormatScope = b.Scope(block)

	s.FieldX = b.Node(ast.NodeField, At(1, 2, 5, 18, 23), nil)
	s.XIdent = b.Node(ast.NodeIdent, At(1, 2, 5, 18, 19), map[string]any{
		"ident": "x", "usage": ast.UsageDefineField, "base": s.FieldX, "scope": s.FormatScope,
	})
	s.U8 = intType(b, At(1, 2, 8, 21, 23), 8, ast.EndianUnspec)
	s.FieldY = b.Node(ast.NodeField, At(1, 3, 5, 28, 35), nil)
	s.YIdent = b.Node(ast.NodeIdent, At(1, 3, 5, 28, 29), map[string]any{
		"ident": "y", "usage": ast.UsageDefineField, "base": s.FieldY, "scope": s.FormatScope,
	})
	s.UB16 = intType(b, At(1, 3, 8, 31, 35), 16, ast.EndianBig)

	b.Set(s.XIdent, "expr_type", s.U8)
	b.Set(s.YIdent, "expr_type", s.UB16)
	field(b, s.FieldX, s.XIdent, s.U8, s.Format, st, At(1, 2, 7, 20, 21), 0, 16, ast.FollowFixed)
	b.Set(s.FieldX, "next", s.FieldY)
	field(b, s.FieldY, s.YIdent, s.UB16, s.Format, st, At(1, 3, 7, 30, 31), 8, 0, ast.FollowEnd)

	b.Append(st, "fields", s.FieldX, s.FieldY)
	b.Set(block, "struct_type", st).
		Set(block, "scope", s.FormatScope).
		Set(block, "block_traits", uint64(ast.TraitFixedPrimitive)).
		Append(block, "elements", s.FieldX, s.FieldY)
	b.Set(s.Format, "ident", s.PointIdent).Set(s.Format, "body", block)
	b.scopes[s.FormatScope].Ident = []int{s.XIdent, s.YIdent}

	// enum Color
	enumScope := b.Scope(-1)
	s.Enum = b.Node(ast.NodeEnum, At(1, 4, 1, 36, 77), nil)
	b.scopes[enumScope].Owner = ptr(s.Enum)
	s.ColorIdent = b.Node(ast.NodeIdent, At(1, 4, 6, 41, 46), map[string]any{
		"ident": "Color", "usage": ast.UsageDefineEnum, "base": s.Enum, "scope": enumScope,
	})
	s.EnumU8 = intType(b, At(1, 5, 6, 53, 55), 8, ast.EndianUnspec)
	s.EnumScope = b.Scope(s.Enum)
	enumType := b.Node(ast.NodeEnumType, At(1, 4, 6, 41, 46), map[string]any{
		"base": s.Enum, "bit_size": 8, "bit_alignment": ast.BitAlignmentByteAligned,
	})

	s.Red = b.Node(ast.NodeEnumMember, At(1, 6, 5, 60, 67), nil)
	s.RedIdent = b.Node(ast.NodeIdent, At(1, 6, 5, 60, 63), map[string]any{
		"ident": "RED", "usage": ast.UsageDefineEnumMember, "base": s.Red, "scope": s.EnumScope,
		"expr_type": enumType,
	})
	one := b.Node(ast.NodeIntLiteral, At(1, 6, 11, 66, 67), map[string]any{
		"value": "1", "constant_level": ast.ConstantLevelConstant,
	})
	b.Set(s.Red, "ident", s.RedIdent).Set(s.Red, "belong", s.Enum).
		Set(s.Red, "raw_expr", one).Set(s.Red, "value", one)

	s.Green = b.Node(ast.NodeEnumMember, At(1, 7, 5, 72, 77), nil)
	s.GreenIdent = b.Node(ast.NodeIdent, At(1, 7, 5, 72, 77), map[string]any{
		"ident": "GREEN", "usage": ast.UsageDefineEnumMember, "base": s.Green, "scope": s.EnumScope,
		"expr_type": enumType,
	})
	b.Set(s.Green, "ident", s.GreenIdent).Set(s.Green, "belong", s.Enum)

	b.Set(s.Enum, "ident", s.ColorIdent).
		Set(s.Enum, "scope", s.EnumScope).
		Set(s.Enum, "colon_loc", At(1, 4, 11, 46, 47)).
		Set(s.Enum, "base_type", s.EnumU8).
		Set(s.Enum, "enum_type", enumType).
		Append(s.Enum, "members", s.Red, s.Green)
	b.scopes[s.EnumScope].Ident = []int{s.RedIdent, s.GreenIdent}

	// fn f
	fnScope := b.Scope(-1)
	s.Func = b.Node(ast.NodeFunction, At(1, 8, 1, 78, 107), nil)
	b.scopes[fnScope].Owner = ptr(s.Func)
	s.FIdent = b.Node(ast.NodeIdent, At(1, 8, 4, 81, 82), map[string]any{
		"ident": "f", "usage": ast.UsageDefineFn, "base": s.Func, "scope": fnScope,
	})
	body := b.Node(ast.NodeIndentBlock, At(1, 9, 5, 90, 107), nil)
	s.FuncScope = b.Scope(body)
	litType := b.Node(ast.NodeIntLiteralType, At(1, 9, 10, 95, 96), map[string]any{
		"bit_size": 1, "bit_alignment": ast.BitAlignmentNotTarget,
	})

	assignA := b.Node(ast.NodeBinary, At(1, 9, 5, 90, 96), map[string]any{"op": ast.BinaryDefineAssign})
	s.DefA = b.Node(ast.NodeIdent, At(1, 9, 5, 90, 91), map[string]any{
		"ident": "a", "usage": ast.UsageDefineVariable, "base": assignA, "scope": s.FuncScope,
		"expr_type": litType, "constant_level": ast.ConstantLevelImmutableVariable,
	})
	lit := b.Node(ast.NodeIntLiteral, At(1, 9, 10, 95, 96), map[string]any{
		"value": "1", "expr_type": litType, "constant_level": ast.ConstantLevelConstant,
	})
	b.Set(litType, "base", lit)
	b.Set(assignA, "left", s.DefA).Set(assignA, "right", lit)

	assignB := b.Node(ast.NodeBinary, At(1, 10, 5, 101, 107), map[string]any{"op": ast.BinaryDefineAssign})
	s.DefB = b.Node(ast.NodeIdent, At(1, 10, 5, 101, 102), map[string]any{
		"ident": "b", "usage": ast.UsageDefineVariable, "base": assignB, "scope": s.FuncScope,
		"expr_type": litType, "constant_level": ast.ConstantLevelImmutableVariable,
	})
	s.RefA = b.Node(ast.NodeIdent, At(1, 10, 10, 106, 107), map[string]any{
		"ident": "a", "usage": ast.UsageReference, "base": s.DefA, "scope": s.FuncScope,
	})
	b.Set(assignB, "left", s.DefB).Set(assignB, "right", s.RefA)

	b.Set(body, "scope", s.FuncScope).
		Set(body, "block_traits", uint64(ast.TraitLocalVariable|ast.TraitProcedural)).
		Append(body, "elements", assignA, assignB)
	b.scopes[s.FuncScope].Ident = []int{s.DefA, s.DefB}
	b.Set(s.Func, "ident", s.FIdent).Set(s.Func, "body", body)

	// program
	b.Set(s.Program, "global_scope", s.GlobalScope).
		Set(s.Program, "struct_type", progStruct).
		Append(s.Program, "elements", s.Format, s.Enum, s.Func)
	b.Append(progStruct, "fields", s.Format, s.Enum, s.Func)

	// The global level is split at each definition: Point, then Color,
	// then f, each with its body hanging off as a branch.
	b.scopes[s.GlobalScope].Ident = []int{s.PointIdent}
	b.Set(s.PointIdent, "scope", s.GlobalScope)
	b.scopes[enumScope].Ident = []int{s.ColorIdent}
	b.scopes[fnScope].Ident = []int{s.FIdent}
	b.Chain(s.GlobalScope, enumScope).Chain(enumScope, fnScope)
	b.Branch(s.GlobalScope, s.FormatScope).
		Branch(enumScope, s.EnumScope).
		Branch(fnScope, s.FuncScope)
	return s
}

// SampleTokens is the lexer output for SampleSource. Whitespace tokens are
// left out.
func SampleTokens(path string) []byte {
	return Tokens([]string{path},
		Token{ast.TagKeyword, "format", At(1, 1, 1, 0, 6)},
		Token{ast.TagIdent, "Point", At(1, 1, 8, 7, 12)},
		Token{ast.TagPunct, ":", At(1, 1, 13, 12, 13)},
		Token{ast.TagIdent, "x", At(1, 2, 5, 18, 19)},
		Token{ast.TagPunct, ":", At(1, 2, 7, 20, 21)},
		Token{ast.TagIdent, "u8", At(1, 2, 8, 21, 23)},
		Token{ast.TagIdent, "y", At(1, 3, 5, 28, 29)},
		Token{ast.TagPunct, ":", At(1, 3, 7, 30, 31)},
		Token{ast.TagIdent, "ub16", At(1, 3, 8, 31, 35)},
		Token{ast.TagKeyword, "enum", At(1, 4, 1, 36, 40)},
		Token{ast.TagIdent, "Color", At(1, 4, 6, 41, 46)},
		Token{ast.TagPunct, ":", At(1, 4, 11, 46, 47)},
		Token{ast.TagPunct, ":", At(1, 5, 5, 52, 53)},
		Token{ast.TagIdent, "u8", At(1, 5, 6, 53, 55)},
		Token{ast.TagIdent, "RED", At(1, 6, 5, 60, 63)},
		Token{ast.TagPunct, "=", At(1, 6, 9, 64, 65)},
		Token{ast.TagIntLiteral, "1", At(1, 6, 11, 66, 67)},
		Token{ast.TagIdent, "GREEN", At(1, 7, 5, 72, 77)},
		Token{ast.TagKeyword, "fn", At(1, 8, 1, 78, 80)},
		Token{ast.TagIdent, "f", At(1, 8, 4, 81, 82)},
		Token{ast.TagPunct, "(", At(1, 8, 5, 82, 83)},
		Token{ast.TagPunct, ")", At(1, 8, 6, 83, 84)},
		Token{ast.TagPunct, ":", At(1, 8, 7, 84, 85)},
		Token{ast.TagIdent, "a", At(1, 9, 5, 90, 91)},
		Token{ast.TagPunct, ":=", At(1, 9, 7, 92, 94)},
		Token{ast.TagIntLiteral, "1", At(1, 9, 10, 95, 96)},
		Token{ast.TagIdent, "b", At(1, 10, 5, 101, 102)},
		Token{ast.TagPunct, ":=", At(1, 10, 7, 103, 105)},
		Token{ast.TagIdent, "a", At(1, 10, 10, 106, 107)},
	)
}

func intType(b *Builder, loc ast.Loc, bits uint64, endian ast.Endian) int {
	return b.Node(ast.NodeIntType, loc, map[string]any{
		"is_explicit": true, "bit_size": bits, "bit_alignment": ast.BitAlignmentByteAligned,
		"endian": endian, "is_signed": false, "is_common_supported": true,
	})
}

func field(b *Builder, idx, ident, typ, format, st int, colon ast.Loc, offset, tail uint64, follow ast.Follow) {
	b.Set(idx, "ident", ident).
		Set(idx, "field_type", typ).
		Set(idx, "colon_loc", colon).
		Set(idx, "belong", format).
		Set(idx, "belong_struct", st).
		Set(idx, "offset_bit", offset).
		Set(idx, "offset_recent", offset).
		Set(idx, "tail_offset_bit", tail).
		Set(idx, "tail_offset_recent", tail).
		Set(idx, "bit_alignment", ast.BitAlignmentByteAligned).
		Set(idx, "eventual_bit_alignment", ast.BitAlignmentByteAligned).
		Set(idx, "follow", follow).
		Set(idx, "eventual_follow", follow)
}
