package analysis

import (
	"fmt"
	"strings"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// BitSizeString renders a size in bits the way hovers display it: "dynamic"
// for unknown sizes, whole bytes when aligned, bits below a byte, and
// "N byte M bit" otherwise.
func BitSizeString(bits *uint64) string {
	if bits == nil {
		return "dynamic"
	}
	return bitCount(*bits)
}

func bitCount(n uint64) string {
	switch {
	case n%8 == 0:
		return fmt.Sprintf("%d byte", n/8)
	case n < 8:
		return fmt.Sprintf("%d bit", n)
	default:
		return fmt.Sprintf("%d byte %d bit", n/8, n%8)
	}
}

// TypeString renders a type as it would be written in brgen source.
func TypeString(t ast.Type) string {
	switch t := t.(type) {
	case nil:
		return "unknown"
	case *ast.IntType:
		prefix := "u"
		if t.IsSigned {
			prefix = "s"
		}
		return prefix + endianLetter(t.Endian) + sizeDigits(t.BitSize())
	case *ast.FloatType:
		return "f" + endianLetter(t.Endian) + sizeDigits(t.BitSize())
	case *ast.BoolType:
		return "bool"
	case *ast.VoidType:
		return "void"
	case *ast.IdentType:
		if t.Ident != nil {
			return t.Ident.Ident
		}
		return "unknown"
	case *ast.IntLiteralType:
		if t.Base != nil {
			return "literal " + t.Base.Value
		}
		return "int literal"
	case *ast.StrLiteralType:
		if t.Base != nil {
			return "literal " + t.Base.Value
		}
		return "str literal"
	case *ast.RegexLiteralType:
		if t.Base != nil {
			return "regex " + t.Base.Value
		}
		return "regex literal"
	case *ast.ArrayType:
		length := ".."
		if t.LengthValue != nil {
			length = fmt.Sprint(*t.LengthValue)
		}
		return "[" + length + "]" + TypeString(t.ElementType)
	case *ast.FunctionType:
		params := make([]string, 0, len(t.Parameters))
		for _, p := range t.Parameters {
			params = append(params, TypeString(p))
		}
		s := "fn(" + strings.Join(params, ", ") + ")"
		if t.ReturnType != nil {
			s += " -> " + TypeString(t.ReturnType)
		}
		return s
	case *ast.EnumType:
		if t.Base != nil && t.Base.Ident != nil {
			return t.Base.Ident.Ident
		}
		return "enum"
	case *ast.OptionalType:
		return "optional " + TypeString(t.BaseType)
	case *ast.RangeType:
		if t.BaseType != nil {
			return "range of " + TypeString(t.BaseType)
		}
		return "range"
	case *ast.StructType:
		return "struct"
	case *ast.StructUnionType:
		return "struct union"
	case *ast.UnionType:
		return "union"
	case *ast.MetaType:
		return "type"
	case *ast.GenericType:
		return "generic"
	default:
		return string(t.NodeType())
	}
}

func endianLetter(e ast.Endian) string {
	switch e {
	case ast.EndianBig:
		return "b"
	case ast.EndianLittle:
		return "l"
	}
	return ""
}

func sizeDigits(bits *uint64) string {
	if bits == nil {
		return ""
	}
	return fmt.Sprint(*bits)
}

// markdown accumulates a hover body: a heading, a role line and a bullet
// list of properties.
type markdown struct {
	b strings.Builder
}

func newMarkdown(title, role string) *markdown {
	m := &markdown{}
	fmt.Fprintf(&m.b, "### %s\n\n%s\n", title, role)
	return m
}

func (m *markdown) item(key, format string, args ...any) {
	fmt.Fprintf(&m.b, "- %s: %s\n", key, fmt.Sprintf(format, args...))
}

func (m *markdown) line(s string) {
	fmt.Fprintf(&m.b, "\n%s\n", s)
}

func (m *markdown) String() string { return strings.TrimRight(m.b.String(), "\n") }

// DescribeIdent renders the hover body for a resolved ident.
func DescribeIdent(res Resolution) string {
	origin := res.Origin
	if origin == nil {
		return ""
	}
	title := origin.Ident

	var m *markdown
	switch res.Kind {
	case TerminalUnknown:
		return newMarkdown(title, "unknown identifier").String()
	case TerminalUnspecifiedReference:
		return newMarkdown(title, "unspecified reference").String()
	case TerminalUnspecifiedMemberReference:
		return newMarkdown(title, "unspecified member reference").String()
	}

	term := res.Terminal
	switch term.Usage {
	case ast.UsageDefineVariable, ast.UsageDefineConst:
		role := "variable"
		if term.Usage == ast.UsageDefineConst {
			role = "constant"
		}
		m = newMarkdown(title, role)
		describeValue(m, term)
	case ast.UsageDefineField:
		m = newMarkdown(title, "field")
		if f, ok := term.Base.(*ast.Field); ok {
			describeField(m, f)
		} else {
			describeValue(m, term)
		}
	case ast.UsageDefineEnumMember:
		m = newMarkdown(title, "enum member")
		if em, ok := term.Base.(*ast.EnumMember); ok {
			describeEnumMember(m, em)
		}
	case ast.UsageDefineFormat:
		m = newMarkdown(title, "format")
		if f, ok := term.Base.(*ast.Format); ok {
			describeFormat(m, f)
		}
	case ast.UsageDefineEnum:
		m = newMarkdown(title, "enum")
		if e, ok := term.Base.(*ast.Enum); ok {
			describeEnum(m, e)
		}
	case ast.UsageDefineFn, ast.UsageDefineCastFn:
		role := "function"
		if term.Usage == ast.UsageDefineCastFn {
			role = "cast function"
		}
		m = newMarkdown(title, role)
		if fn, ok := term.Base.(*ast.Function); ok {
			describeFunction(m, fn)
		}
	case ast.UsageDefineState:
		m = newMarkdown(title, "state")
		if st, ok := term.Base.(*ast.State); ok && st.Body != nil {
			m.item("traits", "%s", st.Body.BlockTraits)
		}
	case ast.UsageDefineArg:
		m = newMarkdown(title, "argument")
		describeValue(m, term)
	case ast.UsageMaybeType:
		m = newMarkdown(title, "maybe type")
	case ast.UsageReferenceBuiltinFn:
		m = newMarkdown(title, "builtin function")
	default:
		m = newMarkdown(title, string(term.Usage))
	}

	if res.Hops > 0 {
		m.line(fmt.Sprintf("defined at line %d, column %d", term.Loc().Line, term.Loc().Col))
	}
	return m.String()
}

func describeValue(m *markdown, id *ast.Ident) {
	t := id.ExprType()
	m.item("type", "%s", TypeString(t))
	if t != nil {
		m.item("size", "%s", BitSizeString(t.BitSize()))
	}
	if id.ConstantLevel() != "" {
		m.item("constant level", "%s", id.ConstantLevel())
	}
}

func describeField(m *markdown, f *ast.Field) {
	m.item("type", "%s", TypeString(f.FieldType))
	if f.FieldType != nil {
		m.item("size", "%s", BitSizeString(f.FieldType.BitSize()))
	}
	m.item("offset(from begin)", "%s", BitSizeString(f.OffsetBit))
	m.item("offset(from end)", "%s", BitSizeString(f.TailOffsetBit))
	m.item("offset(from recent dynamic begin)", "%s", bitCount(f.OffsetRecent))
	m.item("offset(from recent dynamic end)", "%s", bitCount(f.TailOffsetRecent))
	m.item("alignment", "%s", orUnknown(string(f.BitAlignment)))
	m.item("eventual alignment", "%s", orUnknown(string(f.EventualBitAlignment)))
	m.item("follow", "%s", orUnknown(string(f.Follow)))
	m.item("eventual follow", "%s", orUnknown(string(f.EventualFollow)))
	if f.IsStateVariable {
		m.item("state variable", "true")
	}
	if f.Arguments != nil && f.Arguments.AlignmentValue != nil {
		m.item("explicit alignment", "%s", bitCount(*f.Arguments.AlignmentValue))
	}
}

func describeEnumMember(m *markdown, em *ast.EnumMember) {
	enum, ok := em.Belong.(*ast.Enum)
	if !ok || enum == nil {
		m.item("enum", "unknown")
		return
	}
	name := "unknown"
	if enum.Ident != nil {
		name = enum.Ident.Ident
	}
	m.item("enum", "%s", name)
	m.item("size", "%s", BitSizeString(enumBitSize(enum)))
	if em.RawExpr != nil {
		if lit, ok := em.RawExpr.(*ast.IntLiteral); ok {
			m.item("value", "%s", lit.Value)
		}
	}
	if em.StrLiteral != nil {
		m.item("string", "%s", em.StrLiteral.Value)
	}
}

// enumBitSize prefers the declared base type and falls back to the
// computed enum type.
func enumBitSize(e *ast.Enum) *uint64 {
	if e.BaseType != nil && e.BaseType.BitSize() != nil {
		return e.BaseType.BitSize()
	}
	if e.EnumType != nil {
		return e.EnumType.BitSize()
	}
	return nil
}

func describeEnum(m *markdown, e *ast.Enum) {
	if e.BaseType != nil {
		m.item("base type", "%s", TypeString(e.BaseType))
	}
	m.item("size", "%s", BitSizeString(enumBitSize(e)))
	m.item("members", "%d", len(e.Members))
}

func describeFormat(m *markdown, f *ast.Format) {
	if st := f.StructType(); st != nil {
		m.item("size", "%s", BitSizeString(st.BitSize()))
		m.item("fixed header size", "%s", bitCount(st.FixedHeaderSize))
		m.item("fixed tail size", "%s", bitCount(st.FixedTailSize))
		m.item("alignment", "%s", orUnknown(string(st.BitAlignment())))
		m.item("non dynamic allocation", "%t", st.NonDynamicAllocation)
		m.item("recursive", "%t", st.Recursive)
	}
	if deps := dependencyNames(f.Depends); len(deps) > 0 {
		m.item("depends", "%s", strings.Join(deps, ", "))
	}
	if len(f.StateVariables) > 0 {
		names := make([]string, 0, len(f.StateVariables))
		for _, sv := range f.StateVariables {
			if sv != nil && sv.Ident != nil {
				names = append(names, sv.Ident.Ident)
			}
		}
		m.item("state variables", "%s", strings.Join(names, ", "))
	}
	m.item("encode fn", "%s", presence(f.EncodeFn != nil))
	m.item("decode fn", "%s", presence(f.DecodeFn != nil))
	if len(f.CastFns) > 0 {
		m.item("cast fns", "%d", len(f.CastFns))
	}
	if md := f.Metadata(); len(md) > 0 {
		names := make([]string, 0, len(md))
		for _, meta := range md {
			names = append(names, meta.Name)
		}
		m.item("metadata", "%s", strings.Join(names, ", "))
	}
	m.item("traits", "%s", f.BlockTraits())
}

// dependencyNames lists the formats a format depends on, deduplicated by
// name in first-seen order.
func dependencyNames(deps []*ast.IdentType) []string {
	seen := make(map[string]bool, len(deps))
	var out []string
	for _, d := range deps {
		if d == nil || d.Ident == nil || seen[d.Ident.Ident] {
			continue
		}
		seen[d.Ident.Ident] = true
		out = append(out, d.Ident.Ident)
	}
	return out
}

func describeFunction(m *markdown, fn *ast.Function) {
	if len(fn.Parameters) > 0 {
		params := make([]string, 0, len(fn.Parameters))
		for _, p := range fn.Parameters {
			name := "_"
			if p.Ident != nil {
				name = p.Ident.Ident
			}
			params = append(params, name+" :"+TypeString(p.FieldType))
		}
		m.item("parameters", "%s", strings.Join(params, ", "))
	}
	if fn.ReturnType != nil {
		m.item("return type", "%s", TypeString(fn.ReturnType))
	}
	traits := ast.BlockTrait(0)
	if fn.Body != nil {
		traits = fn.Body.BlockTraits
	}
	m.item("traits", "%s", traits)
}

func presence(ok bool) string {
	if ok {
		return "custom"
	}
	return "default"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
