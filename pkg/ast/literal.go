package ast

// IntLiteral keeps the literal as written (`0x10`, `1_000`); the compiler
// has already range-checked it.
type IntLiteral struct {
	literalHeader
	Value string
}

func (n *IntLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Value = f.str("value")
}

func (n *IntLiteral) children(fn func(Node) bool) bool { return true }

type BoolLiteral struct {
	literalHeader
	Value bool
}

func (n *BoolLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Value = f.boolean("value")
}

func (n *BoolLiteral) children(fn func(Node) bool) bool { return true }

// StrLiteral is a quoted string. Value includes the quotes; Length is the
// decoded byte length.
type StrLiteral struct {
	literalHeader
	Value  string
	Length uint64
}

func (n *StrLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Value = f.str("value")
	n.Length = f.u64("length")
}

func (n *StrLiteral) children(fn func(Node) bool) bool { return true }

type RegexLiteral struct {
	literalHeader
	Value string
}

func (n *RegexLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Value = f.str("value")
}

func (n *RegexLiteral) children(fn func(Node) bool) bool { return true }

// CharLiteral is a quoted character; Code is its code point.
type CharLiteral struct {
	literalHeader
	Value string
	Code  uint64
}

func (n *CharLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Value = f.str("value")
	n.Code = f.u64("code")
}

func (n *CharLiteral) children(fn func(Node) bool) bool { return true }

// TypeLiteral is a type used as a value, e.g. `<u8>` in a cast.
type TypeLiteral struct {
	literalHeader
	TypeLiteral Type
	EndLoc      Loc
}

func (n *TypeLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.TypeLiteral = ref[Type](f, "type_literal")
	n.EndLoc = f.loc("end_loc")
}

func (n *TypeLiteral) children(fn func(Node) bool) bool { return visit(fn, n.TypeLiteral) }

// SpecialLiteral is one of the builtin objects `input`, `output`, `config`.
type SpecialLiteral struct {
	literalHeader
	Kind SpecialLiteralKind
}

func (n *SpecialLiteral) decode(f *fields) {
	n.decodeExpr(f)
	n.Kind = SpecialLiteralKind(f.str("kind"))
}

func (n *SpecialLiteral) children(fn func(Node) bool) bool { return true }
