package ast

// IntType is `u8`, `s32`, `ub16`, ...
type IntType struct {
	typeHeader
	Endian            Endian
	IsSigned          bool
	IsCommonSupported bool
}

func (n *IntType) decode(f *fields) {
	n.decodeType(f)
	n.Endian = Endian(f.str("endian"))
	n.IsSigned = f.boolean("is_signed")
	n.IsCommonSupported = f.boolean("is_common_supported")
}

func (n *IntType) children(fn func(Node) bool) bool { return true }

// FloatType is `f32` / `f64`.
type FloatType struct {
	typeHeader
	Endian            Endian
	IsCommonSupported bool
}

func (n *FloatType) decode(f *fields) {
	n.decodeType(f)
	n.Endian = Endian(f.str("endian"))
	n.IsCommonSupported = f.boolean("is_common_supported")
}

func (n *FloatType) children(fn func(Node) bool) bool { return true }

// BoolType is `bool`.
type BoolType struct {
	typeHeader
}

func (n *BoolType) decode(f *fields)                 { n.decodeType(f) }
func (n *BoolType) children(fn func(Node) bool) bool { return true }

// VoidType is `void`.
type VoidType struct {
	typeHeader
}

func (n *VoidType) decode(f *fields)                 { n.decodeType(f) }
func (n *VoidType) children(fn func(Node) bool) bool { return true }

// IdentType is a named type reference. Base is the referenced definition
// (*Format, *Enum, *State, ...) once resolved.
type IdentType struct {
	typeHeader
	ImportRef *MemberAccess
	Ident     *Ident
	Base      Node
}

func (n *IdentType) decode(f *fields) {
	n.decodeType(f)
	n.ImportRef = ref[*MemberAccess](f, "import_ref")
	n.Ident = ref[*Ident](f, "ident")
	n.Base = ref[Node](f, "base")
}

func (n *IdentType) children(fn func(Node) bool) bool {
	return visit(fn, n.ImportRef) && visit(fn, n.Ident)
}

// IntLiteralType is the type of an integer literal used in type position.
type IntLiteralType struct {
	typeHeader
	Base *IntLiteral
}

func (n *IntLiteralType) decode(f *fields) {
	n.decodeType(f)
	n.Base = ref[*IntLiteral](f, "base")
}

func (n *IntLiteralType) children(fn func(Node) bool) bool { return true }

// StrLiteralType is the type of a string literal used in type position,
// e.g. a magic value field.
type StrLiteralType struct {
	typeHeader
	Base *StrLiteral
}

func (n *StrLiteralType) decode(f *fields) {
	n.decodeType(f)
	n.Base = ref[*StrLiteral](f, "base")
}

func (n *StrLiteralType) children(fn func(Node) bool) bool { return visit(fn, n.Base) }

// RegexLiteralType is the type of a regex literal used in type position.
type RegexLiteralType struct {
	typeHeader
	Base *RegexLiteral
}

func (n *RegexLiteralType) decode(f *fields) {
	n.decodeType(f)
	n.Base = ref[*RegexLiteral](f, "base")
}

func (n *RegexLiteralType) children(fn func(Node) bool) bool { return visit(fn, n.Base) }

// ArrayType is `[len]elem`. LengthValue is set when the length is constant.
type ArrayType struct {
	typeHeader
	EndLoc      Loc
	ElementType Type
	Length      Expr
	LengthValue *uint64
	IsBytes     bool
}

func (n *ArrayType) decode(f *fields) {
	n.decodeType(f)
	n.EndLoc = f.loc("end_loc")
	n.ElementType = ref[Type](f, "element_type")
	n.Length = ref[Expr](f, "length")
	n.LengthValue = f.u64ptr("length_value")
	n.IsBytes = f.boolean("is_bytes")
}

func (n *ArrayType) children(fn func(Node) bool) bool {
	return visit(fn, n.ElementType) && visit(fn, n.Length)
}

// FunctionType is the signature of a function.
type FunctionType struct {
	typeHeader
	Parameters []Type
	ReturnType Type
}

func (n *FunctionType) decode(f *fields) {
	n.decodeType(f)
	n.Parameters = list[Type](f, "parameters")
	n.ReturnType = ref[Type](f, "return_type")
}

func (n *FunctionType) children(fn func(Node) bool) bool { return true }

// StructType is the computed layout of a block: its members in order plus
// fixed header/tail sizes in bits.
type StructType struct {
	typeHeader
	Fields          []Member
	Base            Node
	Recursive       bool
	FixedHeaderSize uint64
	FixedTailSize   uint64
}

func (n *StructType) decode(f *fields) {
	n.decodeType(f)
	n.Fields = list[Member](f, "fields")
	n.Base = ref[Node](f, "base")
	n.Recursive = f.boolean("recursive")
	n.FixedHeaderSize = f.u64("fixed_header_size")
	n.FixedTailSize = f.u64("fixed_tail_size")
}

func (n *StructType) children(fn func(Node) bool) bool { return true }

// StructUnionType is the layout of an if/match that selects between
// alternative structs.
type StructUnionType struct {
	typeHeader
	Cond        Expr
	Conds       []Expr
	Structs     []*StructType
	Base        Expr
	UnionFields []*Field
	Exhaustive  bool
}

func (n *StructUnionType) decode(f *fields) {
	n.decodeType(f)
	n.Cond = ref[Expr](f, "cond")
	n.Conds = list[Expr](f, "conds")
	n.Structs = list[*StructType](f, "structs")
	n.Base = ref[Expr](f, "base")
	n.UnionFields = list[*Field](f, "union_fields")
	n.Exhaustive = f.boolean("exhaustive")
}

func (n *StructUnionType) children(fn func(Node) bool) bool { return true }

// UnionType is the type of a field declared in several branches.
type UnionType struct {
	typeHeader
	Cond             Expr
	Candidates       []*UnionCandidate
	BaseType         *StructUnionType
	CommonType       Type
	MemberCandidates []*Field
}

func (n *UnionType) decode(f *fields) {
	n.decodeType(f)
	n.Cond = ref[Expr](f, "cond")
	n.Candidates = list[*UnionCandidate](f, "candidates")
	n.BaseType = ref[*StructUnionType](f, "base_type")
	n.CommonType = ref[Type](f, "common_type")
	n.MemberCandidates = list[*Field](f, "member_candidates")
}

func (n *UnionType) children(fn func(Node) bool) bool { return true }

// RangeType is the type of a range expression.
type RangeType struct {
	typeHeader
	BaseType Type
	Range    *Range
}

func (n *RangeType) decode(f *fields) {
	n.decodeType(f)
	n.BaseType = ref[Type](f, "base_type")
	n.Range = ref[*Range](f, "range")
}

func (n *RangeType) children(fn func(Node) bool) bool { return true }

// EnumType is the type of a value of an enum.
type EnumType struct {
	typeHeader
	Base *Enum
}

func (n *EnumType) decode(f *fields) {
	n.decodeType(f)
	n.Base = ref[*Enum](f, "base")
}

func (n *EnumType) children(fn func(Node) bool) bool { return true }

// MetaType is the type of a type expression.
type MetaType struct {
	typeHeader
}

func (n *MetaType) decode(f *fields)                 { n.decodeType(f) }
func (n *MetaType) children(fn func(Node) bool) bool { return true }

// OptionalType wraps a type that may be absent.
type OptionalType struct {
	typeHeader
	BaseType Type
}

func (n *OptionalType) decode(f *fields) {
	n.decodeType(f)
	n.BaseType = ref[Type](f, "base_type")
}

func (n *OptionalType) children(fn func(Node) bool) bool { return visit(fn, n.BaseType) }

// GenericType is a placeholder type parameter bound to a member.
type GenericType struct {
	typeHeader
	BelongMember Member
}

func (n *GenericType) decode(f *fields) {
	n.decodeType(f)
	n.BelongMember = ref[Member](f, "belong_member")
}

func (n *GenericType) children(fn func(Node) bool) bool { return true }
