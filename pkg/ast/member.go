package ast

// Field is a field of a format or state, or a function parameter.
//
// The layout metadata is computed by the compiler. Offsets are in bits;
// nil means the offset is not statically known.
type Field struct {
	memberHeader
	ColonLoc             Loc
	FieldType            Type
	Arguments            *FieldArgument
	OffsetBit            *uint64
	OffsetRecent         uint64
	TailOffsetBit        *uint64
	TailOffsetRecent     uint64
	BitAlignment         BitAlignment
	EventualBitAlignment BitAlignment
	Follow               Follow
	EventualFollow       Follow
	Next                 *Field
	IsStateVariable      bool
}

func (n *Field) decode(f *fields) {
	n.decodeMember(f)
	n.ColonLoc = f.loc("colon_loc")
	n.FieldType = ref[Type](f, "field_type")
	n.Arguments = ref[*FieldArgument](f, "arguments")
	n.OffsetBit = f.u64ptr("offset_bit")
	n.OffsetRecent = f.u64("offset_recent")
	n.TailOffsetBit = f.u64ptr("tail_offset_bit")
	n.TailOffsetRecent = f.u64("tail_offset_recent")
	n.BitAlignment = BitAlignment(f.str("bit_alignment"))
	n.EventualBitAlignment = BitAlignment(f.str("eventual_bit_alignment"))
	n.Follow = Follow(f.str("follow"))
	n.EventualFollow = Follow(f.str("eventual_follow"))
	n.Next = ref[*Field](f, "next")
	n.IsStateVariable = f.boolean("is_state_variable")
}

func (n *Field) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visit(fn, n.FieldType) && visit(fn, n.Arguments)
}

// Format is a struct/message definition.
type Format struct {
	memberHeader
	Body           *IndentBlock
	EncodeFn       *Function
	DecodeFn       *Function
	CastFns        []*Function
	Depends        []*IdentType
	StateVariables []*Field
}

func (n *Format) decode(f *fields) {
	n.decodeMember(f)
	n.Body = ref[*IndentBlock](f, "body")
	n.EncodeFn = ref[*Function](f, "encode_fn")
	n.DecodeFn = ref[*Function](f, "decode_fn")
	n.CastFns = list[*Function](f, "cast_fns")
	n.Depends = list[*IdentType](f, "depends")
	n.StateVariables = list[*Field](f, "state_variables")
}

func (n *Format) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visit(fn, n.Body)
}

// StructType is the computed layout of the format body.
func (n *Format) StructType() *StructType {
	if n.Body == nil {
		return nil
	}
	return n.Body.StructType
}

// BlockTraits is the structural classification of the format body.
func (n *Format) BlockTraits() BlockTrait {
	if n.Body == nil {
		return 0
	}
	return n.Body.BlockTraits
}

// Metadata lists the format's annotations.
func (n *Format) Metadata() []*Metadata {
	if n.Body == nil {
		return nil
	}
	return n.Body.Metadata
}

// State is a state definition shared across formats.
type State struct {
	memberHeader
	Body *IndentBlock
}

func (n *State) decode(f *fields) {
	n.decodeMember(f)
	n.Body = ref[*IndentBlock](f, "body")
}

func (n *State) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visit(fn, n.Body)
}

// Enum is an enum definition.
type Enum struct {
	memberHeader
	Scope    *Scope
	ColonLoc Loc
	BaseType Type
	Members  []*EnumMember
	EnumType *EnumType
}

func (n *Enum) decode(f *fields) {
	n.decodeMember(f)
	n.Scope = f.scope("scope")
	n.ColonLoc = f.loc("colon_loc")
	n.BaseType = ref[Type](f, "base_type")
	n.Members = list[*EnumMember](f, "members")
	n.EnumType = ref[*EnumType](f, "enum_type")
}

func (n *Enum) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visit(fn, n.BaseType) && visitAll(fn, n.Members) && visit(fn, n.EnumType)
}

// EnumMember is one constant of an Enum.
type EnumMember struct {
	memberHeader
	RawExpr    Expr
	Value      Expr
	StrLiteral *StrLiteral
}

func (n *EnumMember) decode(f *fields) {
	n.decodeMember(f)
	n.RawExpr = ref[Expr](f, "raw_expr")
	n.Value = ref[Expr](f, "value")
	n.StrLiteral = ref[*StrLiteral](f, "str_literal")
}

func (n *EnumMember) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visit(fn, n.RawExpr)
}

// Function is a function or cast function definition.
type Function struct {
	memberHeader
	Parameters []*Field
	ReturnType Type
	Body       *IndentBlock
	FuncType   *FunctionType
	IsCast     bool
	CastLoc    Loc
}

func (n *Function) decode(f *fields) {
	n.decodeMember(f)
	n.Parameters = list[*Field](f, "parameters")
	n.ReturnType = ref[Type](f, "return_type")
	n.Body = ref[*IndentBlock](f, "body")
	n.FuncType = ref[*FunctionType](f, "func_type")
	n.IsCast = f.boolean("is_cast")
	n.CastLoc = f.loc("cast_loc")
}

func (n *Function) children(fn func(Node) bool) bool {
	return visit(fn, n.Ident) && visitAll(fn, n.Parameters) && visit(fn, n.ReturnType) && visit(fn, n.Body)
}

// BuiltinFunction is a compiler-provided function.
type BuiltinFunction struct {
	builtinMemberHeader
	FuncType *FunctionType
}

func (n *BuiltinFunction) decode(f *fields) {
	n.decodeMember(f)
	n.FuncType = ref[*FunctionType](f, "func_type")
}

func (n *BuiltinFunction) children(fn func(Node) bool) bool { return true }

// BuiltinField is a compiler-provided field.
type BuiltinField struct {
	builtinMemberHeader
	FieldType Type
}

func (n *BuiltinField) decode(f *fields) {
	n.decodeMember(f)
	n.FieldType = ref[Type](f, "field_type")
}

func (n *BuiltinField) children(fn func(Node) bool) bool { return true }

// BuiltinObject is a compiler-provided namespace (input, output, config).
type BuiltinObject struct {
	builtinMemberHeader
	Members []BuiltinMember
}

func (n *BuiltinObject) decode(f *fields) {
	n.decodeMember(f)
	n.Members = list[BuiltinMember](f, "members")
}

func (n *BuiltinObject) children(fn func(Node) bool) bool { return visitAll(fn, n.Members) }
