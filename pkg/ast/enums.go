package ast

import "strings"

// NodeType is the serialized node_type tag.
type NodeType string

const (
	NodeProgram       NodeType = "program"
	NodeComment       NodeType = "comment"
	NodeCommentGroup  NodeType = "comment_group"
	NodeFieldArgument NodeType = "field_argument"

	// expressions
	NodeBinary        NodeType = "binary"
	NodeUnary         NodeType = "unary"
	NodeCond          NodeType = "cond"
	NodeIdent         NodeType = "ident"
	NodeCall          NodeType = "call"
	NodeIf            NodeType = "if"
	NodeMemberAccess  NodeType = "member_access"
	NodeParen         NodeType = "paren"
	NodeIndex         NodeType = "index"
	NodeMatch         NodeType = "match"
	NodeRange         NodeType = "range"
	NodeTmpVar        NodeType = "tmp_var"
	NodeImport        NodeType = "import"
	NodeCast          NodeType = "cast"
	NodeAvailable     NodeType = "available"
	NodeSpecifyOrder  NodeType = "specify_order"
	NodeExplicitError NodeType = "explicit_error"
	NodeIoOperation   NodeType = "io_operation"
	NodeOrCond        NodeType = "or_cond"
	NodeBadExpr       NodeType = "bad_expr"

	// literals
	NodeIntLiteral     NodeType = "int_literal"
	NodeBoolLiteral    NodeType = "bool_literal"
	NodeStrLiteral     NodeType = "str_literal"
	NodeRegexLiteral   NodeType = "regex_literal"
	NodeCharLiteral    NodeType = "char_literal"
	NodeTypeLiteral    NodeType = "type_literal"
	NodeSpecialLiteral NodeType = "special_literal"

	// statements
	NodeLoop            NodeType = "loop"
	NodeIndentBlock     NodeType = "indent_block"
	NodeMatchBranch     NodeType = "match_branch"
	NodeUnionCandidate  NodeType = "union_candidate"
	NodeScopedStatement NodeType = "scoped_statement"
	NodeReturn          NodeType = "return"
	NodeBreak           NodeType = "break"
	NodeContinue        NodeType = "continue"
	NodeAssert          NodeType = "assert"
	NodeImplicitYield   NodeType = "implicit_yield"
	NodeMetadata        NodeType = "metadata"

	// members
	NodeField           NodeType = "field"
	NodeFormat          NodeType = "format"
	NodeState           NodeType = "state"
	NodeEnum            NodeType = "enum"
	NodeEnumMember      NodeType = "enum_member"
	NodeFunction        NodeType = "function"
	NodeBuiltinFunction NodeType = "builtin_function"
	NodeBuiltinField    NodeType = "builtin_field"
	NodeBuiltinObject   NodeType = "builtin_object"

	// types
	NodeIntType          NodeType = "int_type"
	NodeFloatType        NodeType = "float_type"
	NodeBoolType         NodeType = "bool_type"
	NodeVoidType         NodeType = "void_type"
	NodeIdentType        NodeType = "ident_type"
	NodeIntLiteralType   NodeType = "int_literal_type"
	NodeStrLiteralType   NodeType = "str_literal_type"
	NodeRegexLiteralType NodeType = "regex_literal_type"
	NodeArrayType        NodeType = "array_type"
	NodeFunctionType     NodeType = "function_type"
	NodeStructType       NodeType = "struct_type"
	NodeStructUnionType  NodeType = "struct_union_type"
	NodeUnionType        NodeType = "union_type"
	NodeRangeType        NodeType = "range_type"
	NodeEnumType         NodeType = "enum_type"
	NodeMetaType         NodeType = "meta_type"
	NodeOptionalType     NodeType = "optional_type"
	NodeGenericType      NodeType = "generic_type"
)

// IdentUsage is the role of an identifier.
type IdentUsage string

const (
	UsageUnknown             IdentUsage = "unknown"
	UsageReference           IdentUsage = "reference"
	UsageReferenceType       IdentUsage = "reference_type"
	UsageReferenceMember     IdentUsage = "reference_member"
	UsageReferenceMemberType IdentUsage = "reference_member_type"
	UsageDefineVariable      IdentUsage = "define_variable"
	UsageDefineConst         IdentUsage = "define_const"
	UsageDefineField         IdentUsage = "define_field"
	UsageDefineFormat        IdentUsage = "define_format"
	UsageDefineState         IdentUsage = "define_state"
	UsageDefineEnum          IdentUsage = "define_enum"
	UsageDefineEnumMember    IdentUsage = "define_enum_member"
	UsageDefineFn            IdentUsage = "define_fn"
	UsageDefineCastFn        IdentUsage = "define_cast_fn"
	UsageDefineArg           IdentUsage = "define_arg"
	UsageMaybeType           IdentUsage = "maybe_type"
	UsageReferenceBuiltinFn  IdentUsage = "reference_builtin_fn"
)

// IsDefinition reports whether the usage introduces a binding.
func (u IdentUsage) IsDefinition() bool {
	return strings.HasPrefix(string(u), "define_")
}

// IsReference reports whether the usage aliases another identifier.
func (u IdentUsage) IsReference() bool {
	switch u {
	case UsageReference, UsageReferenceType, UsageReferenceMember, UsageReferenceMemberType:
		return true
	}
	return false
}

// ConstantLevel classifies compile-time constness of an expression.
type ConstantLevel string

const (
	ConstantLevelUnknown           ConstantLevel = "unknown"
	ConstantLevelConstant          ConstantLevel = "constant"
	ConstantLevelImmutableVariable ConstantLevel = "immutable_variable"
	ConstantLevelVariable          ConstantLevel = "variable"
)

// BinaryOp is the operator of a Binary expression.
type BinaryOp string

const (
	BinaryMul                  BinaryOp = "mul"
	BinaryDiv                  BinaryOp = "div"
	BinaryMod                  BinaryOp = "mod"
	BinaryLeftArithmeticShift  BinaryOp = "left_arithmetic_shift"
	BinaryRightArithmeticShift BinaryOp = "right_arithmetic_shift"
	BinaryLeftLogicalShift     BinaryOp = "left_logical_shift"
	BinaryRightLogicalShift    BinaryOp = "right_logical_shift"
	BinaryBitAnd               BinaryOp = "bit_and"
	BinaryAdd                  BinaryOp = "add"
	BinarySub                  BinaryOp = "sub"
	BinaryBitOr                BinaryOp = "bit_or"
	BinaryBitXor               BinaryOp = "bit_xor"
	BinaryEqual                BinaryOp = "equal"
	BinaryNotEqual             BinaryOp = "not_equal"
	BinaryLess                 BinaryOp = "less"
	BinaryLessOrEq             BinaryOp = "less_or_eq"
	BinaryGrater               BinaryOp = "grater"
	BinaryGraterOrEq           BinaryOp = "grater_or_eq"
	BinaryLogicalAnd           BinaryOp = "logical_and"
	BinaryLogicalOr            BinaryOp = "logical_or"
	BinaryCondOp1              BinaryOp = "cond_op1"
	BinaryCondOp2              BinaryOp = "cond_op2"
	BinaryRangeExclusive       BinaryOp = "range_exclusive"
	BinaryRangeInclusive       BinaryOp = "range_inclusive"
	BinaryAssign               BinaryOp = "assign"
	BinaryDefineAssign         BinaryOp = "define_assign"
	BinaryConstAssign          BinaryOp = "const_assign"
	BinaryAddAssign            BinaryOp = "add_assign"
	BinarySubAssign            BinaryOp = "sub_assign"
	BinaryMulAssign            BinaryOp = "mul_assign"
	BinaryDivAssign            BinaryOp = "div_assign"
	BinaryModAssign            BinaryOp = "mod_assign"
	BinaryLeftShiftAssign      BinaryOp = "left_logical_shift_assign"
	BinaryRightShiftAssign     BinaryOp = "right_logical_shift_assign"
	BinaryBitAndAssign         BinaryOp = "bit_and_assign"
	BinaryBitOrAssign          BinaryOp = "bit_or_assign"
	BinaryBitXorAssign         BinaryOp = "bit_xor_assign"
	BinaryComma                BinaryOp = "comma"
	BinaryInAssign             BinaryOp = "in_assign"
)

var binaryOpText = map[BinaryOp]string{
	BinaryMul: "*", BinaryDiv: "/", BinaryMod: "%",
	BinaryLeftArithmeticShift: "<<<", BinaryRightArithmeticShift: ">>>",
	BinaryLeftLogicalShift: "<<", BinaryRightLogicalShift: ">>",
	BinaryBitAnd: "&", BinaryAdd: "+", BinarySub: "-", BinaryBitOr: "|", BinaryBitXor: "^",
	BinaryEqual: "==", BinaryNotEqual: "!=", BinaryLess: "<", BinaryLessOrEq: "<=",
	BinaryGrater: ">", BinaryGraterOrEq: ">=", BinaryLogicalAnd: "&&", BinaryLogicalOr: "||",
	BinaryCondOp1: "?", BinaryCondOp2: ":", BinaryRangeExclusive: "..", BinaryRangeInclusive: "..=",
	BinaryAssign: "=", BinaryDefineAssign: ":=", BinaryConstAssign: "::=",
	BinaryAddAssign: "+=", BinarySubAssign: "-=", BinaryMulAssign: "*=", BinaryDivAssign: "/=",
	BinaryModAssign: "%=", BinaryLeftShiftAssign: "<<=", BinaryRightShiftAssign: ">>=",
	BinaryBitAndAssign: "&=", BinaryBitOrAssign: "|=", BinaryBitXorAssign: "^=",
	BinaryComma: ",", BinaryInAssign: "in",
}

// Text is the operator as written in source.
func (op BinaryOp) Text() string {
	if s, ok := binaryOpText[op]; ok {
		return s
	}
	return string(op)
}

// UnaryOp is the operator of a Unary expression.
type UnaryOp string

const (
	UnaryNot       UnaryOp = "not"
	UnaryMinusSign UnaryOp = "minus_sign"
)

// Endian is the byte order of an integer or float type.
type Endian string

const (
	EndianUnspec Endian = "unspec"
	EndianBig    Endian = "big"
	EndianLittle Endian = "little"
)

// BitAlignment is the alignment classification carried by types and fields.
type BitAlignment string

const (
	BitAlignmentByteAligned  BitAlignment = "byte_aligned"
	BitAlignmentNotTarget    BitAlignment = "not_target"
	BitAlignmentNotDecidable BitAlignment = "not_decidable"
)

// Follow tells whether a field's position is statically known relative to
// its neighbours.
type Follow string

const (
	FollowUnknown  Follow = "unknown"
	FollowEnd      Follow = "end"
	FollowFixed    Follow = "fixed"
	FollowConstant Follow = "constant"
	FollowNormal   Follow = "normal"
)

// SpecialLiteralKind is the kind of a special literal.
type SpecialLiteralKind string

const (
	SpecialInput  SpecialLiteralKind = "input"
	SpecialOutput SpecialLiteralKind = "output"
	SpecialConfig SpecialLiteralKind = "config"
)

// OrderType is the target of a specify_order node.
type OrderType string

const (
	OrderByte       OrderType = "byte"
	OrderBitStream  OrderType = "bit_stream"
	OrderBitMapping OrderType = "bit_mapping"
	OrderBitBoth    OrderType = "bit_both"
)

// BlockTrait is a bitmask classifying the structure of a block.
type BlockTrait uint64

const (
	TraitFixedPrimitive BlockTrait = 1 << iota
	TraitFixedFloat
	TraitFixedArray
	TraitVariableArray
	TraitStruct
	TraitConditional
	TraitStaticPeek
	TraitBitField
	TraitReadState
	TraitWriteState
	TraitTerminalPattern
	TraitBitStream
	TraitDynamicOrder
	TraitFullInput
	TraitBackwardInput
	TraitMagicValue
	TraitAssertion
	TraitExplicitError
	TraitProcedural
	TraitForLoop
	TraitLocalVariable
	TraitDescriptionOnly
	TraitUncommonSize
	TraitControlFlowChange
)

var blockTraitNames = []string{
	"fixed_primitive", "fixed_float", "fixed_array", "variable_array", "struct",
	"conditional", "static_peek", "bit_field", "read_state", "write_state",
	"terminal_pattern", "bit_stream", "dynamic_order", "full_input",
	"backward_input", "magic_value", "assertion", "explicit_error", "procedural",
	"for_loop", "local_variable", "description_only", "uncommon_size",
	"control_flow_change",
}

// Names lists the set traits in declaration order.
func (t BlockTrait) Names() []string {
	var names []string
	for i, name := range blockTraitNames {
		if t&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return names
}

func (t BlockTrait) String() string {
	names := t.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// TokenTag is the lexer classification of a Token.
type TokenTag string

const (
	TagIndent       TokenTag = "indent"
	TagSpace        TokenTag = "space"
	TagLine         TokenTag = "line"
	TagPunct        TokenTag = "punct"
	TagIntLiteral   TokenTag = "int_literal"
	TagBoolLiteral  TokenTag = "bool_literal"
	TagStrLiteral   TokenTag = "str_literal"
	TagRegexLiteral TokenTag = "regex_literal"
	TagCharLiteral  TokenTag = "char_literal"
	TagKeyword      TokenTag = "keyword"
	TagIdent        TokenTag = "ident"
	TagComment      TokenTag = "comment"
	TagError        TokenTag = "error"
	TagUnknown      TokenTag = "unknown"
)
