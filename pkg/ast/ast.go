// Package ast is the typed, walkable model of the AST emitted by the brgen
// compiler (src2json).
//
// **Shape:**
//   - Every serialized node becomes one concrete variant struct (*Binary,
//     *Ident, *Format, *IntType, ...) tagged by its NodeType.
//   - Variants are grouped into families through marker interfaces: Expr,
//     Literal, Stmt, Member, BuiltinMember and Type. Generic code (the walker,
//     the analysis package) is written against a family, not a variant.
//   - All nodes and scopes of one compiler response live in a single arena
//     (AST). Cross references are non-owning pointers into that arena, so the
//     whole graph is discarded together when the next response arrives.
//
// **Lifecycle:** the graph is built once by Decode and is read-only after
// that. Nothing in this package mutates a decoded node.
package ast

import "fmt"

// Pos is a half-open byte range [Begin, End) in a source file.
type Pos struct {
	Begin uint64 `json:"begin"`
	End   uint64 `json:"end"`
}

// Loc is the source location of a node or token.
//
// File is a 1-based index into AST.Files. Line and Col are 1-based.
type Loc struct {
	Pos  Pos    `json:"pos"`
	File uint64 `json:"file"`
	Line uint64 `json:"line"`
	Col  uint64 `json:"col"`
}

// Contains reports whether offset lies within the location, inclusive on
// both ends.
func (l Loc) Contains(offset uint64) bool {
	return l.Pos.Begin <= offset && offset <= l.Pos.End
}

// Len is the byte length of the location.
func (l Loc) Len() uint64 {
	if l.Pos.End < l.Pos.Begin {
		return 0
	}
	return l.Pos.End - l.Pos.Begin
}

func (l Loc) String() string {
	return fmt.Sprintf("%d:%d:%d[%d,%d)", l.File, l.Line, l.Col, l.Pos.Begin, l.Pos.End)
}

// Node is implemented by every AST variant.
type Node interface {
	// NodeType is the serialized node_type tag.
	NodeType() NodeType
	// Loc is the node's source location.
	Loc() Loc
	// Index is the node's position in the serialized node array.
	Index() int

	header() *nodeHeader
	decode(f *fields)
	children(fn func(Node) bool) bool
}

// Expr is the expression family.
type Expr interface {
	Node
	exprNode()
	// ExprType is the resolved type, nil until type checking succeeded.
	ExprType() Type
	// ConstantLevel is the compile-time constant classification.
	ConstantLevel() ConstantLevel
}

// Literal is the literal sub-family of Expr.
type Literal interface {
	Expr
	literalNode()
}

// Stmt is the statement family.
type Stmt interface {
	Node
	stmtNode()
}

// Member is the sub-family of Stmt that defines a named member of a
// format, enum, state or builtin object.
type Member interface {
	Stmt
	memberNode()
	// MemberIdent is the defining identifier of the member.
	MemberIdent() *Ident
	// BelongTo is the enclosing member (format, enum, ...), if any.
	BelongTo() Member
}

// BuiltinMember is the sub-family of Member provided by the compiler.
type BuiltinMember interface {
	Member
	builtinMemberNode()
}

// Type is the type family.
type Type interface {
	Node
	typeNode()
	// BitSize is the static size in bits; nil means dynamic/unknown.
	BitSize() *uint64
	// BitAlignment is the alignment classification of the type.
	BitAlignment() BitAlignment
	// IsExplicit reports whether the type was written out in source.
	IsExplicit() bool
}

// nodeHeader is the identity shared by every variant.
type nodeHeader struct {
	index    int
	nodeType NodeType
	loc      Loc
}

func (h *nodeHeader) NodeType() NodeType  { return h.nodeType }
func (h *nodeHeader) Loc() Loc            { return h.loc }
func (h *nodeHeader) Index() int          { return h.index }
func (h *nodeHeader) header() *nodeHeader { return h }

// exprHeader is embedded by every Expr variant.
type exprHeader struct {
	nodeHeader
	exprType      Type
	constantLevel ConstantLevel
}

func (e *exprHeader) exprNode()                    {}
func (e *exprHeader) ExprType() Type               { return e.exprType }
func (e *exprHeader) ConstantLevel() ConstantLevel { return e.constantLevel }

func (e *exprHeader) decodeExpr(f *fields) {
	e.exprType = ref[Type](f, "expr_type")
	e.constantLevel = ConstantLevel(f.str("constant_level"))
}

type literalHeader struct {
	exprHeader
}

func (l *literalHeader) literalNode() {}

type stmtHeader struct {
	nodeHeader
}

func (s *stmtHeader) stmtNode() {}

// memberHeader is embedded by every Member variant.
type memberHeader struct {
	stmtHeader
	Belong       Member
	BelongStruct *StructType
	Ident        *Ident
}

func (m *memberHeader) memberNode()         {}
func (m *memberHeader) MemberIdent() *Ident { return m.Ident }
func (m *memberHeader) BelongTo() Member    { return m.Belong }

func (m *memberHeader) decodeMember(f *fields) {
	m.Belong = ref[Member](f, "belong")
	m.BelongStruct = ref[*StructType](f, "belong_struct")
	m.Ident = ref[*Ident](f, "ident")
}

type builtinMemberHeader struct {
	memberHeader
}

func (b *builtinMemberHeader) builtinMemberNode() {}

// typeHeader is embedded by every Type variant.
type typeHeader struct {
	nodeHeader
	isExplicit           bool
	NonDynamicAllocation bool
	bitAlignment         BitAlignment
	bitSize              *uint64
}

func (t *typeHeader) typeNode()                  {}
func (t *typeHeader) BitSize() *uint64           { return t.bitSize }
func (t *typeHeader) BitAlignment() BitAlignment { return t.bitAlignment }
func (t *typeHeader) IsExplicit() bool           { return t.isExplicit }

func (t *typeHeader) decodeType(f *fields) {
	t.isExplicit = f.boolean("is_explicit")
	t.NonDynamicAllocation = f.boolean("non_dynamic_allocation")
	t.bitAlignment = BitAlignment(f.str("bit_alignment"))
	t.bitSize = f.u64ptr("bit_size")
}

// AST is the arena holding one decoded compiler response.
type AST struct {
	// Nodes holds every node in serialized order.
	Nodes []Node
	// Scopes holds every scope in serialized order.
	Scopes []*Scope
	// Files is the file path table; Loc.File is a 1-based index into it.
	Files []string
	// Program is the single root node.
	Program *Program
}

// FilePath returns the path for a 1-based file index, or "" when out of range.
func (a *AST) FilePath(file uint64) string {
	if file == 0 || file > uint64(len(a.Files)) {
		return ""
	}
	return a.Files[file-1]
}

// InFile reports whether n was parsed from the given file index.
func InFile(n Node, file uint64) bool {
	return n != nil && n.Loc().File == file
}
