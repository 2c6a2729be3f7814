package ast

// visit calls fn on c unless c is nil. It hides the typed-nil trap of
// converting a nil *Variant into a non-nil Node.
func visit[T Node](fn func(Node) bool, c T) bool {
	var zero T
	if any(c) == any(zero) {
		return true
	}
	return fn(c)
}

func visitAll[T Node](fn func(Node) bool, cs []T) bool {
	for _, c := range cs {
		if !visit(fn, c) {
			return false
		}
	}
	return true
}

// Program is the root of one compilation.
type Program struct {
	nodeHeader
	StructType  *StructType
	Elements    []Node
	GlobalScope *Scope
	Metadata    []*Metadata
}

func (n *Program) decode(f *fields) {
	n.StructType = ref[*StructType](f, "struct_type")
	n.Elements = list[Node](f, "elements")
	n.GlobalScope = f.scope("global_scope")
	n.Metadata = list[*Metadata](f, "metadata")
}

func (n *Program) children(fn func(Node) bool) bool {
	return visitAll(fn, n.Elements) && visit(fn, n.StructType)
}

// Comment is a single source comment.
type Comment struct {
	nodeHeader
	Comment string
}

func (n *Comment) decode(f *fields)                 { n.Comment = f.str("comment") }
func (n *Comment) children(fn func(Node) bool) bool { return true }

// CommentGroup is a run of adjacent comments.
type CommentGroup struct {
	nodeHeader
	Comments []*Comment
}

func (n *CommentGroup) decode(f *fields) { n.Comments = list[*Comment](f, "comments") }
func (n *CommentGroup) children(fn func(Node) bool) bool {
	return visitAll(fn, n.Comments)
}

// FieldArgument holds the call-style arguments written after a field type,
// e.g. `data :[..]u8(input.align == 8)`.
type FieldArgument struct {
	nodeHeader
	RawArguments       Expr
	EndLoc             Loc
	CollectedArguments []Expr
	Arguments          []Expr
	Assigns            []*Binary
	Alignment          Expr
	AlignmentValue     *uint64
	SubByteLength      Expr
	SubByteBegin       Expr
	Peek               Expr
	PeekValue          *uint64
	TypeMap            *TypeLiteral
	Metadata           []*Metadata
}

func (n *FieldArgument) decode(f *fields) {
	n.RawArguments = ref[Expr](f, "raw_arguments")
	n.EndLoc = f.loc("end_loc")
	n.CollectedArguments = list[Expr](f, "collected_arguments")
	n.Arguments = list[Expr](f, "arguments")
	n.Assigns = list[*Binary](f, "assigns")
	n.Alignment = ref[Expr](f, "alignment")
	n.AlignmentValue = f.u64ptr("alignment_value")
	n.SubByteLength = ref[Expr](f, "sub_byte_length")
	n.SubByteBegin = ref[Expr](f, "sub_byte_begin")
	n.Peek = ref[Expr](f, "peek")
	n.PeekValue = f.u64ptr("peek_value")
	n.TypeMap = ref[*TypeLiteral](f, "type_map")
	n.Metadata = list[*Metadata](f, "metadata")
}

func (n *FieldArgument) children(fn func(Node) bool) bool {
	return visit(fn, n.RawArguments) && visitAll(fn, n.Metadata)
}

// Binary is a binary operation, including assignments.
type Binary struct {
	exprHeader
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *Binary) decode(f *fields) {
	n.decodeExpr(f)
	n.Op = BinaryOp(f.str("op"))
	n.Left = ref[Expr](f, "left")
	n.Right = ref[Expr](f, "right")
}

func (n *Binary) children(fn func(Node) bool) bool {
	return visit(fn, n.Left) && visit(fn, n.Right)
}

// Unary is a prefix operation.
type Unary struct {
	exprHeader
	Op   UnaryOp
	Expr Expr
}

func (n *Unary) decode(f *fields) {
	n.decodeExpr(f)
	n.Op = UnaryOp(f.str("op"))
	n.Expr = ref[Expr](f, "expr")
}

func (n *Unary) children(fn func(Node) bool) bool { return visit(fn, n.Expr) }

// Cond is the ternary `cond ? then : els`.
type Cond struct {
	exprHeader
	Cond   Expr
	Then   Expr
	ElsLoc Loc
	Els    Expr
}

func (n *Cond) decode(f *fields) {
	n.decodeExpr(f)
	n.Cond = ref[Expr](f, "cond")
	n.Then = ref[Expr](f, "then")
	n.ElsLoc = f.loc("els_loc")
	n.Els = ref[Expr](f, "els")
}

func (n *Cond) children(fn func(Node) bool) bool {
	return visit(fn, n.Cond) && visit(fn, n.Then) && visit(fn, n.Els)
}

// Ident is an identifier occurrence.
//
// Base depends on Usage: for reference usages it is the referenced *Ident
// or *MemberAccess; for define_* usages it is the owning definition
// (*Field, *Format, *Enum, *Function, the defining *Binary, ...).
type Ident struct {
	exprHeader
	Ident string
	Usage IdentUsage
	Base  Node
	Scope *Scope
}

func (n *Ident) decode(f *fields) {
	n.decodeExpr(f)
	n.Ident = f.str("ident")
	n.Usage = IdentUsage(f.str("usage"))
	if n.Usage == "" {
		n.Usage = UsageUnknown
	}
	n.Base = ref[Node](f, "base")
	n.Scope = f.scope("scope")
}

func (n *Ident) children(fn func(Node) bool) bool { return true }

// Call is a function call.
type Call struct {
	exprHeader
	Callee       Expr
	RawArguments Expr
	Arguments    []Expr
	EndLoc       Loc
}

func (n *Call) decode(f *fields) {
	n.decodeExpr(f)
	n.Callee = ref[Expr](f, "callee")
	n.RawArguments = ref[Expr](f, "raw_arguments")
	n.Arguments = list[Expr](f, "arguments")
	n.EndLoc = f.loc("end_loc")
}

func (n *Call) children(fn func(Node) bool) bool {
	return visit(fn, n.Callee) && visitAll(fn, n.Arguments)
}

// If is an if/elif/else chain. It is an expression because it may yield.
type If struct {
	exprHeader
	StructUnionType *StructUnionType
	Cond            Expr
	Then            *IndentBlock
	Els             Node
}

func (n *If) decode(f *fields) {
	n.decodeExpr(f)
	n.StructUnionType = ref[*StructUnionType](f, "struct_union_type")
	n.Cond = ref[Expr](f, "cond")
	n.Then = ref[*IndentBlock](f, "then")
	n.Els = ref[Node](f, "els")
}

func (n *If) children(fn func(Node) bool) bool {
	return visit(fn, n.Cond) && visit(fn, n.Then) && visit(fn, n.Els)
}

// MemberAccess is `target.member`. Base is the member's defining node.
type MemberAccess struct {
	exprHeader
	Target Expr
	Member *Ident
	Base   Node
}

func (n *MemberAccess) decode(f *fields) {
	n.decodeExpr(f)
	n.Target = ref[Expr](f, "target")
	n.Member = ref[*Ident](f, "member")
	n.Base = ref[Node](f, "base")
}

func (n *MemberAccess) children(fn func(Node) bool) bool {
	return visit(fn, n.Target) && visit(fn, n.Member)
}

// Paren is a parenthesized expression.
type Paren struct {
	exprHeader
	Expr   Expr
	EndLoc Loc
}

func (n *Paren) decode(f *fields) {
	n.decodeExpr(f)
	n.Expr = ref[Expr](f, "expr")
	n.EndLoc = f.loc("end_loc")
}

func (n *Paren) children(fn func(Node) bool) bool { return visit(fn, n.Expr) }

// IndexExpr is `expr[idx]`.
type IndexExpr struct {
	exprHeader
	Expr   Expr
	Idx    Expr
	EndLoc Loc
}

func (n *IndexExpr) decode(f *fields) {
	n.decodeExpr(f)
	n.Expr = ref[Expr](f, "expr")
	n.Idx = ref[Expr](f, "index")
	n.EndLoc = f.loc("end_loc")
}

func (n *IndexExpr) children(fn func(Node) bool) bool {
	return visit(fn, n.Expr) && visit(fn, n.Idx)
}

// Match is a match expression.
type Match struct {
	exprHeader
	StructUnionType *StructUnionType
	Cond            Expr
	Branch          []*MatchBranch
	TrialMatch      bool
}

func (n *Match) decode(f *fields) {
	n.decodeExpr(f)
	n.StructUnionType = ref[*StructUnionType](f, "struct_union_type")
	n.Cond = ref[Expr](f, "cond")
	n.Branch = list[*MatchBranch](f, "branch")
	n.TrialMatch = f.boolean("trial_match")
}

func (n *Match) children(fn func(Node) bool) bool {
	return visit(fn, n.Cond) && visitAll(fn, n.Branch)
}

// Range is `start..end` or `start..=end`.
type Range struct {
	exprHeader
	Op    BinaryOp
	Start Expr
	End   Expr
}

func (n *Range) decode(f *fields) {
	n.decodeExpr(f)
	n.Op = BinaryOp(f.str("op"))
	n.Start = ref[Expr](f, "start")
	n.End = ref[Expr](f, "end")
}

func (n *Range) children(fn func(Node) bool) bool {
	return visit(fn, n.Start) && visit(fn, n.End)
}

// TmpVar is a compiler-introduced temporary.
type TmpVar struct {
	exprHeader
	TmpVar uint64
}

func (n *TmpVar) decode(f *fields) {
	n.decodeExpr(f)
	n.TmpVar = f.u64("tmp_var")
}

func (n *TmpVar) children(fn func(Node) bool) bool { return true }

// Import is `input.import("file.bgn")`. ImportDesc is the imported
// program, whose nodes carry the imported file's index.
type Import struct {
	exprHeader
	Path       string
	Base       *Call
	ImportDesc *Program
}

func (n *Import) decode(f *fields) {
	n.decodeExpr(f)
	n.Path = f.str("path")
	n.Base = ref[*Call](f, "base")
	n.ImportDesc = ref[*Program](f, "import_desc")
}

func (n *Import) children(fn func(Node) bool) bool { return visit(fn, n.ImportDesc) }

// Cast is a type conversion call.
type Cast struct {
	exprHeader
	Base      *Call
	Arguments []Expr
}

func (n *Cast) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[*Call](f, "base")
	n.Arguments = list[Expr](f, "arguments")
}

func (n *Cast) children(fn func(Node) bool) bool { return visitAll(fn, n.Arguments) }

// Available is `available(target)`.
type Available struct {
	exprHeader
	Base   *Call
	Target Expr
}

func (n *Available) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[*Call](f, "base")
	n.Target = ref[Expr](f, "target")
}

func (n *Available) children(fn func(Node) bool) bool { return visit(fn, n.Target) }

// SpecifyOrder is an `input.endian = ...` / `input.bit_order = ...` style
// order specifier.
type SpecifyOrder struct {
	exprHeader
	Base       *Binary
	OrderType  OrderType
	Order      Expr
	OrderValue *uint64
}

func (n *SpecifyOrder) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[*Binary](f, "base")
	n.OrderType = OrderType(f.str("order_type"))
	n.Order = ref[Expr](f, "order")
	n.OrderValue = f.u64ptr("order_value")
}

func (n *SpecifyOrder) children(fn func(Node) bool) bool { return visit(fn, n.Order) }

// ExplicitError is `error("message", args...)`.
type ExplicitError struct {
	exprHeader
	Base    *Call
	Message *StrLiteral
}

func (n *ExplicitError) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[*Call](f, "base")
	n.Message = ref[*StrLiteral](f, "message")
}

func (n *ExplicitError) children(fn func(Node) bool) bool { return visit(fn, n.Message) }

// IoOperation is a call on input/output/config (`input.peek(...)` etc).
type IoOperation struct {
	exprHeader
	Base      Expr
	Method    string
	Arguments []Expr
}

func (n *IoOperation) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[Expr](f, "base")
	n.Method = f.str("method")
	n.Arguments = list[Expr](f, "arguments")
}

func (n *IoOperation) children(fn func(Node) bool) bool {
	return visit(fn, n.Base) && visitAll(fn, n.Arguments)
}

// OrCond is a `a || b` pattern in a match branch.
type OrCond struct {
	exprHeader
	Base  *Binary
	Conds []Expr
}

func (n *OrCond) decode(f *fields) {
	n.decodeExpr(f)
	n.Base = ref[*Binary](f, "base")
	n.Conds = list[Expr](f, "cond")
}

func (n *OrCond) children(fn func(Node) bool) bool { return visitAll(fn, n.Conds) }

// BadExpr stands in for source the parser could not understand.
type BadExpr struct {
	exprHeader
	Content string
}

func (n *BadExpr) decode(f *fields) {
	n.decodeExpr(f)
	n.Content = f.str("content")
}

func (n *BadExpr) children(fn func(Node) bool) bool { return true }
