package ast

// Loop is `for init; cond; step:` or `for x in y:`.
type Loop struct {
	stmtHeader
	CondScope *Scope
	Init      Expr
	Cond      Expr
	Step      Expr
	Body      *IndentBlock
}

func (n *Loop) decode(f *fields) {
	n.CondScope = f.scope("cond_scope")
	n.Init = ref[Expr](f, "init")
	n.Cond = ref[Expr](f, "cond")
	n.Step = ref[Expr](f, "step")
	n.Body = ref[*IndentBlock](f, "body")
}

func (n *Loop) children(fn func(Node) bool) bool {
	return visit(fn, n.Init) && visit(fn, n.Cond) && visit(fn, n.Step) && visit(fn, n.Body)
}

// IndentBlock is an indented block of elements with its own scope and
// computed layout.
type IndentBlock struct {
	stmtHeader
	StructType  *StructType
	Elements    []Node
	Scope       *Scope
	Metadata    []*Metadata
	BlockTraits BlockTrait
}

func (n *IndentBlock) decode(f *fields) {
	n.StructType = ref[*StructType](f, "struct_type")
	n.Elements = list[Node](f, "elements")
	n.Scope = f.scope("scope")
	n.Metadata = list[*Metadata](f, "metadata")
	n.BlockTraits = BlockTrait(f.u64("block_traits"))
}

func (n *IndentBlock) children(fn func(Node) bool) bool {
	return visitAll(fn, n.Elements) && visit(fn, n.StructType)
}

// MatchBranch is one `cond => then` arm of a Match.
type MatchBranch struct {
	stmtHeader
	Cond   Expr
	SymLoc Loc
	Then   Node
	Belong *Match
}

func (n *MatchBranch) decode(f *fields) {
	n.Cond = ref[Expr](f, "cond")
	n.SymLoc = f.loc("sym_loc")
	n.Then = ref[Node](f, "then")
	n.Belong = ref[*Match](f, "belong")
}

func (n *MatchBranch) children(fn func(Node) bool) bool {
	return visit(fn, n.Cond) && visit(fn, n.Then)
}

// UnionCandidate pairs a branch condition with the field it selects.
type UnionCandidate struct {
	stmtHeader
	Cond  Expr
	Field *Field
}

func (n *UnionCandidate) decode(f *fields) {
	n.Cond = ref[Expr](f, "cond")
	n.Field = ref[*Field](f, "field")
}

func (n *UnionCandidate) children(fn func(Node) bool) bool { return true }

// ScopedStatement is a single statement body with its own scope, such as a
// match arm written on one line.
type ScopedStatement struct {
	stmtHeader
	StructType *StructType
	Statement  Node
	Scope      *Scope
}

func (n *ScopedStatement) decode(f *fields) {
	n.StructType = ref[*StructType](f, "struct_type")
	n.Statement = ref[Node](f, "statement")
	n.Scope = f.scope("scope")
}

func (n *ScopedStatement) children(fn func(Node) bool) bool {
	return visit(fn, n.Statement) && visit(fn, n.StructType)
}

// Return is `return expr`.
type Return struct {
	stmtHeader
	Expr            Expr
	RelatedFunction *Function
}

func (n *Return) decode(f *fields) {
	n.Expr = ref[Expr](f, "expr")
	n.RelatedFunction = ref[*Function](f, "related_function")
}

func (n *Return) children(fn func(Node) bool) bool { return visit(fn, n.Expr) }

// Break leaves the innermost loop.
type Break struct {
	stmtHeader
	RelatedLoop *Loop
}

func (n *Break) decode(f *fields)                 { n.RelatedLoop = ref[*Loop](f, "related_loop") }
func (n *Break) children(fn func(Node) bool) bool { return true }

// Continue restarts the innermost loop.
type Continue struct {
	stmtHeader
	RelatedLoop *Loop
}

func (n *Continue) decode(f *fields)                 { n.RelatedLoop = ref[*Loop](f, "related_loop") }
func (n *Continue) children(fn func(Node) bool) bool { return true }

// Assert is a bare boolean expression statement inside a format, checked
// at encode/decode time.
type Assert struct {
	stmtHeader
	Cond        Expr
	IsIoRelated bool
}

func (n *Assert) decode(f *fields) {
	n.Cond = ref[Expr](f, "cond")
	n.IsIoRelated = f.boolean("is_io_related")
}

func (n *Assert) children(fn func(Node) bool) bool { return visit(fn, n.Cond) }

// ImplicitYield is the trailing value of an if/match arm.
type ImplicitYield struct {
	stmtHeader
	Expr Expr
}

func (n *ImplicitYield) decode(f *fields) { n.Expr = ref[Expr](f, "expr") }
func (n *ImplicitYield) children(fn func(Node) bool) bool {
	return visit(fn, n.Expr)
}

// Metadata is a `config.xxx = value` annotation.
type Metadata struct {
	stmtHeader
	Base   Expr
	Name   string
	Values []Expr
}

func (n *Metadata) decode(f *fields) {
	n.Base = ref[Expr](f, "base")
	n.Name = f.str("name")
	n.Values = list[Expr](f, "values")
}

func (n *Metadata) children(fn func(Node) bool) bool {
	return visit(fn, n.Base) && visitAll(fn, n.Values)
}
