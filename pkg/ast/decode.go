package ast

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrMalformedAst is the sentinel wrapped by every structural decode error.
var ErrMalformedAst = errors.New("malformed ast")

// MalformedAstError describes a structural violation in a serialized AST.
type MalformedAstError struct {
	// Node is the index of the offending node, or -1 when not node-specific.
	Node int
	// Field is the body field being decoded, if any.
	Field  string
	Reason string
}

func (e *MalformedAstError) Error() string {
	switch {
	case e.Node < 0:
		return fmt.Sprintf("malformed ast: %s", e.Reason)
	case e.Field == "":
		return fmt.Sprintf("malformed ast: node %d: %s", e.Node, e.Reason)
	default:
		return fmt.Sprintf("malformed ast: node %d field %q: %s", e.Node, e.Field, e.Reason)
	}
}

func (e *MalformedAstError) Unwrap() error { return ErrMalformedAst }

// rawNode is the serialized form of one node.
type rawNode struct {
	NodeType NodeType                   `json:"node_type"`
	Loc      Loc                        `json:"loc"`
	Body     map[string]json.RawMessage `json:"body"`
}

// rawScope is the serialized form of one scope.
type rawScope struct {
	Prev       *int  `json:"prev"`
	Next       *int  `json:"next"`
	Branch     *int  `json:"branch"`
	Ident      []int `json:"ident"`
	Owner      *int  `json:"owner"`
	BranchRoot bool  `json:"branch_root"`
}

// Serialized is the flat, index-based AST: nodes and scopes cross-reference
// each other by integer position.
type Serialized struct {
	Node  []rawNode  `json:"node"`
	Scope []rawScope `json:"scope"`
}

// File is the full envelope emitted by src2json for one compilation.
type File struct {
	AST   *Serialized `json:"ast"`
	Files []string    `json:"file"`
	Error *SrcError   `json:"error"`
}

// DecodeFile parses a src2json envelope.
//
// The compiler reports source-level problems through the returned SrcError,
// which may be non-nil even when the AST decoded fine. A nil AST with a nil
// error means the compiler produced no tree (typically a parse failure that
// is described by the SrcError).
func DecodeFile(data []byte) (*AST, *SrcError, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("decode ast envelope: %w", err)
	}
	if f.AST == nil {
		return nil, f.Error, nil
	}
	tree, err := Decode(f.AST, f.Files)
	if err != nil {
		return nil, f.Error, err
	}
	return tree, f.Error, nil
}

// Decode links a serialized AST into a typed graph.
//
// **Two passes:**
//  1. Allocate one variant per serialized node (tag and location only) and
//     one Scope per serialized scope.
//  2. Decode every node body, resolving index fields against the arena and
//     checking that each resolved node belongs to the expected family.
//
// Forward references (a field pointing at a format defined later in the
// array) are why allocation and linking are separate passes.
//
// Exactly one program node must exist. Any violation returns an error
// wrapping ErrMalformedAst and no partial graph.
func Decode(s *Serialized, files []string) (*AST, error) {
	if s == nil {
		return nil, &MalformedAstError{Node: -1, Reason: "no ast"}
	}
	tree := &AST{
		Nodes:  make([]Node, len(s.Node)),
		Scopes: make([]*Scope, len(s.Scope)),
		Files:  files,
	}

	for i, raw := range s.Node {
		n, err := newNode(raw.NodeType)
		if err != nil {
			return nil, &MalformedAstError{Node: i, Reason: err.Error()}
		}
		h := n.header()
		h.index = i
		h.nodeType = raw.NodeType
		h.loc = raw.Loc
		if raw.Loc.Pos.Begin > raw.Loc.Pos.End {
			return nil, &MalformedAstError{Node: i, Field: "loc", Reason: "begin after end"}
		}
		if prog, ok := n.(*Program); ok {
			if tree.Program != nil {
				return nil, &MalformedAstError{Node: i, Reason: fmt.Sprintf("duplicate program (first at node %d)", tree.Program.Index())}
			}
			tree.Program = prog
		}
		tree.Nodes[i] = n
	}
	if tree.Program == nil {
		return nil, &MalformedAstError{Node: -1, Reason: "no program node"}
	}
	for i := range s.Scope {
		tree.Scopes[i] = &Scope{index: i}
	}

	d := &decoder{tree: tree}
	for i, raw := range s.Node {
		f := &fields{d: d, node: i, body: raw.Body}
		tree.Nodes[i].decode(f)
		if f.err != nil {
			return nil, f.err
		}
	}
	if err := d.linkScopes(s.Scope); err != nil {
		return nil, err
	}
	return tree, nil
}

type decoder struct {
	tree *AST
}

func (d *decoder) linkScopes(raws []rawScope) error {
	scope := func(i int, field string, idx *int) (*Scope, error) {
		if idx == nil {
			return nil, nil
		}
		if *idx < 0 || *idx >= len(d.tree.Scopes) {
			return nil, &MalformedAstError{Node: -1, Reason: fmt.Sprintf("scope %d %s: index %d out of range", i, field, *idx)}
		}
		return d.tree.Scopes[*idx], nil
	}

	var err error
	for i, raw := range raws {
		s := d.tree.Scopes[i]
		if s.Prev, err = scope(i, "prev", raw.Prev); err != nil {
			return err
		}
		if s.Next, err = scope(i, "next", raw.Next); err != nil {
			return err
		}
		if s.Branch, err = scope(i, "branch", raw.Branch); err != nil {
			return err
		}
		s.BranchRoot = raw.BranchRoot
		if raw.Owner != nil {
			if *raw.Owner < 0 || *raw.Owner >= len(d.tree.Nodes) {
				return &MalformedAstError{Node: -1, Reason: fmt.Sprintf("scope %d owner: index %d out of range", i, *raw.Owner)}
			}
			s.Owner = d.tree.Nodes[*raw.Owner]
		}
		s.Ident = make([]*Ident, 0, len(raw.Ident))
		for _, idx := range raw.Ident {
			if idx < 0 || idx >= len(d.tree.Nodes) {
				return &MalformedAstError{Node: -1, Reason: fmt.Sprintf("scope %d ident: index %d out of range", i, idx)}
			}
			ident, ok := d.tree.Nodes[idx].(*Ident)
			if !ok {
				return &MalformedAstError{Node: idx, Reason: fmt.Sprintf("scope %d lists %s as ident", i, d.tree.Nodes[idx].NodeType())}
			}
			s.Ident = append(s.Ident, ident)
		}
	}
	for _, s := range d.tree.Scopes {
		if !s.consistent() {
			return &MalformedAstError{Node: -1, Reason: fmt.Sprintf("scope %d: prev/next links disagree", s.index)}
		}
	}
	return nil
}

// fields decodes one node body. The first error is sticky; later calls
// become no-ops returning zero values.
type fields struct {
	d    *decoder
	node int
	body map[string]json.RawMessage
	err  error
}

func (f *fields) fail(field, format string, args ...any) {
	if f.err == nil {
		f.err = &MalformedAstError{Node: f.node, Field: field, Reason: fmt.Sprintf(format, args...)}
	}
}

// raw returns the field's JSON, or nil when absent or null.
func (f *fields) raw(name string) json.RawMessage {
	if f.err != nil {
		return nil
	}
	r, ok := f.body[name]
	if !ok || string(r) == "null" {
		return nil
	}
	return r
}

func (f *fields) scalar(name string, v any) {
	r := f.raw(name)
	if r == nil {
		return
	}
	if err := json.Unmarshal(r, v); err != nil {
		f.fail(name, "%v", err)
	}
}

func (f *fields) str(name string) string {
	var s string
	f.scalar(name, &s)
	return s
}

func (f *fields) boolean(name string) bool {
	var b bool
	f.scalar(name, &b)
	return b
}

func (f *fields) u64(name string) uint64 {
	var v uint64
	f.scalar(name, &v)
	return v
}

func (f *fields) u64ptr(name string) *uint64 {
	if f.raw(name) == nil {
		return nil
	}
	var v uint64
	f.scalar(name, &v)
	return &v
}

func (f *fields) loc(name string) Loc {
	var l Loc
	f.scalar(name, &l)
	return l
}

func (f *fields) index(name string) (int, bool) {
	r := f.raw(name)
	if r == nil {
		return 0, false
	}
	var idx int
	if err := json.Unmarshal(r, &idx); err != nil {
		f.fail(name, "expected node index: %v", err)
		return 0, false
	}
	return idx, true
}

func (f *fields) scope(name string) *Scope {
	idx, ok := f.index(name)
	if !ok {
		return nil
	}
	if idx < 0 || idx >= len(f.d.tree.Scopes) {
		f.fail(name, "scope index %d out of range", idx)
		return nil
	}
	return f.d.tree.Scopes[idx]
}

func (f *fields) resolve(name string, idx int) Node {
	if idx < 0 || idx >= len(f.d.tree.Nodes) {
		f.fail(name, "node index %d out of range", idx)
		return nil
	}
	return f.d.tree.Nodes[idx]
}

// ref resolves a uintptr field and checks it against the expected family or
// variant T. A missing or null field yields the zero T.
func ref[T Node](f *fields, name string) T {
	var zero T
	idx, ok := f.index(name)
	if !ok {
		return zero
	}
	return cast[T](f, name, f.resolve(name, idx))
}

// list resolves an array<uintptr> field.
func list[T Node](f *fields, name string) []T {
	r := f.raw(name)
	if r == nil {
		return nil
	}
	var idxs []int
	if err := json.Unmarshal(r, &idxs); err != nil {
		f.fail(name, "expected node index list: %v", err)
		return nil
	}
	out := make([]T, 0, len(idxs))
	for _, idx := range idxs {
		v := cast[T](f, name, f.resolve(name, idx))
		if f.err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

func cast[T Node](f *fields, name string, n Node) T {
	var zero T
	if n == nil {
		return zero
	}
	v, ok := n.(T)
	if !ok {
		f.fail(name, "expected %s, got %s (node %d)", familyName[T](), n.NodeType(), n.Index())
		return zero
	}
	return v
}

func familyName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// newNode allocates the variant for a node_type tag.
func newNode(t NodeType) (Node, error) {
	ctor, ok := constructors[t]
	if !ok {
		return nil, fmt.Errorf("unknown node_type %q", t)
	}
	return ctor(), nil
}

var constructors = map[NodeType]func() Node{
	NodeProgram:       func() Node { return &Program{} },
	NodeComment:       func() Node { return &Comment{} },
	NodeCommentGroup:  func() Node { return &CommentGroup{} },
	NodeFieldArgument: func() Node { return &FieldArgument{} },

	NodeBinary:        func() Node { return &Binary{} },
	NodeUnary:         func() Node { return &Unary{} },
	NodeCond:          func() Node { return &Cond{} },
	NodeIdent:         func() Node { return &Ident{} },
	NodeCall:          func() Node { return &Call{} },
	NodeIf:            func() Node { return &If{} },
	NodeMemberAccess:  func() Node { return &MemberAccess{} },
	NodeParen:         func() Node { return &Paren{} },
	NodeIndex:         func() Node { return &IndexExpr{} },
	NodeMatch:         func() Node { return &Match{} },
	NodeRange:         func() Node { return &Range{} },
	NodeTmpVar:        func() Node { return &TmpVar{} },
	NodeImport:        func() Node { return &Import{} },
	NodeCast:          func() Node { return &Cast{} },
	NodeAvailable:     func() Node { return &Available{} },
	NodeSpecifyOrder:  func() Node { return &SpecifyOrder{} },
	NodeExplicitError: func() Node { return &ExplicitError{} },
	NodeIoOperation:   func() Node { return &IoOperation{} },
	NodeOrCond:        func() Node { return &OrCond{} },
	NodeBadExpr:       func() Node { return &BadExpr{} },

	NodeIntLiteral:     func() Node { return &IntLiteral{} },
	NodeBoolLiteral:    func() Node { return &BoolLiteral{} },
	NodeStrLiteral:     func() Node { return &StrLiteral{} },
	NodeRegexLiteral:   func() Node { return &RegexLiteral{} },
	NodeCharLiteral:    func() Node { return &CharLiteral{} },
	NodeTypeLiteral:    func() Node { return &TypeLiteral{} },
	NodeSpecialLiteral: func() Node { return &SpecialLiteral{} },

	NodeLoop:            func() Node { return &Loop{} },
	NodeIndentBlock:     func() Node { return &IndentBlock{} },
	NodeMatchBranch:     func() Node { return &MatchBranch{} },
	NodeUnionCandidate:  func() Node { return &UnionCandidate{} },
	NodeScopedStatement: func() Node { return &ScopedStatement{} },
	NodeReturn:          func() Node { return &Return{} },
	NodeBreak:           func() Node { return &Break{} },
	NodeContinue:        func() Node { return &Continue{} },
	NodeAssert:          func() Node { return &Assert{} },
	NodeImplicitYield:   func() Node { return &ImplicitYield{} },
	NodeMetadata:        func() Node { return &Metadata{} },

	NodeField:           func() Node { return &Field{} },
	NodeFormat:          func() Node { return &Format{} },
	NodeState:           func() Node { return &State{} },
	NodeEnum:            func() Node { return &Enum{} },
	NodeEnumMember:      func() Node { return &EnumMember{} },
	NodeFunction:        func() Node { return &Function{} },
	NodeBuiltinFunction: func() Node { return &BuiltinFunction{} },
	NodeBuiltinField:    func() Node { return &BuiltinField{} },
	NodeBuiltinObject:   func() Node { return &BuiltinObject{} },

	NodeIntType:          func() Node { return &IntType{} },
	NodeFloatType:        func() Node { return &FloatType{} },
	NodeBoolType:         func() Node { return &BoolType{} },
	NodeVoidType:         func() Node { return &VoidType{} },
	NodeIdentType:        func() Node { return &IdentType{} },
	NodeIntLiteralType:   func() Node { return &IntLiteralType{} },
	NodeStrLiteralType:   func() Node { return &StrLiteralType{} },
	NodeRegexLiteralType: func() Node { return &RegexLiteralType{} },
	NodeArrayType:        func() Node { return &ArrayType{} },
	NodeFunctionType:     func() Node { return &FunctionType{} },
	NodeStructType:       func() Node { return &StructType{} },
	NodeStructUnionType:  func() Node { return &StructUnionType{} },
	NodeUnionType:        func() Node { return &UnionType{} },
	NodeRangeType:        func() Node { return &RangeType{} },
	NodeEnumType:         func() Node { return &EnumType{} },
	NodeMetaType:         func() Node { return &MetaType{} },
	NodeOptionalType:     func() Node { return &OptionalType{} },
	NodeGenericType:      func() Node { return &GenericType{} },
}
