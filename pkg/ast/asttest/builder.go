// Package asttest builds serialized brgen ASTs for tests.
//
// The builder produces the same JSON envelope src2json emits, so fixtures
// go through the real decoder:
//
//	b := asttest.New("a.bgn")
//	prog := b.Node(ast.NodeProgram, asttest.Span(1, 0, 20), nil)
//	...
//	tree := b.MustDecode(t)
package asttest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// Builder accumulates nodes and scopes. Node and scope indices are handed
// out in creation order and can be used as references immediately, even
// before the target is fully populated.
type Builder struct {
	files  []string
	nodes  []node
	scopes []scope
	errs   []ast.SrcErrorEntry
	noAST  bool
}

type node struct {
	NodeType ast.NodeType   `json:"node_type"`
	Loc      ast.Loc        `json:"loc"`
	Body     map[string]any `json:"body"`
}

type scope struct {
	Prev       *int  `json:"prev"`
	Next       *int  `json:"next"`
	Branch     *int  `json:"branch"`
	Ident      []int `json:"ident"`
	Owner      *int  `json:"owner"`
	BranchRoot bool  `json:"branch_root"`
}

// New starts a fixture whose file table is files.
func New(files ...string) *Builder {
	return &Builder{files: files}
}

// AddFile appends path to the file table and returns its 1-based index.
func (b *Builder) AddFile(path string) uint64 {
	b.files = append(b.files, path)
	return uint64(len(b.files))
}

// Span is a location in file (1-based) covering [begin, end) on line 1.
func Span(file, begin, end uint64) ast.Loc {
	return ast.Loc{Pos: ast.Pos{Begin: begin, End: end}, File: file, Line: 1, Col: begin + 1}
}

// At is a location with an explicit line and column.
func At(file, line, col, begin, end uint64) ast.Loc {
	return ast.Loc{Pos: ast.Pos{Begin: begin, End: end}, File: file, Line: line, Col: col}
}

// Node appends a node and returns its index. body may be nil.
func (b *Builder) Node(t ast.NodeType, loc ast.Loc, body map[string]any) int {
	if body == nil {
		body = map[string]any{}
	}
	b.nodes = append(b.nodes, node{NodeType: t, Loc: loc, Body: body})
	return len(b.nodes) - 1
}

// Set assigns a body field of node idx.
func (b *Builder) Set(idx int, key string, v any) *Builder {
	b.nodes[idx].Body[key] = v
	return b
}

// Append adds child to the index-list field key of node idx.
func (b *Builder) Append(idx int, key string, child ...int) *Builder {
	cur, _ := b.nodes[idx].Body[key].([]int)
	b.nodes[idx].Body[key] = append(cur, child...)
	return b
}

// Scope appends a scope listing idents and returns its index. owner < 0
// leaves the owner null.
func (b *Builder) Scope(owner int, idents ...int) int {
	s := scope{Ident: append([]int{}, idents...)}
	if owner >= 0 {
		s.Owner = ptr(owner)
	}
	b.scopes = append(b.scopes, s)
	return len(b.scopes) - 1
}

// Chain links scopes a and b as consecutive siblings.
func (b *Builder) Chain(a, next int) *Builder {
	b.scopes[a].Next = ptr(next)
	b.scopes[next].Prev = ptr(a)
	return b
}

// Branch hangs child off parent as a nested level.
func (b *Builder) Branch(parent, child int) *Builder {
	b.scopes[parent].Branch = ptr(child)
	b.scopes[child].BranchRoot = true
	return b
}

// Diagnostic records a compiler error or warning in the envelope.
func (b *Builder) Diagnostic(loc ast.Loc, msg string, warn bool) *Builder {
	b.errs = append(b.errs, ast.SrcErrorEntry{Loc: loc, Msg: msg, Warn: warn})
	return b
}

// WithoutAST makes the envelope carry `"ast": null`, as src2json does when
// parsing failed.
func (b *Builder) WithoutAST() *Builder {
	b.noAST = true
	return b
}

// JSON renders the src2json envelope.
func (b *Builder) JSON() []byte {
	env := map[string]any{
		"ast":  map[string]any{"node": b.nodes, "scope": b.scopes},
		"file": b.files,
	}
	if b.noAST {
		env["ast"] = nil
	}
	if len(b.errs) > 0 {
		env["error"] = map[string]any{"errs": b.errs}
	}
	data, err := json.Marshal(env)
	if err != nil {
		panic(err)
	}
	return data
}

// MustDecode decodes the fixture, failing the test on any error.
func (b *Builder) MustDecode(t testing.TB) *ast.AST {
	t.Helper()
	tree, _, err := ast.DecodeFile(b.JSON())
	require.NoError(t, err)
	require.NotNil(t, tree)
	return tree
}

// Token is a lexer token literal for Tokens.
type Token struct {
	Tag  ast.TokenTag
	Text string
	Loc  ast.Loc
}

// Tokens renders a `src2json --lexer` envelope.
func Tokens(files []string, toks ...Token) []byte {
	out := make([]ast.Token, 0, len(toks))
	for _, t := range toks {
		out = append(out, ast.Token{Tag: t.Tag, Token: t.Text, Loc: t.Loc})
	}
	data, err := json.Marshal(ast.TokenFile{Tokens: out, Files: files})
	if err != nil {
		panic(err)
	}
	return data
}

func ptr(i int) *int { return &i }
