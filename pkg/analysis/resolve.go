// Package analysis answers editor queries over a decoded brgen AST:
// identifier resolution, hover, definition, semantic tokens, diagnostics
// and document symbols.
//
// Every query is a pure function of an *ast.AST (plus the lexer tokens for
// semantic highlighting). Queries never mutate the graph and hold no
// state between calls, so a result for a superseded generation can always
// be dropped safely. Caching and generation tracking live in the Analyzer
// and pkg/cache.
package analysis

import (
	"errors"
	"fmt"

	"github.com/gnana997/brgenlens/pkg/ast"
)

// MaxResolutionHops bounds how many reference links Resolve follows.
const MaxResolutionHops = 100

// ErrResolutionOverflow is returned when an ident chain exceeds
// MaxResolutionHops, which only happens with cyclic or corrupted base links.
var ErrResolutionOverflow = errors.New("resolution overflow")

// OverflowError reports the ident whose chain overflowed.
type OverflowError struct {
	Ident *ast.Ident
	Hops  int
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("resolution overflow: ident %q (node %d) exceeded %d hops",
		e.Ident.Ident, e.Ident.Index(), e.Hops)
}

func (e *OverflowError) Unwrap() error { return ErrResolutionOverflow }

// TerminalKind classifies where a resolution chain ended.
type TerminalKind int

const (
	// TerminalUnknown means the ident is unresolved.
	TerminalUnknown TerminalKind = iota
	// TerminalUnspecifiedReference is a reference whose base is not an ident.
	TerminalUnspecifiedReference
	// TerminalUnspecifiedMemberReference is a member reference whose base is
	// not a member access on an ident.
	TerminalUnspecifiedMemberReference
	// TerminalDefinition is a define_* ident.
	TerminalDefinition
	// TerminalOther covers maybe_type and reference_builtin_fn, which carry
	// a fixed label only.
	TerminalOther
)

func (k TerminalKind) String() string {
	switch k {
	case TerminalUnknown:
		return "unknown identifier"
	case TerminalUnspecifiedReference:
		return "unspecified reference"
	case TerminalUnspecifiedMemberReference:
		return "unspecified member reference"
	case TerminalDefinition:
		return "definition"
	default:
		return "other"
	}
}

// Resolution is the result of following an ident's usage chain.
type Resolution struct {
	// Origin is the ident the query started from.
	Origin *ast.Ident
	// Terminal is the last ident reached. For unspecified references it is
	// the reference itself.
	Terminal *ast.Ident
	Kind     TerminalKind
	// Hops is the number of reference links followed.
	Hops int
}

// Usage is the terminal ident's usage.
func (r Resolution) Usage() ast.IdentUsage {
	if r.Terminal == nil {
		return ast.UsageUnknown
	}
	return r.Terminal.Usage
}

// IsDefinition reports whether the chain ended at a define_* ident.
func (r Resolution) IsDefinition() bool { return r.Kind == TerminalDefinition }

// Resolve follows the usage chain of ident until it reaches a terminal.
//
// **Chain steps:**
//   - reference / reference_type: Base must be an *ast.Ident, otherwise the
//     chain ends as an unspecified reference.
//   - reference_member / reference_member_type: Base must be an
//     *ast.MemberAccess whose own Base is an *ast.Ident, otherwise the chain
//     ends as an unspecified member reference.
//   - define_*: terminal definition.
//   - unknown: terminal unknown.
//
// A chain longer than MaxResolutionHops returns an *OverflowError.
func Resolve(ident *ast.Ident) (Resolution, error) {
	res := Resolution{Origin: ident, Terminal: ident}
	if ident == nil {
		return res, nil
	}
	cur := ident
	for hops := 0; ; hops++ {
		if hops > MaxResolutionHops {
			return Resolution{Origin: ident, Kind: TerminalUnknown, Hops: hops}, &OverflowError{Ident: ident, Hops: hops}
		}
		res.Terminal = cur
		res.Hops = hops

		switch cur.Usage {
		case ast.UsageReference, ast.UsageReferenceType:
			next, ok := cur.Base.(*ast.Ident)
			if !ok || next == nil {
				res.Kind = TerminalUnspecifiedReference
				return res, nil
			}
			cur = next
		case ast.UsageReferenceMember, ast.UsageReferenceMemberType:
			next := memberBaseIdent(cur.Base)
			if next == nil {
				res.Kind = TerminalUnspecifiedMemberReference
				return res, nil
			}
			cur = next
		case ast.UsageMaybeType, ast.UsageReferenceBuiltinFn:
			res.Kind = TerminalOther
			return res, nil
		default:
			if cur.Usage.IsDefinition() {
				res.Kind = TerminalDefinition
			} else {
				res.Kind = TerminalUnknown
			}
			return res, nil
		}
	}
}

func memberBaseIdent(n ast.Node) *ast.Ident {
	access, ok := n.(*ast.MemberAccess)
	if !ok || access == nil {
		return nil
	}
	ident, ok := access.Base.(*ast.Ident)
	if !ok {
		return nil
	}
	return ident
}
