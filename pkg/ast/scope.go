package ast

// Scope is one level of identifier visibility.
//
// Scopes at the same nesting level form a doubly linked list through Prev and
// Next; a nested block hangs off its parent level through Branch. Prev, Next
// and Owner are non-owning links into the same arena.
type Scope struct {
	index int

	Prev   *Scope
	Next   *Scope
	Branch *Scope
	// Ident lists the identifiers defined in this scope, in source order.
	Ident []*Ident
	// Owner is the node that introduced the scope, when known.
	Owner Node
	// BranchRoot marks the first scope of a branch.
	BranchRoot bool
}

// Index is the scope's position in the serialized scope array.
func (s *Scope) Index() int { return s.index }

// Siblings calls fn for s and every scope after it on the same level,
// stopping early when fn returns false. The walk is bounded by limit so a
// corrupted Next chain cannot loop forever.
func (s *Scope) Siblings(limit int, fn func(*Scope) bool) {
	for cur, n := s, 0; cur != nil && n < limit; cur, n = cur.Next, n+1 {
		if !fn(cur) {
			return
		}
	}
}

// consistent reports whether the Prev/Next links agree with each other.
func (s *Scope) consistent() bool {
	if s.Next != nil && s.Next.Prev != s {
		return false
	}
	if s.Prev != nil && s.Prev.Next != s {
		return false
	}
	return true
}
