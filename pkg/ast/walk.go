package ast

// VisitFunc is called for each child of a node. It receives itself so a
// visitor can recurse with Walk(n, f) without closing over its own name.
// Returning false stops iteration over the remaining siblings.
type VisitFunc func(f VisitFunc, n Node) bool

// Walk calls fn for each direct child of n in source order.
//
// Children are the ownership edges of the tree: a node's sub-expressions,
// its defining ident, its body. Back references such as Ident.Base,
// Member.Belong, IdentType.Base, StructType.Fields and Expr.ExprType are
// not children, so a full recursive walk from the program terminates.
//
// Walk does not recurse on its own; fn decides whether to descend by
// calling Walk(child, f).
func Walk(n Node, fn VisitFunc) {
	if n == nil || fn == nil {
		return
	}
	n.children(func(c Node) bool {
		return fn(fn, c)
	})
}

// Children returns the direct children of n.
func Children(n Node) []Node {
	var out []Node
	if n == nil {
		return nil
	}
	n.children(func(c Node) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Inspect traverses the tree rooted at root depth-first, calling f for
// every node before its children. If f returns false the children of that
// node are skipped, like go/ast.Inspect.
func Inspect(root Node, f func(Node) bool) {
	if root == nil || !f(root) {
		return
	}
	Walk(root, func(self VisitFunc, n Node) bool {
		if f(n) {
			Walk(n, self)
		}
		return true
	})
}
