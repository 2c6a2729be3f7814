package analysis

import "github.com/gnana997/brgenlens/pkg/ast"

func symbolKind(u ast.IdentUsage) (SymbolKind, bool) {
	switch u {
	case ast.UsageDefineFormat:
		return SymbolStruct, true
	case ast.UsageDefineEnum:
		return SymbolEnum, true
	case ast.UsageDefineEnumMember:
		return SymbolEnumMember, true
	case ast.UsageDefineField:
		return SymbolField, true
	case ast.UsageDefineFn, ast.UsageDefineCastFn:
		return SymbolFunction, true
	case ast.UsageDefineVariable, ast.UsageDefineArg:
		return SymbolVariable, true
	case ast.UsageDefineConst:
		return SymbolConstant, true
	case ast.UsageDefineState:
		return SymbolClass, true
	}
	return 0, false
}

// DocumentSymbols builds the outline of the active file from the scope
// tree. Each level lists the definitions of a scope and its siblings; a
// branch (nested level) is attached as children of the last symbol created
// on the level above it.
func DocumentSymbols(tree *ast.AST, file uint64, lines *LineIndex) []DocumentSymbol {
	out := []DocumentSymbol{}
	if tree == nil || tree.Program == nil || tree.Program.GlobalScope == nil {
		return out
	}
	c := &symbolCollector{
		file:    file,
		lines:   lines,
		limit:   len(tree.Scopes) + 1,
		visited: make(map[*ast.Scope]bool, len(tree.Scopes)),
	}
	return append(out, c.level(tree.Program.GlobalScope)...)
}

type symbolCollector struct {
	file    uint64
	lines   *LineIndex
	limit   int
	visited map[*ast.Scope]bool
}

func (c *symbolCollector) level(first *ast.Scope) []DocumentSymbol {
	var syms []DocumentSymbol
	first.Siblings(c.limit, func(s *ast.Scope) bool {
		if c.visited[s] {
			return false
		}
		c.visited[s] = true
		for _, id := range s.Ident {
			if sym, ok := c.symbol(id); ok {
				syms = append(syms, sym)
			}
		}
		if s.Branch != nil {
			kids := c.level(s.Branch)
			if n := len(syms); n > 0 {
				syms[n-1].Children = append(syms[n-1].Children, kids...)
			} else {
				syms = append(syms, kids...)
			}
		}
		return true
	})
	return syms
}

func (c *symbolCollector) symbol(id *ast.Ident) (DocumentSymbol, bool) {
	if id == nil || !ast.InFile(id, c.file) {
		return DocumentSymbol{}, false
	}
	kind, ok := symbolKind(id.Usage)
	if !ok {
		return DocumentSymbol{}, false
	}
	sel := locRange(id.Loc(), c.lines)
	full := sel
	if id.Base != nil && ast.InFile(id.Base, c.file) && id.Base.Loc().Contains(id.Loc().Pos.Begin) {
		full = locRange(id.Base.Loc(), c.lines)
	}
	sym := DocumentSymbol{
		Name:           id.Ident,
		Kind:           kind,
		Range:          full,
		SelectionRange: sel,
	}
	if t := id.ExprType(); t != nil {
		sym.Detail = TypeString(t)
	}
	if f, ok := id.Base.(*ast.Field); ok && f.FieldType != nil {
		sym.Detail = TypeString(f.FieldType)
	}
	return sym, true
}
