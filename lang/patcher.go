package lang

import (
	"log/slog"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/chtl/log"
)

// hyphenPatcher reconstructs hyphenated names from the subtraction chains
// expr-lang parses them into.
//
// Configuration keys may contain hyphens ("theme-color"), so an expression
// naming an earlier key reads as "theme - color". When the combined name
// exists in the environment, the chain is patched to a single identifier.
type hyphenPatcher struct {
	env    map[string]any
	logger log.Logger
}

// Visit implements ast.Visitor.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	name, ok := hyphenChain(bin)
	if !ok {
		return
	}

	if _, ok := p.env[name]; !ok {
		return
	}

	ast.Patch(node, &ast.IdentifierNode{Value: name})

	p.logger.Trace("patch hyphenated",
		slog.String("name", name))
}

// hyphenChain returns the name spelled by an unpatched chain of
// identifiers joined by "-".
func hyphenChain(bin *ast.BinaryNode) (string, bool) {
	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok || bin.Operator != "-" {
		return "", false
	}

	switch left := bin.Left.(type) {
	case *ast.IdentifierNode:
		return left.Value + "-" + right.Value, true
	case *ast.BinaryNode:
		base, ok := hyphenChain(left)
		if !ok {
			return "", false
		}

		return base + "-" + right.Value, true
	default:
		return "", false
	}
}
