// Package ast defines the statement tree shared by every parser backend.
//
// The lineage pipeline depends only on these types, never on backend
// internals. Statement nodes report their Kind so that callers can classify a
// statement without walking it.
package ast

import "github.com/leapstack-labs/sqllineage/pkg/token"

// Node is the base interface for all AST nodes.
type Node interface {
	// Pos returns the position of the first character of the node.
	Pos() token.Position
	// End returns the position of the character immediately after the node.
	End() token.Position
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Statement is a marker interface for top-level statement nodes.
type Statement interface {
	Node
	Kind() Kind
	stmtNode()
}

// TableRef is a marker interface for FROM clause items.
type TableRef interface {
	Node
	tableRefNode()
}

// NodeInfo carries source span information and is embedded in nodes that
// track their position.
type NodeInfo struct {
	Span token.Span
}

// Pos implements Node.
func (n NodeInfo) Pos() token.Position { return n.Span.Start }

// End implements Node.
func (n NodeInfo) End() token.Position { return n.Span.End }
