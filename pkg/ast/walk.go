package ast

// Inspect traverses an expression tree in depth-first order, calling fn for
// each node. If fn returns false, the children of that node are skipped.
// Subqueries are reported to fn but not entered; callers that need their
// contents analyze the *SelectStmt separately.
func Inspect(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *BinaryExpr:
		Inspect(n.Left, fn)
		Inspect(n.Right, fn)
	case *UnaryExpr:
		Inspect(n.Expr, fn)
	case *FuncCall:
		for _, a := range n.Args {
			Inspect(a, fn)
		}
		Inspect(n.Filter, fn)
		for _, o := range n.OrderBy {
			Inspect(o.Expr, fn)
		}
		if n.Window != nil {
			for _, p := range n.Window.PartitionBy {
				Inspect(p, fn)
			}
			for _, o := range n.Window.OrderBy {
				Inspect(o.Expr, fn)
			}
		}
	case *CaseExpr:
		Inspect(n.Operand, fn)
		for _, w := range n.Whens {
			Inspect(w.Condition, fn)
			Inspect(w.Result, fn)
		}
		Inspect(n.Else, fn)
	case *CastExpr:
		Inspect(n.Expr, fn)
	case *InExpr:
		Inspect(n.Expr, fn)
		for _, v := range n.Values {
			Inspect(v, fn)
		}
	case *BetweenExpr:
		Inspect(n.Expr, fn)
		Inspect(n.Low, fn)
		Inspect(n.High, fn)
	case *IsNullExpr:
		Inspect(n.Expr, fn)
	case *IsBoolExpr:
		Inspect(n.Expr, fn)
	case *LikeExpr:
		Inspect(n.Expr, fn)
		Inspect(n.Pattern, fn)
	case *ParenExpr:
		Inspect(n.Expr, fn)
	case *ListExpr:
		for _, it := range n.Items {
			Inspect(it, fn)
		}
	case *IndexExpr:
		Inspect(n.Expr, fn)
		Inspect(n.Index, fn)
	}
}

// Subqueries returns the SELECT statements nested directly in an expression
// (scalar subqueries, IN (SELECT ...), EXISTS (...)).
func Subqueries(e Expr) []*SelectStmt {
	var out []*SelectStmt
	Inspect(e, func(n Expr) bool {
		switch s := n.(type) {
		case *SubqueryExpr:
			out = append(out, s.Select)
		case *ExistsExpr:
			out = append(out, s.Select)
		case *InExpr:
			if s.Query != nil {
				out = append(out, s.Query)
			}
		}
		return true
	})
	return out
}
