// Package generators turns the modified tree into the three output
// artifacts: the C header, the C++ implementation of its functions and the
// JSON metadata.
package generators

import (
	"cbridge/pkg/dom"
)

// ConditionalGenerator keeps the preprocessor conditionals of a flat
// sequence of generated items in step with the conditionals the items were
// declared under. Between two items it closes and opens only what differs.
type ConditionalGenerator struct {
	open []dom.Condition
}

// Update brings the open conditionals in line with conds (outermost
// first), writing the directives needed to get there.
func (g *ConditionalGenerator) Update(w *dom.CodeWriter, conds []dom.Condition) {
	common := 0
	for common < len(g.open) && common < len(conds) && g.open[common] == conds[common] {
		common++
	}
	for len(g.open) > common {
		closeDirective(w, g.open[len(g.open)-1])
		g.open = g.open[:len(g.open)-1]
	}
	for _, c := range conds[common:] {
		w.WriteUnindented(c.Directive())
		w.EndLine()
		g.open = append(g.open, c)
	}
}

// Finish closes everything still open
func (g *ConditionalGenerator) Finish(w *dom.CodeWriter) {
	g.Update(w, nil)
}

// Depth returns the number of open conditionals
func (g *ConditionalGenerator) Depth() int {
	return len(g.open)
}

func closeDirective(w *dom.CodeWriter, c dom.Condition) {
	w.WriteUnindented("#endif // " + c.Directive())
	w.EndLine()
}
