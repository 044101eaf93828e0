package modifiers

import (
	"strings"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// GenerateDefaultArgumentFunctions returns a pass that, for functions with
// trailing default arguments, adds a helper filling the defaults in and
// renames the full version with the Ex suffix. Leading defaults that are
// trivial (zero or null flags and out-pointers) stay explicit in the
// helper; a function whose defaults are all trivial gets no helper.
func GenerateDefaultArgumentFunctions(cfg config.DefaultArgsConfig) func(dom.Element) error {
	return func(root dom.Element) error {
		for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
			if fn.Parent == nil || fn.IsDefaultArgumentHelper || dom.ContainingClass(fn) != nil {
				continue
			}
			first := firstImpliedArgument(fn, cfg)
			if first < 0 {
				continue
			}

			c, err := dom.Clone(fn)
			if err != nil {
				return err
			}
			helper := c.(*dom.FunctionDeclaration)
			helper.IsDefaultArgumentHelper = true

			var implied []string
			for _, arg := range helper.Arguments[first:] {
				arg.IsImplicitDefault = true
				implied = append(implied, arg.Name+" = "+arg.DefaultValueString())
			}
			note := dom.NewComment("Implied " + strings.Join(implied, ", "))
			note.IsAttached = true
			note.Parent = helper
			helper.AttachedComment = note

			fn.PreComments = nil
			fn.Name += cfg.ExSuffix

			if cfg.Placement == config.PlacementAfter {
				err = dom.InsertAfterChild(fn.Parent, fn, helper)
			} else {
				err = dom.InsertBeforeChild(fn.Parent, fn, helper)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
}

// firstImpliedArgument returns the index of the first argument the helper
// fills in, or -1 when no helper is needed
func firstImpliedArgument(fn *dom.FunctionDeclaration, cfg config.DefaultArgsConfig) int {
	start := len(fn.Arguments)
	for start > 0 && fn.Arguments[start-1].HasDefault() {
		start--
	}
	for start < len(fn.Arguments) && isTrivialDefault(fn.Arguments[start], cfg) {
		start++
	}
	if start == len(fn.Arguments) {
		return -1
	}
	return start
}

func isTrivialDefault(arg *dom.FunctionArgument, cfg config.DefaultArgsConfig) bool {
	if !contains(cfg.TrivialValues, arg.DefaultValueString()) {
		return false
	}
	if contains(cfg.TrivialArgumentNames, arg.Name) {
		return true
	}
	return arg.ArgType != nil &&
		(contains(cfg.TrivialArgumentTypes, arg.ArgType.String()) || contains(cfg.TrivialArgumentTypes, arg.ArgType.PrimaryTypeName()))
}
