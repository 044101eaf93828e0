package modifiers

import (
	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// GenerateStringViewHelpers returns a pass giving every function that takes
// the string-view type a twin taking const char* instead. The twin keeps
// the plain name; the original gets the configured suffix.
func GenerateStringViewHelpers(cfg config.StringViewConfig) func(dom.Element) error {
	return func(root dom.Element) error {
		if cfg.Type == "" {
			return nil
		}
		for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
			if fn.Parent == nil || !takesStringView(fn, cfg.Type) {
				continue
			}
			c, err := dom.Clone(fn)
			if err != nil {
				return err
			}
			helper := c.(*dom.FunctionDeclaration)
			helper.IsStringViewHelper = true
			for _, arg := range helper.Arguments {
				if isStringView(arg, cfg.Type) {
					arg.SetType(typeWithOriginal("const char*", arg.ArgType.OriginalString()))
				}
			}
			if err := dom.InsertBeforeChild(fn.Parent, fn, helper); err != nil {
				return err
			}

			// comments stay with the first of the pair
			fn.PreComments = nil
			fn.Name += cfg.Suffix
			fn.HasStringViewHelper = true
		}
		return nil
	}
}

func takesStringView(fn *dom.FunctionDeclaration, typeName string) bool {
	for _, arg := range fn.Arguments {
		if isStringView(arg, typeName) {
			return true
		}
	}
	return false
}

func isStringView(arg *dom.FunctionArgument, typeName string) bool {
	return arg.ArgType != nil && !arg.ArgType.IsPointer() && arg.ArgType.PrimaryTypeName() == typeName
}
