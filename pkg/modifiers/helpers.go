package modifiers

import (
	"github.com/pkg/errors"

	"cbridge/pkg/dom"
)

// AddManualHelpers returns a pass declaring extra C functions whose bodies
// come from the implementation template rather than from generated thunks.
// Each entry is one C declaration; the functions are appended to the last
// header and flagged IsManualHelper.
func AddManualHelpers(decls []string) func(dom.Element) error {
	return func(root dom.Element) error {
		if len(decls) == 0 {
			return nil
		}
		files := headerFiles(root)
		if len(files) == 0 {
			return nil
		}
		file := files[len(files)-1]
		for _, decl := range decls {
			parsed, err := dom.ParseString(decl)
			if err != nil {
				return errors.Wrapf(err, "manual helper %q", decl)
			}
			fns := dom.ListDirectlyContainedChildrenOfType[*dom.FunctionDeclaration](parsed)
			if len(fns) != 1 {
				return errors.Errorf("manual helper %q must declare exactly one function", decl)
			}
			fn := fns[0]
			fn.IsManualHelper = true
			dom.AddChild(file, fn)
		}
		return nil
	}
}
