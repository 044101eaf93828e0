package modifiers

import (
	"strings"

	"cbridge/pkg/dom"
)

// forEachRun calls fn with every maximal run of consecutive children that
// satisfy member, in every child list under root
func forEachRun(root dom.Element, member func(dom.Element) bool, fn func(run []dom.Element)) {
	var lists []*[]dom.Element
	dom.Walk(root, func(e dom.Element) {
		lists = append(lists, dom.ChildLists(e)...)
	})
	for _, list := range lists {
		var run []dom.Element
		for _, child := range *list {
			if member(child) {
				run = append(run, child)
				continue
			}
			if len(run) > 0 {
				fn(run)
			}
			run = nil
		}
		if len(run) > 0 {
			fn(run)
		}
	}
}

// AlignEnumValues lines up the "=" of enum elements that have values
func AlignEnumValues(root dom.Element) error {
	for _, e := range dom.ListAllChildrenOfType[*dom.Enum](root) {
		elements := e.Elements()
		longest := 0
		for _, el := range elements {
			if len(el.Value) > 0 && len(el.Name) > longest {
				longest = len(el.Name)
			}
		}
		for _, el := range elements {
			el.ValueAlignment = longest + 1
		}
	}
	return nil
}

// functionHead is the C text before a function's name
func functionHead(fn *dom.FunctionDeclaration) string {
	var parts []string
	if fn.APIMacro != "" {
		parts = append(parts, fn.APIMacro)
	}
	if fn.ReturnType != nil {
		parts = append(parts, fn.ReturnType.CString())
	} else {
		parts = append(parts, "void")
	}
	return strings.Join(parts, " ") + " "
}

// AlignFunctionNames lines up the names of consecutive function
// declarations
func AlignFunctionNames(root dom.Element) error {
	isFunction := func(e dom.Element) bool {
		_, ok := e.(*dom.FunctionDeclaration)
		return ok
	}
	forEachRun(root, isFunction, func(run []dom.Element) {
		longest := 0
		for _, e := range run {
			if n := len(functionHead(e.(*dom.FunctionDeclaration))); n > longest {
				longest = n
			}
		}
		for _, e := range run {
			e.(*dom.FunctionDeclaration).NameAlignment = longest
		}
	})
	return nil
}

// AlignStructureFieldNames lines up the names of consecutive fields.
// Function pointer fields have their name inside the type and are skipped.
func AlignStructureFieldNames(root dom.Element) error {
	isField := func(e dom.Element) bool {
		f, ok := e.(*dom.FieldDeclaration)
		return ok && f.FieldType != nil && !f.FieldType.IsFunctionPointer()
	}
	forEachRun(root, isField, func(run []dom.Element) {
		longest := 0
		for _, e := range run {
			if n := len(e.(*dom.FieldDeclaration).FieldType.CString()) + 1; n > longest {
				longest = n
			}
		}
		for _, e := range run {
			e.(*dom.FieldDeclaration).NameAlignment = longest
		}
	})
	return nil
}

// AlignComments lines up the trailing comments of consecutive
// single-line declarations
func AlignComments(root dom.Element) error {
	isLine := func(e dom.Element) bool {
		switch e.(type) {
		case *dom.BlankLines, *dom.Comment, *dom.PreprocessorIf, *dom.ClassStructUnion, *dom.Enum,
			*dom.ExternC, *dom.Namespace:
			return false
		}
		return true
	}
	forEachRun(root, isLine, func(run []dom.Element) {
		longest := -1
		for _, e := range run {
			if e.Node().AttachedComment == nil {
				continue
			}
			if n := lastLineLength(dom.Render(e, dom.WriteContext{ForC: true})); n > longest {
				longest = n
			}
		}
		if longest < 0 {
			return
		}
		for _, e := range run {
			if c := e.Node().AttachedComment; c != nil {
				c.Alignment = longest + 1
			}
		}
	})
	return nil
}

func lastLineLength(text string) int {
	if i := strings.LastIndexByte(text, '\n'); i >= 0 {
		return len(text) - i - 1
	}
	return len(text)
}
