package generators

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"cbridge/pkg/dom"
)

// Metadata describes the C API for binding generators
type Metadata struct {
	Defines   []DefineInfo   `json:"defines"`
	Enums     []EnumInfo     `json:"enums"`
	Typedefs  []TypedefInfo  `json:"typedefs"`
	Structs   []StructInfo   `json:"structs"`
	Functions []FunctionInfo `json:"functions"`
}

// Comments are the comments attached to a declaration
type Comments struct {
	Preceding []string `json:"preceding"`
	Attached  string   `json:"attached,omitempty"`
}

// ConditionalInfo is one preprocessor condition a declaration is under
type ConditionalInfo struct {
	Condition  string `json:"condition"`
	Expression string `json:"expression"`
}

// Common holds the fields every entry has
type Common struct {
	Comments     Comments          `json:"comments"`
	Conditionals []ConditionalInfo `json:"conditionals"`
	IsInternal   bool              `json:"is_internal"`
}

type DefineInfo struct {
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
	Common
}

type EnumElementInfo struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
	Common
}

type EnumInfo struct {
	Name     string            `json:"name"`
	Elements []EnumElementInfo `json:"elements"`
	Common
}

// TypeInfo describes a type in both spellings
type TypeInfo struct {
	Declaration  string `json:"declaration"`
	Original     string `json:"original_declaration,omitempty"`
	IsPointer    bool   `json:"is_pointer,omitempty"`
	IsConst      bool   `json:"is_const,omitempty"`
	IsCallback   bool   `json:"is_function_pointer,omitempty"`
	FromConstRef bool   `json:"from_const_reference,omitempty"`
}

type TypedefInfo struct {
	Name string   `json:"name"`
	Type TypeInfo `json:"type"`
	Common
}

type FieldInfo struct {
	Name       string    `json:"name"`
	Type       *TypeInfo `json:"type,omitempty"`
	ArrayBound string    `json:"array_bounds,omitempty"`
	Width      string    `json:"width,omitempty"`
	Common
}

type StructInfo struct {
	Name                 string      `json:"name"`
	OriginalName         string      `json:"original_fully_qualified_name"`
	Kind                 string      `json:"kind"`
	IsByValue            bool        `json:"by_value"`
	IsForwardDeclaration bool        `json:"forward_declaration"`
	IsAnonymous          bool        `json:"is_anonymous"`
	Fields               []FieldInfo `json:"fields"`
	Common
}

type ArgumentInfo struct {
	Name              string    `json:"name,omitempty"`
	Type              *TypeInfo `json:"type,omitempty"`
	IsArray           bool      `json:"is_array"`
	ArrayBounds       string    `json:"array_bounds,omitempty"`
	IsVarargs         bool      `json:"is_varargs"`
	DefaultValue      string    `json:"default_value,omitempty"`
	IsImplicitDefault bool      `json:"is_implicit_default"`
	IsInstancePointer bool      `json:"is_instance_pointer"`
}

type FunctionInfo struct {
	Name                    string         `json:"name"`
	OriginalName            string         `json:"original_fully_qualified_name"`
	ReturnType              *TypeInfo      `json:"return_type,omitempty"`
	Arguments               []ArgumentInfo `json:"arguments"`
	IsDefaultArgumentHelper bool           `json:"is_default_argument_helper"`
	IsManualHelper          bool           `json:"is_manual_helper"`
	IsStringViewHelper      bool           `json:"is_string_view_helper"`
	HasStringViewHelper     bool           `json:"has_string_view_helper"`
	OriginalClass           string         `json:"original_class,omitempty"`
	IsStatic                bool           `json:"is_static"`
	IsConstructor           bool           `json:"is_constructor"`
	IsDestructor            bool           `json:"is_destructor"`
	Common
}

// BuildMetadata collects the metadata of every declaration under root
func BuildMetadata(root dom.Element) *Metadata {
	m := &Metadata{
		Defines:   []DefineInfo{},
		Enums:     []EnumInfo{},
		Typedefs:  []TypedefInfo{},
		Structs:   []StructInfo{},
		Functions: []FunctionInfo{},
	}

	defined := map[string]bool{}
	for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
		if !c.IsForwardDeclaration {
			defined[c.Name] = true
		}
	}

	dom.Walk(root, func(e dom.Element) {
		if e.Node().ExcludeFromMetadata {
			return
		}
		switch v := e.(type) {
		case *dom.Define:
			if v.IsFunctionLike() || v.Content == "" {
				return
			}
			m.Defines = append(m.Defines, DefineInfo{Name: v.Name, Content: v.Content, Common: common(v)})
		case *dom.Enum:
			if v.IsForwardDeclaration {
				return
			}
			m.Enums = append(m.Enums, enumInfo(v))
		case *dom.Typedef:
			if v.TypedefType == nil {
				return
			}
			m.Typedefs = append(m.Typedefs, TypedefInfo{Name: v.Name, Type: *typeInfoOf(v.TypedefType), Common: common(v)})
		case *dom.ClassStructUnion:
			if v.IsForwardDeclaration && defined[v.Name] {
				return
			}
			m.Structs = append(m.Structs, structInfo(v))
		case *dom.FunctionDeclaration:
			m.Functions = append(m.Functions, functionInfo(v))
		}
	})
	return m
}

// WriteMetadata writes the metadata as indented JSON
func WriteMetadata(w io.Writer, root dom.Element) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return errors.Wrap(enc.Encode(BuildMetadata(root)), "writing metadata")
}

func common(e dom.Element) Common {
	c := Common{
		Comments:     Comments{Preceding: []string{}},
		Conditionals: []ConditionalInfo{},
		IsInternal:   e.Node().IsInternal,
	}
	for _, pre := range e.Node().PreComments {
		c.Comments.Preceding = append(c.Comments.Preceding, pre.Text)
	}
	if a := e.Node().AttachedComment; a != nil {
		c.Comments.Attached = a.Text
	}
	for _, cond := range dom.ParentConditions(e) {
		c.Conditionals = append(c.Conditionals, ConditionalInfo{Condition: cond.Kind, Expression: cond.Expression})
	}
	return c
}

func typeInfoOf(t *dom.Type) *TypeInfo {
	if t == nil {
		return nil
	}
	info := &TypeInfo{
		Declaration:  t.CString(),
		IsPointer:    t.IsPointer(),
		IsConst:      t.IsConst(),
		IsCallback:   t.IsFunctionPointer(),
		FromConstRef: t.ValueFromConstRef,
	}
	if orig := t.OriginalString(); orig != info.Declaration {
		info.Original = orig
	}
	return info
}

func enumInfo(e *dom.Enum) EnumInfo {
	info := EnumInfo{Name: e.Name, Elements: []EnumElementInfo{}, Common: common(e)}
	for _, el := range e.Elements() {
		info.Elements = append(info.Elements, EnumElementInfo{Name: el.Name, Value: el.ValueString(), Common: common(el)})
	}
	return info
}

func structInfo(c *dom.ClassStructUnion) StructInfo {
	info := StructInfo{
		Name:                 c.Name,
		OriginalName:         dom.OriginalFullyQualifiedName(c),
		Kind:                 c.StructureType,
		IsByValue:            c.IsByValue,
		IsForwardDeclaration: c.IsForwardDeclaration,
		IsAnonymous:          c.IsAnonymous,
		Fields:               []FieldInfo{},
		Common:               common(c),
	}
	for _, f := range dom.ListDirectlyContainedChildrenOfType[*dom.FieldDeclaration](c) {
		for _, d := range f.Declarators {
			field := FieldInfo{Name: d.Name, Type: typeInfoOf(f.FieldType), Width: d.BitWidth, Common: common(f)}
			for _, bound := range d.ArrayBounds {
				field.ArrayBound += "[" + bound + "]"
			}
			info.Fields = append(info.Fields, field)
		}
	}
	return info
}

func functionInfo(fn *dom.FunctionDeclaration) FunctionInfo {
	info := FunctionInfo{
		Name:                    fn.Name,
		OriginalName:            dom.OriginalFullyQualifiedName(fn),
		ReturnType:              typeInfoOf(fn.ReturnType),
		Arguments:               []ArgumentInfo{},
		IsDefaultArgumentHelper: fn.IsDefaultArgumentHelper,
		IsManualHelper:          fn.IsManualHelper,
		IsStringViewHelper:      fn.IsStringViewHelper,
		HasStringViewHelper:     fn.HasStringViewHelper,
		IsStatic:                fn.IsStatic,
		IsConstructor:           fn.IsConstructor,
		IsDestructor:            fn.IsDestructor,
		Common:                  common(fn),
	}
	if fn.OriginalClass != nil {
		info.OriginalClass = fn.OriginalClass.Name
	}
	for _, arg := range fn.Arguments {
		a := ArgumentInfo{
			Name:              arg.Name,
			Type:              typeInfoOf(arg.ArgType),
			IsArray:           arg.IsArray(),
			IsVarargs:         arg.IsVarargs,
			DefaultValue:      arg.DefaultValueString(),
			IsImplicitDefault: arg.IsImplicitDefault,
			IsInstancePointer: arg.IsInstancePointer,
		}
		for _, bound := range arg.ArrayBounds {
			a.ArrayBounds += "[" + bound + "]"
		}
		info.Arguments = append(info.Arguments, a)
	}
	return info
}
