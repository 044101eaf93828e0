package generators

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// WriteImplementation writes the C++ file implementing the C header: a
// pair of converters per by-value struct, then one function per C function
// that converts its arguments and forwards to the original C++ function.
func WriteImplementation(w io.Writer, root dom.Element, cfg *config.Config) error {
	g := &implementationWriter{
		types: newTypeInfo(root, cfg),
		cfg:   cfg,
		out:   dom.NewCodeWriter(),
	}
	if err := g.writeConverters(root); err != nil {
		return err
	}
	if err := g.writeFunctions(root); err != nil {
		return err
	}
	g.conds.Finish(g.out)

	_, err := io.WriteString(w, g.out.String())
	return errors.Wrap(err, "writing implementation")
}

type implementationWriter struct {
	types *typeInfo
	cfg   *config.Config
	out   *dom.CodeWriter
	conds ConditionalGenerator
}

func (g *implementationWriter) cName(name string) string {
	if g.cfg.CNamespace == "" {
		return name
	}
	return g.cfg.CNamespace + "::" + name
}

func (g *implementationWriter) writeConverters(root dom.Element) error {
	for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
		if !c.IsByValue || c.IsForwardDeclaration {
			continue
		}
		g.conds.Update(g.out, dom.ParentConditions(c))
		cpp := cppType(dom.OriginalFullyQualifiedName(c))
		csName := g.cName(c.Name)

		if err := g.writeConverter(c, "ConvertToCPP_"+c.Name, cpp, csName, true); err != nil {
			return err
		}
		if err := g.writeConverter(c, "ConvertFromCPP_"+c.Name, csName, cpp, false); err != nil {
			return err
		}
	}
	return nil
}

func (g *implementationWriter) writeConverter(c *dom.ClassStructUnion, name, to, from string, toCPP bool) error {
	w := g.out
	w.WriteLine(fmt.Sprintf("static inline %s %s(const %s& src)", to, name, from))
	w.WriteLine("{")
	w.Indent()
	w.WriteLine(to + " dest;")

	outer := len(dom.ParentConditions(c))
	var inner ConditionalGenerator
	for _, f := range dom.ListDirectlyContainedChildrenOfType[*dom.FieldDeclaration](c) {
		if f.IsStatic {
			continue
		}
		inner.Update(w, dom.ParentConditions(f)[outer:])
		for _, d := range f.Declarators {
			if err := g.writeFieldCopy(w, c, f, d, toCPP); err != nil {
				return err
			}
		}
	}
	inner.Finish(w)

	w.WriteLine("return dest;")
	w.Unindent()
	w.WriteLine("}")
	w.EndLine()
	return nil
}

func (g *implementationWriter) writeFieldCopy(w *dom.CodeWriter, c *dom.ClassStructUnion, f *dom.FieldDeclaration, d dom.FieldDeclarator, toCPP bool) error {
	convert := func(expr string) string {
		if toCPP {
			return g.valueToCPP(f.FieldType, expr)
		}
		return g.valueFromCPP(f.FieldType, expr)
	}
	switch len(d.ArrayBounds) {
	case 0:
		w.WriteLine(fmt.Sprintf("dest.%s = %s;", d.Name, convert("src."+d.Name)))
	case 1:
		if d.ArrayBounds[0] == "" {
			return errors.Errorf("field %s of by-value struct %s has no array bound", d.Name, c.Name)
		}
		w.WriteLine(fmt.Sprintf("for (int i = 0; i < %s; i++)", d.ArrayBounds[0]))
		w.Indent()
		w.WriteLine(fmt.Sprintf("dest.%s[i] = %s;", d.Name, convert("src."+d.Name+"[i]")))
		w.Unindent()
	default:
		return errors.Errorf("field %s of by-value struct %s has more than one array dimension", d.Name, c.Name)
	}
	return nil
}

// valueToCPP converts a C value of type t held in expr to its C++ type
func (g *implementationWriter) valueToCPP(t *dom.Type, expr string) string {
	ti := g.types
	switch {
	case ti.isByValue(t):
		return "ConvertToCPP_" + t.PrimaryTypeName() + "(" + expr + ")"
	case ti.isEnumValue(t):
		return "static_cast<" + cppType(valueSpelling(t.OriginalString())) + ">(" + expr + ")"
	case ti.isOpaqueValue(t):
		return "*reinterpret_cast<const " + cppType(valueSpelling(t.OriginalString())) + "*>(&" + expr + ")"
	case ti.needsCast(t):
		return "reinterpret_cast<" + cppType(normalizeReferences(t.OriginalString())) + ">(" + expr + ")"
	}
	return expr
}

// valueFromCPP converts a C++ value held in expr to the C type t
func (g *implementationWriter) valueFromCPP(t *dom.Type, expr string) string {
	ti := g.types
	switch {
	case ti.isByValue(t):
		return "ConvertFromCPP_" + t.PrimaryTypeName() + "(" + expr + ")"
	case ti.isEnumValue(t):
		return "static_cast<" + ti.cType(t.String()) + ">(" + expr + ")"
	case ti.isOpaqueValue(t):
		return "*reinterpret_cast<const " + ti.cType(t.String()) + "*>(&" + expr + ")"
	case ti.needsCast(t):
		return "reinterpret_cast<" + ti.cType(t.String()) + ">(" + expr + ")"
	}
	return expr
}

// argumentToCPP returns the expression passing a C argument to C++
func (g *implementationWriter) argumentToCPP(arg *dom.FunctionArgument) string {
	t := arg.ArgType
	ti := g.types
	switch {
	case ti.isStringView(t):
		return g.cfg.StringView.Helper + "(" + arg.Name + ")"
	case t.ValueFromConstRef:
		return g.valueToCPP(t, arg.Name)
	case isReferenceSpelling(t.OriginalString()):
		pointer := arg.Name
		if ti.needsCast(t) {
			pointer = "reinterpret_cast<" + cppType(normalizeReferences(t.OriginalString())) + ">(" + arg.Name + ")"
		}
		return "*" + pointer
	}
	return g.valueToCPP(t, arg.Name)
}

// returnFromCPP converts the result of a C++ call to the C return type
func (g *implementationWriter) returnFromCPP(fn *dom.FunctionDeclaration, call string) (string, error) {
	t := fn.ReturnType
	ti := g.types
	if isReferenceSpelling(t.OriginalString()) {
		if ti.needsCast(t) {
			return "reinterpret_cast<" + ti.cType(t.String()) + ">(&" + call + ")", nil
		}
		return "&" + call, nil
	}
	if ti.isOpaqueValue(t) {
		return "", errors.Errorf("function %s returns struct %s by value, which is not a by-value type",
			fn.Name, t.PrimaryTypeName())
	}
	return g.valueFromCPP(t, call), nil
}

// stub is the body of one generated function
type stub struct {
	pre  []string
	args []string
	post []string
	self string
}

func (g *implementationWriter) buildStub(fn *dom.FunctionDeclaration) (*stub, error) {
	s := &stub{}
	var last string
	for _, arg := range fn.Arguments {
		switch {
		case arg.IsImplicitDefault:
			// the C++ default applies
		case arg.IsInstancePointer:
			s.self = g.valueToCPP(arg.ArgType, arg.Name)
		case arg.IsVarargs:
			if last == "" {
				return nil, errors.Errorf("varargs function %s has no named argument", fn.Name)
			}
			s.pre = append(s.pre, "va_list args;", "va_start(args, "+last+");")
			s.post = append(s.post, "va_end(args);")
			s.args = append(s.args, "args")
		case arg.IsArray():
			expr, err := g.arrayArgument(fn, arg, s)
			if err != nil {
				return nil, err
			}
			s.args = append(s.args, expr)
		default:
			s.args = append(s.args, g.argumentToCPP(arg))
		}
		if !arg.IsVarargs {
			last = arg.Name
		}
	}
	return s, nil
}

// arrayArgument converts an array argument, building a local C++ copy of
// arrays of by-value structs
func (g *implementationWriter) arrayArgument(fn *dom.FunctionDeclaration, arg *dom.FunctionArgument, s *stub) (string, error) {
	t := arg.ArgType
	if !g.types.isByValue(t) {
		if g.types.needsCast(t) {
			return "reinterpret_cast<" + cppType(normalizeReferences(t.OriginalString())) + "*>(" + arg.Name + ")", nil
		}
		return arg.Name, nil
	}
	if len(arg.ArrayBounds) != 1 || strings.TrimSpace(arg.ArrayBounds[0]) == "" {
		return "", errors.Errorf("argument %s of %s: array of by-value struct needs exactly one array bound",
			arg.Name, fn.Name)
	}
	bound := arg.ArrayBounds[0]
	local := arg.Name + "_converted_array"
	s.pre = append(s.pre,
		fmt.Sprintf("%s %s[%s];", cppType(valueSpelling(t.OriginalString())), local, bound),
		fmt.Sprintf("for (int i = 0; i < %s; i++)", bound),
		fmt.Sprintf("    %s[i] = ConvertToCPP_%s(%s[i]);", local, t.PrimaryTypeName(), arg.Name),
	)
	return local, nil
}

// target returns the C++ callee of a function: a qualified name, or a
// member access on the converted self pointer
func (g *implementationWriter) target(fn *dom.FunctionDeclaration, s *stub) string {
	name := dom.NameOf(dom.Original(fn))
	if fn.IsVarargs() {
		name += g.cfg.VarargsSuffix(name)
	}
	if fn.OriginalClass == nil {
		qualified := dom.OriginalFullyQualifiedName(fn)
		if i := strings.LastIndex(qualified, "::"); i >= 0 {
			qualified = qualified[:i+2] + name
		} else {
			qualified = name
		}
		return cppType(qualified)
	}
	if s.self != "" {
		return s.self + "->" + name
	}
	return cppType(dom.OriginalFullyQualifiedName(fn.OriginalClass)) + "::" + name
}

func (g *implementationWriter) signature(fn *dom.FunctionDeclaration) string {
	var head []string
	if fn.APIMacro != "" {
		head = append(head, fn.APIMacro)
	}
	if fn.ReturnType != nil {
		head = append(head, g.types.cType(fn.ReturnType.CString()))
	} else {
		head = append(head, "void")
	}
	var args []string
	for _, arg := range fn.ExplicitArguments() {
		args = append(args, arg.Render(true, false))
	}
	if len(args) == 0 {
		args = []string{"void"}
	}
	return strings.Join(head, " ") + " " + g.cName(fn.Name) + "(" + strings.Join(args, ", ") + ")"
}

func (g *implementationWriter) writeFunctions(root dom.Element) error {
	for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root) {
		if fn.IsManualHelper {
			continue
		}
		if err := g.writeFunction(fn); err != nil {
			return errors.Wrapf(err, "generating %s", fn.Name)
		}
	}
	return nil
}

func (g *implementationWriter) writeFunction(fn *dom.FunctionDeclaration) error {
	s, err := g.buildStub(fn)
	if err != nil {
		return err
	}
	call, err := g.call(fn, s)
	if err != nil {
		return err
	}

	g.conds.Update(g.out, dom.ParentConditions(fn))
	w := g.out
	w.WriteLine(g.signature(fn))
	w.WriteLine("{")
	w.Indent()
	for _, line := range s.pre {
		w.WriteLine(line)
	}

	returnsValue := fn.ReturnType != nil && !fn.ReturnType.IsVoid() && !fn.IsDestructor
	switch {
	case !returnsValue:
		w.WriteLine(call + ";")
		for _, line := range s.post {
			w.WriteLine(line)
		}
	case len(s.post) == 0:
		w.WriteLine("return " + call + ";")
	default:
		w.WriteLine(g.types.cType(fn.ReturnType.CString()) + " ret = " + call + ";")
		for _, line := range s.post {
			w.WriteLine(line)
		}
		w.WriteLine("return ret;")
	}

	w.Unindent()
	w.WriteLine("}")
	w.EndLine()
	return nil
}

// call builds the forwarding expression, converted to the C return type
func (g *implementationWriter) call(fn *dom.FunctionDeclaration, s *stub) (string, error) {
	args := strings.Join(s.args, ", ")
	switch {
	case fn.IsDestructor:
		if s.self == "" {
			return "", errors.Errorf("destructor %s has no self argument", fn.Name)
		}
		return "delete " + s.self, nil
	case fn.IsConstructor:
		if fn.OriginalClass == nil || fn.ReturnType == nil {
			return "", errors.Errorf("constructor %s was not flattened", fn.Name)
		}
		class :=cppType(dom.OriginalFullyQualifiedName(fn.OriginalClass))
		if fn.OriginalClass.IsByValue {
			return g.returnFromCPP(fn, class+"("+args+")")
		}
		return g.returnFromCPP(fn, "new "+class+"("+args+")")
	}

	call := g.target(fn, s) + "(" + args + ")"
	if fn.ReturnType == nil || fn.ReturnType.IsVoid() {
		return call, nil
	}
	return g.returnFromCPP(fn, call)
}
