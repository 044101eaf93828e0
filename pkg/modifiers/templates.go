package modifiers

import (
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/dom"
	"cbridge/pkg/lexer"
)

// instantiation is one distinct use of a template, e.g. ImVector<ImFont*>
type instantiation struct {
	args     []lexer.Token
	original string // the argument as spelled in C++ before any renaming
	name     string
}

// FlattenTemplates replaces each class template by one concrete struct per
// distinct argument it is used with, named <Template>_<Arg>, and rewrites
// the uses. Function templates have no C form and are dropped.
func FlattenTemplates(root dom.Element) error {
	renamed := map[string]map[string]string{}

	for _, tmpl := range dom.ListAllChildrenOfType[*dom.Template](root) {
		if tmpl.Parent == nil {
			continue
		}
		class, ok := tmpl.Declaration().(*dom.ClassStructUnion)
		if !ok || class.IsForwardDeclaration {
			if err := dom.Remove(tmpl); err != nil {
				return err
			}
			continue
		}
		if len(tmpl.Params) != 1 {
			return errors.Errorf("template %s has %d parameters, only one is supported", class.Name, len(tmpl.Params))
		}
		param := tmpl.Params[0].Name

		uses := findInstantiations(root, class.Name)
		instances := make([]dom.Element, 0, len(uses))
		renamed[class.Name] = map[string]string{}
		for _, use := range uses {
			inst, err := instantiate(class, param, use)
			if err != nil {
				return err
			}
			renamed[class.Name][dom.JoinTokens(use.args, false)] = use.name
			instances = append(instances, inst)
		}
		if len(instances) > 0 {
			first := instances[0].Node()
			for _, comment := range tmpl.PreComments {
				comment.Parent = instances[0]
			}
			first.PreComments = append(tmpl.PreComments, first.PreComments...)
			tmpl.PreComments = nil
		}
		if err := dom.ReplaceChild(tmpl.Parent, tmpl, instances...); err != nil {
			return err
		}
	}

	renameTypes(root, func(t *dom.Type) bool {
		return replaceInstantiations(t, renamed)
	})
	return nil
}

// instantiate clones a class template for one argument
func instantiate(class *dom.ClassStructUnion, param string, use instantiation) (*dom.ClassStructUnion, error) {
	c, err := dom.Clone(class)
	if err != nil {
		return nil, errors.Wrapf(err, "instantiating %s", class.Name)
	}
	inst := c.(*dom.ClassStructUnion)
	argText := dom.JoinTokens(use.args, false)

	for _, t := range dom.ListAllChildrenOfType[*dom.Type](inst) {
		before := t.OriginalString()
		hadOverride := t.OriginalNameOverride != ""
		replaced := t.ReplaceTypeNameWithTokens(param, use.args)
		if hadOverride || replaced && use.original != argText {
			t.OriginalNameOverride = replaceWord(before, param, use.original)
		}
	}
	for _, fn := range dom.ListAllChildrenOfType[*dom.FunctionDeclaration](inst) {
		switch {
		case fn.IsConstructor:
			fn.Name = use.name
		case fn.IsDestructor:
			fn.Name = "~" + use.name
		}
	}
	inst.Name = use.name
	inst.OriginalNameOverride = class.Name + "<" + use.original + ">"
	return inst, nil
}

// findInstantiations collects the distinct arguments a template is used
// with outside of template definitions, in first-seen order
func findInstantiations(root dom.Element, name string) []instantiation {
	var out []instantiation
	seen := map[string]bool{}
	for _, t := range dom.ListAllChildrenOfType[*dom.Type](root) {
		if insideTemplate(t) {
			continue
		}
		originals := originalArguments(t, name)
		k := 0
		forEachInstantiation(t.Tokens, name, func(start, end int) {
			args := t.Tokens[start+2 : end]
			key := dom.JoinTokens(args, false)
			original := key
			if len(originals) > k {
				original = originals[k]
			}
			k++
			if seen[key] {
				return
			}
			seen[key] = true
			out = append(out, instantiation{
				args:     append([]lexer.Token(nil), args...),
				original: original,
				name:     instanceName(name, args),
			})
		})
	}
	return out
}

// originalArguments returns the template arguments of every use of name in
// the type's original C++ spelling, in order
func originalArguments(t *dom.Type, name string) []string {
	var tokens []lexer.Token
	for _, tok := range lexer.NewTokenizer(t.OriginalString()).Tokenize() {
		if tok.Type != lexer.TokenWhitespace && tok.Type != lexer.TokenNewline && tok.Type != lexer.TokenEOF {
			tokens = append(tokens, tok)
		}
	}
	var out []string
	forEachInstantiation(tokens, name, func(start, end int) {
		out = append(out, dom.JoinTokens(tokens[start+2:end], false))
	})
	return out
}

// forEachInstantiation calls fn with the index of every "name" token
// followed by a template argument list and the index of its closing '>'
func forEachInstantiation(tokens []lexer.Token, name string, fn func(start, end int)) {
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].Type != lexer.TokenIdentifier || tokens[i].Value != name || tokens[i+1].Type != lexer.TokenLess {
			continue
		}
		depth := 0
		for j := i + 1; j < len(tokens); j++ {
			switch tokens[j].Type {
			case lexer.TokenLess:
				depth++
			case lexer.TokenGreater:
				depth--
			}
			if depth == 0 {
				fn(i, j)
				i = j
				break
			}
		}
	}
}

func insideTemplate(e dom.Element) bool {
	for p := e.Node().Parent; p != nil; p = p.Node().Parent {
		if _, ok := p.(*dom.Template); ok {
			return true
		}
	}
	return false
}

// instanceName builds the C name of an instantiation, e.g. ImVector_ImFontPtr
// for ImVector<ImFont*> and ImVector_const_charPtr for ImVector<const char*>
func instanceName(name string, args []lexer.Token) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, tok := range args {
		switch {
		case tok.Type == lexer.TokenStar:
			sb.WriteString("Ptr")
		case tok.Type == lexer.TokenAmpersand:
			sb.WriteString("Ref")
		case tok.Type == lexer.TokenIdentifier, tok.Type == lexer.TokenNumber, tok.IsKeyword():
			sb.WriteString("_" + tok.Value)
		}
	}
	return sb.String()
}

// replaceInstantiations rewrites template uses in a type's own tokens into
// the flattened names
func replaceInstantiations(t *dom.Type, renamed map[string]map[string]string) bool {
	changed := false
	for name, byArg := range renamed {
		for {
			replacedOne := false
			forEachInstantiation(t.Tokens, name, func(start, end int) {
				if replacedOne {
					return
				}
				to, ok := byArg[dom.JoinTokens(t.Tokens[start+2:end], false)]
				if !ok {
					return
				}
				tok := t.Tokens[start]
				tok.Value = to
				t.Tokens = append(append(append([]lexer.Token(nil), t.Tokens[:start]...), tok), t.Tokens[end+1:]...)
				replacedOne = true
			})
			if !replacedOne {
				break
			}
			changed = true
		}
	}
	return changed
}
