package modifiers

import (
	"cbridge/pkg/dom"
	"cbridge/pkg/lexer"
)

// ConvertReferencesToPointers rewrites every C++ reference as a pointer.
// A function argument of the plain form "const X&" collapses to "X"
// instead, so the C signature takes the value.
func ConvertReferencesToPointers(root dom.Element) error {
	for _, t := range dom.ListAllChildrenOfType[*dom.Type](root) {
		if t.FuncPtr != nil {
			// the signature types are visited on their own
			continue
		}
		if isBareConstRef(t) && isDeclarationArgument(t) {
			t.OriginalNameOverride = t.OriginalString()
			t.Tokens = append([]lexer.Token(nil), t.Tokens[1:len(t.Tokens)-1]...)
			t.ValueFromConstRef = true
			continue
		}
		for i := range t.Tokens {
			if t.Tokens[i].Type == lexer.TokenAmpersand {
				t.Tokens[i].Type = lexer.TokenStar
				t.Tokens[i].Value = "*"
				t.Tokens[i].WasReference = true
			}
		}
	}
	return nil
}

// isBareConstRef matches "const X&" with no other pointer or reference
func isBareConstRef(t *dom.Type) bool {
	if len(t.Tokens) < 3 || !t.IsConst() || !t.IsReference() {
		return false
	}
	for _, tok := range t.Tokens[1 : len(t.Tokens)-1] {
		switch tok.Type {
		case lexer.TokenStar, lexer.TokenAmpersand, lexer.TokenConst:
			return false
		}
	}
	return true
}

// isDeclarationArgument reports whether t is the type of an argument of a
// declared function, as opposed to one inside a function pointer signature
func isDeclarationArgument(t *dom.Type) bool {
	arg, ok := t.Parent.(*dom.FunctionArgument)
	if !ok {
		return false
	}
	_, ok = arg.Parent.(*dom.FunctionDeclaration)
	return ok
}
