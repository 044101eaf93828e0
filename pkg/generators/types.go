package generators

import (
	"regexp"
	"strings"
	"unicode"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// typeInfo records which names of the C header need converting when a
// value crosses between C and C++. In the implementation file the C header
// lives in its own namespace, so even identically named structs and enums
// are distinct types there.
type typeInfo struct {
	cfg *config.Config

	structs   map[string]*dom.ClassStructUnion
	enums     map[string]bool
	callbacks map[string]bool
	// declared holds every type name the C header declares
	declared map[string]bool
}

func newTypeInfo(root dom.Element, cfg *config.Config) *typeInfo {
	ti := &typeInfo{
		cfg:       cfg,
		structs:   map[string]*dom.ClassStructUnion{},
		enums:     map[string]bool{},
		callbacks: map[string]bool{},
		declared:  map[string]bool{},
	}
	for _, c := range dom.ListAllChildrenOfType[*dom.ClassStructUnion](root) {
		if c.IsAnonymous {
			continue
		}
		if known, ok := ti.structs[c.Name]; !ok || known.IsForwardDeclaration {
			ti.structs[c.Name] = c
		}
		ti.declared[c.Name] = true
	}
	for _, e := range dom.ListAllChildrenOfType[*dom.Enum](root) {
		if e.Name != "" {
			ti.enums[e.Name] = true
			ti.declared[e.Name] = true
		}
	}
	for _, t := range dom.ListAllChildrenOfType[*dom.Typedef](root) {
		if t.TypedefType != nil && t.TypedefType.IsFunctionPointer() {
			ti.callbacks[t.Name] = true
		}
		ti.declared[t.Name] = true
	}
	return ti
}

func (ti *typeInfo) isByValue(t *dom.Type) bool {
	if t.IsPointer() {
		return false
	}
	c, ok := ti.structs[t.PrimaryTypeName()]
	return ok && c.IsByValue
}

// isOpaqueValue matches a struct passed by value that has no converter
func (ti *typeInfo) isOpaqueValue(t *dom.Type) bool {
	if t.IsPointer() {
		return false
	}
	c, ok := ti.structs[t.PrimaryTypeName()]
	return ok && !c.IsByValue
}

func (ti *typeInfo) isEnumValue(t *dom.Type) bool {
	return !t.IsPointer() && ti.enums[t.PrimaryTypeName()]
}

// isStringView matches a const char* that stands in for the library's
// string-view type
func (ti *typeInfo) isStringView(t *dom.Type) bool {
	sv := ti.cfg.StringView.Type
	if sv == "" || t.String() != "const char*" {
		return false
	}
	return containsWord(t.OriginalString(), sv)
}

// needsCast reports whether the C and C++ spellings of t name different
// types
func (ti *typeInfo) needsCast(t *dom.Type) bool {
	if t.IsFunctionPointer() {
		return true
	}
	if normalizeReferences(t.String()) != normalizeReferences(t.OriginalString()) {
		return true
	}
	for _, name := range identifiers(t.String()) {
		if ti.structs[name] != nil || ti.enums[name] || ti.callbacks[name] {
			return true
		}
	}
	return false
}

// cType spells a C header type for use in the implementation file
func (ti *typeInfo) cType(text string) string {
	ns := ti.cfg.CNamespace
	if ns == "" {
		return text
	}
	return qualifyNames(text, ns+"::", func(name string) bool { return ti.declared[name] })
}

// cppType spells an original C++ type from the global namespace
func cppType(text string) string {
	return qualifyNames(text, "::", func(name string) bool {
		return !typeKeywords[name] && !dom.IsBuiltinType(name)
	})
}

var typeKeywords = map[string]bool{
	"const": true, "volatile": true, "struct": true, "class": true, "union": true,
	"enum": true, "typename": true,
}

var identifierPattern = regexp.MustCompile(`(^|[^\w:])([A-Za-z_]\w*)`)

// qualifyNames prefixes every unqualified identifier accepted by want.
// Parameter names inside function pointer types are left alone.
func qualifyNames(text, prefix string, want func(string) bool) string {
	var sb strings.Builder
	last := 0
	for _, m := range identifierPattern.FindAllStringSubmatchIndex(text, -1) {
		name := text[m[4]:m[5]]
		if !want(name) || isDeclaratorName(text, m[4], m[5]) {
			continue
		}
		sb.WriteString(text[last:m[4]])
		sb.WriteString(prefix)
		sb.WriteString(name)
		last = m[5]
	}
	sb.WriteString(text[last:])
	return sb.String()
}

// isDeclaratorName reports whether the identifier at text[start:end] names
// a parameter: it follows a type (an identifier, "*" or "&") and ends the
// parameter.
func isDeclaratorName(text string, start, end int) bool {
	after := strings.TrimLeft(text[end:], " \t")
	if after == "" || !strings.ContainsRune(",)[", rune(after[0])) {
		return false
	}
	before := strings.TrimRight(text[:start], " \t")
	if before == "" {
		return false
	}
	if c := before[len(before)-1]; c == '*' || c == '&' {
		return true
	}
	word := before[strings.LastIndexFunc(before, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})+1:]
	return word != "" && !typeKeywords[word]
}

func identifiers(text string) []string {
	var out []string
	for _, m := range identifierPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[2])
	}
	return out
}

func containsWord(text, word string) bool {
	for _, name := range identifiers(text) {
		if name == word {
			return true
		}
	}
	return false
}

func normalizeReferences(text string) string {
	return strings.ReplaceAll(text, "&", "*")
}

// valueSpelling strips the "const" and "&" of a collapsed "const X&"
func valueSpelling(text string) string {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "&"))
	return strings.TrimPrefix(text, "const ")
}

func isReferenceSpelling(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "&")
}
