package modifiers

import (
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/config"
	"cbridge/pkg/dom"
)

// DisambiguateFunctions returns a pass giving overloaded functions distinct
// C names. The overload with the fewest arguments keeps its name; the
// others get a suffix built from the types of the arguments where the
// overloads differ, as short as still keeps all names apart.
func DisambiguateFunctions(cfg config.DisambiguationConfig) func(dom.Element) error {
	return func(root dom.Element) error {
		functions := dom.ListAllChildrenOfType[*dom.FunctionDeclaration](root)

		var order []string
		groups := map[string][]*dom.FunctionDeclaration{}
		for _, fn := range functions {
			if _, ok := groups[fn.Name]; !ok {
				order = append(order, fn.Name)
			}
			groups[fn.Name] = append(groups[fn.Name], fn)
		}

		for _, name := range order {
			group := groups[name]
			if len(group) < 2 || contains(cfg.FunctionsToIgnore, name) || allMutuallyExclusive(group) {
				continue
			}
			taken := takenNames(functions, name)
			if err := disambiguateGroup(group, taken, cfg); err != nil {
				return err
			}
			for _, fn := range group {
				taken[fn.Name] = true
			}
		}
		return nil
	}
}

// takenNames returns the names of all functions outside a group
func takenNames(functions []*dom.FunctionDeclaration, except string) map[string]bool {
	out := map[string]bool{}
	for _, fn := range functions {
		if fn.Name != except {
			out[fn.Name] = true
		}
	}
	return out
}

func allMutuallyExclusive(group []*dom.FunctionDeclaration) bool {
	for i := range group {
		for j := i + 1; j < len(group); j++ {
			if !dom.MutuallyExclusive(group[i], group[j]) {
				return false
			}
		}
	}
	return true
}

func argumentKey(arg *dom.FunctionArgument) string {
	if arg.IsVarargs || arg.ArgType == nil {
		return "..."
	}
	return arg.ArgType.String()
}

// commonPrefixLength counts the leading argument positions that have the
// same type in every overload
func commonPrefixLength(group []*dom.FunctionDeclaration) int {
	n := 0
	for {
		for _, fn := range group {
			if n >= len(fn.Arguments) || argumentKey(fn.Arguments[n]) != argumentKey(group[0].Arguments[n]) {
				return n
			}
		}
		n++
	}
}

func prioritySum(fn *dom.FunctionDeclaration, priorities map[string]int) int {
	sum := 0
	for _, arg := range fn.Arguments {
		sum += priorities[argumentKey(arg)]
	}
	return sum
}

// baseline picks the overload that keeps the plain name
func baseline(group []*dom.FunctionDeclaration, priorities map[string]int) *dom.FunctionDeclaration {
	best := group[0]
	for _, fn := range group[1:] {
		switch {
		case len(fn.Arguments) < len(best.Arguments):
			best = fn
		case len(fn.Arguments) == len(best.Arguments) && prioritySum(fn, priorities) > prioritySum(best, priorities):
			best = fn
		}
	}
	return best
}

// suffixTokens returns the name fragments contributed by the arguments
// past the common prefix
func suffixTokens(fn *dom.FunctionDeclaration, common int, remaps map[string]string) []string {
	var out []string
	for i := common; i < len(fn.Arguments); i++ {
		arg := fn.Arguments[i]
		if arg.IsInstancePointer || arg.IsVarargs || arg.ArgType == nil {
			continue
		}
		out = append(out, suffixToken(arg.ArgType, remaps))
	}
	return out
}

func suffixToken(t *dom.Type, remaps map[string]string) string {
	if remap, ok := remaps[t.String()]; ok {
		return remap
	}
	if remap, ok := remaps[t.OriginalString()]; ok {
		return remap
	}
	if t.IsFunctionPointer() {
		return "Callback"
	}
	token := capitalize(t.PrimaryTypeName())
	if strings.HasSuffix(t.String(), "*") {
		token += "Ptr"
	}
	return token
}

func disambiguateGroup(group []*dom.FunctionDeclaration, taken map[string]bool, cfg config.DisambiguationConfig) error {
	name := group[0].Name
	common := commonPrefixLength(group)
	keep := baseline(group, cfg.TypePriorities)

	tokens := make(map[*dom.FunctionDeclaration][]string, len(group))
	for _, fn := range group {
		if fn != keep {
			tokens[fn] = suffixTokens(fn, common, cfg.NameSuffixRemaps)
		}
	}

	candidates := func(n int) map[*dom.FunctionDeclaration]string {
		out := make(map[*dom.FunctionDeclaration]string, len(group))
		for _, fn := range group {
			if fn == keep {
				out[fn] = name
				continue
			}
			t := tokens[fn]
			if len(t) > n {
				t = t[:n]
			}
			out[fn] = name + strings.Join(t, "")
		}
		return out
	}

	chosen := candidates(cfg.MaxSuffixTokens)
	for n := 1; n <= cfg.MaxSuffixTokens; n++ {
		if c := candidates(n); len(collisions(group, c, taken)) == 0 {
			chosen = c
			break
		}
	}
	for _, fn := range group {
		fn.Name = chosen[fn]
	}

	clashes := collisions(group, chosen, taken)
	if len(clashes) == 1 && len(clashes[0]) == 2 {
		a, b := clashes[0][0], clashes[0][1]
		if differOnlyInReturnConstness(a, b) {
			if returnsConst(a) {
				a.Name += "_Const"
			} else {
				b.Name += "_Const"
			}
			clashes = nil
		}
	}
	if len(clashes) > 0 {
		var names []string
		for _, clash := range clashes {
			names = append(names, clash[0].Name)
		}
		return errors.Errorf("cannot disambiguate overloads of %s: %s still collide", name, strings.Join(names, ", "))
	}
	return nil
}

// collisions groups the functions whose candidate names clash with each
// other (ignoring mutually exclusive pairs) or with a name in taken
func collisions(group []*dom.FunctionDeclaration, names map[*dom.FunctionDeclaration]string, taken map[string]bool) [][]*dom.FunctionDeclaration {
	var out [][]*dom.FunctionDeclaration
	seen := map[*dom.FunctionDeclaration]bool{}
	for i, a := range group {
		if seen[a] {
			continue
		}
		clash := []*dom.FunctionDeclaration{a}
		for _, b := range group[i+1:] {
			if names[a] == names[b] && !dom.MutuallyExclusive(a, b) {
				clash = append(clash, b)
				seen[b] = true
			}
		}
		if len(clash) > 1 || taken[names[a]] {
			out = append(out, clash)
		}
	}
	return out
}

func returnsConst(fn *dom.FunctionDeclaration) bool {
	return fn.ReturnType != nil && fn.ReturnType.IsConst()
}

// differOnlyInReturnConstness matches pairs like "T* begin()" and
// "const T* begin() const"
func differOnlyInReturnConstness(a, b *dom.FunctionDeclaration) bool {
	if returnsConst(a) == returnsConst(b) || a.ReturnType == nil || b.ReturnType == nil {
		return false
	}
	strip := func(t *dom.Type) string {
		return strings.TrimPrefix(t.String(), "const ")
	}
	if strip(a.ReturnType) != strip(b.ReturnType) {
		return false
	}
	var aa, ba []string
	for _, arg := range a.Arguments {
		if !arg.IsInstancePointer {
			aa = append(aa, argumentKey(arg))
		}
	}
	for _, arg := range b.Arguments {
		if !arg.IsInstancePointer {
			ba = append(ba, argumentKey(arg))
		}
	}
	return strings.Join(aa, ",") == strings.Join(ba, ",")
}
