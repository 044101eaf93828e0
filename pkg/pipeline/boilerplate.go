package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"cbridge/pkg/config"
)

type boilerplate struct {
	header         string
	implementation string
}

// loadBoilerplate reads <base>-header-template.h and <base>-impl-template.cpp
// from dir. Missing templates yield empty boilerplate.
func loadBoilerplate(dir string, n names) (boilerplate, error) {
	var b boilerplate
	if dir == "" {
		return b, nil
	}
	var err error
	if b.header, err = readTemplate(filepath.Join(dir, n.base+"-header-template.h"), n); err != nil {
		return b, err
	}
	if b.implementation, err = readTemplate(filepath.Join(dir, n.base+"-impl-template.cpp"), n); err != nil {
		return b, err
	}
	return b, nil
}

func readTemplate(path string, n names) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "reading template %s", path)
	}
	text := n.expand(string(data))
	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text, nil
}

// defaultImplementationPreamble includes the original header and the C
// header, the latter inside the namespace the thunks refer to it by
func defaultImplementationPreamble(n names, cfg *config.Config) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// %s: C wrapper for %s\n\n", n.implementation, n.original)
	fmt.Fprintf(&sb, "#include \"%s\"\n\n", n.original)
	if cfg.CNamespace == "" {
		fmt.Fprintf(&sb, "#include \"%s\"\n\n", n.header)
		return sb.String()
	}
	fmt.Fprintf(&sb, "namespace %s\n{\n", cfg.CNamespace)
	fmt.Fprintf(&sb, "    #include \"%s\"\n", n.header)
	sb.WriteString("}\n\n")
	return sb.String()
}
