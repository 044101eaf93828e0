package generators

import (
	"io"

	"github.com/pkg/errors"

	"cbridge/pkg/dom"
)

// cHeader is the context the header is rendered in
var cHeader = dom.WriteContext{ForC: true, IncludeComments: true}

// WriteHeader writes the C header for every file under root
func WriteHeader(w io.Writer, root dom.Element) error {
	files := dom.ListAllChildrenOfType[*dom.HeaderFile](root)
	if len(files) == 0 {
		return errors.New("no header file to write")
	}
	cw := dom.NewCodeWriter()
	for _, file := range files {
		for _, child := range file.Children {
			dom.WriteElement(child, cw, cHeader)
		}
	}
	_, err := io.WriteString(w, cw.String())
	return errors.Wrap(err, "writing header")
}
