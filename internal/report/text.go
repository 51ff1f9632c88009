package report

import (
	"bytes"
	"io"

	"github.com/nao1215/sitetree/internal/model"
)

// TextWriter outputs the indented tree listing produced by Render.
// Nothing else is written, so the output can be diffed and piped.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the tree listing. A tree without a root writes nothing.
func (w *TextWriter) Write(tree *model.SiteTree) (int, error) {
	var buf bytes.Buffer
	if err := Render(&buf, tree.Root); err != nil {
		return 0, err
	}
	if buf.Len() == 0 {
		return 0, nil
	}
	return w.output.Write(buf.Bytes())
}
