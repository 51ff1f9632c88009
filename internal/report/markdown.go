package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/sitetree/internal/model"
)

// MarkdownWriter outputs crawl results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which keeps table escaping and code fences out of this package.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the crawl result in Markdown format.
func (w *MarkdownWriter) Write(tree *model.SiteTree) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, tree)
	w.writeTree(md, tree)
	w.writeResources(md, tree)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the crawl summary table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, tree *model.SiteTree) {
	md.H1("Site Tree")
	md.PlainText("")

	depth := 0
	if tree.Root != nil {
		depth = tree.Root.Depth()
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base URL", "`" + tree.BaseURL + "`"},
			{"Started", tree.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", tree.Duration().String()},
			{"Resources", strconv.Itoa(tree.ResourceCount())},
			{"Leaves", strconv.Itoa(tree.LeafCount())},
			{"Depth", strconv.Itoa(depth)},
		},
	})
	md.PlainText("")
}

// writeTree writes the indented listing as a fenced block.
func (w *MarkdownWriter) writeTree(md *markdown.Markdown, tree *model.SiteTree) {
	md.H2("Tree")
	md.PlainText("")

	if tree.Root == nil {
		md.PlainText("The root document could not be fetched.")
		md.PlainText("")
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlight("text"), RenderString(tree.Root))
	md.PlainText("")
}

// writeResources writes one table row per crawled resource, in tree order.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, tree *model.SiteTree) {
	if tree.Root == nil {
		return
	}

	md.H2("Resources")
	md.PlainText("")

	rows := make([][]string, 0, tree.ResourceCount())
	tree.Root.Walk(func(n *model.Node, depth int) bool {
		rows = append(rows, []string{
			"`" + n.Name + "`",
			strconv.Itoa(depth),
			strconv.Itoa(len(n.Children)),
		})
		return true
	})

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Depth", "Links"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("Generated by sitetree")
}
