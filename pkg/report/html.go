package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sw33tLie/rulewatch/pkg/redline"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const pageCSS = `
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2933; }
h1 { font-size: 1.4rem; margin-bottom: .25rem; }
.meta { color: #52606d; font-size: .9rem; margin: .15rem 0; }
.legend span { display: inline-block; padding: .1rem .5rem; margin-right: .5rem; font-size: .85rem; border: 1px solid #cbd2d9; }
table.redline { border-collapse: collapse; width: 100%; margin-top: 1rem; font-family: "SFMono-Regular", Menlo, Consolas, monospace; font-size: .85rem; }
table.redline th { background: #e4e7eb; text-align: left; padding: .3rem .5rem; }
table.redline td { padding: .15rem .5rem; vertical-align: top; white-space: pre-wrap; word-break: break-word; }
table.redline td.ln { width: 3.5rem; text-align: right; color: #7b8794; background: #f5f7fa; white-space: nowrap; }
td.added { background: #aaffaa; }
td.deleted { background: #ffaaaa; }
td.empty { background: #f0f0f0; }
tr.skip td { background: #fffbea; color: #8d6e00; text-align: center; font-style: italic; }
`

// WriteHTML writes a self-contained redline page for rep.
func WriteHTML(w io.Writer, rep Report) error {
	return Page(rep).Render(w)
}

// Page is the full HTML document for rep.
func Page(rep Report) g.Node {
	title := "Redline: " + rep.DocumentID
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				StyleEl(g.Raw(pageCSS)),
			),
			Body(
				H1(g.Text(title)),
				g.If(rep.DocumentName != "", P(Class("meta"), g.Text(rep.DocumentName))),
				g.If(rep.Source != "", P(Class("meta"), g.Text("Source: "+rep.Source))),
				P(Class("meta"), g.Textf("Changes: %s", rep.Summary)),
				P(Class("meta"), g.Text("Generated "+rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))),
				Div(Class("legend"),
					Span(Class("added"), Style("background:#aaffaa"), g.Text("Added")),
					Span(Class("deleted"), Style("background:#ffaaaa"), g.Text("Deleted")),
					Span(Class("empty"), Style("background:#f0f0f0"), g.Text("No counterpart")),
				),
				Table(Class("redline"),
					THead(Tr(
						Th(ColSpan("2"), g.Text(versionHeading(rep.From))),
						Th(ColSpan("2"), g.Text(versionHeading(rep.To))),
					)),
					TBody(g.Group(rowNodes(rep.Rows))),
				),
				g.If(len(rep.Rows) == 0, P(Class("meta"), g.Text("Both versions are empty."))),
			),
		),
	})
}

func versionHeading(v Version) string {
	s := v.Label
	if v.SnapshotID != 0 {
		s += fmt.Sprintf(" #%d", v.SnapshotID)
	}
	if !v.CapturedAt.IsZero() {
		s += " (" + v.CapturedAt.Format("2006-01-02 15:04") + ")"
	}
	return s
}

func rowNodes(rows []redline.Row) []g.Node {
	nodes := make([]g.Node, 0, len(rows))
	for _, r := range rows {
		if r.Skipped > 0 {
			nodes = append(nodes, Tr(Class("skip"),
				Td(ColSpan("4"), g.Textf("%d unchanged lines", r.Skipped)),
			))
			continue
		}
		nodes = append(nodes, Tr(cellNodes(r.Old), cellNodes(r.New)))
	}
	return nodes
}

func cellNodes(c redline.Cell) g.Node {
	ln := ""
	if c.LineNo > 0 {
		ln = strconv.Itoa(c.LineNo)
	}
	return g.Group([]g.Node{
		Td(Class("ln"), g.Text(ln)),
		Td(Class(string(c.Class)), g.Text(c.Text)),
	})
}
