package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/sw33tLie/rulewatch/internal/utils"
	"github.com/sw33tLie/rulewatch/pkg/documents"
	"github.com/sw33tLie/rulewatch/pkg/storage"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const browserCSS = `
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2933; }
a { color: #0b69a3; }
table { border-collapse: collapse; margin-top: 1rem; }
th, td { padding: .35rem .75rem; border-bottom: 1px solid #e4e7eb; text-align: left; }
th { background: #f5f7fa; }
.muted { color: #7b8794; }
`

// pageLayout wraps content in the browser chrome.
func pageLayout(title string, content ...g.Node) g.Node {
	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(Lang("en"),
			Head(
				Meta(Charset("UTF-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(title)),
				StyleEl(g.Raw(browserCSS)),
			),
			Body(
				Nav(A(Href("/"), g.Text("All documents"))),
				H1(g.Text(title)),
				g.Group(content),
			),
		),
	})
}

func renderPage(w http.ResponseWriter, node g.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := node.Render(w); err != nil {
		utils.Log.Errorf("rendering page: %v", err)
	}
}

func (s *Server) handleIndexPage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.ListDocuments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	renderPage(w, indexPage(stats, s.Documents))
}

func indexPage(stats []storage.DocumentStats, docs []documents.Document) g.Node {
	if len(stats) == 0 {
		return pageLayout("Tracked rules", P(Class("muted"), g.Text("The archive is empty. Run an audit to record baselines.")))
	}
	rows := make([]g.Node, 0, len(stats))
	for _, st := range stats {
		name, source := "", ""
		if doc, ok := documents.Find(docs, st.DocumentID); ok {
			name, source = doc.Name, doc.SourceDomain()
		}
		rows = append(rows, Tr(
			Td(A(Href("/documents/"+url.PathEscape(st.DocumentID)), g.Text(st.DocumentID))),
			Td(g.Text(name)),
			Td(g.Text(source)),
			Td(g.Text(humanize.Comma(int64(st.SnapshotCount)))),
			Td(g.Text(humanize.Time(st.LastCaptured))),
		))
	}
	return pageLayout("Tracked rules",
		Table(
			THead(Tr(Th(g.Text("Document")), Th(g.Text("Name")), Th(g.Text("Source")), Th(g.Text("Snapshots")), Th(g.Text("Last captured")))),
			TBody(g.Group(rows)),
		),
	)
}

func (s *Server) handleDocumentPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, err := s.DB.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(history) == 0 {
		http.Error(w, "no snapshots for "+id, http.StatusNotFound)
		return
	}
	renderPage(w, documentPage(id, history))
}

// documentPage lists the history newest first, each snapshot linked to a
// redline against the one before it.
func documentPage(id string, history []storage.SnapshotMeta) g.Node {
	rows := make([]g.Node, 0, len(history))
	for i, m := range history {
		var compare g.Node = Span(Class("muted"), g.Text("baseline"))
		if i+1 < len(history) {
			prev := history[i+1]
			compare = A(Href(fmt.Sprintf("/redline?from=%d&to=%d", prev.ID, m.ID)), g.Textf("redline vs #%d", prev.ID))
		}
		rows = append(rows, Tr(
			Td(A(Href(fmt.Sprintf("/api/snapshots/%d", m.ID)), g.Textf("#%d", m.ID))),
			Td(g.Text(m.CapturedAt.Format("2006-01-02 15:04:05")), Span(Class("muted"), g.Text(" ("+humanize.Time(m.CapturedAt)+")"))),
			Td(g.Text(humanize.Bytes(uint64(m.TextLength)))),
			Td(g.Text(m.Summary)),
			Td(compare),
		))
	}
	return pageLayout("History: "+id,
		Table(
			THead(Tr(Th(g.Text("Snapshot")), Th(g.Text("Captured")), Th(g.Text("Size")), Th(g.Text("Summary")), Th())),
			TBody(g.Group(rows)),
		),
	)
}
