package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"notesync/internal/contextutil"
	"notesync/internal/notes"
	"notesync/internal/search"
	"notesync/internal/service"
)

// NoteHandler serves a single note as a rendered HTML page. When the request
// carries a search payload the page also shows the local match position and
// links to the neighbouring notes in the global hit list.
type NoteHandler struct {
	notesService service.NotesService
	parser       goldmark.Markdown
	template     *template.Template
}

// notePageData holds template data for rendered note pages.
type notePageData struct {
	Title     string
	Label     string
	Color     string
	Profile   string
	UpdatedAt string
	Content   template.HTML
	Search    *noteSearchData
}

type noteSearchData struct {
	Query      string
	Counter    string
	LocalCount int
	LocalPos   int
	Preview    string
	PrevURL    string
	NextURL    string
	// Links to the neighbouring occurrences inside this note.
	PrevLocalURL string
	NextLocalURL string
}

// NewNoteHandler creates a new handler for serving note pages.
func NewNoteHandler(notesService service.NotesService) *NoteHandler {
	tmpl := template.Must(template.New("note").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Label}} {{.Title}} - {{.Profile}}</title>
  <style>
    :root {
      color-scheme: dark;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
      margin: 0 auto;
      padding: 2rem;
      max-width: 900px;
      line-height: 1.7;
      background: #050b18;
      color: #e4ecff;
    }
    header {
      margin-bottom: 2rem;
      padding-bottom: 1.5rem;
      border-bottom: 4px solid {{.Color}};
    }
    h1 {
      margin-top: 0;
      font-size: 2rem;
    }
    .label {
      display: inline-block;
      min-width: 2.5rem;
      margin-right: 0.75rem;
      text-align: center;
      border-radius: 8px;
      background: {{.Color}};
      color: #fff;
    }
    article {
      background: rgba(12, 19, 35, 0.85);
      border-radius: 16px;
      padding: 2rem;
    }
    pre {
      background: #0f172a;
      padding: 1rem;
      overflow-x: auto;
      border-radius: 10px;
    }
    .meta, .search {
      color: #94a3b8;
      font-size: 0.95rem;
    }
    .search a {
      color: #60a5fa;
      margin-right: 1rem;
    }
  </style>
</head>
<body>
  <header>
    <h1><span class="label">{{.Label}}</span>{{.Title}}</h1>
    <p class="meta">Profile: {{.Profile}} &middot; Updated: {{.UpdatedAt}}</p>
    {{with .Search}}
    <p class="search">
      &ldquo;{{.Query}}&rdquo; hit {{.Counter}} &middot; in this note {{.LocalPos}}/{{.LocalCount}}
      {{if .Preview}}&middot; <q>{{.Preview}}</q>{{end}}
    </p>
    {{if .NextLocalURL}}
    <p class="search">
      <a href="{{.PrevLocalURL}}">&uarr; previous match</a>
      <a href="{{.NextLocalURL}}">next match &darr;</a>
    </p>
    {{end}}
    <p class="search">
      <a href="{{.PrevURL}}">&larr; previous note</a>
      <a href="{{.NextURL}}">next note &rarr;</a>
    </p>
    {{end}}
  </header>
  <article>{{.Content}}</article>
</body>
</html>`))

	return &NoteHandler{
		notesService: notesService,
		parser: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Linkify,
				extension.Typographer,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		),
		template: tmpl,
	}
}

// ServeHTTP renders the requested note as HTML.
func (h *NoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		MethodNotAllowed(w, r)
		return
	}

	profile := strings.TrimSpace(chi.URLParam(r, "profile"))
	noteID := strings.TrimSpace(chi.URLParam(r, "id"))
	if profile == "" || noteID == "" {
		http.Error(w, "profile and note id are required", http.StatusBadRequest)
		return
	}

	doc, err := h.notesService.Load(ctx, profile)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to load notes")
		return
	}

	i := doc.Find(noteID)
	if i < 0 {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}
	note := doc.Notes[i]

	htmlContent, err := h.renderMarkdown([]byte(note.Content))
	if err != nil {
		logger.ErrorContext(ctx, "failed to render markdown", "note_id", noteID, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	title := note.Title
	if title == "" {
		title = notes.UntitledTitle
	}

	pageData := notePageData{
		Title:     title,
		Label:     note.Label,
		Color:     note.Color,
		Profile:   doc.Profile,
		UpdatedAt: note.UpdatedAt,
		Content:   template.HTML(htmlContent),
	}

	payload := search.ParsePayload(r.URL.Query())
	payload.NoteID = noteID
	if payload.HasQuery() {
		local, _ := strconv.Atoi(r.URL.Query().Get("local"))
		pageData.Search = buildNoteSearch(doc, note, payload, local)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.template.Execute(w, pageData); err != nil {
		logger.ErrorContext(ctx, "failed to execute note template", "note_id", noteID, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}
}

// buildNoteSearch rebuilds the global hit list from the fresh document,
// restores the cursor from the payload and derives the neighbour links.
// local selects the occurrence inside the note, counted from the first.
func buildNoteSearch(doc notes.Document, note notes.Note, payload search.Payload, local int) *noteSearchData {
	cursor, off := payload.Open(note.Content)
	if local > 0 {
		off, _ = cursor.Seek(note.Content, local)
	}
	data := &noteSearchData{
		Query:      payload.Query,
		LocalCount: cursor.Count(note.Content),
		LocalPos:   cursor.Position(note.Content),
	}
	if off >= 0 {
		data.Preview = search.Preview([]rune(note.Content), off, len([]rune(strings.TrimSpace(payload.Query))))

		prev, next := *cursor, *cursor
		prev.Prev(note.Content)
		next.Next(note.Content)
		data.PrevLocalURL = localURL(doc.Profile, note.ID, payload, prev.Position(note.Content)-1)
		data.NextLocalURL = localURL(doc.Profile, note.ID, payload, next.Position(note.Content)-1)
	}

	hits := search.BuildHits(doc.Notes, payload.Query)
	nav := search.NewNavigator(hits)
	start := nav.JumpTo(payload.HitIndex)
	data.Counter = nav.Counter()

	data.PrevURL = noteURL(doc.Profile, nav, nav.PrevNoteHit(), payload.Query)
	nav.JumpTo(start)
	data.NextURL = noteURL(doc.Profile, nav, nav.NextNoteHit(), payload.Query)
	return data
}

// localURL links to the same note and global hit with another local occurrence selected.
func localURL(profile, noteID string, payload search.Payload, local int) string {
	p := search.Payload{Query: payload.Query, HitIndex: payload.HitIndex}
	v := p.Values()
	v.Set("local", strconv.Itoa(local))
	return fmt.Sprintf("/notes/%s/%s?%s", url.PathEscape(profile), url.PathEscape(noteID), v.Encode())
}

func noteURL(profile string, nav *search.Navigator, idx int, query string) string {
	if idx < 0 {
		return "#"
	}
	hit := nav.Hits()[idx]
	p := search.Payload{Query: query, NoteID: hit.NoteID, HitIndex: idx}
	v := p.Values()
	v.Del("id")
	return fmt.Sprintf("/notes/%s/%s?%s", url.PathEscape(profile), url.PathEscape(hit.NoteID), v.Encode())
}

func (h *NoteHandler) renderMarkdown(content []byte) (string, error) {
	var buf bytes.Buffer
	if err := h.parser.Convert(content, &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
